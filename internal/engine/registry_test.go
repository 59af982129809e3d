package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmg-evidence-engine/internal/domain"
)

func TestNewRegistryEnablesEverything(t *testing.T) {
	r := NewRegistry()
	for _, code := range domain.AllEvidenceCodes() {
		assert.True(t, r.Enabled(code), "code %s should start enabled", code)
	}
	assert.Empty(t, r.DisabledCodes())
}

func TestNewRegistryWithDisabled(t *testing.T) {
	r, err := NewRegistryWithDisabled("PP3", "BP4")
	require.NoError(t, err)

	assert.False(t, r.Enabled(domain.PP3))
	assert.False(t, r.Enabled(domain.BP4))
	assert.True(t, r.Enabled(domain.PM2))
	assert.Equal(t, []domain.EvidenceCode{domain.BP4, domain.PP3}, r.DisabledCodes())
}

func TestNewRegistryWithDisabledRejectsUnknownCodes(t *testing.T) {
	_, err := NewRegistryWithDisabled("PP9")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidEvidenceCode)
}

func TestRegistryEnableDisable(t *testing.T) {
	r := NewRegistry()

	r.Disable(domain.PP1)
	assert.False(t, r.Enabled(domain.PP1))

	r.Enable(domain.PP1)
	assert.True(t, r.Enabled(domain.PP1))
}

func TestEvaluationOrderCoversEveryCode(t *testing.T) {
	assert.Len(t, evaluationOrder, len(domain.AllEvidenceCodes()))

	seen := map[domain.EvidenceCode]bool{}
	for _, code := range evaluationOrder {
		assert.False(t, seen[code], "code %s listed twice", code)
		seen[code] = true
	}

	assigners := newAssigners()
	for _, code := range evaluationOrder {
		a, ok := assigners[code]
		require.True(t, ok, "no assigner registered for %s", code)
		assert.Equal(t, code, a.Code)
		assert.NotNil(t, a.Evaluate)
		assert.NotEmpty(t, a.Name)
	}
}

func TestEvaluationOrderFrequencyChainFirst(t *testing.T) {
	require.GreaterOrEqual(t, len(evaluationOrder), 3)
	assert.Equal(t, domain.BA1, evaluationOrder[0])
	assert.Equal(t, domain.BS1, evaluationOrder[1])
	assert.Equal(t, domain.PM2, evaluationOrder[2])
}
