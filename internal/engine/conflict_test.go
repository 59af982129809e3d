package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmg-evidence-engine/internal/domain"
)

func TestDetectConflicts(t *testing.T) {
	tests := []struct {
		name     string
		codes    []domain.EvidenceCode
		expected [][2]domain.EvidenceCode
	}{
		{
			name:  "empty set has no conflicts",
			codes: nil,
		},
		{
			name:  "consistent pathogenic evidence has no conflicts",
			codes: []domain.EvidenceCode{domain.PVS1, domain.PS1, domain.PM2},
		},
		{
			name:     "frequency contradiction PM2 with BS1",
			codes:    []domain.EvidenceCode{domain.PM2, domain.BS1},
			expected: [][2]domain.EvidenceCode{{domain.PM2, domain.BS1}},
		},
		{
			name:     "frequency contradiction PM2 with BS2",
			codes:    []domain.EvidenceCode{domain.PM2, domain.BS2},
			expected: [][2]domain.EvidenceCode{{domain.PM2, domain.BS2}},
		},
		{
			name:     "cohort contradiction PS4 with BS4",
			codes:    []domain.EvidenceCode{domain.PS4, domain.BS4},
			expected: [][2]domain.EvidenceCode{{domain.PS4, domain.BS4}},
		},
		{
			name:     "mechanism contradiction PP2 with BP1",
			codes:    []domain.EvidenceCode{domain.PP2, domain.BP1},
			expected: [][2]domain.EvidenceCode{{domain.PP2, domain.BP1}},
		},
		{
			name:     "functional contradiction PS3 with BS3",
			codes:    []domain.EvidenceCode{domain.PS3, domain.BS3},
			expected: [][2]domain.EvidenceCode{{domain.PS3, domain.BS3}},
		},
		{
			name:     "phase contradiction PM3 with BP2",
			codes:    []domain.EvidenceCode{domain.PM3, domain.BP2},
			expected: [][2]domain.EvidenceCode{{domain.PM3, domain.BP2}},
		},
		{
			name:  "opposite directions without a known pair yield no warning",
			codes: []domain.EvidenceCode{domain.PVS1, domain.BP7},
		},
		{
			name:  "multiple contradictions are all reported",
			codes: []domain.EvidenceCode{domain.PM2, domain.BS1, domain.PS3, domain.BS3},
			expected: [][2]domain.EvidenceCode{
				{domain.PM2, domain.BS1},
				{domain.PS3, domain.BS3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := DetectConflicts(buildSet(t, tt.codes...))
			require.Len(t, warnings, len(tt.expected))

			for i, pair := range tt.expected {
				assert.Equal(t, pair[0], warnings[i].CodeA)
				assert.Equal(t, pair[1], warnings[i].CodeB)
				assert.Contains(t, warnings[i].Message, pair[0].String())
				assert.Contains(t, warnings[i].Message, pair[1].String())
			}
		})
	}
}

func TestConflictWarningsAreAdvisory(t *testing.T) {
	set := buildSet(t, domain.PM2, domain.BS1)

	warnings := DetectConflicts(set)
	require.NotEmpty(t, warnings)

	classification, err := Combine(set)
	require.NoError(t, err)
	assert.Equal(t, domain.LIKELY_BENIGN, classification)
	assert.True(t, set.HasConflict())
}
