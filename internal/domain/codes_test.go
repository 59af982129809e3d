package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllEvidenceCodes(t *testing.T) {
	codes := AllEvidenceCodes()
	assert.Len(t, codes, 28)

	seen := map[EvidenceCode]bool{}
	for _, code := range codes {
		assert.True(t, code.IsValid())
		assert.False(t, seen[code], "code %s listed twice", code)
		seen[code] = true
	}
}

func TestEvidenceCodeAttributes(t *testing.T) {
	tests := []struct {
		code     EvidenceCode
		category RuleCategory
		strength RuleStrength
		bucket   Bucket
	}{
		{PVS1, PATHOGENIC_RULE, VERY_STRONG, BucketPVS},
		{PS1, PATHOGENIC_RULE, STRONG, BucketPS},
		{PS4, PATHOGENIC_RULE, STRONG, BucketPS},
		{PM2, PATHOGENIC_RULE, MODERATE, BucketPM},
		{PM6, PATHOGENIC_RULE, MODERATE, BucketPM},
		{PP3, PATHOGENIC_RULE, SUPPORTING, BucketPP},
		{PP5, PATHOGENIC_RULE, SUPPORTING, BucketPP},
		{BA1, BENIGN_RULE, STAND_ALONE, BucketBA},
		{BS1, BENIGN_RULE, STRONG, BucketBS},
		{BS4, BENIGN_RULE, STRONG, BucketBS},
		{BP1, BENIGN_RULE, SUPPORTING, BucketBP},
		{BP7, BENIGN_RULE, SUPPORTING, BucketBP},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.category, tt.code.Category())
			assert.Equal(t, tt.strength, tt.code.Strength())
			assert.Equal(t, tt.bucket, tt.code.Bucket())
		})
	}
}

func TestEveryCodeBelongsToExactlyOneBucket(t *testing.T) {
	byBucket := map[Bucket]int{}
	for _, code := range AllEvidenceCodes() {
		b := code.Bucket()
		assert.Contains(t, Buckets, b)
		byBucket[b]++

		if b.IsPathogenic() {
			assert.Equal(t, PATHOGENIC_RULE, code.Category())
		} else {
			assert.Equal(t, BENIGN_RULE, code.Category())
		}
	}

	assert.Equal(t, 1, byBucket[BucketPVS])
	assert.Equal(t, 4, byBucket[BucketPS])
	assert.Equal(t, 6, byBucket[BucketPM])
	assert.Equal(t, 5, byBucket[BucketPP])
	assert.Equal(t, 1, byBucket[BucketBA])
	assert.Equal(t, 4, byBucket[BucketBS])
	assert.Equal(t, 7, byBucket[BucketBP])
}

func TestParseEvidenceCode(t *testing.T) {
	code, err := ParseEvidenceCode("PM2")
	require.NoError(t, err)
	assert.Equal(t, PM2, code)

	_, err = ParseEvidenceCode("pm2")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEvidenceCode)

	_, err = ParseEvidenceCode("PVS2")
	assert.ErrorIs(t, err, ErrInvalidEvidenceCode)

	_, err = ParseEvidenceCode("")
	assert.ErrorIs(t, err, ErrInvalidEvidenceCode)
}

func TestEvidenceCodeIsValid(t *testing.T) {
	assert.True(t, EvidenceCode("BA1").IsValid())
	assert.False(t, EvidenceCode("BA2").IsValid())
	assert.False(t, EvidenceCode("XYZ").IsValid())
}
