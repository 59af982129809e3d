package domain

import (
	"fmt"
	"sort"
)

// EvidenceCode identifies one of the 28 fixed ACMG/AMP evidence criteria.
// The set is closed: codes are not user-extensible, only their enablement is
// configurable per deployment.
type EvidenceCode string

const (
	PVS1 EvidenceCode = "PVS1"

	PS1 EvidenceCode = "PS1"
	PS2 EvidenceCode = "PS2"
	PS3 EvidenceCode = "PS3"
	PS4 EvidenceCode = "PS4"

	PM1 EvidenceCode = "PM1"
	PM2 EvidenceCode = "PM2"
	PM3 EvidenceCode = "PM3"
	PM4 EvidenceCode = "PM4"
	PM5 EvidenceCode = "PM5"
	PM6 EvidenceCode = "PM6"

	PP1 EvidenceCode = "PP1"
	PP2 EvidenceCode = "PP2"
	PP3 EvidenceCode = "PP3"
	PP4 EvidenceCode = "PP4"
	PP5 EvidenceCode = "PP5"

	BA1 EvidenceCode = "BA1"

	BS1 EvidenceCode = "BS1"
	BS2 EvidenceCode = "BS2"
	BS3 EvidenceCode = "BS3"
	BS4 EvidenceCode = "BS4"

	BP1 EvidenceCode = "BP1"
	BP2 EvidenceCode = "BP2"
	BP3 EvidenceCode = "BP3"
	BP4 EvidenceCode = "BP4"
	BP5 EvidenceCode = "BP5"
	BP6 EvidenceCode = "BP6"
	BP7 EvidenceCode = "BP7"
)

// Bucket identifies one of the seven tier buckets of an EvidenceSet.
type Bucket string

const (
	BucketPVS Bucket = "PVS"
	BucketPS  Bucket = "PS"
	BucketPM  Bucket = "PM"
	BucketPP  Bucket = "PP"
	BucketBA  Bucket = "BA"
	BucketBS  Bucket = "BS"
	BucketBP  Bucket = "BP"
)

// Buckets lists all seven tier buckets in strength order, pathogenic first.
var Buckets = []Bucket{BucketPVS, BucketPS, BucketPM, BucketPP, BucketBA, BucketBS, BucketBP}

// codeAttributes holds the immutable (category, strength, bucket) attributes
// of an evidence code.
type codeAttributes struct {
	Category RuleCategory
	Strength RuleStrength
	Bucket   Bucket
}

var codeTable = map[EvidenceCode]codeAttributes{
	PVS1: {PATHOGENIC_RULE, VERY_STRONG, BucketPVS},

	PS1: {PATHOGENIC_RULE, STRONG, BucketPS},
	PS2: {PATHOGENIC_RULE, STRONG, BucketPS},
	PS3: {PATHOGENIC_RULE, STRONG, BucketPS},
	PS4: {PATHOGENIC_RULE, STRONG, BucketPS},

	PM1: {PATHOGENIC_RULE, MODERATE, BucketPM},
	PM2: {PATHOGENIC_RULE, MODERATE, BucketPM},
	PM3: {PATHOGENIC_RULE, MODERATE, BucketPM},
	PM4: {PATHOGENIC_RULE, MODERATE, BucketPM},
	PM5: {PATHOGENIC_RULE, MODERATE, BucketPM},
	PM6: {PATHOGENIC_RULE, MODERATE, BucketPM},

	PP1: {PATHOGENIC_RULE, SUPPORTING, BucketPP},
	PP2: {PATHOGENIC_RULE, SUPPORTING, BucketPP},
	PP3: {PATHOGENIC_RULE, SUPPORTING, BucketPP},
	PP4: {PATHOGENIC_RULE, SUPPORTING, BucketPP},
	PP5: {PATHOGENIC_RULE, SUPPORTING, BucketPP},

	BA1: {BENIGN_RULE, STAND_ALONE, BucketBA},

	BS1: {BENIGN_RULE, STRONG, BucketBS},
	BS2: {BENIGN_RULE, STRONG, BucketBS},
	BS3: {BENIGN_RULE, STRONG, BucketBS},
	BS4: {BENIGN_RULE, STRONG, BucketBS},

	BP1: {BENIGN_RULE, SUPPORTING, BucketBP},
	BP2: {BENIGN_RULE, SUPPORTING, BucketBP},
	BP3: {BENIGN_RULE, SUPPORTING, BucketBP},
	BP4: {BENIGN_RULE, SUPPORTING, BucketBP},
	BP5: {BENIGN_RULE, SUPPORTING, BucketBP},
	BP6: {BENIGN_RULE, SUPPORTING, BucketBP},
	BP7: {BENIGN_RULE, SUPPORTING, BucketBP},
}

// AllEvidenceCodes returns the 28 evidence codes in stable lexical order.
func AllEvidenceCodes() []EvidenceCode {
	codes := make([]EvidenceCode, 0, len(codeTable))
	for code := range codeTable {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// ParseEvidenceCode validates a raw string against the closed code set.
func ParseEvidenceCode(s string) (EvidenceCode, error) {
	code := EvidenceCode(s)
	if !code.IsValid() {
		return "", fmt.Errorf("parsing evidence code %q: %w", s, ErrInvalidEvidenceCode)
	}
	return code, nil
}

// IsValid reports whether the code belongs to the closed 28-code set.
func (c EvidenceCode) IsValid() bool {
	_, ok := codeTable[c]
	return ok
}

// String returns the string representation of the evidence code.
func (c EvidenceCode) String() string {
	return string(c)
}

// Category returns the direction (pathogenic or benign) of the code.
// Calling this on an invalid code is a caller-contract violation and panics.
func (c EvidenceCode) Category() RuleCategory {
	return c.attrs().Category
}

// Strength returns the strength tier of the code.
func (c EvidenceCode) Strength() RuleStrength {
	return c.attrs().Strength
}

// Bucket returns the EvidenceSet bucket the code belongs to. Every code
// belongs to exactly one bucket.
func (c EvidenceCode) Bucket() Bucket {
	return c.attrs().Bucket
}

func (c EvidenceCode) attrs() codeAttributes {
	attrs, ok := codeTable[c]
	if !ok {
		panic(fmt.Sprintf("domain: unknown evidence code %q", string(c)))
	}
	return attrs
}

// IsPathogenic reports whether the bucket holds pathogenic-direction codes.
func (b Bucket) IsPathogenic() bool {
	switch b {
	case BucketPVS, BucketPS, BucketPM, BucketPP:
		return true
	default:
		return false
	}
}

// IsBenign reports whether the bucket holds benign-direction codes.
func (b Bucket) IsBenign() bool {
	return !b.IsPathogenic()
}

// String returns the string representation of the bucket.
func (b Bucket) String() string {
	return string(b)
}
