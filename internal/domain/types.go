// Package domain contains the core entities for genetic variant classification
// following the ACMG/AMP (American College of Medical Genetics and Genomics/
// Association for Molecular Pathology) guidelines.
//
// Reference: Richards et al. (2015) Standards and guidelines for the
// interpretation of sequence variants. Genet Med. 17(5):405-24.
package domain

import "errors"

// Classification represents the five terminal ACMG/AMP classification states.
type Classification string

const (
	PATHOGENIC        Classification = "PATHOGENIC"
	LIKELY_PATHOGENIC Classification = "LIKELY_PATHOGENIC"
	VUS               Classification = "VUS"
	LIKELY_BENIGN     Classification = "LIKELY_BENIGN"
	BENIGN            Classification = "BENIGN"
)

// RuleCategory represents the direction of an evidence code.
type RuleCategory string

const (
	PATHOGENIC_RULE RuleCategory = "PATHOGENIC"
	BENIGN_RULE     RuleCategory = "BENIGN"
)

// RuleStrength represents the weight class of an evidence code.
// STAND_ALONE applies only to BA1 on the benign side.
type RuleStrength string

const (
	STAND_ALONE RuleStrength = "STAND_ALONE"
	VERY_STRONG RuleStrength = "VERY_STRONG"
	STRONG      RuleStrength = "STRONG"
	MODERATE    RuleStrength = "MODERATE"
	SUPPORTING  RuleStrength = "SUPPORTING"
)

// InheritanceMode represents the disease inheritance mode of the gene under
// evaluation. It selects the PM2 rarity threshold.
type InheritanceMode string

const (
	DOMINANT  InheritanceMode = "DOMINANT"
	RECESSIVE InheritanceMode = "RECESSIVE"
	UNKNOWN   InheritanceMode = "UNKNOWN"
)

// Validation errors for classification data integrity.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidClassification = errors.New("invalid ACMG/AMP classification")
	ErrInvalidEvidenceCode   = errors.New("invalid ACMG/AMP evidence code")
	ErrInvalidConsequence    = errors.New("invalid molecular consequence")
)

// IsValid validates that the Classification is one of the five ACMG/AMP
// terminal states. Only valid classifications may reach clinical reporting.
func (c Classification) IsValid() bool {
	switch c {
	case PATHOGENIC, LIKELY_PATHOGENIC, VUS, LIKELY_BENIGN, BENIGN:
		return true
	default:
		return false
	}
}

// String returns the string representation of the classification.
func (c Classification) String() string {
	return string(c)
}

// LogFields returns structured logging fields for audit trails.
func (c Classification) LogFields() map[string]any {
	return map[string]any{
		"classification":  string(c),
		"is_valid":        c.IsValid(),
		"requires_review": c.RequiresClinicalAction(),
	}
}

// RequiresClinicalAction reports whether the classification requires
// clinical follow-up. Unknown values are treated as actionable.
func (c Classification) RequiresClinicalAction() bool {
	switch c {
	case VUS, LIKELY_BENIGN, BENIGN:
		return false
	default:
		return true
	}
}

// IsValid validates the rule category.
func (rc RuleCategory) IsValid() bool {
	switch rc {
	case PATHOGENIC_RULE, BENIGN_RULE:
		return true
	default:
		return false
	}
}

// String returns the string representation of the rule category.
func (rc RuleCategory) String() string {
	return string(rc)
}

// IsValid validates the rule strength.
func (rs RuleStrength) IsValid() bool {
	switch rs {
	case STAND_ALONE, VERY_STRONG, STRONG, MODERATE, SUPPORTING:
		return true
	default:
		return false
	}
}

// String returns the string representation of the rule strength.
func (rs RuleStrength) String() string {
	return string(rs)
}

// IsValid validates the inheritance mode.
func (im InheritanceMode) IsValid() bool {
	switch im {
	case DOMINANT, RECESSIVE, UNKNOWN:
		return true
	default:
		return false
	}
}
