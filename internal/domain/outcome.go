package domain

import "time"

// EvidenceResult is the output of one assigner call. Applies=false with
// DataAvailable=false means the code could not be evaluated; Applies=false
// with DataAvailable=true means it was evaluated and does not meet its
// threshold. The distinction decides whether a human must supply a missing
// fact, so it is never collapsed.
type EvidenceResult struct {
	Code          EvidenceCode `json:"code"`
	Applies       bool         `json:"applies"`
	Reason        string       `json:"reason"`
	Confidence    float64      `json:"confidence"`
	DataAvailable bool         `json:"data_available"`
}

// ConflictWarning names two codes whose coexistence suggests a data or
// logic error. Warnings are advisory and never block classification.
type ConflictWarning struct {
	CodeA   EvidenceCode `json:"code_a"`
	CodeB   EvidenceCode `json:"code_b"`
	Message string       `json:"message"`
}

// ClassificationOutcome is the terminal result of one classification pass.
// It is always recomputed from the full evidence set, never patched
// incrementally.
type ClassificationOutcome struct {
	ID        string `json:"id"`
	VariantID string `json:"variant_id"`

	Classification Classification `json:"classification"`
	HasConflict    bool           `json:"has_conflict"`

	// Buckets carries the full per-bucket code lists for audit and report
	// rendering. Empty buckets are omitted.
	Buckets map[Bucket][]EvidenceCode `json:"buckets"`

	// Results holds every assigner's result, applied or not, so reporting
	// can distinguish inapplicable codes from unevaluable ones.
	Results []EvidenceResult `json:"results,omitempty"`

	Warnings []ConflictWarning `json:"warnings,omitempty"`

	EngineVersion string        `json:"engine_version"`
	ClassifiedAt  time.Time     `json:"classified_at"`
	Elapsed       time.Duration `json:"elapsed"`
}

// AppliedCodes returns all codes that fired, in bucket order.
func (o *ClassificationOutcome) AppliedCodes() []EvidenceCode {
	var codes []EvidenceCode
	for _, b := range Buckets {
		codes = append(codes, o.Buckets[b]...)
	}
	return codes
}
