package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// EvidenceSet is the per-variant aggregate of applicable evidence codes,
// partitioned into the seven tier buckets. It is created once per
// classification pass, mutated only by assigners, and read-only to the
// combination engine and conflict detector.
type EvidenceSet struct {
	buckets map[Bucket]map[EvidenceCode]struct{}
	reasons map[EvidenceCode]string
}

// NewEvidenceSet creates an empty evidence set with all seven buckets.
func NewEvidenceSet() *EvidenceSet {
	buckets := make(map[Bucket]map[EvidenceCode]struct{}, len(Buckets))
	for _, b := range Buckets {
		buckets[b] = make(map[EvidenceCode]struct{})
	}
	return &EvidenceSet{
		buckets: buckets,
		reasons: make(map[EvidenceCode]string),
	}
}

// Add inserts a code into the bucket implied by its tier. Insertion is
// idempotent: adding a code twice leaves bucket cardinality unchanged.
// Adding an unknown code is a caller-contract violation.
func (es *EvidenceSet) Add(code EvidenceCode) error {
	return es.AddWithReason(code, "")
}

// AddWithReason inserts a code together with the assigner's justification
// text. The reason stays attached for audit; a later insertion with a
// non-empty reason overwrites an earlier empty one, never the reverse.
func (es *EvidenceSet) AddWithReason(code EvidenceCode, reason string) error {
	if !code.IsValid() {
		return fmt.Errorf("adding evidence code %q: %w", string(code), ErrInvalidEvidenceCode)
	}
	es.buckets[code.Bucket()][code] = struct{}{}
	if reason != "" || es.reasons[code] == "" {
		es.reasons[code] = reason
	}
	return nil
}

// Contains reports whether the code has been added to the set.
func (es *EvidenceSet) Contains(code EvidenceCode) bool {
	if !code.IsValid() {
		return false
	}
	_, ok := es.buckets[code.Bucket()][code]
	return ok
}

// Reason returns the justification text recorded for a code, if any.
func (es *EvidenceSet) Reason(code EvidenceCode) string {
	return es.reasons[code]
}

// Count returns the cardinality of one bucket.
func (es *EvidenceSet) Count(b Bucket) int {
	return len(es.buckets[b])
}

// Codes returns the codes in one bucket in stable lexical order.
func (es *EvidenceSet) Codes(b Bucket) []EvidenceCode {
	codes := make([]EvidenceCode, 0, len(es.buckets[b]))
	for code := range es.buckets[b] {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// AllPathogenic returns the union of the PVS, PS, PM and PP buckets.
func (es *EvidenceSet) AllPathogenic() []EvidenceCode {
	return es.union(func(b Bucket) bool { return b.IsPathogenic() })
}

// AllBenign returns the union of the BA, BS and BP buckets.
func (es *EvidenceSet) AllBenign() []EvidenceCode {
	return es.union(func(b Bucket) bool { return b.IsBenign() })
}

func (es *EvidenceSet) union(keep func(Bucket) bool) []EvidenceCode {
	var codes []EvidenceCode
	for _, b := range Buckets {
		if keep(b) {
			codes = append(codes, es.Codes(b)...)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// HasConflict reports the coarse conflict signal: at least one pathogenic
// bucket and at least one benign bucket are non-empty. Pairwise
// incompatibilities are the conflict detector's job.
func (es *EvidenceSet) HasConflict() bool {
	return len(es.AllPathogenic()) > 0 && len(es.AllBenign()) > 0
}

// Size returns the total number of codes across all buckets.
func (es *EvidenceSet) Size() int {
	n := 0
	for _, b := range Buckets {
		n += len(es.buckets[b])
	}
	return n
}

// evidenceSetJSON is the wire form of an EvidenceSet: bucket name to sorted
// code list, plus the reason map for audit.
type evidenceSetJSON struct {
	Buckets map[Bucket][]EvidenceCode `json:"buckets"`
	Reasons map[EvidenceCode]string   `json:"reasons,omitempty"`
}

// MarshalJSON serializes the bucket contents. Empty buckets are omitted.
func (es *EvidenceSet) MarshalJSON() ([]byte, error) {
	out := evidenceSetJSON{
		Buckets: make(map[Bucket][]EvidenceCode),
	}
	for _, b := range Buckets {
		if len(es.buckets[b]) > 0 {
			out.Buckets[b] = es.Codes(b)
		}
	}
	if len(es.reasons) > 0 {
		out.Reasons = make(map[EvidenceCode]string, len(es.reasons))
		for code, reason := range es.reasons {
			if es.Contains(code) {
				out.Reasons[code] = reason
			}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reconstructs an evidence set from its wire form. The
// reconstructed set has identical bucket cardinalities to the original.
func (es *EvidenceSet) UnmarshalJSON(data []byte) error {
	var in evidenceSetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("unmarshaling evidence set: %w", err)
	}

	fresh := NewEvidenceSet()
	for _, codes := range in.Buckets {
		for _, code := range codes {
			if err := fresh.AddWithReason(code, in.Reasons[code]); err != nil {
				return err
			}
		}
	}
	*es = *fresh
	return nil
}
