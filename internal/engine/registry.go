package engine

import (
	"fmt"
	"sort"

	"github.com/acmg-evidence-engine/internal/domain"
)

// evaluationOrder fixes the sequence assigners run in. BA1 leads so its
// stand-alone result can preclude BS1 and PM2; BS1 precedes PM2 so the
// frequency band is walked top-down. The remaining codes are
// order-independent and kept in lexical order for stable audit output.
var evaluationOrder = []domain.EvidenceCode{
	domain.BA1, domain.BS1, domain.PM2,
	domain.PVS1,
	domain.PS1, domain.PS2, domain.PS3, domain.PS4,
	domain.PM1, domain.PM3, domain.PM4, domain.PM5, domain.PM6,
	domain.PP1, domain.PP2, domain.PP3, domain.PP4, domain.PP5,
	domain.BS2, domain.BS3, domain.BS4,
	domain.BP1, domain.BP2, domain.BP3, domain.BP4, domain.BP5, domain.BP6, domain.BP7,
}

// newAssigners builds the full assigner table, one per evidence code.
func newAssigners() map[domain.EvidenceCode]Assigner {
	table := map[domain.EvidenceCode]Assigner{}
	add := func(code domain.EvidenceCode, name string, fn EvaluateFunc) {
		table[code] = Assigner{Code: code, Name: name, Evaluate: fn}
	}

	add(domain.PVS1, "Null variant in a gene where LoF is a known mechanism", evaluatePVS1)

	add(domain.PS1, "Same amino acid change as an established pathogenic variant", evaluatePS1)
	add(domain.PS2, "De novo with confirmed maternity and paternity", evaluatePS2)
	add(domain.PS3, "Well-established functional studies show a damaging effect", evaluatePS3)
	add(domain.PS4, "Prevalence in affecteds significantly higher than controls", evaluatePS4)

	add(domain.PM1, "Located in a mutational hotspot or benign-free functional domain", evaluatePM1)
	add(domain.PM2, "Absent from controls or at extremely low frequency", evaluatePM2)
	add(domain.PM3, "Detected in trans with a pathogenic variant (recessive)", evaluatePM3)
	add(domain.PM4, "Protein length change outside a repetitive region", evaluatePM4)
	add(domain.PM5, "Novel missense change at a residue with a known pathogenic change", evaluatePM5)
	add(domain.PM6, "Assumed de novo without confirmation of parentage", evaluatePM6)

	add(domain.PP1, "Cosegregation with disease in multiple affected family members", evaluatePP1)
	add(domain.PP2, "Missense variant in a gene with low benign missense rate", evaluatePP2)
	add(domain.PP3, "Multiple computational predictors support a deleterious effect", evaluatePP3)
	add(domain.PP4, "Phenotype highly specific for the disease", evaluatePP4)
	add(domain.PP5, "Reputable source reports variant as pathogenic", evaluatePP5)

	add(domain.BA1, "Allele frequency above 5% in a population", evaluateBA1)

	add(domain.BS1, "Allele frequency greater than expected for the disorder", evaluateBS1)
	add(domain.BS2, "Observed in healthy adults with the relevant genotype", evaluateBS2)
	add(domain.BS3, "Well-established functional studies show no damaging effect", evaluateBS3)
	add(domain.BS4, "Lack of segregation in affected family members", evaluateBS4)

	add(domain.BP1, "Missense variant in a gene where truncation causes disease", evaluateBP1)
	add(domain.BP2, "Phase observations argue against pathogenicity", evaluateBP2)
	add(domain.BP3, "In-frame length change inside a repetitive region", evaluateBP3)
	add(domain.BP4, "Multiple computational predictors suggest no impact", evaluateBP4)
	add(domain.BP5, "Case has an alternate molecular basis for disease", evaluateBP5)
	add(domain.BP6, "Reputable source reports variant as benign", evaluateBP6)
	add(domain.BP7, "Synonymous variant with no predicted splicing impact", evaluateBP7)

	return table
}

// Registry declares which assigners are active in this deployment. A
// disabled code behaves exactly like an enabled one evaluated with no data,
// so callers see identical combination semantics either way and enabling a
// new data source later only widens coverage.
type Registry struct {
	enabled map[domain.EvidenceCode]bool
}

// NewRegistry creates a registry with every code enabled.
func NewRegistry() *Registry {
	enabled := make(map[domain.EvidenceCode]bool, len(domain.AllEvidenceCodes()))
	for _, code := range domain.AllEvidenceCodes() {
		enabled[code] = true
	}
	return &Registry{enabled: enabled}
}

// NewRegistryWithDisabled creates a registry with the named codes disabled.
// Unknown codes are rejected: a typo in deployment config must not silently
// leave an assigner running.
func NewRegistryWithDisabled(disabled ...string) (*Registry, error) {
	r := NewRegistry()
	for _, raw := range disabled {
		code, err := domain.ParseEvidenceCode(raw)
		if err != nil {
			return nil, fmt.Errorf("building evidence registry: %w", err)
		}
		r.enabled[code] = false
	}
	return r, nil
}

// Enabled reports whether a code's assigner is active.
func (r *Registry) Enabled(code domain.EvidenceCode) bool {
	return r.enabled[code]
}

// Disable deactivates a code.
func (r *Registry) Disable(code domain.EvidenceCode) {
	if code.IsValid() {
		r.enabled[code] = false
	}
}

// Enable activates a code.
func (r *Registry) Enable(code domain.EvidenceCode) {
	if code.IsValid() {
		r.enabled[code] = true
	}
}

// DisabledCodes returns the disabled codes in lexical order.
func (r *Registry) DisabledCodes() []domain.EvidenceCode {
	var codes []domain.EvidenceCode
	for code, on := range r.enabled {
		if !on {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
