package engine

import (
	"fmt"

	"github.com/acmg-evidence-engine/internal/domain"
)

// conflictPairs lists code pairs whose coexistence suggests a data or logic
// error rather than genuine biological ambiguity.
var conflictPairs = []struct {
	a, b    domain.EvidenceCode
	message string
}{
	{domain.PM2, domain.BS1, "frequency contradiction: variant cannot be both rare and common"},
	{domain.PM2, domain.BS2, "frequency contradiction: rare variant observed in healthy individuals"},
	{domain.PS4, domain.BS4, "cohort-evidence contradiction: enriched in cases yet fails to segregate"},
	{domain.PP2, domain.BP1, "mechanism contradiction: the curated gene lists behind PP2 and BP1 are disjoint"},
	{domain.PS3, domain.BS3, "functional-study contradiction: same assay class with opposite verdicts"},
	{domain.PM3, domain.BP2, "phase-interpretation contradiction: trans observation read both ways"},
}

// DetectConflicts returns advisory warnings for known-incompatible code
// pairs plus a coarse note when pathogenic and benign evidence coexist.
// Warnings never block classification; they route the outcome to human
// review.
func DetectConflicts(set *domain.EvidenceSet) []domain.ConflictWarning {
	var warnings []domain.ConflictWarning

	for _, pair := range conflictPairs {
		if set.Contains(pair.a) && set.Contains(pair.b) {
			warnings = append(warnings, domain.ConflictWarning{
				CodeA:   pair.a,
				CodeB:   pair.b,
				Message: fmt.Sprintf("%s and %s both apply: %s", pair.a, pair.b, pair.message),
			})
		}
	}

	return warnings
}
