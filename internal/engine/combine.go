package engine

import (
	"fmt"

	"github.com/acmg-evidence-engine/internal/domain"
)

// Combine maps an evidence set to exactly one of the five classifications
// using the Richards et al. (2015) Table 5 rules in strict priority order:
// stand-alone benign, pathogenic, likely pathogenic, benign, likely benign,
// uncertain significance. Pathogenic-direction rules are checked before
// benign-direction ones, so mixed evidence resolves conservatively toward
// the pathogenic side; the conflict detector separately flags such sets for
// review. The function is pure and deterministic over bucket cardinalities.
func Combine(set *domain.EvidenceSet) (domain.Classification, error) {
	pvs := set.Count(domain.BucketPVS)
	ps := set.Count(domain.BucketPS)
	pm := set.Count(domain.BucketPM)
	pp := set.Count(domain.BucketPP)
	ba := set.Count(domain.BucketBA)
	bs := set.Count(domain.BucketBS)
	bp := set.Count(domain.BucketBP)

	for _, n := range []int{pvs, ps, pm, pp, ba, bs, bp} {
		if n < 0 {
			return "", fmt.Errorf("combining evidence: negative bucket count %d", n)
		}
	}

	// Rule 1: stand-alone benign overrides everything.
	if ba >= 1 {
		return domain.BENIGN, nil
	}

	// Rule 2: pathogenic.
	switch {
	case pvs >= 1 && ps >= 1,
		pvs >= 1 && pm >= 2,
		pvs >= 1 && pm == 1 && pp >= 1,
		pvs >= 1 && pp >= 2,
		ps >= 2,
		ps >= 1 && pm >= 3,
		ps >= 1 && pm >= 2 && pp >= 2,
		ps >= 1 && pm >= 1 && pp >= 4:
		return domain.PATHOGENIC, nil
	}

	// Rule 3: likely pathogenic.
	switch {
	case pvs >= 1 && pm >= 1,
		ps >= 1 && pm >= 1,
		ps >= 1 && pp >= 2,
		pm >= 3,
		pm >= 2 && pp >= 2,
		pm >= 1 && pp >= 4:
		return domain.LIKELY_PATHOGENIC, nil
	}

	// Rule 4: benign.
	if bs >= 2 || (bs >= 1 && bp >= 1) {
		return domain.BENIGN, nil
	}

	// Rule 5: likely benign.
	if bs >= 1 || bp >= 2 {
		return domain.LIKELY_BENIGN, nil
	}

	return domain.VUS, nil
}
