package engine

import (
	"fmt"

	"github.com/acmg-evidence-engine/internal/domain"
)

// Pathogenic-direction assigners. Each reproduces the published criterion
// exactly and degrades to data-unavailable when a prerequisite fact is
// missing; none ever defaults to "applies".

func evaluatePVS1(variant *domain.Variant, res *domain.Resources, _ *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if !variant.Consequence.IsLossOfFunction() {
		return notMet(domain.PVS1, fmt.Sprintf("consequence %s is not a null-variant effect", variant.Consequence))
	}
	if res.LossOfFunctionIntolerant == nil {
		return unavailable(domain.PVS1, "no loss-of-function gene curation wired")
	}
	if !res.LossOfFunctionIntolerant.Contains(variant.GeneSymbol) {
		return notMet(domain.PVS1, fmt.Sprintf("gene %s is not on the LoF-intolerant list", variant.GeneSymbol))
	}
	if variant.InLastExon {
		return notMet(domain.PVS1, "variant is in the last exon where truncation may escape nonsense-mediated decay")
	}
	return applies(domain.PVS1, 0.95, fmt.Sprintf("%s variant in LoF-intolerant gene %s", variant.Consequence, variant.GeneSymbol))
}

func evaluatePS1(variant *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if variant.Consequence != domain.Missense {
		return notMet(domain.PS1, "criterion applies to missense variants only")
	}
	if data.Curated == nil {
		return unavailable(domain.PS1, "no curated residue-level assertions available")
	}
	if data.Curated.SamePathogenicAAChange {
		return applies(domain.PS1, 0.9, fmt.Sprintf("established pathogenic variant causes the same change %s", variant.AminoAcidChange))
	}
	return notMet(domain.PS1, "no established pathogenic variant with the same amino acid change")
}

func evaluatePS2(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if data.DeNovo == nil {
		return unavailable(domain.PS2, "de novo status not determined")
	}
	if data.DeNovo.Confirmed {
		return applies(domain.PS2, 0.9, "de novo occurrence with confirmed maternity and paternity")
	}
	return notMet(domain.PS2, "de novo occurrence is assumed, not confirmed")
}

func evaluatePS3(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if data.Functional == nil {
		return unavailable(domain.PS3, "no functional-study verdict available")
	}
	switch data.Functional.Verdict {
	case domain.FunctionalDamaging:
		return applies(domain.PS3, 0.85, "well-established functional study shows a damaging effect")
	case domain.FunctionalBenign:
		return notMet(domain.PS3, "functional study shows no damaging effect")
	default:
		return notMet(domain.PS3, "functional study is inconclusive")
	}
}

func evaluatePS4(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, th Thresholds) domain.EvidenceResult {
	if data.CaseControl == nil {
		return unavailable(domain.PS4, "no case-control cohort statistics available")
	}
	cc := data.CaseControl
	if cc.OddsRatio >= th.PS4MinOddsRatio && cc.PValue <= th.PS4MaxPValue {
		return applies(domain.PS4, 0.8, fmt.Sprintf("prevalence in affecteds significantly increased (OR=%.2f, p=%.3g)", cc.OddsRatio, cc.PValue))
	}
	return notMet(domain.PS4, fmt.Sprintf("cohort statistics below significance (OR=%.2f, p=%.3g)", cc.OddsRatio, cc.PValue))
}

func evaluatePM1(variant *domain.Variant, res *domain.Resources, _ *domain.EvidenceData, th Thresholds) domain.EvidenceResult {
	regions, wired := res.DomainsFor(variant.GeneSymbol)
	if !wired {
		return unavailable(domain.PM1, "no functional-domain annotation wired")
	}
	if variant.ProteinPosition == 0 {
		return unavailable(domain.PM1, "protein position unknown")
	}
	for _, region := range regions {
		if region.Contains(variant.ProteinPosition) &&
			region.PathogenicCount >= th.PM1MinPathogenic && region.BenignCount == 0 {
			return applies(domain.PM1, 0.8, fmt.Sprintf("position %d falls in hotspot %s (%d pathogenic, 0 benign)",
				variant.ProteinPosition, region.Name, region.PathogenicCount))
		}
	}
	return notMet(domain.PM1, "variant is not in a mutational hotspot or benign-free functional domain")
}

func evaluatePM2(variant *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, th Thresholds) domain.EvidenceResult {
	if data.Population == nil {
		return unavailable(domain.PM2, "no population frequency data available")
	}
	pop := data.Population
	if !pop.Found {
		return applies(domain.PM2, 0.9, "variant absent from the reference population database")
	}
	cutoff := th.pm2Cutoff(variant.Mode())
	if freq := pop.MaxFrequency(); freq < cutoff {
		return applies(domain.PM2, 0.8, fmt.Sprintf("frequency %.3g below the %s cutoff %.3g", freq, variant.Mode(), cutoff))
	}
	return notMet(domain.PM2, fmt.Sprintf("frequency %.3g at or above the %s cutoff %.3g", pop.MaxFrequency(), variant.Mode(), cutoff))
}

func evaluatePM3(variant *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if variant.Mode() != domain.RECESSIVE {
		return notMet(domain.PM3, "criterion applies to recessive disorders only")
	}
	if data.Phase == nil {
		return unavailable(domain.PM3, "no phase information available")
	}
	if data.Phase.InTransWithPathogenic {
		return applies(domain.PM3, 0.85, "detected in trans with a pathogenic variant")
	}
	return notMet(domain.PM3, "not observed in trans with a pathogenic variant")
}

func evaluatePM4(variant *domain.Variant, res *domain.Resources, _ *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if !variant.Consequence.IsProteinLengthChange() {
		return notMet(domain.PM4, "consequence does not change protein length in-frame")
	}
	// An unannotated region counts as non-repetitive for PM4; only a known
	// repeat hit withdraws the criterion.
	if repeats, wired := res.RepeatsFor(variant.GeneSymbol); wired && variant.ProteinPosition > 0 {
		for _, repeat := range repeats {
			if repeat.Contains(variant.ProteinPosition) {
				return notMet(domain.PM4, "length change falls inside a known repetitive region")
			}
		}
	}
	return applies(domain.PM4, 0.8, fmt.Sprintf("%s changes protein length outside any annotated repeat", variant.Consequence))
}

func evaluatePM5(variant *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if variant.Consequence != domain.Missense {
		return notMet(domain.PM5, "criterion applies to missense variants only")
	}
	if data.Curated == nil {
		return unavailable(domain.PM5, "no curated residue-level assertions available")
	}
	if data.Curated.SamePathogenicAAChange {
		// The identical change is PS1 territory; PM5 requires a novel one.
		return notMet(domain.PM5, "identical change is already established pathogenic (see PS1)")
	}
	if data.Curated.OtherPathogenicAtResidue {
		return applies(domain.PM5, 0.8, "different pathogenic missense change seen at the same residue")
	}
	return notMet(domain.PM5, "no pathogenic change known at this residue")
}

func evaluatePM6(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if data.DeNovo == nil {
		return unavailable(domain.PM6, "de novo status not determined")
	}
	if !data.DeNovo.Confirmed {
		return applies(domain.PM6, 0.75, "assumed de novo without confirmation of maternity and paternity")
	}
	return notMet(domain.PM6, "parentage confirmed; counted under PS2 instead")
}

func evaluatePP1(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if data.Segregation == nil {
		return unavailable(domain.PP1, "no segregation data available")
	}
	seg := data.Segregation
	if !seg.Informative {
		return notMet(domain.PP1, "pedigree is not informative for segregation")
	}
	if seg.Cosegregates {
		return applies(domain.PP1, 0.7, fmt.Sprintf("cosegregates with disease in %d affected family members", seg.AffectedCarriers))
	}
	return notMet(domain.PP1, "variant does not cosegregate with disease")
}

func evaluatePP2(variant *domain.Variant, res *domain.Resources, _ *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if variant.Consequence != domain.Missense {
		return notMet(domain.PP2, "criterion applies to missense variants only")
	}
	if res.MissenseConstrained == nil {
		return unavailable(domain.PP2, "no missense-constraint gene curation wired")
	}
	if res.MissenseConstrained.Contains(variant.GeneSymbol) {
		return applies(domain.PP2, 0.7, fmt.Sprintf("missense variant in constrained gene %s with low benign missense rate", variant.GeneSymbol))
	}
	return notMet(domain.PP2, fmt.Sprintf("gene %s is not missense-constrained", variant.GeneSymbol))
}

func evaluatePP3(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, th Thresholds) domain.EvidenceResult {
	consensus, ok := predictorConsensus(data.Predictions)
	if !ok {
		return unavailable(domain.PP3, "no computational prediction scores available")
	}
	if consensus.deleterious >= th.PredictorAgreement {
		return applies(domain.PP3, 0.7, fmt.Sprintf("%d of %d predictors call the variant deleterious", consensus.deleterious, consensus.total))
	}
	return notMet(domain.PP3, fmt.Sprintf("only %d of %d predictors call the variant deleterious", consensus.deleterious, consensus.total))
}

func evaluatePP4(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if data.Phenotype == nil {
		return unavailable(domain.PP4, "no phenotype assessment available")
	}
	if data.Phenotype.SpecificMatch {
		return applies(domain.PP4, 0.65, "phenotype is highly specific for a disease with a single genetic etiology")
	}
	return notMet(domain.PP4, "phenotype is not specific for the disease")
}

func evaluatePP5(variant *domain.Variant, _ *domain.Resources, _ *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	assertion := parseCuratedSignificance(variant.CuratedSignificance)
	switch assertion {
	case assertionNone:
		return unavailable(domain.PP5, "no curated source assertion available")
	case assertionPathogenic:
		return applies(domain.PP5, 0.6, fmt.Sprintf("reputable source reports variant as pathogenic (%q)", variant.CuratedSignificance))
	default:
		return notMet(domain.PP5, fmt.Sprintf("curated assertion %q does not support pathogenicity", variant.CuratedSignificance))
	}
}
