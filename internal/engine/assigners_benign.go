package engine

import (
	"fmt"

	"github.com/acmg-evidence-engine/internal/domain"
)

// Benign-direction assigners. BA1, BS1 and PM2 form an ordered chain over
// the same frequency data: the classifier evaluates BA1 first and, when it
// fires, marks BS1 and PM2 as precluded rather than running them.

func evaluateBA1(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, th Thresholds) domain.EvidenceResult {
	if data.Population == nil {
		return unavailable(domain.BA1, "no population frequency data available")
	}
	pop := data.Population
	if !pop.Found {
		return notMet(domain.BA1, "variant absent from the reference population database")
	}
	if freq := pop.MaxFrequency(); freq > th.BA1MinFrequency {
		return applies(domain.BA1, 0.95, fmt.Sprintf("maximum population frequency %.4f exceeds %.2f", freq, th.BA1MinFrequency))
	}
	return notMet(domain.BA1, fmt.Sprintf("maximum population frequency %.3g at or below %.2f", pop.MaxFrequency(), th.BA1MinFrequency))
}

func evaluateBS1(variant *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, th Thresholds) domain.EvidenceResult {
	if data.Population == nil {
		return unavailable(domain.BS1, "no population frequency data available")
	}
	pop := data.Population
	if !pop.Found {
		return notMet(domain.BS1, "variant absent from the reference population database")
	}
	freq := pop.MaxFrequency()
	if freq > th.BS1MinFrequency && freq <= th.BA1MinFrequency {
		return applies(domain.BS1, 0.85, fmt.Sprintf("frequency %.4f exceeds the rate expected for the disorder", freq))
	}
	return notMet(domain.BS1, fmt.Sprintf("frequency %.3g outside the (%.2f, %.2f] band", freq, th.BS1MinFrequency, th.BA1MinFrequency))
}

func evaluateBS2(variant *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if data.Observation == nil {
		return unavailable(domain.BS2, "no healthy-individual observations available")
	}
	obs := data.Observation
	switch variant.Mode() {
	case domain.RECESSIVE:
		if obs.HealthyHomozygotes > 0 {
			return applies(domain.BS2, 0.85, fmt.Sprintf("observed homozygous in %d healthy adults for a recessive disorder", obs.HealthyHomozygotes))
		}
	case domain.DOMINANT:
		if obs.HealthyAdultCarriers > 0 {
			return applies(domain.BS2, 0.85, fmt.Sprintf("observed in %d healthy adult carriers for a dominant disorder", obs.HealthyAdultCarriers))
		}
	default:
		return notMet(domain.BS2, "inheritance mode unknown; healthy observations not interpretable")
	}
	return notMet(domain.BS2, "no healthy individuals observed with the relevant genotype")
}

func evaluateBS3(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if data.Functional == nil {
		return unavailable(domain.BS3, "no functional-study verdict available")
	}
	switch data.Functional.Verdict {
	case domain.FunctionalBenign:
		return applies(domain.BS3, 0.85, "well-established functional study shows no damaging effect")
	case domain.FunctionalDamaging:
		return notMet(domain.BS3, "functional study shows a damaging effect")
	default:
		return notMet(domain.BS3, "functional study is inconclusive")
	}
}

func evaluateBS4(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if data.Segregation == nil {
		return unavailable(domain.BS4, "no segregation data available")
	}
	seg := data.Segregation
	if !seg.Informative {
		return notMet(domain.BS4, "pedigree is not informative for segregation")
	}
	if !seg.Cosegregates {
		return applies(domain.BS4, 0.85, "variant fails to segregate with disease in affected family members")
	}
	return notMet(domain.BS4, "variant segregates with disease")
}

func evaluateBP1(variant *domain.Variant, res *domain.Resources, _ *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if variant.Consequence != domain.Missense {
		return notMet(domain.BP1, "criterion applies to missense variants only")
	}
	if res.LossOfFunctionMechanism == nil {
		return unavailable(domain.BP1, "no LoF-mechanism gene curation wired")
	}
	if res.LossOfFunctionMechanism.Contains(variant.GeneSymbol) {
		return applies(domain.BP1, 0.7, fmt.Sprintf("missense variant in %s where truncating variants cause disease", variant.GeneSymbol))
	}
	return notMet(domain.BP1, fmt.Sprintf("truncation is not the known disease mechanism of %s", variant.GeneSymbol))
}

func evaluateBP2(variant *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if data.Phase == nil {
		return unavailable(domain.BP2, "no phase information available")
	}
	if data.Phase.InCisWithPathogenic {
		return applies(domain.BP2, 0.7, "observed in cis with a pathogenic variant")
	}
	if data.Phase.InTransWithPathogenic && variant.Mode() == domain.DOMINANT {
		return applies(domain.BP2, 0.7, "observed in trans with a pathogenic variant in a fully penetrant dominant gene")
	}
	return notMet(domain.BP2, "phase observations do not argue against pathogenicity")
}

func evaluateBP3(variant *domain.Variant, res *domain.Resources, _ *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if !variant.Consequence.IsProteinLengthChange() {
		return notMet(domain.BP3, "consequence is not an in-frame length change")
	}
	repeats, wired := res.RepeatsFor(variant.GeneSymbol)
	if !wired {
		return unavailable(domain.BP3, "no repeat-region annotation wired")
	}
	if variant.ProteinPosition == 0 {
		return unavailable(domain.BP3, "protein position unknown")
	}
	// BP3 demands an explicitly known repeat; a merely unannotated region
	// is not enough.
	for _, repeat := range repeats {
		if repeat.Contains(variant.ProteinPosition) {
			return applies(domain.BP3, 0.7, "in-frame length change inside a known repetitive region without known function")
		}
	}
	return notMet(domain.BP3, "length change is outside all known repetitive regions")
}

func evaluateBP4(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, th Thresholds) domain.EvidenceResult {
	consensus, ok := predictorConsensus(data.Predictions)
	if !ok {
		return unavailable(domain.BP4, "no computational prediction scores available")
	}
	// PP3 takes precedence: a deleterious consensus suppresses BP4 so the
	// automatic codes can never contradict each other.
	if consensus.deleterious >= th.PredictorAgreement {
		return notMet(domain.BP4, "deleterious consensus takes precedence; benign call suppressed")
	}
	if consensus.benign >= th.PredictorAgreement {
		return applies(domain.BP4, 0.7, fmt.Sprintf("%d of %d predictors call the variant benign", consensus.benign, consensus.total))
	}
	return notMet(domain.BP4, fmt.Sprintf("only %d of %d predictors call the variant benign", consensus.benign, consensus.total))
}

func evaluateBP5(_ *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	if data.Phenotype == nil {
		return unavailable(domain.BP5, "no phenotype assessment available")
	}
	if data.Phenotype.AlternateCauseFound {
		return applies(domain.BP5, 0.65, "case has an established alternate molecular basis for disease")
	}
	return notMet(domain.BP5, "no alternate molecular basis identified")
}

func evaluateBP6(variant *domain.Variant, _ *domain.Resources, _ *domain.EvidenceData, _ Thresholds) domain.EvidenceResult {
	assertion := parseCuratedSignificance(variant.CuratedSignificance)
	switch assertion {
	case assertionNone:
		return unavailable(domain.BP6, "no curated source assertion available")
	case assertionBenign:
		return applies(domain.BP6, 0.6, fmt.Sprintf("reputable source reports variant as benign (%q)", variant.CuratedSignificance))
	default:
		return notMet(domain.BP6, fmt.Sprintf("curated assertion %q does not support benign impact", variant.CuratedSignificance))
	}
}

func evaluateBP7(variant *domain.Variant, _ *domain.Resources, data *domain.EvidenceData, th Thresholds) domain.EvidenceResult {
	if variant.Consequence != domain.Synonymous {
		return notMet(domain.BP7, "criterion applies to synonymous variants only")
	}
	if data.Predictions == nil || data.Predictions.SpliceImpact == nil {
		// Without a splice score the code is unevaluable, never
		// default-applied.
		return unavailable(domain.BP7, "no splice-impact score available")
	}
	score := *data.Predictions.SpliceImpact
	if score < th.SpliceHighImpact {
		return applies(domain.BP7, 0.75, fmt.Sprintf("synonymous change with splice-impact score %.3f below %.2f", score, th.SpliceHighImpact))
	}
	return notMet(domain.BP7, fmt.Sprintf("splice-impact score %.3f suggests possible splicing effect", score))
}
