// Package engine implements the ACMG/AMP evidence-combination engine: the
// 28 evidence assigners, the enablement registry, the conflict detector and
// the combination rule table from Richards et al. (2015), Table 5.
package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/acmg-evidence-engine/internal/domain"
)

// EvaluateFunc evaluates one evidence code against a variant, the curated
// resources and the gathered evidence data. Implementations are pure with
// respect to caller-visible state and total: missing data yields a
// data-unavailable result, never an error.
type EvaluateFunc func(variant *domain.Variant, res *domain.Resources, data *domain.EvidenceData, th Thresholds) domain.EvidenceResult

// Assigner binds an evidence code to its evaluator.
type Assigner struct {
	Code     domain.EvidenceCode
	Name     string
	Evaluate EvaluateFunc
}

// Thresholds holds the numeric cutoffs the assigners apply. Deployments may
// override individual values through configuration; zero values are filled
// with the published defaults.
type Thresholds struct {
	// PM2 rarity cutoffs by inheritance mode.
	PM2Dominant  float64
	PM2Recessive float64
	PM2Default   float64

	// BA1/BS1 population frequency bounds.
	BA1MinFrequency float64
	BS1MinFrequency float64

	// PP3/BP4 concordant predictor calls required.
	PredictorAgreement int

	// BP7 splice high-impact threshold: a score at or above it blocks BP7.
	SpliceHighImpact float64

	// PS4 cohort-evidence bounds.
	PS4MinOddsRatio float64
	PS4MaxPValue    float64

	// PM1 hotspot bar: curated pathogenic variants required in a region
	// with zero benign ones.
	PM1MinPathogenic int
}

// DefaultThresholds returns the published cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PM2Dominant:        5e-5,
		PM2Recessive:       1e-3,
		PM2Default:         1e-4,
		BA1MinFrequency:    0.05,
		BS1MinFrequency:    0.01,
		PredictorAgreement: 3,
		SpliceHighImpact:   0.2,
		PS4MinOddsRatio:    5.0,
		PS4MaxPValue:       0.05,
		PM1MinPathogenic:   2,
	}
}

// normalized fills zero-valued cutoffs with defaults so a partially
// configured Thresholds never silently disables a rule.
func (t Thresholds) normalized() Thresholds {
	def := DefaultThresholds()
	if t.PM2Dominant == 0 {
		t.PM2Dominant = def.PM2Dominant
	}
	if t.PM2Recessive == 0 {
		t.PM2Recessive = def.PM2Recessive
	}
	if t.PM2Default == 0 {
		t.PM2Default = def.PM2Default
	}
	if t.BA1MinFrequency == 0 {
		t.BA1MinFrequency = def.BA1MinFrequency
	}
	if t.BS1MinFrequency == 0 {
		t.BS1MinFrequency = def.BS1MinFrequency
	}
	if t.PredictorAgreement == 0 {
		t.PredictorAgreement = def.PredictorAgreement
	}
	if t.SpliceHighImpact == 0 {
		t.SpliceHighImpact = def.SpliceHighImpact
	}
	if t.PS4MinOddsRatio == 0 {
		t.PS4MinOddsRatio = def.PS4MinOddsRatio
	}
	if t.PS4MaxPValue == 0 {
		t.PS4MaxPValue = def.PS4MaxPValue
	}
	if t.PM1MinPathogenic == 0 {
		t.PM1MinPathogenic = def.PM1MinPathogenic
	}
	return t
}

// pm2Cutoff selects the PM2 rarity cutoff for an inheritance mode.
func (t Thresholds) pm2Cutoff(mode domain.InheritanceMode) float64 {
	switch mode {
	case domain.DOMINANT:
		return t.PM2Dominant
	case domain.RECESSIVE:
		return t.PM2Recessive
	default:
		return t.PM2Default
	}
}

// safeEvaluate runs one assigner and converts any panic into a
// data-unavailable result, logged with the code name. A misbehaving
// resource never aborts the classification of the remaining codes.
func safeEvaluate(log *logrus.Logger, a Assigner, variant *domain.Variant, res *domain.Resources, data *domain.EvidenceData, th Thresholds) (result domain.EvidenceResult) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{
				"code":       a.Code.String(),
				"variant_id": variant.ID,
				"panic":      fmt.Sprint(r),
			}).Warn("Assigner evaluation failed; treating code as unevaluable")
			result = unavailable(a.Code, fmt.Sprintf("evaluation failed: %v", r))
		}
	}()
	return a.Evaluate(variant, res, data, th)
}

// Result constructors shared by the assigners.

func applies(code domain.EvidenceCode, confidence float64, reason string) domain.EvidenceResult {
	return domain.EvidenceResult{
		Code:          code,
		Applies:       true,
		Reason:        reason,
		Confidence:    confidence,
		DataAvailable: true,
	}
}

func notMet(code domain.EvidenceCode, reason string) domain.EvidenceResult {
	return domain.EvidenceResult{
		Code:          code,
		Applies:       false,
		Reason:        reason,
		DataAvailable: true,
	}
}

func unavailable(code domain.EvidenceCode, reason string) domain.EvidenceResult {
	return domain.EvidenceResult{
		Code:          code,
		Applies:       false,
		Reason:        reason,
		DataAvailable: false,
	}
}
