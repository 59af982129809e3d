package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/acmg-evidence-engine/internal/domain"
)

// Version identifies the rule-table revision recorded on every outcome.
const Version = "acmg-2015.1"

// Classifier runs the full assign-then-combine pipeline for one variant at a
// time. It holds no per-variant state, so a single instance is safe for
// concurrent use across variants.
type Classifier struct {
	log        *logrus.Logger
	registry   *Registry
	assigners  map[domain.EvidenceCode]Assigner
	thresholds Thresholds
	resources  *domain.Resources
}

// NewClassifier wires a classifier over the given curated resources. A nil
// registry means every code is enabled.
func NewClassifier(log *logrus.Logger, registry *Registry, resources *domain.Resources, thresholds Thresholds) *Classifier {
	if log == nil {
		log = logrus.New()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if resources == nil {
		resources = &domain.Resources{}
	}
	return &Classifier{
		log:        log,
		registry:   registry,
		assigners:  newAssigners(),
		thresholds: thresholds.normalized(),
		resources:  resources,
	}
}

// Classify validates the variant, gathers external evidence, evaluates every
// enabled assigner and combines the surviving codes into a classification.
// Only contract violations (an invalid variant, a malformed evidence set)
// return an error; provider failures degrade to unevaluable codes.
func (c *Classifier) Classify(ctx context.Context, variant *domain.Variant, manual *domain.EvidenceData) (*domain.ClassificationOutcome, error) {
	start := time.Now()

	if variant == nil {
		return nil, fmt.Errorf("classifying variant: variant is required")
	}
	if err := variant.Validate(); err != nil {
		return nil, fmt.Errorf("classifying variant: %w", err)
	}

	data := c.gatherEvidence(ctx, variant, manual)
	results := c.evaluateAll(variant, data)

	set := domain.NewEvidenceSet()
	for _, r := range results {
		if !r.Applies {
			continue
		}
		if err := set.AddWithReason(r.Code, r.Reason); err != nil {
			return nil, fmt.Errorf("classifying variant %s: %w", variant.ID, err)
		}
	}

	warnings := DetectConflicts(set)
	classification, err := Combine(set)
	if err != nil {
		return nil, fmt.Errorf("classifying variant %s: %w", variant.ID, err)
	}

	buckets := map[domain.Bucket][]domain.EvidenceCode{}
	for _, b := range domain.Buckets {
		if codes := set.Codes(b); len(codes) > 0 {
			buckets[b] = codes
		}
	}

	outcome := &domain.ClassificationOutcome{
		ID:             uuid.New().String(),
		VariantID:      variant.ID,
		Classification: classification,
		HasConflict:    set.HasConflict(),
		Buckets:        buckets,
		Results:        results,
		Warnings:       warnings,
		EngineVersion:  Version,
		ClassifiedAt:   start.UTC(),
		Elapsed:        time.Since(start),
	}

	c.log.WithFields(logrus.Fields{
		"variant_id":     variant.ID,
		"gene":           variant.GeneSymbol,
		"classification": classification.String(),
		"applied_codes":  len(outcome.AppliedCodes()),
		"has_conflict":   outcome.HasConflict,
		"warnings":       len(warnings),
		"elapsed":        outcome.Elapsed.String(),
	}).Info("Variant classified")

	return outcome, nil
}

// gatherEvidence merges caller-supplied facts with provider lookups. A
// provider error is logged with the codes it starves and leaves the
// corresponding record nil, so those codes degrade to unevaluable without
// touching the rest of the pass. Caller-supplied records take precedence
// over lookups.
func (c *Classifier) gatherEvidence(ctx context.Context, variant *domain.Variant, manual *domain.EvidenceData) *domain.EvidenceData {
	data := &domain.EvidenceData{}
	if manual != nil {
		*data = *manual
	}

	if data.Population == nil && c.resources.Frequency != nil {
		pop, err := c.resources.Frequency.Lookup(ctx, variant)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"variant_id": variant.ID,
				"codes":      "BA1,BS1,PM2",
				"error":      err.Error(),
			}).Warn("Frequency lookup failed; treating population data as unavailable")
		} else {
			data.Population = pop
		}
	}

	if data.Predictions == nil && c.resources.Predictions != nil {
		scores, err := c.resources.Predictions.Scores(ctx, variant)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"variant_id": variant.ID,
				"codes":      "PP3,BP4,BP7",
				"error":      err.Error(),
			}).Warn("Prediction lookup failed; treating scores as unavailable")
		} else {
			data.Predictions = scores
		}
	}

	return data
}

// evaluateAll runs the assigners in their fixed order. When BA1 fires, BS1
// and PM2 are recorded as evaluated-inapplicable rather than run: the
// stand-alone frequency already explains the variant, so the lower-tier
// frequency codes are withdrawn, not unevaluable.
func (c *Classifier) evaluateAll(variant *domain.Variant, data *domain.EvidenceData) []domain.EvidenceResult {
	results := make([]domain.EvidenceResult, 0, len(evaluationOrder))
	ba1Fired := false

	for _, code := range evaluationOrder {
		if !c.registry.Enabled(code) {
			results = append(results, unavailable(code, "assigner disabled in this deployment"))
			continue
		}
		if ba1Fired && (code == domain.BS1 || code == domain.PM2) {
			results = append(results, notMet(code, "precluded by stand-alone frequency evidence (BA1)"))
			continue
		}

		result := safeEvaluate(c.log, c.assigners[code], variant, c.resources, data, c.thresholds)
		if code == domain.BA1 && result.Applies {
			ba1Fired = true
		}
		results = append(results, result)
	}

	return results
}
