package engine

import (
	"strings"

	"github.com/acmg-evidence-engine/internal/domain"
)

// Per-algorithm call thresholds for the computational consensus behind
// PP3/BP4. Scores between the deleterious and benign bounds are treated as
// abstentions.
const (
	siftDeleteriousMax     = 0.05
	siftBenignMin          = 0.2
	polyphenDeleteriousMin = 0.85
	polyphenBenignMax      = 0.15
	caddDeleteriousMin     = 20.0
	caddBenignMax          = 10.0
	revelDeleteriousMin    = 0.5
	revelBenignMax         = 0.29
)

type consensusCount struct {
	deleterious int
	benign      int
	total       int
}

// predictorConsensus tallies deleterious and benign calls across the wired
// algorithms. ok=false means no algorithm produced a score at all, which is
// the unevaluable case for both PP3 and BP4.
func predictorConsensus(scores *domain.PredictionScores) (consensusCount, bool) {
	var c consensusCount
	if scores == nil {
		return c, false
	}

	tally := func(score *float64, deleterious, benign func(float64) bool) {
		if score == nil {
			return
		}
		c.total++
		switch {
		case deleterious(*score):
			c.deleterious++
		case benign(*score):
			c.benign++
		}
	}

	tally(scores.SIFT,
		func(s float64) bool { return s < siftDeleteriousMax },
		func(s float64) bool { return s >= siftBenignMin })
	tally(scores.PolyPhen,
		func(s float64) bool { return s > polyphenDeleteriousMin },
		func(s float64) bool { return s < polyphenBenignMax })
	tally(scores.CADD,
		func(s float64) bool { return s >= caddDeleteriousMin },
		func(s float64) bool { return s < caddBenignMax })
	tally(scores.REVEL,
		func(s float64) bool { return s >= revelDeleteriousMin },
		func(s float64) bool { return s <= revelBenignMax })
	tally(scores.MetaSVM,
		func(s float64) bool { return s > 0 },
		func(s float64) bool { return s < 0 })

	return c, c.total > 0
}

type curatedAssertion int

const (
	assertionNone curatedAssertion = iota
	assertionPathogenic
	assertionBenign
	assertionOther
)

// parseCuratedSignificance reads the free-form curated clinical-significance
// string consumed by PP5 and BP6. Conflicting assertions support neither.
func parseCuratedSignificance(s string) curatedAssertion {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return assertionNone
	}
	if strings.Contains(s, "conflicting") || strings.Contains(s, "uncertain") {
		return assertionOther
	}
	pathogenic := strings.Contains(s, "pathogenic")
	benign := strings.Contains(s, "benign")
	switch {
	case pathogenic && !benign:
		return assertionPathogenic
	case benign && !pathogenic:
		return assertionBenign
	default:
		return assertionOther
	}
}
