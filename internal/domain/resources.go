package domain

import "context"

// GeneList is an immutable curated set of gene symbols. A nil list means
// the deployment has not wired that curation source; membership checks on a
// nil list are meaningless and assigners must report data-unavailable.
type GeneList map[string]struct{}

// NewGeneList builds a gene list from symbols.
func NewGeneList(symbols ...string) GeneList {
	list := make(GeneList, len(symbols))
	for _, s := range symbols {
		list[s] = struct{}{}
	}
	return list
}

// Contains reports membership. Always false on a nil list; callers must
// check for nil first when absence of the list matters.
func (g GeneList) Contains(symbol string) bool {
	_, ok := g[symbol]
	return ok
}

// DomainRegion is one annotated functional domain or mutational hotspot of
// a gene, in protein coordinates, with its curated variant tallies.
type DomainRegion struct {
	Start           int    `json:"start"`
	End             int    `json:"end"`
	Name            string `json:"name,omitempty"`
	PathogenicCount int    `json:"pathogenic_count"`
	BenignCount     int    `json:"benign_count"`
}

// Contains reports whether a protein position falls inside the region.
func (r DomainRegion) Contains(pos int) bool {
	return pos >= r.Start && pos <= r.End
}

// RepeatRegion is one annotated repetitive region of a gene, in protein
// coordinates. BP3 requires the region to be explicitly known repetitive.
type RepeatRegion struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether a protein position falls inside the region.
func (r RepeatRegion) Contains(pos int) bool {
	return pos >= r.Start && pos <= r.End
}

// FrequencyProvider looks up reference-population frequency data. "Variant
// absent from the database" is a successful lookup with Found=false;
// returning an error means the source itself was unreachable or invalid.
type FrequencyProvider interface {
	Lookup(ctx context.Context, variant *Variant) (*PopulationRecord, error)
}

// PredictionProvider fetches per-algorithm computational prediction scores.
type PredictionProvider interface {
	Scores(ctx context.Context, variant *Variant) (*PredictionScores, error)
}

// Resources is the immutable bundle of curated configuration and injected
// providers handed to one classification pass. It is explicitly passed
// rather than global so concurrent runs against different curated-list
// versions can coexist; nothing in it is mutated during a pass.
type Resources struct {
	// LossOfFunctionIntolerant gates PVS1.
	LossOfFunctionIntolerant GeneList
	// MissenseConstrained gates PP2: genes where missense is the pathogenic
	// mechanism and benign missense variation is rare.
	MissenseConstrained GeneList
	// LossOfFunctionMechanism gates BP1: genes where truncating variants,
	// not missense, cause disease. Disjoint from MissenseConstrained by
	// curation policy.
	LossOfFunctionMechanism GeneList

	// FunctionalDomains maps gene symbol to its annotated domains (PM1).
	FunctionalDomains map[string][]DomainRegion
	// RepeatRegions maps gene symbol to known repetitive regions (PM4/BP3).
	RepeatRegions map[string][]RepeatRegion

	Frequency   FrequencyProvider
	Predictions PredictionProvider
}

// DomainsFor returns the annotated domains for a gene and whether the
// functional-domain map is wired at all.
func (r *Resources) DomainsFor(gene string) ([]DomainRegion, bool) {
	if r.FunctionalDomains == nil {
		return nil, false
	}
	return r.FunctionalDomains[gene], true
}

// RepeatsFor returns the known repeat regions for a gene and whether the
// repeat annotation is wired at all.
func (r *Resources) RepeatsFor(gene string) ([]RepeatRegion, bool) {
	if r.RepeatRegions == nil {
		return nil, false
	}
	return r.RepeatRegions[gene], true
}
