package domain

// EvidenceData is the bag of optional external facts an assigner may
// consume. Every field is optional: a nil record is the normal "fact not
// applicable / not gathered" signal, never an error. Assigners that need a
// missing record report data-unavailable instead of failing.
type EvidenceData struct {
	Population  *PopulationRecord  `json:"population,omitempty"`
	Predictions *PredictionScores  `json:"predictions,omitempty"`
	DeNovo      *DeNovoRecord      `json:"de_novo,omitempty"`
	Functional  *FunctionalRecord  `json:"functional,omitempty"`
	Phase       *PhaseRecord       `json:"phase,omitempty"`
	Segregation *SegregationRecord `json:"segregation,omitempty"`
	CaseControl *CaseControlRecord `json:"case_control,omitempty"`
	Curated     *CuratedRecord     `json:"curated,omitempty"`
	Observation *ObservationRecord `json:"observation,omitempty"`
	Phenotype   *PhenotypeRecord   `json:"phenotype,omitempty"`
}

// PopulationRecord holds reference-population frequency data. Found=false
// means the lookup succeeded and the variant is absent from the database,
// which PM2 treats as evidence; an unreachable database never produces a
// record at all.
type PopulationRecord struct {
	Found            bool               `json:"found"`
	OverallFrequency float64            `json:"overall_frequency"`
	Subpopulations   map[string]float64 `json:"subpopulations,omitempty"`
	AlleleCount      int                `json:"allele_count,omitempty"`
	AlleleNumber     int                `json:"allele_number,omitempty"`
	HomozygoteCount  int                `json:"homozygote_count,omitempty"`
}

// MaxFrequency returns the highest frequency across the overall cohort and
// every sub-population. BA1 and BS1 evaluate against this maximum.
func (p *PopulationRecord) MaxFrequency() float64 {
	max := p.OverallFrequency
	for _, f := range p.Subpopulations {
		if f > max {
			max = f
		}
	}
	return max
}

// PredictionScores holds per-algorithm computational predictions. A nil
// score means the algorithm produced no call for this variant.
type PredictionScores struct {
	SIFT     *float64 `json:"sift,omitempty"`
	PolyPhen *float64 `json:"polyphen,omitempty"`
	CADD     *float64 `json:"cadd,omitempty"`
	REVEL    *float64 `json:"revel,omitempty"`
	MetaSVM  *float64 `json:"metasvm,omitempty"`

	// SpliceImpact is the splice-disruption score consumed by BP7.
	SpliceImpact *float64 `json:"splice_impact,omitempty"`
}

// DeNovoRecord holds the manually curated de novo status of the variant.
type DeNovoRecord struct {
	// Confirmed is true when both maternity and paternity are confirmed
	// (PS2); false means de novo is assumed but unconfirmed (PM6).
	Confirmed bool `json:"confirmed"`
}

// FunctionalVerdict is the outcome of a well-established functional study.
type FunctionalVerdict string

const (
	FunctionalDamaging     FunctionalVerdict = "DAMAGING"
	FunctionalBenign       FunctionalVerdict = "BENIGN"
	FunctionalInconclusive FunctionalVerdict = "INCONCLUSIVE"
)

// FunctionalRecord holds the curated functional-study verdict.
type FunctionalRecord struct {
	Verdict FunctionalVerdict `json:"verdict"`
	Assay   string            `json:"assay,omitempty"`
}

// PhaseRecord holds trans/cis phase information relative to a known
// pathogenic variant in the same gene.
type PhaseRecord struct {
	InTransWithPathogenic bool `json:"in_trans_with_pathogenic"`
	InCisWithPathogenic   bool `json:"in_cis_with_pathogenic"`
}

// SegregationRecord holds family segregation data. Informative guards
// against reading Cosegregates off an uninformative pedigree.
type SegregationRecord struct {
	Informative        bool `json:"informative"`
	Cosegregates       bool `json:"cosegregates"`
	AffectedCarriers   int  `json:"affected_carriers,omitempty"`
	UnaffectedCarriers int  `json:"unaffected_carriers,omitempty"`
}

// CaseControlRecord holds cohort prevalence statistics consumed by PS4.
type CaseControlRecord struct {
	OddsRatio float64 `json:"odds_ratio"`
	PValue    float64 `json:"p_value"`
}

// CuratedRecord holds residue-level assertions from curated variant
// databases, consumed by PS1 and PM5.
type CuratedRecord struct {
	// SamePathogenicAAChange: an established pathogenic variant causes the
	// identical amino acid change (PS1).
	SamePathogenicAAChange bool `json:"same_pathogenic_aa_change"`
	// OtherPathogenicAtResidue: a different pathogenic missense change has
	// been seen at the same residue (PM5).
	OtherPathogenicAtResidue bool `json:"other_pathogenic_at_residue"`
}

// ObservationRecord holds healthy-individual observations consumed by BS2.
type ObservationRecord struct {
	HealthyHomozygotes   int `json:"healthy_homozygotes"`
	HealthyAdultCarriers int `json:"healthy_adult_carriers"`
}

// PhenotypeRecord holds the clinician's phenotype-match assertion (PP4) and
// whether an alternate molecular basis explains the case (BP5).
type PhenotypeRecord struct {
	SpecificMatch       bool `json:"specific_match"`
	AlternateCauseFound bool `json:"alternate_cause_found"`
}
