package domain

import (
	"errors"
	"fmt"
)

// Consequence represents the molecular consequence of a variant on its
// transcript, using Sequence Ontology style terms.
type Consequence string

const (
	Frameshift       Consequence = "frameshift"
	StopGained       Consequence = "stop_gained"
	SpliceDonor      Consequence = "splice_donor"
	SpliceAcceptor   Consequence = "splice_acceptor"
	StartLost        Consequence = "start_lost"
	StopLost         Consequence = "stop_lost"
	Missense         Consequence = "missense"
	Synonymous       Consequence = "synonymous"
	InframeInsertion Consequence = "inframe_insertion"
	InframeDeletion  Consequence = "inframe_deletion"
	Intronic         Consequence = "intronic"
	Other            Consequence = "other"
)

// lossOfFunction is the set of null-variant consequences eligible for PVS1.
var lossOfFunction = map[Consequence]bool{
	Frameshift:     true,
	StopGained:     true,
	SpliceDonor:    true,
	SpliceAcceptor: true,
	StartLost:      true,
}

// IsValid validates the consequence term.
func (c Consequence) IsValid() bool {
	switch c {
	case Frameshift, StopGained, SpliceDonor, SpliceAcceptor, StartLost,
		StopLost, Missense, Synonymous, InframeInsertion, InframeDeletion,
		Intronic, Other:
		return true
	default:
		return false
	}
}

// String returns the string representation of the consequence.
func (c Consequence) String() string {
	return string(c)
}

// IsLossOfFunction reports whether the consequence is a null-variant effect.
func (c Consequence) IsLossOfFunction() bool {
	return lossOfFunction[c]
}

// IsProteinLengthChange reports whether the consequence changes protein
// length without shifting the reading frame.
func (c Consequence) IsProteinLengthChange() bool {
	switch c {
	case InframeInsertion, InframeDeletion, StopLost:
		return true
	default:
		return false
	}
}

// Variant is the record handed to the engine by upstream collaborators.
// It carries only what the assigners consume; parsing and normalization of
// raw notation happen outside this module.
type Variant struct {
	ID         string `json:"id"`
	GeneSymbol string `json:"gene_symbol"`

	Chromosome string `json:"chromosome"`
	Position   int64  `json:"position"`
	Reference  string `json:"reference"`
	Alternate  string `json:"alternate"`

	Consequence     Consequence     `json:"consequence"`
	AminoAcidChange string          `json:"amino_acid_change,omitempty"`
	ProteinPosition int             `json:"protein_position,omitempty"`
	InLastExon      bool            `json:"in_last_exon,omitempty"`
	Inheritance     InheritanceMode `json:"inheritance,omitempty"`

	// CuratedSignificance is the free-form clinical-significance assertion
	// from a curated source, consumed by PP5/BP6.
	CuratedSignificance string `json:"curated_significance,omitempty"`
}

// Validate enforces the caller contract. A variant failing validation is a
// malformed input, surfaced immediately and never defaulted.
func (v *Variant) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("variant validation: %w", errors.New("ID is required"))
	}
	if v.GeneSymbol == "" {
		return fmt.Errorf("variant validation: %w", errors.New("gene symbol is required"))
	}
	if v.Position < 0 {
		return fmt.Errorf("variant validation: %w", errors.New("position must not be negative"))
	}
	if v.Consequence == "" {
		return fmt.Errorf("variant validation: %w", errors.New("molecular consequence is required"))
	}
	if !v.Consequence.IsValid() {
		return fmt.Errorf("variant validation %q: %w", string(v.Consequence), ErrInvalidConsequence)
	}
	if v.Inheritance != "" && !v.Inheritance.IsValid() {
		return fmt.Errorf("variant validation: invalid inheritance mode %q", string(v.Inheritance))
	}
	return nil
}

// Mode returns the declared inheritance mode, defaulting to UNKNOWN.
func (v *Variant) Mode() InheritanceMode {
	if v.Inheritance == "" {
		return UNKNOWN
	}
	return v.Inheritance
}
