// Package review provides the human-review queue for classifications that
// need expert sign-off: conflicting evidence, uncertain outcomes a curator
// wants to revisit, or any result a reviewer chooses to override.
package review

import (
	"context"
	"time"

	"github.com/acmg-evidence-engine/internal/domain"
)

// Status is the review lifecycle state of a queued item.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusOverridden Status = "OVERRIDDEN"
)

// Item is one queued classification awaiting or carrying a reviewer's
// decision.
type Item struct {
	ID        int64  `json:"id,omitempty"`
	OutcomeID string `json:"outcome_id"`
	VariantID string `json:"variant_id"`

	GeneSymbol     string                `json:"gene_symbol,omitempty"`
	Classification domain.Classification `json:"classification"`
	HasConflict    bool                  `json:"has_conflict"`
	// WarningSummary is the flattened conflict-warning text that routed the
	// item here.
	WarningSummary string `json:"warning_summary,omitempty"`

	Status Status `json:"status"`
	// ReviewerClassification is the expert's override, set when Status is
	// OVERRIDDEN.
	ReviewerClassification domain.Classification `json:"reviewer_classification,omitempty"`
	Notes                  string                `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the review-queue storage operations. Two implementations
// exist: SQLite for single-node deployments and PostgreSQL for shared ones.
type Store interface {
	// Enqueue inserts an item, or refreshes it when the same outcome is
	// already queued.
	Enqueue(ctx context.Context, item *Item) error

	// Get retrieves one item by ID.
	Get(ctx context.Context, id int64) (*Item, error)

	// ListPending returns unresolved items, oldest first.
	ListPending(ctx context.Context, limit, offset int) ([]*Item, error)

	// Resolve records the reviewer's decision. Overriding requires a valid
	// classification.
	Resolve(ctx context.Context, id int64, status Status, override domain.Classification, notes string) error

	// Count returns the total number of queued items.
	Count(ctx context.Context) (int64, error)

	// Delete removes an item by ID.
	Delete(ctx context.Context, id int64) error

	// Close releases the store's resources.
	Close() error
}
