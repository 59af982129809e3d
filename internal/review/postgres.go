package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/acmg-evidence-engine/internal/domain"
)

// PostgresStore implements Store using PostgreSQL for shared deployments.
// It expects the schema to already exist.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing database connection.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL opens a connection and wraps it.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Enqueue inserts an item, refreshing it when the outcome is already queued.
func (s *PostgresStore) Enqueue(ctx context.Context, item *Item) error {
	if !item.Classification.IsValid() {
		return fmt.Errorf("enqueueing review item: %w", domain.ErrInvalidClassification)
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = StatusPending
	}

	query := `
		INSERT INTO review_queue (
			outcome_id, variant_id, gene_symbol, classification, has_conflict,
			warning_summary, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (outcome_id) DO UPDATE SET
			classification = EXCLUDED.classification,
			has_conflict = EXCLUDED.has_conflict,
			warning_summary = EXCLUDED.warning_summary,
			updated_at = EXCLUDED.updated_at
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		item.OutcomeID, item.VariantID, item.GeneSymbol,
		string(item.Classification), item.HasConflict,
		item.WarningSummary, string(item.Status), now, now,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("enqueueing review item: %w", err)
	}
	return nil
}

// Get retrieves one item by ID.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT id, outcome_id, variant_id, gene_symbol, classification,
			   has_conflict, warning_summary, status, reviewer_classification,
			   notes, created_at, updated_at
		FROM review_queue WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting review item %d: %w", id, err)
	}
	return item, nil
}

// ListPending returns unresolved items, oldest first.
func (s *PostgresStore) ListPending(ctx context.Context, limit, offset int) ([]*Item, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, outcome_id, variant_id, gene_symbol, classification,
			   has_conflict, warning_summary, status, reviewer_classification,
			   notes, created_at, updated_at
		FROM review_queue
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`, string(StatusPending), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing pending review items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("listing pending review items: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Resolve records the reviewer's decision.
func (s *PostgresStore) Resolve(ctx context.Context, id int64, status Status, override domain.Classification, notes string) error {
	if status != StatusConfirmed && status != StatusOverridden {
		return fmt.Errorf("resolving review item %d: invalid status %q", id, string(status))
	}
	if status == StatusOverridden && !override.IsValid() {
		return fmt.Errorf("resolving review item %d: %w", id, domain.ErrInvalidClassification)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE review_queue SET
			status = $1,
			reviewer_classification = $2,
			notes = $3,
			updated_at = $4
		WHERE id = $5`,
		string(status), string(override), notes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("resolving review item %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolving review item %d: %w", id, err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the total number of queued items.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM review_queue").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting review items: %w", err)
	}
	return count, nil
}

// Delete removes an item by ID.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM review_queue WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting review item %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting review item %d: %w", id, err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
