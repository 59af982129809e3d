package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/acmg-evidence-engine/internal/domain"
)

// SQLiteStore implements Store using an embedded SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS review_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		outcome_id TEXT NOT NULL,
		variant_id TEXT NOT NULL,
		gene_symbol TEXT DEFAULT '',
		classification TEXT NOT NULL,
		has_conflict INTEGER NOT NULL DEFAULT 0,
		warning_summary TEXT DEFAULT '',
		status TEXT NOT NULL DEFAULT 'PENDING',
		reviewer_classification TEXT DEFAULT '',
		notes TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(outcome_id)
	);

	CREATE INDEX IF NOT EXISTS idx_review_variant_id ON review_queue(variant_id);
	CREATE INDEX IF NOT EXISTS idx_review_status ON review_queue(status);
	CREATE INDEX IF NOT EXISTS idx_review_created_at ON review_queue(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner covers sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(s scanner) (*Item, error) {
	item := &Item{}
	var classification, status, reviewerClassification string

	err := s.Scan(
		&item.ID, &item.OutcomeID, &item.VariantID, &item.GeneSymbol,
		&classification, &item.HasConflict, &item.WarningSummary,
		&status, &reviewerClassification, &item.Notes,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Classification = domain.Classification(classification)
	item.Status = Status(status)
	item.ReviewerClassification = domain.Classification(reviewerClassification)
	return item, nil
}

// Enqueue inserts an item, refreshing it when the outcome is already queued.
func (s *SQLiteStore) Enqueue(ctx context.Context, item *Item) error {
	if !item.Classification.IsValid() {
		return fmt.Errorf("enqueueing review item: %w", domain.ErrInvalidClassification)
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = StatusPending
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO review_queue (
			outcome_id, variant_id, gene_symbol, classification, has_conflict,
			warning_summary, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(outcome_id) DO UPDATE SET
			classification = excluded.classification,
			has_conflict = excluded.has_conflict,
			warning_summary = excluded.warning_summary,
			updated_at = excluded.updated_at
	`,
		item.OutcomeID, item.VariantID, item.GeneSymbol,
		string(item.Classification), item.HasConflict,
		item.WarningSummary, string(item.Status), now, now,
	)
	if err != nil {
		return fmt.Errorf("enqueueing review item: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil && id > 0 {
		item.ID = id
	}
	return nil
}

// Get retrieves one item by ID.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT id, outcome_id, variant_id, gene_symbol, classification,
			   has_conflict, warning_summary, status, reviewer_classification,
			   notes, created_at, updated_at
		FROM review_queue WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting review item %d: %w", id, err)
	}
	return item, nil
}

// ListPending returns unresolved items, oldest first.
func (s *SQLiteStore) ListPending(ctx context.Context, limit, offset int) ([]*Item, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, outcome_id, variant_id, gene_symbol, classification,
			   has_conflict, warning_summary, status, reviewer_classification,
			   notes, created_at, updated_at
		FROM review_queue
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ? OFFSET ?`, string(StatusPending), limit, offset)
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
func (s *SQLiteStore) Resolve(ctx context.Context, id int64, status Status, override domain.Classification, notes string) error {
	if status != StatusConfirmed && status != StatusOverridden {
		return fmt.Errorf("resolving review item %d: invalid status %q", id, string(status))
	}
	if status == StatusOverridden && !override.IsValid() {
		return fmt.Errorf("resolving review item %d: %w", id, domain.ErrInvalidClassification)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE review_queue SET
			status = ?,
			reviewer_classification = ?,
			notes = ?,
			updated_at = ?
		WHERE id = ?`,
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
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM review_queue").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting review items: %w", err)
	}
	return count, nil
}

// Delete removes an item by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM review_queue WHERE id = ?", id)
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
