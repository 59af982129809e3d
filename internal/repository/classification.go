// Package repository persists classification outcomes to the PostgreSQL
// audit store.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/acmg-evidence-engine/internal/domain"
)

// OutcomeRepository stores and retrieves classification outcomes. Every
// classification is recorded with its full per-bucket code lists and
// per-code results so an auditor can reconstruct why the engine decided
// what it did.
type OutcomeRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewOutcomeRepository creates an outcome repository.
func NewOutcomeRepository(db *pgxpool.Pool, logger *logrus.Logger) *OutcomeRepository {
	return &OutcomeRepository{
		db:  db,
		log: logger,
	}
}

// Save records one classification outcome.
func (r *OutcomeRepository) Save(ctx context.Context, geneSymbol string, outcome *domain.ClassificationOutcome) error {
	buckets, err := json.Marshal(outcome.Buckets)
	if err != nil {
		return fmt.Errorf("encoding outcome buckets: %w", err)
	}
	results, err := json.Marshal(outcome.Results)
	if err != nil {
		return fmt.Errorf("encoding outcome results: %w", err)
	}
	warnings, err := json.Marshal(outcome.Warnings)
	if err != nil {
		return fmt.Errorf("encoding outcome warnings: %w", err)
	}

	query := `
		INSERT INTO classification_outcomes (
			id, variant_id, gene_symbol, classification, has_conflict,
			buckets, results, warnings, engine_version, classified_at, elapsed_us
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err = r.db.Exec(ctx, query,
		outcome.ID,
		outcome.VariantID,
		geneSymbol,
		outcome.Classification.String(),
		outcome.HasConflict,
		buckets,
		results,
		warnings,
		outcome.EngineVersion,
		outcome.ClassifiedAt,
		outcome.Elapsed.Microseconds(),
	)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"outcome_id": outcome.ID,
			"variant_id": outcome.VariantID,
			"error":      err,
		}).Error("Failed to save classification outcome")
		return fmt.Errorf("saving classification outcome: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"outcome_id":     outcome.ID,
		"variant_id":     outcome.VariantID,
		"classification": outcome.Classification.String(),
	}).Info("Classification outcome saved")

	return nil
}

// GetByID retrieves one outcome by its identifier.
func (r *OutcomeRepository) GetByID(ctx context.Context, id string) (*domain.ClassificationOutcome, error) {
	query := `
		SELECT id, variant_id, classification, has_conflict,
			   buckets, results, warnings, engine_version, classified_at, elapsed_us
		FROM classification_outcomes
		WHERE id = $1`

	return r.scanOutcome(r.db.QueryRow(ctx, query, id))
}

// ListByVariant retrieves the outcomes recorded for a variant, most recent
// first.
func (r *OutcomeRepository) ListByVariant(ctx context.Context, variantID string, limit int) ([]*domain.ClassificationOutcome, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, variant_id, classification, has_conflict,
			   buckets, results, warnings, engine_version, classified_at, elapsed_us
		FROM classification_outcomes
		WHERE variant_id = $1
		ORDER BY classified_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, variantID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing outcomes for variant %s: %w", variantID, err)
	}
	defer rows.Close()

	var outcomes []*domain.ClassificationOutcome
	for rows.Next() {
		outcome, err := r.scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing outcomes for variant %s: %w", variantID, err)
	}

	return outcomes, nil
}

// CountConflicts returns how many recorded outcomes carry conflicting
// evidence, for review-queue dashboards.
func (r *OutcomeRepository) CountConflicts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM classification_outcomes WHERE has_conflict`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting conflicting outcomes: %w", err)
	}
	return count, nil
}

func (r *OutcomeRepository) scanOutcome(row pgx.Row) (*domain.ClassificationOutcome, error) {
	var (
		outcome        domain.ClassificationOutcome
		classification string
		buckets        []byte
		results        []byte
		warnings       []byte
		elapsedUS      int64
		classifiedAt   time.Time
	)

	err := row.Scan(
		&outcome.ID,
		&outcome.VariantID,
		&classification,
		&outcome.HasConflict,
		&buckets,
		&results,
		&warnings,
		&outcome.EngineVersion,
		&classifiedAt,
		&elapsedUS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning classification outcome: %w", err)
	}

	outcome.Classification = domain.Classification(classification)
	outcome.ClassifiedAt = classifiedAt
	outcome.Elapsed = time.Duration(elapsedUS) * time.Microsecond

	if err := json.Unmarshal(buckets, &outcome.Buckets); err != nil {
		return nil, fmt.Errorf("decoding outcome buckets: %w", err)
	}
	if err := json.Unmarshal(results, &outcome.Results); err != nil {
		return nil, fmt.Errorf("decoding outcome results: %w", err)
	}
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &outcome.Warnings); err != nil {
			return nil, fmt.Errorf("decoding outcome warnings: %w", err)
		}
	}

	return &outcome, nil
}
