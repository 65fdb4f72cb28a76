package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/repository"
)

type runRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) repository.RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) RecordRun(ctx context.Context, summary *domain.RunSummary) error {
	query := `
		INSERT INTO engine_runs (
			run_id, mode, started_at, elapsed_ms, listings_scanned,
			modified_listings, users_touched, cycles_found,
			created_count, updated_count, stale_count, purged_count, truncated
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(
		ctx, query,
		summary.RunID, summary.Mode, summary.StartedAt, summary.Elapsed.Milliseconds(),
		summary.ListingsScanned, summary.ModifiedListings, summary.UsersTouched,
		summary.CyclesFound, summary.Created, summary.Updated,
		summary.MarkedStale, summary.Purged, summary.Truncated,
	)
	return err
}

// LastFullRunAt returns the zero time when no full run has been
// recorded yet, which forces the next run to be a full recompute.
func (r *runRepository) LastFullRunAt(ctx context.Context) (time.Time, error) {
	var last time.Time
	query := `
		SELECT started_at FROM engine_runs
		WHERE mode = 'full'
		ORDER BY started_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &last, query)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	return last, err
}
