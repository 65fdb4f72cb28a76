package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/repository"
)

type cycleRepository struct {
	db *sqlx.DB
}

func NewCycleRepository(db *sqlx.DB) repository.CycleRepository {
	return &cycleRepository{db: db}
}

// cycleRow maps the cycles table; exchanges are stored as JSONB.
type cycleRow struct {
	ID            int64          `db:"id"`
	ContentHash   string         `db:"content_hash"`
	Participants  pq.Int64Array  `db:"participants"`
	Exchanges     []byte         `db:"exchanges"`
	Length        int            `db:"length"`
	QualityScore  float64        `db:"quality_score"`
	HasTitleMatch bool           `db:"has_title_match"`
	Status        string         `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	StaleAt       *time.Time     `db:"stale_at"`
}

func (row *cycleRow) toDomain() (*domain.Cycle, error) {
	var exchanges []domain.Exchange
	if err := json.Unmarshal(row.Exchanges, &exchanges); err != nil {
		return nil, fmt.Errorf("failed to decode exchanges for cycle %d: %w", row.ID, err)
	}
	return &domain.Cycle{
		ID:            row.ID,
		ContentHash:   row.ContentHash,
		Participants:  []int64(row.Participants),
		Exchanges:     exchanges,
		Length:        row.Length,
		QualityScore:  row.QualityScore,
		HasTitleMatch: row.HasTitleMatch,
		Status:        domain.CycleStatus(row.Status),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		StaleAt:       row.StaleAt,
	}, nil
}

func toDomainCycles(rows []cycleRow) ([]*domain.Cycle, error) {
	cycles := make([]*domain.Cycle, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, nil
}

// UpsertBatch writes the cycles in a single transaction. Matching by
// content hash keeps cycle ids stable across recomputes: a rediscovered
// cycle is refreshed in place, never duplicated. Re-running an unchanged
// full recompute therefore creates nothing on the second pass.
func (r *cycleRepository) UpsertBatch(ctx context.Context, cycles []*domain.Cycle) (repository.UpsertStats, error) {
	var stats repository.UpsertStats
	if len(cycles) == 0 {
		return stats, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO cycles (
			content_hash, participants, exchanges, length,
			quality_score, has_title_match, status, stale_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', NULL)
		ON CONFLICT (content_hash) DO UPDATE SET
			participants = EXCLUDED.participants,
			exchanges = EXCLUDED.exchanges,
			length = EXCLUDED.length,
			quality_score = EXCLUDED.quality_score,
			has_title_match = EXCLUDED.has_title_match,
			status = 'active',
			stale_at = NULL,
			updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	for _, c := range cycles {
		exchanges, err := json.Marshal(c.Exchanges)
		if err != nil {
			return stats, fmt.Errorf("failed to encode exchanges: %w", err)
		}

		var inserted bool
		err = tx.QueryRowContext(
			ctx, query,
			c.ContentHash, pq.Int64Array(c.Participants), exchanges,
			c.Length, c.QualityScore, c.HasTitleMatch,
		).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &inserted)
		if err != nil {
			return stats, fmt.Errorf("failed to upsert cycle %s: %w", c.ContentHash, err)
		}

		c.Status = domain.CycleStatusActive
		c.StaleAt = nil
		if inserted {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return repository.UpsertStats{}, fmt.Errorf("failed to commit upsert transaction: %w", err)
	}
	return stats, nil
}

func (r *cycleRepository) GetByID(ctx context.Context, id int64) (*domain.Cycle, error) {
	var row cycleRow
	query := `SELECT * FROM cycles WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCycleNotFound
		}
		return nil, err
	}
	return row.toDomain()
}

func (r *cycleRepository) GetByHash(ctx context.Context, hash string) (*domain.Cycle, error) {
	var row cycleRow
	query := `SELECT * FROM cycles WHERE content_hash = $1`
	if err := r.db.GetContext(ctx, &row, query, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCycleNotFound
		}
		return nil, err
	}
	return row.toDomain()
}

func (r *cycleRepository) GetActive(ctx context.Context) ([]*domain.Cycle, error) {
	var rows []cycleRow
	query := `
		SELECT * FROM cycles
		WHERE status = 'active'
		ORDER BY quality_score DESC, length ASC, id ASC
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return toDomainCycles(rows)
}

func (r *cycleRepository) GetByUser(ctx context.Context, userID int64) ([]*domain.Cycle, error) {
	var rows []cycleRow
	query := `
		SELECT * FROM cycles
		WHERE status = 'active' AND participants @> ARRAY[$1]::bigint[]
		ORDER BY quality_score DESC, length ASC, id ASC
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	return toDomainCycles(rows)
}

func (r *cycleRepository) MarkStaleAll(ctx context.Context) (int, error) {
	query := `
		UPDATE cycles
		SET status = 'stale', stale_at = NOW(), updated_at = NOW()
		WHERE status = 'active'
	`
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return rowsAffected(result)
}

func (r *cycleRepository) MarkStaleByUsers(ctx context.Context, userIDs []int64) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	query := `
		UPDATE cycles
		SET status = 'stale', stale_at = NOW(), updated_at = NOW()
		WHERE status = 'active' AND participants && $1
	`
	result, err := r.db.ExecContext(ctx, query, pq.Int64Array(userIDs))
	if err != nil {
		return 0, err
	}
	return rowsAffected(result)
}

func (r *cycleRepository) MarkStaleByIDs(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `
		UPDATE cycles
		SET status = 'stale', stale_at = NOW(), updated_at = NOW()
		WHERE status = 'active' AND id = ANY($1)
	`
	result, err := r.db.ExecContext(ctx, query, pq.Int64Array(ids))
	if err != nil {
		return 0, err
	}
	return rowsAffected(result)
}

func (r *cycleRepository) Archive(ctx context.Context, id int64) error {
	query := `
		UPDATE cycles
		SET status = 'archived', updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCycleNotFound
	}
	return nil
}

// PurgeStale deletes expired stale cycles. Cycles referenced by a
// pending proposal are skipped no matter how old they are.
func (r *cycleRepository) PurgeStale(ctx context.Context, staleBefore time.Time) (int, error) {
	query := `
		DELETE FROM cycles c
		WHERE c.status = 'stale'
		  AND c.stale_at < $1
		  AND NOT EXISTS (
			SELECT 1 FROM proposals p
			WHERE p.cycle_id = c.id AND p.status = 'pending'
		  )
	`
	result, err := r.db.ExecContext(ctx, query, staleBefore)
	if err != nil {
		return 0, err
	}
	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (int, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
