package repository

import (
	"context"
	"time"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
)

// UpsertStats reports the outcome of a batched upsert.
type UpsertStats struct {
	Created int
	Updated int
}

// CycleRepository is the persisted cycle store. Identity is twofold: the
// surrogate id survives refreshes because upserts match on content_hash
// and update in place, so external references (proposals) stay valid
// across recomputes.
type CycleRepository interface {
	// UpsertBatch inserts or refreshes the given cycles in one
	// transaction, matching existing rows by content hash. Refreshed
	// cycles become active again and keep their id.
	UpsertBatch(ctx context.Context, cycles []*domain.Cycle) (UpsertStats, error)

	GetByID(ctx context.Context, id int64) (*domain.Cycle, error)
	GetByHash(ctx context.Context, hash string) (*domain.Cycle, error)
	GetActive(ctx context.Context) ([]*domain.Cycle, error)
	GetByUser(ctx context.Context, userID int64) ([]*domain.Cycle, error)

	// MarkStaleAll flips every active cycle to stale; used at the start
	// of a full recompute's commit phase.
	MarkStaleAll(ctx context.Context) (int, error)
	// MarkStaleByUsers flips active cycles whose participant set
	// intersects the given users.
	MarkStaleByUsers(ctx context.Context, userIDs []int64) (int, error)
	MarkStaleByIDs(ctx context.Context, ids []int64) (int, error)

	// Archive retires a cycle manually. The caller is responsible for
	// checking that no pending proposal references it.
	Archive(ctx context.Context, id int64) error

	// PurgeStale deletes stale cycles older than the cutoff, skipping
	// any cycle referenced by a pending proposal.
	PurgeStale(ctx context.Context, staleBefore time.Time) (int, error)
}
