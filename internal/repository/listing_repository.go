package repository

import (
	"context"
	"time"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
)

// ListingRepository is the read-only view of the listing source the
// engine computes over. Listings are owned by the surrounding
// marketplace; the engine never mutates them.
type ListingRepository interface {
	GetActive(ctx context.Context) ([]*domain.Listing, error)
	GetActiveByUser(ctx context.Context, userID int64, direction domain.Direction) ([]*domain.Listing, error)
	GetModifiedSince(ctx context.Context, since time.Time) ([]*domain.Listing, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Listing, error)
	CountActive(ctx context.Context) (int, error)
}
