package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/repository"
)

type listingRepository struct {
	db *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) repository.ListingRepository {
	return &listingRepository{db: db}
}

// listingColumns joins listings with their owner's coordinates so the
// distance gate of the advanced scorer works without a second query per
// listing.
const listingColumns = `
	l.id, l.owner_id, l.direction, l.title, l.description, l.category_id,
	l.wants_any_in_category, l.active, l.price_estimate, l.exchange_method,
	l.max_distance_km, u.location_lat AS owner_lat, u.location_lon AS owner_lon,
	l.created_at, l.updated_at, l.deactivated_at
`

func (r *listingRepository) GetActive(ctx context.Context) ([]*domain.Listing, error) {
	var listings []*domain.Listing
	query := `
		SELECT ` + listingColumns + `
		FROM listings l
		JOIN users u ON u.id = l.owner_id
		WHERE l.active = true
		ORDER BY l.id
	`
	err := r.db.SelectContext(ctx, &listings, query)
	return listings, err
}

func (r *listingRepository) GetActiveByUser(ctx context.Context, userID int64, direction domain.Direction) ([]*domain.Listing, error) {
	var listings []*domain.Listing
	query := `
		SELECT ` + listingColumns + `
		FROM listings l
		JOIN users u ON u.id = l.owner_id
		WHERE l.active = true AND l.owner_id = $1 AND l.direction = $2
		ORDER BY l.id
	`
	err := r.db.SelectContext(ctx, &listings, query, userID, direction)
	return listings, err
}

func (r *listingRepository) GetModifiedSince(ctx context.Context, since time.Time) ([]*domain.Listing, error) {
	var listings []*domain.Listing
	query := `
		SELECT ` + listingColumns + `
		FROM listings l
		JOIN users u ON u.id = l.owner_id
		WHERE l.updated_at > $1 OR (l.deactivated_at IS NOT NULL AND l.deactivated_at > $1)
		ORDER BY l.id
	`
	err := r.db.SelectContext(ctx, &listings, query, since)
	return listings, err
}

func (r *listingRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var listings []*domain.Listing
	query := `
		SELECT ` + listingColumns + `
		FROM listings l
		JOIN users u ON u.id = l.owner_id
		WHERE l.id = ANY($1)
		ORDER BY l.id
	`
	err := r.db.SelectContext(ctx, &listings, query, pq.Int64Array(ids))
	return listings, err
}

func (r *listingRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM listings WHERE active = true`
	err := r.db.GetContext(ctx, &count, query)
	return count, err
}
