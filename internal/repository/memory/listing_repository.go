// Package memory holds in-memory repository implementations used by
// tests and by the dry-run mode of the recompute binary.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/repository"
)

type ListingRepository struct {
	mu       sync.RWMutex
	listings map[int64]*domain.Listing
	nextID   int64
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{listings: make(map[int64]*domain.Listing)}
}

var _ repository.ListingRepository = (*ListingRepository)(nil)

// Put stores a listing, assigning an id when missing. Returns the
// stored copy.
func (r *ListingRepository) Put(l *domain.Listing) *domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == 0 {
		r.nextID++
		l.ID = r.nextID
	} else if l.ID > r.nextID {
		r.nextID = l.ID
	}
	clone := *l
	r.listings[l.ID] = &clone
	return l
}

// Deactivate flips a stored listing inactive via the domain transition
// and stamps updated_at, mirroring what the marketplace does.
func (r *ListingRepository) Deactivate(id int64, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.listings[id]; ok {
		l.Deactivate(now)
	}
}

func (r *ListingRepository) GetActive(ctx context.Context) ([]*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Listing
	for _, l := range r.listings {
		if l.Active {
			clone := *l
			out = append(out, &clone)
		}
	}
	sortListings(out)
	return out, nil
}

func (r *ListingRepository) GetActiveByUser(ctx context.Context, userID int64, direction domain.Direction) ([]*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Listing
	for _, l := range r.listings {
		if l.Active && l.OwnerID == userID && l.Direction == direction {
			clone := *l
			out = append(out, &clone)
		}
	}
	sortListings(out)
	return out, nil
}

func (r *ListingRepository) GetModifiedSince(ctx context.Context, since time.Time) ([]*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Listing
	for _, l := range r.listings {
		if l.UpdatedAt.After(since) || (l.DeactivatedAt != nil && l.DeactivatedAt.After(since)) {
			clone := *l
			out = append(out, &clone)
		}
	}
	sortListings(out)
	return out, nil
}

func (r *ListingRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Listing
	for _, id := range ids {
		if l, ok := r.listings[id]; ok {
			clone := *l
			out = append(out, &clone)
		}
	}
	sortListings(out)
	return out, nil
}

func (r *ListingRepository) CountActive(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, l := range r.listings {
		if l.Active {
			count++
		}
	}
	return count, nil
}

func sortListings(listings []*domain.Listing) {
	sort.Slice(listings, func(i, j int) bool { return listings[i].ID < listings[j].ID })
}
