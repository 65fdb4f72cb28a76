package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/repository"
)

type CycleRepository struct {
	mu     sync.RWMutex
	byID   map[int64]*domain.Cycle
	byHash map[int64]string // kept in sync with byID; id -> hash
	hashes map[string]int64 // hash -> id
	nextID int64

	proposals *ProposalRepository // nil means no proposal guard
	nowFn     func() time.Time
}

func NewCycleRepository(proposals *ProposalRepository) *CycleRepository {
	return &CycleRepository{
		byID:      make(map[int64]*domain.Cycle),
		byHash:    make(map[int64]string),
		hashes:    make(map[string]int64),
		proposals: proposals,
		nowFn:     time.Now,
	}
}

var _ repository.CycleRepository = (*CycleRepository)(nil)

// WithClock overrides the time provider (used primarily in tests).
func (r *CycleRepository) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		r.nowFn = nowFn
	}
}

func (r *CycleRepository) UpsertBatch(ctx context.Context, cycles []*domain.Cycle) (repository.UpsertStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats repository.UpsertStats
	now := r.nowFn().UTC()
	for _, c := range cycles {
		if id, ok := r.hashes[c.ContentHash]; ok {
			existing := r.byID[id]
			c.ID = id
			c.CreatedAt = existing.CreatedAt
			stats.Updated++
		} else {
			r.nextID++
			c.ID = r.nextID
			c.CreatedAt = now
			r.hashes[c.ContentHash] = c.ID
			r.byHash[c.ID] = c.ContentHash
			stats.Created++
		}
		c.Status = domain.CycleStatusActive
		c.StaleAt = nil
		c.UpdatedAt = now
		clone := cloneCycle(c)
		r.byID[c.ID] = clone
	}
	return stats, nil
}

func (r *CycleRepository) GetByID(ctx context.Context, id int64) (*domain.Cycle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byID[id]; ok {
		return cloneCycle(c), nil
	}
	return nil, domain.ErrCycleNotFound
}

func (r *CycleRepository) GetByHash(ctx context.Context, hash string) (*domain.Cycle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.hashes[hash]; ok {
		return cloneCycle(r.byID[id]), nil
	}
	return nil, domain.ErrCycleNotFound
}

func (r *CycleRepository) GetActive(ctx context.Context) ([]*domain.Cycle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Cycle
	for _, c := range r.byID {
		if c.Status == domain.CycleStatusActive {
			out = append(out, cloneCycle(c))
		}
	}
	sortCycles(out)
	return out, nil
}

func (r *CycleRepository) GetByUser(ctx context.Context, userID int64) ([]*domain.Cycle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Cycle
	for _, c := range r.byID {
		if c.Status == domain.CycleStatusActive && c.HasUser(userID) {
			out = append(out, cloneCycle(c))
		}
	}
	sortCycles(out)
	return out, nil
}

func (r *CycleRepository) MarkStaleAll(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.markStale(func(c *domain.Cycle) bool { return true }), nil
}

func (r *CycleRepository) MarkStaleByUsers(ctx context.Context, userIDs []int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		users[id] = struct{}{}
	}
	return r.markStale(func(c *domain.Cycle) bool {
		for _, p := range c.Participants {
			if _, ok := users[p]; ok {
				return true
			}
		}
		return false
	}), nil
}

func (r *CycleRepository) MarkStaleByIDs(ctx context.Context, ids []int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idSet := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	return r.markStale(func(c *domain.Cycle) bool {
		_, ok := idSet[c.ID]
		return ok
	}), nil
}

func (r *CycleRepository) markStale(predicate func(*domain.Cycle) bool) int {
	now := r.nowFn().UTC()
	count := 0
	for _, c := range r.byID {
		if c.Status == domain.CycleStatusActive && predicate(c) {
			c.Status = domain.CycleStatusStale
			ts := now
			c.StaleAt = &ts
			c.UpdatedAt = now
			count++
		}
	}
	return count
}

func (r *CycleRepository) Archive(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return domain.ErrCycleNotFound
	}
	c.Status = domain.CycleStatusArchived
	c.UpdatedAt = r.nowFn().UTC()
	return nil
}

func (r *CycleRepository) PurgeStale(ctx context.Context, staleBefore time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for id, c := range r.byID {
		if c.Status != domain.CycleStatusStale || c.StaleAt == nil || !c.StaleAt.Before(staleBefore) {
			continue
		}
		if r.proposals != nil {
			pending, err := r.proposals.HasPendingForCycle(ctx, id)
			if err != nil {
				return count, err
			}
			if pending {
				continue
			}
		}
		delete(r.hashes, r.byHash[id])
		delete(r.byHash, id)
		delete(r.byID, id)
		count++
	}
	return count, nil
}

// All returns every stored cycle regardless of status, sorted by id.
// Test helper; the repository interface deliberately has no such query.
func (r *CycleRepository) All() []*domain.Cycle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Cycle, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, cloneCycle(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneCycle(c *domain.Cycle) *domain.Cycle {
	clone := *c
	clone.Participants = append([]int64(nil), c.Participants...)
	clone.Exchanges = append([]domain.Exchange(nil), c.Exchanges...)
	if c.StaleAt != nil {
		ts := *c.StaleAt
		clone.StaleAt = &ts
	}
	return &clone
}

func sortCycles(cycles []*domain.Cycle) {
	sort.Slice(cycles, func(i, j int) bool {
		if cycles[i].QualityScore != cycles[j].QualityScore {
			return cycles[i].QualityScore > cycles[j].QualityScore
		}
		if cycles[i].Length != cycles[j].Length {
			return cycles[i].Length < cycles[j].Length
		}
		return cycles[i].ID < cycles[j].ID
	})
}
