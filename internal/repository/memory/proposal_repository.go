package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/repository"
)

type ProposalRepository struct {
	mu        sync.RWMutex
	proposals map[int64]*domain.Proposal
	nextID    int64
}

func NewProposalRepository() *ProposalRepository {
	return &ProposalRepository{proposals: make(map[int64]*domain.Proposal)}
}

var _ repository.ProposalRepository = (*ProposalRepository)(nil)

// Put stores a proposal, assigning an id when missing.
func (r *ProposalRepository) Put(p *domain.Proposal) *domain.Proposal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		r.nextID++
		p.ID = r.nextID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	clone := *p
	r.proposals[p.ID] = &clone
	return p
}

func (r *ProposalRepository) HasPendingForCycle(ctx context.Context, cycleID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.proposals {
		if p.CycleID == cycleID && p.Pending() {
			return true, nil
		}
	}
	return false, nil
}
