package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/repository"
)

type RunRepository struct {
	mu   sync.RWMutex
	runs []*domain.RunSummary
}

func NewRunRepository() *RunRepository {
	return &RunRepository{}
}

var _ repository.RunRepository = (*RunRepository)(nil)

func (r *RunRepository) RecordRun(ctx context.Context, summary *domain.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *summary
	r.runs = append(r.runs, &clone)
	return nil
}

func (r *RunRepository) LastFullRunAt(ctx context.Context) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var last time.Time
	for _, run := range r.runs {
		if run.Mode == domain.RunModeFull && run.StartedAt.After(last) {
			last = run.StartedAt
		}
	}
	return last, nil
}

// Runs returns recorded summaries in insertion order.
func (r *RunRepository) Runs() []*domain.RunSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.RunSummary, len(r.runs))
	copy(out, r.runs)
	return out
}
