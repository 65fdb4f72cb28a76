package repository

import (
	"context"
	"time"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
)

// RunRepository records recompute run summaries and answers when the
// last full recompute happened, which drives the incremental-vs-full
// decision.
type RunRepository interface {
	RecordRun(ctx context.Context, summary *domain.RunSummary) error
	LastFullRunAt(ctx context.Context) (time.Time, error)
}
