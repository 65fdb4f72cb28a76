package repository

import (
	"context"
)

// ProposalRepository exposes the minimal view of exchange proposals the
// engine needs: whether a cycle is pinned by a pending proposal.
type ProposalRepository interface {
	HasPendingForCycle(ctx context.Context, cycleID int64) (bool, error)
}
