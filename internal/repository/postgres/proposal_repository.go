package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/tomether-ux/polygonum-sub000/internal/repository"
)

type proposalRepository struct {
	db *sqlx.DB
}

func NewProposalRepository(db *sqlx.DB) repository.ProposalRepository {
	return &proposalRepository{db: db}
}

func (r *proposalRepository) HasPendingForCycle(ctx context.Context, cycleID int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM proposals
			WHERE cycle_id = $1 AND status = 'pending'
		)
	`
	err := r.db.GetContext(ctx, &exists, query, cycleID)
	return exists, err
}
