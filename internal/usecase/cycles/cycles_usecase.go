// Package cycles serves read queries over the persisted cycle store for
// the HTTP surface. It never writes; recompute owns all mutations.
package cycles

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/engine"
	"github.com/tomether-ux/polygonum-sub000/internal/repository"
)

type CyclesUseCase struct {
	cycleRepo    repository.CycleRepository
	proposalRepo repository.ProposalRepository
}

func NewCyclesUseCase(cycleRepo repository.CycleRepository, proposalRepo repository.ProposalRepository) *CyclesUseCase {
	return &CyclesUseCase{cycleRepo: cycleRepo, proposalRepo: proposalRepo}
}

// GetUserCycles returns the active cycles the user participates in, one
// representative per participant set, best first.
func (uc *CyclesUseCase) GetUserCycles(ctx context.Context, userID int64) ([]*domain.Cycle, error) {
	cycles, err := uc.cycleRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cycles for user %d: %w", userID, err)
	}
	return present(cycles), nil
}

// GetActiveCycles returns all active cycles, optionally restricted to
// ones carrying a title-level match.
func (uc *CyclesUseCase) GetActiveCycles(ctx context.Context, titleMatchOnly bool) ([]*domain.Cycle, error) {
	cycles, err := uc.cycleRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active cycles: %w", err)
	}
	if titleMatchOnly {
		filtered := cycles[:0]
		for _, c := range cycles {
			if c.HasTitleMatch {
				filtered = append(filtered, c)
			}
		}
		cycles = filtered
	}
	return present(cycles), nil
}

// GetCycle returns one cycle by id regardless of status.
func (uc *CyclesUseCase) GetCycle(ctx context.Context, id int64) (*domain.Cycle, error) {
	cycle, err := uc.cycleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return cycle, nil
}

// ArchiveCycle retires a cycle manually. A cycle referenced by a
// pending proposal cannot be archived out from under the participants.
func (uc *CyclesUseCase) ArchiveCycle(ctx context.Context, id int64) error {
	if _, err := uc.cycleRepo.GetByID(ctx, id); err != nil {
		return err
	}
	pinned, err := uc.proposalRepo.HasPendingForCycle(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check proposals for cycle %d: %w", id, err)
	}
	if pinned {
		return domain.ErrCyclePinnedByProposal
	}
	return uc.cycleRepo.Archive(ctx, id)
}

// present collapses to one cycle per participant set and orders best
// first. The store keeps every hash-distinct cycle; the display level is
// where the one-per-group rule applies.
func present(cycles []*domain.Cycle) []*domain.Cycle {
	out := engine.DedupeByParticipants(cycles)
	sort.Slice(out, func(i, j int) bool {
		if out[i].QualityScore != out[j].QualityScore {
			return out[i].QualityScore > out[j].QualityScore
		}
		if out[i].Length != out[j].Length {
			return out[i].Length < out[j].Length
		}
		return out[i].ContentHash < out[j].ContentHash
	})
	return out
}
