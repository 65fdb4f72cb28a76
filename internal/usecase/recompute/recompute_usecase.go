// Package recompute orchestrates the discovery runs: change detection,
// full vs incremental graph rebuild, cycle persistence, validation and
// retention. It is the single writer of the cycle store; the Locker
// enforces that.
package recompute

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tomether-ux/polygonum-sub000/internal/config"
	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/engine"
	"github.com/tomether-ux/polygonum-sub000/internal/matching"
	"github.com/tomether-ux/polygonum-sub000/internal/repository"
)

// Options overrides per-run tunables; zero values fall back to the
// engine configuration.
type Options struct {
	MaxLength int
	ForceFull bool
	BatchSize int
}

type UseCase struct {
	listings repository.ListingRepository
	cycles   repository.CycleRepository
	runs     repository.RunRepository
	matcher  *matching.Matcher
	locker   Locker
	cfg      config.EngineConfig
	logger   *slog.Logger

	nowFn func() time.Time
}

func NewUseCase(
	listings repository.ListingRepository,
	cycles repository.CycleRepository,
	runs repository.RunRepository,
	matcher *matching.Matcher,
	locker Locker,
	cfg config.EngineConfig,
	logger *slog.Logger,
) *UseCase {
	return &UseCase{
		listings: listings,
		cycles:   cycles,
		runs:     runs,
		matcher:  matcher,
		locker:   locker,
		cfg:      cfg,
		logger:   logger,
		nowFn:    time.Now,
	}
}

// Run performs one recompute invocation: decide full vs incremental,
// enumerate cycles, then commit (mark stale, upsert in batches, validate,
// purge). All state-flipping writes happen after the computation
// succeeded, so a failed run leaves the previous active set untouched.
//
// Returns domain.ErrRecomputeInProgress when another run holds the lock.
func (uc *UseCase) Run(ctx context.Context, opts Options) (*domain.RunSummary, error) {
	release, err := uc.locker.TryLock(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			uc.logger.Warn("failed to release recompute lock", "error", rerr)
		}
	}()

	start := uc.nowFn().UTC()
	summary := &domain.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: start,
	}
	log := uc.logger.With("run_id", summary.RunID)

	maxLen := opts.MaxLength
	if maxLen <= 0 {
		maxLen = uc.cfg.MaxCycleLength
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = uc.cfg.BatchSize
	}

	active, err := uc.listings.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active listings: %w", err)
	}
	summary.ListingsScanned = len(active)

	mode, touched, err := uc.decideMode(ctx, opts, summary, len(active))
	if err != nil {
		return nil, err
	}
	summary.Mode = mode
	log = log.With("mode", string(mode))
	log.Info("recompute started",
		"active_listings", len(active),
		"modified_listings", summary.ModifiedListings,
		"users_touched", len(touched))

	// compute phase: no writes happen until the search is done
	found, err := uc.compute(ctx, active, touched, maxLen, summary)
	if err != nil {
		return nil, err
	}

	// commit phase
	if mode == domain.RunModeFull {
		stale, err := uc.cycles.MarkStaleAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("mark cycles stale: %w", err)
		}
		summary.MarkedStale = stale
	} else if len(touched) > 0 {
		userIDs := make([]int64, 0, len(touched))
		for id := range touched {
			userIDs = append(userIDs, id)
		}
		stale, err := uc.cycles.MarkStaleByUsers(ctx, userIDs)
		if err != nil {
			return nil, fmt.Errorf("mark cycles stale: %w", err)
		}
		summary.MarkedStale = stale
	}

	for i := 0; i < len(found); i += batchSize {
		end := i + batchSize
		if end > len(found) {
			end = len(found)
		}
		stats, err := uc.cycles.UpsertBatch(ctx, found[i:end])
		if err != nil {
			// already-committed batches stay; the run is retryable
			summary.Elapsed = uc.nowFn().UTC().Sub(start)
			return summary, fmt.Errorf("upsert cycles batch %d..%d: %w", i, end, err)
		}
		summary.Created += stats.Created
		summary.Updated += stats.Updated
	}

	invalidated, err := uc.Validate(ctx)
	if err != nil {
		return nil, fmt.Errorf("validate active cycles: %w", err)
	}
	summary.MarkedStale += invalidated

	if uc.cfg.StaleRetention > 0 {
		purged, err := uc.cycles.PurgeStale(ctx, start.Add(-uc.cfg.StaleRetention))
		if err != nil {
			return nil, fmt.Errorf("purge stale cycles: %w", err)
		}
		summary.Purged = purged
	}

	summary.Elapsed = uc.nowFn().UTC().Sub(start)
	if err := uc.runs.RecordRun(ctx, summary); err != nil {
		return nil, fmt.Errorf("record run summary: %w", err)
	}

	log.Info("recompute finished",
		"cycles_found", summary.CyclesFound,
		"created", summary.Created,
		"updated", summary.Updated,
		"marked_stale", summary.MarkedStale,
		"purged", summary.Purged,
		"truncated", summary.Truncated,
		"elapsed", summary.Elapsed)
	return summary, nil
}

// decideMode picks full or incremental and, for incremental runs, the
// set of users whose listings changed since the last full run.
func (uc *UseCase) decideMode(ctx context.Context, opts Options, summary *domain.RunSummary, activeCount int) (domain.RunMode, map[int64]struct{}, error) {
	if opts.ForceFull {
		return domain.RunModeFull, nil, nil
	}
	lastFull, err := uc.runs.LastFullRunAt(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("load last full run: %w", err)
	}
	if lastFull.IsZero() {
		return domain.RunModeFull, nil, nil
	}

	modified, err := uc.listings.GetModifiedSince(ctx, lastFull)
	if err != nil {
		return "", nil, fmt.Errorf("load modified listings: %w", err)
	}
	summary.ModifiedListings = len(modified)

	if activeCount > 0 {
		fraction := float64(len(modified)) / float64(activeCount)
		if fraction > uc.cfg.FullRecomputeFraction {
			return domain.RunModeFull, nil, nil
		}
	}

	touched := make(map[int64]struct{}, len(modified))
	for _, l := range modified {
		touched[l.OwnerID] = struct{}{}
	}
	summary.UsersTouched = len(touched)
	return domain.RunModeIncremental, touched, nil
}

// compute builds the graph and enumerates cycles. For incremental runs
// the search is seeded to cycles containing a touched user; with nothing
// touched there is nothing to find.
func (uc *UseCase) compute(ctx context.Context, active []*domain.Listing, touched map[int64]struct{}, maxLen int, summary *domain.RunSummary) ([]*domain.Cycle, error) {
	if summary.Mode == domain.RunModeIncremental && len(touched) == 0 {
		return nil, nil
	}

	graph := engine.BuildGraph(ctx, active, uc.matcher, engine.BuildOptions{
		UseAdvancedScore:  uc.cfg.UseAdvancedScore,
		MinViabilityScore: uc.cfg.MinViabilityScore,
		PriceTolerancePct: uc.cfg.PriceTolerancePct,
	})

	findOpts := engine.FindOptions{
		MaxLength: maxLen,
		MaxCycles: uc.cfg.MaxCyclesPerRun,
	}
	if summary.Mode == domain.RunModeIncremental {
		findOpts.Seeds = touched
	}

	result := engine.FindCycles(graph, findOpts)
	summary.CyclesFound = len(result.Cycles)
	summary.Truncated = result.Truncated

	// a structurally invalid cycle is a finder defect, not data trouble
	for _, c := range result.Cycles {
		if err := c.Validate(maxLen); err != nil {
			return nil, fmt.Errorf("invalid cycle produced: %w", err)
		}
	}
	return result.Cycles, nil
}

// Validate checks every active cycle against the current listing set and
// marks stale the ones referencing missing or inactive listings. Cycles
// with pending proposals are still only marked, never deleted; the purge
// step is the sole deleter and respects proposals itself.
func (uc *UseCase) Validate(ctx context.Context) (int, error) {
	activeCycles, err := uc.cycles.GetActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("load active cycles: %w", err)
	}
	if len(activeCycles) == 0 {
		return 0, nil
	}

	idSet := make(map[int64]struct{})
	for _, c := range activeCycles {
		for _, id := range c.ListingIDs() {
			idSet[id] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	listings, err := uc.listings.GetByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load referenced listings: %w", err)
	}
	activeByID := make(map[int64]bool, len(listings))
	for _, l := range listings {
		activeByID[l.ID] = l.Active
	}

	var invalid []int64
	for _, c := range activeCycles {
		for _, id := range c.ListingIDs() {
			if !activeByID[id] {
				invalid = append(invalid, c.ID)
				break
			}
		}
	}
	if len(invalid) == 0 {
		return 0, nil
	}
	return uc.cycles.MarkStaleByIDs(ctx, invalid)
}
