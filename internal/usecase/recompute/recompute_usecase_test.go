package recompute

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/tomether-ux/polygonum-sub000/internal/config"
	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/matching"
	"github.com/tomether-ux/polygonum-sub000/internal/repository/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	return c.t
}

type fixture struct {
	uc        *UseCase
	listings  *memory.ListingRepository
	cycles    *memory.CycleRepository
	proposals *memory.ProposalRepository
	runs      *memory.RunRepository
	clock     *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	proposals := memory.NewProposalRepository()
	cycles := memory.NewCycleRepository(proposals)
	cycles.WithClock(clock.Now)
	listings := memory.NewListingRepository()
	runs := memory.NewRunRepository()

	cfg := config.EngineConfig{
		MaxCycleLength:        6,
		MinViabilityScore:     20,
		PriceTolerancePct:     25,
		FullRecomputeFraction: 0.30,
		BatchSize:             2,
		StaleRetention:        168 * time.Hour,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uc := NewUseCase(listings, cycles, runs, matching.NewMatcher(nil), NewLocalLocker(), cfg, logger)
	uc.nowFn = clock.Now

	return &fixture{uc: uc, listings: listings, cycles: cycles, proposals: proposals, runs: runs, clock: clock}
}

func (f *fixture) addListing(owner int64, direction domain.Direction, title string, category int64) *domain.Listing {
	l := &domain.Listing{
		OwnerID:    owner,
		Direction:  direction,
		Title:      title,
		CategoryID: category,
		Active:     true,
		UpdatedAt:  f.clock.Now(),
	}
	return f.listings.Put(l)
}

// seedSwapPairs creates three independent two-user swaps: (1,2), (3,4)
// and (5,6), each in its own category with its own vocabulary.
func (f *fixture) seedSwapPairs() map[int64]*domain.Listing {
	byOwnerOffer := make(map[int64]*domain.Listing)
	pairs := []struct {
		a, b     int64
		itemA    string
		itemB    string
		category int64
	}{
		{1, 2, "acoustic guitar", "tube amplifier", 1},
		{3, 4, "road bicycle", "cycling helmet", 2},
		{5, 6, "film camera", "carbon tripod", 3},
	}
	for _, p := range pairs {
		byOwnerOffer[p.a] = f.addListing(p.a, domain.DirectionOffer, p.itemA, p.category)
		f.addListing(p.a, domain.DirectionWant, p.itemB, p.category)
		byOwnerOffer[p.b] = f.addListing(p.b, domain.DirectionOffer, p.itemB, p.category)
		f.addListing(p.b, domain.DirectionWant, p.itemA, p.category)
	}
	return byOwnerOffer
}

func TestFullRunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedSwapPairs()
	ctx := context.Background()

	first, err := f.uc.Run(ctx, Options{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Mode != domain.RunModeFull {
		t.Fatalf("first run mode = %s, want full", first.Mode)
	}
	if first.CyclesFound != 3 || first.Created != 3 || first.Updated != 0 {
		t.Fatalf("first run found=%d created=%d updated=%d, want 3/3/0",
			first.CyclesFound, first.Created, first.Updated)
	}

	active, err := f.cycles.GetActive(ctx)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	idsByHash := make(map[string]int64, len(active))
	for _, c := range active {
		idsByHash[c.ContentHash] = c.ID
	}

	f.clock.Advance(time.Minute)
	second, err := f.uc.Run(ctx, Options{ForceFull: true})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Created != 0 || second.Updated != 3 {
		t.Fatalf("second run created=%d updated=%d, want 0/3", second.Created, second.Updated)
	}

	after, err := f.cycles.GetActive(ctx)
	if err != nil {
		t.Fatalf("get active after rerun: %v", err)
	}
	if len(after) != 3 {
		t.Fatalf("active cycles after rerun = %d, want 3", len(after))
	}
	for _, c := range after {
		if id, ok := idsByHash[c.ContentHash]; !ok || id != c.ID {
			t.Errorf("cycle %s changed identity: id %d, previously %d", c.ContentHash, c.ID, id)
		}
	}
}

func TestIncrementalScope(t *testing.T) {
	f := newFixture(t)
	offers := f.seedSwapPairs()
	ctx := context.Background()

	if _, err := f.uc.Run(ctx, Options{}); err != nil {
		t.Fatalf("full run: %v", err)
	}
	before, err := f.cycles.GetActive(ctx)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	identity := make(map[string]time.Time, len(before))
	for _, c := range before {
		identity[c.ContentHash] = c.UpdatedAt
	}

	// user 3 withdraws their offer: only the (3,4) cycle may be touched
	now := f.clock.Advance(time.Hour)
	f.listings.Deactivate(offers[3].ID, now)
	f.clock.Advance(time.Minute)

	summary, err := f.uc.Run(ctx, Options{})
	if err != nil {
		t.Fatalf("incremental run: %v", err)
	}
	if summary.Mode != domain.RunModeIncremental {
		t.Fatalf("mode = %s, want incremental", summary.Mode)
	}
	if summary.UsersTouched != 1 {
		t.Fatalf("users touched = %d, want 1", summary.UsersTouched)
	}
	if summary.MarkedStale != 1 {
		t.Fatalf("marked stale = %d, want 1", summary.MarkedStale)
	}
	if summary.Created != 0 || summary.Updated != 0 {
		t.Fatalf("created=%d updated=%d, want 0/0", summary.Created, summary.Updated)
	}

	active, err := f.cycles.GetActive(ctx)
	if err != nil {
		t.Fatalf("get active after incremental: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active cycles = %d, want 2", len(active))
	}
	for _, c := range active {
		if c.HasUser(3) || c.HasUser(4) {
			t.Errorf("cycle %s containing touched users is still active", c.ContentHash)
		}
		prev, ok := identity[c.ContentHash]
		if !ok {
			t.Errorf("cycle %s appeared without being computed", c.ContentHash)
			continue
		}
		if !c.UpdatedAt.Equal(prev) {
			t.Errorf("untouched cycle %s was rewritten", c.ContentHash)
		}
	}

	mine, err := f.cycles.GetByUser(ctx, 3)
	if err != nil {
		t.Fatalf("get by user: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("user 3 still has %d active cycles", len(mine))
	}
}

func TestModifiedFractionForcesFull(t *testing.T) {
	f := newFixture(t)
	f.seedSwapPairs()
	ctx := context.Background()

	if _, err := f.uc.Run(ctx, Options{}); err != nil {
		t.Fatalf("full run: %v", err)
	}

	// touch a third of the listings: over the threshold, full again
	now := f.clock.Advance(time.Hour)
	all, err := f.listings.GetActive(ctx)
	if err != nil {
		t.Fatalf("get active listings: %v", err)
	}
	for _, l := range all[:5] {
		l.UpdatedAt = now
		f.listings.Put(l)
	}
	f.clock.Advance(time.Minute)

	summary, err := f.uc.Run(ctx, Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Mode != domain.RunModeFull {
		t.Fatalf("mode = %s, want full after heavy modification", summary.Mode)
	}
	if summary.Created != 0 || summary.Updated != 3 {
		t.Fatalf("created=%d updated=%d, want 0/3", summary.Created, summary.Updated)
	}
}

func TestValidationMarksStale(t *testing.T) {
	f := newFixture(t)
	offers := f.seedSwapPairs()
	ctx := context.Background()

	if _, err := f.uc.Run(ctx, Options{}); err != nil {
		t.Fatalf("full run: %v", err)
	}

	// deactivate behind the engine's back, then validate directly
	now := f.clock.Advance(time.Minute)
	f.listings.Deactivate(offers[5].ID, now)

	marked, err := f.uc.Validate(ctx)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if marked != 1 {
		t.Fatalf("validate marked %d cycles, want 1", marked)
	}

	active, err := f.cycles.GetActive(ctx)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	for _, c := range active {
		if c.HasUser(5) {
			t.Errorf("cycle referencing inactive listing is still active")
		}
	}
}

func TestPurgeRespectsPendingProposals(t *testing.T) {
	f := newFixture(t)
	offers := f.seedSwapPairs()
	ctx := context.Background()

	if _, err := f.uc.Run(ctx, Options{}); err != nil {
		t.Fatalf("full run: %v", err)
	}

	// stale the (1,2) and (3,4) cycles via an incremental run
	now := f.clock.Advance(time.Hour)
	f.listings.Deactivate(offers[1].ID, now)
	f.listings.Deactivate(offers[3].ID, now)
	f.clock.Advance(time.Minute)
	if _, err := f.uc.Run(ctx, Options{}); err != nil {
		t.Fatalf("incremental run: %v", err)
	}

	var pinnedHash, doomedHash string
	for _, c := range f.cycles.All() {
		if c.Status != domain.CycleStatusStale {
			continue
		}
		if c.HasUser(3) {
			pinnedHash = c.ContentHash
			f.proposals.Put(&domain.Proposal{CycleID: c.ID, Status: domain.ProposalStatusPending})
		}
		if c.HasUser(1) {
			doomedHash = c.ContentHash
		}
	}
	if pinnedHash == "" || doomedHash == "" {
		t.Fatal("expected stale cycles for both withdrawn offers")
	}

	f.clock.Advance(f.uc.cfg.StaleRetention + time.Hour)
	summary, err := f.uc.Run(ctx, Options{})
	if err != nil {
		t.Fatalf("purge run: %v", err)
	}
	if summary.Purged != 1 {
		t.Fatalf("purged = %d, want 1", summary.Purged)
	}

	if _, err := f.cycles.GetByHash(ctx, doomedHash); !errors.Is(err, domain.ErrCycleNotFound) {
		t.Errorf("unpinned stale cycle survived the purge: %v", err)
	}
	if _, err := f.cycles.GetByHash(ctx, pinnedHash); err != nil {
		t.Errorf("cycle with pending proposal was purged: %v", err)
	}
}

func TestLockedRunReturnsBusy(t *testing.T) {
	f := newFixture(t)
	f.seedSwapPairs()
	ctx := context.Background()

	locker := NewLocalLocker()
	f.uc.locker = locker

	release, err := locker.TryLock(ctx)
	if err != nil {
		t.Fatalf("prime lock: %v", err)
	}

	if _, err := f.uc.Run(ctx, Options{}); !errors.Is(err, domain.ErrRecomputeInProgress) {
		t.Fatalf("run under held lock: err = %v, want ErrRecomputeInProgress", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := f.uc.Run(ctx, Options{}); err != nil {
		t.Fatalf("run after release: %v", err)
	}
}

