package engine

import (
	"context"
	"testing"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/matching"
)

var nextListingID int64

func newListing(owner int64, dir domain.Direction, title string, category int64) *domain.Listing {
	nextListingID++
	return &domain.Listing{
		ID:             nextListingID,
		OwnerID:        owner,
		Direction:      dir,
		Title:          title,
		CategoryID:     category,
		Active:         true,
		ExchangeMethod: domain.ExchangeEither,
	}
}

func buildAndFind(t *testing.T, listings []*domain.Listing, opts FindOptions) FindResult {
	t.Helper()
	g := BuildGraph(context.Background(), listings, matching.NewMatcher(nil), BuildOptions{})
	result := FindCycles(g, opts)
	for _, c := range result.Cycles {
		if err := c.Validate(opts.MaxLength); err != nil {
			t.Fatalf("finder emitted invalid cycle: %v", err)
		}
	}
	return result
}

func TestDirectSwap(t *testing.T) {
	listings := []*domain.Listing{
		newListing(1, domain.DirectionOffer, "guitar", 10),
		newListing(1, domain.DirectionWant, "amplifier", 10),
		newListing(2, domain.DirectionOffer, "amplifier", 10),
		newListing(2, domain.DirectionWant, "guitar", 10),
	}

	result := buildAndFind(t, listings, FindOptions{MaxLength: 6})
	if len(result.Cycles) != 1 {
		t.Fatalf("found %d cycles, want 1", len(result.Cycles))
	}
	c := result.Cycles[0]
	if c.Length != 2 {
		t.Errorf("length = %d, want 2", c.Length)
	}
	if !c.HasTitleMatch {
		t.Error("direct keyword swap must have a title match")
	}
	for _, ex := range c.Exchanges {
		if ex.Kind != domain.MatchSpecific {
			t.Errorf("exchange kind = %v, want specific", ex.Kind)
		}
	}
}

func TestCategoryOnlyChainIsGeneric(t *testing.T) {
	// three users, no shared keywords, same category everywhere
	listings := []*domain.Listing{
		newListing(1, domain.DirectionOffer, "trumpet", 10),
		newListing(1, domain.DirectionWant, "drums", 10),
		newListing(2, domain.DirectionOffer, "violin", 10),
		newListing(2, domain.DirectionWant, "flute", 10),
		newListing(3, domain.DirectionOffer, "cello", 10),
		newListing(3, domain.DirectionWant, "banjo", 10),
	}

	result := buildAndFind(t, listings, FindOptions{MaxLength: 6})

	var threeCycle *domain.Cycle
	for _, c := range result.Cycles {
		if c.Length == 3 {
			threeCycle = c
			break
		}
	}
	if threeCycle == nil {
		t.Fatal("no length-3 cycle found")
	}
	if threeCycle.HasTitleMatch {
		t.Error("category-only chain must not be flagged as title match")
	}
}

func TestCycleLengthBound(t *testing.T) {
	// a ring of 5 users where each offers what the next wants
	items := []string{"guitar", "camera", "bicycle", "piano", "skateboard"}
	var listings []*domain.Listing
	for i := 0; i < 5; i++ {
		owner := int64(i + 1)
		listings = append(listings,
			newListing(owner, domain.DirectionOffer, items[i], int64(100+i)),
			newListing(owner, domain.DirectionWant, items[(i+1)%5], int64(200+i)),
		)
	}

	// ring orientation: user n wants item of user n+1, so edges run
	// n+1 → n and the full ring is a 5-cycle
	result := buildAndFind(t, listings, FindOptions{MaxLength: 6})
	if len(result.Cycles) != 1 || result.Cycles[0].Length != 5 {
		t.Fatalf("expected exactly the 5-ring, got %d cycles", len(result.Cycles))
	}

	// with the bound below the ring length nothing is found
	bounded := buildAndFind(t, listings, FindOptions{MaxLength: 4})
	if len(bounded.Cycles) != 0 {
		t.Errorf("bound 4 found %d cycles, want 0", len(bounded.Cycles))
	}
}

func TestEmptyGraph(t *testing.T) {
	result := buildAndFind(t, nil, FindOptions{MaxLength: 6})
	if len(result.Cycles) != 0 || result.Truncated {
		t.Errorf("empty graph produced %+v", result)
	}
}

func TestParallelEdgesYieldDistinctCycles(t *testing.T) {
	// user 1 has two offers matching user 2's want: one specific, one
	// category-only; both cycles must be emitted, not just the first
	// edge found
	listings := []*domain.Listing{
		newListing(1, domain.DirectionOffer, "guitar", 10),
		newListing(1, domain.DirectionOffer, "trumpet", 10),
		newListing(1, domain.DirectionWant, "amplifier", 10),
		newListing(2, domain.DirectionOffer, "amplifier", 10),
		newListing(2, domain.DirectionWant, "guitar", 10),
	}

	result := buildAndFind(t, listings, FindOptions{MaxLength: 6})
	if len(result.Cycles) != 2 {
		t.Fatalf("found %d cycles, want 2 (one per parallel edge)", len(result.Cycles))
	}
	kinds := map[domain.MatchKind]bool{}
	for _, c := range result.Cycles {
		kinds[c.Exchanges[0].Kind] = true
	}
	if !kinds[domain.MatchSpecific] || !kinds[domain.MatchCategory] {
		t.Errorf("expected one specific and one category cycle, got %v", kinds)
	}
}

func TestUnrelatedLowQualityEdgesDoNotSuppressCycles(t *testing.T) {
	// users 1 and 2 form a specific swap; user 9 has a want that
	// category-matches everything in the catalog. The noise must not
	// change what the disjoint {1,2} subgraph yields.
	swap := []*domain.Listing{
		newListing(1, domain.DirectionOffer, "guitar", 10),
		newListing(1, domain.DirectionWant, "amplifier", 10),
		newListing(2, domain.DirectionOffer, "amplifier", 10),
		newListing(2, domain.DirectionWant, "guitar", 10),
	}

	countSpecificSwaps := func(result FindResult) int {
		n := 0
		for _, c := range result.Cycles {
			if c.Length == 2 && c.HasUser(1) && c.HasUser(2) && c.HasTitleMatch {
				n++
			}
		}
		return n
	}

	baseline := buildAndFind(t, swap, FindOptions{MaxLength: 6})

	noisy := append([]*domain.Listing{}, swap...)
	blocker := newListing(9, domain.DirectionWant, "", 10)
	blocker.WantsAnyInCategory = true
	noisy = append(noisy, blocker)

	withNoise := buildAndFind(t, noisy, FindOptions{MaxLength: 6})

	if countSpecificSwaps(baseline) != countSpecificSwaps(withNoise) {
		t.Errorf("blocking listing changed unrelated cycle count: %d vs %d",
			countSpecificSwaps(baseline), countSpecificSwaps(withNoise))
	}
}

func TestTruncation(t *testing.T) {
	// dense category-only graph over 6 users produces many cycles
	var listings []*domain.Listing
	for i := 1; i <= 6; i++ {
		owner := int64(i)
		offer := newListing(owner, domain.DirectionOffer, "", 10)
		want := newListing(owner, domain.DirectionWant, "", 10)
		want.WantsAnyInCategory = true
		listings = append(listings, offer, want)
	}

	result := buildAndFind(t, listings, FindOptions{MaxLength: 4, MaxCycles: 5})
	if !result.Truncated {
		t.Error("expected truncation flag")
	}
	if len(result.Cycles) != 5 {
		t.Errorf("got %d cycles, want exactly the ceiling of 5", len(result.Cycles))
	}
}

func TestSeededSearchScope(t *testing.T) {
	listings := []*domain.Listing{
		newListing(1, domain.DirectionOffer, "guitar", 10),
		newListing(1, domain.DirectionWant, "amplifier", 10),
		newListing(2, domain.DirectionOffer, "amplifier", 10),
		newListing(2, domain.DirectionWant, "guitar", 10),
		newListing(3, domain.DirectionOffer, "kayak", 20),
		newListing(3, domain.DirectionWant, "canoe paddle", 20),
		newListing(4, domain.DirectionOffer, "paddle", 20),
		newListing(4, domain.DirectionWant, "kayak", 20),
	}

	seeded := buildAndFind(t, listings, FindOptions{
		MaxLength: 6,
		Seeds:     map[int64]struct{}{3: {}},
	})
	for _, c := range seeded.Cycles {
		if !c.HasUser(3) {
			t.Errorf("seeded search emitted cycle without seed user: %v", c.Participants)
		}
	}
	if len(seeded.Cycles) == 0 {
		t.Error("seeded search found nothing for user 3")
	}
}

func TestContentHashRotationStable(t *testing.T) {
	participants := []int64{2, 3, 1}
	exchanges := []domain.Exchange{
		{FromUserID: 2, ToUserID: 3, OfferListingID: 20, WantListingID: 31},
		{FromUserID: 3, ToUserID: 1, OfferListingID: 30, WantListingID: 11},
		{FromUserID: 1, ToUserID: 2, OfferListingID: 10, WantListingID: 21},
	}

	base := ContentHash(participants, exchanges)
	for shift := 1; shift < 3; shift++ {
		rotatedP := append(append([]int64{}, participants[shift:]...), participants[:shift]...)
		rotatedE := append(append([]domain.Exchange{}, exchanges[shift:]...), exchanges[:shift]...)
		if got := ContentHash(rotatedP, rotatedE); got != base {
			t.Errorf("rotation %d changed hash: %s vs %s", shift, got, base)
		}
	}
}

func TestContentHashSensitivity(t *testing.T) {
	exchanges := []domain.Exchange{
		{FromUserID: 1, ToUserID: 2, OfferListingID: 10, WantListingID: 21},
		{FromUserID: 2, ToUserID: 1, OfferListingID: 20, WantListingID: 11},
	}
	base := ContentHash([]int64{1, 2}, exchanges)

	otherListings := []domain.Exchange{
		{FromUserID: 1, ToUserID: 2, OfferListingID: 99, WantListingID: 21},
		{FromUserID: 2, ToUserID: 1, OfferListingID: 20, WantListingID: 11},
	}
	if ContentHash([]int64{1, 2}, otherListings) == base {
		t.Error("different listing pairs must hash differently")
	}

	if ContentHash([]int64{1, 3}, exchanges) == base {
		t.Error("different participants must hash differently")
	}
}
