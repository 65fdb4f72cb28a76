package engine

import (
	"testing"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
)

func cycleWith(kinds ...domain.MatchKind) *domain.Cycle {
	participants := make([]int64, len(kinds))
	exchanges := make([]domain.Exchange, len(kinds))
	for i, kind := range kinds {
		participants[i] = int64(i + 1)
		exchanges[i] = domain.Exchange{
			FromUserID:     int64(i + 1),
			ToUserID:       int64((i+1)%len(kinds) + 1),
			OfferListingID: int64(100 + i),
			WantListingID:  int64(200 + i),
			Kind:           kind,
		}
	}
	c := &domain.Cycle{
		Participants: participants,
		Exchanges:    exchanges,
		Length:       len(kinds),
	}
	c.ContentHash = ContentHash(participants, exchanges)
	Classify(c)
	return c
}

func TestClassifyScoring(t *testing.T) {
	cases := []struct {
		name      string
		kinds     []domain.MatchKind
		score     float64
		title     bool
	}{
		{"all specific", []domain.MatchKind{domain.MatchSpecific, domain.MatchSpecific}, 3, true},
		{"all category", []domain.MatchKind{domain.MatchCategory, domain.MatchCategory, domain.MatchCategory}, 2, false},
		{"mixed", []domain.MatchKind{domain.MatchSpecific, domain.MatchGeneric}, 2, true},
		{"synonym scores like specific", []domain.MatchKind{domain.MatchSynonym, domain.MatchSynonym}, 3, true},
		{"partial scores like specific", []domain.MatchKind{domain.MatchPartial, domain.MatchCategory}, 2.5, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := cycleWith(tc.kinds...)
			if c.QualityScore != tc.score {
				t.Errorf("quality = %f, want %f", c.QualityScore, tc.score)
			}
			if c.HasTitleMatch != tc.title {
				t.Errorf("hasTitleMatch = %v, want %v", c.HasTitleMatch, tc.title)
			}
		})
	}
}

func TestDedupeKeepsBestRegardlessOfOrder(t *testing.T) {
	specific := cycleWith(domain.MatchSpecific, domain.MatchSpecific)
	generic := cycleWith(domain.MatchGeneric, domain.MatchGeneric)

	// same participant set {1,2}, different quality; feed both orders
	forward := DedupeByParticipants([]*domain.Cycle{specific, generic})
	backward := DedupeByParticipants([]*domain.Cycle{generic, specific})

	if len(forward) != 1 || len(backward) != 1 {
		t.Fatalf("dedup kept %d/%d cycles, want 1 each", len(forward), len(backward))
	}
	if forward[0] != specific || backward[0] != specific {
		t.Error("dedup must keep the higher-quality cycle in both feed orders")
	}
}

func TestDedupeTieBreaks(t *testing.T) {
	a := cycleWith(domain.MatchSpecific, domain.MatchSpecific)
	b := cycleWith(domain.MatchSpecific, domain.MatchSpecific)
	// force distinct hashes via different listing IDs
	b.Exchanges[0].OfferListingID = 999
	b.ContentHash = ContentHash(b.Participants, b.Exchanges)

	lower, higher := a, b
	if lower.ContentHash > higher.ContentHash {
		lower, higher = higher, lower
	}

	kept := DedupeByParticipants([]*domain.Cycle{higher, lower})
	if len(kept) != 1 || kept[0] != lower {
		t.Error("equal score and length must tie-break on lowest content hash")
	}
}

func TestDedupeDistinctParticipantSetsUntouched(t *testing.T) {
	a := cycleWith(domain.MatchSpecific, domain.MatchSpecific)
	b := cycleWith(domain.MatchCategory, domain.MatchCategory, domain.MatchCategory)

	kept := DedupeByParticipants([]*domain.Cycle{a, b})
	if len(kept) != 2 {
		t.Errorf("dedup dropped a cycle with a distinct participant set: %d", len(kept))
	}
}

func TestClassifyEmptyCycle(t *testing.T) {
	c := &domain.Cycle{}
	Classify(c)
	if c.QualityScore != 0 || c.HasTitleMatch {
		t.Errorf("empty cycle classified as %+v", c)
	}
}
