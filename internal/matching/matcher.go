package matching

import (
	"context"
	"strings"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
)

// genericPlaceholders are want-side keywords meaning "any item of the
// category is fine".
var genericPlaceholders = map[string]struct{}{
	"anything": {},
	"whatever": {},
	"everything": {},
}

// partialMinLen is the minimum keyword length for substring matching;
// shorter fragments produce junk pairings ("pen" in "expensive").
const partialMinLen = 4

// Matcher classifies the compatibility of an offer listing against a
// want listing. The resolver is optional; without it the synonym tier is
// skipped entirely.
type Matcher struct {
	resolver *SynonymResolver
}

func NewMatcher(resolver *SynonymResolver) *Matcher {
	return &Matcher{resolver: resolver}
}

// Match evaluates the tiers in strict priority order and short-circuits
// at the first satisfied one. The order is load-bearing: a pair whose
// keywords intersect must classify as specific even when the categories
// also match.
func (m *Matcher) Match(ctx context.Context, offer, want *domain.Listing) domain.MatchOutcome {
	offerKeywords := ExtractKeywords(offer.Text())
	wantKeywords := ExtractKeywords(want.Text())

	// 1. specific: shared keyword
	if word, ok := offerKeywords.Intersect(wantKeywords); ok {
		return domain.MatchOutcome{Compatible: true, Kind: domain.MatchSpecific, MatchedOn: word}
	}

	// 2. partial: substring either way, both sides long enough
	if word, ok := partialOverlap(offerKeywords, wantKeywords); ok {
		return domain.MatchOutcome{Compatible: true, Kind: domain.MatchPartial, MatchedOn: word}
	}

	// 3. synonym: expanded sets intersect
	if m.resolver.Enabled() {
		if word, ok := m.synonymOverlap(ctx, offer, want, offerKeywords, wantKeywords); ok {
			return domain.MatchOutcome{Compatible: true, Kind: domain.MatchSynonym, MatchedOn: word}
		}
	}

	// 4. category: exact category identity
	if offer.CategoryID == want.CategoryID && offer.CategoryID != 0 {
		// 5. generic: the want explicitly accepts anything in the category
		if wantsAnything(want, wantKeywords) {
			return domain.MatchOutcome{Compatible: true, Kind: domain.MatchGeneric}
		}
		return domain.MatchOutcome{Compatible: true, Kind: domain.MatchCategory}
	}

	return domain.MatchOutcome{Compatible: false, Kind: domain.MatchNone}
}

func partialOverlap(offerKeywords, wantKeywords Keywords) (string, bool) {
	best := ""
	for ow := range offerKeywords {
		if len(ow) < partialMinLen {
			continue
		}
		for ww := range wantKeywords {
			if len(ww) < partialMinLen || ow == ww {
				continue
			}
			if strings.Contains(ow, ww) || strings.Contains(ww, ow) {
				// shorter side is the shared stem
				word := ow
				if len(ww) < len(ow) {
					word = ww
				}
				if best == "" || word < best {
					best = word
				}
			}
		}
	}
	return best, best != ""
}

// synonymOverlap expands both keyword sets through the resolver and looks
// for a shared synonym. Compound terms found in the raw text are looked
// up as atomic units and their constituent words are excluded from
// single-word expansion.
func (m *Matcher) synonymOverlap(ctx context.Context, offer, want *domain.Listing, offerKeywords, wantKeywords Keywords) (string, bool) {
	offerExpanded := m.expandSet(ctx, offer.Text(), offerKeywords)
	wantExpanded := m.expandSet(ctx, want.Text(), wantKeywords)

	// short fragments are noise unless purely numeric (model numbers).
	// Every shared synonym is checked, so a short shared word cannot
	// shadow a qualifying longer one in the same group.
	small, large := offerExpanded, wantExpanded
	if len(large) < len(small) {
		small, large = large, small
	}
	best := ""
	for word := range small {
		if !large.Contains(word) {
			continue
		}
		if len(word) <= 3 && !isNumeric(word) {
			continue
		}
		if best == "" || word < best {
			best = word
		}
	}
	return best, best != ""
}

// expandSet builds the synonym-expanded keyword set for one listing.
func (m *Matcher) expandSet(ctx context.Context, raw string, keywords Keywords) Keywords {
	expanded := make(Keywords, len(keywords)*2)

	compounds := m.resolver.CompoundTerms(raw)
	shredded := make(map[string]struct{})
	for _, term := range compounds {
		for _, syn := range m.resolver.Expand(ctx, term) {
			expanded.Add(syn)
		}
		for _, part := range strings.Fields(term) {
			shredded[part] = struct{}{}
		}
	}

	for word := range keywords {
		if _, partOfCompound := shredded[word]; partOfCompound {
			continue
		}
		for _, syn := range m.resolver.Expand(ctx, word) {
			expanded.Add(syn)
		}
	}
	return expanded
}

func wantsAnything(want *domain.Listing, wantKeywords Keywords) bool {
	if want.WantsAnyInCategory {
		return true
	}
	for word := range wantKeywords {
		if _, ok := genericPlaceholders[word]; ok {
			return true
		}
	}
	return false
}
