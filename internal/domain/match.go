package domain

// MatchKind is the strength tier of compatibility between an offer and a
// want. Higher values are stronger matches; the ordering is relied on by
// the matcher's short-circuit evaluation and by quality classification.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchGeneric
	MatchCategory
	MatchSynonym
	MatchPartial
	MatchSpecific
)

func (k MatchKind) String() string {
	switch k {
	case MatchSpecific:
		return "specific"
	case MatchPartial:
		return "partial"
	case MatchSynonym:
		return "synonym"
	case MatchCategory:
		return "category"
	case MatchGeneric:
		return "generic"
	default:
		return "none"
	}
}

// IsTitleMatch reports whether the tier counts as a keyword-level match
// rather than a category-only one. Synonym matches count; this is the
// single place that policy lives.
func (k MatchKind) IsTitleMatch() bool {
	switch k {
	case MatchSpecific, MatchPartial, MatchSynonym:
		return true
	default:
		return false
	}
}

// TierWeight is the per-exchange contribution to a cycle's quality score.
// Partial and synonym matches score like specific ones: they still pin a
// concrete item, unlike category-only matches.
func (k MatchKind) TierWeight() float64 {
	switch k {
	case MatchSpecific, MatchPartial, MatchSynonym:
		return 3
	case MatchCategory:
		return 2
	case MatchGeneric:
		return 1
	default:
		return 0
	}
}

// MatchOutcome is the result of evaluating one offer against one want.
type MatchOutcome struct {
	Compatible bool      `json:"compatible"`
	Kind       MatchKind `json:"kind"`
	// Keyword that satisfied the tier, when there is one. Kept for
	// explainability in logs and API payloads.
	MatchedOn string `json:"matched_on,omitempty"`
}

// Edge is a directed compatibility between two users, realized by one
// concrete listing pair. Multiple edges may exist between the same pair of
// users; cycle quality depends on which listings back the edge, so they
// are never collapsed.
type Edge struct {
	FromUserID int64
	ToUserID   int64
	Offer      *Listing
	Want       *Listing
	Outcome    MatchOutcome
	// Score is the 0..100 advanced score when advanced admission is
	// enabled, zero otherwise.
	Score int
}
