// Package matching implements the listing compatibility matcher: keyword
// extraction from listing text, synonym resolution against the lexicon,
// tiered match classification, and the advanced viability score.
package matching

import (
	"sort"
	"strings"
	"unicode"
)

// Keywords is a set of significant keywords extracted from listing text.
type Keywords map[string]struct{}

// stopwords are filtered out of keyword sets. Kept deliberately small:
// aggressive stopword lists eat item names ("iron", "will").
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {},
	"this": {}, "that": {}, "have": {}, "has": {}, "are": {},
	"was": {}, "were": {}, "been": {}, "its": {}, "your": {},
	"mine": {}, "very": {}, "good": {}, "nice": {}, "new": {},
	"used": {}, "old": {}, "one": {}, "two": {}, "some": {},
	"any": {}, "all": {}, "not": {}, "but": {}, "you": {},
}

// verbPrefixes are boilerplate openings users type ahead of the actual
// item. Stripped only from the start of the text, repeatedly, so
// "i offer a swap for ..." loses both.
var verbPrefixes = []string{
	"i offer ",
	"i want ",
	"i am offering ",
	"i am looking for ",
	"looking for ",
	"offering ",
	"wanted ",
	"swap ",
	"trade ",
	"exchange ",
}

// ExtractKeywords turns free listing text into a set of comparable
// keywords: lowercase, boilerplate prefixes stripped, punctuation treated
// as whitespace, stopwords and tokens of length <= 2 dropped. Empty input
// yields an empty set.
func ExtractKeywords(text string) Keywords {
	keywords := make(Keywords)
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return keywords
	}

	stripped := true
	for stripped {
		stripped = false
		for _, prefix := range verbPrefixes {
			if strings.HasPrefix(text, prefix) {
				text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
				stripped = true
			}
		}
	}

	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := current.String()
		current.Reset()
		if len(word) <= 2 {
			return
		}
		if _, stop := stopwords[word]; stop {
			return
		}
		keywords[word] = struct{}{}
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return keywords
}

// Add inserts a keyword into the set.
func (k Keywords) Add(word string) {
	k[word] = struct{}{}
}

// Contains reports set membership.
func (k Keywords) Contains(word string) bool {
	_, ok := k[word]
	return ok
}

// Intersect returns one shared keyword between the two sets, if any.
// Iteration over maps is unordered, so the smallest shared keyword is
// chosen to keep outcomes deterministic.
func (k Keywords) Intersect(other Keywords) (string, bool) {
	small, large := k, other
	if len(large) < len(small) {
		small, large = large, small
	}
	best := ""
	for word := range small {
		if large.Contains(word) {
			if best == "" || word < best {
				best = word
			}
		}
	}
	return best, best != ""
}

// Slice returns the keywords sorted, for stable logging and tests.
func (k Keywords) Slice() []string {
	out := make([]string, 0, len(k))
	for word := range k {
		out = append(out, word)
	}
	sort.Strings(out)
	return out
}

// isNumeric reports whether the word consists only of digits.
func isNumeric(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
