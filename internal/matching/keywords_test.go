package matching

import (
	"reflect"
	"testing"
)

func TestExtractKeywordsBasic(t *testing.T) {
	keywords := ExtractKeywords("Vintage acoustic guitar, barely used!")

	want := []string{"acoustic", "barely", "guitar", "vintage"}
	if got := keywords.Slice(); !reflect.DeepEqual(got, want) {
		t.Errorf("keywords = %v, want %v", got, want)
	}
}

func TestExtractKeywordsStripsVerbPrefixes(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"I offer a mountain bike", "mountain"},
		{"Looking for vinyl records", "vinyl"},
		{"swap trade chess set", "chess"},
	}
	for _, tc := range cases {
		keywords := ExtractKeywords(tc.text)
		if !keywords.Contains(tc.want) {
			t.Errorf("ExtractKeywords(%q) = %v, missing %q", tc.text, keywords.Slice(), tc.want)
		}
		if keywords.Contains("offer") || keywords.Contains("looking") || keywords.Contains("swap") {
			t.Errorf("ExtractKeywords(%q) kept a verb prefix: %v", tc.text, keywords.Slice())
		}
	}
}

func TestExtractKeywordsDropsShortAndStopwords(t *testing.T) {
	keywords := ExtractKeywords("a TV in the box for you")

	if keywords.Contains("tv") || keywords.Contains("the") || keywords.Contains("for") {
		t.Errorf("short or stop tokens survived: %v", keywords.Slice())
	}
	if !keywords.Contains("box") {
		t.Errorf("expected 'box' in %v", keywords.Slice())
	}
}

func TestExtractKeywordsEmptyInput(t *testing.T) {
	if got := ExtractKeywords(""); len(got) != 0 {
		t.Errorf("expected empty set, got %v", got.Slice())
	}
	if got := ExtractKeywords("   !!! ..."); len(got) != 0 {
		t.Errorf("expected empty set for punctuation-only input, got %v", got.Slice())
	}
}

func TestExtractKeywordsCollapsesDuplicates(t *testing.T) {
	keywords := ExtractKeywords("guitar guitar GUITAR")
	if len(keywords) != 1 {
		t.Errorf("expected single keyword, got %v", keywords.Slice())
	}
}

func TestIntersectDeterministic(t *testing.T) {
	a := ExtractKeywords("guitar amplifier pedal")
	b := ExtractKeywords("amplifier guitar case")

	// both "amplifier" and "guitar" are shared; the smallest must win
	// regardless of map iteration order
	for i := 0; i < 20; i++ {
		word, ok := a.Intersect(b)
		if !ok || word != "amplifier" {
			t.Fatalf("Intersect = %q, %v; want amplifier, true", word, ok)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	if !isNumeric("1984") {
		t.Error("1984 should be numeric")
	}
	if isNumeric("n64") || isNumeric("") {
		t.Error("mixed or empty tokens must not be numeric")
	}
}
