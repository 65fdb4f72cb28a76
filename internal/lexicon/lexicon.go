// Package lexicon loads the lexical knowledge base used for synonym
// matching: groups of interchangeable words plus multi-word compound terms
// that must be matched as a unit before single-word lookup.
package lexicon

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon holds synonym groups keyed by member word. Lookups are
// case-insensitive; every word resolves at least to itself.
type Lexicon struct {
	language string
	// word -> index of its group in groups
	index  map[string]int
	groups [][]string
	// compound terms ordered longest first, for greedy matching
	compounds []string
}

type fileFormat struct {
	Language  string   `yaml:"language"`
	Compounds []string `yaml:"compounds"`
	Synonyms  []struct {
		Words []string `yaml:"words"`
	} `yaml:"synonyms"`
}

// Load reads a YAML lexicon from disk.
//
// Expected format:
//
//	language: en
//	compounds:
//	  - digital camera
//	  - mountain bike
//	synonyms:
//	  - words: [bicycle, bike, cycle]
//	  - words: [couch, sofa, settee]
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var file fileFormat
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file: %w", err)
	}

	lex := New(file.Language)
	for _, group := range file.Synonyms {
		lex.AddGroup(group.Words)
	}
	for _, c := range file.Compounds {
		lex.AddCompound(c)
	}
	return lex, nil
}

// New creates an empty lexicon for the given language.
func New(language string) *Lexicon {
	if language == "" {
		language = "en"
	}
	return &Lexicon{
		language: language,
		index:    make(map[string]int),
	}
}

// Language returns the language tag the lexicon was built for.
func (l *Lexicon) Language() string {
	return l.language
}

// AddGroup registers a set of mutually interchangeable words. Words
// already present in another group are merged into that group.
func (l *Lexicon) AddGroup(words []string) {
	if len(words) == 0 {
		return
	}

	normalized := make([]string, 0, len(words))
	target := -1
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		normalized = append(normalized, w)
		if idx, ok := l.index[w]; ok && target == -1 {
			target = idx
		}
	}
	if len(normalized) == 0 {
		return
	}

	if target == -1 {
		target = len(l.groups)
		l.groups = append(l.groups, nil)
	}
	for _, w := range normalized {
		if _, ok := l.index[w]; !ok {
			l.groups[target] = append(l.groups[target], w)
			l.index[w] = target
		}
	}
}

// AddCompound registers a multi-word term to be treated as one atomic
// keyword. Single words are ignored.
func (l *Lexicon) AddCompound(term string) {
	term = strings.ToLower(strings.TrimSpace(term))
	if !strings.Contains(term, " ") {
		return
	}
	for _, existing := range l.compounds {
		if existing == term {
			return
		}
	}
	l.compounds = append(l.compounds, term)
	// longest first so "digital camera lens" wins over "digital camera"
	sort.Slice(l.compounds, func(i, j int) bool {
		return len(l.compounds[i]) > len(l.compounds[j])
	})
}

// Lookup returns the synonym group containing word, always including the
// word itself. The returned slice must not be mutated by callers.
func (l *Lexicon) Lookup(word string) []string {
	word = strings.ToLower(strings.TrimSpace(word))
	if idx, ok := l.index[word]; ok {
		return l.groups[idx]
	}
	return []string{word}
}

// Compounds returns the known compound terms, longest first.
func (l *Lexicon) Compounds() []string {
	return l.compounds
}
