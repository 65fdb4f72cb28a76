package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// SynonymSource is the lexical database contract. The production
// implementation is lexicon.Lexicon; tests inject fakes. A nil source
// means synonym matching is disabled and every word resolves to itself.
type SynonymSource interface {
	// Lookup returns the synonym group for word, including word itself.
	Lookup(word string) []string
	// Compounds returns known multi-word terms, longest first.
	Compounds() []string
}

const synonymCacheTTL = 24 * time.Hour

// SynonymResolver expands keywords into synonym sets with two cache
// tiers: an in-process LRU bounded across runs, and an optional shared
// redis tier so repeated full recomputes on different instances reuse
// lookups. Lookup failures always degrade to identity resolution.
type SynonymResolver struct {
	source   SynonymSource
	language string
	cache    *lru.Cache[string, []string]
	rdb      *redis.Client
	logger   *slog.Logger

	warnOnce sync.Once
}

// NewSynonymResolver builds a resolver over the given source. source may
// be nil (lexical database unavailable); rdb may be nil (no shared tier).
func NewSynonymResolver(source SynonymSource, language string, cacheSize int, rdb *redis.Client, logger *slog.Logger) *SynonymResolver {
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	if logger == nil {
		logger = slog.Default()
	}
	// lru.New only errors on non-positive size, which is guarded above.
	cache, _ := lru.New[string, []string](cacheSize)
	return &SynonymResolver{
		source:   source,
		language: language,
		cache:    cache,
		rdb:      rdb,
		logger:   logger,
	}
}

// Enabled reports whether a lexical source is attached. When false,
// Expand degrades to identity and the synonym tier never fires.
func (r *SynonymResolver) Enabled() bool {
	return r != nil && r.source != nil
}

// Expand returns the synonym set for keyword, always including the
// keyword itself.
func (r *SynonymResolver) Expand(ctx context.Context, keyword string) []string {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}
	if r == nil {
		return []string{keyword}
	}
	if !r.Enabled() {
		r.warnDegraded()
		return []string{keyword}
	}

	if cached, ok := r.cache.Get(keyword); ok {
		return cached
	}
	if group, ok := r.redisGet(ctx, keyword); ok {
		r.cache.Add(keyword, group)
		return group
	}

	group := r.source.Lookup(keyword)
	if len(group) == 0 {
		group = []string{keyword}
	}
	r.cache.Add(keyword, group)
	r.redisSet(ctx, keyword, group)
	return group
}

// CompoundTerms scans raw listing text for known multi-word terms and
// returns each match as one atomic keyword. Matching is on whole-token
// runs, so "digital cameraman" does not contain "digital camera", and it
// happens before keyword extraction so compounds are never shredded into
// misleading single-word synonyms.
func (r *SynonymResolver) CompoundTerms(raw string) []string {
	if !r.Enabled() {
		return nil
	}
	text := " " + normalizeTokens(raw) + " "
	var found []string
	for _, term := range r.source.Compounds() {
		if strings.Contains(text, " "+term+" ") {
			found = append(found, term)
		}
	}
	return found
}

// normalizeTokens lowercases the text and collapses punctuation runs to
// single spaces, so compound lookups see the same token stream the
// keyword extractor does.
func normalizeTokens(raw string) string {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.Join(fields, " ")
}

func (r *SynonymResolver) cacheKey(keyword string) string {
	return fmt.Sprintf("synonyms:%s:%s", r.language, keyword)
}

func (r *SynonymResolver) redisGet(ctx context.Context, keyword string) ([]string, bool) {
	if r.rdb == nil {
		return nil, false
	}
	raw, err := r.rdb.Get(ctx, r.cacheKey(keyword)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Debug("synonym cache read failed", "keyword", keyword, "error", err)
		}
		return nil, false
	}
	var group []string
	if err := json.Unmarshal(raw, &group); err != nil || len(group) == 0 {
		return nil, false
	}
	return group, true
}

func (r *SynonymResolver) redisSet(ctx context.Context, keyword string, group []string) {
	if r.rdb == nil {
		return
	}
	raw, err := json.Marshal(group)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, r.cacheKey(keyword), raw, synonymCacheTTL).Err(); err != nil {
		r.logger.Debug("synonym cache write failed", "keyword", keyword, "error", err)
	}
}

func (r *SynonymResolver) warnDegraded() {
	r.warnOnce.Do(func() {
		r.logger.Warn("lexical database unavailable, synonym matching degraded to identity")
	})
}
