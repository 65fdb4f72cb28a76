package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/tomether-ux/polygonum-sub000/internal/domain"
)

// FindOptions bounds the cycle search.
type FindOptions struct {
	// MaxLength is the maximum number of participants (default 6).
	MaxLength int
	// MaxCycles caps the number of emitted cycles per run; when hit the
	// search stops and the result is flagged truncated. Zero means
	// unbounded.
	MaxCycles int
	// Seeds restricts the result to cycles containing at least one of
	// the given users. Empty means no restriction.
	Seeds map[int64]struct{}
}

// FindResult is the outcome of one cycle enumeration.
type FindResult struct {
	Cycles    []*domain.Cycle
	Truncated bool
}

const DefaultMaxCycleLength = 6

// FindCycles enumerates every simple directed cycle of length 2..MaxLength.
//
// Each start node only explores paths through nodes with larger IDs, so a
// physical cycle is discovered exactly once, already in canonical
// rotation (smallest participant first). All parallel edges between a
// pair of users are explored: different listing pairs on the same user
// transition yield distinct cycles of potentially different quality, and
// stopping at the first satisfying edge would silently hide the better
// chains.
//
// An empty graph yields an empty result, not an error.
func FindCycles(g *Graph, opts FindOptions) FindResult {
	maxLen := opts.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxCycleLength
	}

	var result FindResult
	now := time.Now().UTC()

	for _, start := range g.Users() {
		if result.Truncated {
			break
		}
		search := cycleSearch{
			graph:   g,
			start:   start,
			maxLen:  maxLen,
			visited: map[int64]struct{}{start: {}},
		}
		search.run(&result, opts, now)
	}

	return result
}

type cycleSearch struct {
	graph   *Graph
	start   int64
	maxLen  int
	path    []domain.Edge
	visited map[int64]struct{}
}

func (s *cycleSearch) run(result *FindResult, opts FindOptions, now time.Time) {
	s.extend(s.start, result, opts, now)
}

func (s *cycleSearch) extend(current int64, result *FindResult, opts FindOptions, now time.Time) {
	if result.Truncated {
		return
	}
	for _, edge := range s.graph.EdgesFrom(current) {
		if result.Truncated {
			return
		}
		if edge.ToUserID == s.start {
			// closing edge: the path plus this edge forms a cycle
			if len(s.path)+1 >= 2 {
				s.emit(edge, result, opts, now)
			}
			continue
		}
		// only visit larger IDs so each cycle is found once, from its
		// smallest participant
		if edge.ToUserID < s.start {
			continue
		}
		if _, seen := s.visited[edge.ToUserID]; seen {
			continue
		}
		if len(s.path)+1 >= s.maxLen {
			// the path would have no room left for a closing edge
			continue
		}
		s.path = append(s.path, edge)
		s.visited[edge.ToUserID] = struct{}{}
		s.extend(edge.ToUserID, result, opts, now)
		delete(s.visited, edge.ToUserID)
		s.path = s.path[:len(s.path)-1]
	}
}

func (s *cycleSearch) emit(closing domain.Edge, result *FindResult, opts FindOptions, now time.Time) {
	edges := make([]domain.Edge, 0, len(s.path)+1)
	edges = append(edges, s.path...)
	edges = append(edges, closing)

	if len(opts.Seeds) > 0 {
		hit := false
		for _, e := range edges {
			if _, ok := opts.Seeds[e.FromUserID]; ok {
				hit = true
				break
			}
		}
		if !hit {
			return
		}
	}

	participants := make([]int64, len(edges))
	exchanges := make([]domain.Exchange, len(edges))
	for i, e := range edges {
		participants[i] = e.FromUserID
		exchanges[i] = domain.Exchange{
			FromUserID:     e.FromUserID,
			ToUserID:       e.ToUserID,
			OfferListingID: e.Offer.ID,
			WantListingID:  e.Want.ID,
			Kind:           e.Outcome.Kind,
		}
	}

	cycle := &domain.Cycle{
		Participants: participants,
		Exchanges:    exchanges,
		Length:       len(participants),
		Status:       domain.CycleStatusPendingCompute,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	cycle.ContentHash = ContentHash(participants, exchanges)
	Classify(cycle)

	result.Cycles = append(result.Cycles, cycle)
	if opts.MaxCycles > 0 && len(result.Cycles) >= opts.MaxCycles {
		result.Truncated = true
	}
}

// ContentHash computes the canonical identity of a cycle. The rotation
// starting at the smallest participant ID is hashed, so the same physical
// cycle produces the same hash regardless of which node the search (or a
// caller) started from.
func ContentHash(participants []int64, exchanges []domain.Exchange) string {
	n := len(participants)
	if n == 0 {
		return ""
	}
	pivot := 0
	for i := 1; i < n; i++ {
		if participants[i] < participants[pivot] {
			pivot = i
		}
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "u%d,", participants[(pivot+i)%n])
	}
	b.WriteByte('|')
	for i := 0; i < n; i++ {
		ex := exchanges[(pivot+i)%n]
		fmt.Fprintf(&b, "%d>%d,", ex.OfferListingID, ex.WantListingID)
	}

	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}
