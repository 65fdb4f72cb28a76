// Package engine holds the pure computational core: compatibility graph
// construction, bounded simple-cycle enumeration, and cycle quality
// classification with deterministic deduplication. Nothing in this
// package touches storage; it receives listings and returns cycles.
package engine

import (
	"context"
	"sort"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/matching"
)

// Graph is the directed compatibility graph over users. An edge A→B
// means A has an active offer compatible with one of B's active wants.
// All realizing listing pairs are kept as parallel edges; the graph is
// owned by a single finder run and never mutated during traversal.
type Graph struct {
	adjacency map[int64][]domain.Edge
	users     []int64
}

// Users returns the node IDs in ascending order.
func (g *Graph) Users() []int64 {
	return g.users
}

// EdgesFrom returns the outgoing edges of a user.
func (g *Graph) EdgesFrom(userID int64) []domain.Edge {
	return g.adjacency[userID]
}

// EdgeCount returns the total number of edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, edges := range g.adjacency {
		n += len(edges)
	}
	return n
}

// BuildOptions tunes graph admission.
type BuildOptions struct {
	// UseAdvancedScore additionally gates edges on price, method and
	// distance compatibility plus the minimum viability score.
	UseAdvancedScore  bool
	MinViabilityScore int
	PriceTolerancePct float64
}

// BuildGraph constructs the compatibility graph from the given active
// listings. Inactive listings are skipped defensively; users without any
// active listing simply never appear.
//
// Per-user offer and want slices are computed once up front; the inner
// loops never re-scan the listing set.
func BuildGraph(ctx context.Context, listings []*domain.Listing, matcher *matching.Matcher, opts BuildOptions) *Graph {
	offers := make(map[int64][]*domain.Listing)
	wants := make(map[int64][]*domain.Listing)
	for _, l := range listings {
		if !l.Active {
			continue
		}
		switch l.Direction {
		case domain.DirectionOffer:
			offers[l.OwnerID] = append(offers[l.OwnerID], l)
		case domain.DirectionWant:
			wants[l.OwnerID] = append(wants[l.OwnerID], l)
		}
	}

	userSet := make(map[int64]struct{}, len(offers)+len(wants))
	for id := range offers {
		userSet[id] = struct{}{}
	}
	for id := range wants {
		userSet[id] = struct{}{}
	}
	users := make([]int64, 0, len(userSet))
	for id := range userSet {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	g := &Graph{
		adjacency: make(map[int64][]domain.Edge, len(users)),
		users:     users,
	}

	scoreOpts := matching.ScoreOptions{PriceTolerancePct: opts.PriceTolerancePct}
	for from, fromOffers := range offers {
		for to, toWants := range wants {
			if from == to {
				continue
			}
			for _, offer := range fromOffers {
				for _, want := range toWants {
					edge, ok := evaluatePair(ctx, matcher, offer, want, opts, scoreOpts)
					if ok {
						g.adjacency[from] = append(g.adjacency[from], edge)
					}
				}
			}
		}
	}

	// deterministic edge order for reproducible runs
	for _, edges := range g.adjacency {
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].ToUserID != edges[j].ToUserID {
				return edges[i].ToUserID < edges[j].ToUserID
			}
			if edges[i].Offer.ID != edges[j].Offer.ID {
				return edges[i].Offer.ID < edges[j].Offer.ID
			}
			return edges[i].Want.ID < edges[j].Want.ID
		})
	}

	return g
}

func evaluatePair(ctx context.Context, matcher *matching.Matcher, offer, want *domain.Listing, opts BuildOptions, scoreOpts matching.ScoreOptions) (domain.Edge, bool) {
	edge := domain.Edge{
		FromUserID: offer.OwnerID,
		ToUserID:   want.OwnerID,
		Offer:      offer,
		Want:       want,
	}

	if opts.UseAdvancedScore {
		distance := matching.OwnerDistance(offer, want)
		result := matcher.AdvancedScore(ctx, offer, want, distance, scoreOpts)
		if !result.Compatible || result.Score < opts.MinViabilityScore {
			return domain.Edge{}, false
		}
		edge.Outcome = result.Outcome
		edge.Score = result.Score
		return edge, true
	}

	outcome := matcher.Match(ctx, offer, want)
	if !outcome.Compatible {
		return domain.Edge{}, false
	}
	edge.Outcome = outcome
	return edge, true
}
