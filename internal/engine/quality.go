package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
)

// Classify fills the derived quality fields of a cycle: the averaged
// per-exchange tier weight and the title-match flag.
func Classify(c *domain.Cycle) {
	if len(c.Exchanges) == 0 {
		c.QualityScore = 0
		c.HasTitleMatch = false
		return
	}

	total := 0.0
	hasTitleMatch := false
	for _, ex := range c.Exchanges {
		total += ex.Kind.TierWeight()
		if ex.Kind.IsTitleMatch() {
			hasTitleMatch = true
		}
	}
	c.QualityScore = total / float64(len(c.Exchanges))
	c.HasTitleMatch = hasTitleMatch
}

// DedupeByParticipants keeps one representative cycle per participant
// set: the highest quality score wins, ties broken by shortest length,
// then lowest content hash. The choice depends only on the cycles
// themselves, never on discovery order.
func DedupeByParticipants(cycles []*domain.Cycle) []*domain.Cycle {
	best := make(map[string]*domain.Cycle, len(cycles))
	order := make([]string, 0, len(cycles))

	for _, c := range cycles {
		key := participantKey(c.Participants)
		current, ok := best[key]
		if !ok {
			best[key] = c
			order = append(order, key)
			continue
		}
		if better(c, current) {
			best[key] = c
		}
	}

	out := make([]*domain.Cycle, 0, len(best))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

// better is the deterministic comparator behind participant-set dedup.
func better(a, b *domain.Cycle) bool {
	if a.QualityScore != b.QualityScore {
		return a.QualityScore > b.QualityScore
	}
	if a.Length != b.Length {
		return a.Length < b.Length
	}
	return a.ContentHash < b.ContentHash
}

func participantKey(participants []int64) string {
	ids := make([]int64, len(participants))
	copy(ids, participants)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%d,", id)
	}
	return b.String()
}
