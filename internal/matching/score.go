package matching

import (
	"context"
	"math"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
)

// Score weights. Content carries the most, then price fit, method fit,
// and distance fit.
const (
	contentWeight  = 40
	priceWeight    = 25
	methodWeight   = 15
	distanceWeight = 20
)

// ScoreResult is the outcome of the advanced compatibility evaluation.
// Compatible means no hard gate failed; Score is 0..100; Reasons explain
// the verdict for diagnostics and API payloads.
type ScoreResult struct {
	Compatible bool                `json:"compatible"`
	Score      int                 `json:"score"`
	Outcome    domain.MatchOutcome `json:"outcome"`
	Reasons    []string            `json:"reasons,omitempty"`
}

// ScoreOptions tunes the advanced scorer.
type ScoreOptions struct {
	// PriceTolerancePct is the allowed price difference as a percentage
	// of the higher price.
	PriceTolerancePct float64
}

// AdvancedScore evaluates an offer/want pair beyond the content tiers:
// price fit within tolerance, exchange-method agreement, and distance
// against the stricter of the two max-distance limits. distanceKm is nil
// when either owner has no known location.
func (m *Matcher) AdvancedScore(ctx context.Context, offer, want *domain.Listing, distanceKm *float64, opts ScoreOptions) ScoreResult {
	result := ScoreResult{Outcome: m.Match(ctx, offer, want)}
	if !result.Outcome.Compatible {
		result.Reasons = append(result.Reasons, "no content match")
		return result
	}
	result.Score += contentPoints(result.Outcome.Kind)
	result.Reasons = append(result.Reasons, "content: "+result.Outcome.Kind.String())

	pricePoints, priceOk, priceReason := scorePrice(offer, want, opts.PriceTolerancePct)
	result.Reasons = append(result.Reasons, priceReason)
	if !priceOk {
		return result
	}
	result.Score += pricePoints

	methodPoints, methodOk, methodReason := scoreMethod(offer, want)
	result.Reasons = append(result.Reasons, methodReason)
	if !methodOk {
		return result
	}
	result.Score += methodPoints

	distPoints, distOk, distReason := scoreDistance(offer, want, distanceKm)
	result.Reasons = append(result.Reasons, distReason)
	if !distOk {
		return result
	}
	result.Score += distPoints

	result.Compatible = true
	return result
}

func contentPoints(kind domain.MatchKind) int {
	switch kind {
	case domain.MatchSpecific:
		return contentWeight
	case domain.MatchPartial:
		return contentWeight - 5
	case domain.MatchSynonym:
		return contentWeight - 10
	case domain.MatchCategory:
		return contentWeight / 2
	case domain.MatchGeneric:
		return contentWeight / 4
	default:
		return 0
	}
}

func scorePrice(offer, want *domain.Listing, tolerancePct float64) (int, bool, string) {
	if offer.PriceEstimate == nil || want.PriceEstimate == nil {
		// unset on either side means unconstrained, scored neutrally
		return priceWeight / 2, true, "price: unconstrained"
	}
	if tolerancePct <= 0 {
		tolerancePct = 25
	}
	higher := math.Max(*offer.PriceEstimate, *want.PriceEstimate)
	if higher == 0 {
		return priceWeight, true, "price: both zero"
	}
	diffPct := math.Abs(*offer.PriceEstimate-*want.PriceEstimate) / higher * 100
	if diffPct > tolerancePct {
		return 0, false, "price: outside tolerance"
	}
	// full points at equal prices, decaying linearly to half at the edge
	// of the tolerance window
	points := float64(priceWeight) * (1 - diffPct/(2*tolerancePct))
	return int(math.Round(points)), true, "price: within tolerance"
}

func scoreMethod(offer, want *domain.Listing) (int, bool, string) {
	if offer.ExchangeMethod == domain.ExchangeEither || want.ExchangeMethod == domain.ExchangeEither {
		return methodWeight, true, "method: flexible"
	}
	if offer.ExchangeMethod == want.ExchangeMethod {
		return methodWeight, true, "method: identical"
	}
	return 0, false, "method: incompatible"
}

func scoreDistance(offer, want *domain.Listing, distanceKm *float64) (int, bool, string) {
	// shipping-only on either side makes distance irrelevant
	if offer.ExchangeMethod == domain.ExchangeShipping || want.ExchangeMethod == domain.ExchangeShipping {
		return distanceWeight, true, "distance: shipped"
	}

	limit := 0
	if offer.MaxDistanceKm != nil {
		limit = *offer.MaxDistanceKm
	}
	if want.MaxDistanceKm != nil && (limit == 0 || *want.MaxDistanceKm < limit) {
		limit = *want.MaxDistanceKm
	}

	if distanceKm == nil {
		if limit == 0 {
			return distanceWeight, true, "distance: unconstrained"
		}
		// a limit exists but the distance is unknown: admit, score low
		return distanceWeight / 4, true, "distance: unknown"
	}

	if limit > 0 {
		if *distanceKm > float64(limit) {
			return 0, false, "distance: beyond limit"
		}
		points := float64(distanceWeight) * (1 - *distanceKm/float64(limit)/2)
		return int(math.Round(points)), true, "distance: within limit"
	}

	// no limit on either side: closer is still better
	points := float64(distanceWeight) * math.Exp(-*distanceKm/100)
	return int(math.Round(points)), true, "distance: unconstrained"
}

// Haversine returns the great-circle distance in kilometers between two
// coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371.0
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)
	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}

// OwnerDistance computes the distance between two listings' owners when
// both have known coordinates.
func OwnerDistance(a, b *domain.Listing) *float64 {
	if a.OwnerLat == nil || a.OwnerLon == nil || b.OwnerLat == nil || b.OwnerLon == nil {
		return nil
	}
	d := Haversine(*a.OwnerLat, *a.OwnerLon, *b.OwnerLat, *b.OwnerLon)
	return &d
}
