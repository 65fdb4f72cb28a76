package domain

import (
	"fmt"
	"time"
)

// CycleStatus is the persisted lifecycle state of a discovered cycle.
type CycleStatus string

const (
	CycleStatusPendingCompute CycleStatus = "pending_compute"
	CycleStatusActive         CycleStatus = "active"
	CycleStatusStale          CycleStatus = "stale"
	CycleStatusArchived       CycleStatus = "archived"
)

// Exchange is one realized handover inside a cycle: FromUserID gives the
// offer listing, ToUserID receives it against their want listing.
type Exchange struct {
	FromUserID     int64     `json:"from_user_id"`
	ToUserID       int64     `json:"to_user_id"`
	OfferListingID int64     `json:"offer_listing_id"`
	WantListingID  int64     `json:"want_listing_id"`
	Kind           MatchKind `json:"kind"`
}

// Cycle is a closed chain of users where each gives what the next wants.
// Participants are stored in canonical rotation (starting at the smallest
// user ID) so ContentHash identifies the physical cycle regardless of
// which node the search discovered it from.
type Cycle struct {
	ID            int64       `json:"id" db:"id"`
	ContentHash   string      `json:"content_hash" db:"content_hash"`
	Participants  []int64     `json:"participants" db:"participants"`
	Exchanges     []Exchange  `json:"exchanges" db:"exchanges"`
	Length        int         `json:"length" db:"length"`
	QualityScore  float64     `json:"quality_score" db:"quality_score"`
	HasTitleMatch bool        `json:"has_title_match" db:"has_title_match"`
	Status        CycleStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
	StaleAt       *time.Time  `json:"stale_at,omitempty" db:"stale_at"`
}

// HasUser reports whether the user takes part in the cycle.
func (c *Cycle) HasUser(userID int64) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ListingIDs returns every listing referenced by the cycle's exchanges.
func (c *Cycle) ListingIDs() []int64 {
	ids := make([]int64, 0, len(c.Exchanges)*2)
	for _, ex := range c.Exchanges {
		ids = append(ids, ex.OfferListingID, ex.WantListingID)
	}
	return ids
}

// Validate checks the structural invariants that the finder must never
// violate. A failure here is a programming defect, not recoverable data
// inconsistency.
func (c *Cycle) Validate(maxLength int) error {
	if c.Length < 2 {
		return fmt.Errorf("cycle %s: length %d is below minimum of 2", c.ContentHash, c.Length)
	}
	if maxLength > 0 && c.Length > maxLength {
		return fmt.Errorf("cycle %s: length %d exceeds maximum %d", c.ContentHash, c.Length, maxLength)
	}
	if len(c.Participants) != c.Length || len(c.Exchanges) != c.Length {
		return fmt.Errorf("cycle %s: participants=%d exchanges=%d length=%d mismatch",
			c.ContentHash, len(c.Participants), len(c.Exchanges), c.Length)
	}
	seen := make(map[int64]struct{}, len(c.Participants))
	for _, p := range c.Participants {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("cycle %s: repeated participant %d", c.ContentHash, p)
		}
		seen[p] = struct{}{}
	}
	for i, ex := range c.Exchanges {
		next := c.Participants[(i+1)%len(c.Participants)]
		if ex.FromUserID != c.Participants[i] || ex.ToUserID != next {
			return fmt.Errorf("cycle %s: exchange %d does not follow participant order", c.ContentHash, i)
		}
	}
	return nil
}
