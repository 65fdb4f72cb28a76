package domain

import (
	"strings"
	"time"
)

// Direction tells whether a listing offers an item or asks for one.
type Direction string

const (
	DirectionOffer Direction = "offer"
	DirectionWant  Direction = "want"
)

func (d Direction) Valid() bool {
	return d == DirectionOffer || d == DirectionWant
}

// ExchangeMethod is how the owner is willing to hand the item over.
type ExchangeMethod string

const (
	ExchangeInPerson ExchangeMethod = "in_person"
	ExchangeShipping ExchangeMethod = "shipping"
	ExchangeEither   ExchangeMethod = "either"
)

// AllowsInPerson reports whether an in-person handover is acceptable.
func (m ExchangeMethod) AllowsInPerson() bool {
	return m == ExchangeInPerson || m == ExchangeEither
}

type Listing struct {
	ID                 int64          `json:"id" db:"id"`
	OwnerID            int64          `json:"owner_id" db:"owner_id"`
	Direction          Direction      `json:"direction" db:"direction"`
	Title              string         `json:"title" db:"title"`
	Description        string         `json:"description" db:"description"`
	CategoryID         int64          `json:"category_id" db:"category_id"`
	WantsAnyInCategory bool           `json:"wants_any_in_category" db:"wants_any_in_category"`
	Active             bool           `json:"active" db:"active"`
	PriceEstimate      *float64       `json:"price_estimate" db:"price_estimate"`
	ExchangeMethod     ExchangeMethod `json:"exchange_method" db:"exchange_method"`
	MaxDistanceKm      *int           `json:"max_distance_km" db:"max_distance_km"`
	OwnerLat           *float64       `json:"owner_lat" db:"owner_lat"`
	OwnerLon           *float64       `json:"owner_lon" db:"owner_lon"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
	DeactivatedAt      *time.Time     `json:"deactivated_at" db:"deactivated_at"`
}

// Text returns the free text used for keyword matching.
func (l *Listing) Text() string {
	if l.Description == "" {
		return l.Title
	}
	return strings.TrimSpace(l.Title + " " + l.Description)
}

// Deactivate flips the listing inactive and stamps deactivated_at.
// This is the only place the timestamp is set; it is never stamped on
// listings that were created inactive.
func (l *Listing) Deactivate(now time.Time) {
	if !l.Active {
		return
	}
	l.Active = false
	ts := now.UTC()
	l.DeactivatedAt = &ts
	l.UpdatedAt = ts
}

// Reactivate flips the listing back to active and clears deactivated_at.
func (l *Listing) Reactivate(now time.Time) {
	if l.Active {
		return
	}
	l.Active = true
	l.DeactivatedAt = nil
	l.UpdatedAt = now.UTC()
}
