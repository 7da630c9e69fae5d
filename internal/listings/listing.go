// Package listings stores seller house listings and ranks them for buyers.
package listings

import (
	"errors"
	"fmt"
	"time"

	"github.com/millennium/areamatch/internal/geo"
)

var (
	ErrValidation  = errors.New("invalid listing")
	ErrOutOfBounds = errors.New("location must be within service bounds")
)

const DefaultSellerName = "Anonymous"

type Listing struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Address      string    `json:"address"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Price        float64   `json:"price"`
	Description  string    `json:"description"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	Area         float64   `json:"area"`
	SellerName   string    `json:"seller_name"`
	SellerPhone  string    `json:"seller_phone"`
	CreatedAt    time.Time `json:"created_at"`
	QualityScore *float64  `json:"quality_score,omitempty"`
}

// Draft is a listing as submitted. Pointer fields are required; a nil one
// means the field was absent from the request.
type Draft struct {
	Title       *string  `json:"title"`
	Address     *string  `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	Area        float64  `json:"area"`
	SellerName  string   `json:"seller_name"`
	SellerPhone string   `json:"seller_phone"`
}

// Validate checks required fields in submission order, then the location.
func (d Draft) Validate(b geo.Bounds) error {
	required := []struct {
		name    string
		present bool
	}{
		{"title", d.Title != nil},
		{"address", d.Address != nil},
		{"latitude", d.Latitude != nil},
		{"longitude", d.Longitude != nil},
		{"price", d.Price != nil},
		{"description", d.Description != nil},
	}
	for _, f := range required {
		if !f.present {
			return fmt.Errorf("%w: missing required field: %s", ErrValidation, f.name)
		}
	}
	if *d.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if !b.Contains(*d.Latitude, *d.Longitude) {
		return ErrOutOfBounds
	}
	return nil
}

// QualityScores rates each listing 0..100 by price, cheapest highest.
// When every price is equal all listings score 100.
func QualityScores(ls []Listing) {
	if len(ls) == 0 {
		return
	}
	lo, hi := ls[0].Price, ls[0].Price
	for _, l := range ls[1:] {
		lo = min(lo, l.Price)
		hi = max(hi, l.Price)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	for i := range ls {
		score := geo.Round(100-(ls[i].Price-lo)/rng*100, 2)
		ls[i].QualityScore = &score
	}
}
