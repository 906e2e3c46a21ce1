// Package listing defines the car listing collected by the intake
// questionnaire together with the rules applied to individual answers.
package listing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind selects the sale or rental questionnaire. It is fixed when a
// conversation starts and never changes afterwards.
type Kind string

const (
	// KindSale marks a car offered for sale.
	KindSale Kind = "sale"
	// KindRental marks a car offered for rent.
	KindRental Kind = "rental"
)

// MaxPhotos bounds the number of photos attached to one listing.
const MaxPhotos = 5

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindSale || k == KindRental
}

// Sale holds the fields collected only on the sale path.
type Sale struct {
	Color       string
	PlateCode   string
	PlateMasked string
	PlateRegion string
	Price       string
}

// Rental holds the fields collected only on the rental path.
type Rental struct {
	PlateCode      string
	DailyPrice     string
	AdvancePayment string
	Warranty       string
	Purpose        string
	Region         string
}

// Listing is a finalized record. Exactly one of Sale or Rental is set,
// matching Kind.
type Listing struct {
	ID        int64
	Ref       uuid.UUID
	UserID    int64
	Username  string
	Kind      Kind
	Make      string
	Model     string
	Year      string
	Phone     string
	Condition string
	Photos    []string
	Sale      *Sale
	Rental    *Rental
	CreatedAt time.Time
}

// Price returns the sale price or the daily rental price.
func (l Listing) Price() string {
	switch {
	case l.Sale != nil:
		return l.Sale.Price
	case l.Rental != nil:
		return l.Rental.DailyPrice
	}
	return ""
}

// PlateCode returns the plate category code of either path.
func (l Listing) PlateCode() string {
	switch {
	case l.Sale != nil:
		return l.Sale.PlateCode
	case l.Rental != nil:
		return l.Rental.PlateCode
	}
	return ""
}

// ShortRef returns the first block of the reference for display.
func (l Listing) ShortRef() string {
	if l.Ref == uuid.Nil {
		return ""
	}
	return l.Ref.String()[:8]
}

var errDetailsMismatch = errors.New("listing: detail set does not match kind")

// Validate checks the kind/detail invariant.
func (l Listing) Validate() error {
	switch l.Kind {
	case KindSale:
		if l.Sale == nil || l.Rental != nil {
			return errDetailsMismatch
		}
	case KindRental:
		if l.Rental == nil || l.Sale != nil {
			return errDetailsMismatch
		}
	default:
		return fmt.Errorf("listing: unknown kind %q", l.Kind)
	}
	if len(l.Photos) > MaxPhotos {
		return fmt.Errorf("listing: %d photos exceed limit %d", len(l.Photos), MaxPhotos)
	}
	return nil
}

// Filter narrows listing counts. Zero values match everything.
type Filter struct {
	Kind   Kind
	UserID int64
	Since  time.Time
}
