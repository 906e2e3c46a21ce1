package listing

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Draft is a listing under construction. Fields stay empty until the
// matching question has been answered.
type Draft struct {
	Kind           Kind     `json:"kind"`
	Make           string   `json:"make,omitempty"`
	Model          string   `json:"model,omitempty"`
	Year           string   `json:"year,omitempty"`
	Color          string   `json:"color,omitempty"`
	PlateCode      string   `json:"plate_code,omitempty"`
	PlateMasked    string   `json:"plate_masked,omitempty"`
	PlateRegion    string   `json:"plate_region,omitempty"`
	Price          string   `json:"price,omitempty"`
	AdvancePayment string   `json:"advance_payment,omitempty"`
	Warranty       string   `json:"warranty,omitempty"`
	Purpose        string   `json:"purpose,omitempty"`
	Region         string   `json:"region,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Condition      string   `json:"condition,omitempty"`
	Photos         []string `json:"photos,omitempty"`
}

// WithPhoto returns a copy of d with fileID appended. The receiver's
// photo slice is never shared with the result.
func (d Draft) WithPhoto(fileID string) Draft {
	out := d
	out.Photos = append(slices.Clone(d.Photos), fileID)
	return out
}

// Finalize turns the draft into an immutable listing owned by userID.
func (d Draft) Finalize(userID int64, username string, now time.Time) (Listing, error) {
	l := Listing{
		Ref:       uuid.New(),
		UserID:    userID,
		Username:  username,
		Kind:      d.Kind,
		Make:      d.Make,
		Model:     d.Model,
		Year:      d.Year,
		Phone:     d.Phone,
		Condition: d.Condition,
		Photos:    slices.Clone(d.Photos),
		CreatedAt: now.UTC(),
	}
	switch d.Kind {
	case KindSale:
		l.Sale = &Sale{
			Color:       d.Color,
			PlateCode:   d.PlateCode,
			PlateMasked: d.PlateMasked,
			PlateRegion: d.PlateRegion,
			Price:       d.Price,
		}
	case KindRental:
		l.Rental = &Rental{
			PlateCode:      d.PlateCode,
			DailyPrice:     d.Price,
			AdvancePayment: d.AdvancePayment,
			Warranty:       d.Warranty,
			Purpose:        d.Purpose,
			Region:         d.Region,
		}
	default:
		return Listing{}, fmt.Errorf("listing: finalize: unknown kind %q", d.Kind)
	}
	if err := l.Validate(); err != nil {
		return Listing{}, err
	}
	return l, nil
}
