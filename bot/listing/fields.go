package listing

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	// ErrPlateFragment is returned for plate fragments that are not 1-3 letters or digits.
	ErrPlateFragment = errors.New("listing: plate fragment must be 1-3 letters or digits")
	// ErrPlateCode is returned for plate category codes outside 1, 2, 3.
	ErrPlateCode = errors.New("listing: plate code must be 1, 2 or 3")

	plateFragmentRe = regexp.MustCompile(`^[A-Za-z0-9]{1,3}$`)
	phoneRe         = regexp.MustCompile(`^09\d{8}$`)
)

// Option is a fixed answer offered as a quick reply.
type Option struct {
	Value string
	Label string
}

// PlateCodes lists the plate categories in keyboard order.
var PlateCodes = []Option{
	{Value: "1", Label: "1 - Taxi"},
	{Value: "2", Label: "2 - Private"},
	{Value: "3", Label: "3 - Commercial"},
}

var (
	// AdvancePaymentOptions are the accepted rental advance payment terms.
	AdvancePaymentOptions = []string{"One month", "Two months", "Three months"}
	// WarrantyOptions answer whether the renter must leave a warranty.
	WarrantyOptions = []string{"Yes", "No"}
	// PurposeOptions are the accepted rental purposes.
	PurposeOptions = []string{"Personal", "Enterprise", "Taxi (Ride)", "Tour"}
)

// ValidPhone reports whether s is a local mobile number: 09 followed by 8 digits.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// ParsePlateCode accepts either the bare code or its keyboard label and
// returns the bare code.
func ParsePlateCode(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, opt := range PlateCodes {
		if s == opt.Value || s == opt.Label {
			return opt.Value, nil
		}
	}
	return "", ErrPlateCode
}

// MatchOption returns s when it equals one of options exactly.
func MatchOption(options []string, s string) (string, bool) {
	for _, opt := range options {
		if s == opt {
			return opt, true
		}
	}
	return "", false
}

// MaskPlate redacts a plate fragment. Fragments containing a letter keep
// up to three characters followed by "xxx". Numeric fragments keep two
// digits followed by "xxxx", or the single digit followed by "x".
func MaskPlate(fragment string) (string, error) {
	f := strings.TrimSpace(fragment)
	if !plateFragmentRe.MatchString(f) {
		return "", ErrPlateFragment
	}
	if strings.IndexFunc(f, unicode.IsLetter) >= 0 {
		if len(f) > 3 {
			f = f[:3]
		}
		return f + "xxx", nil
	}
	if len(f) >= 2 {
		return f[:2] + "xxxx", nil
	}
	return f + "x", nil
}
