package intake

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/carhub/bot/listing"
)

// Code classifies a rejected answer.
type Code string

const (
	CodePlateCode     Code = "invalid_plate_code"
	CodePlateFragment Code = "invalid_plate_fragment"
	CodePhone         Code = "invalid_phone"
	CodeOption        Code = "invalid_option"
	CodePhotoLimit    Code = "photo_limit"
	CodeExpectPhoto   Code = "expected_photo"
	CodeExpectText    Code = "expected_text"
)

// ValidationError describes an answer that was not accepted. The session
// stays on State.
type ValidationError struct {
	Code    Code
	State   State
	Options []string
	Err     error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("intake: %s at %s", e.Code, e.State)
	}
	return fmt.Sprintf("intake: %s at %s: %v", e.Code, e.State, e.Err)
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Notice is the user-facing explanation shown above the re-prompt.
func (e *ValidationError) Notice() string {
	if e == nil {
		return ""
	}
	switch e.Code {
	case CodePlateCode:
		return "⚠️ Plate code must be 1, 2 or 3."
	case CodePlateFragment:
		return "⚠️ Enter 1 to 3 letters or digits of the plate."
	case CodePhone:
		return "⚠️ Phone must start with 09 and have 10 digits, e.g. 0911234567."
	case CodeOption:
		if len(e.Options) > 0 {
			return "⚠️ Please choose one of: " + strings.Join(e.Options, ", ") + "."
		}
		return "⚠️ Please choose one of the options below."
	case CodePhotoLimit:
		return fmt.Sprintf("⚠️ Photo limit reached (%d). Press ✅ Done to continue.", listing.MaxPhotos)
	case CodeExpectPhoto:
		return "⚠️ Send a photo or press ✅ Done / ⏭ Skip."
	case CodeExpectText:
		return "⚠️ Please answer with text."
	}
	return "⚠️ Invalid answer."
}

var (
	// ErrSessionComplete is returned when a finalized session receives more input.
	ErrSessionComplete = errors.New("intake: session already complete")
	// ErrUnknownState is returned for sessions whose state has no rule.
	ErrUnknownState = errors.New("intake: unknown state")
)

func reject(code Code, st State, err error) *ValidationError {
	return &ValidationError{Code: code, State: st, Err: err}
}

func rejectOption(st State, options []string, got string) *ValidationError {
	return &ValidationError{
		Code:    CodeOption,
		State:   st,
		Options: options,
		Err:     fmt.Errorf("unexpected option %q", got),
	}
}
