package intake

import (
	"fmt"
	"strings"

	"github.com/m3rciful/carhub/bot/listing"
)

// Quick reply labels used by the photo and review steps.
const (
	ButtonDone    = "✅ Done"
	ButtonSkip    = "⏭ Skip"
	ButtonConfirm = "✅ Confirm & Post"
	ButtonEdit    = "✏️ Edit"
	ButtonCancel  = "❌ Cancel"
)

// Prompt is the question sent for a state. Options are quick reply rows;
// a prompt without options hides any previous keyboard.
type Prompt struct {
	State   State
	Text    string
	Options [][]string
}

func column(values []string) [][]string {
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, []string{v})
	}
	return rows
}

func plateCodeRows() [][]string {
	labels := make([]string, 0, len(listing.PlateCodes))
	for _, opt := range listing.PlateCodes {
		labels = append(labels, opt.Label)
	}
	return column(labels)
}

var photoRows = [][]string{{ButtonDone, ButtonSkip}}

// promptFor renders the question for st. The draft is used only by the
// states whose wording depends on the kind or on earlier answers.
func promptFor(st State, d listing.Draft) Prompt {
	p := Prompt{State: st}
	switch st {
	case StateMake:
		p.Text = "Enter car Make:"
	case StateModel:
		p.Text = "Enter Model:"
	case StateYear:
		p.Text = "Enter Year:"
	case StateColor:
		p.Text = "Enter Color:"
	case StatePlateCode:
		p.Text = "Select Plate Code:"
		p.Options = plateCodeRows()
	case StatePlatePartial:
		p.Text = "Enter the first 1-3 letters or digits of the plate (only a masked part is published):"
	case StatePlateRegion:
		p.Text = "Enter Plate Region:"
	case StatePrice:
		if d.Kind == listing.KindRental {
			p.Text = "Enter Daily Price (Birr):"
		} else {
			p.Text = "Enter Price (Birr):"
		}
	case StateAdvancePayment:
		p.Text = "Select Advance Payment:"
		p.Options = column(listing.AdvancePaymentOptions)
	case StateWarranty:
		p.Text = "Warranty required?"
		p.Options = column(listing.WarrantyOptions)
	case StatePurpose:
		p.Text = "Select Rental Purpose:"
		p.Options = column(listing.PurposeOptions)
	case StateRegion:
		p.Text = "Enter Rental Region:"
	case StatePhone:
		p.Text = "Enter contact Phone (09XXXXXXXX):"
	case StateCondition:
		p.Text = "Describe Condition:"
	case StatePhotos:
		p.Text = fmt.Sprintf("Send photos (up to %d) or choose:", listing.MaxPhotos)
		p.Options = photoRows
	case StateConfirm:
		p.Text = Summary(d)
		p.Options = [][]string{{ButtonConfirm}, {ButtonEdit, ButtonCancel}}
	}
	return p
}

func photoAck(d listing.Draft) Prompt {
	p := promptFor(StatePhotos, d)
	p.Text = fmt.Sprintf("📸 Photo %d/%d received. Send more or press %s.", len(d.Photos), listing.MaxPhotos, ButtonDone)
	return p
}

// Summary renders the review screen for a draft.
func Summary(d listing.Draft) string {
	var b strings.Builder
	b.WriteString("📋 Review Your Ad\n\n")
	fmt.Fprintf(&b, "🚗 %s %s (%s)\n", d.Make, d.Model, d.Year)
	if d.Kind == listing.KindRental {
		fmt.Fprintf(&b, "💰 Daily price: %s\n", d.Price)
		fmt.Fprintf(&b, "📄 Plate code: %s\n", d.PlateCode)
		fmt.Fprintf(&b, "💳 Advance: %s\n🛡 Warranty: %s\n🎯 Purpose: %s\n📍 Region: %s\n",
			d.AdvancePayment, d.Warranty, d.Purpose, d.Region)
	} else {
		fmt.Fprintf(&b, "🎨 Color: %s\n", d.Color)
		fmt.Fprintf(&b, "💰 Price: %s\n", d.Price)
		fmt.Fprintf(&b, "📄 Plate: %s %s (%s)\n", d.PlateCode, d.PlateMasked, d.PlateRegion)
	}
	fmt.Fprintf(&b, "📞 Phone: %s\n", d.Phone)
	fmt.Fprintf(&b, "📷 Photos: %d\n", len(d.Photos))
	fmt.Fprintf(&b, "📝 Condition:\n%s", d.Condition)
	return b.String()
}
