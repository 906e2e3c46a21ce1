package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/carhub/bot/listing"
	"github.com/m3rciful/carhub/core/telegram/format"
)

// Contact is the broker contact block appended to public posts.
type Contact struct {
	Name   string
	Phones []string
}

func md(s string) string { return format.MustEscape(s, format.MarkdownV1) }

// PublicText renders the channel post. It never includes the submitter's
// phone or identity.
func PublicText(l listing.Listing, c Contact) string {
	var b strings.Builder
	switch l.Kind {
	case listing.KindRental:
		b.WriteString("🏢 *Car for Rental*\n\n")
	default:
		b.WriteString("🚗 *Car for Sale*\n\n")
	}
	fmt.Fprintf(&b, "*%s %s* (%s)\n", md(l.Make), md(l.Model), md(l.Year))

	if l.Sale != nil {
		fmt.Fprintf(&b, "🎨 Color: %s\n", md(l.Sale.Color))
		fmt.Fprintf(&b, "📄 Plate: %s %s (%s)\n", md(l.Sale.PlateCode), md(l.Sale.PlateMasked), md(l.Sale.PlateRegion))
		fmt.Fprintf(&b, "💰 Price: %s Birr\n", md(l.Sale.Price))
	}
	if l.Rental != nil {
		fmt.Fprintf(&b, "📄 Plate code: %s\n", md(l.Rental.PlateCode))
		fmt.Fprintf(&b, "💰 Daily price: %s Birr\n", md(l.Rental.DailyPrice))
		fmt.Fprintf(&b, "💳 Advance: %s\n", md(l.Rental.AdvancePayment))
		fmt.Fprintf(&b, "🛡 Warranty: %s\n", md(l.Rental.Warranty))
		fmt.Fprintf(&b, "🎯 Purpose: %s\n", md(l.Rental.Purpose))
		fmt.Fprintf(&b, "📍 Region: %s\n", md(l.Rental.Region))
	}
	fmt.Fprintf(&b, "\n📝 %s\n", md(l.Condition))

	if c.Name != "" || len(c.Phones) > 0 {
		b.WriteString("\n📞 Contact")
		if c.Name != "" {
			fmt.Fprintf(&b, " %s", md(c.Name))
		}
		b.WriteString(":\n")
		for _, p := range c.Phones {
			fmt.Fprintf(&b, "%s\n", md(p))
		}
	}
	fmt.Fprintf(&b, "\n#%s ref %s", l.Kind, md(l.ShortRef()))
	return b.String()
}

// AdminText renders the private admin notification, including the
// submitter's raw phone and identity.
func AdminText(l listing.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 *New %s listing*\n\n", l.Kind)
	fmt.Fprintf(&b, "Ref: `%s`\n", l.Ref.String())
	if l.ID > 0 {
		fmt.Fprintf(&b, "DB id: %d\n", l.ID)
	} else {
		b.WriteString("DB id: not saved\n")
	}
	user := strconv.FormatInt(l.UserID, 10)
	if l.Username != "" {
		user += " @" + md(l.Username)
	}
	fmt.Fprintf(&b, "User: %s\n", user)
	fmt.Fprintf(&b, "Phone: %s\n\n", md(l.Phone))
	fmt.Fprintf(&b, "%s %s (%s), price %s\n", md(l.Make), md(l.Model), md(l.Year), md(l.Price()))
	if l.Sale != nil {
		fmt.Fprintf(&b, "Plate: %s %s (%s)\n", md(l.Sale.PlateCode), md(l.Sale.PlateMasked), md(l.Sale.PlateRegion))
	}
	if l.Rental != nil {
		fmt.Fprintf(&b, "Plate code: %s, region: %s\n", md(l.Rental.PlateCode), md(l.Rental.Region))
	}
	fmt.Fprintf(&b, "Photos: %d", len(l.Photos))
	return b.String()
}
