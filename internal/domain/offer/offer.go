// Package offer defines the validated document model for a sales offer.
// An Offer is constructed once from raw input, validated, and then treated
// as read-only by the rest of the generation pipeline.
package offer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/offerdesk/backend/internal/domain/shared"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Date is a calendar date in ISO form (YYYY-MM-DD) on the wire.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// UnmarshalJSON parses a quoted ISO date
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return shared.NewDomainError("INVALID_INPUT", "date is required")
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return shared.NewDomainError("INVALID_INPUT", "date must be in YYYY-MM-DD format")
	}
	d.Time = t
	return nil
}

// MarshalJSON renders the date in ISO form
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

// Language selects the template set used to render the offer
type Language string

const (
	LanguageEnglish Language = "english"
	LanguagePolish  Language = "polish"
)

// Normalize maps unknown or empty values to English, matching the
// behavior callers rely on when no language is given.
func (l Language) Normalize() Language {
	switch Language(strings.ToLower(strings.TrimSpace(string(l)))) {
	case LanguagePolish:
		return LanguagePolish
	default:
		return LanguageEnglish
	}
}

// Seller holds the selling party details
type Seller struct {
	Company     string `json:"company" validate:"required"`
	Address     string `json:"address" validate:"required"`
	TaxID       string `json:"nip" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required"`
	Website     string `json:"website" validate:"required"`
	BankAccount string `json:"iban" validate:"required"`
}

// Client holds the buying party details
type Client struct {
	Company string `json:"company" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// LineItem is one priced row of the offer. Total is caller-supplied and
// trusted as-is; the model does not recompute it from the other fields.
type LineItem struct {
	ID        int             `json:"id" validate:"gt=0"`
	Name      string          `json:"name" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	VAT       decimal.Decimal `json:"vat"`
	Total     decimal.Decimal `json:"total"`
}

// Summary holds the offer-level totals, caller-supplied and trusted
type Summary struct {
	VAT   decimal.Decimal `json:"vat"`
	Total decimal.Decimal `json:"total"`
}

// Images maps the fixed template slots to image references. Each reference
// is either an absolute http(s) URL or a local path under the asset root.
// Slots are individually optional; the key set is fixed by the templates.
type Images struct {
	ClientLogo   string `json:"clientLogo,omitempty"`
	Front        string `json:"front,omitempty"`
	Lid          string `json:"lid,omitempty"`
	ThreeQuarter string `json:"three_quarter,omitempty"`
	Brand        string `json:"brand,omitempty"`
	GiftSet      string `json:"giftset,omitempty"`
}

// ImageSlot is a named image reference
type ImageSlot struct {
	Name string
	Ref  string
}

// Slots returns the populated image slots in canonical order
func (im Images) Slots() []ImageSlot {
	all := []ImageSlot{
		{"clientLogo", im.ClientLogo},
		{"front", im.Front},
		{"lid", im.Lid},
		{"three_quarter", im.ThreeQuarter},
		{"brand", im.Brand},
		{"giftset", im.GiftSet},
	}
	slots := make([]ImageSlot, 0, len(all))
	for _, s := range all {
		if s.Ref != "" {
			slots = append(slots, s)
		}
	}
	return slots
}

// Offer is the validated document model for one sales offer
type Offer struct {
	OfferID  string     `json:"offer_id" validate:"required"`
	Date     Date       `json:"date"`
	Language Language   `json:"offer_language,omitempty"`
	Seller   Seller     `json:"seller" validate:"required"`
	Client   Client     `json:"client" validate:"required"`
	Items    []LineItem `json:"items" validate:"required,min=1,dive"`
	Summary  Summary    `json:"summary"`
	Images   Images     `json:"images"`
}

// Validate checks all model invariants. Struct tags cover presence and
// format; decimal bounds are checked explicitly since the validator does
// not see inside decimal.Decimal.
func (o *Offer) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("field %s failed on %s", fe.Namespace(), fe.Tag()))
		}
		return shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	if o.Date.IsZero() {
		return shared.NewDomainError("INVALID_INPUT", "date is required")
	}

	hundred := decimal.NewFromInt(100)
	for i, item := range o.Items {
		if !item.UnitPrice.IsPositive() {
			return shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("items[%d].unit_price must be positive", i))
		}
		if item.Discount.IsNegative() {
			return shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("items[%d].discount cannot be negative", i))
		}
		if item.VAT.IsNegative() || item.VAT.GreaterThan(hundred) {
			return shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("items[%d].vat must be between 0 and 100", i))
		}
		if !item.Total.IsPositive() {
			return shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("items[%d].total must be positive", i))
		}
	}

	if o.Summary.VAT.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "summary.vat cannot be negative")
	}
	if !o.Summary.Total.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "summary.total must be positive")
	}

	return nil
}

// SuggestedFileName derives the PDF file name from the client company.
// Characters that are not filesystem-safe are replaced with underscores,
// so repeated runs for the same client overwrite predictably.
func (o *Offer) SuggestedFileName() string {
	name := SanitizeFileName(o.Client.Company)
	if name == "" {
		name = "offer"
	}
	return name + ".pdf"
}

// SanitizeFileName keeps letters, digits, spaces, dashes and underscores,
// replacing everything else with an underscore.
func SanitizeFileName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimSpace(b.String())
}
