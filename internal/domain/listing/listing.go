package listing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrencyPrefix is prepended to formatted prices
const DefaultCurrencyPrefix = "EGP"

// NullPricePlaceholder is rendered when a price is absent
const NullPricePlaceholder = "-"

// Listing represents one cleaned property advertisement. Every field is
// present and valid once a listing has passed through the cleaner; raw
// rows that cannot satisfy this are dropped, never partially kept.
type Listing struct {
	ID             uuid.UUID
	Type           string
	Title          string
	Location       string
	City           string
	Bedrooms       int
	Bathrooms      int
	SizeSqm        decimal.Decimal
	Price          decimal.Decimal
	FormattedPrice string
	PhoneNumber    string
	ImageLink      string
	Row            int // 1-based line in the source, preserves source order
}

// gibberishThreshold is the non-ASCII rune ratio above which a title is
// considered garbage. The comparison is strict: exactly half is kept.
const gibberishThreshold = 0.5

// DeriveCity extracts the city from a free-form location string. The city
// is the second-to-last comma-separated segment, trimmed of surrounding
// space ("Maadi, Cairo, Egypt" yields "Cairo"). A location without a
// comma is returned unchanged.
func DeriveCity(location string) string {
	parts := strings.Split(location, ",")
	if len(parts) < 2 {
		return location
	}
	return strings.TrimSpace(parts[len(parts)-2])
}

// IsGibberish reports whether more than half of the runes in s have a
// code point above 127. The empty string is never gibberish.
func IsGibberish(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 {
		return false
	}
	nonASCII := 0
	for _, r := range runes {
		if r > 127 {
			nonASCII++
		}
	}
	return float64(nonASCII)/float64(len(runes)) > gibberishThreshold
}

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders a price for display with a currency prefix and
// thousands grouping, e.g. "EGP 1,250,000". Fractional parts are
// truncated. An absent price renders the "-" placeholder. An empty
// prefix falls back to DefaultCurrencyPrefix.
func FormatPrice(price decimal.NullDecimal, prefix string) string {
	if !price.Valid {
		return NullPricePlaceholder
	}
	if prefix == "" {
		prefix = DefaultCurrencyPrefix
	}
	return pricePrinter.Sprintf("%s %d", prefix, price.Decimal.IntPart())
}
