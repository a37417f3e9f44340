package dataset

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/homefinder/backend/internal/domain/listing"
)

// Normalized dataset column names
const (
	ColType          = "type"
	ColTitle         = "title"
	ColLocation      = "location"
	ColBedroom       = "bedroom"
	ColBathroom      = "bathroom"
	ColSizeSqm       = "size_sqm"
	ColPrice         = "price"
	ColContactPerson = "contact_person"
	ColImageLink     = "image_link"

	// ColCity is optional in sources; when absent or empty the city is
	// derived from the location.
	ColCity = "city"
)

// RequiredColumns are the columns a dataset header must provide. A
// missing column is a schema error and fails the whole load.
var RequiredColumns = []string{
	ColType,
	ColTitle,
	ColLocation,
	ColBedroom,
	ColBathroom,
	ColSizeSqm,
	ColPrice,
	ColContactPerson,
	ColImageLink,
}

// Report summarizes one cleaning pass. Rows are counted exactly once:
// either kept or in one of the dropped buckets.
type Report struct {
	RowsRead         int
	RowsKept         int
	DroppedMissing   int
	DroppedNumeric   int
	DroppedGibberish int
	Warnings         *WarningCollection
}

// Dropped returns the total number of excluded rows
func (r *Report) Dropped() int {
	return r.DroppedMissing + r.DroppedNumeric + r.DroppedGibberish
}

// Fields renders the report as structured log fields for the one
// aggregate log line per load.
func (r *Report) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("rows_read", r.RowsRead),
		zap.Int("rows_kept", r.RowsKept),
		zap.Int("dropped_missing", r.DroppedMissing),
		zap.Int("dropped_numeric", r.DroppedNumeric),
		zap.Int("dropped_gibberish", r.DroppedGibberish),
		zap.Int("warnings", r.Warnings.TotalCount()),
	}
}

// dropReason classifies why a raw row was excluded
type dropReason int

const (
	dropNone dropReason = iota
	dropNumeric
	dropMissing
	dropGibberish
)

// Cleaner turns parsed rows into validated listings. The pipeline per
// row: normalize and parse numerics, derive the city, copy the contact
// into the phone number, drop rows with missing fields or gibberish
// titles, format the display price.
type Cleaner struct {
	currencyPrefix string
	maxWarnings    int
}

// CleanerOption is a functional option for Cleaner configuration
type CleanerOption func(*Cleaner)

// WithCurrencyPrefix sets the prefix used for formatted prices
func WithCurrencyPrefix(prefix string) CleanerOption {
	return func(c *Cleaner) {
		c.currencyPrefix = prefix
	}
}

// WithMaxWarnings caps how many row warnings are kept in the report
func WithMaxWarnings(n int) CleanerOption {
	return func(c *Cleaner) {
		c.maxWarnings = n
	}
}

// NewCleaner creates a cleaner with default settings
func NewCleaner(opts ...CleanerOption) *Cleaner {
	c := &Cleaner{
		currencyPrefix: listing.DefaultCurrencyPrefix,
		maxWarnings:    100,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean runs the pipeline over rows and builds the listings table.
// Warnings never fail the pass; a schema problem must be caught before
// cleaning, at header validation.
func (c *Cleaner) Clean(rows []*Row) (*listing.Table, *Report) {
	report := &Report{Warnings: NewWarningCollection(c.maxWarnings)}
	listings := make([]*listing.Listing, 0, len(rows))

	for _, row := range rows {
		report.RowsRead++
		l, reason := c.cleanRow(row, report.Warnings)
		switch reason {
		case dropNumeric:
			report.DroppedNumeric++
		case dropMissing:
			report.DroppedMissing++
		case dropGibberish:
			report.DroppedGibberish++
		default:
			listings = append(listings, l)
		}
	}
	report.RowsKept = len(listings)

	return listing.NewTable(listings), report
}

func (c *Cleaner) cleanRow(row *Row, warnings *WarningCollection) (*listing.Listing, dropReason) {
	typ := row.Get(ColType)
	title := row.Get(ColTitle)
	location := row.Get(ColLocation)
	contact := row.Get(ColContactPerson)
	imageLink := row.Get(ColImageLink)

	parseFailed := false

	price, failed := parseDecimalCell(normalizePrice(row.Get(ColPrice)))
	if failed {
		warnings.Add(NewNumericWarning(row.LineNumber, ColPrice, row.Get(ColPrice)))
		parseFailed = true
	}

	size, failed := parseDecimalCell(row.Get(ColSizeSqm))
	if failed {
		warnings.Add(NewNumericWarning(row.LineNumber, ColSizeSqm, row.Get(ColSizeSqm)))
		parseFailed = true
	}

	bedrooms, failed := parseCountCell(row.Get(ColBedroom))
	if failed {
		warnings.Add(NewNumericWarning(row.LineNumber, ColBedroom, row.Get(ColBedroom)))
		parseFailed = true
	}

	bathrooms, failed := parseCountCell(row.Get(ColBathroom))
	if failed {
		warnings.Add(NewNumericWarning(row.LineNumber, ColBathroom, row.Get(ColBathroom)))
		parseFailed = true
	}

	if parseFailed {
		return nil, dropNumeric
	}

	if typ == "" || title == "" || location == "" || contact == "" || imageLink == "" ||
		!price.Valid || !size.Valid || bedrooms == nil || bathrooms == nil {
		return nil, dropMissing
	}

	if listing.IsGibberish(title) {
		return nil, dropGibberish
	}

	city := row.Get(ColCity)
	if city == "" {
		city = listing.DeriveCity(location)
	}

	return &listing.Listing{
		ID:             uuid.New(),
		Type:           typ,
		Title:          title,
		Location:       location,
		City:           city,
		Bedrooms:       *bedrooms,
		Bathrooms:      *bathrooms,
		SizeSqm:        size.Decimal,
		Price:          price.Decimal,
		FormattedPrice: listing.FormatPrice(price, c.currencyPrefix),
		PhoneNumber:    contact, // untouched copy of the contact string
		ImageLink:      imageLink,
		Row:            row.LineNumber,
	}, dropNone
}

// normalizePrice strips thousands separators and surrounding space.
// Only the price column gets this treatment.
func normalizePrice(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
}

// parseDecimalCell parses a cell as a decimal. An empty cell is missing
// rather than a warning; the second return reports a parse failure on a
// non-empty cell.
func parseDecimalCell(raw string) (decimal.NullDecimal, bool) {
	if raw == "" {
		return decimal.NullDecimal{}, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, true
	}
	return decimal.NewNullDecimal(d), false
}

// parseCountCell parses a cell as a whole number. Decimal-formatted
// integers such as "3.0" are accepted and truncated; fractional values
// are parse failures.
func parseCountCell(raw string) (*int, bool) {
	if raw == "" {
		return nil, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsInteger() {
		return nil, true
	}
	n := int(d.IntPart())
	return &n, false
}
