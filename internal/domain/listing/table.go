package listing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Headroom added to observed maxima when computing default search ranges
const (
	SizeHeadroom  = 100
	PriceHeadroom = 1_000_000_000
)

// Stats holds per-field minima and maxima observed across a table
type Stats struct {
	MinBedrooms  int
	MaxBedrooms  int
	MinBathrooms int
	MaxBathrooms int
	MinSize      decimal.Decimal
	MaxSize      decimal.Decimal
	MinPrice     decimal.Decimal
	MaxPrice     decimal.Decimal
}

// SearchDefaults are the search-form defaults derived from observed
// data: distinct option lists plus value ranges with headroom at the top.
type SearchDefaults struct {
	Types        []string
	Cities       []string
	MinBedrooms  int
	MaxBedrooms  int
	MinBathrooms int
	MaxBathrooms int
	MinSize      decimal.Decimal
	MaxSize      decimal.Decimal
	MinPrice     decimal.Decimal
	MaxPrice     decimal.Decimal
}

// Table is an immutable ordered collection of cleaned listings with
// precomputed statistics and distinct option values. A loaded table is
// shared read-only between requests; accessors return copies so callers
// cannot mutate the shared state.
type Table struct {
	listings []*Listing
	byPrice  []*Listing
	byID     map[uuid.UUID]*Listing
	stats    Stats
	types    []string
	cities   []string
}

// NewTable builds a table from cleaned listings, preserving their order.
// Statistics, the price-ascending view and the distinct type and city
// lists are computed once here.
func NewTable(listings []*Listing) *Table {
	t := &Table{
		listings: make([]*Listing, len(listings)),
		byID:     make(map[uuid.UUID]*Listing, len(listings)),
	}
	copy(t.listings, listings)

	typeSet := make(map[string]struct{})
	citySet := make(map[string]struct{})
	for i, l := range t.listings {
		t.byID[l.ID] = l
		typeSet[l.Type] = struct{}{}
		citySet[l.City] = struct{}{}

		if i == 0 {
			t.stats = Stats{
				MinBedrooms:  l.Bedrooms,
				MaxBedrooms:  l.Bedrooms,
				MinBathrooms: l.Bathrooms,
				MaxBathrooms: l.Bathrooms,
				MinSize:      l.SizeSqm,
				MaxSize:      l.SizeSqm,
				MinPrice:     l.Price,
				MaxPrice:     l.Price,
			}
			continue
		}
		if l.Bedrooms < t.stats.MinBedrooms {
			t.stats.MinBedrooms = l.Bedrooms
		}
		if l.Bedrooms > t.stats.MaxBedrooms {
			t.stats.MaxBedrooms = l.Bedrooms
		}
		if l.Bathrooms < t.stats.MinBathrooms {
			t.stats.MinBathrooms = l.Bathrooms
		}
		if l.Bathrooms > t.stats.MaxBathrooms {
			t.stats.MaxBathrooms = l.Bathrooms
		}
		if l.SizeSqm.LessThan(t.stats.MinSize) {
			t.stats.MinSize = l.SizeSqm
		}
		if l.SizeSqm.GreaterThan(t.stats.MaxSize) {
			t.stats.MaxSize = l.SizeSqm
		}
		if l.Price.LessThan(t.stats.MinPrice) {
			t.stats.MinPrice = l.Price
		}
		if l.Price.GreaterThan(t.stats.MaxPrice) {
			t.stats.MaxPrice = l.Price
		}
	}

	t.types = sortedKeys(typeSet)
	t.cities = sortedKeys(citySet)

	t.byPrice = make([]*Listing, len(t.listings))
	copy(t.byPrice, t.listings)
	sort.SliceStable(t.byPrice, func(i, j int) bool {
		return t.byPrice[i].Price.LessThan(t.byPrice[j].Price)
	})

	return t
}

// Len returns the number of listings in the table
func (t *Table) Len() int {
	return len(t.listings)
}

// Listings returns the listings in source order
func (t *Table) Listings() []*Listing {
	out := make([]*Listing, len(t.listings))
	copy(out, t.listings)
	return out
}

// ListingsByPrice returns the listings sorted by ascending price, with
// source order breaking ties.
func (t *Table) ListingsByPrice() []*Listing {
	out := make([]*Listing, len(t.byPrice))
	copy(out, t.byPrice)
	return out
}

// Get returns the listing with the given id
func (t *Table) Get(id uuid.UUID) (*Listing, bool) {
	l, ok := t.byID[id]
	return l, ok
}

// Stats returns the observed per-field minima and maxima
func (t *Table) Stats() Stats {
	return t.stats
}

// Types returns the distinct listing types, sorted
func (t *Table) Types() []string {
	out := make([]string, len(t.types))
	copy(out, t.types)
	return out
}

// Cities returns the distinct cities, sorted
func (t *Table) Cities() []string {
	out := make([]string, len(t.cities))
	copy(out, t.cities)
	return out
}

// Defaults computes search-form defaults from the observed data. The
// size and price maxima carry headroom so the default range keeps the
// most expensive observed listing inside it with room to spare.
func (t *Table) Defaults() SearchDefaults {
	return SearchDefaults{
		Types:        t.Types(),
		Cities:       t.Cities(),
		MinBedrooms:  t.stats.MinBedrooms,
		MaxBedrooms:  t.stats.MaxBedrooms,
		MinBathrooms: t.stats.MinBathrooms,
		MaxBathrooms: t.stats.MaxBathrooms,
		MinSize:      t.stats.MinSize,
		MaxSize:      t.stats.MaxSize.Add(decimal.NewFromInt(SizeHeadroom)),
		MinPrice:     t.stats.MinPrice,
		MaxPrice:     t.stats.MaxPrice.Add(decimal.NewFromInt(PriceHeadroom)),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
