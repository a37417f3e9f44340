package listing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AnyValue is the sentinel for an unconstrained type or city. Matching
// against the sentinel is case-insensitive; an empty string is treated
// the same way. Concrete values compare exactly.
const AnyValue = "any"

// IsAny reports whether v leaves a string constraint unconstrained
func IsAny(v string) bool {
	return v == "" || strings.EqualFold(v, AnyValue)
}

// SearchCriteria captures a buyer's preference constraints. Nil pointers
// mean the constraint is absent; absent constraints always pass.
type SearchCriteria struct {
	Type         string
	City         string
	MinBedrooms  *int
	MinBathrooms *int
	MinSize      *decimal.Decimal
	MaxSize      *decimal.Decimal
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
}

// Matches reports whether l satisfies every constraint in c. All eight
// predicates are AND-ed; each is skipped when unconstrained.
func (c SearchCriteria) Matches(l *Listing) bool {
	if !c.MatchesRelaxed(l) {
		return false
	}
	if c.MinBedrooms != nil && l.Bedrooms < *c.MinBedrooms {
		return false
	}
	if c.MinBathrooms != nil && l.Bathrooms < *c.MinBathrooms {
		return false
	}
	if c.MinSize != nil && l.SizeSqm.LessThan(*c.MinSize) {
		return false
	}
	if c.MaxSize != nil && l.SizeSqm.GreaterThan(*c.MaxSize) {
		return false
	}
	if c.MinPrice != nil && l.Price.LessThan(*c.MinPrice) {
		return false
	}
	if c.MaxPrice != nil && l.Price.GreaterThan(*c.MaxPrice) {
		return false
	}
	return true
}

// MatchesRelaxed applies only the type and city constraints. It backs
// the fallback pass when the strict constraint set matches nothing.
func (c SearchCriteria) MatchesRelaxed(l *Listing) bool {
	if !IsAny(c.Type) && l.Type != c.Type {
		return false
	}
	if !IsAny(c.City) && l.City != c.City {
		return false
	}
	return true
}

// Recommendation is the ranked outcome of a search. Listings are sorted
// by ascending price with source order breaking ties.
type Recommendation struct {
	Listings []*Listing
	// Relaxed is true when the strict constraints matched nothing and the
	// result came from the type+city fallback, even if that fallback also
	// matched nothing.
	Relaxed bool
	// TotalMatched counts matches before truncation to the limit
	TotalMatched int
}
