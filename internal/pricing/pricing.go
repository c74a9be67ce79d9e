// Package pricing computes cart cost summaries: item subtotal, shipping,
// destination-dependent tax and grand total. All monetary values are
// decimals; binary floating point is never used for money.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/shopfront/internal/address"
)

// Option is a shipping speed/destination choice. Options are partitioned
// into domestic and international classes; the class an address belongs to
// constrains which options may be offered.
type Option int

const (
	DomesticStandard Option = iota
	DomesticTwoDay
	DomesticOvernight
	InternationalStandard
	InternationalThreeDay
)

var optionNames = map[Option]string{
	DomesticStandard:      "domestic-standard",
	DomesticTwoDay:        "domestic-two-day",
	DomesticOvernight:     "domestic-overnight",
	InternationalStandard: "international-standard",
	InternationalThreeDay: "international-three-day",
}

// String returns the wire name of the option.
func (o Option) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("option(%d)", int(o))
}

// ParseOption resolves a wire name back to an Option.
func ParseOption(name string) (Option, error) {
	for option, n := range optionNames {
		if n == name {
			return option, nil
		}
	}
	return 0, fmt.Errorf("unknown shipping option %q", name)
}

// International reports whether the option belongs to the international
// class.
func (o Option) International() bool {
	return o == InternationalStandard || o == InternationalThreeDay
}

// DomesticOptions returns the domestic class, cheapest first.
func DomesticOptions() []Option {
	return []Option{DomesticStandard, DomesticTwoDay, DomesticOvernight}
}

// InternationalOptions returns the international class, cheapest first.
func InternationalOptions() []Option {
	return []Option{InternationalStandard, InternationalThreeDay}
}

// DefaultOption returns the default option of the given class.
func DefaultOption(international bool) Option {
	if international {
		return InternationalStandard
	}
	return DomesticStandard
}

// Per-option multipliers applied to a product's baseline shipping cost.
var baselineMultipliers = map[Option]decimal.Decimal{
	DomesticStandard:      decimal.NewFromInt(1),
	DomesticTwoDay:        decimal.RequireFromString("1.99"),
	DomesticOvernight:     decimal.RequireFromString("3.05"),
	InternationalStandard: decimal.RequireFromString("2.12"),
	InternationalThreeDay: decimal.RequireFromString("4.10"),
}

// Per-option flat surcharge added once per shipment.
var flatSurcharges = map[Option]decimal.Decimal{
	DomesticStandard:      decimal.Zero,
	DomesticTwoDay:        decimal.RequireFromString("4.99"),
	DomesticOvernight:     decimal.RequireFromString("15.99"),
	InternationalStandard: decimal.RequireFromString("9.99"),
	InternationalThreeDay: decimal.RequireFromString("24.99"),
}

// ShippingCosts expands a product's baseline shipping cost into the
// per-option cost table.
func ShippingCosts(baseline decimal.Decimal) map[Option]decimal.Decimal {
	costs := make(map[Option]decimal.Decimal, len(baselineMultipliers))
	for option, multiplier := range baselineMultipliers {
		costs[option] = baseline.Mul(multiplier)
	}
	return costs
}

// Line is one cart entry as seen by the pricing engine.
type Line struct {
	Qty      int
	UnitCost decimal.Decimal
	// Shipping is the product's per-option shipping cost table.
	Shipping map[Option]decimal.Decimal
}

// Summary is the derived cost breakdown of a cart. It is always replaced
// wholesale by recomputation, never mutated in place.
type Summary struct {
	ItemsSubtotal decimal.Decimal
	Shipping      decimal.Decimal
	ItemsTax      decimal.Decimal
	ShippingTax   decimal.Decimal
	TotalTax      decimal.Decimal
	Total         decimal.Decimal
}

// Compute derives the cost summary for the given lines, shipping option and
// destination. It is a pure function of its inputs.
func Compute(lines []Line, option Option, addr *address.Address) Summary {
	var summary Summary

	for _, line := range lines {
		summary.ItemsSubtotal = summary.ItemsSubtotal.Add(line.UnitCost.Mul(decimal.NewFromInt(int64(line.Qty))))
		summary.Shipping = summary.Shipping.Add(line.Shipping[option])
	}
	summary.Shipping = summary.Shipping.Add(flatSurcharges[option])

	rate := taxRate(addr)
	summary.ItemsTax = summary.ItemsSubtotal.Mul(rate)
	summary.ShippingTax = summary.Shipping.Mul(rate)
	summary.TotalTax = summary.ItemsTax.Add(summary.ShippingTax)
	summary.Total = summary.ItemsSubtotal.Add(summary.Shipping).Add(summary.TotalTax)

	return summary
}

//
// WARNING!
//
// THIS TAX TABLE IS FOR EXAMPLE PURPOSES ONLY. IT HAS NO BASIS IN REALITY.
// ANY SIMILARITY TO ANY REAL TAX CODE IS COINCIDENTAL AND UNINTENTIONAL.
//

var domesticCountrySpellings = []string{
	"US",
	"USA",
	"UNITED STATES",
	"UNITED STATES OF AMERICA",
}

var taxableRegionSpellings = []string{
	"WA",
	"WASHINGTON",
	"WASHINGTON STATE",
}

var placeholderTaxRate = decimal.RequireFromString("0.2")

// taxRate resolves the flat tax rate for a destination. The rate applies
// independently to goods and to shipping.
func taxRate(addr *address.Address) decimal.Decimal {
	if addr == nil {
		return decimal.Zero
	}
	if !matchesAny(addr.Country, domesticCountrySpellings) {
		return decimal.Zero
	}
	if !matchesAny(addr.Region, taxableRegionSpellings) {
		return decimal.Zero
	}
	return placeholderTaxRate
}

// RequiresInternational reports whether the destination falls outside the
// domestic shipping class. A nil or blank-country address is treated as
// domestic.
func RequiresInternational(addr *address.Address) bool {
	if addr == nil {
		return false
	}
	country := strings.TrimSpace(addr.Country)
	if country == "" {
		return false
	}
	return !matchesAny(country, domesticCountrySpellings)
}

// OptionsFor returns the shipping class available to the destination.
func OptionsFor(addr *address.Address) []Option {
	if RequiresInternational(addr) {
		return InternationalOptions()
	}
	return DomesticOptions()
}

func matchesAny(value string, spellings []string) bool {
	upper := strings.ToUpper(strings.TrimSpace(value))
	for _, spelling := range spellings {
		if upper == spelling {
			return true
		}
	}
	return false
}
