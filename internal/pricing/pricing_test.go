package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/address"
	"github.com/noah-isme/shopfront/internal/pricing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixedLine builds a line whose shipping cost is the same for every option,
// so tests can pin the shipping subtotal exactly.
func fixedLine(qty int, unitCost, shipping string) pricing.Line {
	table := make(map[pricing.Option]decimal.Decimal)
	for _, opt := range append(pricing.DomesticOptions(), pricing.InternationalOptions()...) {
		table[opt] = dec(shipping)
	}
	return pricing.Line{Qty: qty, UnitCost: dec(unitCost), Shipping: table}
}

func TestComputeWashingtonTax(t *testing.T) {
	// subtotal = 100, shipping = 10 (DomesticStandard has no surcharge).
	lines := []pricing.Line{fixedLine(2, "50.00", "5.00")}
	addr := &address.Address{Country: "US", Region: "WA"}

	summary := pricing.Compute(lines, pricing.DomesticStandard, addr)

	require.True(t, summary.ItemsSubtotal.Equal(dec("100")), "subtotal %s", summary.ItemsSubtotal)
	require.True(t, summary.Shipping.Equal(dec("10")), "shipping %s", summary.Shipping)
	require.True(t, summary.ItemsTax.Equal(dec("20")), "items tax %s", summary.ItemsTax)
	require.True(t, summary.ShippingTax.Equal(dec("2")), "shipping tax %s", summary.ShippingTax)
	require.True(t, summary.TotalTax.Equal(dec("22")), "total tax %s", summary.TotalTax)
	require.True(t, summary.Total.Equal(dec("132")), "total %s", summary.Total)
}

func TestComputeTaxSpellings(t *testing.T) {
	lines := []pricing.Line{fixedLine(1, "100.00", "0")}

	taxed := []*address.Address{
		{Country: "us", Region: "wa"},
		{Country: "United States", Region: "Washington"},
		{Country: "UNITED STATES OF AMERICA", Region: "Washington State"},
	}
	for _, addr := range taxed {
		summary := pricing.Compute(lines, pricing.DomesticStandard, addr)
		require.True(t, summary.TotalTax.Equal(dec("20")), "address %+v", addr)
	}

	untaxed := []*address.Address{
		nil,
		{Country: "US", Region: "OR"},
		{Country: "FR", Region: "WA"},
		{Country: "US"},
		{},
	}
	for _, addr := range untaxed {
		summary := pricing.Compute(lines, pricing.DomesticStandard, addr)
		require.True(t, summary.TotalTax.IsZero(), "address %+v", addr)
	}
}

func TestComputeFlatSurcharge(t *testing.T) {
	lines := []pricing.Line{fixedLine(1, "10.00", "2.00")}
	summary := pricing.Compute(lines, pricing.DomesticTwoDay, nil)
	require.True(t, summary.Shipping.Equal(dec("6.99")), "shipping %s", summary.Shipping)
}

func TestComputeZeroQuantityContributesNothing(t *testing.T) {
	lines := []pricing.Line{fixedLine(0, "10.00", "0")}
	summary := pricing.Compute(lines, pricing.DomesticStandard, nil)
	require.True(t, summary.ItemsSubtotal.IsZero())
}

func TestShippingCosts(t *testing.T) {
	costs := pricing.ShippingCosts(dec("2.00"))
	require.True(t, costs[pricing.DomesticStandard].Equal(dec("2.00")))
	require.True(t, costs[pricing.DomesticTwoDay].Equal(dec("3.98")))
	require.True(t, costs[pricing.DomesticOvernight].Equal(dec("6.10")))
	require.True(t, costs[pricing.InternationalStandard].Equal(dec("4.24")))
	require.True(t, costs[pricing.InternationalThreeDay].Equal(dec("8.20")))
}

func TestRequiresInternational(t *testing.T) {
	require.False(t, pricing.RequiresInternational(nil))
	require.False(t, pricing.RequiresInternational(&address.Address{}))
	require.False(t, pricing.RequiresInternational(&address.Address{Country: "usa"}))
	require.False(t, pricing.RequiresInternational(&address.Address{Country: " United States "}))
	require.True(t, pricing.RequiresInternational(&address.Address{Country: "FR"}))
	require.True(t, pricing.RequiresInternational(&address.Address{Country: "Japan"}))
}

func TestOptionClasses(t *testing.T) {
	for _, opt := range pricing.DomesticOptions() {
		require.False(t, opt.International())
	}
	for _, opt := range pricing.InternationalOptions() {
		require.True(t, opt.International())
	}
	require.Equal(t, pricing.DomesticStandard, pricing.DefaultOption(false))
	require.Equal(t, pricing.InternationalStandard, pricing.DefaultOption(true))
}

func TestParseOption(t *testing.T) {
	for _, opt := range append(pricing.DomesticOptions(), pricing.InternationalOptions()...) {
		parsed, err := pricing.ParseOption(opt.String())
		require.NoError(t, err)
		require.Equal(t, opt, parsed)
	}
	_, err := pricing.ParseOption("same-day-drone")
	require.Error(t, err)
}
