// Package catalog holds the product records available for sale.
package catalog

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/shopfront/internal/pricing"
)

// ErrNotFound indicates the requested product could not be located.
var ErrNotFound = errors.New("catalog: product not found")

// Product is an immutable catalog record. Image assets are emoji so the
// catalog carries no binary media.
type Product struct {
	Slug        string
	ImageEmoji  string
	Title       string
	Description string
	// Cost is the unit price. Decimal, never binary floating point.
	Cost decimal.Decimal
	// ShippingCosts is the per-option shipping cost table of this product.
	ShippingCosts map[pricing.Option]decimal.Decimal
}

// Shipping cost baselines by product size category.
var (
	smallItemBaseline  = decimal.RequireFromString("1.00")
	mediumItemBaseline = decimal.RequireFromString("2.50")
	largeItemBaseline  = decimal.RequireFromString("7.50")
)

// Store is a process-local product catalog. Reads only; the product list is
// fixed at construction.
type Store struct {
	products []*Product
	bySlug   map[string]*Product
}

// NewStore builds a store over the given products.
func NewStore(products []*Product) *Store {
	bySlug := make(map[string]*Product, len(products))
	for _, p := range products {
		bySlug[p.Slug] = p
	}
	return &Store{products: products, bySlug: bySlug}
}

// NewDefaultStore builds the built-in demo catalog.
func NewDefaultStore() *Store {
	return NewStore([]*Product{
		{
			Slug:          "happy-face",
			ImageEmoji:    "😃",
			Title:         "Happy face",
			Description:   "A beautiful smile to brighten up your day.",
			Cost:          decimal.RequireFromString("10.00"),
			ShippingCosts: pricing.ShippingCosts(mediumItemBaseline),
		},
		{
			Slug:          "unhappy-face",
			ImageEmoji:    "😟",
			Title:         "Unhappy face",
			Description:   "A depressing frown that brings you back down to reality.",
			Cost:          decimal.RequireFromString("-0.50"),
			ShippingCosts: pricing.ShippingCosts(smallItemBaseline),
		},
		{
			Slug:          "ninja-cat",
			ImageEmoji:    "🐱‍👤",
			Title:         "Ninja cat",
			Description:   "Will fix everything.",
			Cost:          decimal.RequireFromString("1000.00"),
			ShippingCosts: pricing.ShippingCosts(largeItemBaseline),
		},
	})
}

// List returns all products in catalog order.
func (s *Store) List() []*Product {
	out := make([]*Product, len(s.products))
	copy(out, s.products)
	return out
}

// GetBySlug looks a product up by its slug.
func (s *Store) GetBySlug(slug string) (*Product, error) {
	p, ok := s.bySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Len reports the number of products in the catalog.
func (s *Store) Len() int {
	return len(s.products)
}
