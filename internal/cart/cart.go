// Package cart owns the mutable shopping cart: its line entries, the
// shipping destination and option, and the derived cost summary.
//
// A Cart is not safe for concurrent use. Exactly one owner serialises
// access to it; in this service that owner is the HTTP handler layer.
package cart

import (
	"errors"

	"github.com/noah-isme/shopfront/internal/address"
	"github.com/noah-isme/shopfront/internal/catalog"
	"github.com/noah-isme/shopfront/internal/pricing"
)

// ErrQuantity is returned when a mutation would make an entry's quantity
// negative.
var ErrQuantity = errors.New("cart: quantity cannot be negative")

// Entry is one cart line: a product and its quantity. A product appears at
// most once; quantity 0 is a valid retained state distinct from "not in
// cart".
type Entry struct {
	Product  *catalog.Product
	Quantity int
}

// ChangeKind describes how the entries list changed.
type ChangeKind int

const (
	// ChangeReset reports a bulk modification; consumers re-read the list.
	ChangeReset ChangeKind = iota
	ChangeAdded
	ChangeRemoved
	ChangeUpdated
)

// String returns the wire name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeReset:
		return "reset"
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// EntriesChange is delivered to entries subscribers after a mutation.
// Index is the affected entry's position, or -1 for a reset.
type EntriesChange struct {
	Kind  ChangeKind
	Index int
}

// Cart is the shopping cart engine. Every mutation recomputes the cost
// summary synchronously before any notification is delivered, so readers
// never observe a stale summary.
type Cart struct {
	entries []Entry
	option  pricing.Option
	addr    *address.Address
	summary pricing.Summary

	nextSub     int
	entriesSubs map[int]func(EntriesChange)
	summarySubs map[int]func(pricing.Summary)
}

// New returns an empty cart with the domestic default shipping option and
// a consistent (zero) summary.
func New() *Cart {
	c := &Cart{
		option:      pricing.DefaultOption(false),
		entriesSubs: make(map[int]func(EntriesChange)),
		summarySubs: make(map[int]func(pricing.Summary)),
	}
	c.recompute()
	return c
}

// OnEntriesChanged registers a synchronous subscriber for entries changes.
// The returned function unregisters it.
func (c *Cart) OnEntriesChanged(fn func(EntriesChange)) func() {
	id := c.nextSub
	c.nextSub++
	c.entriesSubs[id] = fn
	return func() { delete(c.entriesSubs, id) }
}

// OnSummaryChanged registers a synchronous subscriber for summary
// recomputations. The returned function unregisters it.
func (c *Cart) OnSummaryChanged(fn func(pricing.Summary)) func() {
	id := c.nextSub
	c.nextSub++
	c.summarySubs[id] = fn
	return func() { delete(c.summarySubs, id) }
}

// Entries returns a copy of the current entries list.
func (c *Cart) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Summary returns the current cost summary.
func (c *Cart) Summary() pricing.Summary {
	return c.summary
}

// ShippingOption returns the active shipping option.
func (c *Cart) ShippingOption() pricing.Option {
	return c.option
}

// ShippingAddress returns the current destination, or nil.
func (c *Cart) ShippingAddress() *address.Address {
	return c.addr
}

// Add applies a quantity delta to the product's entry, creating it at
// quantity 0 first if absent. A delta that would drive the quantity below
// zero fails with ErrQuantity and leaves the cart unchanged.
func (c *Cart) Add(product *catalog.Product, quantity int) error {
	return c.addOrUpdate(product, func(e Entry) (Entry, error) {
		next := e.Quantity + quantity
		if next < 0 {
			return e, ErrQuantity
		}
		e.Quantity = next
		return e, nil
	})
}

// SetQuantity sets the product's entry to exactly the given quantity,
// creating the entry if absent. Quantity 0 is retained, not removed.
func (c *Cart) SetQuantity(product *catalog.Product, quantity int) error {
	if quantity < 0 {
		return ErrQuantity
	}
	return c.addOrUpdate(product, func(e Entry) (Entry, error) {
		e.Quantity = quantity
		return e, nil
	})
}

// Remove drops the product's entry if present.
func (c *Cart) Remove(product *catalog.Product) {
	c.removeIf(func(e Entry) bool { return e.Product == product })
}

// Clear drops every entry.
func (c *Cart) Clear() {
	c.removeIf(func(Entry) bool { return true })
}

// RemoveZeroQuantity drops entries whose quantity is zero.
func (c *Cart) RemoveZeroQuantity() {
	c.removeIf(func(e Entry) bool { return e.Quantity <= 0 })
}

// Contains reports whether the product has an entry in the cart.
func (c *Cart) Contains(product *catalog.Product) bool {
	return c.indexOf(product) >= 0
}

// SetShippingAddress stores the destination. When the destination's
// shipping class differs from the active option's class, the option resets
// to that class's default.
func (c *Cart) SetShippingAddress(addr *address.Address) {
	c.addr = addr

	international := pricing.RequiresInternational(addr)
	if c.option.International() != international {
		c.option = pricing.DefaultOption(international)
	}
	c.recompute()
}

// SetShippingOption stores the option and recomputes.
func (c *Cart) SetShippingOption(option pricing.Option) {
	c.option = option
	c.recompute()
}

// ShippingQuotes previews the full cost summary for every option available
// to the current destination, without mutating the cart.
func (c *Cart) ShippingQuotes() map[pricing.Option]pricing.Summary {
	quotes := make(map[pricing.Option]pricing.Summary)
	for _, option := range pricing.OptionsFor(c.addr) {
		quotes[option] = pricing.Compute(c.lines(), option, c.addr)
	}
	return quotes
}

func (c *Cart) addOrUpdate(product *catalog.Product, update func(Entry) (Entry, error)) error {
	index := c.indexOf(product)

	if index < 0 {
		entry, err := update(Entry{Product: product})
		if err != nil {
			return err
		}
		c.entries = append(c.entries, entry)
		c.notifyEntries(EntriesChange{Kind: ChangeAdded, Index: len(c.entries) - 1})
		return nil
	}

	entry, err := update(c.entries[index])
	if err != nil {
		return err
	}
	c.entries[index] = entry
	c.notifyEntries(EntriesChange{Kind: ChangeUpdated, Index: index})
	return nil
}

// removeIf drops matching entries, reporting one removed(index) for a
// single removal, one reset for several, and nothing for none.
func (c *Cart) removeIf(pred func(Entry) bool) {
	lastRemoved := -1
	removed := 0

	for i := len(c.entries) - 1; i >= 0; i-- {
		if pred(c.entries[i]) {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			lastRemoved = i
			removed++
		}
	}

	switch {
	case removed == 1:
		c.notifyEntries(EntriesChange{Kind: ChangeRemoved, Index: lastRemoved})
	case removed > 1:
		c.notifyEntries(EntriesChange{Kind: ChangeReset, Index: -1})
	}
}

func (c *Cart) indexOf(product *catalog.Product) int {
	for i, e := range c.entries {
		if e.Product == product {
			return i
		}
	}
	return -1
}

func (c *Cart) lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.entries))
	for _, e := range c.entries {
		lines = append(lines, pricing.Line{
			Qty:      e.Quantity,
			UnitCost: e.Product.Cost,
			Shipping: e.Product.ShippingCosts,
		})
	}
	return lines
}

// notifyEntries recomputes the summary (delivering summary notifications)
// and then delivers the entries change.
func (c *Cart) notifyEntries(change EntriesChange) {
	c.recompute()
	for _, fn := range c.entriesSubs {
		fn(change)
	}
}

func (c *Cart) recompute() {
	c.summary = pricing.Compute(c.lines(), c.option, c.addr)
	for _, fn := range c.summarySubs {
		fn(c.summary)
	}
}
