package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/shopfront/internal/address"
	"github.com/noah-isme/shopfront/internal/catalog"
	"github.com/noah-isme/shopfront/internal/common"
	"github.com/noah-isme/shopfront/internal/obs"
	"github.com/noah-isme/shopfront/internal/pricing"
)

// Handler exposes the cart over HTTP. The Cart itself is not safe for
// concurrent use; the handler's mutex serialises every access, making this
// layer the cart's single owner.
type Handler struct {
	Cart     *Cart
	Store    *catalog.Store
	Validate *validator.Validate

	mu sync.Mutex
}

// Quantity is a pointer so presence is enforced without rejecting a zero
// delta, which is a valid mutation (it creates a retained quantity-0 entry).
type addItemRequest struct {
	Slug     string `json:"slug" validate:"required"`
	Quantity *int   `json:"quantity" validate:"required"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type shippingAddressRequest struct {
	Country           string   `json:"country" validate:"required"`
	AddressLines      []string `json:"addressLine"`
	Region            string   `json:"region"`
	City              string   `json:"city"`
	DependentLocality string   `json:"dependentLocality"`
	PostalCode        string   `json:"postalCode"`
	SortingCode       string   `json:"sortingCode"`
	LanguageCode      string   `json:"languageCode"`
	Organization      string   `json:"organization"`
	Recipient         string   `json:"recipient"`
	Phone             string   `json:"phone"`
}

type shippingOptionRequest struct {
	Option string `json:"option" validate:"required"`
}

type entryView struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	ImageEmoji string `json:"imageEmoji"`
	UnitCost   string `json:"unitCost"`
	Quantity   int    `json:"quantity"`
	LineTotal  string `json:"lineTotal"`
}

type summaryView struct {
	ItemsSubtotal string `json:"itemsSubtotal"`
	Shipping      string `json:"shipping"`
	ItemsTax      string `json:"itemsTax"`
	ShippingTax   string `json:"shippingTax"`
	TotalTax      string `json:"totalTax"`
	Total         string `json:"total"`
}

type cartView struct {
	Entries        []entryView  `json:"entries"`
	ShippingOption string       `json:"shippingOption"`
	Summary        summaryView  `json:"summary"`
	Address        *addressView `json:"shippingAddress,omitempty"`
}

type addressView struct {
	Country           string   `json:"country"`
	AddressLines      []string `json:"addressLine,omitempty"`
	Region            string   `json:"region,omitempty"`
	City              string   `json:"city,omitempty"`
	DependentLocality string   `json:"dependentLocality,omitempty"`
	PostalCode        string   `json:"postalCode,omitempty"`
	SortingCode       string   `json:"sortingCode,omitempty"`
	LanguageCode      string   `json:"languageCode,omitempty"`
	Organization      string   `json:"organization,omitempty"`
	Recipient         string   `json:"recipient,omitempty"`
	Phone             string   `json:"phone,omitempty"`
}

// Get renders the current cart state.
func (h *Handler) Get(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	view := h.view()
	h.mu.Unlock()

	common.JSON(w, http.StatusOK, view)
}

// AddItem applies a quantity delta to a product's entry.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.Store.GetBySlug(req.Slug)
	if err != nil {
		recordMutation("add", "not_found")
		common.JSONError(w, http.StatusNotFound, "not_found", "product not found", nil)
		return
	}

	h.mu.Lock()
	err = h.Cart.Add(product, *req.Quantity)
	view := h.view()
	h.mu.Unlock()

	if err != nil {
		recordMutation("add", "rejected")
		common.JSONError(w, http.StatusUnprocessableEntity, "invalid_quantity", err.Error(), nil)
		return
	}
	recordMutation("add", "ok")
	common.JSON(w, http.StatusOK, view)
}

// SetQuantity sets a product's entry to an absolute quantity.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.Store.GetBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		recordMutation("set_quantity", "not_found")
		common.JSONError(w, http.StatusNotFound, "not_found", "product not found", nil)
		return
	}

	h.mu.Lock()
	err = h.Cart.SetQuantity(product, req.Quantity)
	view := h.view()
	h.mu.Unlock()

	if err != nil {
		recordMutation("set_quantity", "rejected")
		common.JSONError(w, http.StatusUnprocessableEntity, "invalid_quantity", err.Error(), nil)
		return
	}
	recordMutation("set_quantity", "ok")
	common.JSON(w, http.StatusOK, view)
}

// RemoveItem drops a product's entry.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	product, err := h.Store.GetBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		recordMutation("remove", "not_found")
		common.JSONError(w, http.StatusNotFound, "not_found", "product not found", nil)
		return
	}

	h.mu.Lock()
	h.Cart.Remove(product)
	view := h.view()
	h.mu.Unlock()

	recordMutation("remove", "ok")
	common.JSON(w, http.StatusOK, view)
}

// Clear drops every entry.
func (h *Handler) Clear(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	h.Cart.Clear()
	view := h.view()
	h.mu.Unlock()

	recordMutation("clear", "ok")
	common.JSON(w, http.StatusOK, view)
}

// RemoveZeroQuantity drops entries whose quantity is zero.
func (h *Handler) RemoveZeroQuantity(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	h.Cart.RemoveZeroQuantity()
	view := h.view()
	h.mu.Unlock()

	recordMutation("remove_zero_quantity", "ok")
	common.JSON(w, http.StatusOK, view)
}

// SetShippingAddress stores the destination and renders the updated cart.
func (h *Handler) SetShippingAddress(w http.ResponseWriter, r *http.Request) {
	var req shippingAddressRequest
	if !h.decode(w, r, &req) {
		return
	}

	addr := &address.Address{
		Country:           req.Country,
		AddressLines:      req.AddressLines,
		Region:            req.Region,
		City:              req.City,
		DependentLocality: req.DependentLocality,
		PostalCode:        req.PostalCode,
		SortingCode:       req.SortingCode,
		LanguageCode:      req.LanguageCode,
		Organization:      req.Organization,
		Recipient:         req.Recipient,
		Phone:             req.Phone,
	}

	h.mu.Lock()
	h.Cart.SetShippingAddress(addr)
	view := h.view()
	h.mu.Unlock()

	recordMutation("set_address", "ok")
	common.JSON(w, http.StatusOK, view)
}

// SetShippingOption selects a shipping option by its wire name.
func (h *Handler) SetShippingOption(w http.ResponseWriter, r *http.Request) {
	var req shippingOptionRequest
	if !h.decode(w, r, &req) {
		return
	}

	option, err := pricing.ParseOption(req.Option)
	if err != nil {
		recordMutation("set_option", "rejected")
		common.JSONError(w, http.StatusBadRequest, "invalid_option", err.Error(), nil)
		return
	}

	h.mu.Lock()
	h.Cart.SetShippingOption(option)
	view := h.view()
	h.mu.Unlock()

	recordMutation("set_option", "ok")
	common.JSON(w, http.StatusOK, view)
}

// ShippingOptions quotes the full cost summary for every option available
// to the current destination.
func (h *Handler) ShippingOptions(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	quotes := h.Cart.ShippingQuotes()
	selected := h.Cart.ShippingOption()
	h.mu.Unlock()

	options := make(map[string]summaryView, len(quotes))
	for option, summary := range quotes {
		options[option.String()] = summaryOf(summary)
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"selected": selected.String(),
		"options":  options,
	})
}

// Snapshot captures the request details for a checkout under the cart lock.
func (h *Handler) Snapshot() ([]Entry, pricing.Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Cart.Entries(), h.Cart.Summary()
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid_body", "invalid request body", err.Error())
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				common.JSONError(w, http.StatusBadRequest, "validation_failed", "request validation failed", verrs.Error())
				return false
			}
			common.JSONError(w, http.StatusBadRequest, "validation_failed", "request validation failed", err.Error())
			return false
		}
	}
	return true
}

// view renders the cart; callers hold the mutex.
func (h *Handler) view() cartView {
	entries := h.Cart.Entries()
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		qty := decimal.NewFromInt(int64(e.Quantity))
		views = append(views, entryView{
			Slug:       e.Product.Slug,
			Title:      e.Product.Title,
			ImageEmoji: e.Product.ImageEmoji,
			UnitCost:   e.Product.Cost.StringFixed(2),
			Quantity:   e.Quantity,
			LineTotal:  e.Product.Cost.Mul(qty).StringFixed(2),
		})
	}
	if obs.CartEntries != nil {
		obs.CartEntries.Set(float64(len(entries)))
	}

	view := cartView{
		Entries:        views,
		ShippingOption: h.Cart.ShippingOption().String(),
		Summary:        summaryOf(h.Cart.Summary()),
	}
	if addr := h.Cart.ShippingAddress(); addr != nil {
		view.Address = &addressView{
			Country:           addr.Country,
			AddressLines:      addr.AddressLines,
			Region:            addr.Region,
			City:              addr.City,
			DependentLocality: addr.DependentLocality,
			PostalCode:        addr.PostalCode,
			SortingCode:       addr.SortingCode,
			LanguageCode:      addr.LanguageCode,
			Organization:      addr.Organization,
			Recipient:         addr.Recipient,
			Phone:             addr.Phone,
		}
	}
	return view
}

func summaryOf(s pricing.Summary) summaryView {
	return summaryView{
		ItemsSubtotal: s.ItemsSubtotal.StringFixed(2),
		Shipping:      s.Shipping.StringFixed(2),
		ItemsTax:      s.ItemsTax.StringFixed(2),
		ShippingTax:   s.ShippingTax.StringFixed(2),
		TotalTax:      s.TotalTax.StringFixed(2),
		Total:         s.Total.StringFixed(2),
	}
}

func recordMutation(op, result string) {
	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues(op, result).Inc()
	}
}
