package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/shopfront/internal/common"
)

// Handler exposes read-only catalog endpoints.
type Handler struct {
	Store *Store
}

type productView struct {
	Slug          string            `json:"slug"`
	ImageEmoji    string            `json:"imageEmoji"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Cost          string            `json:"cost"`
	ShippingCosts map[string]string `json:"shippingCosts"`
}

// List renders all products in catalog order.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	products := h.Store.List()
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, viewOf(p))
	}
	common.JSON(w, http.StatusOK, map[string]any{"products": views})
}

// Get renders a single product by slug.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	product, err := h.Store.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "not_found", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "lookup_failed", "failed to look product up", err.Error())
		return
	}
	common.JSON(w, http.StatusOK, viewOf(product))
}

func viewOf(p *Product) productView {
	shipping := make(map[string]string, len(p.ShippingCosts))
	for option, cost := range p.ShippingCosts {
		shipping[option.String()] = cost.StringFixed(2)
	}
	return productView{
		Slug:          p.Slug,
		ImageEmoji:    p.ImageEmoji,
		Title:         p.Title,
		Description:   p.Description,
		Cost:          p.Cost.StringFixed(2),
		ShippingCosts: shipping,
	}
}
