package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/catalog"
)

func newTestRouter() chi.Router {
	h := &catalog.Handler{Store: catalog.NewDefaultStore()}
	r := chi.NewRouter()
	r.Get("/products", h.List)
	r.Get("/products/{slug}", h.Get)
	return r
}

func TestListProducts(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Products []struct {
			Slug          string            `json:"slug"`
			Cost          string            `json:"cost"`
			ShippingCosts map[string]string `json:"shippingCosts"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Products, 3)
	require.Equal(t, "happy-face", body.Products[0].Slug)
	require.Equal(t, "10.00", body.Products[0].Cost)
	require.Len(t, body.Products[0].ShippingCosts, 5)
}

func TestGetProduct(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products/ninja-cat", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var product struct {
		Title string `json:"title"`
		Cost  string `json:"cost"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &product))
	require.Equal(t, "Ninja cat", product.Title)
	require.Equal(t, "1000.00", product.Cost)
}

func TestGetProductNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products/unknown", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
