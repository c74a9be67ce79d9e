package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/shopfront/internal/basiccard"
	"github.com/noah-isme/shopfront/internal/cart"
	"github.com/noah-isme/shopfront/internal/common"
	"github.com/noah-isme/shopfront/internal/mspay"
	"github.com/noah-isme/shopfront/internal/obs"
	"github.com/noah-isme/shopfront/internal/pricing"
)

// Handler exposes payment-method registration and checkout over HTTP.
type Handler struct {
	Svc      *Service
	Currency string
	// Timeout bounds one checkout round trip through the payment sheet;
	// zero means unbounded.
	Timeout time.Duration
	// Snapshot captures the cart's entries and summary atomically; the
	// cart handler supplies it so the cart lock is taken exactly once.
	Snapshot func() ([]cart.Entry, pricing.Summary)
}

type methodView struct {
	MethodID string          `json:"methodId"`
	Data     json.RawMessage `json:"data"`
}

type decodeRequest struct {
	MethodID string `json:"methodId"`
	Details  string `json:"details"`
}

type resultView struct {
	RequestID string         `json:"requestId,omitempty"`
	MethodID  string         `json:"methodId"`
	BasicCard *basicCardView `json:"basicCard,omitempty"`
	Gateway   *gatewayView   `json:"gateway,omitempty"`
}

type basicCardView struct {
	CardholderName   string `json:"cardholderName,omitempty"`
	CardNumber       string `json:"cardNumber,omitempty"`
	ExpiryMonth      string `json:"expiryMonth,omitempty"`
	ExpiryYear       string `json:"expiryYear,omitempty"`
	CardSecurityCode string `json:"cardSecurityCode,omitempty"`
	BillingCountry   string `json:"billingCountry,omitempty"`
}

type gatewayView struct {
	Format           string              `json:"format"`
	PayerID          string              `json:"payerId,omitempty"`
	PaymentRequestID string              `json:"paymentRequestId,omitempty"`
	MerchantID       string              `json:"merchantId,omitempty"`
	Expiry           string              `json:"expiry,omitempty"`
	TimeStamp        string              `json:"timeStamp,omitempty"`
	Error            *mspay.ErrorInfo    `json:"error,omitempty"`
	Standard         *mspay.StandardInfo `json:"standard,omitempty"`
}

// Methods renders the registration payloads of every accepted method.
func (h *Handler) Methods(w http.ResponseWriter, _ *http.Request) {
	methods := h.Svc.MethodData()
	views := make([]methodView, 0, len(methods))
	for _, m := range methods {
		views = append(views, methodView{MethodID: m.MethodID, Data: json.RawMessage(m.Data)})
	}
	common.JSON(w, http.StatusOK, map[string]any{"methods": views})
}

// Checkout submits the current cart through the payment sheet and renders
// the decoded outcome.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	entries, summary := h.Snapshot()

	items := make([]DisplayItem, 0, len(entries)+2)
	for _, e := range entries {
		items = append(items, DisplayItem{
			Label:  e.Product.Title,
			Amount: e.Product.Cost.Mul(decimal.NewFromInt(int64(e.Quantity))),
		})
	}
	items = append(items,
		DisplayItem{Label: "Shipping", Amount: summary.Shipping},
		DisplayItem{Label: "Tax", Amount: summary.TotalTax},
	)

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	result, err := h.Svc.Checkout(ctx, RequestDetails{
		Currency: h.Currency,
		Total:    summary.Total,
		Items:    items,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNoSupportedMethod):
			recordCheckout("none", "unsupported")
			common.JSONError(w, http.StatusConflict, "no_supported_method", "no supported payment method", nil)
		case errors.Is(err, ErrCancelled):
			recordCheckout("none", "cancelled")
			common.JSONError(w, http.StatusConflict, "cancelled", "payment cancelled by user", nil)
		case errors.Is(err, mspay.ErrParse), errors.Is(err, basiccard.ErrParse):
			recordCheckout("none", "decode_failed")
			common.JSONError(w, http.StatusBadGateway, "decode_failed", "failed to decode payment response", err.Error())
		default:
			recordCheckout("none", "error")
			common.JSONError(w, http.StatusInternalServerError, "checkout_failed", "checkout failed", err.Error())
		}
		return
	}

	recordCheckout(result.MethodID, "ok")
	common.JSON(w, http.StatusOK, viewOfResult(result))
}

// Decode decodes a raw payment-sheet response for the named method.
func (h *Handler) Decode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid_body", "invalid request body", err.Error())
		return
	}

	result, err := h.Svc.DecodeResponse(req.MethodID, req.Details)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownMethod):
			recordDecode(req.MethodID, "unknown_method")
			common.JSONError(w, http.StatusBadRequest, "unknown_method", "unknown payment method", nil)
		case errors.Is(err, mspay.ErrParse), errors.Is(err, basiccard.ErrParse):
			recordDecode(req.MethodID, "parse_failed")
			common.JSONError(w, http.StatusBadRequest, "parse_failed", "failed to parse payment response", err.Error())
		default:
			recordDecode(req.MethodID, "error")
			common.JSONError(w, http.StatusInternalServerError, "decode_failed", "failed to decode payment response", err.Error())
		}
		return
	}

	recordDecode(req.MethodID, "ok")
	common.JSON(w, http.StatusOK, viewOfResult(result))
}

func viewOfResult(result *Result) resultView {
	view := resultView{RequestID: result.RequestID, MethodID: result.MethodID}
	if card := result.BasicCard; card != nil {
		view.BasicCard = &basicCardView{
			CardholderName:   card.CardholderName,
			CardNumber:       card.CardNumber,
			ExpiryMonth:      card.ExpiryMonth,
			ExpiryYear:       card.ExpiryYear,
			CardSecurityCode: card.CardSecurityCode,
		}
		if card.BillingAddress != nil {
			view.BasicCard.BillingCountry = card.BillingAddress.Country
		}
	}
	if gw := result.Gateway; gw != nil {
		view.Gateway = &gatewayView{
			Format:           gw.Format,
			PayerID:          gw.PayerID,
			PaymentRequestID: gw.PaymentRequestID,
			MerchantID:       gw.MerchantID,
			Error:            gw.Error,
			Standard:         gw.Standard,
		}
		if !gw.Expiry.IsZero() {
			view.Gateway.Expiry = gw.Expiry.Format(time.RFC3339)
		}
		if !gw.TimeStamp.IsZero() {
			view.Gateway.TimeStamp = gw.TimeStamp.Format(time.RFC3339)
		}
	}
	return view
}

func recordCheckout(method, result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(method, result).Inc()
	}
}

func recordDecode(method, result string) {
	if obs.PaymentDecodeTotal != nil {
		obs.PaymentDecodeTotal.WithLabelValues(method, result).Inc()
	}
}
