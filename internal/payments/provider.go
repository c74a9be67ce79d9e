package payments

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/shopfront/internal/basiccard"
)

// ErrCancelled is returned by a Transport when the user dismissed the
// payment sheet without completing payment.
var ErrCancelled = errors.New("payments: cancelled by user")

// ErrNoSupportedMethod indicates the platform supports none of the payment
// methods the merchant registered.
var ErrNoSupportedMethod = errors.New("payments: no supported payment method")

// DisplayItem is one labelled amount shown on the payment sheet.
type DisplayItem struct {
	Label  string
	Amount decimal.Decimal
}

// RequestDetails describes a payment request handed to the platform sheet.
type RequestDetails struct {
	RequestID string
	Currency  string
	Total     decimal.Decimal
	Items     []DisplayItem
}

// SheetResponse is the raw outcome of a completed payment sheet: the id of
// the method the user chose and that method's JSON details payload.
type SheetResponse struct {
	MethodID string
	Details  string
}

// Transport abstracts the host platform's payment-sheet invocation. The
// core never blocks on it beyond these calls; cancellation is reported as
// ErrCancelled.
type Transport interface {
	SubmitPaymentRequest(ctx context.Context, methods []basiccard.MethodData, details RequestDetails) (SheetResponse, error)
	HasAnySupportedMethod(ctx context.Context, methodIDs []string) (bool, error)
}
