package payments

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/shopfront/internal/basiccard"
	"github.com/noah-isme/shopfront/internal/mspay"
)

// SimulatedSheet implements Transport without a host payment sheet. The
// real integration invokes the platform payment API; for development and
// integration tests we synthesise a deterministic gateway token to drive
// the rest of the flow.
type SimulatedSheet struct {
	MerchantID string
	PayerID    string
	Now        func() time.Time
}

// HasAnySupportedMethod reports support for the gateway method.
func (s SimulatedSheet) HasAnySupportedMethod(_ context.Context, methodIDs []string) (bool, error) {
	for _, id := range methodIDs {
		if id == mspay.MethodID {
			return true, nil
		}
	}
	return false, nil
}

// SubmitPaymentRequest fabricates a Standard-format gateway response for
// the request.
func (s SimulatedSheet) SubmitPaymentRequest(_ context.Context, _ []basiccard.MethodData, details RequestDetails) (SheetResponse, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	header, err := json.Marshal(map[string]string{
		"PayerId":          s.PayerID,
		"PaymentRequestId": details.RequestID,
		"MerchantId":       s.MerchantID,
		"Expiry":           now.Add(time.Hour).UTC().Format(time.RFC3339),
		"TimeStamp":        now.UTC().Format(time.RFC3339),
		"Format":           "Standard",
		"EPK":              "simulated-epk",
		"KeyId":            "simulated-key",
		"Nonce":            "simulated-nonce",
		"Tag":              "simulated-tag",
	})
	if err != nil {
		return SheetResponse{}, err
	}

	body, err := json.Marshal(map[string]string{
		"amount":   details.Total.String(),
		"currency": details.Currency,
	})
	if err != nil {
		return SheetResponse{}, err
	}

	// Not a real signature; the decoder retains it without verification.
	signature := sha256.Sum256(append(header, body...))

	token := fmt.Sprintf("%s.%s.%s",
		base64.RawURLEncoding.EncodeToString(header),
		base64.RawURLEncoding.EncodeToString(body),
		base64.RawURLEncoding.EncodeToString(signature[:]),
	)

	payload, err := json.Marshal(map[string]string{"paymentToken": token})
	if err != nil {
		return SheetResponse{}, err
	}

	return SheetResponse{MethodID: mspay.MethodID, Details: string(payload)}, nil
}
