package payments_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/basiccard"
	"github.com/noah-isme/shopfront/internal/mspay"
	"github.com/noah-isme/shopfront/internal/payments"
)

type stubTransport struct {
	supported bool
	response  payments.SheetResponse
	err       error

	lastMethods []basiccard.MethodData
	lastDetails payments.RequestDetails
}

func (s *stubTransport) HasAnySupportedMethod(context.Context, []string) (bool, error) {
	return s.supported, nil
}

func (s *stubTransport) SubmitPaymentRequest(_ context.Context, methods []basiccard.MethodData, details payments.RequestDetails) (payments.SheetResponse, error) {
	s.lastMethods = methods
	s.lastDetails = details
	return s.response, s.err
}

func newService(t payments.Transport) *payments.Service {
	return &payments.Service{
		Transport: t,
		Cfg: payments.Config{
			MerchantID:        "merchant-1",
			SupportedNetworks: []string{basiccard.NetworkVisa, basiccard.NetworkMastercard},
			SupportedTypes:    []basiccard.CardType{basiccard.CardTypeCredit},
			TestMode:          true,
		},
		Logger: zerolog.Nop(),
	}
}

func TestMethodDataCoversBothProtocols(t *testing.T) {
	svc := newService(nil)

	require.Equal(t, []string{basiccard.MethodID, mspay.MethodID}, svc.MethodIDs())

	for _, method := range svc.MethodData() {
		var keys map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(method.Data), &keys))
		require.Contains(t, keys, "supportedNetworks")
		require.Contains(t, keys, "supportedTypes")

		if method.MethodID == mspay.MethodID {
			require.Contains(t, keys, "merchantId")
			require.Contains(t, keys, "mode")
		} else {
			require.NotContains(t, keys, "merchantId")
		}
	}
}

func TestCheckoutWithGatewayMethod(t *testing.T) {
	sheet := payments.SimulatedSheet{
		MerchantID: "merchant-1",
		PayerID:    "payer-1",
		Now:        func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	svc := newService(sheet)

	result, err := svc.Checkout(context.Background(), payments.RequestDetails{
		Currency: "USD",
		Total:    decimal.RequireFromString("24.00"),
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.RequestID)
	require.Equal(t, mspay.MethodID, result.MethodID)
	require.Nil(t, result.BasicCard)
	require.NotNil(t, result.Gateway)
	require.Equal(t, mspay.FormatStandard, result.Gateway.Format)
	require.Equal(t, "payer-1", result.Gateway.PayerID)
	require.Equal(t, result.RequestID, result.Gateway.PaymentRequestID)
	require.NotNil(t, result.Gateway.Standard)
}

func TestCheckoutWithBasicCardMethod(t *testing.T) {
	transport := &stubTransport{
		supported: true,
		response: payments.SheetResponse{
			MethodID: basiccard.MethodID,
			Details:  `{"cardholderName": "Ada Lovelace", "cardNumber": "4111111111111111"}`,
		},
	}
	svc := newService(transport)

	result, err := svc.Checkout(context.Background(), payments.RequestDetails{
		Currency: "USD",
		Total:    decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	require.Nil(t, result.Gateway)
	require.NotNil(t, result.BasicCard)
	require.Equal(t, "Ada Lovelace", result.BasicCard.CardholderName)

	require.Len(t, transport.lastMethods, 2)
	require.Equal(t, transport.lastDetails.RequestID, result.RequestID)
}

func TestCheckoutNoSupportedMethod(t *testing.T) {
	svc := newService(&stubTransport{supported: false})

	_, err := svc.Checkout(context.Background(), payments.RequestDetails{Currency: "USD"})
	require.ErrorIs(t, err, payments.ErrNoSupportedMethod)
}

func TestCheckoutCancelled(t *testing.T) {
	svc := newService(&stubTransport{supported: true, err: payments.ErrCancelled})

	_, err := svc.Checkout(context.Background(), payments.RequestDetails{Currency: "USD"})
	require.ErrorIs(t, err, payments.ErrCancelled)
}

func TestDecodeResponseUnknownMethod(t *testing.T) {
	svc := newService(nil)

	_, err := svc.DecodeResponse("https://example.com/other", `{}`)
	require.ErrorIs(t, err, payments.ErrUnknownMethod)
}
