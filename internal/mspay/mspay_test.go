package mspay_test

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/basiccard"
	"github.com/noah-isme/shopfront/internal/mspay"
)

func compactToken(header, body string, signature []byte) string {
	return fmt.Sprintf("%s.%s.%s",
		base64.RawURLEncoding.EncodeToString([]byte(header)),
		base64.RawURLEncoding.EncodeToString([]byte(body)),
		base64.RawURLEncoding.EncodeToString(signature),
	)
}

func responseJSON(token string) string {
	encoded, _ := json.Marshal(map[string]string{"paymentToken": token})
	return string(encoded)
}

func TestEncodeMethodData(t *testing.T) {
	md := mspay.EncodeMethodData("merchant-1", nil, nil, false)
	require.Equal(t, "https://pay.microsoft.com/microsoftpay", md.MethodID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(md.Data), &decoded))
	require.Equal(t, map[string]any{"merchantId": "merchant-1"}, decoded)
}

func TestEncodeMethodDataTestMode(t *testing.T) {
	md := mspay.EncodeMethodData("merchant-1",
		[]string{basiccard.NetworkVisa},
		[]basiccard.CardType{basiccard.CardTypeCredit},
		true,
	)

	var decoded struct {
		MerchantID        string   `json:"merchantId"`
		SupportedNetworks []string `json:"supportedNetworks"`
		SupportedTypes    []string `json:"supportedTypes"`
		Mode              string   `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(md.Data), &decoded))
	require.Equal(t, "merchant-1", decoded.MerchantID)
	require.Equal(t, []string{"visa"}, decoded.SupportedNetworks)
	require.Equal(t, []string{"credit"}, decoded.SupportedTypes)
	require.Equal(t, "TEST", decoded.Mode)
}

func TestDecodeResponseStandard(t *testing.T) {
	header := `{
		"PayerId": "payer-9",
		"PaymentRequestId": "req-1",
		"MerchantId": "merchant-1",
		"Expiry": "2026-09-30T12:00:00Z",
		"TimeStamp": "2026-08-31T09:30:00Z",
		"Format": "Standard",
		"EPK": "epk-value",
		"KeyId": "key-7",
		"Nonce": "nonce-3",
		"Tag": "tag-5"
	}`
	signature := []byte{0x01, 0x02, 0x03}
	resp, err := mspay.DecodeResponse(responseJSON(compactToken(header, "opaque-body", signature)))
	require.NoError(t, err)

	require.Equal(t, "opaque-body", resp.Body)
	require.Equal(t, signature, resp.Signature)
	require.Equal(t, "payer-9", resp.PayerID)
	require.Equal(t, "req-1", resp.PaymentRequestID)
	require.Equal(t, "merchant-1", resp.MerchantID)
	require.Equal(t, time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC), resp.Expiry)
	require.Equal(t, "Standard", resp.Format)

	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Standard)
	require.Equal(t, "epk-value", resp.Standard.EPK)
	require.Equal(t, "key-7", resp.Standard.KeyID)
	require.Equal(t, "nonce-3", resp.Standard.Nonce)
	require.Equal(t, "tag-5", resp.Standard.Tag)
}

func TestDecodeResponseError(t *testing.T) {
	header := `{
		"Format": "Error",
		"ErrorCode": "card_declined",
		"ErrorText": "The card was declined.",
		"ErrorSource": "issuer"
	}`
	resp, err := mspay.DecodeResponse(responseJSON(compactToken(header, "", nil)))
	require.NoError(t, err)

	require.Nil(t, resp.Standard)
	require.NotNil(t, resp.Error)
	require.Equal(t, "card_declined", resp.Error.ErrorCode)
	require.Equal(t, "The card was declined.", resp.Error.ErrorText)
	require.Equal(t, "issuer", resp.Error.ErrorSource)
}

// Variant fields may precede the discriminator; selection happens at
// end-of-object.
func TestDecodeResponseFormatAfterVariantFields(t *testing.T) {
	header := `{"EPK":"epk-value","Nonce":"n","Format":"Standard"}`
	resp, err := mspay.DecodeResponse(responseJSON(compactToken(header, "b", nil)))
	require.NoError(t, err)
	require.NotNil(t, resp.Standard)
	require.Equal(t, "epk-value", resp.Standard.EPK)
}

func TestDecodeResponseUnknownFormat(t *testing.T) {
	for _, format := range []string{"Invalid", "Stripe", "Unheard-of"} {
		header := fmt.Sprintf(`{"Format":%q,"EPK":"x","ErrorCode":"y"}`, format)
		resp, err := mspay.DecodeResponse(responseJSON(compactToken(header, "b", nil)))
		require.NoError(t, err)
		require.Nil(t, resp.Standard, "format %q", format)
		require.Nil(t, resp.Error, "format %q", format)
		require.Equal(t, format, resp.Format)
	}
}

func TestDecodeResponseIgnoresUnknownHeaderKeys(t *testing.T) {
	header := `{"Format":"Standard","Extra":{"nested":[1,2]},"EPK":"x"}`
	resp, err := mspay.DecodeResponse(responseJSON(compactToken(header, "b", nil)))
	require.NoError(t, err)
	require.Equal(t, "x", resp.Standard.EPK)
}

func TestDecodeResponseTokenTooFewSegments(t *testing.T) {
	for _, token := range []string{"", "only-one", "one.two"} {
		_, err := mspay.DecodeResponse(responseJSON(token))
		require.ErrorIs(t, err, mspay.ErrParse, "token %q", token)
		require.Contains(t, err.Error(), "incorrect token format")
	}
}

func TestDecodeResponseMissingPaymentToken(t *testing.T) {
	_, err := mspay.DecodeResponse(`{"somethingElse":"x"}`)
	require.ErrorIs(t, err, mspay.ErrParse)
	require.Contains(t, err.Error(), "incorrect token format")
}

func TestDecodeResponseBadBase64Segment(t *testing.T) {
	_, err := mspay.DecodeResponse(responseJSON("!!!.b.c"))
	require.ErrorIs(t, err, mspay.ErrParse)
}

func TestDecodeResponseRootNotObject(t *testing.T) {
	_, err := mspay.DecodeResponse(`["paymentToken"]`)
	require.ErrorIs(t, err, mspay.ErrParse)
}

func TestDecodeResponseUnterminated(t *testing.T) {
	_, err := mspay.DecodeResponse(`{"paymentToken":"a.b.c"`)
	require.ErrorIs(t, err, mspay.ErrParse)
}

func TestDecodeResponseBadHeaderTimestamp(t *testing.T) {
	header := `{"Expiry":"not-a-time"}`
	_, err := mspay.DecodeResponse(responseJSON(compactToken(header, "b", nil)))
	require.ErrorIs(t, err, mspay.ErrParse)
}

func TestDecodeResponseIgnoresExtraRootKeys(t *testing.T) {
	header := `{"Format":"Invalid"}`
	token := compactToken(header, "b", nil)
	payload := fmt.Sprintf(`{"details":{"a":1},"paymentToken":%q,"more":[true]}`, token)
	resp, err := mspay.DecodeResponse(payload)
	require.NoError(t, err)
	require.Equal(t, "Invalid", resp.Format)
}
