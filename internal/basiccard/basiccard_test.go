package basiccard_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/basiccard"
)

func TestEncodeMethodDataOmitsEmptyCollections(t *testing.T) {
	md := basiccard.EncodeMethodData(nil, nil)
	require.Equal(t, "basic-card", md.MethodID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(md.Data), &decoded))
	require.Empty(t, decoded)
}

func TestEncodeMethodData(t *testing.T) {
	md := basiccard.EncodeMethodData(
		[]string{basiccard.NetworkVisa, basiccard.NetworkMastercard},
		[]basiccard.CardType{basiccard.CardTypeCredit, basiccard.CardTypeDebit},
	)

	var decoded struct {
		SupportedNetworks []string `json:"supportedNetworks"`
		SupportedTypes    []string `json:"supportedTypes"`
	}
	require.NoError(t, json.Unmarshal([]byte(md.Data), &decoded))
	require.Equal(t, []string{"visa", "mastercard"}, decoded.SupportedNetworks)
	require.Equal(t, []string{"credit", "debit"}, decoded.SupportedTypes)
}

func TestDecodeResponse(t *testing.T) {
	resp, err := basiccard.DecodeResponse(`{"cardNumber":"4111111111111111","billingAddress":{"country":"US","addressLine":["1 Main St"]}}`)
	require.NoError(t, err)
	require.Equal(t, "4111111111111111", resp.CardNumber)
	require.NotNil(t, resp.BillingAddress)
	require.Equal(t, "US", resp.BillingAddress.Country)
	require.Equal(t, []string{"1 Main St"}, resp.BillingAddress.AddressLines)
	require.Empty(t, resp.CardholderName)
	require.Empty(t, resp.ExpiryMonth)
	require.Empty(t, resp.ExpiryYear)
	require.Empty(t, resp.CardSecurityCode)
	require.Empty(t, resp.BillingAddress.Region)
}

func TestDecodeResponseAllFields(t *testing.T) {
	resp, err := basiccard.DecodeResponse(`{
		"cardholderName": "Ada Lovelace",
		"cardNumber": "4111111111111111",
		"expiryMonth": "12",
		"expiryYear": "2031",
		"cardSecurityCode": "123",
		"billingAddress": {
			"country": "US",
			"addressLine": ["1 Main St", "Apt 2"],
			"region": "WA",
			"city": "Redmond",
			"dependentLocality": "",
			"postalCode": "98052",
			"sortingCode": "",
			"languageCode": "en",
			"organization": "Example Org",
			"recipient": "Ada Lovelace",
			"phone": "+14255550199"
		}
	}`)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", resp.CardholderName)
	require.Equal(t, "12", resp.ExpiryMonth)
	require.Equal(t, "2031", resp.ExpiryYear)
	require.Equal(t, "123", resp.CardSecurityCode)
	require.Equal(t, "Redmond", resp.BillingAddress.City)
	require.Equal(t, "98052", resp.BillingAddress.PostalCode)
	require.Equal(t, []string{"1 Main St", "Apt 2"}, resp.BillingAddress.AddressLines)
}

func TestDecodeResponseIgnoresUnknownKeys(t *testing.T) {
	resp, err := basiccard.DecodeResponse(`{"cardNumber":"1","extra":{"a":[1,2,3]}}`)
	require.NoError(t, err)
	require.Equal(t, "1", resp.CardNumber)
}

func TestDecodeResponseIgnoresUnknownAddressKeys(t *testing.T) {
	resp, err := basiccard.DecodeResponse(`{"billingAddress":{"country":"GB","custom":[{"x":1}],"city":"London"}}`)
	require.NoError(t, err)
	require.Equal(t, "GB", resp.BillingAddress.Country)
	require.Equal(t, "London", resp.BillingAddress.City)
}

func TestDecodeResponseWithComments(t *testing.T) {
	resp, err := basiccard.DecodeResponse(`// payment sheet response
	{
		"cardNumber": "1" /* PAN */
	}`)
	require.NoError(t, err)
	require.Equal(t, "1", resp.CardNumber)
}

func TestDecodeResponseWrongType(t *testing.T) {
	_, err := basiccard.DecodeResponse(`{"cardNumber": 123}`)
	require.ErrorIs(t, err, basiccard.ErrParse)
}

func TestDecodeResponseUnterminated(t *testing.T) {
	_, err := basiccard.DecodeResponse(`{"cardNumber":"1"`)
	require.ErrorIs(t, err, basiccard.ErrParse)
	require.Contains(t, strings.ToLower(err.Error()), "unexpected end of file")
}

func TestDecodeResponseRootNotObject(t *testing.T) {
	for _, src := range []string{`[]`, `"x"`, `42`} {
		_, err := basiccard.DecodeResponse(src)
		require.ErrorIs(t, err, basiccard.ErrParse, "input %q", src)
	}
}

func TestDecodeResponseBillingAddressNotObject(t *testing.T) {
	_, err := basiccard.DecodeResponse(`{"billingAddress":"not an object"}`)
	require.ErrorIs(t, err, basiccard.ErrParse)
}

func TestDecodeResponseAddressLineNotArray(t *testing.T) {
	_, err := basiccard.DecodeResponse(`{"billingAddress":{"addressLine":"1 Main St"}}`)
	require.ErrorIs(t, err, basiccard.ErrParse)
}

func TestDecodeResponseAddressLineElementNotString(t *testing.T) {
	_, err := basiccard.DecodeResponse(`{"billingAddress":{"addressLine":["1 Main St", 2]}}`)
	require.ErrorIs(t, err, basiccard.ErrParse)
}
