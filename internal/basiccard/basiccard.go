// Package basiccard implements the W3C Basic Card payment method
// (https://www.w3.org/TR/payment-method-basic-card/): the method-data
// payload a merchant registers with the payment sheet, and the decoder for
// the cardholder response the sheet returns.
package basiccard

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/noah-isme/shopfront/internal/address"
	"github.com/noah-isme/shopfront/internal/jsonstream"
)

// MethodID is the payment method identifier of the Basic Card protocol.
const MethodID = "basic-card"

// CardType enumerates the card categories the protocol understands.
type CardType string

const (
	CardTypeCredit  CardType = "credit"
	CardTypeDebit   CardType = "debit"
	CardTypePrepaid CardType = "prepaid"
)

// Well-known card network identifiers.
const (
	NetworkAmex       = "amex"
	NetworkMastercard = "mastercard"
	NetworkVisa       = "visa"
)

// ErrParse indicates the response payload was structurally invalid.
var ErrParse = errors.New("basiccard: parse response")

// MethodData is a payment-method registration payload: the method
// identifier plus its JSON configuration.
type MethodData struct {
	MethodID string
	Data     string
}

// Response carries the cardholder details returned by the payment sheet.
// Fields the payload did not supply stay empty; BillingAddress stays nil.
type Response struct {
	CardholderName   string
	CardNumber       string
	ExpiryMonth      string
	ExpiryYear       string
	CardSecurityCode string
	BillingAddress   *address.Address
}

// EncodeMethodData builds the registration payload. Empty collections are
// omitted entirely; an empty payload means every network and card type is
// accepted.
func EncodeMethodData(supportedNetworks []string, supportedTypes []CardType) MethodData {
	payload := struct {
		SupportedNetworks []string   `json:"supportedNetworks,omitempty"`
		SupportedTypes    []CardType `json:"supportedTypes,omitempty"`
	}{
		SupportedNetworks: supportedNetworks,
		SupportedTypes:    supportedTypes,
	}
	data, _ := json.Marshal(payload)
	return MethodData{MethodID: MethodID, Data: string(data)}
}

// DecodeResponse parses the JSON response of the Basic Card protocol.
// Unrecognised fields are skipped; a malformed payload fails with an error
// wrapping ErrParse and no partial Response is returned.
func DecodeResponse(jsonDetails string) (*Response, error) {
	r := jsonstream.NewReader(jsonDetails)

	if err := expectRootObject(r); err != nil {
		return nil, err
	}
	return decodeCardResponse(r)
}

// expectRootObject consumes tokens until the root object opens.
func expectRootObject(r *jsonstream.Reader) error {
	tok, err := r.Next()
	if err != nil {
		return wrapErr(err)
	}
	if tok.Kind != jsonstream.KindObjectStart {
		return parseErrorf("incorrect JSON format: expected root object")
	}
	return nil
}

func decodeCardResponse(r *jsonstream.Reader) (*Response, error) {
	result := &Response{}

	for {
		tok, err := r.Next()
		if err != nil {
			return nil, wrapErr(err)
		}
		switch tok.Kind {
		case jsonstream.KindObjectEnd:
			return result, nil
		case jsonstream.KindName:
			switch tok.Str {
			case "cardholderName":
				if result.CardholderName, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "cardNumber":
				if result.CardNumber, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "expiryMonth":
				if result.ExpiryMonth, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "expiryYear":
				if result.ExpiryYear, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "cardSecurityCode":
				if result.CardSecurityCode, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "billingAddress":
				value, err := r.Next()
				if err != nil {
					return nil, wrapErr(err)
				}
				if value.Kind != jsonstream.KindObjectStart {
					return nil, parseErrorf("property 'billingAddress' must have value that is an object type")
				}
				if result.BillingAddress, err = decodeAddress(r); err != nil {
					return nil, err
				}
			default:
				// Ignore extra data.
				if err := r.SkipValue(); err != nil {
					return nil, wrapErr(err)
				}
			}
		default:
			return nil, parseErrorf("incorrect JSON format")
		}
	}
}

// decodeAddress parses a PaymentAddress object; the opening brace has
// already been consumed.
func decodeAddress(r *jsonstream.Reader) (*address.Address, error) {
	result := &address.Address{}

	for {
		tok, err := r.Next()
		if err != nil {
			return nil, wrapErr(err)
		}
		switch tok.Kind {
		case jsonstream.KindObjectEnd:
			return result, nil
		case jsonstream.KindName:
			switch tok.Str {
			case "country":
				if result.Country, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "addressLine":
				value, err := r.Next()
				if err != nil {
					return nil, wrapErr(err)
				}
				if value.Kind != jsonstream.KindArrayStart {
					return nil, parseErrorf("property 'addressLine' must have value that is a string array type")
				}
				if result.AddressLines, err = decodeStringArray(r); err != nil {
					return nil, err
				}
			case "region":
				if result.Region, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "city":
				if result.City, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "dependentLocality":
				if result.DependentLocality, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "postalCode":
				if result.PostalCode, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "sortingCode":
				if result.SortingCode, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "languageCode":
				if result.LanguageCode, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "organization":
				if result.Organization, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "recipient":
				if result.Recipient, err = readOptionalString(r); err != nil {
					return nil, err
				}
			case "phone":
				if result.Phone, err = readOptionalString(r); err != nil {
					return nil, err
				}
			default:
				// Ignore extra data.
				if err := r.SkipValue(); err != nil {
					return nil, wrapErr(err)
				}
			}
		default:
			return nil, parseErrorf("incorrect JSON format")
		}
	}
}

// decodeStringArray parses the remainder of a string array; each element
// must be a string.
func decodeStringArray(r *jsonstream.Reader) ([]string, error) {
	var result []string
	for {
		tok, err := r.Next()
		if err != nil {
			return nil, wrapErr(err)
		}
		switch tok.Kind {
		case jsonstream.KindString:
			result = append(result, tok.Str)
		case jsonstream.KindArrayEnd:
			return result, nil
		default:
			return nil, parseErrorf("incorrect JSON format: expecting type of string")
		}
	}
}

func readOptionalString(r *jsonstream.Reader) (string, error) {
	s, _, err := r.ReadString()
	if err != nil {
		return "", wrapErr(err)
	}
	return s, nil
}

func wrapErr(err error) error {
	if errors.Is(err, ErrParse) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrParse, err)
}

func parseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}
