// Package mspay implements the Microsoft Pay payment method: the
// method-data registration payload and the decoder for the compact
// `header.body.signature` token the payment sheet returns.
//
// The token segments are base64url text. The header decodes to a JSON
// object describing the payment outcome; the body is an opaque payload kept
// verbatim; the signature is retained as raw bytes and is NOT verified
// here — verification belongs to the merchant's trust layer.
package mspay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/shopfront/internal/b64url"
	"github.com/noah-isme/shopfront/internal/basiccard"
	"github.com/noah-isme/shopfront/internal/jsonstream"
)

// MethodID is the payment method identifier of the Microsoft Pay protocol.
const MethodID = "https://pay.microsoft.com/microsoftpay"

// Token format discriminator values. Other values (e.g. "Stripe") are
// passed through with neither variant populated.
const (
	FormatStandard = "Standard"
	FormatError    = "Error"
	FormatInvalid  = "Invalid"
)

// ErrParse indicates the response payload or token was structurally
// invalid.
var ErrParse = errors.New("mspay: parse response")

// ErrorInfo is the variant payload present when Format is "Error".
type ErrorInfo struct {
	ErrorCode   string
	ErrorText   string
	ErrorSource string
}

// StandardInfo is the variant payload present when Format is "Standard".
type StandardInfo struct {
	EPK   string
	KeyID string
	Nonce string
	Tag   string
}

// Response is the decoded payment token. Exactly one of Error and Standard
// is set when Format names that variant; both stay nil otherwise.
type Response struct {
	// Body is the decoded middle token segment, kept verbatim.
	Body string
	// Signature is the decoded third segment. Retained, not verified.
	Signature []byte

	PayerID          string
	PaymentRequestID string
	MerchantID       string
	Expiry           time.Time
	TimeStamp        time.Time
	Format           string

	Error    *ErrorInfo
	Standard *StandardInfo
}

// EncodeMethodData builds the registration payload. The merchant id is
// always present; networks and card types only when non-empty; the TEST
// mode marker only when requested.
func EncodeMethodData(merchantID string, supportedNetworks []string, supportedTypes []basiccard.CardType, testMode bool) basiccard.MethodData {
	payload := struct {
		MerchantID        string               `json:"merchantId"`
		SupportedNetworks []string             `json:"supportedNetworks,omitempty"`
		SupportedTypes    []basiccard.CardType `json:"supportedTypes,omitempty"`
		Mode              string               `json:"mode,omitempty"`
	}{
		MerchantID:        merchantID,
		SupportedNetworks: supportedNetworks,
		SupportedTypes:    supportedTypes,
	}
	if testMode {
		payload.Mode = "TEST"
	}
	data, _ := json.Marshal(payload)
	return basiccard.MethodData{MethodID: MethodID, Data: string(data)}
}

// DecodeResponse parses the JSON response of the Microsoft Pay protocol:
// it extracts the compact token, splits and base64url-decodes its
// segments, and decodes the header into a Response.
func DecodeResponse(jsonDetails string) (*Response, error) {
	token, err := tokenFromResponse(jsonDetails)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(token, ".")
	if len(parts) < 3 {
		return nil, parseErrorf("incorrect token format")
	}

	headerJSON, err := b64url.DecodeString(parts[0])
	if err != nil {
		return nil, wrapErr(err)
	}
	body, err := b64url.DecodeString(parts[1])
	if err != nil {
		return nil, wrapErr(err)
	}
	signature, err := b64url.Decode(parts[2])
	if err != nil {
		return nil, wrapErr(err)
	}

	result, err := decodeHeader(headerJSON)
	if err != nil {
		return nil, err
	}
	result.Body = body
	result.Signature = signature

	return result, nil
}

// tokenFromResponse extracts the `paymentToken` value from the response
// root object. A missing key yields an empty token, which then fails the
// split above.
func tokenFromResponse(jsonDetails string) (string, error) {
	r := jsonstream.NewReader(jsonDetails)

	tok, err := r.Next()
	if err != nil {
		return "", wrapErr(err)
	}
	if tok.Kind != jsonstream.KindObjectStart {
		return "", parseErrorf("incorrect JSON format: expected root object")
	}

	var token string
	for {
		tok, err := r.Next()
		if err != nil {
			return "", wrapErr(err)
		}
		switch tok.Kind {
		case jsonstream.KindObjectEnd:
			return token, nil
		case jsonstream.KindName:
			if tok.Str == "paymentToken" {
				if token, _, err = r.ReadString(); err != nil {
					return "", wrapErr(err)
				}
				continue
			}
			// Ignore extra data.
			if err := r.SkipValue(); err != nil {
				return "", wrapErr(err)
			}
		default:
			return "", parseErrorf("incorrect JSON format")
		}
	}
}

// decodeHeader parses the token header object. Variant fields are scanned
// unconditionally and attached once the whole object — and therefore the
// Format discriminator — has been read, so their ordering relative to
// Format does not matter.
func decodeHeader(headerJSON string) (*Response, error) {
	r := jsonstream.NewReader(headerJSON)

	tok, err := r.Next()
	if err != nil {
		return nil, wrapErr(err)
	}
	if tok.Kind != jsonstream.KindObjectStart {
		return nil, parseErrorf("incorrect JSON format: expected root object")
	}

	result := &Response{}
	errorInfo := &ErrorInfo{}
	standardInfo := &StandardInfo{}

	for {
		tok, err := r.Next()
		if err != nil {
			return nil, wrapErr(err)
		}
		switch tok.Kind {
		case jsonstream.KindObjectEnd:
			switch result.Format {
			case FormatError:
				result.Error = errorInfo
			case FormatStandard:
				result.Standard = standardInfo
			}
			return result, nil
		case jsonstream.KindName:
			switch tok.Str {
			case "PayerId":
				if result.PayerID, err = readString(r); err != nil {
					return nil, err
				}
			case "PaymentRequestId":
				if result.PaymentRequestID, err = readString(r); err != nil {
					return nil, err
				}
			case "MerchantId":
				if result.MerchantID, err = readString(r); err != nil {
					return nil, err
				}
			case "Expiry":
				if result.Expiry, err = readTime(r); err != nil {
					return nil, err
				}
			case "TimeStamp":
				if result.TimeStamp, err = readTime(r); err != nil {
					return nil, err
				}
			case "Format":
				if result.Format, err = readString(r); err != nil {
					return nil, err
				}
			case "ErrorCode":
				if errorInfo.ErrorCode, err = readString(r); err != nil {
					return nil, err
				}
			case "ErrorText":
				if errorInfo.ErrorText, err = readString(r); err != nil {
					return nil, err
				}
			case "ErrorSource":
				if errorInfo.ErrorSource, err = readString(r); err != nil {
					return nil, err
				}
			case "EPK":
				if standardInfo.EPK, err = readString(r); err != nil {
					return nil, err
				}
			case "KeyId":
				if standardInfo.KeyID, err = readString(r); err != nil {
					return nil, err
				}
			case "Nonce":
				if standardInfo.Nonce, err = readString(r); err != nil {
					return nil, err
				}
			case "Tag":
				if standardInfo.Tag, err = readString(r); err != nil {
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

func readString(r *jsonstream.Reader) (string, error) {
	s, _, err := r.ReadString()
	if err != nil {
		return "", wrapErr(err)
	}
	return s, nil
}

// readTime accepts RFC 3339 timestamps with or without a zone designator.
func readTime(r *jsonstream.Reader) (time.Time, error) {
	s, ok, err := r.ReadString()
	if err != nil {
		return time.Time{}, wrapErr(err)
	}
	if !ok || s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, parseErrorf("invalid timestamp %q", s)
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
