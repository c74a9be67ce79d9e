// Package b64url decodes base64url text as used by compact payment tokens.
//
// The gateway protocol transmits token segments in the RFC 4648 base64url
// alphabet without padding, while the standard library's StdEncoding expects
// the `+`/`/` alphabet and mandatory padding. Decoding therefore normalises
// the alphabet and re-pads before delegating to the standard decoder.
package b64url

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrFormat indicates the input is not valid base64url (or, for DecodeString,
// does not decode to valid UTF-8).
var ErrFormat = errors.New("b64url: invalid encoding")

// Decode converts base64url text into raw bytes.
func Decode(text string) ([]byte, error) {
	normalized := strings.ReplaceAll(text, "-", "+")
	normalized = strings.ReplaceAll(normalized, "_", "/")

	if padding := (4 - len(normalized)%4) % 4; padding > 0 {
		normalized += strings.Repeat("=", padding)
	}

	decoded, err := base64.StdEncoding.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return decoded, nil
}

// DecodeString converts base64url text into a UTF-8 string.
func DecodeString(text string) (string, error) {
	decoded, err := Decode(text)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", fmt.Errorf("%w: decoded bytes are not valid UTF-8", ErrFormat)
	}
	return string(decoded), nil
}
