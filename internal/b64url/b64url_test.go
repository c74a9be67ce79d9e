package b64url_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/b64url"
)

func TestDecodeRoundTrip(t *testing.T) {
	// Lengths chosen so the underlying base64 needs 0, 1 and 2 padding chars.
	cases := [][]byte{
		{},
		{0x00},
		{0xff, 0xfe},
		{0x01, 0x02, 0x03},
		{0xde, 0xad, 0xbe, 0xef},
		[]byte("the quick brown fox"),
	}
	for _, want := range cases {
		encoded := base64.RawURLEncoding.EncodeToString(want)
		got, err := b64url.Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestDecodeURLAlphabet(t *testing.T) {
	// 0xfb 0xef encodes to "--8" in base64url, "+-8" would be "++8" in std.
	raw := []byte{0xfb, 0xef}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	require.Contains(t, encoded, "-")

	got, err := b64url.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := b64url.Decode("not*valid")
	require.ErrorIs(t, err, b64url.ErrFormat)
}

func TestDecodeString(t *testing.T) {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(`{"Format":"Standard"}`))
	got, err := b64url.DecodeString(encoded)
	require.NoError(t, err)
	require.Equal(t, `{"Format":"Standard"}`, got)
}

func TestDecodeStringInvalidUTF8(t *testing.T) {
	encoded := base64.RawURLEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd})
	_, err := b64url.DecodeString(encoded)
	require.ErrorIs(t, err, b64url.ErrFormat)
}
