package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/basiccard"
	"github.com/noah-isme/shopfront/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"MSPAY_MERCHANT_ID":    "merchant-1",
		"PORT":                 "",
		"SUPPORTED_NETWORKS":   "",
		"SUPPORTED_CARD_TYPES": "",
		"CURRENCY_CODE":        "",
		"PAYMENT_TEST_MODE":    "",
	})
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "merchant-1", cfg.MSPayMerchantID)
	require.Equal(t, "USD", cfg.CurrencyCode)
	require.Equal(t, []string{"amex", "mastercard", "visa"}, cfg.SupportedNetworks)
	require.Equal(t, []basiccard.CardType{basiccard.CardTypeCredit, basiccard.CardTypeDebit}, cfg.SupportedCardTypes)
	require.False(t, cfg.PaymentTestMode)
}

func TestLoadRequiresMerchantID(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"MSPAY_MERCHANT_ID": "",
	})
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"MSPAY_MERCHANT_ID":    "merchant-2",
		"PORT":                 "9090",
		"SUPPORTED_NETWORKS":   "visa",
		"SUPPORTED_CARD_TYPES": "Credit",
		"PAYMENT_TEST_MODE":    "yes",
		"CHECKOUT_TIMEOUT":     "30s",
	})
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, []string{"visa"}, cfg.SupportedNetworks)
	require.Equal(t, []basiccard.CardType{basiccard.CardTypeCredit}, cfg.SupportedCardTypes)
	require.True(t, cfg.PaymentTestMode)
	require.Equal(t, 30*time.Second, cfg.CheckoutTimeout)
}
