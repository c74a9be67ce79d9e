// Package payments assembles payment-method registration data for both
// supported protocols, submits payment requests through the platform
// transport and routes responses to the matching protocol decoder.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/shopfront/internal/basiccard"
	"github.com/noah-isme/shopfront/internal/mspay"
)

// ErrUnknownMethod indicates a response named a payment method this service
// never registered.
var ErrUnknownMethod = errors.New("payments: unknown payment method")

// Config carries the merchant's payment-method constraints.
type Config struct {
	MerchantID        string
	SupportedNetworks []string
	SupportedTypes    []basiccard.CardType
	TestMode          bool
}

// Service orchestrates payment requests end to end.
type Service struct {
	Transport Transport
	Cfg       Config
	Logger    zerolog.Logger
}

// Result is a decoded payment outcome. Exactly one of BasicCard and
// Gateway is set, matching the method the user chose.
type Result struct {
	RequestID string
	MethodID  string
	BasicCard *basiccard.Response
	Gateway   *mspay.Response
}

// MethodData returns the registration payloads for every method the
// merchant accepts.
func (s *Service) MethodData() []basiccard.MethodData {
	return []basiccard.MethodData{
		basiccard.EncodeMethodData(s.Cfg.SupportedNetworks, s.Cfg.SupportedTypes),
		mspay.EncodeMethodData(s.Cfg.MerchantID, s.Cfg.SupportedNetworks, s.Cfg.SupportedTypes, s.Cfg.TestMode),
	}
}

// MethodIDs returns the method identifiers of MethodData, in order.
func (s *Service) MethodIDs() []string {
	methods := s.MethodData()
	ids := make([]string, len(methods))
	for i, m := range methods {
		ids[i] = m.MethodID
	}
	return ids
}

// Checkout submits a payment request for the given details and decodes the
// response. The request id is generated here and attached to the result.
func (s *Service) Checkout(ctx context.Context, details RequestDetails) (*Result, error) {
	if s.Transport == nil {
		return nil, errors.New("payments: transport not configured")
	}

	supported, err := s.Transport.HasAnySupportedMethod(ctx, s.MethodIDs())
	if err != nil {
		return nil, fmt.Errorf("probe supported methods: %w", err)
	}
	if !supported {
		return nil, ErrNoSupportedMethod
	}

	if details.RequestID == "" {
		details.RequestID = uuid.NewString()
	}

	s.Logger.Info().
		Str("request_id", details.RequestID).
		Str("currency", details.Currency).
		Str("total", details.Total.String()).
		Msg("submit payment request")

	response, err := s.Transport.SubmitPaymentRequest(ctx, s.MethodData(), details)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			s.Logger.Info().Str("request_id", details.RequestID).Msg("payment cancelled")
		}
		return nil, err
	}

	result, err := s.DecodeResponse(response.MethodID, response.Details)
	if err != nil {
		return nil, err
	}
	result.RequestID = details.RequestID
	return result, nil
}

// DecodeResponse routes a payment-sheet response payload to the decoder of
// the method that produced it.
func (s *Service) DecodeResponse(methodID, details string) (*Result, error) {
	switch methodID {
	case basiccard.MethodID:
		decoded, err := basiccard.DecodeResponse(details)
		if err != nil {
			return nil, err
		}
		return &Result{MethodID: methodID, BasicCard: decoded}, nil
	case mspay.MethodID:
		decoded, err := mspay.DecodeResponse(details)
		if err != nil {
			return nil, err
		}
		return &Result{MethodID: methodID, Gateway: decoded}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, methodID)
	}
}
