package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/pixelpay/topup/internal/config"
)

// CreateCardChargeRequest is an immediate card-token charge. Amount is
// in the currency's minor unit.
type CreateCardChargeRequest struct {
	Amount        int64
	Currency      string
	CardToken     string
	TransactionID string
	Description   string
}

// CreateSourceChargeRequest is a local-rail charge (QR, bank redirect).
// SourceOptions carries provider-specific knobs passed through opaque.
type CreateSourceChargeRequest struct {
	Amount        int64
	Currency      string
	SourceType    string
	SourceOptions map[string]any
	TransactionID string
	Description   string
	ReturnURL     string
}

// Provider is one payment gateway. Implementations decode every
// provider response into an Outcome at this boundary.
type Provider interface {
	Name() string
	CreateCardCharge(ctx context.Context, req CreateCardChargeRequest) (*Outcome, error)
	CreateSourceCharge(ctx context.Context, req CreateSourceChargeRequest) (*Outcome, error)
	GetCharge(ctx context.Context, chargeID string) (*Outcome, error)
}

// ProviderFactory builds a Provider from the payment config.
type ProviderFactory interface {
	Name() string
	New(cfg config.PaymentConfig) (Provider, error)
}

var (
	ErrProviderNotFound      = errors.New("provider_not_found")
	ErrInvalidConfig         = errors.New("invalid_provider_config")
	ErrGatewayTimeout        = errors.New("gateway_timeout")
	ErrGatewayError          = errors.New("gateway_error")
	ErrChallengeNotSupported = errors.New("challenge_not_supported")
	ErrChargeNotFound        = errors.New("charge_not_found")
	ErrTransactionNotPending = errors.New("transaction_not_pending")
	ErrInvalidSourceType     = errors.New("invalid_source_type")
)

// DeclinedError carries the provider's failure message for a declined
// charge. The message is shown to the customer verbatim, so adapters
// must not put provider internals in it.
type DeclinedError struct {
	Message string
}

func (e *DeclinedError) Error() string {
	if e.Message == "" {
		return "charge_declined"
	}
	return "charge_declined: " + e.Message
}

// UnknownStatusError marks a provider status the adapter does not
// recognize. Never treated as success.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown_charge_status: %s", e.Status)
}
