package domain

import (
	"context"

	transactiondomain "github.com/pixelpay/topup/internal/transaction/domain"
)

type Service interface {
	// ChargeCard submits an immediate card-token charge for a PENDING
	// transaction and applies the decoded outcome to its status.
	ChargeCard(ctx context.Context, req CardRequest) (*ChargeResult, error)

	// ChargeSource starts an asynchronous local-rail charge. The
	// provider charge id is persisted on the transaction before the
	// outcome is interpreted; reconciliation depends on that ordering.
	ChargeSource(ctx context.Context, req SourceRequest) (*ChargeResult, error)

	// CheckStatus re-fetches a charge from the provider and settles the
	// owning transaction if the provider reports a terminal state.
	// Idempotent: an already settled transaction is returned as is.
	// Source labels the caller (client, webhook, reconcile) for metrics.
	CheckStatus(ctx context.Context, chargeID string, source string) (*StatusResult, error)
}

type CardRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	CardToken     string `json:"card_token" binding:"required"`
}

type SourceRequest struct {
	TransactionID string         `json:"transaction_id" binding:"required"`
	SourceType    string         `json:"source_type" binding:"required"`
	SourceOptions map[string]any `json:"source_options"`
	ReturnURL     string         `json:"return_url"`
}

// ResultKind is what the client does next after initiating a charge.
type ResultKind string

const (
	ResultSuccess  ResultKind = "success"
	ResultQR       ResultKind = "qr"
	ResultRedirect ResultKind = "redirect"
	ResultUnknown  ResultKind = "unknown"
)

type ChargeResult struct {
	TransactionID string                   `json:"transaction_id"`
	ChargeID      string                   `json:"charge_id"`
	Kind          ResultKind               `json:"kind"`
	QRPayload     string                   `json:"qr_payload,omitempty"`
	RedirectURL   string                   `json:"redirect_url,omitempty"`
	RawStatus     string                   `json:"raw_status,omitempty"`
	Status        transactiondomain.Status `json:"status"`
}

type StatusResult struct {
	TransactionID string                   `json:"transaction_id"`
	ChargeID      string                   `json:"charge_id"`
	RawStatus     string                   `json:"raw_status,omitempty"`
	Status        transactiondomain.Status `json:"status"`
	Settled       bool                     `json:"settled"`
}
