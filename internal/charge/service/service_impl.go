package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/pixelpay/topup/internal/charge/adapters"
	"github.com/pixelpay/topup/internal/charge/domain"
	"github.com/pixelpay/topup/internal/config"
	obsmetrics "github.com/pixelpay/topup/internal/observability/metrics"
	transactiondomain "github.com/pixelpay/topup/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	Registry   *adapters.Registry
	TxnSvc     transactiondomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	provider   domain.Provider
	txnSvc     transactiondomain.Service
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) (domain.Service, error) {
	provider, err := p.Registry.NewProvider(p.Cfg.Payment.Provider, p.Cfg.Payment)
	if err != nil {
		return nil, fmt.Errorf("build payment provider %q: %w", p.Cfg.Payment.Provider, err)
	}

	return &Service{
		log:        p.Log.Named("charge.service"),
		provider:   provider,
		txnSvc:     p.TxnSvc,
		obsMetrics: p.ObsMetrics,
	}, nil
}

func (s *Service) ChargeCard(ctx context.Context, req domain.CardRequest) (*domain.ChargeResult, error) {
	txn, err := s.loadPending(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}

	s.obsMetrics.RecordChargeInitiated(s.provider.Name(), "card")

	outcome, err := s.provider.CreateCardCharge(ctx, domain.CreateCardChargeRequest{
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		CardToken:     strings.TrimSpace(req.CardToken),
		TransactionID: snowflake.ID(txn.ID).String(),
		Description:   txn.PackageName,
	})
	if err != nil {
		s.log.Error("card charge request failed",
			zap.Int64("transaction_id", txn.ID),
			zap.String("provider", s.provider.Name()),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.attach(ctx, txn.ID, outcome.ChargeID); err != nil {
		return nil, err
	}
	s.obsMetrics.RecordChargeOutcome(s.provider.Name(), string(outcome.Kind))

	switch outcome.Kind {
	case domain.OutcomeSucceeded:
		updated, err := s.settle(ctx, txn.ID, transactiondomain.StatusCompleted, outcome, "card")
		if err != nil {
			return nil, err
		}
		return &domain.ChargeResult{
			TransactionID: snowflake.ID(txn.ID).String(),
			ChargeID:      outcome.ChargeID,
			Kind:          domain.ResultSuccess,
			Status:        updated.Status,
		}, nil

	case domain.OutcomeFailed:
		if _, err := s.settle(ctx, txn.ID, transactiondomain.StatusFailed, outcome, "card"); err != nil {
			return nil, err
		}
		return nil, &domain.DeclinedError{Message: outcome.FailureMessage}

	case domain.OutcomePendingRedirect:
		// Interactive 3-D Secure authorization is a documented
		// limitation. The charge id stays on the transaction so
		// reconciliation can still settle it later.
		s.log.Warn("card charge requires interactive authorization",
			zap.Int64("transaction_id", txn.ID),
			zap.String("charge_id", outcome.ChargeID),
		)
		return nil, domain.ErrChallengeNotSupported

	default:
		return nil, &domain.UnknownStatusError{Status: outcome.RawStatus}
	}
}

func (s *Service) ChargeSource(ctx context.Context, req domain.SourceRequest) (*domain.ChargeResult, error) {
	sourceType := strings.TrimSpace(req.SourceType)
	if sourceType == "" {
		return nil, domain.ErrInvalidSourceType
	}

	txn, err := s.loadPending(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}

	s.obsMetrics.RecordChargeInitiated(s.provider.Name(), sourceType)

	outcome, err := s.provider.CreateSourceCharge(ctx, domain.CreateSourceChargeRequest{
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		SourceType:    sourceType,
		SourceOptions: req.SourceOptions,
		TransactionID: snowflake.ID(txn.ID).String(),
		Description:   txn.PackageName,
		ReturnURL:     strings.TrimSpace(req.ReturnURL),
	})
	if err != nil {
		s.log.Error("source charge request failed",
			zap.Int64("transaction_id", txn.ID),
			zap.String("provider", s.provider.Name()),
			zap.String("source_type", sourceType),
			zap.Error(err),
		)
		return nil, err
	}

	// Persist the charge id before looking at the outcome. A pending
	// local-rail charge settles out of band, and this id is the only
	// key a webhook or poll can correlate by.
	if err := s.attach(ctx, txn.ID, outcome.ChargeID); err != nil {
		return nil, err
	}
	s.obsMetrics.RecordChargeOutcome(s.provider.Name(), string(outcome.Kind))

	result := &domain.ChargeResult{
		TransactionID: snowflake.ID(txn.ID).String(),
		ChargeID:      outcome.ChargeID,
		Status:        transactiondomain.StatusPending,
	}

	switch outcome.Kind {
	case domain.OutcomeSucceeded:
		updated, err := s.settle(ctx, txn.ID, transactiondomain.StatusCompleted, outcome, "source")
		if err != nil {
			return nil, err
		}
		result.Kind = domain.ResultSuccess
		result.Status = updated.Status
		return result, nil

	case domain.OutcomeFailed:
		if _, err := s.settle(ctx, txn.ID, transactiondomain.StatusFailed, outcome, "source"); err != nil {
			return nil, err
		}
		return nil, &domain.DeclinedError{Message: outcome.FailureMessage}

	case domain.OutcomePendingQR:
		result.Kind = domain.ResultQR
		result.QRPayload = outcome.QRPayload
		return result, nil

	case domain.OutcomePendingRedirect:
		result.Kind = domain.ResultRedirect
		result.RedirectURL = outcome.RedirectURL
		return result, nil

	default:
		result.Kind = domain.ResultUnknown
		result.RawStatus = outcome.RawStatus
		return result, nil
	}
}

func (s *Service) CheckStatus(ctx context.Context, chargeID string, source string) (*domain.StatusResult, error) {
	chargeID = strings.TrimSpace(chargeID)
	if chargeID == "" {
		return nil, domain.ErrChargeNotFound
	}

	txn, err := s.txnSvc.GetModelByChargeID(ctx, chargeID)
	if err != nil {
		if err == transactiondomain.ErrNotFound {
			return nil, domain.ErrChargeNotFound
		}
		return nil, err
	}

	result := &domain.StatusResult{
		TransactionID: snowflake.ID(txn.ID).String(),
		ChargeID:      chargeID,
		Status:        txn.Status,
		Settled:       txn.Status.Terminal(),
	}

	// Already settled locally: nothing to re-apply.
	if txn.Status.Terminal() {
		return result, nil
	}

	outcome, err := s.provider.GetCharge(ctx, chargeID)
	if err != nil {
		s.log.Error("charge status fetch failed",
			zap.String("charge_id", chargeID),
			zap.String("provider", s.provider.Name()),
			zap.Error(err),
		)
		return nil, err
	}

	result.RawStatus = outcome.RawStatus

	switch outcome.Kind {
	case domain.OutcomeSucceeded:
		updated, err := s.settle(ctx, txn.ID, transactiondomain.StatusCompleted, outcome, source)
		if err != nil {
			return nil, err
		}
		result.Status = updated.Status
		result.Settled = true
	case domain.OutcomeFailed:
		updated, err := s.settle(ctx, txn.ID, transactiondomain.StatusFailed, outcome, source)
		if err != nil {
			return nil, err
		}
		result.Status = updated.Status
		result.Settled = true
	default:
		// Still pending on the provider side; the caller re-polls.
	}

	return result, nil
}

func (s *Service) loadPending(ctx context.Context, id string) (*transactiondomain.Transaction, error) {
	txnID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, transactiondomain.ErrInvalidID
	}

	txn, err := s.txnSvc.GetModel(ctx, txnID.Int64())
	if err != nil {
		return nil, err
	}
	if txn.Status != transactiondomain.StatusPending {
		return nil, domain.ErrTransactionNotPending
	}
	return txn, nil
}

func (s *Service) attach(ctx context.Context, txnID int64, chargeID string) error {
	if chargeID == "" {
		return nil
	}
	if err := s.txnSvc.AttachCharge(ctx, txnID, chargeID); err != nil {
		s.log.Error("failed to persist charge id",
			zap.Int64("transaction_id", txnID),
			zap.String("charge_id", chargeID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) settle(ctx context.Context, txnID int64, status transactiondomain.Status, outcome *domain.Outcome, source string) (*transactiondomain.Response, error) {
	req := transactiondomain.UpdateStatusRequest{
		ID:     txnID,
		Status: status,
		Source: source,
	}
	if outcome.ChargeID != "" {
		req.ChargeID = &outcome.ChargeID
	}
	if outcome.FailureMessage != "" {
		req.FailureMessage = &outcome.FailureMessage
	}
	return s.txnSvc.UpdateStatus(ctx, req)
}
