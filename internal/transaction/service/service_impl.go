package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/pixelpay/topup/internal/audit/domain"
	"github.com/pixelpay/topup/internal/authctx"
	catalogdomain "github.com/pixelpay/topup/internal/catalog/domain"
	"github.com/pixelpay/topup/internal/clock"
	obsmetrics "github.com/pixelpay/topup/internal/observability/metrics"
	promotiondomain "github.com/pixelpay/topup/internal/promotion/domain"
	promotionservice "github.com/pixelpay/topup/internal/promotion/service"
	"github.com/pixelpay/topup/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	CatalogRepo catalogdomain.Repository
	PromoSvc    promotiondomain.Service
	AuditSvc    auditdomain.Service
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	catalogRepo catalogdomain.Repository
	promoSvc    promotiondomain.Service
	auditSvc    auditdomain.Service
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("transaction.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
		promoSvc:    p.PromoSvc,
		auditSvc:    p.AuditSvc,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	gameID, err := snowflake.ParseString(strings.TrimSpace(req.GameID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	packageID, err := snowflake.ParseString(strings.TrimSpace(req.PackageID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	playerRef := strings.TrimSpace(req.PlayerRef)
	if playerRef == "" {
		return nil, domain.ErrInvalidPlayerRef
	}

	var promoCode *string
	if req.PromotionCode != nil {
		normalized := promotionservice.NormalizeCode(*req.PromotionCode)
		if normalized != "" {
			promoCode = &normalized
		}
	}

	var userID *int64
	if uid, ok := authctx.UserIDFromContext(ctx); ok {
		raw := uid.Int64()
		userID = &raw
	}

	var created *domain.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pkg, err := s.catalogRepo.FindPackageByID(ctx, tx, packageID.Int64())
		if err != nil {
			return err
		}
		if pkg == nil || pkg.GameID != gameID.Int64() {
			return domain.ErrPackageNotFound
		}
		if !pkg.Active {
			return domain.ErrPackageInactive
		}

		var rule *promotiondomain.DiscountRule
		if promoCode != nil {
			// Redeemed inside this transaction so a failed insert below
			// rolls the usage increment back with everything else.
			rule, err = s.promoSvc.Redeem(ctx, tx, *promoCode)
			if err != nil {
				return err
			}
		}

		amount := pkg.Price
		var discount int64
		if rule != nil {
			amount, discount = promotiondomain.PriceWithDiscount(pkg.Price, *rule)
		}

		// The client-supplied price is display-only. The server price is
		// what gets charged; a mismatch is logged and ignored.
		if req.RequestedPrice != nil && *req.RequestedPrice != amount {
			s.log.Warn("client price disagrees with server price",
				zap.Int64("client_price", *req.RequestedPrice),
				zap.Int64("server_price", amount),
				zap.Int64("package_id", pkg.ID),
			)
		}

		now := s.clock.Now()
		txn := &domain.Transaction{
			ID:            s.genID.Generate().Int64(),
			UserID:        userID,
			GameID:        pkg.GameID,
			PackageID:     pkg.ID,
			PackageName:   pkg.Name,
			PlayerRef:     playerRef,
			Amount:        amount,
			Discount:      discount,
			Currency:      pkg.Currency,
			Status:        domain.StatusPending,
			PromotionCode: promoCode,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Create(ctx, tx, txn); err != nil {
			return err
		}

		created = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.obsMetrics.RecordTransactionCreated(created.Currency, created.Discount > 0)
	s.log.Info("transaction created",
		zap.Int64("transaction_id", created.ID),
		zap.Int64("amount", created.Amount),
		zap.Int64("discount", created.Discount),
		zap.String("currency", created.Currency),
	)

	resp := toResponse(created)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	txnID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	txn, err := s.repo.FindByID(ctx, s.db, txnID.Int64())
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(txn)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListFilter{UserID: req.UserID, Limit: req.Limit}
	if req.Status != "" {
		status := domain.Status(strings.ToUpper(req.Status))
		if !status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
		filter.Status = &status
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}
	return resp, nil
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (*domain.Response, error) {
	if !req.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if req.Status == domain.StatusPending && !req.AdminOverride {
		return nil, domain.ErrInvalidStatus
	}

	txn, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, domain.ErrNotFound
	}

	now := s.clock.Now()

	if req.AdminOverride {
		if err := s.repo.OverrideStatus(ctx, s.db, req.ID, req.Status, req.ChargeID, now); err != nil {
			return nil, err
		}
		s.obsMetrics.RecordStatusTransition(string(req.Status), "admin")
		s.auditOverride(ctx, txn, req.Status)
	} else {
		if txn.Status != domain.StatusPending {
			s.log.Warn("ignoring status update on settled transaction",
				zap.Int64("transaction_id", txn.ID),
				zap.String("current", string(txn.Status)),
				zap.String("requested", string(req.Status)),
				zap.String("source", req.Source),
			)
			resp := toResponse(txn)
			return &resp, nil
		}

		applied, err := s.repo.UpdateStatusIfPending(ctx, s.db, req.ID, req.Status, req.ChargeID, req.FailureMessage, now)
		if err != nil {
			return nil, err
		}
		if applied {
			s.obsMetrics.RecordStatusTransition(string(req.Status), req.Source)
			s.log.Info("transaction status updated",
				zap.Int64("transaction_id", txn.ID),
				zap.String("status", string(req.Status)),
				zap.String("source", req.Source),
			)
		}
	}

	updated, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(updated)
	return &resp, nil
}

func (s *Service) AttachCharge(ctx context.Context, id int64, chargeID string) error {
	return s.repo.AttachCharge(ctx, s.db, id, chargeID, s.clock.Now())
}

func (s *Service) GetModel(ctx context.Context, id int64) (*domain.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, domain.ErrNotFound
	}
	return txn, nil
}

func (s *Service) GetModelByChargeID(ctx context.Context, chargeID string) (*domain.Transaction, error) {
	txn, err := s.repo.FindByChargeID(ctx, s.db, chargeID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, domain.ErrNotFound
	}
	return txn, nil
}

func (s *Service) ListPendingForReconcile(ctx context.Context, olderThan time.Time, limit int) ([]domain.Transaction, error) {
	return s.repo.ListPendingWithCharge(ctx, s.db, olderThan, limit)
}

func (s *Service) auditOverride(ctx context.Context, txn *domain.Transaction, to domain.Status) {
	if s.auditSvc == nil {
		return
	}

	var actorID *string
	if uid, ok := authctx.UserIDFromContext(ctx); ok {
		str := uid.String()
		actorID = &str
	}

	target := snowflake.ID(txn.ID).String()
	err := s.auditSvc.AuditLog(ctx, auditdomain.ActorTypeAdmin, actorID, "transaction.status_overridden", "transaction", &target, map[string]any{
		"from": string(txn.Status),
		"to":   string(to),
	})
	if err != nil {
		s.log.Warn("failed to write transaction audit log", zap.Error(err))
	}
}

func toResponse(txn *domain.Transaction) domain.Response {
	resp := domain.Response{
		ID:             snowflake.ID(txn.ID).String(),
		GameID:         snowflake.ID(txn.GameID).String(),
		PackageID:      snowflake.ID(txn.PackageID).String(),
		PackageName:    txn.PackageName,
		PlayerRef:      txn.PlayerRef,
		Amount:         txn.Amount,
		Discount:       txn.Discount,
		Currency:       txn.Currency,
		Status:         txn.Status,
		PromotionCode:  txn.PromotionCode,
		ChargeID:       txn.ChargeID,
		FailureMessage: txn.FailureMessage,
		CreatedAt:      txn.CreatedAt,
		UpdatedAt:      txn.UpdatedAt,
	}
	if txn.UserID != nil {
		str := snowflake.ID(*txn.UserID).String()
		resp.UserID = &str
	}
	return resp
}
