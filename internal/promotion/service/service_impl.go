package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/pixelpay/topup/internal/audit/domain"
	"github.com/pixelpay/topup/internal/clock"
	obsmetrics "github.com/pixelpay/topup/internal/observability/metrics"
	"github.com/pixelpay/topup/internal/promotion/domain"
	"github.com/pixelpay/topup/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	AuditSvc   auditdomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	auditSvc   auditdomain.Service
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("promotion.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		auditSvc:   p.AuditSvc,
		obsMetrics: p.ObsMetrics,
	}
}

// NormalizeCode maps user input onto the stored representation. Codes are
// stored uppercase; lookups must apply the same mapping.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Service) Validate(ctx context.Context, code string) (*domain.DiscountRule, error) {
	promo, err := s.lookup(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	rule := domain.DiscountRule{Type: promo.DiscountType, Value: promo.Value}
	return &rule, nil
}

func (s *Service) Redeem(ctx context.Context, tx *gorm.DB, code string) (*domain.DiscountRule, error) {
	conn := tx
	if conn == nil {
		conn = s.db
	}

	promo, err := s.lookup(ctx, conn, code)
	if err != nil {
		s.recordRedeem(err.Error())
		return nil, err
	}

	ok, err := s.repo.IncrementUsage(ctx, conn, promo.ID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		// The pre-read passed but the conditional update matched nothing:
		// a concurrent redemption took the last use.
		s.recordRedeem("usage_exceeded_concurrent")
		return nil, domain.ErrUsageExceeded
	}

	s.recordRedeem("success")
	rule := domain.DiscountRule{Type: promo.DiscountType, Value: promo.Value}
	return &rule, nil
}

// lookup runs the shared validation chain for Validate and Redeem.
// Order matters for error reporting: existence, active, expiry, usage.
func (s *Service) lookup(ctx context.Context, conn *gorm.DB, code string) (*domain.Promotion, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, domain.ErrNotFound
	}

	promo, err := s.repo.FindByCode(ctx, conn, normalized)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, domain.ErrNotFound
	}
	if !promo.Active {
		return nil, domain.ErrInactive
	}
	if promo.ExpiresAt != nil && !promo.ExpiresAt.After(s.clock.Now()) {
		return nil, domain.ErrExpired
	}
	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return nil, domain.ErrUsageExceeded
	}
	return promo, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	discountType := domain.DiscountType(strings.ToUpper(strings.TrimSpace(req.DiscountType)))
	switch discountType {
	case domain.DiscountTypeFixed, domain.DiscountTypePercent:
	default:
		return nil, domain.ErrInvalidType
	}
	if req.Value < 0 {
		return nil, domain.ErrInvalidValue
	}
	if req.UsageLimit != nil && *req.UsageLimit < 0 {
		return nil, domain.ErrInvalidValue
	}

	var codePtr *string
	if req.Code != nil {
		normalized := NormalizeCode(*req.Code)
		if normalized != "" {
			codePtr = &normalized
		}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	promo := &domain.Promotion{
		ID:           s.genID.Generate().Int64(),
		Code:         codePtr,
		Title:        title,
		DiscountType: discountType,
		Value:        req.Value,
		UsageLimit:   req.UsageLimit,
		ExpiresAt:    req.ExpiresAt,
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, s.db, promo); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCodeTaken
		}
		return nil, err
	}

	s.audit(ctx, "promotion.created", promo.ID, map[string]any{
		"title": title,
		"type":  string(discountType),
		"value": req.Value,
	})
	resp := toResponse(promo)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, activeOnly)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	promoID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, promoID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	promoID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, promoID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		item.Title = title
	}
	if req.Value != nil {
		if *req.Value < 0 {
			return nil, domain.ErrInvalidValue
		}
		item.Value = *req.Value
	}
	if req.UsageLimit != nil {
		if *req.UsageLimit < 0 {
			return nil, domain.ErrInvalidValue
		}
		item.UsageLimit = req.UsageLimit
	}
	if req.ExpiresAt != nil {
		item.ExpiresAt = req.ExpiresAt
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.audit(ctx, "promotion.updated", item.ID, map[string]any{"title": item.Title})
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Archive(ctx context.Context, id string) (*domain.Response, error) {
	promoID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, promoID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	item.Active = false
	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.audit(ctx, "promotion.archived", item.ID, nil)
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) audit(ctx context.Context, action string, targetID int64, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	target := snowflake.ID(targetID).String()
	if err := s.auditSvc.AuditLog(ctx, auditdomain.ActorTypeAdmin, nil, action, "promotion", &target, metadata); err != nil {
		s.log.Warn("failed to write promotion audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) recordRedeem(result string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordPromotionRedeem(result)
	}
}

func toResponse(p *domain.Promotion) domain.Response {
	return domain.Response{
		ID:           snowflake.ID(p.ID).String(),
		Code:         p.Code,
		Title:        p.Title,
		DiscountType: string(p.DiscountType),
		Value:        p.Value,
		UsageLimit:   p.UsageLimit,
		UsageCount:   p.UsageCount,
		ExpiresAt:    p.ExpiresAt,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
