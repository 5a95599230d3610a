package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/pixelpay/topup/internal/audit/domain"
	"github.com/pixelpay/topup/internal/clock"
	"github.com/pixelpay/topup/internal/promotion/domain"
	promotionrepo "github.com/pixelpay/topup/internal/promotion/repository"
	promotionservice "github.com/pixelpay/topup/internal/promotion/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type noopAuditService struct{}

func (noopAuditService) AuditLog(ctx context.Context, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	return nil
}

func (noopAuditService) List(ctx context.Context, req auditdomain.ListRequest) ([]auditdomain.AuditLog, error) {
	return nil, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	// A single connection serializes concurrent writers; shared-cache
	// sqlite returns table-lock errors otherwise.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE promotions (
			id BIGINT PRIMARY KEY,
			code TEXT,
			title TEXT NOT NULL,
			discount_type TEXT NOT NULL,
			discount_value BIGINT NOT NULL,
			usage_limit BIGINT,
			usage_count BIGINT NOT NULL DEFAULT 0,
			expires_at TIMESTAMP,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_promotions_code ON promotions(code)`,
	}

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema exec failed: %v", err)
		}
	}

	return db
}

func newTestService(t *testing.T, db *gorm.DB, clk clock.Clock) domain.Service {
	t.Helper()

	node, err := snowflake.NewNode(7)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	return promotionservice.NewService(promotionservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Repo:     promotionrepo.Provide(),
		AuditSvc: noopAuditService{},
	})
}

type seedPromotion struct {
	code       *string
	title      string
	kind       domain.DiscountType
	value      int64
	usageLimit *int64
	usageCount int64
	expiresAt  *time.Time
	active     bool
}

func seedPromo(t *testing.T, db *gorm.DB, id int64, p seedPromotion) {
	t.Helper()

	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO promotions (id, code, title, discount_type, discount_value, usage_limit, usage_count, expires_at, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.code, p.title, p.kind, p.value, p.usageLimit, p.usageCount, p.expiresAt, p.active, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed promotion: %v", err)
	}
}

func usageCount(t *testing.T, db *gorm.DB, id int64) int64 {
	t.Helper()

	var count int64
	if err := db.Raw("SELECT usage_count FROM promotions WHERE id = ?", id).Scan(&count).Error; err != nil {
		t.Fatalf("read usage_count: %v", err)
	}
	return count
}

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }

func TestRedeemConsumesOneUse(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, db, clk)

	seedPromo(t, db, 100, seedPromotion{
		code:       strPtr("SAVE10"),
		title:      "10% off",
		kind:       domain.DiscountTypePercent,
		value:      10,
		usageLimit: i64Ptr(5),
		usageCount: 4,
		active:     true,
	})

	rule, err := svc.Redeem(ctx, nil, "save10")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if rule.Type != domain.DiscountTypePercent || rule.Value != 10 {
		t.Fatalf("unexpected rule: %+v", rule)
	}

	final, discount := domain.PriceWithDiscount(10000, *rule)
	if final != 9000 || discount != 1000 {
		t.Fatalf("expected 9000/1000, got %d/%d", final, discount)
	}

	if got := usageCount(t, db, 100); got != 5 {
		t.Fatalf("expected usage_count 5, got %d", got)
	}

	if _, err := svc.Redeem(ctx, nil, "SAVE10"); err != domain.ErrUsageExceeded {
		t.Fatalf("expected ErrUsageExceeded, got %v", err)
	}
}

func TestValidateDoesNotConsumeUsage(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, db, clk)

	seedPromo(t, db, 200, seedPromotion{
		code:       strPtr("FLAT50"),
		title:      "50 baht off",
		kind:       domain.DiscountTypeFixed,
		value:      5000,
		usageLimit: i64Ptr(1),
		active:     true,
	})

	for i := 0; i < 3; i++ {
		if _, err := svc.Validate(ctx, "FLAT50"); err != nil {
			t.Fatalf("validate %d: %v", i, err)
		}
	}

	if got := usageCount(t, db, 200); got != 0 {
		t.Fatalf("validate must not consume usage, got count %d", got)
	}
}

func TestRedeemRejections(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)
	svc := newTestService(t, db, clk)

	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	seedPromo(t, db, 301, seedPromotion{
		code: strPtr("GONE"), title: "expired", kind: domain.DiscountTypeFixed, value: 100,
		expiresAt: &past, active: true,
	})
	seedPromo(t, db, 302, seedPromotion{
		code: strPtr("SOON"), title: "still valid", kind: domain.DiscountTypeFixed, value: 100,
		expiresAt: &future, active: true,
	})
	seedPromo(t, db, 303, seedPromotion{
		code: strPtr("OFF"), title: "disabled", kind: domain.DiscountTypeFixed, value: 100,
		active: false,
	})
	seedPromo(t, db, 304, seedPromotion{
		code: strPtr("DONE"), title: "exhausted", kind: domain.DiscountTypeFixed, value: 100,
		usageLimit: i64Ptr(2), usageCount: 2, active: true,
	})

	if _, err := svc.Redeem(ctx, nil, "GONE"); err != domain.ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if _, err := svc.Redeem(ctx, nil, "SOON"); err != nil {
		t.Fatalf("future expiry should redeem: %v", err)
	}
	if _, err := svc.Redeem(ctx, nil, "OFF"); err != domain.ErrInactive {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
	if _, err := svc.Redeem(ctx, nil, "DONE"); err != domain.ErrUsageExceeded {
		t.Fatalf("expected ErrUsageExceeded, got %v", err)
	}
	if _, err := svc.Redeem(ctx, nil, "NOPE"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Redeem(ctx, nil, "  "); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for blank code, got %v", err)
	}
}

func TestConcurrentRedeemLastUse(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, db, clk)

	seedPromo(t, db, 400, seedPromotion{
		code:       strPtr("LAST1"),
		title:      "one left",
		kind:       domain.DiscountTypeFixed,
		value:      500,
		usageLimit: i64Ptr(1),
		active:     true,
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Redeem(ctx, nil, "LAST1")
		}(i)
	}
	wg.Wait()

	var successes, exceeded int
	for _, err := range errs {
		switch err {
		case nil:
			successes++
		case domain.ErrUsageExceeded:
			exceeded++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || exceeded != 1 {
		t.Fatalf("expected exactly one winner, got %d successes / %d exceeded", successes, exceeded)
	}
	if got := usageCount(t, db, 400); got != 1 {
		t.Fatalf("expected usage_count 1, got %d", got)
	}
}

func TestRedeemRollsBackWithCallerTx(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, db, clk)

	seedPromo(t, db, 500, seedPromotion{
		code:       strPtr("UNDO"),
		title:      "rolled back",
		kind:       domain.DiscountTypeFixed,
		value:      500,
		usageLimit: i64Ptr(3),
		active:     true,
	})

	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin: %v", tx.Error)
	}
	if _, err := svc.Redeem(ctx, tx, "UNDO"); err != nil {
		t.Fatalf("redeem in tx: %v", err)
	}
	if err := tx.Rollback().Error; err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if got := usageCount(t, db, 500); got != 0 {
		t.Fatalf("rollback must restore usage_count, got %d", got)
	}
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, db, clk)

	req := domain.CreateRequest{
		Code:         strPtr("launch20"),
		Title:        "Launch promo",
		DiscountType: "percent",
		Value:        20,
	}
	created, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Code == nil || *created.Code != "LAUNCH20" {
		t.Fatalf("code should be stored uppercase, got %+v", created.Code)
	}

	req.Code = strPtr("LAUNCH20")
	if _, err := svc.Create(ctx, req); err != domain.ErrCodeTaken {
		t.Fatalf("expected ErrCodeTaken, got %v", err)
	}
}

func TestBannerOnlyPromotionHasNoCode(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, db, clk)

	first, err := svc.Create(ctx, domain.CreateRequest{Title: "Banner one", DiscountType: "FIXED", Value: 100})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if first.Code != nil {
		t.Fatalf("banner promotion must have nil code, got %q", *first.Code)
	}

	// Two codeless promotions must coexist under the unique index.
	if _, err := svc.Create(ctx, domain.CreateRequest{Title: "Banner two", DiscountType: "FIXED", Value: 200}); err != nil {
		t.Fatalf("create second: %v", err)
	}
}
