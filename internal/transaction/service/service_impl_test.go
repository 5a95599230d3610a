package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/pixelpay/topup/internal/audit/domain"
	"github.com/pixelpay/topup/internal/authctx"
	catalogrepo "github.com/pixelpay/topup/internal/catalog/repository"
	"github.com/pixelpay/topup/internal/clock"
	promotionrepo "github.com/pixelpay/topup/internal/promotion/repository"
	promotionservice "github.com/pixelpay/topup/internal/promotion/service"
	"github.com/pixelpay/topup/internal/transaction/domain"
	transactionrepo "github.com/pixelpay/topup/internal/transaction/repository"
	transactionservice "github.com/pixelpay/topup/internal/transaction/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type recordingAuditService struct {
	actions []string
}

func (r *recordingAuditService) AuditLog(ctx context.Context, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	r.actions = append(r.actions, action)
	return nil
}

func (r *recordingAuditService) List(ctx context.Context, req auditdomain.ListRequest) ([]auditdomain.AuditLog, error) {
	return nil, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE packages (
			id BIGINT PRIMARY KEY,
			game_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			price BIGINT NOT NULL,
			currency TEXT NOT NULL,
			bonus TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
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
		`CREATE TABLE transactions (
			id BIGINT PRIMARY KEY,
			user_id BIGINT,
			game_id BIGINT NOT NULL,
			package_id BIGINT NOT NULL,
			package_name TEXT NOT NULL,
			player_ref TEXT NOT NULL,
			amount BIGINT NOT NULL,
			discount BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			promotion_code TEXT,
			charge_id TEXT,
			failure_message TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema exec failed: %v", err)
		}
	}

	return db
}

type testEnv struct {
	db    *gorm.DB
	clk   *clock.FakeClock
	svc   domain.Service
	audit *recordingAuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	audit := &recordingAuditService{}

	node, err := snowflake.NewNode(8)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	promoSvc := promotionservice.NewService(promotionservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Repo:     promotionrepo.Provide(),
		AuditSvc: audit,
	})

	svc := transactionservice.NewService(transactionservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        transactionrepo.Provide(),
		CatalogRepo: catalogrepo.Provide(),
		PromoSvc:    promoSvc,
		AuditSvc:    audit,
	})

	return &testEnv{db: db, clk: clk, svc: svc, audit: audit}
}

func (e *testEnv) seedPackage(t *testing.T, id, gameID, price int64, active bool) {
	t.Helper()

	now := time.Now().UTC()
	err := e.db.Exec(
		`INSERT INTO packages (id, game_id, name, price, currency, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, gameID, "1000 Gems", price, "THB", active, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed package: %v", err)
	}
}

func (e *testEnv) seedPromo(t *testing.T, id int64, code string, kind string, value int64, usageLimit, usageCount int64) {
	t.Helper()

	now := time.Now().UTC()
	err := e.db.Exec(
		`INSERT INTO promotions (id, code, title, discount_type, discount_value, usage_limit, usage_count, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, code, code, kind, value, usageLimit, usageCount, true, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed promotion: %v", err)
	}
}

func (e *testEnv) promoUsage(t *testing.T, id int64) int64 {
	t.Helper()

	var count int64
	if err := e.db.Raw("SELECT usage_count FROM promotions WHERE id = ?", id).Scan(&count).Error; err != nil {
		t.Fatalf("read usage_count: %v", err)
	}
	return count
}

func (e *testEnv) transactionCount(t *testing.T) int64 {
	t.Helper()

	var count int64
	if err := e.db.Raw("SELECT COUNT(*) FROM transactions").Scan(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return count
}

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }

func TestCreateWithFixedPromotionRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.seedPackage(t, 10, 1, 200, true)
	env.seedPromo(t, 20, "FLAT50", "FIXED", 50, 100, 0)

	created, err := env.svc.Create(ctx, domain.CreateRequest{
		GameID:        "1",
		PackageID:     "10",
		PlayerRef:     "player-77",
		PromotionCode: strPtr("FLAT50"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Amount != 150 || created.Discount != 50 {
		t.Fatalf("expected 150/50, got %d/%d", created.Amount, created.Discount)
	}
	if created.Status != domain.StatusPending {
		t.Fatalf("expected PENDING, got %s", created.Status)
	}
	if created.Currency != "THB" {
		t.Fatalf("currency must be copied from package, got %s", created.Currency)
	}

	txnID, err := snowflake.ParseString(created.ID)
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}

	chargeID := "chrg_test_1"
	updated, err := env.svc.UpdateStatus(ctx, domain.UpdateStatusRequest{
		ID:       txnID.Int64(),
		Status:   domain.StatusCompleted,
		ChargeID: &chargeID,
		Source:   "card",
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", updated.Status)
	}
	if updated.ChargeID == nil || *updated.ChargeID != chargeID {
		t.Fatalf("charge id not recorded: %+v", updated.ChargeID)
	}
}

func TestCreateSaveTenScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// 100 THB in satang; SAVE10 is PERCENT/10 with one use left.
	env.seedPackage(t, 10, 1, 10000, true)
	env.seedPromo(t, 30, "SAVE10", "PERCENT", 10, 5, 4)

	created, err := env.svc.Create(ctx, domain.CreateRequest{
		GameID:        "1",
		PackageID:     "10",
		PlayerRef:     "player-1",
		PromotionCode: strPtr("SAVE10"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Amount != 9000 || created.Discount != 1000 {
		t.Fatalf("expected 9000/1000, got %d/%d", created.Amount, created.Discount)
	}
	if got := env.promoUsage(t, 30); got != 5 {
		t.Fatalf("expected usage_count 5, got %d", got)
	}

	_, err = env.svc.Create(ctx, domain.CreateRequest{
		GameID:        "1",
		PackageID:     "10",
		PlayerRef:     "player-2",
		PromotionCode: strPtr("SAVE10"),
	})
	if err == nil {
		t.Fatal("expected exhausted promotion to fail checkout")
	}
	if env.transactionCount(t) != 1 {
		t.Fatalf("failed checkout must not create a transaction, have %d", env.transactionCount(t))
	}
	if got := env.promoUsage(t, 30); got != 5 {
		t.Fatalf("failed checkout must not consume usage, got %d", got)
	}
}

func TestCreateIgnoresClientPrice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.seedPackage(t, 10, 1, 10000, true)

	created, err := env.svc.Create(ctx, domain.CreateRequest{
		GameID:         "1",
		PackageID:      "10",
		PlayerRef:      "player-1",
		RequestedPrice: i64Ptr(1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Amount != 10000 {
		t.Fatalf("server price is authoritative, got %d", created.Amount)
	}
}

func TestCreatePackageLookupFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.seedPackage(t, 10, 1, 10000, true)
	env.seedPackage(t, 11, 1, 10000, false)

	if _, err := env.svc.Create(ctx, domain.CreateRequest{GameID: "1", PackageID: "99", PlayerRef: "p"}); err != domain.ErrPackageNotFound {
		t.Fatalf("expected ErrPackageNotFound, got %v", err)
	}
	if _, err := env.svc.Create(ctx, domain.CreateRequest{GameID: "2", PackageID: "10", PlayerRef: "p"}); err != domain.ErrPackageNotFound {
		t.Fatalf("package under wrong game must be not found, got %v", err)
	}
	if _, err := env.svc.Create(ctx, domain.CreateRequest{GameID: "1", PackageID: "11", PlayerRef: "p"}); err != domain.ErrPackageInactive {
		t.Fatalf("expected ErrPackageInactive, got %v", err)
	}
	if _, err := env.svc.Create(ctx, domain.CreateRequest{GameID: "1", PackageID: "10", PlayerRef: "   "}); err != domain.ErrInvalidPlayerRef {
		t.Fatalf("expected ErrInvalidPlayerRef, got %v", err)
	}
}

func TestUpdateStatusIdempotencyGuard(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.seedPackage(t, 10, 1, 10000, true)
	created, err := env.svc.Create(ctx, domain.CreateRequest{GameID: "1", PackageID: "10", PlayerRef: "p"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	txnID, _ := snowflake.ParseString(created.ID)

	chargeID := "chrg_idem"
	first, err := env.svc.UpdateStatus(ctx, domain.UpdateStatusRequest{
		ID: txnID.Int64(), Status: domain.StatusCompleted, ChargeID: &chargeID, Source: "reconcile",
	})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}

	env.clk.Advance(time.Minute)
	second, err := env.svc.UpdateStatus(ctx, domain.UpdateStatusRequest{
		ID: txnID.Int64(), Status: domain.StatusCompleted, ChargeID: &chargeID, Source: "reconcile",
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if second.Status != domain.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", second.Status)
	}
	if !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("repeat update must be a no-op, updated_at moved %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}

	// A settled transaction ignores a conflicting non-admin transition.
	demoted, err := env.svc.UpdateStatus(ctx, domain.UpdateStatusRequest{
		ID: txnID.Int64(), Status: domain.StatusFailed, Source: "webhook",
	})
	if err != nil {
		t.Fatalf("conflicting update: %v", err)
	}
	if demoted.Status != domain.StatusCompleted {
		t.Fatalf("settled status must not change, got %s", demoted.Status)
	}
}

func TestUpdateStatusAdminOverride(t *testing.T) {
	env := newTestEnv(t)
	adminID := snowflake.ID(42)
	ctx := authctx.WithIdentity(context.Background(), authctx.Identity{UserID: &adminID, IsAdmin: true})

	env.seedPackage(t, 10, 1, 10000, true)
	created, err := env.svc.Create(ctx, domain.CreateRequest{GameID: "1", PackageID: "10", PlayerRef: "p"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	txnID, _ := snowflake.ParseString(created.ID)

	if _, err := env.svc.UpdateStatus(ctx, domain.UpdateStatusRequest{
		ID: txnID.Int64(), Status: domain.StatusFailed, Source: "card",
	}); err != nil {
		t.Fatalf("fail transaction: %v", err)
	}

	overridden, err := env.svc.UpdateStatus(ctx, domain.UpdateStatusRequest{
		ID: txnID.Int64(), Status: domain.StatusCompleted, Source: "admin", AdminOverride: true,
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if overridden.Status != domain.StatusCompleted {
		t.Fatalf("override must apply, got %s", overridden.Status)
	}

	var found bool
	for _, action := range env.audit.actions {
		if action == "transaction.status_overridden" {
			found = true
		}
	}
	if !found {
		t.Fatalf("override must be audited, actions: %v", env.audit.actions)
	}

	if _, err := env.svc.UpdateStatus(context.Background(), domain.UpdateStatusRequest{ID: 999999, Status: domain.StatusCompleted}); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPendingForReconcile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.seedPackage(t, 10, 1, 10000, true)

	mkTxn := func(player string) int64 {
		created, err := env.svc.Create(ctx, domain.CreateRequest{GameID: "1", PackageID: "10", PlayerRef: player})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		id, _ := snowflake.ParseString(created.ID)
		return id.Int64()
	}

	withCharge := mkTxn("a")
	noCharge := mkTxn("b")
	settled := mkTxn("c")

	if err := env.svc.AttachCharge(ctx, withCharge, "chrg_a"); err != nil {
		t.Fatalf("attach charge: %v", err)
	}
	if err := env.svc.AttachCharge(ctx, settled, "chrg_c"); err != nil {
		t.Fatalf("attach charge: %v", err)
	}
	if _, err := env.svc.UpdateStatus(ctx, domain.UpdateStatusRequest{ID: settled, Status: domain.StatusCompleted, Source: "card"}); err != nil {
		t.Fatalf("settle: %v", err)
	}

	env.clk.Advance(time.Hour)
	pending, err := env.svc.ListPendingForReconcile(ctx, env.clk.Now().Add(-time.Minute), 100)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != withCharge {
		t.Fatalf("expected only the pending charged transaction, got %+v", pending)
	}
	_ = noCharge
}
