package reconcile_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/pixelpay/topup/internal/audit/domain"
	catalogrepo "github.com/pixelpay/topup/internal/catalog/repository"
	"github.com/pixelpay/topup/internal/charge"
	chargeservice "github.com/pixelpay/topup/internal/charge/service"
	"github.com/pixelpay/topup/internal/clock"
	"github.com/pixelpay/topup/internal/config"
	promotionrepo "github.com/pixelpay/topup/internal/promotion/repository"
	promotionservice "github.com/pixelpay/topup/internal/promotion/service"
	"github.com/pixelpay/topup/internal/reconcile"
	transactiondomain "github.com/pixelpay/topup/internal/transaction/domain"
	transactionrepo "github.com/pixelpay/topup/internal/transaction/repository"
	transactionservice "github.com/pixelpay/topup/internal/transaction/service"
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

func TestSweepSettlesAgedPendingCharges(t *testing.T) {
	ctx := context.Background()

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

	var getCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		getCalls.Add(1)
		_, _ = w.Write([]byte(`{"id":"chrg_sweep_1","status":"successful","paid":true}`))
	}))
	defer srv.Close()

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(11)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	promoSvc := promotionservice.NewService(promotionservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: clk,
		Repo: promotionrepo.Provide(), AuditSvc: noopAuditService{},
	})
	txnSvc := transactionservice.NewService(transactionservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: clk,
		Repo:        transactionrepo.Provide(),
		CatalogRepo: catalogrepo.Provide(),
		PromoSvc:    promoSvc,
		AuditSvc:    noopAuditService{},
	})

	cfg := config.Config{
		Payment: config.PaymentConfig{
			Provider:  "opn",
			BaseURL:   srv.URL,
			SecretKey: "skey_test",
			Timeout:   2 * time.Second,
		},
		Reconcile: config.ReconcileConfig{
			Enabled:     true,
			Interval:    time.Minute,
			GracePeriod: 2 * time.Minute,
			BatchSize:   50,
		},
	}

	chargeSvc, err := chargeservice.NewService(chargeservice.Params{
		Log: zap.NewNop(), Cfg: cfg,
		Registry: charge.NewAdapterRegistry(),
		TxnSvc:   txnSvc,
	})
	if err != nil {
		t.Fatalf("new charge service: %v", err)
	}

	poller := reconcile.New(reconcile.Params{
		Log: zap.NewNop(), Cfg: cfg, Clock: clk,
		TxnSvc: txnSvc, ChargeSvc: chargeSvc,
	})

	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO packages (id, game_id, name, price, currency, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		10, 1, "1000 Gems", 15000, "THB", true, now, now,
	).Error; err != nil {
		t.Fatalf("seed package: %v", err)
	}

	mkTxn := func(player string) int64 {
		created, err := txnSvc.Create(ctx, transactiondomain.CreateRequest{
			GameID: "1", PackageID: "10", PlayerRef: player,
		})
		if err != nil {
			t.Fatalf("create transaction: %v", err)
		}
		id, _ := snowflake.ParseString(created.ID)
		return id.Int64()
	}

	aged := mkTxn("aged")
	uncharged := mkTxn("uncharged")
	if err := txnSvc.AttachCharge(ctx, aged, "chrg_sweep_1"); err != nil {
		t.Fatalf("attach charge: %v", err)
	}

	// Inside the grace period nothing is eligible yet.
	settled, err := poller.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if settled != 0 {
		t.Fatalf("expected no settlements inside grace period, got %d", settled)
	}

	clk.Advance(10 * time.Minute)

	settled, err = poller.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if settled != 1 {
		t.Fatalf("expected 1 settlement, got %d", settled)
	}

	agedTxn, err := txnSvc.GetModel(ctx, aged)
	if err != nil {
		t.Fatalf("load aged: %v", err)
	}
	if agedTxn.Status != transactiondomain.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", agedTxn.Status)
	}

	unchargedTxn, err := txnSvc.GetModel(ctx, uncharged)
	if err != nil {
		t.Fatalf("load uncharged: %v", err)
	}
	if unchargedTxn.Status != transactiondomain.StatusPending {
		t.Fatalf("transaction without charge must stay PENDING, got %s", unchargedTxn.Status)
	}

	// Settled rows drop out of later sweeps entirely.
	fetchesBefore := getCalls.Load()
	if _, err := poller.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if getCalls.Load() != fetchesBefore {
		t.Fatalf("settled transactions must not be re-polled")
	}
}
