package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pixelpay/topup/internal/audit"
	auditdomain "github.com/pixelpay/topup/internal/audit/domain"
	"github.com/pixelpay/topup/internal/catalog"
	catalogdomain "github.com/pixelpay/topup/internal/catalog/domain"
	"github.com/pixelpay/topup/internal/charge"
	chargedomain "github.com/pixelpay/topup/internal/charge/domain"
	"github.com/pixelpay/topup/internal/config"
	"github.com/pixelpay/topup/internal/news"
	newsdomain "github.com/pixelpay/topup/internal/news/domain"
	obsmetrics "github.com/pixelpay/topup/internal/observability/metrics"
	"github.com/pixelpay/topup/internal/promotion"
	promotiondomain "github.com/pixelpay/topup/internal/promotion/domain"
	"github.com/pixelpay/topup/internal/reconcile"
	"github.com/pixelpay/topup/internal/transaction"
	transactiondomain "github.com/pixelpay/topup/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	audit.Module,
	catalog.Module,
	promotion.Module,
	transaction.Module,
	charge.Module,
	news.Module,
	reconcile.Module,
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(m *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmetrics.GinMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	catalogSvc   catalogdomain.Service
	promotionSvc promotiondomain.Service
	txnSvc       transactiondomain.Service
	chargeSvc    chargedomain.Service
	newsSvc      newsdomain.Service
	auditSvc     auditdomain.Service
	reconciler   *reconcile.Poller
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	CatalogSvc   catalogdomain.Service
	PromotionSvc promotiondomain.Service
	TxnSvc       transactiondomain.Service
	ChargeSvc    chargedomain.Service
	NewsSvc      newsdomain.Service
	AuditSvc     auditdomain.Service
	Reconciler   *reconcile.Poller
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		catalogSvc:   p.CatalogSvc,
		promotionSvc: p.PromotionSvc,
		txnSvc:       p.TxnSvc,
		chargeSvc:    p.ChargeSvc,
		newsSvc:      p.NewsSvc,
		auditSvc:     p.AuditSvc,
		reconciler:   p.Reconciler,
	}

	s.registerPublicRoutes()
	s.registerAdminRoutes()
	s.registerWebhookRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api", IdentityContext())

	// -------- Catalog --------
	api.GET("/games", s.ListGames)
	api.GET("/games/:slug", s.GetGameBySlug)
	api.GET("/games/:slug/packages", s.ListGamePackages)

	// -------- News --------
	api.GET("/news", s.ListNews)
	api.GET("/news/:slug", s.GetNewsBySlug)

	// -------- Promotions --------
	api.POST("/promotions/validate", s.ValidatePromotion)

	// -------- Checkout & charges --------
	api.POST("/transactions", s.CreateTransaction)
	api.GET("/transactions/:id", s.GetTransaction)
	api.GET("/me/transactions", UserRequired(), s.ListMyTransactions)
	api.POST("/charges/card", s.ChargeCard)
	api.POST("/charges/source", s.ChargeSource)
	api.GET("/charges/:id", s.CheckChargeStatus)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin/api", IdentityContext(), AdminRequired())

	// -------- Catalog --------
	admin.GET("/games", s.AdminListGames)
	admin.POST("/games", s.CreateGame)
	admin.PATCH("/games/:id", s.UpdateGame)
	admin.DELETE("/games/:id", s.DeleteGame)
	admin.POST("/packages", s.CreatePackage)
	admin.PATCH("/packages/:id", s.UpdatePackage)
	admin.DELETE("/packages/:id", s.ArchivePackage)

	// -------- Promotions --------
	admin.GET("/promotions", s.ListPromotions)
	admin.POST("/promotions", s.CreatePromotion)
	admin.GET("/promotions/:id", s.GetPromotion)
	admin.PATCH("/promotions/:id", s.UpdatePromotion)
	admin.DELETE("/promotions/:id", s.ArchivePromotion)

	// -------- News --------
	admin.GET("/news", s.AdminListNews)
	admin.POST("/news", s.CreateNews)
	admin.PATCH("/news/:id", s.UpdateNews)
	admin.DELETE("/news/:id", s.DeleteNews)

	// -------- Transactions --------
	admin.GET("/transactions", s.AdminListTransactions)
	admin.PATCH("/transactions/:id/status", s.OverrideTransactionStatus)

	// -------- Operations --------
	admin.GET("/audit-logs", s.ListAuditLogs)
	admin.POST("/reconcile/run", s.RunReconcileSweep)
}

func (s *Server) registerWebhookRoutes() {
	// Provider webhooks carry no user identity and are verified by
	// re-fetching the charge from the provider, never trusted directly.
	s.engine.POST("/webhooks/payment", s.PaymentWebhook)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", srv.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
