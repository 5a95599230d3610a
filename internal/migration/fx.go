package migration

import (
	auditdomain "github.com/pixelpay/topup/internal/audit/domain"
	catalogdomain "github.com/pixelpay/topup/internal/catalog/domain"
	"github.com/pixelpay/topup/internal/config"
	newsdomain "github.com/pixelpay/topup/internal/news/domain"
	promotiondomain "github.com/pixelpay/topup/internal/promotion/domain"
	"github.com/pixelpay/topup/internal/seed"
	transactiondomain "github.com/pixelpay/topup/internal/transaction/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// The versioned SQL targets Postgres; other dialects are for
			// local development and get the schema from the models.
			err := conn.AutoMigrate(
				&catalogdomain.Game{},
				&catalogdomain.Package{},
				&promotiondomain.Promotion{},
				&transactiondomain.Transaction{},
				&newsdomain.Article{},
				&auditdomain.AuditLog{},
			)
			if err != nil {
				return err
			}
		}

		if cfg.SeedDemoCatalog {
			return seed.EnsureDemoCatalog(conn)
		}
		return nil
	}),
)
