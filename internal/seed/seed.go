package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/pixelpay/topup/internal/catalog/domain"
	promotiondomain "github.com/pixelpay/topup/internal/promotion/domain"
	"gorm.io/gorm"
)

const (
	demoGameName  = "Starfall Odyssey"
	demoGameSlug  = "starfall-odyssey"
	demoPromoCode = "WELCOME10"
)

// EnsureDemoCatalog seeds a demo game, packages, and a welcome
// promotion so a fresh install has something to sell. Idempotent:
// keyed on the demo game slug.
func EnsureDemoCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing catalogdomain.Game
		err := tx.Where("slug = ?", demoGameSlug).Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != 0 {
			return nil
		}

		now := time.Now().UTC()
		game := catalogdomain.Game{
			ID:        node.Generate().Int64(),
			Name:      demoGameName,
			Slug:      demoGameSlug,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&game).Error; err != nil {
			return err
		}

		packages := []catalogdomain.Package{
			{ID: node.Generate().Int64(), GameID: game.ID, Name: "100 Starstones", Price: 3500, Currency: "THB", Active: true, CreatedAt: now, UpdatedAt: now},
			{ID: node.Generate().Int64(), GameID: game.ID, Name: "550 Starstones", Price: 17900, Currency: "THB", Active: true, CreatedAt: now, UpdatedAt: now},
			{ID: node.Generate().Int64(), GameID: game.ID, Name: "1200 Starstones", Price: 34900, Currency: "THB", Active: true, CreatedAt: now, UpdatedAt: now},
		}
		if err := tx.Create(&packages).Error; err != nil {
			return err
		}

		code := demoPromoCode
		limit := int64(100)
		promo := promotiondomain.Promotion{
			ID:           node.Generate().Int64(),
			Code:         &code,
			Title:        "10% off your first top-up",
			DiscountType: promotiondomain.DiscountTypePercent,
			Value:        10,
			UsageLimit:   &limit,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Create(&promo).Error
	})
}
