package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	CreateGame(ctx context.Context, db *gorm.DB, game *Game) error
	FindGameByID(ctx context.Context, db *gorm.DB, id int64) (*Game, error)
	FindGameBySlug(ctx context.Context, db *gorm.DB, slug string) (*Game, error)
	ListGames(ctx context.Context, db *gorm.DB, activeOnly bool) ([]Game, error)
	UpdateGame(ctx context.Context, db *gorm.DB, game *Game) error
	DeleteGame(ctx context.Context, db *gorm.DB, id int64) error

	CreatePackage(ctx context.Context, db *gorm.DB, pkg *Package) error
	FindPackageByID(ctx context.Context, db *gorm.DB, id int64) (*Package, error)
	ListPackagesByGame(ctx context.Context, db *gorm.DB, gameID int64, activeOnly bool) ([]Package, error)
	UpdatePackage(ctx context.Context, db *gorm.DB, pkg *Package) error
}
