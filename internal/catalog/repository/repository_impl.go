package repository

import (
	"context"

	"github.com/pixelpay/topup/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateGame(ctx context.Context, db *gorm.DB, game *domain.Game) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO games (id, name, slug, image_url, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		game.ID,
		game.Name,
		game.Slug,
		game.ImageURL,
		game.Active,
		game.CreatedAt,
		game.UpdatedAt,
	).Error
}

func (r *repo) FindGameByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Game, error) {
	var g domain.Game
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, image_url, active, created_at, updated_at
		 FROM games WHERE id = ?`,
		id,
	).Scan(&g).Error
	if err != nil {
		return nil, err
	}
	if g.ID == 0 {
		return nil, nil
	}
	return &g, nil
}

func (r *repo) FindGameBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Game, error) {
	var g domain.Game
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, image_url, active, created_at, updated_at
		 FROM games WHERE slug = ?`,
		slug,
	).Scan(&g).Error
	if err != nil {
		return nil, err
	}
	if g.ID == 0 {
		return nil, nil
	}
	return &g, nil
}

func (r *repo) ListGames(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.Game, error) {
	stmt := db.WithContext(ctx).Model(&domain.Game{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}

	var items []domain.Game
	if err := stmt.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateGame(ctx context.Context, db *gorm.DB, game *domain.Game) error {
	return db.WithContext(ctx).Exec(
		`UPDATE games
		 SET name = ?, image_url = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		game.Name,
		game.ImageURL,
		game.Active,
		game.UpdatedAt,
		game.ID,
	).Error
}

func (r *repo) DeleteGame(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(`DELETE FROM games WHERE id = ?`, id).Error
}

func (r *repo) CreatePackage(ctx context.Context, db *gorm.DB, pkg *domain.Package) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO packages (id, game_id, name, price, currency, bonus, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pkg.ID,
		pkg.GameID,
		pkg.Name,
		pkg.Price,
		pkg.Currency,
		pkg.Bonus,
		pkg.Active,
		pkg.CreatedAt,
		pkg.UpdatedAt,
	).Error
}

func (r *repo) FindPackageByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Package, error) {
	var p domain.Package
	err := db.WithContext(ctx).Raw(
		`SELECT id, game_id, name, price, currency, bonus, active, created_at, updated_at
		 FROM packages WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) ListPackagesByGame(ctx context.Context, db *gorm.DB, gameID int64, activeOnly bool) ([]domain.Package, error) {
	stmt := db.WithContext(ctx).Model(&domain.Package{}).Where("game_id = ?", gameID)
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}

	var items []domain.Package
	if err := stmt.Order("price ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdatePackage(ctx context.Context, db *gorm.DB, pkg *domain.Package) error {
	return db.WithContext(ctx).Exec(
		`UPDATE packages
		 SET name = ?, price = ?, currency = ?, bonus = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		pkg.Name,
		pkg.Price,
		pkg.Currency,
		pkg.Bonus,
		pkg.Active,
		pkg.UpdatedAt,
		pkg.ID,
	).Error
}
