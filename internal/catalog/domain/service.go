package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	CreateGame(ctx context.Context, req CreateGameRequest) (*GameResponse, error)
	ListGames(ctx context.Context, activeOnly bool) ([]GameResponse, error)
	GetGame(ctx context.Context, id string) (*GameResponse, error)
	GetGameBySlug(ctx context.Context, slug string) (*GameResponse, error)
	UpdateGame(ctx context.Context, req UpdateGameRequest) (*GameResponse, error)
	DeleteGame(ctx context.Context, id string) error

	CreatePackage(ctx context.Context, req CreatePackageRequest) (*PackageResponse, error)
	ListPackages(ctx context.Context, gameID string, activeOnly bool) ([]PackageResponse, error)
	GetPackage(ctx context.Context, id string) (*PackageResponse, error)
	UpdatePackage(ctx context.Context, req UpdatePackageRequest) (*PackageResponse, error)
	ArchivePackage(ctx context.Context, id string) (*PackageResponse, error)
}

type CreateGameRequest struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ImageURL *string `json:"image_url"`
	Active   *bool   `json:"active"`
}

type UpdateGameRequest struct {
	ID       string
	Name     *string `json:"name"`
	ImageURL *string `json:"image_url"`
	Active   *bool   `json:"active"`
}

type GameResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ImageURL  *string   `json:"image_url,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreatePackageRequest struct {
	GameID   string  `json:"game_id"`
	Name     string  `json:"name"`
	Price    int64   `json:"price"`
	Currency string  `json:"currency"`
	Bonus    *string `json:"bonus"`
	Active   *bool   `json:"active"`
}

type UpdatePackageRequest struct {
	ID       string
	Name     *string `json:"name"`
	Price    *int64  `json:"price"`
	Currency *string `json:"currency"`
	Bonus    *string `json:"bonus"`
	Active   *bool   `json:"active"`
}

type PackageResponse struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Currency  string    `json:"currency"`
	Bonus     *string   `json:"bonus,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrGameNotFound    = errors.New("game_not_found")
	ErrPackageNotFound = errors.New("package_not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidSlug     = errors.New("invalid_slug")
	ErrSlugTaken       = errors.New("slug_taken")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidCurrency = errors.New("invalid_currency")
)
