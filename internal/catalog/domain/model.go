package domain

import (
	"time"
)

// Game is a storefront title players can top up.
type Game struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	Slug      string    `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_games_slug"`
	ImageURL  *string   `json:"image_url,omitempty" gorm:"type:text"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Game) TableName() string { return "games" }

// Package is a purchasable top-up bundle. Price is stored in minor units
// (satang for THB). Transactions snapshot price and currency at checkout,
// so editing a package never rewrites history.
type Package struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	GameID    int64     `json:"game_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	Price     int64     `json:"price" gorm:"not null"`
	Currency  string    `json:"currency" gorm:"type:text;not null"`
	Bonus     *string   `json:"bonus,omitempty" gorm:"type:text"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Package) TableName() string { return "packages" }
