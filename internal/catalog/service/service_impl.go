package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/pixelpay/topup/internal/audit/domain"
	"github.com/pixelpay/topup/internal/catalog/domain"
	"github.com/pixelpay/topup/internal/clock"
	"github.com/pixelpay/topup/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("catalog.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) CreateGame(ctx context.Context, req domain.CreateGameRequest) (*domain.GameResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	slugValue := strings.TrimSpace(req.Slug)
	if slugValue == "" {
		slugValue = name
	}
	slugValue = slug.Make(slugValue)
	if slugValue == "" {
		return nil, domain.ErrInvalidSlug
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	game := &domain.Game{
		ID:        s.genID.Generate().Int64(),
		Name:      name,
		Slug:      slugValue,
		ImageURL:  trimPtr(req.ImageURL),
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateGame(ctx, s.db, game); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.audit(ctx, "game.created", "game", game.ID, map[string]any{"name": name, "slug": slugValue})
	resp := toGameResponse(game)
	return &resp, nil
}

func (s *Service) ListGames(ctx context.Context, activeOnly bool) ([]domain.GameResponse, error) {
	items, err := s.repo.ListGames(ctx, s.db, activeOnly)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.GameResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toGameResponse(&item))
	}
	return resp, nil
}

func (s *Service) GetGame(ctx context.Context, id string) (*domain.GameResponse, error) {
	gameID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindGameByID(ctx, s.db, gameID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrGameNotFound
	}

	resp := toGameResponse(item)
	return &resp, nil
}

func (s *Service) GetGameBySlug(ctx context.Context, slugValue string) (*domain.GameResponse, error) {
	slugValue = strings.TrimSpace(slugValue)
	if slugValue == "" {
		return nil, domain.ErrInvalidSlug
	}

	item, err := s.repo.FindGameBySlug(ctx, s.db, slugValue)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrGameNotFound
	}

	resp := toGameResponse(item)
	return &resp, nil
}

func (s *Service) UpdateGame(ctx context.Context, req domain.UpdateGameRequest) (*domain.GameResponse, error) {
	gameID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindGameByID(ctx, s.db, gameID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrGameNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.ImageURL != nil {
		item.ImageURL = trimPtr(req.ImageURL)
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateGame(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.audit(ctx, "game.updated", "game", item.ID, map[string]any{"name": item.Name})
	resp := toGameResponse(item)
	return &resp, nil
}

func (s *Service) DeleteGame(ctx context.Context, id string) error {
	gameID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	item, err := s.repo.FindGameByID(ctx, s.db, gameID.Int64())
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrGameNotFound
	}

	if err := s.repo.DeleteGame(ctx, s.db, item.ID); err != nil {
		return err
	}

	s.audit(ctx, "game.deleted", "game", item.ID, map[string]any{"name": item.Name, "slug": item.Slug})
	return nil
}

func (s *Service) CreatePackage(ctx context.Context, req domain.CreatePackageRequest) (*domain.PackageResponse, error) {
	gameID, err := snowflake.ParseString(strings.TrimSpace(req.GameID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	game, err := s.repo.FindGameByID(ctx, s.db, gameID.Int64())
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, domain.ErrGameNotFound
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Price < 0 {
		return nil, domain.ErrInvalidPrice
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, domain.ErrInvalidCurrency
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	pkg := &domain.Package{
		ID:        s.genID.Generate().Int64(),
		GameID:    game.ID,
		Name:      name,
		Price:     req.Price,
		Currency:  currency,
		Bonus:     trimPtr(req.Bonus),
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreatePackage(ctx, s.db, pkg); err != nil {
		return nil, err
	}

	s.audit(ctx, "package.created", "package", pkg.ID, map[string]any{
		"game_id":  snowflake.ID(game.ID).String(),
		"name":     name,
		"price":    req.Price,
		"currency": currency,
	})
	resp := toPackageResponse(pkg)
	return &resp, nil
}

func (s *Service) ListPackages(ctx context.Context, gameID string, activeOnly bool) ([]domain.PackageResponse, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(gameID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	items, err := s.repo.ListPackagesByGame(ctx, s.db, parsed.Int64(), activeOnly)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.PackageResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toPackageResponse(&item))
	}
	return resp, nil
}

func (s *Service) GetPackage(ctx context.Context, id string) (*domain.PackageResponse, error) {
	pkgID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindPackageByID(ctx, s.db, pkgID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrPackageNotFound
	}

	resp := toPackageResponse(item)
	return &resp, nil
}

func (s *Service) UpdatePackage(ctx context.Context, req domain.UpdatePackageRequest) (*domain.PackageResponse, error) {
	pkgID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindPackageByID(ctx, s.db, pkgID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrPackageNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, domain.ErrInvalidPrice
		}
		item.Price = *req.Price
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			return nil, domain.ErrInvalidCurrency
		}
		item.Currency = currency
	}
	if req.Bonus != nil {
		item.Bonus = trimPtr(req.Bonus)
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdatePackage(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.audit(ctx, "package.updated", "package", item.ID, map[string]any{"name": item.Name, "price": item.Price})
	resp := toPackageResponse(item)
	return &resp, nil
}

func (s *Service) ArchivePackage(ctx context.Context, id string) (*domain.PackageResponse, error) {
	pkgID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindPackageByID(ctx, s.db, pkgID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrPackageNotFound
	}

	item.Active = false
	item.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdatePackage(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.audit(ctx, "package.archived", "package", item.ID, nil)
	resp := toPackageResponse(item)
	return &resp, nil
}

func (s *Service) audit(ctx context.Context, action, targetType string, targetID int64, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	target := snowflake.ID(targetID).String()
	if err := s.auditSvc.AuditLog(ctx, auditdomain.ActorTypeAdmin, nil, action, targetType, &target, metadata); err != nil {
		s.log.Warn("failed to write catalog audit log", zap.String("action", action), zap.Error(err))
	}
}

func toGameResponse(g *domain.Game) domain.GameResponse {
	return domain.GameResponse{
		ID:        snowflake.ID(g.ID).String(),
		Name:      g.Name,
		Slug:      g.Slug,
		ImageURL:  g.ImageURL,
		Active:    g.Active,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func toPackageResponse(p *domain.Package) domain.PackageResponse {
	return domain.PackageResponse{
		ID:        snowflake.ID(p.ID).String(),
		GameID:    snowflake.ID(p.GameID).String(),
		Name:      p.Name,
		Price:     p.Price,
		Currency:  p.Currency,
		Bonus:     p.Bonus,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
