package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/pixelpay/topup/internal/audit/domain"
	"github.com/pixelpay/topup/internal/clock"
	"github.com/pixelpay/topup/internal/news/domain"
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

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("news.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	published := false
	if req.Published != nil {
		published = *req.Published
	}

	now := s.clock.Now()
	article := &domain.Article{
		ID:        s.genID.Generate().Int64(),
		Title:     title,
		Slug:      slug.Make(title),
		Body:      req.Body,
		ImageURL:  req.ImageURL,
		Published: published,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, s.db, article); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.audit(ctx, "news.created", article.ID)
	resp := toResponse(article)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, publishedOnly bool) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, publishedOnly)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}
	return resp, nil
}

func (s *Service) GetBySlug(ctx context.Context, slugKey string) (*domain.Response, error) {
	article, err := s.repo.FindBySlug(ctx, s.db, strings.TrimSpace(slugKey))
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(article)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	articleID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	article, err := s.repo.FindByID(ctx, s.db, articleID.Int64())
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, domain.ErrNotFound
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		article.Title = title
	}
	if req.Body != nil {
		article.Body = *req.Body
	}
	if req.ImageURL != nil {
		article.ImageURL = req.ImageURL
	}
	if req.Published != nil {
		article.Published = *req.Published
	}

	article.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, article); err != nil {
		return nil, err
	}

	s.audit(ctx, "news.updated", article.ID)
	resp := toResponse(article)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	articleID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	article, err := s.repo.FindByID(ctx, s.db, articleID.Int64())
	if err != nil {
		return err
	}
	if article == nil {
		return domain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, articleID.Int64()); err != nil {
		return err
	}

	s.audit(ctx, "news.deleted", articleID.Int64())
	return nil
}

func (s *Service) audit(ctx context.Context, action string, targetID int64) {
	if s.auditSvc == nil {
		return
	}
	target := snowflake.ID(targetID).String()
	if err := s.auditSvc.AuditLog(ctx, auditdomain.ActorTypeAdmin, nil, action, "news", &target, nil); err != nil {
		s.log.Warn("failed to write news audit log", zap.String("action", action), zap.Error(err))
	}
}

func toResponse(a *domain.Article) domain.Response {
	return domain.Response{
		ID:        snowflake.ID(a.ID).String(),
		Title:     a.Title,
		Slug:      a.Slug,
		Body:      a.Body,
		ImageURL:  a.ImageURL,
		Published: a.Published,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
