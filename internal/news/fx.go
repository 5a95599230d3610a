package news

import (
	"github.com/pixelpay/topup/internal/news/repository"
	"github.com/pixelpay/topup/internal/news/service"
	"go.uber.org/fx"
)

var Module = fx.Module("news.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
