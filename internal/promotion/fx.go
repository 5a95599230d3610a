package promotion

import (
	"github.com/pixelpay/topup/internal/promotion/repository"
	"github.com/pixelpay/topup/internal/promotion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("promotion.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
