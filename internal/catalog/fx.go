package catalog

import (
	"github.com/pixelpay/topup/internal/catalog/repository"
	"github.com/pixelpay/topup/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
