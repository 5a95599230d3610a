package charge

import (
	"github.com/pixelpay/topup/internal/charge/adapters"
	"github.com/pixelpay/topup/internal/charge/adapters/opn"
	"github.com/pixelpay/topup/internal/charge/service"
	"go.uber.org/fx"
)

func NewAdapterRegistry() *adapters.Registry {
	return adapters.NewRegistry(
		opn.NewFactory(),
	)
}

var Module = fx.Module("charge.service",
	fx.Provide(NewAdapterRegistry),
	fx.Provide(service.NewService),
)
