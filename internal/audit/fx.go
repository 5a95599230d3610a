package audit

import (
	"github.com/pixelpay/topup/internal/audit/repository"
	"github.com/pixelpay/topup/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
