package transaction

import (
	"github.com/pixelpay/topup/internal/transaction/repository"
	"github.com/pixelpay/topup/internal/transaction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("transaction.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
