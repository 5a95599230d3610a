package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/pixelpay/topup/internal/clock"
	"github.com/pixelpay/topup/internal/config"
	"github.com/pixelpay/topup/internal/logger"
	"github.com/pixelpay/topup/internal/migration"
	"github.com/pixelpay/topup/internal/server"
	"github.com/pixelpay/topup/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
