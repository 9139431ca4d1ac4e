package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/omsms/tenantgate/internal/config"
	"github.com/omsms/tenantgate/internal/health"
	"github.com/omsms/tenantgate/internal/migration"
	"github.com/omsms/tenantgate/internal/observability"
	"github.com/omsms/tenantgate/internal/provisioner"
	"github.com/omsms/tenantgate/internal/ratelimit"
	"github.com/omsms/tenantgate/internal/router"
	"github.com/omsms/tenantgate/internal/server"
	"github.com/omsms/tenantgate/internal/signup"
	"github.com/omsms/tenantgate/internal/tenant"
	"github.com/omsms/tenantgate/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Gateway domains
		tenant.Module,
		router.Module,
		provisioner.Module,
		ratelimit.Module,
		signup.Module,
		health.Module,

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
