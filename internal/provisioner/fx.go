package provisioner

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/omsms/tenantgate/internal/config"
	obsmetrics "github.com/omsms/tenantgate/internal/observability/metrics"
)

func newProvisioner(admin AdminConn, node *snowflake.Node, cfg config.Config, holder *config.ProvisioningHolder, metrics *obsmetrics.Metrics, log *zap.Logger) *Provisioner {
	return New(admin, node, cfg, holder, metrics, log)
}

var Module = fx.Module("provisioner",
	fx.Provide(NewAdminConn),
	fx.Provide(newProvisioner),
)
