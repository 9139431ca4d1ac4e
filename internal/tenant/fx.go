package tenant

import (
	"github.com/omsms/tenantgate/internal/config"
	"github.com/omsms/tenantgate/internal/tenant/domain"
	"github.com/omsms/tenantgate/internal/tenant/registry"
	"github.com/omsms/tenantgate/internal/tenant/repository"
	"github.com/omsms/tenantgate/internal/tenant/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("tenant",
	fx.Provide(repository.NewRepository),
	fx.Provide(newRegistryClient),
	fx.Provide(service.NewService),
)

func newRegistryClient(cfg config.Config, repo domain.Repository, log *zap.Logger) domain.Resolver {
	return registry.NewClient(repo, cfg.RegistryLookupTimeout, log)
}
