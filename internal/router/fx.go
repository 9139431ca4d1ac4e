package router

import (
	"context"

	"github.com/omsms/tenantgate/internal/config"
	obsmetrics "github.com/omsms/tenantgate/internal/observability/metrics"
	"github.com/omsms/tenantgate/internal/tenant/domain"
	tenantservice "github.com/omsms/tenantgate/internal/tenant/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("router",
	fx.Provide(newDialer),
	fx.Provide(newRouter),
	fx.Provide(asEvictor),
)

func newDialer(cfg config.Config) Dialer {
	return NewPostgresDialer(DialerConfig{
		MaxIdleConn:    cfg.TenantMaxIdleConn,
		MaxOpenConn:    cfg.TenantMaxOpenConn,
		ConnectTimeout: cfg.TenantConnectTimeout,
	})
}

func newRouter(lc fx.Lifecycle, cfg config.Config, registry domain.Resolver, dialer Dialer, metrics *obsmetrics.Metrics, log *zap.Logger) *Router {
	r := New(registry, dialer, log, Options{
		EntryTTL: cfg.RouterEntryTTL,
		Metrics:  metrics,
	})

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			log.Info("closing tenant connection cache")
			r.CloseAll()
			return nil
		},
	})

	return r
}

func asEvictor(r *Router) tenantservice.CacheEvictor {
	return r
}
