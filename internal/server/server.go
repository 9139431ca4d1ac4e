package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/omsms/tenantgate/internal/config"
	"github.com/omsms/tenantgate/internal/health"
	"github.com/omsms/tenantgate/internal/observability"
	obsmiddleware "github.com/omsms/tenantgate/internal/observability/logger"
	obsmetrics "github.com/omsms/tenantgate/internal/observability/metrics"
	obstracing "github.com/omsms/tenantgate/internal/observability/tracing"
	"github.com/omsms/tenantgate/internal/router"
	signupdomain "github.com/omsms/tenantgate/internal/signup/domain"
	tenantdomain "github.com/omsms/tenantgate/internal/tenant/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	tenantSvc tenantdomain.Service
	signupSvc signupdomain.Service
	router    *router.Router
	reporter  *health.Reporter
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	TenantSvc tenantdomain.Service
	SignupSvc signupdomain.Service
	Router    *router.Router
	Reporter  *health.Reporter
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		tenantSvc: p.TenantSvc,
		signupSvc: p.SignupSvc,
		router:    p.Router,
		reporter:  p.Reporter,
	}

	svc.registerRoutes()

	return svc
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.Health)

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/tenants", s.Signup)
		v1.GET("/tenants", s.ListTenants)
		v1.GET("/tenants/:subdomain", s.GetTenant)
		v1.PATCH("/tenants/:subdomain/status", s.SetTenantStatus)
		v1.GET("/tenants/:subdomain/connection", s.CheckConnection)
		v1.DELETE("/cache/:subdomain", s.EvictCache)
	}
}
