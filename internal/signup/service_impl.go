// Package signup orchestrates tenant onboarding. The database is provisioned
// first and the registry row written second; a failed registry write drops
// the freshly created database so no orphan survives.
package signup

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/omsms/tenantgate/internal/config"
	"github.com/omsms/tenantgate/internal/ratelimit"
	"github.com/omsms/tenantgate/internal/signup/domain"
	tenantdomain "github.com/omsms/tenantgate/internal/tenant/domain"
	tenantservice "github.com/omsms/tenantgate/internal/tenant/service"
)

// Provisioner creates and removes tenant databases.
type Provisioner interface {
	Provision(ctx context.Context, subdomain string) (string, error)
	Drop(ctx context.Context, subdomain string) error
}

type service struct {
	tenants     tenantdomain.Service
	provisioner Provisioner
	locker      *ratelimit.Locker
	limiter     *ratelimit.SignupLimiter
	node        *snowflake.Node
	lockTTL     time.Duration
	log         *zap.Logger
}

func NewService(
	tenants tenantdomain.Service,
	provisioner Provisioner,
	locker *ratelimit.Locker,
	limiter *ratelimit.SignupLimiter,
	node *snowflake.Node,
	cfg config.Config,
	log *zap.Logger,
) domain.Service {
	return &service{
		tenants:     tenants,
		provisioner: provisioner,
		locker:      locker,
		limiter:     limiter,
		node:        node,
		lockTTL:     cfg.Redis.ProvisionLockTTL,
		log:         log.Named("signup"),
	}
}

func (s *service) Signup(ctx context.Context, req domain.Request) (*domain.Result, error) {
	subdomain := tenantservice.NormalizeSubdomain(req.Subdomain)
	if !tenantservice.ValidSubdomain(subdomain) {
		return nil, tenantdomain.ErrInvalidSubdomain
	}

	allowed, _, err := s.limiter.Allow(ctx, req.Caller)
	if err != nil {
		// A limiter outage must not block signups.
		s.log.Warn("signup rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		return nil, domain.ErrRateLimited
	}

	if _, err := s.tenants.Get(ctx, subdomain); err == nil {
		return nil, tenantdomain.ErrSubdomainTaken
	} else if !errors.Is(err, tenantdomain.ErrNotFound) {
		return nil, err
	}

	lockKey := ratelimit.ProvisionLockKey(subdomain)
	token, ok, err := s.locker.TryLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrProvisionInProgress
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, lockKey, token); err != nil {
			s.log.Warn("release provision lock", zap.String("subdomain", subdomain), zap.Error(err))
		}
	}()

	databaseURL, err := s.provisioner.Provision(ctx, subdomain)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = subdomain
	}
	tenant := tenantdomain.Tenant{
		ID:          s.node.Generate(),
		Subdomain:   subdomain,
		Name:        name,
		DatabaseURL: databaseURL,
		Status:      tenantdomain.StatusActive,
	}
	if err := s.tenants.Register(ctx, tenant); err != nil {
		s.compensate(ctx, subdomain)
		if errors.Is(err, tenantdomain.ErrSubdomainTaken) {
			return nil, tenantdomain.ErrSubdomainTaken
		}
		return nil, err
	}

	s.log.Info("tenant signed up",
		zap.String("subdomain", subdomain),
		zap.String("tenant_id", tenant.ID.String()),
	)
	return &domain.Result{Tenant: tenantdomain.TenantResponse{
		ID:        tenant.ID.String(),
		Subdomain: tenant.Subdomain,
		Name:      tenant.Name,
		Status:    tenant.Status,
	}}, nil
}

// compensate drops the database created for a signup whose registry write
// failed. The drop is best effort; a leftover database is logged for the
// operator.
func (s *service) compensate(ctx context.Context, subdomain string) {
	dropCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := s.provisioner.Drop(dropCtx, subdomain); err != nil {
		s.log.Error("drop tenant database after failed registration",
			zap.String("subdomain", subdomain),
			zap.Error(err),
		)
	}
}
