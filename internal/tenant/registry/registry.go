// Package registry implements the tenant registry client over the master
// database. It carries no cache: every resolve hits the master, so status
// changes are observed on each router cache miss.
package registry

import (
	"context"
	"strings"
	"time"

	"github.com/omsms/tenantgate/internal/tenant/domain"
	"go.uber.org/zap"
)

// Client resolves routing keys against the master tenant registry.
type Client struct {
	repo          domain.Repository
	lookupTimeout time.Duration
	log           *zap.Logger
}

// NewClient builds a registry client. A non-zero lookupTimeout bounds each
// master round-trip so a stalled lookup cannot hang the caller.
func NewClient(repo domain.Repository, lookupTimeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		repo:          repo,
		lookupTimeout: lookupTimeout,
		log:           log,
	}
}

// Resolve looks up a tenant by subdomain and gates on status.
func (c *Client) Resolve(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if subdomain == "" {
		return nil, domain.ErrNotFound
	}

	if c.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.lookupTimeout)
		defer cancel()
	}

	tenant, err := c.repo.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	if tenant.Status != domain.StatusActive {
		c.log.Warn("resolve rejected inactive tenant",
			zap.String("subdomain", subdomain),
			zap.String("status", string(tenant.Status)),
		)
		return nil, domain.ErrSuspended
	}
	return tenant, nil
}

var _ domain.Resolver = (*Client)(nil)
