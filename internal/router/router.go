// Package router hands out ready-to-use tenant database handles, keeping at
// most one live handle per tenant for the lifetime of the process.
package router

import (
	"context"
	"sync"
	"time"

	obsmetrics "github.com/omsms/tenantgate/internal/observability/metrics"
	"github.com/omsms/tenantgate/internal/tenant/domain"
	"github.com/omsms/tenantgate/pkg/db"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type entry struct {
	handle   *gorm.DB
	openedAt time.Time
}

// Router resolves routing keys to cached tenant database handles. Handles in
// the cache are owned by the router; nothing else may close them.
type Router struct {
	registry domain.Resolver
	dialer   Dialer

	mu      sync.RWMutex
	entries map[string]*entry

	// Concurrent first requests for one tenant share a single connection
	// attempt instead of racing and leaking handles.
	group singleflight.Group

	// ttl bounds how long a cached handle is served without re-resolving
	// the tenant. Zero keeps entries for the life of the process.
	ttl time.Duration

	metrics *obsmetrics.Metrics
	log     *zap.Logger
}

// Options tune router behavior.
type Options struct {
	EntryTTL time.Duration
	Metrics  *obsmetrics.Metrics
}

// New builds a connection router.
func New(registry domain.Resolver, dialer Dialer, log *zap.Logger, opts Options) *Router {
	return &Router{
		registry: registry,
		dialer:   dialer,
		entries:  make(map[string]*entry),
		ttl:      opts.EntryTTL,
		metrics:  opts.Metrics,
		log:      log,
	}
}

// Get returns the cached handle for subdomain, establishing and verifying a
// new connection on first use. Registry errors (domain.ErrNotFound,
// domain.ErrSuspended) propagate as-is; dial failures surface as
// *ConnectionError and are never cached.
func (r *Router) Get(ctx context.Context, subdomain string) (*gorm.DB, error) {
	if handle, ok := r.lookup(subdomain); ok {
		r.metrics.RecordCacheHit(ctx)
		return handle, nil
	}
	r.metrics.RecordCacheMiss(ctx)

	result, err, _ := r.group.Do(subdomain, func() (interface{}, error) {
		// A concurrent caller may have populated the cache while this
		// caller waited on the flight group.
		if handle, ok := r.lookup(subdomain); ok {
			return handle, nil
		}
		return r.connect(ctx, subdomain)
	})
	if err != nil {
		return nil, err
	}
	return result.(*gorm.DB), nil
}

func (r *Router) connect(ctx context.Context, subdomain string) (*gorm.DB, error) {
	tenant, err := r.registry.Resolve(ctx, subdomain)
	if err != nil {
		return nil, err
	}

	handle, err := r.dialer.Dial(ctx, tenant.DatabaseURL)
	if err != nil {
		r.metrics.RecordConnectFailure(ctx)
		r.log.Error("tenant connect failed",
			zap.String("subdomain", subdomain),
			zap.Error(err),
		)
		return nil, &ConnectionError{Subdomain: subdomain, Err: err}
	}

	r.mu.Lock()
	r.entries[subdomain] = &entry{handle: handle, openedAt: time.Now()}
	r.mu.Unlock()

	r.log.Info("tenant connection established", zap.String("subdomain", subdomain))
	return handle, nil
}

func (r *Router) lookup(subdomain string) (*gorm.DB, bool) {
	r.mu.RLock()
	e, ok := r.entries[subdomain]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if r.ttl > 0 && time.Since(e.openedAt) > r.ttl {
		// Expired entries are dropped so the next miss re-checks tenant
		// status against the registry.
		r.mu.Lock()
		if cur, still := r.entries[subdomain]; still && cur == e {
			delete(r.entries, subdomain)
			_ = db.Close(cur.handle)
		}
		r.mu.Unlock()
		return nil, false
	}

	return e.handle, true
}

// Evict closes and removes the cached handle for subdomain, reporting
// whether an entry existed.
func (r *Router) Evict(subdomain string) bool {
	r.mu.Lock()
	e, ok := r.entries[subdomain]
	if ok {
		delete(r.entries, subdomain)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	r.metrics.RecordEviction(context.Background())
	if err := db.Close(e.handle); err != nil {
		r.log.Warn("closing evicted tenant handle failed",
			zap.String("subdomain", subdomain),
			zap.Error(err),
		)
	}
	return true
}

// CloseAll closes every cached tenant handle and clears the cache. Safe to
// call repeatedly and with an empty cache.
func (r *Router) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for subdomain, e := range entries {
		if err := db.Close(e.handle); err != nil {
			r.log.Warn("closing tenant handle failed",
				zap.String("subdomain", subdomain),
				zap.Error(err),
			)
		}
	}
}

// Snapshot returns the current cache contents keyed by subdomain. The
// returned map is a copy; handles remain owned by the router.
func (r *Router) Snapshot() map[string]*gorm.DB {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*gorm.DB, len(r.entries))
	for subdomain, e := range r.entries {
		out[subdomain] = e.handle
	}
	return out
}

// Len reports the number of cached tenant handles.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
