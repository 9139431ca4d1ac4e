// Package health probes the master database and every cached tenant
// connection. A failing tenant is reported, never evicted; eviction is an
// operator decision made through the admin API.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/omsms/tenantgate/internal/router"
)

// Report is the outcome of one health sweep.
type Report struct {
	Master  bool            `json:"master"`
	Tenants map[string]bool `json:"tenants"`
}

// Healthy reports whether the master and every probed tenant passed.
func (r Report) Healthy() bool {
	if !r.Master {
		return false
	}
	for _, ok := range r.Tenants {
		if !ok {
			return false
		}
	}
	return true
}

type Reporter struct {
	master  *gorm.DB
	router  *router.Router
	timeout time.Duration
	log     *zap.Logger
}

func NewReporter(master *gorm.DB, rt *router.Router, log *zap.Logger) *Reporter {
	return &Reporter{
		master:  master,
		router:  rt,
		timeout: 5 * time.Second,
		log:     log.Named("health"),
	}
}

// Check probes the master connection and each cached tenant handle with a
// trivial query. Probe failures are recorded in the report; the sweep itself
// never returns early.
func (r *Reporter) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	report := Report{
		Master:  r.ping(ctx, r.master),
		Tenants: make(map[string]bool),
	}
	if !report.Master {
		r.log.Warn("master database failed health probe")
	}
	for subdomain, handle := range r.router.Snapshot() {
		ok := r.ping(ctx, handle)
		report.Tenants[subdomain] = ok
		if !ok {
			r.log.Warn("tenant connection failed health probe", zap.String("subdomain", subdomain))
		}
	}
	return report
}

func (r *Reporter) ping(ctx context.Context, handle *gorm.DB) bool {
	var one int
	return handle.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error == nil
}
