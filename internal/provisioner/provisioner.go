// Package provisioner creates and seeds per-tenant databases. A run is a
// sequence of named steps; if any step fails the database created so far is
// dropped, so a tenant either gets a complete schema or nothing.
package provisioner

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/omsms/tenantgate/internal/config"
	"github.com/omsms/tenantgate/internal/observability/logger"
	obsmetrics "github.com/omsms/tenantgate/internal/observability/metrics"
	"github.com/omsms/tenantgate/internal/provisioner/schema"
	"github.com/omsms/tenantgate/pkg/db"
)

// Opener connects to a freshly created tenant database.
type Opener func(ctx context.Context, databaseURL string) (*gorm.DB, error)

// StepHook runs before each provisioning step. A non-nil return aborts the
// run at that step, which is how the fault tests drive cleanup.
type StepHook func(step string) error

type Provisioner struct {
	admin      AdminConn
	node       *snowflake.Node
	holder     *config.ProvisioningHolder
	metrics    *obsmetrics.Metrics
	log        *zap.Logger
	prefix     string
	timeout    time.Duration
	open       Opener
	statements []schema.Statement
	hook       StepHook
}

type Option func(*Provisioner)

// WithOpener overrides how the provisioner connects to the new database.
func WithOpener(open Opener) Option {
	return func(p *Provisioner) { p.open = open }
}

// WithSchemaStatements overrides the DDL script.
func WithSchemaStatements(stmts []schema.Statement) Option {
	return func(p *Provisioner) { p.statements = stmts }
}

// WithStepHook installs a per-step hook.
func WithStepHook(hook StepHook) Option {
	return func(p *Provisioner) { p.hook = hook }
}

func New(admin AdminConn, node *snowflake.Node, cfg config.Config, holder *config.ProvisioningHolder, metrics *obsmetrics.Metrics, log *zap.Logger, opts ...Option) *Provisioner {
	p := &Provisioner{
		admin:      admin,
		node:       node,
		holder:     holder,
		metrics:    metrics,
		log:        log.Named("provisioner"),
		prefix:     cfg.TenantDBPrefix,
		timeout:    cfg.TenantConnectTimeout,
		statements: schema.Statements(),
	}
	p.open = p.openTenant
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DatabaseName returns the database a subdomain provisions into.
func (p *Provisioner) DatabaseName(subdomain string) string {
	return p.prefix + subdomain
}

// Provision creates the tenant database, applies the schema, and seeds the
// baseline rows. It returns the connection URL for the new database. On any
// failure the database is dropped before the error is returned; cleanup
// failures are logged and never mask the step failure.
func (p *Provisioner) Provision(ctx context.Context, subdomain string) (string, error) {
	dbName := p.DatabaseName(subdomain)
	log := p.log.With(
		zap.String("subdomain", subdomain),
		zap.String("database", dbName),
	)
	start := time.Now()

	if err := p.step(ctx, "create_database", func() error {
		err := p.admin.CreateDatabase(ctx, dbName)
		if db.IsDuplicateDatabaseErr(err) {
			// Leftover from a failed run whose cleanup drop did not
			// complete. Registry uniqueness guarantees no live tenant
			// owns it, so recreate from scratch.
			log.Warn("orphaned tenant database found, recreating")
			if dropErr := p.admin.DropDatabase(ctx, dbName); dropErr != nil {
				return err
			}
			return p.admin.CreateDatabase(ctx, dbName)
		}
		return err
	}); err != nil {
		p.metrics.RecordProvision(ctx, "failed", time.Since(start))
		return "", &ProvisioningError{Subdomain: subdomain, Database: dbName, Step: "create_database", Err: err}
	}

	databaseURL := p.admin.DatabaseURL(dbName)
	if err := p.build(ctx, databaseURL, subdomain); err != nil {
		p.cleanup(ctx, log, dbName)
		p.metrics.RecordProvision(ctx, "failed", time.Since(start))
		perr := &ProvisioningError{Subdomain: subdomain, Database: dbName, Err: err}
		if se, ok := err.(*stepError); ok {
			perr.Step = se.step
			perr.Err = se.err
		}
		return "", perr
	}

	p.metrics.RecordProvision(ctx, "succeeded", time.Since(start))
	log.Info("tenant database provisioned", zap.Duration("elapsed", time.Since(start)))
	return databaseURL, nil
}

// Drop removes a tenant database. Used for compensating actions after the
// registry write fails.
func (p *Provisioner) Drop(ctx context.Context, subdomain string) error {
	return p.admin.DropDatabase(ctx, p.DatabaseName(subdomain))
}

type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return fmt.Sprintf("%s: %v", e.step, e.err) }
func (e *stepError) Unwrap() error { return e.err }

func (p *Provisioner) step(ctx context.Context, name string, fn func() error) error {
	if p.hook != nil {
		if err := p.hook(name); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

func (p *Provisioner) build(ctx context.Context, databaseURL, subdomain string) error {
	var handle *gorm.DB
	if err := p.step(ctx, "connect", func() error {
		var err error
		handle, err = p.open(ctx, databaseURL)
		return err
	}); err != nil {
		return &stepError{step: "connect", err: err}
	}
	defer closeHandle(handle)

	for _, stmt := range p.statements {
		stmt := stmt
		if err := p.step(ctx, stmt.Name, func() error {
			return handle.WithContext(ctx).Exec(stmt.SQL).Error
		}); err != nil {
			return &stepError{step: stmt.Name, err: err}
		}
	}

	if err := p.step(ctx, "seed", func() error {
		return handle.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return Seed(tx, p.node, subdomain, p.holder.Current())
		})
	}); err != nil {
		return &stepError{step: "seed", err: err}
	}
	return nil
}

func (p *Provisioner) cleanup(ctx context.Context, log *zap.Logger, dbName string) {
	// A cancelled request context must not stop cleanup.
	dropCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := p.admin.DropDatabase(dropCtx, dbName); err != nil {
		log.Error("cleanup after failed provisioning did not complete", zap.Error(err))
		return
	}
	log.Warn("provisioning failed, tenant database dropped")
}

func (p *Provisioner) openTenant(ctx context.Context, databaseURL string) (*gorm.DB, error) {
	dialCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	handle, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.NewGormLogger(logger.DefaultGormLoggerConfig()),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := handle.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(dialCtx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return handle, nil
}

func closeHandle(handle *gorm.DB) {
	if handle == nil {
		return
	}
	if sqlDB, err := handle.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
