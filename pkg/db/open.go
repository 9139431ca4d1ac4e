package db

import (
	"context"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open establishes a gorm handle for cfg, applies pool limits, and verifies
// connectivity with a ping before returning. A handle that cannot reach its
// database is never handed out.
func Open(ctx context.Context, cfg Config, log gormlogger.Interface) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{TranslateError: true}
	if log != nil {
		gormCfg.Logger = log
	}

	handle, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database %q: %w", cfg.Type, cfg.Name, err)
	}

	if err := handle.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Name))); err != nil {
		return nil, fmt.Errorf("install otelgorm plugin: %w", err)
	}

	sqlDB, err := handle.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	}
	if cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s database %q: %w", cfg.Type, cfg.Name, err)
	}

	return handle, nil
}

// Close releases the underlying connection pool of a gorm handle.
func Close(handle *gorm.DB) error {
	if handle == nil {
		return nil
	}
	sqlDB, err := handle.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
