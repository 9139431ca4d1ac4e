package router

import (
	"context"
	"time"

	obslogger "github.com/omsms/tenantgate/internal/observability/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Dialer opens a verified handle to a tenant database. Implementations must
// never return a handle that has not survived a connectivity round-trip.
type Dialer interface {
	Dial(ctx context.Context, databaseURL string) (*gorm.DB, error)
}

// DialerConfig bounds tenant connection pools and connection attempts.
type DialerConfig struct {
	MaxIdleConn    int
	MaxOpenConn    int
	ConnectTimeout time.Duration
}

type postgresDialer struct {
	cfg DialerConfig
}

// NewPostgresDialer builds the production tenant dialer.
func NewPostgresDialer(cfg DialerConfig) Dialer {
	return &postgresDialer{cfg: cfg}
}

func (d *postgresDialer) Dial(ctx context.Context, databaseURL string) (*gorm.DB, error) {
	if d.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.ConnectTimeout)
		defer cancel()
	}

	handle, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         obslogger.NewGormLogger(obslogger.DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := handle.DB()
	if err != nil {
		return nil, err
	}
	if d.cfg.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(d.cfg.MaxIdleConn)
	}
	if d.cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(d.cfg.MaxOpenConn)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return handle, nil
}
