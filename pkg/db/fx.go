package db

import (
	"context"
	"time"

	"github.com/omsms/tenantgate/internal/config"
	obslogger "github.com/omsms/tenantgate/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MasterConfig maps application configuration onto the master database Config.
func MasterConfig(cfg config.Config) Config {
	return Config{
		Type:            cfg.DBType,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		SSLMode:         cfg.DBSSLMode,
		MaxIdleConn:     cfg.DBMaxIdleConn,
		MaxOpenConn:     cfg.DBMaxOpenConn,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTime) * time.Second,
	}
}

func newMaster(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	handle, err := Open(ctx, MasterConfig(cfg), obslogger.NewGormLogger(obslogger.DefaultGormLoggerConfig()))
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			log.Info("closing master database handle")
			return Close(handle)
		},
	})

	return handle, nil
}

// Module wires the master database handle for the application.
var Module = fx.Module("db",
	fx.Provide(newMaster),
)
