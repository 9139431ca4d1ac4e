package provisioner

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/omsms/tenantgate/internal/config"
	"github.com/omsms/tenantgate/pkg/db"
)

// AdminConn performs database-level DDL against the postgres cluster. It is
// an interface so provisioner tests can run without a live cluster.
type AdminConn interface {
	CreateDatabase(ctx context.Context, name string) error
	DropDatabase(ctx context.Context, name string) error
	DatabaseURL(name string) string
}

type pgxAdmin struct {
	adminURL string
}

// NewAdminConn builds an AdminConn that dials the master cluster with the
// configured superuser credentials. Each call opens a short-lived connection;
// CREATE DATABASE cannot run inside a pooled transaction.
func NewAdminConn(cfg config.Config) AdminConn {
	master := db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     "postgres",
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		SSLMode:  cfg.DBSSLMode,
	}
	return &pgxAdmin{adminURL: postgresURL(master)}
}

func (a *pgxAdmin) CreateDatabase(ctx context.Context, name string) error {
	conn, err := pgx.Connect(ctx, a.adminURL)
	if err != nil {
		return fmt.Errorf("connect admin: %w", err)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name))
	if err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

func (a *pgxAdmin) DropDatabase(ctx context.Context, name string) error {
	conn, err := pgx.Connect(ctx, a.adminURL)
	if err != nil {
		return fmt.Errorf("connect admin: %w", err)
	}
	defer conn.Close(ctx)

	// FORCE terminates any lingering session so cleanup cannot wedge on a
	// half-open pool.
	_, err = conn.Exec(ctx, "DROP DATABASE IF EXISTS "+pq.QuoteIdentifier(name)+" WITH (FORCE)")
	if err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}
	return nil
}

func (a *pgxAdmin) DatabaseURL(name string) string {
	u, err := url.Parse(a.adminURL)
	if err != nil {
		return a.adminURL
	}
	u.Path = "/" + name
	return u.String()
}

func postgresURL(cfg db.Config) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
