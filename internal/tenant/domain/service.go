package domain

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no tenant matches the routing key.
	ErrNotFound = errors.New("tenant_not_found")
	// ErrSuspended means the tenant exists but is not active.
	ErrSuspended = errors.New("tenant_suspended")
	// ErrInvalidSubdomain means the routing key fails validation.
	ErrInvalidSubdomain = errors.New("invalid_subdomain")
	// ErrInvalidStatus means an unknown lifecycle state was requested.
	ErrInvalidStatus = errors.New("invalid_status")
	// ErrSubdomainTaken means a tenant already claims the subdomain.
	ErrSubdomainTaken = errors.New("subdomain_taken")
)

// TenantResponse is the external view of a registry row.
type TenantResponse struct {
	ID        string `json:"id"`
	Subdomain string `json:"subdomain"`
	Name      string `json:"name"`
	Status    Status `json:"status"`
}

// Service owns registry semantics: resolution with status gating,
// registration, and administrative status changes.
type Service interface {
	// Register persists a freshly provisioned tenant row.
	Register(ctx context.Context, tenant Tenant) error
	Get(ctx context.Context, subdomain string) (*TenantResponse, error)
	List(ctx context.Context, q ListQuery) ([]TenantResponse, string, error)
	SetStatus(ctx context.Context, subdomain string, status Status) error
}
