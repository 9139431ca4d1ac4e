package domain

import (
	"context"
)

// ListQuery selects a page of tenants ordered by creation time.
type ListQuery struct {
	PageToken string
	PageSize  int
}

// Repository is the registry access layer over the master database. It is
// deliberately uncached: connection caching belongs to the router so status
// changes are observed on every cache-miss path.
type Repository interface {
	FindBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	Create(ctx context.Context, tenant Tenant) error
	UpdateStatus(ctx context.Context, subdomain string, status Status) error
	List(ctx context.Context, q ListQuery) ([]Tenant, error)
}
