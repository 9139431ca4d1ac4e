package domain

import "context"

// Resolver translates a routing key into tenant connection metadata.
// Implementations fail with ErrNotFound for unknown keys and ErrSuspended
// when the tenant is not active.
type Resolver interface {
	Resolve(ctx context.Context, subdomain string) (*Tenant, error)
}
