package domain

import (
	"context"
	"errors"

	tenantdomain "github.com/omsms/tenantgate/internal/tenant/domain"
)

// Service runs the tenant signup saga: validate, provision, register.
type Service interface {
	Signup(ctx context.Context, req Request) (*Result, error)
}

type Request struct {
	Subdomain string `json:"subdomain"`
	Name      string `json:"name"`
	// Caller identifies the rate limit bucket, usually the client IP.
	Caller string `json:"-"`
}

type Result struct {
	Tenant tenantdomain.TenantResponse `json:"tenant"`
}

var (
	// ErrRateLimited means the caller exhausted its signup budget.
	ErrRateLimited = errors.New("signup_rate_limited")
	// ErrProvisionInProgress means another signup holds the lock for the
	// same subdomain.
	ErrProvisionInProgress = errors.New("provision_in_progress")
)
