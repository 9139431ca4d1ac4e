package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/gosimple/slug"
	"github.com/omsms/tenantgate/internal/tenant/domain"
	"github.com/omsms/tenantgate/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CacheEvictor removes a cached tenant connection when a tenant stops being
// routable. Implemented by the connection router.
type CacheEvictor interface {
	Evict(subdomain string) bool
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

type service struct {
	db      *gorm.DB
	repo    domain.Repository
	evictor CacheEvictor
	log     *zap.Logger
}

// NewService builds the registry administration service.
func NewService(db *gorm.DB, repo domain.Repository, evictor CacheEvictor, log *zap.Logger) domain.Service {
	return &service{
		db:      db,
		repo:    repo,
		evictor: evictor,
		log:     log,
	}
}

// Register persists a provisioned tenant row. Called by the signup
// orchestrator after the tenant database exists.
func (s *service) Register(ctx context.Context, tenant domain.Tenant) error {
	return s.repo.Create(ctx, tenant)
}

func (s *service) Get(ctx context.Context, subdomain string) (*domain.TenantResponse, error) {
	tenant, err := s.repo.FindBySubdomain(ctx, NormalizeSubdomain(subdomain))
	if err != nil {
		return nil, err
	}
	return toResponse(*tenant), nil
}

func (s *service) List(ctx context.Context, q domain.ListQuery) ([]domain.TenantResponse, string, error) {
	size := pagination.Clamp(q.PageSize, 250)
	tenants, err := s.repo.List(ctx, domain.ListQuery{PageToken: q.PageToken, PageSize: size})
	if err != nil {
		return nil, "", err
	}

	nextToken := ""
	if len(tenants) > size {
		tenants = tenants[:size]
		last := tenants[len(tenants)-1]
		nextToken, err = pagination.Encode(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt,
		})
		if err != nil {
			return nil, "", err
		}
	}

	out := make([]domain.TenantResponse, 0, len(tenants))
	for _, tenant := range tenants {
		out = append(out, *toResponse(tenant))
	}
	return out, nextToken, nil
}

func (s *service) SetStatus(ctx context.Context, subdomain string, status domain.Status) error {
	if !status.IsValid() {
		return domain.ErrInvalidStatus
	}
	subdomain = NormalizeSubdomain(subdomain)

	if err := s.repo.UpdateStatus(ctx, subdomain, status); err != nil {
		return err
	}

	// A tenant leaving the active state must not keep serving through a
	// stale cache entry.
	if status != domain.StatusActive && s.evictor != nil {
		if s.evictor.Evict(subdomain) {
			s.log.Info("evicted cached connection on status change",
				zap.String("subdomain", subdomain),
				zap.String("status", string(status)),
			)
		}
	}
	return nil
}

// NormalizeSubdomain lowercases and slugifies a caller-supplied routing key.
// Underscores become hyphens so the result stays a valid DNS label.
func NormalizeSubdomain(subdomain string) string {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	subdomain = strings.ReplaceAll(subdomain, "_", "-")
	return slug.Make(subdomain)
}

// ValidSubdomain reports whether a normalized routing key is usable as a
// physical database name suffix and a DNS label.
func ValidSubdomain(subdomain string) bool {
	return subdomainPattern.MatchString(subdomain)
}

func toResponse(tenant domain.Tenant) *domain.TenantResponse {
	return &domain.TenantResponse{
		ID:        tenant.ID.String(),
		Subdomain: tenant.Subdomain,
		Name:      tenant.Name,
		Status:    tenant.Status,
	}
}
