package repository

import (
	"context"
	"errors"
	"time"

	"github.com/omsms/tenantgate/internal/tenant/domain"
	"github.com/omsms/tenantgate/pkg/db"
	"github.com/omsms/tenantgate/pkg/db/pagination"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds the registry repository over the master database.
func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) FindBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).
		Where("subdomain = ?", subdomain).
		First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) Create(ctx context.Context, tenant domain.Tenant) error {
	if err := r.db.WithContext(ctx).Create(&tenant).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrSubdomainTaken
		}
		return err
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, subdomain string, status domain.Status) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("subdomain = ?", subdomain).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, q domain.ListQuery) ([]domain.Tenant, error) {
	size := pagination.Clamp(q.PageSize, 250)

	query := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Limit(size + 1)

	if q.PageToken != "" {
		cursor, err := pagination.Decode(q.PageToken)
		if err != nil {
			return nil, err
		}
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var tenants []domain.Tenant
	if err := query.Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}
