// Package domain contains the tenant registry models.
package domain

import (
	"slices"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the tenant lifecycle state. Only active tenants are routable.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return slices.Contains([]Status{StatusActive, StatusInactive, StatusSuspended}, s)
}

// Tenant is one registry row in the master database. Subdomain and
// DatabaseURL are immutable after provisioning; only Status is updated by
// administrative action. Rows are never hard-deleted.
type Tenant struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	Subdomain   string            `gorm:"type:text;not null;uniqueIndex:ux_tenants_subdomain" json:"subdomain"`
	Name        string            `gorm:"type:text;not null" json:"name"`
	DatabaseURL string            `gorm:"type:text;not null;column:database_url" json:"-"`
	Status      Status            `gorm:"type:text;not null;default:'active'" json:"status"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }
