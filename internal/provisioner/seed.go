package provisioner

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/omsms/tenantgate/internal/config"
)

// Seed row models. These mirror the tenant schema tables touched during
// provisioning; the full schema is owned by the DDL in the schema package.

type Role struct {
	ID          snowflake.ID   `gorm:"primaryKey"`
	Name        string         `gorm:"uniqueIndex;not null"`
	Description string         `gorm:"not null;default:''"`
	Permissions datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	IsSystem    bool           `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Role) TableName() string { return "roles" }

type Location struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"not null"`
	Address   string       `gorm:"not null;default:''"`
	City      string       `gorm:"not null;default:''"`
	IsDefault bool         `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Location) TableName() string { return "locations" }

type Department struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Name       string       `gorm:"not null"`
	LocationID snowflake.ID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Department) TableName() string { return "departments" }

type WorkflowTemplate struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	Name      string         `gorm:"uniqueIndex;not null"`
	Stages    datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	IsActive  bool           `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (WorkflowTemplate) TableName() string { return "workflow_templates" }

type SystemConfig struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (SystemConfig) TableName() string { return "system_config" }

// Seed writes the baseline rows a fresh tenant needs before its first
// request: the two built-in roles, the default location and department, one
// workflow template per configured workflow, and the organization config
// keys. Everything runs in a single transaction so a partial seed never
// survives.
func Seed(tx *gorm.DB, node *snowflake.Node, subdomain string, pc config.ProvisioningConfig) error {
	adminPerms, err := json.Marshal([]string{"*"})
	if err != nil {
		return err
	}
	userPerms, err := json.Marshal([]string{"read", "write"})
	if err != nil {
		return err
	}
	roles := []Role{
		{ID: node.Generate(), Name: "admin", Description: "Full access", Permissions: adminPerms, IsSystem: true},
		{ID: node.Generate(), Name: "user", Description: "Standard access", Permissions: userPerms, IsSystem: true},
	}
	if err := tx.Create(&roles).Error; err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	loc := Location{ID: node.Generate(), Name: pc.LocationName, IsDefault: true}
	if err := tx.Create(&loc).Error; err != nil {
		return fmt.Errorf("seed location: %w", err)
	}

	dept := Department{ID: node.Generate(), Name: pc.DepartmentName, LocationID: loc.ID}
	if err := tx.Create(&dept).Error; err != nil {
		return fmt.Errorf("seed department: %w", err)
	}

	for _, wf := range pc.Workflows {
		stages, err := json.Marshal(wf.Stages)
		if err != nil {
			return fmt.Errorf("seed workflow %s: %w", wf.Name, err)
		}
		tpl := WorkflowTemplate{ID: node.Generate(), Name: wf.Name, Stages: stages, IsActive: true}
		if err := tx.Create(&tpl).Error; err != nil {
			return fmt.Errorf("seed workflow %s: %w", wf.Name, err)
		}
	}

	configs := []SystemConfig{
		{Key: "organization.name", Value: subdomain},
		{Key: "organization.timezone", Value: pc.Timezone},
		{Key: "organization.currency", Value: pc.Currency},
	}
	if err := tx.Create(&configs).Error; err != nil {
		return fmt.Errorf("seed system config: %w", err)
	}
	return nil
}
