package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// WorkflowTemplateConfig describes one workflow template seeded into a new
// tenant database. Stage order is significant.
type WorkflowTemplateConfig struct {
	Name   string   `mapstructure:"name"`
	Stages []string `mapstructure:"stages"`
}

// ProvisioningConfig holds the baseline rows written into every newly
// provisioned tenant database.
type ProvisioningConfig struct {
	Timezone       string                   `mapstructure:"timezone"`
	Currency       string                   `mapstructure:"currency"`
	LocationName   string                   `mapstructure:"locationName"`
	DepartmentName string                   `mapstructure:"departmentName"`
	Workflows      []WorkflowTemplateConfig `mapstructure:"workflows"`
}

// DefaultProvisioningConfig returns the compiled-in seed defaults.
func DefaultProvisioningConfig() ProvisioningConfig {
	return ProvisioningConfig{
		Timezone:       "Asia/Kolkata",
		Currency:       "INR",
		LocationName:   "Main Service Center",
		DepartmentName: "Installation",
		Workflows: []WorkflowTemplateConfig{
			{
				Name: "installation",
				Stages: []string{
					"vehicle_received",
					"inspection",
					"accessory_fitment",
					"quality_check",
					"ready_for_delivery",
					"delivered",
				},
			},
			{
				Name: "payment",
				Stages: []string{
					"quote_issued",
					"advance_received",
					"invoice_raised",
					"payment_received",
					"closed",
				},
			},
		},
	}
}

// ProvisioningHolder exposes the current provisioning defaults. The config
// file is optional and hot-reloaded when present.
type ProvisioningHolder struct {
	current atomic.Value // holds ProvisioningConfig
}

// NewProvisioningHolder loads provisioning defaults from provisioning.yml,
// falling back to compiled-in defaults when the file is absent.
func NewProvisioningHolder() (*ProvisioningHolder, error) {
	v := viper.New()

	v.SetConfigName("provisioning")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tenantgate/config")
	v.AddConfigPath("/etc/tenantgate")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TENANTGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	holder := &ProvisioningHolder{}
	cfg, err := decodeProvisioning(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	if fileFound {
		v.OnConfigChange(func(_ fsnotify.Event) {
			next, err := decodeProvisioning(v)
			if err != nil {
				zap.L().Warn("provisioning config reload failed", zap.Error(err))
				return
			}
			holder.current.Store(next)
			zap.L().Info("provisioning config reloaded")
		})
		v.WatchConfig()
	}

	return holder, nil
}

// Current returns the active provisioning defaults.
func (h *ProvisioningHolder) Current() ProvisioningConfig {
	if h == nil {
		return DefaultProvisioningConfig()
	}
	cfg, ok := h.current.Load().(ProvisioningConfig)
	if !ok {
		return DefaultProvisioningConfig()
	}
	return cfg
}

func decodeProvisioning(v *viper.Viper) (ProvisioningConfig, error) {
	cfg := DefaultProvisioningConfig()
	if !v.IsSet("provisioning") {
		return cfg, nil
	}
	if err := v.UnmarshalKey("provisioning", &cfg); err != nil {
		return ProvisioningConfig{}, err
	}
	return normalizeProvisioning(cfg), nil
}

func normalizeProvisioning(cfg ProvisioningConfig) ProvisioningConfig {
	defaults := DefaultProvisioningConfig()
	if strings.TrimSpace(cfg.Timezone) == "" {
		cfg.Timezone = defaults.Timezone
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = defaults.Currency
	}
	if strings.TrimSpace(cfg.LocationName) == "" {
		cfg.LocationName = defaults.LocationName
	}
	if strings.TrimSpace(cfg.DepartmentName) == "" {
		cfg.DepartmentName = defaults.DepartmentName
	}
	if len(cfg.Workflows) == 0 {
		cfg.Workflows = defaults.Workflows
	}
	return cfg
}
