package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultProvisioningConfig(t *testing.T) {
	cfg := DefaultProvisioningConfig()

	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, "Main Service Center", cfg.LocationName)
	assert.Equal(t, "Installation", cfg.DepartmentName)

	require := assert.New(t)
	require.Len(cfg.Workflows, 2)
	require.Equal("installation", cfg.Workflows[0].Name)
	require.Equal("payment", cfg.Workflows[1].Name)
	require.Equal([]string{
		"vehicle_received",
		"inspection",
		"accessory_fitment",
		"quality_check",
		"ready_for_delivery",
		"delivered",
	}, cfg.Workflows[0].Stages)
}

func TestNormalizeProvisioningFillsBlanks(t *testing.T) {
	got := normalizeProvisioning(ProvisioningConfig{
		Currency:     "USD",
		LocationName: "Downtown Garage",
	})

	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "Downtown Garage", got.LocationName)
	assert.Equal(t, "Asia/Kolkata", got.Timezone)
	assert.Equal(t, "Installation", got.DepartmentName)
	assert.Len(t, got.Workflows, 2)
}

func TestNilHolderReturnsDefaults(t *testing.T) {
	var holder *ProvisioningHolder
	assert.Equal(t, DefaultProvisioningConfig(), holder.Current())
}
