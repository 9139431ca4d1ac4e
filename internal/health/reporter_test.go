package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/omsms/tenantgate/internal/router"
	"github.com/omsms/tenantgate/internal/tenant/domain"
	dbpkg "github.com/omsms/tenantgate/pkg/db"
)

type staticResolver struct {
	tenants map[string]*domain.Tenant
}

func (f *staticResolver) Resolve(_ context.Context, subdomain string) (*domain.Tenant, error) {
	tenant, ok := f.tenants[subdomain]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tenant, nil
}

type testDialer struct{}

func (testDialer) Dial(_ context.Context, _ string) (*gorm.DB, error) {
	return dbpkg.NewTest()
}

func setupReporter(t *testing.T) (*Reporter, *router.Router, *gorm.DB) {
	t.Helper()

	master, err := dbpkg.NewTest()
	require.NoError(t, err)

	resolver := &staticResolver{tenants: map[string]*domain.Tenant{
		"acme":   {Subdomain: "acme", DatabaseURL: "postgres://localhost/acme", Status: domain.StatusActive},
		"globex": {Subdomain: "globex", DatabaseURL: "postgres://localhost/globex", Status: domain.StatusActive},
	}}
	rt := router.New(resolver, testDialer{}, zap.NewNop(), router.Options{})
	return NewReporter(master, rt, zap.NewNop()), rt, master
}

func TestCheck(t *testing.T) {
	t.Run("empty cache reports master only", func(t *testing.T) {
		reporter, _, _ := setupReporter(t)

		report := reporter.Check(context.Background())
		assert.True(t, report.Master)
		assert.Empty(t, report.Tenants)
		assert.True(t, report.Healthy())
	})

	t.Run("probes every cached tenant", func(t *testing.T) {
		reporter, rt, _ := setupReporter(t)

		_, err := rt.Get(context.Background(), "acme")
		require.NoError(t, err)
		_, err = rt.Get(context.Background(), "globex")
		require.NoError(t, err)

		report := reporter.Check(context.Background())
		assert.True(t, report.Master)
		assert.Equal(t, map[string]bool{"acme": true, "globex": true}, report.Tenants)
		assert.True(t, report.Healthy())
	})

	t.Run("failed tenant probe is reported, not evicted", func(t *testing.T) {
		reporter, rt, _ := setupReporter(t)

		handle, err := rt.Get(context.Background(), "acme")
		require.NoError(t, err)
		_, err = rt.Get(context.Background(), "globex")
		require.NoError(t, err)

		sqlDB, err := handle.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		report := reporter.Check(context.Background())
		assert.True(t, report.Master)
		assert.Equal(t, map[string]bool{"acme": false, "globex": true}, report.Tenants)
		assert.False(t, report.Healthy())

		// The unhealthy entry stays cached until an operator evicts it.
		assert.Equal(t, 2, rt.Len())
	})

	t.Run("master failure marks the report unhealthy", func(t *testing.T) {
		reporter, _, master := setupReporter(t)

		sqlDB, err := master.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		report := reporter.Check(context.Background())
		assert.False(t, report.Master)
		assert.False(t, report.Healthy())
	})
}
