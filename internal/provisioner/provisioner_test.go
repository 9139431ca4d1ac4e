package provisioner

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/omsms/tenantgate/internal/config"
	"github.com/omsms/tenantgate/internal/provisioner/schema"
)

type fakeAdmin struct {
	mu         sync.Mutex
	created    []string
	dropped    []string
	createErr  error
	createOnce error // returned by the first CreateDatabase call only
	dropErr    error
}

func (a *fakeAdmin) CreateDatabase(_ context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.createOnce != nil {
		err := a.createOnce
		a.createOnce = nil
		return err
	}
	if a.createErr != nil {
		return a.createErr
	}
	a.created = append(a.created, name)
	return nil
}

func (a *fakeAdmin) DropDatabase(_ context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dropErr != nil {
		return a.dropErr
	}
	a.dropped = append(a.dropped, name)
	return nil
}

func (a *fakeAdmin) DatabaseURL(name string) string {
	return "postgres://localhost:5432/" + name
}

// sqliteOpener provisions into a sqlite file so tests can reopen the
// database after Provision closes its bootstrap handle.
type sqliteOpener struct {
	path string
}

func newSqliteOpener(t *testing.T) *sqliteOpener {
	t.Helper()
	return &sqliteOpener{path: filepath.Join(t.TempDir(), "tenant.db")}
}

func (o *sqliteOpener) open(_ context.Context, _ string) (*gorm.DB, error) {
	handle, err := gorm.Open(sqlite.Open(o.path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	// The production DDL is postgres-specific; tests materialize the seed
	// tables from the models instead.
	if err := handle.AutoMigrate(
		&Role{}, &Location{}, &Department{}, &WorkflowTemplate{}, &SystemConfig{},
	); err != nil {
		return nil, err
	}
	return handle, nil
}

func (o *sqliteOpener) reopen(t *testing.T) *gorm.DB {
	t.Helper()
	handle, err := o.open(context.Background(), "")
	require.NoError(t, err)
	return handle
}

var testStatements = []schema.Statement{
	{Name: "create_widgets", SQL: "CREATE TABLE IF NOT EXISTS widgets (id INTEGER PRIMARY KEY)"},
}

func testConfig() config.Config {
	return config.Config{TenantDBPrefix: "omsms_tenant_"}
}

func newTestProvisioner(t *testing.T, admin AdminConn, opts ...Option) (*Provisioner, *sqliteOpener) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	opener := newSqliteOpener(t)
	base := []Option{
		WithOpener(opener.open),
		WithSchemaStatements(testStatements),
	}
	p := New(admin, node, testConfig(), nil, nil, zap.NewNop(), append(base, opts...)...)
	return p, opener
}

func TestProvisionSeedsBaseline(t *testing.T) {
	admin := &fakeAdmin{}
	p, opener := newTestProvisioner(t, admin)

	databaseURL, err := p.Provision(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/omsms_tenant_acme", databaseURL)
	assert.Equal(t, []string{"omsms_tenant_acme"}, admin.created)
	assert.Empty(t, admin.dropped)

	db := opener.reopen(t)

	t.Run("schema statements applied", func(t *testing.T) {
		assert.NoError(t, db.Exec("INSERT INTO widgets (id) VALUES (1)").Error)
	})

	t.Run("built-in roles", func(t *testing.T) {
		var roles []Role
		require.NoError(t, db.Order("name").Find(&roles).Error)
		require.Len(t, roles, 2)
		assert.Equal(t, "admin", roles[0].Name)
		assert.Equal(t, "user", roles[1].Name)
		assert.True(t, roles[0].IsSystem)
	})

	t.Run("default location and department", func(t *testing.T) {
		var loc Location
		require.NoError(t, db.First(&loc).Error)
		assert.Equal(t, "Main Service Center", loc.Name)
		assert.True(t, loc.IsDefault)

		var dept Department
		require.NoError(t, db.First(&dept).Error)
		assert.Equal(t, "Installation", dept.Name)
		assert.Equal(t, loc.ID, dept.LocationID)
	})

	t.Run("workflow templates", func(t *testing.T) {
		var templates []WorkflowTemplate
		require.NoError(t, db.Order("name").Find(&templates).Error)
		require.Len(t, templates, 2)
		assert.Equal(t, "installation", templates[0].Name)
		assert.Equal(t, "payment", templates[1].Name)
		assert.JSONEq(t,
			`["vehicle_received","inspection","accessory_fitment","quality_check","ready_for_delivery","delivered"]`,
			string(templates[0].Stages),
		)
	})

	t.Run("organization config", func(t *testing.T) {
		values := map[string]string{}
		var rows []SystemConfig
		require.NoError(t, db.Find(&rows).Error)
		for _, row := range rows {
			values[row.Key] = row.Value
		}
		assert.Equal(t, map[string]string{
			"organization.name":     "acme",
			"organization.timezone": "Asia/Kolkata",
			"organization.currency": "INR",
		}, values)
	})
}

func TestProvisionDropsDatabaseOnFailure(t *testing.T) {
	for _, step := range []string{"connect", "create_widgets", "seed"} {
		t.Run("fails at "+step, func(t *testing.T) {
			admin := &fakeAdmin{}
			injected := errors.New("injected failure")
			p, _ := newTestProvisioner(t, admin, WithStepHook(func(name string) error {
				if name == step {
					return injected
				}
				return nil
			}))

			_, err := p.Provision(context.Background(), "acme")

			var perr *ProvisioningError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "acme", perr.Subdomain)
			assert.Equal(t, "omsms_tenant_acme", perr.Database)
			assert.Equal(t, step, perr.Step)
			assert.ErrorIs(t, err, injected)

			assert.Equal(t, []string{"omsms_tenant_acme"}, admin.dropped)
		})
	}
}

func TestProvisionCreateDatabaseFailure(t *testing.T) {
	admin := &fakeAdmin{createErr: errors.New("permission denied")}
	p, _ := newTestProvisioner(t, admin)

	_, err := p.Provision(context.Background(), "acme")

	var perr *ProvisioningError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "create_database", perr.Step)
	// Nothing was created, so nothing is dropped.
	assert.Empty(t, admin.dropped)
}

func TestProvisionCleanupFailureKeepsStepError(t *testing.T) {
	admin := &fakeAdmin{dropErr: errors.New("drop refused")}
	injected := errors.New("injected failure")
	p, _ := newTestProvisioner(t, admin, WithStepHook(func(name string) error {
		if name == "seed" {
			return injected
		}
		return nil
	}))

	_, err := p.Provision(context.Background(), "acme")
	assert.ErrorIs(t, err, injected)
}

func TestProvisionRecreatesOrphanedDatabase(t *testing.T) {
	duplicate := errors.New(`database "omsms_tenant_acme" already exists (SQLSTATE 42P04)`)

	t.Run("orphan is dropped and recreated", func(t *testing.T) {
		admin := &fakeAdmin{createOnce: duplicate}
		p, _ := newTestProvisioner(t, admin)

		databaseURL, err := p.Provision(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost:5432/omsms_tenant_acme", databaseURL)
		assert.Equal(t, []string{"omsms_tenant_acme"}, admin.dropped)
		assert.Equal(t, []string{"omsms_tenant_acme"}, admin.created)
	})

	t.Run("failed orphan drop surfaces the duplicate error", func(t *testing.T) {
		admin := &fakeAdmin{createOnce: duplicate, dropErr: errors.New("drop refused")}
		p, _ := newTestProvisioner(t, admin)

		_, err := p.Provision(context.Background(), "acme")

		var perr *ProvisioningError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "create_database", perr.Step)
		assert.ErrorIs(t, err, duplicate)
		assert.Empty(t, admin.created)
	})
}

func TestProvisionRecoversAfterFailedRun(t *testing.T) {
	admin := &fakeAdmin{}
	failures := 1
	p, _ := newTestProvisioner(t, admin, WithStepHook(func(name string) error {
		if name == "seed" && failures > 0 {
			failures--
			return errors.New("transient failure")
		}
		return nil
	}))

	_, err := p.Provision(context.Background(), "acme")
	require.Error(t, err)
	require.Equal(t, []string{"omsms_tenant_acme"}, admin.dropped)

	databaseURL, err := p.Provision(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/omsms_tenant_acme", databaseURL)
	assert.Equal(t, []string{"omsms_tenant_acme", "omsms_tenant_acme"}, admin.created)
}
