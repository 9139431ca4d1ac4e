package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/omsms/tenantgate/internal/tenant/domain"
	"github.com/omsms/tenantgate/internal/tenant/repository"
	dbpkg "github.com/omsms/tenantgate/pkg/db"
)

type recordingEvictor struct {
	evicted []string
}

func (e *recordingEvictor) Evict(subdomain string) bool {
	e.evicted = append(e.evicted, subdomain)
	return true
}

func setupService(t *testing.T) (domain.Service, *recordingEvictor, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Tenant{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	evictor := &recordingEvictor{}
	repo := repository.NewRepository(db)
	svc := NewService(db, repo, evictor, zap.NewNop())
	return svc, evictor, db, node
}

func newTenant(node *snowflake.Node, subdomain string) domain.Tenant {
	return domain.Tenant{
		ID:          node.Generate(),
		Subdomain:   subdomain,
		Name:        subdomain,
		DatabaseURL: "postgres://localhost/omsms_tenant_" + subdomain,
		Status:      domain.StatusActive,
	}
}

func TestRegisterAndGet(t *testing.T) {
	svc, _, _, node := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, newTenant(node, "acme")))

	got, err := svc.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Subdomain)
	assert.Equal(t, domain.StatusActive, got.Status)

	t.Run("lookup normalizes the subdomain", func(t *testing.T) {
		got, err := svc.Get(ctx, "  ACME ")
		require.NoError(t, err)
		assert.Equal(t, "acme", got.Subdomain)
	})

	t.Run("unknown subdomain", func(t *testing.T) {
		_, err := svc.Get(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate subdomain", func(t *testing.T) {
		err := svc.Register(ctx, newTenant(node, "acme"))
		assert.ErrorIs(t, err, domain.ErrSubdomainTaken)
	})
}

func TestSetStatus(t *testing.T) {
	svc, evictor, _, node := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, newTenant(node, "acme")))

	t.Run("rejects unknown status", func(t *testing.T) {
		err := svc.SetStatus(ctx, "acme", domain.Status("frozen"))
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})

	t.Run("rejects unknown tenant", func(t *testing.T) {
		err := svc.SetStatus(ctx, "nobody", domain.StatusSuspended)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("suspension evicts the cached connection", func(t *testing.T) {
		require.NoError(t, svc.SetStatus(ctx, "acme", domain.StatusSuspended))

		got, err := svc.Get(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSuspended, got.Status)
		assert.Equal(t, []string{"acme"}, evictor.evicted)
	})

	t.Run("reactivation does not evict", func(t *testing.T) {
		require.NoError(t, svc.SetStatus(ctx, "acme", domain.StatusActive))
		assert.Equal(t, []string{"acme"}, evictor.evicted)
	})
}

func TestList(t *testing.T) {
	svc, _, db, node := setupService(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		tenant := newTenant(node, fmt.Sprintf("tenant-%d", i))
		tenant.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		tenant.UpdatedAt = tenant.CreatedAt
		require.NoError(t, db.Create(&tenant).Error)
	}

	var all []domain.TenantResponse
	token := ""
	pages := 0
	for {
		page, next, err := svc.List(ctx, domain.ListQuery{PageToken: token, PageSize: 2})
		require.NoError(t, err)
		all = append(all, page...)
		pages++
		if next == "" {
			break
		}
		token = next
	}

	assert.Equal(t, 3, pages)
	require.Len(t, all, 5)
	for i, tenant := range all {
		assert.Equal(t, fmt.Sprintf("tenant-%d", i), tenant.Subdomain)
	}
}

func TestNormalizeSubdomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme", "acme"},
		{"  acme  ", "acme"},
		{"Acme Motors", "acme-motors"},
		{"acme_motors", "acme-motors"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeSubdomain(tc.in), "input %q", tc.in)
	}
}

func TestValidSubdomain(t *testing.T) {
	assert.True(t, ValidSubdomain("acme"))
	assert.True(t, ValidSubdomain("acme-motors"))
	assert.True(t, ValidSubdomain("a1"))
	assert.False(t, ValidSubdomain(""))
	assert.False(t, ValidSubdomain("-acme"))
	assert.False(t, ValidSubdomain("acme-"))
	assert.False(t, ValidSubdomain("Acme"))
}
