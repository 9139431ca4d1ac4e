package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/omsms/tenantgate/internal/config"
	"github.com/omsms/tenantgate/internal/health"
	"github.com/omsms/tenantgate/internal/router"
	"github.com/omsms/tenantgate/internal/signup"
	tenantdomain "github.com/omsms/tenantgate/internal/tenant/domain"
	"github.com/omsms/tenantgate/internal/tenant/registry"
	"github.com/omsms/tenantgate/internal/tenant/repository"
	tenantservice "github.com/omsms/tenantgate/internal/tenant/service"
	dbpkg "github.com/omsms/tenantgate/pkg/db"
)

type testDialer struct{}

func (testDialer) Dial(_ context.Context, _ string) (*gorm.DB, error) {
	return dbpkg.NewTest()
}

type testProvisioner struct{}

func (testProvisioner) Provision(_ context.Context, subdomain string) (string, error) {
	return "postgres://localhost/omsms_tenant_" + subdomain, nil
}

func (testProvisioner) Drop(_ context.Context, _ string) error { return nil }

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tenantdomain.Tenant{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	repo := repository.NewRepository(db)
	registryClient := registry.NewClient(repo, time.Second, log)
	rt := router.New(registryClient, testDialer{}, log, router.Options{})
	tenantSvc := tenantservice.NewService(db, repo, rt, log)
	signupSvc := signup.NewService(tenantSvc, testProvisioner{}, nil, nil, node, config.Config{}, log)
	reporter := health.NewReporter(db, rt, log)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	NewServer(ServerParams{
		Gin:       engine,
		Cfg:       config.Config{},
		TenantSvc: tenantSvc,
		SignupSvc: signupSvc,
		Router:    rt,
		Reporter:  reporter,
	})
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestSignupEndpoint(t *testing.T) {
	engine := setupTestServer(t)

	t.Run("creates a tenant", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodPost, "/v1/tenants", `{"subdomain":"acme","name":"Acme Motors"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var body struct {
			Subdomain string `json:"subdomain"`
			Status    string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "acme", body.Subdomain)
		assert.Equal(t, "active", body.Status)
	})

	t.Run("duplicate subdomain conflicts", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodPost, "/v1/tenants", `{"subdomain":"acme"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "subdomain_taken")
	})

	t.Run("invalid subdomain", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodPost, "/v1/tenants", `{"subdomain":"!!!"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing subdomain", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodPost, "/v1/tenants", `{"name":"No Subdomain"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodPost, "/v1/tenants", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTenantEndpoints(t *testing.T) {
	engine := setupTestServer(t)

	rec := doRequest(t, engine, http.MethodPost, "/v1/tenants", `{"subdomain":"acme"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("get tenant", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodGet, "/v1/tenants/acme", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"subdomain":"acme"`)
	})

	t.Run("get unknown tenant", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodGet, "/v1/tenants/nobody", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list tenants", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodGet, "/v1/tenants", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"subdomain":"acme"`)
	})

	t.Run("connection check succeeds for active tenant", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodGet, "/v1/tenants/acme/connection", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"connected":true`)
	})

	t.Run("invalid status is rejected", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodPatch, "/v1/tenants/acme/status", `{"status":"frozen"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("suspension gates new connections", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodPatch, "/v1/tenants/acme/status", `{"status":"suspended"}`)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doRequest(t, engine, http.MethodGet, "/v1/tenants/acme/connection", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "tenant_suspended")
	})

	t.Run("cache eviction reports whether an entry existed", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodDelete, "/v1/cache/acme", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"evicted":false`)
	})

	t.Run("health reports master", func(t *testing.T) {
		rec := doRequest(t, engine, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"master":true`)
	})
}
