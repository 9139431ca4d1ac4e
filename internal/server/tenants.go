package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	signupdomain "github.com/omsms/tenantgate/internal/signup/domain"
	tenantdomain "github.com/omsms/tenantgate/internal/tenant/domain"
	"github.com/omsms/tenantgate/pkg/db/pagination"
)

type SignupRequest struct {
	Subdomain string `json:"subdomain"`
	Name      string `json:"name"`
}

func (s *Server) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Subdomain == "" {
		AbortWithError(c, newValidationError("subdomain", "required", "subdomain is required"))
		return
	}

	result, err := s.signupSvc.Signup(c.Request.Context(), signupdomain.Request{
		Subdomain: req.Subdomain,
		Name:      req.Name,
		Caller:    c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result.Tenant)
}

type listTenantsResponse struct {
	Tenants       []tenantdomain.TenantResponse `json:"tenants"`
	NextPageToken string                        `json:"next_page_token,omitempty"`
}

func (s *Server) ListTenants(c *gin.Context) {
	var q pagination.Pagination
	if err := c.ShouldBindQuery(&q); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tenants, nextToken, err := s.tenantSvc.List(c.Request.Context(), tenantdomain.ListQuery{
		PageToken: q.PageToken,
		PageSize:  q.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, listTenantsResponse{Tenants: tenants, NextPageToken: nextToken})
}

func (s *Server) GetTenant(c *gin.Context) {
	tenant, err := s.tenantSvc.Get(c.Request.Context(), c.Param("subdomain"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tenant)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) SetTenantStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.tenantSvc.SetStatus(c.Request.Context(), c.Param("subdomain"), tenantdomain.Status(req.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CheckConnection resolves the tenant and dials (or reuses) its database
// connection, reporting whether the tenant is currently routable.
func (s *Server) CheckConnection(c *gin.Context) {
	subdomain := c.Param("subdomain")
	handle, err := s.router.Get(c.Request.Context(), subdomain)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subdomain": subdomain,
		"connected": true,
		"dialect":   handle.Dialector.Name(),
	})
}

func (s *Server) EvictCache(c *gin.Context) {
	evicted := s.router.Evict(c.Param("subdomain"))
	c.JSON(http.StatusOK, gin.H{"evicted": evicted})
}

func (s *Server) Health(c *gin.Context) {
	report := s.reporter.Check(c.Request.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
