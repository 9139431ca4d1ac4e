package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/omsms/tenantgate/internal/provisioner"
	"github.com/omsms/tenantgate/internal/router"
	signupdomain "github.com/omsms/tenantgate/internal/signup/domain"
	tenantdomain "github.com/omsms/tenantgate/internal/tenant/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware renders the last handler error as a JSON error
// body. Handlers attach errors with AbortWithError and never write status
// codes themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var connErr *router.ConnectionError
	var provErr *provisioner.ProvisioningError

	switch {
	case errors.Is(err, tenantdomain.ErrInvalidSubdomain):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []ValidationError{{Field: "subdomain", Code: "invalid_subdomain", Message: "invalid subdomain"}},
		}
	case errors.Is(err, tenantdomain.ErrInvalidStatus):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []ValidationError{{Field: "status", Code: "invalid_status", Message: "invalid status"}},
		}
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
		}
	case errors.Is(err, tenantdomain.ErrSuspended):
		return http.StatusForbidden, errorPayload{
			Type:    "tenant_suspended",
			Message: "tenant is not active",
		}
	case errors.Is(err, tenantdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, tenantdomain.ErrSubdomainTaken):
		return http.StatusConflict, errorPayload{
			Type:    "subdomain_taken",
			Message: "subdomain already registered",
		}
	case errors.Is(err, signupdomain.ErrProvisionInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "provision_in_progress",
			Message: "provisioning already in progress for this subdomain",
		}
	case errors.Is(err, signupdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many signup attempts",
		}
	case errors.As(err, &connErr):
		return http.StatusBadGateway, errorPayload{
			Type:    "connection_error",
			Message: "tenant database unreachable",
		}
	case errors.As(err, &provErr):
		return http.StatusInternalServerError, errorPayload{
			Type:    "provisioning_error",
			Message: "tenant provisioning failed",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// classifyErrorForLog maps a handler error onto the type and code fields of
// the request log line.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= 500:
		return "server_error", payload.Type
	case status >= 400:
		return "client_error", payload.Type
	default:
		return "", payload.Type
	}
}
