package v1

import (
	"errors"

	"github.com/gin-gonic/gin"

	"perkgate-hub/internal/api/middleware"
	"perkgate-hub/internal/api/response"
	"perkgate-hub/internal/ratelimit"
	"perkgate-hub/internal/service"
)

// TenantAdminHandler lets an operator deactivate or reactivate their own
// tenant. Deactivation is the emergency stop for the whole public surface.
type TenantAdminHandler struct {
	tenantSvc *service.TenantService
}

func RegisterTenantAdminRoutes(
	group *gin.RouterGroup,
	tenantSvc *service.TenantService,
	limiter *ratelimit.Limiter,
	jwtSecret []byte,
) {
	handler := &TenantAdminHandler{tenantSvc: tenantSvc}

	admin := group.Group("/admin/tenant")
	admin.Use(middleware.OperatorAuth(jwtSecret))
	admin.Use(middleware.RateLimit(limiter, ratelimit.AccountChange))

	admin.PATCH("/status", handler.SetStatus)
}

func (h *TenantAdminHandler) SetStatus(c *gin.Context) {
	tenantID, ok := middleware.TenantFromClaims(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, response.ErrValidation, "is_active is required")
		return
	}

	if err := h.tenantSvc.SetActive(c.Request.Context(), tenantID, req.IsActive); err != nil {
		if errors.Is(err, service.ErrTenantNotFound) {
			response.Fail(c, 404, response.ErrTenantNotFound, "tenant not found")
			return
		}
		response.Fail(c, 500, response.ErrInternal, "something went wrong, please try again")
		return
	}
	response.Success(c, gin.H{"is_active": req.IsActive})
}
