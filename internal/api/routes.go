package api

import (
	"github.com/gin-gonic/gin"

	v1 "perkgate-hub/internal/api/v1"
	"perkgate-hub/internal/ratelimit"
	"perkgate-hub/internal/service"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Tenant        *service.TenantService
	Coupon        *service.CouponService
	OptIn         *service.OptInService
	Survey        *service.SurveyService
	Issuance      *service.IssuanceService
	Qualification *service.QualificationService
	Auth          *service.AuthService
}

// RegisterRoutes wires the public visitor flow and the operator admin
// surface under /api/v1.
func RegisterRoutes(
	router gin.IRouter,
	services Services,
	limiter *ratelimit.Limiter,
	jwtSecret []byte,
) {
	group := router.Group("/api/v1")

	v1.RegisterClaimRoutes(
		group,
		services.Qualification,
		services.Coupon,
		services.Tenant,
		services.Issuance,
		services.OptIn,
		services.Survey,
		limiter,
	)
	v1.RegisterAuthRoutes(group, services.Auth, limiter)
	v1.RegisterCouponAdminRoutes(group, services.Coupon, limiter, jwtSecret)
	v1.RegisterSurveyAdminRoutes(group, services.Survey, limiter, jwtSecret)
	v1.RegisterTenantAdminRoutes(group, services.Tenant, limiter, jwtSecret)
}
