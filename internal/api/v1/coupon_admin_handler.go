package v1

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"perkgate-hub/internal/api/middleware"
	"perkgate-hub/internal/api/response"
	inputsanitize "perkgate-hub/internal/api/sanitize"
	"perkgate-hub/internal/model"
	"perkgate-hub/internal/ratelimit"
	"perkgate-hub/internal/repository"
	"perkgate-hub/internal/service"
)

type CouponAdminHandler struct {
	couponSvc *service.CouponService
}

type couponRequest struct {
	Title        string  `json:"title" binding:"required"`
	DiscountText string  `json:"discount_text" binding:"required"`
	ExpiresAt    *string `json:"expires_at"`
	IsActive     *bool   `json:"is_active"`
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

func RegisterCouponAdminRoutes(
	group *gin.RouterGroup,
	couponSvc *service.CouponService,
	limiter *ratelimit.Limiter,
	jwtSecret []byte,
) {
	handler := &CouponAdminHandler{couponSvc: couponSvc}

	coupons := group.Group("/admin/coupons")
	coupons.Use(middleware.OperatorAuth(jwtSecret))
	coupons.Use(middleware.RateLimit(limiter, ratelimit.General))

	coupons.GET("/", handler.List)
	coupons.POST("/", handler.Create)
	coupons.PUT("/:id", handler.Update)
	coupons.PATCH("/:id/status", handler.SetStatus)
	coupons.GET("/:id/issued", handler.ListIssued)
}

func (h *CouponAdminHandler) List(c *gin.Context) {
	tenantID, ok := middleware.TenantFromClaims(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
		return
	}

	page, pageSize := parsePageQuery(c)
	coupons, total, err := h.couponSvc.List(c.Request.Context(), tenantID, repository.Pagination{
		Limit:  int32(pageSize),
		Offset: int32((page - 1) * pageSize),
	})
	if err != nil {
		response.Fail(c, 500, response.ErrInternal, "something went wrong, please try again")
		return
	}
	response.Paginated(c, coupons, page, pageSize, total)
}

func (h *CouponAdminHandler) Create(c *gin.Context) {
	tenantID, ok := middleware.TenantFromClaims(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, response.ErrValidation, "title and discount_text are required")
		return
	}

	coupon, err := couponFromRequest(tenantID, req)
	if err != nil {
		response.Fail(c, 400, response.ErrValidation, err.Error())
		return
	}

	if err := h.couponSvc.Create(c.Request.Context(), coupon); err != nil {
		failAdminError(c, err)
		return
	}
	response.Success(c, coupon)
}

func (h *CouponAdminHandler) Update(c *gin.Context) {
	tenantID, ok := middleware.TenantFromClaims(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
		return
	}

	couponID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, 400, response.ErrCouponNotFound, "invalid coupon id")
		return
	}

	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, response.ErrValidation, "title and discount_text are required")
		return
	}

	coupon, err := couponFromRequest(tenantID, req)
	if err != nil {
		response.Fail(c, 400, response.ErrValidation, err.Error())
		return
	}
	coupon.ID = couponID

	if err := h.couponSvc.Update(c.Request.Context(), coupon); err != nil {
		failAdminError(c, err)
		return
	}
	response.Success(c, coupon)
}

func (h *CouponAdminHandler) SetStatus(c *gin.Context) {
	tenantID, ok := middleware.TenantFromClaims(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
		return
	}

	couponID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, 400, response.ErrCouponNotFound, "invalid coupon id")
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, response.ErrValidation, "is_active is required")
		return
	}

	if err := h.couponSvc.SetActive(c.Request.Context(), tenantID, couponID, req.IsActive); err != nil {
		failAdminError(c, err)
		return
	}
	response.Success(c, gin.H{"is_active": req.IsActive})
}

func (h *CouponAdminHandler) ListIssued(c *gin.Context) {
	tenantID, ok := middleware.TenantFromClaims(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
		return
	}

	couponID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, 400, response.ErrCouponNotFound, "invalid coupon id")
		return
	}

	page, pageSize := parsePageQuery(c)
	issued, total, err := h.couponSvc.ListIssued(c.Request.Context(), tenantID, couponID, repository.Pagination{
		Limit:  int32(pageSize),
		Offset: int32((page - 1) * pageSize),
	})
	if err != nil {
		response.Fail(c, 500, response.ErrInternal, "something went wrong, please try again")
		return
	}
	response.Paginated(c, issued, page, pageSize, total)
}

func couponFromRequest(tenantID uuid.UUID, req couponRequest) (*model.Coupon, error) {
	coupon := &model.Coupon{
		TenantID:     tenantID,
		Title:        inputsanitize.Text(req.Title),
		DiscountText: inputsanitize.Text(req.DiscountText),
		IsActive:     true,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return nil, errors.New("expires_at must be RFC 3339")
		}
		coupon.ExpiresAt = &expiresAt
	}
	return coupon, nil
}

func parsePageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

func failAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCouponNotFound):
		response.Fail(c, 404, response.ErrCouponNotFound, "coupon not found")
	case errors.Is(err, service.ErrInvalidCouponInput):
		response.Fail(c, 400, response.ErrValidation, "invalid coupon input")
	default:
		response.Fail(c, 500, response.ErrInternal, "something went wrong, please try again")
	}
}
