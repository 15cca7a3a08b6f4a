package v1

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"perkgate-hub/internal/api/middleware"
	"perkgate-hub/internal/api/response"
	"perkgate-hub/internal/model"
	"perkgate-hub/internal/ratelimit"
	"perkgate-hub/internal/repository"
	"perkgate-hub/internal/service"
)

// ClaimHandler serves the public visitor journey: list coupons, decide the
// next flow step, render the survey, take the submission and hand out the
// code. The qualifying email travels between steps as the `email` query
// parameter of the claim URL.
type ClaimHandler struct {
	qualificationSvc *service.QualificationService
	couponSvc        *service.CouponService
	tenantSvc        *service.TenantService
	issuanceSvc      *service.IssuanceService
	optInSvc         *service.OptInService
	surveySvc        *service.SurveyService
}

type submitEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

type submitSurveyRequest struct {
	Email   string                    `json:"email" binding:"required"`
	Answers []model.SurveyAnswerInput `json:"answers"`
}

type claimRequest struct {
	Email string `json:"email" binding:"required"`
}

func RegisterClaimRoutes(
	group *gin.RouterGroup,
	qualificationSvc *service.QualificationService,
	couponSvc *service.CouponService,
	tenantSvc *service.TenantService,
	issuanceSvc *service.IssuanceService,
	optInSvc *service.OptInService,
	surveySvc *service.SurveyService,
	limiter *ratelimit.Limiter,
) {
	handler := &ClaimHandler{
		qualificationSvc: qualificationSvc,
		couponSvc:        couponSvc,
		tenantSvc:        tenantSvc,
		issuanceSvc:      issuanceSvc,
		optInSvc:         optInSvc,
		surveySvc:        surveySvc,
	}

	tenants := group.Group("/t/:slug")
	tenants.GET("/coupons", middleware.RateLimit(limiter, ratelimit.General), handler.ListCoupons)
	tenants.POST("/optin", middleware.RateLimitByEmail(limiter, ratelimit.OptIn, "email"), handler.OptIn)

	coupons := tenants.Group("/coupons/:id")
	coupons.GET("/flow", middleware.RateLimitByEmail(limiter, ratelimit.General, "email"), handler.Flow)
	coupons.POST("/email", middleware.RateLimitByEmail(limiter, ratelimit.EmailSubmit, "email"), handler.SubmitEmail)
	coupons.GET("/survey", middleware.RateLimitByEmail(limiter, ratelimit.General, "email"), handler.GetSurvey)
	coupons.POST("/survey", middleware.RateLimitByEmail(limiter, ratelimit.SurveySubmit, "email"), handler.SubmitSurvey)
	coupons.POST("/claim", middleware.RateLimitByEmail(limiter, ratelimit.CouponIssue, "email"), handler.Claim)
	coupons.GET("/issued", middleware.RateLimitByEmail(limiter, ratelimit.CouponCheck, "email"), handler.CheckIssued)
}

func (h *ClaimHandler) ListCoupons(c *gin.Context) {
	tenant, err := h.tenantSvc.FetchActive(c.Request.Context(), c.Param("slug"))
	if err != nil {
		failFlowError(c, err)
		return
	}
	if !tenant.IsActive {
		response.Fail(c, 410, response.ErrTenantInactive, "this business is no longer offering coupons")
		return
	}

	coupons, err := h.couponSvc.ListActive(c.Request.Context(), tenant.ID)
	if err != nil {
		failFlowError(c, err)
		return
	}

	response.Success(c, gin.H{
		"tenant":  tenant,
		"coupons": coupons,
	})
}

// OptIn is the newsletter-style direct opt-in: no survey, no coupon, just
// a consent record. Duplicates are success.
func (h *ClaimHandler) OptIn(c *gin.Context) {
	var req submitEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, response.ErrInvalidEmail, "email is required")
		return
	}

	email, err := service.NormalizeEmail(req.Email)
	if err != nil {
		failFlowError(c, err)
		return
	}

	tenantID, err := h.tenantSvc.Resolve(c.Request.Context(), c.Param("slug"))
	if err != nil {
		failFlowError(c, err)
		return
	}

	if err := h.optInSvc.RecordOptIn(c.Request.Context(), tenantID, email, time.Now().UTC()); err != nil {
		failFlowError(c, err)
		return
	}
	response.Success(c, gin.H{"opted_in": true})
}

func (h *ClaimHandler) Flow(c *gin.Context) {
	couponID, ok := parseCouponID(c)
	if !ok {
		return
	}

	decision, err := h.qualificationSvc.NextStep(
		c.Request.Context(),
		c.Param("slug"),
		couponID,
		c.Query("email"),
	)
	if err != nil {
		failFlowError(c, err)
		return
	}
	response.Success(c, decision)
}

// SubmitEmail attaches the visitor's email to the flow and returns the
// next step. Opt-in is not recorded here: it happens on survey completion
// (or through the direct opt-in endpoint).
func (h *ClaimHandler) SubmitEmail(c *gin.Context) {
	couponID, ok := parseCouponID(c)
	if !ok {
		return
	}

	var req submitEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, response.ErrInvalidEmail, "email is required")
		return
	}

	decision, err := h.qualificationSvc.NextStep(
		c.Request.Context(),
		c.Param("slug"),
		couponID,
		req.Email,
	)
	if err != nil {
		failFlowError(c, err)
		return
	}
	response.Success(c, decision)
}

func (h *ClaimHandler) GetSurvey(c *gin.Context) {
	couponID, ok := parseCouponID(c)
	if !ok {
		return
	}

	tenantID, err := h.tenantSvc.Resolve(c.Request.Context(), c.Param("slug"))
	if err != nil {
		failFlowError(c, err)
		return
	}

	survey, err := h.surveySvc.LoadSurvey(c.Request.Context(), tenantID, &couponID)
	if err != nil {
		failFlowError(c, err)
		return
	}
	response.Success(c, survey)
}

func (h *ClaimHandler) SubmitSurvey(c *gin.Context) {
	couponID, ok := parseCouponID(c)
	if !ok {
		return
	}

	var req submitSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, response.ErrValidation, "email and answers are required")
		return
	}

	decision, err := h.qualificationSvc.CompleteSurvey(
		c.Request.Context(),
		c.Param("slug"),
		couponID,
		req.Email,
		req.Answers,
	)
	if err != nil {
		failFlowError(c, err)
		return
	}
	response.Success(c, decision)
}

func (h *ClaimHandler) Claim(c *gin.Context) {
	couponID, ok := parseCouponID(c)
	if !ok {
		return
	}

	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, response.ErrInvalidEmail, "email is required")
		return
	}

	decision, err := h.qualificationSvc.Claim(
		c.Request.Context(),
		c.Param("slug"),
		couponID,
		req.Email,
	)
	if err != nil {
		failFlowError(c, err)
		return
	}
	response.Success(c, decision)
}

func (h *ClaimHandler) CheckIssued(c *gin.Context) {
	couponID, ok := parseCouponID(c)
	if !ok {
		return
	}

	tenantID, err := h.tenantSvc.Resolve(c.Request.Context(), c.Param("slug"))
	if err != nil {
		failFlowError(c, err)
		return
	}

	issued, err := h.issuanceSvc.CheckIssued(c.Request.Context(), tenantID, couponID, c.Query("email"))
	if errors.Is(err, repository.ErrNotFound) {
		response.Fail(c, 404, response.ErrCouponNotFound, "no coupon issued for this email")
		return
	}
	if err != nil {
		failFlowError(c, err)
		return
	}
	response.Success(c, issued)
}

func parseCouponID(c *gin.Context) (uuid.UUID, bool) {
	couponID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, 400, response.ErrCouponNotFound, "invalid coupon id")
		return uuid.Nil, false
	}
	return couponID, true
}

// failFlowError maps service errors to user-visible responses. Internal
// faults always surface as a generic message; the details live in logs.
func failFlowError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrTenantNotFound):
		response.Fail(c, 404, response.ErrTenantNotFound, "we couldn't find that business")
	case errors.Is(err, service.ErrTenantInactive):
		response.Fail(c, 410, response.ErrTenantInactive, "this business is no longer offering coupons")
	case errors.Is(err, service.ErrInvalidEmail):
		response.Fail(c, 400, response.ErrInvalidEmail, "please provide a valid email address")
	case errors.Is(err, service.ErrCouponNotFound):
		response.Fail(c, 404, response.ErrCouponNotFound, "we couldn't find that coupon")
	case errors.Is(err, service.ErrCouponInactive):
		response.Fail(c, 410, response.ErrCouponInactive, "this coupon is no longer available")
	case errors.As(err, &validationErr):
		c.JSON(422, response.Response{
			Code:    response.ErrValidation,
			Message: "some answers need another look",
			Data:    validationErr,
		})
	default:
		response.Fail(c, 500, response.ErrInternal, "something went wrong, please try again")
	}
}
