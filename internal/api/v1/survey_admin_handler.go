package v1

import (
	"errors"

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

type SurveyAdminHandler struct {
	surveySvc *service.SurveyService
}

type questionRequest struct {
	CouponID   *string  `json:"coupon_id"`
	Position   int      `json:"position"`
	Type       string   `json:"question_type" binding:"required"`
	Prompt     string   `json:"prompt" binding:"required"`
	Options    []string `json:"options"`
	MinValue   *float64 `json:"min_value"`
	MaxValue   *float64 `json:"max_value"`
	IsRequired bool     `json:"is_required"`
}

func RegisterSurveyAdminRoutes(
	group *gin.RouterGroup,
	surveySvc *service.SurveyService,
	limiter *ratelimit.Limiter,
	jwtSecret []byte,
) {
	handler := &SurveyAdminHandler{surveySvc: surveySvc}

	admin := group.Group("/admin")
	admin.Use(middleware.OperatorAuth(jwtSecret))
	admin.Use(middleware.RateLimit(limiter, ratelimit.General))

	admin.GET("/survey", handler.GetSurvey)
	admin.POST("/survey/questions", handler.CreateQuestion)
	admin.PUT("/survey/questions/:id", handler.UpdateQuestion)
	admin.DELETE("/survey/questions/:id", handler.DeleteQuestion)
	admin.GET("/survey/responses", handler.ListResponses)
}

func (h *SurveyAdminHandler) GetSurvey(c *gin.Context) {
	tenantID, ok := middleware.TenantFromClaims(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
		return
	}

	couponID, ok := optionalCouponQuery(c)
	if !ok {
		return
	}

	survey, err := h.surveySvc.LoadSurvey(c.Request.Context(), tenantID, couponID)
	if err != nil {
		response.Fail(c, 500, response.ErrInternal, "something went wrong, please try again")
		return
	}
	response.Success(c, survey)
}

func (h *SurveyAdminHandler) CreateQuestion(c *gin.Context) {
	tenantID, ok := middleware.TenantFromClaims(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
		return
	}

	question, ok := h.bindQuestion(c, tenantID)
	if !ok {
		return
	}

	if err := h.surveySvc.SaveQuestion(c.Request.Context(), question); err != nil {
		failQuestionError(c, err)
		return
	}
	response.Success(c, question)
}

func (h *SurveyAdminHandler) UpdateQuestion(c *gin.Context) {
	tenantID, ok := middleware.TenantFromClaims(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
		return
	}

	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, 400, response.ErrValidation, "invalid question id")
		return
	}

	question, ok := h.bindQuestion(c, tenantID)
	if !ok {
		return
	}
	question.ID = questionID

	if err := h.surveySvc.SaveQuestion(c.Request.Context(), question); err != nil {
		failQuestionError(c, err)
		return
	}
	response.Success(c, question)
}

func (h *SurveyAdminHandler) DeleteQuestion(c *gin.Context) {
	tenantID, ok := middleware.TenantFromClaims(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
		return
	}

	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, 400, response.ErrValidation, "invalid question id")
		return
	}

	if err := h.surveySvc.DeleteQuestion(c.Request.Context(), tenantID, questionID); err != nil {
		failQuestionError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func (h *SurveyAdminHandler) ListResponses(c *gin.Context) {
	tenantID, ok := middleware.TenantFromClaims(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
		return
	}

	couponID, ok := optionalCouponQuery(c)
	if !ok {
		return
	}

	page, pageSize := parsePageQuery(c)
	responses, total, err := h.surveySvc.ListResponses(c.Request.Context(), tenantID, couponID, repository.Pagination{
		Limit:  int32(pageSize),
		Offset: int32((page - 1) * pageSize),
	})
	if err != nil {
		response.Fail(c, 500, response.ErrInternal, "something went wrong, please try again")
		return
	}
	response.Paginated(c, responses, page, pageSize, total)
}

func (h *SurveyAdminHandler) bindQuestion(c *gin.Context, tenantID uuid.UUID) (*model.SurveyQuestion, bool) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, response.ErrValidation, "question_type and prompt are required")
		return nil, false
	}

	question := &model.SurveyQuestion{
		TenantID:   tenantID,
		Position:   req.Position,
		Type:       model.QuestionType(req.Type),
		Prompt:     inputsanitize.Prompt(req.Prompt),
		Options:    inputsanitize.StringSlice(req.Options),
		MinValue:   req.MinValue,
		MaxValue:   req.MaxValue,
		IsRequired: req.IsRequired,
	}

	if req.CouponID != nil && *req.CouponID != "" {
		couponID, err := uuid.Parse(*req.CouponID)
		if err != nil {
			response.Fail(c, 400, response.ErrValidation, "invalid coupon_id")
			return nil, false
		}
		question.CouponID = &couponID
	}
	return question, true
}

func optionalCouponQuery(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("coupon_id")
	if raw == "" {
		return nil, true
	}
	couponID, err := uuid.Parse(raw)
	if err != nil {
		response.Fail(c, 400, response.ErrValidation, "invalid coupon_id")
		return nil, false
	}
	return &couponID, true
}

func failQuestionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuestion):
		response.Fail(c, 400, response.ErrValidation, "invalid survey question")
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, 404, response.ErrValidation, "question not found")
	default:
		response.Fail(c, 500, response.ErrInternal, "something went wrong, please try again")
	}
}
