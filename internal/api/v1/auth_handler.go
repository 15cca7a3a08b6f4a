package v1

import (
	"errors"

	"github.com/gin-gonic/gin"

	"perkgate-hub/internal/api/middleware"
	"perkgate-hub/internal/api/response"
	"perkgate-hub/internal/ratelimit"
	"perkgate-hub/internal/service"
)

type AuthHandler struct {
	authSvc *service.AuthService
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func RegisterAuthRoutes(group *gin.RouterGroup, authSvc *service.AuthService, limiter *ratelimit.Limiter) {
	handler := &AuthHandler{authSvc: authSvc}

	auth := group.Group("/auth")
	auth.POST("/login", middleware.RateLimitByEmail(limiter, ratelimit.AccountChange, "email"), handler.Login)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, 400, response.ErrUnauthorized, "email and password are required")
		return
	}

	token, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.Fail(c, 401, response.ErrUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		response.Fail(c, 500, response.ErrInternal, "something went wrong, please try again")
		return
	}

	response.Success(c, gin.H{"access_token": token})
}
