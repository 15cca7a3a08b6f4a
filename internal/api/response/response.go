package response

import "github.com/gin-gonic/gin"

const (
	CodeSuccess = 0
)

const (
	ErrUnauthorized = 10001
	ErrTokenExpired = 10002
	ErrForbidden    = 10003
)

const (
	ErrTenantNotFound = 20001
	ErrTenantInactive = 20002
)

const (
	ErrValidation   = 30001
	ErrInvalidEmail = 30002
)

const (
	ErrRateLimited = 40001
)

const (
	ErrCouponNotFound = 50001
	ErrCouponInactive = 50002
)

const (
	ErrInternal = 99999
)

type Response struct {
	Code       int         `json:"code"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

func Success(c *gin.Context, data any) {
	c.JSON(200, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Paginated(c *gin.Context, data any, page, pageSize int, total int64) {
	c.JSON(200, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
		Pagination: &Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

func Fail(c *gin.Context, httpStatus, appCode int, message string) {
	c.JSON(httpStatus, Response{
		Code:    appCode,
		Message: message,
	})
}

// RateLimited is the 429 shape: a plain-language message plus how long the
// client should wait before retrying.
func RateLimited(c *gin.Context, retryAfterSeconds int64) {
	c.JSON(429, Response{
		Code:    ErrRateLimited,
		Message: "too many requests, please slow down",
		Data: map[string]int64{
			"retry_after_seconds": retryAfterSeconds,
		},
	})
}
