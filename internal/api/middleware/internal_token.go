package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"perkgate-hub/internal/api/response"
)

// InternalTokenAuth guards operational endpoints (metrics) with a shared
// static token. An empty configured token disables the endpoints rather
// than leaving them open.
func InternalTokenAuth(token string) gin.HandlerFunc {
	expected := strings.TrimSpace(token)

	return func(c *gin.Context) {
		if expected == "" {
			response.Fail(c, 404, response.ErrForbidden, "not found")
			c.Abort()
			return
		}

		provided := tokenFromRequest(c)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		c.Next()
	}
}
