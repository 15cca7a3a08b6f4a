package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"perkgate-hub/internal/api/response"
	"perkgate-hub/internal/metrics"
	"perkgate-hub/internal/ratelimit"
)

// RateLimit buckets by forwarded client IP (or the shared "unknown"
// bucket when no signal is available).
func RateLimit(limiter *ratelimit.Limiter, cfg ratelimit.Config) gin.HandlerFunc {
	return rateLimitWithResolver(limiter, cfg, func(c *gin.Context) string {
		return ratelimit.ClientIdentifier("", c.Request.Header)
	})
}

// RateLimitByEmail buckets by the subject's email, looked up in the query
// string first and then in a JSON body field of the same name. Requests
// without an email fall back to the IP bucket.
func RateLimitByEmail(limiter *ratelimit.Limiter, cfg ratelimit.Config, field string) gin.HandlerFunc {
	field = strings.TrimSpace(field)
	return rateLimitWithResolver(limiter, cfg, func(c *gin.Context) string {
		email := strings.TrimSpace(c.Query(field))
		if email == "" && field != "" {
			email = extractJSONField(c, field)
		}
		return ratelimit.ClientIdentifier(email, c.Request.Header)
	})
}

func rateLimitWithResolver(
	limiter *ratelimit.Limiter,
	cfg ratelimit.Config,
	keyResolver func(c *gin.Context) string,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := "unknown"
		if keyResolver != nil {
			if resolved := keyResolver(c); resolved != "" {
				identifier = resolved
			}
		}

		result := limiter.Check(c.Request.Context(), identifier, cfg)
		if !result.Allowed {
			metrics.ObserveRateLimitDenial(cfg.Name)
			retryAfter := int64(time.Until(result.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			response.RateLimited(c, retryAfter)
			c.Abort()
			return
		}

		c.Next()
	}
}

func extractJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	if len(raw) == 0 {
		return ""
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}

	value, ok := payload[field].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
