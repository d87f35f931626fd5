package rate_limit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Middleware limits mutating requests per client IP. Reads pass through. A
// limiter error lets the request through.
func Middleware(limiter RateLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		switch ctx.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			ctx.Next()
			return
		}

		result, err := limiter.CheckRateLimit(ctx.Request.Context(), ctx.ClientIP())
		if err != nil {
			logger.Warn("rate limit check failed", slog.String("error", err.Error()))
			ctx.Next()
			return
		}

		ctx.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			ctx.Header("Retry-After", strconv.Itoa(result.RetryAfterSec))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
			return
		}

		ctx.Next()
	}
}
