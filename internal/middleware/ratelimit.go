package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"

	"github.com/asgarovf/smart-wallet/internal/config"
	"github.com/asgarovf/smart-wallet/internal/types"
)

// RateLimiter the rate limiter for the deploy endpoints
func RateLimiter(conf *config.Config) gin.HandlerFunc {
	qps := conf.RateLimiterQPS
	if qps <= 0 {
		qps = 1
	}
	// Single bucket for all callers
	bucket := ratelimit.NewBucket(time.Second/time.Duration(qps), qps)

	return func(c *gin.Context) {
		if bucket.TakeAvailable(1) < 1 {
			types.RenderError(c, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		c.Next()
	}
}
