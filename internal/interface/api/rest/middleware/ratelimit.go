package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gallery-api/internal/interface/api/rest/response"
)

const MsgTooManyRequests = "too many requests, please try again later"

type RateStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimit allows limit requests per client IP and route in every window.
// The store being unavailable lets requests through.
func RateLimit(store RateStore, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.FullPath() + ":" + c.ClientIP()

		hits, left, err := store.Incr(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("rate limit store error", zap.Error(err))
			c.Next()
			return
		}

		remaining := max(int64(limit)-hits, 0)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if hits > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(left.Round(time.Second).Seconds())))
			response.Fail(c, http.StatusTooManyRequests, MsgTooManyRequests, nil)
			return
		}

		c.Next()
	}
}
