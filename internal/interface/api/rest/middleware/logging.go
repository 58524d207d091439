package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	maxLogBodySize = 1 << 12 // 4 KB
	masked         = "***"
)

var sensitiveFields = []string{"password", "token"}

func RequestLogGin(logger *zap.Logger, mCounter *prometheus.CounterVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions ||
			c.Request.URL.Path == "/favicon.ico" ||
			strings.HasSuffix(c.Request.URL.Path, "/metrics") {
			c.Next()
			return
		}

		start := time.Now()

		var body string
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			ct := c.GetHeader("Content-Type")
			if strings.HasPrefix(ct, "multipart/form-data") {
				body = "<multipart/form-data omitted>"
			} else {
				// only the logged copy is capped, the handler still gets the full body
				raw, err := io.ReadAll(c.Request.Body)
				_ = c.Request.Body.Close()
				c.Request.Body = io.NopCloser(bytes.NewReader(raw))
				if err == nil {
					body = maskBody(raw)
				}
			}
		}

		c.Next()

		if mCounter != nil {
			mCounter.WithLabelValues("app_requests_total").Inc()
		}

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("url", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("body", body),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// maskBody hides credential fields of a JSON object body. Anything that is not
// a JSON object is logged as-is, truncated.
func maskBody(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, f := range sensitiveFields {
			if _, ok := obj[f]; ok {
				obj[f] = masked
			}
		}
		if b, err := json.Marshal(obj); err == nil {
			raw = b
		}
	} else if bytes.Contains(bytes.ToLower(raw), []byte("password")) {
		return "<unparseable body with credentials omitted>"
	}

	if len(raw) > maxLogBodySize {
		raw = raw[:maxLogBodySize]
	}
	return string(raw)
}
