package api

import (
	"ev-route-planner/internal/platform/obs"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// requestID tags every request with an ID, reusing the caller's header when
// present, so timing lines from the adapters can be correlated.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(obs.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// loggingMiddleware logs end-to-end request duration and response size.
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.RequestURI()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", size),
			zap.Int64("dur_ms", time.Since(start).Milliseconds()),
			zap.String("req_id", obs.RequestID(c.Request.Context())),
		)
	}
}
