package middleware

import (
	"strconv"
	"time"

	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/metrics"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	ctx := types.SetRequestID(c.Request.Context(), requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// RequestLogger logs every served request and records it in the http metrics
func RequestLogger(logger *logger.Logger, registry *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if registry != nil {
			registry.HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
			registry.HTTPRequestDuration.WithLabelValues(route, c.Request.Method).Observe(latency.Seconds())
		}

		logger.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", route,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"request_id", types.GetRequestID(c.Request.Context()),
			"user_id", types.GetUserID(c.Request.Context()),
		)
	}
}
