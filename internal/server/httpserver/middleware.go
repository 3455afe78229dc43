package httpserver

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/core/service"
	"github.com/zumicash/zumi-go/internal/server/httpserver/handler"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
	"github.com/zumicash/zumi-go/internal/telemetry/metric"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLength bounds client-supplied request ids.
const maxRequestIDLength = 64

// RequestID assigns each request an id, echoes it in the response and
// attaches it and the logger to the request context.
func RequestID(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)

		ctx := logger.WithRequestID(c.Request.Context(), id)
		ctx = logger.WithLogger(ctx, log)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Recover turns panics into a 500 error body.
func Recover(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		log.Error("panic recovered",
			"request_id", handler.RequestID(c),
			"path", c.Request.URL.Path,
			"panic", rec)
		handler.WriteError(c, domain.ErrInternalServer)
	})
}

// AccessLog logs one line per request.
func AccessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"request_id", handler.RequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			log.Error("request completed with error", args...)
		case status >= 400:
			log.Warn("request completed with client error", args...)
		default:
			log.Debug("request completed", args...)
		}
	}
}

// Metrics records request counts and latencies by route template.
func Metrics(m *metric.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RateLimit applies a per-client-IP token bucket.
func RateLimit(limiters *service.RateLimiterRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := limiters.Allow(c.ClientIP()); err != nil {
			c.Header("Retry-After", "1")
			handler.WriteError(c, err)
			return
		}
		c.Next()
	}
}

// AdminAuth requires a valid admin API key, sent as X-API-Key or as an
// Authorization bearer token.
func AdminAuth(auth *service.AdminAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Authenticate(adminKey(c)); err != nil {
			logger.L(c.Request.Context()).Warn("admin authentication failed",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
				"code", domain.GetErrorCode(err))
			handler.WriteError(c, err)
			return
		}
		c.Next()
	}
}

func adminKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func noRoute(c *gin.Context) {
	handler.WriteError(c, domain.NewDomainError("ZC-SYS-4040", "route not found").WithDetails(c.Request.URL.Path))
}

func noMethod(c *gin.Context) {
	handler.WriteError(c, domain.NewDomainError("ZC-SYS-4050", "method not allowed").WithDetails(c.Request.Method))
}
