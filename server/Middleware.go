package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/bignyap/s3filestore/logger/api"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Middleware struct {
	logger api.Logger
	config *Config
}

func NewMiddleware(logger api.Logger, config *Config) *Middleware {
	return &Middleware{logger: logger, config: config}
}

// sensitiveQueryParams is a list of query parameter names that should be redacted in logs.
// Matching is by substring, so X-Amz-Signature and X-Amz-Security-Token are covered.
var sensitiveQueryParams = []string{
	"token",
	"api_key",
	"apikey",
	"api-key",
	"password",
	"passwd",
	"pwd",
	"secret",
	"auth",
	"session",
	"signature",
	"credential",
}

// redactSensitiveQueryParams redacts sensitive query parameters from the query string
func redactSensitiveQueryParams(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "[UNPARSEABLE]"
	}

	for key := range values {
		keyLower := strings.ToLower(key)
		for _, sensitive := range sensitiveQueryParams {
			if strings.Contains(keyLower, sensitive) {
				values.Set(key, "[REDACTED]")
				break
			}
		}
	}

	return values.Encode()
}

func (m *Middleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.New().String()
		}

		reqLogger := m.logger.WithTraceID(traceID).WithComponent("api").
			AddField("method", c.Request.Method).
			AddField("path", c.Request.URL.Path).
			AddField("client_ip", c.ClientIP()).
			AddField("user_agent", c.Request.UserAgent()).
			AddField("query", redactSensitiveQueryParams(c.Request.URL.RawQuery))

		// Downstream code finds the trace id and the request logger in the context
		ctx := reqLogger.ToContext(api.WithTraceID(c.Request.Context(), traceID))
		c.Request = c.Request.WithContext(ctx)

		c.Set("logger", reqLogger)
		c.Set("trace_id", traceID)

		c.Writer.Header().Set("X-Trace-ID", traceID)
		c.Writer.Header().Set("X-Version", m.config.Version)

		reqLogger.Debug(ctx, "Incoming request")

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		reqLogger = reqLogger.
			AddField("status", status).
			AddField("latency_ms", float64(latency.Microseconds())/1000.0).
			AddField("response_size", c.Writer.Size())

		switch {
		case status >= 500:
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			reqLogger.Error(ctx, "Request failed", err)
		case status >= 400:
			reqLogger.Warn(ctx, "Client error")
		default:
			reqLogger.Info(ctx, "Request completed")
		}
	}
}

func (m *Middleware) CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, Range, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges, ETag, X-Trace-ID, X-Version")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (m *Middleware) MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func (m *Middleware) Profiling() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("profile") == "true" {
			runtime.SetBlockProfileRate(100)
			runtime.SetMutexProfileFraction(5)
		}
		c.Next()
	}
}

func (m *Middleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger := getLoggerFromContext(c)
				if logger == nil {
					logger = m.logger
				}
				logger.Error(c.Request.Context(), "Recovered panic", fmt.Errorf("%v", err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			}
		}()
		c.Next()
	}
}

func (m *Middleware) ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger := getLoggerFromContext(c)
			if logger == nil {
				logger = m.logger
			}
			for _, e := range c.Errors {
				logger.Error(c.Request.Context(), "Handler error", e.Err)
			}
		}
	}
}

func (m *Middleware) Apply(router *gin.Engine) {
	names := []string{"Logger", "CORS", "MaxBodySize", "Recovery", "ErrorHandler"}
	router.Use(
		m.Logger(),
		m.CORS(),
		m.MaxBodySize(m.config.MaxRequestSize),
		m.Recovery(),
		m.ErrorHandler(),
	)

	if m.config.Environment == "dev" || m.config.EnableProfiling {
		names = append(names, "Profiling")
		router.Use(m.Profiling())
	}

	m.logger.Debug(context.Background(), "Registered middlewares", api.String("middlewares", strings.Join(names, ",")))
}

func getLoggerFromContext(c *gin.Context) api.Logger {
	if logger, exists := c.Get("logger"); exists {
		if l, ok := logger.(api.Logger); ok {
			return l
		}
	}
	return nil
}

func getTraceIDFromContext(c *gin.Context) string {
	if val, exists := c.Get("trace_id"); exists {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return c.GetHeader("X-Trace-ID")
}
