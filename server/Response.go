package server

import (
	"net/http"

	"github.com/bignyap/s3filestore/logger/api"
	otelapi "github.com/bignyap/s3filestore/otel/api"
	"github.com/gin-gonic/gin"
)

type ResponseWriter struct {
	logger api.Logger
}

func NewResponseWriter(logger api.Logger) *ResponseWriter {
	return &ResponseWriter{logger: logger}
}

func (rw *ResponseWriter) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func (rw *ResponseWriter) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func (rw *ResponseWriter) NoContent(c *gin.Context) {
	c.AbortWithStatus(http.StatusNoContent)
}

// Redirect sends an uncacheable 302 to location.
func (rw *ResponseWriter) Redirect(c *gin.Context, location string) {
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, location)
}

func (rw *ResponseWriter) Error(c *gin.Context, err error) {
	apiErr := ToApiError(c, err)

	logger := getLoggerFromContext(c)
	if logger == nil {
		logger = rw.logger
	}

	logger = logger.WithFields(
		api.Int("code", apiErr.Code),
		api.String("message", apiErr.Message),
		api.String("trace_id", apiErr.TraceID),
	)
	if apiErr.Code >= http.StatusInternalServerError {
		otelapi.RecordError(c.Request.Context(), err)
		logger.Error(c.Request.Context(), "API error response", err)
	} else {
		logger.Warn(c.Request.Context(), "API error response", api.ErrorField(err))
	}

	c.AbortWithStatusJSON(apiErr.Code, ErrorResponse{Error: apiErr.Message})
}

// StorageError maps an error from the storage layer and writes it.
func (rw *ResponseWriter) StorageError(c *gin.Context, err error) {
	rw.Error(c, FromStorageError(err))
}

// Shorthand helpers
func (rw *ResponseWriter) BadRequest(c *gin.Context, msg string) {
	rw.Error(c, NewError(ErrorBadRequest, msg, nil))
}

func (rw *ResponseWriter) Unauthorized(c *gin.Context) {
	rw.Error(c, NewError(ErrorUnauthorized, "Unauthorized", nil))
}

func (rw *ResponseWriter) NotFound(c *gin.Context, msg string) {
	rw.Error(c, NewError(ErrorNotFound, msg, nil))
}

func (rw *ResponseWriter) InternalServerError(c *gin.Context, err error) {
	rw.Error(c, NewError(ErrorInternal, "Internal server error", err))
}

type ErrorResponse struct {
	Error string `json:"error"`
}
