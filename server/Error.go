package server

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/bignyap/s3filestore/filestore"
	storageapi "github.com/bignyap/s3filestore/storage/api"
	"github.com/gin-gonic/gin"
)

// ErrorType represents categorized error types
type ErrorType int

const (
	ErrorInternal         ErrorType = 500
	ErrorBadRequest       ErrorType = 400
	ErrorUnauthorized     ErrorType = 401
	ErrorForbidden        ErrorType = 403
	ErrorNotFound         ErrorType = 404
	ErrorLargePayload     ErrorType = 413
	ErrorRangeInvalid     ErrorType = 416
	ErrorStoreUnavailable ErrorType = 503
)

// InternalError wraps errors with context
type InternalError struct {
	Type       ErrorType
	Message    string
	Original   error
	CallerInfo string
}

func (e *InternalError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("[%d] %s (at %s): %v", e.Type, e.Message, e.CallerInfo, e.Original)
	}
	return fmt.Sprintf("[%d] %s (at %s)", e.Type, e.Message, e.CallerInfo)
}

func (e *InternalError) Unwrap() error {
	return e.Original
}

type ApiError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
	TraceID string `json:"trace_id"`
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("[%s] %s", e.TraceID, e.Message)
}

// NewError creates a new structured internal error
func NewError(errType ErrorType, message string, err error) *InternalError {
	return &InternalError{
		Type:       errType,
		Message:    message,
		Original:   err,
		CallerInfo: captureCallerInfo(2),
	}
}

// FromStorageError classifies an error from the storage or filestore layer.
// The kind of the outermost StoreError decides; kinds of wrapped store
// errors are ignored. The message never includes the provider error.
func FromStorageError(err error) *InternalError {
	var (
		errType ErrorType
		message string
	)
	kind := err
	var storeErr *storageapi.StoreError
	if errors.As(err, &storeErr) {
		kind = storeErr.Kind
	}
	switch {
	case errors.Is(kind, storageapi.ErrInvalidRef):
		errType, message = ErrorBadRequest, "Invalid object reference"
	case errors.Is(kind, filestore.ErrResourceDataNotFound), errors.Is(kind, storageapi.ErrNotFound):
		errType, message = ErrorNotFound, "Resource data not found"
	case errors.Is(kind, filestore.ErrRangeNotSatisfiable):
		errType, message = ErrorRangeInvalid, "Requested range not satisfiable"
	case errors.Is(kind, storageapi.ErrStoreUnavailable):
		errType, message = ErrorStoreUnavailable, "Object store unavailable"
	case errors.Is(kind, storageapi.ErrAccessDenied):
		errType, message = ErrorForbidden, "Access denied"
	default:
		errType, message = ErrorInternal, "Internal server error"
	}
	return &InternalError{
		Type:       errType,
		Message:    message,
		Original:   err,
		CallerInfo: captureCallerInfo(2),
	}
}

func (e *InternalError) ToHttpStatusCode() int {
	switch e.Type {
	case ErrorBadRequest:
		return http.StatusBadRequest
	case ErrorUnauthorized:
		return http.StatusUnauthorized
	case ErrorForbidden:
		return http.StatusForbidden
	case ErrorNotFound:
		return http.StatusNotFound
	case ErrorLargePayload:
		return http.StatusRequestEntityTooLarge
	case ErrorRangeInvalid:
		return http.StatusRequestedRangeNotSatisfiable
	case ErrorStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (e *InternalError) ToHttpMessage() string {
	switch e.Type {
	case ErrorBadRequest:
		return e.Message
	case ErrorUnauthorized:
		return "Unauthorized"
	case ErrorForbidden:
		return "Access denied"
	case ErrorNotFound:
		if e.Message != "" {
			return e.Message
		}
		return "Not found"
	case ErrorLargePayload:
		return "Payload too large"
	case ErrorRangeInvalid:
		return "Requested range not satisfiable"
	case ErrorStoreUnavailable:
		return "Object store unavailable"
	default:
		return "Internal server error"
	}
}

// ToApiError converts error to API-safe structure
func ToApiError(c *gin.Context, err error) *ApiError {
	traceID := getTraceIDFromContext(c)

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		err = NewError(ErrorLargePayload, "Payload too large", err)
	}

	switch e := err.(type) {
	case *ApiError:
		if e.TraceID == "" {
			e.TraceID = traceID
		}
		return e
	case *InternalError:
		return &ApiError{
			Code:    e.ToHttpStatusCode(),
			Message: e.ToHttpMessage(),
			TraceID: traceID,
		}
	default:
		return &ApiError{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
			TraceID: traceID,
		}
	}
}

func captureCallerInfo(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown:0"
	}
	return fmt.Sprintf("%s:%d", file, line)
}
