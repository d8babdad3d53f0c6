package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bignyap/s3filestore/logger/adapters/mock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactSensitiveQueryParams(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "redact token parameter",
			input:    "token=eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9&foo=bar",
			expected: "foo=bar&token=%5BREDACTED%5D",
		},
		{
			name:     "redact api_key parameter",
			input:    "api_key=secret123&limit=10",
			expected: "api_key=%5BREDACTED%5D&limit=10",
		},
		{
			name:     "redact password parameter",
			input:    "username=john&password=secret&email=test@example.com",
			expected: "email=test%40example.com&password=%5BREDACTED%5D&username=john",
		},
		{
			name:     "redact presigned url parameters",
			input:    "X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Credential=AKIA&X-Amz-Signature=abc&X-Amz-Expires=60",
			expected: "X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Credential=%5BREDACTED%5D&X-Amz-Expires=60&X-Amz-Signature=%5BREDACTED%5D",
		},
		{
			name:     "no sensitive params",
			input:    "limit=10&offset=20&sort=name",
			expected: "limit=10&offset=20&sort=name",
		},
		{
			name:     "empty query string",
			input:    "",
			expected: "",
		},
		{
			name:     "case insensitive matching",
			input:    "TOKEN=abc&API_KEY=xyz",
			expected: "API_KEY=%5BREDACTED%5D&TOKEN=%5BREDACTED%5D",
		},
		{
			name:     "unparseable query is not logged",
			input:    "token=%zz",
			expected: "[UNPARSEABLE]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := redactSensitiveQueryParams(tt.input)
			if result != tt.expected {
				t.Errorf("redactSensitiveQueryParams() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func newTestRouter(t *testing.T, cfg *Config) (*gin.Engine, *mock.Mock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := mock.NewMockLogger()
	r := gin.New()
	NewMiddleware(log, cfg).Apply(r)
	return r, log
}

func TestMiddleware_LoggerPropagatesTraceID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	r, log := newTestRouter(t, cfg)

	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = getTraceIDFromContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-123", seen)
	assert.Equal(t, "trace-123", w.Header().Get("X-Trace-ID"))
	assert.Equal(t, "1.2.3", w.Header().Get("X-Version"))

	infos := log.GetInfoMessages()
	require.NotEmpty(t, infos)
	last := infos[len(infos)-1]
	assert.Equal(t, "Request completed", last.Message)
	assert.Equal(t, "trace-123", last.TraceID)
	assert.Equal(t, "api", last.Component)
}

func TestMiddleware_LoggerGeneratesTraceID(t *testing.T) {
	r, _ := newTestRouter(t, DefaultConfig())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestMiddleware_CORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, DefaultConfig())
	r.PUT("/objects/resource/abc", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/objects/resource/abc", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Range")
}

func TestMiddleware_Recovery(t *testing.T) {
	r, log := newTestRouter(t, DefaultConfig())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"Internal server error"`)

	var recovered bool
	for _, e := range log.GetErrorMessages() {
		if e.Message == "Recovered panic" {
			recovered = true
		}
	}
	assert.True(t, recovered)
}

func TestMiddleware_MaxBodySize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRequestSize = 8
	r, _ := newTestRouter(t, cfg)
	rw := NewResponseWriter(mock.NewMockLogger())
	r.PUT("/upload", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			rw.Error(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPut, "/upload", strings.NewReader("this body is too long"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "Payload too large")
}
