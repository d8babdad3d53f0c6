package server_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bignyap/s3filestore/filestore"
	"github.com/bignyap/s3filestore/logger/adapters/mock"
	"github.com/bignyap/s3filestore/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestResponseWriter_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	rw := server.NewResponseWriter(mock.NewMockLogger())

	r.GET("/success", func(c *gin.Context) {
		rw.Success(c, gin.H{"status": "ok"})
	})

	req, _ := http.NewRequest("GET", "/success", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestResponseWriter_InternalServerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	log := mock.NewMockLogger()
	rw := server.NewResponseWriter(log)

	r.GET("/fail", func(c *gin.Context) {
		rw.InternalServerError(c, errors.New("simulated failure"))
	})

	req, _ := http.NewRequest("GET", "/fail", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"Internal server error"`)
	assert.Len(t, log.GetErrorMessages(), 1)
}

func TestResponseWriter_StorageError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	log := mock.NewMockLogger()
	rw := server.NewResponseWriter(log)

	r.GET("/missing", func(c *gin.Context) {
		rw.StorageError(c, filestore.ErrResourceDataNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Resource data not found"}`, w.Body.String())
	assert.Len(t, log.GetWarnMessages(), 1)
	assert.Empty(t, log.GetErrorMessages())
}

func TestResponseWriter_Redirect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	rw := server.NewResponseWriter(mock.NewMockLogger())
	r.GET("/go", func(c *gin.Context) {
		rw.Redirect(c, "https://bucket.s3.amazonaws.com/key?X-Amz-Signature=abc")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/go", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/key?X-Amz-Signature=abc", w.Header().Get("Location"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
