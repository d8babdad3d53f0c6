// Package gateway exposes the filestore over HTTP.
package gateway

import (
	"net/http"

	"github.com/bignyap/s3filestore/filestore"
	logapi "github.com/bignyap/s3filestore/logger/api"
	"github.com/bignyap/s3filestore/server"
	"github.com/gin-gonic/gin"
)

// defaultMaxMemory is the part of a multipart form held in memory; the rest
// spills to temp files.
const defaultMaxMemory = 32 << 20

// copyBufferSize is the chunk size used when streaming objects.
const copyBufferSize = 64 << 10

// Handler registers the object routes on a server.
type Handler struct {
	provider  *filestore.Provider
	resolver  *filestore.Resolver
	log       logapi.Logger
	rw        *server.ResponseWriter
	maxMemory int64
}

// Option configures a Handler
type Option func(*Handler)

// WithMaxMemory sets how much of a multipart upload is buffered in memory.
func WithMaxMemory(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxMemory = n
		}
	}
}

var _ server.Handler = (*Handler)(nil)

// New creates a Handler serving files through p.
func New(p *filestore.Provider, log logapi.Logger, opts ...Option) *Handler {
	if log == nil {
		log = &logapi.DefaultLogger{}
	}
	h := &Handler{
		provider:  p,
		resolver:  p.Resolver(),
		log:       log.WithComponent("gateway"),
		maxMemory: defaultMaxMemory,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Setup registers the routes.
func (h *Handler) Setup(s server.Server) error {
	h.rw = s.GetResponseWriter()
	if h.rw == nil {
		h.rw = server.NewResponseWriter(h.log)
	}
	h.Register(s.Router())
	return nil
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	if h.rw == nil {
		h.rw = server.NewResponseWriter(h.log)
	}

	r.GET("/healthz", h.health)

	// The trailing wildcard carries either "<filename>" or "fs/<filename>".
	r.GET("/objects/:kind/:id/*path", h.download)
	r.HEAD("/objects/:kind/:id/*path", h.download)
	r.PUT("/objects/:kind/:id", h.upload)
	r.DELETE("/objects/:kind/:id", h.clear)

	r.GET("/uploads/:upload_to/:filename", h.uploadRedirect)
}

// Shutdown has nothing to release; collaborators are owned by the caller.
func (h *Handler) Shutdown() error {
	return nil
}

func (h *Handler) health(c *gin.Context) {
	h.rw.Success(c, gin.H{"status": "ok"})
}

// uploadRedirect sends the client to the public address of a general upload.
func (h *Handler) uploadRedirect(c *gin.Context) {
	cfg := h.provider.Config()
	key, err := filestore.BuildKey(cfg, filestore.UploadRef(c.Param("upload_to"), c.Param("filename")))
	if err != nil {
		h.rw.StorageError(c, err)
		return
	}
	c.Redirect(http.StatusFound, filestore.PublicURL(cfg, key))
}
