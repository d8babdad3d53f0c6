package gateway

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/bignyap/s3filestore/filestore"
	logapi "github.com/bignyap/s3filestore/logger/api"
	otelapi "github.com/bignyap/s3filestore/otel/api"
	"github.com/gin-gonic/gin"
)

// byteRange is a parsed single "bytes=start-[end]" request. end is -1 when
// open ended.
type byteRange struct {
	start int64
	end   int64
}

// parseRange accepts "bytes=N-" and "bytes=N-M". Anything else, including
// suffix and multi-part ranges, is ignored and the full object is served.
func parseRange(header string) (byteRange, bool) {
	ranges, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok || strings.Contains(ranges, ",") {
		return byteRange{}, false
	}
	first, last, ok := strings.Cut(ranges, "-")
	if !ok || first == "" {
		return byteRange{}, false
	}
	start, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64)
	if err != nil || start < 0 {
		return byteRange{}, false
	}
	r := byteRange{start: start, end: -1}
	if last = strings.TrimSpace(last); last != "" {
		end, err := strconv.ParseInt(last, 10, 64)
		if err != nil || end < start {
			return byteRange{}, false
		}
		r.end = end
	}
	return r, true
}

func (h *Handler) download(c *gin.Context) {
	kind, err := filestore.ParseKind(c.Param("kind"))
	if err != nil {
		h.rw.StorageError(c, err)
		return
	}
	id := c.Param("id")
	rest := strings.TrimPrefix(c.Param("path"), "/")

	if name, ok := strings.CutPrefix(rest, "fs/"); ok && kind == filestore.KindResource {
		h.serveLocal(c, id, name)
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		h.rw.BadRequest(c, "Invalid object reference")
		return
	}

	ref := filestore.Ref{Kind: kind, ID: id, Filename: rest}
	rng, ranged := parseRange(c.GetHeader("Range"))

	res, err := h.resolver.Resolve(c.Request.Context(), ref, filestore.ResolveOptions{
		HeadOnly:   c.Request.Method == http.MethodHead,
		RangeStart: rng.start,
	})
	if errors.Is(err, filestore.ErrRangeNotSatisfiable) {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", res.Info.Size))
	}
	if err != nil {
		h.rw.StorageError(c, err)
		return
	}

	otelapi.SetSpanAttributes(c.Request.Context(),
		otelapi.StringAttr("filestore.key", res.Key),
		otelapi.StringAttr("filestore.resolution", res.Kind.String()),
		otelapi.Int64Attr("filestore.size", res.Info.Size),
	)

	switch res.Kind {
	case filestore.Redirect:
		h.rw.Redirect(c, res.URL)
	case filestore.Fallback:
		h.rw.Redirect(c, localRoute(id, rest))
	default:
		h.stream(c, res, rng, ranged, rest)
	}
}

// localRoute is the address of the filesystem fallback for a resource.
func localRoute(id, filename string) string {
	return "/objects/resource/" + url.PathEscape(id) + "/fs/" + url.PathEscape(filename)
}

// stream writes a Stream resolution. A bounded range reads only the bytes
// it asked for, even though the store returns the object to the end.
func (h *Handler) stream(c *gin.Context, res filestore.Resolution, rng byteRange, ranged bool, filename string) {
	defer res.Object.Close()

	total := res.Info.Size
	start, end := int64(0), total-1
	if ranged && total > 0 {
		start = rng.start
		if rng.end >= 0 && rng.end < total {
			end = rng.end
		}
	}
	length := end - start + 1
	if length < 0 {
		length = 0
	}

	header := c.Writer.Header()
	header.Set("Content-Type", contentType(filename, res.Info.ContentType))
	header.Set("Content-Length", strconv.FormatInt(length, 10))
	header.Set("Accept-Ranges", "bytes")
	if !res.Info.LastModified.IsZero() {
		header.Set("Last-Modified", res.Info.LastModified.UTC().Format(http.TimeFormat))
	}
	if res.Info.ETag != "" {
		header.Set("ETag", res.Info.ETag)
	}

	status := http.StatusOK
	if ranged && total > 0 {
		status = http.StatusPartialContent
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, total))
	}
	c.Status(status)

	if res.Object == nil {
		c.Writer.WriteHeaderNow()
		return
	}

	buf := make([]byte, copyBufferSize)
	n, err := io.CopyBuffer(c.Writer, io.LimitReader(res.Object.Body, length), buf)
	if err != nil {
		// Headers are gone; the client sees a short body.
		h.log.Warn(c.Request.Context(), "Streaming interrupted",
			logapi.String("key", res.Key), logapi.Int64("written", n), logapi.ErrorField(err))
	}
}

// serveLocal serves a resource from the local filestore layout. It is
// reachable only when filesystem fallback is enabled.
func (h *Handler) serveLocal(c *gin.Context, id, filename string) {
	cfg := h.provider.Config()
	if !cfg.FilesystemFallback {
		h.rw.StorageError(c, filestore.ErrResourceDataNotFound)
		return
	}
	local, err := filestore.LocalPath(cfg.LocalStoragePath, id)
	if err != nil {
		h.rw.StorageError(c, err)
		return
	}

	f, err := os.Open(local)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.rw.StorageError(c, filestore.ErrResourceDataNotFound)
			return
		}
		h.rw.InternalServerError(c, err)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		h.rw.StorageError(c, filestore.ErrResourceDataNotFound)
		return
	}

	c.Header("Content-Type", contentType(filename, ""))
	http.ServeContent(c.Writer, c.Request, filename, stat.ModTime(), f)
}

// contentType prefers the type recorded at upload. A missing or generic
// stored type is replaced by a guess from the filename.
func contentType(filename, stored string) string {
	if stored != "" && stored != "application/octet-stream" {
		return stored
	}
	if t := mime.TypeByExtension(path.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}
