package gateway

import (
	"errors"
	"net/http"

	"github.com/bignyap/s3filestore/filestore"
	logapi "github.com/bignyap/s3filestore/logger/api"
	"github.com/bignyap/s3filestore/server"
	"github.com/gin-gonic/gin"
)

// form fields read by the upload route
const (
	fieldUpload      = "upload"
	fieldClearUpload = "clear_upload"
	fieldURL         = "url"
	fieldMimetype    = "mimetype"
	fieldOldFilename = "old_filename"
)

// parseForm accepts multipart and urlencoded bodies.
func (h *Handler) parseForm(c *gin.Context) error {
	err := c.Request.ParseMultipartForm(h.maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return c.Request.ParseForm()
	}
	return err
}

func badForm(err error) error {
	return server.NewError(server.ErrorBadRequest, "Invalid upload form", err)
}

// formSource opens the uploaded file, if any. The caller closes it.
func formSource(c *gin.Context) (*filestore.FileSource, error) {
	fh, err := c.FormFile(fieldUpload)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return filestore.FromFileHeader(fh)
}

// upload runs the upload lifecycle for one entity and returns the updated
// record.
func (h *Handler) upload(c *gin.Context) {
	kind, err := filestore.ParseKind(c.Param("kind"))
	if err != nil {
		h.rw.StorageError(c, err)
		return
	}
	id := c.Param("id")

	if err := h.parseForm(c); err != nil {
		h.rw.Error(c, badForm(err))
		return
	}
	src, err := formSource(c)
	if err != nil {
		h.rw.Error(c, badForm(err))
		return
	}

	record := filestore.Record{}
	if v, ok := c.GetPostForm(fieldURL); ok {
		record[fieldURL] = v
	}
	if v, ok := c.GetPostForm(fieldClearUpload); ok {
		record[fieldClearUpload] = v
	}
	if src != nil {
		defer src.Close()
		record[fieldUpload] = src
	}

	ctx := c.Request.Context()
	switch kind {
	case filestore.KindResource:
		record["id"] = id
		if v := c.PostForm(fieldMimetype); v != "" {
			record[fieldMimetype] = v
		}
		uploader, err := h.provider.GetResourceUploader(ctx, record, c.PostForm(fieldOldFilename))
		if err != nil {
			h.rw.InternalServerError(c, err)
			return
		}
		if err := uploader.Upload(ctx, id); err != nil {
			h.rw.StorageError(c, err)
			return
		}
		h.log.Info(ctx, "Resource upload processed",
			logapi.String("resource_id", id), logapi.String("decision", uploader.Decision().Kind.String()))

	case filestore.KindUpload:
		uploader := h.provider.GetUploader(id, c.PostForm(fieldOldFilename))
		uploader.UpdateDataDict(record, fieldURL, fieldUpload, fieldClearUpload)
		if err := uploader.Upload(ctx); err != nil {
			h.rw.StorageError(c, err)
			return
		}
		h.log.Info(ctx, "Upload processed",
			logapi.String("upload_to", id), logapi.String("decision", uploader.Decision().Kind.String()))
	}

	h.rw.Success(c, record)
}

// clear removes the stored file of one entity. The filename comes from the
// query, or from the URL map for resources.
func (h *Handler) clear(c *gin.Context) {
	kind, err := filestore.ParseKind(c.Param("kind"))
	if err != nil {
		h.rw.StorageError(c, err)
		return
	}
	id := c.Param("id")
	filename := c.Query("filename")
	ctx := c.Request.Context()

	switch kind {
	case filestore.KindResource:
		if err := h.provider.ClearResource(ctx, id, filename); err != nil {
			h.rw.StorageError(c, err)
			return
		}

	case filestore.KindUpload:
		uploader := h.provider.GetUploader(id, filename)
		record := filestore.Record{fieldURL: filename, fieldClearUpload: true}
		uploader.UpdateDataDict(record, fieldURL, fieldUpload, fieldClearUpload)
		if uploader.Decision().Kind != filestore.ClearOnly {
			h.rw.StorageError(c, filestore.ErrResourceDataNotFound)
			return
		}
		if err := uploader.Upload(ctx); err != nil {
			h.rw.StorageError(c, err)
			return
		}
	}

	h.log.Info(ctx, "Cleared stored file", logapi.String("kind", string(kind)), logapi.String("id", id))
	h.rw.NoContent(c)
}
