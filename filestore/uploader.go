package filestore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"

	logapi "github.com/bignyap/s3filestore/logger/api"
	"github.com/bignyap/s3filestore/storage/api"
	"github.com/gabriel-vasile/mimetype"
)

// ResourceUploader stores the file attached to a single resource. The
// decision is made when the uploader is created; Upload applies it once the
// caller has validated and persisted the resource, so a rejected request
// never leaves an object behind.
type ResourceUploader struct {
	p        *Provider
	log      logapi.Logger
	decision UploadDecision
	mimetype string
	state    lifecycle
}

// GetResourceUploader pops "upload" and "clear_upload" from resource and
// decides what Upload will do. oldFilename is the value the resource's URL
// field held before this request; links are ignored, and when it is empty
// the URL map, if any, is asked. On a new file the record's "url",
// "url_type", "last_modified" and, when derivable, "mimetype" are updated.
func (p *Provider) GetResourceUploader(ctx context.Context, resource Record, oldFilename string) (*ResourceUploader, error) {
	old, err := p.oldFilename(ctx, resource.String("id"), oldFilename)
	if err != nil {
		return nil, err
	}
	return p.newResourceUploader(resource, old), nil
}

// ClearResource removes the stored file of resource id. When filename is
// empty the URL map is asked for it. ErrResourceDataNotFound is returned
// when there is nothing to clear.
func (p *Provider) ClearResource(ctx context.Context, id, filename string) error {
	filename, err := p.oldFilename(ctx, id, filename)
	if err != nil {
		return err
	}
	u := p.newResourceUploader(Record{"id": id, "clear_upload": true}, filename)
	if u.decision.Kind != ClearOnly {
		return ErrResourceDataNotFound
	}
	return u.Upload(ctx, id)
}

func (p *Provider) oldFilename(ctx context.Context, id, given string) (string, error) {
	if given != "" && !IsURL(given) {
		return given, nil
	}
	name, err := p.lookupFilename(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to look up stored filename: %w", err)
	}
	return name, nil
}

func (p *Provider) newResourceUploader(resource Record, old string) *ResourceUploader {
	u := &ResourceUploader{
		p:   p,
		log: p.log.WithComponent("filestore.uploader"),
	}

	src, _ := resource.pop("upload").(Source)
	clearUpload := flag(resource.pop("clear_upload"))

	u.decision = UploadDecision{
		Kind:        Decide(src != nil, clearUpload, old),
		OldFilename: old,
	}

	switch u.decision.Kind {
	case NewFile:
		u.decision.Source = src
		u.decision.Filename = p.munge(src.Filename())
		resource["url"] = u.decision.Filename
		resource["url_type"] = "upload"
		resource["last_modified"] = p.now().UTC()

		u.mimetype = resource.String("mimetype")
		if u.mimetype == "" {
			if guessed := typeByExtension(u.decision.Filename); guessed != "" {
				u.mimetype = guessed
				resource["mimetype"] = guessed
			}
		}
	case ClearOnly:
		resource["url_type"] = ""
	case KeepExisting:
		resource["url"] = old
	}

	u.state = stateDecided
	return u
}

// Decision returns what Upload will do.
func (u *ResourceUploader) Decision() UploadDecision {
	return u.decision
}

// GetPath returns the key of filename for resource id.
func (u *ResourceUploader) GetPath(id, filename string) (string, error) {
	return BuildKey(u.p.cfg, ResourceRef(id, filename))
}

// Upload applies the decision for resource id. It can run only once.
func (u *ResourceUploader) Upload(ctx context.Context, id string) error {
	if err := u.state.apply(); err != nil {
		return err
	}

	switch u.decision.Kind {
	case NewFile:
		key, err := u.GetPath(id, u.decision.Filename)
		if err != nil {
			return err
		}
		if err := u.p.putSource(ctx, key, u.decision.Source, u.mimetype); err != nil {
			return err
		}
		if u.p.urlMap != nil {
			if err := u.p.urlMap.Record(ctx, id, u.decision.Filename); err != nil {
				return fmt.Errorf("failed to record stored filename: %w", err)
			}
		}
		u.log.Info(ctx, "Uploaded resource file", logapi.String("resource_id", id), logapi.String("key", key))

	case ClearOnly:
		key, err := u.GetPath(id, u.decision.OldFilename)
		if err != nil {
			return err
		}
		if err := u.p.store.Delete(ctx, key); err != nil {
			return err
		}
		if err := u.forget(ctx, id); err != nil {
			return err
		}
		u.log.Info(ctx, "Cleared resource file", logapi.String("resource_id", id), logapi.String("key", key))
	}
	return nil
}

// forget drops the URL map entry of id when it still names the cleared file.
func (u *ResourceUploader) forget(ctx context.Context, id string) error {
	if u.p.urlMap == nil {
		return nil
	}
	recorded, err := u.p.lookupFilename(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up stored filename: %w", err)
	}
	if recorded != u.decision.OldFilename {
		return nil
	}
	if err := u.p.urlMap.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to remove stored filename: %w", err)
	}
	return nil
}

// Uploader stores general uploads such as group images under
// <prefix>/storage/uploads/<upload_to>.
type Uploader struct {
	p           *Provider
	log         logapi.Logger
	uploadTo    string
	oldFilename string
	decision    UploadDecision
	state       lifecycle
}

// GetUploader returns an uploader for uploadTo. oldFilename is the value the
// entity's URL field held before this request; links are ignored.
func (p *Provider) GetUploader(uploadTo, oldFilename string) *Uploader {
	if IsURL(oldFilename) {
		oldFilename = ""
	}
	return &Uploader{
		p:           p,
		log:         p.log.WithComponent("filestore.uploader"),
		uploadTo:    uploadTo,
		oldFilename: oldFilename,
	}
}

// StoragePath returns the key prefix of this upload target.
func (u *Uploader) StoragePath() (string, error) {
	return StorageDir(u.p.cfg, KindUpload, u.uploadTo)
}

// UpdateDataDict pops fileField and clearField from data and decides what
// Upload will do. A new file gets a timestamped, munged name written to
// urlField. When cleared and urlField still names the old file, urlField is
// emptied.
func (u *Uploader) UpdateDataDict(data Record, urlField, fileField, clearField string) {
	url := data.String(urlField)
	clearUpload := flag(data.pop(clearField))
	src, _ := data.pop(fileField).(Source)

	u.decision = UploadDecision{
		Kind:        Decide(src != nil, clearUpload, u.oldFilename),
		OldFilename: u.oldFilename,
	}

	switch u.decision.Kind {
	case NewFile:
		u.decision.Source = src
		u.decision.Filename = u.p.mungeLegacy(timestampedName(u.p.now(), src.Filename()))
		data[urlField] = u.decision.Filename
	case ClearOnly:
		if url == u.oldFilename {
			data[urlField] = ""
		}
	case KeepExisting:
		data[urlField] = u.oldFilename
	}
	u.state = stateDecided
}

// Decision returns what Upload will do.
func (u *Uploader) Decision() UploadDecision {
	return u.decision
}

// Upload applies the decision. A new file replacing a stored one deletes
// the old key after the put succeeds.
func (u *Uploader) Upload(ctx context.Context) error {
	if err := u.state.apply(); err != nil {
		return err
	}

	removeOld := u.decision.Kind == ClearOnly
	if u.decision.Kind == NewFile {
		key, err := BuildKey(u.p.cfg, UploadRef(u.uploadTo, u.decision.Filename))
		if err != nil {
			return err
		}
		if err := u.p.putSource(ctx, key, u.decision.Source, ""); err != nil {
			return err
		}
		u.log.Info(ctx, "Uploaded file", logapi.String("upload_to", u.uploadTo), logapi.String("key", key))
		removeOld = u.oldFilename != "" && u.oldFilename != u.decision.Filename
	}

	if removeOld {
		key, err := BuildKey(u.p.cfg, UploadRef(u.uploadTo, u.oldFilename))
		if err != nil {
			return err
		}
		if err := u.p.store.Delete(ctx, key); err != nil {
			return err
		}
		u.log.Info(ctx, "Removed previous file", logapi.String("upload_to", u.uploadTo), logapi.String("key", key))
	}
	return nil
}

// putSource rewinds src and streams it to key.
func (p *Provider) putSource(ctx context.Context, key string, src Source, contentType string) error {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return api.NewStoreError("put", key, api.ErrInvalidRef, fmt.Errorf("failed to rewind upload: %w", err))
	}
	if contentType == "" {
		contentType = typeByExtension(src.Filename())
	}
	if contentType == "" {
		detected, err := sniffContentType(src)
		if err != nil {
			return api.NewStoreError("put", key, api.ErrInvalidRef, err)
		}
		contentType = detected
	}
	return p.store.Put(ctx, key, src, src.Size(), api.PutOptions{ContentType: contentType, ACL: p.cfg.ACL})
}

// typeByExtension returns the bare media type registered for the extension
// of filename, or "".
func typeByExtension(filename string) string {
	ext := path.Ext(filename)
	if ext == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return mediaType
}

// sniffContentType reads the head of src and rewinds it.
func sniffContentType(src Source) (string, error) {
	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}
	return detected.String(), nil
}
