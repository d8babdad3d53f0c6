package filestore

import (
	"fmt"
	"strings"

	"github.com/bignyap/s3filestore/storage/api"
	"github.com/bignyap/s3filestore/storage/config"
)

// Kind is the category of entity a stored file belongs to.
type Kind string

const (
	// KindResource files live under <prefix>/resources/<id>/<filename>
	KindResource Kind = "resource"
	// KindUpload files live under <prefix>/storage/uploads/<upload_to>/<filename>
	KindUpload Kind = "upload"
)

// ParseKind validates a kind taken from user input.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindResource, KindUpload:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", api.ErrInvalidRef, s)
}

// Ref identifies one stored file. For KindUpload the ID is the upload
// target (for example "group").
type Ref struct {
	Kind     Kind
	ID       string
	Filename string
}

// ResourceRef is shorthand for a resource file reference.
func ResourceRef(id, filename string) Ref {
	return Ref{Kind: KindResource, ID: id, Filename: filename}
}

// UploadRef is shorthand for a general upload reference.
func UploadRef(uploadTo, filename string) Ref {
	return Ref{Kind: KindUpload, ID: uploadTo, Filename: filename}
}

// BuildKey derives the object key for ref. The result depends only on the
// configured storage path and the ref, so a download recomputes exactly the
// key an upload wrote. Filenames are used as given.
func BuildKey(cfg config.StorageConfig, ref Ref) (string, error) {
	if ref.Filename == "" {
		return "", fmt.Errorf("%w: empty filename", api.ErrInvalidRef)
	}
	dir, err := StorageDir(cfg, ref.Kind, ref.ID)
	if err != nil {
		return "", err
	}
	return dir + "/" + ref.Filename, nil
}

// StorageDir returns the key prefix shared by every file of one entity.
func StorageDir(cfg config.StorageConfig, kind Kind, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: empty entity id", api.ErrInvalidRef)
	}
	switch kind {
	case KindResource:
		return joinKey(cfg.StoragePath, "resources", id), nil
	case KindUpload:
		return joinKey(cfg.StoragePath, "storage", "uploads", id), nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", api.ErrInvalidRef, kind)
	}
}

func joinKey(prefix string, segments ...string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return strings.Join(segments, "/")
	}
	return prefix + "/" + strings.Join(segments, "/")
}

// PublicURL is the unsigned address of key, used for upload redirects:
// <host>/<bucket>/<key>, or the virtual-hosted AWS address when no host
// is configured.
func PublicURL(cfg config.StorageConfig, key string) string {
	if cfg.HostName == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", cfg.BucketName, key)
	}
	return strings.TrimRight(cfg.HostName, "/") + "/" + cfg.BucketName + "/" + key
}
