package api

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the only component that talks to the object store.
// Implementations: AWS S3 (and compatibles), MinIO, in-memory mock.
type ObjectStore interface {
	// EnsureBucket looks up the bucket and creates it in the configured
	// region when it does not exist.
	EnsureBucket(ctx context.Context, name string) (Bucket, error)

	// Put streams body to key. size may be -1 when unknown.
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) error

	// Head returns object metadata, or an error matching ErrNotFound.
	Head(ctx context.Context, key string) (ObjectInfo, error)

	// Get opens the object starting at rangeStart. The caller must close Body.
	Get(ctx context.Context, key string, rangeStart int64) (*Object, error)

	// PresignGet returns a time-limited download URL for key.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Bucket describes the bucket returned by EnsureBucket.
type Bucket struct {
	Name    string
	Region  string
	Created bool
}

// PutOptions carries per-object attributes set on upload.
type PutOptions struct {
	ContentType string
	ACL         string
}

// ObjectInfo is the metadata returned by Head and Get.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// Object is an open object stream. Body yields bytes from Offset to the end
// of the object; ContentLength is the number of bytes Body will produce.
type Object struct {
	Info          ObjectInfo
	Body          io.ReadCloser
	Offset        int64
	ContentLength int64
}

// Close releases the underlying connection.
func (o *Object) Close() error {
	if o == nil || o.Body == nil {
		return nil
	}
	return o.Body.Close()
}

// StorageType represents the type of storage backend
type StorageType string

const (
	StorageTypeS3     StorageType = "s3"
	StorageTypeMinio  StorageType = "minio"
	StorageTypeMemory StorageType = "memory"
)
