package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	logapi "github.com/bignyap/s3filestore/logger/api"
	"github.com/bignyap/s3filestore/storage/api"
	"github.com/bignyap/s3filestore/storage/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultEndpoint = "s3.amazonaws.com"

// MinIOStorageService implements api.ObjectStore for MinIO and other
// S3-compatible services, including ones that still need signature v2.
type MinIOStorageService struct {
	client *minio.Client
	cfg    config.StorageConfig
	log    logapi.Logger
}

// Ensure MinIOStorageService implements api.ObjectStore
var _ api.ObjectStore = (*MinIOStorageService)(nil)

// NewMinIOStorageService creates a new MinIO storage service
func NewMinIOStorageService(cfg config.StorageConfig, log logapi.Logger) (*MinIOStorageService, error) {
	if log == nil {
		log = &logapi.DefaultLogger{}
	}

	endpoint, secure, err := parseEndpoint(cfg.HostName)
	if err != nil {
		return nil, err
	}

	transport, err := minio.DefaultTransport(secure)
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO transport: %w", err)
	}
	transport.ResponseHeaderTimeout = cfg.RequestTimeout()
	transport.TLSHandshakeTimeout = cfg.RequestTimeout()

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        newCredentials(cfg),
		Secure:       secure,
		Region:       cfg.Region,
		BucketLookup: bucketLookup(cfg),
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOStorageService{
		client: client,
		cfg:    cfg,
		log:    log.WithComponent("storage.minio"),
	}, nil
}

func newCredentials(cfg config.StorageConfig) *credentials.Credentials {
	if cfg.UseAmbientRole {
		return credentials.NewIAM("")
	}
	if cfg.SignatureV2() {
		return credentials.NewStaticV2(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	return credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")
}

func bucketLookup(cfg config.StorageConfig) minio.BucketLookupType {
	switch cfg.AddressingStyle {
	case config.AddressingPath:
		return minio.BucketLookupPath
	case config.AddressingVirtual:
		return minio.BucketLookupDNS
	default:
		return minio.BucketLookupAuto
	}
}

// parseEndpoint splits an optional scheme off the host. minio-go wants a bare
// host[:port] plus a TLS flag.
func parseEndpoint(host string) (string, bool, error) {
	if host == "" {
		return defaultEndpoint, true, nil
	}
	if !strings.Contains(host, "://") {
		return host, true, nil
	}
	u, err := url.Parse(host)
	if err != nil {
		return "", false, fmt.Errorf("invalid host name %q: %w", host, err)
	}
	return u.Host, u.Scheme == "https", nil
}

// EnsureBucket makes sure the bucket exists, creating it when missing
func (s *MinIOStorageService) EnsureBucket(ctx context.Context, name string) (api.Bucket, error) {
	bucket := api.Bucket{Name: name, Region: s.cfg.Region}

	exists, err := s.client.BucketExists(ctx, name)
	if err != nil {
		return api.Bucket{}, api.NewStoreError("head bucket", name, classify(err), err)
	}
	if exists {
		s.log.Info(ctx, "Bucket found", logapi.String("bucket", name))
		return bucket, nil
	}

	s.log.Warn(ctx, "Bucket could not be found, attempting to create it", logapi.String("bucket", name))
	if err := s.client.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		kind := classify(err)
		if kind != api.ErrAccessDenied {
			kind = api.ErrStoreUnavailable
		}
		s.log.Error(ctx, "Could not create bucket", err, logapi.String("bucket", name))
		return api.Bucket{}, api.NewStoreError("create bucket", name, kind, err)
	}

	s.log.Info(ctx, "Bucket successfully created", logapi.String("bucket", name))
	bucket.Created = true
	return bucket, nil
}

// Put streams body to MinIO. An unknown size (-1) switches minio-go to
// multipart streaming.
func (s *MinIOStorageService) Put(ctx context.Context, key string, body io.Reader, size int64, opts api.PutOptions) error {
	putOpts := minio.PutObjectOptions{ContentType: opts.ContentType}
	acl := opts.ACL
	if acl == "" {
		acl = s.cfg.ACL
	}
	if acl != "" {
		putOpts.UserMetadata = map[string]string{"x-amz-acl": acl}
	}

	if _, err := s.client.PutObject(ctx, s.cfg.BucketName, key, body, size, putOpts); err != nil {
		s.log.Error(ctx, "Failed to upload object", err, logapi.String("key", key))
		return api.NewStoreError("put", key, classify(err), err)
	}

	s.log.Info(ctx, "Successfully uploaded object", logapi.String("key", key), logapi.Int64("size", size))
	return nil
}

// Head returns object metadata
func (s *MinIOStorageService) Head(ctx context.Context, key string) (api.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.cfg.BucketName, key, minio.StatObjectOptions{})
	if err != nil {
		return api.ObjectInfo{}, api.NewStoreError("head", key, classify(err), err)
	}
	return toObjectInfo(key, info), nil
}

// Get opens the object from rangeStart to the end
func (s *MinIOStorageService) Get(ctx context.Context, key string, rangeStart int64) (*api.Object, error) {
	if rangeStart < 0 {
		return nil, api.NewStoreError("get", key, api.ErrInvalidRef, fmt.Errorf("negative range start %d", rangeStart))
	}

	obj, err := s.client.GetObject(ctx, s.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, api.NewStoreError("get", key, classify(err), err)
	}

	// GetObject is lazy; Stat surfaces a missing key before any byte is read.
	// Stat drops a Range option, so the offset is applied with Seek instead.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, api.NewStoreError("get", key, classify(err), err)
	}
	if rangeStart > info.Size {
		obj.Close()
		return nil, api.NewStoreError("get", key, api.ErrInvalidRef,
			fmt.Errorf("range start %d beyond object size %d", rangeStart, info.Size))
	}
	if rangeStart > 0 {
		if _, err := obj.Seek(rangeStart, io.SeekStart); err != nil {
			obj.Close()
			return nil, api.NewStoreError("get", key, api.ErrInvalidRef, err)
		}
	}

	return &api.Object{
		Info:          toObjectInfo(key, info),
		Body:          obj,
		Offset:        rangeStart,
		ContentLength: info.Size - rangeStart,
	}, nil
}

// PresignGet generates a presigned URL for downloading
func (s *MinIOStorageService) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.cfg.BucketName, key, ttl, nil)
	if err != nil {
		return "", api.NewStoreError("presign", key, classify(err), err)
	}
	return u.String(), nil
}

// Delete deletes an object. Missing keys are ignored.
func (s *MinIOStorageService) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.cfg.BucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		kind := classify(err)
		if kind == api.ErrNotFound {
			return nil
		}
		return api.NewStoreError("delete", key, kind, err)
	}
	s.log.Info(ctx, "Deleted object", logapi.String("key", key))
	return nil
}

func toObjectInfo(key string, info minio.ObjectInfo) api.ObjectInfo {
	return api.ObjectInfo{
		Key:          key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
		ETag:         info.ETag,
	}
}

// classify maps a minio-go error onto the storage error taxonomy.
func classify(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return api.ErrNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return api.ErrAccessDenied
	case "InvalidRange":
		return api.ErrInvalidRef
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return api.ErrNotFound
	case http.StatusForbidden:
		return api.ErrAccessDenied
	case http.StatusRequestedRangeNotSatisfiable:
		return api.ErrInvalidRef
	}
	return api.ErrStoreUnavailable
}
