package s3

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	logapi "github.com/bignyap/s3filestore/logger/api"
	"github.com/bignyap/s3filestore/storage/api"
	"github.com/bignyap/s3filestore/storage/config"
)

// S3StorageService implements api.ObjectStore for AWS S3 and S3-compatible services
type S3StorageService struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	uploader      *manager.Uploader
	cfg           config.StorageConfig
	log           logapi.Logger
}

// Ensure S3StorageService implements api.ObjectStore
var _ api.ObjectStore = (*S3StorageService)(nil)

// NewS3StorageService creates a new S3 storage service. No network call is
// made; use EnsureBucket to verify the bucket.
func NewS3StorageService(cfg config.StorageConfig, log logapi.Logger) (*S3StorageService, error) {
	if cfg.SignatureV2() {
		return nil, fmt.Errorf("signature version %s is not supported by the s3 adapter", cfg.SignatureVersion)
	}
	if log == nil {
		log = &logapi.DefaultLogger{}
	}

	awsOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(newHTTPClient(cfg.RequestTimeout())),
		awsconfig.WithRetryMaxAttempts(cfg.MaxRetries + 1),
	}

	// Explicit keys unless the ambient role was requested
	if !cfg.UseAmbientRole && cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.HostName != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg.HostName))
		}
		o.UsePathStyle = cfg.UsePathStyle()
	})

	return &S3StorageService{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		uploader:      manager.NewUploader(client),
		cfg:           cfg,
		log:           log.WithComponent("storage.s3"),
	}, nil
}

// newHTTPClient bounds connection setup and time-to-first-byte without
// capping the duration of a streamed body.
func newHTTPClient(timeout time.Duration) *awshttp.BuildableClient {
	return awshttp.NewBuildableClient().
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = timeout
		}).
		WithTransportOptions(func(tr *http.Transport) {
			tr.TLSHandshakeTimeout = timeout
			tr.ResponseHeaderTimeout = timeout
			tr.MaxIdleConnsPerHost = 64
		})
}

func endpointURL(host string) string {
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

// withTimeout applies the request timeout to calls that do not stream a body.
func (s *S3StorageService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.RequestTimeout()
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureBucket checks the bucket and creates it when S3 reports it missing
func (s *S3StorageService) EnsureBucket(ctx context.Context, name string) (api.Bucket, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	bucket := api.Bucket{Name: name, Region: s.cfg.Region}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)})
	if err == nil {
		s.log.Info(ctx, "Bucket found", logapi.String("bucket", name))
		return bucket, nil
	}

	switch kind := classify(err); kind {
	case api.ErrNotFound:
		s.log.Warn(ctx, "Bucket could not be found, attempting to create it", logapi.String("bucket", name))
	default:
		return api.Bucket{}, api.NewStoreError("head bucket", name, kind, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	// us-east-1 is the default location and must not be sent as a constraint
	if s.cfg.Region != "" && s.cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.cfg.Region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, input); err != nil {
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

// Put streams body to S3. Large bodies go through multipart upload, so the
// payload is never held in memory as a whole.
func (s *S3StorageService) Put(ctx context.Context, key string, body io.Reader, size int64, opts api.PutOptions) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(key),
		Body:   body,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	acl := opts.ACL
	if acl == "" {
		acl = s.cfg.ACL
	}
	if acl != "" {
		input.ACL = types.ObjectCannedACL(acl)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		s.log.Error(ctx, "Failed to upload object", err, logapi.String("key", key))
		return api.NewStoreError("put", key, classify(err), err)
	}

	s.log.Info(ctx, "Successfully uploaded object", logapi.String("key", key), logapi.Int64("size", size))
	return nil
}

// Head returns the object metadata
func (s *S3StorageService) Head(ctx context.Context, key string) (api.ObjectInfo, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return api.ObjectInfo{}, api.NewStoreError("head", key, classify(err), err)
	}

	return api.ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
		ETag:         aws.ToString(out.ETag),
	}, nil
}

// Get opens the object from rangeStart to the end. The body is bound to ctx,
// so cancelling the request releases the connection.
func (s *S3StorageService) Get(ctx context.Context, key string, rangeStart int64) (*api.Object, error) {
	if rangeStart < 0 {
		return nil, api.NewStoreError("get", key, api.ErrInvalidRef, fmt.Errorf("negative range start %d", rangeStart))
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(key),
	}
	if rangeStart > 0 {
		input.Range = aws.String(fmt.Sprintf("bytes=%d-", rangeStart))
	}

	out, err := s.client.GetObject(ctx, input)
	if err != nil {
		return nil, api.NewStoreError("get", key, classify(err), err)
	}

	length := aws.ToInt64(out.ContentLength)
	total := length
	if rangeStart > 0 {
		if t, ok := totalFromContentRange(aws.ToString(out.ContentRange)); ok {
			total = t
		} else {
			total = rangeStart + length
		}
	}

	return &api.Object{
		Info: api.ObjectInfo{
			Key:          key,
			Size:         total,
			ContentType:  aws.ToString(out.ContentType),
			LastModified: aws.ToTime(out.LastModified),
			ETag:         aws.ToString(out.ETag),
		},
		Body:          out.Body,
		Offset:        rangeStart,
		ContentLength: length,
	}, nil
}

// PresignGet generates a presigned URL for downloading
func (s *S3StorageService) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	result, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", api.NewStoreError("presign", key, classify(err), err)
	}
	return result.URL, nil
}

// Delete deletes an object. Missing keys are ignored.
func (s *S3StorageService) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(key),
	})
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
