package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bignyap/s3filestore/storage/api"
	"github.com/bignyap/s3filestore/storage/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	noSuchKey = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`
	lastModified = "Mon, 29 Jan 2001 00:00:00 GMT"
)

// fakeS3 answers path-style requests for a single bucket.
type fakeS3 struct {
	mu         sync.Mutex
	headBucket int
	createCode int
	createBody string
	requests   []string
	ranges     []string
	objects    map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+strings.TrimSuffix(r.URL.Path, "/"))

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if key == "" {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(f.headBucket)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.createBody = string(body)
			w.WriteHeader(f.createCode)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	data, ok := f.objects[key]
	switch r.Method {
	case http.MethodHead:
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Last-Modified", lastModified)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, noSuchKey)
			return
		}
		f.ranges = append(f.ranges, r.Header.Get("Range"))
		var start int
		if _, err := fmt.Sscanf(r.Header.Get("Range"), "bytes=%d-", &start); err != nil {
			start = 0
		}
		part := data[start:]
		w.Header().Set("Content-Length", fmt.Sprint(len(part)))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Last-Modified", lastModified)
		if start > 0 {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(data)-1, len(data)))
			w.WriteHeader(http.StatusPartialContent)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_, _ = w.Write(part)
	case http.MethodDelete:
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, noSuchKey)
			return
		}
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) seen(request string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == request {
			return true
		}
	}
	return false
}

func newFakeService(t *testing.T, fake *fakeS3, region string) *MinIOStorageService {
	t.Helper()
	if fake.objects == nil {
		fake.objects = map[string][]byte{}
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Type = string(api.StorageTypeMinio)
	cfg.BucketName = "my-bucket"
	cfg.AccessKeyID = "test-key"
	cfg.SecretAccessKey = "test-secret"
	cfg.HostName = srv.URL
	cfg.AddressingStyle = config.AddressingPath
	cfg.Region = region

	endpoint, secure, err := parseEndpoint(cfg.HostName)
	require.NoError(t, err)
	require.False(t, secure)
	require.Equal(t, strings.TrimPrefix(srv.URL, "http://"), endpoint)

	svc, err := NewMinIOStorageService(cfg, nil)
	require.NoError(t, err)
	return svc
}

func TestEnsureBucket_Exists(t *testing.T) {
	fake := &fakeS3{headBucket: http.StatusOK}
	svc := newFakeService(t, fake, "us-east-1")

	bucket, err := svc.EnsureBucket(context.Background(), "my-bucket")
	require.NoError(t, err)
	assert.False(t, bucket.Created)
	assert.False(t, fake.seen("PUT /my-bucket"))
}

func TestEnsureBucket_CreatesMissing(t *testing.T) {
	t.Run("default region", func(t *testing.T) {
		fake := &fakeS3{headBucket: http.StatusNotFound, createCode: http.StatusOK}
		svc := newFakeService(t, fake, "us-east-1")

		bucket, err := svc.EnsureBucket(context.Background(), "my-bucket")
		require.NoError(t, err)
		assert.True(t, bucket.Created)
		assert.True(t, fake.seen("PUT /my-bucket"))
		assert.NotContains(t, fake.createBody, "LocationConstraint")
	})

	t.Run("other region", func(t *testing.T) {
		fake := &fakeS3{headBucket: http.StatusNotFound, createCode: http.StatusOK}
		svc := newFakeService(t, fake, "eu-west-1")

		bucket, err := svc.EnsureBucket(context.Background(), "my-bucket")
		require.NoError(t, err)
		assert.True(t, bucket.Created)
		assert.Contains(t, fake.createBody, "<LocationConstraint>eu-west-1</LocationConstraint>")
	})
}

func TestEnsureBucket_AccessDenied(t *testing.T) {
	fake := &fakeS3{headBucket: http.StatusForbidden}
	svc := newFakeService(t, fake, "us-east-1")

	_, err := svc.EnsureBucket(context.Background(), "my-bucket")
	assert.ErrorIs(t, err, api.ErrAccessDenied)
	assert.False(t, fake.seen("PUT /my-bucket"))
}

func TestEnsureBucket_Unavailable(t *testing.T) {
	// Statuses minio-go does not retry keep these tests fast
	t.Run("head", func(t *testing.T) {
		fake := &fakeS3{headBucket: http.StatusBadRequest}
		svc := newFakeService(t, fake, "us-east-1")

		_, err := svc.EnsureBucket(context.Background(), "my-bucket")
		assert.ErrorIs(t, err, api.ErrStoreUnavailable)
	})

	t.Run("create", func(t *testing.T) {
		fake := &fakeS3{headBucket: http.StatusNotFound, createCode: http.StatusConflict}
		svc := newFakeService(t, fake, "us-east-1")

		_, err := svc.EnsureBucket(context.Background(), "my-bucket")
		assert.ErrorIs(t, err, api.ErrStoreUnavailable)
		assert.NotErrorIs(t, err, api.ErrNotFound)
	})
}

func TestGet_RangeReportsTotalSize(t *testing.T) {
	data := []byte(strings.Repeat("0123456789", 10))
	fake := &fakeS3{objects: map[string][]byte{"pfx/resources/abc123/data.csv": data}}
	svc := newFakeService(t, fake, "us-east-1")

	obj, err := svc.Get(context.Background(), "pfx/resources/abc123/data.csv", 50)
	require.NoError(t, err)
	defer obj.Close()

	assert.Equal(t, int64(100), obj.Info.Size)
	assert.Equal(t, int64(50), obj.ContentLength)
	assert.Equal(t, int64(50), obj.Offset)

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, data[50:], body)
	assert.Equal(t, []string{"bytes=50-"}, fake.ranges)
}

func TestGet_RangeBeyondSize(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"k": []byte("abc")}}
	svc := newFakeService(t, fake, "us-east-1")

	_, err := svc.Get(context.Background(), "k", 10)
	assert.ErrorIs(t, err, api.ErrInvalidRef)
}

func TestHead_Missing(t *testing.T) {
	svc := newFakeService(t, &fakeS3{}, "us-east-1")

	_, err := svc.Head(context.Background(), "pfx/resources/abc123/missing.csv")
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestDelete_MissingIsNotAnError(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"pfx/resources/abc123/data.csv": []byte("x")}}
	svc := newFakeService(t, fake, "us-east-1")
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "pfx/resources/abc123/data.csv"))
	require.NoError(t, svc.Delete(ctx, "pfx/resources/abc123/data.csv"))
	assert.True(t, fake.seen("DELETE /my-bucket/pfx/resources/abc123/data.csv"))
}
