package s3

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/bignyap/s3filestore/storage/api"
	"github.com/bignyap/s3filestore/storage/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_APIErrorCodes(t *testing.T) {
	cases := map[string]error{
		"NoSuchKey":    api.ErrNotFound,
		"NotFound":     api.ErrNotFound,
		"NoSuchBucket": api.ErrNotFound,
		"AccessDenied": api.ErrAccessDenied,
		"InvalidRange": api.ErrInvalidRef,
		"SlowDown":     api.ErrStoreUnavailable,
	}
	for code, want := range cases {
		err := fmt.Errorf("operation error: %w", &smithy.GenericAPIError{Code: code})
		assert.Equal(t, want, classify(err), code)
	}
}

func TestClassify_PlainError(t *testing.T) {
	assert.Equal(t, api.ErrStoreUnavailable, classify(errors.New("connection reset")))
	assert.Nil(t, classify(nil))
}

func TestStoreError_MatchesKindAndCause(t *testing.T) {
	cause := &smithy.GenericAPIError{Code: "NoSuchKey"}
	err := api.NewStoreError("head", "pfx/resources/abc/data.csv", classify(cause), cause)

	assert.True(t, errors.Is(err, api.ErrNotFound))
	var apiErr smithy.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "pfx/resources/abc/data.csv")
}

func TestTotalFromContentRange(t *testing.T) {
	total, ok := totalFromContentRange("bytes 50-99/100")
	assert.True(t, ok)
	assert.Equal(t, int64(100), total)

	_, ok = totalFromContentRange("bytes 50-99/")
	assert.False(t, ok)
	_, ok = totalFromContentRange("")
	assert.False(t, ok)
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "https://minio.local:9000", endpointURL("minio.local:9000"))
	assert.Equal(t, "http://minio.local:9000", endpointURL("http://minio.local:9000"))
}

func TestNewS3StorageService_RejectsSignatureV2(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BucketName = "bucket"
	cfg.SignatureVersion = "s3"

	_, err := NewS3StorageService(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature version")
}
