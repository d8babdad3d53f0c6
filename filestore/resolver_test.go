package filestore_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/bignyap/s3filestore/filestore"
	"github.com/bignyap/s3filestore/storage/adapters/mock"
	"github.com/bignyap/s3filestore/storage/api"
	"github.com/bignyap/s3filestore/storage/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, mutate func(*config.StorageConfig)) (*filestore.Resolver, *mock.Store) {
	t.Helper()
	cfg := cfgWithPrefix("pfx")
	if mutate != nil {
		mutate(&cfg)
	}
	store := mock.NewStore(cfg.BucketName)
	return filestore.NewProvider(cfg, store, nil).Resolver(), store
}

func put(t *testing.T, store *mock.Store, key string, data []byte) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), key, bytes.NewReader(data), int64(len(data)), api.PutOptions{}))
}

func TestResolve_Presigned(t *testing.T) {
	r, store := newResolver(t, nil)
	put(t, store, "pfx/resources/abc123/data.csv", []byte("a,b"))

	res, err := r.Resolve(context.Background(), filestore.ResourceRef("abc123", "data.csv"), filestore.ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, filestore.Redirect, res.Kind)
	assert.Equal(t, "memory://my-bucket/pfx/resources/abc123/data.csv?expires=60", res.URL)
	assert.Equal(t, []string{"pfx/resources/abc123/data.csv"}, store.CallsFor("head"))
}

func TestResolve_MissingWithoutFallback(t *testing.T) {
	r, _ := newResolver(t, nil)

	_, err := r.Resolve(context.Background(), filestore.ResourceRef("abc123", "data.csv"), filestore.ResolveOptions{})
	assert.ErrorIs(t, err, filestore.ErrResourceDataNotFound)
}

func TestResolve_MissingWithFallback(t *testing.T) {
	r, _ := newResolver(t, func(c *config.StorageConfig) { c.FilesystemFallback = true })

	res, err := r.Resolve(context.Background(), filestore.ResourceRef("abc123", "data.csv"), filestore.ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, filestore.Fallback, res.Kind)
	assert.Equal(t, "pfx/resources/abc123/data.csv", res.Key)
}

func TestResolve_StoreFailure(t *testing.T) {
	r, store := newResolver(t, func(c *config.StorageConfig) { c.FilesystemFallback = true })
	store.FailOn("head", api.ErrAccessDenied)

	_, err := r.Resolve(context.Background(), filestore.ResourceRef("abc123", "data.csv"), filestore.ResolveOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrStoreUnavailable))
	assert.False(t, errors.Is(err, filestore.ErrResourceDataNotFound))
	assert.False(t, errors.Is(err, api.ErrAccessDenied))
}

func TestResolve_InvalidRef(t *testing.T) {
	r, store := newResolver(t, nil)

	_, err := r.Resolve(context.Background(), filestore.ResourceRef("", "data.csv"), filestore.ResolveOptions{})
	assert.ErrorIs(t, err, api.ErrInvalidRef)
	assert.Empty(t, store.Calls())
}

func TestResolve_StreamRange(t *testing.T) {
	r, store := newResolver(t, func(c *config.StorageConfig) { c.PresignEnabled = false })
	data := bytes.Repeat([]byte("0123456789"), 10)
	put(t, store, "pfx/resources/abc123/data.bin", data)

	res, err := r.Resolve(context.Background(), filestore.ResourceRef("abc123", "data.bin"),
		filestore.ResolveOptions{RangeStart: 50})
	require.NoError(t, err)
	require.Equal(t, filestore.Stream, res.Kind)
	require.NotNil(t, res.Object)
	defer res.Object.Close()

	body, err := io.ReadAll(res.Object.Body)
	require.NoError(t, err)
	assert.Len(t, body, 50)
	assert.Equal(t, data[50:], body)
	assert.Equal(t, int64(100), res.Info.Size)
}

func TestResolve_HeadOnly(t *testing.T) {
	r, store := newResolver(t, func(c *config.StorageConfig) { c.PresignEnabled = false })
	put(t, store, "pfx/resources/abc123/data.csv", []byte("a,b"))

	res, err := r.Resolve(context.Background(), filestore.ResourceRef("abc123", "data.csv"),
		filestore.ResolveOptions{HeadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, filestore.Stream, res.Kind)
	assert.Nil(t, res.Object)
	assert.Equal(t, int64(3), res.Info.Size)
	assert.NotEmpty(t, res.Info.ETag)
	assert.Empty(t, store.CallsFor("get"))
}

func TestResolve_RangeNotSatisfiable(t *testing.T) {
	r, store := newResolver(t, func(c *config.StorageConfig) { c.PresignEnabled = false })
	put(t, store, "pfx/resources/abc123/data.csv", []byte("a,b"))

	res, err := r.Resolve(context.Background(), filestore.ResourceRef("abc123", "data.csv"),
		filestore.ResolveOptions{RangeStart: 3})
	assert.ErrorIs(t, err, filestore.ErrRangeNotSatisfiable)
	assert.Equal(t, int64(3), res.Info.Size)
}

func TestResolve_UploadKindHasNoFallback(t *testing.T) {
	r, _ := newResolver(t, func(c *config.StorageConfig) { c.FilesystemFallback = true })

	_, err := r.Resolve(context.Background(), filestore.UploadRef("group", "x.png"), filestore.ResolveOptions{})
	assert.ErrorIs(t, err, filestore.ErrResourceDataNotFound)
}

func TestResolve_GetFailureIsUnavailable(t *testing.T) {
	r, store := newResolver(t, func(c *config.StorageConfig) { c.PresignEnabled = false })
	put(t, store, "pfx/resources/abc123/data.csv", bytes.Repeat([]byte("x"), 100))
	store.FailOn("get", api.ErrInvalidRef)

	_, err := r.Resolve(context.Background(), filestore.ResourceRef("abc123", "data.csv"), filestore.ResolveOptions{RangeStart: 50})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, api.ErrInvalidRef)
}

func TestResolve_MemoryStoreStreams(t *testing.T) {
	r, store := newResolver(t, func(c *config.StorageConfig) { c.Type = string(api.StorageTypeMemory) })
	put(t, store, "pfx/resources/abc123/data.csv", []byte("a,b"))

	res, err := r.Resolve(context.Background(), filestore.ResourceRef("abc123", "data.csv"), filestore.ResolveOptions{})
	require.NoError(t, err)
	defer res.Object.Close()
	assert.Equal(t, filestore.Stream, res.Kind)
	assert.Empty(t, res.URL)
	assert.Empty(t, store.CallsFor("presign"))
}
