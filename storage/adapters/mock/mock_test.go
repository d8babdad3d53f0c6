package mock_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/bignyap/s3filestore/storage/adapters/mock"
	"github.com/bignyap/s3filestore/storage/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore("bucket")
	payload := []byte("id,name\n1,alpha\n")
	key := "pfx/resources/abc123/data.csv"

	require.NoError(t, store.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), api.PutOptions{ContentType: "text/csv"}))

	obj, err := store.Get(ctx, key, 0)
	require.NoError(t, err)
	got, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.NoError(t, obj.Close())
	assert.Equal(t, payload, got)
	assert.Equal(t, "text/csv", obj.Info.ContentType)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Head(ctx, key)
	assert.True(t, errors.Is(err, api.ErrNotFound))
}

func TestStore_RangedGet(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore("bucket")
	payload := bytes.Repeat([]byte("x"), 100)
	require.NoError(t, store.Put(ctx, "k", bytes.NewReader(payload), 100, api.PutOptions{}))

	obj, err := store.Get(ctx, "k", 50)
	require.NoError(t, err)
	defer obj.Close()

	got, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Len(t, got, 50)
	assert.Equal(t, int64(50), obj.ContentLength)
	assert.Equal(t, int64(100), obj.Info.Size)
}

func TestStore_DeleteMissingIsNotAnError(t *testing.T) {
	store := mock.NewStore("bucket")
	assert.NoError(t, store.Delete(context.Background(), "missing"))
}

func TestStore_EnsureBucket(t *testing.T) {
	store := mock.NewStore("bucket")
	b, err := store.EnsureBucket(context.Background(), "bucket")
	require.NoError(t, err)
	assert.True(t, b.Created)

	b, err = store.EnsureBucket(context.Background(), "bucket")
	require.NoError(t, err)
	assert.False(t, b.Created)
}

func TestStore_FailOn(t *testing.T) {
	store := mock.NewStore("bucket")
	store.FailOn("head", api.ErrAccessDenied)

	_, err := store.Head(context.Background(), "k")
	assert.True(t, errors.Is(err, api.ErrAccessDenied))

	store.FailOn("head", nil)
	_, err = store.Head(context.Background(), "k")
	assert.True(t, errors.Is(err, api.ErrNotFound))
}

func TestStore_FailOnHidesProviderError(t *testing.T) {
	store := mock.NewStore("bucket")
	store.FailOn("get", api.ErrInvalidRef)

	_, err := store.Get(context.Background(), "k", 0)
	var storeErr *api.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, api.ErrInvalidRef, storeErr.Kind)
	assert.NotErrorIs(t, storeErr.Err, api.ErrInvalidRef)

	custom := errors.New("socket closed")
	store.FailOn("get", custom)
	_, err = store.Get(context.Background(), "k", 0)
	assert.ErrorIs(t, err, custom)
	assert.ErrorIs(t, err, api.ErrStoreUnavailable)
}
