package mock

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/bignyap/s3filestore/storage/api"
)

// Store is an in-memory api.ObjectStore used by tests and by the "memory"
// storage type.
type Store struct {
	mu       sync.Mutex
	bucket   string
	buckets  map[string]bool
	objects  map[string]storedObject
	failures map[string]error
	calls    []Call
	now      func() time.Time
}

type storedObject struct {
	data         []byte
	contentType  string
	acl          string
	lastModified time.Time
	etag         string
}

// Call records one operation performed against the store.
type Call struct {
	Op  string
	Key string
}

// Ensure Store implements api.ObjectStore
var _ api.ObjectStore = (*Store)(nil)

// NewStore creates an empty store for bucket. The bucket itself does not
// exist until EnsureBucket is called.
func NewStore(bucket string) *Store {
	return &Store{
		bucket:   bucket,
		buckets:  map[string]bool{},
		objects:  map[string]storedObject{},
		failures: map[string]error{},
		now:      time.Now,
	}
}

// FailOn makes every call to op return err until cleared with a nil err.
// A taxonomy kind such as api.ErrAccessDenied becomes the Kind of the
// returned StoreError, wrapping an opaque provider error the way the real
// adapters do. Any other err is wrapped as api.ErrStoreUnavailable.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns the operations performed so far.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsFor returns the keys passed to op, in order.
func (s *Store) CallsFor(op string) []string {
	var keys []string
	for _, c := range s.Calls() {
		if c.Op == op {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ACL returns the canned ACL stored with key.
func (s *Store) ACL(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key].acl
}

// ContentType returns the content type stored with key.
func (s *Store) ContentType(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key].contentType
}

func (s *Store) record(op, key string) error {
	s.calls = append(s.calls, Call{Op: op, Key: key})
	if err, ok := s.failures[op]; ok {
		kind := kindOf(err)
		if kind == err {
			err = fmt.Errorf("injected %s failure", op)
		}
		return api.NewStoreError(op, key, kind, err)
	}
	return nil
}

func kindOf(err error) error {
	for _, kind := range []error{api.ErrNotFound, api.ErrAccessDenied, api.ErrInvalidRef, api.ErrStoreUnavailable} {
		if err == kind {
			return kind
		}
	}
	return nil
}

func (s *Store) EnsureBucket(ctx context.Context, name string) (api.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ensure_bucket", name); err != nil {
		return api.Bucket{}, err
	}
	if s.buckets[name] {
		return api.Bucket{Name: name}, nil
	}
	s.buckets[name] = true
	return api.Bucket{Name: name, Created: true}, nil
}

func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts api.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return api.NewStoreError("put", key, api.ErrStoreUnavailable, err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return api.NewStoreError("put", key, api.ErrStoreUnavailable, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return api.NewStoreError("put", key, api.ErrInvalidRef,
			fmt.Errorf("size mismatch: declared %d, read %d", size, len(data)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("put", key); err != nil {
		return err
	}
	sum := md5.Sum(data)
	s.objects[key] = storedObject{
		data:         data,
		contentType:  opts.ContentType,
		acl:          opts.ACL,
		lastModified: s.now().UTC().Truncate(time.Second),
		etag:         `"` + hex.EncodeToString(sum[:]) + `"`,
	}
	return nil
}

func (s *Store) Head(ctx context.Context, key string) (api.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("head", key); err != nil {
		return api.ObjectInfo{}, err
	}
	obj, ok := s.objects[key]
	if !ok {
		return api.ObjectInfo{}, api.NewStoreError("head", key, api.ErrNotFound, fmt.Errorf("no such key"))
	}
	return obj.info(key), nil
}

func (s *Store) Get(ctx context.Context, key string, rangeStart int64) (*api.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("get", key); err != nil {
		return nil, err
	}
	obj, ok := s.objects[key]
	if !ok {
		return nil, api.NewStoreError("get", key, api.ErrNotFound, fmt.Errorf("no such key"))
	}
	if rangeStart < 0 || rangeStart > int64(len(obj.data)) {
		return nil, api.NewStoreError("get", key, api.ErrInvalidRef,
			fmt.Errorf("range start %d outside object of %d bytes", rangeStart, len(obj.data)))
	}
	body := obj.data[rangeStart:]
	return &api.Object{
		Info:          obj.info(key),
		Body:          io.NopCloser(bytes.NewReader(body)),
		Offset:        rangeStart,
		ContentLength: int64(len(body)),
	}, nil
}

func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("presign", key); err != nil {
		return "", err
	}
	u := url.URL{
		Scheme:   "memory",
		Host:     s.bucket,
		Path:     "/" + key,
		RawQuery: url.Values{"expires": {fmt.Sprintf("%d", int(ttl.Seconds()))}}.Encode(),
	}
	return u.String(), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("delete", key); err != nil {
		return err
	}
	delete(s.objects, key)
	return nil
}

func (o storedObject) info(key string) api.ObjectInfo {
	return api.ObjectInfo{
		Key:          key,
		Size:         int64(len(o.data)),
		ContentType:  o.contentType,
		LastModified: o.lastModified,
		ETag:         o.etag,
	}
}
