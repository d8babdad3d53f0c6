package filestore

import (
	"context"
	"strconv"
	"strings"
	"time"

	logapi "github.com/bignyap/s3filestore/logger/api"
	"github.com/bignyap/s3filestore/storage/api"
	"github.com/bignyap/s3filestore/storage/config"
)

// Record is the mutable entity mapping handed to an uploader, e.g. a
// resource dict with "id", "url", "url_type" and "mimetype".
type Record map[string]any

// String returns the string value of key, or "" if absent or not a string.
func (r Record) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// pop removes key and returns its value.
func (r Record) pop(key string) any {
	v, ok := r[key]
	if !ok {
		return nil
	}
	delete(r, key)
	return v
}

// FilenameLookup finds the stored filename of a resource by id.
type FilenameLookup interface {
	Lookup(ctx context.Context, id string) (filename string, found bool, err error)
}

// URLMap is the optional side table of resource id to stored filename.
type URLMap interface {
	FilenameLookup
	Record(ctx context.Context, id, filename string) error
	Remove(ctx context.Context, id string) error
}

// Provider binds configuration, store and collaborators, and hands out
// uploaders and resolvers.
type Provider struct {
	cfg         config.StorageConfig
	store       api.ObjectStore
	log         logapi.Logger
	urlMap      URLMap
	munge       Munger
	mungeLegacy Munger
	now         func() time.Time
}

// Option configures a Provider
type Option func(*Provider)

// WithURLMap records uploads in m and uses it to find old filenames.
func WithURLMap(m URLMap) Option {
	return func(p *Provider) {
		p.urlMap = m
	}
}

// WithMunger replaces the resource filename munger.
func WithMunger(m Munger) Option {
	return func(p *Provider) {
		p.munge = m
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates a Provider. cfg is used as given; call Validate first.
func NewProvider(cfg config.StorageConfig, store api.ObjectStore, log logapi.Logger, opts ...Option) *Provider {
	if log == nil {
		log = &logapi.DefaultLogger{}
	}
	p := &Provider{
		cfg:         cfg,
		store:       store,
		log:         log,
		munge:       MungeFilename,
		mungeLegacy: MungeFilenameLegacy,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the storage configuration.
func (p *Provider) Config() config.StorageConfig {
	return p.cfg
}

// Store returns the object store.
func (p *Provider) Store() api.ObjectStore {
	return p.store
}

// URLMap returns the configured URL map, or nil.
func (p *Provider) URLMap() URLMap {
	return p.urlMap
}

// lookupFilename asks the URL map for the stored filename of id. URL valued
// entries are links, not stored files, and are reported as absent.
func (p *Provider) lookupFilename(ctx context.Context, id string) (string, error) {
	if p.urlMap == nil || id == "" {
		return "", nil
	}
	name, found, err := p.urlMap.Lookup(ctx, id)
	if err != nil || !found || IsURL(name) {
		return "", err
	}
	return name, nil
}

// flag interprets a form or JSON value as a boolean.
func flag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if strings.EqualFold(t, "on") {
			return true
		}
		b, _ := strconv.ParseBool(t)
		return b
	}
	return false
}
