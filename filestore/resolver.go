package filestore

import (
	"context"
	"errors"

	logapi "github.com/bignyap/s3filestore/logger/api"
	"github.com/bignyap/s3filestore/storage/api"
)

// ResolutionKind tags a Resolution.
type ResolutionKind int

const (
	// Redirect sends the client to a presigned URL
	Redirect ResolutionKind = iota
	// Stream serves the object through this process
	Stream
	// Fallback asks the caller to serve the file from local disk
	Fallback
)

func (k ResolutionKind) String() string {
	switch k {
	case Redirect:
		return "redirect"
	case Stream:
		return "stream"
	default:
		return "fallback"
	}
}

// Resolution is the outcome of Resolve. For Stream, Object is nil on a
// headers-only request; otherwise the caller must Close it.
type Resolution struct {
	Kind   ResolutionKind
	Key    string
	URL    string
	Info   api.ObjectInfo
	Object *api.Object
}

// ResolveOptions describe the incoming read.
type ResolveOptions struct {
	// HeadOnly skips opening the body
	HeadOnly bool
	// RangeStart is the first byte to return
	RangeStart int64
}

// Resolver decides how a stored file reaches the client.
type Resolver struct {
	p   *Provider
	log logapi.Logger
}

// Resolver returns the download resolver for this provider.
func (p *Provider) Resolver() *Resolver {
	return &Resolver{p: p, log: p.log.WithComponent("filestore.resolver")}
}

// Resolve checks that the object exists, then presigns it or opens it for
// streaming. A missing object becomes Fallback when filesystem fallback is
// enabled and ErrResourceDataNotFound otherwise. Any other store failure is
// reported as api.ErrStoreUnavailable.
func (r *Resolver) Resolve(ctx context.Context, ref Ref, opts ResolveOptions) (Resolution, error) {
	cfg := r.p.cfg
	key, err := BuildKey(cfg, ref)
	if err != nil {
		return Resolution{}, err
	}

	// Presigning never fails for a missing key, so existence is checked first.
	info, err := r.p.store.Head(ctx, key)
	if err != nil {
		return r.onHeadError(ctx, ref, key, err)
	}
	res := Resolution{Key: key, Info: info}

	if opts.RangeStart < 0 || (opts.RangeStart > 0 && opts.RangeStart >= info.Size) {
		return res, ErrRangeNotSatisfiable
	}

	if cfg.Presigns() {
		url, err := r.p.store.PresignGet(ctx, key, cfg.PresignTTL())
		if err != nil {
			return Resolution{}, unavailable("presign", key, err)
		}
		res.Kind = Redirect
		res.URL = url
		return res, nil
	}

	res.Kind = Stream
	if opts.HeadOnly {
		return res, nil
	}
	obj, err := r.p.store.Get(ctx, key, opts.RangeStart)
	if err != nil {
		if api.IsNotFound(err) {
			return r.onHeadError(ctx, ref, key, err)
		}
		return Resolution{}, unavailable("get", key, err)
	}
	res.Object = obj
	res.Info = obj.Info
	return res, nil
}

func (r *Resolver) onHeadError(ctx context.Context, ref Ref, key string, err error) (Resolution, error) {
	if !api.IsNotFound(err) {
		r.log.Error(ctx, "Object store lookup failed", err, logapi.String("key", key))
		return Resolution{}, unavailable("head", key, err)
	}
	if r.p.cfg.FilesystemFallback && ref.Kind == KindResource {
		r.log.Info(ctx, "Attempting filesystem fallback", logapi.String("resource_id", ref.ID))
		return Resolution{Kind: Fallback, Key: key}, nil
	}
	r.log.Warn(ctx, "Object not found in bucket",
		logapi.String("key", key), logapi.String("bucket", r.p.cfg.BucketName))
	return Resolution{}, ErrResourceDataNotFound
}

// unavailable reports err as api.ErrStoreUnavailable. The kind of an inner
// StoreError is dropped so it cannot be matched instead.
func unavailable(op, key string, err error) error {
	var storeErr *api.StoreError
	if errors.As(err, &storeErr) {
		if storeErr.Kind == api.ErrStoreUnavailable {
			return storeErr
		}
		if storeErr.Err != nil {
			err = storeErr.Err
		}
	}
	return api.NewStoreError(op, key, api.ErrStoreUnavailable, err)
}
