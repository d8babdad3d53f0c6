package api

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every adapter and by the filestore layer.
var (
	ErrInvalidRef       = errors.New("invalid object reference")
	ErrAccessDenied     = errors.New("access denied")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("object store unavailable")
	ErrConfigMissing    = errors.New("configuration missing")
)

// StoreError wraps a provider error with the operation, the key and the
// taxonomy kind it was classified as.
type StoreError struct {
	Op   string
	Key  string
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q: %v: %v", e.Op, e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the provider error.
func (e *StoreError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewStoreError classifies err under kind. A nil kind means ErrStoreUnavailable.
func NewStoreError(op, key string, kind, err error) *StoreError {
	if kind == nil {
		kind = ErrStoreUnavailable
	}
	return &StoreError{Op: op, Key: key, Kind: kind, Err: err}
}

// IsNotFound reports whether err is a not-found error from any adapter.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
