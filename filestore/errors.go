package filestore

import "errors"

var (
	// ErrResourceDataNotFound is returned when the object is missing and
	// filesystem fallback is disabled.
	ErrResourceDataNotFound = errors.New("resource data not found")

	// ErrAlreadyApplied is returned when Upload is called twice on one uploader.
	ErrAlreadyApplied = errors.New("upload decision already applied")

	// ErrNotDecided is returned when Upload runs before UpdateDataDict.
	ErrNotDecided = errors.New("upload decision has not been made")

	// ErrRangeNotSatisfiable is returned for a range start beyond the object.
	ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")

	// ErrNoURLMap is returned by operations that need the URL map when none
	// is configured.
	ErrNoURLMap = errors.New("url map is not configured")
)
