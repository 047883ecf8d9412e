package cache

import "fmt"

// StorageError reports a failure reading, writing or decoding a cache record.
// The cache has no retry or fallback policy, so these errors always reach the
// caller.
type StorageError struct {
	// Op is the operation that failed ("load", "save", "mkdir", "decode", ...).
	Op string

	// Path identifies the record location (file path or database key).
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}
