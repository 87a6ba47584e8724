package sitepath

import "errors"

var (
	// ErrPathEscapesRoot is returned when a relative path resolves outside the
	// source root. It must surface before any rewrite or write is attempted.
	ErrPathEscapesRoot = errors.New("path escapes source root")

	// ErrAbsolutePath is returned when an absolute path is given where a
	// source-relative path is required.
	ErrAbsolutePath = errors.New("path must be relative to source root")
)
