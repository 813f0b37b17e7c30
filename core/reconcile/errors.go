package reconcile

import "errors"

var (
	// ErrInvalidConfig indicates a configuration that cannot drive a run.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrFolderNotFound indicates that a source folder does not exist.
	ErrFolderNotFound = errors.New("folder not found")

	// ErrDuplicateKey indicates a repeated match key in folder B under the
	// reject dedupe policy.
	ErrDuplicateKey = errors.New("duplicate match key")
)
