package services

import "errors"

// Service-level failure categories. Handlers map these to HTTP statuses.
var (
	// ErrNotFound means the requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrForbidden means the principal is not allowed to perform the
	// operation on the product. Callers get no detail beyond the denial.
	ErrForbidden = errors.New("access to product denied")
	// ErrNoFields means an update supplied neither fields nor an image.
	ErrNoFields = errors.New("no fields provided for update")
	// ErrNoChanges means an update matched the stored record exactly.
	// Handlers report this as an informational success, not a failure.
	ErrNoChanges = errors.New("no changes applied")
	// ErrStorage wraps failures of the image storage backend, reported
	// distinctly from persistence failures.
	ErrStorage = errors.New("image storage failed")
)
