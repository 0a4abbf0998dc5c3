package storage

import "errors"

// Error variables define failure classes shared by all object-storage
// backends. Backends wrap these with provider detail so callers can match
// with errors.Is without losing the original diagnostic.
var (
	// ErrInvalidConfig indicates malformed or contradictory backend settings,
	// surfaced at load time rather than on first request.
	ErrInvalidConfig = errors.New("invalid storage configuration")

	// ErrForbiddenHost indicates the host filter rejected an outbound
	// connection. Never retried.
	ErrForbiddenHost = errors.New("connection to host is not allowed")

	// ErrObjectNotFound indicates the requested key doesn't exist in the bucket.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound indicates the bucket itself doesn't exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAccessDenied indicates the provider rejected the credentials for this
	// operation. Distinct from absence: an object the caller cannot see is not
	// reported as missing.
	ErrAccessDenied = errors.New("access denied")

	// ErrServiceUnavailable indicates a transient provider condition
	// (throttling, internal error, slow-down). Safe to retry with backoff.
	ErrServiceUnavailable = errors.New("storage service unavailable")

	// ErrOperationTimeout indicates the operation exceeded its transport
	// deadline. Surfaces as retryable to the caller's policy.
	ErrOperationTimeout = errors.New("storage operation timeout")

	// ErrOperationCanceled indicates the caller's context was canceled.
	ErrOperationCanceled = errors.New("storage operation canceled")
)
