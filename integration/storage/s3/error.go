package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/querylab/diskstore/core/storage"
)

// retryableCodes are the transient provider classes: throttling, internal
// provider errors, service-unavailable, timeouts, slow-down, connection
// resets. Everything else is treated as caller-caused and surfaced as-is.
var retryableCodes = map[string]struct{}{
	"InternalError":           {},
	"InternalFailure":         {},
	"ServiceUnavailable":      {},
	"SlowDown":                {},
	"Throttling":              {},
	"ThrottlingException":     {},
	"RequestThrottled":        {},
	"RequestTimeout":          {},
	"RequestTimeoutException": {},
	"ConnectionReset":         {},
}

// notFoundCodes are exactly the "no such key/bucket/object" classes. Access
// denial is deliberately absent: an object the caller cannot see must not be
// reported as missing.
var notFoundCodes = map[string]struct{}{
	"NoSuchKey":     {},
	"NoSuchBucket":  {},
	"NoSuchVersion": {},
	"NotFound":      {},
}

// IsRetryableError reports whether a provider error code names a transient
// condition worth retrying. Unknown codes classify as non-retryable.
func IsRetryableError(code string) bool {
	_, ok := retryableCodes[code]
	return ok
}

// IsNotFoundError reports whether a provider error code means the addressed
// object or bucket doesn't exist. Unknown codes classify as found-but-failed.
func IsNotFoundError(code string) bool {
	_, ok := notFoundCodes[code]
	return ok
}

// S3Error is a provider-originated failure. It preserves the provider's
// error code and message so callers can apply their own retry policy, and
// matches the shared storage sentinels through errors.Is.
type S3Error struct {
	// Code is the provider error code, empty when the provider returned no
	// parseable diagnostic.
	Code    string
	Message string
	// Op names the operation that failed, for log context.
	Op string
	// Err is the underlying transport or SDK error.
	Err error
}

func (e *S3Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("s3: %s failed (code: %s): %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("s3: %s failed: %s", e.Op, e.Message)
}

func (e *S3Error) Unwrap() error { return e.Err }

// IsRetryable reports whether this failure is transient, deferring to the
// code classifier.
func (e *S3Error) IsRetryable() bool { return IsRetryableError(e.Code) }

// Is maps the provider code onto the shared storage sentinels so callers can
// match with errors.Is without depending on provider code strings.
func (e *S3Error) Is(target error) bool {
	switch target {
	case storage.ErrObjectNotFound:
		return e.Code == "NoSuchKey" || e.Code == "NoSuchVersion" || e.Code == "NotFound"
	case storage.ErrBucketNotFound:
		return e.Code == "NoSuchBucket"
	case storage.ErrAccessDenied:
		return e.Code == "AccessDenied"
	case storage.ErrServiceUnavailable:
		return IsRetryableError(e.Code)
	case storage.ErrOperationTimeout:
		return errors.Is(e.Err, context.DeadlineExceeded)
	case storage.ErrOperationCanceled:
		return errors.Is(e.Err, context.Canceled)
	}
	return false
}

// classifyError converts an SDK error into an *S3Error with the provider
// code and message preserved. It never swallows detail into a generic
// failure: whatever diagnostic the provider produced survives verbatim.
func classifyError(err error, op string) *S3Error {
	if err == nil {
		return nil
	}

	var s3err *S3Error
	if errors.As(err, &s3err) {
		return s3err
	}

	e := &S3Error{Op: op, Err: err, Message: err.Error()}

	// Context errors first. The SDK wraps them in its own types, so match
	// before inspecting API codes.
	if errors.Is(err, context.DeadlineExceeded) {
		e.Code = "RequestTimeout"
		return e
	}
	if errors.Is(err, context.Canceled) {
		e.Code = "RequestCanceled"
		return e
	}

	// Modeled not-found types carry no usable message for HEAD responses, so
	// normalize them to a bare code.
	var nsk *types.NoSuchKey
	var nsb *types.NoSuchBucket
	var nf *types.NotFound
	switch {
	case errors.As(err, &nsk):
		e.Code = "NoSuchKey"
	case errors.As(err, &nsb):
		e.Code = "NoSuchBucket"
	case errors.As(err, &nf):
		e.Code = "NotFound"
	default:
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			e.Code = apiErr.ErrorCode()
			if msg := apiErr.ErrorMessage(); msg != "" {
				e.Message = msg
			}
		}
	}
	return e
}
