package s3

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Parse errors carry the offending URI text so operators can find the broken
// disk definition without digging through configs.
var (
	// ErrInvalidURI indicates the storage location string is malformed or uses
	// an unsupported scheme.
	ErrInvalidURI = errors.New("invalid object storage URI")

	// ErrInvalidBucketName indicates the bucket segment violates the
	// provider's bucket naming rules.
	ErrInvalidBucketName = errors.New("invalid bucket name")
)

// Host shapes that encode the bucket as a subdomain of a recognized object
// storage service, e.g. "bucket.s3.us-west-2.amazonaws.com" or
// "bucket.oss-cn-hangzhou.aliyuncs.com".
var virtualHostedPattern = regexp.MustCompile(`^(.+)\.(s3|cos|obs|oss)([.-][a-z0-9.:-]+)$`)

// storageNames maps a scheme or host service label to the logical backend
// identifier reported to the engine.
var storageNames = map[string]string{
	"s3":   "S3",
	"s3a":  "S3",
	"cos":  "COSN",
	"cosn": "COSN",
	"obs":  "OBS",
	"oss":  "OSS",
}

// URI is the parsed form of a storage location. It is a value: built once by
// ParseURI and never mutated afterwards.
//
// Two families of locations are recognized:
//
//	s3://bucket/key                        (also s3a, cos/cosn, obs, oss)
//	http(s)://endpoint/bucket/key          (path style)
//	http(s)://bucket.s3.region.host/key    (virtual-hosted style)
type URI struct {
	// Endpoint is the scheme+host of a custom endpoint, empty for short-form
	// URIs that rely on the provider's default endpoint.
	Endpoint string
	Bucket   string
	// Key is the object path within the bucket, percent-decoded. May contain
	// "/" and may be empty (a bucket-level reference).
	Key string
	// VersionID addresses a specific object version; empty means latest.
	VersionID string
	// StorageName is the logical backend identifier (S3, COSN, OBS, OSS).
	StorageName string
	// IsVirtualHostedStyle reports whether the bucket is encoded in the host
	// rather than the path.
	IsVirtualHostedStyle bool
}

// ParseURI parses a storage location string. Parsing is deterministic and
// performs no network access; identical input always yields an identical URI.
func ParseURI(raw string) (URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URI{}, fmt.Errorf("%w: %q: %v", ErrInvalidURI, raw, err)
	}

	out := URI{VersionID: u.Query().Get("versionId")}

	scheme := strings.ToLower(u.Scheme)
	if name, ok := storageNames[scheme]; ok {
		// Short form: the authority is the bucket itself.
		out.StorageName = name
		out.Bucket = u.Host
		out.Key = strings.TrimPrefix(u.Path, "/")
		out.IsVirtualHostedStyle = true
		if err := validateBucket(out.Bucket, raw); err != nil {
			return URI{}, err
		}
		return out, nil
	}

	if scheme != "http" && scheme != "https" {
		return URI{}, fmt.Errorf("%w: %q: unsupported scheme %q", ErrInvalidURI, raw, u.Scheme)
	}
	if u.Host == "" {
		return URI{}, fmt.Errorf("%w: %q: missing host", ErrInvalidURI, raw)
	}

	if m := virtualHostedPattern.FindStringSubmatch(u.Host); m != nil {
		out.StorageName = storageNames[m[2]]
		out.Bucket = m[1]
		out.Endpoint = scheme + "://" + m[2] + m[3]
		out.Key = strings.TrimPrefix(u.Path, "/")
		out.IsVirtualHostedStyle = true
		if err := validateBucket(out.Bucket, raw); err != nil {
			return URI{}, err
		}
		return out, nil
	}

	// Path style: first segment is the bucket, the rest is the key.
	out.StorageName = "S3"
	out.Endpoint = scheme + "://" + u.Host
	bucket, key, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	out.Bucket = bucket
	out.Key = key

	if bucket == "" {
		if key != "" {
			return URI{}, fmt.Errorf("%w: %q: empty bucket segment", ErrInvalidURI, raw)
		}
		// Bucket-less reference to a custom endpoint is legal.
		return out, nil
	}
	if err := validateBucket(bucket, raw); err != nil {
		return URI{}, err
	}
	return out, nil
}

// validateBucket enforces provider bucket naming rules: 3-63 characters,
// lowercase letters, digits, dots and hyphens, starting and ending with a
// letter or digit. The original URI text is included so the failure points at
// the exact misconfigured location.
func validateBucket(bucket, raw string) error {
	if len(bucket) < 3 || len(bucket) > 63 {
		return fmt.Errorf("%w: %q in %q: bucket must be between 3 and 63 characters", ErrInvalidBucketName, bucket, raw)
	}
	for _, c := range bucket {
		if !isBucketChar(c) {
			return fmt.Errorf("%w: %q in %q: illegal character %q", ErrInvalidBucketName, bucket, raw, c)
		}
	}
	if !isAlnum(rune(bucket[0])) || !isAlnum(rune(bucket[len(bucket)-1])) {
		return fmt.Errorf("%w: %q in %q: bucket must start and end with a letter or digit", ErrInvalidBucketName, bucket, raw)
	}
	return nil
}

func isBucketChar(c rune) bool { return isAlnum(c) || c == '.' || c == '-' }

func isAlnum(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
