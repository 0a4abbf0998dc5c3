package s3

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// bucketRegionHeader is attached by the provider to responses for misrouted
// requests and names the region the bucket actually lives in.
const bucketRegionHeader = "x-amz-bucket-region"

// ObjectAPI is the subset of client operations the query functions need.
// *s3.Client satisfies it; tests substitute fakes. Narrowing the SDK
// surface keeps every operation mockable.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
}

// ObjectInfo is the result of a metadata query. Produced fresh per call,
// never cached by this layer.
type ObjectInfo struct {
	// Size of the object in bytes.
	Size int64
	// LastModified is the object's last modification time, zero when the
	// provider didn't report one.
	LastModified time.Time
}

// headObjectInput builds the existence probe. An empty versionID means
// "latest" and the parameter is omitted entirely; providers reject an
// explicit empty versionId.
func headObjectInput(bucket, key, versionID string) *awss3.HeadObjectInput {
	in := &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if versionID != "" {
		in.VersionId = aws.String(versionID)
	}
	return in
}

// isRegionMismatchError reports whether a failed probe looks like a request
// routed to the wrong region. HEAD responses carry no diagnostic body, so the
// SDK cannot parse a code out of them (the probe's defining quirk); a missing
// code on an HTTP-level failure, or one of the explicit redirect codes, is
// the trigger for region discovery.
func isRegionMismatchError(e *S3Error) bool {
	if e == nil {
		return false
	}
	switch e.Code {
	case "PermanentRedirect", "MovedPermanently", "AuthorizationHeaderMalformed", "IllegalLocationConstraintException":
		return true
	case "":
		var re *awshttp.ResponseError
		return errors.As(e.Err, &re)
	}
	return false
}

// discoverRegion resolves the bucket's actual region after an opaque probe
// failure. The failed response's region header is consulted first; when the
// provider omitted it, one HeadBucket side-channel request is issued. A
// discovery failure is permanent: the caller gets the original probe error
// back rather than an unbounded retry loop.
func discoverRegion(ctx context.Context, client ObjectAPI, bucket string, probeErr error) string {
	var re *awshttp.ResponseError
	if errors.As(probeErr, &re) && re.Response != nil {
		if region := re.Response.Header.Get(bucketRegionHeader); region != "" {
			return region
		}
	}
	region, err := manager.GetBucketRegion(ctx, client, bucket)
	if err != nil {
		return ""
	}
	return region
}

// headObjectWithRegionRetry is the explicit two-step probe protocol:
// probe -> on a body-less failure: discover the region -> retry once against
// the corrected region. Exactly one corrected retry is attempted; keeping the
// bound here, in a single function, makes it auditable.
func headObjectWithRegionRetry(ctx context.Context, client ObjectAPI, bucket, key, versionID string) (*awss3.HeadObjectOutput, *S3Error) {
	in := headObjectInput(bucket, key, versionID)

	out, err := client.HeadObject(ctx, in)
	if err == nil {
		return out, nil
	}

	probeErr := classifyError(err, "HeadObject")
	if !isRegionMismatchError(probeErr) {
		return nil, probeErr
	}

	region := discoverRegion(ctx, client, bucket, err)
	if region == "" {
		return nil, probeErr
	}

	out, err = client.HeadObject(ctx, in, func(o *awss3.Options) { o.Region = region })
	if err != nil {
		return nil, classifyError(err, "HeadObject")
	}
	return out, nil
}

// CheckObjectExists issues the existence probe and reports the outcome as a
// pair: (true, nil) when the object exists, otherwise false plus the
// classified provider error, not-found included. Nothing is escalated here;
// the caller decides what absence means.
func CheckObjectExists(ctx context.Context, client ObjectAPI, bucket, key, versionID string, forDiskBackend bool) (bool, *S3Error) {
	if key == "" {
		// An empty key never matches an object.
		return false, &S3Error{Code: "NoSuchKey", Op: "HeadObject", Message: "empty key never matches an object"}
	}
	if _, err := headObjectWithRegionRetry(ctx, client, bucket, key, versionID); err != nil {
		return false, err
	}
	return true, nil
}

// ObjectExists reports whether the object exists. Absence is a false boolean,
// never an error; any failure that is not a not-found condition is returned
// for the caller's retry policy.
func ObjectExists(ctx context.Context, client ObjectAPI, bucket, key, versionID string, forDiskBackend bool) (bool, error) {
	exists, probeErr := CheckObjectExists(ctx, client, bucket, key, versionID, forDiskBackend)
	if exists {
		return true, nil
	}
	if probeErr != nil && IsNotFoundError(probeErr.Code) {
		return false, nil
	}
	if probeErr != nil {
		return false, probeErr
	}
	return false, nil
}

// GetObjectInfo returns the object's size and last modification time, using
// the probe protocol with its single region-corrected retry.
func GetObjectInfo(ctx context.Context, client ObjectAPI, bucket, key, versionID string, forDiskBackend bool) (ObjectInfo, error) {
	if key == "" {
		return ObjectInfo{}, &S3Error{Code: "NoSuchKey", Op: "HeadObject", Message: "empty key never matches an object"}
	}
	out, probeErr := headObjectWithRegionRetry(ctx, client, bucket, key, versionID)
	if probeErr != nil {
		return ObjectInfo{}, probeErr
	}
	return ObjectInfo{
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// GetObjectSize returns only the object's size in bytes.
func GetObjectSize(ctx context.Context, client ObjectAPI, bucket, key, versionID string, forDiskBackend bool) (int64, error) {
	info, err := GetObjectInfo(ctx, client, bucket, key, versionID, forDiskBackend)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// GetObjectMetadata returns the provider-defined metadata map of the object.
// Unlike the existence probe this is a full fetch with a response body, so
// failures always carry the provider's diagnostic and need no region dance.
func GetObjectMetadata(ctx context.Context, client ObjectAPI, bucket, key, versionID string, forDiskBackend bool) (map[string]string, error) {
	if key == "" {
		return nil, &S3Error{Code: "NoSuchKey", Op: "GetObject", Message: "empty key never matches an object"}
	}

	in := &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if versionID != "" {
		in.VersionId = aws.String(versionID)
	}

	out, err := client.GetObject(ctx, in)
	if err != nil {
		return nil, classifyError(err, "GetObject")
	}
	defer func() {
		if out.Body != nil {
			_ = out.Body.Close()
		}
	}()

	metadata := make(map[string]string, len(out.Metadata))
	for k, v := range out.Metadata {
		metadata[k] = v
	}
	return metadata, nil
}
