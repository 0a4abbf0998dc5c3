package s3_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylab/diskstore/core/storage"
	"github.com/querylab/diskstore/integration/storage/s3"
)

type captureTransport struct {
	req  *http.Request
	resp *http.Response
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.req = req
	return c.resp, nil
}

func headObjectResponse(size, lastModified string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header: http.Header{
			"Content-Length": {size},
			"Last-Modified":  {lastModified},
			"Etag":           {`"d41d8cd98f00b204e9800998ecf8427e"`},
		},
		Body: http.NoBody,
	}
}

func TestCreateClientConfiguration(t *testing.T) {
	factory := s3.NewClientFactory()
	defer factory.Close()

	t.Run("zero values inherit factory defaults", func(t *testing.T) {
		cfg := factory.CreateClientConfiguration("", nil, 0, false, false, nil, nil)

		assert.Equal(t, "us-east-1", cfg.Region)
		assert.Equal(t, 10, cfg.MaxRedirects)
		require.NotNil(t, cfg.GetThrottler)
		require.NotNil(t, cfg.PutThrottler)
		assert.NoError(t, cfg.GetThrottler.Wait(context.Background()))
	})

	t.Run("explicit values are preserved", func(t *testing.T) {
		waited := false
		throttler := storage.ThrottlerFunc(func(context.Context) error {
			waited = true
			return nil
		})
		cfg := factory.CreateClientConfiguration("eu-central-1", nil, 3, true, true, throttler, nil)

		assert.Equal(t, "eu-central-1", cfg.Region)
		assert.Equal(t, 3, cfg.MaxRedirects)
		assert.True(t, cfg.RequestLogging)
		assert.True(t, cfg.ForDiskBackend)
		require.NoError(t, cfg.GetThrottler.Wait(context.Background()))
		assert.True(t, waited)
	})
}

func TestNewClientFactoryFromEnv(t *testing.T) {
	t.Setenv("DISKSTORE_S3_REGION", "ap-southeast-2")
	t.Setenv("DISKSTORE_S3_MAX_REDIRECTS", "4")
	t.Setenv("DISKSTORE_S3_REQUEST_LOGGING", "true")

	factory, err := s3.NewClientFactoryFromEnv()
	require.NoError(t, err)
	defer factory.Close()

	assert.True(t, factory.RequestLoggingEnabled())
	cfg := factory.CreateClientConfiguration("", nil, 0, false, false, nil, nil)
	assert.Equal(t, "ap-southeast-2", cfg.Region)
	assert.Equal(t, 4, cfg.MaxRedirects)
}

func TestSetRequestLogging(t *testing.T) {
	factory := s3.NewClientFactory()
	defer factory.Close()

	assert.False(t, factory.RequestLoggingEnabled())
	factory.SetRequestLogging(true)
	assert.True(t, factory.RequestLoggingEnabled())
	factory.SetRequestLogging(false)
	assert.False(t, factory.RequestLoggingEnabled())
}

func TestCreate_InvalidEncryptionKey(t *testing.T) {
	factory := s3.NewClientFactory()
	defer factory.Close()

	cfg := factory.CreateClientConfiguration("us-east-1", nil, 0, false, false, nil, nil)
	_, err := factory.Create(context.Background(), cfg, false, s3.AuthSettings{
		AccessKeyID:          "key",
		SecretAccessKey:      "secret",
		SSECustomerKeyBase64: "%%% not base64 %%%",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrInvalidConfig)
}

func TestCreate_RequestFlow(t *testing.T) {
	base := &captureTransport{resp: headObjectResponse("1024", "Wed, 21 Oct 2015 07:28:00 GMT")}
	factory := s3.NewClientFactory(s3.WithBaseTransport(base))
	defer factory.Close()

	cfg := factory.CreateClientConfiguration("us-east-1", nil, 0, false, false, nil, nil)
	cfg.Endpoint = "http://minio.internal:9000"

	client, err := factory.Create(context.Background(), cfg, false, s3.AuthSettings{
		AccessKeyID:          "key",
		SecretAccessKey:      "secret",
		Headers:              []s3.HeaderEntry{{Name: "X-Tenant", Value: "etl"}},
		SSECustomerKeyBase64: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
	})
	require.NoError(t, err)

	out, err := client.HeadObject(context.Background(), &awss3.HeadObjectInput{
		Bucket: aws.String("bucket1"),
		Key:    aws.String("data/part-0001.bin"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1024), aws.ToInt64(out.ContentLength))

	require.NotNil(t, base.req)
	assert.Equal(t, "minio.internal:9000", base.req.URL.Host)
	assert.Equal(t, "/bucket1/data/part-0001.bin", base.req.URL.Path)
	assert.Equal(t, "etl", base.req.Header.Get("X-Tenant"))
	assert.Equal(t, "AES256", base.req.Header.Get("x-amz-server-side-encryption-customer-algorithm"))
	assert.NotEmpty(t, base.req.Header.Get("x-amz-server-side-encryption-customer-key-MD5"))
}

func TestCreate_VirtualHostedStyle(t *testing.T) {
	base := &captureTransport{resp: headObjectResponse("1", "Wed, 21 Oct 2015 07:28:00 GMT")}
	factory := s3.NewClientFactory(s3.WithBaseTransport(base))
	defer factory.Close()

	cfg := factory.CreateClientConfiguration("us-east-1", nil, 0, false, false, nil, nil)

	client, err := factory.Create(context.Background(), cfg, true, s3.AuthSettings{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	_, err = client.HeadObject(context.Background(), &awss3.HeadObjectInput{
		Bucket: aws.String("bucket1"),
		Key:    aws.String("k"),
	})
	require.NoError(t, err)

	require.NotNil(t, base.req)
	assert.Equal(t, "bucket1.s3.us-east-1.amazonaws.com", base.req.URL.Host)
	assert.Equal(t, "/k", base.req.URL.Path)
}
