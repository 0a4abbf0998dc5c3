package s3

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/querylab/diskstore/core/config"
	"github.com/querylab/diskstore/core/hostfilter"
	"github.com/querylab/diskstore/core/storage"
)

// ClientConfig carries the transport-level settings for one client: region,
// redirect cap, per-direction throttlers and the host filter consulted
// before every outbound connection. Built by CreateClientConfiguration and
// passed to Create.
type ClientConfig struct {
	Region string
	// Endpoint overrides the provider's default endpoint, for S3-compatible
	// services and custom deployments.
	Endpoint     string
	MaxRedirects int
	// RequestLogging enables per-request debug logging for this client when
	// the factory-wide flag is also on.
	RequestLogging bool
	// ForDiskBackend marks clients that back a storage disk; such clients log
	// under a separate tag so engine-internal traffic is distinguishable.
	ForDiskBackend bool

	HostFilter   *hostfilter.Filter
	GetThrottler storage.Throttler
	PutThrottler storage.Throttler
}

// factoryEnv are the deployment-wide defaults, loaded once from the
// environment.
type factoryEnv struct {
	DefaultRegion  string `env:"DISKSTORE_S3_REGION" envDefault:"us-east-1"`
	MaxRedirects   int    `env:"DISKSTORE_S3_MAX_REDIRECTS" envDefault:"10"`
	RequestLogging bool   `env:"DISKSTORE_S3_REQUEST_LOGGING" envDefault:"false"`
}

// ClientFactory produces configured S3 clients. It is constructed explicitly
// and passed to call sites (no process-wide singleton): construct once, share
// freely. The only mutable state is the request-logging flag, which a
// configuration reload may flip concurrently, and the shared base transport
// built at construction and released by Close. Every Create call returns an
// independently owned client; the factory retains no reference to it.
type ClientFactory struct {
	baseTransport http.RoundTripper
	log           *slog.Logger

	defaultRegion       string
	defaultMaxRedirects int

	requestLogging atomic.Bool
}

// FactoryOption configures a ClientFactory.
type FactoryOption func(*ClientFactory)

// WithBaseTransport sets the HTTP transport shared by all created clients.
// Primarily used for testing; production deployments keep the default.
func WithBaseTransport(rt http.RoundTripper) FactoryOption {
	return func(f *ClientFactory) { f.baseTransport = rt }
}

// WithLogger sets the logger used for request logging.
func WithLogger(log *slog.Logger) FactoryOption {
	return func(f *ClientFactory) { f.log = log }
}

// NewClientFactory creates a factory with library defaults.
func NewClientFactory(opts ...FactoryOption) *ClientFactory {
	f := &ClientFactory{
		log:                 slog.Default(),
		defaultRegion:       "us-east-1",
		defaultMaxRedirects: 10,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.baseTransport == nil {
		if t, ok := http.DefaultTransport.(*http.Transport); ok {
			f.baseTransport = t.Clone()
		} else {
			f.baseTransport = http.DefaultTransport
		}
	}
	return f
}

// NewClientFactoryFromEnv creates a factory with defaults taken from the
// environment (DISKSTORE_S3_REGION, DISKSTORE_S3_MAX_REDIRECTS,
// DISKSTORE_S3_REQUEST_LOGGING).
func NewClientFactoryFromEnv(opts ...FactoryOption) (*ClientFactory, error) {
	var env factoryEnv
	if err := config.Load(&env); err != nil {
		return nil, err
	}
	f := NewClientFactory(opts...)
	f.defaultRegion = env.DefaultRegion
	f.defaultMaxRedirects = env.MaxRedirects
	f.requestLogging.Store(env.RequestLogging)
	return f, nil
}

// SetRequestLogging toggles per-request debug logging for every client this
// factory produced. Safe to call concurrently with in-flight requests; the
// change is eventually consistent across them.
func (f *ClientFactory) SetRequestLogging(enabled bool) {
	f.requestLogging.Store(enabled)
}

// RequestLoggingEnabled reports the current state of the logging flag.
func (f *ClientFactory) RequestLoggingEnabled() bool {
	return f.requestLogging.Load()
}

// Close releases the shared transport state. Creating a client after Close
// is undefined; callers must not attempt it.
func (f *ClientFactory) Close() {
	if t, ok := f.baseTransport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}

// CreateClientConfiguration builds the transport-level settings for one
// client. A zero region or redirect cap inherits the factory default; nil
// throttlers mean unlimited.
func (f *ClientFactory) CreateClientConfiguration(
	region string,
	filter *hostfilter.Filter,
	maxRedirects int,
	requestLogging bool,
	forDiskBackend bool,
	getThrottler storage.Throttler,
	putThrottler storage.Throttler,
) ClientConfig {
	if region == "" {
		region = f.defaultRegion
	}
	if maxRedirects <= 0 {
		maxRedirects = f.defaultMaxRedirects
	}
	if getThrottler == nil {
		getThrottler = storage.Unlimited()
	}
	if putThrottler == nil {
		putThrottler = storage.Unlimited()
	}
	return ClientConfig{
		Region:         region,
		MaxRedirects:   maxRedirects,
		RequestLogging: requestLogging,
		ForDiskBackend: forDiskBackend,
		HostFilter:     filter,
		GetThrottler:   getThrottler,
		PutThrottler:   putThrottler,
	}
}

// Create builds an S3 client from transport settings and auth settings.
// Explicit static credentials take priority when both key parts are
// non-empty; otherwise credentials are discovered from the environment and
// then instance metadata, honoring the insecure-IMDS tri-state. Safe for
// concurrent use.
func (f *ClientFactory) Create(ctx context.Context, cfg ClientConfig, isVirtualHostedStyle bool, auth AuthSettings) (*awss3.Client, error) {
	headers, err := clientHeaders(auth)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if auth.Region != "" {
		region = auth.Region
	}

	httpClient := &http.Client{
		Transport: &transport{
			base:           f.baseTransport,
			cfg:            cfg,
			headers:        headers,
			loggingEnabled: &f.requestLogging,
			log:            f.log,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithCredentialsProvider(credentialsProvider(auth)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = !isVirtualHostedStyle
	}), nil
}

// clientHeaders combines the operator's custom headers with the SSE-C
// headers derived from the customer key, preserving order.
func clientHeaders(auth AuthSettings) ([]HeaderEntry, error) {
	headers := append([]HeaderEntry(nil), auth.Headers...)
	if auth.SSECustomerKeyBase64 == "" {
		return headers, nil
	}

	rawKey, err := base64.StdEncoding.DecodeString(auth.SSECustomerKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: server-side encryption customer key is not valid base64: %v", storage.ErrInvalidConfig, err)
	}
	keyMD5 := md5.Sum(rawKey)
	headers = append(headers,
		HeaderEntry{Name: "x-amz-server-side-encryption-customer-algorithm", Value: "AES256"},
		HeaderEntry{Name: "x-amz-server-side-encryption-customer-key", Value: auth.SSECustomerKeyBase64},
		HeaderEntry{Name: "x-amz-server-side-encryption-customer-key-MD5", Value: base64.StdEncoding.EncodeToString(keyMD5[:])},
	)
	return headers, nil
}

// credentialsProvider selects the credential source per the settings:
// static keys win, an explicit opt-out of environment discovery falls back
// to anonymous access, and otherwise the environment is tried before
// instance metadata. The aws-sdk-go-v2 config resolver cannot express the
// insecure-IMDS toggle, so the environment-then-IMDS chain is assembled
// here from the SDK's building blocks.
func credentialsProvider(auth AuthSettings) aws.CredentialsProvider {
	if auth.AccessKeyID != "" && auth.SecretAccessKey != "" {
		return credentials.NewStaticCredentialsProvider(auth.AccessKeyID, auth.SecretAccessKey, "")
	}

	if auth.UseEnvironmentCredentials != nil && !*auth.UseEnvironmentCredentials {
		return aws.AnonymousCredentials{}
	}

	imdsOpts := imds.Options{}
	if auth.UseInsecureIMDSRequest != nil && *auth.UseInsecureIMDSRequest {
		// Unauthenticated metadata requests; only acceptable in trusted
		// network environments.
		imdsOpts.EnableFallback = aws.TrueTernary
	}
	chain := chainProvider{
		envCredentialsProvider{},
		ec2rolecreds.New(func(o *ec2rolecreds.Options) {
			o.Client = imds.New(imdsOpts)
		}),
	}
	return aws.NewCredentialsCache(chain)
}

// envCredentialsProvider reads static credentials from the conventional
// environment variables.
type envCredentialsProvider struct{}

func (envCredentialsProvider) Retrieve(context.Context) (aws.Credentials, error) {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, errors.New("environment credentials not set")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}, nil
}

// chainProvider tries each provider in order and returns the first success.
type chainProvider []aws.CredentialsProvider

func (c chainProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	var errs []error
	for _, p := range c {
		creds, err := p.Retrieve(ctx)
		if err == nil {
			return creds, nil
		}
		errs = append(errs, err)
	}
	return aws.Credentials{}, fmt.Errorf("no credentials source succeeded: %w", errors.Join(errs...))
}
