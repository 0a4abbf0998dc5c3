package s3

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsProvider(t *testing.T) {
	boolPtr := func(v bool) *bool { return &v }

	t.Run("static keys win over environment", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "env-key")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")

		provider := credentialsProvider(AuthSettings{
			AccessKeyID:     "static-key",
			SecretAccessKey: "static-secret",
		})

		creds, err := provider.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "static-key", creds.AccessKeyID)
		assert.Equal(t, "static-secret", creds.SecretAccessKey)
	})

	t.Run("partial static keys do not count as static", func(t *testing.T) {
		provider := credentialsProvider(AuthSettings{
			AccessKeyID:               "static-key",
			UseEnvironmentCredentials: boolPtr(false),
		})
		assert.IsType(t, aws.AnonymousCredentials{}, provider)
	})

	t.Run("environment opt-out yields anonymous access", func(t *testing.T) {
		provider := credentialsProvider(AuthSettings{
			UseEnvironmentCredentials: boolPtr(false),
		})
		assert.IsType(t, aws.AnonymousCredentials{}, provider)
	})

	t.Run("environment credentials are discovered", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "env-key")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")
		t.Setenv("AWS_SESSION_TOKEN", "env-token")

		provider := credentialsProvider(AuthSettings{})

		creds, err := provider.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "env-key", creds.AccessKeyID)
		assert.Equal(t, "env-token", creds.SessionToken)
		assert.Equal(t, "Environment", creds.Source)
	})

	t.Run("environment opt-in still allows static keys", func(t *testing.T) {
		provider := credentialsProvider(AuthSettings{
			AccessKeyID:               "static-key",
			SecretAccessKey:           "static-secret",
			UseEnvironmentCredentials: boolPtr(true),
		})

		creds, err := provider.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "static-key", creds.AccessKeyID)
	})
}

func TestEnvCredentialsProvider_Missing(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	_, err := envCredentialsProvider{}.Retrieve(context.Background())
	assert.Error(t, err)
}
