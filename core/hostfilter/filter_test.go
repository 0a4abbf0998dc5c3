package hostfilter_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylab/diskstore/core/hostfilter"
	"github.com/querylab/diskstore/core/storage"
)

func TestFilter_IsAllowed(t *testing.T) {
	t.Run("nil filter allows everything", func(t *testing.T) {
		var f *hostfilter.Filter
		assert.True(t, f.IsAllowed("anything.example.com"))
		assert.NoError(t, f.Check("anything.example.com"))
	})

	t.Run("empty filter allows everything", func(t *testing.T) {
		f, err := hostfilter.New(nil, nil)
		require.NoError(t, err)
		assert.True(t, f.IsAllowed("bucket.s3.amazonaws.com"))
	})

	t.Run("exact host match", func(t *testing.T) {
		f, err := hostfilter.New([]string{"storage.internal:9000"}, nil)
		require.NoError(t, err)

		assert.True(t, f.IsAllowed("storage.internal:9000"))
		assert.False(t, f.IsAllowed("storage.internal:9001"))
		assert.False(t, f.IsAllowed("other.internal:9000"))
	})

	t.Run("pattern match", func(t *testing.T) {
		f, err := hostfilter.New(nil, []string{`^[a-z0-9.-]+\.s3\.amazonaws\.com$`})
		require.NoError(t, err)

		assert.True(t, f.IsAllowed("bucket1.s3.amazonaws.com"))
		assert.False(t, f.IsAllowed("bucket1.s3.evil.com"))
	})

	t.Run("rejection carries forbidden-host classification", func(t *testing.T) {
		f, err := hostfilter.New([]string{"allowed.host"}, nil)
		require.NoError(t, err)

		err = f.Check("denied.host")
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrForbiddenHost)
		assert.Contains(t, err.Error(), "denied.host")
	})
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := hostfilter.New(nil, []string{"(unclosed"})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrInvalidConfig)
}

func TestLoadFilter(t *testing.T) {
	t.Run("missing section allows everything", func(t *testing.T) {
		f, err := hostfilter.LoadFilter(viper.New(), "remote_host_filter")
		require.NoError(t, err)
		assert.True(t, f.IsAllowed("any.host"))
	})

	t.Run("reads hosts and patterns", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("remote_host_filter.hosts", []string{"minio.local:9000"})
		cfg.Set("remote_host_filter.host_regexp", []string{`\.amazonaws\.com$`})

		f, err := hostfilter.LoadFilter(cfg, "remote_host_filter")
		require.NoError(t, err)

		assert.True(t, f.IsAllowed("minio.local:9000"))
		assert.True(t, f.IsAllowed("b.s3.us-west-2.amazonaws.com"))
		assert.False(t, f.IsAllowed("elsewhere.io"))
	})
}
