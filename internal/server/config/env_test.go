package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("overlays set variables", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("API_PORT", "4000")
		t.Setenv("JWT_ACCESS_EXPIRATION", "30m")
		t.Setenv("JWT_REFRESH_EXPIRATION", "14d")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
		t.Setenv("R2_ACCOUNT_ID", "acc")
		t.Setenv("MAX_AUDIO_SIZE_MB", "20")

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseEnv(cfg))

		assert.Equal(t, 4000, cfg.Port)
		assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 14*24*time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
		assert.Equal(t, "acc", cfg.R2AccountID)
		assert.Equal(t, 20, cfg.MaxAudioSizeMB)
		assert.Equal(t, 50, cfg.MaxFileSizeMB)
	})

	t.Run("reads env file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte("R2_BUCKET_NAME=from-file\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("R2_BUCKET_NAME") })
		os.Args = []string{"testbin", "-env-file", path}

		cfg := &Config{}
		require.NoError(t, parseEnv(cfg))
		assert.Equal(t, "from-file", cfg.R2Bucket)
	})

	t.Run("process env wins over env file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte("R2_REGION=from-file\n"), 0o600))
		t.Setenv("R2_REGION", "from-env")
		os.Args = []string{"testbin", "-env-file", path}

		cfg := &Config{}
		require.NoError(t, parseEnv(cfg))
		assert.Equal(t, "from-env", cfg.R2Region)
	})

	t.Run("missing explicit env file", func(t *testing.T) {
		os.Args = []string{"testbin", "-env-file", filepath.Join(t.TempDir(), "nope.env")}
		assert.Error(t, parseEnv(&Config{}))
	})

	t.Run("bad duration", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("RATE_LIMIT_WINDOW", "soon")
		assert.Error(t, parseEnv(&Config{}))
	})
}

func Test_splitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , "))
	assert.Equal(t, []string{"a", "b"}, splitList("a,,b "))
}
