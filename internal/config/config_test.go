package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("WORD_LENGTH", "5")
	t.Setenv("NUM_TRIES", "4")
	t.Setenv("STORE", "redis")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5, cfg.WordLength)
	assert.Equal(t, 4, cfg.NumTries)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
word-length: 7
num-tries: 8
word-mode: daily
redis:
  prefix: "test:"
`), 0o600))
	t.Setenv("NUM_TRIES", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.WordLength)
	assert.Equal(t, 3, cfg.NumTries, "environment wins over the file")
	assert.Equal(t, ModeDaily, cfg.WordMode)
	assert.Equal(t, "test:", cfg.Redis.Prefix)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero length", "WORD_LENGTH", "0"},
		{"zero tries", "NUM_TRIES", "0"},
		{"unknown mode", "WORD_MODE", "weekly"},
		{"unknown store", "STORE", "etcd"},
		{"not a number", "WORD_LENGTH", "six"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestConfig_DeriveKey(t *testing.T) {
	a := &Config{Secret: "s3cret"}
	b := &Config{Secret: "other"}

	k1, err := a.DeriveKey("session")
	require.NoError(t, err)
	k2, err := a.DeriveKey("session")
	require.NoError(t, err)
	k3, err := a.DeriveKey("daily")
	require.NoError(t, err)
	k4, err := b.DeriveKey("session")
	require.NoError(t, err)

	assert.Len(t, k1, 32)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
}

func TestConfig_InsecureSecret(t *testing.T) {
	assert.True(t, (&Config{Secret: devSecret}).InsecureSecret())
	assert.False(t, (&Config{Secret: "prod"}).InsecureSecret())
}

func TestUsage(t *testing.T) {
	var buf bytes.Buffer
	Usage(&buf)
	assert.Contains(t, buf.String(), "WORD_LENGTH")
	assert.Contains(t, buf.String(), "REDIS_ADDR")
}
