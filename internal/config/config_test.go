package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, ":4000", cfg.Server.Addr)
	assert.Equal(t, 32, cfg.Exports.QueueSize)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenleaf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
storage:
  driver: memory
auth:
  secret: from-file
  token_ttl: 1h
`), 0o600))
	t.Setenv("GREENLEAF_STORAGE_DRIVER", "postgres")
	t.Setenv("GREENLEAF_POSTGRES_DSN", "postgres://db/greenleaf")
	t.Setenv("GREENLEAF_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://db/greenleaf", cfg.Storage.PostgresDSN)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, time.Hour, cfg.TokenTTL())
}

func TestValidateRejectsUnknownDrivers(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "cassandra"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Blob.Driver = "s3"
	assert.Error(t, cfg.Validate(), "s3 without bucket")
	cfg.Blob.S3.Bucket = "leaves"
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrideBadBool(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnvOverrides(func(key string) (string, bool) {
		if key == "GREENLEAF_BLOB_S3_USE_PATH_STYLE" {
			return "sometimes", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "greenleaf.yaml")
	cfg := Default()
	cfg.Storage.Driver = "mongo"
	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mongo", loaded.Storage.Driver)
}
