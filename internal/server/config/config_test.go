package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CAPSYNC_JWT_SECRET", "secret")
	t.Setenv("CAPSYNC_DATABASE_DSN", "postgres://localhost/capsync")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 12*time.Hour, cfg.TokenValidity)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionURIValidity)
	assert.Equal(t, "us-east-1", cfg.S3Region)
}

func TestLoad_YAMLFile(t *testing.T) {
	t.Setenv("CAPSYNC_JWT_SECRET", "secret")

	path := filepath.Join(t.TempDir(), "sessiond.yaml")
	body := `
listen_addr: ":9999"
database_dsn: "postgres://db/capsync"
token_validity: "1h"
session_uri_validity: "48h"
s3_bucket: "recordings"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "postgres://db/capsync", cfg.DatabaseDSN)
	assert.Equal(t, time.Hour, cfg.TokenValidity)
	assert.Equal(t, 48*time.Hour, cfg.SessionURIValidity)
	assert.Equal(t, "recordings", cfg.S3Bucket)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessiond.yaml")
	body := `
listen_addr: ":9999"
database_dsn: "postgres://db/capsync"
jwt_secret: "from-file"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("CAPSYNC_LISTEN_ADDR", ":7777")
	t.Setenv("CAPSYNC_JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.ListenAddr)
	assert.Equal(t, "from-env", cfg.JWTSecret)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("CAPSYNC_JWT_SECRET", "secret")
	t.Setenv("CAPSYNC_DATABASE_DSN", "dsn")

	path := filepath.Join(t.TempDir(), "sessiond.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`token_validity: "soon"`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("CAPSYNC_DATABASE_DSN", "dsn")
	t.Setenv("CAPSYNC_JWT_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
}
