package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("app:\n  name: demo\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.App.BaseURL)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "demo", cfg.Auth.Issuer)
	assert.Equal(t, 24, cfg.Auth.ExpirationHours)
	assert.Equal(t, time.Hour, cfg.CacheTTL())
	assert.Equal(t, "info", cfg.Log.Level)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestParse_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("GITHUB_CLIENT_ID", "gh-id")

	cfg, err := Parse([]byte("auth:\n  secret: from-file\noauth2:\n  github:\n    client_id: file-id\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, "gh-id", cfg.OAuth2.GitHub.ClientID)
}

func TestParse_Timezone(t *testing.T) {
	cfg, err := Parse([]byte("app:\n  timezone: UTC\n  base_url: https://s.example/\n"))
	require.NoError(t, err)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
	assert.Equal(t, "https://s.example", cfg.App.BaseURL)

	_, err = Parse([]byte("app:\n  timezone: Mars/Olympus\n"))
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\ndatabase:\n  driver: sqlite\n  path: ./data/app.db\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "./data/app.db", cfg.Database.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
