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
	for _, key := range []string{"CATALOG_API_URL", "CATALOG_REQUEST_TIMEOUT", "CATALOG_KEEP_UNUSED", "LOG_LEVEL", "LOG_FORMAT", "PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, 60*time.Second, cfg.Cache.KeepUnusedFor)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CATALOG_API_URL", "https://catalog.example.com/api/")
	t.Setenv("CATALOG_REQUEST_TIMEOUT", "5")
	t.Setenv("CATALOG_KEEP_UNUSED", "90s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://catalog.example.com/api/", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, 90*time.Second, cfg.Cache.KeepUnusedFor)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080"},
			API:    APIConfig{BaseURL: "http://localhost:8080/", RequestTimeout: time.Second},
			Log:    LogConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "relative url", mutate: func(c *Config) { c.API.BaseURL = "/Products" }, wantErr: true},
		{name: "empty url", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.API.RequestTimeout = 0 }, wantErr: true},
		{name: "negative keep unused", mutate: func(c *Config) { c.Cache.KeepUnusedFor = -time.Second }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
	})

	t.Run("does not override existing variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("CATALOG_TEST_A=from-file\nCATALOG_TEST_B=from-file\n"), 0o600))

		t.Setenv("CATALOG_TEST_A", "from-env")
		t.Setenv("CATALOG_TEST_B", "")
		require.NoError(t, os.Unsetenv("CATALOG_TEST_B"))
		t.Cleanup(func() { _ = os.Unsetenv("CATALOG_TEST_B") })

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "from-env", os.Getenv("CATALOG_TEST_A"))
		assert.Equal(t, "from-file", os.Getenv("CATALOG_TEST_B"))
	})
}
