package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"RETHINKDB_HOST", "RETHINKDB_PORT", "RETHINKDB_DATABASE",
	"RETHINKDB_USERNAME", "RETHINKDB_PASSWORD", "RETHINKDB_TIMEOUT",
	"RETHINKDB_READY_TIMEOUT", "RETHINKDB_ID_KEY",
}

// clearEnv unsets every RETHINKDB_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(afero.NewMemMapFs())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "localhost:28015", cfg.Address())
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("RETHINKDB_HOST", "db.internal")
	t.Setenv("RETHINKDB_PORT", "29015")
	t.Setenv("RETHINKDB_DATABASE", "blog")
	t.Setenv("RETHINKDB_READY_TIMEOUT", "30s")
	t.Setenv("RETHINKDB_ID_KEY", "_key")

	cfg, err := Load(afero.NewMemMapFs())
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 29015, cfg.Port)
	assert.Equal(t, "blog", cfg.Database)
	assert.Equal(t, 30*time.Second, cfg.ReadyTimeout)
	assert.Equal(t, "_key", cfg.IDKey)
	assert.Equal(t, "admin", cfg.Username)
}

func TestLoad_DotenvPrecedence(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	writeFile(t, fs, ".env", "RETHINKDB_HOST=from-env-file\nRETHINKDB_DATABASE=envdb\nOTHER=ignored\n")
	writeFile(t, fs, ".env.local", "RETHINKDB_HOST=from-local\n")

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "from-local", cfg.Host)
	assert.Equal(t, "envdb", cfg.Database)

	// The process environment still wins.
	t.Setenv("RETHINKDB_HOST", "from-process")
	cfg, err = Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "from-process", cfg.Host)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	wd, err := os.Getwd()
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	writeFile(t, fs, filepath.Join(wd, ".reqlbridge.yaml"), "host: yaml-host\nport: 30000\ntimeout: 2s\n")
	writeFile(t, fs, ".env", "RETHINKDB_PORT=31000\n")

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "yaml-host", cfg.Host)
	assert.Equal(t, 31000, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("RETHINKDB_PORT", "70000")

	_, err := Load(afero.NewMemMapFs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestLoad_MalformedDotenv(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	writeFile(t, fs, ".env", "RETHINKDB_HOST='unterminated\n")

	_, err := Load(fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		err    string
	}{
		{"empty host", func(c *Config) { c.Host = "" }, "host"},
		{"zero port", func(c *Config) { c.Port = 0 }, "port"},
		{"empty id key", func(c *Config) { c.IDKey = "" }, "id_key"},
		{"negative timeout", func(c *Config) { c.ReadyTimeout = -time.Second }, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestConnectOpts(t *testing.T) {
	cfg := Default()
	cfg.Host = "::1"
	cfg.Password = "secret"
	cfg.Timeout = 3 * time.Second

	opts := cfg.ConnectOpts()
	assert.Equal(t, "[::1]:28015", opts.Address)
	assert.Equal(t, "test", opts.Database)
	assert.Equal(t, "admin", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3*time.Second, opts.Timeout)
	assert.True(t, opts.UseJSONNumber)
}
