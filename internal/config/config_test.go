package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "superheroes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/superheroes
  max_conns: 5
  min_conns: 1
server:
  addr: ":8080"
log:
  level: debug
  format: json
migrations_dir: db/migrations
store: memory
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/superheroes", cfg.Database.URL)
	assert.Equal(t, int32(5), cfg.Database.MaxConns)
	assert.Equal(t, int32(1), cfg.Database.MinConns)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "db/migrations", cfg.MigrationsDir)
	assert.Equal(t, StoreMemory, cfg.Store)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  addr: \":9000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, StorePostgres, cfg.Store)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://file\nserver:\n  addr: \":1\"\n")
	t.Setenv(EnvDatabaseURL, "postgres://env")
	t.Setenv(EnvAddr, ":2")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMaxConns, "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, ":2", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, int32(3), cfg.Database.MaxConns)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, writeConfig(t, "store: memory\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad yaml", body: "server: [\n"},
		{name: "unknown store", body: "store: sqlite\n"},
		{name: "min above max", body: "database:\n  max_conns: 2\n  min_conns: 4\n"},
		{name: "bad max conns env", body: "", env: map[string]string{EnvMaxConns: "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Database.URL = "postgres://saved"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
