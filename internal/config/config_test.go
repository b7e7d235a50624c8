package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

var configVars = []string{
	"IDMAP_STORE", "IDMAP_SQLITE_PATH", "IDMAP_POSTGRES_DSN",
	"NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD", "NEO4J_DATABASE",
	"PORT", "LOG_LEVEL", "LOG_PRETTY", "IDMAP_NAMESPACES",
	"IDMAP_QUERY_TIMEOUT", "IDMAP_BASE_URI",
}

// clearEnv blanks every config variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configVars {
		t.Setenv(key, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "idmap.db", cfg.SQLitePath)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, DefaultQueryTimeout, cfg.QueryTimeout)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.Database)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURI)
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("IDMAP_STORE", "Postgres")
	t.Setenv("IDMAP_POSTGRES_DSN", "postgres://idmap@localhost/idmap")
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("IDMAP_QUERY_TIMEOUT", "750ms")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://idmap@localhost/idmap", cfg.PostgresDSN)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 750*time.Millisecond, cfg.QueryTimeout)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"IDMAP_STORE": "oracle"}},
		{"postgres without dsn", map[string]string{"IDMAP_STORE": "postgres"}},
		{"bad timeout", map[string]string{"IDMAP_QUERY_TIMEOUT": "soon"}},
		{"negative timeout", map[string]string{"IDMAP_QUERY_TIMEOUT": "-1s"}},
		{"bad pretty flag", map[string]string{"LOG_PRETTY": "sometimes"}},
		{"bad port", map[string]string{"PORT": "http"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			assert.True(t, core.IsConfiguration(err), err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "idmap.env")
	require.NoError(t, os.WriteFile(path, []byte("IDMAP_STORE=memory\nPORT=7070\n"), 0o644))
	// godotenv never overrides a variable that is present, even when empty
	require.NoError(t, os.Unsetenv("IDMAP_STORE"))
	t.Setenv("PORT", "7171")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, ":7171", cfg.Addr())

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.True(t, core.IsConfiguration(err), err)
}

func TestOpenStoreAndRegistry(t *testing.T) {
	clearEnv(t)
	ctx := context.Background()

	cfg := &Config{Store: StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "idmap.db"), Port: "8080"}
	store, err := cfg.OpenStore(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Close(ctx))

	cfg.Store = StoreMemory
	store, err = cfg.OpenStore(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Close(ctx))

	reg, err := cfg.Registry()
	require.NoError(t, err)
	assert.True(t, reg.Has("Ce"))

	table := filepath.Join(t.TempDir(), "namespaces.yaml")
	require.NoError(t, os.WriteFile(table, []byte("namespaces:\n  - code: Xx\n    full_name: Example\n"), 0o644))
	cfg.Namespaces = table
	reg, err = cfg.Registry()
	require.NoError(t, err)
	assert.True(t, reg.Has("Xx"))
	assert.False(t, reg.Has("Ce"))

	cfg.Namespaces = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Registry()
	assert.True(t, core.IsConfiguration(err), err)
}
