package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariutta/BridgeDb/internal/config"
	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

func TestParseFlags(t *testing.T) {
	files, err := parseFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Nil(t, files)

	files, err = parseFlags([]string{"-env", "prod.env"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"prod.env"}, files)

	_, err = parseFlags([]string{"-port", "9"}, io.Discard)
	assert.Error(t, err)
}

func TestNewServerWiring(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Store: config.StoreMemory, Port: "9090", QueryTimeout: time.Second}

	var logs bytes.Buffer
	srv, store, err := newServer(ctx, cfg, zerolog.New(&logs))
	require.NoError(t, err)
	defer store.Close(ctx)

	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, 16*time.Second, srv.WriteTimeout)
	assert.Contains(t, logs.String(), "store opened")

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	for _, path := range []string{"/health", "/api/statistics", "/api/capabilities", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}

	resp, err := http.Get(ts.URL + "/api/statistics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var overall core.OverallStatistics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&overall))
	assert.Zero(t, overall.MappingCount)
	assert.Contains(t, logs.String(), `"component":"api"`)
	assert.Contains(t, logs.String(), `"route":"/api/statistics"`)
}

func TestNewServerBadNamespaceTable(t *testing.T) {
	cfg := &config.Config{Store: config.StoreMemory, Namespaces: filepath.Join(t.TempDir(), "missing.yaml")}
	_, _, err := newServer(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, core.IsConfiguration(err), err)
}
