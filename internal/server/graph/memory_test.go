package graph_test

import (
	"context"
	"testing"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/graph"
	"github.com/ariutta/BridgeDb/internal/server/graph/graphtest"
)

func TestMemoryStore(t *testing.T) {
	graphtest.Run(t, func(t *testing.T) graph.Store {
		return graph.NewMemory()
	})
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := graph.NewMemory()
	if err := s.Close(ctx); err != nil {
		t.Fatalf("closing: %v", err)
	}
	if _, err := s.EdgesFrom(ctx, core.NewXref("1", "L")); !core.IsStorageUnavailable(err) {
		t.Errorf("expected storage unavailable after close, got %v", err)
	}
	if _, err := s.BeginBulkLoad(ctx); !core.IsStorageUnavailable(err) {
		t.Errorf("expected storage unavailable for load after close, got %v", err)
	}
}
