package graph_test

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ariutta/BridgeDb/internal/server/graph"
	"github.com/ariutta/BridgeDb/internal/server/graph/graphtest"
)

func neo4jConfig(t *testing.T) graph.Neo4jConfig {
	uri := os.Getenv("IDMAP_TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("IDMAP_TEST_NEO4J_URI not set")
	}
	return graph.Neo4jConfig{
		URI:      uri,
		Username: os.Getenv("IDMAP_TEST_NEO4J_USER"),
		Password: os.Getenv("IDMAP_TEST_NEO4J_PASSWORD"),
	}
}

func TestNeo4jStore(t *testing.T) {
	cfg := neo4jConfig(t)
	graphtest.Run(t, func(t *testing.T) graph.Store {
		ctx := context.Background()
		wipeNeo4j(t, cfg)
		s, err := graph.NewNeo4j(ctx, cfg)
		if err != nil {
			t.Fatalf("connecting to neo4j: %v", err)
		}
		return s
	})
}

func wipeNeo4j(t *testing.T, cfg graph.Neo4jConfig) {
	t.Helper()
	ctx := context.Background()
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		t.Fatalf("creating driver: %v", err)
	}
	defer driver.Close(ctx)

	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: "neo4j"})
	defer session.Close(ctx)
	if _, err := session.Run(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		t.Fatalf("wiping database: %v", err)
	}
}
