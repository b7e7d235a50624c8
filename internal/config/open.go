package config

import (
	"context"

	"github.com/ariutta/BridgeDb/internal/idmap/registry"
	"github.com/ariutta/BridgeDb/internal/server/graph"
)

// OpenStore connects to the configured backend
func (c *Config) OpenStore(ctx context.Context) (graph.Store, error) {
	switch c.Store {
	case StoreMemory:
		return graph.NewMemory(), nil
	case StorePostgres:
		return graph.NewPostgres(ctx, c.PostgresDSN)
	case StoreNeo4j:
		return graph.NewNeo4j(ctx, c.Neo4j)
	default:
		return graph.NewSQLite(ctx, c.SQLitePath)
	}
}

// Registry builds the namespace registry from the configured table
func (c *Config) Registry() (*registry.Registry, error) {
	if c.Namespaces == "" {
		return registry.Default()
	}
	reg := registry.New()
	if err := reg.LoadFile(c.Namespaces); err != nil {
		return nil, err
	}
	return reg, nil
}
