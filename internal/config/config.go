// Package config reads service settings from the environment and an optional .env file
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/graph"
)

// Store backends selectable through IDMAP_STORE
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreNeo4j    = "neo4j"
)

// DefaultQueryTimeout bounds every storage call made for one query
const DefaultQueryTimeout = 20 * time.Second

// Config holds every setting of the idmap binaries
type Config struct {
	Store        string
	SQLitePath   string
	PostgresDSN  string
	Neo4j        graph.Neo4jConfig
	Port         string
	LogLevel     string
	LogPretty    bool
	Namespaces   string // YAML namespace table; empty uses the built-in one
	QueryTimeout time.Duration
	BaseURI      string // Remote server for idmap-query
}

// Load reads envFiles (".env" when none are given) and then the environment.
// A missing default .env is ignored; a missing named file is an error.
// Variables already set in the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, core.ConfigurationErrorf("load config", "reading .env: %v", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, core.ConfigurationErrorf("load config", "reading %s: %v", strings.Join(envFiles, ", "), err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Store:       strings.ToLower(getEnv("IDMAP_STORE", StoreSQLite)),
		SQLitePath:  getEnv("IDMAP_SQLITE_PATH", "idmap.db"),
		PostgresDSN: getEnv("IDMAP_POSTGRES_DSN", ""),
		Neo4j: graph.Neo4jConfig{
			URI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
			Username: getEnv("NEO4J_USER", "neo4j"),
			Password: getEnv("NEO4J_PASSWORD", "password"),
			Database: getEnv("NEO4J_DATABASE", "neo4j"),
		},
		Port:       getEnv("PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Namespaces: getEnv("IDMAP_NAMESPACES", ""),
		BaseURI:    getEnv("IDMAP_BASE_URI", "http://localhost:8080"),
	}

	if v := getEnv("LOG_PRETTY", ""); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return nil, core.ConfigurationErrorf("load config", "LOG_PRETTY=%q is not a boolean", v)
		}
		cfg.LogPretty = pretty
	}

	cfg.QueryTimeout = DefaultQueryTimeout
	if v := getEnv("IDMAP_QUERY_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, core.ConfigurationErrorf("load config", "IDMAP_QUERY_TIMEOUT=%q is not a duration", v)
		}
		cfg.QueryTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected store has what it needs
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return core.ConfigurationErrorf("load config", "IDMAP_SQLITE_PATH is empty")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return core.ConfigurationErrorf("load config", "IDMAP_STORE=postgres needs IDMAP_POSTGRES_DSN")
		}
	case StoreNeo4j:
		if c.Neo4j.URI == "" {
			return core.ConfigurationErrorf("load config", "IDMAP_STORE=neo4j needs NEO4J_URI")
		}
	default:
		return core.ConfigurationErrorf("load config", "unknown IDMAP_STORE %q", c.Store)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return core.ConfigurationErrorf("load config", "PORT=%q is not a number", c.Port)
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
