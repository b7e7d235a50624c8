package graph

import "strings"

// SQL schema DDL for the sqlite and postgres backends

// SchemaVersion is stored in the info table and checked on open
const SchemaVersion = 2

// Dialect selects the SQL flavour
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// driverName returns the database/sql driver for the dialect
func (d Dialect) driverName() string {
	return string(d)
}

// identityColumn is the auto-increment primary key declaration
func (d Dialect) identityColumn() string {
	if d == DialectPostgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// offsetOnly skips rows without limiting them; sqlite needs an explicit LIMIT
func (d Dialect) offsetOnly() string {
	if d == DialectPostgres {
		return " OFFSET ?"
	}
	return " LIMIT -1 OFFSET ?"
}

const schemaInfo = `
CREATE TABLE IF NOT EXISTS info (
    schema_version INTEGER NOT NULL
)`

const schemaMappingSets = `
CREATE TABLE IF NOT EXISTS mapping_sets (
    id {{id}},
    source_code TEXT NOT NULL,
    target_code TEXT NOT NULL,
    predicate TEXT NOT NULL,
    is_symmetric INTEGER NOT NULL DEFAULT 0,
    is_transitive INTEGER NOT NULL DEFAULT 0,
    inverse_of BIGINT NOT NULL DEFAULT 0,
    accessed_from TEXT NOT NULL DEFAULT '',
    accessed_on TEXT NOT NULL DEFAULT '',
    accessed_by TEXT NOT NULL DEFAULT '',
    link_count BIGINT NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
)`

const schemaLinks = `
CREATE TABLE IF NOT EXISTS links (
    id {{id}},
    left_id TEXT NOT NULL,
    left_code TEXT NOT NULL,
    right_id TEXT NOT NULL,
    right_code TEXT NOT NULL,
    mapping_set_id BIGINT NOT NULL,
    UNIQUE(left_id, left_code, right_id, right_code, mapping_set_id)
)`

const schemaDatanodes = `
CREATE TABLE IF NOT EXISTS datanodes (
    id TEXT NOT NULL,
    code TEXT NOT NULL,
    PRIMARY KEY (id, code)
)`

const schemaAttributes = `
CREATE TABLE IF NOT EXISTS attributes (
    id TEXT NOT NULL,
    code TEXT NOT NULL,
    attr_name TEXT NOT NULL,
    attr_value TEXT NOT NULL,
    UNIQUE(id, code, attr_name, attr_value)
)`

// Indexes for the access paths used by the resolver and search
var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_links_left ON links(left_id, left_code)`,
	`CREATE INDEX IF NOT EXISTS idx_links_left_code ON links(left_code)`,
	`CREATE INDEX IF NOT EXISTS idx_links_right ON links(right_id)`,
	`CREATE INDEX IF NOT EXISTS idx_links_right_code ON links(right_code)`,
	`CREATE INDEX IF NOT EXISTS idx_links_set ON links(mapping_set_id)`,
	`CREATE INDEX IF NOT EXISTS idx_datanodes_code ON datanodes(code)`,
	`CREATE INDEX IF NOT EXISTS idx_attributes_lookup ON attributes(id, code, attr_name)`,
	`CREATE INDEX IF NOT EXISTS idx_attributes_name ON attributes(attr_name)`,
}

// allSchemaStatements returns every DDL statement in creation order
func allSchemaStatements(d Dialect) []string {
	r := strings.NewReplacer("{{id}}", d.identityColumn())
	stmts := []string{
		schemaInfo,
		r.Replace(schemaMappingSets),
		r.Replace(schemaLinks),
		schemaDatanodes,
		schemaAttributes,
	}
	return append(stmts, indexStatements...)
}

// sqlitePragmas are passed through the DSN so every pooled connection gets them
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
}

func sqliteDSN(path string) string {
	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(path)
	for i, p := range sqlitePragmas {
		if i == 0 {
			b.WriteString("?")
		} else {
			b.WriteString("&")
		}
		b.WriteString("_pragma=")
		b.WriteString(p)
	}
	return b.String()
}
