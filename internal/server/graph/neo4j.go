package graph

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

// Neo4jStore implements Store on a Neo4j database.
// Identifiers are (:Xref {id, code}) nodes joined by [:MAPS {edge_id, set_id}]
// relationships; mapping sets and attributes are nodes of their own.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	loadSem  chan struct{}
}

// Neo4jConfig holds Neo4j connection configuration
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

var neo4jSchema = []string{
	`CREATE INDEX xref_lookup IF NOT EXISTS FOR (x:Xref) ON (x.id, x.code)`,
	`CREATE INDEX mapping_set_id IF NOT EXISTS FOR (s:MappingSet) ON (s.id)`,
	`CREATE INDEX attribute_lookup IF NOT EXISTS FOR (a:Attribute) ON (a.id, a.code, a.name)`,
	`CREATE INDEX maps_edge_id IF NOT EXISTS FOR ()-[m:MAPS]-() ON (m.edge_id)`,
	`CREATE INDEX maps_set_id IF NOT EXISTS FOR ()-[m:MAPS]-() ON (m.set_id)`,
}

// NewNeo4j connects to Neo4j and ensures the indexes exist
func NewNeo4j(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, core.StorageError("open store", "neo4j", fmt.Errorf("creating neo4j driver: %w", err))
	}

	// Verify connectivity
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, core.StorageError("open store", "neo4j", fmt.Errorf("connecting to neo4j: %w", err))
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	s := &Neo4jStore{driver: driver, database: database, loadSem: make(chan struct{}, 1)}

	session := s.session(ctx)
	defer session.Close(ctx)
	for _, stmt := range neo4jSchema {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			driver.Close(ctx)
			return nil, core.StorageError("open store", "neo4j", fmt.Errorf("creating index: %w", err))
		}
	}
	return s, nil
}

// Close closes the Neo4j connection
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

func (s *Neo4jStore) read(ctx context.Context, op, target string, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, work)
	if err != nil {
		return nil, core.StorageError(op, target, err)
	}
	return result, nil
}

func (s *Neo4jStore) write(ctx context.Context, op, target string, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, work)
	if err != nil {
		return nil, core.StorageError(op, target, err)
	}
	return result, nil
}

// collect runs a query and returns every record
func collect(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

// nextIDs reserves n consecutive ids from a named counter and returns the first
func nextIDs(ctx context.Context, tx neo4j.ManagedTransaction, name string, n int) (int64, error) {
	records, err := collect(ctx, tx, `
		MERGE (c:Counter {name: $name})
		ON CREATE SET c.value = 0
		SET c.value = c.value + $n
		RETURN c.value AS value
	`, map[string]any{"name": name, "n": int64(n)})
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("counter %s returned no value", name)
	}
	return recordInt(records[0], "value") - int64(n) + 1, nil
}

func recordString(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func recordInt(rec *neo4j.Record, key string) int64 {
	v, _ := rec.Get(key)
	n, _ := v.(int64)
	return n
}

func recordBool(rec *neo4j.Record, key string) bool {
	v, _ := rec.Get(key)
	b, _ := v.(bool)
	return b
}

const setReturn = `
	s.id AS id, s.source AS source, s.target AS target, s.predicate AS predicate,
	s.symmetric AS symmetric, s.transitive AS transitive, s.inverse_of AS inverse_of,
	s.accessed_from AS accessed_from, s.accessed_on AS accessed_on, s.accessed_by AS accessed_by,
	s.link_count AS link_count, s.created AS created`

func setFromRecord(rec *neo4j.Record) *core.MappingSetInfo {
	return &core.MappingSetInfo{
		ID:         recordInt(rec, "id"),
		Source:     recordString(rec, "source"),
		Target:     recordString(rec, "target"),
		Predicate:  recordString(rec, "predicate"),
		Symmetric:  recordBool(rec, "symmetric"),
		Transitive: recordBool(rec, "transitive"),
		InverseOf:  recordInt(rec, "inverse_of"),
		Provenance: core.Provenance{
			AccessedFrom: recordString(rec, "accessed_from"),
			AccessedOn:   parseTime(recordString(rec, "accessed_on")),
			AccessedBy:   recordString(rec, "accessed_by"),
		},
		LinkCount: recordInt(rec, "link_count"),
		Created:   parseTime(recordString(rec, "created")),
	}
}

const edgeReturn = `
	m.edge_id AS edge_id, m.set_id AS set_id,
	l.id AS left_id, l.code AS left_code, r.id AS right_id, r.code AS right_code`

func edgeFromRecord(rec *neo4j.Record) core.Edge {
	return core.Edge{
		ID:           recordInt(rec, "edge_id"),
		Left:         core.NewXref(recordString(rec, "left_id"), recordString(rec, "left_code")),
		Right:        core.NewXref(recordString(rec, "right_id"), recordString(rec, "right_code")),
		MappingSetID: recordInt(rec, "set_id"),
	}
}

func edgesFromRecords(records []*neo4j.Record) []core.Edge {
	out := make([]core.Edge, 0, len(records))
	for _, rec := range records {
		out = append(out, edgeFromRecord(rec))
	}
	return out
}

// CreateMappingSet creates set and its optional inverse in one transaction
func (s *Neo4jStore) CreateMappingSet(ctx context.Context, set *core.MappingSetInfo, inverse *core.MappingSetInfo) error {
	now := time.Now().UTC()
	_, err := s.write(ctx, "create mapping set", set.Source+"->"+set.Target, func(tx neo4j.ManagedTransaction) (any, error) {
		n := 1
		if inverse != nil {
			n = 2
		}
		first, err := nextIDs(ctx, tx, "mapping_set", n)
		if err != nil {
			return nil, err
		}
		set.ID = first
		if err := createSetNode(ctx, tx, set, now); err != nil {
			return nil, err
		}
		if inverse != nil {
			inverse.ID = first + 1
			inverse.InverseOf = set.ID
			if err := createSetNode(ctx, tx, inverse, now); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	set.Created, set.LinkCount = now, 0
	if inverse != nil {
		inverse.Created, inverse.LinkCount = now, 0
	}
	return nil
}

func createSetNode(ctx context.Context, tx neo4j.ManagedTransaction, set *core.MappingSetInfo, now time.Time) error {
	_, err := tx.Run(ctx, `
		CREATE (s:MappingSet {
			id: $id,
			source: $source,
			target: $target,
			predicate: $predicate,
			symmetric: $symmetric,
			transitive: $transitive,
			inverse_of: $inverse_of,
			accessed_from: $accessed_from,
			accessed_on: $accessed_on,
			accessed_by: $accessed_by,
			link_count: 0,
			created: $created
		})
	`, map[string]any{
		"id":            set.ID,
		"source":        set.Source,
		"target":        set.Target,
		"predicate":     set.Predicate,
		"symmetric":     set.Symmetric,
		"transitive":    set.Transitive,
		"inverse_of":    set.InverseOf,
		"accessed_from": set.Provenance.AccessedFrom,
		"accessed_on":   formatTime(set.Provenance.AccessedOn),
		"accessed_by":   set.Provenance.AccessedBy,
		"created":       formatTime(now),
	})
	return err
}

// GetMappingSet returns one catalog entry
func (s *Neo4jStore) GetMappingSet(ctx context.Context, id int64) (*core.MappingSetInfo, error) {
	target := strconv.FormatInt(id, 10)
	result, err := s.read(ctx, "get mapping set", target, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, "MATCH (s:MappingSet {id: $id}) RETURN "+setReturn, map[string]any{"id": id})
	})
	if err != nil {
		return nil, err
	}
	records := result.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, core.NotFoundError("get mapping set", target)
	}
	return setFromRecord(records[0]), nil
}

// ListMappingSets returns every catalog entry ordered by id
func (s *Neo4jStore) ListMappingSets(ctx context.Context) ([]*core.MappingSetInfo, error) {
	result, err := s.read(ctx, "list mapping sets", "", func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, "MATCH (s:MappingSet) RETURN "+setReturn+" ORDER BY id", nil)
	})
	if err != nil {
		return nil, err
	}
	records := result.([]*neo4j.Record)
	out := make([]*core.MappingSetInfo, 0, len(records))
	for _, rec := range records {
		out = append(out, setFromRecord(rec))
	}
	return out, nil
}

// DeleteMappingSets removes the sets and their relationships in one transaction
func (s *Neo4jStore) DeleteMappingSets(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.write(ctx, "delete mapping sets", "", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, "MATCH (s:MappingSet) WHERE s.id IN $ids RETURN s.id AS id", map[string]any{"ids": ids})
		if err != nil {
			return nil, err
		}
		found := make(map[int64]bool, len(records))
		for _, rec := range records {
			found[recordInt(rec, "id")] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, core.NotFoundError("delete mapping set", strconv.FormatInt(id, 10))
			}
		}

		if _, err := tx.Run(ctx, "MATCH ()-[m:MAPS]->() WHERE m.set_id IN $ids DELETE m", map[string]any{"ids": ids}); err != nil {
			return nil, err
		}
		_, err = tx.Run(ctx, "MATCH (s:MappingSet) WHERE s.id IN $ids DELETE s", map[string]any{"ids": ids})
		return nil, err
	})
	return err
}

// BeginBulkLoad waits for any running load and starts a new one.
// Rows are buffered and written in a single transaction at Commit.
func (s *Neo4jStore) BeginBulkLoad(ctx context.Context) (BulkLoad, error) {
	select {
	case s.loadSem <- struct{}{}:
	case <-ctx.Done():
		return nil, core.StorageError("begin bulk load", "", ctx.Err())
	}
	return &neo4jLoad{store: s}, nil
}

type neo4jLoad struct {
	store *Neo4jStore
	edges []pendingEdge
	attrs []core.Attribute
	done  bool
}

func (l *neo4jLoad) AddEdge(ctx context.Context, setID int64, left, right core.Xref) error {
	if l.done {
		return core.StorageError("add edge", left.String(), errLoadFinished)
	}
	l.edges = append(l.edges, pendingEdge{setID: setID, left: left, right: right})
	return nil
}

func (l *neo4jLoad) AddAttribute(ctx context.Context, attr core.Attribute) error {
	if l.done {
		return core.StorageError("add attribute", attr.Xref.String(), errLoadFinished)
	}
	l.attrs = append(l.attrs, attr)
	return nil
}

func (l *neo4jLoad) Commit(ctx context.Context) error {
	if l.done {
		return core.StorageError("commit bulk load", "", errLoadFinished)
	}
	l.done = true
	defer func() { <-l.store.loadSem }()

	if len(l.edges) == 0 && len(l.attrs) == 0 {
		return nil
	}

	setIDs := make([]int64, 0)
	seen := make(map[int64]bool)
	for _, e := range l.edges {
		if !seen[e.setID] {
			seen[e.setID] = true
			setIDs = append(setIDs, e.setID)
		}
	}

	_, err := l.store.write(ctx, "commit bulk load", "", func(tx neo4j.ManagedTransaction) (any, error) {
		if len(setIDs) > 0 {
			records, err := collect(ctx, tx, "MATCH (s:MappingSet) WHERE s.id IN $ids RETURN s.id AS id", map[string]any{"ids": setIDs})
			if err != nil {
				return nil, err
			}
			found := make(map[int64]bool, len(records))
			for _, rec := range records {
				found[recordInt(rec, "id")] = true
			}
			for _, id := range setIDs {
				if !found[id] {
					return nil, core.NotFoundError("commit bulk load: mapping set", strconv.FormatInt(id, 10))
				}
			}
		}

		for start := 0; start < len(l.edges); start += flushSize {
			end := min(start+flushSize, len(l.edges))
			if err := writeEdges(ctx, tx, l.edges[start:end]); err != nil {
				return nil, err
			}
		}
		for start := 0; start < len(l.attrs); start += flushSize {
			end := min(start+flushSize, len(l.attrs))
			if err := writeAttributes(ctx, tx, l.attrs[start:end]); err != nil {
				return nil, err
			}
		}

		if len(setIDs) > 0 {
			_, err := tx.Run(ctx, `
				UNWIND $ids AS sid
				MATCH (s:MappingSet {id: sid})
				OPTIONAL MATCH ()-[m:MAPS {set_id: sid}]->()
				WITH s, count(m) AS n
				SET s.link_count = n
			`, map[string]any{"ids": setIDs})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func writeEdges(ctx context.Context, tx neo4j.ManagedTransaction, edges []pendingEdge) error {
	first, err := nextIDs(ctx, tx, "edge", len(edges))
	if err != nil {
		return err
	}
	rows := make([]map[string]any, 0, len(edges))
	for i, e := range edges {
		rows = append(rows, map[string]any{
			"edge_id":    first + int64(i),
			"set_id":     e.setID,
			"left_id":    e.left.ID,
			"left_code":  e.left.Namespace,
			"right_id":   e.right.ID,
			"right_code": e.right.Namespace,
		})
	}
	_, err = tx.Run(ctx, `
		UNWIND $rows AS row
		MERGE (l:Xref {id: row.left_id, code: row.left_code})
		MERGE (r:Xref {id: row.right_id, code: row.right_code})
		MERGE (l)-[m:MAPS {set_id: row.set_id}]->(r)
		ON CREATE SET m.edge_id = row.edge_id
	`, map[string]any{"rows": rows})
	return err
}

func writeAttributes(ctx context.Context, tx neo4j.ManagedTransaction, attrs []core.Attribute) error {
	rows := make([]map[string]any, 0, len(attrs))
	for _, a := range attrs {
		rows = append(rows, map[string]any{
			"id":    a.Xref.ID,
			"code":  a.Xref.Namespace,
			"name":  a.Name,
			"value": a.Value,
		})
	}
	_, err := tx.Run(ctx, `
		UNWIND $rows AS row
		MERGE (:Xref {id: row.id, code: row.code})
		MERGE (:Attribute {id: row.id, code: row.code, name: row.name, value: row.value})
	`, map[string]any{"rows": rows})
	return err
}

func (l *neo4jLoad) Rollback(ctx context.Context) error {
	if l.done {
		return nil
	}
	l.done = true
	l.edges, l.attrs = nil, nil
	<-l.store.loadSem
	return nil
}

// EdgesFrom returns edges whose left side is left, optionally limited to setIDs
func (s *Neo4jStore) EdgesFrom(ctx context.Context, left core.Xref, setIDs ...int64) ([]core.Edge, error) {
	if setIDs == nil {
		setIDs = []int64{}
	}
	result, err := s.read(ctx, "edges from", left.String(), func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, `
			MATCH (l:Xref {id: $id, code: $code})-[m:MAPS]->(r:Xref)
			WHERE size($sets) = 0 OR m.set_id IN $sets
			RETURN `+edgeReturn+`
			ORDER BY edge_id
		`, map[string]any{"id": left.ID, "code": left.Namespace, "sets": setIDs})
	})
	if err != nil {
		return nil, err
	}
	return edgesFromRecords(result.([]*neo4j.Record)), nil
}

// EdgesBetween returns the edges of one set leaving left
func (s *Neo4jStore) EdgesBetween(ctx context.Context, left core.Xref, setID int64) ([]core.Edge, error) {
	return s.EdgesFrom(ctx, left, setID)
}

// EdgesViaAnchor matches the two-hop path in one query
func (s *Neo4jStore) EdgesViaAnchor(ctx context.Context, source core.Xref) ([]AnchoredEdge, error) {
	result, err := s.read(ctx, "edges via anchor", source.String(), func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, `
			MATCH (:Xref {id: $id, code: $code})-[first:MAPS]->(l:Xref)-[m:MAPS]->(r:Xref)
			RETURN `+edgeReturn+`, first.edge_id AS first_id
			ORDER BY first_id, edge_id
		`, map[string]any{"id": source.ID, "code": source.Namespace})
	})
	if err != nil {
		return nil, err
	}
	records := result.([]*neo4j.Record)
	out := make([]AnchoredEdge, 0, len(records))
	for _, rec := range records {
		e := edgeFromRecord(rec)
		out = append(out, AnchoredEdge{Anchor: e.Left, Edge: e})
	}
	return out, nil
}

// GetEdge returns one stored edge
func (s *Neo4jStore) GetEdge(ctx context.Context, id int64) (*core.Edge, error) {
	target := strconv.FormatInt(id, 10)
	result, err := s.read(ctx, "get edge", target, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, "MATCH (l:Xref)-[m:MAPS {edge_id: $id}]->(r:Xref) RETURN "+edgeReturn, map[string]any{"id": id})
	})
	if err != nil {
		return nil, err
	}
	records := result.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, core.NotFoundError("get edge", target)
	}
	e := edgeFromRecord(records[0])
	return &e, nil
}

// SampleEdges returns the n lowest-id edges
func (s *Neo4jStore) SampleEdges(ctx context.Context, n int) ([]core.Edge, error) {
	query := "MATCH (l:Xref)-[m:MAPS]->(r:Xref) RETURN " + edgeReturn + " ORDER BY edge_id"
	params := map[string]any{}
	if n > 0 {
		query += " LIMIT $limit"
		params["limit"] = int64(n)
	}
	result, err := s.read(ctx, "sample edges", "", func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, query, params)
	})
	if err != nil {
		return nil, err
	}
	return edgesFromRecords(result.([]*neo4j.Record)), nil
}

// XrefExists reports whether x was ever loaded
func (s *Neo4jStore) XrefExists(ctx context.Context, x core.Xref) (bool, error) {
	result, err := s.read(ctx, "xref exists", x.String(), func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, "MATCH (x:Xref {id: $id, code: $code}) RETURN count(x) AS n",
			map[string]any{"id": x.ID, "code": x.Namespace})
	})
	if err != nil {
		return false, err
	}
	records := result.([]*neo4j.Record)
	return len(records) > 0 && recordInt(records[0], "n") > 0, nil
}

// SourceNamespaces returns the codes found at the start of MAPS relationships
func (s *Neo4jStore) SourceNamespaces(ctx context.Context) ([]string, error) {
	return s.queryCodes(ctx, "source namespaces",
		"MATCH (l:Xref)-[:MAPS]->() RETURN DISTINCT l.code AS code ORDER BY code")
}

// TargetNamespaces returns the codes found at the end of MAPS relationships
func (s *Neo4jStore) TargetNamespaces(ctx context.Context) ([]string, error) {
	return s.queryCodes(ctx, "target namespaces",
		"MATCH ()-[:MAPS]->(r:Xref) RETURN DISTINCT r.code AS code ORDER BY code")
}

func (s *Neo4jStore) queryCodes(ctx context.Context, op, query string) ([]string, error) {
	result, err := s.read(ctx, op, "", func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, query, nil)
	})
	if err != nil {
		return nil, err
	}
	records := result.([]*neo4j.Record)
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, recordString(rec, "code"))
	}
	return out, nil
}

// MappingSupported reports whether any relationship runs from source to target
func (s *Neo4jStore) MappingSupported(ctx context.Context, source, target string) (bool, error) {
	result, err := s.read(ctx, "mapping supported", source+"->"+target, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, `
			MATCH (:Xref {code: $source})-[m:MAPS]->(:Xref {code: $target})
			RETURN count(m) > 0 AS supported
		`, map[string]any{"source": source, "target": target})
	})
	if err != nil {
		return false, err
	}
	records := result.([]*neo4j.Record)
	return len(records) > 0 && recordBool(records[0], "supported"), nil
}

// XrefsByPosition pages through the Xref nodes
func (s *Neo4jStore) XrefsByPosition(ctx context.Context, code string, position, limit int) ([]core.Xref, error) {
	query := `
		MATCH (x:Xref) WHERE $code = '' OR x.code = $code
		RETURN x.id AS id, x.code AS code
		ORDER BY code, id
		SKIP $skip`
	params := map[string]any{"code": code, "skip": int64(position)}
	query = withCypherLimit(query, params, limit)
	return s.queryXrefs(ctx, "xrefs by position", code, query, params)
}

func (s *Neo4jStore) queryXrefs(ctx context.Context, op, target, query string, params map[string]any) ([]core.Xref, error) {
	result, err := s.read(ctx, op, target, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, query, params)
	})
	if err != nil {
		return nil, err
	}
	records := result.([]*neo4j.Record)
	out := make([]core.Xref, 0, len(records))
	for _, rec := range records {
		out = append(out, core.NewXref(recordString(rec, "id"), recordString(rec, "code")))
	}
	return out, nil
}

// Attributes returns the values of one attribute
func (s *Neo4jStore) Attributes(ctx context.Context, x core.Xref, name string) ([]string, error) {
	attrs, err := s.queryAttributes(ctx, "attributes", x.String(), `
		MATCH (a:Attribute {id: $id, code: $code, name: $name})
		RETURN a.id AS id, a.code AS code, a.name AS name, a.value AS value
		ORDER BY value
	`, map[string]any{"id": x.ID, "code": x.Namespace, "name": name})
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(attrs))
	for _, a := range attrs {
		values = append(values, a.Value)
	}
	return values, nil
}

// AllAttributes returns every attribute of x
func (s *Neo4jStore) AllAttributes(ctx context.Context, x core.Xref) (map[string][]string, error) {
	attrs, err := s.queryAttributes(ctx, "all attributes", x.String(), `
		MATCH (a:Attribute {id: $id, code: $code})
		RETURN a.id AS id, a.code AS code, a.name AS name, a.value AS value
		ORDER BY name, value
	`, map[string]any{"id": x.ID, "code": x.Namespace})
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	for _, a := range attrs {
		out[a.Name] = append(out[a.Name], a.Value)
	}
	return out, nil
}

// XrefsByAttribute returns identifiers with an attribute exactly equal to value
func (s *Neo4jStore) XrefsByAttribute(ctx context.Context, name, value string) ([]core.Xref, error) {
	return s.queryXrefs(ctx, "xrefs by attribute", name+"="+value, `
		MATCH (a:Attribute {name: $name, value: $value})
		RETURN DISTINCT a.id AS id, a.code AS code
		ORDER BY code, id
	`, map[string]any{"name": name, "value": value})
}

// AttributeNames returns every attribute name in use
func (s *Neo4jStore) AttributeNames(ctx context.Context) ([]string, error) {
	result, err := s.read(ctx, "attribute names", "", func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, "MATCH (a:Attribute) RETURN DISTINCT a.name AS name ORDER BY name", nil)
	})
	if err != nil {
		return nil, err
	}
	records := result.([]*neo4j.Record)
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, recordString(rec, "name"))
	}
	return out, nil
}

// SearchIdentifiers matches text case-insensitively against local ids
func (s *Neo4jStore) SearchIdentifiers(ctx context.Context, text string, limit int) ([]core.Xref, error) {
	query := `
		MATCH (x:Xref) WHERE toLower(x.id) CONTAINS $text
		RETURN x.id AS id, x.code AS code
		ORDER BY code, id`
	params := map[string]any{"text": strings.ToLower(text)}
	query = withCypherLimit(query, params, limit)

	return s.queryXrefs(ctx, "search identifiers", text, query, params)
}

// SearchAttributes matches text against the values of attribute name
func (s *Neo4jStore) SearchAttributes(ctx context.Context, text, name string, limit int) ([]core.Attribute, error) {
	query := `
		MATCH (a:Attribute {name: $name}) WHERE toLower(a.value) CONTAINS $text
		RETURN a.id AS id, a.code AS code, a.name AS name, a.value AS value
		ORDER BY code, id, value`
	params := map[string]any{"name": name, "text": strings.ToLower(text)}
	return s.queryAttributes(ctx, "search attributes", text, withCypherLimit(query, params, limit), params)
}

// SearchIdentifiersWithAttribute matches text against ids that carry attribute name
func (s *Neo4jStore) SearchIdentifiersWithAttribute(ctx context.Context, text, name string, limit int) ([]core.Attribute, error) {
	query := `
		MATCH (a:Attribute {name: $name}) WHERE toLower(a.id) CONTAINS $text
		RETURN a.id AS id, a.code AS code, a.name AS name, a.value AS value
		ORDER BY code, id, value`
	params := map[string]any{"name": name, "text": strings.ToLower(text)}
	return s.queryAttributes(ctx, "search identifiers with attribute", text, withCypherLimit(query, params, limit), params)
}

func (s *Neo4jStore) queryAttributes(ctx context.Context, op, target, query string, params map[string]any) ([]core.Attribute, error) {
	result, err := s.read(ctx, op, target, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, query, params)
	})
	if err != nil {
		return nil, err
	}
	records := result.([]*neo4j.Record)
	out := make([]core.Attribute, 0, len(records))
	for _, rec := range records {
		out = append(out, core.Attribute{
			Xref:  core.NewXref(recordString(rec, "id"), recordString(rec, "code")),
			Name:  recordString(rec, "name"),
			Value: recordString(rec, "value"),
		})
	}
	return out, nil
}

func withCypherLimit(query string, params map[string]any, limit int) string {
	if limit <= 0 {
		return query
	}
	params["limit"] = int64(limit)
	return query + " LIMIT $limit"
}
