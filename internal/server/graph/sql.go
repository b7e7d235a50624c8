package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

// flushSize is the number of buffered rows written per multi-row insert
const flushSize = 500

// SQLStore implements Store on sqlite or postgres
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
	loadSem chan struct{}
}

// NewSQLite opens (creating if needed) the sqlite database at path
func NewSQLite(ctx context.Context, path string) (*SQLStore, error) {
	return openSQL(ctx, DialectSQLite, sqliteDSN(path))
}

// NewPostgres connects to postgres using a lib/pq connection string
func NewPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	return openSQL(ctx, DialectPostgres, dsn)
}

func openSQL(ctx context.Context, d Dialect, dsn string) (*SQLStore, error) {
	db, err := sqlx.Open(d.driverName(), dsn)
	if err != nil {
		return nil, core.StorageError("open store", string(d), fmt.Errorf("opening database: %w", err))
	}

	// Verify connectivity
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, core.StorageError("open store", string(d), fmt.Errorf("connecting: %w", err))
	}

	// Create schema
	for _, stmt := range allSchemaStatements(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, core.StorageError("open store", string(d), fmt.Errorf("creating schema: %w", err))
		}
	}

	s := &SQLStore{db: db, dialect: d, loadSem: make(chan struct{}, 1)}
	if err := s.checkSchemaVersion(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) checkSchemaVersion(ctx context.Context) error {
	var version int
	err := s.db.GetContext(ctx, &version, "SELECT schema_version FROM info LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.ExecContext(ctx, s.db.Rebind("INSERT INTO info (schema_version) VALUES (?)"), SchemaVersion)
		return core.StorageError("open store", "info", err)
	}
	if err != nil {
		return core.StorageError("open store", "info", err)
	}
	if version != SchemaVersion {
		return core.ConfigurationErrorf("open store", "schema version %d, expected %d", version, SchemaVersion)
	}
	return nil
}

// Close closes the database handle
func (s *SQLStore) Close(ctx context.Context) error {
	return s.db.Close()
}

type setRow struct {
	ID           int64  `db:"id"`
	SourceCode   string `db:"source_code"`
	TargetCode   string `db:"target_code"`
	Predicate    string `db:"predicate"`
	Symmetric    int    `db:"is_symmetric"`
	Transitive   int    `db:"is_transitive"`
	InverseOf    int64  `db:"inverse_of"`
	AccessedFrom string `db:"accessed_from"`
	AccessedOn   string `db:"accessed_on"`
	AccessedBy   string `db:"accessed_by"`
	LinkCount    int64  `db:"link_count"`
	CreatedAt    string `db:"created_at"`
}

const setColumns = `id, source_code, target_code, predicate, is_symmetric, is_transitive, inverse_of,
	accessed_from, accessed_on, accessed_by, link_count, created_at`

func (r setRow) info() *core.MappingSetInfo {
	return &core.MappingSetInfo{
		ID:         r.ID,
		Source:     r.SourceCode,
		Target:     r.TargetCode,
		Predicate:  r.Predicate,
		Symmetric:  r.Symmetric != 0,
		Transitive: r.Transitive != 0,
		InverseOf:  r.InverseOf,
		Provenance: core.Provenance{
			AccessedFrom: r.AccessedFrom,
			AccessedOn:   parseTime(r.AccessedOn),
			AccessedBy:   r.AccessedBy,
		},
		LinkCount: r.LinkCount,
		Created:   parseTime(r.CreatedAt),
	}
}

type edgeRow struct {
	ID           int64  `db:"id"`
	LeftID       string `db:"left_id"`
	LeftCode     string `db:"left_code"`
	RightID      string `db:"right_id"`
	RightCode    string `db:"right_code"`
	MappingSetID int64  `db:"mapping_set_id"`
}

const edgeColumns = `id, left_id, left_code, right_id, right_code, mapping_set_id`

func (r edgeRow) edge() core.Edge {
	return core.Edge{
		ID:           r.ID,
		Left:         core.NewXref(r.LeftID, r.LeftCode),
		Right:        core.NewXref(r.RightID, r.RightCode),
		MappingSetID: r.MappingSetID,
	}
}

func toEdges(rows []edgeRow) []core.Edge {
	out := make([]core.Edge, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.edge())
	}
	return out
}

// CreateMappingSet inserts set and its optional inverse in one transaction
func (s *SQLStore) CreateMappingSet(ctx context.Context, set *core.MappingSetInfo, inverse *core.MappingSetInfo) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.StorageError("create mapping set", "", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if err := insertSet(ctx, tx, set, now); err != nil {
		return err
	}
	if inverse != nil {
		inverse.InverseOf = set.ID
		if err := insertSet(ctx, tx, inverse, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return core.StorageError("create mapping set", "", err)
	}
	return nil
}

func insertSet(ctx context.Context, tx *sqlx.Tx, set *core.MappingSetInfo, now time.Time) error {
	query := tx.Rebind(`
		INSERT INTO mapping_sets (source_code, target_code, predicate, is_symmetric, is_transitive, inverse_of,
			accessed_from, accessed_on, accessed_by, link_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
		RETURNING id
	`)
	var id int64
	err := tx.QueryRowxContext(ctx, query,
		set.Source,
		set.Target,
		set.Predicate,
		boolToInt(set.Symmetric),
		boolToInt(set.Transitive),
		set.InverseOf,
		set.Provenance.AccessedFrom,
		formatTime(set.Provenance.AccessedOn),
		set.Provenance.AccessedBy,
		formatTime(now),
	).Scan(&id)
	if err != nil {
		return core.StorageError("create mapping set", set.Source+"->"+set.Target, fmt.Errorf("inserting mapping set: %w", err))
	}
	set.ID = id
	set.LinkCount = 0
	set.Created = now
	return nil
}

// GetMappingSet returns one catalog row
func (s *SQLStore) GetMappingSet(ctx context.Context, id int64) (*core.MappingSetInfo, error) {
	var row setRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT "+setColumns+" FROM mapping_sets WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError("get mapping set", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, core.StorageError("get mapping set", strconv.FormatInt(id, 10), err)
	}
	return row.info(), nil
}

// ListMappingSets returns every catalog row ordered by id
func (s *SQLStore) ListMappingSets(ctx context.Context) ([]*core.MappingSetInfo, error) {
	var rows []setRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+setColumns+" FROM mapping_sets ORDER BY id"); err != nil {
		return nil, core.StorageError("list mapping sets", "", err)
	}
	out := make([]*core.MappingSetInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.info())
	}
	return out, nil
}

// DeleteMappingSets removes the sets and their links in one transaction
func (s *SQLStore) DeleteMappingSets(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.StorageError("delete mapping sets", "", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind("SELECT COUNT(*) FROM mapping_sets WHERE id = ?"), id); err != nil {
			return core.StorageError("delete mapping sets", strconv.FormatInt(id, 10), err)
		}
		if n == 0 {
			return core.NotFoundError("delete mapping set", strconv.FormatInt(id, 10))
		}
	}

	for _, table := range []struct{ name, column string }{
		{"links", "mapping_set_id"},
		{"mapping_sets", "id"},
	} {
		query, args, err := sqlx.In("DELETE FROM "+table.name+" WHERE "+table.column+" IN (?)", ids)
		if err != nil {
			return core.StorageError("delete mapping sets", "", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return core.StorageError("delete mapping sets", table.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.StorageError("delete mapping sets", "", err)
	}
	return nil
}

// BeginBulkLoad waits for any running load and starts a new one.
// The write transaction is opened lazily on the first flush.
func (s *SQLStore) BeginBulkLoad(ctx context.Context) (BulkLoad, error) {
	select {
	case s.loadSem <- struct{}{}:
	case <-ctx.Done():
		return nil, core.StorageError("begin bulk load", "", ctx.Err())
	}
	return &sqlLoad{store: s, sets: make(map[int64]struct{})}, nil
}

type sqlLoad struct {
	store *SQLStore
	tx    *sqlx.Tx
	edges []pendingEdge
	attrs []core.Attribute
	sets  map[int64]struct{}
	done  bool
}

func (l *sqlLoad) AddEdge(ctx context.Context, setID int64, left, right core.Xref) error {
	if l.done {
		return core.StorageError("add edge", left.String(), errLoadFinished)
	}
	l.edges = append(l.edges, pendingEdge{setID: setID, left: left, right: right})
	l.sets[setID] = struct{}{}
	if len(l.edges) >= flushSize {
		return l.flushEdges(ctx)
	}
	return nil
}

func (l *sqlLoad) AddAttribute(ctx context.Context, attr core.Attribute) error {
	if l.done {
		return core.StorageError("add attribute", attr.Xref.String(), errLoadFinished)
	}
	l.attrs = append(l.attrs, attr)
	if len(l.attrs) >= flushSize {
		return l.flushAttributes(ctx)
	}
	return nil
}

func (l *sqlLoad) begin(ctx context.Context) error {
	if l.tx != nil {
		return nil
	}
	tx, err := l.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.StorageError("bulk load", "", err)
	}
	l.tx = tx
	return nil
}

func (l *sqlLoad) flushEdges(ctx context.Context) error {
	if len(l.edges) == 0 {
		return nil
	}
	if err := l.begin(ctx); err != nil {
		return err
	}

	links := make([]string, 0, len(l.edges))
	linkArgs := make([]any, 0, len(l.edges)*5)
	nodes := make([]string, 0, len(l.edges)*2)
	nodeArgs := make([]any, 0, len(l.edges)*4)
	for _, e := range l.edges {
		links = append(links, "(?, ?, ?, ?, ?)")
		linkArgs = append(linkArgs, e.left.ID, e.left.Namespace, e.right.ID, e.right.Namespace, e.setID)
		nodes = append(nodes, "(?, ?)", "(?, ?)")
		nodeArgs = append(nodeArgs, e.left.ID, e.left.Namespace, e.right.ID, e.right.Namespace)
	}

	query := "INSERT INTO links (left_id, left_code, right_id, right_code, mapping_set_id) VALUES " +
		strings.Join(links, ", ") + " ON CONFLICT DO NOTHING"
	if _, err := l.tx.ExecContext(ctx, l.tx.Rebind(query), linkArgs...); err != nil {
		return core.StorageError("bulk load", "links", fmt.Errorf("inserting links: %w", err))
	}
	if err := l.insertNodes(ctx, nodes, nodeArgs); err != nil {
		return err
	}
	l.edges = l.edges[:0]
	return nil
}

func (l *sqlLoad) flushAttributes(ctx context.Context) error {
	if len(l.attrs) == 0 {
		return nil
	}
	if err := l.begin(ctx); err != nil {
		return err
	}

	values := make([]string, 0, len(l.attrs))
	args := make([]any, 0, len(l.attrs)*4)
	nodes := make([]string, 0, len(l.attrs))
	nodeArgs := make([]any, 0, len(l.attrs)*2)
	for _, a := range l.attrs {
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, a.Xref.ID, a.Xref.Namespace, a.Name, a.Value)
		nodes = append(nodes, "(?, ?)")
		nodeArgs = append(nodeArgs, a.Xref.ID, a.Xref.Namespace)
	}

	query := "INSERT INTO attributes (id, code, attr_name, attr_value) VALUES " +
		strings.Join(values, ", ") + " ON CONFLICT DO NOTHING"
	if _, err := l.tx.ExecContext(ctx, l.tx.Rebind(query), args...); err != nil {
		return core.StorageError("bulk load", "attributes", fmt.Errorf("inserting attributes: %w", err))
	}
	if err := l.insertNodes(ctx, nodes, nodeArgs); err != nil {
		return err
	}
	l.attrs = l.attrs[:0]
	return nil
}

func (l *sqlLoad) insertNodes(ctx context.Context, values []string, args []any) error {
	query := "INSERT INTO datanodes (id, code) VALUES " + strings.Join(values, ", ") + " ON CONFLICT DO NOTHING"
	if _, err := l.tx.ExecContext(ctx, l.tx.Rebind(query), args...); err != nil {
		return core.StorageError("bulk load", "datanodes", fmt.Errorf("inserting datanodes: %w", err))
	}
	return nil
}

func (l *sqlLoad) Commit(ctx context.Context) error {
	if l.done {
		return core.StorageError("commit bulk load", "", errLoadFinished)
	}
	l.done = true
	defer func() { <-l.store.loadSem }()

	if err := l.commit(ctx); err != nil {
		if l.tx != nil {
			l.tx.Rollback()
		}
		return err
	}
	return nil
}

func (l *sqlLoad) commit(ctx context.Context) error {
	if len(l.sets) == 0 && len(l.attrs) == 0 && l.tx == nil {
		return nil
	}
	if err := l.flushEdges(ctx); err != nil {
		return err
	}
	if err := l.flushAttributes(ctx); err != nil {
		return err
	}
	if err := l.begin(ctx); err != nil {
		return err
	}

	for setID := range l.sets {
		var n int
		if err := l.tx.GetContext(ctx, &n, l.tx.Rebind("SELECT COUNT(*) FROM mapping_sets WHERE id = ?"), setID); err != nil {
			return core.StorageError("commit bulk load", strconv.FormatInt(setID, 10), err)
		}
		if n == 0 {
			return core.NotFoundError("commit bulk load: mapping set", strconv.FormatInt(setID, 10))
		}
		update := l.tx.Rebind(`
			UPDATE mapping_sets
			SET link_count = (SELECT COUNT(*) FROM links WHERE mapping_set_id = ?)
			WHERE id = ?
		`)
		if _, err := l.tx.ExecContext(ctx, update, setID, setID); err != nil {
			return core.StorageError("commit bulk load", strconv.FormatInt(setID, 10), fmt.Errorf("updating link count: %w", err))
		}
	}

	if err := l.tx.Commit(); err != nil {
		return core.StorageError("commit bulk load", "", err)
	}
	l.tx = nil
	return nil
}

func (l *sqlLoad) Rollback(ctx context.Context) error {
	if l.done {
		return nil
	}
	l.done = true
	defer func() { <-l.store.loadSem }()

	l.edges, l.attrs = nil, nil
	if l.tx == nil {
		return nil
	}
	if err := l.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return core.StorageError("rollback bulk load", "", err)
	}
	return nil
}

// EdgesFrom returns edges whose left side is left, optionally limited to setIDs
func (s *SQLStore) EdgesFrom(ctx context.Context, left core.Xref, setIDs ...int64) ([]core.Edge, error) {
	query := "SELECT " + edgeColumns + " FROM links WHERE left_id = ? AND left_code = ?"
	args := []any{left.ID, left.Namespace}
	if len(setIDs) > 0 {
		var err error
		query, args, err = sqlx.In(query+" AND mapping_set_id IN (?)", left.ID, left.Namespace, setIDs)
		if err != nil {
			return nil, core.StorageError("edges from", left.String(), err)
		}
	}
	query += " ORDER BY id"

	var rows []edgeRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, core.StorageError("edges from", left.String(), err)
	}
	return toEdges(rows), nil
}

// EdgesBetween returns the edges of one set leaving left
func (s *SQLStore) EdgesBetween(ctx context.Context, left core.Xref, setID int64) ([]core.Edge, error) {
	return s.EdgesFrom(ctx, left, setID)
}

type anchoredRow struct {
	AnchorID   string `db:"anchor_id"`
	AnchorCode string `db:"anchor_code"`
	edgeRow
}

// EdgesViaAnchor runs the one-hop join as a single self-join
func (s *SQLStore) EdgesViaAnchor(ctx context.Context, source core.Xref) ([]AnchoredEdge, error) {
	query := s.db.Rebind(`
		SELECT a.right_id AS anchor_id, a.right_code AS anchor_code,
			b.id, b.left_id, b.left_code, b.right_id, b.right_code, b.mapping_set_id
		FROM links a
		JOIN links b ON b.left_id = a.right_id AND b.left_code = a.right_code
		WHERE a.left_id = ? AND a.left_code = ?
		ORDER BY a.id, b.id
	`)
	var rows []anchoredRow
	if err := s.db.SelectContext(ctx, &rows, query, source.ID, source.Namespace); err != nil {
		return nil, core.StorageError("edges via anchor", source.String(), err)
	}
	out := make([]AnchoredEdge, 0, len(rows))
	for _, r := range rows {
		out = append(out, AnchoredEdge{
			Anchor: core.NewXref(r.AnchorID, r.AnchorCode),
			Edge:   r.edge(),
		})
	}
	return out, nil
}

// GetEdge returns one stored edge
func (s *SQLStore) GetEdge(ctx context.Context, id int64) (*core.Edge, error) {
	var row edgeRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT "+edgeColumns+" FROM links WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundError("get edge", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, core.StorageError("get edge", strconv.FormatInt(id, 10), err)
	}
	e := row.edge()
	return &e, nil
}

// SampleEdges returns the n lowest-id edges
func (s *SQLStore) SampleEdges(ctx context.Context, n int) ([]core.Edge, error) {
	query := "SELECT " + edgeColumns + " FROM links ORDER BY id"
	var args []any
	if n > 0 {
		query += " LIMIT ?"
		args = append(args, n)
	}
	var rows []edgeRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, core.StorageError("sample edges", "", err)
	}
	return toEdges(rows), nil
}

// XrefExists reports whether x was ever loaded
func (s *SQLStore) XrefExists(ctx context.Context, x core.Xref) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind("SELECT COUNT(*) FROM datanodes WHERE id = ? AND code = ?"), x.ID, x.Namespace)
	if err != nil {
		return false, core.StorageError("xref exists", x.String(), err)
	}
	return n > 0, nil
}

// SourceNamespaces returns the codes found on the left of stored links
func (s *SQLStore) SourceNamespaces(ctx context.Context) ([]string, error) {
	var codes []string
	if err := s.db.SelectContext(ctx, &codes, "SELECT DISTINCT left_code FROM links ORDER BY left_code"); err != nil {
		return nil, core.StorageError("source namespaces", "", err)
	}
	return codes, nil
}

// TargetNamespaces returns the codes found on the right of stored links
func (s *SQLStore) TargetNamespaces(ctx context.Context) ([]string, error) {
	var codes []string
	if err := s.db.SelectContext(ctx, &codes, "SELECT DISTINCT right_code FROM links ORDER BY right_code"); err != nil {
		return nil, core.StorageError("target namespaces", "", err)
	}
	return codes, nil
}

// MappingSupported reports whether any link runs from source to target
func (s *SQLStore) MappingSupported(ctx context.Context, source, target string) (bool, error) {
	query := s.db.Rebind(`
		SELECT COUNT(*) FROM (
			SELECT 1 FROM links WHERE left_code = ? AND right_code = ? LIMIT 1
		) AS hits
	`)
	var n int
	if err := s.db.GetContext(ctx, &n, query, source, target); err != nil {
		return false, core.StorageError("mapping supported", source+"->"+target, err)
	}
	return n > 0, nil
}

// XrefsByPosition pages through the datanodes table
func (s *SQLStore) XrefsByPosition(ctx context.Context, code string, position, limit int) ([]core.Xref, error) {
	query := "SELECT id, code FROM datanodes"
	var args []any
	if code != "" {
		query += " WHERE code = ?"
		args = append(args, code)
	}
	query += " ORDER BY code, id"
	switch {
	case limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, position)
	case position > 0:
		query += s.dialect.offsetOnly()
		args = append(args, position)
	}

	var rows []xrefRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, core.StorageError("xrefs by position", code, err)
	}
	return toXrefs(rows), nil
}

type xrefRow struct {
	ID   string `db:"id"`
	Code string `db:"code"`
}

func toXrefs(rows []xrefRow) []core.Xref {
	out := make([]core.Xref, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.NewXref(r.ID, r.Code))
	}
	return out
}

// Attributes returns the values of one attribute
func (s *SQLStore) Attributes(ctx context.Context, x core.Xref, name string) ([]string, error) {
	query := s.db.Rebind(`
		SELECT attr_value FROM attributes
		WHERE id = ? AND code = ? AND attr_name = ?
		ORDER BY attr_value
	`)
	var values []string
	if err := s.db.SelectContext(ctx, &values, query, x.ID, x.Namespace, name); err != nil {
		return nil, core.StorageError("attributes", x.String(), err)
	}
	return values, nil
}

type attributeRow struct {
	ID    string `db:"id"`
	Code  string `db:"code"`
	Name  string `db:"attr_name"`
	Value string `db:"attr_value"`
}

func (r attributeRow) attribute() core.Attribute {
	return core.Attribute{Xref: core.NewXref(r.ID, r.Code), Name: r.Name, Value: r.Value}
}

// AllAttributes returns every attribute of x
func (s *SQLStore) AllAttributes(ctx context.Context, x core.Xref) (map[string][]string, error) {
	query := s.db.Rebind(`
		SELECT id, code, attr_name, attr_value FROM attributes
		WHERE id = ? AND code = ?
		ORDER BY attr_name, attr_value
	`)
	var rows []attributeRow
	if err := s.db.SelectContext(ctx, &rows, query, x.ID, x.Namespace); err != nil {
		return nil, core.StorageError("all attributes", x.String(), err)
	}
	out := make(map[string][]string)
	for _, r := range rows {
		out[r.Name] = append(out[r.Name], r.Value)
	}
	return out, nil
}

// XrefsByAttribute returns identifiers with an attribute exactly equal to value
func (s *SQLStore) XrefsByAttribute(ctx context.Context, name, value string) ([]core.Xref, error) {
	query := s.db.Rebind(`
		SELECT DISTINCT id, code FROM attributes
		WHERE attr_name = ? AND attr_value = ?
		ORDER BY code, id
	`)
	var rows []xrefRow
	if err := s.db.SelectContext(ctx, &rows, query, name, value); err != nil {
		return nil, core.StorageError("xrefs by attribute", name+"="+value, err)
	}
	return toXrefs(rows), nil
}

// AttributeNames returns every attribute name in use
func (s *SQLStore) AttributeNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, "SELECT DISTINCT attr_name FROM attributes ORDER BY attr_name"); err != nil {
		return nil, core.StorageError("attribute names", "", err)
	}
	return names, nil
}

// SearchIdentifiers matches text case-insensitively against local ids
func (s *SQLStore) SearchIdentifiers(ctx context.Context, text string, limit int) ([]core.Xref, error) {
	query := `SELECT id, code FROM datanodes WHERE LOWER(id) LIKE ? ESCAPE '\' ORDER BY code, id`
	args := []any{likePattern(text)}
	query, args = withLimit(query, args, limit)

	var rows []xrefRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, core.StorageError("search identifiers", text, err)
	}
	return toXrefs(rows), nil
}

// SearchAttributes matches text against the values of attribute name
func (s *SQLStore) SearchAttributes(ctx context.Context, text, name string, limit int) ([]core.Attribute, error) {
	query := `SELECT id, code, attr_name, attr_value FROM attributes
		WHERE attr_name = ? AND LOWER(attr_value) LIKE ? ESCAPE '\'
		ORDER BY code, id, attr_value`
	return s.searchAttributes(ctx, "search attributes", query, text, name, limit)
}

// SearchIdentifiersWithAttribute matches text against ids that carry attribute name
func (s *SQLStore) SearchIdentifiersWithAttribute(ctx context.Context, text, name string, limit int) ([]core.Attribute, error) {
	query := `SELECT id, code, attr_name, attr_value FROM attributes
		WHERE attr_name = ? AND LOWER(id) LIKE ? ESCAPE '\'
		ORDER BY code, id, attr_value`
	return s.searchAttributes(ctx, "search identifiers with attribute", query, text, name, limit)
}

func (s *SQLStore) searchAttributes(ctx context.Context, op, query, text, name string, limit int) ([]core.Attribute, error) {
	args := []any{name, likePattern(text)}
	query, args = withLimit(query, args, limit)

	var rows []attributeRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, core.StorageError(op, text, err)
	}
	out := make([]core.Attribute, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.attribute())
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a lower-cased substring pattern with wildcards escaped
func likePattern(text string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
}

func withLimit(query string, args []any, limit int) (string, []any) {
	if limit <= 0 {
		return query, args
	}
	return query + " LIMIT ?", append(args, limit)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
