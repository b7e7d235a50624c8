package graph

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

var errClosed = errors.New("store closed")

type edgeKey struct {
	left, right core.Xref
	setID       int64
}

// MemoryStore implements Store in process memory.
// Reads share an RWMutex; a bulk load applies all of its writes under one
// exclusive lock at Commit, so readers never see a partial load.
type MemoryStore struct {
	mu       sync.RWMutex
	loadSem  chan struct{}
	closed   bool
	nextSet  int64
	nextEdge int64
	sets     map[int64]*core.MappingSetInfo
	edges    map[int64]core.Edge
	byLeft   map[core.Xref][]int64
	edgeKeys map[edgeKey]int64
	nodes    map[core.Xref]struct{}
	attrs    map[core.Xref]map[string][]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *MemoryStore {
	return &MemoryStore{
		loadSem:  make(chan struct{}, 1),
		sets:     make(map[int64]*core.MappingSetInfo),
		edges:    make(map[int64]core.Edge),
		byLeft:   make(map[core.Xref][]int64),
		edgeKeys: make(map[edgeKey]int64),
		nodes:    make(map[core.Xref]struct{}),
		attrs:    make(map[core.Xref]map[string][]string),
	}
}

// Close marks the store closed
func (m *MemoryStore) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryStore) check(op string) error {
	if m.closed {
		return core.StorageError(op, "", errClosed)
	}
	return nil
}

// CreateMappingSet stores set and, when given, its inverse
func (m *MemoryStore) CreateMappingSet(ctx context.Context, set *core.MappingSetInfo, inverse *core.MappingSetInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("create mapping set"); err != nil {
		return err
	}

	now := time.Now().UTC()
	m.nextSet++
	set.ID = m.nextSet
	set.Created = now
	set.LinkCount = 0
	stored := *set
	m.sets[set.ID] = &stored

	if inverse != nil {
		m.nextSet++
		inverse.ID = m.nextSet
		inverse.InverseOf = set.ID
		inverse.Created = now
		inverse.LinkCount = 0
		storedInverse := *inverse
		m.sets[inverse.ID] = &storedInverse
	}
	return nil
}

// GetMappingSet returns one catalog row
func (m *MemoryStore) GetMappingSet(ctx context.Context, id int64) (*core.MappingSetInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("get mapping set"); err != nil {
		return nil, err
	}
	set, ok := m.sets[id]
	if !ok {
		return nil, core.NotFoundError("get mapping set", strconv.FormatInt(id, 10))
	}
	c := *set
	return &c, nil
}

// ListMappingSets returns every catalog row ordered by id
func (m *MemoryStore) ListMappingSets(ctx context.Context) ([]*core.MappingSetInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("list mapping sets"); err != nil {
		return nil, err
	}
	out := make([]*core.MappingSetInfo, 0, len(m.sets))
	for _, set := range m.sets {
		c := *set
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteMappingSets removes the sets and their edges under one lock
func (m *MemoryStore) DeleteMappingSets(ctx context.Context, ids ...int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("delete mapping sets"); err != nil {
		return err
	}
	doomed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if _, ok := m.sets[id]; !ok {
			return core.NotFoundError("delete mapping set", strconv.FormatInt(id, 10))
		}
		doomed[id] = true
	}

	for id, e := range m.edges {
		if !doomed[e.MappingSetID] {
			continue
		}
		delete(m.edges, id)
		delete(m.edgeKeys, edgeKey{e.Left, e.Right, e.MappingSetID})
	}
	for left, edgeIDs := range m.byLeft {
		kept := edgeIDs[:0]
		for _, id := range edgeIDs {
			if _, ok := m.edges[id]; ok {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(m.byLeft, left)
		} else {
			m.byLeft[left] = kept
		}
	}
	for id := range doomed {
		delete(m.sets, id)
	}
	return nil
}

// BeginBulkLoad waits for any running load and starts a new one
func (m *MemoryStore) BeginBulkLoad(ctx context.Context) (BulkLoad, error) {
	select {
	case m.loadSem <- struct{}{}:
	case <-ctx.Done():
		return nil, core.StorageError("begin bulk load", "", ctx.Err())
	}

	m.mu.RLock()
	err := m.check("begin bulk load")
	m.mu.RUnlock()
	if err != nil {
		<-m.loadSem
		return nil, err
	}
	return &memoryLoad{store: m}, nil
}

type pendingEdge struct {
	setID       int64
	left, right core.Xref
}

type memoryLoad struct {
	store *MemoryStore
	edges []pendingEdge
	attrs []core.Attribute
	done  bool
}

func (l *memoryLoad) AddEdge(ctx context.Context, setID int64, left, right core.Xref) error {
	if l.done {
		return core.StorageError("add edge", left.String(), errLoadFinished)
	}
	l.edges = append(l.edges, pendingEdge{setID: setID, left: left, right: right})
	return nil
}

func (l *memoryLoad) AddAttribute(ctx context.Context, attr core.Attribute) error {
	if l.done {
		return core.StorageError("add attribute", attr.Xref.String(), errLoadFinished)
	}
	l.attrs = append(l.attrs, attr)
	return nil
}

func (l *memoryLoad) Commit(ctx context.Context) error {
	if l.done {
		return core.StorageError("commit bulk load", "", errLoadFinished)
	}
	l.done = true
	defer func() { <-l.store.loadSem }()

	if err := ctx.Err(); err != nil {
		return core.StorageError("commit bulk load", "", err)
	}

	m := l.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("commit bulk load"); err != nil {
		return err
	}
	for _, p := range l.edges {
		if _, ok := m.sets[p.setID]; !ok {
			return core.NotFoundError("commit bulk load: mapping set", strconv.FormatInt(p.setID, 10))
		}
	}

	for _, p := range l.edges {
		key := edgeKey{p.left, p.right, p.setID}
		m.nodes[p.left] = struct{}{}
		m.nodes[p.right] = struct{}{}
		if _, dup := m.edgeKeys[key]; dup {
			continue
		}
		m.nextEdge++
		id := m.nextEdge
		m.edges[id] = core.Edge{ID: id, Left: p.left, Right: p.right, MappingSetID: p.setID}
		m.edgeKeys[key] = id
		m.byLeft[p.left] = append(m.byLeft[p.left], id)
		m.sets[p.setID].LinkCount++
	}

	for _, a := range l.attrs {
		m.nodes[a.Xref] = struct{}{}
		byName := m.attrs[a.Xref]
		if byName == nil {
			byName = make(map[string][]string)
			m.attrs[a.Xref] = byName
		}
		if !containsString(byName[a.Name], a.Value) {
			byName[a.Name] = append(byName[a.Name], a.Value)
		}
	}
	return nil
}

func (l *memoryLoad) Rollback(ctx context.Context) error {
	if l.done {
		return nil
	}
	l.done = true
	l.edges, l.attrs = nil, nil
	<-l.store.loadSem
	return nil
}

// EdgesFrom returns edges whose left side is left, optionally limited to setIDs
func (m *MemoryStore) EdgesFrom(ctx context.Context, left core.Xref, setIDs ...int64) ([]core.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("edges from"); err != nil {
		return nil, err
	}
	return m.edgesFromLocked(left, setIDs...), nil
}

func (m *MemoryStore) edgesFromLocked(left core.Xref, setIDs ...int64) []core.Edge {
	var out []core.Edge
	for _, id := range m.byLeft[left] {
		e := m.edges[id]
		if len(setIDs) > 0 && !containsInt64(setIDs, e.MappingSetID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// EdgesBetween returns the edges of one set leaving left
func (m *MemoryStore) EdgesBetween(ctx context.Context, left core.Xref, setID int64) ([]core.Edge, error) {
	return m.EdgesFrom(ctx, left, setID)
}

// EdgesViaAnchor runs the one-hop join under a single read lock
func (m *MemoryStore) EdgesViaAnchor(ctx context.Context, source core.Xref) ([]AnchoredEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("edges via anchor"); err != nil {
		return nil, err
	}
	var out []AnchoredEdge
	for _, first := range m.edgesFromLocked(source) {
		for _, second := range m.edgesFromLocked(first.Right) {
			out = append(out, AnchoredEdge{Anchor: first.Right, Edge: second})
		}
	}
	return out, nil
}

// GetEdge returns one stored edge
func (m *MemoryStore) GetEdge(ctx context.Context, id int64) (*core.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("get edge"); err != nil {
		return nil, err
	}
	e, ok := m.edges[id]
	if !ok {
		return nil, core.NotFoundError("get edge", strconv.FormatInt(id, 10))
	}
	return &e, nil
}

// SampleEdges returns the n lowest-id edges
func (m *MemoryStore) SampleEdges(ctx context.Context, n int) ([]core.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("sample edges"); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(m.edges))
	for id := range m.edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	out := make([]core.Edge, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.edges[id])
	}
	return out, nil
}

// XrefExists reports whether x was ever loaded
func (m *MemoryStore) XrefExists(ctx context.Context, x core.Xref) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("xref exists"); err != nil {
		return false, err
	}
	_, ok := m.nodes[x]
	return ok, nil
}

// SourceNamespaces returns the codes found on the left of stored edges
func (m *MemoryStore) SourceNamespaces(ctx context.Context) ([]string, error) {
	return m.edgeCodes("source namespaces", func(e core.Edge) string { return e.Left.Namespace })
}

// TargetNamespaces returns the codes found on the right of stored edges
func (m *MemoryStore) TargetNamespaces(ctx context.Context) ([]string, error) {
	return m.edgeCodes("target namespaces", func(e core.Edge) string { return e.Right.Namespace })
}

func (m *MemoryStore) edgeCodes(op string, code func(core.Edge) string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(op); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, e := range m.edges {
		seen[code(e)] = struct{}{}
	}
	return sortedKeys(seen), nil
}

// MappingSupported reports whether any edge runs from source to target
func (m *MemoryStore) MappingSupported(ctx context.Context, source, target string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("mapping supported"); err != nil {
		return false, err
	}
	for _, e := range m.edges {
		if e.Left.Namespace == source && e.Right.Namespace == target {
			return true, nil
		}
	}
	return false, nil
}

// XrefsByPosition pages through the known identifiers
func (m *MemoryStore) XrefsByPosition(ctx context.Context, code string, position, limit int) ([]core.Xref, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("xrefs by position"); err != nil {
		return nil, err
	}
	var out []core.Xref
	skipped := 0
	for _, x := range m.sortedNodes() {
		if code != "" && x.Namespace != code {
			continue
		}
		if skipped < position {
			skipped++
			continue
		}
		out = append(out, x)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Attributes returns the values of one attribute
func (m *MemoryStore) Attributes(ctx context.Context, x core.Xref, name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("attributes"); err != nil {
		return nil, err
	}
	return sortedCopy(m.attrs[x][name]), nil
}

// AllAttributes returns every attribute of x
func (m *MemoryStore) AllAttributes(ctx context.Context, x core.Xref) (map[string][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("all attributes"); err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(m.attrs[x]))
	for name, values := range m.attrs[x] {
		out[name] = sortedCopy(values)
	}
	return out, nil
}

// XrefsByAttribute returns identifiers with an attribute exactly equal to value
func (m *MemoryStore) XrefsByAttribute(ctx context.Context, name, value string) ([]core.Xref, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("xrefs by attribute"); err != nil {
		return nil, err
	}
	var out []core.Xref
	for _, x := range m.sortedNodes() {
		if containsString(m.attrs[x][name], value) {
			out = append(out, x)
		}
	}
	return out, nil
}

// AttributeNames returns every attribute name in use
func (m *MemoryStore) AttributeNames(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("attribute names"); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, byName := range m.attrs {
		for name := range byName {
			seen[name] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// SearchIdentifiers matches text case-insensitively against local ids
func (m *MemoryStore) SearchIdentifiers(ctx context.Context, text string, limit int) ([]core.Xref, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("search identifiers"); err != nil {
		return nil, err
	}
	needle := strings.ToLower(text)
	var out []core.Xref
	for _, x := range m.sortedNodes() {
		if strings.Contains(strings.ToLower(x.ID), needle) {
			out = append(out, x)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// SearchAttributes matches text against the values of attribute name
func (m *MemoryStore) SearchAttributes(ctx context.Context, text, name string, limit int) ([]core.Attribute, error) {
	return m.searchAttrs("search attributes", limit, name, func(x core.Xref, value string) bool {
		return strings.Contains(strings.ToLower(value), strings.ToLower(text))
	})
}

// SearchIdentifiersWithAttribute matches text against ids that carry attribute name
func (m *MemoryStore) SearchIdentifiersWithAttribute(ctx context.Context, text, name string, limit int) ([]core.Attribute, error) {
	return m.searchAttrs("search identifiers with attribute", limit, name, func(x core.Xref, value string) bool {
		return strings.Contains(strings.ToLower(x.ID), strings.ToLower(text))
	})
}

func (m *MemoryStore) searchAttrs(op string, limit int, name string, match func(core.Xref, string) bool) ([]core.Attribute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(op); err != nil {
		return nil, err
	}
	var out []core.Attribute
	for _, x := range m.sortedNodes() {
		for _, value := range sortedCopy(m.attrs[x][name]) {
			if !match(x, value) {
				continue
			}
			out = append(out, core.Attribute{Xref: x, Name: name, Value: value})
			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) sortedNodes() []core.Xref {
	nodes := make([]core.Xref, 0, len(m.nodes))
	for x := range m.nodes {
		nodes = append(nodes, x)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Namespace != nodes[j].Namespace {
			return nodes[i].Namespace < nodes[j].Namespace
		}
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

var errLoadFinished = errors.New("bulk load already finished")

func containsInt64(list []int64, v int64) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
