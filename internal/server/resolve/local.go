package resolve

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/idmap/registry"
	"github.com/ariutta/BridgeDb/internal/idmap/uri"
	"github.com/ariutta/BridgeDb/internal/metrics"
	"github.com/ariutta/BridgeDb/internal/server/graph"
)

// Local resolves against a graph.Store in the same process
type Local struct {
	store   graph.Store
	reg     *registry.Registry
	conv    *uri.Converter
	log     zerolog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// Option configures a Local engine
type Option func(*Local)

// WithLogger sets the engine logger
func WithLogger(log zerolog.Logger) Option {
	return func(e *Local) { e.log = log.With().Str("component", "resolve").Logger() }
}

// WithMetrics records query counts and result sizes
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Local) { e.metrics = m }
}

// WithTimeout bounds every storage call; expiry surfaces as ErrStorageUnavailable
func WithTimeout(d time.Duration) Option {
	return func(e *Local) { e.timeout = d }
}

// NewLocal creates an engine over store using reg for namespaces and URI patterns
func NewLocal(store graph.Store, reg *registry.Registry, opts ...Option) *Local {
	e := &Local{
		store: store,
		reg:   reg,
		conv:  uri.New(reg),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Local) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}

func (e *Local) record(op string, x core.Xref, results int, err error) {
	e.metrics.RecordQuery(op, results, err)
	if err != nil {
		e.log.Warn().Err(err).Str("operation", op).Str("xref", x.String()).Msg("query failed")
		return
	}
	e.log.Debug().Str("operation", op).Str("xref", x.String()).Int("results", results).Msg("query")
}

// filter is the set of namespace codes a query may return
type filter struct {
	all   bool
	codes map[string]bool
}

func (f filter) accepts(code string) bool {
	return f.all || f.codes[code]
}

// targetFilter resolves codes, full names and URI templates to namespace codes
func (e *Local) targetFilter(targets []string) filter {
	f := filter{codes: make(map[string]bool)}
	given := 0
	for _, t := range targets {
		if t == "" {
			continue
		}
		given++
		if code, ok := e.namespaceCode(t); ok {
			f.codes[code] = true
		}
	}
	f.all = given == 0
	return f
}

// namespaceCode resolves a code, URI template or full name to a namespace code
func (e *Local) namespaceCode(name string) (string, bool) {
	if e.reg.Has(name) {
		return name, true
	}
	if owner, ok := e.conv.PatternOwner(name); ok {
		return owner, true
	}
	if ns, err := e.reg.LookupByFullName(name); err == nil {
		return ns.Code, true
	}
	return "", false
}

// MapDirect returns the right side of every edge leaving x
func (e *Local) MapDirect(ctx context.Context, x core.Xref, targets ...string) (core.XrefSet, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	out, err := e.mapDirect(ctx, x, e.targetFilter(targets))
	e.record("map_direct", x, len(out), err)
	return out, err
}

func (e *Local) mapDirect(ctx context.Context, x core.Xref, f filter) (core.XrefSet, error) {
	edges, err := e.store.EdgesFrom(ctx, x)
	if err != nil {
		return nil, err
	}
	out := core.NewXrefSet()
	for _, edge := range edges {
		if f.accepts(edge.Right.Namespace) {
			out.Add(edge.Right)
		}
	}
	return out, nil
}

// MapIndirect returns identifiers reached through exactly one anchor, excluding x
func (e *Local) MapIndirect(ctx context.Context, x core.Xref, targets ...string) (core.XrefSet, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	out, err := e.mapIndirect(ctx, x, e.targetFilter(targets))
	e.record("map_indirect", x, len(out), err)
	return out, err
}

func (e *Local) mapIndirect(ctx context.Context, x core.Xref, f filter) (core.XrefSet, error) {
	hops, err := e.anchored(ctx, x)
	if err != nil {
		return nil, err
	}
	out := core.NewXrefSet()
	for _, hop := range hops {
		if hop.Edge.Right != x && f.accepts(hop.Edge.Right.Namespace) {
			out.Add(hop.Edge.Right)
		}
	}
	return out, nil
}

// anchored runs the one-hop join, natively when the store supports it
func (e *Local) anchored(ctx context.Context, x core.Xref) ([]graph.AnchoredEdge, error) {
	if j, ok := e.store.(graph.AnchorJoiner); ok {
		return j.EdgesViaAnchor(ctx, x)
	}

	first, err := e.store.EdgesFrom(ctx, x)
	if err != nil {
		return nil, err
	}
	seen := core.NewXrefSet()
	var out []graph.AnchoredEdge
	for _, edge := range first {
		anchor := edge.Right
		if seen.Contains(anchor) {
			continue
		}
		seen.Add(anchor)
		second, err := e.store.EdgesFrom(ctx, anchor)
		if err != nil {
			return nil, err
		}
		for _, next := range second {
			out = append(out, graph.AnchoredEdge{Anchor: anchor, Edge: next})
		}
	}
	return out, nil
}

// setCache memoises mapping set lookups within one query
type setCache struct {
	store graph.Store
	sets  map[int64]*core.MappingSetInfo
}

func newSetCache(store graph.Store) *setCache {
	return &setCache{store: store, sets: make(map[int64]*core.MappingSetInfo)}
}

func (c *setCache) get(ctx context.Context, id int64) (*core.MappingSetInfo, error) {
	if s, ok := c.sets[id]; ok {
		return s, nil
	}
	s, err := c.store.GetMappingSet(ctx, id)
	if err != nil {
		return nil, err
	}
	c.sets[id] = s
	return s, nil
}

// MapFull returns the identity mapping followed by direct and indirect
// mappings with provenance, one per target identifier
func (e *Local) MapFull(ctx context.Context, x core.Xref, targets ...string) ([]core.Mapping, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	out, err := e.mapFull(ctx, x, e.targetFilter(targets))
	e.record("map_full", x, len(out), err)
	return out, err
}

func (e *Local) mapFull(ctx context.Context, x core.Xref, f filter) ([]core.Mapping, error) {
	sets := newSetCache(e.store)
	best := make(map[core.Xref]core.Mapping)

	consider := func(m core.Mapping) {
		if m.Target == x {
			return
		}
		cur, ok := best[m.Target]
		if !ok || better(m, cur) {
			best[m.Target] = m
		}
	}

	direct, err := e.store.EdgesFrom(ctx, x)
	if err != nil {
		return nil, err
	}
	for _, edge := range direct {
		if !f.accepts(edge.Right.Namespace) {
			continue
		}
		set, err := sets.get(ctx, edge.MappingSetID)
		if core.IsNotFound(err) {
			continue // set deleted since the edge was read
		}
		if err != nil {
			return nil, err
		}
		consider(core.Mapping{
			ID:           edge.ID,
			Source:       x,
			Target:       edge.Right,
			MappingSetID: edge.MappingSetID,
			Predicate:    set.Predicate,
		})
	}

	hops, err := e.anchored(ctx, x)
	if err != nil {
		return nil, err
	}
	for _, hop := range hops {
		if !f.accepts(hop.Edge.Right.Namespace) {
			continue
		}
		set, err := sets.get(ctx, hop.Edge.MappingSetID)
		if core.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		anchor := hop.Anchor
		consider(core.Mapping{
			ID:           hop.Edge.ID,
			Source:       x,
			Target:       hop.Edge.Right,
			MappingSetID: hop.Edge.MappingSetID,
			Predicate:    set.Predicate,
			Via:          &anchor,
		})
	}

	mappings := make([]core.Mapping, 0, len(best))
	for _, m := range best {
		mappings = append(mappings, m)
	}
	sort.Slice(mappings, func(i, j int) bool {
		a, b := mappings[i].Target, mappings[j].Target
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		return a.ID < b.ID
	})

	out := make([]core.Mapping, 0, len(mappings)+1)
	out = append(out, core.IdentityMapping(x))
	out = append(out, mappings...)
	for i := range out {
		e.fillURIs(&out[i])
	}
	return out, nil
}

// better reports whether a should replace b: direct beats indirect, then lowest set id
func better(a, b core.Mapping) bool {
	if (a.Via == nil) != (b.Via == nil) {
		return a.Via == nil
	}
	return a.MappingSetID < b.MappingSetID
}

func (e *Local) fillURIs(m *core.Mapping) {
	m.SourceURIs = e.conv.ToURIs(m.Source)
	m.TargetURIs = e.conv.ToURIs(m.Target)
}

// MapInSet returns the targets of x within one mapping set
func (e *Local) MapInSet(ctx context.Context, x core.Xref, setID int64) (core.XrefSet, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	out, err := e.mapInSet(ctx, x, setID)
	e.record("map_in_set", x, len(out), err)
	return out, err
}

func (e *Local) mapInSet(ctx context.Context, x core.Xref, setID int64) (core.XrefSet, error) {
	if _, err := e.store.GetMappingSet(ctx, setID); err != nil {
		return nil, err
	}
	edges, err := e.store.EdgesBetween(ctx, x, setID)
	if err != nil {
		return nil, err
	}
	out := core.NewXrefSet()
	for _, edge := range edges {
		out.Add(edge.Right)
	}
	return out, nil
}

// GetMapping returns the stored edge with id as a mapping
func (e *Local) GetMapping(ctx context.Context, id int64) (*core.Mapping, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	edge, err := e.store.GetEdge(ctx, id)
	if err != nil {
		e.metrics.RecordQuery("get_mapping", 0, err)
		return nil, err
	}
	m, err := e.edgeMapping(ctx, newSetCache(e.store), *edge)
	e.record("get_mapping", edge.Left, 1, err)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (e *Local) edgeMapping(ctx context.Context, sets *setCache, edge core.Edge) (core.Mapping, error) {
	set, err := sets.get(ctx, edge.MappingSetID)
	if err != nil {
		return core.Mapping{}, err
	}
	m := core.Mapping{
		ID:           edge.ID,
		Source:       edge.Left,
		Target:       edge.Right,
		MappingSetID: edge.MappingSetID,
		Predicate:    set.Predicate,
	}
	e.fillURIs(&m)
	return m, nil
}

// SampleMappings returns up to n stored mappings, graph.DefaultSampleSize when n <= 0
func (e *Local) SampleMappings(ctx context.Context, n int) ([]core.Mapping, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	if n <= 0 {
		n = graph.DefaultSampleSize
	}
	edges, err := e.store.SampleEdges(ctx, n)
	if err != nil {
		e.metrics.RecordQuery("sample_mappings", 0, err)
		return nil, err
	}
	sets := newSetCache(e.store)
	out := make([]core.Mapping, 0, len(edges))
	for _, edge := range edges {
		m, err := e.edgeMapping(ctx, sets, edge)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	e.metrics.RecordQuery("sample_mappings", len(out), nil)
	return out, nil
}

// MapURI translates uri, computes its full mapping and renders each result
// through the requested templates, or through every template of the target
// namespace when none are given. An unrecognised uri maps to nothing.
func (e *Local) MapURI(ctx context.Context, u string, targetPatterns ...string) ([]string, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	x, err := e.conv.ToXref(u)
	if core.IsNotFound(err) {
		e.record("map_uri", x, 0, nil)
		return []string{}, nil
	}

	mappings, err := e.mapFull(ctx, x, e.targetFilter(targetPatterns))
	if err != nil {
		e.record("map_uri", x, 0, err)
		return nil, err
	}

	seen := make(map[string]bool)
	out := []string{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, m := range mappings {
		if len(targetPatterns) == 0 {
			for _, s := range m.TargetURIs {
				add(s)
			}
			continue
		}
		for _, p := range targetPatterns {
			if s, ok := e.conv.Expand(m.Target, p); ok {
				add(s)
			}
		}
	}
	sort.Strings(out)
	e.record("map_uri", x, len(out), nil)
	return out, nil
}

// URIExists reports whether uri translates to a loaded identifier
func (e *Local) URIExists(ctx context.Context, u string) (bool, error) {
	x, err := e.conv.ToXref(u)
	if core.IsNotFound(err) {
		return false, nil
	}
	return e.XrefExists(ctx, x)
}

// ToXref translates uri through the registered patterns
func (e *Local) ToXref(ctx context.Context, u string) (core.Xref, error) {
	return e.conv.ToXref(u)
}

// XrefExists reports whether x was ever loaded
func (e *Local) XrefExists(ctx context.Context, x core.Xref) (bool, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()
	return e.store.XrefExists(ctx, x)
}

// Attributes returns the values of one attribute of x
func (e *Local) Attributes(ctx context.Context, x core.Xref, name string) ([]string, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()
	return e.store.Attributes(ctx, x, name)
}

// AllAttributes returns every attribute of x
func (e *Local) AllAttributes(ctx context.Context, x core.Xref) (map[string][]string, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()
	return e.store.AllAttributes(ctx, x)
}

// Capabilities lists the namespaces that appear on each side of stored edges
func (e *Local) Capabilities(ctx context.Context) (core.Capabilities, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	sources, err := e.store.SourceNamespaces(ctx)
	if err != nil {
		return core.Capabilities{}, err
	}
	targets, err := e.store.TargetNamespaces(ctx)
	if err != nil {
		return core.Capabilities{}, err
	}
	return core.Capabilities{SourceNamespaces: sources, TargetNamespaces: targets, FreeSearch: true}, nil
}

// MappingSupported reports whether some stored edge leads from source to
// target. Either may be a code, a full name or a URI template; names that
// resolve to no namespace are unsupported.
func (e *Local) MappingSupported(ctx context.Context, source, target string) (bool, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	src, ok := e.namespaceCode(source)
	if !ok {
		return false, nil
	}
	tgt, ok := e.namespaceCode(target)
	if !ok {
		return false, nil
	}
	return e.store.MappingSupported(ctx, src, tgt)
}

// XrefsByPosition pages through known identifiers ordered by namespace then
// id. namespace may be empty for every namespace; limit <= 0 means no limit.
func (e *Local) XrefsByPosition(ctx context.Context, namespace string, position, limit int) ([]core.Xref, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	out, err := e.xrefsByPosition(ctx, namespace, position, limit)
	e.metrics.RecordQuery("xrefs_by_position", len(out), err)
	return out, err
}

func (e *Local) xrefsByPosition(ctx context.Context, namespace string, position, limit int) ([]core.Xref, error) {
	if position < 0 {
		return nil, core.ConfigurationErrorf("xrefs by position", "position %d is negative", position)
	}
	code := ""
	if namespace != "" {
		var ok bool
		if code, ok = e.namespaceCode(namespace); !ok {
			return []core.Xref{}, nil
		}
	}
	xrefs, err := e.store.XrefsByPosition(ctx, code, position, limit)
	if err != nil {
		return nil, err
	}
	if xrefs == nil {
		xrefs = []core.Xref{}
	}
	return xrefs, nil
}

// URIsByPosition pages through identifiers like XrefsByPosition and renders
// each one as URIs. A URI template as namespace renders through that template
// only; otherwise every template of the identifier's namespace is used.
func (e *Local) URIsByPosition(ctx context.Context, namespace string, position, limit int) ([]string, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	xrefs, err := e.xrefsByPosition(ctx, namespace, position, limit)
	if err != nil {
		e.metrics.RecordQuery("uris_by_position", 0, err)
		return nil, err
	}
	_, isTemplate := e.conv.PatternOwner(namespace)
	out := []string{}
	for _, x := range xrefs {
		if isTemplate {
			if s, ok := e.conv.Expand(x, namespace); ok {
				out = append(out, s)
			}
			continue
		}
		out = append(out, e.conv.ToURIs(x)...)
	}
	e.metrics.RecordQuery("uris_by_position", len(out), nil)
	return out, nil
}

var _ Engine = (*Local)(nil)
