// Package graphtest holds the behaviour every graph.Store backend must share.
package graphtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/graph"
)

// Factory returns an empty store; the suite closes it
type Factory func(t *testing.T) graph.Store

// Run executes the conformance suite against stores built by newStore
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s graph.Store)
	}{
		{"MappingSets", testMappingSets},
		{"BulkLoadCommit", testBulkLoadCommit},
		{"BulkLoadRollback", testBulkLoadRollback},
		{"BulkLoadUnknownSet", testBulkLoadUnknownSet},
		{"BulkLoadSingleWriter", testBulkLoadSingleWriter},
		{"EdgesFromFilter", testEdgesFromFilter},
		{"EdgesViaAnchor", testEdgesViaAnchor},
		{"DeleteMappingSets", testDeleteMappingSets},
		{"Attributes", testAttributes},
		{"Search", testSearch},
		{"AttributeLookups", testAttributeLookups},
		{"Capabilities", testCapabilities},
		{"XrefsByPosition", testXrefsByPosition},
		{"SampleAndGetEdge", testSampleAndGetEdge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close(context.Background()) })
			tt.fn(t, s)
		})
	}
}

func x(id, ns string) core.Xref { return core.NewXref(id, ns) }

func newSet(t *testing.T, s graph.Store, source, target string) int64 {
	t.Helper()
	set := &core.MappingSetInfo{Source: source, Target: target, Predicate: "http://www.w3.org/2004/02/skos/core#exactMatch"}
	require.NoError(t, s.CreateMappingSet(context.Background(), set, nil))
	return set.ID
}

func load(t *testing.T, s graph.Store, fn func(l graph.BulkLoad)) {
	t.Helper()
	ctx := context.Background()
	l, err := s.BeginBulkLoad(ctx)
	require.NoError(t, err)
	fn(l)
	require.NoError(t, l.Commit(ctx))
}

func testMappingSets(t *testing.T, s graph.Store) {
	ctx := context.Background()
	accessed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	forward := &core.MappingSetInfo{
		Source:     "L",
		Target:     "En",
		Predicate:  "http://www.w3.org/2004/02/skos/core#exactMatch",
		Symmetric:  true,
		Provenance: core.Provenance{AccessedFrom: "file:///links.tsv", AccessedOn: accessed, AccessedBy: "loader"},
	}
	inverse := &core.MappingSetInfo{
		Source:    "En",
		Target:    "L",
		Predicate: forward.Predicate,
		Symmetric: true,
	}
	require.NoError(t, s.CreateMappingSet(ctx, forward, inverse))
	assert.NotZero(t, forward.ID)
	assert.Greater(t, inverse.ID, forward.ID)
	assert.Equal(t, forward.ID, inverse.InverseOf)

	got, err := s.GetMappingSet(ctx, forward.ID)
	require.NoError(t, err)
	assert.Equal(t, "L", got.Source)
	assert.Equal(t, "En", got.Target)
	assert.True(t, got.Symmetric)
	assert.False(t, got.IsInverse())
	assert.Equal(t, "file:///links.tsv", got.Provenance.AccessedFrom)
	assert.True(t, accessed.Equal(got.Provenance.AccessedOn), "accessed_on %v", got.Provenance.AccessedOn)
	assert.False(t, got.Created.IsZero())

	gotInverse, err := s.GetMappingSet(ctx, inverse.ID)
	require.NoError(t, err)
	assert.Equal(t, forward.ID, gotInverse.InverseOf)

	third := newSet(t, s, "S", "H")
	assert.Greater(t, third, inverse.ID)

	all, err := s.ListMappingSets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{forward.ID, inverse.ID, third}, []int64{all[0].ID, all[1].ID, all[2].ID})

	_, err = s.GetMappingSet(ctx, 9999)
	assert.True(t, core.IsNotFound(err), "got %v", err)
}

func testBulkLoadCommit(t *testing.T, s graph.Store) {
	ctx := context.Background()
	setID := newSet(t, s, "L", "En")

	load(t, s, func(l graph.BulkLoad) {
		require.NoError(t, l.AddEdge(ctx, setID, x("3643", "L"), x("ENSG00000171105", "En")))
		require.NoError(t, l.AddEdge(ctx, setID, x("3643", "L"), x("ENSG00000171105", "En")))
		require.NoError(t, l.AddEdge(ctx, setID, x("1234", "L"), x("ENSG00000000001", "En")))
	})

	set, err := s.GetMappingSet(ctx, setID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, set.LinkCount)

	edges, err := s.EdgesFrom(ctx, x("3643", "L"))
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, x("ENSG00000171105", "En"), edges[0].Right)
	assert.Equal(t, setID, edges[0].MappingSetID)
	assert.NotZero(t, edges[0].ID)

	ok, err := s.XrefExists(ctx, x("ENSG00000171105", "En"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.XrefExists(ctx, x("nope", "L"))
	require.NoError(t, err)
	assert.False(t, ok)

	// a second load appends
	load(t, s, func(l graph.BulkLoad) {
		require.NoError(t, l.AddEdge(ctx, setID, x("3643", "L"), x("ENSG00000999999", "En")))
	})
	set, err = s.GetMappingSet(ctx, setID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, set.LinkCount)
}

func testBulkLoadRollback(t *testing.T, s graph.Store) {
	ctx := context.Background()
	setID := newSet(t, s, "L", "En")

	l, err := s.BeginBulkLoad(ctx)
	require.NoError(t, err)
	require.NoError(t, l.AddEdge(ctx, setID, x("3643", "L"), x("ENSG00000171105", "En")))

	// uncommitted rows are invisible
	edges, err := s.EdgesFrom(ctx, x("3643", "L"))
	require.NoError(t, err)
	assert.Empty(t, edges)

	require.NoError(t, l.Rollback(ctx))
	assert.Error(t, l.Commit(ctx), "commit after rollback")

	edges, err = s.EdgesFrom(ctx, x("3643", "L"))
	require.NoError(t, err)
	assert.Empty(t, edges)

	// the writer slot is released
	l, err = s.BeginBulkLoad(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Rollback(ctx))
}

func testBulkLoadUnknownSet(t *testing.T, s graph.Store) {
	ctx := context.Background()
	setID := newSet(t, s, "L", "En")

	l, err := s.BeginBulkLoad(ctx)
	require.NoError(t, err)
	require.NoError(t, l.AddEdge(ctx, setID, x("1", "L"), x("2", "En")))
	require.NoError(t, l.AddEdge(ctx, setID+100, x("1", "L"), x("3", "En")))
	err = l.Commit(ctx)
	assert.True(t, core.IsNotFound(err), "got %v", err)

	edges, err := s.EdgesFrom(ctx, x("1", "L"))
	require.NoError(t, err)
	assert.Empty(t, edges, "failed load must leave nothing behind")
}

func testBulkLoadSingleWriter(t *testing.T, s graph.Store) {
	ctx := context.Background()
	first, err := s.BeginBulkLoad(ctx)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = s.BeginBulkLoad(waitCtx)
	assert.True(t, core.IsStorageUnavailable(err), "got %v", err)

	require.NoError(t, first.Commit(ctx))
}

func testEdgesFromFilter(t *testing.T, s graph.Store) {
	ctx := context.Background()
	toEn := newSet(t, s, "L", "En")
	toS := newSet(t, s, "L", "S")

	load(t, s, func(l graph.BulkLoad) {
		require.NoError(t, l.AddEdge(ctx, toEn, x("3643", "L"), x("ENSG00000171105", "En")))
		require.NoError(t, l.AddEdge(ctx, toS, x("3643", "L"), x("P06213", "S")))
	})

	all, err := s.EdgesFrom(ctx, x("3643", "L"))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyS, err := s.EdgesFrom(ctx, x("3643", "L"), toS)
	require.NoError(t, err)
	require.Len(t, onlyS, 1)
	assert.Equal(t, x("P06213", "S"), onlyS[0].Right)

	between, err := s.EdgesBetween(ctx, x("3643", "L"), toEn)
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.Equal(t, "En", between[0].Right.Namespace)
}

func testEdgesViaAnchor(t *testing.T, s graph.Store) {
	joiner, ok := s.(graph.AnchorJoiner)
	if !ok {
		t.Skip("store has no anchor join")
	}
	ctx := context.Background()
	ab := newSet(t, s, "A", "B")
	bc := newSet(t, s, "B", "C")

	load(t, s, func(l graph.BulkLoad) {
		require.NoError(t, l.AddEdge(ctx, ab, x("a", "A"), x("b", "B")))
		require.NoError(t, l.AddEdge(ctx, bc, x("b", "B"), x("c", "C")))
	})

	got, err := joiner.EdgesViaAnchor(ctx, x("a", "A"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, x("b", "B"), got[0].Anchor)
	assert.Equal(t, x("c", "C"), got[0].Edge.Right)
	assert.Equal(t, bc, got[0].Edge.MappingSetID)

	none, err := joiner.EdgesViaAnchor(ctx, x("c", "C"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testDeleteMappingSets(t *testing.T, s graph.Store) {
	ctx := context.Background()
	keep := newSet(t, s, "L", "S")
	drop := newSet(t, s, "L", "En")

	load(t, s, func(l graph.BulkLoad) {
		require.NoError(t, l.AddEdge(ctx, keep, x("3643", "L"), x("P06213", "S")))
		require.NoError(t, l.AddEdge(ctx, drop, x("3643", "L"), x("ENSG00000171105", "En")))
	})

	require.NoError(t, s.DeleteMappingSets(ctx, drop))

	_, err := s.GetMappingSet(ctx, drop)
	assert.True(t, core.IsNotFound(err))

	edges, err := s.EdgesFrom(ctx, x("3643", "L"))
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, keep, edges[0].MappingSetID)

	err = s.DeleteMappingSets(ctx, drop)
	assert.True(t, core.IsNotFound(err), "got %v", err)
}

func testAttributes(t *testing.T, s graph.Store) {
	ctx := context.Background()
	gene := x("3643", "L")

	load(t, s, func(l graph.BulkLoad) {
		require.NoError(t, l.AddAttribute(ctx, core.Attribute{Xref: gene, Name: "Symbol", Value: "INSR"}))
		require.NoError(t, l.AddAttribute(ctx, core.Attribute{Xref: gene, Name: "Synonyms", Value: "CD220"}))
		require.NoError(t, l.AddAttribute(ctx, core.Attribute{Xref: gene, Name: "Synonyms", Value: "HHF5"}))
		require.NoError(t, l.AddAttribute(ctx, core.Attribute{Xref: gene, Name: "Synonyms", Value: "HHF5"}))
	})

	symbols, err := s.Attributes(ctx, gene, "Symbol")
	require.NoError(t, err)
	assert.Equal(t, []string{"INSR"}, symbols)

	all, err := s.AllAttributes(ctx, gene)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"Symbol":   {"INSR"},
		"Synonyms": {"CD220", "HHF5"},
	}, all)

	none, err := s.Attributes(ctx, x("0", "L"), "Symbol")
	require.NoError(t, err)
	assert.Empty(t, none)

	ok, err := s.XrefExists(ctx, gene)
	require.NoError(t, err)
	assert.True(t, ok, "attribute owners are known identifiers")
}

func testSearch(t *testing.T, s graph.Store) {
	ctx := context.Background()
	setID := newSet(t, s, "L", "En")

	load(t, s, func(l graph.BulkLoad) {
		require.NoError(t, l.AddEdge(ctx, setID, x("3643", "L"), x("ENSG00000171105", "En")))
		require.NoError(t, l.AddEdge(ctx, setID, x("1643", "L"), x("ENSG00000000005", "En")))
		require.NoError(t, l.AddAttribute(ctx, core.Attribute{Xref: x("3643", "L"), Name: "Symbol", Value: "INSR"}))
		require.NoError(t, l.AddAttribute(ctx, core.Attribute{Xref: x("1643", "L"), Name: "Symbol", Value: "DDB2"}))
		require.NoError(t, l.AddAttribute(ctx, core.Attribute{Xref: x("9", "L"), Name: "Symbol", Value: "100%_ins"}))
	})

	ids, err := s.SearchIdentifiers(ctx, "643", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.Xref{x("3643", "L"), x("1643", "L")}, ids)

	ids, err = s.SearchIdentifiers(ctx, "ensg", 0)
	require.NoError(t, err)
	assert.Len(t, ids, 2, "identifier search is case-insensitive")

	ids, err = s.SearchIdentifiers(ctx, "643", 1)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	attrs, err := s.SearchAttributes(ctx, "ins", "Symbol", 0)
	require.NoError(t, err)
	assert.Len(t, attrs, 2)

	// wildcards in the query are literal
	attrs, err = s.SearchAttributes(ctx, "0%_", "Symbol", 0)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, x("9", "L"), attrs[0].Xref)

	attrs, err = s.SearchAttributes(ctx, "insr", "Description", 0)
	require.NoError(t, err)
	assert.Empty(t, attrs)

	attrs, err = s.SearchIdentifiersWithAttribute(ctx, "3643", "Symbol", 0)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "INSR", attrs[0].Value)
}

func testAttributeLookups(t *testing.T, s graph.Store) {
	ctx := context.Background()

	names, err := s.AttributeNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	load(t, s, func(l graph.BulkLoad) {
		require.NoError(t, l.AddAttribute(ctx, core.Attribute{Xref: x("3643", "L"), Name: "Symbol", Value: "INSR"}))
		require.NoError(t, l.AddAttribute(ctx, core.Attribute{Xref: x("3643", "L"), Name: "Synonyms", Value: "CD220"}))
		require.NoError(t, l.AddAttribute(ctx, core.Attribute{Xref: x("ENSG00000171105", "En"), Name: "Symbol", Value: "INSR"}))
		require.NoError(t, l.AddAttribute(ctx, core.Attribute{Xref: x("1643", "L"), Name: "Symbol", Value: "DDB2"}))
	})

	names, err = s.AttributeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Symbol", "Synonyms"}, names)

	refs, err := s.XrefsByAttribute(ctx, "Symbol", "INSR")
	require.NoError(t, err)
	assert.Equal(t, []core.Xref{x("ENSG00000171105", "En"), x("3643", "L")}, refs)

	// exact match only
	refs, err = s.XrefsByAttribute(ctx, "Symbol", "ins")
	require.NoError(t, err)
	assert.Empty(t, refs)

	refs, err = s.XrefsByAttribute(ctx, "Synonyms", "INSR")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func testCapabilities(t *testing.T, s graph.Store) {
	ctx := context.Background()

	supported, err := s.MappingSupported(ctx, "L", "En")
	require.NoError(t, err)
	assert.False(t, supported)

	genes := newSet(t, s, "L", "En")
	chem := newSet(t, s, "Ce", "Wd")
	load(t, s, func(l graph.BulkLoad) {
		require.NoError(t, l.AddEdge(ctx, genes, x("3643", "L"), x("ENSG00000171105", "En")))
		require.NoError(t, l.AddEdge(ctx, chem, x("15377", "Ce"), x("Q283", "Wd")))
	})

	sources, err := s.SourceNamespaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ce", "L"}, sources)

	targets, err := s.TargetNamespaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"En", "Wd"}, targets)

	supported, err = s.MappingSupported(ctx, "L", "En")
	require.NoError(t, err)
	assert.True(t, supported)

	supported, err = s.MappingSupported(ctx, "En", "L")
	require.NoError(t, err)
	assert.False(t, supported, "direction matters")

	supported, err = s.MappingSupported(ctx, "L", "Wd")
	require.NoError(t, err)
	assert.False(t, supported)

	// deleting the only set of a pair removes the capability
	require.NoError(t, s.DeleteMappingSets(ctx, chem))
	sources, err = s.SourceNamespaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"L"}, sources)
}

func testXrefsByPosition(t *testing.T, s graph.Store) {
	ctx := context.Background()
	setID := newSet(t, s, "L", "En")
	load(t, s, func(l graph.BulkLoad) {
		require.NoError(t, l.AddEdge(ctx, setID, x("1", "L"), x("E1", "En")))
		require.NoError(t, l.AddEdge(ctx, setID, x("2", "L"), x("E2", "En")))
		require.NoError(t, l.AddEdge(ctx, setID, x("3", "L"), x("E3", "En")))
	})

	tests := []struct {
		name     string
		code     string
		position int
		limit    int
		want     []core.Xref
	}{
		{"first page of one namespace", "L", 0, 2, []core.Xref{x("1", "L"), x("2", "L")}},
		{"second page of one namespace", "L", 2, 2, []core.Xref{x("3", "L")}},
		{"offset without limit", "L", 1, 0, []core.Xref{x("2", "L"), x("3", "L")}},
		{"every namespace", "", 2, 2, []core.Xref{x("E3", "En"), x("1", "L")}},
		{"single position", "En", 1, 1, []core.Xref{x("E2", "En")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.XrefsByPosition(ctx, tt.code, tt.position, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	past, err := s.XrefsByPosition(ctx, "L", 10, 1)
	require.NoError(t, err)
	assert.Empty(t, past)

	unknown, err := s.XrefsByPosition(ctx, "Zz", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, unknown)

	all, err := s.XrefsByPosition(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func testSampleAndGetEdge(t *testing.T, s graph.Store) {
	ctx := context.Background()
	setID := newSet(t, s, "L", "En")

	load(t, s, func(l graph.BulkLoad) {
		for _, id := range []string{"1", "2", "3", "4", "5", "6", "7"} {
			require.NoError(t, l.AddEdge(ctx, setID, x(id, "L"), x("E"+id, "En")))
		}
	})

	sample, err := s.SampleEdges(ctx, graph.DefaultSampleSize)
	require.NoError(t, err)
	require.Len(t, sample, graph.DefaultSampleSize)

	edge, err := s.GetEdge(ctx, sample[0].ID)
	require.NoError(t, err)
	assert.Equal(t, sample[0], *edge)

	_, err = s.GetEdge(ctx, sample[len(sample)-1].ID+1000)
	assert.True(t, core.IsNotFound(err), "got %v", err)
}
