package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/idmap/registry"
	"github.com/ariutta/BridgeDb/internal/server/graph"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	reg := registry.New()
	_, err := reg.Register("L", "Entrez Gene")
	require.NoError(t, err)
	_, err = reg.Register("En", "Ensembl")
	require.NoError(t, err)

	store := graph.NewMemory()
	set := &core.MappingSetInfo{Source: "L", Target: "En", Predicate: "skos:exactMatch"}
	require.NoError(t, store.CreateMappingSet(ctx, set, nil))

	l, err := store.BeginBulkLoad(ctx)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		left := core.NewXref(fmt.Sprintf("36%02d", i), "L")
		require.NoError(t, l.AddEdge(ctx, set.ID, left, core.NewXref(fmt.Sprintf("ENSG%04d", i), "En")))
	}
	for _, a := range []core.Attribute{
		{Xref: core.NewXref("3600", "L"), Name: "Symbol", Value: "INSR"},
		{Xref: core.NewXref("3600", "L"), Name: "Symbol", Value: "CD220"},
		{Xref: core.NewXref("3601", "L"), Name: "Symbol", Value: "INSL3"},
		{Xref: core.NewXref("3601", "L"), Name: "Description", Value: "insulin like 3"},
		{Xref: core.NewXref("777", "L"), Name: "Symbol", Value: "MINS"},
	} {
		require.NoError(t, l.AddAttribute(ctx, a))
	}
	require.NoError(t, l.Commit(ctx))
	return New(store, reg, zerolog.Nop(), nil)
}

func TestFreeSearchLimit(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	// ids 3600..3609 all contain "36"
	tests := []struct {
		limit int
		want  int
	}{
		{0, 10},
		{-1, 10},
		{3, 3},
		{10, 10},
		{50, 10},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit %d", tt.limit), func(t *testing.T) {
			got, err := e.FreeSearch(ctx, "36", tt.limit)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	got, err := e.FreeSearch(ctx, "ensg000", 0)
	require.NoError(t, err)
	assert.Len(t, got, 10, "case-insensitive")

	got, err = e.FreeSearch(ctx, "nothing-like-this", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAttributeSearch(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	got, err := e.AttributeSearch(ctx, "ins", "Symbol", 0)
	require.NoError(t, err)
	assert.Equal(t, map[core.Xref]string{
		core.NewXref("3600", "L"): "INSR",
		core.NewXref("3601", "L"): "INSL3",
		core.NewXref("777", "L"):  "MINS",
	}, got)

	got, err = e.AttributeSearch(ctx, "insulin", "Description", 0)
	require.NoError(t, err)
	assert.Equal(t, "insulin like 3", got[core.NewXref("3601", "L")])

	got, err = e.AttributeSearch(ctx, "ins", "Symbol", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 2)
}

func TestAttributeSearchMatchID(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	got, err := e.AttributeSearch(ctx, "3601", MatchID, 0)
	require.NoError(t, err)
	assert.Equal(t, map[core.Xref]string{core.NewXref("3601", "L"): "INSL3"}, got)

	// identifiers without a Symbol have nothing to display
	got, err = e.AttributeSearch(ctx, "3605", MatchID, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSuggest(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	got, err := e.Suggest(ctx, "360", 0)
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.Equal(t, core.NewXref("3600", "L"), got[0].Xref)
	assert.Equal(t, "CD220", got[0].Symbol, "first stored symbol in value order")
	assert.Equal(t, "Entrez Gene", got[0].Namespace)

	got, err = e.Suggest(ctx, "mins", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "MINS", got[0].Symbol)

	got, err = e.Suggest(ctx, "360", 4)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestXrefsByAttribute(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	got, err := e.XrefsByAttribute(ctx, "Symbol", "CD220")
	require.NoError(t, err)
	assert.Equal(t, core.NewXrefSet(core.NewXref("3600", "L")), got)

	// values match exactly, not by substring or case
	got, err = e.XrefsByAttribute(ctx, "Symbol", "insr")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.XrefsByAttribute(ctx, "Description", "INSL3")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAttributeNames(t *testing.T) {
	e := newEngine(t)

	names, err := e.AttributeNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Description", "Symbol"}, names)

	empty := New(graph.NewMemory(), registry.New(), zerolog.Nop(), nil)
	names, err = empty.AttributeNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, names)
}
