// Package apitest starts an API server over a small in-memory corpus.
//
// The corpus holds two symmetric mapping sets, ChEBI <-> Wikidata and
// Entrez Gene <-> Wikidata, joined through the anchor Wd:Q283, plus a
// Symbol attribute on each of the non-anchor identifiers.
package apitest

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/idmap/registry"
	"github.com/ariutta/BridgeDb/internal/metrics"
	"github.com/ariutta/BridgeDb/internal/server/api"
	"github.com/ariutta/BridgeDb/internal/server/catalog"
	"github.com/ariutta/BridgeDb/internal/server/graph"
	"github.com/ariutta/BridgeDb/internal/server/resolve"
	"github.com/ariutta/BridgeDb/internal/server/search"
	"github.com/ariutta/BridgeDb/internal/server/stats"
)

// URI templates registered for the corpus namespaces
const (
	ChEBIPattern    = "http://purl.obolibrary.org/obo/CHEBI_{id}"
	WikidataPattern = "http://www.wikidata.org/entity/{id}"
	GenePattern     = "https://identifiers.org/ncbigene/{id}"
)

// Corpus identifiers
var (
	Water  = core.NewXref("15377", "Ce")
	Anchor = core.NewXref("Q283", "Wd")
	Gene   = core.NewXref("1234", "L")
)

// Fixture is a running test server and the services behind it
type Fixture struct {
	Server   *httptest.Server
	Store    graph.Store
	Catalog  *catalog.Catalog
	Registry *registry.Registry
	Gatherer *prometheus.Registry

	ChEBISet int64 // Ce -> Wd, inverse is its partner
	GeneSet  int64 // L -> Wd
}

// New starts a server over the corpus; it is closed when the test ends
func New(t *testing.T) *Fixture {
	t.Helper()
	ctx := context.Background()

	reg := registry.New()
	for _, ns := range []struct{ code, name, pattern string }{
		{"Ce", "ChEBI", ChEBIPattern},
		{"Wd", "Wikidata", WikidataPattern},
		{"L", "Entrez Gene", GenePattern},
	} {
		_, err := reg.Register(ns.code, ns.name, registry.WithPattern(ns.pattern))
		require.NoError(t, err)
	}

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	log := zerolog.Nop()
	store := graph.NewMemory()
	cat := catalog.New(store, reg, log, m)

	f := &Fixture{Store: store, Catalog: cat, Registry: reg, Gatherer: promReg}
	f.ChEBISet = f.createSet(t, "Ce", "Wd")
	f.GeneSet = f.createSet(t, "L", "Wd")

	load, err := cat.BeginLoad(ctx)
	require.NoError(t, err)
	require.NoError(t, load.AddEdge(ctx, f.ChEBISet, Water, Anchor))
	require.NoError(t, load.AddEdge(ctx, f.GeneSet, Gene, Anchor))
	require.NoError(t, load.AddAttribute(ctx, core.Attribute{Xref: Water, Name: search.SymbolAttribute, Value: "water"}))
	require.NoError(t, load.AddAttribute(ctx, core.Attribute{Xref: Gene, Name: search.SymbolAttribute, Value: "GENE1"}))
	require.NoError(t, load.Commit(ctx))

	srv := api.New(api.Config{
		Engine:   resolve.NewLocal(store, reg, resolve.WithLogger(log), resolve.WithMetrics(m)),
		Searcher: search.New(store, reg, log, m),
		Stats:    stats.New(cat),
		Catalog:  cat,
		Registry: reg,
		Logger:   log,
		Metrics:  m,
		Gatherer: promReg,
	})
	f.Server = httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		f.Server.Close()
		store.Close(context.Background())
	})
	return f
}

func (f *Fixture) createSet(t *testing.T, source, target string) int64 {
	t.Helper()
	set, err := f.Catalog.CreateMappingSet(context.Background(), catalog.Spec{
		Source:    source,
		Target:    target,
		Predicate: catalog.SkosExactMatch,
		Symmetric: true,
	})
	require.NoError(t, err)
	return set.ID
}
