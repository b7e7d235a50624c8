// Package search finds identifiers by substring of their local id or of an attribute value.
//
// Matching is case-insensitive. A limit of zero or less means no limit; with a
// limit, which matches are returned is unspecified.
package search

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/idmap/registry"
	"github.com/ariutta/BridgeDb/internal/metrics"
	"github.com/ariutta/BridgeDb/internal/server/graph"
)

const (
	// MatchID as an attribute name searches identifiers and returns their Symbol
	MatchID = "MATCH_ID"

	// SymbolAttribute holds the display name of an identifier
	SymbolAttribute = "Symbol"
)

// Searcher is implemented by the local engine and the remote client
type Searcher interface {
	FreeSearch(ctx context.Context, text string, limit int) (core.XrefSet, error)
	AttributeSearch(ctx context.Context, text, attribute string, limit int) (map[core.Xref]string, error)
	Suggest(ctx context.Context, text string, limit int) ([]Suggestion, error)
	XrefsByAttribute(ctx context.Context, attribute, value string) (core.XrefSet, error)
	AttributeNames(ctx context.Context) ([]string, error)
}

// Suggestion is one symbol-or-id search hit prepared for display
type Suggestion struct {
	Xref      core.Xref `json:"xref"`
	Symbol    string    `json:"symbol,omitempty"`
	Namespace string    `json:"namespace_name,omitempty"`
}

// Engine searches a graph.Store
type Engine struct {
	store   graph.Store
	reg     *registry.Registry
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a search engine; reg supplies namespace names for suggestions
func New(store graph.Store, reg *registry.Registry, log zerolog.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		store:   store,
		reg:     reg,
		log:     log.With().Str("component", "search").Logger(),
		metrics: m,
	}
}

// FreeSearch matches text against identifier local ids
func (e *Engine) FreeSearch(ctx context.Context, text string, limit int) (core.XrefSet, error) {
	ids, err := e.store.SearchIdentifiers(ctx, text, limit)
	e.metrics.RecordQuery("free_search", len(ids), err)
	if err != nil {
		return nil, err
	}
	return core.NewXrefSet(ids...), nil
}

// AttributeSearch matches text against the values of attribute and returns
// one matched value per identifier. With MatchID it matches identifiers and
// returns their Symbol.
func (e *Engine) AttributeSearch(ctx context.Context, text, attribute string, limit int) (map[core.Xref]string, error) {
	var (
		attrs []core.Attribute
		err   error
	)
	if attribute == MatchID {
		attrs, err = e.store.SearchIdentifiersWithAttribute(ctx, text, SymbolAttribute, limit)
	} else {
		attrs, err = e.store.SearchAttributes(ctx, text, attribute, limit)
	}
	e.metrics.RecordQuery("attribute_search", len(attrs), err)
	if err != nil {
		return nil, err
	}

	out := make(map[core.Xref]string, len(attrs))
	for _, a := range attrs {
		if _, ok := out[a.Xref]; !ok {
			out[a.Xref] = a.Value
		}
	}
	e.log.Debug().Str("text", text).Str("attribute", attribute).Int("results", len(out)).Msg("attribute search")
	return out, nil
}

// Suggest merges identifier and Symbol matches, attaching a Symbol and the
// namespace name to each hit
func (e *Engine) Suggest(ctx context.Context, text string, limit int) ([]Suggestion, error) {
	ids, err := e.store.SearchIdentifiers(ctx, text, limit)
	if err != nil {
		return nil, err
	}
	symbols, err := e.store.SearchAttributes(ctx, text, SymbolAttribute, limit)
	if err != nil {
		return nil, err
	}

	found := make(map[core.Xref]string)
	for _, x := range ids {
		found[x] = ""
	}
	for _, a := range symbols {
		if found[a.Xref] == "" {
			found[a.Xref] = a.Value
		}
	}

	out := make([]Suggestion, 0, len(found))
	for x, symbol := range found {
		if symbol == "" {
			values, err := e.store.Attributes(ctx, x, SymbolAttribute)
			if err != nil {
				return nil, err
			}
			if len(values) > 0 {
				symbol = values[0]
			}
		}
		s := Suggestion{Xref: x, Symbol: symbol}
		if ns, err := e.reg.LookupByCode(x.Namespace); err == nil {
			s.Namespace = ns.FullName
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Xref.Namespace != out[j].Xref.Namespace {
			return out[i].Xref.Namespace < out[j].Xref.Namespace
		}
		return out[i].Xref.ID < out[j].Xref.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	e.metrics.RecordQuery("suggest", len(out), nil)
	return out, nil
}

// XrefsByAttribute returns the identifiers whose attribute equals value exactly
func (e *Engine) XrefsByAttribute(ctx context.Context, attribute, value string) (core.XrefSet, error) {
	ids, err := e.store.XrefsByAttribute(ctx, attribute, value)
	e.metrics.RecordQuery("xrefs_by_attribute", len(ids), err)
	if err != nil {
		return nil, err
	}
	return core.NewXrefSet(ids...), nil
}

// AttributeNames lists every attribute name carried by some identifier
func (e *Engine) AttributeNames(ctx context.Context) ([]string, error) {
	names, err := e.store.AttributeNames(ctx)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

var _ Searcher = (*Engine)(nil)
