// Package stats aggregates mapping set metadata for capability reporting
package stats

import (
	"context"
	"sort"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

// SetLister is the part of the catalog the aggregator reads
type SetLister interface {
	List(ctx context.Context, source, target string) ([]*core.MappingSetInfo, error)
}

// Reporter is implemented by the local aggregator and the remote client
type Reporter interface {
	Overall(ctx context.Context) (core.OverallStatistics, error)
	Summary(ctx context.Context) ([]PairSummary, error)
}

// PairSummary totals every mapping set between one source and target
type PairSummary struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	LinkCount   int64  `json:"link_count"`
	MappingSets int    `json:"mapping_sets"`
	Transitive  bool   `json:"transitive"` // Any contributing set is transitive
}

// Aggregator computes statistics on demand from the catalog
type Aggregator struct {
	sets SetLister
}

// New creates an aggregator over sets
func New(sets SetLister) *Aggregator {
	return &Aggregator{sets: sets}
}

// Overall counts mappings, mapping sets and distinct namespaces and predicates
func (a *Aggregator) Overall(ctx context.Context) (core.OverallStatistics, error) {
	sets, err := a.sets.List(ctx, "", "")
	if err != nil {
		return core.OverallStatistics{}, err
	}

	sources := make(map[string]bool)
	targets := make(map[string]bool)
	predicates := make(map[string]bool)
	stats := core.OverallStatistics{MappingSetCount: len(sets)}
	for _, s := range sets {
		stats.MappingCount += s.LinkCount
		sources[s.Source] = true
		targets[s.Target] = true
		predicates[s.Predicate] = true
	}
	stats.DistinctSourceNamespaces = len(sources)
	stats.DistinctTargetNamespaces = len(targets)
	stats.DistinctPredicates = len(predicates)
	return stats, nil
}

// Summary totals link counts per (source, target) pair, sorted by source then target
func (a *Aggregator) Summary(ctx context.Context) ([]PairSummary, error) {
	sets, err := a.sets.List(ctx, "", "")
	if err != nil {
		return nil, err
	}

	type pair struct{ source, target string }
	byPair := make(map[pair]*PairSummary)
	for _, s := range sets {
		key := pair{s.Source, s.Target}
		p, ok := byPair[key]
		if !ok {
			p = &PairSummary{Source: s.Source, Target: s.Target}
			byPair[key] = p
		}
		p.LinkCount += s.LinkCount
		p.MappingSets++
		p.Transitive = p.Transitive || s.Transitive
	}

	out := make([]PairSummary, 0, len(byPair))
	for _, p := range byPair {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out, nil
}

var _ Reporter = (*Aggregator)(nil)
