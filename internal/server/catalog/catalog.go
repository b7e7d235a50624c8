// Package catalog manages mapping set metadata and validated bulk loads.
//
// A symmetric mapping set is always created, loaded and deleted together with
// its inverse. The inverse records the forward set in InverseOf; callers never
// depend on the two ids being adjacent.
package catalog

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/idmap/registry"
	"github.com/ariutta/BridgeDb/internal/metrics"
	"github.com/ariutta/BridgeDb/internal/server/graph"
)

// Catalog creates, lists and deletes mapping sets
type Catalog struct {
	store   graph.Store
	reg     *registry.Registry
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a catalog over store, validating namespaces against reg
func New(store graph.Store, reg *registry.Registry, log zerolog.Logger, m *metrics.Metrics) *Catalog {
	return &Catalog{
		store:   store,
		reg:     reg,
		log:     log.With().Str("component", "catalog").Logger(),
		metrics: m,
	}
}

// Spec describes a mapping set to create
type Spec struct {
	Source     string          `json:"source" yaml:"source"`
	Target     string          `json:"target" yaml:"target"`
	Predicate  string          `json:"predicate" yaml:"predicate"`
	Symmetric  bool            `json:"symmetric" yaml:"symmetric"`
	Transitive bool            `json:"transitive" yaml:"transitive"`
	Provenance core.Provenance `json:"provenance" yaml:"-"`
}

// Validate checks spec against the registry
func (c *Catalog) Validate(spec Spec) error {
	if spec.Predicate == "" {
		return core.ConfigurationErrorf("create mapping set", "mapping set %s->%s has no predicate", spec.Source, spec.Target)
	}
	for _, code := range []string{spec.Source, spec.Target} {
		if code == "" {
			return core.ConfigurationErrorf("create mapping set", "mapping set needs both source and target namespaces")
		}
		if !c.reg.Has(code) {
			return core.NotFoundError("create mapping set: namespace", code)
		}
	}
	return nil
}

// CreateMappingSet registers a new mapping set and, when symmetric, its inverse
func (c *Catalog) CreateMappingSet(ctx context.Context, spec Spec) (*core.MappingSetInfo, error) {
	if err := c.Validate(spec); err != nil {
		return nil, err
	}

	forward := &core.MappingSetInfo{
		Source:     spec.Source,
		Target:     spec.Target,
		Predicate:  spec.Predicate,
		Symmetric:  spec.Symmetric,
		Transitive: spec.Transitive,
		Provenance: spec.Provenance,
	}
	var inverse *core.MappingSetInfo
	if spec.Symmetric {
		inverse = &core.MappingSetInfo{
			Source:     spec.Target,
			Target:     spec.Source,
			Predicate:  InversePredicate(spec.Predicate),
			Symmetric:  true,
			Transitive: spec.Transitive,
			Provenance: spec.Provenance,
		}
	}

	if err := c.store.CreateMappingSet(ctx, forward, inverse); err != nil {
		return nil, err
	}

	event := c.log.Info().
		Int64("mapping_set", forward.ID).
		Str("source", forward.Source).
		Str("target", forward.Target).
		Str("predicate", forward.Predicate)
	if inverse != nil {
		event = event.Int64("inverse", inverse.ID)
	}
	event.Msg("mapping set created")

	return forward, nil
}

// Get returns one mapping set
func (c *Catalog) Get(ctx context.Context, id int64) (*core.MappingSetInfo, error) {
	return c.store.GetMappingSet(ctx, id)
}

// List returns mapping sets sorted by source then target code.
// Empty filters match every namespace.
func (c *Catalog) List(ctx context.Context, source, target string) ([]*core.MappingSetInfo, error) {
	sets, err := c.store.ListMappingSets(ctx)
	if err != nil {
		return nil, err
	}
	out := sets[:0]
	for _, s := range sets {
		if source != "" && s.Source != source {
			continue
		}
		if target != "" && s.Target != target {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Inverse returns the partner of a symmetric set, or nil when there is none
func (c *Catalog) Inverse(ctx context.Context, set *core.MappingSetInfo) (*core.MappingSetInfo, error) {
	if !set.Symmetric {
		return nil, nil
	}
	if set.IsInverse() {
		return c.store.GetMappingSet(ctx, set.InverseOf)
	}
	sets, err := c.store.ListMappingSets(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range sets {
		if s.InverseOf == set.ID {
			return s, nil
		}
	}
	return nil, nil
}

// Delete removes a mapping set, its edges and its inverse in one step
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	set, err := c.store.GetMappingSet(ctx, id)
	if err != nil {
		return err
	}
	ids := []int64{set.ID}
	partner, err := c.Inverse(ctx, set)
	if err != nil {
		return err
	}
	if partner != nil {
		ids = append(ids, partner.ID)
	}

	if err := c.store.DeleteMappingSets(ctx, ids...); err != nil {
		return err
	}
	c.log.Info().Ints64("mapping_sets", ids).Msg("mapping sets deleted")
	return nil
}
