// Package registry holds the namespace (data source) table.
//
// A Registry is constructed explicitly and passed to the components that need
// it. Registration takes a single writer lock; lookups share a read lock and
// always return copies, so callers never observe a half-applied refinement.
package registry

import (
	"slices"
	"sort"
	"sync"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

// Registry maps system codes to namespace descriptors
type Registry struct {
	mu       sync.RWMutex
	byCode   map[string]*core.Namespace
	byName   map[string]string // full or alternative name -> code
	patterns []Pattern         // registration order, used for tie-breaks
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		byCode: make(map[string]*core.Namespace),
		byName: make(map[string]string),
	}
}

type registration struct {
	mainURL      string
	nsType       string
	organism     string
	primary      *bool
	alternatives []string
	patterns     []string
}

// Option refines a namespace during registration
type Option func(*registration)

// WithMainURL sets the namespace home page
func WithMainURL(url string) Option {
	return func(r *registration) { r.mainURL = url }
}

// WithType sets the type tag, e.g. "gene", "probe" or "metabolite"
func WithType(t string) Option {
	return func(r *registration) { r.nsType = t }
}

// WithOrganism sets the organism tag
func WithOrganism(organism string) Option {
	return func(r *registration) { r.organism = organism }
}

// WithPrimary sets the primary flag
func WithPrimary(primary bool) Option {
	return func(r *registration) { r.primary = &primary }
}

// WithAlternativeName adds alternative full names
func WithAlternativeName(names ...string) Option {
	return func(r *registration) { r.alternatives = append(r.alternatives, names...) }
}

// WithPattern adds URI patterns of the form prefix{id}suffix
func WithPattern(templates ...string) Option {
	return func(r *registration) { r.patterns = append(r.patterns, templates...) }
}

// Register adds a namespace or refines an existing one.
//
// Registering a known code with a known name is idempotent. A new full name
// for a known code becomes an alternative name. Any name already claimed by a
// different namespace is a conflict, and nothing is changed.
func (r *Registry) Register(code, fullName string, opts ...Option) (core.Namespace, error) {
	if code == "" {
		return core.Namespace{}, core.ConfigurationErrorf("register namespace", "system code is required")
	}
	if fullName == "" {
		return core.Namespace{}, core.ConfigurationErrorf("register namespace", "full name is required for %q", code)
	}

	var reg registration
	for _, opt := range opts {
		opt(&reg)
	}

	parsed := make([]Pattern, 0, len(reg.patterns))
	for _, tmpl := range reg.patterns {
		p, err := ParsePattern(code, tmpl)
		if err != nil {
			return core.Namespace{}, err
		}
		parsed = append(parsed, p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.byCode[code]
	primaryName := fullName
	if existing != nil {
		primaryName = existing.FullName
	}

	// Validate every name before touching state
	claims := []string{fullName}
	for _, alt := range reg.alternatives {
		if alt == primaryName {
			return core.Namespace{}, core.ConflictError("register namespace", code,
				"alternative name %q is the namespace's own full name", alt)
		}
		claims = append(claims, alt)
	}
	for _, name := range claims {
		if owner, ok := r.byName[name]; ok && owner != code {
			return core.Namespace{}, core.ConflictError("register namespace", code,
				"name %q already belongs to namespace %q", name, owner)
		}
	}

	ns := existing
	if ns == nil {
		ns = &core.Namespace{Code: code, FullName: fullName}
		r.byCode[code] = ns
	}
	for _, name := range claims {
		r.byName[name] = code
		if name != ns.FullName && !slices.Contains(ns.AlternativeNames, name) {
			ns.AlternativeNames = append(ns.AlternativeNames, name)
		}
	}

	if reg.mainURL != "" {
		ns.MainURL = reg.mainURL
	}
	if reg.nsType != "" {
		ns.Type = reg.nsType
	}
	if reg.organism != "" {
		ns.Organism = reg.organism
	}
	if reg.primary != nil {
		ns.Primary = *reg.primary
	}
	for _, p := range parsed {
		if slices.Contains(ns.Patterns, p.Template) {
			continue
		}
		ns.Patterns = append(ns.Patterns, p.Template)
		r.patterns = append(r.patterns, p)
	}

	return clone(ns), nil
}

// LookupByCode returns the namespace registered under code
func (r *Registry) LookupByCode(code string) (core.Namespace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, ok := r.byCode[code]
	if !ok {
		return core.Namespace{}, core.NotFoundError("lookup namespace", code)
	}
	return clone(ns), nil
}

// LookupByFullName resolves a full or alternative name
func (r *Registry) LookupByFullName(name string) (core.Namespace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.byName[name]
	if !ok {
		return core.Namespace{}, core.NotFoundError("lookup namespace by name", name)
	}
	return clone(r.byCode[code]), nil
}

// Has reports whether code is registered
func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byCode[code]
	return ok
}

// All returns every namespace sorted by code
func (r *Registry) All() []core.Namespace {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Namespace, 0, len(r.byCode))
	for _, ns := range r.byCode {
		out = append(out, clone(ns))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Patterns returns every registered pattern in registration order
func (r *Registry) Patterns() []Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Pattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}

// PatternsFor returns the patterns of one namespace in registration order
func (r *Registry) PatternsFor(code string) []Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Pattern
	for _, p := range r.patterns {
		if p.Code == code {
			out = append(out, p)
		}
	}
	return out
}

func clone(ns *core.Namespace) core.Namespace {
	c := *ns
	c.AlternativeNames = append([]string(nil), ns.AlternativeNames...)
	c.Patterns = append([]string(nil), ns.Patterns...)
	return c
}
