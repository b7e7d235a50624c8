// Package uri converts between xrefs and URIs using the registry's patterns.
//
// When two namespaces register patterns that match the same URI, the pattern
// registered first wins. Registration order is the only tie-break.
package uri

import (
	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/idmap/registry"
)

// Converter translates xrefs to URIs and back
type Converter struct {
	reg *registry.Registry
}

// New creates a converter over reg
func New(reg *registry.Registry) *Converter {
	return &Converter{reg: reg}
}

// ToURI renders x through the namespace's pattern at patternIndex
func (c *Converter) ToURI(x core.Xref, patternIndex int) (string, error) {
	patterns := c.reg.PatternsFor(x.Namespace)
	if patternIndex < 0 || patternIndex >= len(patterns) {
		return "", core.NotFoundError("to uri", x.String())
	}
	return patterns[patternIndex].Expand(x.ID), nil
}

// ToURIs renders x through every pattern of its namespace
func (c *Converter) ToURIs(x core.Xref) []string {
	patterns := c.reg.PatternsFor(x.Namespace)
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p.Expand(x.ID))
	}
	return out
}

// ToXref finds the first registered pattern that structurally matches uri
func (c *Converter) ToXref(uri string) (core.Xref, error) {
	for _, p := range c.reg.Patterns() {
		if id, ok := p.Match(uri); ok {
			return core.NewXref(id, p.Code), nil
		}
	}
	return core.Xref{}, core.NotFoundError("to xref", uri)
}

// Expand renders x through a specific template, which must belong to x's namespace
func (c *Converter) Expand(x core.Xref, template string) (string, bool) {
	for _, p := range c.reg.PatternsFor(x.Namespace) {
		if p.Template == template {
			return p.Expand(x.ID), true
		}
	}
	return "", false
}

// PatternOwner returns the namespace code owning template
func (c *Converter) PatternOwner(template string) (string, bool) {
	for _, p := range c.reg.Patterns() {
		if p.Template == template {
			return p.Code, true
		}
	}
	return "", false
}

// Patterns returns the templates registered for code
func (c *Converter) Patterns(code string) []string {
	patterns := c.reg.PatternsFor(code)
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p.Template)
	}
	return out
}
