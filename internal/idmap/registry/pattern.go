package registry

import (
	"strings"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

// IDPlaceholder marks where the local identifier goes in a URI pattern
const IDPlaceholder = "{id}"

// Pattern is a parsed prefix{id}suffix URI template owned by one namespace
type Pattern struct {
	Code     string // Owning namespace
	Template string // Original template text
	Prefix   string
	Suffix   string
}

// ParsePattern splits a template around its single {id} placeholder
func ParsePattern(code, template string) (Pattern, error) {
	if strings.Count(template, IDPlaceholder) != 1 {
		return Pattern{}, core.ConfigurationErrorf("parse uri pattern",
			"pattern %q must contain %s exactly once", template, IDPlaceholder)
	}
	i := strings.Index(template, IDPlaceholder)
	return Pattern{
		Code:     code,
		Template: template,
		Prefix:   template[:i],
		Suffix:   template[i+len(IDPlaceholder):],
	}, nil
}

// Expand renders a local id through the pattern
func (p Pattern) Expand(id string) string {
	return p.Prefix + id + p.Suffix
}

// Match extracts the local id from uri when it fits the pattern.
// The id must be non-empty.
func (p Pattern) Match(uri string) (string, bool) {
	if len(uri) <= len(p.Prefix)+len(p.Suffix) {
		return "", false
	}
	if !strings.HasPrefix(uri, p.Prefix) || !strings.HasSuffix(uri, p.Suffix) {
		return "", false
	}
	return uri[len(p.Prefix) : len(uri)-len(p.Suffix)], true
}
