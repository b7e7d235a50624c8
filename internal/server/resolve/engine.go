// Package resolve answers "what does this identifier map to" queries.
//
// Direct mappings follow one stored edge. Indirect mappings follow exactly
// two: from the source to an anchor and from the anchor onwards. Nothing
// here computes a transitive closure; sets marked transitive were expanded
// by the loader.
//
// Target filters may name namespace codes, namespace full names or URI
// templates. A filter entry that resolves to nothing excludes candidates
// rather than failing the query, and an empty filter admits every namespace.
package resolve

import (
	"context"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

// Engine is the resolution contract shared by the local and remote variants
type Engine interface {
	MapDirect(ctx context.Context, x core.Xref, targets ...string) (core.XrefSet, error)
	MapIndirect(ctx context.Context, x core.Xref, targets ...string) (core.XrefSet, error)
	MapFull(ctx context.Context, x core.Xref, targets ...string) ([]core.Mapping, error)
	MapInSet(ctx context.Context, x core.Xref, setID int64) (core.XrefSet, error)
	GetMapping(ctx context.Context, id int64) (*core.Mapping, error)
	MapURI(ctx context.Context, uri string, targetPatterns ...string) ([]string, error)
	URIExists(ctx context.Context, uri string) (bool, error)
	ToXref(ctx context.Context, uri string) (core.Xref, error)
	XrefExists(ctx context.Context, x core.Xref) (bool, error)
	SampleMappings(ctx context.Context, n int) ([]core.Mapping, error)
	Attributes(ctx context.Context, x core.Xref, name string) ([]string, error)
	AllAttributes(ctx context.Context, x core.Xref) (map[string][]string, error)
	Capabilities(ctx context.Context) (core.Capabilities, error)
	MappingSupported(ctx context.Context, source, target string) (bool, error)
	XrefsByPosition(ctx context.Context, namespace string, position, limit int) ([]core.Xref, error)
	URIsByPosition(ctx context.Context, namespace string, position, limit int) ([]string, error)
}
