package graph

import (
	"context"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

// Store defines the interface for link storage backends.
// SQL (SQLite, PostgreSQL), in-memory and Neo4j backends implement it.
type Store interface {
	// Lifecycle
	Close(ctx context.Context) error

	// Mapping set rows. CreateMappingSet assigns ids in place; when inverse is
	// non-nil both rows are created atomically and inverse.InverseOf is set.
	CreateMappingSet(ctx context.Context, set *core.MappingSetInfo, inverse *core.MappingSetInfo) error
	GetMappingSet(ctx context.Context, id int64) (*core.MappingSetInfo, error)
	ListMappingSets(ctx context.Context) ([]*core.MappingSetInfo, error)
	// DeleteMappingSets removes the sets and all their edges in one transaction
	DeleteMappingSets(ctx context.Context, ids ...int64) error

	// Bulk loading. Edges become visible only after Commit.
	BeginBulkLoad(ctx context.Context) (BulkLoad, error)

	// Edge queries
	EdgesFrom(ctx context.Context, left core.Xref, setIDs ...int64) ([]core.Edge, error)
	EdgesBetween(ctx context.Context, left core.Xref, setID int64) ([]core.Edge, error)
	GetEdge(ctx context.Context, id int64) (*core.Edge, error)
	SampleEdges(ctx context.Context, n int) ([]core.Edge, error)
	XrefExists(ctx context.Context, x core.Xref) (bool, error)

	// Capabilities. Namespace codes are sorted and taken from stored edges.
	SourceNamespaces(ctx context.Context) ([]string, error)
	TargetNamespaces(ctx context.Context) ([]string, error)
	MappingSupported(ctx context.Context, source, target string) (bool, error)

	// XrefsByPosition pages through known identifiers ordered by namespace
	// then id. An empty code covers every namespace; limit <= 0 means no limit.
	XrefsByPosition(ctx context.Context, code string, position, limit int) ([]core.Xref, error)

	// Attributes
	Attributes(ctx context.Context, x core.Xref, name string) ([]string, error)
	AllAttributes(ctx context.Context, x core.Xref) (map[string][]string, error)
	XrefsByAttribute(ctx context.Context, name, value string) ([]core.Xref, error)
	AttributeNames(ctx context.Context) ([]string, error)

	// Search. limit <= 0 means no limit.
	SearchIdentifiers(ctx context.Context, text string, limit int) ([]core.Xref, error)
	SearchAttributes(ctx context.Context, text, name string, limit int) ([]core.Attribute, error)
	SearchIdentifiersWithAttribute(ctx context.Context, text, name string, limit int) ([]core.Attribute, error)
}

// BulkLoad buffers writes for one load. Only one load runs at a time per store.
type BulkLoad interface {
	AddEdge(ctx context.Context, setID int64, left, right core.Xref) error
	AddAttribute(ctx context.Context, attr core.Attribute) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// AnchoredEdge is the second hop of a one-hop join through an anchor
type AnchoredEdge struct {
	Anchor core.Xref
	Edge   core.Edge
}

// AnchorJoiner is implemented by backends that can run the one-hop join natively
type AnchorJoiner interface {
	EdgesViaAnchor(ctx context.Context, source core.Xref) ([]AnchoredEdge, error)
}

// DefaultSampleSize is the number of sample mappings served when none is requested
const DefaultSampleSize = 5
