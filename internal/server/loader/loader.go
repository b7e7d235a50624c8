// Package loader imports linksets and attributes described by a YAML manifest.
//
// Link files have two tab separated columns, the left and right local ids;
// the namespaces come from the mapping set. Attribute files have four: id,
// namespace code, attribute name and value. Lines starting with # are
// comments. Each mapping set is loaded and committed on its own.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/catalog"
)

// Loader feeds files into the catalog's bulk loads
type Loader struct {
	catalog    *catalog.Catalog
	log        zerolog.Logger
	accessedBy string
}

// New creates a loader; accessedBy is recorded as provenance on every set
func New(c *catalog.Catalog, log zerolog.Logger, accessedBy string) *Loader {
	if accessedBy == "" {
		accessedBy = "idmap-load"
	}
	return &Loader{
		catalog:    c,
		log:        log.With().Str("component", "loader").Logger(),
		accessedBy: accessedBy,
	}
}

// Result summarises a manifest import
type Result struct {
	MappingSets []*core.MappingSetInfo
	Edges       int
	Attributes  int
}

// Run validates every entry, then loads each mapping set and attribute file.
// A set whose load fails is deleted again.
func (l *Loader) Run(ctx context.Context, m *Manifest) (*Result, error) {
	for _, entry := range m.MappingSets {
		if err := l.catalog.Validate(entry.Spec); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	for _, entry := range m.MappingSets {
		path := m.Path(entry.File)
		spec := entry.Spec
		spec.Provenance = core.Provenance{
			AccessedFrom: entry.AccessedFrom,
			AccessedOn:   time.Now().UTC(),
			AccessedBy:   l.accessedBy,
		}
		if spec.Provenance.AccessedFrom == "" {
			spec.Provenance.AccessedFrom = fileURL(path)
		}

		f, err := os.Open(path)
		if err != nil {
			return res, core.ConfigurationErrorf("load mapping set", "opening %s: %v", path, err)
		}
		set, edges, err := l.LoadSet(ctx, spec, f)
		f.Close()
		if err != nil {
			return res, fmt.Errorf("loading %s: %w", path, err)
		}
		res.MappingSets = append(res.MappingSets, set)
		res.Edges += edges
	}

	for _, entry := range m.Attributes {
		path := m.Path(entry.File)
		f, err := os.Open(path)
		if err != nil {
			return res, core.ConfigurationErrorf("load attributes", "opening %s: %v", path, err)
		}
		n, err := l.LoadAttributes(ctx, f)
		f.Close()
		if err != nil {
			return res, fmt.Errorf("loading %s: %w", path, err)
		}
		res.Attributes += n
	}
	return res, nil
}

// LoadSet creates a mapping set and loads its links from a two column TSV stream.
// It returns the stored set and the number of edges written, mirrors included.
func (l *Loader) LoadSet(ctx context.Context, spec catalog.Spec, r io.Reader) (*core.MappingSetInfo, int, error) {
	set, err := l.catalog.CreateMappingSet(ctx, spec)
	if err != nil {
		return nil, 0, err
	}

	edges, err := l.loadLinks(ctx, set, r)
	if err != nil {
		if delErr := l.catalog.Delete(ctx, set.ID); delErr != nil {
			l.log.Error().Err(delErr).Int64("mapping_set", set.ID).Msg("removing failed mapping set")
		}
		return nil, 0, err
	}

	stored, err := l.catalog.Get(ctx, set.ID)
	if err != nil {
		return nil, 0, err
	}
	l.log.Info().
		Int64("mapping_set", stored.ID).
		Str("source", stored.Source).
		Str("target", stored.Target).
		Int64("links", stored.LinkCount).
		Msg("mapping set loaded")
	return stored, edges, nil
}

func (l *Loader) loadLinks(ctx context.Context, set *core.MappingSetInfo, r io.Reader) (int, error) {
	load, err := l.catalog.BeginLoad(ctx)
	if err != nil {
		return 0, err
	}
	defer load.Rollback(ctx)

	rows := newTSVReader(r, 2)
	for {
		row, line, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, core.ConfigurationErrorf("load links", "line %d: %v", line, err)
		}
		left := core.NewXref(row[0], set.Source)
		right := core.NewXref(row[1], set.Target)
		if err := load.AddEdge(ctx, set.ID, left, right); err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := load.Commit(ctx); err != nil {
		return 0, err
	}
	return load.Edges(), nil
}

// LoadAttributes loads a four column TSV stream of attribute values
func (l *Loader) LoadAttributes(ctx context.Context, r io.Reader) (int, error) {
	load, err := l.catalog.BeginLoad(ctx)
	if err != nil {
		return 0, err
	}
	defer load.Rollback(ctx)

	rows := newTSVReader(r, 4)
	n := 0
	for {
		row, line, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, core.ConfigurationErrorf("load attributes", "line %d: %v", line, err)
		}
		attr := core.Attribute{Xref: core.NewXref(row[0], row[1]), Name: row[2], Value: row[3]}
		if err := load.AddAttribute(ctx, attr); err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	if err := load.Commit(ctx); err != nil {
		return 0, err
	}
	l.log.Info().Int("attributes", n).Msg("attributes loaded")
	return n, nil
}

func fileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "file://" + filepath.ToSlash(path)
}
