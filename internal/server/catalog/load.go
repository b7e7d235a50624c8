package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/graph"
)

// Load is a validated bulk load.
// Edges added to a symmetric set are mirrored into its inverse. Any
// validation failure rolls the whole load back.
type Load struct {
	ID string

	catalog *Catalog
	bulk    graph.BulkLoad
	log     zerolog.Logger
	targets map[int64]loadTarget
	edges   int
	attrs   int
	started time.Time
	err     error
	done    bool
}

type loadTarget struct {
	set     *core.MappingSetInfo
	partner int64
}

// BeginLoad starts a bulk load; only one runs per store at a time
func (c *Catalog) BeginLoad(ctx context.Context) (*Load, error) {
	bulk, err := c.store.BeginBulkLoad(ctx)
	if err != nil {
		return nil, err
	}
	id := uuid.New().String()
	l := &Load{
		ID:      id,
		catalog: c,
		bulk:    bulk,
		log:     c.log.With().Str("load", id).Logger(),
		targets: make(map[int64]loadTarget),
		started: time.Now(),
	}
	l.log.Debug().Msg("bulk load started")
	return l, nil
}

func (l *Load) target(ctx context.Context, setID int64) (loadTarget, error) {
	if t, ok := l.targets[setID]; ok {
		return t, nil
	}
	set, err := l.catalog.store.GetMappingSet(ctx, setID)
	if err != nil {
		return loadTarget{}, err
	}
	t := loadTarget{set: set}
	partner, err := l.catalog.Inverse(ctx, set)
	if err != nil {
		return loadTarget{}, err
	}
	if partner != nil {
		t.partner = partner.ID
	}
	l.targets[setID] = t
	return t, nil
}

func (l *Load) usable() error {
	if l.err != nil {
		return l.err
	}
	if l.done {
		return core.ConfigurationErrorf("bulk load", "load %s already finished", l.ID)
	}
	return nil
}

// fail aborts the load and remembers err for later calls
func (l *Load) fail(ctx context.Context, err error) error {
	l.err = err
	if rbErr := l.bulk.Rollback(ctx); rbErr != nil {
		l.log.Error().Err(rbErr).Msg("rollback after failed load")
	}
	l.catalog.metrics.RecordBulkLoad(l.edges, err)
	l.log.Warn().Err(err).Msg("bulk load aborted")
	return err
}

func (l *Load) checkNamespace(x core.Xref, want string) error {
	if !x.Valid() {
		return core.ConfigurationErrorf("add edge", "identifier %q is incomplete", x.String())
	}
	if !l.catalog.reg.Has(x.Namespace) {
		return core.NotFoundError("add edge: namespace", x.Namespace)
	}
	if want != "" && x.Namespace != want {
		return core.ConfigurationErrorf("add edge", "identifier %s is not in namespace %s", x, want)
	}
	return nil
}

// AddEdge buffers left -> right in setID, plus the mirrored edge for symmetric sets
func (l *Load) AddEdge(ctx context.Context, setID int64, left, right core.Xref) error {
	if err := l.usable(); err != nil {
		return err
	}
	t, err := l.target(ctx, setID)
	if err != nil {
		return l.fail(ctx, err)
	}
	if err := l.checkNamespace(left, t.set.Source); err != nil {
		return l.fail(ctx, err)
	}
	if err := l.checkNamespace(right, t.set.Target); err != nil {
		return l.fail(ctx, err)
	}

	if err := l.bulk.AddEdge(ctx, setID, left, right); err != nil {
		return l.fail(ctx, err)
	}
	l.edges++
	if t.partner != 0 {
		if err := l.bulk.AddEdge(ctx, t.partner, right, left); err != nil {
			return l.fail(ctx, err)
		}
		l.edges++
	}
	return nil
}

// AddAttribute buffers one attribute value
func (l *Load) AddAttribute(ctx context.Context, attr core.Attribute) error {
	if err := l.usable(); err != nil {
		return err
	}
	if attr.Name == "" {
		return l.fail(ctx, core.ConfigurationErrorf("add attribute", "attribute of %s has no name", attr.Xref))
	}
	if err := l.checkNamespace(attr.Xref, ""); err != nil {
		return l.fail(ctx, err)
	}
	if err := l.bulk.AddAttribute(ctx, attr); err != nil {
		return l.fail(ctx, err)
	}
	l.attrs++
	return nil
}

// Commit makes every buffered row visible at once
func (l *Load) Commit(ctx context.Context) error {
	if err := l.usable(); err != nil {
		return err
	}
	l.done = true
	err := l.bulk.Commit(ctx)
	l.catalog.metrics.RecordBulkLoad(l.edges, err)
	if err != nil {
		l.err = err
		l.log.Error().Err(err).Msg("bulk load commit failed")
		return err
	}
	l.log.Info().
		Int("edges", l.edges).
		Int("attributes", l.attrs).
		Dur("duration", time.Since(l.started)).
		Msg("bulk load committed")
	return nil
}

// Rollback discards the load; it is a no-op after Commit or a failure
func (l *Load) Rollback(ctx context.Context) error {
	if l.done || l.err != nil {
		return nil
	}
	l.done = true
	return l.bulk.Rollback(ctx)
}

// Edges reports how many edges, mirrors included, were buffered
func (l *Load) Edges() int {
	return l.edges
}
