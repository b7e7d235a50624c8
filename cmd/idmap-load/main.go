// Command idmap-load imports TSV linksets and attributes into the configured store.
//
// Either pass -manifest with a YAML manifest, or describe one mapping set
// with -source, -target, -predicate and -file. -attributes loads an
// attribute file on its own or after the links.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ariutta/BridgeDb/internal/config"
	"github.com/ariutta/BridgeDb/internal/logger"
	"github.com/ariutta/BridgeDb/internal/metrics"
	"github.com/ariutta/BridgeDb/internal/server/catalog"
	"github.com/ariutta/BridgeDb/internal/server/loader"
	"github.com/ariutta/BridgeDb/internal/server/stats"
)

type options struct {
	envFile    string
	manifest   string
	file       string
	attributes string
	accessedBy string
	spec       catalog.Spec
}

var errUsage = errors.New("one of -manifest, -file or -attributes is required")

// parseOptions reads the command line; errUsage means nothing to load was named
func parseOptions(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("idmap-load", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.envFile, "env", "", "path to a .env file (default ./.env if present)")
	fs.StringVar(&opts.manifest, "manifest", "", "YAML manifest listing mapping sets and attribute files")
	fs.StringVar(&opts.file, "file", "", "TSV linkset for a single mapping set")
	fs.StringVar(&opts.attributes, "attributes", "", "TSV attribute file (id, code, name, value)")
	fs.StringVar(&opts.accessedBy, "accessed-by", "idmap-load", "provenance recorded on new mapping sets")
	fs.StringVar(&opts.spec.Source, "source", "", "source namespace code")
	fs.StringVar(&opts.spec.Target, "target", "", "target namespace code")
	fs.StringVar(&opts.spec.Predicate, "predicate", catalog.SkosExactMatch, "mapping predicate URI")
	fs.BoolVar(&opts.spec.Symmetric, "symmetric", false, "also create the inverse mapping set")
	fs.BoolVar(&opts.spec.Transitive, "transitive", false, "mark the set as transitive")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.manifest == "" && opts.file == "" && opts.attributes == "" {
		fs.Usage()
		return options{}, errUsage
	}
	return opts, nil
}

func (o options) envFiles() []string {
	if o.envFile == "" {
		return nil
	}
	return []string{o.envFile}
}

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "idmap-load:", err)
		}
		os.Exit(2)
	}

	cfg, err := config.Load(opts.envFiles()...)
	if err != nil {
		boot := logger.New(logger.Config{Service: "idmap-load"})
		boot.Fatal().Err(err).Msg("loading configuration")
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "idmap-load"})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts, log); err != nil {
		log.Fatal().Err(err).Msg("load failed")
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, log zerolog.Logger) error {
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	cat := catalog.New(store, reg, logger.Component(log, "catalog"), metrics.New(prometheus.NewRegistry()))
	l := loader.New(cat, logger.Component(log, "loader"), opts.accessedBy)

	m := &loader.Manifest{}
	if opts.manifest != "" {
		if m, err = loader.ReadManifest(opts.manifest); err != nil {
			return err
		}
	}
	if opts.file != "" {
		m.MappingSets = append(m.MappingSets, loader.SetEntry{Spec: opts.spec, File: opts.file})
	}
	if opts.attributes != "" {
		m.Attributes = append(m.Attributes, loader.AttributeEntry{File: opts.attributes})
	}

	res, err := l.Run(ctx, m)
	if err != nil {
		return err
	}

	overall, err := stats.New(cat).Overall(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("mapping_sets", len(res.MappingSets)).
		Int("edges", res.Edges).
		Int("attributes", res.Attributes).
		Str("statistics", overall.String()).
		Msg("load finished")
	return nil
}
