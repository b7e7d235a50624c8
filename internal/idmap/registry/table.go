package registry

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

// Table is the on-disk form of a static namespace table
type Table struct {
	Namespaces []TableEntry `yaml:"namespaces"`
}

// TableEntry is one namespace row; it remembers whether primary was written out
// so a row refining an existing namespace leaves its primary flag alone.
type TableEntry struct {
	core.Namespace
	PrimarySet bool `yaml:"-"`
}

// UnmarshalYAML decodes the namespace fields and notes the presence of primary
func (e *TableEntry) UnmarshalYAML(node *yaml.Node) error {
	if err := node.Decode(&e.Namespace); err != nil {
		return err
	}
	var flags struct {
		Primary *bool `yaml:"primary"`
	}
	if err := node.Decode(&flags); err != nil {
		return err
	}
	e.PrimarySet = flags.Primary != nil
	return nil
}

//go:embed namespaces.yaml
var defaultTable []byte

// Default returns a registry populated with the built-in namespace table
func Default() (*Registry, error) {
	r := New()
	if err := r.LoadYAML(bytes.NewReader(defaultTable)); err != nil {
		return nil, fmt.Errorf("loading built-in namespaces: %w", err)
	}
	return r, nil
}

// LoadFile registers every namespace listed in a YAML table file
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return core.ConfigurationErrorf("load namespace table", "opening %s: %v", path, err)
	}
	defer f.Close()
	return r.LoadYAML(f)
}

// LoadYAML registers every namespace in the table read from rd
func (r *Registry) LoadYAML(rd io.Reader) error {
	var table Table
	if err := yaml.NewDecoder(rd).Decode(&table); err != nil && err != io.EOF {
		return core.ConfigurationErrorf("load namespace table", "decoding yaml: %v", err)
	}
	return r.RegisterAll(table.Namespaces)
}

// RegisterAll registers rows in order, stopping at the first failure
func (r *Registry) RegisterAll(entries []TableEntry) error {
	for _, e := range entries {
		if _, err := r.Register(e.Code, e.FullName, OptionsFrom(e)...); err != nil {
			return err
		}
	}
	return nil
}

// OptionsFrom converts row metadata into registration options; unset fields emit none
func OptionsFrom(e TableEntry) []Option {
	ns := e.Namespace
	var opts []Option
	if e.PrimarySet {
		opts = append(opts, WithPrimary(ns.Primary))
	}
	if ns.MainURL != "" {
		opts = append(opts, WithMainURL(ns.MainURL))
	}
	if ns.Type != "" {
		opts = append(opts, WithType(ns.Type))
	}
	if ns.Organism != "" {
		opts = append(opts, WithOrganism(ns.Organism))
	}
	if len(ns.AlternativeNames) > 0 {
		opts = append(opts, WithAlternativeName(ns.AlternativeNames...))
	}
	if len(ns.Patterns) > 0 {
		opts = append(opts, WithPattern(ns.Patterns...))
	}
	return opts
}
