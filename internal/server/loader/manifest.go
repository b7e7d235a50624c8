package loader

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/catalog"
)

// Manifest lists the linkset and attribute files of one import
type Manifest struct {
	MappingSets []SetEntry       `yaml:"mapping_sets"`
	Attributes  []AttributeEntry `yaml:"attributes"`

	dir string // Relative file paths resolve against this
}

// SetEntry is one mapping set and the TSV file holding its links
type SetEntry struct {
	catalog.Spec `yaml:",inline"`
	File         string `yaml:"file"`
	AccessedFrom string `yaml:"accessed_from,omitempty"`
}

// AttributeEntry is one TSV attribute file
type AttributeEntry struct {
	File string `yaml:"file"`
}

// ReadManifest parses the manifest at path
func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.ConfigurationErrorf("read manifest", "opening %s: %v", path, err)
	}
	defer f.Close()
	return ParseManifest(f, filepath.Dir(path))
}

// ParseManifest decodes a manifest; dir anchors relative file paths
func ParseManifest(r io.Reader, dir string) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil && err != io.EOF {
		return nil, core.ConfigurationErrorf("read manifest", "decoding yaml: %v", err)
	}
	m.dir = dir
	for i, s := range m.MappingSets {
		if s.File == "" {
			return nil, core.ConfigurationErrorf("read manifest", "mapping set %d (%s->%s) has no file", i, s.Source, s.Target)
		}
	}
	for i, a := range m.Attributes {
		if a.File == "" {
			return nil, core.ConfigurationErrorf("read manifest", "attribute entry %d has no file", i)
		}
	}
	return &m, nil
}

// Path resolves a manifest file reference
func (m *Manifest) Path(file string) string {
	if filepath.IsAbs(file) || m.dir == "" {
		return file
	}
	return filepath.Join(m.dir, file)
}
