package core

import (
	"fmt"
	"time"
)

// Xref is an identifier local to one namespace
type Xref struct {
	ID        string `json:"id"`        // Local identifier
	Namespace string `json:"namespace"` // Namespace system code
}

// NewXref builds an Xref from a local id and a namespace code
func NewXref(id, namespace string) Xref {
	return Xref{ID: id, Namespace: namespace}
}

// String renders the xref as code:id
func (x Xref) String() string {
	return x.Namespace + ":" + x.ID
}

// Valid reports whether both parts are set
func (x Xref) Valid() bool {
	return x.ID != "" && x.Namespace != ""
}

// Namespace describes one naming system (a BridgeDb data source)
type Namespace struct {
	Code             string   `json:"code" yaml:"code"`
	FullName         string   `json:"full_name" yaml:"full_name"`
	AlternativeNames []string `json:"alternative_names,omitempty" yaml:"alternative_names,omitempty"`
	MainURL          string   `json:"main_url,omitempty" yaml:"main_url,omitempty"`
	Patterns         []string `json:"uri_patterns,omitempty" yaml:"uri_patterns,omitempty"`
	Type             string   `json:"type,omitempty" yaml:"type,omitempty"`
	Organism         string   `json:"organism,omitempty" yaml:"organism,omitempty"`
	Primary          bool     `json:"primary" yaml:"primary"`
}

// IsMetabolite reports whether the namespace identifies metabolites
func (n Namespace) IsMetabolite() bool {
	return n.Type == "metabolite"
}

// Provenance records where a mapping set was loaded from
type Provenance struct {
	AccessedFrom string    `json:"accessed_from,omitempty"`
	AccessedOn   time.Time `json:"accessed_on,omitempty"`
	AccessedBy   string    `json:"accessed_by,omitempty"`
}

// MappingSetInfo is the catalog entry for one mapping set
type MappingSetInfo struct {
	ID         int64      `json:"id"`
	Source     string     `json:"source"`    // Source namespace code
	Target     string     `json:"target"`    // Target namespace code
	Predicate  string     `json:"predicate"` // Relation URI
	Symmetric  bool       `json:"symmetric"`
	Transitive bool       `json:"transitive"`
	InverseOf  int64      `json:"inverse_of,omitempty"` // Forward set id when this is a generated inverse
	Provenance Provenance `json:"provenance"`
	LinkCount  int64      `json:"link_count"`
	Created    time.Time  `json:"created"`
}

// IsInverse reports whether the set was generated as the mirror of another
func (m MappingSetInfo) IsInverse() bool {
	return m.InverseOf != 0
}

// Edge is a stored directed link owned by a mapping set
type Edge struct {
	ID           int64 `json:"id"`
	Left         Xref  `json:"left"`
	Right        Xref  `json:"right"`
	MappingSetID int64 `json:"mapping_set_id"`
}

// Mapping is one query result with provenance.
// ID and MappingSetID are zero and Predicate is empty for the identity mapping.
type Mapping struct {
	ID           int64    `json:"id,omitempty"`
	Source       Xref     `json:"source"`
	Target       Xref     `json:"target"`
	SourceURIs   []string `json:"source_uris,omitempty"`
	TargetURIs   []string `json:"target_uris,omitempty"`
	MappingSetID int64    `json:"mapping_set_id,omitempty"`
	Predicate    string   `json:"predicate,omitempty"`
	Via          *Xref    `json:"via,omitempty"` // Anchor for indirect mappings
}

// IdentityMapping returns the synthetic mapping of x to itself
func IdentityMapping(x Xref) Mapping {
	return Mapping{Source: x, Target: x}
}

// IsIdentity reports whether the mapping is the synthetic self mapping
func (m Mapping) IsIdentity() bool {
	return m.ID == 0 && m.MappingSetID == 0 && m.Predicate == ""
}

// Attribute is a named value attached to an identifier
type Attribute struct {
	Xref  Xref   `json:"xref"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OverallStatistics summarises the catalog
type OverallStatistics struct {
	MappingCount             int64 `json:"mapping_count"`
	MappingSetCount          int   `json:"mapping_set_count"`
	DistinctSourceNamespaces int   `json:"distinct_source_namespaces"`
	DistinctTargetNamespaces int   `json:"distinct_target_namespaces"`
	DistinctPredicates       int   `json:"distinct_predicates"`
}

// String renders statistics for log lines
func (s OverallStatistics) String() string {
	return fmt.Sprintf("%d mappings in %d sets (%d sources, %d targets, %d predicates)",
		s.MappingCount, s.MappingSetCount, s.DistinctSourceNamespaces,
		s.DistinctTargetNamespaces, s.DistinctPredicates)
}

// Capabilities describes what a mapping service can answer
type Capabilities struct {
	SourceNamespaces []string `json:"source_namespaces"`
	TargetNamespaces []string `json:"target_namespaces"`
	FreeSearch       bool     `json:"free_search"`
}
