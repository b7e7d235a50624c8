package core

import (
	"encoding/json"
	"sort"
)

// XrefSet is an unordered set of identifiers
type XrefSet map[Xref]struct{}

// NewXrefSet builds a set from the given xrefs
func NewXrefSet(xrefs ...Xref) XrefSet {
	s := make(XrefSet, len(xrefs))
	for _, x := range xrefs {
		s.Add(x)
	}
	return s
}

// Add inserts x
func (s XrefSet) Add(x Xref) {
	s[x] = struct{}{}
}

// Contains reports whether x is in the set
func (s XrefSet) Contains(x Xref) bool {
	_, ok := s[x]
	return ok
}

// Slice returns the members sorted by namespace then id
func (s XrefSet) Slice() []Xref {
	out := make([]Xref, 0, len(s))
	for x := range s {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MarshalJSON encodes the set as a sorted array
func (s XrefSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes an array of xrefs
func (s *XrefSet) UnmarshalJSON(data []byte) error {
	var xrefs []Xref
	if err := json.Unmarshal(data, &xrefs); err != nil {
		return err
	}
	*s = NewXrefSet(xrefs...)
	return nil
}
