package uri

import (
	"testing"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/idmap/registry"
)

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	r := registry.New()
	if _, err := r.Register("Ce", "ChEBI",
		registry.WithPattern("http://purl.obolibrary.org/obo/CHEBI_{id}", "https://identifiers.org/CHEBI:{id}")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register("Wd", "Wikidata", registry.WithPattern("http://www.wikidata.org/entity/{id}")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register("Cs", "PubChem-compound", registry.WithPattern("http://rdf.ncbi.nlm.nih.gov/pubchem/compound/CID{id}")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register("Gf", "GeneFamily", registry.WithPattern("http://example.org/fam/{id}.json")); err != nil {
		t.Fatal(err)
	}
	return New(r)
}

func TestRoundTrip(t *testing.T) {
	c := newTestConverter(t)

	tests := []struct {
		xref core.Xref
		idx  int
		want string
	}{
		{core.NewXref("15377", "Ce"), 0, "http://purl.obolibrary.org/obo/CHEBI_15377"},
		{core.NewXref("15377", "Ce"), 1, "https://identifiers.org/CHEBI:15377"},
		{core.NewXref("Q283", "Wd"), 0, "http://www.wikidata.org/entity/Q283"},
		{core.NewXref("962", "Cs"), 0, "http://rdf.ncbi.nlm.nih.gov/pubchem/compound/CID962"},
		{core.NewXref("F12", "Gf"), 0, "http://example.org/fam/F12.json"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := c.ToURI(tt.xref, tt.idx)
			if err != nil {
				t.Fatalf("to uri: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			back, err := c.ToXref(got)
			if err != nil {
				t.Fatalf("to xref: %v", err)
			}
			if back != tt.xref {
				t.Errorf("round trip gave %v, want %v", back, tt.xref)
			}
		})
	}
}

func TestToXrefNoMatch(t *testing.T) {
	c := newTestConverter(t)
	for _, u := range []string{
		"http://example.com/unknown/1",
		"http://www.wikidata.org/entity/", // empty id
		"http://example.org/fam/F12.xml",  // suffix mismatch
	} {
		if _, err := c.ToXref(u); !core.IsNotFound(err) {
			t.Errorf("%s: expected not found, got %v", u, err)
		}
	}
}

func TestToURIBadIndex(t *testing.T) {
	c := newTestConverter(t)
	if _, err := c.ToURI(core.NewXref("Q283", "Wd"), 1); !core.IsNotFound(err) {
		t.Errorf("expected not found for missing pattern index, got %v", err)
	}
	if _, err := c.ToURI(core.NewXref("1", "Zz"), 0); !core.IsNotFound(err) {
		t.Errorf("expected not found for unknown namespace, got %v", err)
	}
}

func TestFirstRegisteredWins(t *testing.T) {
	r := registry.New()
	if _, err := r.Register("A", "Alpha", registry.WithPattern("http://shared.example.org/{id}")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register("B", "Beta", registry.WithPattern("http://shared.example.org/{id}")); err != nil {
		t.Fatal(err)
	}
	c := New(r)

	x, err := c.ToXref("http://shared.example.org/123")
	if err != nil {
		t.Fatalf("to xref: %v", err)
	}
	if x.Namespace != "A" {
		t.Errorf("expected first registered namespace A, got %s", x.Namespace)
	}
	if owner, _ := c.PatternOwner("http://shared.example.org/{id}"); owner != "A" {
		t.Errorf("expected owner A, got %s", owner)
	}
}

func TestToURIsAndExpand(t *testing.T) {
	c := newTestConverter(t)
	x := core.NewXref("15377", "Ce")

	uris := c.ToURIs(x)
	if len(uris) != 2 {
		t.Fatalf("expected 2 uris, got %v", uris)
	}
	if got, ok := c.Expand(x, "https://identifiers.org/CHEBI:{id}"); !ok || got != "https://identifiers.org/CHEBI:15377" {
		t.Errorf("expand gave %s, %v", got, ok)
	}
	if _, ok := c.Expand(x, "http://www.wikidata.org/entity/{id}"); ok {
		t.Error("expanding through another namespace's pattern must fail")
	}
	if got := c.Patterns("Wd"); len(got) != 1 {
		t.Errorf("expected one Wikidata pattern, got %v", got)
	}
}
