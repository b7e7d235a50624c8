package registry

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

func TestRegisterBuilding(t *testing.T) {
	r := New()

	ns, err := r.Register("X", "Affymetrix",
		WithMainURL("http://www.affymetrix.com"),
		WithType("probe"),
		WithPrimary(false),
	)
	if err != nil {
		t.Fatalf("registering: %v", err)
	}
	if ns.Code != "X" || ns.FullName != "Affymetrix" {
		t.Errorf("wrong identity: %+v", ns)
	}
	if ns.MainURL != "http://www.affymetrix.com" {
		t.Errorf("wrong main url: %s", ns.MainURL)
	}
	if ns.Type != "probe" || ns.IsMetabolite() {
		t.Errorf("wrong type: %s", ns.Type)
	}
	if ns.Primary {
		t.Error("expected non-primary")
	}

	// refinement updates the same entry
	ns, err = r.Register("X", "Affymetrix", WithPrimary(true))
	if err != nil {
		t.Fatalf("refining: %v", err)
	}
	if !ns.Primary || ns.Type != "probe" {
		t.Errorf("refinement lost metadata: %+v", ns)
	}
	if len(r.All()) != 1 {
		t.Errorf("expected one namespace, got %d", len(r.All()))
	}
}

func TestRegisterMetabolite(t *testing.T) {
	r := New()
	ns, err := r.Register("F", "MetaboLoci", WithType("metabolite"))
	if err != nil {
		t.Fatalf("registering: %v", err)
	}
	if !ns.IsMetabolite() {
		t.Error("expected metabolite")
	}
}

func TestRegisterSecondFullName(t *testing.T) {
	r := New()
	if _, err := r.Register("Sc", "FullName1"); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	ns, err := r.Register("Sc", "FullName2")
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}
	if ns.FullName != "FullName1" {
		t.Errorf("primary name changed to %s", ns.FullName)
	}
	if len(ns.AlternativeNames) != 1 || ns.AlternativeNames[0] != "FullName2" {
		t.Errorf("alternative names: %v", ns.AlternativeNames)
	}

	for _, name := range []string{"FullName1", "FullName2"} {
		got, err := r.LookupByFullName(name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		if got.Code != "Sc" {
			t.Errorf("lookup %s returned %s", name, got.Code)
		}
	}
}

func TestRegisterConflicts(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *Registry) error
		run   func(r *Registry) error
	}{
		{
			name:  "alternative equals own full name",
			setup: func(r *Registry) error { return nil },
			run: func(r *Registry) error {
				_, err := r.Register("A", "Same", WithAlternativeName("Same"))
				return err
			},
		},
		{
			name: "alternative claimed by two namespaces",
			setup: func(r *Registry) error {
				_, err := r.Register("A", "First", WithAlternativeName("Shared"))
				return err
			},
			run: func(r *Registry) error {
				_, err := r.Register("B", "Second", WithAlternativeName("Shared"))
				return err
			},
		},
		{
			name: "alternative is another namespace's full name",
			setup: func(r *Registry) error {
				_, err := r.Register("A", "First")
				return err
			},
			run: func(r *Registry) error {
				_, err := r.Register("B", "Second", WithAlternativeName("First"))
				return err
			},
		},
		{
			name: "full name is another namespace's alternative",
			setup: func(r *Registry) error {
				_, err := r.Register("A", "First", WithAlternativeName("Alt"))
				return err
			},
			run: func(r *Registry) error {
				_, err := r.Register("B", "Alt")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			if err := tt.setup(r); err != nil {
				t.Fatalf("setup: %v", err)
			}
			before := len(r.All())
			err := tt.run(r)
			if !core.IsConflict(err) {
				t.Fatalf("expected conflict, got %v", err)
			}
			if len(r.All()) != before {
				t.Error("failed registration changed the registry")
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	r := New()
	if _, err := r.Register("", "Nameless"); !core.IsConfiguration(err) {
		t.Errorf("expected configuration error for empty code, got %v", err)
	}
	if _, err := r.Register("Q", ""); !core.IsConfiguration(err) {
		t.Errorf("expected configuration error for empty name, got %v", err)
	}
	if _, err := r.Register("Q", "Bad", WithPattern("http://example.org/no-placeholder")); !core.IsConfiguration(err) {
		t.Errorf("expected configuration error for bad pattern, got %v", err)
	}
	if r.Has("Q") {
		t.Error("rejected registration must not create the namespace")
	}
}

func TestLookupNotFound(t *testing.T) {
	r := New()
	if _, err := r.LookupByCode("nope"); !core.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := r.LookupByFullName("nope"); !core.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPatternsKeepRegistrationOrder(t *testing.T) {
	r := New()
	if _, err := r.Register("Ce", "ChEBI", WithPattern("http://purl.obolibrary.org/obo/CHEBI_{id}")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register("Wd", "Wikidata", WithPattern("http://www.wikidata.org/entity/{id}")); err != nil {
		t.Fatal(err)
	}
	// duplicate template on the same code is ignored
	if _, err := r.Register("Ce", "ChEBI", WithPattern("http://purl.obolibrary.org/obo/CHEBI_{id}", "https://identifiers.org/CHEBI:{id}")); err != nil {
		t.Fatal(err)
	}

	patterns := r.Patterns()
	want := []string{
		"http://purl.obolibrary.org/obo/CHEBI_{id}",
		"http://www.wikidata.org/entity/{id}",
		"https://identifiers.org/CHEBI:{id}",
	}
	if len(patterns) != len(want) {
		t.Fatalf("got %d patterns, want %d", len(patterns), len(want))
	}
	for i, p := range patterns {
		if p.Template != want[i] {
			t.Errorf("pattern %d = %s, want %s", i, p.Template, want[i])
		}
	}
	if got := r.PatternsFor("Ce"); len(got) != 2 {
		t.Errorf("expected 2 ChEBI patterns, got %d", len(got))
	}
}

func TestLookupReturnsCopies(t *testing.T) {
	r := New()
	if _, err := r.Register("A", "First", WithAlternativeName("Alt")); err != nil {
		t.Fatal(err)
	}
	ns, _ := r.LookupByCode("A")
	ns.AlternativeNames[0] = "mutated"

	again, _ := r.LookupByCode("A")
	if again.AlternativeNames[0] != "Alt" {
		t.Error("caller mutation leaked into the registry")
	}
}

func TestConcurrentRegistrationAndLookup(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			code := fmt.Sprintf("N%d", i)
			if _, err := r.Register(code, "Namespace "+code, WithPattern("http://example.org/"+code+"/{id}")); err != nil {
				t.Errorf("register %s: %v", code, err)
			}
		}(i)
		go func() {
			defer wg.Done()
			_ = r.All()
			_ = r.Patterns()
		}()
	}
	wg.Wait()

	if len(r.All()) != 20 {
		t.Errorf("expected 20 namespaces, got %d", len(r.All()))
	}
}

func TestLoadYAML(t *testing.T) {
	r := New()
	table := `
namespaces:
  - code: Ce
    full_name: ChEBI
    type: metabolite
    uri_patterns: ["http://purl.obolibrary.org/obo/CHEBI_{id}"]
  - code: Wd
    full_name: Wikidata
    uri_patterns: ["http://www.wikidata.org/entity/{id}"]
`
	if err := r.LoadYAML(strings.NewReader(table)); err != nil {
		t.Fatalf("loading: %v", err)
	}
	ce, err := r.LookupByCode("Ce")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ce.IsMetabolite() || len(ce.Patterns) != 1 {
		t.Errorf("unexpected descriptor: %+v", ce)
	}

	if err := r.LoadYAML(strings.NewReader("namespaces: [")); !core.IsConfiguration(err) {
		t.Errorf("expected configuration error for malformed yaml, got %v", err)
	}
}

func TestLoadYAMLRefiningKeepsPrimary(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("loading default table: %v", err)
	}
	refine := `
namespaces:
  - code: L
    full_name: Entrez Gene
    alternative_names: [GeneID]
`
	if err := r.LoadYAML(strings.NewReader(refine)); err != nil {
		t.Fatalf("refining: %v", err)
	}
	gene, err := r.LookupByCode("L")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !gene.Primary {
		t.Error("row without primary reset the flag")
	}
	if byAlt, err := r.LookupByFullName("GeneID"); err != nil || byAlt.Code != "L" {
		t.Errorf("alternative name not registered: %+v, %v", byAlt, err)
	}

	demote := "namespaces:\n  - code: L\n    full_name: Entrez Gene\n    primary: false\n"
	if err := r.LoadYAML(strings.NewReader(demote)); err != nil {
		t.Fatalf("demoting: %v", err)
	}
	if gene, _ = r.LookupByCode("L"); gene.Primary {
		t.Error("explicit primary: false was ignored")
	}
}

func TestOptionsFrom(t *testing.T) {
	ns := core.Namespace{Code: "Wd", FullName: "Wikidata", Primary: true}
	if got := len(OptionsFrom(TableEntry{Namespace: ns})); got != 0 {
		t.Errorf("unset row produced %d options", got)
	}
	if got := len(OptionsFrom(TableEntry{Namespace: ns, PrimarySet: true})); got != 1 {
		t.Errorf("full row produced %d options, want 1", got)
	}
}

func TestDefaultTable(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("loading default table: %v", err)
	}
	for _, code := range []string{"L", "En", "Ce", "Wd"} {
		if !r.Has(code) {
			t.Errorf("default table missing %s", code)
		}
	}
	affy, err := r.LookupByFullName("Affymetrix")
	if err != nil || affy.Code != "X" {
		t.Errorf("expected Affymetrix alias for X, got %+v, %v", affy, err)
	}
}
