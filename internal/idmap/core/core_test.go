package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		notFound    bool
		conflict    bool
		storage     bool
		config      bool
		wantMessage string
	}{
		{
			name:        "not found",
			err:         NotFoundError("get mapping", "42"),
			notFound:    true,
			wantMessage: "get mapping 42: not found",
		},
		{
			name:        "conflict",
			err:         ConflictError("register", "L", "name %q taken", "Entrez Gene"),
			conflict:    true,
			wantMessage: `register L: conflict: name "Entrez Gene" taken`,
		},
		{
			name:        "storage",
			err:         StorageError("edges from", "L:3643", context.DeadlineExceeded),
			storage:     true,
			wantMessage: "edges from L:3643: storage unavailable: context deadline exceeded",
		},
		{
			name:        "configuration",
			err:         ConfigurationErrorf("create mapping set", "predicate is required"),
			config:      true,
			wantMessage: "create mapping set: invalid configuration: predicate is required",
		},
		{
			name:        "wrapped with fmt",
			err:         fmt.Errorf("loading: %w", NotFoundError("lookup namespace", "Zz")),
			notFound:    true,
			wantMessage: "loading: lookup namespace Zz: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v", got, tt.notFound)
			}
			if got := IsConflict(tt.err); got != tt.conflict {
				t.Errorf("IsConflict = %v, want %v", got, tt.conflict)
			}
			if got := IsStorageUnavailable(tt.err); got != tt.storage {
				t.Errorf("IsStorageUnavailable = %v, want %v", got, tt.storage)
			}
			if got := IsConfiguration(tt.err); got != tt.config {
				t.Errorf("IsConfiguration = %v, want %v", got, tt.config)
			}
			if tt.err.Error() != tt.wantMessage {
				t.Errorf("message = %q, want %q", tt.err.Error(), tt.wantMessage)
			}
		})
	}
}

func TestStorageErrorKeepsCause(t *testing.T) {
	err := StorageError("commit", "", context.Canceled)
	if !errors.Is(err, context.Canceled) {
		t.Error("expected cause to be reachable through errors.Is")
	}

	// already classified errors are not re-wrapped
	nf := NotFoundError("get mapping set", "7")
	if got := StorageError("get mapping set", "7", nf); got != nf {
		t.Errorf("expected classified error to pass through, got %v", got)
	}
	if StorageError("noop", "", nil) != nil {
		t.Error("expected nil for nil cause")
	}
}

func TestXrefSet(t *testing.T) {
	a := NewXref("15377", "Ce")
	b := NewXref("Q283", "Wd")

	s := NewXrefSet(b, a, a)
	if len(s) != 2 {
		t.Fatalf("expected 2 members, got %d", len(s))
	}
	if !s.Contains(a) || !s.Contains(b) {
		t.Error("missing member")
	}
	if s.Contains(NewXref("Q283", "Ce")) {
		t.Error("equality must include the namespace")
	}

	got := s.Slice()
	if got[0] != a || got[1] != b {
		t.Errorf("unexpected order: %v", got)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back XrefSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != 2 || !back.Contains(a) {
		t.Errorf("decoded set differs: %v", back)
	}
}

func TestIdentityMapping(t *testing.T) {
	x := NewXref("3643", "L")
	m := IdentityMapping(x)
	if !m.IsIdentity() {
		t.Error("expected identity")
	}
	if m.Source != x || m.Target != x {
		t.Errorf("identity endpoints wrong: %+v", m)
	}
	stored := Mapping{ID: 1, Source: x, Target: NewXref("ENSG00000171105", "En"), MappingSetID: 3, Predicate: "skos:exactMatch"}
	if stored.IsIdentity() {
		t.Error("stored mapping reported as identity")
	}
}
