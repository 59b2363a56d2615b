package postprocessors

import (
	"errors"
	"sort"
	"testing"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if len(r.builders) != 0 {
		t.Errorf("expected empty builders, got %d", len(r.builders))
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	r.Register("test", func(_ map[string]any) (driven.PostProcessor, error) {
		return &hitHook{name: "test"}, nil
	})

	if !r.Has("test") {
		t.Error("expected registry to have 'test'")
	}
	if r.Has("other") {
		t.Error("expected registry to not have 'other'")
	}
}

func TestRegistry_Build_Unknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Build("missing", nil)
	if !errors.Is(err, domain.ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	names := r.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "html_cleanup" || names[1] != "snippet_trim" {
		t.Errorf("unexpected defaults: %v", names)
	}
}

func TestRegistry_BuildChain(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	chain, err := r.BuildChain(
		[]string{"snippet_trim", "html_cleanup"},
		map[string]map[string]any{"snippet_trim": {"max_chars": int64(80)}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := chain.Names()
	if len(names) != 2 || names[0] != "snippet_trim" || names[1] != "html_cleanup" {
		t.Errorf("chain must keep configured order, got %v", names)
	}
	if err := chain.Register(&hitHook{name: "late"}); !errors.Is(err, domain.ErrRegistrySealed) {
		t.Errorf("built chain must be sealed, got %v", err)
	}
}

func TestRegistry_BuildChain_UnknownHook(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	if _, err := r.BuildChain([]string{"html_cleanup", "nope"}, nil); err == nil {
		t.Error("expected error for unknown hook")
	}
}

func TestGetIntFromConfig(t *testing.T) {
	cfg := map[string]any{"a": 1, "b": int64(2), "c": 3.0, "d": "4"}

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3, "d": 0, "missing": 0} {
		if got := getIntFromConfig(cfg, key); got != want {
			t.Errorf("%s: expected %d, got %d", key, want, got)
		}
	}
}
