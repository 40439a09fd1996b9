package rules_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/rules"
)

func noopFunction(args ...any) (any, error) {
	return nil, nil
}

func TestFunctionRegistryRejectsDuplicates(t *testing.T) {
	registry := rules.NewFunctionRegistry()

	if err := registry.Register("Trim", noopFunction); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("trim", noopFunction); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestFunctionRegistryCallIsCaseInsensitive(t *testing.T) {
	registry := rules.NewFunctionRegistry()
	if err := registry.Register("Greet", func(args ...any) (any, error) {
		return "hi", nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := registry.Call("GREET")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result != "hi" {
		t.Fatalf("expected hi, got %v", result)
	}

	if _, err := registry.Call("unknown"); err == nil {
		t.Fatal("expected error for unregistered function")
	}
}

func TestFunctionRegistryNamesSorted(t *testing.T) {
	registry := rules.NewFunctionRegistry()
	for _, name := range []string{"zeta", "alpha", "Mid"} {
		if err := registry.Register(name, noopFunction); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	want := []string{"alpha", "mid", "zeta"}
	if diff := cmp.Diff(want, registry.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFunctionRegistryCloneIsolation(t *testing.T) {
	registry := rules.NewFunctionRegistry()
	if err := registry.Register("base", noopFunction); err != nil {
		t.Fatalf("register: %v", err)
	}

	clone := registry.Clone()
	if err := clone.Register("extra", noopFunction); err != nil {
		t.Fatalf("register on clone: %v", err)
	}

	if _, err := registry.Call("extra"); err == nil {
		t.Fatal("expected original registry to miss clone-only function")
	}
	if _, err := clone.Call("base"); err != nil {
		t.Fatalf("expected clone to carry base function: %v", err)
	}
}

func TestFunctionRegistryRejectsNilFunction(t *testing.T) {
	registry := rules.NewFunctionRegistry()
	if err := registry.Register("bad", nil); err == nil {
		t.Fatal("expected error for nil function")
	}
	if err := registry.Register("", noopFunction); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestMapCacheRoundtrip(t *testing.T) {
	cache := rules.NewMapCache()

	if _, ok := cache.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}

	cache.Set("expr", 42)
	value, ok := cache.Get("expr")
	if !ok || value != 42 {
		t.Fatalf("expected cached 42, got %v (%t)", value, ok)
	}

	cache.Set("expr", 43)
	value, _ = cache.Get("expr")
	if value != 43 {
		t.Fatalf("expected overwrite to 43, got %v", value)
	}
}
