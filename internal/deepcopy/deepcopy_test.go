package deepcopy_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/internal/deepcopy"
)

func TestNormalizeCollapsesNumericTypes(t *testing.T) {
	got := deepcopy.Normalize(map[string]any{
		"age":   42,
		"score": int64(7),
		"ratio": float32(0.5),
	})

	want := map[string]any{
		"age":   float64(42),
		"score": float64(7),
		"ratio": float64(0.5),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalized tree mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeStruct(t *testing.T) {
	type address struct {
		City string `json:"city"`
	}
	type profile struct {
		Name    string  `json:"name"`
		Age     int     `json:"age"`
		Address address `json:"address"`
	}

	got := deepcopy.NormalizeMap(profile{Name: "ada", Age: 36, Address: address{City: "london"}})

	want := map[string]any{
		"name": "ada",
		"age":  float64(36),
		"address": map[string]any{
			"city": "london",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalized struct mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeMapNonObject(t *testing.T) {
	if got := deepcopy.NormalizeMap([]any{"a"}); len(got) != 0 {
		t.Fatalf("expected empty map for non-object input, got %v", got)
	}
	if got := deepcopy.NormalizeMap(nil); got == nil {
		t.Fatal("expected non-nil map for nil input")
	}
}

func TestCloneMapIsolation(t *testing.T) {
	src := map[string]any{
		"nested": map[string]any{"flag": true},
		"items":  []any{map[string]any{"id": float64(1)}},
	}

	clone := deepcopy.CloneMap(src)
	clone["nested"].(map[string]any)["flag"] = false
	clone["items"].([]any)[0].(map[string]any)["id"] = float64(2)

	if src["nested"].(map[string]any)["flag"] != true {
		t.Fatal("clone mutation leaked into source map")
	}
	if src["items"].([]any)[0].(map[string]any)["id"] != float64(1) {
		t.Fatal("clone mutation leaked into source slice")
	}
}

func TestCloneStruct(t *testing.T) {
	type record struct {
		Values map[string]any
		Tags   []any
	}

	src := record{
		Values: map[string]any{"a": float64(1)},
		Tags:   []any{"x"},
	}
	clone := deepcopy.Clone(src)
	clone.Values["a"] = float64(2)
	clone.Tags[0] = "y"

	if src.Values["a"] != float64(1) || src.Tags[0] != "x" {
		t.Fatal("struct clone shares backing storage with source")
	}
}

func TestEqual(t *testing.T) {
	a := map[string]any{"n": []any{float64(1), float64(2)}}
	b := map[string]any{"n": []any{float64(1), float64(2)}}
	if !deepcopy.Equal(a, b) {
		t.Fatal("expected deep-equal trees to compare equal")
	}
	b["n"].([]any)[1] = float64(3)
	if deepcopy.Equal(a, b) {
		t.Fatal("expected differing trees to compare unequal")
	}
}
