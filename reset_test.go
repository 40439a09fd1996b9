package formstate_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	formstate "github.com/goliatone/go-formstate"
)

func TestResetRestoresInitialSnapshots(t *testing.T) {
	ctx := context.Background()
	initialValues := values{"name": "ada", "age": float64(36)}
	initialErrors := map[string]any{"name": "seeded"}
	initialTouches := map[string]any{"name": true}

	manager, err := formstate.New[values](ctx, "reset-snapshots",
		formstate.WithInitialValues[values](initialValues),
		formstate.WithInitialErrors[values](initialErrors),
		formstate.WithInitialTouches[values](initialTouches),
		formstate.WithValidateOnMount[values](false),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if err := manager.SetFieldValue(ctx, "name", "grace"); err != nil {
		t.Fatalf("set field value: %v", err)
	}
	if err := manager.SetFieldError(ctx, "age", "too old"); err != nil {
		t.Fatalf("set field error: %v", err)
	}
	if err := manager.SetFieldTouched(ctx, "age", true); err != nil {
		t.Fatalf("set field touched: %v", err)
	}
	if err := manager.SetIsSubmitted(ctx, true); err != nil {
		t.Fatalf("set submitted: %v", err)
	}

	state, err := manager.Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	if diff := cmp.Diff(initialValues, state.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(initialErrors, state.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(initialTouches, state.Touches); diff != "" {
		t.Fatalf("touches mismatch (-want +got):\n%s", diff)
	}
	if state.IsSubmitted || state.ExistsChanges {
		t.Fatalf("expected cleared flags, got %+v", state)
	}
	if state.IsValid {
		t.Fatal("expected validity recomputed from seeded errors")
	}
}

func TestResetRevalidatesPerMountPolicy(t *testing.T) {
	ctx := context.Background()
	manager := newAdultForm(t, "reset-revalidate", 10)

	if err := manager.SetFieldValue(ctx, "age", 30); err != nil {
		t.Fatalf("set field value: %v", err)
	}
	state, err := manager.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !state.IsValid {
		t.Fatal("expected valid before reset")
	}

	state, err = manager.Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if state.IsValid {
		t.Fatal("expected reset to re-validate the restored minor age")
	}
	if message, _ := state.Errors["age"].(string); message == "" {
		t.Fatalf("expected age error after reset, got %v", state.Errors)
	}
}

func TestResetWithReplacementValues(t *testing.T) {
	ctx := context.Background()
	manager := newAdultForm(t, "reset-replace", 10)

	state, err := manager.Reset(ctx, formstate.ResetValues[values](values{"age": float64(25)}))
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	want := values{"age": float64(25)}
	if diff := cmp.Diff(want, state.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if !state.IsValid {
		t.Fatal("expected replacement values to validate clean")
	}
}

func TestResetTransformKeepsChosenFields(t *testing.T) {
	ctx := context.Background()
	manager, err := formstate.New[values](ctx, "reset-transform",
		formstate.WithInitialValues[values](values{"email": "", "draft": ""}),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if err := manager.SetFieldValue(ctx, "email", "ada@example.com"); err != nil {
		t.Fatalf("set email: %v", err)
	}
	if err := manager.SetFieldValue(ctx, "draft", "half-written"); err != nil {
		t.Fatalf("set draft: %v", err)
	}

	state, err := manager.Reset(ctx, formstate.ResetTransform[values](func(current values) values {
		return values{"email": current["email"], "draft": ""}
	}))
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	want := values{"email": "ada@example.com", "draft": ""}
	if diff := cmp.Diff(want, state.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if state.ExistsChanges {
		t.Fatal("expected dirty flag cleared by reset")
	}
}
