package formstate_test

import (
	"context"
	"sync"
	"testing"

	formstate "github.com/goliatone/go-formstate"
)

type recorder[T any] struct {
	mu       sync.Mutex
	received []T
}

func (r *recorder[T]) add(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, value)
}

func (r *recorder[T]) values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.received))
	copy(out, r.received)
	return out
}

func TestWatchStateDeliversDistinctWrites(t *testing.T) {
	ctx := context.Background()
	manager, err := formstate.New[values](ctx, "watch-state",
		formstate.WithInitialValues[values](values{"age": float64(20)}),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	states := &recorder[formstate.State[values]]{}
	cancel, err := manager.WatchState(states.add)
	if err != nil {
		t.Fatalf("watch state: %v", err)
	}
	defer cancel()

	if err := manager.SetFieldValue(ctx, "age", 30); err != nil {
		t.Fatalf("set field value: %v", err)
	}
	if err := manager.SetFieldValue(ctx, "age", 30); err != nil {
		t.Fatalf("set field value again: %v", err)
	}
	if err := manager.SetLoading(ctx, true); err != nil {
		t.Fatalf("set loading: %v", err)
	}

	got := states.values()
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if age, _ := got[0].Values["age"].(float64); age != 30 {
		t.Fatalf("expected first delivery with age 30, got %v", got[0].Values)
	}
	if !got[1].Loading {
		t.Fatal("expected second delivery to carry loading flag")
	}
}

func TestWatchStateDedupsEqualWrites(t *testing.T) {
	ctx := context.Background()
	manager, err := formstate.New[values](ctx, "watch-dedup")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	states := &recorder[formstate.State[values]]{}
	cancel, err := manager.WatchState(states.add)
	if err != nil {
		t.Fatalf("watch state: %v", err)
	}
	defer cancel()

	snapshot, err := manager.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := manager.Set(ctx, snapshot); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := manager.Set(ctx, snapshot); err != nil {
		t.Fatalf("set again: %v", err)
	}

	if got := len(states.values()); got != 1 {
		t.Fatalf("expected identical rewrite to be deduplicated, got %d deliveries", got)
	}
}

func TestWatchValueTracksOnePath(t *testing.T) {
	ctx := context.Background()
	manager, err := formstate.New[values](ctx, "watch-value",
		formstate.WithInitialValues[values](values{"age": float64(20), "name": ""}),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	ages := &recorder[any]{}
	cancel, err := manager.WatchValue("age", ages.add)
	if err != nil {
		t.Fatalf("watch value: %v", err)
	}
	defer cancel()

	if err := manager.SetFieldValue(ctx, "age", 30); err != nil {
		t.Fatalf("set age: %v", err)
	}
	if err := manager.SetFieldValue(ctx, "name", "ada"); err != nil {
		t.Fatalf("set name: %v", err)
	}

	got := ages.values()
	if len(got) != 1 {
		t.Fatalf("expected a single age delivery, got %d: %v", len(got), got)
	}
	if age, _ := got[0].(float64); age != 30 {
		t.Fatalf("expected age 30, got %v", got[0])
	}
}

func TestWatchErrorTracksMessages(t *testing.T) {
	ctx := context.Background()
	manager := newAdultForm(t, "watch-error", 10)

	messages := &recorder[string]{}
	cancel, err := manager.WatchError("age", messages.add)
	if err != nil {
		t.Fatalf("watch error: %v", err)
	}
	defer cancel()

	if err := manager.SetFieldValue(ctx, "age", 30); err != nil {
		t.Fatalf("fix age: %v", err)
	}
	if err := manager.SetFieldValue(ctx, "age", 3); err != nil {
		t.Fatalf("break age: %v", err)
	}

	got := messages.values()
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d: %v", len(got), got)
	}
	if got[0] != "" {
		t.Fatalf("expected cleared message first, got %q", got[0])
	}
	if got[1] == "" {
		t.Fatal("expected violation message after breaking the field")
	}
}

func TestWatchTouchedTracksFlags(t *testing.T) {
	ctx := context.Background()
	manager, err := formstate.New[values](ctx, "watch-touched")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	flags := &recorder[bool]{}
	cancel, err := manager.WatchTouched("name", flags.add)
	if err != nil {
		t.Fatalf("watch touched: %v", err)
	}
	defer cancel()

	if err := manager.SetFieldTouched(ctx, "name", true); err != nil {
		t.Fatalf("set touched: %v", err)
	}

	got := flags.values()
	if len(got) != 1 || !got[0] {
		t.Fatalf("expected single true delivery, got %v", got)
	}
}

func TestWatchCancelStopsDeliveries(t *testing.T) {
	ctx := context.Background()
	manager, err := formstate.New[values](ctx, "watch-cancel")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	states := &recorder[formstate.State[values]]{}
	cancel, err := manager.WatchState(states.add)
	if err != nil {
		t.Fatalf("watch state: %v", err)
	}
	cancel()
	cancel()

	if err := manager.SetLoading(ctx, true); err != nil {
		t.Fatalf("set loading: %v", err)
	}
	if got := len(states.values()); got != 0 {
		t.Fatalf("expected no deliveries after cancel, got %d", got)
	}
}

func TestWatchArgumentValidation(t *testing.T) {
	ctx := context.Background()
	manager, err := formstate.New[values](ctx, "watch-args")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := manager.WatchState(nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
	if _, err := manager.WatchValue("", func(any) {}); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := manager.WatchError("age", nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
}
