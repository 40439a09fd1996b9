package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formstate/internal/deepcopy"
)

// Memory is an in-process Store backed by a mutex-guarded map. Records are
// deep-copied at every boundary so callers and watchers never alias stored
// state. Notifications run synchronously once the lock is released.
type Memory[T any] struct {
	mu       sync.RWMutex
	records  map[string]T
	watchers map[string]map[string]func(T)
}

var _ Store[struct{}] = (*Memory[struct{}])(nil)

// NewMemory constructs an empty in-memory store.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{
		records:  make(map[string]T),
		watchers: make(map[string]map[string]func(T)),
	}
}

// Read returns a deep copy of the record at key, or ErrNotFound.
func (m *Memory[T]) Read(_ context.Context, key string) (T, bool, error) {
	var zero T
	if key == "" {
		return zero, false, errors.New("store: key is required")
	}

	m.mu.RLock()
	record, ok := m.records[key]
	m.mu.RUnlock()

	if !ok {
		return zero, false, ErrNotFound
	}
	return deepcopy.Clone(record), true, nil
}

// Write stores a deep copy of record at key and notifies watchers with
// their own copies.
func (m *Memory[T]) Write(_ context.Context, key string, record T) error {
	if key == "" {
		return errors.New("store: key is required")
	}

	stored := deepcopy.Clone(record)

	m.mu.Lock()
	m.records[key] = stored
	watchers := m.watcherSnapshot(key)
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(deepcopy.Clone(stored))
	}
	return nil
}

// Watch registers fn for writes against key until the returned func runs.
func (m *Memory[T]) Watch(key string, fn func(T)) (func(), error) {
	if key == "" {
		return nil, errors.New("store: key is required")
	}
	if fn == nil {
		return nil, errors.New("store: watch callback is required")
	}

	id := uuid.NewString()

	m.mu.Lock()
	if m.watchers[key] == nil {
		m.watchers[key] = make(map[string]func(T))
	}
	m.watchers[key][id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs, ok := m.watchers[key]
		if !ok {
			return
		}
		delete(subs, id)
		if len(subs) == 0 {
			delete(m.watchers, key)
		}
	}, nil
}

// Evict removes the record at key. Watchers stay registered; they only fire
// on subsequent writes.
func (m *Memory[T]) Evict(_ context.Context, key string) error {
	if key == "" {
		return errors.New("store: key is required")
	}
	m.mu.Lock()
	delete(m.records, key)
	m.mu.Unlock()
	return nil
}

// watcherSnapshot must be called with the lock held.
func (m *Memory[T]) watcherSnapshot(key string) []func(T) {
	subs := m.watchers[key]
	if len(subs) == 0 {
		return nil
	}
	out := make([]func(T), 0, len(subs))
	for _, fn := range subs {
		out = append(out, fn)
	}
	return out
}
