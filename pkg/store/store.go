package store

import (
	"context"
	"errors"
)

// ErrNotFound reports an absent record. Read implementations may return it
// instead of reporting absence through the ok result; callers tolerate both.
var ErrNotFound = errors.New("store: record not found")

// Store persists one structured record per key and pushes change
// notifications to watchers. Write replaces the record wholesale; partial
// updates are a caller concern.
type Store[T any] interface {
	// Read returns the record at key. Absence surfaces as
	// (zero, false, nil) or (zero, false, ErrNotFound).
	Read(ctx context.Context, key string) (T, bool, error)

	// Write replaces the record at key, notifying watchers.
	Write(ctx context.Context, key string, record T) error

	// Watch registers fn for change notifications on key. Delivery is
	// at-least-once with no ordering guarantee beyond eventually observing
	// the latest value. The returned func cancels the subscription.
	Watch(key string, fn func(T)) (func(), error)

	// Evict removes the record at key. Surrounding integrations evict;
	// the form engine never does.
	Evict(ctx context.Context, key string) error
}
