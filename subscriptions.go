package formstate

import (
	"errors"
	"sync"

	"github.com/goliatone/go-formstate/internal/deepcopy"
)

// Watch subscriptions are the only path by which external readers learn of
// state changes; the engine never polls. Each subscription derives its value
// from the notified record and drops deliveries that deep-equal the last one
// it handed out.

// WatchState delivers every distinct state snapshot written for this form.
// The returned func cancels the subscription.
func (m *Manager[S]) WatchState(fn func(State[S])) (func(), error) {
	if fn == nil {
		return nil, errors.New("formstate: watch callback is required")
	}
	deliver := newDeduper(func(record Record) any {
		return record
	})
	return m.cfg.store.Watch(m.key, func(record Record) {
		snapshot, ok := deliver(record)
		if !ok {
			return
		}
		state, err := stateFromRecord[S](snapshot.(Record))
		if err != nil {
			m.log(LogEvent{Op: "watch", Err: err})
			return
		}
		fn(state)
	})
}

// WatchValue delivers the value at path each time it changes.
func (m *Manager[S]) WatchValue(path string, fn func(any)) (func(), error) {
	if err := checkWatchArgs(path, fn == nil); err != nil {
		return nil, err
	}
	deliver := newDeduper(func(record Record) any {
		return record.valueAt(path)
	})
	return m.cfg.store.Watch(m.key, func(record Record) {
		value, ok := deliver(record)
		if !ok {
			return
		}
		fn(value)
	})
}

// WatchError delivers the error message at path each time it changes.
func (m *Manager[S]) WatchError(path string, fn func(string)) (func(), error) {
	if err := checkWatchArgs(path, fn == nil); err != nil {
		return nil, err
	}
	deliver := newDeduper(func(record Record) any {
		return record.errorAt(path)
	})
	return m.cfg.store.Watch(m.key, func(record Record) {
		message, ok := deliver(record)
		if !ok {
			return
		}
		fn(message.(string))
	})
}

// WatchTouched delivers the touched flag at path each time it changes.
func (m *Manager[S]) WatchTouched(path string, fn func(bool)) (func(), error) {
	if err := checkWatchArgs(path, fn == nil); err != nil {
		return nil, err
	}
	deliver := newDeduper(func(record Record) any {
		return record.touchedAt(path)
	})
	return m.cfg.store.Watch(m.key, func(record Record) {
		touched, ok := deliver(record)
		if !ok {
			return
		}
		fn(touched.(bool))
	})
}

func checkWatchArgs(path string, nilFn bool) error {
	if path == "" {
		return errors.New("formstate: watch path is required")
	}
	if nilFn {
		return errors.New("formstate: watch callback is required")
	}
	return nil
}

// newDeduper wraps a derivation so only values that differ from the last
// delivered one pass through. The first notification always delivers; the
// store only notifies on writes, so there is no synchronous replay of the
// current state at subscribe time.
func newDeduper(derive func(Record) any) func(Record) (any, bool) {
	var mu sync.Mutex
	var last any
	delivered := false
	return func(record Record) (any, bool) {
		value := derive(record)
		mu.Lock()
		defer mu.Unlock()
		if delivered && deepcopy.Equal(last, value) {
			return nil, false
		}
		last = value
		delivered = true
		return value, true
	}
}
