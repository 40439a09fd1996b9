package formstate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/internal/deepcopy"
	"github.com/goliatone/go-formstate/pkg/store"
)

// Manager owns one named form snapshot. All reads and writes go through the
// configured store; the manager holds no state of its own beyond the
// validator registry, so concurrent managers over the same store key follow
// last-write-wins semantics. There is no guard against overlapping submits.
type Manager[S any] struct {
	cfg  config[S]
	name string
	key  string

	mu         sync.Mutex
	validators map[string]FieldValidator
}

// New constructs a Manager for name, ensures the record exists in the store
// and, unless disabled through WithValidateOnMount, runs an initial
// validation pass. With WithReinitialize the initial record replaces
// whatever the store holds.
func New[S any](ctx context.Context, name string, opts ...Option[S]) (*Manager[S], error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}

	cfg := newConfig(opts)
	m := &Manager[S]{
		cfg:        cfg,
		name:       name,
		key:        storeKey(name),
		validators: cfg.fieldValidators,
	}

	var record Record
	if cfg.reinitialize {
		record = cfg.initialRecord()
		if err := m.write(ctx, record); err != nil {
			return nil, err
		}
	} else {
		loaded, err := m.load(ctx)
		if err != nil {
			return nil, err
		}
		record = loaded
	}

	if cfg.validateOnMount {
		if err := m.runValidation(&record, false); err != nil {
			return nil, err
		}
		if err := m.write(ctx, record); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// storeKey derives the store key for a form name. One key per name; callers
// must keep names unique across concurrently active forms.
func storeKey(name string) string {
	return "forms/" + name
}

// Name returns the form's unique name.
func (m *Manager[S]) Name() string {
	return m.name
}

// Key returns the store key this manager reads and writes. Surrounding
// integrations use it to evict the record once the form goes away.
func (m *Manager[S]) Key() string {
	return m.key
}

// load fetches the current record. Absence and read failures both degrade to
// reinitialization, so "absent" is never observable through the public API;
// read failures are reported to the logger hook.
func (m *Manager[S]) load(ctx context.Context) (Record, error) {
	record, ok, err := m.cfg.store.Read(ctx, m.key)
	if err != nil {
		ok = false
		if !errors.Is(err, store.ErrNotFound) {
			m.log(LogEvent{Op: "read", Err: err})
		}
	}
	if ok {
		return record, nil
	}

	initial := m.cfg.initialRecord()
	if err := m.write(ctx, initial); err != nil {
		return Record{}, err
	}
	return initial, nil
}

func (m *Manager[S]) write(ctx context.Context, record Record) error {
	if err := m.cfg.store.Write(ctx, m.key, record); err != nil {
		m.log(LogEvent{Op: "write", Err: err})
		return fmt.Errorf("formstate: write %q: %w", m.name, err)
	}
	return nil
}

func (m *Manager[S]) log(event LogEvent) {
	event.Form = m.name
	event.Key = m.key
	m.cfg.logger.Log(event)
}

// Get returns the current state as a deep copy, initializing the store on
// first touch.
func (m *Manager[S]) Get(ctx context.Context) (State[S], error) {
	record, err := m.load(ctx)
	if err != nil {
		return State[S]{}, err
	}
	return stateFromRecord[S](record)
}

// Set writes state through to the store wholesale.
func (m *Manager[S]) Set(ctx context.Context, state State[S]) error {
	return m.write(ctx, recordFromState(state))
}

// Values returns the current value tree.
func (m *Manager[S]) Values(ctx context.Context) (S, error) {
	state, err := m.Get(ctx)
	return state.Values, err
}

// FieldValue reads the value at path, nil when absent.
func (m *Manager[S]) FieldValue(ctx context.Context, path string) (any, error) {
	record, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	return record.valueAt(path), nil
}

// FieldError reads the error message at path, empty when absent.
func (m *Manager[S]) FieldError(ctx context.Context, path string) (string, error) {
	record, err := m.load(ctx)
	if err != nil {
		return "", err
	}
	return record.errorAt(path), nil
}

// FieldTouched reads the touched flag at path, false when absent.
func (m *Manager[S]) FieldTouched(ctx context.Context, path string) (bool, error) {
	record, err := m.load(ctx)
	if err != nil {
		return false, err
	}
	return record.touchedAt(path), nil
}

// SetValues replaces the whole value tree, marks ExistsChanges and notifies
// the on-change callback.
func (m *Manager[S]) SetValues(ctx context.Context, values S) error {
	record, err := m.load(ctx)
	if err != nil {
		return err
	}
	record.Values = deepcopy.NormalizeMap(values)
	record.ExistsChanges = true
	if err := m.write(ctx, record); err != nil {
		return err
	}
	if m.cfg.onChange != nil {
		m.cfg.onChange(values, m)
	}
	return nil
}

// SetErrors replaces the whole error tree and recomputes IsValid from it.
func (m *Manager[S]) SetErrors(ctx context.Context, errs map[string]any) error {
	record, err := m.load(ctx)
	if err != nil {
		return err
	}
	record.Errors = deepcopy.NormalizeMap(errs)
	record.recomputeValid()
	return m.write(ctx, record)
}

// SetTouches replaces the whole touched tree.
func (m *Manager[S]) SetTouches(ctx context.Context, touches map[string]any) error {
	record, err := m.load(ctx)
	if err != nil {
		return err
	}
	record.Touches = deepcopy.NormalizeMap(touches)
	return m.write(ctx, record)
}

// SetFieldValue marks path touched if it was not, writes the value and
// re-validates. The store is written only when any of that changed the
// record; the on-change callback fires when the value write changed state.
func (m *Manager[S]) SetFieldValue(ctx context.Context, path string, value any) error {
	record, err := m.load(ctx)
	if err != nil {
		return err
	}
	before := record.clone()

	if !record.touchedAt(path) {
		if _, err := record.setTouched(path, true); err != nil {
			return err
		}
	}
	valueChanged, err := record.setValue(path, value)
	if err != nil {
		return err
	}
	if err := m.runValidation(&record, false); err != nil {
		return err
	}

	if !deepcopy.Equal(before, record) {
		if err := m.write(ctx, record); err != nil {
			return err
		}
	}
	if valueChanged && m.cfg.onChange != nil {
		values, err := decodeValues[S](record.Values)
		if err != nil {
			return err
		}
		m.cfg.onChange(values, m)
	}
	return nil
}

// SetFieldError writes a single error message and recomputes IsValid. Equal
// writes skip the store entirely.
func (m *Manager[S]) SetFieldError(ctx context.Context, path, message string) error {
	record, err := m.load(ctx)
	if err != nil {
		return err
	}
	changed, err := record.setError(path, message)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	record.recomputeValid()
	return m.write(ctx, record)
}

// SetFieldTouched writes a single touched flag. Equal writes skip the store.
func (m *Manager[S]) SetFieldTouched(ctx context.Context, path string, touched bool) error {
	record, err := m.load(ctx)
	if err != nil {
		return err
	}
	changed, err := record.setTouched(path, touched)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return m.write(ctx, record)
}

// SetIsValid overrides the computed validity flag. Escape hatch; the next
// validation pass recomputes it.
func (m *Manager[S]) SetIsValid(ctx context.Context, valid bool) error {
	record, err := m.load(ctx)
	if err != nil {
		return err
	}
	record.IsValid = valid
	return m.write(ctx, record)
}

// SetIsSubmitted overrides the submitted flag.
func (m *Manager[S]) SetIsSubmitted(ctx context.Context, submitted bool) error {
	record, err := m.load(ctx)
	if err != nil {
		return err
	}
	record.IsSubmitted = submitted
	return m.write(ctx, record)
}

// SetExistsChanges overrides the dirty flag.
func (m *Manager[S]) SetExistsChanges(ctx context.Context, exists bool) error {
	record, err := m.load(ctx)
	if err != nil {
		return err
	}
	record.ExistsChanges = exists
	return m.write(ctx, record)
}

// SetLoading overrides the loading flag.
func (m *Manager[S]) SetLoading(ctx context.Context, loading bool) error {
	record, err := m.load(ctx)
	if err != nil {
		return err
	}
	record.Loading = loading
	return m.write(ctx, record)
}

// AddFieldValidator registers fn at path. The first registration wins;
// later registrations for the same path are no-ops and report false.
func (m *Manager[S]) AddFieldValidator(path string, fn FieldValidator) bool {
	if path == "" || fn == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.validators[path]; exists {
		return false
	}
	m.validators[path] = fn
	return true
}

// RemoveFieldValidator drops the validator registered at path, if any.
func (m *Manager[S]) RemoveFieldValidator(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.validators, path)
}

// validatorPaths returns registered paths in sorted order so validation is
// deterministic.
func (m *Manager[S]) validatorPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.validators))
	for path := range m.validators {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (m *Manager[S]) fieldValidator(path string) FieldValidator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validators[path]
}

// Validate re-runs the validation pipeline and writes the result back.
func (m *Manager[S]) Validate(ctx context.Context, allTouched bool) (State[S], error) {
	record, err := m.load(ctx)
	if err != nil {
		return State[S]{}, err
	}
	if err := m.runValidation(&record, allTouched); err != nil {
		return State[S]{}, err
	}
	if err := m.write(ctx, record); err != nil {
		return State[S]{}, err
	}
	return stateFromRecord[S](record)
}

// Submit drives the submission state machine: validate with every erroring
// field marked touched, set IsSubmitted, and when the state is valid and a
// handler is configured, write Loading=true, invoke the handler, then write
// Loading=false (restoring the initial snapshot first when configured with
// WithResetOnSubmit and the handler succeeded). The handler's error is
// returned to the caller but never retained in the stored state.
func (m *Manager[S]) Submit(ctx context.Context) error {
	record, err := m.load(ctx)
	if err != nil {
		return err
	}
	if err := m.runValidation(&record, true); err != nil {
		return err
	}
	record.IsSubmitted = true

	if !record.IsValid || m.cfg.onSubmit == nil {
		return m.write(ctx, record)
	}

	record.Loading = true
	if err := m.write(ctx, record); err != nil {
		return err
	}

	var submitErr error
	state, err := stateFromRecord[S](record)
	if err != nil {
		submitErr = err
	} else {
		submitErr = m.cfg.onSubmit(ctx, state)
	}
	if submitErr != nil {
		m.log(LogEvent{Op: "submit", Err: submitErr})
	}

	record.Loading = false
	if submitErr == nil && m.cfg.resetOnSubmit {
		next := m.cfg.initialRecord()
		var validateErr error
		if m.cfg.validateOnMount {
			validateErr = m.runValidation(&next, false)
		}
		if validateErr != nil {
			if err := m.write(ctx, record); err != nil {
				return err
			}
			return validateErr
		}
		record = next
	}
	if err := m.write(ctx, record); err != nil {
		return err
	}
	return submitErr
}

// ResetOption adjusts what Reset restores the values to.
type ResetOption[S any] func(*resetOptions[S])

type resetOptions[S any] struct {
	values    map[string]any
	hasValues bool
	transform func(current S) S
}

// ResetValues restores values to a caller-supplied replacement instead of
// the initial snapshot.
func ResetValues[S any](values S) ResetOption[S] {
	return func(o *resetOptions[S]) {
		o.values = deepcopy.NormalizeMap(values)
		o.hasValues = true
	}
}

// ResetTransform derives the restored values from the current ones, for
// "reset but keep some fields" flows. Takes precedence over ResetValues.
func ResetTransform[S any](fn func(current S) S) ResetOption[S] {
	return func(o *resetOptions[S]) {
		o.transform = fn
	}
}

// Reset restores values (initial snapshot, replacement, or transform of the
// current values), restores errors and touches to their initial snapshots,
// clears IsSubmitted and ExistsChanges, then re-validates when the manager
// validates on mount.
func (m *Manager[S]) Reset(ctx context.Context, opts ...ResetOption[S]) (State[S], error) {
	var options resetOptions[S]
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	record, err := m.load(ctx)
	if err != nil {
		return State[S]{}, err
	}

	next := m.cfg.initialRecord()
	switch {
	case options.transform != nil:
		current, err := decodeValues[S](record.Values)
		if err != nil {
			return State[S]{}, err
		}
		next.Values = deepcopy.NormalizeMap(options.transform(current))
	case options.hasValues:
		next.Values = options.values
	}

	if m.cfg.validateOnMount {
		if err := m.runValidation(&next, false); err != nil {
			return State[S]{}, err
		}
	}
	if err := m.write(ctx, next); err != nil {
		return State[S]{}, err
	}
	return stateFromRecord[S](next)
}
