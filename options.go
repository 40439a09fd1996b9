package formstate

import (
	"context"
	"errors"

	"github.com/goliatone/go-formstate/internal/deepcopy"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/store"
)

// ErrNameRequired reports a manager constructed without a form name.
var ErrNameRequired = errors.New("formstate: form name is required")

// FieldValidator checks a single field value and returns a failure message,
// or the empty string when the value passes.
type FieldValidator func(value any) string

// ValidateFunc is the free-form validation source: it receives the full
// state and returns an error tree mirroring the values it objects to.
type ValidateFunc[S any] func(state State[S]) map[string]any

// OnChangeFunc observes value mutations performed through the manager.
type OnChangeFunc[S any] func(values S, manager *Manager[S])

// OnSubmitFunc handles a valid submission. Its error is returned to the
// Submit caller but never stored in the form state.
type OnSubmitFunc[S any] func(ctx context.Context, state State[S]) error

type config[S any] struct {
	store           store.Store[Record]
	initialValues   map[string]any
	initialErrors   map[string]any
	initialTouches  map[string]any
	validate        ValidateFunc[S]
	schema          schema.Validator
	fieldValidators map[string]FieldValidator
	reinitialize    bool
	validateOnMount bool
	resetOnSubmit   bool
	onChange        OnChangeFunc[S]
	onSubmit        OnSubmitFunc[S]
	logger          Logger
}

// Option configures a Manager.
type Option[S any] func(*config[S])

func newConfig[S any](opts []Option[S]) config[S] {
	cfg := config[S]{
		validateOnMount: true,
		fieldValidators: map[string]FieldValidator{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.store == nil {
		cfg.store = store.NewMemory[Record]()
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	return cfg
}

// initialRecord builds the construction-time snapshot. IsValid is computed
// from the initial errors so the record never carries a stale flag.
func (c *config[S]) initialRecord() Record {
	record := Record{
		Values:  deepcopy.CloneMap(c.initialValues),
		Errors:  deepcopy.CloneMap(c.initialErrors),
		Touches: deepcopy.CloneMap(c.initialTouches),
	}
	record.IsValid = !hasErrorLeaf(record.Errors)
	return record
}

// WithStore supplies the snapshot store. Defaults to an in-memory store.
func WithStore[S any](s store.Store[Record]) Option[S] {
	return func(cfg *config[S]) {
		if s != nil {
			cfg.store = s
		}
	}
}

// WithInitialValues sets the values restored by Reset and written on first
// load.
func WithInitialValues[S any](values S) Option[S] {
	return func(cfg *config[S]) {
		cfg.initialValues = deepcopy.NormalizeMap(values)
	}
}

// WithInitialErrors seeds the error tree present before the first
// validation pass.
func WithInitialErrors[S any](errs map[string]any) Option[S] {
	return func(cfg *config[S]) {
		cfg.initialErrors = deepcopy.NormalizeMap(errs)
	}
}

// WithInitialTouches seeds the touched tree.
func WithInitialTouches[S any](touches map[string]any) Option[S] {
	return func(cfg *config[S]) {
		cfg.initialTouches = deepcopy.NormalizeMap(touches)
	}
}

// WithValidate installs the free-form validation source. It runs first and
// its errors win over per-field validators at the same path.
func WithValidate[S any](fn ValidateFunc[S]) Option[S] {
	return func(cfg *config[S]) {
		cfg.validate = fn
	}
}

// WithSchema installs the batch schema validator. Schema violations are set
// unconditionally and overwrite earlier sources at the same path.
func WithSchema[S any](validator schema.Validator) Option[S] {
	return func(cfg *config[S]) {
		cfg.schema = validator
	}
}

// WithFieldValidator registers a per-field validator at construction time.
// Like AddFieldValidator, the first registration for a path wins.
func WithFieldValidator[S any](path string, fn FieldValidator) Option[S] {
	return func(cfg *config[S]) {
		if path == "" || fn == nil {
			return
		}
		if _, exists := cfg.fieldValidators[path]; exists {
			return
		}
		cfg.fieldValidators[path] = fn
	}
}

// WithReinitialize overwrites whatever the store holds with the initial
// record at construction time instead of adopting it.
func WithReinitialize[S any](reinitialize bool) Option[S] {
	return func(cfg *config[S]) {
		cfg.reinitialize = reinitialize
	}
}

// WithValidateOnMount controls whether construction and Reset run a
// validation pass. Defaults to true.
func WithValidateOnMount[S any](validate bool) Option[S] {
	return func(cfg *config[S]) {
		cfg.validateOnMount = validate
	}
}

// WithResetOnSubmit restores the initial snapshot after a submit handler
// succeeds.
func WithResetOnSubmit[S any](reset bool) Option[S] {
	return func(cfg *config[S]) {
		cfg.resetOnSubmit = reset
	}
}

// WithOnChange observes every value mutation performed through the manager.
func WithOnChange[S any](fn OnChangeFunc[S]) Option[S] {
	return func(cfg *config[S]) {
		cfg.onChange = fn
	}
}

// WithOnSubmit installs the submission handler invoked by Submit when the
// state is valid.
func WithOnSubmit[S any](fn OnSubmitFunc[S]) Option[S] {
	return func(cfg *config[S]) {
		cfg.onSubmit = fn
	}
}

// WithLogger attaches a logger hook for degradations the API absorbs.
func WithLogger[S any](logger Logger) Option[S] {
	return func(cfg *config[S]) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
