// Package formstate is a nested, validated state container for form-like
// data. A Manager owns one named snapshot persisted through an externally
// supplied watchable store, addresses values/errors/touches by dotted paths,
// merges three validation sources (a free-form function, per-field
// validators, a batch schema validator) into one error tree, and drives the
// submit and reset state machines. Every public mutation is its own
// read-mutate-write cycle against the store; the Manager never caches state
// between calls.
package formstate

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-formstate/internal/deepcopy"
)

// Record is the wire form of a single form snapshot, the shape the store
// persists. All trees inside a Record are JSON-shaped: map[string]any,
// []any, string, float64, bool and nil.
type Record struct {
	Values        map[string]any `json:"values"`
	Errors        map[string]any `json:"errors"`
	Touches       map[string]any `json:"touches"`
	IsValid       bool           `json:"isValid"`
	Loading       bool           `json:"loading"`
	ExistsChanges bool           `json:"existsChanges"`
	IsSubmitted   bool           `json:"isSubmitted"`
}

func (r Record) clone() Record {
	r.Values = deepcopy.CloneMap(r.Values)
	r.Errors = deepcopy.CloneMap(r.Errors)
	r.Touches = deepcopy.CloneMap(r.Touches)
	return r
}

// State is the typed view of a Record handed to callers. Values carries the
// caller's own type S, round-tripped through JSON; S = map[string]any is
// lossless, structs follow their JSON tags.
type State[S any] struct {
	Values        S              `json:"values"`
	Errors        map[string]any `json:"errors"`
	Touches       map[string]any `json:"touches"`
	IsValid       bool           `json:"isValid"`
	Loading       bool           `json:"loading"`
	ExistsChanges bool           `json:"existsChanges"`
	IsSubmitted   bool           `json:"isSubmitted"`
}

func stateFromRecord[S any](record Record) (State[S], error) {
	values, err := decodeValues[S](record.Values)
	if err != nil {
		return State[S]{}, err
	}
	return State[S]{
		Values:        values,
		Errors:        deepcopy.CloneMap(record.Errors),
		Touches:       deepcopy.CloneMap(record.Touches),
		IsValid:       record.IsValid,
		Loading:       record.Loading,
		ExistsChanges: record.ExistsChanges,
		IsSubmitted:   record.IsSubmitted,
	}, nil
}

func recordFromState[S any](state State[S]) Record {
	return Record{
		Values:        deepcopy.NormalizeMap(state.Values),
		Errors:        deepcopy.CloneMap(state.Errors),
		Touches:       deepcopy.CloneMap(state.Touches),
		IsValid:       state.IsValid,
		Loading:       state.Loading,
		ExistsChanges: state.ExistsChanges,
		IsSubmitted:   state.IsSubmitted,
	}
}

func decodeValues[S any](values map[string]any) (S, error) {
	var out S
	if values == nil {
		values = map[string]any{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return out, fmt.Errorf("formstate: encode values: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("formstate: decode values: %w", err)
	}
	return out, nil
}
