// Package schema defines the batch validation contract the form engine
// consumes: a validator inspects a value tree and reports every violation at
// once as (path, message) pairs. The OpenAPI adapter is the stock
// implementation; anything honoring the contract plugs in the same way.
package schema

// Violation describes a single schema failure at a dotted field path. An
// empty path addresses the value tree as a whole.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Validator checks a value tree synchronously and exhaustively. It never
// fails fast and never returns an error: faults degrade to violations.
type Validator interface {
	ValidateAll(values map[string]any) []Violation
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(values map[string]any) []Violation

// ValidateAll invokes the wrapped function; nil functions report nothing.
func (f ValidatorFunc) ValidateAll(values map[string]any) []Violation {
	if f == nil {
		return nil
	}
	return f(values)
}
