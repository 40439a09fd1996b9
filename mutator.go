package formstate

import (
	"github.com/goliatone/go-formstate/internal/deepcopy"
	"github.com/goliatone/go-formstate/pkg/dotpath"
)

// setValue writes value at path inside Values, creating intermediate
// containers as needed. ExistsChanges latches on the first call and stays up
// until reset; the flag flip itself counts as a change so the first write
// always reaches the store.
func (r *Record) setValue(path string, value any) (bool, error) {
	if r.Values == nil {
		r.Values = map[string]any{}
	}
	changed, err := dotpath.Set(r.Values, path, deepcopy.Normalize(value))
	if err != nil {
		return false, err
	}
	if !r.ExistsChanges {
		r.ExistsChanges = true
		changed = true
	}
	return changed, nil
}

// setError writes message at path inside Errors. Equal writes are skipped so
// redundant mutations never fan out to watchers.
func (r *Record) setError(path, message string) (bool, error) {
	if r.Errors == nil {
		r.Errors = map[string]any{}
	}
	return dotpath.Set(r.Errors, path, message)
}

// setTouched writes touched at path inside Touches, same short-circuit as
// setError.
func (r *Record) setTouched(path string, touched bool) (bool, error) {
	if r.Touches == nil {
		r.Touches = map[string]any{}
	}
	return dotpath.Set(r.Touches, path, touched)
}

// valueAt reads the value at path. Containers come back as deep copies so
// callers cannot mutate shared state through the result.
func (r Record) valueAt(path string) any {
	return deepcopy.Clone(dotpath.Probe(r.Values, path))
}

// errorAt reads the message at path; absent or non-string leaves read as
// empty.
func (r Record) errorAt(path string) string {
	message, _ := dotpath.Probe(r.Errors, path).(string)
	return message
}

// touchedAt reads the touched flag at path; absent leaves read as false.
func (r Record) touchedAt(path string) bool {
	touched, _ := dotpath.Probe(r.Touches, path).(bool)
	return touched
}

// recomputeValid derives IsValid from the error tree.
func (r *Record) recomputeValid() {
	r.IsValid = !hasErrorLeaf(r.Errors)
}

// markErrorsTouched flags every path holding a non-empty message so submit
// surfaces errors even for fields the user never visited.
func (r *Record) markErrorsTouched() error {
	for _, leaf := range dotpath.Leaves(r.Errors) {
		message, ok := leaf.Value.(string)
		if !ok || message == "" {
			continue
		}
		if _, err := r.setTouched(leaf.Path, true); err != nil {
			return err
		}
	}
	return nil
}

// hasErrorLeaf reports whether any leaf of an errors tree carries a
// non-empty message.
func hasErrorLeaf(errs map[string]any) bool {
	for _, leaf := range dotpath.Leaves(errs) {
		if message, ok := leaf.Value.(string); ok && message != "" {
			return true
		}
	}
	return false
}
