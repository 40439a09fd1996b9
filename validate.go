package formstate

import (
	"github.com/goliatone/go-formstate/internal/deepcopy"
	"github.com/goliatone/go-formstate/pkg/dotpath"
)

// rootViolationPath receives schema violations that address the whole value
// tree rather than a field, keeping IsValid derivable from error leaves.
const rootViolationPath = "_form"

// runValidation recomputes record.Errors and record.IsValid from the three
// validation sources, in order: the free-form validate function, per-field
// validators (skipped where an error already sits), then the schema
// validator, whose violations are set unconditionally and so overwrite
// earlier sources at the same path. When allTouched is set, every erroring
// path is also marked touched.
func (m *Manager[S]) runValidation(record *Record, allTouched bool) error {
	record.Errors = map[string]any{}

	if m.cfg.validate != nil {
		state, err := stateFromRecord[S](*record)
		if err != nil {
			return err
		}
		fillMergeErrors(record.Errors, deepcopy.NormalizeMap(m.cfg.validate(state)))
	}

	for _, path := range m.validatorPaths() {
		validator := m.fieldValidator(path)
		if validator == nil {
			continue
		}
		if record.errorAt(path) != "" {
			continue
		}
		if message := validator(record.valueAt(path)); message != "" {
			if _, err := record.setError(path, message); err != nil {
				return err
			}
		}
	}

	if m.cfg.schema != nil {
		for _, violation := range m.cfg.schema.ValidateAll(record.Values) {
			path := dotpath.Normalize(violation.Path)
			if path == "" {
				path = rootViolationPath
			}
			if _, err := record.setError(path, violation.Message); err != nil {
				return err
			}
		}
	}

	record.recomputeValid()

	if allTouched {
		return record.markErrorsTouched()
	}
	return nil
}

// fillMergeErrors merges src into dst as a union: keys already present in
// dst win, nested maps merge recursively. Non-map collisions keep dst.
func fillMergeErrors(dst, src map[string]any) {
	for key, incoming := range src {
		existing, ok := dst[key]
		if !ok {
			dst[key] = deepcopy.Clone(incoming)
			continue
		}
		dstChild, dstIsMap := existing.(map[string]any)
		srcChild, srcIsMap := incoming.(map[string]any)
		if dstIsMap && srcIsMap {
			fillMergeErrors(dstChild, srcChild)
		}
	}
}
