// Package dotpath reads, writes, and enumerates values at dotted string
// paths inside nested object trees. Bracket array syntax is accepted and
// normalized to dots ("a[0].b" and "a.0.b" address the same slot). The
// package is schema-agnostic: the same traversal serves value, error, and
// touched trees.
package dotpath

import (
	"errors"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/internal/deepcopy"
)

// ErrEmptyPath reports a path with no addressable segments.
var ErrEmptyPath = errors.New("dotpath: empty path")

var bracketReplacer = strings.NewReplacer("[", ".", "]", "")

// Normalize rewrites bracket syntax to dot syntax and trims whitespace.
func Normalize(path string) string {
	return bracketReplacer.Replace(strings.TrimSpace(path))
}

// Split returns the addressable segments of path. Empty segments produced by
// doubled, leading, or trailing separators are dropped.
func Split(path string) []string {
	parts := strings.Split(Normalize(path), ".")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		segments = append(segments, part)
	}
	return segments
}

// Get resolves path inside record, reporting absence when any intermediate
// segment is missing, out of range, or traverses a non-container value. An
// empty path reports absence.
func Get(record map[string]any, path string) (any, bool) {
	segments := Split(path)
	if record == nil || len(segments) == 0 {
		return nil, false
	}

	current := any(record)
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Probe is Get for status lookups: absent paths collapse to nil so callers
// can treat missing error and touched leaves uniformly.
func Probe(record map[string]any, path string) any {
	value, _ := Get(record, path)
	return value
}

// Set writes value at path in place, creating intermediate containers as
// needed: a slice when the following segment is a non-negative integer, a
// map otherwise. Intermediates of the wrong kind are replaced wholesale.
// When the existing value is already deeply equal to value the write is
// skipped. The returned bool reports whether the record changed.
func Set(record map[string]any, path string, value any) (bool, error) {
	if record == nil {
		return false, errors.New("dotpath: nil record")
	}
	segments := Split(path)
	if len(segments) == 0 {
		return false, ErrEmptyPath
	}
	return setInMap(record, segments, value), nil
}

func setInMap(node map[string]any, segments []string, value any) bool {
	key := segments[0]
	if len(segments) == 1 {
		if existing, ok := node[key]; ok && deepcopy.Equal(existing, value) {
			return false
		}
		node[key] = value
		return true
	}

	child, created := coerceChild(node[key], segments[1])
	switch typed := child.(type) {
	case map[string]any:
		node[key] = typed
		changed := setInMap(typed, segments[1:], value)
		return changed || created
	case []any:
		updated, changed := setInSlice(typed, segments[1:], value)
		node[key] = updated
		return changed || created
	}
	return created
}

func setInSlice(node []any, segments []string, value any) ([]any, bool) {
	// coerceChild only hands out slices for numeric segments.
	idx, _ := strconv.Atoi(segments[0])
	grew := false
	if len(node) <= idx {
		node = append(node, make([]any, idx+1-len(node))...)
		grew = true
	}

	if len(segments) == 1 {
		if !grew && deepcopy.Equal(node[idx], value) {
			return node, false
		}
		node[idx] = value
		return node, true
	}

	child, created := coerceChild(node[idx], segments[1])
	switch typed := child.(type) {
	case map[string]any:
		node[idx] = typed
		changed := setInMap(typed, segments[1:], value)
		return node, changed || created || grew
	case []any:
		updated, changed := setInSlice(typed, segments[1:], value)
		node[idx] = updated
		return node, changed || created || grew
	}
	return node, created || grew
}

// coerceChild returns child as the container kind the next segment needs,
// replacing scalars and mismatched containers with a fresh one. Negative
// numeric segments address maps, matching the read-side behavior.
func coerceChild(child any, nextSegment string) (any, bool) {
	if idx, err := strconv.Atoi(nextSegment); err == nil && idx >= 0 {
		if slice, ok := child.([]any); ok {
			return slice, false
		}
		return make([]any, idx+1), true
	}
	if m, ok := child.(map[string]any); ok && m != nil {
		return m, false
	}
	return make(map[string]any), true
}
