// Package testsupport holds fixture and golden helpers shared by package
// tests.
package testsupport

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	formstate "github.com/goliatone/go-formstate"
)

// LoadRecord reads a JSON fixture into a form record. Testing helpers fail
// the test on error to keep contract tests concise.
func LoadRecord(t *testing.T, path string) formstate.Record {
	t.Helper()

	record, err := LoadRecordFromPath(path)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	return record
}

// LoadRecordFromPath returns a record without requiring testing.T, allowing
// callers to wire fixtures in setup functions.
func LoadRecordFromPath(path string) (formstate.Record, error) {
	if path == "" {
		return formstate.Record{}, errors.New("testsupport: record path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return formstate.Record{}, fmt.Errorf("testsupport: read record: %w", err)
	}
	var record formstate.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return formstate.Record{}, fmt.Errorf("testsupport: unmarshal record: %w", err)
	}
	return record, nil
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}
