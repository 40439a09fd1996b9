// Package formdef loads declarative form definitions from JSON, YAML, or
// TOML documents and compiles them into manager options: initial snapshots,
// a schema validator, expression rules, and lifecycle toggles.
package formdef

import "sort"

// Document is the on-disk shape of a definition file. A file declares one or
// more forms keyed by name.
type Document struct {
	Forms map[string]FormConfig `json:"forms" yaml:"forms" toml:"forms"`
}

// FormConfig declares a single form.
type FormConfig struct {
	Values  map[string]any `json:"values" yaml:"values" toml:"values"`
	Errors  map[string]any `json:"errors" yaml:"errors" toml:"errors"`
	Touches map[string]any `json:"touches" yaml:"touches" toml:"touches"`

	Schema SchemaConfig `json:"schema" yaml:"schema" toml:"schema"`
	Rules  []RuleConfig `json:"rules" yaml:"rules" toml:"rules"`

	Reinitialize    bool  `json:"reinitialize" yaml:"reinitialize" toml:"reinitialize"`
	ValidateOnMount *bool `json:"validateOnMount" yaml:"validateOnMount" toml:"validateOnMount"`
	ResetOnSubmit   bool  `json:"resetOnSubmit" yaml:"resetOnSubmit" toml:"resetOnSubmit"`
}

// SchemaConfig points the form at its validation schema. File references
// another file on the loaded filesystem, resolved relative to the defining
// document; Inline embeds the schema object directly. When Component is set
// the referenced data is treated as a full OpenAPI document and the named
// component schema is selected from it.
type SchemaConfig struct {
	File      string         `json:"file" yaml:"file" toml:"file"`
	Inline    map[string]any `json:"inline" yaml:"inline" toml:"inline"`
	Component string         `json:"component" yaml:"component" toml:"component"`
}

// RuleConfig declares one expression rule bound to a field path. Engine
// selects the evaluator: "expr" (the default when empty), "cel", or "js".
type RuleConfig struct {
	Path       string `json:"path" yaml:"path" toml:"path"`
	Engine     string `json:"engine" yaml:"engine" toml:"engine"`
	Expression string `json:"expression" yaml:"expression" toml:"expression"`
	Message    string `json:"message" yaml:"message" toml:"message"`
}

// Registry holds the forms loaded from a definition tree.
type Registry struct {
	forms map[string]formEntry
}

type formEntry struct {
	name       string
	source     string
	config     FormConfig
	schemaData []byte
}

// Form returns the configuration loaded for the supplied form name.
func (r *Registry) Form(name string) (FormConfig, bool) {
	if r == nil {
		return FormConfig{}, false
	}
	entry, ok := r.forms[name]
	return entry.config, ok
}

// Names lists the loaded form names in stable order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.forms))
	for name := range r.forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether the registry holds any forms.
func (r *Registry) Empty() bool {
	return r == nil || len(r.forms) == 0
}

func (r *Registry) entry(name string) (formEntry, bool) {
	if r == nil {
		return formEntry{}, false
	}
	entry, ok := r.forms[name]
	return entry, ok
}
