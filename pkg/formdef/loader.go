package formdef

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/internal/deepcopy"
	"github.com/goliatone/go-formstate/pkg/dotpath"
)

// Load walks the provided filesystem and parses JSON/YAML/TOML definition
// files. When fsys is nil or no definition files are present, the returned
// registry is empty.
func Load(fsys fs.FS) (*Registry, error) {
	registry := &Registry{forms: make(map[string]formEntry)}
	if fsys == nil {
		return registry, nil
	}

	err := fs.WalkDir(fsys, ".", func(filePath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if !isDefinitionFile(filePath) {
			return nil
		}

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return fmt.Errorf("formdef: read %s: %w", filePath, err)
		}

		doc, err := parseDocument(data, filePath)
		if err != nil {
			return err
		}

		for rawName, cfg := range doc.Forms {
			name := strings.TrimSpace(rawName)
			if name == "" {
				return fmt.Errorf("formdef: file %s defines an empty form name", filePath)
			}
			if _, exists := registry.forms[name]; exists {
				return fmt.Errorf("formdef: duplicate form %q (file %s)", name, filePath)
			}

			normalized, err := normalizeForm(fsys, cfg, name, filePath)
			if err != nil {
				return err
			}
			registry.forms[name] = normalized
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return registry, nil
}

func parseDocument(data []byte, source string) (Document, error) {
	var doc Document
	if len(strings.TrimSpace(string(data))) == 0 {
		return Document{}, fmt.Errorf("formdef: file %s is empty", source)
	}

	if strings.EqualFold(path.Ext(source), ".toml") {
		if err := toml.Unmarshal(data, &doc); err != nil {
			return Document{}, fmt.Errorf("formdef: parse %s: %w", source, err)
		}
		return doc, nil
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	return Document{}, fmt.Errorf("formdef: parse %s: invalid JSON or YAML", source)
}

func normalizeForm(fsys fs.FS, cfg FormConfig, name, source string) (formEntry, error) {
	normalized := cfg
	normalized.Values = deepcopy.NormalizeMap(cfg.Values)
	normalized.Errors = deepcopy.NormalizeMap(cfg.Errors)
	normalized.Touches = deepcopy.NormalizeMap(cfg.Touches)

	rules, err := normalizeRules(cfg.Rules, name, source)
	if err != nil {
		return formEntry{}, err
	}
	normalized.Rules = rules

	schemaData, err := resolveSchemaData(fsys, cfg.Schema, name, source)
	if err != nil {
		return formEntry{}, err
	}

	return formEntry{
		name:       name,
		source:     source,
		config:     normalized,
		schemaData: schemaData,
	}, nil
}

func normalizeRules(raw []RuleConfig, name, source string) ([]RuleConfig, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]RuleConfig, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for idx, rule := range raw {
		rulePath := dotpath.Normalize(strings.TrimSpace(rule.Path))
		if rulePath == "" {
			return nil, fmt.Errorf("formdef: form %q (file %s) rule %d has an empty path", name, source, idx)
		}
		if _, exists := seen[rulePath]; exists {
			return nil, fmt.Errorf("formdef: form %q (file %s) defines duplicate rule path %q", name, source, rulePath)
		}
		seen[rulePath] = struct{}{}

		expression := strings.TrimSpace(rule.Expression)
		if expression == "" {
			return nil, fmt.Errorf("formdef: form %q (file %s) rule %q has an empty expression", name, source, rulePath)
		}

		engine := strings.ToLower(strings.TrimSpace(rule.Engine))
		switch engine {
		case "":
			engine = "expr"
		case "expr", "cel", "js":
		default:
			return nil, fmt.Errorf("formdef: form %q (file %s) rule %q uses unknown engine %q", name, source, rulePath, rule.Engine)
		}

		out = append(out, RuleConfig{
			Path:       rulePath,
			Engine:     engine,
			Expression: expression,
			Message:    sanitizeMessage(rule.Message),
		})
	}
	return out, nil
}

// resolveSchemaData reads or marshals the schema source at load time so
// Build never touches the filesystem.
func resolveSchemaData(fsys fs.FS, cfg SchemaConfig, name, source string) ([]byte, error) {
	file := strings.TrimSpace(cfg.File)
	if file != "" && len(cfg.Inline) > 0 {
		return nil, fmt.Errorf("formdef: form %q (file %s) sets both schema.file and schema.inline", name, source)
	}

	if file != "" {
		resolved := path.Join(path.Dir(source), file)
		data, err := fs.ReadFile(fsys, resolved)
		if err != nil {
			return nil, fmt.Errorf("formdef: form %q: read schema %s: %w", name, resolved, err)
		}
		return data, nil
	}

	if len(cfg.Inline) > 0 {
		data, err := json.Marshal(cfg.Inline)
		if err != nil {
			return nil, fmt.Errorf("formdef: form %q (file %s): encode inline schema: %w", name, source, err)
		}
		return data, nil
	}

	if strings.TrimSpace(cfg.Component) != "" {
		return nil, fmt.Errorf("formdef: form %q (file %s) sets schema.component without a schema source", name, source)
	}

	return nil, nil
}

func isDefinitionFile(filePath string) bool {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	default:
		return false
	}
}
