package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/dotpath"
)

// OpenAPI validates value trees against an OpenAPI schema object and reports
// every violation in one pass.
type OpenAPI struct {
	schema *openapi3.Schema
}

var _ Validator = (*OpenAPI)(nil)

// NewOpenAPI wraps an already built schema.
func NewOpenAPI(schema *openapi3.Schema) *OpenAPI {
	return &OpenAPI{schema: schema}
}

// CompileSchema parses a self-contained schema object from JSON or YAML.
// Schemas that lean on $ref require CompileDocumentSchema so references
// resolve against the enclosing document.
func CompileSchema(data []byte) (*OpenAPI, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, errors.New("schema: document is empty")
	}

	payload := data
	if !strings.HasPrefix(trimmed, "{") {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("schema: parse yaml document: %w", err)
		}
		payload = converted
	}

	target := &openapi3.Schema{}
	if err := json.Unmarshal(payload, target); err != nil {
		return nil, fmt.Errorf("schema: parse document: %w", err)
	}
	return NewOpenAPI(target), nil
}

// CompileDocumentSchema loads a complete OpenAPI document and selects the
// named component schema. Example payloads in the document are not
// validated; forms routinely carry partial examples.
func CompileDocumentSchema(ctx context.Context, data []byte, component string) (*OpenAPI, error) {
	if strings.TrimSpace(component) == "" {
		return nil, errors.New("schema: component name is required")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: true,
	}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("schema: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("schema: validate document: %w", err)
	}

	if doc.Components == nil || doc.Components.Schemas == nil {
		return nil, fmt.Errorf("schema: component %q not found", component)
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("schema: component %q not found", component)
	}
	return NewOpenAPI(ref.Value), nil
}

// ValidateAll reports every violation in values in deterministic order.
// Library faults degrade to a single root-path violation so callers never
// branch on transport errors mid-pipeline.
func (v *OpenAPI) ValidateAll(values map[string]any) []Violation {
	if v == nil || v.schema == nil {
		return nil
	}

	payload := any(values)
	if values == nil {
		payload = map[string]any{}
	}

	err := v.schema.VisitJSON(payload, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	var violations []Violation
	appendViolations(err, &violations)

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Path != violations[j].Path {
			return violations[i].Path < violations[j].Path
		}
		return violations[i].Message < violations[j].Message
	})
	return dedupeViolations(violations)
}

func appendViolations(err error, out *[]Violation) {
	switch typed := err.(type) {
	case openapi3.MultiError:
		for _, item := range typed {
			appendViolations(item, out)
		}
	case *openapi3.SchemaError:
		*out = append(*out, Violation{
			Path:    pointerToPath(typed.JSONPointer()),
			Message: schemaErrorMessage(typed),
		})
	default:
		if err != nil {
			*out = append(*out, Violation{Message: err.Error()})
		}
	}
}

// pointerToPath converts a JSON pointer segment list into the engine's
// dotted path form, so "items" / "0" / "name" lands at items.0.name.
func pointerToPath(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return dotpath.Normalize(strings.Join(segments, "."))
}

func schemaErrorMessage(err *openapi3.SchemaError) string {
	if err == nil {
		return ""
	}
	if reason := strings.TrimSpace(err.Reason); reason != "" {
		return reason
	}
	return strings.TrimSpace(err.Error())
}

// dedupeViolations drops repeated (path, message) pairs; union schemas can
// surface the same failure through several branches. Input must be sorted.
func dedupeViolations(violations []Violation) []Violation {
	if len(violations) < 2 {
		return violations
	}
	out := violations[:1]
	for _, violation := range violations[1:] {
		last := out[len(out)-1]
		if violation.Path == last.Path && violation.Message == last.Message {
			continue
		}
		out = append(out, violation)
	}
	return out
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
