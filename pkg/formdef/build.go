package formdef

import (
	"context"
	"encoding/json"
	"fmt"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// Build compiles the named form definition into a manager. Definition
// derived options are applied before extra, so callers can override the
// store, logger, or lifecycle toggles; a rule already bound to a path keeps
// the definition's validator.
func Build[S any](ctx context.Context, registry *Registry, name string, extra ...formstate.Option[S]) (*formstate.Manager[S], error) {
	if registry == nil {
		return nil, fmt.Errorf("formdef: registry is required")
	}
	entry, ok := registry.entry(name)
	if !ok {
		return nil, fmt.Errorf("formdef: form %q not found", name)
	}

	options, err := formOptions[S](ctx, entry)
	if err != nil {
		return nil, err
	}
	options = append(options, extra...)

	return formstate.New[S](ctx, name, options...)
}

func formOptions[S any](ctx context.Context, entry formEntry) ([]formstate.Option[S], error) {
	cfg := entry.config
	var options []formstate.Option[S]

	if len(cfg.Values) > 0 {
		initial, err := decodeInto[S](cfg.Values)
		if err != nil {
			return nil, fmt.Errorf("formdef: form %q: decode values: %w", entry.name, err)
		}
		options = append(options, formstate.WithInitialValues[S](initial))
	}
	if len(cfg.Errors) > 0 {
		options = append(options, formstate.WithInitialErrors[S](cfg.Errors))
	}
	if len(cfg.Touches) > 0 {
		options = append(options, formstate.WithInitialTouches[S](cfg.Touches))
	}

	if len(entry.schemaData) > 0 {
		validator, err := compileSchema(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("formdef: form %q: %w", entry.name, err)
		}
		options = append(options, formstate.WithSchema[S](validator))
	}

	ruleOptions, err := ruleValidators[S](entry)
	if err != nil {
		return nil, err
	}
	options = append(options, ruleOptions...)

	options = append(options,
		formstate.WithReinitialize[S](cfg.Reinitialize),
		formstate.WithResetOnSubmit[S](cfg.ResetOnSubmit),
	)
	if cfg.ValidateOnMount != nil {
		options = append(options, formstate.WithValidateOnMount[S](*cfg.ValidateOnMount))
	}

	return options, nil
}

func compileSchema(ctx context.Context, entry formEntry) (schema.Validator, error) {
	if component := entry.config.Schema.Component; component != "" {
		return schema.CompileDocumentSchema(ctx, entry.schemaData, component)
	}
	return schema.CompileSchema(entry.schemaData)
}

// ruleValidators compiles every rule once. Engines are shared per kind so
// rules using the same evaluator also share its program cache.
func ruleValidators[S any](entry formEntry) ([]formstate.Option[S], error) {
	if len(entry.config.Rules) == 0 {
		return nil, nil
	}

	engines := make(map[string]rules.Engine, 3)
	engineFor := func(kind string) rules.Engine {
		if engine, ok := engines[kind]; ok {
			return engine
		}
		var engine rules.Engine
		switch kind {
		case "cel":
			engine = rules.NewCELEngine(rules.CELWithProgramCache(rules.NewMapCache()))
		case "js":
			engine = rules.NewJSEngine(rules.JSWithProgramCache(rules.NewMapCache()))
		default:
			engine = rules.NewExprEngine(rules.ExprWithProgramCache(rules.NewMapCache()))
		}
		engines[kind] = engine
		return engine
	}

	options := make([]formstate.Option[S], 0, len(entry.config.Rules))
	for _, rule := range entry.config.Rules {
		validator, err := rules.FieldValidator(engineFor(rule.Engine), rule.Path, rule.Expression, rule.Message)
		if err != nil {
			return nil, fmt.Errorf("formdef: form %q rule %q: %w", entry.name, rule.Path, err)
		}
		options = append(options, formstate.WithFieldValidator[S](rule.Path, validator))
	}
	return options, nil
}

func decodeInto[S any](tree map[string]any) (S, error) {
	var out S
	data, err := json.Marshal(tree)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}
