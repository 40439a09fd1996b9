package rules

import "fmt"

// FieldValidator compiles expression once against engine and adapts it to
// the per-field validator shape used by the form engine: the returned
// function yields an empty string when the value passes and a message when
// it fails.
//
// Rule results are interpreted as follows. Nil and true pass. False fails
// with message. A string result is the failure message itself, so rules can
// author their own wording; the empty string passes. Any other result type
// fails with message, so authoring mistakes surface during validation
// instead of silently passing.
func FieldValidator(engine Engine, path, expression, message string) (func(value any) string, error) {
	if engine == nil {
		return nil, fmt.Errorf("rules: engine is required")
	}
	rule, err := engine.Compile(expression)
	if err != nil {
		return nil, err
	}

	fallback := message
	if fallback == "" {
		fallback = fmt.Sprintf("value failed rule %q", expression)
	}

	return func(value any) string {
		result, err := rule.Evaluate(Context{Path: path, Value: value})
		if err != nil {
			if message != "" {
				return message
			}
			return err.Error()
		}
		switch typed := result.(type) {
		case nil:
			return ""
		case bool:
			if typed {
				return ""
			}
			return fallback
		case string:
			return typed
		default:
			return fallback
		}
	}, nil
}
