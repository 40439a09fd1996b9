package rules_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-formstate/pkg/rules"
)

func TestCELEngineEvaluatesComparison(t *testing.T) {
	engine := rules.NewCELEngine()

	result, err := engine.Evaluate(rules.Context{Value: float64(21)}, "value >= 18.0")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestCELEngineReadsValuesTree(t *testing.T) {
	engine := rules.NewCELEngine()
	ctx := rules.Context{
		Values: map[string]any{
			"password": "secret",
			"confirm":  "secret",
		},
	}

	result, err := engine.Evaluate(ctx, "values.password == values.confirm")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestCELEngineBindsTimestamp(t *testing.T) {
	engine := rules.NewCELEngine()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	result, err := engine.Evaluate(rules.Context{Now: &now}, "now.getFullYear() == 2025")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestCELEngineCallFunction(t *testing.T) {
	registry := rules.NewFunctionRegistry()
	if err := registry.Register("greet", func(args ...any) (any, error) {
		name, _ := args[0].(string)
		return "hello " + name, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	engine := rules.NewCELEngine(rules.CELWithFunctionRegistry(registry))

	result, err := engine.Evaluate(rules.Context{}, `call("greet", "ada") == "hello ada"`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestCELEngineCallAcceptsVaryingArity(t *testing.T) {
	registry := rules.NewFunctionRegistry()
	if err := registry.Register("sum", func(args ...any) (any, error) {
		total := 0.0
		for _, arg := range args {
			n, _ := arg.(float64)
			total += n
		}
		return total, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	engine := rules.NewCELEngine(rules.CELWithFunctionRegistry(registry))

	expressions := []string{
		`call("sum") == 0.0`,
		`call("sum", 2.0) == 2.0`,
		`call("sum", 1.0, 2.0, 3.0) == 6.0`,
	}
	for _, expression := range expressions {
		result, err := engine.Evaluate(rules.Context{}, expression)
		if err != nil {
			t.Fatalf("evaluate %q: %v", expression, err)
		}
		if result != true {
			t.Fatalf("expected true for %q, got %v", expression, result)
		}
	}
}

func TestCELEngineCallUnknownFunctionFails(t *testing.T) {
	engine := rules.NewCELEngine(rules.CELWithFunctionRegistry(rules.NewFunctionRegistry()))

	_, err := engine.Evaluate(rules.Context{}, `call("missing")`)
	if err == nil {
		t.Fatal("expected error for unregistered function")
	}

	var evalErr *rules.EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
}

func TestCELEngineCompiledRuleCaches(t *testing.T) {
	cache := newCountingCache()
	engine := rules.NewCELEngine(rules.CELWithProgramCache(cache))

	rule, err := engine.Compile("value >= 18.0")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := engine.Compile("value >= 18.0"); err != nil {
		t.Fatalf("compile again: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}

	result, err := rule.Evaluate(rules.Context{Value: float64(40)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestCELEngineReportsParseErrors(t *testing.T) {
	engine := rules.NewCELEngine()

	_, err := engine.Compile("value >=")
	if err == nil {
		t.Fatal("expected parse error")
	}

	var evalErr *rules.EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "cel" {
		t.Fatalf("expected cel engine, got %q", evalErr.Engine)
	}
}

func TestCELEngineRejectsEmptyExpression(t *testing.T) {
	engine := rules.NewCELEngine()
	if _, err := engine.Evaluate(rules.Context{}, ""); err == nil {
		t.Fatal("expected error for empty expression")
	}
}
