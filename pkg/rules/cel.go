package rules

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEngineOption configures the CEL engine.
type CELEngineOption func(*celEngine)

// CELWithProgramCache wires a ProgramCache into the CEL engine.
func CELWithProgramCache(cache ProgramCache) CELEngineOption {
	return func(e *celEngine) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL engine.
// Registered functions are reachable through call("name", args...) only; CEL
// requires typed declarations for bare identifiers.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEngineOption {
	return func(e *celEngine) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEngine constructs an Engine backed by cel-go.
func NewCELEngine(opts ...CELEngineOption) Engine {
	e := &celEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEngine) Evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEngineError("cel", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultValues()
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.Path, err)
	}
	out, _, err := program.Eval(e.activation(ctx))
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.Path, err)
	}
	return out.Value(), nil
}

func (e *celEngine) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEngineError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}
	return &celCompiledRule{
		engine:     e,
		program:    program,
		expression: expression,
	}, nil
}

// loadOrCompile builds a CEL program for expression. Bindings are fixed, so
// compiled programs are context independent and safe to cache.
func (e *celEngine) loadOrCompile(expression string) (celgo.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *celEngine) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("path", celgo.StringType),
		celgo.Variable("value", celgo.DynType),
		celgo.Variable("values", celgo.DynType),
		celgo.Variable("now", celgo.TimestampType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", e.callOverloads()...))
	}
	return celgo.NewEnv(opts...)
}

// maxCallArgs caps how many arguments call() accepts after the function
// name. CEL overloads carry a fixed arity, so each argument count needs its
// own declaration.
const maxCallArgs = 4

// callOverloads declares call("name", args...) once per supported arity,
// all served by a single binding.
func (e *celEngine) callOverloads() []celgo.FunctionOpt {
	opts := make([]celgo.FunctionOpt, 0, maxCallArgs+2)
	argTypes := []*celgo.Type{celgo.StringType}
	for arity := 0; arity <= maxCallArgs; arity++ {
		opts = append(opts, celgo.Overload(
			fmt.Sprintf("call_dyn_%d", arity),
			append([]*celgo.Type(nil), argTypes...),
			celgo.DynType,
		))
		argTypes = append(argTypes, celgo.DynType)
	}
	opts = append(opts, celgo.SingletonFunctionBinding(e.callBinding()))
	return opts
}

func (e *celEngine) activation(ctx Context) map[string]any {
	return map[string]any{
		"path":   ctx.Path,
		"value":  ctx.Value,
		"values": ctx.Values,
		"now":    ctx.timestamp(),
	}
}

type celCompiledRule struct {
	engine     *celEngine
	program    celgo.Program
	expression string
}

func (r *celCompiledRule) Evaluate(ctx Context) (any, error) {
	if r.engine == nil || r.program == nil {
		return nil, wrapEngineError("cel", fmt.Errorf("compiled rule missing engine"))
	}
	ctx = ctx.withDefaultNow().withDefaultValues()
	out, _, err := r.program.Eval(r.engine.activation(ctx))
	if err != nil {
		return nil, wrapEvaluationError("cel", r.expression, ctx.Path, err)
	}
	return out.Value(), nil
}

func (e *celEngine) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("rules: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("rules: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("rules: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
