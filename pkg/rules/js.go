package rules

import (
	"fmt"

	"github.com/dop251/goja"
)

// JSEngineOption configures the JavaScript engine.
type JSEngineOption func(*jsEngine)

// JSWithProgramCache wires a ProgramCache into the JavaScript engine.
func JSWithProgramCache(cache ProgramCache) JSEngineOption {
	return func(e *jsEngine) {
		e.cache = cache
	}
}

// JSWithFunctionRegistry wires a FunctionRegistry into the JavaScript engine.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEngineOption {
	return func(e *jsEngine) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// jsEngine executes rule expressions using goja. Runtimes are single
// threaded, so each evaluation builds a fresh VM; compiled programs are
// immutable and shared across them.
type jsEngine struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSEngine constructs an Engine backed by goja.
func NewJSEngine(opts ...JSEngineOption) Engine {
	e := &jsEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *jsEngine) Evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEngineError("js", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultValues()
	if e.cache == nil {
		return e.run(ctx, expression, nil)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *jsEngine) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEngineError("js", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &jsCompiledRule{
		engine:     e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsEngine) loadOrCompile(expression string) (*goja.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", wrapJSExpression(expression), false)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *jsEngine) run(ctx Context, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	e.injectContext(vm, ctx)
	if program != nil {
		value, err := vm.RunProgram(program)
		if err != nil {
			return nil, wrapEvaluationError("js", expression, ctx.Path, err)
		}
		return value.Export(), nil
	}
	value, err := vm.RunString(wrapJSExpression(expression))
	if err != nil {
		return nil, wrapEvaluationError("js", expression, ctx.Path, err)
	}
	return value.Export(), nil
}

func (e *jsEngine) injectContext(vm *goja.Runtime, ctx Context) {
	vm.Set("path", ctx.Path)
	vm.Set("value", ctx.Value)
	vm.Set("values", ctx.Values)
	vm.Set("now", ctx.timestamp())
	if e.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		})
		for _, name := range e.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			})
		}
	}
}

// wrapJSExpression turns a bare expression into an IIFE so statements like
// object literals evaluate as expressions.
func wrapJSExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledRule struct {
	engine     *jsEngine
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx Context) (any, error) {
	if r.engine == nil {
		return nil, wrapEngineError("js", fmt.Errorf("compiled rule missing engine"))
	}
	ctx = ctx.withDefaultNow().withDefaultValues()
	return r.engine.run(ctx, r.expression, r.program)
}
