// Package rules evaluates field rule expressions with pluggable engines.
// Three engines ship with the package, backed by expr-lang/expr, cel-go and
// goja. Every engine exposes the same bindings to an expression: path, value,
// values and now, plus any functions registered through a FunctionRegistry.
package rules

import "time"

// Context carries the inputs a rule sees when it runs. Value holds the field
// under evaluation, Values the whole value tree it belongs to.
type Context struct {
	Path   string
	Value  any
	Values map[string]any
	Now    *time.Time
}

func (ctx Context) withDefaultNow() Context {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx Context) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx Context) withDefaultValues() Context {
	if ctx.Values == nil {
		ctx.Values = map[string]any{}
	}
	return ctx
}

// Engine executes rule expressions against a field context.
type Engine interface {
	Evaluate(ctx Context, expression string) (any, error)
	Compile(expression string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx Context) (any, error)
}

// CompileOption configures engine compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}
