package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a callable that rule expressions reach through
// call("name", args...). Arguments arrive as the engine's native values
// (float64, string, bool, maps, slices).
type Function func(args ...any) (any, error)

// FunctionRegistry holds the functions exposed to rule expressions. Names
// are case insensitive: definition files author them in whatever casing
// reads well, the registry stores and resolves the lowercase form. A nil
// registry is usable for reads and resolves nothing.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]Function)}
}

func normalizeFunctionName(name string) string {
	return strings.ToLower(name)
}

// Register binds fn to name. Duplicate names are rejected rather than
// overwritten so a definition cannot silently shadow a function another
// definition relies on.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if name == "" {
		return fmt.Errorf("rules: function name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("rules: function %q is nil", name)
	}

	key := normalizeFunctionName(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	if _, taken := r.functions[key]; taken {
		return fmt.Errorf("rules: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Call resolves name and invokes the bound function with args.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("rules: function registry is nil")
	}

	r.mu.RLock()
	fn, ok := r.functions[normalizeFunctionName(name)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("rules: function %q not registered", name)
	}
	return fn(args...)
}

// Clone copies the registry so an engine can hold its own snapshot;
// registrations made on either side afterwards stay local to it.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	functions := make(map[string]Function, len(r.functions))
	for key, fn := range r.functions {
		functions[key] = fn
	}
	return &FunctionRegistry{functions: functions}
}

// Names lists the registered names in their stored lowercase form, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.functions))
	for key := range r.functions {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
