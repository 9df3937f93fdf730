package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/shapespec/packages/builtin"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver expands {{...}} expressions in suite values. It is safe for
// concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	funcs     *builtin.Registry
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]any),
		funcs:     builtin.NewRegistry(),
	}
}

// SetWarnFunc sets a function to be called when warnings occur (e.g., unresolved variables)
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

// Funcs returns the builtin registry used for function calls.
func (r *Resolver) Funcs() *builtin.Registry {
	return r.funcs
}

// eval evaluates one expression without its braces.
func (r *Resolver) eval(expr string) (any, bool) {
	expr = strings.TrimSpace(expr)

	if strings.HasPrefix(expr, "$") {
		if val, ok := os.LookupEnv(expr[1:]); ok {
			return val, true
		}
		r.warn("unresolved environment variable: %s", expr)
		return nil, false
	}

	if strings.Contains(expr, "(") {
		if result, ok := r.funcs.Call(expr); ok {
			return result, true
		}
		r.warn("unresolved function call: %s", expr)
		return nil, false
	}

	r.mu.RLock()
	val, ok := r.variables[expr]
	r.mu.RUnlock()
	if ok {
		return val, true
	}
	r.warn("unresolved variable: %s", expr)
	return nil, false
}

// Resolve interpolates every expression in input. Unresolved expressions
// are left as written.
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		if val, ok := r.eval(match[2 : len(match)-2]); ok {
			return fmt.Sprintf("%v", val)
		}
		return match
	})
}

// ResolveValue walks maps and slices and resolves every string in them.
// A string made of exactly one expression keeps the expression's type, so
// "{{timestamp()}}" becomes a number.
func (r *Resolver) ResolveValue(value any) any {
	switch v := value.(type) {
	case string:
		if loc := variablePattern.FindStringIndex(v); loc != nil && loc[0] == 0 && loc[1] == len(v) {
			if val, ok := r.eval(v[2 : len(v)-2]); ok {
				return val
			}
			return v
		}
		return r.Resolve(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = r.ResolveValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.ResolveValue(item)
		}
		return out
	}
	return value
}

// GetUnresolvedVariables lists the expressions in input that cannot be
// resolved, in order of appearance.
func (r *Resolver) GetUnresolvedVariables(input string) []string {
	var unresolved []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if !r.canResolve(expr) {
			unresolved = append(unresolved, expr)
		}
	}
	return unresolved
}

func (r *Resolver) HasUnresolvedVariables(input string) bool {
	return len(r.GetUnresolvedVariables(input)) > 0
}

func (r *Resolver) canResolve(expr string) bool {
	if strings.HasPrefix(expr, "$") {
		_, ok := os.LookupEnv(expr[1:])
		return ok
	}
	if open := strings.Index(expr, "("); open > 0 {
		return r.funcs.Has(strings.TrimSpace(expr[:open]))
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.variables[expr]
	return ok
}

func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewResolver()
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	clone.warnFunc = r.warnFunc
	return clone
}
