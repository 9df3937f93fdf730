package env

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/shapespec/packages/builtin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverResolve(t *testing.T) {
	t.Setenv("SHAPESPEC_RESOLVER_TEST", "from-env")

	tests := []struct {
		name      string
		input     string
		variables map[string]any
		expected  string
	}{
		{
			name:     "no variables",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:      "simple variable",
			input:     "hello {{name}}",
			variables: map[string]any{"name": "world"},
			expected:  "hello world",
		},
		{
			name:      "multiple variables",
			input:     "{{greeting}} {{ name }}!",
			variables: map[string]any{"greeting": "Hello", "name": "World"},
			expected:  "Hello World!",
		},
		{
			name:     "environment variable",
			input:    "value={{$SHAPESPEC_RESOLVER_TEST}}",
			expected: "value=from-env",
		},
		{
			name:     "function call",
			input:    "at {{isoDate(2016)}}",
			expected: "at " + builtin.DateString(2016),
		},
		{
			name:     "unresolved stays as-is",
			input:    "hello {{unknown}}",
			expected: "hello {{unknown}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver()
			if tt.variables != nil {
				r.SetVariables(tt.variables)
			}
			assert.Equal(t, tt.expected, r.Resolve(tt.input))
		})
	}
}

func TestResolverResolveValue(t *testing.T) {
	r := NewResolver()
	r.SetVariable("count", 3)
	r.SetVariable("name", "ana")

	resolved := r.ResolveValue(map[string]any{
		"count":  "{{count}}",
		"label":  "user {{name}}",
		"list":   []any{"{{name}}", 1, true},
		"nested": map[string]any{"stamp": "{{timestamp()}}"},
		"plain":  7,
	})

	m, ok := resolved.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, m["count"])
	assert.Equal(t, "user ana", m["label"])
	assert.Equal(t, []any{"ana", 1, true}, m["list"])
	assert.IsType(t, int64(0), m["nested"].(map[string]any)["stamp"])
	assert.Equal(t, 7, m["plain"])
}

func TestResolverGetUnresolvedVariables(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		variables map[string]any
		expected  []string
	}{
		{
			name:     "no variables",
			input:    "hello world",
			expected: nil,
		},
		{
			name:      "resolved variable",
			input:     "{{foo}}",
			variables: map[string]any{"foo": "bar"},
			expected:  nil,
		},
		{
			name:     "known function",
			input:    "{{uuid()}}",
			expected: nil,
		},
		{
			name:     "unknown function",
			input:    "{{nope(1)}}",
			expected: []string{"nope(1)"},
		},
		{
			name:      "mixed resolved and unresolved",
			input:     "{{foo}} and {{bar}} and {{baz}}",
			variables: map[string]any{"bar": "middle"},
			expected:  []string{"foo", "baz"},
		},
		{
			name:     "missing environment variable",
			input:    "{{$SHAPESPEC_SURELY_UNSET_VARIABLE}}",
			expected: []string{"$SHAPESPEC_SURELY_UNSET_VARIABLE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver()
			if tt.variables != nil {
				r.SetVariables(tt.variables)
			}
			assert.Equal(t, tt.expected, r.GetUnresolvedVariables(tt.input))
			assert.Equal(t, tt.expected != nil, r.HasUnresolvedVariables(tt.input))
		})
	}
}

func TestResolverWarnings(t *testing.T) {
	var warnings []string
	r := NewResolver()
	r.SetWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})

	r.Resolve("{{missing}} {{nope()}}")
	assert.Equal(t, []string{
		"unresolved variable: missing",
		"unresolved function call: nope()",
	}, warnings)

	clone := r.Clone()
	clone.Resolve("{{other}}")
	assert.Len(t, warnings, 3)
}

func TestLoadVariables(t *testing.T) {
	t.Setenv(SystemPrefix+"region", "eu")
	t.Setenv(SystemPrefix+"owner", "system")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("owner=dotenv\nSHAPESPEC_VAR_region=us\n"), 0644))

	vars, err := LoadVariables(map[string]any{"owner": "config", "tier": "gold"}, envFile)
	require.NoError(t, err)
	assert.Equal(t, "us", vars["region"])
	assert.Equal(t, "dotenv", vars["owner"])
	assert.Equal(t, "gold", vars["tier"])

	_, err = LoadVariables(nil, filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
