package shape

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Calculator struct {
	Name  string `json:"name"`
	Owner *Calculator
	base  int
}

func (c *Calculator) Add(a, b int) int { return a + b + c.base }

func (c Calculator) Label() string { return "calc:" + c.Name }

func (c *Calculator) Split(n int) (int, error) { return n / 2, nil }

func (c *Calculator) Sum(nums ...int) int {
	total := 0
	for _, n := range nums {
		total += n
	}
	return total
}

func (c *Calculator) Boom() int { panic("boom") }

func (c *Calculator) String() string { return c.Name }

func (c *Calculator) _internal() {}

func failures(rec *Recorder) []string {
	var out []string
	for _, f := range rec.Failures() {
		out = append(out, f.Message)
	}
	return out
}

func TestValidateType_Primitives(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
		passed   bool
	}{
		{"number int", 4, "number", true},
		{"number float", 4.5, "Number", true},
		{"number uint8", uint8(1), "number", true},
		{"string", "hi", "string", true},
		{"string mismatch", 4, "string", false},
		{"boolean", true, "boolean", true},
		{"function", func() {}, "function", true},
		{"map is object", map[string]any{}, "object", true},
		{"slice is object", []int{1}, "object", true},
		{"nil is object", nil, "object", true},
		{"undefined", Undefined, "undefined", true},
		{"nil is not undefined", nil, "undefined", false},
		{"symbol", NewSymbol("s"), "symbol", true},
		{"string is not symbol", "s", "symbol", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecorder()
			ValidateType(rec, "v", tt.value, tt.expected)
			assert.Equal(t, tt.passed, rec.Passed(), "failures: %v", failures(rec))
			assert.Len(t, rec.Results(), 1)
		})
	}
}

func TestValidateType_Message(t *testing.T) {
	rec := NewRecorder()
	ValidateType(rec, "age", "ten", "Number")

	fails := rec.Failures()
	require.Len(t, fails, 1)
	assert.Equal(t, "[age] is not of type [Number]", fails[0].Message)
	assert.Equal(t, "number", fails[0].Expected)
	assert.Equal(t, "string", fails[0].Actual)
	assert.Equal(t, CheckType, fails[0].Check)
}

func TestValidateType_NullAndArray(t *testing.T) {
	var nilMap map[string]any
	var nilPtr *Calculator
	var nilSlice []string

	rec := NewRecorder()
	ValidateType(rec, "a", nil, "null")
	ValidateType(rec, "b", nilMap, "null")
	ValidateType(rec, "c", nilPtr, "NULL")
	ValidateType(rec, "d", []any{}, "array")
	ValidateType(rec, "e", nilSlice, "Array")
	ValidateType(rec, "f", [2]int{1, 2}, "array")
	assert.True(t, rec.Passed(), "failures: %v", failures(rec))

	rec = NewRecorder()
	ValidateType(rec, "g", nilSlice, "null")
	ValidateType(rec, "h", Undefined, "null")
	ValidateType(rec, "i", map[string]any{}, "array")
	assert.Equal(t, []string{
		"[g] is not null",
		"[h] is not null",
		"[i] is not an array",
	}, failures(rec))
}

func TestValidateType_ElementType(t *testing.T) {
	t.Run("checks the first element", func(t *testing.T) {
		rec := NewRecorder()
		ValidateType(rec, "tags", []any{"a", "b"}, "string[]")
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("only the first element is checked", func(t *testing.T) {
		rec := NewRecorder()
		ValidateType(rec, "mixed", []any{"a", 1, true, nil}, "string[]")
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("first element mismatch", func(t *testing.T) {
		rec := NewRecorder()
		ValidateType(rec, "mixed", []any{1, "a"}, "string[]")
		assert.Equal(t, []string{"[mixed[0]] is not of type [string]"}, failures(rec))
	})

	t.Run("empty array fails", func(t *testing.T) {
		rec := NewRecorder()
		ValidateType(rec, "names", []any{}, "String[]")
		msgs := failures(rec)
		assert.Contains(t, msgs, "[names] is empty")
		assert.Contains(t, msgs, "[names[0]] is not of type [String]")
	})

	t.Run("not an array", func(t *testing.T) {
		rec := NewRecorder()
		ValidateType(rec, "names", "abc", "string[]")
		assert.Contains(t, failures(rec), "[names] is not an array")
	})

	t.Run("nested arrays", func(t *testing.T) {
		rec := NewRecorder()
		ValidateType(rec, "grid", [][]int{{1, 2}, {3}}, "number[][]")
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))

		rec = NewRecorder()
		ValidateType(rec, "grid", [][]string{{"x"}}, "number[][]")
		assert.Equal(t, []string{"[grid[0][0]] is not of type [number]"}, failures(rec))
	})

	t.Run("class elements", func(t *testing.T) {
		rec := NewRecorder()
		ValidateType(rec, "calcs", []*Calculator{{Name: "a"}}, "Calculator[]")
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})
}

func TestValidateClass(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		className string
		failures  int
	}{
		{"map is Object", map[string]any{}, "Object", 0},
		{"map is not Array", map[string]any{}, "Array", 1},
		{"slice is Array", []int{}, "Array", 0},
		{"struct pointer", &Calculator{}, "Calculator", 0},
		{"struct value", Calculator{}, "Calculator", 0},
		{"class name is case sensitive", &Calculator{}, "calculator", 1},
		{"nil pointer", (*Calculator)(nil), "Calculator", 2},
		{"string", "x", "String", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecorder()
			ValidateClass(rec, "v", tt.value, tt.className)
			assert.Len(t, rec.Results(), 3)
			assert.Len(t, rec.Failures(), tt.failures)
			for _, f := range rec.Failures() {
				assert.Equal(t, fmt.Sprintf("[v] is not an instance of [%s]", tt.className), f.Message)
			}
		})
	}
}

func TestValidateType_DelegatesToClass(t *testing.T) {
	rec := NewRecorder()
	ValidateType(rec, "calc", &Calculator{}, "Calculator")
	assert.True(t, rec.Passed())
	assert.Len(t, rec.Results(), 3)
}

func TestValidateValue(t *testing.T) {
	shared := map[string]any{"a": 1}
	sym := NewSymbol("id")

	tests := []struct {
		name     string
		value    any
		expected any
		passed   bool
	}{
		{"same int", 4, 4, true},
		{"int and int64", 4, int64(4), true},
		{"int and float", 4, 4.0, true},
		{"uint and int", uint(4), 4, true},
		{"negative int and uint", -1, uint(1), false},
		{"different numbers", 4, 5, false},
		{"number and string", 4, "4", false},
		{"strings", "bob", "bob", true},
		{"booleans", false, false, true},
		{"nil and nil", nil, nil, true},
		{"nil and zero", nil, 0, false},
		{"undefined and nil", Undefined, nil, false},
		{"same map", shared, shared, true},
		{"equal maps are distinct", map[string]any{"a": 1}, map[string]any{"a": 1}, false},
		{"same symbol", sym, sym, true},
		{"distinct symbols", sym, NewSymbol("id"), false},
		{"comparable structs", struct{ A int }{1}, struct{ A int }{1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecorder()
			ValidateValue(rec, "v", tt.value, tt.expected)
			assert.Equal(t, tt.passed, rec.Passed(), "failures: %v", failures(rec))
		})
	}
}

func TestStrictEqual_Functions(t *testing.T) {
	calc := reflect.ValueOf(&Calculator{})
	add := calc.MethodByName("Add").Interface()
	sum := calc.MethodByName("Sum").Interface()
	other := reflect.ValueOf(&Calculator{base: 1}).MethodByName("Add").Interface()
	fn := strings.ToUpper

	assert.False(t, StrictEqual(add, sum), "different methods")
	assert.False(t, StrictEqual(add, other), "same method on different receivers")
	assert.False(t, StrictEqual(add, fn))
	assert.True(t, StrictEqual(fn, fn))
	assert.False(t, StrictEqual(fn, strings.ToLower))

	rec := NewRecorder()
	ValidateValue(rec, "Add", add, sum)
	assert.False(t, rec.Passed())
}

func TestValidateValue_Message(t *testing.T) {
	rec := NewRecorder()
	ValidateValue(rec, "name", "alice", "bob")
	assert.Equal(t, []string{"[name] doesn't have the value [bob]"}, failures(rec))
}

func TestValidateProperty(t *testing.T) {
	data := map[string]any{"id": 7, "name": "bob", "nothing": nil}

	t.Run("existence", func(t *testing.T) {
		rec := NewRecorder()
		ValidateProperty(rec, data, "id", Expect{})
		assert.True(t, rec.Passed())
	})

	t.Run("type and value", func(t *testing.T) {
		rec := NewRecorder()
		ValidateProperty(rec, data, "id", Type("number").Equals(7))
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("null is defined", func(t *testing.T) {
		rec := NewRecorder()
		ValidateProperty(rec, data, "nothing", Type("null").Equals(nil))
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("missing member", func(t *testing.T) {
		rec := NewRecorder()
		ValidateProperty(rec, data, "missing", Type("string"))
		assert.Equal(t, []string{
			"[missing] is not defined",
			"[missing] is not of type [string]",
		}, failures(rec))
	})

	t.Run("empty key", func(t *testing.T) {
		rec := NewRecorder()
		ValidateProperty(rec, data, "", Expect{})
		assert.Contains(t, failures(rec), "Key not specified")
	})

	t.Run("target not an object", func(t *testing.T) {
		rec := NewRecorder()
		ValidateProperty(rec, 42, "id", Expect{})
		assert.Contains(t, failures(rec), "Target for [id] isn't an Object")
	})

	t.Run("struct fields by name and json tag", func(t *testing.T) {
		calc := &Calculator{Name: "main"}
		rec := NewRecorder()
		ValidateProperty(rec, calc, "Name", Type("string").Equals("main"))
		ValidateProperty(rec, calc, "name", Value("main"))
		ValidateProperty(rec, calc, "Owner", Type("null"))
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("unexported fields are not members", func(t *testing.T) {
		rec := NewRecorder()
		ValidateProperty(rec, &Calculator{}, "base", Expect{})
		assert.Equal(t, []string{"[base] is not defined"}, failures(rec))
	})

	t.Run("array length and index", func(t *testing.T) {
		rec := NewRecorder()
		ValidateProperty(rec, []string{"a", "b"}, "length", Value(2))
		ValidateProperty(rec, []string{"a", "b"}, "1", Value("b"))
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})
}

func TestValidateMethod(t *testing.T) {
	calc := &Calculator{Name: "main"}

	t.Run("returns expected value", func(t *testing.T) {
		rec := NewRecorder()
		ValidateMethod(rec, calc, "Add", Call(2, 2).Returns("number").Equals(4))
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("value mismatch", func(t *testing.T) {
		rec := NewRecorder()
		ValidateMethod(rec, calc, "Add", Call(2, 2).Equals(5))
		assert.Equal(t, []string{"[Add()] doesn't have the value [5]"}, failures(rec))
		assert.Equal(t, "Add()", rec.Failures()[0].Subject)
	})

	t.Run("map function member", func(t *testing.T) {
		obj := map[string]any{"add": func(a, b float64) float64 { return a + b }}
		rec := NewRecorder()
		ValidateMethod(rec, obj, "add", Call(2, 2).Equals(4))
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("existence only", func(t *testing.T) {
		rec := NewRecorder()
		ValidateMethod(rec, calc, "Boom", Method())
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("value receiver", func(t *testing.T) {
		rec := NewRecorder()
		ValidateMethod(rec, Calculator{Name: "v"}, "Label", Call().Equals("calc:v"))
		ValidateMethod(rec, Calculator{Name: "v"}, "Add", Call(1, 1).Equals(2))
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("variadic", func(t *testing.T) {
		rec := NewRecorder()
		ValidateMethod(rec, calc, "Sum", Call(1, 2, 3).Equals(6))
		ValidateMethod(rec, calc, "Sum", Call().Equals(0))
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("multiple results form an array", func(t *testing.T) {
		rec := NewRecorder()
		ValidateMethod(rec, calc, "Split", Call(8).Returns("array"))
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("not a function", func(t *testing.T) {
		rec := NewRecorder()
		ValidateMethod(rec, calc, "Name", Call().Equals("main"))
		assert.Equal(t, []string{"[Name] is not of type [function]"}, failures(rec))
	})

	t.Run("wrong argument count is reported", func(t *testing.T) {
		rec := NewRecorder()
		ValidateMethod(rec, calc, "Add", Call(1).Equals(1))
		fails := rec.Failures()
		require.Len(t, fails, 1)
		assert.Equal(t, CheckCall, fails[0].Check)
		assert.True(t, strings.HasPrefix(fails[0].Message, "[Add()] cannot be called"))
	})

	t.Run("lossy numeric arguments are reported", func(t *testing.T) {
		obj := map[string]any{
			"small": func(n int8) int8 { return n },
			"count": func(n uint) uint { return n },
			"ratio": func(f float32) float32 { return f },
		}
		tests := []struct {
			name   string
			target any
			key    string
			args   []any
		}{
			{"fraction into int", calc, "Add", []any{2.7, 1.9}},
			{"overflow into int8", obj, "small", []any{300}},
			{"negative into uint", obj, "count", []any{-1}},
			{"float into uint overflow", obj, "count", []any{1e30}},
			{"float32 overflow", obj, "ratio", []any{1e300}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := NewRecorder()
				ValidateMethod(rec, tt.target, tt.key, Call(tt.args...).Returns("number"))
				fails := rec.Failures()
				require.Len(t, fails, 1, "failures: %v", failures(rec))
				assert.Equal(t, CheckCall, fails[0].Check)
				assert.Contains(t, fails[0].Message, "without changing its value")
			})
		}

		rec := NewRecorder()
		err := ValidateObject(rec, "x", calc, Tests{"Add": Call(2.7, 1.9).Equals(3)}, WithExhaustive(false))
		require.NoError(t, err)
		assert.False(t, rec.Passed())
	})

	t.Run("integral floats convert", func(t *testing.T) {
		obj := map[string]any{"small": func(n int8) int8 { return n }}
		rec := NewRecorder()
		ValidateMethod(rec, calc, "Add", Call(2.0, float32(3)).Equals(5))
		ValidateMethod(rec, obj, "small", Call(127.0).Equals(127))
		ValidateMethod(rec, obj, "small", Call(uint8(5)).Equals(5))
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("panic is reported", func(t *testing.T) {
		rec := NewRecorder()
		ValidateMethod(rec, calc, "Boom", Call().Returns("number"))
		assert.Equal(t, []string{"[Boom()] panicked: boom"}, failures(rec))
	})

	t.Run("called without result checks", func(t *testing.T) {
		calls := 0
		obj := map[string]any{"tick": func() { calls++ }}
		rec := NewRecorder()
		ValidateMethod(rec, obj, "tick", Call())
		assert.True(t, rec.Passed())
		assert.Equal(t, 1, calls)
	})
}

func TestValidateObject_Coverage(t *testing.T) {
	t.Run("untested member reported", func(t *testing.T) {
		rec := NewRecorder()
		err := ValidateObject(rec, "x", map[string]any{"a": 1, "b": 2}, Tests{"a": "number"}, WithExhaustive(true))
		require.NoError(t, err)
		assert.Equal(t, []string{"[x] properties not tested: [b]"}, failures(rec))
		assert.Equal(t, []string{"b"}, rec.Failures()[0].Actual)
	})

	t.Run("exhaustive by default", func(t *testing.T) {
		rec := NewRecorder()
		err := ValidateObject(rec, "x", map[string]any{"a": 1, "c": 3, "b": 2}, Tests{"a": "number"})
		require.NoError(t, err)
		assert.Equal(t, []string{"[x] properties not tested: [b,c]"}, failures(rec))
	})

	t.Run("disabled", func(t *testing.T) {
		rec := NewRecorder()
		err := ValidateObject(rec, "x", map[string]any{"a": 1, "b": 2}, Tests{"a": "number"}, WithExhaustive(false))
		require.NoError(t, err)
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
		for _, r := range rec.Results() {
			assert.NotEqual(t, CheckCoverage, r.Check)
		}
	})

	t.Run("hidden members are skipped", func(t *testing.T) {
		rec := NewRecorder()
		target := map[string]any{"a": 1, "_private": 2, "constructor": 3, "toString": 4}
		err := ValidateObject(rec, "x", target, Tests{"a": nil})
		require.NoError(t, err)
		assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	})

	t.Run("missing keys still count as tested", func(t *testing.T) {
		rec := NewRecorder()
		err := ValidateObject(rec, "x", map[string]any{"a": 1}, Tests{"a": "number", "zzz": "string"})
		require.NoError(t, err)
		msgs := failures(rec)
		assert.Contains(t, msgs, "[zzz] is not defined")
		for _, m := range msgs {
			assert.NotContains(t, m, "properties not tested")
		}
	})

	t.Run("instance members are methods", func(t *testing.T) {
		rec := NewRecorder()
		err := ValidateObject(rec, "calc", &Calculator{Name: "c"}, Tests{
			"Add":   Call(1, 2).Equals(3),
			"Label": Call().Returns("string"),
			"Split": Method(),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"[calc] properties not tested: [Boom,Sum]"}, failures(rec))
	})
}

func TestValidateObject_Nodes(t *testing.T) {
	target := map[string]any{
		"id":    7,
		"name":  "bob",
		"tags":  []any{"a", "b"},
		"empty": nil,
		"inc":   func(n int) int { return n + 1 },
	}

	rec := NewRecorder()
	err := ValidateObject(rec, "user", target, Tests{
		"id":    map[string]any{"type": "number", "value": 7},
		"name":  "string",
		"tags":  "string[]",
		"empty": map[string]any{"value": nil},
		"inc":   map[string]any{"args": []any{1}, "value": 2},
	})
	require.NoError(t, err)
	assert.True(t, rec.Passed(), "failures: %v", failures(rec))
}

func TestValidateObject_FalsyNodes(t *testing.T) {
	target := map[string]any{"a": "x", "b": 1, "c": true, "d": nil}
	rec := NewRecorder()
	err := ValidateObject(rec, "x", target, Tests{"a": false, "b": "", "c": 0, "d": nil})
	require.NoError(t, err)
	assert.True(t, rec.Passed(), "failures: %v", failures(rec))
}

func TestValidateObject_ArgsNotSequence(t *testing.T) {
	calls := 0
	target := map[string]any{"f": func() int { calls++; return 1 }}
	rec := NewRecorder()
	err := ValidateObject(rec, "x", target, Tests{"f": map[string]any{"args": "nope", "value": 5}})
	require.NoError(t, err)
	assert.True(t, rec.Passed(), "failures: %v", failures(rec))
	assert.Zero(t, calls)
}

func TestValidateObject_UnhandledSpec(t *testing.T) {
	rec := NewRecorder()
	err := ValidateObject(rec, "x", map[string]any{"a": 1, "b": 2}, Tests{"a": "number", "b": 42})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnhandledSpec))

	var specErr *SpecError
	require.True(t, errors.As(err, &specErr))
	assert.Equal(t, "b", specErr.Key)
	assert.Equal(t, 42, specErr.Value)

	// "a" sorts first and was validated before the fatal key.
	assert.True(t, rec.Passed())
	for _, r := range rec.Results() {
		assert.NotEqual(t, CheckCoverage, r.Check)
	}
}

func TestValidateObject_TargetChecks(t *testing.T) {
	t.Run("nil target", func(t *testing.T) {
		rec := NewRecorder()
		require.NoError(t, ValidateObject(rec, "thing", nil, nil))
		assert.Equal(t, []string{"[thing] is null"}, failures(rec))
	})

	t.Run("string target", func(t *testing.T) {
		rec := NewRecorder()
		require.NoError(t, ValidateObject(rec, "thing", "x", nil))
		assert.Equal(t, []string{"[thing] is not an object"}, failures(rec))
	})

	t.Run("class name", func(t *testing.T) {
		rec := NewRecorder()
		require.NoError(t, ValidateObject(rec, "calc", &Calculator{}, nil, WithClass("Calculator")))
		assert.True(t, rec.Passed())

		rec = NewRecorder()
		require.NoError(t, ValidateObject(rec, "calc", &Calculator{}, nil, WithClass("Player")))
		assert.Equal(t, []string{"[calc] is not an instance of [Player]"}, failures(rec))
	})

	t.Run("empty tests still check coverage", func(t *testing.T) {
		rec := NewRecorder()
		require.NoError(t, ValidateObject(rec, "x", map[string]any{"a": 1}, Tests{}))
		assert.Equal(t, []string{"[x] properties not tested: [a]"}, failures(rec))
	})
}

func TestValidateObject_Nested(t *testing.T) {
	target := map[string]any{
		"user": map[string]any{"id": 1, "email": "a@b.c"},
	}

	rec := NewRecorder()
	err := ValidateObject(rec, "resp", target, Tests{
		"user": Type("Object").Has(Tests{"id": "number"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"[resp.user] properties not tested: [email]"}, failures(rec))

	rec = NewRecorder()
	err = ValidateObject(rec, "resp", target, Tests{
		"user": map[string]any{"tests": map[string]any{"id": "number"}, "exhaustive": false},
	})
	require.NoError(t, err)
	assert.True(t, rec.Passed(), "failures: %v", failures(rec))
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	ValidateType(rec, "a", 1, "number")
	ValidateType(rec, "b", 1, "string")
	assert.Len(t, rec.Results(), 2)
	assert.Len(t, rec.Failures(), 1)
	assert.False(t, rec.Passed())

	rec.Reset()
	assert.Empty(t, rec.Results())
	assert.True(t, rec.Passed())
}

func TestReporterFunc(t *testing.T) {
	var seen []string
	r := ReporterFunc(func(res *Result) {
		seen = append(seen, res.Subject)
	})
	ValidateClass(r, "v", map[string]any{}, "Object")
	assert.Equal(t, []string{"v", "v", "v"}, seen)
}
