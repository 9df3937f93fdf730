package shape

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// passesOnlyFor reports whether ValidateType passes for exactly the tag
// want among all primitive tags.
func passesOnlyFor(value any, want string) bool {
	for _, tag := range PrimitiveTags {
		rec := NewRecorder()
		ValidateType(rec, "v", value, tag)
		if rec.Passed() != (tag == want) {
			return false
		}
	}
	return true
}

func TestPrimitiveTagProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("integers are numbers", prop.ForAll(
		func(n int64) bool {
			return passesOnlyFor(n, TagNumber)
		},
		gen.Int64(),
	))

	properties.Property("floats are numbers", prop.ForAll(
		func(f float64) bool {
			return passesOnlyFor(f, TagNumber)
		},
		gen.Float64(),
	))

	properties.Property("strings are strings", prop.ForAll(
		func(s string) bool {
			return passesOnlyFor(s, TagString)
		},
		gen.AnyString(),
	))

	properties.Property("booleans are booleans", prop.ForAll(
		func(b bool) bool {
			return passesOnlyFor(b, TagBoolean)
		},
		gen.Bool(),
	))

	properties.Property("slices are objects", prop.ForAll(
		func(s []string) bool {
			return passesOnlyFor(s, TagObject)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("type check is case-insensitive", prop.ForAll(
		func(n int) bool {
			rec := NewRecorder()
			ValidateType(rec, "v", n, "NUMBER")
			return rec.Passed()
		},
		gen.Int(),
	))

	properties.Property("element type checks only the first element", prop.ForAll(
		func(first string, rest []int) bool {
			values := []any{first}
			for _, r := range rest {
				values = append(values, r)
			}
			rec := NewRecorder()
			ValidateType(rec, "v", values, "string[]")
			return rec.Passed()
		},
		gen.AlphaString(),
		gen.SliceOf(gen.Int()),
	))

	properties.Property("a value strictly equals itself", prop.ForAll(
		func(n int64, s string) bool {
			return StrictEqual(n, n) && StrictEqual(s, s) && !StrictEqual(n, s)
		},
		gen.Int64(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestPrimitiveTags_Fixed(t *testing.T) {
	cases := map[string]any{
		TagUndefined: Undefined,
		TagObject:    map[string]any{},
		TagFunction:  func() {},
		TagSymbol:    NewSymbol("x"),
	}
	for want, value := range cases {
		if !passesOnlyFor(value, want) {
			t.Errorf("%v should only pass for %q", value, want)
		}
	}
}
