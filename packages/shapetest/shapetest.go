// Package shapetest reports shape checks through a testing.T.
package shapetest

import (
	"testing"

	"github.com/abdul-hamid-achik/shapespec/packages/shape"
	"github.com/stretchr/testify/assert"
)

// Reporter fails the test for every failed check.
type Reporter struct {
	t testing.TB
}

func New(t testing.TB) *Reporter {
	return &Reporter{t: t}
}

func (r *Reporter) Report(result *shape.Result) {
	r.t.Helper()
	if result.Passed {
		return
	}
	assert.Fail(r.t, result.Message, "%s: expected %v, got %v", result.Check, result.Expected, result.Actual)
}

// AssertObject validates target against tests and fails the test on every
// mismatch. A malformed specification stops the test.
func AssertObject(t testing.TB, name string, target any, tests shape.Tests, opts ...shape.ObjectOption) {
	t.Helper()
	if err := shape.ValidateObject(New(t), name, target, tests, opts...); err != nil {
		t.Fatalf("invalid specification: %v", err)
	}
}

// AssertType fails the test unless value matches expectedType.
func AssertType(t testing.TB, name string, value any, expectedType string) {
	t.Helper()
	shape.ValidateType(New(t), name, value, expectedType)
}
