package shapetest

import (
	"fmt"
	"testing"

	"github.com/abdul-hamid-achik/shapespec/packages/shape"
	"github.com/stretchr/testify/assert"
)

type player struct {
	Name string
}

func (p *player) Greet(greeting string) string { return greeting + ", " + p.Name }

// fakeT records failures instead of failing the enclosing test.
type fakeT struct {
	testing.TB
	errors []string
	fatal  string
}

func (f *fakeT) Helper() {}

func (f *fakeT) Name() string { return "fake" }

func (f *fakeT) Errorf(format string, args ...any) {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

func (f *fakeT) Fatalf(format string, args ...any) {
	f.fatal = fmt.Sprintf(format, args...)
}

func TestAssertObject_Passes(t *testing.T) {
	AssertObject(t, "player", &player{Name: "ana"}, shape.Tests{
		"Name":  shape.Type("string").Equals("ana"),
		"Greet": shape.Call("hi").Equals("hi, ana"),
	}, shape.WithClass("player"))
}

func TestAssertType_Passes(t *testing.T) {
	AssertType(t, "ids", []int{1, 2}, "number[]")
}

func TestReporter_FailsOnMismatch(t *testing.T) {
	ft := &fakeT{}
	AssertObject(ft, "player", &player{Name: "ana"}, shape.Tests{
		"Greet": shape.Call("hi").Equals("hello, ana"),
	})
	assert.Len(t, ft.errors, 1)
	assert.Contains(t, ft.errors[0], "[Greet()] doesn't have the value [hello, ana]")
	assert.Empty(t, ft.fatal)
}

func TestAssertObject_InvalidSpecification(t *testing.T) {
	ft := &fakeT{}
	AssertObject(ft, "player", &player{}, shape.Tests{"Greet": 3.5})
	assert.Contains(t, ft.fatal, "invalid specification")
}
