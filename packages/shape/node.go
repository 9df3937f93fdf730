package shape

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnhandledSpec is wrapped by every SpecError.
var ErrUnhandledSpec = errors.New("unhandled specification type")

// SpecError reports a test specification node that is neither falsy, a
// type name nor an object. It is a mistake in the test, not in the target.
type SpecError struct {
	Object string
	Key    string
	Value  any
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("the [%s] test of [%s] is of the unhandled type [%T]", e.Key, e.Object, e.Value)
}

func (e *SpecError) Unwrap() error {
	return ErrUnhandledSpec
}

// Tests maps member names to specification nodes. A node may be:
//   - nil, false, "" or zero: the member only has to exist
//   - a type name string such as "number", "Player" or "string[]"
//   - an Expect built with Type, Value, Method or Call
//   - a map with optional "type", "value", "args", "tests" and "exhaustive" keys
type Tests map[string]any

// Expect is an explicit property or method specification node.
type Expect struct {
	typ        string
	value      any
	hasValue   bool
	method     bool
	invoke     bool
	args       []any
	tests      Tests
	exhaustive *bool
}

// Type expects a property of the given type or class.
func Type(name string) Expect {
	return Expect{typ: name}
}

// Value expects a property strictly equal to v.
func Value(v any) Expect {
	return Expect{value: v, hasValue: true}
}

// Method expects a callable member without invoking it.
func Method() Expect {
	return Expect{method: true}
}

// Call expects a callable member and invokes it with args.
func Call(args ...any) Expect {
	if args == nil {
		args = []any{}
	}
	return Expect{method: true, invoke: true, args: args}
}

// Returns sets the expected type of a call result.
func (e Expect) Returns(typ string) Expect {
	e.typ = typ
	return e
}

// Equals sets the expected value. For methods it applies to the call
// result.
func (e Expect) Equals(v any) Expect {
	e.value = v
	e.hasValue = true
	return e
}

// Has validates the member itself as an object against tests.
func (e Expect) Has(tests Tests) Expect {
	e.tests = tests
	return e
}

// Exhaustive sets coverage checking for the nested tests of Has.
func (e Expect) Exhaustive(on bool) Expect {
	e.exhaustive = &on
	return e
}

type node struct {
	method     bool
	invoke     bool
	args       []any
	typ        string
	hasType    bool
	value      any
	hasValue   bool
	tests      Tests
	exhaustive *bool
}

func parseNode(object, key string, spec any) (node, error) {
	switch s := spec.(type) {
	case nil:
		return node{}, nil
	case Expect:
		return s.node(), nil
	case *Expect:
		if s == nil {
			return node{}, nil
		}
		return s.node(), nil
	case map[string]any:
		return parseMap(object, key, s)
	}

	v := valueOf(spec)
	if falsy(v) {
		return node{}, nil
	}
	switch typeTag(v) {
	case TagString:
		return node{typ: unwrap(v).String(), hasType: true}, nil
	case TagObject:
		if isNull(v) {
			return node{}, nil
		}
		if uv := unwrap(v); uv.Kind() == reflect.Map && uv.Type().Key().Kind() == reflect.String {
			m := make(map[string]any, uv.Len())
			iter := uv.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = iter.Value().Interface()
			}
			return parseMap(object, key, m)
		}
		// Any other object carries no type or value fields.
		return node{}, nil
	}
	return node{}, &SpecError{Object: object, Key: key, Value: spec}
}

func (e Expect) node() node {
	return node{
		method:     e.method,
		invoke:     e.invoke,
		args:       e.args,
		typ:        e.typ,
		hasType:    e.typ != "",
		value:      e.value,
		hasValue:   e.hasValue,
		tests:      e.tests,
		exhaustive: e.exhaustive,
	}
}

func parseMap(object, key string, m map[string]any) (node, error) {
	var n node
	if t, ok := m["type"].(string); ok {
		n.typ = t
		n.hasType = true
	}
	if v, ok := m["value"]; ok {
		n.value = v
		n.hasValue = true
	}
	if args, ok := m["args"]; ok {
		n.method = true
		if seq, ok := toSequence(args); ok {
			n.invoke = true
			n.args = seq
		}
	}
	if nested, ok := m["tests"]; ok && nested != nil {
		tests, ok := toTests(nested)
		if !ok {
			return node{}, &SpecError{Object: object, Key: key + ".tests", Value: nested}
		}
		n.tests = tests
	}
	if ex, ok := m["exhaustive"].(bool); ok {
		n.exhaustive = &ex
	}
	return n, nil
}

func toSequence(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := unwrap(valueOf(v))
	if !isArray(rv) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = display(rv.Index(i))
	}
	return out, true
}

func toTests(v any) (Tests, bool) {
	switch t := v.(type) {
	case Tests:
		return t, true
	case map[string]any:
		return Tests(t), true
	}
	return nil, false
}

// falsy mirrors the values that only require existence: nil, false, the
// empty string and numeric zero.
func falsy(v reflect.Value) bool {
	v = unwrap(v)
	if !v.IsValid() || isNull(v) {
		return true
	}
	switch typeTag(v) {
	case TagBoolean:
		return !v.Bool()
	case TagString:
		return v.String() == ""
	case TagNumber:
		f := toFloat(v)
		return f == 0 || f != f
	}
	return false
}
