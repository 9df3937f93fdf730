package shape

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
)

// ValidateType checks value against a type name: a primitive tag, null,
// array, an element type ending in "[]", or a class name.
func ValidateType(r Reporter, name string, value any, expectedType string) {
	validateType(r, name, valueOf(value), expectedType)
}

func validateType(r Reporter, name string, v reflect.Value, expectedType string) {
	typeLower := strings.ToLower(expectedType)

	if slices.Contains(PrimitiveTags, typeLower) {
		actual := typeTag(v)
		report(r, actual == typeLower, name, CheckType, typeLower, actual,
			fmt.Sprintf("[%s] is not of type [%s]", name, expectedType))
		return
	}

	if typeLower == "null" {
		report(r, isNull(v), name, CheckNull, nil, display(v),
			fmt.Sprintf("[%s] is not null", name))
		return
	}

	if typeLower == "array" {
		report(r, isArray(v), name, CheckArray, "array", typeTag(v),
			fmt.Sprintf("[%s] is not an array", name))
		return
	}

	if len(expectedType) > 2 && strings.HasSuffix(expectedType, "[]") {
		elemType := expectedType[:len(expectedType)-2]
		arr := isArray(v)
		report(r, arr, name, CheckArray, "array", typeTag(v),
			fmt.Sprintf("[%s] is not an array", name))

		length := 0
		var first reflect.Value
		if arr {
			length = unwrap(v).Len()
			if length > 0 {
				first = unwrap(v).Index(0)
			}
		}
		report(r, length != 0, name, CheckNotEmpty, "length > 0", length,
			fmt.Sprintf("[%s] is empty", name))

		// Only the first element is checked.
		validateType(r, name+"[0]", first, elemType)
		return
	}

	validateClass(r, name, v, expectedType)
}

// ValidateClass checks that value is a non-null object constructed by the
// named type.
func ValidateClass(r Reporter, name string, value any, expectedClassName string) {
	validateClass(r, name, valueOf(value), expectedClassName)
}

func validateClass(r Reporter, name string, v reflect.Value, expectedClassName string) {
	msg := fmt.Sprintf("[%s] is not an instance of [%s]", name, expectedClassName)
	tag := typeTag(v)
	report(r, tag == TagObject, name, CheckType, TagObject, tag, msg)
	report(r, !isNull(v), name, CheckNotNull, "not null", display(v), msg)
	actual := className(v)
	report(r, actual == expectedClassName, name, CheckClass, expectedClassName, actual, msg)
}

// ValidateValue checks that value is strictly equal to expectedValue.
func ValidateValue(r Reporter, name string, value, expectedValue any) {
	validateValue(r, name, valueOf(value), expectedValue)
}

func validateValue(r Reporter, name string, v reflect.Value, expectedValue any) {
	report(r, strictEqual(v, valueOf(expectedValue)), name, CheckValue, expectedValue, display(v),
		fmt.Sprintf("[%s] doesn't have the value [%v]", name, expectedValue))
}

// ValidateProperty checks that target has a defined member key and, when
// set on expect, its type and value.
func ValidateProperty(r Reporter, target any, key string, expect Expect) {
	validateProperty(r, valueOf(target), key, expect.node())
}

func validateProperty(r Reporter, target reflect.Value, key string, n node) reflect.Value {
	report(r, key != "", key, CheckKey, "non-empty key", key, "Key not specified")
	report(r, isObject(target), key, CheckObject, TagObject, typeTag(target),
		fmt.Sprintf("Target for [%s] isn't an Object", key))

	v := member(target, key)
	report(r, v.IsValid(), key, CheckDefined, "defined", display(v),
		fmt.Sprintf("[%s] is not defined", key))

	if n.hasType {
		validateType(r, key, v, n.typ)
	}
	if n.hasValue {
		validateValue(r, key, v, n.value)
	}
	return v
}

// ValidateMethod checks that target has a callable member key. When expect
// was built with Call, the member is invoked and the result checked
// against the expected type and value under the label "key()".
func ValidateMethod(r Reporter, target any, key string, expect Expect) {
	n := expect.node()
	n.method = true
	validateMethod(r, valueOf(target), key, n)
}

func validateMethod(r Reporter, target reflect.Value, key string, n node) {
	fn := validateProperty(r, target, key, node{typ: TagFunction, hasType: true})
	if !n.invoke {
		return
	}
	if typeTag(fn) != TagFunction {
		// Already reported by the property check.
		return
	}

	label := key + "()"
	result, ok := invoke(r, label, fn, n.args)
	if !ok {
		return
	}
	if !n.hasType && !n.hasValue {
		return
	}
	if n.hasType {
		validateType(r, label, result, n.typ)
	}
	if n.hasValue {
		validateValue(r, label, result, n.value)
	}
}

// ObjectOption configures ValidateObject.
type ObjectOption func(*objectOptions)

type objectOptions struct {
	exhaustive bool
	className  string
}

// WithExhaustive toggles the check that every public member of the target
// is named by the tests. It is on by default.
func WithExhaustive(on bool) ObjectOption {
	return func(o *objectOptions) {
		o.exhaustive = on
	}
}

// WithClass additionally checks the target's class name.
func WithClass(name string) ObjectOption {
	return func(o *objectOptions) {
		o.className = name
	}
}

// ValidateObject checks that target is a non-null object and validates
// each of its members named in tests. Keys are processed in sorted order.
// A nil tests map only checks the object itself.
//
// The only returned error is a *SpecError for a malformed node, which
// stops processing of the remaining keys.
func ValidateObject(r Reporter, name string, target any, tests Tests, opts ...ObjectOption) error {
	o := objectOptions{exhaustive: true}
	for _, opt := range opts {
		opt(&o)
	}
	return validateObject(r, name, valueOf(target), tests, o)
}

func validateObject(r Reporter, name string, target reflect.Value, tests Tests, o objectOptions) error {
	tag := typeTag(target)
	report(r, tag == TagObject, name, CheckType, TagObject, tag,
		fmt.Sprintf("[%s] is not an object", name))
	report(r, !isNull(target), name, CheckNotNull, "not null", display(target),
		fmt.Sprintf("[%s] is null", name))

	if o.className != "" {
		validateClass(r, name, target, o.className)
	}

	if tests == nil {
		return nil
	}

	untested := make(map[string]struct{})
	if o.exhaustive {
		for _, m := range members(target) {
			if !hidden(m) {
				untested[m] = struct{}{}
			}
		}
	}

	keys := make([]string, 0, len(tests))
	for key := range tests {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		delete(untested, key)

		n, err := parseNode(name, key, tests[key])
		if err != nil {
			return err
		}

		if n.method {
			validateMethod(r, target, key, n)
			continue
		}

		v := validateProperty(r, target, key, n)
		if n.tests != nil {
			nested := objectOptions{exhaustive: true}
			if n.exhaustive != nil {
				nested.exhaustive = *n.exhaustive
			}
			if err := validateObject(r, name+"."+key, v, n.tests, nested); err != nil {
				return err
			}
		}
	}

	if o.exhaustive {
		rest := make([]string, 0, len(untested))
		for m := range untested {
			rest = append(rest, m)
		}
		sort.Strings(rest)
		report(r, len(rest) == 0, name, CheckCoverage, []string{}, rest,
			fmt.Sprintf("[%s] properties not tested: [%s]", name, strings.Join(rest, ",")))
	}
	return nil
}
