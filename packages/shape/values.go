package shape

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Runtime type tags.
const (
	TagUndefined = "undefined"
	TagObject    = "object"
	TagBoolean   = "boolean"
	TagNumber    = "number"
	TagString    = "string"
	TagSymbol    = "symbol"
	TagFunction  = "function"
)

// PrimitiveTags lists the type names checked against TypeTag directly.
var PrimitiveTags = []string{
	TagUndefined,
	TagObject,
	TagBoolean,
	TagNumber,
	TagString,
	TagSymbol,
	TagFunction,
}

type undefinedValue struct{}

func (undefinedValue) String() string { return "undefined" }

func (undefinedValue) MarshalJSON() ([]byte, error) {
	return json.Marshal("undefined")
}

// Undefined stands for a missing value. Passing it where a value is
// expected is the same as reading a member that does not exist.
var Undefined any = undefinedValue{}

// Symbol is a unique token value. Two symbols are only equal when they are
// the same pointer.
type Symbol struct {
	Description string
}

func NewSymbol(description string) *Symbol {
	return &Symbol{Description: description}
}

func (s *Symbol) String() string {
	return "Symbol(" + s.Description + ")"
}

var symbolType = reflect.TypeOf((*Symbol)(nil))

// valueOf wraps v for inspection. A nil v stays a typed nil interface so
// it reads as null rather than undefined.
func valueOf(v any) reflect.Value {
	if _, ok := v.(undefinedValue); ok {
		return reflect.Value{}
	}
	if rv, ok := v.(reflect.Value); ok {
		return rv
	}
	if v == nil {
		var null any
		return reflect.ValueOf(&null).Elem()
	}
	return reflect.ValueOf(v)
}

func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

// TypeTag returns the runtime type tag of v.
func TypeTag(v any) string {
	return typeTag(valueOf(v))
}

func typeTag(v reflect.Value) string {
	v = unwrap(v)
	if !v.IsValid() {
		return TagUndefined
	}
	if v.Type() == symbolType && !v.IsNil() {
		return TagSymbol
	}
	switch v.Kind() {
	case reflect.Bool:
		return TagBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return TagNumber
	case reflect.String:
		return TagString
	case reflect.Func:
		if v.IsNil() {
			return TagObject
		}
		return TagFunction
	default:
		return TagObject
	}
}

// isNull reports whether v is a nil reference. Nil slices are empty
// arrays, not null.
func isNull(v reflect.Value) bool {
	v = unwrap(v)
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

func isArray(v reflect.Value) bool {
	v = unwrap(v)
	if !v.IsValid() {
		return false
	}
	k := v.Kind()
	return k == reflect.Slice || k == reflect.Array
}

func isObject(v reflect.Value) bool {
	return typeTag(v) == TagObject && !isNull(v)
}

// ClassName returns the name of the type that constructed v: Object for
// maps, Array for slices and arrays, the Go type name for structs.
func ClassName(v any) string {
	return className(valueOf(v))
}

func className(v reflect.Value) string {
	v = unwrap(v)
	if !v.IsValid() || isNull(v) {
		return ""
	}
	switch v.Kind() {
	case reflect.Map:
		return "Object"
	case reflect.Slice, reflect.Array:
		return "Array"
	case reflect.Pointer:
		if name := v.Type().Elem().Name(); name != "" {
			return name
		}
		return "Object"
	case reflect.Struct:
		if name := v.Type().Name(); name != "" {
			return name
		}
		return "Object"
	}
	return v.Type().Name()
}

// isRecord reports whether v is a plain data object whose own keys are
// its members, as opposed to an instance whose members are its methods.
func isRecord(v reflect.Value) bool {
	return unwrap(v).Kind() == reflect.Map
}

// member reads target[key]. The returned value is invalid when the member
// does not exist.
func member(target reflect.Value, key string) reflect.Value {
	t := unwrap(target)
	if !t.IsValid() || isNull(t) {
		return reflect.Value{}
	}

	switch t.Kind() {
	case reflect.Map:
		kt := t.Type().Key()
		if kt.Kind() != reflect.String {
			return reflect.Value{}
		}
		return t.MapIndex(reflect.ValueOf(key).Convert(kt))
	case reflect.Slice, reflect.Array:
		if key == "length" {
			return reflect.ValueOf(t.Len())
		}
		if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < t.Len() {
			return t.Index(i)
		}
		return reflect.Value{}
	case reflect.Pointer, reflect.Struct:
		if f := field(t, key); f.IsValid() {
			return f
		}
		return method(t, key)
	}
	return reflect.Value{}
}

func field(t reflect.Value, key string) reflect.Value {
	s := t
	if s.Kind() == reflect.Pointer {
		s = s.Elem()
	}
	if s.Kind() != reflect.Struct {
		return reflect.Value{}
	}

	st := s.Type()
	if sf, ok := st.FieldByName(key); ok && sf.IsExported() {
		if f, err := s.FieldByIndexErr(sf.Index); err == nil {
			return f
		}
		return reflect.Value{}
	}

	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag != "" && tag != "-" && tag == key {
			return s.Field(i)
		}
	}
	return reflect.Value{}
}

func method(t reflect.Value, key string) reflect.Value {
	if m := t.MethodByName(key); m.IsValid() {
		return m
	}
	if t.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	// Pointer receivers need an addressable value.
	var p reflect.Value
	if t.CanAddr() {
		p = t.Addr()
	} else {
		p = reflect.New(t.Type())
		p.Elem().Set(t)
	}
	return p.MethodByName(key)
}

// members lists the names enumerated in exhaustive mode: own keys of a
// plain data object, exported methods of an instance.
func members(target reflect.Value) []string {
	t := unwrap(target)
	if !t.IsValid() || isNull(t) {
		return nil
	}

	var names []string
	switch {
	case isRecord(t):
		if t.Type().Key().Kind() != reflect.String {
			return nil
		}
		iter := t.MapRange()
		for iter.Next() {
			names = append(names, iter.Key().String())
		}
	case t.Kind() == reflect.Pointer || t.Kind() == reflect.Struct:
		typ := t.Type()
		if typ.Kind() == reflect.Struct {
			typ = reflect.PointerTo(typ)
		}
		for i := 0; i < typ.NumMethod(); i++ {
			if m := typ.Method(i); m.IsExported() {
				names = append(names, m.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// hidden reports whether a member name is left out of coverage: the
// constructor, the stringifier and underscore-prefixed names.
func hidden(name string) bool {
	switch name {
	case "constructor", "toString", "String":
		return true
	}
	return strings.HasPrefix(name, "_")
}

// StrictEqual compares two values without coercion across type tags.
func StrictEqual(a, b any) bool {
	return strictEqual(valueOf(a), valueOf(b))
}

func strictEqual(a, b reflect.Value) (equal bool) {
	a, b = unwrap(a), unwrap(b)
	if !a.IsValid() || !b.IsValid() {
		return !a.IsValid() && !b.IsValid()
	}
	if isNull(a) || isNull(b) {
		return isNull(a) && isNull(b)
	}

	tag := typeTag(a)
	if tag != typeTag(b) {
		return false
	}
	switch tag {
	case TagNumber:
		return numberEqual(a, b)
	case TagString:
		return a.String() == b.String()
	case TagBoolean:
		return a.Bool() == b.Bool()
	case TagFunction:
		return funcEqual(a, b)
	case TagSymbol:
		return a.Pointer() == b.Pointer()
	}

	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len()
	}

	if !a.Type().Comparable() || !a.CanInterface() || !b.CanInterface() {
		return false
	}
	// Comparable structs may still hold uncomparable interface values.
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a.Interface() == b.Interface()
}

type boundMethod struct{}

func (boundMethod) Call() {}

// methodValueCode is the code pointer shared by every method value that
// reflect binds, whatever its receiver or method.
var methodValueCode = reflect.ValueOf(boundMethod{}).Method(0).Pointer()

// funcEqual compares functions by code pointer. Reflect-bound method values
// all report methodValueCode, so they never compare equal.
func funcEqual(a, b reflect.Value) bool {
	pa, pb := a.Pointer(), b.Pointer()
	if pa == methodValueCode || pb == methodValueCode {
		return false
	}
	return pa == pb
}

func numberEqual(a, b reflect.Value) bool {
	switch {
	case a.CanInt() && b.CanInt():
		return a.Int() == b.Int()
	case a.CanUint() && b.CanUint():
		return a.Uint() == b.Uint()
	case a.CanInt() && b.CanUint():
		return a.Int() >= 0 && uint64(a.Int()) == b.Uint()
	case a.CanUint() && b.CanInt():
		return b.Int() >= 0 && a.Uint() == uint64(b.Int())
	}
	af, bf := toFloat(a), toFloat(b)
	if math.IsNaN(af) || math.IsNaN(bf) {
		return false
	}
	return af == bf
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	case v.CanFloat():
		return v.Float()
	}
	return math.NaN()
}

// display returns v in a form suitable for Result.Actual.
func display(v reflect.Value) any {
	v = unwrap(v)
	if !v.IsValid() {
		return Undefined
	}
	if isNull(v) {
		return nil
	}
	if v.CanInterface() {
		return v.Interface()
	}
	return v.String()
}
