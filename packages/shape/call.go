package shape

import (
	"fmt"
	"math"
	"reflect"
)

// invoke calls fn with args and returns its result: undefined for no
// results, the value for one, and an array of all values for more.
func invoke(r Reporter, label string, fn reflect.Value, args []any) (result reflect.Value, ok bool) {
	fn = unwrap(fn)
	in, err := callArgs(fn.Type(), args)
	if err != nil {
		report(r, false, label, CheckCall, fn.Type().String(), args,
			fmt.Sprintf("[%s] cannot be called: %v", label, err))
		return reflect.Value{}, false
	}

	defer func() {
		if p := recover(); p != nil {
			report(r, false, label, CheckCall, "no panic", p,
				fmt.Sprintf("[%s] panicked: %v", label, p))
			result, ok = reflect.Value{}, false
		}
	}()

	out := fn.Call(in)
	switch len(out) {
	case 0:
		return reflect.Value{}, true
	case 1:
		return out[0], true
	}
	values := make([]any, len(out))
	for i, o := range out {
		values[i] = display(o)
	}
	return reflect.ValueOf(values), true
}

func callArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("expects at least %d arguments, got %d", n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("expects %d arguments, got %d", n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= n-1 {
			pt = ft.In(n - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		v, err := convertArg(a, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

func convertArg(a any, pt reflect.Type) (reflect.Value, error) {
	if a == nil {
		switch pt.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use nil as %s", pt)
	}

	av := reflect.ValueOf(a)
	at := av.Type()
	if at.AssignableTo(pt) {
		return av, nil
	}

	if typeTag(av) == TagNumber && isNumericKind(pt.Kind()) {
		return convertNumber(av, pt)
	}
	if at.Kind() == pt.Kind() && at.ConvertibleTo(pt) {
		return av.Convert(pt), nil
	}

	if (at.Kind() == reflect.Slice || at.Kind() == reflect.Array) && pt.Kind() == reflect.Slice {
		out := reflect.MakeSlice(pt, av.Len(), av.Len())
		for i := 0; i < av.Len(); i++ {
			ev, err := convertArg(display(av.Index(i)), pt.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	}

	if at.Kind() == reflect.Map && pt.Kind() == reflect.Map && at.Key().Kind() == reflect.String && pt.Key().Kind() == reflect.String {
		out := reflect.MakeMapWithSize(pt, av.Len())
		iter := av.MapRange()
		for iter.Next() {
			ev, err := convertArg(display(iter.Value()), pt.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %s: %w", iter.Key().String(), err)
			}
			out.SetMapIndex(iter.Key().Convert(pt.Key()), ev)
		}
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", a, pt)
}

// convertNumber converts a numeric argument to the parameter type only
// when the value survives unchanged: no dropped fraction, no overflow.
func convertNumber(av reflect.Value, pt reflect.Type) (reflect.Value, error) {
	target := reflect.New(pt).Elem()
	lossy := fmt.Errorf("cannot use %v as %s without changing its value", av.Interface(), pt)

	switch {
	case isFloatKind(av.Kind()):
		f := av.Float()
		switch {
		case isFloatKind(pt.Kind()):
			if target.OverflowFloat(f) {
				return reflect.Value{}, lossy
			}
		case isUintKind(pt.Kind()):
			if f != math.Trunc(f) || f < 0 || f >= math.Exp2(64) || target.OverflowUint(uint64(f)) {
				return reflect.Value{}, lossy
			}
		default:
			if f != math.Trunc(f) || f < -math.Exp2(63) || f >= math.Exp2(63) || target.OverflowInt(int64(f)) {
				return reflect.Value{}, lossy
			}
		}

	case isUintKind(av.Kind()):
		u := av.Uint()
		switch {
		case isUintKind(pt.Kind()):
			if target.OverflowUint(u) {
				return reflect.Value{}, lossy
			}
		case !isFloatKind(pt.Kind()):
			if u > math.MaxInt64 || target.OverflowInt(int64(u)) {
				return reflect.Value{}, lossy
			}
		}

	default:
		i := av.Int()
		switch {
		case isUintKind(pt.Kind()):
			if i < 0 || target.OverflowUint(uint64(i)) {
				return reflect.Value{}, lossy
			}
		case !isFloatKind(pt.Kind()):
			if target.OverflowInt(i) {
				return reflect.Value{}, lossy
			}
		}
	}

	return av.Convert(pt), nil
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isUintKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
