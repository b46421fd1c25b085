package cache

import "reflect"

// maxEstimateDepth stops EstimateSize from walking arbitrarily deep graphs.
const maxEstimateDepth = 32

// EstimateSize returns a rough structural size of v in bytes.
//
// Scalars count their in-memory width, strings and slices their headers plus
// contents, maps their keys and values, structs their fields. Pointers are
// followed once; shared or cyclic references are counted a single time.
// The result is never below 1.
func EstimateSize(v any) int64 {
	if v == nil {
		return 1
	}
	n := estimate(reflect.ValueOf(v), make(map[uintptr]struct{}), 0)
	return max(n, 1)
}

func estimate(v reflect.Value, seen map[uintptr]struct{}, depth int) int64 {
	if !v.IsValid() || depth > maxEstimateDepth {
		return 0
	}

	t := v.Type()
	switch v.Kind() {
	case reflect.String:
		return int64(t.Size()) + int64(v.Len())

	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 {
			return int64(t.Size())
		}
		if visited(v, seen) {
			return int64(t.Size())
		}
		return int64(t.Size()) + elems(v, seen, depth)

	case reflect.Array:
		return elems(v, seen, depth)

	case reflect.Map:
		size := int64(t.Size())
		if v.IsNil() || visited(v, seen) {
			return size
		}
		iter := v.MapRange()
		for iter.Next() {
			size += estimate(iter.Key(), seen, depth+1)
			size += estimate(iter.Value(), seen, depth+1)
		}
		return size

	case reflect.Pointer:
		size := int64(t.Size())
		if v.IsNil() || visited(v, seen) {
			return size
		}
		return size + estimate(v.Elem(), seen, depth+1)

	case reflect.Interface:
		size := int64(t.Size())
		if v.IsNil() {
			return size
		}
		return size + estimate(v.Elem(), seen, depth+1)

	case reflect.Struct:
		var size int64
		for i := range v.NumField() {
			size += estimate(v.Field(i), seen, depth+1)
		}
		return size

	default:
		// numbers, bools, chans, funcs, unsafe pointers
		return int64(t.Size())
	}
}

// visited marks the memory behind v as counted and reports whether it already
// was. v must be a non-nil map, pointer or slice.
func visited(v reflect.Value, seen map[uintptr]struct{}) bool {
	p := v.Pointer()
	if _, ok := seen[p]; ok {
		return true
	}
	seen[p] = struct{}{}
	return false
}

func elems(v reflect.Value, seen map[uintptr]struct{}, depth int) int64 {
	n := v.Len()
	if n == 0 {
		return 0
	}
	et := v.Type().Elem()
	if flat(et) {
		return int64(n) * int64(et.Size())
	}
	var size int64
	for i := range n {
		size += estimate(v.Index(i), seen, depth+1)
	}
	return size
}

// flat reports whether values of t hold no references, so their size is t.Size().
func flat(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return flat(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !flat(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
