package interp

import "strconv"

func registerVectorOps() {
	register("vec_construct", func(ctx *Context, a map[string]Value) (Value, error) {
		out := []float64{}
		for _, c := range "xyzw" {
			k := string(c)
			v, ok := a[k]
			if !ok {
				break
			}
			out = append(out, v.Scalar)
		}
		return Value{Kind: KindVector, Vector: out}, nil
	})
	register("vec_swizzle", func(ctx *Context, a map[string]Value) (Value, error) {
		vec := a["vec"]
		channels := a["channels"].Str
		idx := map[rune]int{'x': 0, 'y': 1, 'z': 2, 'w': 3}
		if len(channels) == 1 {
			return Float(vec.Vector[idx[rune(channels[0])]]), nil
		}
		out := make([]float64, 0, len(channels))
		for _, c := range channels {
			out = append(out, vec.Vector[idx[c]])
		}
		return Value{Kind: KindVector, Vector: out}, nil
	})
	register("vec_splat", func(ctx *Context, a map[string]Value) (Value, error) {
		n := a["size"].AsInt()
		out := make([]float64, n)
		for i := range out {
			out[i] = a["value"].Scalar
		}
		return Value{Kind: KindVector, Vector: out}, nil
	})
	register("color_mix", func(ctx *Context, a map[string]Value) (Value, error) {
		x, y := a["a"].Vector, a["b"].Vector
		coverage := x[3]
		out := make([]float64, 4)
		for i := 0; i < 4; i++ {
			out[i] = x[i] + y[i]*(1-coverage)
		}
		return Value{Kind: KindVector, Vector: out}, nil
	})
}

// orderedElements collects numerically-keyed "0","1",... arguments in
// order, the convention struct_construct/array_construct use for their
// wildcard element list.
func orderedElements(a map[string]Value) []Value {
	var out []Value
	for i := 0; ; i++ {
		v, ok := a[strconv.Itoa(i)]
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

func registerStructArrayOps() {
	register("struct_construct", func(ctx *Context, a map[string]Value) (Value, error) {
		fields := map[string]Value{}
		for k, v := range a {
			if k == "type" {
				continue
			}
			fields[k] = v
		}
		return StructOf(fields), nil
	})
	register("struct_get", func(ctx *Context, a map[string]Value) (Value, error) {
		s := a["struct"]
		field := a["field"].Str
		v, ok := s.Struct[field]
		if !ok {
			return None, runtimeErr("", "", "struct has no field %q", field)
		}
		return v, nil
	})
	register("array_construct", func(ctx *Context, a map[string]Value) (Value, error) {
		return Arr(orderedElements(a)...), nil
	})
	register("array_get", func(ctx *Context, a map[string]Value) (Value, error) {
		arr := a["array"].Array
		idx := a["index"].AsInt()
		if idx < 0 || idx >= len(arr) {
			return None, boundsErr("", "", "array index %d out of range [0,%d)", idx, len(arr))
		}
		return arr[idx], nil
	})
	register("array_length", func(ctx *Context, a map[string]Value) (Value, error) {
		return Int(len(a["array"].Array)), nil
	})
}
