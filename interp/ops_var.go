package interp

import "math"

func registerVarConstBuiltin() {
	register("var_get", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["var"].Str
		v, ok := ctx.Current().Variables[name]
		if !ok {
			return None, referentialErr(ctx.Current().FuncID, "", "undeclared variable %q", name)
		}
		return v, nil
	})
	register("var_set", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["var"].Str
		v := a["value"]
		ctx.Current().Variables[name] = v
		return v, nil
	})
	register("array_set", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["array"].Str
		idx := a["index"].AsInt()
		cur, ok := ctx.Current().Variables[name]
		if !ok || cur.Kind != KindArray {
			return None, referentialErr(ctx.Current().FuncID, "", "undeclared array variable %q", name)
		}
		if idx < 0 || idx >= len(cur.Array) {
			return None, boundsErr(ctx.Current().FuncID, "", "array index %d out of range [0,%d)", idx, len(cur.Array))
		}
		updated := append([]Value(nil), cur.Array...)
		updated[idx] = a["value"]
		out := Arr(updated...)
		ctx.Current().Variables[name] = out
		return out, nil
	})
	register("literal", func(ctx *Context, a map[string]Value) (Value, error) {
		if v, ok := a["value"]; ok {
			return v, nil
		}
		return None, nil
	})
	register("loop_index", func(ctx *Context, a map[string]Value) (Value, error) {
		loopID := a["loop"].Str
		idx, ok := ctx.Current().LoopIndices[loopID]
		if !ok {
			return None, runtimeErr(ctx.Current().FuncID, loopID, "loop index requested outside of loop %q", loopID)
		}
		return Int(idx), nil
	})
	register("const_get", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["name"].Str
		v, ok := constantValue(name)
		if !ok {
			return None, referentialErr(ctx.Current().FuncID, "", "unknown constant %q", name)
		}
		return v, nil
	})
	register("builtin_get", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["name"].Str
		v, ok := ctx.Builtins[name]
		if !ok {
			return None, runtimeErr(ctx.Current().FuncID, "", "built-in %q not bound in this invocation", name)
		}
		return v, nil
	})
}

func constantValue(name string) (Value, bool) {
	switch name {
	case "pi":
		return Float(3.14159265358979323846), true
	case "tau":
		return Float(6.28318530717958647692), true
	case "e":
		return Float(2.71828182845904523536), true
	case "epsilon":
		return Float(1.1920929e-7), true
	case "max_float":
		return Float(3.4028235e38), true
	case "max_int":
		return Int(1<<31 - 1), true
	default:
		return None, false
	}
}

func registerBufferTextureOps() {
	register("resource_get_size", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["resource"].Str
		res, ok := ctx.Doc.ResourceByID(name)
		if !ok {
			return None, referentialErr(ctx.Current().FuncID, "", "unknown resource %q", name)
		}
		w, h := 0, 0
		if res.Size.Width != nil {
			w = *res.Size.Width
		}
		if res.Size.Height != nil {
			h = *res.Size.Height
		}
		if w == 0 && h == 0 && res.Size.Count != nil {
			w = *res.Size.Count
		}
		return Vec(float64(w), float64(h)), nil
	})
	register("resource_get_format", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["resource"].Str
		res, ok := ctx.Doc.ResourceByID(name)
		if !ok {
			return None, referentialErr(ctx.Current().FuncID, "", "unknown resource %q", name)
		}
		return Str(res.Format), nil
	})
	register("buffer_load", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["buffer"].Str
		idx := a["index"].AsInt()
		buf, ok := ctx.Buffers[name]
		if !ok {
			return None, referentialErr(ctx.Current().FuncID, "", "unknown buffer %q", name)
		}
		if idx < 0 || idx >= len(buf.Data) {
			if ctx.Options.OOBPolicy == OOBReadZeroSkipWrite {
				return Float(0), nil
			}
			return None, boundsErr(ctx.Current().FuncID, "", "buffer_load OOB: buffer %q index %d out of range [0,%d)", name, idx, len(buf.Data))
		}
		return buf.Data[idx], nil
	})
	register("buffer_store", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["buffer"].Str
		idx := a["index"].AsInt()
		v := a["value"]
		buf, ok := ctx.Buffers[name]
		if !ok {
			return None, referentialErr(ctx.Current().FuncID, "", "unknown buffer %q", name)
		}
		if idx < 0 || idx >= len(buf.Data) {
			if ctx.Options.OOBPolicy == OOBReadZeroSkipWrite {
				return v, nil
			}
			return None, boundsErr(ctx.Current().FuncID, "", "buffer_store OOB: buffer %q index %d out of range [0,%d)", name, idx, len(buf.Data))
		}
		buf.Data[idx] = v
		return v, nil
	})
	register("texture_sample", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["tex"].Str
		uv := a["uv"].Vector
		tex, ok := ctx.Textures[name]
		if !ok {
			return None, referentialErr(ctx.Current().FuncID, "", "unknown texture %q", name)
		}
		rgba := sampleTexture(tex, uv[0], uv[1])
		return Vec(rgba[0], rgba[1], rgba[2], rgba[3]), nil
	})
	register("texture_load", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["tex"].Str
		coord := a["coord"].Vector
		tex, ok := ctx.Textures[name]
		if !ok {
			return None, referentialErr(ctx.Current().FuncID, "", "unknown texture %q", name)
		}
		x, y := int(coord[0]), int(coord[1])
		if x < 0 || x >= tex.Width || y < 0 || y >= tex.Height {
			if ctx.Options.OOBPolicy == OOBReadZeroSkipWrite {
				return Vec(0, 0, 0, 0), nil
			}
			return None, boundsErr(ctx.Current().FuncID, "", "texture %q coord (%d,%d) out of range", name, x, y)
		}
		p := tex.Pixels[y*tex.Width+x]
		return Vec(p[0], p[1], p[2], p[3]), nil
	})
	register("texture_store", func(ctx *Context, a map[string]Value) (Value, error) {
		name := a["texture"].Str
		coord := a["coord"].Vector
		v := a["value"].Vector
		tex, ok := ctx.Textures[name]
		if !ok {
			return None, referentialErr(ctx.Current().FuncID, "", "unknown texture %q", name)
		}
		x, y := int(coord[0]), int(coord[1])
		if x < 0 || x >= tex.Width || y < 0 || y >= tex.Height {
			if ctx.Options.OOBPolicy == OOBReadZeroSkipWrite {
				return a["value"], nil
			}
			return None, boundsErr(ctx.Current().FuncID, "", "texture %q coord (%d,%d) out of range", name, x, y)
		}
		tex.Pixels[y*tex.Width+x] = [4]float64{v[0], v[1], v[2], v[3]}
		return a["value"], nil
	})
}

// sampleTexture applies the texture's wrap and filter modes for
// texture_sample. Nearest is exact texel lookup; bilinear interpolates
// across the four neighboring texels.
func sampleTexture(tex *TextureInstance, u, v float64) [4]float64 {
	wrap := func(x float64, size int) float64 {
		switch tex.Wrap {
		case "clamp":
			if x < 0 {
				return 0
			}
			if x > float64(size-1) {
				return float64(size - 1)
			}
			return x
		case "mirror":
			period := float64(2 * size)
			m := x - period*floorDiv(x, period)
			if m < 0 {
				m += period
			}
			if m >= float64(size) {
				m = period - 1 - m
			}
			return m
		default: // repeat
			m := x - float64(size)*floorDiv(x, float64(size))
			if m < 0 {
				m += float64(size)
			}
			return m
		}
	}
	fx := wrap(u*float64(tex.Width)-0.5, tex.Width)
	fy := wrap(v*float64(tex.Height)-0.5, tex.Height)

	if tex.Filter == "nearest" {
		x := clampInt(int(fx+0.5), 0, tex.Width-1)
		y := clampInt(int(fy+0.5), 0, tex.Height-1)
		return tex.Pixels[y*tex.Width+x]
	}

	x0 := clampInt(int(fx), 0, tex.Width-1)
	y0 := clampInt(int(fy), 0, tex.Height-1)
	x1 := clampInt(x0+1, 0, tex.Width-1)
	y1 := clampInt(y0+1, 0, tex.Height-1)
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	p00 := tex.Pixels[y0*tex.Width+x0]
	p10 := tex.Pixels[y0*tex.Width+x1]
	p01 := tex.Pixels[y1*tex.Width+x0]
	p11 := tex.Pixels[y1*tex.Width+x1]

	var out [4]float64
	for i := 0; i < 4; i++ {
		top := lerp(p00[i], p10[i], tx)
		bottom := lerp(p01[i], p11[i], tx)
		out[i] = lerp(top, bottom, ty)
	}
	return out
}

func floorDiv(x, y float64) float64 {
	return math.Floor(x / y)
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
