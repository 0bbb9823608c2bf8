package interp

import "github.com/shadergraph/core/ir"

// runDraw implements cmd_draw: it runs the vertex stage once per index,
// assembles triangles (triangle-list topology only — the other listed
// topologies are rejected per SPEC_FULL.md §14.3), and rasterizes each
// one with a scanline fill using barycentric-interpolated varyings fed
// to the fragment stage.
func runDraw(ctx *Context, callerFn *ir.FunctionDef, node *ir.Node, args map[string]Value) error {
	if topo, ok := args["topology"]; ok && topo.Kind == KindString && topo.Str != "triangle-list" {
		return pipelineErr("cmd_draw: unsupported topology %q (only triangle-list is implemented)", topo.Str)
	}

	vertexFn, ok := ctx.Doc.FunctionByID(args["vertex"].Str)
	if !ok {
		return referentialErr(callerFn.ID, node.ID, "cmd_draw: unknown vertex function %q", args["vertex"].Str)
	}
	fragFn, ok := ctx.Doc.FunctionByID(args["fragment"].Str)
	if !ok {
		return referentialErr(callerFn.ID, node.ID, "cmd_draw: unknown fragment function %q", args["fragment"].Str)
	}
	targetName := args["target"].Str
	target, ok := ctx.Textures[targetName]
	if !ok {
		return referentialErr(callerFn.ID, node.ID, "cmd_draw: unknown render target %q", targetName)
	}
	count := args["count"].AsInt()

	outStruct, positionField, err := outputStructInfo(ctx.Doc, vertexFn)
	if err != nil {
		return err
	}

	verts := make([]map[string]Value, count)
	for i := 0; i < count; i++ {
		v, err := runVertex(ctx, vertexFn, i, args)
		if err != nil {
			return err
		}
		verts[i] = v.Struct
		_ = outStruct
	}

	for t := 0; t+2 < count; t += 3 {
		if err := rasterizeTriangle(ctx, fragFn, target, verts[t], verts[t+1], verts[t+2], positionField, args); err != nil {
			return err
		}
	}
	return nil
}

// outputStructInfo resolves the vertex function's single struct output
// and which of its members carries @builtin(position).
func outputStructInfo(doc *ir.IRDocument, vertexFn *ir.FunctionDef) (*ir.StructDef, string, error) {
	if len(vertexFn.Outputs) == 0 {
		return nil, "", pipelineErr("cmd_draw: vertex function %q has no output", vertexFn.ID)
	}
	sd, ok := doc.StructByID(vertexFn.Outputs[0].Type)
	if !ok {
		return nil, "", pipelineErr("cmd_draw: vertex function %q output is not a struct", vertexFn.ID)
	}
	for _, m := range sd.Members {
		if m.Builtin == "position" {
			return sd, m.Name, nil
		}
	}
	return nil, "", pipelineErr("cmd_draw: vertex output struct %q has no @builtin(position) member", sd.ID)
}

func runVertex(ctx *Context, vertexFn *ir.FunctionDef, index int, drawArgs map[string]Value) (Value, error) {
	newFrame, err := ctx.Push(vertexFn.ID)
	if err != nil {
		return None, err
	}
	defer ctx.Pop()
	initLocals(ctx, vertexFn, newFrame)
	bindShaderUniforms(ctx, vertexFn, newFrame, drawArgs)
	ctx.SetBuiltins(map[string]Value{"vertex_index": Int(index)})
	if err := runExecutableGraph(ctx, vertexFn); err != nil {
		return None, err
	}
	return newFrame.returnValue, nil
}

func bindShaderUniforms(ctx *Context, fn *ir.FunctionDef, frame *Frame, drawArgs map[string]Value) {
	for _, p := range fn.Inputs {
		if v, ok := drawArgs[p.ID]; ok {
			frame.Variables[p.ID] = v
		} else {
			frame.Variables[p.ID] = zeroValueForType(ctx.Doc, p.Type)
		}
	}
}

type screenVertex struct {
	x, y  float64 // pixel space
	w     float64 // clip-space w; varyings are interpolated linearly in screen space and do not use it
	extra map[string]Value
}

func toScreen(v map[string]Value, posField string, target *TextureInstance) screenVertex {
	pos := v[posField].Vector
	w := pos[3]
	if w == 0 {
		w = 1
	}
	ndcX, ndcY := pos[0]/w, pos[1]/w
	sx := (ndcX + 1) * 0.5 * float64(target.Width)
	sy := (1 - (ndcY+1)*0.5) * float64(target.Height)
	extra := make(map[string]Value, len(v))
	for k, fv := range v {
		if k == posField {
			continue
		}
		extra[k] = fv
	}
	return screenVertex{x: sx, y: sy, w: w, extra: extra}
}

func rasterizeTriangle(ctx *Context, fragFn *ir.FunctionDef, target *TextureInstance, a, b, c map[string]Value, posField string, drawArgs map[string]Value) error {
	va := toScreen(a, posField, target)
	vb := toScreen(b, posField, target)
	vc := toScreen(c, posField, target)

	minX := clampInt(int(minOf3(va.x, vb.x, vc.x)), 0, target.Width-1)
	maxX := clampInt(int(maxOf3(va.x, vb.x, vc.x))+1, 0, target.Width-1)
	minY := clampInt(int(minOf3(va.y, vb.y, vc.y)), 0, target.Height-1)
	maxY := clampInt(int(maxOf3(va.y, vb.y, vc.y))+1, 0, target.Height-1)

	area := edgeFn(va.x, va.y, vb.x, vb.y, vc.x, vc.y)
	if area == 0 {
		return nil
	}

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			fx, fy := float64(px)+0.5, float64(py)+0.5
			w0 := edgeFn(vb.x, vb.y, vc.x, vc.y, fx, fy) / area
			w1 := edgeFn(vc.x, vc.y, va.x, va.y, fx, fy) / area
			w2 := edgeFn(va.x, va.y, vb.x, vb.y, fx, fy) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			varyings := interpolateVaryings(va, vb, vc, w0, w1, w2)
			color, err := runFragment(ctx, fragFn, varyings, drawArgs)
			if err != nil {
				return err
			}
			target.Pixels[py*target.Width+px] = [4]float64{
				color.Vector[0], color.Vector[1], color.Vector[2], color.Vector[3],
			}
		}
	}
	return nil
}

func edgeFn(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func minOf3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxOf3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// interpolateVaryings blends each vertex's carried (non-position)
// output fields by barycentric weight, vector/scalar alike.
func interpolateVaryings(a, b, c screenVertex, w0, w1, w2 float64) map[string]Value {
	out := make(map[string]Value, len(a.extra))
	for k, av := range a.extra {
		bv, bok := b.extra[k]
		cv, cok := c.extra[k]
		if !bok || !cok {
			out[k] = av
			continue
		}
		out[k] = blendValue(av, bv, cv, w0, w1, w2)
	}
	return out
}

func blendValue(a, b, c Value, w0, w1, w2 float64) Value {
	if a.Kind == KindVector {
		n := len(a.Vector)
		v := make([]float64, n)
		for i := 0; i < n; i++ {
			v[i] = a.Vector[i]*w0 + b.Vector[i]*w1 + c.Vector[i]*w2
		}
		return Value{Kind: KindVector, Vector: v}
	}
	return Float(a.Scalar*w0 + b.Scalar*w1 + c.Scalar*w2)
}

func runFragment(ctx *Context, fragFn *ir.FunctionDef, varyings map[string]Value, drawArgs map[string]Value) (Value, error) {
	newFrame, err := ctx.Push(fragFn.ID)
	if err != nil {
		return None, err
	}
	defer ctx.Pop()
	initLocals(ctx, fragFn, newFrame)
	for _, p := range fragFn.Inputs {
		if v, ok := varyings[p.ID]; ok {
			newFrame.Variables[p.ID] = v
		} else if v, ok := drawArgs[p.ID]; ok {
			newFrame.Variables[p.ID] = v
		} else {
			newFrame.Variables[p.ID] = zeroValueForType(ctx.Doc, p.Type)
		}
	}
	ctx.SetBuiltins(map[string]Value{"front_facing": Bool(true)})
	if err := runExecutableGraph(ctx, fragFn); err != nil {
		return None, err
	}
	return newFrame.returnValue, nil
}
