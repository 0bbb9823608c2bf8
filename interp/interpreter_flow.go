package interp

import "github.com/shadergraph/core/ir"

func execBranch(ctx *Context, fn *ir.FunctionDef, node *ir.Node) error {
	args, err := resolveArguments(ctx, fn, node)
	if err != nil {
		return err
	}
	port := ir.PortExecFalse
	if args["cond"].Bool {
		port = ir.PortExecTrue
	}
	var targets []string
	for _, e := range fn.ExecEdgesFrom(node.ID, port) {
		targets = append(targets, e.To)
	}
	return runFrom(ctx, fn, targets)
}

func execLoop(ctx *Context, fn *ir.FunctionDef, node *ir.Node) error {
	args, err := resolveArguments(ctx, fn, node)
	if err != nil {
		return err
	}
	start, end := args["start"].AsInt(), args["end"].AsInt()
	frame := ctx.Current()

	var bodyTargets []string
	for _, e := range fn.ExecEdgesFrom(node.ID, ir.PortExecBody) {
		bodyTargets = append(bodyTargets, e.To)
	}

	iterations := 0
	for i := start; i < end; i++ {
		if ctx.Options.MaxLoopIterations > 0 && iterations >= ctx.Options.MaxLoopIterations {
			return runtimeErr(fn.ID, node.ID, "flow_loop exceeded MaxLoopIterations (%d)", ctx.Options.MaxLoopIterations)
		}
		iterations++
		frame.LoopIndices[node.ID] = i
		for k := range frame.NodeResults {
			delete(frame.NodeResults, k)
		}
		if err := runFrom(ctx, fn, bodyTargets); err != nil {
			return err
		}
		if frame.returning {
			return nil
		}
	}
	delete(frame.LoopIndices, node.ID)

	var doneTargets []string
	for _, e := range fn.ExecEdgesFrom(node.ID, ir.PortExecCompleted) {
		doneTargets = append(doneTargets, e.To)
	}
	return runFrom(ctx, fn, doneTargets)
}

func execReturn(ctx *Context, fn *ir.FunctionDef, node *ir.Node) error {
	args, err := resolveArguments(ctx, fn, node)
	if err != nil {
		return err
	}
	frame := ctx.Current()
	if len(fn.Outputs) > 0 {
		if v, ok := args[fn.Outputs[0].ID]; ok {
			frame.returnValue = v
		}
	}
	frame.returning = true
	return nil
}

// execDispatch runs a compute shader function once per invocation in a
// gx*gy*gz grid, binding global_invocation_id (and the related builtin
// slots) fresh for each invocation.
func execDispatch(ctx *Context, fn *ir.FunctionDef, node *ir.Node) error {
	args, err := resolveArguments(ctx, fn, node)
	if err != nil {
		return err
	}
	target := args["func"].Str
	callee, ok := ctx.Doc.FunctionByID(target)
	if !ok {
		return referentialErr(fn.ID, node.ID, "cmd_dispatch: unknown function %q", target)
	}
	grid := args["dispatch"].Vector
	gx, gy, gz := int(grid[0]), int(grid[1]), int(grid[2])

	for z := 0; z < gz; z++ {
		for y := 0; y < gy; y++ {
			for x := 0; x < gx; x++ {
				newFrame, err := ctx.Push(target)
				if err != nil {
					return err
				}
				initLocals(ctx, callee, newFrame)
				for _, p := range callee.Inputs {
					if v, ok := args[p.ID]; ok {
						newFrame.Variables[p.ID] = v
					} else {
						newFrame.Variables[p.ID] = zeroValueForType(ctx.Doc, p.Type)
					}
				}
				ctx.SetBuiltins(map[string]Value{
					"global_invocation_id":  Vec(float64(x), float64(y), float64(z)),
					"local_invocation_id":   Vec(float64(x), float64(y), float64(z)),
					"workgroup_id":          Vec(float64(x), float64(y), float64(z)),
					"num_workgroups":        Vec(grid[0], grid[1], grid[2]),
					"local_invocation_index": Int(0),
				})
				err = runExecutableGraph(ctx, callee)
				ctx.Pop()
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func execDraw(ctx *Context, fn *ir.FunctionDef, node *ir.Node) error {
	args, err := resolveArguments(ctx, fn, node)
	if err != nil {
		return err
	}
	return runDraw(ctx, fn, node, args)
}

// execResize updates a buffer or texture's backing storage size,
// honoring the resource's PersistenceSpec clear policy.
func execResize(ctx *Context, fn *ir.FunctionDef, node *ir.Node) error {
	args, err := resolveArguments(ctx, fn, node)
	if err != nil {
		return err
	}
	name := args["resource"].Str
	res, ok := ctx.Doc.ResourceByID(name)
	if !ok {
		return referentialErr(fn.ID, node.ID, "cmd_resize_resource: unknown resource %q", name)
	}
	width, hasWidth := args["width"]
	height, hasHeight := args["height"]

	switch res.Kind {
	case "texture":
		tex := ctx.Textures[name]
		if hasWidth {
			tex.Width = width.AsInt()
		}
		if hasHeight {
			tex.Height = height.AsInt()
		}
		clear := res.Persistence == nil || res.Persistence.ClearOnResize
		pixels := make([][4]float64, tex.Width*tex.Height)
		if !clear {
			copy(pixels, tex.Pixels)
		}
		tex.Pixels = pixels
	case "buffer":
		buf := ctx.Buffers[name]
		count, hasCount := args["count"]
		if !hasCount {
			return nil
		}
		n := count.AsInt()
		data := make([]Value, n)
		for i := range data {
			data[i] = zeroValueForType(ctx.Doc, buf.ElemType)
		}
		clear := res.Persistence == nil || res.Persistence.ClearOnResize
		if !clear {
			copy(data, buf.Data)
		}
		buf.Data = data
	}
	return nil
}
