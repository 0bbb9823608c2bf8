// Command shadergraphc is the shader-graph toolchain CLI: it validates
// an IR document, runs it through the reference interpreter, compiles
// one of its cpu functions to host-language Go, or compiles one of its
// shader-stage functions to WGSL-flavored shader text.
//
// Usage:
//
//	shadergraphc [options] <command> <input.json>
//
// Examples:
//
//	shadergraphc validate graph.json            # Parse and validate
//	shadergraphc -inputs in.json interpret graph.json
//	shadergraphc -func main compile-host graph.json
//	shadergraphc -func fragmentMain compile-shaders graph.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/shadergraph/core/hostgen"
	"github.com/shadergraph/core/interp"
	"github.com/shadergraph/core/ir"
	"github.com/shadergraph/core/shadergen"
)

var (
	output      = flag.String("o", "", "output file (default: stdout)")
	inputsPath  = flag.String("inputs", "", "JSON file of document input values (interpret only)")
	funcID      = flag.String("func", "", "function id to compile (compile-host/compile-shaders)")
	oobZero     = flag.Bool("oob-read-zero", false, "use the read-zero/skip-write OOB policy instead of hard errors")
	maxLoop     = flag.Int("max-loop-iterations", 0, "cap flow_loop iterations (0 = unbounded)")
	versionFlag = flag.Bool("version", false, "print version")
)

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("shadergraphc version %s\n", version())
		return
	}

	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Error: expected a command and an input file")
		usage()
		os.Exit(1)
	}

	command, inputPath := args[0], args[1]
	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "validate":
		runValidate(source)
	case "interpret":
		runInterpret(source)
	case "compile-host":
		runCompileHost(source)
	case "compile-shaders":
		runCompileShaders(source)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", command)
		usage()
		os.Exit(1)
	}
}

func runValidate(source []byte) {
	doc, err := ir.Parse(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		os.Exit(1)
	}
	result := ir.Validate(doc)
	for _, e := range result.Errors {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	if !result.OK {
		os.Exit(1)
	}
	fmt.Println("OK")
}

func runInterpret(source []byte) {
	doc, err := ir.Parse(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		os.Exit(1)
	}
	result := ir.Validate(doc)
	if !result.OK {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(1)
	}

	inputs, err := loadInputs(*inputsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading inputs: %v\n", err)
		os.Exit(1)
	}

	opts := interp.DefaultOptions()
	if *oobZero {
		opts.OOBPolicy = interp.OOBReadZeroSkipWrite
	}
	opts.MaxLoopIterations = *maxLoop

	ctx, err := interp.Interpret(result.Document, inputs, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Interpreter error: %v\n", err)
		os.Exit(1)
	}
	writeOutput(ctx.EntryResult.String() + "\n")
}

func runCompileHost(source []byte) {
	if *funcID == "" {
		fmt.Fprintln(os.Stderr, "Error: -func is required for compile-host")
		os.Exit(1)
	}
	doc, err := ir.Parse(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		os.Exit(1)
	}
	result := ir.Validate(doc)
	if !result.OK {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(1)
	}
	fn, ok := result.Document.FunctionByID(*funcID)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown function %q\n", *funcID)
		os.Exit(1)
	}
	src, err := hostgen.CompileHost(result.Document, fn, hostgen.DefaultOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Codegen error: %v\n", err)
		os.Exit(1)
	}
	writeOutput(src)
}

func runCompileShaders(source []byte) {
	if *funcID == "" {
		fmt.Fprintln(os.Stderr, "Error: -func is required for compile-shaders")
		os.Exit(1)
	}
	doc, err := ir.Parse(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		os.Exit(1)
	}
	result := ir.Validate(doc)
	if !result.OK {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(1)
	}

	opts := shadergen.DefaultOptions()
	opts.ResourceDefs = result.Document.Resources
	for i, res := range result.Document.Resources {
		opts.ResourceBindings[res.ID] = i
	}
	if len(result.Document.Globals) > 0 {
		binding := len(result.Document.Resources)
		opts.GlobalBufferBinding = &binding
		for i, g := range result.Document.Globals {
			opts.VarMap[g.ID] = i
		}
	}

	src, err := shadergen.Compile(result.Document, *funcID, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Codegen error: %v\n", err)
		os.Exit(1)
	}
	writeOutput(src)
}

// loadInputs decodes a JSON object of document input values into the
// map Interpret expects. An empty path yields no inputs, letting each
// input fall back to its own zero value.
func loadInputs(path string) (map[string]interp.Value, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]interp.Value, len(raw))
	for k, v := range raw {
		out[k] = interp.LiteralValue(v)
	}
	return out, nil
}

func writeOutput(text string) {
	if *output == "" {
		fmt.Print(text)
		return
	}
	if err := os.WriteFile(*output, []byte(text), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: shadergraphc [options] <command> <input.json>\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  validate       Parse and validate the document\n")
	fmt.Fprintf(os.Stderr, "  interpret      Run the document's entry point through the reference interpreter\n")
	fmt.Fprintf(os.Stderr, "  compile-host   Compile a cpu function to Go source (-func required)\n")
	fmt.Fprintf(os.Stderr, "  compile-shaders Compile a shader-stage function to WGSL-flavored text (-func required)\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  shadergraphc validate graph.json\n")
	fmt.Fprintf(os.Stderr, "  shadergraphc -inputs in.json interpret graph.json\n")
	fmt.Fprintf(os.Stderr, "  shadergraphc -func main -o main_gen.go compile-host graph.json\n")
	fmt.Fprintf(os.Stderr, "  shadergraphc -func fragmentMain -o frag.wgsl compile-shaders graph.json\n")
}
