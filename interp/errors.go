package interp

import (
	"fmt"

	"github.com/shadergraph/core/ir"
)

// ExecError is thrown immediately by the interpreter on any runtime
// error; it always carries the offending
// node id when one is known.
type ExecError struct {
	Kind    ir.ErrorKind
	Message string
	NodeID  string
	FuncID  string
}

func (e *ExecError) Error() string {
	prefix := e.Kind.String()
	switch {
	case e.FuncID != "" && e.NodeID != "":
		return fmt.Sprintf("%s: %s (function %q, node %q)", prefix, e.Message, e.FuncID, e.NodeID)
	case e.FuncID != "":
		return fmt.Sprintf("%s: %s (function %q)", prefix, e.Message, e.FuncID)
	default:
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
}

func runtimeErr(funcID, nodeID, format string, args ...any) error {
	return &ExecError{Kind: ir.KindRuntime, FuncID: funcID, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

func boundsErr(funcID, nodeID, format string, args ...any) error {
	return &ExecError{Kind: ir.KindBounds, FuncID: funcID, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

func typeErr(funcID, nodeID, format string, args ...any) error {
	return &ExecError{Kind: ir.KindType, FuncID: funcID, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

func pipelineErr(format string, args ...any) error {
	return &ExecError{Kind: ir.KindPipeline, Message: fmt.Sprintf(format, args...)}
}

func referentialErr(funcID, nodeID, format string, args ...any) error {
	return &ExecError{Kind: ir.KindReferential, FuncID: funcID, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}
