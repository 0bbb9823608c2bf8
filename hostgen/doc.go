// Package hostgen compiles a cpu-kind function into imperative Go
// source: a small driver that walks the function's execution graph and
// emits statements in order, the same way the reference interpreter
// walks it at runtime but ahead of time.
//
// Local variables are bound to l_<id> Go variables, and call_func/
// array_set results that another node reads are bound to r_<id>; every
// other node's value is compiled as an inline expression, recursively
// expanding the nodes it reads from. Op-level math is never reimplemented in the
// generated code — it is delegated to interp.Runtime.CallOp, the same
// dispatch table the reference interpreter uses, so the two can never
// drift apart on semantics.
package hostgen
