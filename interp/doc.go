// Package interp implements the reference interpreter, the
// op evaluator, and the software rasterizer.
//
// The interpreter is a push/pull graph evaluator: executable nodes are
// scheduled breadth-first on a per-frame queue (the "push" side);
// pure nodes are pulled lazily as executable nodes resolve their
// arguments and cached for the lifetime of the current frame (the
// "pull" side). It is single-threaded and synchronous throughout:
// every frame push has a matching pop on every exit path, including
// error unwinds.
package interp
