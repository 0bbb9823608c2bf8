package interp

// OOBPolicy selects how out-of-bounds buffer accesses behave at runtime.
type OOBPolicy uint8

const (
	// OOBHardError raises BoundsError on any out-of-bounds buffer_load
	// or buffer_store. This is the default used by Interpret.
	OOBHardError OOBPolicy = iota
	// OOBReadZeroSkipWrite returns 0 for out-of-bounds reads and
	// silently ignores out-of-bounds writes.
	OOBReadZeroSkipWrite
)

// Options configures a reference interpreter run.
type Options struct {
	OOBPolicy OOBPolicy
	// MaxLoopIterations bounds flow_loop's total iteration count as a
	// cooperative cancellation backstop; 0 means unbounded.
	MaxLoopIterations int
}

// DefaultOptions returns the interpreter's default options: hard-error
// OOB, no iteration cap.
func DefaultOptions() Options {
	return Options{OOBPolicy: OOBHardError, MaxLoopIterations: 0}
}
