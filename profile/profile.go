package profile

import "slices"

// Profiler describes one profiling session.
type Profiler struct {
	// Mode is one of [Modes]. Unknown and empty modes disable profiling.
	Mode string
	// Path is the output directory; empty means the current directory.
	Path string
	// Quiet suppresses the profiler's own start and stop messages.
	Quiet bool
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Enabled reports whether Start would begin a session.
func (p Profiler) Enabled() bool {
	return p.Mode != "" && slices.Contains(Modes(), p.Mode)
}

// Start begins profiling. The returned Stopper is never nil, and Stop is
// safe to call when profiling is disabled.
func (p Profiler) Start() Stopper {
	if !p.Enabled() {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
