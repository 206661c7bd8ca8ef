//go:build !pprof

package profile

// Modes returns nothing without the pprof build tag.
func Modes() []string { return nil }

func start(Profiler) Stopper { return ignore{} }
