// Package profile starts optional runtime profiling of the strudel command.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	strudel --pprof-mode cpu --pprof-dir ./prof render page.strudel
//	go tool pprof -http=: ./prof/cpu.pprof
//
// Without the tag [Modes] is empty and [Profiler.Start] does nothing. With
// it, the binary also registers the [net/http/pprof] handlers.
package profile

// Tag is the build tag that enables profiling.
const Tag = `pprof`
