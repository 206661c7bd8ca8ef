// Package cli contains the command line interface for strudel.
//
// # Usage
//
// Render a template file against merged data files:
//
//	strudel -d site.yaml -d page.json page.strudel
//
// Template names that are not files are looked up in the directories given
// with -I, then in the list-separated directories of $STRUDEL_PATH, with the
// .strudel extension appended when missing.
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory (see the init command), then from config.json beside it.
// Keys are flag names with "_" in place of "-":
//
//	log_level: debug
//	path:
//	  - ~/templates
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o strudel .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/strudel/pprof)
package cli
