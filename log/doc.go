// Package log is a small leveled logger over [log/slog].
//
// A [Logger] is configured once, when made, by functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
// Loggers are immutable values. [Logger.Wrap] and [Logger.With] return
// reconfigured copies. The zero Logger discards everything.
//
// Attributes are always typed ([slog.Attr]). Each level has a variant taking
// a [context.Context]; the others use [DefaultContextProvider].
//
// Pretty output, the default, prints strings unquoted and JSON records one
// field per line, with color when the output is a terminal.
package log
