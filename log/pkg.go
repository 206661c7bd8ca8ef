package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// DefaultContextProvider supplies the context of the logging methods that
// take none.
var DefaultContextProvider = context.TODO

var defaultLog atomic.Pointer[Logger]

func init() {
	l := Make(os.Stderr)
	defaultLog.Store(&l)
}

// Default returns the package-level logger.
func Default() Logger { return *defaultLog.Load() }

// SetDefault replaces the package-level logger.
func SetDefault(l Logger) { defaultLog.Store(&l) }

// Config reconfigures the package-level logger.
func Config(opts ...Option) { SetDefault(Default().Wrap(opts...)) }

// With returns the package-level logger with attrs added.
func With(attrs ...slog.Attr) Logger { return Default().With(attrs...) }

func TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelTrace, msg, attrs)
}

func Trace(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), LevelTrace, msg, attrs)
}

func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelDebug, msg, attrs)
}

func Debug(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), LevelDebug, msg, attrs)
}

func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelInfo, msg, attrs)
}

func Info(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), LevelInfo, msg, attrs)
}

func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelWarn, msg, attrs)
}

func Warn(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), LevelWarn, msg, attrs)
}

func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelError, msg, attrs)
}

func Error(msg string, attrs ...slog.Attr) {
	Default().emit(DefaultContextProvider(), LevelError, msg, attrs)
}
