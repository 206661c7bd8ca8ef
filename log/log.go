package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Logger is a leveled structured logger over [slog]. A Logger is immutable
// and safe for concurrent use. The zero Logger discards everything.
type Logger struct {
	*slog.Logger
	config
}

// Make returns a Logger writing to w, configured by the defaults named in
// this package and then by opts.
func Make(w io.Writer, opts ...Option) Logger {
	return build(defaultConfig(w).with(opts...), nil)
}

// Wrap returns a copy of l reconfigured by opts. Attributes added with
// [Logger.With] are kept.
func (l Logger) Wrap(opts ...Option) Logger {
	if l.Logger == nil {
		return Make(nil, opts...)
	}

	return build(l.config.with(opts...), l.attrs())
}

// With returns a copy of l that adds attrs to every record.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil || len(attrs) == 0 {
		return l
	}

	return Logger{
		Logger: slog.New(l.Handler().WithAttrs(attrs)),
		config: l.config,
	}
}

// Level returns the minimum level l emits.
func (l Logger) Level() Level {
	if l.Logger == nil {
		return DefaultLevel
	}

	return l.level
}

// Format returns the encoding of l's records.
func (l Logger) Format() Format {
	if l.Logger == nil {
		return DefaultFormat
	}

	return l.format
}

// attrs recovers the attributes bound by With so Wrap can rebind them.
func (l Logger) attrs() []slog.Attr {
	if h, ok := l.Handler().(interface{ boundAttrs() []slog.Attr }); ok {
		return h.boundAttrs()
	}

	return nil
}

func build(c config, attrs []slog.Attr) Logger {
	h := c.handler()
	if len(attrs) > 0 {
		h = h.WithAttrs(attrs)
	}

	return Logger{Logger: slog.New(bound{Handler: h, attrs: attrs}), config: c}
}

// bound remembers the attributes a handler was created with.
type bound struct {
	slog.Handler
	attrs []slog.Attr
}

func (b bound) boundAttrs() []slog.Attr { return b.attrs }

func (b bound) WithAttrs(attrs []slog.Attr) slog.Handler {
	return bound{
		Handler: b.Handler.WithAttrs(attrs),
		attrs:   append(b.attrs[:len(b.attrs):len(b.attrs)], attrs...),
	}
}

func (b bound) WithGroup(name string) slog.Handler {
	return b.Handler.WithGroup(name)
}

// TraceContext logs at [LevelTrace].
func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelTrace, msg, attrs)
}

// Trace logs at [LevelTrace].
func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelTrace, msg, attrs)
}

// DebugContext logs at [LevelDebug].
func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelDebug, msg, attrs)
}

// Debug logs at [LevelDebug].
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelDebug, msg, attrs)
}

// InfoContext logs at [LevelInfo].
func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelInfo, msg, attrs)
}

// Info logs at [LevelInfo].
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelInfo, msg, attrs)
}

// WarnContext logs at [LevelWarn].
func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelWarn, msg, attrs)
}

// Warn logs at [LevelWarn].
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelWarn, msg, attrs)
}

// ErrorContext logs at [LevelError].
func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelError, msg, attrs)
}

// Error logs at [LevelError].
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelError, msg, attrs)
}

// emit must be called directly from an exported logging method so the
// recorded callsite is that method's caller.
func (l Logger) emit(ctx context.Context, level Level, msg string, attrs []slog.Attr) {
	if l.Logger == nil || !l.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pc uintptr

	if l.callsite {
		var pcs [1]uintptr

		// runtime.Callers, emit, the exported method.
		runtime.Callers(3, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pc)
	r.AddAttrs(attrs...)

	_ = l.Handler().Handle(ctx, r)
}
