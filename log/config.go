package log

//go:generate go tool stringer --linecomment --type Level,Format --output config_string.go

import (
	"io"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Level is the severity of a log record. It extends [slog.Level] with
// [LevelTrace], which renders as "trace" rather than "DEBUG-4".
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4) // trace
	LevelDebug Level = Level(slog.LevelDebug)     // debug
	LevelInfo  Level = Level(slog.LevelInfo)      // info
	LevelWarn  Level = Level(slog.LevelWarn)      // warn
	LevelError Level = Level(slog.LevelError)     // error
)

// DefaultLevel is the level of loggers made without [WithLevel].
const DefaultLevel = LevelInfo

var levels = []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError}

// Levels yields the name of each level, most verbose first.
func Levels() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, l := range levels {
			if !yield(l.String()) {
				return
			}
		}
	}
}

// ParseLevel returns the level named by s, case-insensitively. Besides the
// names yielded by [Levels], any form accepted by [slog.Level.UnmarshalText]
// is recognized ("debug+2", "ERROR-1"). Unrecognized input yields
// [DefaultLevel].
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)

	if i := slices.IndexFunc(levels, func(l Level) bool {
		return strings.EqualFold(l.String(), s)
	}); i >= 0 {
		return levels[i]
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(l)
}

// Format selects the record encoding.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// DefaultFormat is the format of loggers made without [WithFormat].
const DefaultFormat = FormatJSON

// Formats yields the name of each format.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, f := range []Format{FormatJSON, FormatText} {
			if !yield(f.String()) {
				return
			}
		}
	}
}

// ParseFormat returns the format named by s, or [DefaultFormat].
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case FormatText.String():
		return FormatText
	case FormatJSON.String():
		return FormatJSON
	}

	return DefaultFormat
}

// FormatTime renders a record timestamp. An empty result omits the time.
type FormatTime func(time.Time) string

// DefaultTimeLayout is the timestamp layout of loggers made without
// [WithTimeLayout].
const DefaultTimeLayout = time.RFC3339

const (
	DefaultCallsite = false
	DefaultPretty   = true
)

// config is the immutable state behind a Logger. Options operate on a copy,
// so a Logger never observes a change after it is made.
type config struct {
	output   io.Writer
	stamp    FormatTime
	level    Level
	format   Format
	callsite bool
	pretty   bool
}

func defaultConfig(w io.Writer) config {
	if w == nil {
		w = io.Discard
	}

	return config{
		output:   w,
		stamp:    layoutFunc(DefaultTimeLayout),
		level:    DefaultLevel,
		format:   DefaultFormat,
		callsite: DefaultCallsite,
		pretty:   DefaultPretty,
	}
}

func (c config) with(opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	return c
}

// replace rewrites the built-in time and level attributes of each record.
func (c config) replace(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		t, ok := a.Value.Any().(time.Time)
		if !ok {
			return a
		}

		s := c.stamp(t)
		if s == "" {
			return slog.Attr{}
		}

		return slog.String(a.Key, s)

	case slog.LevelKey:
		l, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}

		if slices.Contains(levels, Level(l)) {
			return slog.String(a.Key, strings.ToUpper(Level(l).String()))
		}

		return slog.String(a.Key, l.String())
	}

	return a
}

func (c config) handler() slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource:   c.callsite,
		Level:       slog.Level(c.level),
		ReplaceAttr: c.replace,
	}

	switch {
	case c.pretty:
		return newPrettyHandler(c.output, opts, c.format == FormatJSON)
	case c.format == FormatJSON:
		return slog.NewJSONHandler(c.output, opts)
	case c.format == FormatText:
		return slog.NewTextHandler(c.output, opts)
	}

	return slog.DiscardHandler
}

// layouts maps case- and punctuation-insensitive names to time layouts.
var layouts = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"ansic":       time.ANSIC,
	"unixdate":    time.UnixDate,
	"rubydate":    time.RubyDate,
	"rfc822":      time.RFC822,
	"rfc822z":     time.RFC822Z,
	"rfc850":      time.RFC850,
	"kitchen":     time.Kitchen,
	"datetime":    time.DateTime,
	"stamp":       time.Stamp,
	"stampmilli":  time.StampMilli,
	"ms":          time.StampMilli,
	"stampmicro":  time.StampMicro,
	"us":          time.StampMicro,
	"stampnano":   time.StampNano,
	"ns":          time.StampNano,
	"none":        "",
}

func layoutFunc(layout string) FormatTime {
	key := strings.Map(func(r rune) rune {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			return r
		}

		return -1
	}, strings.ToLower(layout))

	if key == "" {
		return func(time.Time) string { return "" }
	}

	if std, ok := layouts[key]; ok {
		layout = std
	}

	if layout == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
