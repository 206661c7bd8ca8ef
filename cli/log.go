package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/strudel/log"
)

// logFormat configures the logger format as a side effect of parsing, so
// that errors reported while parsing use the requested format.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of parsing.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevelDefault}"  enum:"${logLevelEnum}"  help:"Set log level (${enum})."`
	Format     logFormat `default:"${logFormatDefault}" enum:"${logFormatEnum}" help:"Set log format (${enum})."`
	TimeLayout string    `default:"RFC3339"                                      help:"Set timestamp format (Go layout or constant name)."`
	Caller     bool      `default:"false"                                        help:"Include caller information."                      negatable:""`
	Pretty     bool      `default:"true"                                         help:"Enable colorized pretty printing."                negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelEnum":     strings.Join(slices.Collect(log.Levels()), ","),
		"logLevelDefault":  log.DefaultLevel.String(),
		"logFormatEnum":    strings.Join(slices.Collect(log.Formats()), ","),
		"logFormatDefault": log.DefaultFormat.String(),
	}
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// scanFlag applies one logger flag found by scan. Value flags consume the
// following argument when not assigned with "=".
type scanFlag struct {
	value bool
	apply func(f *logConfig, value string, negated bool)
}

var scanFlags = map[string]scanFlag{
	"level": {value: true, apply: func(f *logConfig, v string, _ bool) {
		_ = f.Level.UnmarshalText([]byte(v))
	}},
	"format": {value: true, apply: func(f *logConfig, v string, _ bool) {
		_ = f.Format.UnmarshalText([]byte(v))
	}},
	"pretty": {apply: func(f *logConfig, v string, negated bool) {
		if b, ok := scanBool(v, negated); ok {
			f.Pretty = b
			log.Config(log.WithPretty(b))
		}
	}},
	"caller": {apply: func(f *logConfig, v string, negated bool) {
		if b, ok := scanBool(v, negated); ok {
			f.Caller = b
			log.Config(log.WithCaller(b))
		}
	}},
}

// scanBool interprets a boolean flag value. A bare flag is true, or false
// when negated with the "--no-" prefix.
func scanBool(v string, negated bool) (bool, bool) {
	b := true

	if v != "" {
		var err error
		if b, err = strconv.ParseBool(v); err != nil {
			return false, false
		}
	}

	return b != negated, true
}

// scan applies the logger flags in args before kong parses them, so the
// logger is configured regardless of flag position. Level and format also
// apply while parsing via encoding.TextUnmarshaler, but boolean flags do not.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return
		}

		name, negated := strings.CutPrefix(arg, "--no-log-")
		if !negated {
			var ok bool
			if name, ok = strings.CutPrefix(arg, "--log-"); !ok {
				continue
			}
		}

		name, value, assigned := strings.Cut(name, "=")

		flag, ok := scanFlags[name]
		if !ok || (flag.value && negated) {
			continue
		}

		if flag.value && !assigned && i+1 < len(args) &&
			args[i+1] != "" && args[i+1][0] != '-' {
			value = args[i+1]
			i++
		}

		flag.apply(f, value, negated)
	}
}
