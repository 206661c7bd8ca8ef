package log

import "io"

// Option adjusts the configuration of a [Logger] being made or wrapped.
type Option func(*config)

// WithDefaults resets every setting to its default and directs output to w.
func WithDefaults(w io.Writer) Option {
	return func(c *config) { *c = defaultConfig(w) }
}

// WithOutput directs output to w, or discards it if w is nil.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w == nil {
			w = io.Discard
		}

		c.output = w
	}
}

// WithLevel discards records below level.
func WithLevel(level Level) Option {
	return func(c *config) { c.level = level }
}

// WithFormat sets the record encoding.
func WithFormat(format Format) Option {
	return func(c *config) { c.format = format }
}

// WithTimeLayout sets the timestamp layout. Named layouts from package time
// are matched ignoring case and punctuation ("RFC3339Nano", "kitchen"); any
// other string is used verbatim. A blank layout, or "none", omits timestamps.
func WithTimeLayout(layout string) Option {
	stamp := layoutFunc(layout)

	return func(c *config) { c.stamp = stamp }
}

// WithCallsite adds the source file and line of the logging call.
func WithCallsite(enable bool) Option {
	return func(c *config) { c.callsite = enable }
}

// WithCaller is an alias of [WithCallsite].
func WithCaller(enable bool) Option { return WithCallsite(enable) }

// WithPretty enables human-oriented output: unquoted, multi-line JSON and
// colors when the output is a terminal.
func WithPretty(enable bool) Option {
	return func(c *config) { c.pretty = enable }
}
