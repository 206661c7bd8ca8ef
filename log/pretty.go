package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of a pretty handler. Styles come from a renderer
// bound to the output, so color is dropped when the output is not a terminal.
type palette struct {
	key, str, num, yes, no, dur, when, null lipgloss.Style
	levels                                   map[Level]lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return &palette{
		key:  fg("8"),
		str:  fg("6"),
		num:  fg("3"),
		yes:  fg("2"),
		no:   fg("1"),
		dur:  fg("5"),
		when: fg("4"),
		null: fg("8"),
		levels: map[Level]lipgloss.Style{
			LevelTrace: fg("8"),
			LevelDebug: fg("4"),
			LevelInfo:  fg("2"),
			LevelWarn:  fg("3"),
			LevelError: fg("1").Bold(true),
		},
	}
}

func (p *palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.levels[LevelError]
	case l >= slog.LevelWarn:
		return p.levels[LevelWarn]
	case l >= slog.LevelInfo:
		return p.levels[LevelInfo]
	case l >= slog.LevelDebug:
		return p.levels[LevelDebug]
	}

	return p.levels[LevelTrace]
}

// prettyHandler writes records as colored key=value lines, or as indented
// JSON-like objects with unquoted strings.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	colors *palette
	attrs  []slog.Attr
	group  string
	object bool
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, object bool) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		mu:     &sync.Mutex{},
		w:      w,
		colors: newPalette(w),
		object: object,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], h.qualify(attrs)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.group = h.group + name + "."

	return &c
}

func (h *prettyHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}

	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + a.Key, Value: a.Value}
	}

	return out
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	builtin := func(a slog.Attr) {
		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Key != "" {
			fields = append(fields, a)
		}
	}

	if !r.Time.IsZero() {
		builtin(slog.Time(slog.TimeKey, r.Time))
	}

	builtin(slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			builtin(slog.String(slog.SourceKey, src.File+":"+strconv.Itoa(src.Line)))
		}
	}

	builtin(slog.String(slog.MessageKey, r.Message))

	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, h.qualify([]slog.Attr{a})...)

		return true
	})

	var buf bytes.Buffer

	if h.object {
		h.writeObject(&buf, fields, r.Level)
	} else {
		h.writeLine(&buf, fields, r.Level)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) writeLine(buf *bytes.Buffer, fields []slog.Attr, level slog.Level) {
	for i, a := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.colors.key.Render(a.Key))
		buf.WriteByte('=')
		buf.WriteString(h.value(a, level))
	}
}

func (h *prettyHandler) writeObject(buf *bytes.Buffer, fields []slog.Attr, level slog.Level) {
	buf.WriteString("{\n")

	for i, a := range fields {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
		buf.WriteString(h.colors.key.Render(a.Key))
		buf.WriteString(": ")
		buf.WriteString(h.value(a, level))
	}

	buf.WriteString("\n}")
}

func (h *prettyHandler) value(a slog.Attr, level slog.Level) string {
	v := a.Value.Resolve()

	if a.Key == slog.LevelKey {
		return h.colors.level(level).Render(v.String())
	}

	switch v.Kind() {
	case slog.KindString:
		return h.colors.str.Render(v.String())
	case slog.KindInt64:
		return h.colors.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return h.colors.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return h.colors.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return h.colors.yes.Render("true")
		}

		return h.colors.no.Render("false")
	case slog.KindDuration:
		return h.colors.dur.Render(v.Duration().String())
	case slog.KindTime:
		return h.colors.when.Render(v.Time().Format(time.RFC3339))
	case slog.KindGroup:
		var buf bytes.Buffer

		buf.WriteByte('{')

		for i, g := range v.Group() {
			if i > 0 {
				buf.WriteByte(' ')
			}

			buf.WriteString(h.colors.key.Render(g.Key))
			buf.WriteByte('=')
			buf.WriteString(h.value(g, level))
		}

		buf.WriteByte('}')

		return buf.String()
	}

	if v.Any() == nil {
		return h.colors.null.Render("null")
	}

	return h.colors.str.Render(fmt.Sprint(v.Any()))
}
