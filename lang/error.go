package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// traversalMessage is the exact message of every path traversal failure.
const traversalMessage = "Could not traverse specified path in given context."

// Predefined errors (sentinel values).
var (
	ErrSyntax        = NewError("syntax error")
	ErrTraversal     = NewError(traversalMessage)
	ErrHelperMissing = NewError("helper not found")
	ErrInvalidNode   = NewError("invalid node")
	ErrInvalidTree   = NewError("invalid serialized tree")
	ErrReadInput     = NewError("failed to read input")
	ErrExprCompile   = NewError("expression compilation failed")
	ErrExprEvaluate  = NewError("expression evaluation failed")
	ErrCacheWrite    = NewError("cache write failed")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
//
// Copies made with [Error.Wrap] and [Error.With] still match the sentinel they
// were derived from under [errors.Is].
type Error struct {
	kind  *Error      // originating sentinel
	err   error       // Wrapped error (for errors.Unwrap)
	msg   string
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// "<msg>: <err>", "<msg>", "<err>", or "" depending on which are set.
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && e.kind != nil && t == e.kind
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		kind:  e.kind,
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		kind:  e.kind,
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// reword returns a copy of e with a different message.
func (e *Error) reword(msg string) *Error {
	return &Error{kind: e.kind, msg: msg, err: e.err, attrs: e.attrs}
}

// SyntaxError reports source text the grammar cannot consume.
//
// Offset is the rightmost byte offset any alternative reached before failing.
// Expected holds the sorted, deduplicated descriptions of what would have been
// accepted there.
type SyntaxError struct {
	Source   string
	Found    string
	Expected []string
	Offset   int
	Line     int
	Column   int
	AtEOF    bool
}

// newSyntaxError locates offset within source and captures the character
// found there.
func newSyntaxError(source string, offset int, expected []string) *SyntaxError {
	e := &SyntaxError{
		Source:   source,
		Expected: expected,
		Offset:   offset,
		AtEOF:    offset >= len(source),
	}

	if !e.AtEOF {
		r, _ := utf8.DecodeRuneInString(source[offset:])
		e.Found = string(r)
	}

	e.Line, e.Column = position(source, offset)

	return e
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\u2028", "\n", "\u2029", "\n")

// position returns the 1-based line and column (in runes) of offset.
// "\n", "\r\n", a lone "\r" and the Unicode line and paragraph separators
// each end a line.
func position(source string, offset int) (line, column int) {
	line, column = 1, 1
	sawCR := false

	for _, r := range source[:min(offset, len(source))] {
		switch {
		case r == '\n':
			if !sawCR {
				line++
			}

			column = 1
			sawCR = false

		case r == '\r' || r == '\u2028' || r == '\u2029':
			line++
			column = 1
			sawCR = r == '\r'

		default:
			column++
			sawCR = false
		}
	}

	return line, column
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var b strings.Builder

	b.WriteString("Expected ")

	switch n := len(e.Expected); n {
	case 0:
		b.WriteString("end of input")
	case 1:
		b.WriteString(e.Expected[0])
	default:
		b.WriteString(strings.Join(e.Expected[:n-1], ", "))
		b.WriteString(" or ")
		b.WriteString(e.Expected[n-1])
	}

	b.WriteString(" but ")

	if e.AtEOF {
		b.WriteString("end of input")
	} else {
		b.WriteString(strconv.Quote(e.Found))
	}

	b.WriteString(" found.")

	return b.String()
}

// Is matches [ErrSyntax].
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// LogValue implements slog.LogValuer.
func (e *SyntaxError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Error()),
		slog.Int("offset", e.Offset),
		slog.Int("line", e.Line),
		slog.Int("column", e.Column),
	)
}

// Snippet formats the offending source line with a caret under the failure
// column, prefixed by its location.
func (e *SyntaxError) Snippet() string {
	var buf strings.Builder

	buf.WriteString("syntax error at line ")
	buf.WriteString(strconv.Itoa(e.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Column))
	buf.WriteString(":\n")

	lines := strings.Split(lineBreaks.Replace(e.Source), "\n")

	if e.Line > 0 && e.Line <= len(lines) {
		num := strconv.Itoa(e.Line)

		buf.WriteString("  ")
		buf.WriteString(num)
		buf.WriteString(" | ")
		buf.WriteString(lines[e.Line-1])
		buf.WriteByte('\n')

		// 2 leading spaces + " | " (3 chars)
		buf.WriteString(strings.Repeat(" ", len(num)+5+max(e.Column-1, 0)))
		buf.WriteString("^\n")
	}

	return buf.String()
}

// EvaluationError reports a path component applied to a value of the wrong
// kind: a name against a non-mapping, or an index against a non-sequence.
// An absent key or index is not an error.
type EvaluationError struct {
	Value     any
	Path      string
	Component string
}

// Error implements the error interface.
func (e *EvaluationError) Error() string { return traversalMessage }

// Is matches [ErrTraversal].
func (e *EvaluationError) Is(target error) bool { return target == ErrTraversal }

// LogValue implements slog.LogValuer.
func (e *EvaluationError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", traversalMessage),
		slog.String("path", e.Path),
		slog.String("component", e.Component),
		slog.String("kind", Classify(e.Value).String()),
	)
}
