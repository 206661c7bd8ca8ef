package cmd

import (
	"errors"
	"log/slog"
	"strings"
)

// Error represents a CLI command error with structured logging support.
//
// Copies made with [Error.Wrap] and [Error.With] match the sentinel they were
// derived from under [errors.Is].
type Error struct {
	kind  *Error
	err   error
	msg   string
	attrs []slog.Attr
}

func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

func (e *Error) Error() string {
	// "<msg>: <err>", "<msg>", "<err>", or "".
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && e.kind != nil && t == e.kind
}

func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		var lv slog.LogValuer
		if errors.As(e.err, &lv) {
			attrs = append(attrs, slog.Any("cause", lv))
		} else {
			attrs = append(attrs, slog.String("cause", e.err.Error()))
		}
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{kind: e.kind, msg: e.msg, err: err, attrs: e.attrs}
}

// With adds attributes to the error for structured logging.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{kind: e.kind, msg: e.msg, err: e.err, attrs: newAttrs}
}

var (
	ErrReadTemplate  = NewError("read template")
	ErrNotFound      = NewError("template not found in search path")
	ErrReadData      = NewError("read data context")
	ErrDecodeData    = NewError("decode data context")
	ErrDecodeTree    = NewError("decode serialized tree")
	ErrRender        = NewError("render template")
	ErrWriteOutput   = NewError("write output")
	ErrYAMLMarshal   = NewError("marshal YAML")
	ErrWriteConfig   = NewError("write configuration file")
	ErrFileExists    = NewError("file exists (use --force to overwrite)")
	ErrUnknownFormat = NewError("unknown output format")
)
