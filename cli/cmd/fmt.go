package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/strudel/lang"
)

// Fmt parses a template and writes it in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical template source (default)."`
	JSON   JSON   `cmd:""                    help:"Format as a JSON serialized tree."`
	YAML   YAML   `cmd:""                    help:"Format as a YAML serialized tree."`
	AST    AST    `cmd:""                    help:"Format as an indented syntax tree outline."`
}

// Native formats a template as canonical source: expression attributes are
// sorted by key and numbers are written in their shortest form.
type Native struct {
	Template string `arg:"" default:"-" help:"Template file, name in the search path, or '-' for stdin." name:"template"`
}

// Run executes the native fmt command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tmpl, err := parseTemplate(ctx, f.Template, "fmt")
	if err != nil {
		return err
	}

	return wrapWrite(lang.Format(streamsFrom(ctx).out, tmpl), "native")
}

// JSON formats a template as its serialized tree in JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Template string `arg:"" default:"-" help:"Template file, name in the search path, or '-' for stdin." name:"template"`
}

// Run executes the json fmt command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tmpl, err := parseTemplate(ctx, j.Template, "fmt")
	if err != nil {
		return err
	}

	return wrapWrite(lang.FormatJSON(ctx, streamsFrom(ctx).out, tmpl, j.Indent), "json")
}

// YAML formats a template as its serialized tree in YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Template string `arg:"" default:"-" help:"Template file, name in the search path, or '-' for stdin." name:"template"`
}

// Run executes the yaml fmt command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tmpl, err := parseTemplate(ctx, y.Template, "fmt")
	if err != nil {
		return err
	}

	return wrapWrite(lang.FormatYAML(ctx, streamsFrom(ctx).out, tmpl, y.Indent), "yaml")
}

// AST formats a template as an outline of its syntax tree.
type AST struct {
	Template string `arg:"" default:"-" help:"Template file, name in the search path, or '-' for stdin." name:"template"`
}

// Run executes the ast fmt command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tmpl, err := parseTemplate(ctx, a.Template, "fmt")
	if err != nil {
		return err
	}

	return wrapWrite(lang.Print(streamsFrom(ctx).out, tmpl), "ast")
}

func wrapWrite(err error, format string) error {
	if err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("format", format))
	}

	return nil
}
