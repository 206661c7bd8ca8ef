package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/strudel/lang"
)

// Compile writes the serialized tree of a template.
type Compile struct {
	Format string `default:"json" enum:"json,yaml" help:"Output encoding (${enum})." short:"f"`
	Indent int    `default:"2"                     help:"Indent width; 0 for compact output." short:"i"`

	Template string `arg:"" default:"-" help:"Template file, name in the search path, or '-' for stdin." name:"template"`
}

// Run executes the compile command.
func (c *Compile) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tmpl, err := parseTemplate(ctx, c.Template, "compile")
	if err != nil {
		return err
	}

	out := streamsFrom(ctx).out

	switch c.Format {
	case "json":
		err = lang.FormatJSON(ctx, out, tmpl, c.Indent)
	case "yaml":
		err = lang.FormatYAML(ctx, out, tmpl, c.Indent)
	default:
		return ErrUnknownFormat.With(slog.String("format", c.Format))
	}

	if err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("format", c.Format))
	}

	return nil
}

// parseTemplate reads and parses the template named by name.
func parseTemplate(ctx context.Context, name, command string) (*lang.Template, error) {
	source, err := readSource(ctx, name)
	if err != nil {
		return nil, err
	}

	tmpl, err := lang.Parse(ctx, source, programOptions()...)
	if err != nil {
		return nil, compileError(ctx, err, command, name)
	}

	return tmpl, nil
}
