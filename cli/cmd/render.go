package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/ardnew/strudel/lang"
	"github.com/ardnew/strudel/log"
)

// Render renders a template against the data context.
type Render struct {
	Template string `arg:"" default:"-" help:"Template file, name in the search path, or '-' for stdin." name:"template"`

	Cache    bool   `help:"Reuse compiled templates from the cache directory."       negatable:""`
	CacheDir string `default:"${cache}/templates" help:"Directory of compiled templates." type:"path"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	source, err := readSource(ctx, r.Template)
	if err != nil {
		return err
	}

	var prog *lang.Program

	if r.Cache {
		cache := lang.NewCache(
			lang.CacheDir(r.CacheDir),
			lang.CacheLogger(log.Default()),
		)
		prog, err = cache.Compile(ctx, source, programOptions()...)
	} else {
		prog, err = lang.Compile(ctx, source, programOptions()...)
	}

	if err != nil {
		return compileError(ctx, err, "render", r.Template)
	}

	data, err := LoadData(ctx)
	if err != nil {
		return err
	}

	return renderTo(ctx, streamsFrom(ctx).out, prog, data, r.Template)
}

func programOptions() []lang.Option {
	return []lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithRegistry(lang.DefaultRegistry()),
	}
}

func renderTo(ctx context.Context, w io.Writer, prog *lang.Program, data any, name string) error {
	err := prog.RenderTo(ctx, w, data)
	if err != nil {
		return ErrRender.Wrap(err).With(slog.String("template", name))
	}

	return nil
}

// compileError reports a syntax error with the offending source line on
// stderr and returns err annotated for logging.
func compileError(ctx context.Context, err error, command, name string) error {
	var se *lang.SyntaxError
	if errors.As(err, &se) {
		_, _ = io.WriteString(streamsFrom(ctx).err, se.Snippet())
	}

	return lang.WrapError(err).With(
		slog.String("command", command),
		slog.String("template", name),
	)
}
