package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/strudel/lang"
)

// Load renders a serialized tree, as written by the compile command, against
// the data context.
type Load struct {
	Tree string `arg:"" default:"-" help:"Serialized tree (JSON or YAML) file, name in the search path, or '-' for stdin." name:"tree"`
}

// Run executes the load command.
func (l *Load) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	source, err := readSource(ctx, l.Tree)
	if err != nil {
		return err
	}

	var tree any
	if err := yaml.NewDecoder(strings.NewReader(source)).DecodeContext(ctx, &tree); err != nil {
		return ErrDecodeTree.Wrap(err).With(slog.String("file", l.Tree))
	}

	// Load itself falls back to an empty template; a command should fail.
	if _, err := lang.LoadNode(tree); err != nil {
		return ErrDecodeTree.Wrap(err).With(slog.String("file", l.Tree))
	}

	data, err := LoadData(ctx)
	if err != nil {
		return err
	}

	prog := lang.Load(ctx, tree, programOptions()...)

	return renderTo(ctx, streamsFrom(ctx).out, prog, data, l.Tree)
}
