package cmd

import (
	"context"

	"github.com/ardnew/strudel/cli/cmd/repl"
	"github.com/ardnew/strudel/lang"
	"github.com/ardnew/strudel/log"
)

// Repl starts an interactive shell rendering template lines against the
// data context.
type Repl struct {
	History bool `default:"true" help:"Persist input history in the cache directory." negatable:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	data, err := LoadData(ctx)
	if err != nil {
		return err
	}

	var cacheDir string
	if r.History {
		cacheDir = kongVar(ctx, CacheIdentifier)
	}

	return repl.Run(ctx, data, lang.DefaultRegistry(), cacheDir, log.Default())
}
