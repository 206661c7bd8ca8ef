package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/strudel/cli/cmd"
	"github.com/ardnew/strudel/pkg"
)

// CLI is the top-level command-line interface for strudel.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Data []string `help:"Data context file(s) (JSON or YAML) or '-' for stdin, merged left to right" name:"data" placeholder:"FILE" sep:"none" short:"d"`
	Path []string `help:"Directory searched for templates before those in ${pathEnv}"                  name:"path" placeholder:"DIR"  sep:"none" short:"I" type:"path"`

	Render  cmd.Render  `cmd:"" default:"withargs" help:"Render a template against the data context"`
	Compile cmd.Compile `cmd:""                    help:"Write the serialized tree of a template"`
	Load    cmd.Load    `cmd:""                    help:"Render a serialized tree against the data context"`
	Fmt     cmd.Fmt     `cmd:""                    help:"Format a template"`
	Repl    cmd.Repl    `cmd:""                    help:"Evaluate templates interactively"`
	Init    cmd.Init    `cmd:""                    help:"Initialize configuration file"`
	Version cmd.Version `cmd:""                    help:"Print version"`
}

// Run executes the strudel CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + ".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"pathEnv":            pkg.EnvVar("path"),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Apply logger flags before parsing so that parse errors are logged the
	// way the user asked, wherever the flags appear.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(resolve, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithDataFiles(ctx, cli.Data)
	ctx = cmd.WithSearchPath(ctx, cmd.SearchPath(cli.Path...))

	cli.Log.start(ctx)

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
