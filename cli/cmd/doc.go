// Package cmd implements the strudel subcommands.
//
// Commands receive a [context.Context] carrying the parsed [kong.Context],
// the data files named with --data, the template search path, and the
// streams to read and write. See [WithContext], [WithDataFiles],
// [WithSearchPath] and [WithStreams].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// to the YAML configuration file.
	ConfigIdentifier = "config"
)
