package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
)

type (
	contextKey    struct{}
	dataFilesKey  struct{}
	searchPathKey struct{}
	streamsKey    struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// kongVar returns the kong variable named key, or "" outside a parsed
// command line.
func kongVar(ctx context.Context, key string) string {
	if ktx := kongContextFrom(ctx); ktx != nil {
		return ktx.Model.Vars()[key]
	}

	return ""
}

// streams are the standard streams of a command.
type streams struct {
	in       io.Reader
	out, err io.Writer
}

// WithStreams returns a new context.Context whose commands read stdin from
// in and write output to out and diagnostics to errw. Nil streams default to
// the process's standard streams.
func WithStreams(ctx context.Context, in io.Reader, out, errw io.Writer) context.Context {
	return context.WithValue(ctx, streamsKey{}, streams{in: in, out: out, err: errw})
}

func streamsFrom(ctx context.Context) streams {
	s, _ := ctx.Value(streamsKey{}).(streams)

	if s.in == nil {
		s.in = os.Stdin
	}

	if s.out == nil {
		s.out = os.Stdout
	}

	if s.err == nil {
		s.err = os.Stderr
	}

	return s
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// DataFiles lists the data context documents in the order they are merged.
type DataFiles struct {
	// Paths are resolved, deduplicated regular files.
	Paths []string
	// Stdin reports whether standard input is decoded after Paths.
	Stdin bool
}

// IsZero reports whether there are no data files.
func (d DataFiles) IsZero() bool { return len(d.Paths) == 0 && !d.Stdin }

// WithDataFiles returns a new context.Context containing the data files
// named by sources.
//
// Files are deduplicated by resolving symlinks and comparing device/inode
// pairs; unreadable paths are kept so decoding reports them. All occurrences
// of "-" collapse into a single read of stdin, placed last.
func WithDataFiles(ctx context.Context, sources []string) context.Context {
	return context.WithValue(ctx, dataFilesKey{}, buildDataFiles(sources))
}

func dataFilesFrom(ctx context.Context) DataFiles {
	d, _ := ctx.Value(dataFilesKey{}).(DataFiles)

	return d
}

func buildDataFiles(sources []string) DataFiles {
	var files DataFiles

	seen := make(map[fileKey]struct{})

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, hasStdinKey := makeFileKey(stdinInfo)

	for _, src := range sources {
		if src == stdinSource {
			files.Stdin = true

			continue
		}

		path, key, ok := resolveFile(src)
		if ok {
			if hasStdinKey && key == stdinKey {
				files.Stdin = true

				continue
			}

			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
		}

		files.Paths = append(files.Paths, path)
	}

	return files
}

// resolveFile returns the symlink-free absolute path of path and its
// identity. If the file cannot be inspected, path is returned unchanged with
// ok false.
func resolveFile(path string) (resolved string, key fileKey, ok bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, key, false
	}

	resolved, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return path, key, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return path, key, false
	}

	key, ok = makeFileKey(info)

	return resolved, key, ok
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
