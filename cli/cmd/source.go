package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardnew/mung"
	"github.com/klauspost/readahead"

	"github.com/ardnew/strudel/log"
	"github.com/ardnew/strudel/pkg"
)

// TemplateExt is appended to template names given without an extension.
const TemplateExt = pkg.Ext

// SearchPath returns the directories searched for templates: dirs followed
// by the entries of the $STRUDEL_PATH environment variable, without
// duplicates or empty entries.
func SearchPath(dirs ...string) []string {
	list := mung.Make(
		mung.WithSubjectItems(os.Getenv(pkg.EnvVar("path"))),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(dirs...),
	).String()

	var path []string

	for dir := range strings.SplitSeq(list, string(os.PathListSeparator)) {
		if dir != "" && !slices.Contains(path, dir) {
			path = append(path, dir)
		}
	}

	return path
}

// WithSearchPath returns a new context.Context whose commands look up
// template names in the given directories. See [SearchPath].
func WithSearchPath(ctx context.Context, dirs []string) context.Context {
	return context.WithValue(ctx, searchPathKey{}, dirs)
}

func searchPathFrom(ctx context.Context) []string {
	dirs, _ := ctx.Value(searchPathKey{}).([]string)

	return dirs
}

// findTemplate resolves name to a file. An existing file is used as is;
// otherwise name is looked up relative to each directory in the search path,
// with [TemplateExt] appended when name has no extension.
func findTemplate(ctx context.Context, name string) (string, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return name, nil
	}

	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = append(candidates, name+TemplateExt)
	}

	if !filepath.IsAbs(name) {
		for _, dir := range searchPathFrom(ctx) {
			for _, c := range candidates {
				path := filepath.Join(dir, c)
				if info, err := os.Stat(path); err == nil && !info.IsDir() {
					log.TraceContext(ctx, "template found",
						slog.String("name", name),
						slog.String("path", path))

					return path, nil
				}
			}
		}
	} else if len(candidates) > 1 {
		if info, err := os.Stat(candidates[1]); err == nil && !info.IsDir() {
			return candidates[1], nil
		}
	}

	return "", ErrNotFound.With(
		slog.String("name", name),
		slog.Any("path", searchPathFrom(ctx)),
	)
}

// readSource returns the content of the template named by name, which is
// "-" for stdin, a file, or a name in the search path.
func readSource(ctx context.Context, name string) (string, error) {
	var r io.Reader

	if name == stdinSource {
		r = streamsFrom(ctx).in
	} else {
		path, err := findTemplate(ctx, name)
		if err != nil {
			return "", err
		}

		f, err := os.Open(path)
		if err != nil {
			return "", ErrReadTemplate.Wrap(err).With(slog.String("file", path))
		}
		defer f.Close()

		r = f
	}

	ra := readahead.NewReader(r)
	defer ra.Close()

	b, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadTemplate.Wrap(err).With(slog.String("file", name))
	}

	return string(b), nil
}
