package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/strudel/log"
)

// LoadData decodes the data files stored in ctx by [WithDataFiles] into a
// single data context. Without data files the context is nil.
func LoadData(ctx context.Context) (any, error) {
	files := dataFilesFrom(ctx)

	var data any

	for _, path := range files.Paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, ErrReadData.Wrap(err).With(slog.String("file", path))
		}

		data, err = mergeDocuments(data, f)
		f.Close()

		if err != nil {
			return nil, ErrDecodeData.Wrap(err).With(slog.String("file", path))
		}

		log.TraceContext(ctx, "data file decoded", slog.String("file", path))
	}

	if files.Stdin {
		var err error

		data, err = mergeDocuments(data, streamsFrom(ctx).in)
		if err != nil {
			return nil, ErrDecodeData.Wrap(err).With(slog.String("file", stdinSource))
		}
	}

	return data, nil
}

// DecodeData decodes every JSON or YAML document in r and merges them.
func DecodeData(r io.Reader) (any, error) {
	return mergeDocuments(nil, r)
}

// mergeDocuments decodes each document of a YAML stream into data. Since YAML
// is a superset of JSON, JSON input decodes the same way.
func mergeDocuments(data any, r io.Reader) (any, error) {
	dec := yaml.NewDecoder(r)

	for {
		var doc any

		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return data, nil
		}

		if err != nil {
			return nil, err
		}

		data = merge(data, doc)
	}
}

// merge combines two documents. Two mappings merge shallowly with the keys of
// next taking precedence; any other next document replaces data. An empty
// document leaves data unchanged.
func merge(data, next any) any {
	if next == nil {
		return data
	}

	dst, ok := data.(map[string]any)
	src, ok2 := next.(map[string]any)

	if !ok || !ok2 {
		return next
	}

	out := make(map[string]any, len(dst)+len(src))
	maps.Copy(out, dst)
	maps.Copy(out, src)

	return out
}
