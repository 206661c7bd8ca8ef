package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/strudel/log"
	"github.com/ardnew/strudel/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	confPath := kongVar(ctx, ConfigIdentifier)
	if confPath == "" {
		panic("internal error: config path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	b, err := yaml.MarshalWithOptions(i.settings(ctx), yaml.Indent(defaultConfigIndent))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(confPath), 0o700); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.WriteFile(confPath, b, 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath))

	return nil
}

// settings maps the configuration key of each set flag to its value. Keys
// are flag names with "-" replaced by "_".
func (i *Init) settings(ctx context.Context) map[string]any {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return map[string]any{}
	}

	prefixIgnore := []string{"help", profile.Tag}

	out := make(map[string]any)

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if v := configValue(ktx.FlagValue(flag)); v != nil {
			out[strings.ReplaceAll(flag.Name, "-", "_")] = v
		}
	}

	return out
}

// configValue converts a flag value to a YAML scalar or list, or nil if the
// flag is unset. Named string types such as log levels become plain strings.
func configValue(val any) any {
	rv := reflect.ValueOf(val)

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()

	case reflect.String:
		if rv.Len() == 0 {
			return nil
		}

		return rv.String()

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()

	case reflect.Float32, reflect.Float64:
		return rv.Float()

	case reflect.Slice:
		if rv.Len() == 0 {
			return nil
		}

		items := make([]any, 0, rv.Len())
		for j := range rv.Len() {
			if v := configValue(rv.Index(j).Interface()); v != nil {
				items = append(items, v)
			}
		}

		return items

	case reflect.Invalid:
		return nil
	}

	return fmt.Sprint(val)
}
