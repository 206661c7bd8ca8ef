package cli

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve is a [kong.ConfigurationLoader] for YAML config files, such as
// the one written by the init command:
//
//	log_level: debug
//	log_pretty: false
//	data:
//	  - defaults.yaml
//
// Keys are flag names, with "_" or "-" separating words. Numbers are
// passed to kong as strings for parsing, and lists become repeated values.
// Command-line flags override config file values.
func resolve(r io.Reader) (kong.Resolver, error) {
	var raw map[string]any

	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return config{}, nil
		}

		return nil, err
	}

	conf := make(config, len(raw))
	for key, val := range raw {
		conf[key] = configScalar(val)
	}

	return conf, nil
}

// config implements [kong.Resolver] for decoded config files.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}

func configScalar(val any) any {
	switch v := val.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = configScalar(item)
		}

		return out
	}

	return val
}
