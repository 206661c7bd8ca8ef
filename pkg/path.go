package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Prefix returns the base name of the running executable, used to name the
// configuration and cache directories and to prefix environment variables.
// Debugger builds ("__debug_bin123") map to [Name], and leading dots are
// removed.
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(func() string {
	return prefixOf(executable())
})

var (
	debugBin   = regexp.MustCompile(`^__debug_bin\d*$`)
	leadingDot = regexp.MustCompile(`^\.+`)
)

func executable() string {
	if exe, err := os.Executable(); err == nil {
		return exe
	}

	return os.Args[0]
}

func prefixOf(path string) string {
	base := leadingDot.ReplaceAllString(filepath.Base(path), "")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = debugBin.ReplaceAllString(base, Name)

	if base == "" || base == "." {
		return Name
	}

	return base
}

// EnvVar returns the environment variable name for key, such as
// "STRUDEL_PATH" for "path".
func EnvVar(key string) string {
	return strings.ToUpper(Prefix() + "_" + key)
}

// ConfigDir returns the directory holding the user's configuration files.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// CacheDir returns the directory holding transient files such as compiled
// templates and profiles.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// userDir resolves a per-user directory for this command, falling back to
// a hidden directory under home and finally the working directory.
func userDir(lookup func() (string, error), hidden string) string {
	dir, err := lookup()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, hidden)
		} else if wd, werr := os.Getwd(); werr == nil {
			dir = wd
		} else {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}
