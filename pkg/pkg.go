// Package pkg holds project metadata and the well-known paths shared by the
// strudel command and its packages.
package pkg

import (
	_ "embed"
	"strings"
)

// Version is the release version, embedded from the VERSION file.
//
//go:embed VERSION
var version string

// Version returns the release version with surrounding whitespace removed.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name identifies the command in help text, paths and environment
	// variables.
	Name = "strudel"
	// Description summarizes the command for help output.
	Description = "Render @-templates against JSON and YAML data"
	// Ext is the file extension of template sources.
	Ext = ".strudel"
)

// AuthorInfo identifies one author.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the project authors.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
