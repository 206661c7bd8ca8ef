package cmd

import (
	"context"
	"fmt"

	"github.com/ardnew/strudel/pkg"
)

// Version prints the program version.
type Version struct{}

// Run executes the version command.
func (v *Version) Run(ctx context.Context) error {
	_, err := fmt.Fprintln(streamsFrom(ctx).out, pkg.Name, pkg.Version())

	return err
}
