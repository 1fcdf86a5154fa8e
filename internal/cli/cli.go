// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package cli implements the mosaic command-line interface.
//
// # Commands
//
//   - generate: tessellate an initial layout without optimizing it
//   - optimize: run gradient descent and render the result
//   - validate: check that a layout's regions partition the domain
//
// Every command reads an optional TOML file given with --config; flags override its values.
// --verbose (-v) switches logging to debug level. The logger travels in the command context.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const (
	appName = "mosaic"

	// areaTolerance is the relative area error a partition may show.
	areaTolerance = 1e-3
	defaultGrid   = 64
)

var (
	version string
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the mosaic CLI with ctx, which cancels long optimizations.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "Mosaic tiles a torus with area-balanced Voronoi regions",
		Long:         `Mosaic generates toroidal Voronoi tessellations and moves their sites by gradient descent until every region approaches its target area.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(os.Stderr, level)
			attachRasterLogger(logger)
			cmd.SetContext(withLogger(cmd.Context(), logger))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("mosaic %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newOptimizeCmd())
	root.AddCommand(newValidateCmd())

	return root
}
