/*
 * root.go, part of goFF.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 */

// Package cli implements the goff command line: running a pipeline file,
// matching patterns against molecule files and checking force fields.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chem "github.com/rmera/goff"
	"github.com/rmera/goff/internal/logging"
	"github.com/spf13/cobra"
)

// Build-time variables, set with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// rootOptions are the global flags.
type rootOptions struct {
	LogLevel  string
	LogFormat string
}

// app carries the global options and the logger through the command tree.
type app struct {
	opts rootOptions
	log  logging.Logger
}

// NewRootCommand returns the goff command with all its subcommands.
func NewRootCommand() *cobra.Command {
	a := new(app)
	cmd := &cobra.Command{
		Use:   "goff",
		Short: "Assign force field parameters and export simulation-ready topologies",
		Long: `goff types molecules with SMIRKS-based rule sets or atom-typed force fields,
composes them into systems and writes Gromacs topologies, PQR files or a
portable JSON potential.`,
		Version:       fmt.Sprintf("%s (commit %s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.LogLevel, "log-level", "", "log level: debug, info, warn or error (overrides the pipeline file)")
	pf.StringVar(&a.opts.LogFormat, "log-format", "", "log format: console or json (overrides the pipeline file)")
	cmd.AddCommand(a.newRunCmd(), a.newMatchCmd(), a.newCheckCmd(), newVersionCmd())
	return cmd
}

// logger builds the logger from base, with the global flags taking
// precedence.
func (a *app) logger(base logging.Config) (logging.Logger, error) {
	if a.opts.LogLevel != "" {
		base.Level = a.opts.LogLevel
	}
	if a.opts.LogFormat != "" {
		base.Format = a.opts.LogFormat
	}
	log, err := logging.New(base)
	if err != nil {
		return nil, err
	}
	a.log = log
	return log, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "goff %s (commit %s)\n", Version, GitCommit)
		},
	}
}

// Execute runs the goff command with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// Describe returns the message of err followed, if err carries them, by its
// decorations, innermost first.
func Describe(err error) string {
	var cerr chem.Error
	if !errors.As(err, &cerr) {
		return err.Error()
	}
	deco := cerr.Decorate("")
	if len(deco) == 0 {
		return err.Error()
	}
	return fmt.Sprintf("%s [%s]", err.Error(), strings.Join(deco, " < "))
}
