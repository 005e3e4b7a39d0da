/*
 * run.go, part of goFF.
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

package cli

import (
	"fmt"

	"github.com/rmera/goff/internal/config"
	"github.com/rmera/goff/internal/logging"
	"github.com/rmera/goff/internal/pipeline"
	"github.com/spf13/cobra"
)

type runOptions struct {
	ConfigPath string
	OutputDir  string
	Targets    []string
	Compress   bool
}

func (a *app) newRunCmd() *cobra.Command {
	opts := new(runOptions)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Parametrize and export the system described by a pipeline file",
		Long: `run reads a pipeline file, types every subsystem with its force field,
composes the system and writes it in each output target. The paths of the
files written are printed, one per line.`,
		Example: "  goff run -c pipeline.yaml\n  goff run -c pipeline.yaml --target gromacs,potential --compress",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("output-dir") {
				cfg.Output.Dir = opts.OutputDir
			}
			if f.Changed("target") {
				cfg.Output.Targets = opts.Targets
			}
			if f.Changed("compress") {
				cfg.Output.Compress = opts.Compress
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := a.logger(cfg.Log)
			if err != nil {
				return err
			}
			log.Debug("pipeline loaded", logging.String("file", opts.ConfigPath), logging.Int("subsystems", len(cfg.Subsystems)))
			res, err := pipeline.New(cfg, log).Run(cmd.Context())
			if err != nil {
				log.Error("run failed", logging.Err(err))
				return err
			}
			for _, file := range res.Files {
				fmt.Fprintln(cmd.OutOrStdout(), file)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "pipeline.yaml", "pipeline file")
	f.StringVarP(&opts.OutputDir, "output-dir", "o", "", "directory for the output files (overrides the pipeline file)")
	f.StringSliceVarP(&opts.Targets, "target", "t", nil, "output targets: gromacs, pqr, potential (overrides the pipeline file)")
	f.BoolVar(&opts.Compress, "compress", false, "compress the potential target with zstd")
	return cmd
}
