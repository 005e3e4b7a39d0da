/*
 * check.go, part of goFF.
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
	"path/filepath"
	"sort"
	"strings"

	"github.com/rmera/goff/atomtype"
	"github.com/rmera/goff/forcefield"
	"github.com/rmera/goff/internal/config"
	"github.com/rmera/goff/internal/logging"
	"github.com/spf13/cobra"
)

// kindOf guesses the kind of a force field file from its extension.
func kindOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return config.KindSMIRNOFF
	}
	return config.KindAtomTyped
}

func (a *app) newCheckCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "check FORCEFIELD...",
		Short: "Load force field files and report what they contain",
		Long: `check reads each force field file and, for rule sets, compiles every pattern
and builds the typing engine, so broken files are found before a run. The
kind is guessed from the extension (.yaml and .yml are rule sets) unless
--kind is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger(logging.Config{})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, path := range args {
				k := kind
				if k == "" {
					k = kindOf(path)
				}
				switch k {
				case config.KindSMIRNOFF:
					ff, err := forcefield.LoadFile(path)
					if err != nil {
						return err
					}
					E, err := ff.Engine()
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s: rule set %q version %q\n", path, ff.Name, ff.Version)
					for _, c := range forcefield.Classes() {
						fmt.Fprintf(w, "  %-17s %d rules\n", c, len(E.Rules(c)))
					}
					nb := E.Nonbonded()
					fmt.Fprintf(w, "  %-17s %s, %s, cutoff %g nm, 1-4 scaling %g/%g\n", "nonbonded", nb.Combining, nb.Method, nb.Cutoff, nb.Coulomb14, nb.LJ14)
				case config.KindAtomTyped:
					ff, err := atomtype.ReadFile(path)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s: atom-typed force field %q\n", path, ff.Name)
					fmt.Fprintf(w, "  %-17s %d\n", "atom types", len(ff.AtomTypes))
					fmt.Fprintf(w, "  %-17s %d\n", "bond types", len(ff.BondTypes))
					fmt.Fprintf(w, "  %-17s %d\n", "angle types", len(ff.AngleTypes))
					fmt.Fprintf(w, "  %-17s %d\n", "dihedral types", len(ff.Dihedrals))
					names := make([]string, 0, len(ff.Templates))
					for n := range ff.Templates {
						names = append(names, n)
					}
					sort.Strings(names)
					fmt.Fprintf(w, "  %-17s %s\n", "residues", strings.Join(names, " "))
				default:
					return fmt.Errorf("unknown force field kind %q, expected %s|%s", k, config.KindSMIRNOFF, config.KindAtomTyped)
				}
				log.Debug("force field checked", logging.String("file", path), logging.String("kind", k))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "force field kind: smirnoff or atomtyped")
	return cmd
}
