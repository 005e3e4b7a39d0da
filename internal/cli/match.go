/*
 * match.go, part of goFF.
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
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rmera/goff/internal/logging"
	"github.com/rmera/goff/molio"
	"github.com/rmera/goff/smirks"
	"github.com/spf13/cobra"
)

// MatchResult is the set of occurrences of a pattern in one molecule. Atoms
// are numbered from 1, as in the input files.
type MatchResult struct {
	File        string  `json:"file"`
	Molecule    string  `json:"molecule"`
	Kind        string  `json:"kind"`
	Occurrences [][]int `json:"occurrences"`
}

func (a *app) newMatchCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "match PATTERN FILE...",
		Short: "Print the occurrences of a SMIRKS pattern in molecule files",
		Long: `match compiles PATTERN and prints, for every molecule in the files, the
atoms of each occurrence, numbered from 1. For tagged patterns the atoms are
the tagged ones, in the canonical order of the pattern kind.`,
		Example: "  goff match '[#6X3:1]:[#6X3:2]' benzene.sdf\n  goff match --json '[OX2H]' ligands.sdf.zst",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger(logging.Config{})
			if err != nil {
				return err
			}
			p, err := smirks.Compile(args[0])
			if err != nil {
				return err
			}
			var results []MatchResult
			for _, file := range args[1:] {
				recs, err := molio.ReadFile(file)
				if err != nil {
					return err
				}
				for _, rec := range recs {
					occs := smirks.Match(rec.Mol, p)
					for _, occ := range occs {
						for i := range occ {
							occ[i]++
						}
					}
					results = append(results, MatchResult{File: file, Molecule: rec.Name, Kind: p.Kind().String(), Occurrences: occs})
				}
				log.Debug("matched", logging.String("file", file), logging.Int("molecules", len(recs)))
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			return writeMatches(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the results as JSON")
	return cmd
}

// writeMatches prints one line per occurrence: file, molecule, atoms.
func writeMatches(w io.Writer, results []MatchResult) error {
	for _, r := range results {
		name := r.Molecule
		if name == "" {
			name = "-"
		}
		if len(r.Occurrences) == 0 {
			if _, err := fmt.Fprintf(w, "%s\t%s\tno matches\n", r.File, name); err != nil {
				return err
			}
			continue
		}
		for _, occ := range r.Occurrences {
			atoms := make([]string, len(occ))
			for i, v := range occ {
				atoms[i] = strconv.Itoa(v)
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", r.File, name, strings.Join(atoms, " ")); err != nil {
				return err
			}
		}
	}
	return nil
}
