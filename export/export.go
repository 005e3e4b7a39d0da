/*
 * export.go, part of goFF.
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

// Package export serializes composed structures. Each target maps every field
// of the structure model it supports to its own representation, and refuses,
// with an *UnsupportedTermError, systems containing terms it can't represent.
//
// Fields surviving each target:
//
//	potential: everything, including provenance tags, subsystem names and
//	           offsets and the nonbonded settings. ImportPotential reverses it.
//	gromacs:   atom names, residues, chains (as residue numbering only), types,
//	           masses, charges, sigma/epsilon, bonds, angles, propers (func 9),
//	           impropers (func 4, central atom third), exceptions ([ pairs ]
//	           and [ exclusions ]), virtual sites ([ virtual_sitesn ] func 3),
//	           positions (3 decimals in the .gro file), 1-4 factors and
//	           combining rule. Provenance and the cutoff/method only go to a
//	           comment.
//	pqr:       atom names, residues, chains, positions (in Angstrom, 3
//	           decimals), charges, radii (Rmin/2 from sigma) and bonds (CONECT).
//	           Any other term is an error.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rmera/goff/structure"
)

// Target is the tag of an export format.
type Target string

const (
	Potential Target = "potential"
	Gromacs   Target = "gromacs"
	PQR       Target = "pqr"
)

var allTerms = []string{"bond", "angle", "proper", "improper", "exception", "virtual site"}

// terms each target can represent.
var supported = map[Target][]string{
	Potential: allTerms,
	Gromacs:   allTerms,
	PQR:       {"bond"},
}

// Targets returns every known target, sorted.
func Targets() []Target {
	return []Target{Gromacs, Potential, PQR}
}

// ParseTarget returns the target with the given tag.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := supported[t]; !ok {
		return "", &UnsupportedTermError{Target: s}
	}
	return t, nil
}

// Supports returns true if the target can represent the given term kind
// ("bond", "angle", "proper", "improper", "exception" or "virtual site").
func (t Target) Supports(term string) bool {
	return slices.Contains(supported[t], term)
}

// UnsupportedTermError is returned when the system contains a term the target
// can't represent. Term is empty if the target itself is unknown.
type UnsupportedTermError struct {
	Target string
	Term   string
	Atoms  []int
	Msg    string
	deco   []string
}

func (err *UnsupportedTermError) Error() string {
	if err.Term == "" {
		return fmt.Sprintf("export: unknown target %q", err.Target)
	}
	s := fmt.Sprintf("export: target %s can't represent %s %v", err.Target, err.Term, err.Atoms)
	if err.Msg != "" {
		s += ": " + err.Msg
	}
	return s
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *UnsupportedTermError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// File is one serialized file.
type File struct {
	Name string
	Data []byte
}

// Output is the result of an export. Potential is set only for the potential target.
type Output struct {
	Target    Target
	Files     []File
	Potential *PotentialSpec
}

// Save writes the files of the output to dir, creating it if needed,
// and returns their paths.
func (o *Output) Save(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(o.Files))
	for _, f := range o.Files {
		p := filepath.Join(dir, f.Name)
		if err := os.WriteFile(p, f.Data, 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

type options struct {
	base     string
	compress bool
}

// Option modifies the behavior of Export.
type Option func(*options)

// WithBaseName sets the name, without extension, of the files produced.
// By default, the name of the system is used.
func WithBaseName(name string) Option {
	return func(o *options) { o.base = BaseName(name) }
}

// Compressed asks for zstd compression of the potential target.
// Other targets ignore it.
func Compressed(c bool) Option {
	return func(o *options) { o.compress = c }
}

// Export serializes sys to the given target. The system is validated first,
// then checked for terms the target can't represent. The first such term, in
// the order given by structure.Structure.Terms, is reported in an
// *UnsupportedTermError. No output is returned together with an error.
func Export(sys *structure.Composed, target Target, opts ...Option) (*Output, error) {
	if _, ok := supported[target]; !ok {
		return nil, &UnsupportedTermError{Target: string(target)}
	}
	if sys == nil || sys.Structure == nil {
		return nil, fmt.Errorf("export: nil system")
	}
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	var err error
	sys.Terms(func(term string, atoms []int) bool {
		if !target.Supports(term) {
			err = &UnsupportedTermError{Target: string(target), Term: term, Atoms: slices.Clone(atoms)}
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	o := &options{base: BaseName(sys.Name)}
	for _, f := range opts {
		f(o)
	}
	out := &Output{Target: target}
	switch target {
	case Potential:
		out.Potential = NewPotentialSpec(sys)
		data, err := out.Potential.Encode(o.compress)
		if err != nil {
			return nil, err
		}
		name := o.base + ".json"
		if o.compress {
			name += ".zst"
		}
		out.Files = []File{{Name: name, Data: data}}
	case Gromacs:
		top, err := groTop(sys)
		if err != nil {
			return nil, err
		}
		out.Files = []File{{Name: o.base + ".top", Data: top}, {Name: o.base + ".gro", Data: groCoords(sys)}}
	case PQR:
		out.Files = []File{{Name: o.base + ".pqr", Data: pqr(sys)}}
	}
	return out, nil
}

// BaseName turns a system name into something usable as a file name.
func BaseName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', '\t', '\n', ':', '*', '?':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return "system"
	}
	return name
}
