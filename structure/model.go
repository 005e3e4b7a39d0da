/*
 * model.go, part of goFF.
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

package structure

import (
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Atom is an atom in a parametrized structure. Positions are in nm, masses in
// amu, charges in e, sigma in nm and epsilon in kJ/mol.
type Atom struct {
	Name       string
	Element    string
	Type       string
	Residue    string
	ResID      int
	Chain      string
	Pos        r3.Vec
	Mass       float64
	Charge     float64
	Sigma      float64
	Epsilon    float64
	Provenance uuid.UUID //subsystem the atom comes from
}

// Bond is a harmonic bond, Atoms[0]<Atoms[1]. K in kJ/mol/nm^2, Length in nm.
type Bond struct {
	Atoms  [2]int
	K      float64
	Length float64
}

// Angle is a harmonic angle, Atoms[0]<Atoms[2]. K in kJ/mol/rad^2, Angle in degrees.
type Angle struct {
	Atoms [3]int
	K     float64
	Angle float64
}

// Torsion is one periodic term, K*(1+cos(n*phi-phase)). K in kJ/mol, Phase in degrees.
// Proper torsions are stored in canonical order. For impropers the central atom
// goes first, whether they come from the typing engine or from residue
// templates. Exporters reorder them as their format requires.
type Torsion struct {
	Atoms       [4]int
	Periodicity int
	Phase       float64
	K           float64
}

// Exception replaces the nonbonded interaction between two atoms. Excluded pairs
// have zero ChargeProd and Epsilon. Atoms[0]<Atoms[1].
type Exception struct {
	Atoms      [2]int
	ChargeProd float64 //e^2
	Sigma      float64
	Epsilon    float64
}

// Excluded returns true if the exception turns the interaction off completely.
func (e Exception) Excluded() bool {
	return e.ChargeProd == 0 && e.Epsilon == 0
}

// VirtualSite is a massless site placed at the weighted average of its parents.
type VirtualSite struct {
	Site    int
	Parents []int
	Weights []float64
}

// Nonbonded holds the nonbonded settings of a structure.
type Nonbonded struct {
	Coulomb14 float64
	LJ14      float64
	Combining string
	Method    string
	Cutoff    float64 //nm
}

// scaleTol is the precision at which 1-4 scaling factors are compared.
// Force field files give them with 4 significant digits (0.8333 for 1/1.2).
const scaleTol = 1e-3

// compatible returns true if both settings describe the same nonbonded model:
// same 1-4 scaling, within scaleTol, and same combining rule. The
// electrostatics method and the cutoff are run settings and are not compared.
func (n Nonbonded) compatible(o Nonbonded) bool {
	near := func(a, b float64) bool { return math.Abs(a-b) <= scaleTol }
	return near(n.Coulomb14, o.Coulomb14) && near(n.LJ14, o.LJ14) && n.Combining == o.Combining
}

// differences describes the run settings of o that differ from those of n.
func (n Nonbonded) differences(o Nonbonded) []string {
	var d []string
	if n.Method != o.Method {
		d = append(d, fmt.Sprintf("method %s instead of %s", o.Method, n.Method))
	}
	if math.Abs(n.Cutoff-o.Cutoff) > 1e-9 {
		d = append(d, fmt.Sprintf("cutoff %g nm instead of %g nm", o.Cutoff, n.Cutoff))
	}
	return d
}

// Structure is a force-field-agnostic parametrized system.
type Structure struct {
	Name         string
	Atoms        []Atom
	Bonds        []Bond
	Angles       []Angle
	Propers      []Torsion
	Impropers    []Torsion
	Exceptions   []Exception
	VirtualSites []VirtualSite
	Nonbonded    Nonbonded
}

// Len returns the number of atoms.
func (S *Structure) Len() int { return len(S.Atoms) }

// Copy returns a deep copy of the structure.
func (S *Structure) Copy() *Structure {
	ret := &Structure{
		Name:       S.Name,
		Atoms:      slices.Clone(S.Atoms),
		Bonds:      slices.Clone(S.Bonds),
		Angles:     slices.Clone(S.Angles),
		Propers:    slices.Clone(S.Propers),
		Impropers:  slices.Clone(S.Impropers),
		Exceptions: slices.Clone(S.Exceptions),
		Nonbonded:  S.Nonbonded,
	}
	for _, v := range S.VirtualSites {
		ret.VirtualSites = append(ret.VirtualSites, VirtualSite{Site: v.Site, Parents: slices.Clone(v.Parents), Weights: slices.Clone(v.Weights)})
	}
	return ret
}

// namespace for the provenance tags.
var namespace = uuid.MustParse("9c5b94b1-35ad-49bb-b118-8e8fc24abf80")

// Tag returns the provenance tag for a subsystem with the given name. The
// same name always gives the same tag.
func Tag(name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(name))
}

// Validate checks that every index referenced by a term exists, that terms are
// stored in canonical order, and that no term appears twice.
func (S *Structure) Validate() error {
	n := len(S.Atoms)
	check := func(term string, atoms []int) error {
		for _, v := range atoms {
			if v < 0 || v >= n {
				return &ModelError{Term: term, Atoms: atoms, Msg: fmt.Sprintf("atom index %d out of range [0,%d)", v, n)}
			}
		}
		for i, v := range atoms {
			if slices.Contains(atoms[i+1:], v) {
				return &ModelError{Term: term, Atoms: atoms, Msg: "repeated atom"}
			}
		}
		return nil
	}
	seen := make(map[string]bool)
	unique := func(term string, atoms []int, extra ...int) error {
		k := fmt.Sprint(term, atoms, extra)
		if seen[k] {
			return &ModelError{Term: term, Atoms: atoms, Msg: "repeated term"}
		}
		seen[k] = true
		return nil
	}
	for _, b := range S.Bonds {
		a := b.Atoms[:]
		if err := check("bond", a); err != nil {
			return err
		}
		if a[0] > a[1] {
			return &ModelError{Term: "bond", Atoms: a, Msg: "not in canonical order"}
		}
		if err := unique("bond", a); err != nil {
			return err
		}
	}
	for _, b := range S.Angles {
		a := b.Atoms[:]
		if err := check("angle", a); err != nil {
			return err
		}
		if a[0] > a[2] {
			return &ModelError{Term: "angle", Atoms: a, Msg: "not in canonical order"}
		}
		if err := unique("angle", a); err != nil {
			return err
		}
	}
	for _, t := range S.Propers {
		a := t.Atoms[:]
		if err := check("proper", a); err != nil {
			return err
		}
		if a[0] > a[3] {
			return &ModelError{Term: "proper", Atoms: a, Msg: "not in canonical order"}
		}
		if err := unique("proper", a, t.Periodicity); err != nil {
			return err
		}
	}
	for _, t := range S.Impropers {
		a := t.Atoms[:]
		if err := check("improper", a); err != nil {
			return err
		}
		if err := unique("improper", a, t.Periodicity); err != nil {
			return err
		}
	}
	for _, e := range S.Exceptions {
		a := e.Atoms[:]
		if err := check("exception", a); err != nil {
			return err
		}
		if a[0] > a[1] {
			return &ModelError{Term: "exception", Atoms: a, Msg: "not in canonical order"}
		}
		if err := unique("exception", a); err != nil {
			return err
		}
	}
	for _, v := range S.VirtualSites {
		all := append([]int{v.Site}, v.Parents...)
		if err := check("virtual site", all); err != nil {
			return err
		}
		if len(v.Parents) == 0 || len(v.Parents) != len(v.Weights) {
			return &ModelError{Term: "virtual site", Atoms: all, Msg: "needs one weight per parent atom"}
		}
		if err := unique("virtual site", []int{v.Site}); err != nil {
			return err
		}
	}
	return nil
}

// Terms calls f with the name and atom indices of every term in the structure,
// in a fixed order: bonds, angles, propers, impropers, exceptions and virtual
// sites (site first). It stops if f returns false.
func (S *Structure) Terms(f func(term string, atoms []int) bool) {
	for _, b := range S.Bonds {
		if !f("bond", b.Atoms[:]) {
			return
		}
	}
	for _, b := range S.Angles {
		if !f("angle", b.Atoms[:]) {
			return
		}
	}
	for _, t := range S.Propers {
		if !f("proper", t.Atoms[:]) {
			return
		}
	}
	for _, t := range S.Impropers {
		if !f("improper", t.Atoms[:]) {
			return
		}
	}
	for _, e := range S.Exceptions {
		if !f("exception", e.Atoms[:]) {
			return
		}
	}
	for _, v := range S.VirtualSites {
		if !f("virtual site", append([]int{v.Site}, v.Parents...)) {
			return
		}
	}
}
