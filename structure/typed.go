/*
 * typed.go, part of goFF.
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

	chem "github.com/rmera/goff"
	"github.com/rmera/goff/forcefield"
)

// FromNonbonded converts the nonbonded settings of a force field.
func FromNonbonded(nb forcefield.Nonbonded) Nonbonded {
	return Nonbonded{Coulomb14: nb.Coulomb14, LJ14: nb.LJ14, Combining: nb.Combining, Method: nb.Method, Cutoff: nb.Cutoff}
}

// CombineLJ returns sigma and epsilon for a pair of atoms, using the given
// combining rule ("geometric" or, by default, Lorentz-Berthelot).
func CombineLJ(rule string, s1, e1, s2, e2 float64) (sigma, epsilon float64) {
	epsilon = math.Sqrt(e1 * e2)
	if rule == "geometric" {
		return math.Sqrt(s1 * s2), epsilon
	}
	return (s1 + s2) / 2, epsilon
}

// FromTyped builds a structure from a molecule and the parameters the typing
// engine assigned to it. Atom types are the IDs of the vdW rules. Each improper
// is applied to the three cyclic permutations of its outer atoms, with a third
// of the force constant each, central atom first. 1-2 and 1-3 pairs are
// excluded, and 1-4 pairs get exceptions scaled with the 1-4 factors.
func FromTyped(mol *chem.Molecule, res *forcefield.Result, name string) (*Structure, error) {
	if res.NAtoms != mol.Len() {
		return nil, fmt.Errorf("structure: typing result is for %d atoms, the molecule has %d", res.NAtoms, mol.Len())
	}
	S := &Structure{Name: name, Nonbonded: FromNonbonded(res.Nonbonded)}
	tag := Tag(name)
	vdw := res.Terms[forcefield.VdW]
	q := res.Terms[forcefield.Electrostatics]
	if len(vdw) != mol.Len() || len(q) != mol.Len() {
		return nil, fmt.Errorf("structure: the typing result lacks per-atom parameters")
	}
	resname := name
	if len(resname) > 4 {
		resname = resname[:4]
	}
	for i := 0; i < mol.Len(); i++ {
		a := mol.Atom(i)
		at := Atom{
			Name:       a.Name,
			Element:    a.Symbol,
			Type:       vdw[i].RuleID,
			Residue:    a.MolName,
			ResID:      a.MolID,
			Chain:      string(a.Chain),
			Pos:        a.Pos,
			Mass:       chem.Mass(a.Symbol),
			Charge:     q[i].Params.Charge,
			Sigma:      vdw[i].Params.Sigma,
			Epsilon:    vdw[i].Params.Epsilon,
			Provenance: tag,
		}
		if a.Chain == 0 {
			at.Chain = ""
		}
		if at.Name == "" {
			at.Name = fmt.Sprintf("%s%d", a.Symbol, i+1)
		}
		if at.Residue == "" {
			at.Residue = resname
		}
		if at.ResID == 0 {
			at.ResID = 1
		}
		S.Atoms = append(S.Atoms, at)
	}
	for _, t := range res.Terms[forcefield.Bonds] {
		S.Bonds = append(S.Bonds, Bond{Atoms: [2]int{t.Atoms[0], t.Atoms[1]}, K: t.Params.K, Length: t.Params.Length})
	}
	for _, t := range res.Terms[forcefield.Angles] {
		S.Angles = append(S.Angles, Angle{Atoms: [3]int{t.Atoms[0], t.Atoms[1], t.Atoms[2]}, K: t.Params.K, Angle: t.Params.Angle})
	}
	for _, t := range res.Terms[forcefield.ProperTorsions] {
		atoms := [4]int{t.Atoms[0], t.Atoms[1], t.Atoms[2], t.Atoms[3]}
		for _, f := range t.Params.Terms {
			S.Propers = append(S.Propers, Torsion{Atoms: atoms, Periodicity: f.Periodicity, Phase: f.Phase, K: f.K / idivf(f)})
		}
	}
	for _, t := range res.Terms[forcefield.ImproperTorsions] {
		c := t.Atoms[1]
		o := [3]int{t.Atoms[0], t.Atoms[2], t.Atoms[3]}
		for _, p := range [3][3]int{{0, 1, 2}, {1, 2, 0}, {2, 0, 1}} {
			atoms := [4]int{c, o[p[0]], o[p[1]], o[p[2]]}
			for _, f := range t.Params.Terms {
				S.Impropers = append(S.Impropers, Torsion{Atoms: atoms, Periodicity: f.Periodicity, Phase: f.Phase, K: f.K / idivf(f) / 3})
			}
		}
	}
	excluded, pairs14 := mol.ExclusionPairs()
	for _, p := range excluded {
		S.Exceptions = append(S.Exceptions, Exception{Atoms: p})
	}
	for _, p := range pairs14 {
		a, b := S.Atoms[p[0]], S.Atoms[p[1]]
		sigma, eps := CombineLJ(S.Nonbonded.Combining, a.Sigma, a.Epsilon, b.Sigma, b.Epsilon)
		S.Exceptions = append(S.Exceptions, Exception{
			Atoms:      p,
			ChargeProd: a.Charge * b.Charge * S.Nonbonded.Coulomb14,
			Sigma:      sigma,
			Epsilon:    eps * S.Nonbonded.LJ14,
		})
	}
	if err := S.Validate(); err != nil {
		return nil, err
	}
	return S, nil
}

func idivf(f forcefield.Fourier) float64 {
	if f.Idivf == 0 {
		return 1
	}
	return f.Idivf
}
