/*
 * bonds.go, part of goFF.
 *
 *
 * Copyright 2021 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

package chem

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// constants from DOI:10.1186/1758-2946-3-33, in Angstrom
const (
	tooclose = 0.63
	bondtol  = 0.45
)

type candidate struct {
	i, j int
	dist float64
}

// AssignBonds adds single bonds between the atoms in the Builder based on a simple distance
// criterium, similar to that described in DOI:10.1186/1758-2946-3-33. Pairs that
// are already bonded are left as they are. Positions must be set, in nm.
func (B *Builder) AssignBonds() error {
	// might get slow for large systems. It's really not thought
	//for proteins or macromolecules, where templates should be used.
	tot := len(B.atoms)
	var found []candidate
	for i := 0; i < tot; i++ {
		at1 := B.atoms[i]
		cov1 := elements[at1.Symbol].covrad
		if cov1 == 0 {
			return newCError("AssignBonds", "Couldn't find the covalent radii  for %s %d", at1.Symbol, i)
		}
		for j := i + 1; j < tot; j++ {
			at2 := B.atoms[j]
			cov2 := elements[at2.Symbol].covrad
			if cov2 == 0 {
				return newCError("AssignBonds", "Couldn't find the covalent radii  for %s %d", at2.Symbol, j)
			}
			d := 10 * r3.Norm(r3.Sub(at2.Pos, at1.Pos)) //to Angstrom
			if d < cov1+cov2+bondtol && d > tooclose {
				found = append(found, candidate{i, j, d})
			}
		}
	}
	//Now we check that no atom has too many bonds, removing the longest ones.
	sort.SliceStable(found, func(a, b int) bool { return found[a].dist < found[b].dist })
	count := make([]int, tot)
	for _, b := range B.bonds {
		count[b.At1]++
		count[b.At2]++
	}
	for _, c := range found {
		if _, ok := B.bondIndex[sortedPair(c.i, c.j)]; ok {
			continue
		}
		max1 := elements[B.atoms[c.i].Symbol].maxbonds
		max2 := elements[B.atoms[c.j].Symbol].maxbonds
		if (max1 > 0 && count[c.i] >= max1) || (max2 > 0 && count[c.j] >= max2) {
			continue
		}
		if err := B.AddBond(c.i, c.j, 1); err != nil {
			return errDecorate(err, "AssignBonds")
		}
		count[c.i]++
		count[c.j]++
	}
	return nil
}

// FillImplicitHydrogens sets the implicit hydrogen count of every heavy atom
// to the difference between its default valence and the sum of its bond orders, corrected
// by the formal charge. Aromatic bonds count as 1.5. Atoms whose element has no
// tabulated valence are left untouched.
func (B *Builder) FillImplicitHydrogens() {
	sums := make([]float64, len(B.atoms))
	for _, b := range B.bonds {
		o := b.Order
		if b.Aromatic {
			o = 1.5
		}
		sums[b.At1] += o
		sums[b.At2] += o
	}
	for i := range B.atoms {
		a := &B.atoms[i]
		if a.Number == 1 {
			continue
		}
		bondsum := int(math.Ceil(sums[i] - 1e-6))
		charge := a.FormalCharge
		//N+ and O+ gain a bond, C- and N- lose one.
		if a.Symbol == "C" {
			charge = -int(math.Abs(float64(charge)))
		}
		val := defaultValence(a.Symbol, bondsum-charge)
		if val < 0 {
			continue
		}
		if h := val + charge - bondsum; h > 0 {
			a.ImplicitH = h
		} else {
			a.ImplicitH = 0
		}
	}
}
