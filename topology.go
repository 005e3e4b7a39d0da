/*
 * topology.go, part of goFF.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
 */

package chem

import (
	"slices"

	"gonum.org/v1/gonum/graph/topo"
)

//The functions here enumerate the bonded terms that any force field has to cover.
//All of them return tuples in their canonical orientation, sorted, so two calls
//on the same molecule always give the same order.

// CanonicalAngle returns the orientation of the angle i-j-k with i<k.
func CanonicalAngle(t [3]int) [3]int {
	if t[0] > t[2] {
		t[0], t[2] = t[2], t[0]
	}
	return t
}

// CanonicalTorsion returns whichever of i-j-k-l and l-k-j-i is lexicographically smaller.
func CanonicalTorsion(t [4]int) [4]int {
	r := [4]int{t[3], t[2], t[1], t[0]}
	if slices.Compare(r[:], t[:]) < 0 {
		return r
	}
	return t
}

// Pairs returns every bonded pair i<j.
func (M *Molecule) Pairs() [][2]int {
	ret := make([][2]int, 0, len(M.bonds))
	for _, b := range M.bonds {
		ret = append(ret, [2]int{b.At1, b.At2})
	}
	slices.SortFunc(ret, func(a, b [2]int) int { return slices.Compare(a[:], b[:]) })
	return ret
}

// Angles returns every i-j-k triad with i and k bonded to j, i<k.
func (M *Molecule) Angles() [][3]int {
	var ret [][3]int
	for j := range M.atoms {
		n := M.adj[j]
		for a := 0; a < len(n); a++ {
			for b := a + 1; b < len(n); b++ {
				ret = append(ret, [3]int{n[a], j, n[b]})
			}
		}
	}
	slices.SortFunc(ret, func(a, b [3]int) int { return slices.Compare(a[:], b[:]) })
	return ret
}

// Propers returns every proper torsion i-j-k-l in canonical orientation.
// Torsions where i==l (3-membered rings) are not included.
func (M *Molecule) Propers() [][4]int {
	seen := make(map[[4]int]bool)
	var ret [][4]int
	for _, b := range M.bonds {
		j, k := b.At1, b.At2
		for _, i := range M.adj[j] {
			if i == k {
				continue
			}
			for _, l := range M.adj[k] {
				if l == j || l == i {
					continue
				}
				t := CanonicalTorsion([4]int{i, j, k, l})
				if !seen[t] {
					seen[t] = true
					ret = append(ret, t)
				}
			}
		}
	}
	slices.SortFunc(ret, func(a, b [4]int) int { return slices.Compare(a[:], b[:]) })
	return ret
}

// ExclusionPairs returns the atom pairs separated by one or two bonds (excluded),
// and the pairs separated by exactly three bonds (1-4 pairs) that are not also 1-2 or 1-3
// pairs, as happens in small rings. Both slices have i<j and are sorted.
func (M *Molecule) ExclusionPairs() (excluded, pairs14 [][2]int) {
	near := make(map[[2]int]bool)
	for _, p := range M.Pairs() {
		near[p] = true
	}
	for _, a := range M.Angles() {
		near[sortedPair(a[0], a[2])] = true
	}
	far := make(map[[2]int]bool)
	for _, t := range M.Propers() {
		p := sortedPair(t[0], t[3])
		if !near[p] {
			far[p] = true
		}
	}
	for k := range near {
		excluded = append(excluded, k)
	}
	for k := range far {
		pairs14 = append(pairs14, k)
	}
	cmp := func(a, b [2]int) int { return slices.Compare(a[:], b[:]) }
	slices.SortFunc(excluded, cmp)
	slices.SortFunc(pairs14, cmp)
	return excluded, pairs14
}

// Fragments returns the connected components of the molecule, each as a sorted list
// of atom indexes. Fragments are sorted by their first atom.
func (M *Molecule) Fragments() [][]int {
	cc := topo.ConnectedComponents(M.g)
	ret := make([][]int, 0, len(cc))
	for _, c := range cc {
		f := make([]int, 0, len(c))
		for _, n := range c {
			f = append(f, int(n.ID()))
		}
		slices.Sort(f)
		ret = append(ret, f)
	}
	slices.SortFunc(ret, func(a, b []int) int { return a[0] - b[0] })
	return ret
}
