/*
 * clash.go, part of goFF.
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
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// LowestDistance returns the shortest distance between an atom of A and an
// atom of B, and the indexes of those atoms in A and B.
func LowestDistance(A, B *Structure) (dist float64, atoms [2]int) {
	dist = math.Inf(1)
	for i, a := range A.Atoms {
		for j, b := range B.Atoms {
			if d := r3.Norm(r3.Sub(a.Pos, b.Pos)); d < dist {
				dist = d
				atoms = [2]int{i, j}
			}
		}
	}
	return dist, atoms
}

// Closest returns the shortest distance between two atoms that come from
// different subsystems of C, and those atoms. It is +Inf if C has fewer than
// two non-empty subsystems.
func (C *Composed) Closest() (dist float64, atoms [2]int) {
	dist = math.Inf(1)
	for i := range C.Atoms {
		si := C.Subsystem(i)
		for j := C.end(si); j < len(C.Atoms); j++ {
			if d := r3.Norm(r3.Sub(C.Atoms[i].Pos, C.Atoms[j].Pos)); d < dist {
				dist = d
				atoms = [2]int{i, j}
			}
		}
	}
	return dist, atoms
}

// end returns the index just past the last atom of subsystem s.
func (C *Composed) end(s int) int {
	if s+1 < len(C.Offsets) {
		return C.Offsets[s+1]
	}
	return len(C.Atoms)
}
