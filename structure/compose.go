/*
 * compose.go, part of goFF.
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
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Composed is a system built from several subsystems. Remaps[s][i] is the index
// in the composed system of atom i of subsystem s.
type Composed struct {
	*Structure
	Names   []string
	Offsets []int
	Remaps  [][]int
	//Overridden lists the subsystems whose electrostatics method or cutoff
	//differed from the first one's, which the system uses.
	Overridden []string
}

// Subsystem returns the index of the subsystem that atom i of the composed
// system comes from.
func (C *Composed) Subsystem(i int) int {
	k, found := slices.BinarySearch(C.Offsets, i)
	if found {
		//several empty subsystems can share an offset, take the last one.
		for k+1 < len(C.Offsets) && C.Offsets[k+1] == i {
			k++
		}
		return k
	}
	return k - 1
}

// Compose merges the given structures into one. Atoms are concatenated in
// argument order, so the order of the arguments decides the final numbering:
// atom i of models[s] becomes atom i+Offsets[s], where Offsets[s] is the
// number of atoms in models[0:s]. Compose([A,B]) and Compose([B,A]) contain
// the same atoms and terms, numbered differently.
// The inputs are not modified. Terms are not deduplicated. A term of a
// subsystem that refers to an atom outside of it, or subsystems with different
// 1-4 scaling or combining rules, give a *CompositionError. The system takes
// the electrostatics method and cutoff of the first subsystem; the subsystems
// that had others are listed in Overridden.
func Compose(models ...*Structure) (*Composed, error) {
	if len(models) == 0 {
		return nil, &CompositionError{Subsystem: -1, Msg: "no subsystems given"}
	}
	C := &Composed{Structure: &Structure{Nonbonded: models[0].Nonbonded}}
	names := make([]string, 0, len(models))
	offset := 0
	for s, m := range models {
		if m == nil {
			return nil, &CompositionError{Subsystem: s, Msg: "nil subsystem"}
		}
		if !m.Nonbonded.compatible(C.Nonbonded) {
			return nil, &CompositionError{Subsystem: s, Name: m.Name, Msg: fmt.Sprintf("nonbonded settings %+v differ from those of the first subsystem, %+v", m.Nonbonded, C.Nonbonded)}
		}
		if d := C.Nonbonded.differences(m.Nonbonded); len(d) > 0 {
			//copies of a subsystem are listed once
			if o := fmt.Sprintf("%s: %s", m.Name, strings.Join(d, ", ")); !slices.Contains(C.Overridden, o) {
				C.Overridden = append(C.Overridden, o)
			}
		}
		var err error
		m.Terms(func(term string, atoms []int) bool {
			for _, v := range atoms {
				if v < 0 || v >= m.Len() {
					err = &CompositionError{Subsystem: s, Name: m.Name, Term: term, Atoms: slices.Clone(atoms), Msg: fmt.Sprintf("atom %d is outside the subsystem, which has %d atoms", v, m.Len())}
					return false
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		remap := make([]int, m.Len())
		for i := range remap {
			remap[i] = i + offset
		}
		C.Remaps = append(C.Remaps, remap)
		C.Offsets = append(C.Offsets, offset)
		C.Names = append(C.Names, m.Name)
		names = append(names, m.Name)
		C.append(m, offset)
		offset += m.Len()
	}
	C.Name = strings.Join(names, "+")
	return C, nil
}

// append adds copies of the atoms and terms of m, shifted by off.
func (C *Composed) append(m *Structure, off int) {
	C.Atoms = append(C.Atoms, m.Atoms...)
	for _, b := range m.Bonds {
		b.Atoms = [2]int{b.Atoms[0] + off, b.Atoms[1] + off}
		C.Bonds = append(C.Bonds, b)
	}
	for _, a := range m.Angles {
		a.Atoms = [3]int{a.Atoms[0] + off, a.Atoms[1] + off, a.Atoms[2] + off}
		C.Angles = append(C.Angles, a)
	}
	shift4 := func(t [4]int) [4]int { return [4]int{t[0] + off, t[1] + off, t[2] + off, t[3] + off} }
	for _, t := range m.Propers {
		t.Atoms = shift4(t.Atoms)
		C.Propers = append(C.Propers, t)
	}
	for _, t := range m.Impropers {
		t.Atoms = shift4(t.Atoms)
		C.Impropers = append(C.Impropers, t)
	}
	for _, e := range m.Exceptions {
		e.Atoms = [2]int{e.Atoms[0] + off, e.Atoms[1] + off}
		C.Exceptions = append(C.Exceptions, e)
	}
	for _, v := range m.VirtualSites {
		parents := make([]int, len(v.Parents))
		for i, p := range v.Parents {
			parents[i] = p + off
		}
		C.VirtualSites = append(C.VirtualSites, VirtualSite{Site: v.Site + off, Parents: parents, Weights: slices.Clone(v.Weights)})
	}
}

// Centroid returns the geometric center of the atoms of S.
func (S *Structure) Centroid() r3.Vec {
	var c r3.Vec
	if len(S.Atoms) == 0 {
		return c
	}
	for _, a := range S.Atoms {
		c = r3.Add(c, a.Pos)
	}
	return r3.Scale(1/float64(len(S.Atoms)), c)
}

// Translate returns a copy of S with all atoms displaced by v.
func (S *Structure) Translate(v r3.Vec) *Structure {
	ret := S.Copy()
	for i := range ret.Atoms {
		ret.Atoms[i].Pos = r3.Add(ret.Atoms[i].Pos, v)
	}
	return ret
}

// Lattice returns n points of a cubic lattice with the given spacing (nm),
// starting at the origin and filling x first, then y, then z.
func Lattice(n int, spacing float64) []r3.Vec {
	if n <= 0 {
		return nil
	}
	side := int(math.Ceil(math.Cbrt(float64(n))))
	for side*side*side < n {
		side++ //float rounding
	}
	ret := make([]r3.Vec, 0, n)
	for k := 0; k < n; k++ {
		x, y, z := k%side, (k/side)%side, k/(side*side)
		ret = append(ret, r3.Scale(spacing, r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)}))
	}
	return ret
}

// Replicate returns n copies of S, with their centroids on the points of
// Lattice(n, spacing). The copies can then be given to Compose. S is not modified.
func Replicate(S *Structure, n int, spacing float64) []*Structure {
	return Place(S, Lattice(n, spacing))
}

// Place returns one copy of S centered on each of the given points.
func Place(S *Structure, points []r3.Vec) []*Structure {
	if len(points) == 0 {
		return nil
	}
	center := S.Centroid()
	ret := make([]*Structure, 0, len(points))
	for _, p := range points {
		ret = append(ret, S.Translate(r3.Sub(p, center)))
	}
	return ret
}
