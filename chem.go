/*
 * chem.go, part of goFF.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r3"
)

/**Note: Many functions here panic instead of returning errors. This is because they are "fundamental"
 * functions. If something goes wrong here, the program is way-most likely wrong and should
 * crash. Most panics are related to trying to access out-of bounds fields**/

// Stereo is a stereochemistry tag for atoms (tetrahedral) or bonds (double bond geometry).
type Stereo int8

const (
	StereoNone Stereo = iota
	StereoCCW         //"@" in SMILES
	StereoCW          //"@@" in SMILES
	StereoE
	StereoZ
)

// Atom contains the information for one node of the molecular graph.
type Atom struct {
	Index        int //set by the Builder.
	Symbol       string
	Number       int //atomic number
	FormalCharge int
	Aromatic     bool
	Stereo       Stereo
	ImplicitH    int
	Name         string
	MolName      string //residue name
	MolID        int    //residue number
	Chain        byte
	Pos          r3.Vec //nm
}

// Bond is one edge of the molecular graph. At1 is always smaller than At2.
type Bond struct {
	Index    int
	At1      int
	At2      int
	Order    float64 //Kekule order. Order 0 means undetermined
	Aromatic bool
	Stereo   Stereo
}

// Cross returns the atom at the other side of the bond from origin.
func (B Bond) Cross(origin int) int {
	if origin == B.At1 {
		return B.At2
	}
	if origin == B.At2 {
		return B.At1
	}
	panic("Trying to cross a bond: The origin atom given is not present in the bond!") //this got to be a programming error, so a panic is warranted.
}

/*****Builder type***/

// Builder collects atoms and bonds and produces an immutable Molecule.
// A Builder should not be reused after Build.
type Builder struct {
	atoms     []Atom
	bonds     []Bond
	bondIndex map[[2]int]int
	aromatic  bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{bondIndex: make(map[[2]int]int)}
}

// AddAtom appends a copy of a to the molecule under construction and returns its index.
// If the atomic number is not given, it is taken from the symbol.
func (B *Builder) AddAtom(a Atom) int {
	a.Index = len(B.atoms)
	if a.Number == 0 {
		a.Number = AtomicNumber(a.Symbol)
	}
	if a.Symbol == "" {
		a.Symbol = SymbolFromNumber(a.Number)
	}
	B.atoms = append(B.atoms, a)
	return a.Index
}

// AddBond adds a bond between atoms i and j with the given order.
func (B *Builder) AddBond(i, j int, order float64) error {
	return B.AddBondFull(Bond{At1: i, At2: j, Order: order})
}

// AddBondFull adds b to the molecule under construction. The atom indexes are
// reordered so At1<At2. Self bonds, repeated bonds and bonds to non-existent atoms
// are rejected.
func (B *Builder) AddBondFull(b Bond) error {
	if b.At1 > b.At2 {
		b.At1, b.At2 = b.At2, b.At1
	}
	if b.At1 == b.At2 {
		return newCError("AddBond", "atom %d can't be bonded to itself", b.At1)
	}
	if b.At1 < 0 || b.At2 >= len(B.atoms) {
		return newCError("AddBond", "bond %d-%d references a non-existent atom (%d atoms)", b.At1, b.At2, len(B.atoms))
	}
	key := [2]int{b.At1, b.At2}
	if _, ok := B.bondIndex[key]; ok {
		return newCError("AddBond", "repeated bond %d-%d", b.At1, b.At2)
	}
	b.Index = len(B.bonds)
	B.bondIndex[key] = b.Index
	B.bonds = append(B.bonds, b)
	return nil
}

// BondIndex returns the index of the bond between atoms i and j, if it has been added.
func (B *Builder) BondIndex(i, j int) (int, bool) {
	k, ok := B.bondIndex[sortedPair(i, j)]
	return k, ok
}

// PerceiveAromaticity asks the Builder to assign aromatic flags to
// atoms and bonds in 5- and 6-membered rings that satisfy the Hückel rule.
// Flags already present are kept.
func (B *Builder) PerceiveAromaticity() *Builder {
	B.aromatic = true
	return B
}

// Len returns the number of atoms added so far.
func (B *Builder) Len() int {
	return len(B.atoms)
}

// Build returns the immutable Molecule.
func (B *Builder) Build() (*Molecule, error) {
	M := &Molecule{
		atoms:  slices.Clone(B.atoms),
		bonds:  slices.Clone(B.bonds),
		bondAt: make(map[[2]int]int, len(B.bonds)),
	}
	M.adj = make([][]int, len(M.atoms))
	for _, b := range M.bonds {
		M.adj[b.At1] = append(M.adj[b.At1], b.At2)
		M.adj[b.At2] = append(M.adj[b.At2], b.At1)
		M.bondAt[[2]int{b.At1, b.At2}] = b.Index
	}
	for i := range M.adj {
		slices.Sort(M.adj[i])
	}
	M.perceiveRings()
	if B.aromatic {
		if err := M.perceiveAromaticity(); err != nil {
			return nil, errDecorate(err, "Build")
		}
	}
	M.g = simple.NewUndirectedGraph()
	for i := range M.atoms {
		M.g.AddNode(simple.Node(i))
	}
	for _, b := range M.bonds {
		M.g.SetEdge(M.g.NewEdge(simple.Node(b.At1), simple.Node(b.At2)))
	}
	return M, nil
}

/**Type Molecule**/

// Molecule is an immutable molecular graph: atoms, bonds and the ring information
// derived from them. Its identity is given by the atom and bond index sets.
// A Molecule is safe for concurrent use.
type Molecule struct {
	atoms     []Atom
	bonds     []Bond
	adj       [][]int
	bondAt    map[[2]int]int
	ringSize  []int //smallest ring containing each atom, 0 if none
	bondRing  []int //smallest ring containing each bond, 0 if none
	ringBonds []int //number of ring bonds per atom
	g         *simple.UndirectedGraph
}

// Len returns the number of atoms in the molecule.
func (M *Molecule) Len() int {
	return len(M.atoms)
}

// Atom returns a copy of the Atom with index i. Panics if out of range.
func (M *Molecule) Atom(i int) Atom {
	if i < 0 || i >= len(M.atoms) {
		panic(fmt.Sprintf("Molecule: Requested Atom %d out of bounds", i))
	}
	return M.atoms[i]
}

// NBonds returns the number of bonds.
func (M *Molecule) NBonds() int {
	return len(M.bonds)
}

// Bond returns a copy of the bond with index i. Panics if out of range.
func (M *Molecule) Bond(i int) Bond {
	return M.bonds[i]
}

// BondBetween returns the bond between atoms i and j, if any.
func (M *Molecule) BondBetween(i, j int) (Bond, bool) {
	if i > j {
		i, j = j, i
	}
	k, ok := M.bondAt[[2]int{i, j}]
	if !ok {
		return Bond{}, false
	}
	return M.bonds[k], true
}

// Neighbors returns the indexes of the atoms bonded to i, in increasing order.
// The returned slice must not be modified.
func (M *Molecule) Neighbors(i int) []int {
	return M.adj[i]
}

// Degree returns the number of explicit neighbors of atom i.
func (M *Molecule) Degree(i int) int {
	return len(M.adj[i])
}

// TotalH returns the number of hydrogens on atom i, explicit and implicit.
func (M *Molecule) TotalH(i int) int {
	h := M.atoms[i].ImplicitH
	for _, n := range M.adj[i] {
		if M.atoms[n].Number == 1 {
			h++
		}
	}
	return h
}

// Connectivity returns the total number of connections of atom i, including
// implicit hydrogens.
func (M *Molecule) Connectivity(i int) int {
	return len(M.adj[i]) + M.atoms[i].ImplicitH
}

// InRing returns true if atom i belongs to at least one ring.
func (M *Molecule) InRing(i int) bool {
	return M.ringSize[i] > 0
}

// SmallestRing returns the size of the smallest ring containing atom i, or 0.
func (M *Molecule) SmallestRing(i int) int {
	return M.ringSize[i]
}

// RingBondCount returns the number of ring bonds atom i takes part in.
func (M *Molecule) RingBondCount(i int) int {
	return M.ringBonds[i]
}

// BondInRing returns true if the bond with index b belongs to a ring.
func (M *Molecule) BondInRing(b int) bool {
	return M.bondRing[b] > 0
}

// Graph returns a gonum view of the molecular graph. Node IDs are atom indexes.
func (M *Molecule) Graph() graph.Undirected {
	return M.g
}

// Atoms returns a copy of all the atoms in the molecule.
func (M *Molecule) Atoms() []Atom {
	return slices.Clone(M.atoms)
}
