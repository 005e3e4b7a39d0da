/*
 * atomtype_test.go, part of goFF.
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

package atomtype

import (
	"errors"
	"strings"
	"testing"

	chem "github.com/rmera/goff"
	"github.com/rmera/goff/forcefield"
	"github.com/rmera/goff/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type resatom struct {
	name, res string
	id        int
	chain     byte
}

// cappedWater returns ACE-NME followed by one water, without bonds.
func cappedWater(Te *testing.T) *chem.Molecule {
	Te.Helper()
	atoms := []resatom{
		{"CH3", "ACE", 1, 'A'}, {"HH31", "ACE", 1, 'A'}, {"HH32", "ACE", 1, 'A'}, {"HH33", "ACE", 1, 'A'}, {"C", "ACE", 1, 'A'}, {"O", "ACE", 1, 'A'},
		{"N", "NME", 2, 'A'}, {"H", "NME", 2, 'A'}, {"CH3", "NME", 2, 'A'}, {"HH31", "NME", 2, 'A'}, {"HH32", "NME", 2, 'A'}, {"HH33", "NME", 2, 'A'},
		{"OW", "SOL", 3, 'W'}, {"HW1", "SOL", 3, 'W'}, {"HW2", "SOL", 3, 'W'},
	}
	B := chem.NewBuilder()
	for i, a := range atoms {
		B.AddAtom(chem.Atom{Symbol: a.name[:1], Name: a.name, MolName: a.res, MolID: a.id, Chain: a.chain, Pos: r3.Vec{X: 0.1 * float64(i)}})
	}
	mol, err := B.Build()
	require.NoError(Te, err)
	return mol
}

func readCapped(Te *testing.T) *FF {
	Te.Helper()
	F, err := ReadFile("testdata/capped.ff")
	require.NoError(Te, err)
	return F
}

func TestRead(Te *testing.T) {
	F := readCapped(Te)
	assert.Equal(Te, "lorentz-berthelot", F.Combining)
	assert.True(Te, F.GenPairs)
	assert.InDelta(Te, 0.5, F.FudgeLJ, 1e-12)
	assert.InDelta(Te, 0.8333, F.FudgeQQ, 1e-12)
	assert.Equal(Te, "PME", F.Method)
	assert.InDelta(Te, 1.0, F.Cutoff, 1e-12)
	assert.Len(Te, F.AtomTypes, 8)
	assert.Len(Te, F.BondTypes, 7)
	assert.Len(Te, F.AngleTypes, 10)
	//the two H-N-C-O lines are merged
	assert.Len(Te, F.Dihedrals, 6)
	require.Contains(Te, F.Templates, "ACE")
	ace := F.Templates["ACE"]
	assert.Len(Te, ace.Atoms, 6)
	assert.Equal(Te, [2]string{"C", "+N"}, ace.Bonds[5])
	assert.Equal(Te, [][4]string{{"C", "CH3", "+N", "O"}}, ace.Impropers)
	assert.Equal(Te, 8, F.AtomTypes["O"].Number)
}

func TestReadC6C12(Te *testing.T) {
	src := `[ defaults ]
1 1 no
[ atomtypes ]
CX 6 12.011 0.0 A 0.00247168 3.81826e-06
`
	F, err := Read(strings.NewReader(src), "c6c12")
	require.NoError(Te, err)
	assert.Equal(Te, "geometric", F.Combining)
	assert.False(Te, F.GenPairs)
	at := F.AtomTypes["CX"]
	assert.InDelta(Te, 0.34, at.Sigma, 1e-4)
	assert.InDelta(Te, 0.4, at.Epsilon, 1e-4)
}

func TestReadErrors(Te *testing.T) {
	cases := []struct {
		src  string
		line int
	}{
		{"CX 6 12.011 0.0 A 0.3 0.4\n", 1},
		{"[ atomtypes ]\nCX 6 12.011 0.0 A 0.3\n", 2},
		{"[ bondtypes ]\nC O 2 0.12 1000\n", 2},
		{"; comment\n[ dihedraltypes ]\nX C N X 3 0 1 2\n", 3},
		{"[ template ]\n", 1},
		{"[ template A ]\natom C CT 0\n[ template A ]\n", 3},
		{"[ template A ]\natom C CT 0\natom C CT 0\n", 3},
		{"[ foo ]\nbar\n", 2},
		{"[ nonbonded\n", 1},
	}
	for _, c := range cases {
		_, err := Read(strings.NewReader(c.src), "bad.ff")
		var lerr *forcefield.LoadError
		if assert.True(Te, errors.As(err, &lerr), c.src) {
			assert.Equal(Te, c.line, lerr.Line, c.src)
			assert.Equal(Te, "bad.ff", lerr.File)
		}
	}
	_, err := ReadFile("testdata/nothere.ff")
	var lerr *forcefield.LoadError
	assert.True(Te, errors.As(err, &lerr))
}

func TestApply(Te *testing.T) {
	F := readCapped(Te)
	mol := cappedWater(Te)
	S, err := F.Apply(mol, "capped")
	require.NoError(Te, err)
	require.Equal(Te, 15, S.Len())
	assert.Len(Te, S.Bonds, 13)
	assert.Len(Te, S.Angles, 19)

	//ACE C bonded to NME N through the +N template bond
	found := false
	for _, b := range S.Bonds {
		if b.Atoms == [2]int{4, 6} {
			found = true
			assert.InDelta(Te, 0.1335, b.Length, 1e-12)
		}
	}
	assert.True(Te, found)

	atom := S.Atoms[6]
	assert.Equal(Te, "N", atom.Type)
	assert.Equal(Te, "N", atom.Element)
	assert.Equal(Te, "NME", atom.Residue)
	assert.Equal(Te, 2, atom.ResID)
	assert.Equal(Te, "A", atom.Chain)
	assert.InDelta(Te, -0.4157, atom.Charge, 1e-12)
	assert.InDelta(Te, 14.0067, atom.Mass, 1e-12)
	assert.Equal(Te, structure.Tag("capped"), atom.Provenance)
	assert.Equal(Te, "W", S.Atoms[12].Chain)

	//6 HC-CT-C-X, 5 around the peptide bond (one torsion with two terms), 6 X-N-CT-HC
	require.Len(Te, S.Propers, 17)
	var ocnh []structure.Torsion
	for _, t := range S.Propers {
		if t.Atoms == [4]int{5, 4, 6, 7} {
			ocnh = append(ocnh, t)
		}
		if t.Atoms == [4]int{0, 4, 6, 8} {
			assert.Equal(Te, 2, t.Periodicity)
			assert.InDelta(Te, 10.46, t.K, 1e-12)
		}
	}
	//the exact entry wins over X-C-N-X, matched in reverse
	require.Len(Te, ocnh, 2)
	assert.Equal(Te, 2, ocnh[0].Periodicity)
	assert.Equal(Te, 1, ocnh[1].Periodicity)
	assert.InDelta(Te, 8.368, ocnh[1].K, 1e-12)

	require.Len(Te, S.Impropers, 1)
	imp := S.Impropers[0]
	assert.Equal(Te, [4]int{4, 0, 6, 5}, imp.Atoms)
	assert.InDelta(Te, 43.932, imp.K, 1e-12)
	assert.InDelta(Te, 180.0, imp.Phase, 1e-12)

	nexcl, n14 := 0, 0
	for _, e := range S.Exceptions {
		if e.Excluded() {
			nexcl++
			continue
		}
		n14++
		if e.Atoms == [2]int{5, 7} {
			assert.InDelta(Te, -0.5679*0.2719*0.8333, e.ChargeProd, 1e-12)
			assert.InDelta(Te, (0.295992+0.106908)/2, e.Sigma, 1e-12)
		}
	}
	assert.Equal(Te, 29+3, nexcl)
	assert.Equal(Te, 16, n14)
	assert.Equal(Te, "lorentz-berthelot", S.Nonbonded.Combining)
	assert.InDelta(Te, 0.5, S.Nonbonded.LJ14, 1e-12)
}

func TestApplyMissing(Te *testing.T) {
	F := readCapped(Te)
	mol := cappedWater(Te)

	var merr *MissingParameterError
	delete(F.Templates, "SOL")
	_, err := F.Apply(mol, "capped")
	require.True(Te, errors.As(err, &merr))
	assert.Equal(Te, "template", merr.What)
	assert.Equal(Te, "SOL", merr.Key)
	assert.Equal(Te, []int{12}, merr.Atoms)

	F = readCapped(Te)
	F.BondTypes = F.BondTypes[1:]
	_, err = F.Apply(mol, "capped")
	require.True(Te, errors.As(err, &merr))
	assert.Equal(Te, "bondtype", merr.What)
	assert.Equal(Te, "OW-HW", merr.Key)

	F = readCapped(Te)
	//keep the propers, drop the impropers
	F.Dihedrals = F.Dihedrals[:4]
	_, err = F.Apply(mol, "capped")
	require.True(Te, errors.As(err, &merr))
	assert.Equal(Te, "impropertype", merr.What)
	assert.Equal(Te, "C-CT-N-O", merr.Key)
	assert.Equal(Te, []int{4, 0, 6, 5}, merr.Atoms)

	F = readCapped(Te)
	delete(F.AtomTypes, "HW")
	_, err = F.Apply(mol, "capped")
	require.True(Te, errors.As(err, &merr))
	assert.Equal(Te, "atomtype", merr.What)
	assert.Equal(Te, []int{13}, merr.Atoms)
}

func TestApplyUnknownAtom(Te *testing.T) {
	F := readCapped(Te)
	B := chem.NewBuilder()
	B.AddAtom(chem.Atom{Symbol: "O", Name: "OW", MolName: "SOL", MolID: 1})
	B.AddAtom(chem.Atom{Symbol: "H", Name: "HW3", MolName: "SOL", MolID: 1})
	mol, err := B.Build()
	require.NoError(Te, err)
	_, err = F.Apply(mol, "w")
	var merr *MissingParameterError
	require.True(Te, errors.As(err, &merr))
	assert.Equal(Te, "atom", merr.What)
	assert.Equal(Te, "SOL:HW3", merr.Key)
}

func TestApplyTruncatedResidue(Te *testing.T) {
	//ACE without a following residue: the +N bond and the improper are skipped.
	F := readCapped(Te)
	B := chem.NewBuilder()
	for _, n := range []string{"CH3", "HH31", "HH32", "HH33", "C", "O"} {
		B.AddAtom(chem.Atom{Symbol: n[:1], Name: n, MolName: "ACE", MolID: 1, Chain: 'A'})
	}
	mol, err := B.Build()
	require.NoError(Te, err)
	S, err := F.Apply(mol, "ace")
	require.NoError(Te, err)
	assert.Len(Te, S.Bonds, 5)
	assert.Empty(Te, S.Impropers)
}
