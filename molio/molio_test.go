/*
 * molio_test.go, part of goFF.
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

package molio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tatom struct {
	sym     string
	x, y, z float64
	chg     int //atom block charge code
}

func molfile(title string, atoms []tatom, bonds [][3]int, extra ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n  goff-test\n\n", title)
	fmt.Fprintf(&b, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", len(atoms), len(bonds))
	for _, a := range atoms {
		fmt.Fprintf(&b, "%10.4f%10.4f%10.4f %-3s 0%3d  0  0  0  0  0  0  0  0  0  0\n", a.x, a.y, a.z, a.sym, a.chg)
	}
	for _, bo := range bonds {
		fmt.Fprintf(&b, "%3d%3d%3d  0\n", bo[0], bo[1], bo[2])
	}
	for _, e := range extra {
		b.WriteString(e + "\n")
	}
	b.WriteString("M  END\n")
	return b.String()
}

// benzene returns a benzene molfile. aromatic uses bond type 4 for the
// ring, otherwise the ring is Kekule.
func benzene(aromatic bool) string {
	var atoms []tatom
	var bonds [][3]int
	for i := 0; i < 6; i++ {
		t := float64(i) * math.Pi / 3
		atoms = append(atoms, tatom{sym: "C", x: 1.39 * math.Cos(t), y: 1.39 * math.Sin(t)})
	}
	for i := 0; i < 6; i++ {
		t := float64(i) * math.Pi / 3
		atoms = append(atoms, tatom{sym: "H", x: 2.47 * math.Cos(t), y: 2.47 * math.Sin(t)})
	}
	for i := 0; i < 6; i++ {
		order := 1 + (i+1)%2
		if aromatic {
			order = 4
		}
		bonds = append(bonds, [3]int{i + 1, (i+1)%6 + 1, order}, [3]int{i + 1, i + 7, 1})
	}
	return molfile("benzene", atoms, bonds)
}

func TestReadMolBenzene(Te *testing.T) {
	for _, aromatic := range []bool{false, true} {
		rec, err := ReadMol(strings.NewReader(benzene(aromatic)))
		require.NoError(Te, err)
		assert.Equal(Te, "benzene", rec.Name)
		mol := rec.Mol
		require.Equal(Te, 12, mol.Len())
		assert.Equal(Te, 12, mol.NBonds())
		for i := 0; i < 6; i++ {
			assert.True(Te, mol.Atom(i).Aromatic, "atom %d, bond type 4: %t", i, aromatic)
			assert.False(Te, mol.Atom(i+6).Aromatic)
			assert.Equal(Te, 6, mol.Atom(i).Number)
		}
		b, ok := mol.BondBetween(0, 1)
		require.True(Te, ok)
		assert.True(Te, b.Aromatic)
		//Angstrom to nm
		assert.InDelta(Te, 0.139, mol.Atom(0).Pos.X, 1e-6)
		assert.InDelta(Te, 0.247, mol.Atom(6).Pos.X, 1e-6)
	}
}

func acetate(extra ...string) string {
	atoms := []tatom{
		{sym: "C"}, {sym: "C", x: 1.52}, {sym: "O", x: 2.15, y: 1.08}, {sym: "O", x: 2.15, y: -1.08, chg: 5},
		{sym: "H", x: -0.36, y: 1.03}, {sym: "H", x: -0.36, y: -0.51, z: 0.89}, {sym: "H", x: -0.36, y: -0.51, z: -0.89},
	}
	bonds := [][3]int{{1, 2, 1}, {2, 3, 2}, {2, 4, 1}, {1, 5, 1}, {1, 6, 1}, {1, 7, 1}}
	return molfile("acetate", atoms, bonds, extra...)
}

func TestCharges(Te *testing.T) {
	rec, err := ReadMol(strings.NewReader(acetate()))
	require.NoError(Te, err)
	assert.Equal(Te, -1, rec.Mol.Atom(3).FormalCharge, "charge code 5 in the atom block")
	assert.Zero(Te, rec.Mol.Atom(2).FormalCharge)

	//a CHG line supersedes the atom block
	rec, err = ReadMol(strings.NewReader(acetate("M  CHG  1   3  -1")))
	require.NoError(Te, err)
	assert.Equal(Te, -1, rec.Mol.Atom(2).FormalCharge)
	assert.Zero(Te, rec.Mol.Atom(3).FormalCharge)

	rec, err = ReadMol(strings.NewReader(acetate("M  CHG  2   1   1   3  -1")))
	require.NoError(Te, err)
	assert.Equal(Te, 1, rec.Mol.Atom(0).FormalCharge)
	assert.Equal(Te, -1, rec.Mol.Atom(2).FormalCharge)
}

func TestReadSDF(Te *testing.T) {
	sdf := benzene(false) + "> <PUBCHEM_COMPOUND_CID>\n241\n\n> <SYNONYMS>\nbenzol\ncyclohexatriene\n\n$$$$\n" +
		acetate() + "$$$$\n\n"
	recs, err := ReadSDF(strings.NewReader(sdf))
	require.NoError(Te, err)
	require.Len(Te, recs, 2)
	assert.Equal(Te, "benzene", recs[0].Name)
	assert.Equal(Te, "241", recs[0].Data["PUBCHEM_COMPOUND_CID"])
	assert.Equal(Te, "benzol\ncyclohexatriene", recs[0].Data["SYNONYMS"])
	assert.Equal(Te, "acetate", recs[1].Name)
	assert.Equal(Te, 7, recs[1].Mol.Len())
	assert.Empty(Te, recs[1].Data)
}

func TestMDLErrors(Te *testing.T) {
	v3000 := strings.Replace(acetate(), "V2000", "V3000", 1)
	lines := strings.Split(acetate(), "\n")
	tests := []struct {
		name string
		in   string
		line int
		msg  string
	}{
		{"V3000", v3000, 4, "V3000"},
		{"truncated atoms", strings.Join(lines[:7], "\n"), 7, "expected 7 atoms"},
		{"no M END", strings.Join(lines[:17], "\n"), 17, "M  END"},
		{"unknown element", strings.Replace(acetate(), " O  ", " Xx ", 1), 7, "unknown element"},
		{"query bond", strings.Replace(acetate(), "  2  3  2  0", "  2  3  8  0", 1), 13, "query bond"},
		{"bad charge line", acetate("M  CHG  2   3  -1"), 18, "charge line"},
	}
	for _, t := range tests {
		_, err := ReadMol(strings.NewReader(t.in))
		var ferr *FormatError
		require.True(Te, errors.As(err, &ferr), t.name)
		assert.Equal(Te, t.line, ferr.Line, t.name)
		assert.Contains(Te, ferr.Error(), t.msg, t.name)
	}
	_, err := ReadMol(strings.NewReader("\n\n"))
	assert.Error(Te, err)
}

const acetateWater = `COMPND    ACETATE IN WATER
HETATM    1  C1  ACT A   1       0.000   0.000   0.000  1.00  0.00           C
HETATM    2  C2  ACT A   1       1.520   0.000   0.000  1.00  0.00           C
HETATM    3  O1  ACT A   1       2.150   1.080   0.000  1.00  0.00           O
HETATM    4  O2  ACT A   1       2.150  -1.080   0.000  1.00  0.00           O1-
HETATM    5  H1  ACT A   1      -0.360   1.030   0.000  1.00  0.00           H
HETATM    6  H2  ACT A   1      -0.360  -0.510   0.890  1.00  0.00           H
HETATM    7  H3  ACT A   1      -0.360  -0.510  -0.890  1.00  0.00           H
TER
HETATM    8  O   HOH W   2       5.000   5.000   5.000  1.00  0.00
HETATM    9  H1  HOH W   2       5.957   5.000   5.000  1.00  0.00
HETATM   10  H2  HOH W   2       4.760   5.927   5.000  1.00  0.00
CONECT    1    2    5    6    7
CONECT    2    1    3    4
CONECT    3    2
CONECT    4    2
CONECT    5    1
CONECT    6    1
CONECT    7    1
END
HETATM   11  NA  ION I   3       0.000   0.000   0.000  1.00  0.00
`

func TestReadPDB(Te *testing.T) {
	rec, err := ReadPDB(strings.NewReader(acetateWater))
	require.NoError(Te, err)
	assert.Equal(Te, "ACETATE IN WATER", rec.Name)
	mol := rec.Mol
	require.Equal(Te, 10, mol.Len(), "nothing is read after END")
	assert.Equal(Te, 6, mol.NBonds(), "CONECT bonds are listed from both ends")
	o2 := mol.Atom(3)
	assert.Equal(Te, "O2", o2.Name)
	assert.Equal(Te, "ACT", o2.MolName)
	assert.Equal(Te, 1, o2.MolID)
	assert.Equal(Te, byte('A'), o2.Chain)
	assert.Equal(Te, -1, o2.FormalCharge)
	assert.InDelta(Te, 0.215, o2.Pos.X, 1e-9)
	assert.InDelta(Te, -0.108, o2.Pos.Y, 1e-9)
	w := mol.Atom(8)
	assert.Equal(Te, "H", w.Symbol, "guessed from the name")
	assert.Equal(Te, "HOH", w.MolName)
	assert.Equal(Te, byte('W'), w.Chain)
	assert.Empty(Te, mol.Neighbors(7))
	assert.Equal(Te, []int{1, 4, 5, 6}, mol.Neighbors(0))
}

func TestPDBDistanceBonds(Te *testing.T) {
	var b strings.Builder
	for _, line := range strings.SplitAfter(acetateWater, "\n") {
		if !strings.HasPrefix(line, "CONECT") {
			b.WriteString(line)
		}
	}
	rec, err := ReadPDB(strings.NewReader(b.String()))
	require.NoError(Te, err)
	mol := rec.Mol
	assert.Equal(Te, 8, mol.NBonds())
	assert.Equal(Te, []int{1, 4, 5, 6}, mol.Neighbors(0))
	assert.Equal(Te, []int{8, 9}, mol.Neighbors(7))
	_, ok := mol.BondBetween(8, 9)
	assert.False(Te, ok)
}

func TestPDBErrors(Te *testing.T) {
	_, err := ReadPDB(strings.NewReader("REMARK nothing here\nEND\n"))
	assert.Error(Te, err)
	_, err = ReadPDB(strings.NewReader(strings.Replace(acetateWater, "CONECT    3    2", "CONECT    3   12", 1)))
	var ferr *FormatError
	require.True(Te, errors.As(err, &ferr))
	assert.Equal(Te, 15, ferr.Line)
	_, err = ReadPDB(strings.NewReader(strings.Replace(acetateWater, "   2.150   1.080", "   2.1x0   1.080", 1)))
	require.True(Te, errors.As(err, &ferr))
	assert.Equal(Te, 4, ferr.Line)
}

func TestSymbolFromName(Te *testing.T) {
	for name, sym := range map[string]string{
		"CA": "C", "CB": "C", "HG21": "H", "1HB": "H", "NZ": "N", "OXT": "O", "SG": "S",
		"ZN": "Zn", "CL": "Cl", "NA": "Na", "SE": "Se", "P": "P",
	} {
		s, err := symbolFromName(name)
		require.NoError(Te, err, name)
		assert.Equal(Te, sym, s, name)
	}
	_, err := symbolFromName("XX")
	assert.Error(Te, err)
}

func TestReadFile(Te *testing.T) {
	dir := Te.TempDir()
	sdf := filepath.Join(dir, "ligands.sdf")
	require.NoError(Te, os.WriteFile(sdf, []byte(benzene(true)+"$$$$\n"+acetate()+"$$$$\n"), 0o644))
	recs, err := ReadFile(sdf)
	require.NoError(Te, err)
	assert.Len(Te, recs, 2)

	enc, err := zstd.NewWriter(nil)
	require.NoError(Te, err)
	zst := filepath.Join(dir, "solvated.PDB.zst")
	require.NoError(Te, os.WriteFile(zst, enc.EncodeAll([]byte(acetateWater), nil), 0o644))
	mol, err := ReadMolecule(zst)
	require.NoError(Te, err)
	assert.Equal(Te, 10, mol.Len())

	bad := filepath.Join(dir, "broken.mol")
	require.NoError(Te, os.WriteFile(bad, []byte(strings.Replace(acetate(), "V2000", "V3000", 1)), 0o644))
	_, err = ReadFile(bad)
	var ferr *FormatError
	require.True(Te, errors.As(err, &ferr))
	assert.Equal(Te, bad, ferr.File)
	assert.Contains(Te, ferr.Decorate(""), "ReadFile")

	_, err = ReadFile(filepath.Join(dir, "water.xyz"))
	assert.Error(Te, err)
}
