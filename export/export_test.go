/*
 * export_test.go, part of goFF.
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

package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/goff/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var nonbonded = structure.Nonbonded{Coulomb14: 1 / 1.2, LJ14: 0.5, Combining: "lorentz-berthelot", Method: "PME", Cutoff: 0.9}

// alkane returns a linear chain of n carbons with bonds, angles, propers,
// exclusions and 1-4 exceptions.
func alkane(name string, n int) *structure.Structure {
	S := &structure.Structure{Name: name, Nonbonded: nonbonded}
	for i := 0; i < n; i++ {
		q := 0.1 * float64(i+1)
		if i%2 == 1 {
			q = -q
		}
		S.Atoms = append(S.Atoms, structure.Atom{
			Name:       fmt.Sprintf("C%d", i+1),
			Element:    "C",
			Type:       "c3",
			Residue:    "ALK",
			ResID:      1,
			Chain:      "A",
			Pos:        r3.Vec{X: 0.1234567 * float64(i), Y: 0.05, Z: -0.2},
			Mass:       12.011,
			Charge:     q,
			Sigma:      0.339967,
			Epsilon:    0.45773,
			Provenance: structure.Tag(name),
		})
	}
	for i := 0; i+1 < n; i++ {
		S.Bonds = append(S.Bonds, structure.Bond{Atoms: [2]int{i, i + 1}, K: 265265.6, Length: 0.1526})
		S.Exceptions = append(S.Exceptions, structure.Exception{Atoms: [2]int{i, i + 1}})
	}
	for i := 0; i+2 < n; i++ {
		S.Angles = append(S.Angles, structure.Angle{Atoms: [3]int{i, i + 1, i + 2}, K: 418.4, Angle: 109.5})
		S.Exceptions = append(S.Exceptions, structure.Exception{Atoms: [2]int{i, i + 2}})
	}
	for i := 0; i+3 < n; i++ {
		S.Propers = append(S.Propers, structure.Torsion{Atoms: [4]int{i, i + 1, i + 2, i + 3}, Periodicity: 3, K: 0.6508})
		a, b := S.Atoms[i], S.Atoms[i+3]
		S.Exceptions = append(S.Exceptions, structure.Exception{Atoms: [2]int{i, i + 3}, ChargeProd: a.Charge * b.Charge * nonbonded.Coulomb14, Sigma: 0.339967, Epsilon: 0.5 * 0.45773})
	}
	return S
}

// tip4p returns a 4-site water with a virtual site.
func tip4p(name string) *structure.Structure {
	S := &structure.Structure{Name: name, Nonbonded: nonbonded}
	add := func(n, el, typ string, pos r3.Vec, mass, q, sigma, eps float64) {
		S.Atoms = append(S.Atoms, structure.Atom{Name: n, Element: el, Type: typ, Residue: "HOH", ResID: 2, Chain: "W", Pos: pos, Mass: mass, Charge: q, Sigma: sigma, Epsilon: eps, Provenance: structure.Tag(name)})
	}
	add("OW", "O", "ow", r3.Vec{X: 1}, 15.9994, 0, 0.315365, 0.648520)
	add("HW1", "H", "hw", r3.Vec{X: 1.09572}, 1.008, 0.52, 0, 0)
	add("HW2", "H", "hw", r3.Vec{X: 0.97600, Y: 0.09267}, 1.008, 0.52, 0, 0)
	add("MW", "", "mw", r3.Vec{X: 1.01}, 0, -1.04, 0, 0)
	S.Bonds = []structure.Bond{{Atoms: [2]int{0, 1}, K: 502416, Length: 0.09572}, {Atoms: [2]int{0, 2}, K: 502416, Length: 0.09572}}
	S.Angles = []structure.Angle{{Atoms: [3]int{1, 0, 2}, K: 628.02, Angle: 104.52}}
	S.Exceptions = []structure.Exception{{Atoms: [2]int{0, 1}}, {Atoms: [2]int{0, 2}}, {Atoms: [2]int{0, 3}}, {Atoms: [2]int{1, 2}}, {Atoms: [2]int{1, 3}}, {Atoms: [2]int{2, 3}}}
	S.VirtualSites = []structure.VirtualSite{{Site: 3, Parents: []int{0, 1, 2}, Weights: []float64{0.786646558, 0.106676721, 0.106676721}}}
	return S
}

func system(Te *testing.T) *structure.Composed {
	Te.Helper()
	A := alkane("butane", 4)
	A.Impropers = []structure.Torsion{{Atoms: [4]int{1, 0, 2, 3}, Periodicity: 2, Phase: 180, K: 4.6}}
	C, err := structure.Compose(A, tip4p("water"))
	require.NoError(Te, err)
	return C
}

func TestTargets(Te *testing.T) {
	for _, t := range Targets() {
		p, err := ParseTarget(strings.ToUpper(string(t)))
		require.NoError(Te, err)
		assert.Equal(Te, t, p)
	}
	var uerr *UnsupportedTermError
	_, err := ParseTarget("amber")
	require.True(Te, errors.As(err, &uerr))
	assert.Empty(Te, uerr.Term)

	_, err = Export(system(Te), Target("amber"))
	require.True(Te, errors.As(err, &uerr))
	assert.Equal(Te, "amber", uerr.Target)
	assert.Empty(Te, uerr.Term)
	assert.True(Te, PQR.Supports("bond"))
	assert.False(Te, PQR.Supports("improper"))
	assert.True(Te, Gromacs.Supports("virtual site"))
}

func TestPQRRejectsImpropers(Te *testing.T) {
	S := &structure.Structure{Name: "imp", Nonbonded: nonbonded}
	for i := 0; i < 4; i++ {
		S.Atoms = append(S.Atoms, structure.Atom{Name: fmt.Sprint("C", i), Element: "C"})
	}
	S.Bonds = []structure.Bond{{Atoms: [2]int{0, 1}}, {Atoms: [2]int{0, 2}}, {Atoms: [2]int{0, 3}}}
	S.Impropers = []structure.Torsion{{Atoms: [4]int{0, 1, 2, 3}, Periodicity: 2, Phase: 180, K: 1}}
	C, err := structure.Compose(S)
	require.NoError(Te, err)
	out, err := Export(C, PQR)
	assert.Nil(Te, out)
	var uerr *UnsupportedTermError
	require.True(Te, errors.As(err, &uerr))
	assert.Equal(Te, "pqr", uerr.Target)
	assert.Equal(Te, "improper", uerr.Term)
	assert.Equal(Te, []int{0, 1, 2, 3}, uerr.Atoms)

	//the same system is fine for the other targets
	_, err = Export(C, Gromacs)
	assert.NoError(Te, err)

	//the first unsupported term is reported
	_, err = Export(system(Te), PQR)
	require.True(Te, errors.As(err, &uerr))
	assert.Equal(Te, "angle", uerr.Term)
	assert.Equal(Te, []int{0, 1, 2}, uerr.Atoms)
}

func TestPQR(Te *testing.T) {
	S := alkane("ethane", 2)
	S.Exceptions = nil
	C, err := structure.Compose(S)
	require.NoError(Te, err)
	out, err := Export(C, PQR)
	require.NoError(Te, err)
	require.Len(Te, out.Files, 1)
	assert.Equal(Te, "ethane.pqr", out.Files[0].Name)
	lines := strings.Split(string(out.Files[0].Data), "\n")
	var atoms, conect []string
	for _, l := range lines {
		if strings.HasPrefix(l, "ATOM") {
			atoms = append(atoms, l)
		}
		if strings.HasPrefix(l, "CONECT") {
			conect = append(conect, l)
		}
	}
	require.Len(Te, atoms, 2)
	f := strings.Fields(atoms[1])
	assert.Equal(Te, []string{"ATOM", "2", "C2", "ALK", "A", "1", "1.235", "0.500", "-2.000", "-0.2000", "1.9080"}, f)
	assert.Equal(Te, []string{"CONECT    1    2", "CONECT    2    1"}, conect)
}

func TestPotentialRoundTrip(Te *testing.T) {
	C := system(Te)
	for _, compress := range []bool{false, true} {
		out, err := Export(C, Potential, Compressed(compress), WithBaseName("mix"))
		require.NoError(Te, err)
		require.Len(Te, out.Files, 1)
		require.NotNil(Te, out.Potential)
		data := out.Files[0].Data
		if compress {
			assert.Equal(Te, "mix.json.zst", out.Files[0].Name)
			assert.True(Te, bytes.HasPrefix(data, zstdMagic))
		} else {
			assert.Equal(Te, "mix.json", out.Files[0].Name)
		}
		back, err := ImportPotential(data)
		require.NoError(Te, err)
		assert.Equal(Te, C, back)
		assert.Equal(Te, structure.Tag("water"), back.Atoms[5].Provenance)
	}
}

func TestPotentialErrors(Te *testing.T) {
	_, err := ImportPotential([]byte("{"))
	assert.Error(Te, err)
	_, err = ImportPotential([]byte(`{"format":"something else"}`))
	assert.Error(Te, err)
	P := NewPotentialSpec(system(Te))
	P.Subsystems[1].Len = 2
	_, err = P.Composed()
	assert.Error(Te, err)
	P = NewPotentialSpec(system(Te))
	P.Bonds[0].Atoms = [2]int{0, 99}
	_, err = P.Composed()
	var merr *structure.ModelError
	assert.True(Te, errors.As(err, &merr))
}

func TestPotentialVirtualSitesCopied(Te *testing.T) {
	C := system(Te)
	require.Len(Te, C.VirtualSites, 1)
	parent, weight := C.VirtualSites[0].Parents[0], C.VirtualSites[0].Weights[0]
	P := NewPotentialSpec(C)
	P.VirtualSites[0].Parents[0] = 0
	P.VirtualSites[0].Weights[0] = 1
	assert.Equal(Te, parent, C.VirtualSites[0].Parents[0])
	assert.Equal(Te, weight, C.VirtualSites[0].Weights[0])

	P = NewPotentialSpec(C)
	back, err := P.Composed()
	require.NoError(Te, err)
	back.VirtualSites[0].Parents[0] = 0
	back.VirtualSites[0].Weights[0] = 1
	assert.Equal(Te, parent, P.VirtualSites[0].Parents[0])
	assert.Equal(Te, weight, P.VirtualSites[0].Weights[0])
}

// sections returns the data lines of each section of a Gromacs topology.
func sections(top string) map[string][]string {
	ret := make(map[string][]string)
	cur := ""
	for _, l := range strings.Split(top, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, ";") {
			continue
		}
		if strings.HasPrefix(l, "[") {
			cur = strings.TrimSpace(strings.Trim(l, "[]"))
			continue
		}
		ret[cur] = append(ret[cur], l)
	}
	return ret
}

func TestGromacs(Te *testing.T) {
	C := system(Te)
	//an exception whose charge product can't be derived from fudgeQQ
	C.Exceptions[len(C.Exceptions)-7].ChargeProd = 0.02
	out, err := Export(C, Gromacs)
	require.NoError(Te, err)
	require.Len(Te, out.Files, 2)
	assert.Equal(Te, "butane+water.top", out.Files[0].Name)
	assert.Equal(Te, "butane+water.gro", out.Files[1].Name)
	top := string(out.Files[0].Data)
	s := sections(top)
	assert.Equal(Te, []string{"1 2 no 0.5000000000 0.8333333333"}, s["defaults"])
	require.Len(Te, s["atomtypes"], 4)
	assert.Equal(Te, "c3", strings.Fields(s["atomtypes"][0])[0])
	assert.Equal(Te, []string{"mw", "0", "0.00000", "0.0000", "V", "0.000000e+00", "0.000000e+00"}, strings.Fields(s["atomtypes"][3]))
	assert.Len(Te, s["atoms"], 8)
	assert.Equal(Te, []string{"5", "ow", "2", "HOH", "OW", "5", "0.00000000", "15.99940"}, strings.Fields(s["atoms"][4]))
	assert.Len(Te, s["bonds"], 3+2)
	assert.Equal(Te, []string{"5", "6", "1", "0.095720", "502416.000000"}, strings.Fields(s["bonds"][3]))
	assert.Len(Te, s["angles"], 2+1)
	require.Len(Te, s["dihedrals"], 2)
	assert.Equal(Te, []string{"1", "2", "3", "4", "9", "0.000000", "0.650800", "3"}, strings.Fields(s["dihedrals"][0]))
	//central atom (2) third
	assert.Equal(Te, []string{"1", "3", "2", "4", "4", "180.000000", "4.600000", "2"}, strings.Fields(s["dihedrals"][1]))
	require.Len(Te, s["pairs"], 1)
	p := strings.Fields(s["pairs"][0])
	assert.Equal(Te, []string{"1", "4", "2"}, p[:3])
	//0.1*-0.4*fudge = 0.02
	assert.Equal(Te, "-0.5000000000", p[3])
	//every exception is an exclusion
	assert.Len(Te, s["exclusions"], 6+6)
	assert.Equal(Te, []string{"8 3 5 0.786647 6 0.106677 7 0.106677"}, []string{strings.Join(strings.Fields(s["virtual_sitesn"][0]), " ")})
	assert.Equal(Te, []string{"butane+water 0"}, s["moleculetype"])
	assert.Equal(Te, []string{"butane+water 1"}, s["molecules"])
	assert.Contains(Te, top, "cutoff: 0.9000 nm")

	gro := strings.Split(strings.TrimRight(string(out.Files[1].Data), "\n"), "\n")
	require.Len(Te, gro, 8+3)
	assert.Equal(Te, "butane+water", gro[0])
	assert.Equal(Te, "    8", gro[1])
	assert.Equal(Te, "    1ALK     C2    2   0.123   0.050  -0.200", gro[3])
	box := strings.Fields(gro[10])
	assert.Equal(Te, []string{"2.89572", "1.89267", "2.00000"}, box)
}

func TestGromacsPairs(Te *testing.T) {
	C := system(Te)
	out, err := Export(C, Gromacs)
	require.NoError(Te, err)
	p := strings.Fields(sections(string(out.Files[0].Data))["pairs"][0])
	assert.Equal(Te, []string{"1", "4", "1", "3.399670e-01", "2.288650e-01"}, p)

	//a charge product between uncharged atoms can't be written
	C.Atoms[0].Charge = 0
	_, err = Export(C, Gromacs)
	var uerr *UnsupportedTermError
	require.True(Te, errors.As(err, &uerr))
	assert.Equal(Te, "exception", uerr.Term)
	assert.Equal(Te, []int{0, 3}, uerr.Atoms)
}

func TestGromacsTypeClash(Te *testing.T) {
	A := alkane("a", 2)
	B := alkane("b", 2)
	for i := range B.Atoms {
		B.Atoms[i].Sigma = 0.35
	}
	C, err := structure.Compose(A, B)
	require.NoError(Te, err)
	out, err := Export(C, Gromacs)
	require.NoError(Te, err)
	s := sections(string(out.Files[0].Data))
	require.Len(Te, s["atomtypes"], 2)
	assert.Equal(Te, "c3_2", strings.Fields(s["atomtypes"][1])[0])
	assert.Equal(Te, "c3_2", strings.Fields(s["atoms"][3])[1])
}

func TestSave(Te *testing.T) {
	out, err := Export(system(Te), Gromacs, WithBaseName("out"))
	require.NoError(Te, err)
	dir := filepath.Join(Te.TempDir(), "sub")
	paths, err := out.Save(dir)
	require.NoError(Te, err)
	require.Len(Te, paths, 2)
	data, err := os.ReadFile(filepath.Join(dir, "out.gro"))
	require.NoError(Te, err)
	assert.Equal(Te, out.Files[1].Data, data)
}
