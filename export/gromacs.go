/*
 * gromacs.go, part of goFF.
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
	"fmt"
	"math"
	"strings"

	chem "github.com/rmera/goff"
	"github.com/rmera/goff/structure"
)

var sf func(string, ...any) string = fmt.Sprintf

// groer is anything that can be written as a line of a Gromacs topology.
type groer interface {
	ToGro() (string, error)
}

func printGro[G ~[]E, E groer](r *strings.Builder, header string, g G) error {
	if len(g) == 0 {
		return nil
	}
	r.WriteString(sf("\n[ %s ]\n", header))
	for _, v := range g {
		m, e := v.ToGro()
		if e != nil {
			return e
		}
		r.WriteString(m)
	}
	return nil
}

type groAtomType struct {
	name    string
	number  int
	mass    float64
	ptype   string
	sigma   float64
	epsilon float64
}

func (A groAtomType) ToGro() (string, error) {
	return sf("%-10s %3d %10.5f %8.4f %1s %14.6e %14.6e\n", A.name, A.number, A.mass, 0.0, A.ptype, A.sigma, A.epsilon), nil
}

type groAtom struct {
	nr      int
	typ     string
	resnr   int
	residue string
	name    string
	charge  float64
	mass    float64
}

func (A groAtom) ToGro() (string, error) {
	return sf("%6d %-10s %5d %-5s %-5s %6d %12.8f %10.5f\n", A.nr, A.typ, A.resnr, A.residue, A.name, A.nr, A.charge, A.mass), nil
}

// groTerm is a bonded term with 0-based atom indexes.
type groTerm struct {
	atoms  []int
	fn     int
	params []float64
	mult   int //multiplicity, for dihedrals
}

func (T groTerm) ToGro() (string, error) {
	ret := make([]string, 0, len(T.atoms)+len(T.params)+2)
	for _, v := range T.atoms {
		ret = append(ret, sf("%6d", v+1))
	}
	ret = append(ret, sf("%2d", T.fn))
	for _, v := range T.params {
		ret = append(ret, sf("%14.6f", v))
	}
	if T.mult > 0 {
		ret = append(ret, sf("%2d", T.mult))
	}
	return strings.Join(ret, " ") + "\n", nil
}

// groPair is a [ pairs ] line. Func 1 takes the charge product from the
// charges and fudgeQQ. Func 2 carries its own fudge factor and charges.
type groPair struct {
	atoms          [2]int
	fn             int
	fudge, qi, qj  float64
	sigma, epsilon float64
}

func (P groPair) ToGro() (string, error) {
	if P.fn == 1 {
		return sf("%6d %6d  1 %14.6e %14.6e\n", P.atoms[0]+1, P.atoms[1]+1, P.sigma, P.epsilon), nil
	}
	return sf("%6d %6d  2 %14.10f %12.8f %12.8f %14.6e %14.6e\n", P.atoms[0]+1, P.atoms[1]+1, P.fudge, P.qi, P.qj, P.sigma, P.epsilon), nil
}

type exclusion [2]int

func (e exclusion) ToGro() (string, error) {
	return sf("%6d %6d\n", e[0]+1, e[1]+1), nil
}

type groVSite structure.VirtualSite

func (V groVSite) ToGro() (string, error) {
	if len(V.Parents) != len(V.Weights) {
		return "", fmt.Errorf("export: virtual site %d has %d parents and %d weights", V.Site, len(V.Parents), len(V.Weights))
	}
	ret := []string{sf("%6d", V.Site+1), " 3"}
	for i, v := range V.Parents {
		ret = append(ret, sf("%6d %10.6f", v+1, V.Weights[i])) //each couple is an atom and a weight
	}
	return strings.Join(ret, " ") + "\n", nil
}

// combRule returns the Gromacs comb-rule for the combining rule name.
func combRule(name string) int {
	if name == "geometric" {
		return 3
	}
	return 2
}

// atomTypes returns one Gromacs atom type per distinct combination of type
// name, element, sigma, epsilon and particle type, and the type name to use for
// each atom. When a type name is used with different parameters, as can happen
// after composing subsystems parametrized with different force fields, the
// later combinations get a numeric suffix.
func atomTypes(S *structure.Composed) ([]groAtomType, []string) {
	vsites := make(map[int]bool)
	for _, v := range S.VirtualSites {
		vsites[v.Site] = true
	}
	var types []groAtomType
	index := make(map[groAtomType]int)
	byname := make(map[string]int)
	names := make([]string, len(S.Atoms))
	for i, a := range S.Atoms {
		t := groAtomType{name: a.Type, number: chem.AtomicNumber(a.Element), mass: a.Mass, ptype: "A", sigma: a.Sigma, epsilon: a.Epsilon}
		if vsites[i] {
			t.ptype = "V"
		}
		if t.name == "" {
			t.name = a.Element
		}
		key := t
		key.mass = 0 //masses go in [ atoms ]
		k, ok := index[key]
		if !ok {
			if n := byname[key.name]; n > 0 {
				t.name = sf("%s_%d", key.name, n+1)
			}
			byname[key.name]++
			k = len(types)
			index[key] = k
			types = append(types, t)
		}
		names[i] = types[k].name
	}
	return types, names
}

func groTop(S *structure.Composed) ([]byte, error) {
	var r strings.Builder
	nb := S.Nonbonded
	name := BaseName(S.Name)
	r.WriteString(sf("; %s\n; written by goFF. Nonbonded method: %s, cutoff: %.4f nm\n", S.Name, nb.Method, nb.Cutoff))
	for s, n := range S.Names {
		r.WriteString(sf("; subsystem %d: %s, atoms %d-%d\n", s, n, S.Offsets[s]+1, S.Offsets[s]+len(S.Remaps[s])))
	}
	r.WriteString("\n[ defaults ]\n; nbfunc comb-rule gen-pairs fudgeLJ fudgeQQ\n")
	r.WriteString(sf("1 %d no %.10f %.10f\n", combRule(nb.Combining), nb.LJ14, nb.Coulomb14))
	types, typenames := atomTypes(S)
	if err := printGro(&r, "atomtypes", types); err != nil {
		return nil, err
	}
	r.WriteString(sf("\n[ moleculetype ]\n; name nrexcl\n%s 0\n", name))
	atoms := make([]groAtom, 0, len(S.Atoms))
	for i, a := range S.Atoms {
		atoms = append(atoms, groAtom{nr: i + 1, typ: typenames[i], resnr: a.ResID, residue: a.Residue, name: a.Name, charge: a.Charge, mass: a.Mass})
	}
	if err := printGro(&r, "atoms", atoms); err != nil {
		return nil, err
	}
	var bonds, angles, dihedrals []groTerm
	for _, b := range S.Bonds {
		bonds = append(bonds, groTerm{atoms: b.Atoms[:], fn: 1, params: []float64{b.Length, b.K}})
	}
	for _, a := range S.Angles {
		angles = append(angles, groTerm{atoms: a.Atoms[:], fn: 1, params: []float64{a.Angle, a.K}})
	}
	for _, t := range S.Propers {
		dihedrals = append(dihedrals, groTerm{atoms: t.Atoms[:], fn: 9, params: []float64{t.Phase, t.K}, mult: t.Periodicity})
	}
	for _, t := range S.Impropers {
		//Gromacs wants the central atom third
		atoms := []int{t.Atoms[1], t.Atoms[2], t.Atoms[0], t.Atoms[3]}
		dihedrals = append(dihedrals, groTerm{atoms: atoms, fn: 4, params: []float64{t.Phase, t.K}, mult: t.Periodicity})
	}
	var pairs []groPair
	var exclusions []exclusion
	for _, e := range S.Exceptions {
		exclusions = append(exclusions, exclusion(e.Atoms))
		if e.Excluded() {
			continue
		}
		p, err := pair(S, e)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	for _, sec := range []struct {
		h string
		t []groTerm
	}{{"bonds", bonds}, {"angles", angles}, {"dihedrals", dihedrals}} {
		if err := printGro(&r, sec.h, sec.t); err != nil {
			return nil, err
		}
	}
	if err := printGro(&r, "pairs", pairs); err != nil {
		return nil, err
	}
	if err := printGro(&r, "exclusions", exclusions); err != nil {
		return nil, err
	}
	vs := make([]groVSite, 0, len(S.VirtualSites))
	for _, v := range S.VirtualSites {
		vs = append(vs, groVSite(v))
	}
	if err := printGro(&r, "virtual_sitesn", vs); err != nil {
		return nil, err
	}
	r.WriteString(sf("\n[ system ]\n%s\n\n[ molecules ]\n%s 1\n", S.Name, name))
	return []byte(r.String()), nil
}

// pair builds the [ pairs ] line for a 1-4 exception. When the charge product
// is the one Gromacs would compute from the charges and fudgeQQ, func 1 is used;
// otherwise func 2, with the fudge factor that gives the exception's value.
func pair(S *structure.Composed, e structure.Exception) (groPair, error) {
	qi, qj := S.Atoms[e.Atoms[0]].Charge, S.Atoms[e.Atoms[1]].Charge
	p := groPair{atoms: e.Atoms, fn: 1, sigma: e.Sigma, epsilon: e.Epsilon}
	implied := qi * qj * S.Nonbonded.Coulomb14
	if math.Abs(implied-e.ChargeProd) <= 1e-10*math.Max(1, math.Abs(e.ChargeProd)) {
		return p, nil
	}
	if qi*qj == 0 {
		return groPair{}, &UnsupportedTermError{Target: string(Gromacs), Term: "exception", Atoms: e.Atoms[:], Msg: "non-zero charge product between atoms without charge"}
	}
	p.fn = 2
	p.fudge = e.ChargeProd / (qi * qj)
	p.qi, p.qj = qi, qj
	return p, nil
}

// groCoords writes the .gro file. The box is the bounding box of the atoms
// enlarged by twice the cutoff (or 2 nm if there is no cutoff) in each direction.
func groCoords(S *structure.Composed) []byte {
	var r strings.Builder
	r.WriteString(sf("%s\n%5d\n", S.Name, len(S.Atoms)))
	lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i, a := range S.Atoms {
		p := [3]float64{a.Pos.X, a.Pos.Y, a.Pos.Z}
		for k, v := range p {
			lo[k] = math.Min(lo[k], v)
			hi[k] = math.Max(hi[k], v)
		}
		r.WriteString(sf("%5d%-5s%5s%5d%8.3f%8.3f%8.3f\n", a.ResID%100000, trunc(a.Residue, 5), trunc(a.Name, 5), (i+1)%100000, p[0], p[1], p[2]))
	}
	pad := 2 * S.Nonbonded.Cutoff
	if pad <= 0 {
		pad = 2
	}
	var box [3]float64
	for k := range box {
		box[k] = pad
		if len(S.Atoms) > 0 {
			box[k] += hi[k] - lo[k]
		}
	}
	r.WriteString(sf("%10.5f%10.5f%10.5f\n", box[0], box[1], box[2]))
	return []byte(r.String())
}

func trunc(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
