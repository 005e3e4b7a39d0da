/*
 * apply.go, part of goFF.
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
	"fmt"
	"strings"

	chem "github.com/rmera/goff"
	"github.com/rmera/goff/structure"
)

// MissingParameterError is returned when the force field has no template,
// template atom, atom type or bonded type for something in the molecule.
type MissingParameterError struct {
	What  string //"template", "atom", "atomtype", "bondtype", "angletype", "dihedraltype" or "impropertype"
	Key   string
	Atoms []int
	deco  []string
}

func (err *MissingParameterError) Error() string {
	return fmt.Sprintf("atomtype: no %s for %s (atoms %v)", err.What, err.Key, err.Atoms)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *MissingParameterError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

type residue struct {
	name  string
	chain byte
	first int
	n     int
	atoms map[string]int
	dup   string //a repeated atom name, if any
}

// residues splits mol in consecutive runs of atoms with the same chain,
// residue number and residue name.
func residues(mol chem.Atomer) []*residue {
	var ret []*residue
	var cur *residue
	var curid int
	for i := 0; i < mol.Len(); i++ {
		a := mol.Atom(i)
		if cur == nil || a.Chain != cur.chain || a.MolID != curid || a.MolName != cur.name {
			cur = &residue{name: a.MolName, chain: a.Chain, first: i, atoms: make(map[string]int)}
			curid = a.MolID
			ret = append(ret, cur)
		}
		if _, ok := cur.atoms[a.Name]; ok && cur.dup == "" {
			cur.dup = a.Name
		}
		cur.atoms[a.Name] = i
		cur.n++
	}
	return ret
}

// Apply parametrizes mol, whose atoms must have residue names and atom names
// matching the force field's templates. The connectivity comes from the templates,
// not from mol. Template bonds to atoms missing in a residue are skipped, so
// one template serves terminal residues with extra or missing atoms as long as
// every atom present is in the template. Angles and proper torsions are built
// from that connectivity and get parameters by atom type, exact matches first.
func (F *FF) Apply(mol chem.Atomer, name string) (*structure.Structure, error) {
	S := &structure.Structure{
		Name: name,
		Nonbonded: structure.Nonbonded{
			Coulomb14: F.FudgeQQ,
			LJ14:      F.FudgeLJ,
			Combining: F.Combining,
			Method:    F.Method,
			Cutoff:    F.Cutoff,
		},
	}
	tag := structure.Tag(name)
	types := make([]string, mol.Len())
	B := chem.NewBuilder()
	res := residues(mol)
	for _, r := range res {
		t, ok := F.Templates[r.name]
		if !ok {
			return nil, &MissingParameterError{What: "template", Key: r.name, Atoms: []int{r.first}}
		}
		if r.dup != "" {
			return nil, fmt.Errorf("atomtype: atom name %s repeated in residue %s starting at atom %d", r.dup, r.name, r.first)
		}
		for i := r.first; i < r.first+r.n; i++ {
			a := mol.Atom(i)
			ta, ok := t.atom(a.Name)
			if !ok {
				return nil, &MissingParameterError{What: "atom", Key: r.name + ":" + a.Name, Atoms: []int{i}}
			}
			at, ok := F.AtomTypes[ta.Type]
			if !ok {
				return nil, &MissingParameterError{What: "atomtype", Key: ta.Type, Atoms: []int{i}}
			}
			types[i] = ta.Type
			sym := chem.SymbolFromNumber(at.Number)
			B.AddAtom(chem.Atom{Symbol: sym, Name: a.Name, MolName: a.MolName, MolID: a.MolID, Chain: a.Chain, Pos: a.Pos})
			S.Atoms = append(S.Atoms, structure.Atom{
				Name:       a.Name,
				Element:    sym,
				Type:       ta.Type,
				Residue:    a.MolName,
				ResID:      a.MolID,
				Chain:      chainString(a.Chain),
				Pos:        a.Pos,
				Mass:       at.Mass,
				Charge:     ta.Charge,
				Sigma:      at.Sigma,
				Epsilon:    at.Epsilon,
				Provenance: tag,
			})
		}
	}
	//bonds to the next residue need all its atoms in place
	for k, r := range res {
		for _, b := range F.Templates[r.name].Bonds {
			i, ok1 := resolve(res, k, b[0])
			j, ok2 := resolve(res, k, b[1])
			if !ok1 || !ok2 {
				continue
			}
			if _, exists := B.BondIndex(i, j); exists {
				continue
			}
			if err := B.AddBond(i, j, 1); err != nil {
				return nil, err
			}
		}
	}
	top, err := B.Build()
	if err != nil {
		return nil, err
	}
	for _, p := range top.Pairs() {
		bt, ok := F.bondType(types[p[0]], types[p[1]])
		if !ok {
			return nil, &MissingParameterError{What: "bondtype", Key: types[p[0]] + "-" + types[p[1]], Atoms: p[:]}
		}
		S.Bonds = append(S.Bonds, structure.Bond{Atoms: p, K: bt.K, Length: bt.Length})
	}
	for _, a := range top.Angles() {
		at, ok := F.angleType(types[a[0]], types[a[1]], types[a[2]])
		if !ok {
			return nil, &MissingParameterError{What: "angletype", Key: strings.Join([]string{types[a[0]], types[a[1]], types[a[2]]}, "-"), Atoms: a[:]}
		}
		S.Angles = append(S.Angles, structure.Angle{Atoms: a, K: at.K, Angle: at.Angle})
	}
	for _, t := range top.Propers() {
		tt := [4]string{types[t[0]], types[t[1]], types[t[2]], types[t[3]]}
		d := F.dihedralType(tt, 9)
		if d == nil {
			return nil, &MissingParameterError{What: "dihedraltype", Key: strings.Join(tt[:], "-"), Atoms: t[:]}
		}
		for _, f := range d.Terms {
			S.Propers = append(S.Propers, structure.Torsion{Atoms: t, Periodicity: f.Periodicity, Phase: f.Phase, K: f.K})
		}
	}
	for k, r := range res {
		for _, imp := range F.Templates[r.name].Impropers {
			var atoms [4]int
			complete := true
			for n, an := range imp {
				var ok bool
				if atoms[n], ok = resolve(res, k, an); !ok {
					complete = false
				}
			}
			if !complete {
				continue
			}
			tt := [4]string{types[atoms[0]], types[atoms[1]], types[atoms[2]], types[atoms[3]]}
			d := F.dihedralType(tt, 4)
			if d == nil {
				return nil, &MissingParameterError{What: "impropertype", Key: strings.Join(tt[:], "-"), Atoms: atoms[:]}
			}
			for _, f := range d.Terms {
				S.Impropers = append(S.Impropers, structure.Torsion{Atoms: atoms, Periodicity: f.Periodicity, Phase: f.Phase, K: f.K})
			}
		}
	}
	excluded, pairs14 := top.ExclusionPairs()
	for _, p := range excluded {
		S.Exceptions = append(S.Exceptions, structure.Exception{Atoms: p})
	}
	if F.GenPairs {
		for _, p := range pairs14 {
			a, b := S.Atoms[p[0]], S.Atoms[p[1]]
			sigma, eps := structure.CombineLJ(F.Combining, a.Sigma, a.Epsilon, b.Sigma, b.Epsilon)
			S.Exceptions = append(S.Exceptions, structure.Exception{Atoms: p, ChargeProd: a.Charge * b.Charge * F.FudgeQQ, Sigma: sigma, Epsilon: eps * F.FudgeLJ})
		}
	}
	if err := S.Validate(); err != nil {
		return nil, err
	}
	return S, nil
}

func chainString(c byte) string {
	if c == 0 {
		return ""
	}
	return string(c)
}

// resolve returns the index of the atom called name in residue k, or in the
// next residue of the same chain if name starts with "+".
func resolve(res []*residue, k int, name string) (int, bool) {
	if after, ok := strings.CutPrefix(name, "+"); ok {
		if k+1 >= len(res) || res[k+1].chain != res[k].chain {
			return -1, false
		}
		k++
		name = after
	}
	i, ok := res[k].atoms[name]
	return i, ok
}

func (F *FF) bondType(t1, t2 string) (BondType, bool) {
	for _, b := range F.BondTypes {
		if (b.Types[0] == t1 && b.Types[1] == t2) || (b.Types[0] == t2 && b.Types[1] == t1) {
			return b, true
		}
	}
	return BondType{}, false
}

func (F *FF) angleType(t1, t2, t3 string) (AngleType, bool) {
	for _, a := range F.AngleTypes {
		if a.Types[1] != t2 {
			continue
		}
		if (a.Types[0] == t1 && a.Types[2] == t3) || (a.Types[0] == t3 && a.Types[2] == t1) {
			return a, true
		}
	}
	return AngleType{}, false
}

// dihedralType returns the entry of the given function matching the types with
// fewest wildcards. Propers also match in reverse order, impropers only as written.
func (F *FF) dihedralType(t [4]string, fn int) *DihedralType {
	var best *DihedralType
	rev := [4]string{t[3], t[2], t[1], t[0]}
	for _, d := range F.Dihedrals {
		if d.Func != fn {
			continue
		}
		if !typesMatch(d.Types, t) && (fn == 4 || !typesMatch(d.Types, rev)) {
			continue
		}
		if best == nil || d.wildcards() < best.wildcards() {
			best = d
		}
	}
	return best
}

func typesMatch(pattern, t [4]string) bool {
	for i := range pattern {
		if pattern[i] != "X" && pattern[i] != t[i] {
			return false
		}
	}
	return true
}
