/*
 * engine.go, part of goFF.
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

package forcefield

import (
	"errors"
	"fmt"
	"sort"

	chem "github.com/rmera/goff"
	"github.com/rmera/goff/smirks"
)

type compiled struct {
	Rule
	p *smirks.Pattern
}

// Engine assigns parameters to molecules. It is immutable after NewEngine
// returns, and can be used by several goroutines at the same time.
type Engine struct {
	rules map[Class][]compiled //by decreasing specificity, then declaration order
	nb    Nonbonded
}

// NewEngine compiles the rules' patterns and checks that each one has the kind
// its class requires, that IDs are unique, and that every required class has a
// generic fallback rule. The engine uses the default nonbonded settings.
func NewEngine(rules ...Rule) (*Engine, error) {
	return NewEngineNonbonded(DefaultNonbonded(), rules...)
}

// NewEngineNonbonded is like NewEngine but uses the given nonbonded settings.
func NewEngineNonbonded(nb Nonbonded, rules ...Rule) (*Engine, error) {
	E := &Engine{rules: make(map[Class][]compiled), nb: nb}
	ids := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.ID == "" {
			return nil, &LoadError{Msg: fmt.Sprintf("%s rule with pattern %q has no ID", r.Class, r.Pattern)}
		}
		if ids[r.ID] {
			return nil, &LoadError{Rule: r.ID, Msg: "repeated rule ID"}
		}
		ids[r.ID] = true
		if _, ok := classNames[r.Class]; !ok {
			return nil, &LoadError{Rule: r.ID, Msg: fmt.Sprintf("unknown class %d", r.Class)}
		}
		p, err := smirks.Compile(r.Pattern)
		if err != nil {
			var perr *smirks.PatternError
			if errors.As(err, &perr) {
				perr.Decorate("rule " + r.ID)
			}
			return nil, err
		}
		if p.Kind() != r.Class.Kind() {
			return nil, &smirks.PatternError{Pattern: r.Pattern, Pos: -1,
				Msg: fmt.Sprintf("rule %q: %s pattern in class %s, which needs %s patterns", r.ID, p.Kind(), r.Class, r.Class.Kind())}
		}
		r.Params = r.Params.clone()
		E.rules[r.Class] = append(E.rules[r.Class], compiled{Rule: r, p: p})
	}
	for _, c := range Classes() {
		rs := E.rules[c]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Specificity > rs[j].Specificity })
		if !c.Required() {
			continue
		}
		generic := false
		for _, r := range rs {
			if r.p.Generic() {
				generic = true
				break
			}
		}
		if !generic {
			return nil, &UnassignedTermError{Class: c}
		}
	}
	return E, nil
}

// Nonbonded returns the engine's nonbonded settings.
func (E *Engine) Nonbonded() Nonbonded { return E.nb }

// Rules returns the rules of class c by decreasing specificity.
func (E *Engine) Rules(c Class) []Rule {
	ret := make([]Rule, 0, len(E.rules[c]))
	for _, r := range E.rules[c] {
		ret = append(ret, r.Rule)
	}
	return ret
}

// Result is the output of Engine.Assign.
type Result struct {
	NAtoms    int
	Terms     map[Class][]Term
	Usage     map[string]int //number of occurrences each rule won
	Nonbonded Nonbonded
}

// AtomTerm returns the term of class c (VdW or Electrostatics) for atom i.
func (R *Result) AtomTerm(c Class, i int) Term {
	return R.Terms[c][i]
}

// Assign types mol, one pass per class. Each occurrence gets the parameters of
// the matching rule with highest specificity. Terms of each class are sorted
// by their canonical atom tuple. Per-atom classes have one term per atom, in
// atom order.
func (E *Engine) Assign(mol *chem.Molecule) (*Result, error) {
	R := &Result{NAtoms: mol.Len(), Terms: make(map[Class][]Term), Usage: make(map[string]int), Nonbonded: E.nb}
	for _, c := range Classes() {
		terms, err := E.assignClass(mol, c)
		if err != nil {
			return nil, err
		}
		for _, t := range terms {
			R.Usage[t.RuleID]++
		}
		R.Terms[c] = terms
	}
	return R, nil
}

type winner struct {
	occ  []int
	rule *compiled
}

func (E *Engine) assignClass(mol *chem.Molecule, c Class) ([]Term, error) {
	best := make(map[string]*winner)
	for k := range E.rules[c] {
		r := &E.rules[c][k]
		for _, occ := range smirks.Match(mol, r.p) {
			key := fmt.Sprint(occ)
			w, ok := best[key]
			if !ok {
				best[key] = &winner{occ: occ, rule: r}
				continue
			}
			//rules come by decreasing specificity, so an equal one means a
			//tie at the best specificity for this occurrence.
			if w.rule.Specificity == r.Specificity {
				return nil, &TypingAmbiguityError{Class: c, Occurrence: occ, Rules: [2]string{w.rule.ID, r.ID}}
			}
		}
	}
	if c.Required() {
		for _, occ := range required(mol, c) {
			if _, ok := best[fmt.Sprint(occ)]; !ok {
				return nil, &UnassignedTermError{Class: c, Occurrence: occ}
			}
		}
	}
	ret := make([]Term, 0, len(best))
	for _, w := range best {
		ret = append(ret, Term{Class: c, Atoms: w.occ, RuleID: w.rule.ID, Params: w.rule.Params.clone()})
	}
	sort.Slice(ret, func(i, j int) bool { return less(ret[i].Atoms, ret[j].Atoms) })
	return ret, nil
}

// required returns the structural occurrences of a class that must be typed.
func required(mol *chem.Molecule, c Class) [][]int {
	var ret [][]int
	switch c {
	case Bonds:
		for _, p := range mol.Pairs() {
			ret = append(ret, []int{p[0], p[1]})
		}
	case Angles:
		for _, a := range mol.Angles() {
			ret = append(ret, []int{a[0], a[1], a[2]})
		}
	case ProperTorsions:
		for _, t := range mol.Propers() {
			ret = append(ret, []int{t[0], t[1], t[2], t[3]})
		}
	case VdW, Electrostatics:
		for i := 0; i < mol.Len(); i++ {
			ret = append(ret, []int{i})
		}
	}
	return ret
}

func less(a, b []int) bool {
	for k := 0; k < len(a) && k < len(b); k++ {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return len(a) < len(b)
}
