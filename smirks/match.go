/*
 * match.go, part of goFF.
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

package smirks

import (
	"sort"
)

type matcher struct {
	p      *Pattern
	t      Target
	assign []int
	used   []bool
}

func newMatcher(p *Pattern, t Target) *matcher {
	return &matcher{p: p, t: t, assign: make([]int, len(p.atoms)), used: make([]bool, t.Len())}
}

// run calls cb with every complete mapping of query atoms to target atoms.
// If anchor is not negative, the first query atom is only mapped to it.
// cb returns false to stop the search. The slice given to cb is reused.
func (m *matcher) run(anchor int, cb func([]int) bool) {
	if anchor >= 0 {
		m.try(0, anchor, cb)
		return
	}
	for i := 0; i < m.t.Len(); i++ {
		if !m.try(0, i, cb) {
			return
		}
	}
}

// try maps query atom q to target atom i and continues the search.
// It returns false if the search must stop.
func (m *matcher) try(q, i int, cb func([]int) bool) bool {
	if m.used[i] || !m.p.atoms[q].expr.matchAtom(m.t, i) {
		return true
	}
	for _, bi := range m.p.back[q] {
		qb := m.p.bonds[bi]
		other := m.assign[qb.a+qb.b-q]
		b, ok := m.t.BondBetween(other, i)
		if !ok || !qb.expr.matchBond(m.t, b) {
			return true
		}
	}
	m.assign[q] = i
	m.used[i] = true
	defer func() { m.used[i] = false }()
	if q == len(m.p.atoms)-1 {
		return cb(m.assign)
	}
	next := q + 1
	for _, j := range m.t.Neighbors(m.assign[m.p.parent[next]]) {
		if !m.try(next, j, cb) {
			return false
		}
	}
	return true
}

// Match returns every distinct occurrence of p in t. For tagged patterns each
// occurrence holds the target atoms mapped to the tags 1, 2, ..., in canonical
// order for the pattern kind (see Canonical). For untagged patterns it holds
// the target atoms of all query atoms, in pattern order. The result is sorted
// and empty, not nil, if there are no occurrences.
func Match(t Target, p *Pattern) [][]int {
	seen := make(map[string]bool)
	ret := make([][]int, 0)
	newMatcher(p, t).run(-1, func(assign []int) bool {
		var occ []int
		if p.kind == KindNone {
			occ = append([]int(nil), assign...)
		} else {
			occ = make([]int, len(p.tagged))
			for i, q := range p.tagged {
				occ[i] = assign[q]
			}
			occ = Canonical(p.kind, occ)
		}
		k := key(occ)
		if !seen[k] {
			seen[k] = true
			ret = append(ret, occ)
		}
		return true
	})
	SortOccurrences(ret)
	return ret
}

// Matches returns true if p has at least one occurrence in t.
func Matches(t Target, p *Pattern) bool {
	found := false
	newMatcher(p, t).run(-1, func([]int) bool {
		found = true
		return false
	})
	return found
}

// Canonical returns occ in the canonical order of the kind, modifying it in place.
// Bonds are ordered (min,max), angles so the first atom is smaller than the
// last one, propers so that (i,j,k,l) and (l,k,j,i) give the same tuple, and
// impropers (o1,c,o2,o3) with the three outer atoms sorted. The central atom of
// an improper is the second one.
func Canonical(k Kind, occ []int) []int {
	switch k {
	case KindBond:
		if occ[0] > occ[1] {
			occ[0], occ[1] = occ[1], occ[0]
		}
	case KindAngle:
		if occ[0] > occ[2] {
			occ[0], occ[2] = occ[2], occ[0]
		}
	case KindProper:
		if occ[0] > occ[3] || (occ[0] == occ[3] && occ[1] > occ[2]) {
			occ[0], occ[1], occ[2], occ[3] = occ[3], occ[2], occ[1], occ[0]
		}
	case KindImproper:
		outer := []int{occ[0], occ[2], occ[3]}
		sort.Ints(outer)
		occ[0], occ[2], occ[3] = outer[0], outer[1], outer[2]
	}
	return occ
}

// SortOccurrences sorts a slice of occurrences lexicographically.
func SortOccurrences(occs [][]int) {
	sort.Slice(occs, func(i, j int) bool {
		a, b := occs[i], occs[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
}

func key(occ []int) string {
	b := make([]byte, 0, 4*len(occ))
	for _, v := range occ {
		b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return string(b)
}
