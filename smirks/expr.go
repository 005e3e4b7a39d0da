/*
 * expr.go, part of goFF.
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

import chem "github.com/rmera/goff"

// Target is what the matcher needs from a molecular graph. *chem.Molecule
// implements it.
type Target interface {
	chem.Grapher
	Degree(i int) int
	TotalH(i int) int
	Connectivity(i int) int
	InRing(i int) bool
	SmallestRing(i int) int
	RingBondCount(i int) int
	BondInRing(b int) bool
}

// atomExpr is a node of the expression tree of one query atom.
type atomExpr interface {
	matchAtom(t Target, i int) bool
}

type atomAnd struct{ l, r atomExpr }
type atomOr struct{ l, r atomExpr }
type atomNot struct{ e atomExpr }

func (e atomAnd) matchAtom(t Target, i int) bool { return e.l.matchAtom(t, i) && e.r.matchAtom(t, i) }
func (e atomOr) matchAtom(t Target, i int) bool  { return e.l.matchAtom(t, i) || e.r.matchAtom(t, i) }
func (e atomNot) matchAtom(t Target, i int) bool { return !e.e.matchAtom(t, i) }

type atomPrimKind int

const (
	primAny atomPrimKind = iota
	primNumber
	primAromatic
	primAliphatic
	primConnectivity //X
	primDegree       //D
	primTotalH       //H
	primCharge
	primInRing    //R and R0
	primRingSize  //r
	primRingBonds //x
	primChiral    //@ and @@, always true
)

type atomPrim struct {
	kind atomPrimKind
	val  int
}

func (p atomPrim) matchAtom(t Target, i int) bool {
	switch p.kind {
	case primAny, primChiral:
		return true
	case primNumber:
		return t.Atom(i).Number == p.val
	case primAromatic:
		return t.Atom(i).Aromatic
	case primAliphatic:
		return !t.Atom(i).Aromatic
	case primConnectivity:
		return t.Connectivity(i) == p.val
	case primDegree:
		return t.Degree(i) == p.val
	case primTotalH:
		return t.TotalH(i) == p.val
	case primCharge:
		return t.Atom(i).FormalCharge == p.val
	case primInRing:
		if p.val == 0 {
			return !t.InRing(i)
		}
		return t.InRing(i)
	case primRingSize:
		if p.val == 0 {
			return t.InRing(i)
		}
		return t.SmallestRing(i) == p.val
	case primRingBonds:
		return t.RingBondCount(i) == p.val
	}
	panic("smirks: unknown atom primitive") //a parser bug
}

// atomRecursive is a $(...) primitive: the atom must be the first atom of some
// occurrence of the inner pattern.
type atomRecursive struct {
	p *Pattern
}

func (r atomRecursive) matchAtom(t Target, i int) bool {
	found := false
	newMatcher(r.p, t).run(i, func([]int) bool {
		found = true
		return false
	})
	return found
}

type bondExpr interface {
	matchBond(t Target, b chem.Bond) bool
}

type bondAnd struct{ l, r bondExpr }
type bondOr struct{ l, r bondExpr }
type bondNot struct{ e bondExpr }

func (e bondAnd) matchBond(t Target, b chem.Bond) bool {
	return e.l.matchBond(t, b) && e.r.matchBond(t, b)
}
func (e bondOr) matchBond(t Target, b chem.Bond) bool {
	return e.l.matchBond(t, b) || e.r.matchBond(t, b)
}
func (e bondNot) matchBond(t Target, b chem.Bond) bool { return !e.e.matchBond(t, b) }

type bondPrim byte

const (
	bondSingle   bondPrim = '-'
	bondDouble   bondPrim = '='
	bondTriple   bondPrim = '#'
	bondAromatic bondPrim = ':'
	bondAny      bondPrim = '~'
	bondRing     bondPrim = '@'
	bondUp       bondPrim = '/'
	bondDown     bondPrim = '\\'
	bondDefault  bondPrim = 0 //single or aromatic
)

func (p bondPrim) matchBond(t Target, b chem.Bond) bool {
	switch p {
	case bondSingle, bondUp, bondDown:
		return b.Order == 1 && !b.Aromatic
	case bondDouble:
		return b.Order == 2 && !b.Aromatic
	case bondTriple:
		return b.Order == 3
	case bondAromatic:
		return b.Aromatic
	case bondAny:
		return true
	case bondRing:
		return t.BondInRing(b.Index)
	case bondDefault:
		return b.Aromatic || b.Order == 1
	}
	panic("smirks: unknown bond primitive")
}
