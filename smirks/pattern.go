/*
 * pattern.go, part of goFF.
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
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Kind is the kind of term a tagged pattern describes, inferred from the
// tagged atoms and how they are connected.
type Kind int

const (
	KindNone Kind = iota //no tagged atoms, plain substructure query
	KindAtom
	KindBond
	KindAngle
	KindProper
	KindImproper
)

func (k Kind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindBond:
		return "bond"
	case KindAngle:
		return "angle"
	case KindProper:
		return "proper"
	case KindImproper:
		return "improper"
	}
	return "none"
}

// Size returns the number of atoms in an occurrence of the kind, 0 for KindNone.
func (k Kind) Size() int {
	switch k {
	case KindAtom:
		return 1
	case KindBond:
		return 2
	case KindAngle:
		return 3
	case KindProper, KindImproper:
		return 4
	}
	return 0
}

type qatom struct {
	expr atomExpr
	tag  int
	pos  int
}

type qbond struct {
	a, b    int
	expr    bondExpr
	closure bool
}

// Pattern is a compiled SMARTS/SMIRKS query. It is immutable, so it can be
// shared among goroutines.
type Pattern struct {
	src    string
	atoms  []qatom
	bonds  []qbond
	parent []int   //query atom through which each atom is reached, -1 for the first.
	back   [][]int //for each atom, the bonds that connect it to earlier atoms.
	tagged []int   //query atom for map class 1, 2, ...
	kind   Kind
}

// String returns the source of the pattern.
func (p *Pattern) String() string { return p.src }

// Kind returns the term kind of the pattern.
func (p *Pattern) Kind() Kind { return p.kind }

// Len returns the number of query atoms.
func (p *Pattern) Len() int { return len(p.atoms) }

// Generic returns true if the pattern matches every occurrence of its kind
// in any molecule, i.e. all of its atoms are "*" and all its bonds "~".
func (p *Pattern) Generic() bool {
	if p.kind == KindNone || len(p.atoms) != p.kind.Size() {
		return false
	}
	for _, a := range p.atoms {
		if prim, ok := a.expr.(atomPrim); !ok || prim.kind != primAny {
			return false
		}
	}
	for _, b := range p.bonds {
		if prim, ok := b.expr.(bondPrim); !ok || prim != bondAny {
			return false
		}
	}
	return true
}

// cacheSize is the number of compiled patterns kept by Compile.
const cacheSize = 2048

var cache *lru.Cache[string, *Pattern]

func init() {
	var err error
	cache, err = lru.New[string, *Pattern](cacheSize)
	if err != nil {
		panic(err.Error()) //only happens for a non-positive size
	}
}

// Compile parses a SMARTS/SMIRKS pattern and infers its kind from the map
// class tags. Compiled patterns are cached, so compiling the same string
// several times is cheap. It returns a *PatternError on malformed patterns.
func Compile(pattern string) (*Pattern, error) {
	if p, ok := cache.Get(pattern); ok {
		return p, nil
	}
	p, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	if err := p.inferKind(); err != nil {
		return nil, err
	}
	cache.Add(pattern, p)
	return p, nil
}

// MustCompile is like Compile but panics on error. Meant for patterns
// known at compile time.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err.Error())
	}
	return p
}

func compile(pattern string) (*Pattern, *PatternError) {
	if strings.TrimSpace(pattern) == "" {
		return nil, perr(pattern, -1, "empty pattern")
	}
	p := &Pattern{src: pattern}
	P := &parser{src: pattern, p: p}
	if err := P.parse(); err != nil {
		if pe, ok := err.(*PatternError); ok {
			return nil, pe
		}
		return nil, perr(pattern, P.pos, "%s", err.Error())
	}
	p.prepare()
	return p, nil
}

// prepare sets the search order. The parser adds every atom but the first
// bonded to an earlier atom, so the index order is a valid search order.
func (p *Pattern) prepare() {
	p.parent = make([]int, len(p.atoms))
	p.back = make([][]int, len(p.atoms))
	p.parent[0] = -1
	for bi, b := range p.bonds {
		later := b.b
		if b.a > later {
			later = b.a
		}
		p.back[later] = append(p.back[later], bi)
		if !b.closure {
			p.parent[later] = b.a + b.b - later
		}
	}
}

func (p *Pattern) bonded(a, b int) bool {
	for _, q := range p.bonds {
		if (q.a == a && q.b == b) || (q.a == b && q.b == a) {
			return true
		}
	}
	return false
}

func (p *Pattern) inferKind() *PatternError {
	maxtag := 0
	seen := make(map[int]int)
	for i, a := range p.atoms {
		if a.tag == 0 {
			continue
		}
		if j, ok := seen[a.tag]; ok {
			return perr(p.src, a.pos, "map class %d used for query atoms %d and %d", a.tag, j, i)
		}
		seen[a.tag] = i
		if a.tag > maxtag {
			maxtag = a.tag
		}
	}
	if maxtag == 0 {
		p.kind = KindNone
		return nil
	}
	p.tagged = make([]int, maxtag)
	for t := 1; t <= maxtag; t++ {
		i, ok := seen[t]
		if !ok {
			return perr(p.src, -1, "map classes must be consecutive from 1, %d is missing", t)
		}
		p.tagged[t-1] = i
	}
	tg := p.tagged
	switch maxtag {
	case 1:
		p.kind = KindAtom
	case 2:
		if p.bonded(tg[0], tg[1]) {
			p.kind = KindBond
		}
	case 3:
		if p.bonded(tg[0], tg[1]) && p.bonded(tg[1], tg[2]) {
			p.kind = KindAngle
		}
	case 4:
		if p.bonded(tg[0], tg[1]) && p.bonded(tg[1], tg[2]) && p.bonded(tg[2], tg[3]) {
			p.kind = KindProper
		} else if p.bonded(tg[1], tg[0]) && p.bonded(tg[1], tg[2]) && p.bonded(tg[1], tg[3]) {
			p.kind = KindImproper
		}
	}
	if p.kind == KindNone {
		return perr(p.src, -1, "tagged atoms %s do not form an atom, bond, angle, proper or improper", fmt.Sprint(tg))
	}
	return nil
}
