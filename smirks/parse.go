/*
 * parse.go, part of goFF.
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
	"strings"

	chem "github.com/rmera/goff"
)

// parser is a recursive-descent parser for the SMARTS/SMIRKS subset we support.
// It works on the whole pattern string, with pos pointing to the next byte.
type parser struct {
	src string
	pos int
	p   *Pattern
}

func (P *parser) peek() byte {
	if P.pos >= len(P.src) {
		return 0
	}
	return P.src[P.pos]
}

func (P *parser) errorf(format string, a ...any) *PatternError {
	return perr(P.src, P.pos, format, a...)
}

// readInt reads a decimal number, returning def and false if there are no digits.
func (P *parser) readInt(def int) (int, bool) {
	start := P.pos
	n := 0
	for P.pos < len(P.src) && isDigit(P.src[P.pos]) {
		n = 10*n + int(P.src[P.pos]-'0')
		P.pos++
	}
	if P.pos == start {
		return def, false
	}
	return n, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

func isBondChar(c byte) bool {
	return strings.IndexByte("-=#:~@/\\!,;&", c) >= 0
}

// organic subset symbols that can be written without brackets.
var organic = map[string]bool{"B": true, "C": true, "N": true, "O": true, "P": true, "S": true, "F": true, "Cl": true, "Br": true, "I": true}
var aromaticSymbols = map[string]bool{"b": true, "c": true, "n": true, "o": true, "p": true, "s": true, "se": true}

type ringOpening struct {
	atom int
	bond string
	pos  int
}

// parse reads the whole pattern into P.p.
func (P *parser) parse() error {
	prev := -1
	var stack []int
	var pending string
	pendingPos := 0
	rings := make(map[int]ringOpening)
	for P.pos < len(P.src) {
		c := P.peek()
		switch {
		case c == '(':
			if prev < 0 {
				return P.errorf("branch opened before any atom")
			}
			if pending != "" {
				return P.errorf("bond before branch")
			}
			stack = append(stack, prev)
			P.pos++
		case c == ')':
			if len(stack) == 0 {
				return P.errorf("unbalanced ')'")
			}
			if pending != "" {
				return P.errorf("dangling bond at the end of a branch")
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			P.pos++
		case c == '.':
			return P.errorf("disconnected patterns are not supported")
		case isBondChar(c):
			pendingPos = P.pos
			for P.pos < len(P.src) && isBondChar(P.src[P.pos]) {
				P.pos++
			}
			pending = P.src[pendingPos:P.pos]
		case isDigit(c) || c == '%':
			if prev < 0 {
				return P.errorf("ring closure before any atom")
			}
			var num int
			if c == '%' {
				P.pos++
				var ok bool
				num, ok = P.readInt(0)
				if !ok {
					return P.errorf("'%%' must be followed by a ring closure number")
				}
			} else {
				num = int(c - '0')
				P.pos++
			}
			if open, ok := rings[num]; ok {
				bond := pending
				if bond == "" {
					bond = open.bond
				}
				bpos := pendingPos
				if pending == "" {
					bpos = open.pos
				}
				if err := P.addBond(open.atom, prev, bond, bpos, true); err != nil {
					return err
				}
				delete(rings, num)
			} else {
				rings[num] = ringOpening{atom: prev, bond: pending, pos: pendingPos}
			}
			pending = ""
		case c == '[' || c == '*' || isUpper(c) || isLower(c):
			idx, err := P.parseAtom()
			if err != nil {
				return err
			}
			if prev >= 0 {
				if err := P.addBond(prev, idx, pending, pendingPos, false); err != nil {
					return err
				}
			} else if pending != "" {
				return perr(P.src, pendingPos, "bond before the first atom")
			}
			pending = ""
			prev = idx
		default:
			return P.errorf("unexpected character %q", c)
		}
	}
	switch {
	case len(P.p.atoms) == 0:
		return perr(P.src, -1, "empty pattern")
	case len(stack) > 0:
		return P.errorf("unbalanced '('")
	case len(rings) > 0:
		return P.errorf("unclosed ring")
	case pending != "":
		return perr(P.src, pendingPos, "dangling bond at the end of the pattern")
	}
	return nil
}

func (P *parser) addBond(a, b int, text string, pos int, closure bool) error {
	if a == b {
		return perr(P.src, pos, "ring closure on the same atom")
	}
	for _, q := range P.p.bonds {
		if (q.a == a && q.b == b) || (q.a == b && q.b == a) {
			return perr(P.src, pos, "repeated bond between query atoms %d and %d", a, b)
		}
	}
	var expr bondExpr = bondDefault
	if text != "" {
		sub := &parser{src: text, p: P.p}
		e, err := sub.bondOrLowAnd()
		if err != nil {
			err.Pattern = P.src
			err.Pos += pos
			return err
		}
		if sub.pos != len(text) {
			return perr(P.src, pos+sub.pos, "undefined bond operator %q", text[sub.pos])
		}
		expr = e
	}
	P.p.bonds = append(P.p.bonds, qbond{a: a, b: b, expr: expr, closure: closure})
	return nil
}

// bond expressions: ';' < ',' < '&'/implicit and < '!'
func (P *parser) bondOrLowAnd() (bondExpr, *PatternError) {
	l, err := P.bondOr()
	if err != nil {
		return nil, err
	}
	for P.peek() == ';' {
		P.pos++
		r, err := P.bondOr()
		if err != nil {
			return nil, err
		}
		l = bondAnd{l, r}
	}
	return l, nil
}

func (P *parser) bondOr() (bondExpr, *PatternError) {
	l, err := P.bondHighAnd()
	if err != nil {
		return nil, err
	}
	for P.peek() == ',' {
		P.pos++
		r, err := P.bondHighAnd()
		if err != nil {
			return nil, err
		}
		l = bondOr{l, r}
	}
	return l, nil
}

func (P *parser) bondHighAnd() (bondExpr, *PatternError) {
	l, err := P.bondUnary()
	if err != nil {
		return nil, err
	}
	for {
		c := P.peek()
		if c == '&' {
			P.pos++
		} else if c == 0 || c == ',' || c == ';' {
			return l, nil
		}
		r, err := P.bondUnary()
		if err != nil {
			return nil, err
		}
		l = bondAnd{l, r}
	}
}

func (P *parser) bondUnary() (bondExpr, *PatternError) {
	c := P.peek()
	switch c {
	case '!':
		P.pos++
		e, err := P.bondUnary()
		if err != nil {
			return nil, err
		}
		return bondNot{e}, nil
	case '-', '=', '#', ':', '~', '@', '/', '\\':
		P.pos++
		return bondPrim(c), nil
	case 0, ',', ';', '&':
		return nil, P.errorf("empty constraint set in bond expression")
	}
	return nil, P.errorf("undefined bond operator %q", c)
}

// parseAtom parses a bracket atom or an organic-subset atom, and adds it to the pattern.
func (P *parser) parseAtom() (int, error) {
	c := P.peek()
	var expr atomExpr
	tag := 0
	start := P.pos
	switch {
	case c == '*':
		P.pos++
		expr = atomPrim{kind: primAny}
	case c == '[':
		P.pos++
		end := closingBracket(P.src, P.pos)
		if end < 0 {
			return 0, perr(P.src, start, "unbalanced '['")
		}
		if strings.TrimSpace(P.src[P.pos:end]) == "" {
			return 0, P.errorf("empty constraint set")
		}
		var err *PatternError
		expr, tag, err = P.bracket(end)
		if err != nil {
			return 0, err
		}
		P.pos++ //the ']'
	default:
		sym := P.src[P.pos : P.pos+1]
		if P.pos+1 < len(P.src) && organic[P.src[P.pos:P.pos+2]] {
			sym = P.src[P.pos : P.pos+2]
		}
		switch {
		case organic[sym]:
			expr = atomAnd{atomPrim{kind: primNumber, val: chem.AtomicNumber(sym)}, atomPrim{kind: primAliphatic}}
		case aromaticSymbols[sym]:
			expr = aromaticElement(sym)
		default:
			return 0, P.errorf("%q is not an organic-subset atom, it must be written in brackets", sym)
		}
		P.pos += len(sym)
	}
	P.p.atoms = append(P.p.atoms, qatom{expr: expr, tag: tag, pos: start})
	return len(P.p.atoms) - 1, nil
}

// closingBracket returns the position of the ']' closing a bracket atom whose
// contents start at from, skipping brackets nested in recursive patterns.
func closingBracket(src string, from int) int {
	depth := 0
	for i := from; i < len(src); i++ {
		switch src[i] {
		case '[', '(':
			depth++
		case ')':
			depth--
		case ']':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

func aromaticElement(sym string) atomExpr {
	upper := strings.ToUpper(sym[:1]) + sym[1:]
	return atomAnd{atomPrim{kind: primNumber, val: chem.AtomicNumber(upper)}, atomPrim{kind: primAromatic}}
}

// bracket parses the inside of [...]; end is the position of the closing bracket.
func (P *parser) bracket(end int) (atomExpr, int, *PatternError) {
	sub := &parser{src: P.src[:end], pos: P.pos, p: P.p}
	tag := 0
	//[H] and [H:n] mean a hydrogen atom, not "an atom with one hydrogen".
	inner := P.src[P.pos:end]
	var expr atomExpr
	if inner == "H" || strings.HasPrefix(inner, "H:") {
		expr = atomPrim{kind: primNumber, val: 1}
		sub.pos++
	} else {
		var err *PatternError
		expr, err = sub.atomLowAnd()
		if err != nil {
			err.Pattern = P.src
			return nil, 0, err
		}
	}
	if sub.peek() == ':' {
		sub.pos++
		n, ok := sub.readInt(0)
		if !ok || n <= 0 {
			return nil, 0, perr(P.src, sub.pos, "map class ':' must be followed by a positive number")
		}
		tag = n
	}
	if sub.pos != end {
		return nil, 0, perr(P.src, sub.pos, "undefined logical operator %q", P.src[sub.pos])
	}
	P.pos = end
	return expr, tag, nil
}

// atom expressions: ';' < ',' < '&'/implicit and < '!'
func (P *parser) atomLowAnd() (atomExpr, *PatternError) {
	l, err := P.atomOr()
	if err != nil {
		return nil, err
	}
	for P.peek() == ';' {
		P.pos++
		r, err := P.atomOr()
		if err != nil {
			return nil, err
		}
		l = atomAnd{l, r}
	}
	return l, nil
}

func (P *parser) atomOr() (atomExpr, *PatternError) {
	l, err := P.atomHighAnd()
	if err != nil {
		return nil, err
	}
	for P.peek() == ',' {
		P.pos++
		r, err := P.atomHighAnd()
		if err != nil {
			return nil, err
		}
		l = atomOr{l, r}
	}
	return l, nil
}

func (P *parser) atomHighAnd() (atomExpr, *PatternError) {
	l, err := P.atomUnary()
	if err != nil {
		return nil, err
	}
	for {
		c := P.peek()
		if c == '&' {
			P.pos++
		} else if c == 0 || c == ',' || c == ';' || c == ':' {
			return l, nil
		}
		r, err := P.atomUnary()
		if err != nil {
			return nil, err
		}
		l = atomAnd{l, r}
	}
}

func (P *parser) atomUnary() (atomExpr, *PatternError) {
	if P.peek() == '!' {
		P.pos++
		e, err := P.atomUnary()
		if err != nil {
			return nil, err
		}
		return atomNot{e}, nil
	}
	return P.atomPrimitive()
}

func (P *parser) atomPrimitive() (atomExpr, *PatternError) {
	c := P.peek()
	switch {
	case c == 0 || c == ',' || c == ';' || c == '&' || c == ':':
		return nil, P.errorf("empty constraint set")
	case c == '*':
		P.pos++
		return atomPrim{kind: primAny}, nil
	case c == '#':
		P.pos++
		n, ok := P.readInt(0)
		if !ok {
			return nil, P.errorf("'#' must be followed by an atomic number")
		}
		return atomPrim{kind: primNumber, val: n}, nil
	case c == '$':
		return P.recursive()
	case c == '+' || c == '-':
		P.pos++
		sign := 1
		if c == '-' {
			sign = -1
		}
		n, ok := P.readInt(1)
		if !ok {
			for P.peek() == c {
				n++
				P.pos++
			}
		}
		return atomPrim{kind: primCharge, val: sign * n}, nil
	case c == '@':
		P.pos++
		if P.peek() == '@' {
			P.pos++
		}
		return atomPrim{kind: primChiral}, nil
	}
	//two-letter element symbols take precedence over one-letter symbols followed by a primitive.
	if isUpper(c) && P.pos+1 < len(P.src) && isLower(P.src[P.pos+1]) {
		if sym := P.src[P.pos : P.pos+2]; chem.AtomicNumber(sym) > 0 {
			P.pos += 2
			return atomPrim{kind: primNumber, val: chem.AtomicNumber(sym)}, nil
		}
	}
	if isLower(c) {
		if P.pos+1 < len(P.src) && aromaticSymbols[P.src[P.pos:P.pos+2]] {
			sym := P.src[P.pos : P.pos+2]
			P.pos += 2
			return aromaticElement(sym), nil
		}
		if aromaticSymbols[string(c)] {
			P.pos++
			return aromaticElement(string(c)), nil
		}
	}
	P.pos++
	switch c {
	case 'a':
		return atomPrim{kind: primAromatic}, nil
	case 'A':
		return atomPrim{kind: primAliphatic}, nil
	case 'X':
		n, _ := P.readInt(1)
		return atomPrim{kind: primConnectivity, val: n}, nil
	case 'D':
		n, _ := P.readInt(1)
		return atomPrim{kind: primDegree, val: n}, nil
	case 'H':
		n, _ := P.readInt(1)
		return atomPrim{kind: primTotalH, val: n}, nil
	case 'R':
		n, ok := P.readInt(-1)
		if ok && n > 0 {
			return nil, perr(P.src, P.pos-1, "ring-count primitive R%d is not supported, use R, R0 or r<n>", n)
		}
		return atomPrim{kind: primInRing, val: n}, nil
	case 'r':
		n, _ := P.readInt(0)
		return atomPrim{kind: primRingSize, val: n}, nil
	case 'x':
		n, _ := P.readInt(1)
		return atomPrim{kind: primRingBonds, val: n}, nil
	}
	if isUpper(c) {
		if n := chem.AtomicNumber(string(c)); n > 0 {
			return atomAnd{atomPrim{kind: primNumber, val: n}, atomPrim{kind: primAliphatic}}, nil
		}
	}
	P.pos--
	return nil, P.errorf("undefined logical operator or primitive %q", c)
}

// recursive parses $( ... ) and compiles the inner pattern.
func (P *parser) recursive() (atomExpr, *PatternError) {
	start := P.pos
	P.pos++
	if P.peek() != '(' {
		return nil, P.errorf("'$' must be followed by '('")
	}
	depth := 0
	i := P.pos
	for ; i < len(P.src); i++ {
		if P.src[i] == '(' {
			depth++
		} else if P.src[i] == ')' {
			depth--
			if depth == 0 {
				break
			}
		}
	}
	if depth != 0 {
		return nil, perr(P.src, start, "unbalanced recursive pattern")
	}
	inner := P.src[P.pos+1 : i]
	p, err := compile(inner)
	if err != nil {
		err.Pattern = P.src
		err.Pos += P.pos + 1
		return nil, err
	}
	P.pos = i + 1
	return atomRecursive{p: p}, nil
}
