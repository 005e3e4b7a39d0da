/*
 * pdb.go, part of goFF.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
	"fmt"
	"io"
	"strconv"
	"strings"

	chem "github.com/rmera/goff"
	"gonum.org/v1/gonum/spatial/r3"
)

// symbolFromName guesses the element from a PDB atom name. Mostly based
// on AMBER names, it only deals with some common bio-elements.
func symbolFromName(name string) (string, error) {
	name = strings.TrimLeft(name, "0123456789")
	if name == "" {
		return "", fmt.Errorf("empty atom name")
	}
	if len(name) == 4 || name[0] == 'H' { //only Hs have 4-character names in AMBER
		return "H", nil
	}
	switch name {
	case "CU", "CO", "CL", "NA", "SE", "ZN", "MG", "FE", "MN", "CA":
		//ions and metals, but CA is the alpha carbon.
		if name != "CA" {
			return name[:1] + strings.ToLower(name[1:]), nil
		}
	}
	switch name[0] {
	case 'C', 'N', 'O', 'P', 'S':
		return name[:1], nil
	}
	return "", fmt.Errorf("couldn't guess symbol from PDB name %q", name)
}

// pdbCharge parses the charge columns, such as "1-" or "2+".
func pdbCharge(s string) int {
	if len(s) != 2 {
		return 0
	}
	q, err := strconv.Atoi(s[:1])
	if err != nil {
		return 0
	}
	if s[1] == '-' {
		return -q
	}
	return q
}

func pdbAtom(line string) (chem.Atom, int, error) {
	var a chem.Atom
	if len(line) < 54 {
		return a, 0, fmt.Errorf("line too short")
	}
	serial, err := strconv.Atoi(field(line, 6, 11))
	if err != nil {
		return a, 0, err
	}
	a.Name = field(line, 12, 16)
	//column 17 is used for the residue name in many files
	a.MolName = field(line, 17, 21)
	a.Chain = line[21]
	if a.Chain == ' ' {
		a.Chain = 0
	}
	if a.MolID, err = strconv.Atoi(field(line, 22, 26)); err != nil {
		return a, 0, err
	}
	var c [3]float64
	for k := range c {
		if c[k], err = strconv.ParseFloat(field(line, 30+8*k, 38+8*k), 64); err != nil {
			return a, 0, err
		}
	}
	a.Pos = r3.Vec{X: c[0] / 10, Y: c[1] / 10, Z: c[2] / 10}
	a.Symbol = field(line, 76, 78)
	if len(a.Symbol) == 2 {
		a.Symbol = a.Symbol[:1] + strings.ToLower(a.Symbol[1:])
	}
	if a.Symbol == "" {
		if a.Symbol, err = symbolFromName(a.Name); err != nil {
			return a, 0, err
		}
	}
	a.Number = chem.AtomicNumber(a.Symbol)
	if a.Number == 0 {
		return a, 0, fmt.Errorf("unknown element %q", a.Symbol)
	}
	a.FormalCharge = pdbCharge(field(line, 78, 80))
	return a, serial, nil
}

// ReadPDB reads the ATOM, HETATM and CONECT records of the first model in a
// PDB file. All bonds are single bonds. Without CONECT records, bonds are
// assigned from interatomic distances. The record takes its name from the
// first COMPND or HEADER line, if any.
func ReadPDB(r io.Reader) (Record, error) {
	L := newLines(r, "pdb")
	var rec Record
	B := chem.NewBuilder().PerceiveAromaticity()
	serials := make(map[int]int)
	var conect [][2]int
	var conectLines []int
lines:
	for {
		line, ok := L.next()
		if !ok {
			break
		}
		switch {
		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			a, serial, err := pdbAtom(line)
			if err != nil {
				return rec, L.errorf("%s", err)
			}
			serials[serial] = B.AddAtom(a)
		case strings.HasPrefix(line, "CONECT"):
			from, err := strconv.Atoi(field(line, 6, 11))
			if err != nil {
				return rec, L.errorf("malformed CONECT record")
			}
			for k := 11; k < 31; k += 5 {
				s := field(line, k, k+5)
				if s == "" {
					break
				}
				to, err := strconv.Atoi(s)
				if err != nil {
					return rec, L.errorf("malformed CONECT record")
				}
				conect = append(conect, [2]int{from, to})
				conectLines = append(conectLines, L.n)
			}
		case strings.HasPrefix(line, "COMPND") || strings.HasPrefix(line, "HEADER"):
			if rec.Name == "" {
				rec.Name = field(line, 10, 80)
			}
		case strings.HasPrefix(line, "ENDMDL") || strings.HasPrefix(line, "END"):
			break lines
		}
	}
	if err := L.sc.Err(); err != nil {
		return rec, err
	}
	if B.Len() == 0 {
		return rec, L.errorf("no atoms found")
	}
	for k, c := range conect {
		i, ok1 := serials[c[0]]
		j, ok2 := serials[c[1]]
		if !ok1 || !ok2 {
			return rec, &FormatError{Format: "pdb", Line: conectLines[k], Msg: fmt.Sprintf("CONECT %d-%d references a missing atom", c[0], c[1]), deco: []string{"pdb"}}
		}
		//bonds are usually listed from both ends
		if _, ok := B.BondIndex(i, j); ok {
			continue
		}
		if err := B.AddBond(i, j, 1); err != nil {
			return rec, &FormatError{Format: "pdb", Line: conectLines[k], Msg: err.Error(), deco: []string{"pdb"}}
		}
	}
	if len(conect) == 0 {
		if err := B.AssignBonds(); err != nil {
			return rec, L.errorf("%s", err)
		}
	}
	mol, err := B.Build()
	if err != nil {
		return rec, L.errorf("%s", err)
	}
	rec.Mol = mol
	return rec, nil
}
