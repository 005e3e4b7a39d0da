/*
 * mdl.go, part of goFF.
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

// charge codes of the atom block
var mdlCharge = map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 5: -1, 6: -2, 7: -3}

// ReadMol reads a single MDL V2000 molfile.
func ReadMol(r io.Reader) (Record, error) {
	L := newLines(r, "mdl")
	rec, err := mdlRecord(L)
	if err == io.EOF {
		return Record{}, L.errorf("empty molfile")
	}
	return rec, err
}

// ReadSDF reads all the records of an SD file. A file with a single molfile,
// without the "$$$$" terminator, is also accepted.
func ReadSDF(r io.Reader) ([]Record, error) {
	L := newLines(r, "sdf")
	var recs []Record
	for {
		rec, err := mdlRecord(L)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, L.sc.Err()
}

// mdlRecord reads one molfile and the data items that follow it, up to and
// including the "$$$$" line. It returns io.EOF if there is nothing left to read.
func mdlRecord(L *lines) (Record, error) {
	var rec Record
	var header [4]string
	for i := range header {
		line, ok := L.next()
		if !ok {
			if strings.TrimSpace(strings.Join(header[:i], "")) == "" {
				//blank lines at the end of the file
				return rec, io.EOF
			}
			return rec, L.errorf("truncated header")
		}
		header[i] = line
	}
	rec.Name = strings.TrimSpace(header[0])
	counts := header[3]
	if field(counts, 34, 39) == "V3000" {
		return rec, L.errorf("V3000 molfiles are not supported")
	}
	natoms, err1 := strconv.Atoi(field(counts, 0, 3))
	nbonds, err2 := strconv.Atoi(field(counts, 3, 6))
	if err1 != nil || err2 != nil {
		return rec, L.errorf("malformed counts line %q", counts)
	}
	atoms := make([]chem.Atom, 0, natoms)
	for i := 0; i < natoms; i++ {
		line, ok := L.next()
		if !ok {
			return rec, L.errorf("expected %d atoms, found %d", natoms, i)
		}
		a, err := mdlAtom(line)
		if err != nil {
			return rec, L.errorf("atom %d: %s", i+1, err)
		}
		atoms = append(atoms, a)
	}
	bonds := make([]chem.Bond, 0, nbonds)
	for i := 0; i < nbonds; i++ {
		line, ok := L.next()
		if !ok {
			return rec, L.errorf("expected %d bonds, found %d", nbonds, i)
		}
		b, err := mdlBond(line, natoms)
		if err != nil {
			return rec, L.errorf("bond %d: %s", i+1, err)
		}
		if b.Aromatic {
			atoms[b.At1].Aromatic = true
			atoms[b.At2].Aromatic = true
		}
		bonds = append(bonds, b)
	}
	chg := false
	for {
		line, ok := L.next()
		if !ok {
			return rec, L.errorf("missing M  END")
		}
		if strings.HasPrefix(line, "M  END") {
			break
		}
		if !strings.HasPrefix(line, "M  CHG") {
			continue
		}
		//the first CHG line supersedes all the charges in the atom block
		if !chg {
			for i := range atoms {
				atoms[i].FormalCharge = 0
			}
			chg = true
		}
		f := strings.Fields(line[6:])
		if len(f) == 0 {
			return rec, L.errorf("malformed charge line %q", line)
		}
		n, err := strconv.Atoi(f[0])
		if err != nil || len(f) != 2*n+1 {
			return rec, L.errorf("malformed charge line %q", line)
		}
		for k := 0; k < n; k++ {
			at, err1 := strconv.Atoi(f[1+2*k])
			q, err2 := strconv.Atoi(f[2+2*k])
			if err1 != nil || err2 != nil || at < 1 || at > natoms {
				return rec, L.errorf("malformed charge line %q", line)
			}
			atoms[at-1].FormalCharge = q
		}
	}
	rec.Data = make(map[string]string)
	key := ""
	var value []string
	for {
		line, ok := L.next()
		if !ok || strings.HasPrefix(line, "$$$$") {
			break
		}
		switch {
		case strings.HasPrefix(line, ">"):
			key = ""
			if i, j := strings.Index(line, "<"), strings.LastIndex(line, ">"); i > 0 && j > i {
				key = line[i+1 : j]
			}
			value = value[:0]
		case key != "" && strings.TrimSpace(line) == "":
			rec.Data[key] = strings.Join(value, "\n")
			key = ""
		case key != "":
			value = append(value, line)
		}
	}
	if key != "" {
		rec.Data[key] = strings.Join(value, "\n")
	}
	B := chem.NewBuilder().PerceiveAromaticity()
	for _, a := range atoms {
		B.AddAtom(a)
	}
	for _, b := range bonds {
		if err := B.AddBondFull(b); err != nil {
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

func mdlAtom(line string) (chem.Atom, error) {
	var a chem.Atom
	var c [3]float64
	for k := range c {
		v, err := strconv.ParseFloat(field(line, 10*k, 10*k+10), 64)
		if err != nil {
			return a, err
		}
		c[k] = v / 10
	}
	a.Pos = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
	a.Symbol = field(line, 31, 34)
	a.Number = chem.AtomicNumber(a.Symbol)
	if a.Number == 0 {
		return a, fmt.Errorf("unknown element %q", a.Symbol)
	}
	if s := field(line, 36, 39); s != "" {
		code, err := strconv.Atoi(s)
		if err != nil {
			return a, err
		}
		a.FormalCharge = mdlCharge[code]
	}
	return a, nil
}

func mdlBond(line string, natoms int) (chem.Bond, error) {
	var b chem.Bond
	i, err1 := strconv.Atoi(field(line, 0, 3))
	j, err2 := strconv.Atoi(field(line, 3, 6))
	t, err3 := strconv.Atoi(field(line, 6, 9))
	if err1 != nil || err2 != nil || err3 != nil {
		return b, fmt.Errorf("malformed bond line %q", line)
	}
	if i < 1 || j < 1 || i > natoms || j > natoms {
		return b, fmt.Errorf("bond to a non-existent atom")
	}
	b.At1, b.At2 = i-1, j-1
	if b.At1 > b.At2 {
		b.At1, b.At2 = b.At2, b.At1
	}
	switch t {
	case 1, 2, 3:
		b.Order = float64(t)
	case 4:
		b.Order = 1.5
		b.Aromatic = true
	default:
		return b, fmt.Errorf("query bond type %d not supported", t)
	}
	return b, nil
}
