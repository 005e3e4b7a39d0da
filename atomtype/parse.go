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

package atomtype

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rmera/goff/forcefield"
)

var fi func(string) []string = strings.Fields

// Returns a string without gromacs comments (sequences starting with ';'),
// trailing and leading spaces, tabs and newlines
func cleanString(s string) string {
	f := strings.Split(s, ";")[0]
	return strings.Trim(f, "\r\n\t ")
}

func parseints(s ...string) ([]int, error) {
	r := make([]int, 0, len(s))
	for _, v := range s {
		i, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		r = append(r, i)
	}
	return r, nil
}

func parsefloats(s ...string) ([]float64, error) {
	r := make([]float64, 0, len(s))
	for _, v := range s {
		i, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		r = append(r, i)
	}
	return r, nil
}

func c6c12ToSigmaEpsilon(c6, c12 float64) (sigma float64, epsilon float64) {
	if c6 == 0 || c12 == 0 {
		return 0, 0
	}
	return math.Pow(c12/c6, 1.0/6), c6 * c6 / (4 * c12)
}

// header matches "[ name ]" and "[ template NAME ]" lines.
var header = regexp.MustCompile(`^\[\p{Zs}*([A-Za-z_]+)(?:\p{Zs}+(\S+))?\p{Zs}*\]$`)

// AtomType is an entry of the [ atomtypes ] section.
type AtomType struct {
	Name    string
	Number  int //atomic number
	Mass    float64
	Sigma   float64 //nm
	Epsilon float64 //kJ/mol
}

// BondType is an entry of the [ bondtypes ] section. K in kJ/mol/nm^2.
type BondType struct {
	Types  [2]string
	Length float64
	K      float64
}

// AngleType is an entry of the [ angletypes ] section. K in kJ/mol/rad^2.
type AngleType struct {
	Types [3]string
	Angle float64
	K     float64
}

// DihedralType collects all the [ dihedraltypes ] lines with the same types and
// function: 9 for propers, 4 for impropers. "X" matches any type.
type DihedralType struct {
	Types [4]string
	Func  int
	Terms []forcefield.Fourier
}

// wildcards returns the number of X in the types.
func (d *DihedralType) wildcards() int {
	n := 0
	for _, t := range d.Types {
		if t == "X" {
			n++
		}
	}
	return n
}

// TemplateAtom is an atom of a residue template.
type TemplateAtom struct {
	Name   string
	Type   string
	Charge float64
}

// Template describes a residue. Bonds and impropers refer to atom names; a
// name prefixed with "+" is an atom of the next residue of the same chain.
// Impropers list the central atom first.
type Template struct {
	Name      string
	Atoms     []TemplateAtom
	Bonds     [][2]string
	Impropers [][4]string
}

func (t *Template) atom(name string) (TemplateAtom, bool) {
	for _, a := range t.Atoms {
		if a.Name == name {
			return a, true
		}
	}
	return TemplateAtom{}, false
}

// FF is a conventional, atom-typed force field.
type FF struct {
	Name       string
	Combining  string //"lorentz-berthelot" or "geometric"
	GenPairs   bool
	FudgeLJ    float64
	FudgeQQ    float64
	Method     string
	Cutoff     float64
	AtomTypes  map[string]AtomType
	BondTypes  []BondType
	AngleTypes []AngleType
	Dihedrals  []*DihedralType
	Templates  map[string]*Template
}

// ReadFile reads a force field from the named file.
func ReadFile(path string) (*FF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &forcefield.LoadError{File: path, Msg: "can't open force field file", Err: err}
	}
	defer f.Close()
	return Read(f, path)
}

// Read reads a force field in a Gromacs-like bracketed format. Besides the
// usual [ defaults ], [ atomtypes ], [ bondtypes ], [ angletypes ] and
// [ dihedraltypes ] sections, it reads [ nonbonded ] (method and cutoff lines)
// and [ template NAME ] sections, which contain "atom NAME TYPE CHARGE",
// "bond NAME1 NAME2" and "improper CENTER NAME1 NAME2 NAME3" lines.
func Read(r io.Reader, name string) (*FF, error) {
	F := &FF{
		Name:      name,
		Combining: "lorentz-berthelot",
		GenPairs:  true,
		FudgeLJ:   0.5,
		FudgeQQ:   1 / 1.2,
		Method:    "PME",
		Cutoff:    0.9,
		AtomTypes: make(map[string]AtomType),
		Templates: make(map[string]*Template),
	}
	sigmaEpsilon := true
	section := ""
	var tmpl *Template
	dihedrals := make(map[string]*DihedralType)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := cleanString(sc.Text())
		if s == "" {
			continue
		}
		lerr := func(format string, a ...any) error {
			return &forcefield.LoadError{File: name, Line: line, Msg: fmt.Sprintf(format, a...)}
		}
		if strings.HasPrefix(s, "[") {
			m := header.FindStringSubmatch(s)
			if m == nil {
				return nil, lerr("malformed header %q", s)
			}
			section = m[1]
			if section == "template" {
				if m[2] == "" {
					return nil, lerr("template without a name")
				}
				if _, ok := F.Templates[m[2]]; ok {
					return nil, lerr("template %s defined twice", m[2])
				}
				tmpl = &Template{Name: m[2]}
				F.Templates[m[2]] = tmpl
			}
			continue
		}
		f := fi(s)
		var err error
		switch section {
		case "defaults":
			err = F.readDefaults(f, &sigmaEpsilon)
		case "nonbonded":
			err = F.readNonbonded(f)
		case "atomtypes":
			err = F.readAtomType(f, sigmaEpsilon)
		case "bondtypes":
			err = F.readBondType(f)
		case "angletypes":
			err = F.readAngleType(f)
		case "dihedraltypes":
			err = F.readDihedralType(f, dihedrals)
		case "template":
			err = tmpl.readLine(f)
		case "":
			err = fmt.Errorf("data before any section")
		default:
			err = fmt.Errorf("unknown section %q", section)
		}
		if err != nil {
			return nil, lerr("%s", err.Error())
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &forcefield.LoadError{File: name, Line: line, Msg: "read error", Err: err}
	}
	return F, nil
}

func (F *FF) readDefaults(f []string, sigmaEpsilon *bool) error {
	if len(f) < 2 {
		return fmt.Errorf("[ defaults ] needs at least nbfunc and comb-rule")
	}
	comb, err := strconv.Atoi(f[1])
	if err != nil {
		return err
	}
	switch comb {
	case 1:
		*sigmaEpsilon = false
		F.Combining = "geometric"
	case 2:
		F.Combining = "lorentz-berthelot"
	case 3:
		F.Combining = "geometric"
	default:
		return fmt.Errorf("unknown combination rule %d", comb)
	}
	if len(f) > 2 {
		F.GenPairs = strings.EqualFold(f[2], "yes")
	}
	if len(f) > 4 {
		fudge, err := parsefloats(f[3:5]...)
		if err != nil {
			return err
		}
		F.FudgeLJ, F.FudgeQQ = fudge[0], fudge[1]
	}
	return nil
}

func (F *FF) readNonbonded(f []string) error {
	if len(f) != 2 {
		return fmt.Errorf("expected a key and a value")
	}
	switch f[0] {
	case "method":
		F.Method = f[1]
	case "cutoff":
		c, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return err
		}
		F.Cutoff = c
	default:
		return fmt.Errorf("unknown nonbonded setting %q", f[0])
	}
	return nil
}

// name at.num mass charge ptype sigma epsilon (or c6 c12)
func (F *FF) readAtomType(f []string, sigmaEpsilon bool) error {
	if len(f) != 7 {
		return fmt.Errorf("atom type lines need 7 fields, got %d", len(f))
	}
	num, err := strconv.Atoi(f[1])
	if err != nil {
		return err
	}
	v, err := parsefloats(f[2], f[5], f[6])
	if err != nil {
		return err
	}
	at := AtomType{Name: f[0], Number: num, Mass: v[0], Sigma: v[1], Epsilon: v[2]}
	if !sigmaEpsilon {
		at.Sigma, at.Epsilon = c6c12ToSigmaEpsilon(v[1], v[2])
	}
	F.AtomTypes[at.Name] = at
	return nil
}

// i j func b0 kb
func (F *FF) readBondType(f []string) error {
	if len(f) != 5 || f[2] != "1" {
		return fmt.Errorf("bond type lines must be 'i j 1 b0 kb'")
	}
	v, err := parsefloats(f[3:]...)
	if err != nil {
		return err
	}
	F.BondTypes = append(F.BondTypes, BondType{Types: [2]string{f[0], f[1]}, Length: v[0], K: v[1]})
	return nil
}

// i j k func th0 cth
func (F *FF) readAngleType(f []string) error {
	if len(f) != 6 || f[3] != "1" {
		return fmt.Errorf("angle type lines must be 'i j k 1 th0 cth'")
	}
	v, err := parsefloats(f[4:]...)
	if err != nil {
		return err
	}
	F.AngleTypes = append(F.AngleTypes, AngleType{Types: [3]string{f[0], f[1], f[2]}, Angle: v[0], K: v[1]})
	return nil
}

// i j k l func phase kd pn
func (F *FF) readDihedralType(f []string, seen map[string]*DihedralType) error {
	if len(f) != 8 {
		return fmt.Errorf("dihedral type lines must be 'i j k l func phase kd pn'")
	}
	ints, err := parseints(f[4], f[7])
	if err != nil {
		return err
	}
	if ints[0] != 9 && ints[0] != 4 {
		return fmt.Errorf("only dihedral functions 9 and 4 are supported, got %d", ints[0])
	}
	v, err := parsefloats(f[5:7]...)
	if err != nil {
		return err
	}
	key := strings.Join(f[:5], " ")
	d, ok := seen[key]
	if !ok {
		d = &DihedralType{Types: [4]string{f[0], f[1], f[2], f[3]}, Func: ints[0]}
		seen[key] = d
		F.Dihedrals = append(F.Dihedrals, d)
	}
	d.Terms = append(d.Terms, forcefield.Fourier{Periodicity: ints[1], Phase: v[0], K: v[1], Idivf: 1})
	return nil
}

func (t *Template) readLine(f []string) error {
	switch {
	case f[0] == "atom" && len(f) == 4:
		q, err := strconv.ParseFloat(f[3], 64)
		if err != nil {
			return err
		}
		if _, ok := t.atom(f[1]); ok {
			return fmt.Errorf("atom %s repeated in template %s", f[1], t.Name)
		}
		t.Atoms = append(t.Atoms, TemplateAtom{Name: f[1], Type: f[2], Charge: q})
	case f[0] == "bond" && len(f) == 3:
		t.Bonds = append(t.Bonds, [2]string{f[1], f[2]})
	case f[0] == "improper" && len(f) == 5:
		t.Impropers = append(t.Impropers, [4]string{f[1], f[2], f[3], f[4]})
	default:
		return fmt.Errorf("bad template line %q", strings.Join(f, " "))
	}
	return nil
}
