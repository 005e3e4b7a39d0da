/*
 * load.go, part of goFF.
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
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rmera/goff/smirks"
	"gopkg.in/yaml.v3"
)

// ForceField is a rule set as read from a file.
type ForceField struct {
	Name      string
	Version   string
	Rules     []Rule
	Nonbonded Nonbonded
}

// Engine builds a typing engine with the force field's rules and nonbonded settings.
func (ff *ForceField) Engine() (*Engine, error) {
	return NewEngineNonbonded(ff.Nonbonded, ff.Rules...)
}

// qstring is a scalar read as its literal text, so quantities like
// "1.09 * angstrom" and plain numbers can share a field.
type qstring string

func (q *qstring) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a single value", n.Line)
	}
	*q = qstring(n.Value)
	return nil
}

// qlist is a list of scalars. A single scalar is read as a list of one.
type qlist []qstring

func (q *qlist) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*q = qlist{qstring(n.Value)}
		return nil
	case yaml.SequenceNode:
		ret := make(qlist, 0, len(n.Content))
		for _, v := range n.Content {
			var s qstring
			if err := s.UnmarshalYAML(v); err != nil {
				return err
			}
			ret = append(ret, s)
		}
		*q = ret
		return nil
	}
	return fmt.Errorf("line %d: expected a value or a list of values", n.Line)
}

type ruleRecord struct {
	ID          string  `yaml:"id"`
	Smirks      string  `yaml:"smirks"`
	Specificity *int    `yaml:"specificity"`
	K           qlist   `yaml:"k"`
	Length      qstring `yaml:"length"`
	Angle       qstring `yaml:"angle"`
	Periodicity qlist   `yaml:"periodicity"`
	Phase       qlist   `yaml:"phase"`
	Idivf       qlist   `yaml:"idivf"`
	Epsilon     qstring `yaml:"epsilon"`
	Sigma       qstring `yaml:"sigma"`
	RminHalf    qstring `yaml:"rmin_half"`
	Charge      qstring `yaml:"charge"`
}

type nonbondedRecord struct {
	Coulomb14 *float64 `yaml:"coulomb14"`
	LJ14      *float64 `yaml:"lj14"`
	Combining string   `yaml:"combining"`
	Method    string   `yaml:"method"`
	Cutoff    qstring  `yaml:"cutoff"`
}

var sections = map[string]Class{
	"bonds":             Bonds,
	"angles":            Angles,
	"propers":           ProperTorsions,
	"proper_torsions":   ProperTorsions,
	"impropers":         ImproperTorsions,
	"improper_torsions": ImproperTorsions,
	"vdw":               VdW,
	"electrostatics":    Electrostatics,
	"charges":           Electrostatics,
}

// LoadFile reads a force field from a YAML rule file.
func LoadFile(path string) (*ForceField, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{File: path, Msg: "can't open rule file", Err: err}
	}
	defer f.Close()
	return Load(f, path)
}

// Load reads a force field in YAML format from r. name is used in error
// messages. Each section (bonds, angles, propers, impropers, vdw,
// electrostatics) is a list of rules. A rule without an explicit specificity
// gets its position in the section, so later rules override earlier ones.
func Load(r io.Reader, name string) (*ForceField, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{File: name, Msg: "empty rule file"}
		}
		return nil, &LoadError{File: name, Msg: "malformed YAML", Err: err}
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, &LoadError{File: name, Line: root.Line, Msg: "the rule file must be a mapping"}
	}
	ff := &ForceField{Nonbonded: DefaultNonbonded()}
	ids := make(map[string]int)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		lerr := func(line int, format string, a ...any) error {
			return &LoadError{File: name, Line: line, Msg: fmt.Sprintf(format, a...)}
		}
		switch key.Value {
		case "name":
			ff.Name = val.Value
		case "version":
			ff.Version = val.Value
		case "nonbonded":
			var rec nonbondedRecord
			if err := val.Decode(&rec); err != nil {
				return nil, &LoadError{File: name, Line: val.Line, Msg: "bad nonbonded section", Err: err}
			}
			if err := rec.apply(&ff.Nonbonded); err != nil {
				return nil, &LoadError{File: name, Line: val.Line, Msg: "bad nonbonded section", Err: err}
			}
		default:
			class, ok := sections[strings.ToLower(key.Value)]
			if !ok {
				return nil, lerr(key.Line, "unknown section %q", key.Value)
			}
			if val.Kind != yaml.SequenceNode {
				return nil, lerr(val.Line, "section %q must be a list of rules", key.Value)
			}
			for k, item := range val.Content {
				var rec ruleRecord
				if err := item.Decode(&rec); err != nil {
					return nil, &LoadError{File: name, Line: item.Line, Msg: "bad rule", Err: err}
				}
				if rec.ID == "" {
					return nil, lerr(item.Line, "rule without id")
				}
				if prev, ok := ids[rec.ID]; ok {
					return nil, &LoadError{File: name, Line: item.Line, Rule: rec.ID, Msg: fmt.Sprintf("ID already used at line %d", prev)}
				}
				ids[rec.ID] = item.Line
				rule, err := rec.rule(class, k)
				if err != nil {
					return nil, &LoadError{File: name, Line: item.Line, Rule: rec.ID, Msg: "bad rule", Err: err}
				}
				ff.Rules = append(ff.Rules, rule)
			}
		}
	}
	return ff, nil
}

func (rec nonbondedRecord) apply(nb *Nonbonded) error {
	if rec.Coulomb14 != nil {
		nb.Coulomb14 = *rec.Coulomb14
	}
	if rec.LJ14 != nil {
		nb.LJ14 = *rec.LJ14
	}
	if rec.Combining != "" {
		c := strings.ToLower(rec.Combining)
		if c != "lorentz-berthelot" && c != "geometric" {
			return fmt.Errorf("unknown combining rule %q", rec.Combining)
		}
		nb.Combining = c
	}
	if rec.Method != "" {
		nb.Method = rec.Method
	}
	if rec.Cutoff != "" {
		c, err := quantity(string(rec.Cutoff), dimLength)
		if err != nil {
			return err
		}
		nb.Cutoff = c
	}
	return nil
}

// rule builds the Rule for a record found at position index of the section.
func (rec ruleRecord) rule(class Class, index int) (Rule, error) {
	r := Rule{ID: rec.ID, Pattern: rec.Smirks, Class: class, Specificity: index}
	if rec.Specificity != nil {
		r.Specificity = *rec.Specificity
	}
	p, err := smirks.Compile(rec.Smirks)
	if err != nil {
		return r, err
	}
	if p.Kind() != class.Kind() {
		return r, fmt.Errorf("%s pattern in a %s section", p.Kind(), class)
	}
	var errs []error
	get := func(q qstring, d dims, field string) float64 {
		if q == "" {
			errs = append(errs, fmt.Errorf("missing field %q", field))
			return 0
		}
		v, err := quantity(string(q), d)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", field, err))
		}
		return v
	}
	single := func(l qlist, field string) qstring {
		if len(l) != 1 {
			errs = append(errs, fmt.Errorf("field %q must have exactly one value", field))
			return ""
		}
		return l[0]
	}
	switch class {
	case Bonds:
		r.Params.K = get(single(rec.K, "k"), dimBondK, "k")
		r.Params.Length = get(rec.Length, dimLength, "length")
	case Angles:
		r.Params.K = get(single(rec.K, "k"), dimAngleK, "k")
		r.Params.Angle = get(rec.Angle, dimAngle, "angle")
	case ProperTorsions, ImproperTorsions:
		n := len(rec.Periodicity)
		if n == 0 || len(rec.Phase) != n || len(rec.K) != n || (len(rec.Idivf) != 0 && len(rec.Idivf) != n) {
			return r, fmt.Errorf("periodicity, phase, k and idivf must be lists of the same, non-zero, length")
		}
		for i := 0; i < n; i++ {
			per, err := strconv.Atoi(string(rec.Periodicity[i]))
			if err != nil || per < 0 {
				return r, fmt.Errorf("bad periodicity %q", rec.Periodicity[i])
			}
			f := Fourier{Periodicity: per, Idivf: 1}
			f.Phase = get(rec.Phase[i], dimAngle, "phase")
			f.K = get(rec.K[i], dimEnergy, "k")
			if len(rec.Idivf) > 0 {
				f.Idivf, err = strconv.ParseFloat(string(rec.Idivf[i]), 64)
				if err != nil || f.Idivf == 0 {
					return r, fmt.Errorf("bad idivf %q", rec.Idivf[i])
				}
			}
			r.Params.Terms = append(r.Params.Terms, f)
		}
	case VdW:
		r.Params.Epsilon = get(rec.Epsilon, dimEnergy, "epsilon")
		switch {
		case rec.Sigma != "":
			r.Params.Sigma = get(rec.Sigma, dimLength, "sigma")
		case rec.RminHalf != "":
			r.Params.Sigma = 2 * get(rec.RminHalf, dimLength, "rmin_half") / math.Pow(2, 1.0/6)
		default:
			errs = append(errs, fmt.Errorf("one of sigma or rmin_half is needed"))
		}
	case Electrostatics:
		r.Params.Charge = get(rec.Charge, dimCharge, "charge")
	}
	return r, errors.Join(errs...)
}
