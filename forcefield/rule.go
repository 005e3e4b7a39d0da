/*
 * rule.go, part of goFF.
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
	"fmt"
	"strings"

	"github.com/rmera/goff/smirks"
)

// Class is a class of force field terms. Each class is typed in its own pass.
type Class int

const (
	Bonds Class = iota
	Angles
	ProperTorsions
	ImproperTorsions
	VdW
	Electrostatics
)

// Classes returns all term classes, in the order in which they are typed.
func Classes() []Class {
	return []Class{Bonds, Angles, ProperTorsions, ImproperTorsions, VdW, Electrostatics}
}

var classNames = map[Class]string{
	Bonds:            "Bonds",
	Angles:           "Angles",
	ProperTorsions:   "ProperTorsions",
	ImproperTorsions: "ImproperTorsions",
	VdW:              "vdW",
	Electrostatics:   "Electrostatics",
}

func (c Class) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// ParseClass returns the class with the given name. The comparison is case-insensitive.
func ParseClass(name string) (Class, error) {
	for c, s := range classNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return -1, fmt.Errorf("forcefield: unknown term class %q", name)
}

// Kind returns the pattern kind that rules of the class must have.
func (c Class) Kind() smirks.Kind {
	switch c {
	case Bonds:
		return smirks.KindBond
	case Angles:
		return smirks.KindAngle
	case ProperTorsions:
		return smirks.KindProper
	case ImproperTorsions:
		return smirks.KindImproper
	}
	return smirks.KindAtom
}

// Required returns true if every structural occurrence of the class (every
// bond, angle, proper torsion or atom) must get parameters. Impropers are
// only applied where some rule matches.
func (c Class) Required() bool {
	return c != ImproperTorsions
}

// Fourier is one term of a periodic torsion, k*(1+cos(n*phi-phase))/idivf.
type Fourier struct {
	Periodicity int
	Phase       float64 //degrees
	K           float64 //kJ/mol
	Idivf       float64
}

// Params holds the parameters a rule contributes. Only the fields relevant
// to the rule's class are meaningful.
type Params struct {
	K      float64 //bonds: kJ/mol/nm^2. angles: kJ/mol/rad^2
	Length float64 //nm
	Angle  float64 //degrees
	Terms  []Fourier

	Sigma   float64 //nm
	Epsilon float64 //kJ/mol
	Charge  float64 //e
}

func (p Params) clone() Params {
	p.Terms = append([]Fourier(nil), p.Terms...)
	return p
}

// Rule assigns Params to every occurrence of its pattern, unless a rule with
// higher specificity also matches the occurrence.
type Rule struct {
	ID          string
	Pattern     string
	Class       Class
	Specificity int
	Params      Params
}

// Nonbonded collects the settings for nonbonded interactions that go with a
// force field.
type Nonbonded struct {
	Coulomb14 float64 //scaling factor for 1-4 electrostatics
	LJ14      float64 //scaling factor for 1-4 Lennard-Jones
	Combining string  //"lorentz-berthelot" or "geometric"
	Method    string  //long-range electrostatics method, e.g. "PME" or "cutoff"
	Cutoff    float64 //nm
}

// DefaultNonbonded returns the usual settings for SMIRNOFF/AMBER-like force fields.
func DefaultNonbonded() Nonbonded {
	return Nonbonded{Coulomb14: 1 / 1.2, LJ14: 0.5, Combining: "lorentz-berthelot", Method: "PME", Cutoff: 0.9}
}

// Term is a set of parameters assigned to one occurrence.
type Term struct {
	Class  Class
	Atoms  []int //canonical order for the class
	RuleID string
	Params Params
}
