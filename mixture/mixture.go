/*
 * mixture.go, part of goFF.
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

// Package mixture describes how many copies of each subsystem go into a
// composed system. A mixture is a list of components, each with a mole
// fraction, or marked as an impurity (a single copy, at infinite dilution).
//
// A neat liquid has one component that fills the whole mixture:
//
//	M := new(mixture.Mixture)
//	M.Add("water", nil, false)
//
// A binary mixture gives a fraction for the first component, the second
// takes the rest:
//
//	M.Add("water", mixture.Fraction(0.2), false)
//	M.Add("methanol", nil, false)
//
// A solute at infinite dilution is an impurity:
//
//	M.Add("phenol", nil, true)
//	M.Add("water", nil, false)
package mixture

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Sentinel errors for mixture operations.
var (
	// ErrNoAmount is returned when a component without a mole fraction is
	// added to a mixture that has no mole fraction left for it.
	ErrNoAmount = errors.New("no mole fraction left; give a mole fraction or the impurity flag")

	// ErrImpurityFraction is returned when an impurity is given a non-zero mole fraction.
	ErrImpurityFraction = errors.New("impurities must have a zero or unspecified mole fraction")

	// ErrFractionRange is returned for mole fractions outside [0,1].
	ErrFractionRange = errors.New("mole fraction out of [0,1]")

	// ErrExceedsUnity is returned when a component would take the total mole fraction over 1.
	ErrExceedsUnity = errors.New("total mole fraction would exceed 1")

	// ErrDuplicate is returned when a component name is added twice.
	ErrDuplicate = errors.New("repeated component")

	// ErrNotFound is returned when asking for a component not in the mixture.
	ErrNotFound = errors.New("component not found")

	// ErrTooFew is returned by Counts when the total can't hold the impurities.
	ErrTooFew = errors.New("total number of molecules smaller than the number of impurities")
)

// fractions closer than this to 1 are not considered to exceed it.
const tolerance = 1e-12

// Component is a named part of a mixture.
type Component struct {
	Name     string
	Fraction float64
	Impurity bool
}

// Mixture is a list of components with their amounts. The zero value is an
// empty mixture, ready to use.
type Mixture struct {
	components []Component
}

// Fraction returns a pointer to f, for use with Add.
func Fraction(f float64) *float64 {
	return &f
}

// Add adds a component. If fraction is nil and the component is not an impurity,
// it takes whatever mole fraction is left to reach 1. Impurities get a zero
// mole fraction.
func (M *Mixture) Add(name string, fraction *float64, impurity bool) error {
	if slices.ContainsFunc(M.components, func(c Component) bool { return c.Name == name }) {
		return fmt.Errorf("mixture: %w: %s", ErrDuplicate, name)
	}
	switch {
	case !impurity && fraction == nil && M.TotalFraction() >= 1-tolerance:
		return fmt.Errorf("mixture: %s: %w", name, ErrNoAmount)
	case impurity && fraction != nil && *fraction != 0:
		return fmt.Errorf("mixture: %s: %w, got %g", name, ErrImpurityFraction, *fraction)
	case fraction != nil && (*fraction < 0 || *fraction > 1 || math.IsNaN(*fraction)):
		return fmt.Errorf("mixture: %s: %w, got %g", name, ErrFractionRange, *fraction)
	}
	var f float64
	switch {
	case impurity:
		f = 0
	case fraction == nil:
		f = 1 - M.TotalFraction()
	default:
		f = *fraction
	}
	if M.TotalFraction()+f > 1+tolerance {
		return fmt.Errorf("mixture: %s: %w (total so far %g, adding %g)", name, ErrExceedsUnity, M.TotalFraction(), f)
	}
	M.components = append(M.components, Component{Name: name, Fraction: f, Impurity: impurity})
	return nil
}

// TotalFraction returns the sum of the mole fractions of all components.
func (M *Mixture) TotalFraction() float64 {
	var t float64
	for _, c := range M.components {
		t += c.Fraction
	}
	return t
}

// Len returns the number of components.
func (M *Mixture) Len() int { return len(M.components) }

// Impurities returns the number of impurity components.
func (M *Mixture) Impurities() int {
	n := 0
	for _, c := range M.components {
		if c.Impurity {
			n++
		}
	}
	return n
}

// Components returns a copy of the components, in the order they were added.
func (M *Mixture) Components() []Component {
	return slices.Clone(M.components)
}

// Component returns the component with the given name.
func (M *Mixture) Component(name string) (Component, error) {
	for _, c := range M.components {
		if c.Name == name {
			return c, nil
		}
	}
	return Component{}, fmt.Errorf("mixture: %w: %s", ErrNotFound, name)
}

// Tag returns a string identifying the mixture: name{fraction} for each
// component, sorted and joined by "|". The order in which components were
// added doesn't change the tag.
func (M *Mixture) Tag() string {
	tags := make([]string, 0, len(M.components))
	for _, c := range M.components {
		tags = append(tags, c.Name+"{"+formatFraction(c.Fraction)+"}")
	}
	slices.Sort(tags)
	return strings.Join(tags, "|")
}

// formatFraction writes f in its shortest form, always with a decimal point.
func formatFraction(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Counts returns the number of copies of each component, in the order they
// were added, for a system of total molecules. Impurities get one copy each.
// The rest of the molecules are split according to the mole fractions,
// rounding by largest remainder, so the counts add up to the rounded total
// mole fraction times the molecules available.
func (M *Mixture) Counts(total int) ([]int, error) {
	imp := M.Impurities()
	if total < imp {
		return nil, fmt.Errorf("mixture: %w (%d molecules, %d impurities)", ErrTooFew, total, imp)
	}
	n := float64(total - imp)
	counts := make([]int, len(M.components))
	type remainder struct {
		i int
		r float64
	}
	var rems []remainder
	assigned := 0
	for i, c := range M.components {
		if c.Impurity {
			counts[i] = 1
			continue
		}
		exact := c.Fraction * n
		counts[i] = int(math.Floor(exact + tolerance))
		assigned += counts[i]
		rems = append(rems, remainder{i, exact - float64(counts[i])})
	}
	target := int(math.Round(M.TotalFraction() * n))
	slices.SortStableFunc(rems, func(a, b remainder) int {
		switch {
		case a.r > b.r:
			return -1
		case a.r < b.r:
			return 1
		}
		return 0
	})
	for k := 0; assigned < target && k < len(rems); k++ {
		counts[rems[k].i]++
		assigned++
	}
	return counts, nil
}

// String returns the tag of the mixture.
func (M *Mixture) String() string {
	return M.Tag()
}
