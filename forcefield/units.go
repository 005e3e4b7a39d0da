/*
 * units.go, part of goFF.
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
	"math"
	"strconv"
	"strings"
)

// dims are the exponents of length, energy, angle and charge.
type dims [4]int

var (
	dimLength      = dims{1, 0, 0, 0}
	dimEnergy      = dims{0, 1, 0, 0}
	dimAngle       = dims{0, 0, 1, 0}
	dimCharge      = dims{0, 0, 0, 1}
	dimBondK       = dims{-2, 1, 0, 0}
	dimAngleK      = dims{0, 1, -2, 0}
	radianToDegree = 180 / math.Pi
)

type unit struct {
	factor float64 //to nm, kJ/mol, rad, e
	d      dims
}

var units = map[string]unit{
	"angstrom":              {0.1, dimLength},
	"nanometer":             {1, dimLength},
	"nanometers":            {1, dimLength},
	"nm":                    {1, dimLength},
	"picometer":             {0.001, dimLength},
	"kilocalorie_per_mole":  {4.184, dimEnergy},
	"kilocalories_per_mole": {4.184, dimEnergy},
	"kilojoule_per_mole":    {1, dimEnergy},
	"kilojoules_per_mole":   {1, dimEnergy},
	"degree":                {math.Pi / 180, dimAngle},
	"degrees":               {math.Pi / 180, dimAngle},
	"radian":                {1, dimAngle},
	"radians":               {1, dimAngle},
	"elementary_charge":     {1, dimCharge},
}

// quantity converts a string like "1.09 * angstrom" or
// "620 * kilocalorie_per_mole/angstrom**2" to internal units, checking that
// the dimensions are the wanted ones. A plain number is taken to be in
// internal units already. Angles are returned in degrees, all other values
// in nm, kJ/mol, rad and e.
func quantity(s string, want dims) (float64, error) {
	s = strings.TrimSpace(s)
	num, unitexpr, found := strings.Cut(s, "*")
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("%q does not start with a number", s)
	}
	if !found {
		return v, nil
	}
	factor, d, err := parseUnit(unitexpr)
	if err != nil {
		return 0, fmt.Errorf("in %q: %w", s, err)
	}
	if d != want {
		return 0, fmt.Errorf("%q has the wrong dimensions for this field", s)
	}
	v *= factor
	if want == dimAngle {
		v *= radianToDegree
	}
	return v, nil
}

// parseUnit parses products and quotients of units with integer powers,
// i.e. "kilocalorie_per_mole/angstrom**2" or "kilojoule_per_mole*nm**-2".
func parseUnit(expr string) (float64, dims, error) {
	factor := 1.0
	var d dims
	sign := 1
	rest := strings.TrimSpace(expr)
	for rest != "" {
		end := strings.IndexAny(rest, "*/")
		for end >= 0 && strings.HasPrefix(rest[end:], "**") {
			//skip the power operator and its exponent
			next := strings.IndexAny(rest[end+2:], "*/")
			if next < 0 {
				end = -1
			} else {
				end = end + 2 + next
			}
		}
		tok := rest
		if end >= 0 {
			tok = rest[:end]
		}
		name, powstr, haspow := strings.Cut(strings.TrimSpace(tok), "**")
		pow := 1
		if haspow {
			p, err := strconv.Atoi(strings.Trim(strings.TrimSpace(powstr), "()"))
			if err != nil {
				return 0, d, fmt.Errorf("bad exponent %q", powstr)
			}
			pow = p
		}
		u, ok := units[strings.TrimSpace(name)]
		if !ok {
			return 0, d, fmt.Errorf("unknown unit %q", strings.TrimSpace(name))
		}
		pow *= sign
		factor *= math.Pow(u.factor, float64(pow))
		for i := range d {
			d[i] += u.d[i] * pow
		}
		if end < 0 {
			break
		}
		sign = 1
		if rest[end] == '/' {
			sign = -1
		}
		rest = strings.TrimSpace(rest[end+1:])
	}
	return factor, d, nil
}
