/*
 * atomicdata.go, part of goFF.
 *
 *
 * Copyright 2021 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

package chem

// element holds the tabulated data for one chemical element.
// Radii are in Angstrom, masses in Dalton.
type element struct {
	number   int
	mass     float64
	covrad   float64 //Cordero et al., 2008 (DOI:10.1039/B801115J)
	vdwrad   float64 //10.1021/j100785a001, 10.1021/jp8111556, metals from 10.1023/A:1011625728803
	maxbonds int     //0 means undefined, i.e. the atom is not checked for max bonds.
	valence  []int   //default valences, used to fill implicit hydrogens.
}

// Note that just common "bio-elements" are present
var elements = map[string]element{
	"H":  {1, 1.008, 0.4, 1.10, 1, []int{1}}, //covalent radius altered from 0.31. H always has only one bond, so the extra bonds get eliminated later.
	"Be": {4, 9.012, 0.96, 1.53, 0, nil},
	"B":  {5, 10.81, 0.84, 1.92, 0, []int{3}},
	"C":  {6, 12.011, 0.76, 1.70, 4, []int{4}}, //the sp3 radius
	"N":  {7, 14.007, 0.71, 1.55, 0, []int{3}},
	"O":  {8, 15.999, 0.66, 1.52, 2, []int{2}},
	"F":  {9, 18.998, 0.57, 1.47, 1, []int{1}},
	"Na": {11, 22.99, 1.66, 2.27, 0, nil},
	"Mg": {12, 24.305, 1.41, 1.73, 0, nil},
	"Si": {14, 28.085, 1.11, 2.10, 0, []int{4}},
	"P":  {15, 30.974, 1.07, 1.80, 0, []int{3, 5}},
	"S":  {16, 32.06, 1.05, 1.80, 0, []int{2, 4, 6}},
	"Cl": {17, 35.45, 1.02, 1.75, 1, []int{1}},
	"K":  {19, 39.098, 2.03, 2.75, 0, nil},
	"Ca": {20, 40.078, 1.76, 2.31, 0, nil},
	"Cr": {24, 51.996, 1.39, 1.97, 0, nil},
	"Mn": {25, 54.938, 1.61, 1.96, 0, nil}, //hs
	"Fe": {26, 55.845, 1.52, 1.96, 0, nil}, //hs
	"Co": {27, 58.933, 1.5, 1.95, 0, nil},  //hs
	"Cu": {29, 63.546, 1.32, 2.00, 0, nil},
	"Zn": {30, 65.38, 1.22, 2.02, 0, nil},
	"Se": {34, 78.971, 1.2, 1.90, 0, []int{2}},
	"Br": {35, 79.904, 1.2, 1.83, 1, []int{1}},
	"I":  {53, 126.90, 1.39, 1.98, 1, []int{1}},
}

var numberSymbol = func() map[int]string {
	r := make(map[int]string, len(elements))
	for k, v := range elements {
		r[v.number] = k
	}
	return r
}()

// AtomicNumber returns the atomic number for the element symbol, or 0 if
// the element is not tabulated.
func AtomicNumber(symbol string) int {
	return elements[symbol].number
}

// SymbolFromNumber returns the element symbol for an atomic number, or the
// empty string if the element is not tabulated.
func SymbolFromNumber(n int) string {
	return numberSymbol[n]
}

// Mass returns the standard atomic weight for symbol, in Dalton.
// It returns 0 for unknown elements.
func Mass(symbol string) float64 {
	return elements[symbol].mass
}

// VdwRadius returns the van der Waals radius of the element, in nm.
func VdwRadius(symbol string) float64 {
	return elements[symbol].vdwrad / 10
}

// CovalentRadius returns the covalent radius of the element, in nm.
func CovalentRadius(symbol string) float64 {
	return elements[symbol].covrad / 10
}

// defaultValence returns the smallest tabulated valence that is not below bondsum,
// or -1 if the element has no tabulated valences.
func defaultValence(symbol string, bondsum int) int {
	v := elements[symbol].valence
	if len(v) == 0 {
		return -1
	}
	for _, val := range v {
		if val >= bondsum {
			return val
		}
	}
	return v[len(v)-1]
}
