/*
 * interfaces.go, part of goFF.
 *
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
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

package chem

import "fmt"

// Atomer is the basic read-only interface for a topology.
type Atomer interface {

	//Atom returns the Atom corresponding to the index i.
	//Should panic if out of range.
	Atom(i int) Atom

	Len() int
}

// Grapher is an Atomer that also knows its connectivity.
type Grapher interface {
	Atomer

	//Neighbors returns the indexes of the atoms bonded to atom i, in increasing order.
	Neighbors(i int) []int

	//BondBetween returns the bond between atoms i and j, if any.
	BondBetween(i, j int) (Bond, bool)
}

//Errors

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Each call also returns the "decoration" slice resulting from the current call. If passed an empty string, it just returns the current value.
}

// CError is the general error type of the chem package.
type CError struct {
	msg  string
	deco []string
}

func (err *CError) Error() string { return err.msg }

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

func newCError(caller, format string, a ...any) *CError {
	return &CError{msg: fmt.Sprintf(format, a...), deco: []string{caller}}
}

// errDecorate decorates err with the caller's name if err implements Error.
// Other errors are returned untouched.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(Error); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}
