/*
 * errors.go, part of goFF.
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

package structure

import (
	"fmt"
)

// ModelError is returned by Validate when a structure breaks one of its invariants.
type ModelError struct {
	Term  string
	Atoms []int
	Msg   string
	deco  []string
}

func (err *ModelError) Error() string {
	return fmt.Sprintf("structure: %s %v: %s", err.Term, err.Atoms, err.Msg)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *ModelError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// CompositionError is returned by Compose when a term of a subsystem refers to
// atoms outside that subsystem, or when subsystems can't be merged.
// Subsystem is -1 if the problem is not tied to one subsystem.
type CompositionError struct {
	Subsystem int
	Name      string
	Term      string
	Atoms     []int
	Msg       string
	deco      []string
}

func (err *CompositionError) Error() string {
	s := "structure: composition"
	if err.Subsystem >= 0 {
		s += fmt.Sprintf(" of subsystem %d (%s)", err.Subsystem, err.Name)
	}
	if err.Term != "" {
		s += fmt.Sprintf(", %s %v", err.Term, err.Atoms)
	}
	return s + ": " + err.Msg
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *CompositionError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}
