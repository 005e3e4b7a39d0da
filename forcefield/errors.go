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

package forcefield

import (
	"fmt"
)

// TypingAmbiguityError is returned when two rules with the same specificity
// match the same occurrence, and no rule with higher specificity does.
type TypingAmbiguityError struct {
	Class      Class
	Occurrence []int
	Rules      [2]string
	deco       []string
}

func (err *TypingAmbiguityError) Error() string {
	return fmt.Sprintf("forcefield: %s occurrence %v matched by rules %q and %q with the same specificity", err.Class, err.Occurrence, err.Rules[0], err.Rules[1])
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *TypingAmbiguityError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// UnassignedTermError is returned when a required occurrence is matched by
// no rule. It is also returned by NewEngine when a required class lacks a
// generic fallback rule, in which case Occurrence is nil.
type UnassignedTermError struct {
	Class      Class
	Occurrence []int
	deco       []string
}

func (err *UnassignedTermError) Error() string {
	if err.Occurrence == nil {
		return fmt.Sprintf("forcefield: class %s has no generic fallback rule", err.Class)
	}
	return fmt.Sprintf("forcefield: no %s rule matches occurrence %v", err.Class, err.Occurrence)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *UnassignedTermError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// LoadError is returned for problems in a rule set: unreadable files, unknown
// units, missing fields, repeated rule IDs and patterns of the wrong kind.
// Line is 0 when the problem has no place in a file.
type LoadError struct {
	File string
	Line int
	Rule string
	Msg  string
	Err  error
	deco []string
}

func (err *LoadError) Error() string {
	s := "forcefield: "
	if err.File != "" {
		s += err.File
		if err.Line > 0 {
			s += fmt.Sprintf(":%d", err.Line)
		}
		s += ": "
	}
	if err.Rule != "" {
		s += fmt.Sprintf("rule %q: ", err.Rule)
	}
	s += err.Msg
	if err.Err != nil {
		s += ": " + err.Err.Error()
	}
	return s
}

func (err *LoadError) Unwrap() error { return err.Err }

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *LoadError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}
