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

package smirks

import "fmt"

// PatternError is returned for malformed patterns: undefined operators, empty
// constraint sets, unbalanced brackets, disconnected patterns, tags that don't
// correspond to any term kind. It fullfills chem.Error.
type PatternError struct {
	Pattern string
	Pos     int //byte offset in Pattern where the problem was found, -1 if not applicable
	Msg     string
	deco    []string
}

func (err *PatternError) Error() string {
	if err.Pos < 0 {
		return fmt.Sprintf("smirks: pattern %q: %s", err.Pattern, err.Msg)
	}
	return fmt.Sprintf("smirks: pattern %q at position %d: %s", err.Pattern, err.Pos, err.Msg)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *PatternError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

func perr(pattern string, pos int, format string, a ...any) *PatternError {
	return &PatternError{Pattern: pattern, Pos: pos, Msg: fmt.Sprintf(format, a...)}
}
