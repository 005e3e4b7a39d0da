/*
 * doc.go, part of goFF.
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
 */

/*
Package chem is the main package of the goFF library. It provides the molecular graph
(atoms, bonds, formal charges, aromaticity, ring information) on which the rest of the
library works.

	**goFF Capabilities**

	Assigns force field parameters to molecules by direct chemical perception,
	i.e. by matching SMIRKS patterns against the molecular graph (package smirks
	and forcefield).

	Assigns parameters to biomolecules with conventional, atom-typed force fields
	using residue templates (package atomtype).

	Represents each parametrized subsystem in a force-field-agnostic structure, and
	composes several of them in a single system (package structure).

	Writes the composed system as a generic potential specification (JSON,
	optionally zstd-compressed), as Gromacs top/gro files, or as a PQR file
	(package export).

A Molecule is built with a Builder and is immutable afterwards, so it can be shared
by goroutines doing independent typing passes. Positions are kept in nm, as r3.Vec
values from gonum.
*/
package chem
