/*
 * rings.go, part of goFF.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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

package chem

import "slices"

// rings larger than this are not enumerated for aromaticity perception.
const maxAromaticRing = 6

// perceiveRings fills the ring information of the molecule. The smallest ring
// containing a bond i-j is the shortest path between i and j that doesn't use the
// bond itself, plus one.
func (M *Molecule) perceiveRings() {
	M.ringSize = make([]int, len(M.atoms))
	M.bondRing = make([]int, len(M.bonds))
	M.ringBonds = make([]int, len(M.atoms))
	for k, b := range M.bonds {
		d := M.shortestPathSkipping(b.At1, b.At2, k)
		if d < 0 {
			continue
		}
		size := d + 1
		M.bondRing[k] = size
		M.ringBonds[b.At1]++
		M.ringBonds[b.At2]++
		for _, at := range []int{b.At1, b.At2} {
			if M.ringSize[at] == 0 || size < M.ringSize[at] {
				M.ringSize[at] = size
			}
		}
	}
}

// shortestPathSkipping returns the number of bonds in the shortest path between
// from and to that doesn't go through the bond with index skip, or -1 if there is
// no such path.
func (M *Molecule) shortestPathSkipping(from, to, skip int) int {
	dist := make([]int, len(M.atoms))
	for i := range dist {
		dist[i] = -1
	}
	dist[from] = 0
	queue := []int{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range M.adj[cur] {
			if dist[n] >= 0 {
				continue
			}
			b, _ := M.BondBetween(cur, n)
			if b.Index == skip {
				continue
			}
			dist[n] = dist[cur] + 1
			if n == to {
				return dist[n]
			}
			queue = append(queue, n)
		}
	}
	return -1
}

// SmallRings returns all the simple cycles with at most maxsize atoms. Each ring is
// given as a list of atom indexes starting from its smallest index, and rings are
// sorted.
func (M *Molecule) SmallRings(maxsize int) [][]int {
	var rings [][]int
	seen := make(map[string]bool)
	path := make([]int, 0, maxsize)
	onpath := make([]bool, len(M.atoms))
	var walk func(start, cur int)
	walk = func(start, cur int) {
		for _, n := range M.adj[cur] {
			if n == start && len(path) >= 3 {
				ring := slices.Clone(path)
				key := ringKey(ring)
				if !seen[key] {
					seen[key] = true
					rings = append(rings, ring)
				}
				continue
			}
			//the start atom is the smallest atom of the ring, so every ring is found from only one start.
			if n <= start || onpath[n] || len(path) >= maxsize || M.bondRing[M.bondAt[sortedPair(cur, n)]] == 0 {
				continue
			}
			onpath[n] = true
			path = append(path, n)
			walk(start, n)
			path = path[:len(path)-1]
			onpath[n] = false
		}
	}
	for i := range M.atoms {
		if M.ringSize[i] == 0 {
			continue
		}
		path = append(path[:0], i)
		onpath[i] = true
		walk(i, i)
		onpath[i] = false
	}
	slices.SortFunc(rings, func(a, b []int) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return slices.Compare(a, b)
	})
	return rings
}

// ringKey identifies a ring regardless of the direction it was walked.
func ringKey(ring []int) string {
	r := slices.Clone(ring)
	if len(r) > 2 && r[len(r)-1] < r[1] {
		slices.Reverse(r[1:])
	}
	b := make([]byte, 0, 4*len(r))
	for _, v := range r {
		b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return string(b)
}

func sortedPair(i, j int) [2]int {
	if i > j {
		return [2]int{j, i}
	}
	return [2]int{i, j}
}

// perceiveAromaticity marks as aromatic the atoms and bonds of every 5- or 6-membered
// ring with 6 pi electrons. Each ring atom contributes one electron if it has a
// double (or already aromatic) bond to another atom of the same ring, and two if it
// is N, O, S or P, or a carbanion, with no double bonds at all. Any other situation,
// including exocyclic double bonds on ring carbons, excludes the ring.
// This is a simple model, it doesn't try to handle fused-ring aromaticity beyond
// what each individual ring shows.
func (M *Molecule) perceiveAromaticity() error {
	changed := true
	//Iterate, since a ring perceived as aromatic can make a fused neighbor aromatic.
	for changed {
		changed = false
		for _, ring := range M.SmallRings(maxAromaticRing) {
			if len(ring) < 5 {
				continue
			}
			if M.ringAromatic(ring) {
				for k, at := range ring {
					if !M.atoms[at].Aromatic {
						M.atoms[at].Aromatic = true
						changed = true
					}
					next := ring[(k+1)%len(ring)]
					bi := M.bondAt[sortedPair(at, next)]
					if !M.bonds[bi].Aromatic {
						M.bonds[bi].Aromatic = true
						changed = true
					}
				}
			}
		}
	}
	return nil
}

func (M *Molecule) ringAromatic(ring []int) bool {
	inring := make(map[int]bool, len(ring))
	for _, v := range ring {
		inring[v] = true
	}
	pi := 0
	for _, at := range ring {
		a := M.atoms[at]
		ringDouble, exoDouble := false, false
		for _, n := range M.adj[at] {
			b, _ := M.BondBetween(at, n)
			double := b.Order == 2 || b.Aromatic
			if !double {
				continue
			}
			if inring[n] {
				ringDouble = true
			} else if b.Order == 2 {
				exoDouble = true
			}
		}
		switch {
		case ringDouble:
			pi++
		case exoDouble:
			return false
		case a.FormalCharge == -1 && a.Symbol == "C":
			pi += 2
		case a.FormalCharge == 0 && (a.Symbol == "N" || a.Symbol == "O" || a.Symbol == "S" || a.Symbol == "P"):
			pi += 2
		default:
			return false
		}
	}
	return pi == 6
}
