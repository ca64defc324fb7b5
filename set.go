// Copyright 2024 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package affinity

import (
	"fmt"
	"math/bits"
	"slices"
	"unsafe"
)

// Set is a CPU or NUMA node bit string, such as used for CPU affinity masks
// and memory policy node masks. See also [sched_getaffinity(2)] and
// [get_mempolicy(2)].
//
// [sched_getaffinity(2)]: https://man7.org/linux/man-pages/man2/sched_getaffinity.2.html
// [get_mempolicy(2)]: https://man7.org/linux/man-pages/man2/get_mempolicy.2.html
type Set []uint64

var wordbytesize = uint64(unsafe.Sizeof(Set{0}[0]))
var bitsperword = uint(wordbytesize * 8)

func setBitIndex(idx uint) int {
	return int(idx / bitsperword)
}

func setBitMask(idx uint) uint64 {
	return uint64(1) << (idx % bitsperword)
}

// IsSet reports whether idx is in this set.
func (s Set) IsSet(idx uint) bool {
	if idx >= s.Len() {
		return false
	}
	return s[setBitIndex(idx)]&setBitMask(idx) != 0
}

// Len returns the size of the index space covered by this set, that is, the
// number of bits in its words. It is not the number of members; see
// [Set.Count] for this.
func (s Set) Len() uint {
	return uint(len(s)) * bitsperword
}

// Count returns the number of members in this set.
func (s Set) Count() uint {
	var n int
	for _, word := range s {
		n += bits.OnesCount64(word)
	}
	return uint(n)
}

// AddRange adds the numbers from the specified inclusive range, returning an
// updated Set. This updated Set may or may not be the original Set.
func (s Set) AddRange(from, to uint) Set {
	if from > to {
		panic(fmt.Sprintf("invalid range %d-%d", from, to))
	}
	if to >= s.Len() {
		s = slices.Grow(s, setBitIndex(to)-len(s)+1)
		s = s[:setBitIndex(to)+1]
	}
	for idx := from; idx <= to; idx++ {
		s[setBitIndex(idx)] |= setBitMask(idx)
	}
	return s
}

// String returns the members of this set in textual list format; see
// [Encode] for details.
func (s Set) String() string {
	return s.List().String()
}

// List returns the canonical list of ranges corresponding with this Set.
//
// Instead of testing bit by bit, List jumps to the next set and unset bits
// using trailing zero counts, so all-0s and all-1s words are passed in a
// single step.
func (s Set) List() List {
	l := List{}
	end := s.Len()
	for idx := uint(0); idx < end; {
		from := s.next(idx, true)
		if from >= end {
			break
		}
		to := s.next(from, false)
		l = append(l, [2]uint{from, to - 1})
		idx = to
	}
	return l
}

// next returns the index of the first bit at or after idx that is set (or
// unset, respectively). If there is none, it returns [Set.Len].
func (s Set) next(idx uint, set bool) uint {
	wordidx := setBitIndex(idx)
	// ignore the bits below idx in the first word inspected.
	mask := ^uint64(0) << (idx % bitsperword)
	for wordidx < len(s) {
		word := s[wordidx]
		if !set {
			word = ^word
		}
		if word &= mask; word != 0 {
			return uint(wordidx)*bitsperword + uint(bits.TrailingZeros64(word))
		}
		wordidx++
		mask = ^uint64(0)
	}
	return s.Len()
}
