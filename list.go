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
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/thediveo/faf"
)

// List is a list of [from...to] ranges of CPU or NUMA node numbers, starting
// from zero.
type List [][2]uint

// String returns the list in textual format, with the individual ranges “x-y”
// separated by “,” and single number ranges collapsed into “x” (instead of
// “x-x”). Ranges of exactly two numbers are written as “x,x+1”.
func (l List) String() string {
	// "4294967295-4294967295," is the longest token we could ever need, but
	// realistic numbers stay within four digits.
	b := make([]byte, 0, len(l)*10)
	for idx, r := range l {
		if idx > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendUint(b, uint64(r[0]), 10)
		switch {
		case r[1] == r[0]:
		case r[1] == r[0]+1:
			b = append(b, ',')
			b = strconv.AppendUint(b, uint64(r[1]), 10)
		default:
			b = append(b, '-')
			b = strconv.AppendUint(b, uint64(r[1]), 10)
		}
	}
	return string(b)
}

// NewList returns a new List for the given textual list format. If the text
// is malformed then an error is returned instead.
//
// Adjacent single numbers, such as in “2,3”, are kept as individual ranges;
// use [List.Set] followed by [Set.List] to get the canonical list.
func NewList(b []byte) (List, error) {
	bs := faf.NewBytestring(b)
	l := List{}
	for {
		// nothing more, we're at the end of text/line, so we're successfully
		// done.
		if bs.EOL() {
			return l, nil
		}
		from, ok := bs.Uint64()
		if !ok {
			return nil, errors.New("expected unsigned integer number")
		}
		if bs.EOL() {
			return append(l, [2]uint{uint(from), uint(from)}), nil
		}
		switch ch, _ := bs.Next(); ch {
		case '-':
			to, ok := bs.Uint64()
			if !ok {
				return nil, errors.New("expected unsigned integer number")
			}
			if to < from {
				return nil, errors.Newf("invalid range %d-%d", from, to)
			}
			l = append(l, [2]uint{uint(from), uint(to)})
			if bs.EOL() {
				return l, nil
			}
			// another number (or range) is expected to follow, separated by
			// ",".
			ch, _ = bs.Next()
			if ch != ',' {
				return nil, errors.New("expected ','")
			}
		case ',':
			l = append(l, [2]uint{uint(from), uint(from)})
		default:
			return nil, errors.New("expected '-' or ','")
		}
	}
}

// Set returns the Set corresponding with this list.
func (l List) Set() Set {
	if len(l) == 0 {
		return Set{}
	}
	// The list isn't necessarily canonical, so look for the highest number
	// first in order to allocate only once.
	var hi uint
	for _, r := range l {
		hi = max(hi, r[1])
	}
	s := make(Set, setBitIndex(hi)+1)
	for _, r := range l {
		s = s.AddRange(r[0], r[1])
	}
	return s
}

// Count returns the number of CPUs or nodes in this list.
func (l List) Count() uint {
	var n uint
	for _, r := range l {
		n += r[1] - r[0] + 1
	}
	return n
}

// Remove the lowest number from the specified List, returning it together
// with a new List of the remaining numbers.
//
// Remove is useful to pick individual CPUs after first getting the List of
// CPU affinities for a task.
func (l List) Remove() (cpu uint, remaining List) {
	if len(l) == 0 {
		panic("cannot remove from empty List")
	}
	lowest := l[0]
	if lowest[0] < lowest[1] {
		cpu = lowest[0]
		return cpu, append(List{[2]uint{cpu + 1, lowest[1]}}, l[1:]...)
	}
	return lowest[0], slices.Clone(l[1:])
}
