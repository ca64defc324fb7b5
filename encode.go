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

// Membership is a set of numbers in a bounded index space, such as a [Set].
type Membership interface {
	IsSet(idx uint) bool
}

// Tokens scans the index space [0, n) of the specified membership in
// ascending order and returns the runs of consecutive members found as a
// List.
//
// Runs of three or more members become a single range, single members become
// single number ranges. Runs of exactly two members become two single number
// ranges, so that [List.String] renders them as “i,i+1”.
func Tokens(m Membership, n uint) List {
	l := List{}
	for idx := uint(0); idx < n; idx++ {
		if !m.IsSet(idx) {
			continue
		}
		run := uint(0)
		for next := idx + 1; next < n && m.IsSet(next); next++ {
			run++
		}
		switch run {
		case 0:
			l = append(l, [2]uint{idx, idx})
		case 1:
			l = append(l, [2]uint{idx, idx}, [2]uint{idx + 1, idx + 1})
			idx++
		default:
			l = append(l, [2]uint{idx, idx + run})
			idx += run
		}
	}
	return l
}

// Encode returns the members of m within the index space [0, n) as a
// comma-separated range list, such as “0-2,5,7,8”. An empty membership
// results in an empty string.
func Encode(m Membership, n uint) string {
	return Tokens(m, n).String()
}
