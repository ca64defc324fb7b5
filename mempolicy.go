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

import "strconv"

// PolicyMode is a NUMA memory policy mode, as returned by
// [get_mempolicy(2)].
//
// [get_mempolicy(2)]: https://man7.org/linux/man-pages/man2/get_mempolicy.2.html
type PolicyMode int

// Memory policy modes, numbered as in linux/mempolicy.h.
const (
	PolicyDefault PolicyMode = iota
	PolicyPreferred
	PolicyBind
	PolicyInterleave
	PolicyLocal
	PolicyPreferredMany
	PolicyWeightedInterleave
)

// mode flags the kernel may OR into the returned mode.
const (
	modeFlagNumaBalancing = 1 << 13
	modeFlagRelativeNodes = 1 << 14
	modeFlagStaticNodes   = 1 << 15

	modeFlags = modeFlagNumaBalancing | modeFlagRelativeNodes | modeFlagStaticNodes
)

var policyModeNames = [...]string{
	PolicyDefault:            "MPOL_DEFAULT",
	PolicyPreferred:          "MPOL_PREFERRED",
	PolicyBind:               "MPOL_BIND",
	PolicyInterleave:         "MPOL_INTERLEAVE",
	PolicyLocal:              "MPOL_LOCAL",
	PolicyPreferredMany:      "MPOL_PREFERRED_MANY",
	PolicyWeightedInterleave: "MPOL_WEIGHTED_INTERLEAVE",
}

func (m PolicyMode) String() string {
	if m >= 0 && int(m) < len(policyModeNames) {
		return policyModeNames[m]
	}
	return "MPOL_" + strconv.Itoa(int(m))
}

// MemPolicy is the NUMA memory policy of a thread, consisting of the policy
// mode and the set of memory nodes the mode applies to.
type MemPolicy struct {
	Mode  PolicyMode
	Nodes Set
}

// String returns “DEFAULT” for the default policy that doesn't restrict
// memory nodes, and the nodes in textual list format otherwise. Policies
// without any nodes, such as MPOL_LOCAL, are represented by their mode name.
func (p MemPolicy) String() string {
	if p.Mode == PolicyDefault {
		return "DEFAULT"
	}
	if p.Nodes.Count() == 0 {
		return p.Mode.String()
	}
	return Encode(p.Nodes, p.Nodes.Len())
}
