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

// Querier queries the CPU affinity and NUMA memory policy of a thread.
type Querier interface {
	Affinity() (Set, error)
	MemPolicy() (MemPolicy, error)
}

// Thread is the [Querier] for the calling OS thread. Callers must lock their
// go routine to its OS thread using [runtime.LockOSThread] before querying.
type Thread struct{}

var _ Querier = Thread{}

// Affinity returns the CPU affinity of the calling thread.
func (Thread) Affinity() (Set, error) { return Affinity(0) }

// MemPolicy returns the NUMA memory policy of the calling thread.
func (Thread) MemPolicy() (MemPolicy, error) { return ThreadMemPolicy() }
