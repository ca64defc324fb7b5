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

package report

import (
	"strconv"
	"strings"

	"github.com/cschpc/affinity"
)

// RankEnvVars lists the environment variables set by the common MPI
// implementations and job launchers for the rank of a process, in order of
// preference.
var RankEnvVars = []string{
	"OMPI_COMM_WORLD_RANK", // Open MPI
	"PMIX_RANK",            // PMIx
	"PMI_RANK",             // MPICH, Intel MPI
	"MV2_COMM_WORLD_RANK",  // MVAPICH2
	"SLURM_PROCID",         // srun
}

// RankFromEnv returns the rank of this process from the first of the
// [RankEnvVars] that is set to a valid rank number, using the passed lookup
// function (such as [os.LookupEnv]). Without any such variable, the rank is 0.
func RankFromEnv(lookup func(string) (string, bool)) int {
	for _, name := range RankEnvVars {
		value, ok := lookup(name)
		if !ok {
			continue
		}
		rank, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || rank < 0 {
			log.Warnf("ignoring invalid rank %q in %s", value, name)
			continue
		}
		return rank
	}
	return 0
}

// Allot hands out n CPUs from the specified list in ascending order, starting
// over again with the lowest CPU when the list is exhausted. It returns nil
// when there are no CPUs to allot.
func Allot(cpus affinity.List, n int) []uint {
	if len(cpus) == 0 {
		return nil
	}
	allotted := make([]uint, 0, n)
	remaining := cpus
	for range n {
		if len(remaining) == 0 {
			remaining = cpus
		}
		var cpu uint
		cpu, remaining = remaining.Remove()
		allotted = append(allotted, cpu)
	}
	return allotted
}
