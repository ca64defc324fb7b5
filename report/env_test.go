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
	"github.com/cschpc/affinity"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/ginkgo/v2/dsl/table"
	. "github.com/onsi/gomega"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, ok := vars[name]
		return value, ok
	}
}

var _ = Describe("environment", func() {

	DescribeTable("determining the rank",
		func(vars map[string]string, rank int) {
			Expect(RankFromEnv(env(vars))).To(Equal(rank))
		},
		Entry("standalone", map[string]string{}, 0),
		Entry("Open MPI", map[string]string{"OMPI_COMM_WORLD_RANK": "12"}, 12),
		Entry("srun", map[string]string{"SLURM_PROCID": "7"}, 7),
		Entry("MPI before srun", map[string]string{"SLURM_PROCID": "7", "PMI_RANK": "3"}, 3),
		Entry("skips invalid ranks", map[string]string{"OMPI_COMM_WORLD_RANK": "foo", "SLURM_PROCID": "5"}, 5),
		Entry("skips negative ranks", map[string]string{"PMIX_RANK": "-1"}, 0),
	)

	DescribeTable("allotting CPUs",
		func(cpus affinity.List, n int, expected []uint) {
			Expect(Allot(cpus, n)).To(Equal(expected))
		},
		Entry("nothing to allot", affinity.List{}, 4, []uint(nil)),
		Entry("no threads", affinity.List{{0, 3}}, 0, []uint{}),
		Entry("fewer threads than CPUs", affinity.List{{0, 3}, {8, 8}}, 3, []uint{0, 1, 2}),
		Entry("wraps around", affinity.List{{4, 5}, {9, 9}}, 5, []uint{4, 5, 9, 4, 5}),
	)

})
