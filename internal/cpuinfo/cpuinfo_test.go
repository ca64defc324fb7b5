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

package cpuinfo

import (
	"os"
	"path/filepath"
	"slices"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/ginkgo/v2/dsl/table"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

const cpuinfo = `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) Gold 6230 CPU @ 2.10GHz
cpu MHz		: 2100.000
cache size	: 28160 KB

processor	: 1
vendor_id	: GenuineIntel
cpu MHz		: 3900.125

processor	: 2
vendor_id	: GenuineIntel
`

var _ = Describe("cpu information", func() {

	It("iterates over lines", func() {
		Expect(slices.Collect(Lines([]byte("a\nbc\n\nd")))).To(Equal([][]byte{
			[]byte("a\n"), []byte("bc\n"), []byte("\n"), []byte("d"),
		}))
		Expect(slices.Collect(Lines(nil))).To(BeEmpty())
	})

	It("stops iterating lines when asked to", func() {
		n := 0
		for range Lines([]byte("a\nb\nc\n")) {
			n++
			if n == 2 {
				break
			}
		}
		Expect(n).To(Equal(2))
	})

	DescribeTable("finding the frequency of a CPU",
		func(cpu int, mhz float64) {
			Expect(MHz([]byte(cpuinfo), uint(cpu))).To(Equal(mhz))
		},
		Entry(nil, 0, 2100.0),
		Entry(nil, 1, 3900.125),
	)

	DescribeTable("reporting missing or broken frequencies",
		func(info string, cpu int, msg string) {
			Expect(MHz([]byte(info), uint(cpu))).Error().To(MatchError(ContainSubstring(msg)))
		},
		Entry("without frequency", cpuinfo, 2, "no frequency information for CPU 2"),
		Entry("unknown CPU", cpuinfo, 42, "no frequency information for CPU 42"),
		Entry("bad frequency", "processor : 0\ncpu MHz : fast\n", 0, "invalid frequency of CPU 0"),
		Entry("bad processor", "processor : zero\n", 0, "invalid processor number"),
	)

	When("reading sysfs", func() {

		var root string

		BeforeEach(func() {
			root = GinkgoT().TempDir()
			dir := filepath.Join(root, "cpu7", "cpufreq")
			Expect(os.MkdirAll(dir, 0755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "scaling_cur_freq"), []byte("2400500\n"), 0644)).To(Succeed())
		})

		It("returns the frequency in MHz", func() {
			Expect(SysfsMHz(root, 7)).To(Equal(2400.5))
		})

		It("reports missing CPUs", func() {
			Expect(SysfsMHz(root, 1)).Error().To(MatchError(ContainSubstring("cannot read frequency of CPU 1")))
		})

	})

	It("determines the current CPU", func() {
		if _, err := os.Stat(ProcCPUInfoPath); err != nil {
			Skip("needs " + ProcCPUInfoPath)
		}
		cpu := Successful(Current())
		Expect(cpu).To(BeNumerically("<", 1<<16))
	})

})
