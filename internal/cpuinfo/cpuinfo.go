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

// Package cpuinfo determines the current clock frequency of logical CPUs.
package cpuinfo

import (
	"bytes"
	"iter"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/thediveo/faf"
)

// ProcCPUInfoPath is the procfs pseudo file listing the logical CPUs.
const ProcCPUInfoPath = "/proc/cpuinfo"

// SysfsCPUPath is the sysfs directory with the per-CPU cpufreq information.
const SysfsCPUPath = "/sys/devices/system/cpu"

// Lines returns an iterator over the lines in b, including their trailing
// newlines.
func Lines(b []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for len(b) > 0 {
			var line []byte
			if nlIdx := bytes.IndexByte(b, '\n'); nlIdx >= 0 {
				line, b = b[:nlIdx+1], b[nlIdx+1:]
			} else {
				line, b = b, nil
			}
			if !yield(line[:len(line):len(line)]) {
				return
			}
		}
	}
}

// field splits a “key : value” line, trimming white space from both key and
// value.
func field(line []byte) (key, value []byte, ok bool) {
	key, value, ok = bytes.Cut(line, []byte{':'})
	if !ok {
		return nil, nil, false
	}
	return bytes.TrimSpace(key), bytes.TrimSpace(value), true
}

// MHz returns the “cpu MHz” value of the specified logical CPU from the
// contents of a /proc/cpuinfo file.
func MHz(cpuinfo []byte, cpu uint) (float64, error) {
	inside := false
	for line := range Lines(cpuinfo) {
		key, value, ok := field(line)
		if !ok {
			continue
		}
		switch string(key) {
		case "processor":
			no, ok := faf.NewBytestring(value).Uint64()
			if !ok {
				return 0, errors.Newf("invalid processor number %q", value)
			}
			inside = uint(no) == cpu
		case "cpu MHz":
			if !inside {
				continue
			}
			mhz, err := strconv.ParseFloat(string(value), 64)
			if err != nil {
				return 0, errors.Wrapf(err, "invalid frequency of CPU %d", cpu)
			}
			return mhz, nil
		}
	}
	return 0, errors.Newf("no frequency information for CPU %d", cpu)
}

// SysfsMHz returns the current frequency of the specified logical CPU from the
// cpufreq information in the sysfs directory at root, which usually is
// [SysfsCPUPath].
func SysfsMHz(root string, cpu uint) (float64, error) {
	path := filepath.Join(root, "cpu"+strconv.FormatUint(uint64(cpu), 10), "cpufreq", "scaling_cur_freq")
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot read frequency of CPU %d", cpu)
	}
	khz, ok := faf.NewBytestring(bytes.TrimSpace(b)).Uint64()
	if !ok {
		return 0, errors.Newf("invalid frequency %q of CPU %d", bytes.TrimSpace(b), cpu)
	}
	return float64(khz) / 1000, nil
}

// CurrentMHz returns the current frequency of the logical CPU the calling
// thread runs on. As the thread might get migrated at any time, the caller
// should have its OS-level thread locked and pinned.
//
// The frequency is taken from /proc/cpuinfo, falling back to sysfs cpufreq on
// architectures whose cpuinfo lacks frequency information.
func CurrentMHz() (float64, error) {
	cpu, err := Current()
	if err != nil {
		return 0, err
	}
	cpuinfo, err := os.ReadFile(ProcCPUInfoPath)
	if err != nil {
		return 0, errors.Wrap(err, "cannot read CPU information")
	}
	mhz, err := MHz(cpuinfo, cpu)
	if err == nil {
		return mhz, nil
	}
	return SysfsMHz(SysfsCPUPath, cpu)
}
