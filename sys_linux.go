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

//go:build linux

package affinity

import (
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// cpusetsize and nodesetsize reflect the dynamically determined sizes of CPU
// and NUMA node sets on this system (size in uint64 words). The CPU set size
// is usually smaller than the fixed-sized [unix.CPUSet] that Go's
// [unix.SchedGetaffinity] uses.
var cpusetsize, nodesetsize atomic.Uint64

func init() {
	cpusetsize.Store(1)
	nodesetsize.Store(1)
}

// querySized calls query with sets of increasing size until the kernel
// doesn't reject the set size with EINVAL anymore. The successful size is
// remembered in size for subsequent queries.
func querySized(size *atomic.Uint64, query func(set Set) unix.Errno) (Set, error) {
	setlenStart := size.Load()
	setlen := setlenStart
	for {
		set := make(Set, setlen)
		if e := query(set); e != 0 {
			if e == unix.EINVAL && setlen < 1<<16 {
				setlen *= 2
				continue
			}
			return nil, e
		}
		// Set the new size; if this fails because another go routine already
		// upped the set size, retry until we either notice that we're smaller
		// than what was set as the new set size, or we succeed in setting the
		// size.
		for !size.CompareAndSwap(setlenStart, setlen) {
			setlenStart = size.Load()
			if setlenStart > setlen {
				break
			}
		}
		return set, nil
	}
}

// Affinity returns the affinity CPU Set of the task with the passed TID.
// Otherwise, it returns an error. If tid is zero, then the affinity of the
// calling thread is returned (make sure to have the OS-level thread locked to
// the calling go routine in this case).
//
// We don't use [unix.SchedGetaffinity] as this is tied to the fixed size
// [unix.CPUSet] type; instead, we dynamically figure out the size needed and
// cache the size internally.
func Affinity(tid int) (Set, error) {
	set, err := querySized(&cpusetsize, func(set Set) unix.Errno {
		// SYS_SCHED_GETAFFINITY does not block, so RawSyscall suffices,
		// following Go's stdlib implementation.
		_, _, e := unix.RawSyscall(unix.SYS_SCHED_GETAFFINITY,
			uintptr(tid), uintptr(uint64(len(set))*wordbytesize), uintptr(unsafe.Pointer(&set[0])))
		return e
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot determine CPU affinity of task %d", tid)
	}
	return set, nil
}

// SetAffinity sets the CPU affinities for the specified task. Otherwise, it
// returns an error. It is an error trying to set no affinities.
func SetAffinity(tid int, cpus Set) error {
	if cpus.Count() == 0 {
		return errors.Wrap(unix.EINVAL, "cannot set empty CPU affinity")
	}
	_, _, e := unix.RawSyscall(unix.SYS_SCHED_SETAFFINITY,
		uintptr(tid), uintptr(uint64(len(cpus))*wordbytesize), uintptr(unsafe.Pointer(&cpus[0])))
	if e != 0 {
		return errors.Wrapf(e, "cannot set CPU affinity of task %d to %s", tid, cpus)
	}
	return nil
}

// ThreadMemPolicy returns the NUMA memory policy of the calling thread (make
// sure to have the OS-level thread locked to the calling go routine). Mode
// flags, such as MPOL_F_STATIC_NODES, are stripped from the returned mode.
func ThreadMemPolicy() (MemPolicy, error) {
	var mode int32
	nodes, err := querySized(&nodesetsize, func(set Set) unix.Errno {
		// maxnode is in bits, not words.
		_, _, e := unix.RawSyscall6(unix.SYS_GET_MEMPOLICY,
			uintptr(unsafe.Pointer(&mode)),
			uintptr(unsafe.Pointer(&set[0])), uintptr(set.Len()),
			0, 0, 0)
		return e
	})
	if err != nil {
		return MemPolicy{}, errors.Wrap(err, "cannot determine memory policy")
	}
	return MemPolicy{
		Mode:  PolicyMode(mode &^ modeFlags),
		Nodes: nodes,
	}, nil
}
