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

//go:build !linux

package affinity

import "github.com/cockroachdb/errors"

var errUnsupported = errors.New("CPU affinity and memory policies are only supported on Linux")

// Affinity is a stub on non-Linux platforms.
func Affinity(tid int) (Set, error) {
	return nil, errUnsupported
}

// SetAffinity is a stub on non-Linux platforms.
func SetAffinity(tid int, cpus Set) error {
	return errUnsupported
}

// ThreadMemPolicy is a stub on non-Linux platforms.
func ThreadMemPolicy() (MemPolicy, error) {
	return MemPolicy{}, errUnsupported
}
