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
	"context"
	"math"
)

// DefaultIterations is the number of busy loop iterations per worker, taking
// in the order of a second on current server CPUs.
const DefaultIterations = 80000000

// spinChunk is the number of iterations between cancellation checks.
const spinChunk = 1 << 20

// Spin keeps the CPU busy for the specified number of iterations of a
// floating point calculation and returns the calculation's result. Callers
// must consume the result, or the calculation might get optimized away.
//
// Spin returns early with the context's error when the context gets
// cancelled.
func Spin(ctx context.Context, iterations int) (float64, error) {
	z := 0.0
	for i := 0; i < iterations; i++ {
		if i%spinChunk == 0 {
			if err := ctx.Err(); err != nil {
				return z, err
			}
		}
		f := float64(i)
		e := math.Exp(f * 0.04)
		x := math.Cos(f*0.1) * e
		y := math.Sin(f*0.1) * e
		z += x*x + y*y
	}
	return z, nil
}
