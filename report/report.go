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

/*
Package report runs a set of worker threads that each time a busy loop and
then report the CPUs and NUMA memory nodes they are allowed to use, one line
per worker:

	Rank 000 thread 01 on node42 core = 0-3 mem = DEFAULT (0.931265 seconds)

Increases in the busy loop times hint at oversubscribed cores; comparing the
times of a single worker with those of a fully loaded node hints at CPU
frequency scaling effects.
*/
package report

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	logging "github.com/ipfs/go-log/v2"

	"github.com/cschpc/affinity"
	"github.com/cschpc/affinity/internal/cpuinfo"
)

var log = logging.Logger("affinity/report")

// NotAvailable is reported in place of information that couldn't be queried.
const NotAvailable = "N/A"

// Config configures a [Reporter] run.
type Config struct {
	Rank       int           // rank of this process in the parallel job
	Host       string        // host name to report
	Threads    int           // number of worker threads
	Iterations int           // busy loop iterations per worker
	Bind       affinity.List // if non-empty, CPUs to bind the workers to
	NUMA       bool          // report memory policies
	Freq       bool          // report current CPU frequencies
}

// Record is the report of a single worker.
type Record struct {
	Rank         int
	Thread       int
	Host         string
	CPUs         string
	Mem          string
	MemReported  bool // include Mem, even if empty
	Freq         string
	FreqReported bool // include Freq, even if empty
	Elapsed      time.Duration
}

// String returns the report line of this record. Empty fields are rendered
// as [NotAvailable], so all lines of a run have the same shape.
func (r Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rank %03d thread %02d on %s core = %s",
		r.Rank, r.Thread, orNotAvailable(r.Host), orNotAvailable(r.CPUs))
	if r.MemReported {
		b.WriteString(" mem = ")
		b.WriteString(orNotAvailable(r.Mem))
	}
	if r.FreqReported {
		b.WriteString(" freq = ")
		b.WriteString(orNotAvailable(r.Freq))
	}
	fmt.Fprintf(&b, " (%f seconds)", r.Elapsed.Seconds())
	return b.String()
}

func orNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

// Reporter runs the workers of a report. The zero value isn't usable; use
// [New] instead.
type Reporter struct {
	Config
	// Querier queries the affinity and memory policy of the calling thread.
	Querier affinity.Querier
	// MHz returns the current frequency of the CPU the calling thread runs on.
	MHz func() (float64, error)
	// Pin binds the calling thread to the specified CPU.
	Pin func(cpu uint) error

	printer *LinePrinter
}

// New returns a Reporter for the calling threads, writing its report lines
// to w.
func New(cfg Config, w io.Writer) *Reporter {
	return &Reporter{
		Config:  cfg,
		Querier: affinity.Thread{},
		MHz:     cpuinfo.CurrentMHz,
		Pin: func(cpu uint) error {
			return affinity.SetAffinity(0, affinity.Set{}.AddRange(cpu, cpu))
		},
		printer: NewLinePrinter(w),
	}
}

// Run starts the configured number of workers and waits for all of them to
// finish. It returns the sum of the busy loop results of all workers, as well
// as any errors that occurred. Information that cannot be queried doesn't
// count as an error but is reported as [NotAvailable] instead.
func (r *Reporter) Run(ctx context.Context) (float64, error) {
	cpus := Allot(r.Bind, r.Threads)

	sums := make([]float64, r.Threads)
	errs := make([]error, r.Threads)
	var wg sync.WaitGroup
	for thread := range r.Threads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var cpu *uint
			if cpus != nil {
				cpu = &cpus[thread]
			}
			sums[thread], errs[thread] = r.work(ctx, thread, cpu)
		}()
	}
	wg.Wait()

	var sum float64
	var err error
	for thread := range r.Threads {
		sum += sums[thread]
		err = errors.CombineErrors(err, errs[thread])
	}
	return sum, err
}

// work runs a single worker on its own OS thread, optionally pinned to the
// specified CPU.
func (r *Reporter) work(ctx context.Context, thread int, cpu *uint) (float64, error) {
	runtime.LockOSThread()
	if cpu != nil {
		// a thread with changed affinity stays locked, so the Go runtime
		// terminates it when this go routine finishes.
		if err := r.Pin(*cpu); err != nil {
			return 0, errors.Wrapf(err, "cannot bind thread %d to CPU %d", thread, *cpu)
		}
	} else {
		defer runtime.UnlockOSThread()
	}

	start := time.Now()
	z, err := Spin(ctx, r.Iterations)
	elapsed := time.Since(start)
	if err != nil {
		return z, errors.Wrapf(err, "thread %d interrupted", thread)
	}

	rec := Record{
		Rank:         r.Rank,
		Thread:       thread,
		Host:         r.Host,
		CPUs:         r.cpus(thread),
		MemReported:  r.NUMA,
		FreqReported: r.Freq,
		Elapsed:      elapsed,
	}
	if r.NUMA {
		rec.Mem = r.mem(thread)
	}
	if r.Freq {
		rec.Freq = r.freq(thread)
	}
	log.Debugw("worker done", "thread", thread, "elapsed", elapsed)
	return z, r.printer.Println(rec.String())
}

func (r *Reporter) cpus(thread int) string {
	set, err := r.Querier.Affinity()
	if err != nil {
		log.Warnf("thread %d: %s", thread, err)
		return NotAvailable
	}
	return affinity.Encode(set, set.Len())
}

func (r *Reporter) mem(thread int) string {
	policy, err := r.Querier.MemPolicy()
	if err != nil {
		log.Warnf("thread %d: %s", thread, err)
		return NotAvailable
	}
	return policy.String()
}

func (r *Reporter) freq(thread int) string {
	mhz, err := r.MHz()
	if err != nil {
		log.Warnf("thread %d: %s", thread, err)
		return NotAvailable
	}
	return strconv.FormatFloat(mhz, 'f', 0, 64) + " MHz"
}
