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

// affinity reports to which CPUs and NUMA memory nodes the threads of each
// rank of a parallel job are bound, and times a busy loop in each thread.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/cschpc/affinity"
	"github.com/cschpc/affinity/report"
)

var log = logging.Logger("affinity")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		printError(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

// printError writes a fatal error as a single line; the full error details
// are only logged at debug level.
func printError(w io.Writer, err error) {
	log.Debugf("%+v", err)
	fmt.Fprintln(w, "affinity:", err)
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "affinity",
		Usage: "report CPU and NUMA node affinities of worker threads",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "threads",
				Aliases: []string{"t"},
				EnvVars: []string{"OMP_NUM_THREADS"},
				Usage:   "number of worker threads (default: number of CPUs in the process affinity)",
			},
			&cli.IntFlag{
				Name:    "iterations",
				Aliases: []string{"n"},
				Value:   report.DefaultIterations,
				Usage:   "busy loop iterations per thread",
			},
			&cli.IntFlag{
				Name:  "rank",
				Usage: "rank to report (default: from the MPI or Slurm environment)",
			},
			&cli.BoolFlag{
				Name:  "bind",
				Usage: "bind each thread to a single CPU of the process affinity",
			},
			&cli.BoolFlag{
				Name:  "numa",
				Usage: "report the NUMA memory policy of each thread",
			},
			&cli.BoolFlag{
				Name:  "freq",
				Usage: "report the current frequency of the CPU each thread runs on",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"AFFINITY_LOG_LEVEL"},
				Value:   "warn",
				Usage:   "log level (debug, info, warn, error)",
			},
		},
		Before: setupLogging,
		Action: run,
	}
}

func setupLogging(c *cli.Context) error {
	lvl, err := logging.LevelFromString(c.String("log-level"))
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", c.String("log-level"))
	}
	logging.SetAllLoggers(lvl)
	return nil
}

// threads returns the number of threads from the specified OMP_NUM_THREADS
// style value, such as “4” or “4,2” for nested parallelism, where only the
// outermost level counts.
func threads(value string, fallback int) (int, error) {
	value, _, _ = strings.Cut(strings.TrimSpace(value), ",")
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, errors.Newf("invalid number of threads %q", value)
	}
	return n, nil
}

func run(c *cli.Context) error {
	cpus, err := affinity.Affinity(os.Getpid())
	if err != nil {
		log.Warnf("%s", err)
	}
	cpulist := cpus.List()
	fallback := int(cpulist.Count())
	if fallback == 0 {
		fallback = runtime.NumCPU()
	}

	cfg := report.Config{
		Iterations: c.Int("iterations"),
		NUMA:       c.Bool("numa"),
		Freq:       c.Bool("freq"),
	}
	if cfg.Threads, err = threads(c.String("threads"), fallback); err != nil {
		return err
	}
	if cfg.Iterations < 0 {
		return errors.Newf("invalid number of iterations %d", cfg.Iterations)
	}
	if c.IsSet("rank") {
		cfg.Rank = c.Int("rank")
	} else {
		cfg.Rank = report.RankFromEnv(os.LookupEnv)
	}
	if cfg.Host, err = os.Hostname(); err != nil {
		log.Warnf("cannot determine host name: %s", err)
		cfg.Host = report.NotAvailable
	}
	if c.Bool("bind") {
		if len(cpulist) == 0 {
			return errors.New("cannot bind threads without knowing the process affinity")
		}
		cfg.Bind = cpulist
	}
	log.Debugw("starting", "rank", cfg.Rank, "threads", cfg.Threads, "cpus", cpus.String())

	z, err := report.New(cfg, c.App.Writer).Run(c.Context)
	if err != nil {
		return err
	}
	// consume the busy loop results, so they cannot be optimized away.
	if z < 0 {
		fmt.Fprintln(c.App.Writer, "Should not happen")
	}
	return nil
}
