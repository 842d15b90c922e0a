// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package scheduler runs independent tasks in fixed-size batches.
//
// Tasks inside a batch run concurrently and batches run one after another in
// submission order. A failing or panicking task only fails its own slot.
// Per-host concurrency is not limited here; the fetcher owns that.
package scheduler

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/metrics"
)

// Task resolves one input.
type Task[T, R any] func(ctx context.Context, in T) (R, error)

// Result is the outcome of one task, at the same index as its input.
type Result[R any] struct {
	Value R
	Err   error
}

// OK reports whether the task succeeded.
func (r Result[R]) OK() bool { return r.Err == nil }

// Options tunes a Run.
type Options[R any] struct {
	// Name labels logs and the task failure counter.
	Name string

	// BatchSize is the number of tasks started together. Values below 1 mean 1.
	BatchSize int

	// AfterBatch is called with the zero-based batch index and every result
	// gathered so far. A non-nil error stops the run before the next batch.
	AfterBatch func(batch int, results []Result[R]) error
}

// RunBatches executes tasks in batches of batchSize and returns one result per
// task in input order.
func RunBatches[T, R any](ctx context.Context, tasks []T, batchSize int, fn Task[T, R]) []Result[R] {
	results, _ := Run(ctx, tasks, Options[R]{BatchSize: batchSize}, fn)
	return results
}

// Run is RunBatches with a name and a stop hook. When the hook stops the run
// the returned slice holds only the batches that ran. When ctx ends between
// batches the remaining slots carry ctx.Err() and that error is returned.
func Run[T, R any](ctx context.Context, tasks []T, opts Options[R], fn Task[T, R]) ([]Result[R], error) {
	size := opts.BatchSize
	if size < 1 {
		size = 1
	}
	name := opts.Name
	if name == "" {
		name = "default"
	}

	results := make([]Result[R], len(tasks))
	for start, batch := 0, 0; start < len(tasks); start, batch = start+size, batch+1 {
		if err := ctx.Err(); err != nil {
			for i := start; i < len(tasks); i++ {
				results[i].Err = err
			}
			return results, err
		}

		end := min(start+size, len(tasks))
		runBatch(ctx, name, tasks[start:end], results[start:end], fn)

		if opts.AfterBatch != nil {
			if err := opts.AfterBatch(batch, results[:end]); err != nil {
				return results[:end], err
			}
		}
	}
	return results, nil
}

func runBatch[T, R any](ctx context.Context, name string, tasks []T, out []Result[R], fn Task[T, R]) {
	var wg conc.WaitGroup
	for i := range tasks {
		wg.Go(func() {
			var pc panics.Catcher
			pc.Try(func() {
				out[i].Value, out[i].Err = fn(ctx, tasks[i])
			})
			if r := pc.Recovered(); r != nil {
				out[i] = Result[R]{Err: fmt.Errorf("task panicked: %w", r.AsError())}
				logging.Ctx(ctx).Error().Str("scheduler", name).Str("panic", fmt.Sprint(r.Value)).
					Msg("Recovered panic in task")
			}
			if out[i].Err != nil {
				metrics.SchedulerTaskFailures.WithLabelValues(name).Inc()
			}
		})
	}
	wg.Wait()
}

// Successful returns the values of the successful results, in order.
func Successful[R any](results []Result[R]) []R {
	out := make([]R, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}

// Failed counts the failed results.
func Failed[R any](results []Result[R]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
