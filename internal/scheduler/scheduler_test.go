// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunBatches_PositionalWithFailure(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	ranIn := map[string]int{}
	batchOf := 0

	tasks := []string{"A", "B", "C", "D", "E"}
	results, err := Run(context.Background(), tasks, Options[string]{
		BatchSize: 2,
		AfterBatch: func(batch int, _ []Result[string]) error {
			batchOf = batch + 1
			return nil
		},
	}, func(_ context.Context, in string) (string, error) {
		mu.Lock()
		ranIn[in] = batchOf
		mu.Unlock()
		if in == "C" {
			return "", errors.New("permanent failure")
		}
		return strings.ToLower(in), nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantBatch := map[string]int{"A": 0, "B": 0, "C": 1, "D": 1, "E": 2}
	for name, b := range wantBatch {
		if ranIn[name] != b {
			t.Errorf("task %s ran in batch %d, want %d", name, ranIn[name], b)
		}
	}

	want := []string{"a", "b", "", "d", "e"}
	for i, r := range results {
		if r.Value != want[i] {
			t.Errorf("results[%d].Value = %q, want %q", i, r.Value, want[i])
		}
	}
	if results[2].OK() {
		t.Error("results[2] should carry the failure")
	}
	if got := Successful(results); strings.Join(got, ",") != "a,b,d,e" {
		t.Errorf("Successful() = %v", got)
	}
	if Failed(results) != 1 {
		t.Errorf("Failed() = %d, want 1", Failed(results))
	}
}

func TestRunBatches_PanicIsCaptured(t *testing.T) {
	t.Parallel()

	results := RunBatches(context.Background(), []int{1, 2, 3}, 3, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			panic("bad page")
		}
		return n * 10, nil
	})

	if results[0].Value != 10 || results[2].Value != 30 {
		t.Errorf("siblings affected by panic: %+v", results)
	}
	if results[1].Err == nil || !strings.Contains(results[1].Err.Error(), "bad page") {
		t.Errorf("results[1].Err = %v, want captured panic", results[1].Err)
	}
}

func TestRunBatches_ConcurrentWithinBatch(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	RunBatches(context.Background(), make([]int, 8), 4, func(_ context.Context, _ int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	if peak.Load() > 4 {
		t.Errorf("peak = %d, batch size must bound concurrency", peak.Load())
	}
	if peak.Load() < 2 {
		t.Errorf("peak = %d, tasks in a batch should overlap", peak.Load())
	}
}

func TestRun_AfterBatchStops(t *testing.T) {
	t.Parallel()

	stop := errors.New("not enough")
	var calls atomic.Int32
	results, err := Run(context.Background(), []int{1, 2, 3, 4, 5}, Options[int]{
		BatchSize: 2,
		AfterBatch: func(batch int, got []Result[int]) error {
			if batch == 0 && len(Successful(got)) < 3 {
				return stop
			}
			return nil
		},
	}, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})

	if !errors.Is(err, stop) {
		t.Fatalf("Run() error = %v, want stop", err)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, later batches must not start", calls.Load())
	}
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	results, err := Run(ctx, []int{1, 2, 3}, Options[int]{
		BatchSize:  1,
		AfterBatch: func(int, []Result[int]) error { cancel(); return nil },
	}, func(_ context.Context, n int) (int, error) { return n, nil })

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if !results[0].OK() || results[1].OK() || results[2].OK() {
		t.Errorf("results = %+v", results)
	}
}

func TestRunBatches_Empty(t *testing.T) {
	t.Parallel()

	results := RunBatches(context.Background(), nil, 24, func(_ context.Context, n int) (int, error) { return n, nil })
	if len(results) != 0 {
		t.Errorf("len(results) = %d", len(results))
	}
}
