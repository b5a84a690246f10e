// Package parallel runs independent per-item work on a bounded number of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// Result pairs the output of one item with its error.
type Result[R any] struct {
	Value R
	Err   error
}

// Workers clamps a configured worker count: values below one mean one per CPU.
func Workers(n int) int {
	if n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// RunOrdered applies fn to every item with at most concurrency calls in flight
// and returns results in input order. Items not yet started when ctx is done
// get ctx.Err() as their error.
func RunOrdered[T any, R any](ctx context.Context, items []T, concurrency int, fn func(context.Context, T) (R, error)) []Result[R] {
	if len(items) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	sem := make(chan struct{}, concurrency)
	results := make([]Result[R], len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = Result[R]{Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				results[i] = Result[R]{Err: err}
				return
			}
			v, err := fn(ctx, item)
			results[i] = Result[R]{Value: v, Err: err}
		}(i, item)
	}
	wg.Wait()
	return results
}
