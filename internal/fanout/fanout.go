// Package fanout runs the same call for many inputs concurrently.
//
// The CLI looks up balances, nonces and receipts for several accounts at
// once and keeps going when some of them fail. This package centralizes
// that pattern.
package fanout

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Result wraps the outcome for one input.
type Result[K any, T any] struct {
	Key   K
	Index int
	Value T
	Err   error
}

// ExecuteAll runs fn concurrently for each key and collects results in key
// order, not completion order. At most limit calls run at once when limit
// is positive.
//
// Notes:
//   - It does not fail fast; every key is attempted and per-key errors are
//     recorded in the corresponding Result.
//   - Context cancellation still short-circuits work inside fn.
func ExecuteAll[K any, T any](
	ctx context.Context,
	keys []K,
	limit int,
	fn func(ctx context.Context, key K) (T, error),
) []Result[K, T] {
	results := make([]Result[K, T], len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, k := range keys {
		g.Go(func() error {
			val, err := fn(gctx, k)
			mu.Lock()
			results[i] = Result[K, T]{Key: k, Index: i, Value: val, Err: err}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Errors returns the failed results.
func Errors[K any, T any](results []Result[K, T]) []Result[K, T] {
	var failed []Result[K, T]
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
