package replay

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the worker count used when none is configured.
const DefaultConcurrency = 6

// ErrMapperPanic is recorded for an item whose mapper panicked.
var ErrMapperPanic = errors.New("replay: mapper panicked") //nolint:gochecknoglobals // sentinel error

// Result is the outcome of mapping one item. Exactly one of Value or Err is
// meaningful: Err == nil means Value holds the mapped result.
type Result[R any] struct {
	Value R
	Err   error
}

// OK reports whether the item was mapped successfully.
func (r Result[R]) OK() bool {
	return r.Err == nil
}

// MapBounded applies fn to every item with at most limit invocations in
// flight. The output has one Result per item at the item's index, regardless
// of completion order. A failing item never aborts the batch; its error is
// kept in its Result. Items not yet started when ctx is done get ctx.Err().
func MapBounded[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) []Result[R] {
	n := len(items)
	results := make([]Result[R], n)
	if n == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(max(min(limit, n), 1))
	for i := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result[R]{Err: err}
				return nil
			}
			results[i] = callMapper(ctx, items[i], fn)
			return nil
		})
	}
	_ = g.Wait() // errors live in results

	return results
}

func callMapper[T, R any](ctx context.Context, item T, fn func(context.Context, T) (R, error)) (res Result[R]) {
	defer func() {
		if p := recover(); p != nil {
			res = Result[R]{Err: fmt.Errorf("%w: %v", ErrMapperPanic, p)}
		}
	}()

	v, err := fn(ctx, item)
	return Result[R]{Value: v, Err: err}
}

// Values collapses results into plain values, substituting fallback for
// every failed item.
func Values[R any](results []Result[R], fallback R) []R {
	out := make([]R, len(results))
	for i, r := range results {
		if r.OK() {
			out[i] = r.Value
		} else {
			out[i] = fallback
		}
	}
	return out
}

// Failed counts the items that did not map successfully.
func Failed[R any](results []Result[R]) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
