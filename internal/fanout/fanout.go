// Package fanout runs one independent task per input item and joins all of them
// before returning. Each task writes only its own result slot, so callers get
// results in input order regardless of completion order.
package fanout

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Options struct {
	// MaxConcurrency bounds in-flight tasks. Set to <=0 to run every task at once.
	MaxConcurrency int

	// Timeout is applied to each task individually. Set to <=0 to disable.
	Timeout time.Duration

	// RateLimitRPS is a global limit across all tasks. Set to <=0 to disable.
	RateLimitRPS float64
}

// Result holds the outcome for one input item.
type Result[In any, Out any] struct {
	Input  In
	Output Out
	Err    error
}

// Run invokes fn once per item and waits for every invocation to settle.
//
// Task errors are captured in the matching Result and never cancel sibling tasks.
// Run itself only fails when ctx ends before fan-in completes.
func Run[In any, Out any](
	ctx context.Context,
	items []In,
	fn func(context.Context, In) (Out, error),
	opts Options,
) ([]Result[In, Out], error) {
	out := make([]Result[In, Out], len(items))
	if len(items) == 0 {
		return out, ctx.Err()
	}

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	// Plain Group, not WithContext: a failing task must not cancel its siblings.
	var g errgroup.Group
	if opts.MaxConcurrency > 0 {
		g.SetLimit(opts.MaxConcurrency)
	}

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			out[i] = runOne(ctx, item, fn, limiter, opts.Timeout)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

func runOne[In any, Out any](
	ctx context.Context,
	item In,
	fn func(context.Context, In) (Out, error),
	limiter *rate.Limiter,
	timeout time.Duration,
) Result[In, Out] {
	res := Result[In, Out]{Input: item}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	// The limiter wait is bounded by ctx only; Timeout covers fn alone.
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			res.Err = err
			return res
		}
	}

	taskCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res.Output, res.Err = fn(taskCtx, item)
	if res.Err == nil && taskCtx.Err() != nil {
		// fn ignored its context; the deadline still decides the outcome.
		res.Err = taskCtx.Err()
	}
	return res
}
