package controller

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/brewery-sync/internal/model"
)

// sweep applies fn to every item with at most concurrency in flight and
// returns the summary plus every outcome that did not succeed. It stops
// dispatching when ctx is cancelled.
func sweep[T any](ctx context.Context, items []T, concurrency int, progress Progress, fn func(context.Context, T) model.Outcome) (model.Summary, []model.Outcome, error) {
	if progress == nil {
		progress = nopProgress{}
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu       sync.Mutex
		summary  model.Summary
		notables []model.Outcome
	)

	progress.Start(len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			o := fn(gctx, item)

			mu.Lock()
			summary.Add(o)
			if !o.Succeeded() {
				notables = append(notables, o)
			}
			mu.Unlock()

			progress.Increment(o)
			return nil // one record never aborts the sweep
		})
	}
	_ = g.Wait()

	progress.Done(summary)

	if err := ctx.Err(); err != nil {
		zap.L().Warn("controller: sweep cancelled",
			zap.Int("processed", summary.Total),
			zap.Int("total", len(items)),
		)
		return summary, notables, eris.Wrap(err, "controller: sweep cancelled")
	}
	return summary, notables, nil
}
