package search

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// A task of the parallel coordinator, owns its data for the duration of the call
type Task func(ctx context.Context)

// Runs every task on a pool of at most 'workers' goroutines and blocks until
// all of them are done. A panicking task cancels the context passed to the
// others, the error is logged and returned.
func RunParallel(ctx context.Context, workers int, tasks []Task) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, task := range tasks {
		g.Go(func() (err error) {
			defer recoverTo(&err, "parallel task %d", i)
			task(gctx)
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		log.Error().Err(err).Int("tasks", len(tasks)).Msg("parallel search degraded")
	}
	return err
}
