package search

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// One unit of background work, called in a loop until pondering stops.
// Long running steps should watch 'ctx', it is cancelled on stop.
type StepFunc func(ctx context.Context, worker int)

// Runs search steps on background goroutines between the engine's turns
type Ponderer struct {
	stop    atomic.Bool
	group   *errgroup.Group
	cancel  context.CancelFunc
	running bool
}

// Start 'workers' goroutines looping 'step', a running ponder is stopped first
func (p *Ponderer) Start(workers int, step StepFunc) {
	p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	p.stop.Store(false)
	p.cancel = cancel
	p.group = &errgroup.Group{}
	p.running = true

	for id := range max(workers, 1) {
		p.group.Go(func() (err error) {
			defer recoverTo(&err, "ponder worker %d", id)
			for !p.stop.Load() {
				step(ctx, id)
			}
			return nil
		})
	}
}

func (p *Ponderer) Running() bool {
	return p.running
}

// Signal the workers and wait until all of them have returned.
// A failed worker is logged, the tree it worked on stays usable.
func (p *Ponderer) Stop() {
	if !p.running {
		return
	}

	p.stop.Store(true)
	p.cancel()
	if err := p.group.Wait(); err != nil {
		log.Error().Err(err).Msg("pondering stopped with an error")
	}
	p.running = false
}

// Turns a panic into an error, used as a deferred call in worker goroutines
func recoverTo(err *error, format string, args ...any) {
	if r := recover(); r != nil {
		*err = errors.Errorf(format+": %v", append(args, r)...)
	}
}
