package mcts

import "github.com/IlikeChooros/go-uttt/pkg/search"

const (
	DefaultIterations = 80000
	DefaultCutoff     = 9
)

// Settings shared by the sequential and the parallel engine
type Options struct {
	Iterations  int
	Exploration float64
	// Keep the tree between turns, required for pondering
	Reuse bool
	// Tree size at which searching and pondering stop, 0 means no limit
	NodeLimit int
	// Root child count up to which the parallel engine runs one worker per child
	Cutoff   int
	Threads  int
	Seed     int64
	Listener *search.StatsListener
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		Iterations:  DefaultIterations,
		Exploration: DefaultExploration,
		Cutoff:      DefaultCutoff,
		Threads:     DefaultCutoff,
	}
}

func WithIterations(n int) Option {
	return func(o *Options) { o.Iterations = max(n, 1) }
}

func WithExploration(c float64) Option {
	return func(o *Options) { o.Exploration = c }
}

func WithReuse(reuse bool) Option {
	return func(o *Options) { o.Reuse = reuse }
}

func WithNodeLimit(n int) Option {
	return func(o *Options) { o.NodeLimit = max(n, 0) }
}

func WithCutoff(n int) Option {
	return func(o *Options) { o.Cutoff = n }
}

// Number of goroutines the parallel engine may use
func WithThreads(n int) Option {
	return func(o *Options) { o.Threads = max(n, 1) }
}

// 0 seeds from search.SeedGeneratorFn
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

func WithListener(listener *search.StatsListener) Option {
	return func(o *Options) { o.Listener = listener }
}

func newOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Limits of one search: a cycle budget or a deadline, plus the node limit
func (o *Options) limits(cycles int, movetime int) *search.Limits {
	limits := search.DefaultLimits()
	if movetime >= 0 {
		limits.SetMovetime(movetime)
	} else {
		limits.SetCycles(uint32(max(cycles, 1)))
	}
	if o.NodeLimit > 0 {
		limits.SetNodes(uint32(o.NodeLimit))
	}
	return limits
}
