package rl

import "github.com/IlikeChooros/go-uttt/pkg/search"

const (
	DefaultQIterations     = 80000
	DefaultSarsaIterations = 500000
	// Probability of a random move during a training walk
	DefaultRandomProbability = 0.1
	DefaultSarsaAlpha        = 0.15
	DefaultSarsaGamma        = 0.98
)

type Options struct {
	Iterations int
	P          float64
	// Learning rate, 0 anneals it for Q-learning
	Alpha     float64
	Gamma     float64
	NodeLimit int
	Seed      int64
	Listener  *search.StatsListener
}

type Option func(*Options)

func WithIterations(n int) Option {
	return func(o *Options) { o.Iterations = max(n, 1) }
}

func WithRandomProbability(p float64) Option {
	return func(o *Options) { o.P = min(max(p, 0), 1) }
}

func WithAlpha(alpha float64) Option {
	return func(o *Options) { o.Alpha = max(alpha, 0) }
}

func WithGamma(gamma float64) Option {
	return func(o *Options) { o.Gamma = gamma }
}

// Tree size at which training stops, 0 means no limit
func WithNodeLimit(n int) Option {
	return func(o *Options) { o.NodeLimit = max(n, 0) }
}

func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

func WithListener(listener *search.StatsListener) Option {
	return func(o *Options) { o.Listener = listener }
}

func apply(o Options, opts []Option) Options {
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o *Options) limits(movetime int) *search.Limits {
	limits := search.DefaultLimits()
	if movetime >= 0 {
		limits.SetMovetime(movetime)
	} else {
		limits.SetCycles(uint32(o.Iterations))
	}
	if o.NodeLimit > 0 {
		limits.SetNodes(uint32(o.NodeLimit))
	}
	return limits
}
