package pvs

import (
	"github.com/IlikeChooros/go-uttt/pkg/mcts"
	"github.com/IlikeChooros/go-uttt/pkg/search"
)

const (
	DefaultMaxDepth = 6
	// Depth cap of the iterative deepening under a deadline
	DefaultTimedMaxDepth  = 80
	DefaultLeafIterations = 150
)

type Options struct {
	MaxDepth       int
	TimedMaxDepth  int
	LeafIterations int
	Exploration    float64
	// Evaluate leaves with the board heuristic instead of MCTS playouts
	Heuristic bool
	NodeLimit int
	Seed      int64
	Listener  *search.StatsListener
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		MaxDepth:       DefaultMaxDepth,
		TimedMaxDepth:  DefaultTimedMaxDepth,
		LeafIterations: DefaultLeafIterations,
		Exploration:    mcts.DefaultExploration,
	}
}

func WithMaxDepth(depth int) Option {
	return func(o *Options) { o.MaxDepth = max(depth, 1) }
}

func WithTimedMaxDepth(depth int) Option {
	return func(o *Options) { o.TimedMaxDepth = max(depth, 1) }
}

func WithLeafIterations(n int) Option {
	return func(o *Options) { o.LeafIterations = max(n, 1) }
}

func WithExploration(c float64) Option {
	return func(o *Options) { o.Exploration = c }
}

func WithHeuristic(heuristic bool) Option {
	return func(o *Options) { o.Heuristic = heuristic }
}

// Tree size at which a search iteration is abandoned, 0 means no limit
func WithNodeLimit(n int) Option {
	return func(o *Options) { o.NodeLimit = max(n, 0) }
}

func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

func WithListener(listener *search.StatsListener) Option {
	return func(o *Options) { o.Listener = listener }
}
