package engine

import (
	"slices"

	"github.com/IlikeChooros/go-uttt/pkg/mcts"
	"github.com/IlikeChooros/go-uttt/pkg/pvs"
	"github.com/IlikeChooros/go-uttt/pkg/rl"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"github.com/samber/lo"
)

// Creates a fresh engine, each game needs its own since engines keep trees
type Factory func() search.Engine

var registry = map[string]func(Config) search.Engine{
	"random": func(c Config) search.Engine {
		return NewRandom(c.Seed)
	},
	"mcts": func(c Config) search.Engine {
		return mcts.New(mctsOptions(c, false)...)
	},
	"parallel-mcts": func(c Config) search.Engine {
		return mcts.NewParallel(mctsOptions(c, true)...)
	},
	"qlearning": func(c Config) search.Engine {
		return rl.NewQLearning(rlOptions(c)...)
	},
	"sarsa": func(c Config) search.Engine {
		return rl.NewSarsa(rlOptions(c)...)
	},
	"pvs": func(c Config) search.Engine {
		opts := []pvs.Option{
			pvs.WithHeuristic(c.Heuristic),
			pvs.WithNodeLimit(c.NodeLimit),
			pvs.WithSeed(c.Seed),
		}
		if c.MaxDepth > 0 {
			opts = append(opts, pvs.WithMaxDepth(c.MaxDepth))
		}
		if c.LeafIterations > 0 {
			opts = append(opts, pvs.WithLeafIterations(c.LeafIterations))
		}
		if c.Exploration > 0 {
			opts = append(opts, pvs.WithExploration(c.Exploration))
		}
		return pvs.New(opts...)
	},
}

// Registered engine names, sorted
func Names() []string {
	names := lo.Keys(registry)
	slices.Sort(names)
	return names
}

func New(c Config) (search.Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return registry[c.Engine](c), nil
}

// Validates the config once, then builds engines on demand
func NewFactory(c Config) (Factory, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	build := registry[c.Engine]
	return func() search.Engine { return build(c) }, nil
}

func mctsOptions(c Config, reuse bool) []mcts.Option {
	opts := []mcts.Option{
		mcts.WithReuse(c.ReuseOr(reuse)),
		mcts.WithNodeLimit(c.NodeLimit),
		mcts.WithSeed(c.Seed),
	}
	if c.Iterations > 0 {
		opts = append(opts, mcts.WithIterations(c.Iterations))
	}
	if c.Exploration > 0 {
		opts = append(opts, mcts.WithExploration(c.Exploration))
	}
	if c.Threads > 0 {
		opts = append(opts, mcts.WithThreads(c.Threads))
	}
	if c.Cutoff > 0 {
		opts = append(opts, mcts.WithCutoff(c.Cutoff))
	}
	return opts
}

func rlOptions(c Config) []rl.Option {
	opts := []rl.Option{
		rl.WithRandomProbability(c.RandomProbability),
		rl.WithNodeLimit(c.NodeLimit),
		rl.WithSeed(c.Seed),
	}
	if c.Iterations > 0 {
		opts = append(opts, rl.WithIterations(c.Iterations))
	}
	if c.Alpha > 0 {
		opts = append(opts, rl.WithAlpha(c.Alpha))
	}
	if c.Gamma > 0 {
		opts = append(opts, rl.WithGamma(c.Gamma))
	}
	return opts
}
