package engine

import (
	"os"
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/mcts"
	"github.com/IlikeChooros/go-uttt/pkg/pvs"
	"github.com/IlikeChooros/go-uttt/pkg/rl"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Engine settings, zero budgets fall back to the engine's own defaults
type Config struct {
	Engine string `yaml:"engine"`
	// Fixed search budget: iterations for MCTS and RL, ignored by pvs
	Iterations int `yaml:"iterations"`
	// Thinking time per move in milliseconds, 0 uses the fixed budget
	MoveTime    int     `yaml:"movetime"`
	Exploration float64 `yaml:"exploration"`
	// Keep the MCTS tree between turns, unset keeps the engine's default:
	// on for parallel-mcts, off for mcts
	Reuse       *bool   `yaml:"reuse"`
	Threads     int     `yaml:"threads"`
	Cutoff      int     `yaml:"cutoff"`
	NodeLimit   int     `yaml:"node_limit"`

	MaxDepth       int  `yaml:"max_depth"`
	LeafIterations int  `yaml:"leaf_iterations"`
	Heuristic      bool `yaml:"heuristic"`

	RandomProbability float64 `yaml:"random_probability"`
	Alpha             float64 `yaml:"alpha"`
	Gamma             float64 `yaml:"gamma"`

	Seed     int64  `yaml:"seed"`
	LogLevel string `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Engine:            "mcts",
		Exploration:       mcts.DefaultExploration,
		Threads:           mcts.DefaultCutoff,
		Cutoff:            mcts.DefaultCutoff,
		MaxDepth:          pvs.DefaultMaxDepth,
		LeafIterations:    pvs.DefaultLeafIterations,
		RandomProbability: rl.DefaultRandomProbability,
		LogLevel:          "info",
	}
}

var ErrUnknownEngine = errors.New("unknown engine")

// Reads a YAML config file, missing keys keep their defaults
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode yaml")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, ok := registry[c.Engine]; !ok {
		return errors.Wrapf(ErrUnknownEngine, "%q, expected one of %v", c.Engine, Names())
	}

	checks := []struct {
		name  string
		value float64
	}{
		{"iterations", float64(c.Iterations)},
		{"movetime", float64(c.MoveTime)},
		{"threads", float64(c.Threads)},
		{"cutoff", float64(c.Cutoff)},
		{"node_limit", float64(c.NodeLimit)},
		{"max_depth", float64(c.MaxDepth)},
		{"leaf_iterations", float64(c.LeafIterations)},
		{"alpha", c.Alpha},
		{"gamma", c.Gamma},
	}
	for _, check := range checks {
		if check.value < 0 {
			return errors.Errorf("%s must not be negative, got %v", check.name, check.value)
		}
	}

	if c.RandomProbability < 0 || c.RandomProbability > 1 {
		return errors.Errorf("random_probability must be within [0, 1], got %v", c.RandomProbability)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, errors.Wrap(err, "log_level")
	}
	return level, nil
}

// Whether the MCTS engines keep their tree, 'def' when the config leaves it unset
func (c Config) ReuseOr(def bool) bool {
	if c.Reuse == nil {
		return def
	}
	return *c.Reuse
}

func (c Config) MoveDuration() time.Duration {
	return time.Duration(c.MoveTime) * time.Millisecond
}

// Asks the engine for a move within the configured budget
func (c Config) Play(e search.Engine, b board.Board) board.Move {
	if c.MoveTime > 0 {
		return e.NextMoveWithTime(b, c.MoveDuration())
	}
	return e.NextMove(b)
}
