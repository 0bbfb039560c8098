package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/mcts"
	"github.com/IlikeChooros/go-uttt/pkg/pvs"
	"github.com/IlikeChooros/go-uttt/pkg/rl"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	search.SetSeedGeneratorFn(func() int64 {
		return 42
	})
	fmt.Printf("Using seed %d\n", search.SeedGeneratorFn())

	os.Exit(m.Run())
}

func TestRandomEngine(t *testing.T) {
	engine := NewRandom(0)
	b := board.New()
	for !b.IsTerminal() {
		m := engine.NextMove(b)
		require.True(t, b.IsLegal(m))
		b = b.Move(m)
	}

	require.Equal(t, "no trace", engine.Trace())
	require.Nil(t, engine.MovePredictions())
	engine.Ponder()
	engine.StopPondering()
	require.Panics(t, func() { engine.NextMove(b) })
}

func TestNames(t *testing.T) {
	require.Equal(t, []string{"mcts", "parallel-mcts", "pvs", "qlearning", "random", "sarsa"}, Names())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "mcts", cfg.Engine)
	require.Equal(t, 0, cfg.MoveTime)

	level, err := cfg.Level()
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, level)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
engine: sarsa
iterations: 1000
movetime: 250
alpha: 0.2
log_level: debug
`))
	require.NoError(t, err)
	require.Equal(t, "sarsa", cfg.Engine)
	require.Equal(t, 1000, cfg.Iterations)
	require.Equal(t, 0.2, cfg.Alpha)
	require.Equal(t, 250, int(cfg.MoveDuration().Milliseconds()))
	// Untouched keys keep the defaults
	require.Equal(t, pvs.DefaultMaxDepth, cfg.MaxDepth)
	require.Equal(t, rl.DefaultRandomProbability, cfg.RandomProbability)
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown engine", "engine: minimax"},
		{"negative iterations", "iterations: -5"},
		{"negative threads", "threads: -1"},
		{"probability", "random_probability: 1.5"},
		{"log level", "log_level: loud"},
		{"malformed", "engine: [mcts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
		})
	}

	_, err := ParseConfig([]byte("engine: minimax"))
	require.True(t, errors.Is(err, ErrUnknownEngine))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: pvs\nmax_depth: 2\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "pvs", cfg.Engine)
	require.Equal(t, 2, cfg.MaxDepth)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegistryBuildsEveryEngine(t *testing.T) {
	b, err := board.ParseCompact("7,24 7,24 3,16 0,0 0,0 0,0 0,0 0,0 0,0 2,0")
	require.NoError(t, err)

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Engine = name
			cfg.Iterations = 2000
			cfg.MaxDepth = 2

			engine, err := New(cfg)
			require.NoError(t, err)
			m := cfg.Play(engine, b)
			require.True(t, b.IsLegal(m))
			if name != "random" {
				require.Equal(t, board.MoveAt(2, 2), m)
			}
		})
	}
}

func TestReuseDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.Nil(t, cfg.Reuse)

	e, err := New(cfg)
	require.NoError(t, err)
	require.False(t, e.(*mcts.Engine).Options().Reuse)

	cfg.Engine = "parallel-mcts"
	e, err = New(cfg)
	require.NoError(t, err)
	require.True(t, e.(*mcts.ParallelEngine).Options().Reuse)

	cfg, err = ParseConfig([]byte("engine: parallel-mcts\nreuse: false\n"))
	require.NoError(t, err)
	e, err = New(cfg)
	require.NoError(t, err)
	require.False(t, e.(*mcts.ParallelEngine).Options().Reuse)

	cfg, err = ParseConfig([]byte("engine: mcts\nreuse: true\n"))
	require.NoError(t, err)
	e, err = New(cfg)
	require.NoError(t, err)
	require.True(t, e.(*mcts.Engine).Options().Reuse)
}

func TestFactory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine = "parallel-mcts"
	factory, err := NewFactory(cfg)
	require.NoError(t, err)

	a, b := factory(), factory()
	require.IsType(t, &mcts.ParallelEngine{}, a)
	require.NotSame(t, a, b)

	cfg.Engine = "nope"
	_, err = NewFactory(cfg)
	require.Error(t, err)
}
