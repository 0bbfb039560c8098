package mcts

import (
	"fmt"
	"testing"
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"github.com/IlikeChooros/go-uttt/pkg/tree"
	"github.com/stretchr/testify/require"
)

func TestLayer(t *testing.T) {
	b := board.New()
	l := newLayer(b)
	require.Len(t, l.children, board.NumMoves)
	for i, child := range l.children {
		require.Equal(t, board.Move(i), child.RootNode().Move)
		require.Equal(t, b.Move(board.Move(i)), child.RootNode().Board)
	}
	require.Equal(t, board.NumMoves, l.size())
	require.NotNil(t, l.childByBoard(b.Move(40)))
	require.Nil(t, l.child(board.NoMove))
}

func TestLayerFromKeepsStats(t *testing.T) {
	a := NewTree(board.New())
	r := search.NewRand(0)
	for range 300 {
		Iterate[Stats](a, a.Root(), DefaultExploration, r)
	}

	l := layerFrom(a, a.Root())
	require.Len(t, l.children, board.NumMoves)
	require.Equal(t, a.RootNode().Stats.N, l.visits())

	// Unexpanded nodes give a fresh layer
	empty := NewTree(board.New())
	fresh := layerFrom(empty, empty.Root())
	require.Len(t, fresh.children, board.NumMoves)
	require.Equal(t, int32(0), fresh.visits())
}

func TestParallelFindsWinningMove(t *testing.T) {
	b := mustParse(t, winInOne)

	// 6 children, below the cutoff
	engine := NewParallel(WithIterations(9000), WithThreads(4))
	require.Len(t, b.Actions(), 6)
	require.Equal(t, winningMove, engine.NextMove(b))
	require.Equal(t, winningMove, engine.MovePredictions()[0])
	require.Contains(t, engine.Trace(), "parallel mcts")
}

func TestParallelLayerSearch(t *testing.T) {
	engine := NewParallel(WithIterations(4000), WithCutoff(9))
	b := board.New()

	m := engine.NextMove(b)
	require.True(t, b.IsLegal(m))
	// 81 children are searched by the single loop, each one gets a share
	require.Equal(t, 4000/81*81, engine.cycles)
	for _, child := range engine.layer.children {
		require.Greater(t, child.RootNode().Stats.N, int32(0))
	}
}

func TestParallelNextMoveWithTime(t *testing.T) {
	engine := NewParallel()
	b := mustParse(t, winInOne)

	start := time.Now()
	m := engine.NextMoveWithTime(b, 40*time.Millisecond)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, winningMove, m)
}

func TestParallelReuse(t *testing.T) {
	engine := NewParallel(WithIterations(2000), WithReuse(true))
	b := board.New().Move(40)

	m := engine.NextMove(b)
	chosen := engine.best
	reply := MostVisited[Stats](chosen, chosen.Root())
	require.NotEqual(t, tree.Nil, reply)

	next := b.Move(m).Move(chosen.At(reply).Move)
	engine.NextMove(next)
	require.Equal(t, next, engine.layer.board)
	require.Greater(t, engine.layer.visits(), int32(2000/len(engine.layer.children)))
}

func TestParallelPonder(t *testing.T) {
	engine := NewParallel(WithIterations(900), WithReuse(true), WithThreads(2))
	b := board.New().Move(40)

	m := engine.NextMove(b)
	engine.Ponder()
	time.Sleep(30 * time.Millisecond)
	engine.StopPondering()

	after := b.Move(m)
	require.Equal(t, after, engine.layer.board)
	visits := engine.layer.visits()
	require.Greater(t, visits, int32(0))

	// Predictions still describe the last search
	require.Equal(t, m, engine.MovePredictions()[0])

	reply := after.Actions()[0]
	next := after.Move(reply)
	engine.NextMove(next)
	require.Equal(t, next, engine.layer.board)
}

func TestParallelBeforeSearchPanics(t *testing.T) {
	engine := NewParallel()
	require.Panics(t, func() { _ = engine.Trace() })
	require.Panics(t, func() { _ = engine.MovePredictions() })
}

func TestLowestUtilitySkipsThinChildren(t *testing.T) {
	l := newLayer(mustParse(t, winInOneLast))
	for _, child := range l.children {
		child.RootNode().Stats = Stats{N: 500, U: -100}
	}
	// Started after the deadline: a single lost playout
	thin := l.children[0]
	thin.RootNode().Stats = Stats{N: 1, U: -1}
	// The proven win, every playout is lost for the side to move
	win := l.child(lastWinningMove)
	win.RootNode().Stats = Stats{N: 20000, U: -20000}

	require.Same(t, win, lowestUtility(l.children))

	// Equal utility goes to the more visited child
	thin.RootNode().Stats = Stats{N: 10000, U: -10000}
	require.Same(t, win, lowestUtility(l.children))
}

func TestParallelRobustOverSeeds(t *testing.T) {
	b := mustParse(t, winInOneLast)

	const runs = 20
	hits := countHits(runs, lastWinningMove, func(seed int64) board.Move {
		return NewParallel(WithIterations(3000), WithSeed(seed)).NextMove(b)
	})
	require.GreaterOrEqual(t, hits, runs-2, "won %d of %d runs", hits, runs)
}

func TestParallelTimedOverSeeds(t *testing.T) {
	b := mustParse(t, winInOneLast)

	for _, threads := range []int{1, 3, DefaultCutoff} {
		t.Run(fmt.Sprintf("threads=%d", threads), func(t *testing.T) {
			const runs = 10
			hits := countHits(runs, lastWinningMove, func(seed int64) board.Move {
				e := NewParallel(WithThreads(threads), WithSeed(seed))
				return e.NextMoveWithTime(b, 30*time.Millisecond)
			})
			require.GreaterOrEqual(t, hits, runs-1, "won %d of %d runs", hits, runs)
		})
	}
}
