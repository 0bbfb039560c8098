package pvs

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"github.com/stretchr/testify/require"
)

const winInOne = "7,24 7,24 3,16 0,0 0,0 0,0 0,0 0,0 0,0 2,0"

var winningMove = board.MoveAt(2, 2)

func TestMain(m *testing.M) {
	search.SetSeedGeneratorFn(func() int64 {
		return 42
	})
	fmt.Printf("Using seed %d\n", search.SeedGeneratorFn())

	os.Exit(m.Run())
}

func mustParse(t *testing.T, s string) board.Board {
	t.Helper()
	b, err := board.ParseCompact(s)
	require.NoError(t, err)
	return b
}

func newSearcher(ctx context.Context, tr *Tree) *searcher {
	return &searcher{
		ctx:            ctx,
		tree:           tr,
		rand:           search.NewRand(0),
		exploration:    1.4,
		leafIterations: DefaultLeafIterations,
	}
}

func TestMoveToFront(t *testing.T) {
	order := []uint8{0, 1, 2, 3, 4}
	moveToFront(order, 3)
	require.Equal(t, []uint8{3, 0, 1, 2, 4}, order)
	moveToFront(order, 0)
	require.Equal(t, []uint8{3, 0, 1, 2, 4}, order)
	moveToFront(order, 4)
	require.Equal(t, []uint8{4, 3, 0, 1, 2}, order)
}

func TestMemoHit(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		depth int
		hit   bool
	}{
		{"none", Stats{Bound: BoundNone, MemoDepth: 5}, 1, false},
		{"exact", Stats{Bound: BoundExact, Score: 0.3, MemoDepth: 3}, 3, true},
		{"too shallow", Stats{Bound: BoundExact, Score: 0.3, MemoDepth: 2}, 3, false},
		{"upper below alpha", Stats{Bound: BoundUpper, Score: -0.5, MemoDepth: 3}, 2, true},
		{"upper inside window", Stats{Bound: BoundUpper, Score: 0, MemoDepth: 3}, 2, false},
		{"lower above beta", Stats{Bound: BoundLower, Score: 0.7, MemoDepth: 3}, 2, true},
		{"lower inside window", Stats{Bound: BoundLower, Score: 0, MemoDepth: 3}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.hit, tt.stats.memoHit(tt.depth, -0.2, 0.5))
		})
	}
}

func TestEvaluateTerminal(t *testing.T) {
	b := mustParse(t, winInOne).Move(winningMove)
	tr := newTree(b)
	s := newSearcher(context.Background(), tr)
	require.Equal(t, -Win, s.evaluate(tr.Root()))
	require.Equal(t, 1, tr.Size())
}

func TestEvaluateRunsPlayouts(t *testing.T) {
	tr := newTree(board.New())
	s := newSearcher(context.Background(), tr)
	v := s.evaluate(tr.Root())
	require.Equal(t, int32(DefaultLeafIterations), tr.RootNode().Stats.N)
	require.InDelta(t, 0, v, 1)

	// Cached once the node has enough visits
	size := tr.Size()
	require.Equal(t, v, s.evaluate(tr.Root()))
	require.Equal(t, size, tr.Size())
}

func TestEvaluateHeuristic(t *testing.T) {
	b := board.New().Move(40)
	tr := newTree(b)
	s := newSearcher(context.Background(), tr)
	s.heuristic = true

	// O to move, the heuristic is negated
	require.Equal(t, -b.Evaluate(), s.evaluate(tr.Root()))
	require.Equal(t, int32(0), tr.RootNode().Stats.N)
}

func TestSortChildren(t *testing.T) {
	tr := newTree(board.New().Move(40))
	s := newSearcher(context.Background(), tr)
	s.evaluate(tr.Root())
	s.sortChildren(tr.Root())

	node := tr.RootNode()
	order := node.Stats.order
	require.Len(t, order, node.NumChildren())
	for i := 1; i < len(order); i++ {
		prev := tr.At(node.Child(int(order[i-1]))).Stats.Utility()
		cur := tr.At(node.Child(int(order[i]))).Stats.Utility()
		require.LessOrEqual(t, prev, cur)
	}
}

func TestFindsWinningMove(t *testing.T) {
	b := mustParse(t, winInOne)

	t.Run("depth 1", func(t *testing.T) {
		engine := New(WithMaxDepth(1))
		require.Equal(t, winningMove, engine.NextMove(b))
		require.Equal(t, 1, engine.Depth())
		require.Equal(t, []board.Move{winningMove}, engine.MovePredictions())
	})

	t.Run("depth 3", func(t *testing.T) {
		engine := New(WithMaxDepth(3))
		require.Equal(t, winningMove, engine.NextMove(b))
		require.Contains(t, engine.Trace(), "pvs:")
	})

	t.Run("heuristic", func(t *testing.T) {
		engine := New(WithMaxDepth(2), WithHeuristic(true))
		require.Equal(t, winningMove, engine.NextMove(b))
	})
}

func TestRootValueOfWin(t *testing.T) {
	tr := newTree(mustParse(t, winInOne))
	s := newSearcher(context.Background(), tr)
	v, err := s.search(tr.Root(), 1, -Win, Win, kindRoot)
	require.NoError(t, err)
	require.Equal(t, Win, v)
	require.Equal(t, winningMove, s.bestMove(tr.Root()))
	require.Equal(t, BoundLower, tr.RootNode().Stats.Bound)
}

func TestCancelledSearch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := newTree(board.New())
	s := newSearcher(ctx, tr)
	_, err := s.search(tr.Root(), 3, -Win, Win, kindRoot)
	require.ErrorIs(t, err, context.Canceled)

	// Nothing completed, the first legal move is the fallback
	move, depth := s.deepen(tr.Root(), 5, nil)
	require.Equal(t, 0, depth)
	require.Equal(t, board.New().Actions()[0], move)
}

func TestNodeLimit(t *testing.T) {
	tr := newTree(board.New())
	s := newSearcher(context.Background(), tr)
	s.nodeLimit = 500

	move, depth := s.deepen(tr.Root(), 6, nil)
	require.Less(t, depth, 6)
	require.True(t, board.New().IsLegal(move))
}

func TestNextMoveWithTime(t *testing.T) {
	for _, d := range []time.Duration{20 * time.Millisecond, 300 * time.Millisecond} {
		engine := New()
		b := board.New().Move(40)

		start := time.Now()
		m := engine.NextMoveWithTime(b, d)
		elapsed := time.Since(start)
		require.Less(t, elapsed, d+60*time.Millisecond, "budget %v took %v, tree size %d", d, elapsed, engine.tree.Size())
		require.True(t, b.IsLegal(m))
		require.Less(t, engine.Depth(), DefaultTimedMaxDepth)
	}
}

func TestDeepeningKeepsLastCompletedDepth(t *testing.T) {
	engine := New(WithMaxDepth(2))
	b := board.New().Move(40)
	m := engine.NextMove(b)
	require.Equal(t, 2, engine.Depth())
	require.True(t, b.IsLegal(m))

	pv := engine.MovePredictions()
	require.Equal(t, m, pv[0])
	require.LessOrEqual(t, len(pv), 2)
}

func TestReuse(t *testing.T) {
	engine := New(WithMaxDepth(2))
	b := board.New().Move(40)
	m := engine.NextMove(b)

	after := b.Move(m)
	next := after.Move(after.Actions()[0])
	engine.NextMove(next)
	require.Equal(t, next, engine.tree.RootNode().Board)
	require.Greater(t, engine.tree.RootNode().Stats.N, int32(0))

	// Unknown positions start a new tree
	fresh := mustParse(t, winInOne)
	require.Equal(t, winningMove, engine.NextMove(fresh))
	require.Equal(t, fresh, engine.tree.RootNode().Board)
}

func TestPonder(t *testing.T) {
	engine := New(WithMaxDepth(1))
	b := board.New().Move(40)
	m := engine.NextMove(b)
	size := engine.tree.Size()

	engine.Ponder()
	time.Sleep(50 * time.Millisecond)
	engine.StopPondering()
	require.Greater(t, engine.tree.Size(), size)

	h := engine.tree.ChildByMove(engine.tree.Root(), m)
	require.NotEqual(t, BoundNone, engine.tree.At(h).Stats.Bound)
}

func TestBeforeSearchPanics(t *testing.T) {
	engine := New()
	require.Panics(t, func() { _ = engine.Trace() })
	require.Panics(t, func() { _ = engine.MovePredictions() })
}

func TestBoundString(t *testing.T) {
	require.Equal(t, "exact", BoundExact.String())
	require.Equal(t, "none", BoundNone.String())
	require.Equal(t, "lower", BoundLower.String())
}
