package pvs

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/mcts"
	"github.com/IlikeChooros/go-uttt/pkg/tree"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
)

const (
	Win        = 1.0
	NullWindow = 1e-4
)

var errNodeLimit = errors.New("pvs: node limit reached")

// One search run over a tree, cancelled through 'ctx'
type searcher struct {
	ctx            context.Context
	tree           *Tree
	rand           *rand.Rand
	exploration    float64
	leafIterations int32
	heuristic      bool
	nodeLimit      int
	nodes          int
}

// Negamax value of 'h' for the side to move there
func (s *searcher) search(h tree.Handle, depth int, alpha, beta float64, kind nodeKind) (float64, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	if s.nodeLimit > 0 && s.tree.Size() >= s.nodeLimit {
		return 0, errNodeLimit
	}
	s.nodes++

	if depth == 0 || s.tree.At(h).Terminal() {
		return s.evaluate(h), nil
	}

	if kind == kindNonPV && s.tree.At(h).Stats.memoHit(depth, alpha, beta) {
		return s.tree.At(h).Stats.Score, nil
	}

	if depth <= 2 {
		s.sortChildren(h)
	}

	if kind == kindNonPV && depth < 3 {
		if static := s.staticEval(h); static >= beta {
			return static, nil
		}
	}

	order := s.ordering(h)
	bestValue := math.Inf(-1)
	bound := BoundUpper
	nullSearch := false

	// 'order' is rotated while iterating, entries past 'i' are never touched
	for i := range order {
		child := s.tree.At(h).Child(int(order[i]))
		moveCount := i + 1

		var value float64
		var err error
		if kind != kindNonPV {
			fullSearch := true
			if nullSearch {
				newDepth := depth - 1
				if moveCount > 3 && depth >= 2 {
					newDepth--
				}
				value, err = s.search(child, newDepth, max(-beta, -alpha-NullWindow), -alpha, kindNonPV)
				if err != nil {
					return 0, err
				}
				value = -value
				fullSearch = alpha < value && value < beta
			}
			if fullSearch {
				value, err = s.search(child, depth-1, -beta, -alpha, kindPV)
				value = -value
			}
		} else {
			value, err = s.search(child, depth-1, -beta, -alpha, kindNonPV)
			value = -value
		}
		if err != nil {
			return 0, err
		}

		stats := &s.tree.At(h).Stats
		if value > bestValue {
			bestValue = value
			stats.Best = int(order[i])
			moveToFront(order, i)
		}
		if bestValue > alpha {
			alpha = bestValue
			bound = BoundExact
			nullSearch = true
		}
		if alpha >= beta {
			stats.store(BoundLower, bestValue, depth)
			return bestValue, nil
		}
	}

	s.tree.At(h).Stats.store(bound, alpha, depth)
	return bestValue, nil
}

// Leaf value: exact at terminals, otherwise MCTS iterations rooted at the
// node until it has enough visits, or the heuristic if enabled
func (s *searcher) evaluate(h tree.Handle) float64 {
	b := s.tree.At(h).Board
	if b.IsTerminal() {
		if b.Winner() == board.Draw {
			return 0
		}
		return -Win
	}

	if s.heuristic {
		if b.Turn() == board.X {
			return b.Evaluate()
		}
		return -b.Evaluate()
	}

	for s.tree.At(h).Stats.N < s.leafIterations {
		mcts.Iterate[Stats](s.tree, h, s.exploration, s.rand)
	}
	return s.tree.At(h).Stats.Utility()
}

// Leaf value refined by the memo
func (s *searcher) staticEval(h tree.Handle) float64 {
	memo := s.tree.At(h).Stats
	var static float64
	if memo.Bound == BoundExact {
		static = memo.Score
	} else {
		static = s.evaluate(h)
	}

	if (memo.Bound == BoundUpper && memo.Score < static) ||
		(memo.Bound == BoundLower && memo.Score > static) {
		static = memo.Score
	}
	return static
}

// Search order of the children of 'h', created sorted on first use
func (s *searcher) ordering(h tree.Handle) []uint8 {
	if s.tree.At(h).Stats.order == nil {
		s.sortChildren(h)
	}
	return s.tree.At(h).Stats.order
}

// Orders the children by their MCTS utility, lowest first: that is the
// most promising one for the side to move at 'h'
func (s *searcher) sortChildren(h tree.Handle) {
	n := s.tree.Expand(h)
	stats := &s.tree.At(h).Stats
	if len(stats.order) != n {
		stats.order = make([]uint8, n)
		for i := range stats.order {
			stats.order[i] = uint8(i)
		}
	}

	node := s.tree.At(h)
	slices.SortStableFunc(stats.order, func(a, b uint8) int {
		ua := s.tree.At(node.Child(int(a))).Stats.Utility()
		ub := s.tree.At(node.Child(int(b))).Stats.Utility()
		return cmp.Compare(ua, ub)
	})
}

// Move of the best child of 'h', NoMove if the node has not been searched
func (s *searcher) bestMove(h tree.Handle) board.Move {
	node := s.tree.At(h)
	if node.Stats.Best < 0 {
		return board.NoMove
	}
	return s.tree.At(node.Child(node.Stats.Best)).Move
}

// Iterative deepening from 'h' up to 'maxDepth'. Returns the best move of the
// deepest completed iteration, the first ordered child if none completed,
// and the depth reached.
func (s *searcher) deepen(h tree.Handle, maxDepth int, onDepth func(depth int, move board.Move, value float64)) (board.Move, int) {
	s.evaluate(h)

	best, completed := board.NoMove, 0
	for depth := 1; depth <= maxDepth; depth++ {
		value, err := s.search(h, depth, -Win, Win, kindRoot)
		if err != nil {
			break
		}
		best, completed = s.bestMove(h), depth
		if onDepth != nil {
			onDepth(depth, best, value)
		}
	}

	if best == board.NoMove {
		best = s.fallback(h)
	}
	return best, completed
}

func (s *searcher) fallback(h tree.Handle) board.Move {
	node := s.tree.At(h)
	if order := node.Stats.order; len(order) > 0 {
		return s.tree.At(node.Child(int(order[0]))).Move
	}
	return node.Board.Actions()[0]
}
