package pvs

import (
	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/mcts"
	"github.com/IlikeChooros/go-uttt/pkg/tree"
)

type Bound uint8

const (
	BoundNone Bound = iota
	// Proven value, stored by a node that raised alpha
	BoundExact
	// Failed low, the true value is at most the score
	BoundUpper
	// Failed high, the true value is at least the score
	BoundLower
)

func (b Bound) String() string {
	switch b {
	case BoundExact:
		return "exact"
	case BoundUpper:
		return "upper"
	case BoundLower:
		return "lower"
	}
	return "none"
}

type nodeKind uint8

const (
	kindRoot nodeKind = iota
	kindPV
	kindNonPV
)

// Per node state: MCTS counters used by the leaf evaluation, a single memo
// entry and the search order of the children, stored as child offsets
type Stats struct {
	mcts.Stats

	Bound     Bound
	Score     float64
	MemoDepth int
	// offset of the best child found by the last search of this node, -1 if none
	Best  int
	order []uint8
}

type Tree = tree.Arena[Stats]

func newTree(b board.Board) *Tree {
	return tree.New[Stats](b, func(board.Board) Stats {
		return Stats{Best: -1}
	})
}

// Whether the memo may replace a search of 'depth' plies in the window
func (s *Stats) memoHit(depth int, alpha, beta float64) bool {
	if s.MemoDepth < depth {
		return false
	}
	switch s.Bound {
	case BoundExact:
		return true
	case BoundUpper:
		return s.Score <= alpha
	case BoundLower:
		return s.Score >= beta
	}
	return false
}

func (s *Stats) store(bound Bound, score float64, depth int) {
	s.Bound = bound
	s.Score = score
	s.MemoDepth = depth
}

// Moves order[i] to the front, shifting the earlier entries back by one
func moveToFront(order []uint8, i int) {
	if i == 0 {
		return
	}
	best := order[i]
	copy(order[1:i+1], order[:i])
	order[0] = best
}
