package mcts

import (
	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/tree"
	"golang.org/x/exp/rand"
)

// Reward of a won rollout, a lost one scores -Win and a draw 0
const Win = 1.0

// Visit count and summed rollout utility of a node. The utility is scored
// from the perspective of the side to move at the node.
type Stats struct {
	N int32
	U float64
}

func (s *Stats) MCTS() *Stats {
	return s
}

// Mean utility, 0 for an unvisited node
func (s *Stats) Utility() float64 {
	if s.N == 0 {
		return 0
	}
	return s.U / float64(s.N)
}

// Node statistics that carry MCTS counters, lets other strategies run
// playouts on their own trees
type StatsPtr[S any] interface {
	*S
	MCTS() *Stats
}

type Tree = tree.Arena[Stats]

func NewTree(b board.Board) *Tree {
	return tree.New[Stats](b, nil)
}

func mctsStats[S any, PS StatsPtr[S]](t *tree.Arena[S], h tree.Handle) *Stats {
	return PS(&t.At(h).Stats).MCTS()
}

// Walks down from 'h' choosing the child with the highest UCB score, until
// an unexpanded node is found. Returns that node and its distance from 'h'.
func selectLeaf[S any, PS StatsPtr[S]](t *tree.Arena[S], h tree.Handle, c float64) (tree.Handle, int) {
	depth := 0
	for {
		node := t.At(h)
		if !node.Expanded() {
			return h, depth
		}

		lnParent := lnVisits(mctsStats[S, PS](t, h).N)
		best, bestScore := tree.Nil, 0.0
		for i := range node.NumChildren() {
			child := node.Child(i)
			score := ucb(mctsStats[S, PS](t, child), lnParent, c)
			if best == tree.Nil || score > bestScore {
				best, bestScore = child, score
			}
		}
		h = best
		depth++
	}
}

// Creates the children of a leaf and returns a random one,
// a terminal leaf is returned as is
func expand[S any](t *tree.Arena[S], h tree.Handle, r *rand.Rand) tree.Handle {
	n := t.Expand(h)
	if n == 0 {
		return h
	}
	return t.At(h).Child(r.Intn(n))
}

// Plays uniformly random moves until the game ends, scores the result for
// the side to move on 'b'
func Rollout(b board.Board, r *rand.Rand) float64 {
	side := b.Turn()
	var ml board.MoveList
	for !b.IsTerminal() {
		b.GenerateMoves(&ml)
		b = b.Move(ml.At(r.Intn(ml.Size())))
	}

	switch b.Winner() {
	case board.Draw:
		return 0
	case side:
		return Win
	}
	return -Win
}

// Adds 'value' to 'h' and its ancestors up to and including 'root',
// flipping the sign at every level
func backpropagate[S any, PS StatsPtr[S]](t *tree.Arena[S], h, root tree.Handle, value float64) {
	for h != tree.Nil {
		stats := mctsStats[S, PS](t, h)
		stats.U += value
		stats.N++
		if h == root {
			return
		}
		value = -value
		h = t.At(h).Parent
	}
}

// Runs one select, expand, simulate, backpropagate cycle below 'root'.
// Returns the depth of the simulated node relative to 'root'.
func Iterate[S any, PS StatsPtr[S]](t *tree.Arena[S], root tree.Handle, c float64, r *rand.Rand) int {
	leaf, depth := selectLeaf[S, PS](t, root, c)
	child := expand(t, leaf, r)
	if child != leaf {
		depth++
	}
	backpropagate[S, PS](t, child, root, Rollout(t.At(child).Board, r))
	return depth
}

// Most visited child of 'h' (robust child), Nil if 'h' has no children
func MostVisited[S any, PS StatsPtr[S]](t *tree.Arena[S], h tree.Handle) tree.Handle {
	node := t.At(h)
	best := tree.Nil
	var bestN int32
	for i := range node.NumChildren() {
		child := node.Child(i)
		if n := mctsStats[S, PS](t, child).N; best == tree.Nil || n > bestN {
			best, bestN = child, n
		}
	}
	return best
}

// Child of 'h' with the lowest mean utility, that is the best one for the
// side to move at 'h'. Nil if 'h' has no children.
func LowestUtility[S any, PS StatsPtr[S]](t *tree.Arena[S], h tree.Handle) tree.Handle {
	node := t.At(h)
	best := tree.Nil
	bestU := 0.0
	for i := range node.NumChildren() {
		child := node.Child(i)
		if u := mctsStats[S, PS](t, child).Utility(); best == tree.Nil || u < bestU {
			best, bestU = child, u
		}
	}
	return best
}
