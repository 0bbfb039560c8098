package rl

import (
	"math"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/tree"
)

// Value and visit count of a node. Q is scored for the side to move at the
// node, so the player choosing among children prefers the lowest.
type Stats struct {
	Q float64
	N int32
}

type Tree = tree.Arena[Stats]

// Update rule applied after every training walk
type Rule interface {
	Name() string
	// Reward of a decided game
	Win() float64
	// Called for every node on the walk, root and terminal included
	Visit(s *Stats)
	// Propagates the result of the walk ending at the terminal 'leaf' up to 'root'
	Learn(t *Tree, leaf, root tree.Handle)
}

// Decided terminals start with a fixed -win, they are a loss for the side to move
func newTree(b board.Board, win float64) *Tree {
	return tree.New[Stats](b, func(b board.Board) Stats {
		if w := b.Winner(); w == board.X || w == board.O {
			return Stats{Q: -win}
		}
		return Stats{}
	})
}

const (
	QWin     = 10.0
	alphaMax = 0.4
	alphaMin = 0.01
	// moves from the end at which the annealed rate reaches alphaMin
	alphaHorizon = 30
)

var alphaDecay = math.Log(alphaMax/alphaMin) / alphaHorizon

// Q-learning: every node on the walk moves toward the terminal reward,
// with the sign flipped at each ply
type QLearning struct {
	// Fixed learning rate, 0 anneals it by the distance from the terminal
	Alpha float64
}

func (QLearning) Name() string { return "qlearning" }
func (QLearning) Win() float64 { return QWin }
func (QLearning) Visit(*Stats) {}

func (q QLearning) alpha(fromEnd int) float64 {
	if q.Alpha > 0 {
		return q.Alpha
	}
	return max(alphaMax*math.Exp(-alphaDecay*float64(fromEnd)), alphaMin)
}

func (q QLearning) Learn(t *Tree, leaf, root tree.Handle) {
	reward := 0.0
	if t.At(leaf).Board.Winner() != board.Draw {
		reward = -QWin
	}

	for h, d := leaf, 0; ; d++ {
		s := &t.At(h).Stats
		s.N++
		s.Q += q.alpha(d) * (reward - s.Q)
		if h == root {
			return
		}
		reward = -reward
		h = t.At(h).Parent
	}
}

const SarsaWin = 100.0

// SARSA: each ancestor bootstraps off the value of its just updated child
type Sarsa struct {
	Alpha float64
	Gamma float64
}

func (Sarsa) Name() string { return "sarsa" }
func (Sarsa) Win() float64 { return SarsaWin }

func (Sarsa) Visit(s *Stats) {
	s.N++
}

func (r Sarsa) Learn(t *Tree, leaf, root tree.Handle) {
	childQ := t.At(leaf).Stats.Q
	for h := leaf; h != root; {
		h = t.At(h).Parent
		s := &t.At(h).Stats
		s.Q += r.Alpha * (-r.Gamma*childQ - s.Q)
		childQ = s.Q
	}
}
