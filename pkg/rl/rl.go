package rl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"github.com/IlikeChooros/go-uttt/pkg/tree"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Tree search trained by epsilon-greedy walks to the end of the game.
// The tree is always kept between turns.
type Engine struct {
	rule     Rule
	opts     Options
	tree     *Tree
	rand     *rand.Rand
	limiter  *search.Limiter
	ponderer search.Ponderer
	lastMove board.Move
	searched bool
	cycles   int
}

var _ search.Engine = (*Engine)(nil)

func NewQLearning(opts ...Option) *Engine {
	o := apply(Options{
		Iterations: DefaultQIterations,
		P:          DefaultRandomProbability,
	}, opts)
	return newEngine(QLearning{Alpha: o.Alpha}, o)
}

func NewSarsa(opts ...Option) *Engine {
	o := apply(Options{
		Iterations: DefaultSarsaIterations,
		P:          DefaultRandomProbability,
		Alpha:      DefaultSarsaAlpha,
		Gamma:      DefaultSarsaGamma,
	}, opts)
	return newEngine(Sarsa{Alpha: o.Alpha, Gamma: o.Gamma}, o)
}

func newEngine(rule Rule, o Options) *Engine {
	return &Engine{
		rule:     rule,
		opts:     o,
		rand:     search.NewRand(o.Seed),
		limiter:  search.NewLimiter(),
		lastMove: board.NoMove,
	}
}

func (e *Engine) Rule() Rule {
	return e.rule
}

func (e *Engine) NextMove(b board.Board) board.Move {
	return e.run(b, e.opts.limits(-1))
}

func (e *Engine) NextMoveWithTime(b board.Board, d time.Duration) board.Move {
	return e.run(b, e.opts.limits(int(d.Milliseconds())))
}

func (e *Engine) run(b board.Board, limits *search.Limits) board.Move {
	e.StopPondering()
	search.MustHaveMoves(e.rule.Name(), b)
	e.setupRoot(b)

	e.limiter.SetLimits(limits)
	e.limiter.Reset()
	root := e.tree.Root()
	e.tree.Expand(root)

	e.cycles = 0
	for e.limiter.Ok(uint32(e.tree.Size()), uint32(e.cycles)) {
		e.train(root)
		e.cycles++
		e.opts.Listener.InvokeCycle(e.cycles, e.stats)
	}
	e.limiter.EvaluateStopReason(uint32(e.tree.Size()), uint32(e.cycles))
	e.opts.Listener.InvokeStop(e.stats)

	e.lastMove = e.tree.At(e.bestChild(root)).Move
	e.searched = true

	log.Debug().
		Str("rule", e.rule.Name()).
		Int("cycles", e.cycles).
		Int("nodes", e.tree.Size()).
		Uint32("ms", e.limiter.Elapsed()).
		Float64("q", e.tree.RootNode().Stats.Q).
		Stringer("move", e.lastMove).
		Msg("rl: training done")
	return e.lastMove
}

// Re-roots at our last move followed by the opponent's reply
func (e *Engine) setupRoot(b board.Board) {
	if e.tree == nil {
		e.tree = newTree(b, e.rule.Win())
		return
	}

	root := e.tree.Root()
	if e.tree.At(root).Board == b {
		return
	}

	h := e.tree.Follow(root, e.lastMove, b)
	if h == tree.Nil {
		log.Warn().
			Str("rule", e.rule.Name()).
			Str("board", b.Compact()).
			Msg("rl: position not in the tree, starting fresh")
		e.tree = newTree(b, e.rule.Win())
		return
	}
	e.tree = e.tree.Extract(h)
}

// One walk from 'root' to a terminal node, then the update
func (e *Engine) train(root tree.Handle) {
	h := root
	for {
		node := e.tree.At(h)
		e.rule.Visit(&node.Stats)
		if node.Terminal() {
			break
		}

		n := e.tree.Expand(h)
		if e.rand.Float64() < e.opts.P {
			h = e.tree.At(h).Child(e.rand.Intn(n))
		} else {
			h = e.bestChild(h)
		}
	}
	e.rule.Learn(e.tree, h, root)
}

// Child with the lowest q, the first one on ties. Nil for a leaf.
func (e *Engine) bestChild(h tree.Handle) tree.Handle {
	node := e.tree.At(h)
	best := tree.Nil
	for i := range node.NumChildren() {
		child := node.Child(i)
		if best == tree.Nil || e.tree.At(child).Stats.Q < e.tree.At(best).Stats.Q {
			best = child
		}
	}
	return best
}

func (e *Engine) bestLine(h tree.Handle) []tree.Handle {
	line := make([]tree.Handle, 0, 16)
	for h = e.bestChild(h); h != tree.Nil; h = e.bestChild(h) {
		line = append(line, h)
	}
	return line
}

func (e *Engine) stats() search.Stats {
	pv := e.predictions()
	elapsed := int(e.limiter.Elapsed())
	stats := search.Stats{
		Cycles:     e.cycles,
		TimeMs:     elapsed,
		Cps:        search.Cps(e.cycles, elapsed),
		Size:       uint32(e.tree.Size()),
		BestMove:   board.NoMove,
		Eval:       e.tree.RootNode().Stats.Q,
		Pv:         pv,
		Depth:      len(pv),
		StopReason: e.limiter.StopReason(),
	}
	if len(pv) > 0 {
		stats.BestMove = pv[0]
	}
	return stats
}

func (e *Engine) predictions() []board.Move {
	line := e.bestLine(e.tree.Root())
	moves := make([]board.Move, len(line))
	for i, h := range line {
		moves[i] = e.tree.At(h).Move
	}
	return moves
}

func (e *Engine) Trace() string {
	e.mustHaveSearched()
	var sb strings.Builder
	root := e.tree.RootNode()
	fmt.Fprintf(&sb, "%s: %s\n", e.rule.Name(), root.Board.Compact())
	fmt.Fprintf(&sb, "root q=%+.3f n=%d\n", root.Stats.Q, root.Stats.N)

	for i := range root.NumChildren() {
		h := root.Child(i)
		child := e.tree.At(h)
		fmt.Fprintf(&sb, "  %v q=%+.3f n=%d", child.Move, child.Stats.Q, child.Stats.N)
		for _, next := range e.bestLine(h) {
			fmt.Fprintf(&sb, " %v", e.tree.At(next).Move)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (e *Engine) MovePredictions() []board.Move {
	e.mustHaveSearched()
	return e.predictions()
}

// Trains on the position after our last move until the next search
func (e *Engine) Ponder() {
	if !e.searched {
		return
	}

	h := e.tree.ChildByMove(e.tree.Root(), e.lastMove)
	if h == tree.Nil || e.tree.At(h).Terminal() {
		return
	}

	e.ponderer.Start(1, func(ctx context.Context, _ int) {
		if e.opts.NodeLimit > 0 && e.tree.Size() >= e.opts.NodeLimit {
			<-ctx.Done()
			return
		}
		e.train(h)
	})
}

func (e *Engine) StopPondering() {
	e.ponderer.Stop()
}

func (e *Engine) mustHaveSearched() {
	if !e.searched {
		panic(e.rule.Name() + ": no search has been run yet")
	}
}
