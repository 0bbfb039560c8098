package mcts

import (
	"context"
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"github.com/IlikeChooros/go-uttt/pkg/tree"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Sequential UCT search
type Engine struct {
	opts     Options
	tree     *Tree
	rand     *rand.Rand
	limiter  *search.Limiter
	ponderer search.Ponderer
	lastMove board.Move
	searched bool
	cycles   int
	maxDepth int
}

var _ search.Engine = (*Engine)(nil)

func New(opts ...Option) *Engine {
	o := newOptions(opts)
	return &Engine{
		opts:     o,
		rand:     search.NewRand(o.Seed),
		limiter:  search.NewLimiter(),
		lastMove: board.NoMove,
	}
}

func (e *Engine) Options() Options {
	return e.opts
}

// Runs the configured number of iterations
func (e *Engine) NextMove(b board.Board) board.Move {
	return e.run(b, e.opts.limits(e.opts.Iterations, -1))
}

func (e *Engine) NextMoveWithTime(b board.Board, d time.Duration) board.Move {
	return e.run(b, e.opts.limits(0, int(d.Milliseconds())))
}

func (e *Engine) run(b board.Board, limits *search.Limits) board.Move {
	e.StopPondering()
	search.MustHaveMoves("mcts", b)

	e.setupRoot(b)
	e.search(limits)

	best := MostVisited[Stats](e.tree, e.tree.Root())
	e.lastMove = e.tree.At(best).Move
	e.searched = true
	return e.lastMove
}

// Makes 'b' the root, reusing the subtree reached by our last move
// and the opponent's reply when possible
func (e *Engine) setupRoot(b board.Board) {
	if !e.opts.Reuse || e.tree == nil {
		e.tree = NewTree(b)
		return
	}

	root := e.tree.Root()
	if e.tree.At(root).Board == b {
		return
	}

	h := e.tree.Follow(root, e.lastMove, b)
	if h == tree.Nil {
		log.Debug().Str("board", b.Compact()).Msg("mcts: position not in the tree, starting fresh")
		e.tree = NewTree(b)
		return
	}
	e.tree = e.tree.Extract(h)
}

func (e *Engine) search(limits *search.Limits) {
	e.limiter.SetLimits(limits)
	e.limiter.Reset()

	root := e.tree.Root()
	e.tree.Expand(root)
	e.cycles, e.maxDepth = 0, 0

	for e.limiter.Ok(uint32(e.tree.Size()), uint32(e.cycles)) {
		depth := Iterate[Stats](e.tree, root, e.opts.Exploration, e.rand)
		e.cycles++

		if depth > e.maxDepth {
			e.maxDepth = depth
			e.opts.Listener.InvokeDepth(e.stats)
		}
		e.opts.Listener.InvokeCycle(e.cycles, e.stats)
	}

	e.limiter.EvaluateStopReason(uint32(e.tree.Size()), uint32(e.cycles))
	e.opts.Listener.InvokeStop(e.stats)

	log.Debug().
		Int("cycles", e.cycles).
		Int("nodes", e.tree.Size()).
		Int("depth", e.maxDepth).
		Uint32("ms", e.limiter.Elapsed()).
		Stringer("stop", e.limiter.StopReason()).
		Msg("mcts: search done")
}

func (e *Engine) stats() search.Stats {
	pv := PrincipalVariation[Stats](e.tree, e.tree.Root())
	elapsed := int(e.limiter.Elapsed())
	stats := search.Stats{
		Depth:      e.maxDepth,
		Cycles:     e.cycles,
		TimeMs:     elapsed,
		Cps:        search.Cps(e.cycles, elapsed),
		Size:       uint32(e.tree.Size()),
		BestMove:   board.NoMove,
		Eval:       e.tree.RootNode().Stats.Utility(),
		Pv:         pv,
		StopReason: e.limiter.StopReason(),
	}
	if len(pv) > 0 {
		stats.BestMove = pv[0]
	}
	return stats
}

// Mean utility of the root for the side to move, valid after a search
func (e *Engine) Evaluate() float64 {
	e.mustHaveSearched()
	return e.tree.RootNode().Stats.Utility()
}

// Number of iterations of the last search
func (e *Engine) Cycles() int {
	return e.cycles
}

func (e *Engine) Size() int {
	if e.tree == nil {
		return 0
	}
	return e.tree.Size()
}

func (e *Engine) Trace() string {
	e.mustHaveSearched()
	root := e.tree.Root()
	return formatTrace("mcts", e.tree.At(root).Board, e.lastMove,
		childLines[Stats](e.tree, root), PrincipalVariation[Stats](e.tree, root))
}

func (e *Engine) MovePredictions() []board.Move {
	e.mustHaveSearched()
	return PrincipalVariation[Stats](e.tree, e.tree.Root())
}

// Keeps growing the subtree after our last move, until the next search.
// Needs tree reuse, otherwise the work would be thrown away.
func (e *Engine) Ponder() {
	if !e.opts.Reuse || !e.searched {
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
		Iterate[Stats](e.tree, h, e.opts.Exploration, e.rand)
	})
}

func (e *Engine) StopPondering() {
	e.ponderer.Stop()
}

func (e *Engine) mustHaveSearched() {
	if !e.searched {
		panic("mcts: no search has been run yet")
	}
}
