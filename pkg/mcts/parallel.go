package mcts

import (
	"context"
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"github.com/IlikeChooros/go-uttt/pkg/tree"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/exp/rand"
)

// Root of the parallel search: the position and one tree per legal move.
// The root node of every child tree stores the move that leads to it.
type layer struct {
	board    board.Board
	children []*Tree
}

func newLayer(b board.Board) *layer {
	return &layer{
		board: b,
		children: lo.Map(b.Actions(), func(m board.Move, _ int) *Tree {
			t := NewTree(b.Move(m))
			t.RootNode().Move = m
			return t
		}),
	}
}

// Splits the subtree at 'h' into a layer, keeping the statistics of the children
func layerFrom(t *Tree, h tree.Handle) *layer {
	node := t.At(h)
	if !node.Expanded() {
		return newLayer(node.Board)
	}

	l := &layer{board: node.Board, children: make([]*Tree, node.NumChildren())}
	for i := range l.children {
		l.children[i] = t.Extract(t.At(h).Child(i))
	}
	return l
}

func (l *layer) child(m board.Move) *Tree {
	t, _ := lo.Find(l.children, func(t *Tree) bool { return t.RootNode().Move == m })
	return t
}

func (l *layer) childByBoard(b board.Board) *Tree {
	t, _ := lo.Find(l.children, func(t *Tree) bool { return t.RootNode().Board == b })
	return t
}

func (l *layer) size() int {
	return lo.SumBy(l.children, func(t *Tree) int { return t.Size() })
}

func (l *layer) visits() int32 {
	return lo.SumBy(l.children, func(t *Tree) int32 { return t.RootNode().Stats.N })
}

// Root-parallel MCTS: every root child has its own tree, so workers never
// share nodes. Small roots are searched with one worker per child, larger
// ones by a single loop selecting among the child trees.
type ParallelEngine struct {
	opts     Options
	layer    *layer
	rand     *rand.Rand
	limiter  *search.Limiter
	ponderer search.Ponderer
	lastMove board.Move
	pondered bool
	searched bool
	cycles   int

	// layer and chosen tree of the last search, pondering replaces 'layer'
	searchedLayer *layer
	best          *Tree
}

var _ search.Engine = (*ParallelEngine)(nil)

func NewParallel(opts ...Option) *ParallelEngine {
	o := newOptions(opts)
	return &ParallelEngine{
		opts:     o,
		rand:     search.NewRand(o.Seed),
		limiter:  search.NewLimiter(),
		lastMove: board.NoMove,
	}
}

func (e *ParallelEngine) Options() Options {
	return e.opts
}

// Each root child gets an equal share of the iterations
func (e *ParallelEngine) NextMove(b board.Board) board.Move {
	e.StopPondering()
	search.MustHaveMoves("parallel mcts", b)
	e.setupRoot(b)

	perChild := max(e.opts.Iterations/len(e.layer.children), 1)
	return e.run(perChild, -1)
}

func (e *ParallelEngine) NextMoveWithTime(b board.Board, d time.Duration) board.Move {
	e.StopPondering()
	search.MustHaveMoves("parallel mcts", b)
	e.setupRoot(b)
	return e.run(0, int(d.Milliseconds()))
}

func (e *ParallelEngine) setupRoot(b board.Board) {
	pondered := e.pondered
	e.pondered = false

	if !e.opts.Reuse || e.layer == nil {
		e.layer = newLayer(b)
		return
	}
	if e.layer.board == b {
		return
	}

	// After pondering the layer already is the position after our move
	if pondered {
		if t := e.layer.childByBoard(b); t != nil {
			e.layer = layerFrom(t, t.Root())
			return
		}
	} else if t := e.layer.child(e.lastMove); t != nil {
		if h := t.ChildByBoard(t.Root(), b); h != tree.Nil {
			e.layer = layerFrom(t, h)
			return
		}
	}

	log.Debug().Str("board", b.Compact()).Msg("parallel mcts: position not in the tree, starting fresh")
	e.layer = newLayer(b)
}

func (e *ParallelEngine) run(perChild int, movetime int) board.Move {
	children := e.layer.children
	var best *Tree

	// Under a deadline every child needs a worker of its own, a queued task
	// would only start once the time is up
	if len(children) <= e.opts.Cutoff && (movetime < 0 || e.opts.Threads >= len(children)) {
		e.searchPerChild(e.opts.limits(perChild, movetime))
		best = lowestUtility(children)
	} else {
		e.searchLayer(e.opts.limits(perChild*len(children), movetime))
		best = lo.MaxBy(children, func(a, b *Tree) bool {
			return a.RootNode().Stats.N > b.RootNode().Stats.N
		})
	}

	e.lastMove = best.RootNode().Move
	e.searched = true
	e.searchedLayer, e.best = e.layer, best

	log.Debug().
		Int("children", len(children)).
		Int("cycles", e.cycles).
		Int("nodes", e.layer.size()).
		Uint32("ms", e.limiter.Elapsed()).
		Stringer("stop", e.limiter.StopReason()).
		Stringer("move", e.lastMove).
		Msg("parallel mcts: search done")
	return e.lastMove
}

// Children with fewer visits than the average divided by this are not trusted
const minVisitShare = 10

// Child with the lowest mean utility among the ones that got a fair share of
// the visits, the more visited one on ties
func lowestUtility(children []*Tree) *Tree {
	total := lo.SumBy(children, func(t *Tree) int64 { return int64(t.RootNode().Stats.N) })
	floor := int32(total / int64(len(children)*minVisitShare))
	trusted := lo.Filter(children, func(t *Tree, _ int) bool {
		return t.RootNode().Stats.N >= floor
	})

	return lo.MinBy(trusted, func(a, b *Tree) bool {
		sa, sb := &a.RootNode().Stats, &b.RootNode().Stats
		if ua, ub := sa.Utility(), sb.Utility(); ua != ub {
			return ua < ub
		}
		return sa.N > sb.N
	})
}

// One task per child tree, each running until the shared limits say stop
func (e *ParallelEngine) searchPerChild(limits *search.Limits) {
	if limits.Nodes != search.DefaultNodeLimit {
		limits.Nodes = max(limits.Nodes/uint32(len(e.layer.children)), 1)
	}
	e.limiter.SetLimits(limits)
	e.limiter.Reset()

	ctx := context.Background()
	if deadline := e.limiter.Timer.Deadline(); !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}
	e.limiter.SetContext(ctx)
	defer e.limiter.SetContext(context.Background())

	cycles := make([]int, len(e.layer.children))
	tasks := make([]search.Task, len(e.layer.children))
	for i, t := range e.layer.children {
		r := search.SplitRand(e.rand)
		tasks[i] = func(ctx context.Context) {
			root := t.Root()
			for {
				Iterate[Stats](t, root, e.opts.Exploration, r)
				cycles[i]++
				if ctx.Err() != nil || !e.limiter.Ok(uint32(t.Size()), uint32(cycles[i])) {
					return
				}
			}
		}
	}

	_ = search.RunParallel(ctx, e.opts.Threads, tasks)
	e.cycles = lo.Sum(cycles)
	e.limiter.EvaluateStopReason(uint32(e.layer.size()), uint32(lo.Min(cycles)))
}

// Single loop choosing a child tree by UCB over the root layer
func (e *ParallelEngine) searchLayer(limits *search.Limits) {
	e.limiter.SetLimits(limits)
	e.limiter.Reset()

	children := e.layer.children
	e.cycles = 0
	size := e.layer.size()
	for e.cycles == 0 || e.limiter.Ok(uint32(size), uint32(e.cycles)) {
		lnParent := lnVisits(e.layer.visits())
		t := lo.MaxBy(children, func(a, b *Tree) bool {
			return ucb(&a.RootNode().Stats, lnParent, e.opts.Exploration) >
				ucb(&b.RootNode().Stats, lnParent, e.opts.Exploration)
		})

		before := t.Size()
		Iterate[Stats](t, t.Root(), e.opts.Exploration, e.rand)
		size += t.Size() - before
		e.cycles++
	}
	e.limiter.EvaluateStopReason(uint32(size), uint32(e.cycles))
}

func (e *ParallelEngine) Trace() string {
	e.mustHaveSearched()
	lines := lo.Map(e.searchedLayer.children, func(t *Tree, _ int) ChildLine {
		root := t.RootNode()
		return ChildLine{Move: root.Move, Visits: root.Stats.N, Utility: root.Stats.Utility()}
	})
	sortLines(lines)
	return formatTrace("parallel mcts", e.searchedLayer.board, e.lastMove, lines, e.MovePredictions())
}

func (e *ParallelEngine) MovePredictions() []board.Move {
	e.mustHaveSearched()
	t := e.best
	return append([]board.Move{e.lastMove}, PrincipalVariation[Stats](t, t.Root())...)
}

// Moves the root to the position after our last move and keeps searching
// the opponent's replies, one owner per child tree
func (e *ParallelEngine) Ponder() {
	if !e.opts.Reuse || !e.searched || e.pondered {
		return
	}

	t := e.best
	if t == nil || t.RootNode().Terminal() {
		return
	}

	e.layer = layerFrom(t, t.Root())
	if len(e.layer.children) == 0 {
		return
	}
	// An unexpanded chosen child gives a fresh layer, which is still valid
	e.pondered = true

	children := e.layer.children
	workers := min(e.opts.Threads, len(children))
	rands := lo.Times(workers, func(int) *rand.Rand { return search.SplitRand(e.rand) })
	next := make([]int, workers)
	limit := 0
	if e.opts.NodeLimit > 0 {
		limit = max(e.opts.NodeLimit/len(children), 1)
	}

	e.ponderer.Start(workers, func(ctx context.Context, id int) {
		// Worker 'id' owns the trees id, id+workers, ...
		owned := (len(children) - id + workers - 1) / workers
		for range owned {
			t := children[id+(next[id]%owned)*workers]
			next[id]++
			if limit == 0 || t.Size() < limit {
				Iterate[Stats](t, t.Root(), e.opts.Exploration, rands[id])
				return
			}
		}
		<-ctx.Done()
	})
}

func (e *ParallelEngine) StopPondering() {
	e.ponderer.Stop()
}

func (e *ParallelEngine) mustHaveSearched() {
	if !e.searched {
		panic("parallel mcts: no search has been run yet")
	}
}
