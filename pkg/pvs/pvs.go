package pvs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"github.com/IlikeChooros/go-uttt/pkg/tree"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/exp/rand"
)

// Principal variation search with MCTS leaf evaluation
type Engine struct {
	opts     Options
	tree     *Tree
	rand     *rand.Rand
	ponderer search.Ponderer
	lastMove board.Move
	searched bool
	depth    int
	nodes    int
	start    time.Time
}

var _ search.Engine = (*Engine)(nil)

func New(opts ...Option) *Engine {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		opts:     o,
		rand:     search.NewRand(o.Seed),
		lastMove: board.NoMove,
	}
}

// Searches every depth up to the configured maximum
func (e *Engine) NextMove(b board.Board) board.Move {
	return e.run(context.Background(), b, e.opts.MaxDepth)
}

// Deepens until the deadline, keeping the move of the last completed depth
func (e *Engine) NextMoveWithTime(b board.Board, d time.Duration) board.Move {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return e.run(ctx, b, e.opts.TimedMaxDepth)
}

func (e *Engine) run(ctx context.Context, b board.Board, maxDepth int) board.Move {
	e.StopPondering()
	search.MustHaveMoves("pvs", b)
	e.setupRoot(b)

	e.start = time.Now()
	s := e.searcher(ctx)
	root := e.tree.Root()
	move, depth := s.deepen(root, maxDepth, func(depth int, move board.Move, value float64) {
		e.depth, e.nodes = depth, s.nodes
		e.opts.Listener.InvokeDepth(func() search.Stats { return e.stats(move, value) })
	})

	e.lastMove, e.depth, e.nodes = move, depth, s.nodes
	e.searched = true
	e.opts.Listener.InvokeStop(func() search.Stats {
		return e.stats(move, e.tree.RootNode().Stats.Score)
	})

	log.Debug().
		Int("depth", depth).
		Int("nodes", s.nodes).
		Int("size", e.tree.Size()).
		Dur("elapsed", time.Since(e.start)).
		Stringer("move", move).
		Msg("pvs: search done")
	return move
}

func (e *Engine) searcher(ctx context.Context) *searcher {
	return &searcher{
		ctx:            ctx,
		tree:           e.tree,
		rand:           e.rand,
		exploration:    e.opts.Exploration,
		leafIterations: int32(e.opts.LeafIterations),
		heuristic:      e.opts.Heuristic,
		nodeLimit:      e.opts.NodeLimit,
	}
}

// Looks for 'b' two plies below the old root, under our move first
func (e *Engine) setupRoot(b board.Board) {
	if e.tree == nil {
		e.tree = newTree(b)
		return
	}

	root := e.tree.Root()
	if e.tree.At(root).Board == b {
		return
	}

	if h := e.tree.Follow(root, e.lastMove, b); h != tree.Nil {
		e.tree = e.tree.Extract(h)
		return
	}

	node := e.tree.At(root)
	for i := range node.NumChildren() {
		if h := e.tree.ChildByBoard(node.Child(i), b); h != tree.Nil {
			e.tree = e.tree.Extract(h)
			return
		}
	}

	log.Debug().Str("board", b.Compact()).Msg("pvs: position not in the tree, starting fresh")
	e.tree = newTree(b)
}

func (e *Engine) stats(move board.Move, value float64) search.Stats {
	elapsed := max(int(time.Since(e.start).Milliseconds()), 1)
	return search.Stats{
		Depth:    e.depth,
		Cycles:   e.nodes,
		TimeMs:   elapsed,
		Cps:      search.Cps(e.nodes, elapsed),
		Size:     uint32(e.tree.Size()),
		BestMove: move,
		Eval:     value,
		Pv:       e.line(e.tree.Root()),
	}
}

// Follows the best children recorded by the searches
func (e *Engine) line(h tree.Handle) []board.Move {
	var moves []board.Move
	for {
		node := e.tree.At(h)
		if node.Stats.Best < 0 || !node.Expanded() {
			return moves
		}
		h = node.Child(node.Stats.Best)
		moves = append(moves, e.tree.At(h).Move)
	}
}

// Depth of the last completed iteration
func (e *Engine) Depth() int {
	return e.depth
}

func (e *Engine) Trace() string {
	e.mustHaveSearched()
	var sb strings.Builder
	root := e.tree.RootNode()
	fmt.Fprintf(&sb, "pvs: %s\n", root.Board.Compact())
	fmt.Fprintf(&sb, "best %v depth %d nodes %d\n", e.lastMove, e.depth, e.nodes)

	order := root.Stats.order
	if order == nil {
		order = lo.Map(lo.Range(root.NumChildren()), func(i int, _ int) uint8 { return uint8(i) })
	}
	for _, i := range order {
		h := root.Child(int(i))
		child := e.tree.At(h)
		fmt.Fprintf(&sb, "  %v u=%+.3f n=%d %s=%+.3f@%d", child.Move, child.Stats.Utility(), child.Stats.N,
			child.Stats.Bound, child.Stats.Score, child.Stats.MemoDepth)
		for _, m := range e.line(h) {
			fmt.Fprintf(&sb, " %v", m)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (e *Engine) MovePredictions() []board.Move {
	e.mustHaveSearched()
	line := e.line(e.tree.Root())
	if len(line) == 0 || line[0] != e.lastMove {
		// the last search was cut before any depth completed
		return []board.Move{e.lastMove}
	}
	return line
}

// Deepens the position after our move, filling the memos and orderings
// the next search starts from
func (e *Engine) Ponder() {
	if !e.searched {
		return
	}

	h := e.tree.ChildByMove(e.tree.Root(), e.lastMove)
	if h == tree.Nil || e.tree.At(h).Terminal() {
		return
	}

	e.ponderer.Start(1, func(ctx context.Context, _ int) {
		s := e.searcher(ctx)
		s.deepen(h, e.opts.TimedMaxDepth, nil)
		if s.nodeLimit > 0 && e.tree.Size() >= s.nodeLimit {
			<-ctx.Done()
		}
	})
}

func (e *Engine) StopPondering() {
	e.ponderer.Stop()
}

func (e *Engine) mustHaveSearched() {
	if !e.searched {
		panic("pvs: no search has been run yet")
	}
}
