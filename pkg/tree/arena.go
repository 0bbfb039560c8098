package tree

import "github.com/IlikeChooros/go-uttt/pkg/board"

// Index of a node inside its arena
type Handle int32

// Marks a missing node, the parent of a root is always Nil
const Nil Handle = -1

// Called for every node the arena creates, returns its initial statistics
type InitFn[S any] func(b board.Board) S

// A search tree node, generic over the strategy-specific statistics S.
// Children of a node occupy one contiguous block of the arena, created at most once.
type Node[S any] struct {
	Board  board.Board
	Move   board.Move // move that led here from the parent, board.NoMove for the first root
	Parent Handle
	first  Handle
	count  uint8
	Stats  S
}

// Whether the children block of this node exists
func (n *Node[S]) Expanded() bool {
	return n.first != Nil
}

func (n *Node[S]) Terminal() bool {
	return n.Board.IsTerminal()
}

// Number of children, 0 if not expanded
func (n *Node[S]) NumChildren() int {
	return int(n.count)
}

// Handle of the i-th child, the node must be expanded
func (n *Node[S]) Child(i int) Handle {
	return n.first + Handle(i)
}

const (
	chunkBits = 12
	chunkSize = 1 << chunkBits
	chunkMask = chunkSize - 1
	// capacity of the first chunk, it grows up to chunkSize
	firstChunk = 64
)

// Storage of a search tree in chunks of chunkSize nodes, so growing the
// arena copies at most one chunk. Node pointers returned by 'At' are only
// valid until the next call to 'Expand'.
type Arena[S any] struct {
	chunks [][]Node[S]
	size   int
	root   Handle
	init   InitFn[S]
}

// Create an arena holding a single root node for 'b'. 'init' may be nil,
// in which case new nodes start with zero-valued statistics.
func New[S any](b board.Board, init InitFn[S]) *Arena[S] {
	a := &Arena[S]{init: init}
	a.root = a.push(b, board.NoMove, Nil)
	return a
}

func (a *Arena[S]) add(node Node[S]) Handle {
	if a.size&chunkMask == 0 {
		capacity := chunkSize
		if a.size == 0 {
			capacity = firstChunk
		}
		a.chunks = append(a.chunks, make([]Node[S], 0, capacity))
	}
	last := len(a.chunks) - 1
	a.chunks[last] = append(a.chunks[last], node)
	a.size++
	return Handle(a.size - 1)
}

func (a *Arena[S]) push(b board.Board, m board.Move, parent Handle) Handle {
	node := Node[S]{
		Board:  b,
		Move:   m,
		Parent: parent,
		first:  Nil,
	}
	if a.init != nil {
		node.Stats = a.init(b)
	}
	return a.add(node)
}

func (a *Arena[S]) Root() Handle {
	return a.root
}

func (a *Arena[S]) RootNode() *Node[S] {
	return a.At(a.root)
}

// Get the node behind the handle
func (a *Arena[S]) At(h Handle) *Node[S] {
	return &a.chunks[h>>chunkBits][h&chunkMask]
}

// Number of nodes stored
func (a *Arena[S]) Size() int {
	return a.size
}

// Creates the children of 'h', one per legal move, in board.Actions order.
// Already expanded and terminal nodes are left untouched.
// Returns the number of children of 'h'.
func (a *Arena[S]) Expand(h Handle) int {
	node := a.At(h)
	if node.Expanded() || node.Terminal() {
		return node.NumChildren()
	}

	var ml board.MoveList
	parent := node.Board
	parent.GenerateMoves(&ml)

	first := Handle(a.size)
	for _, m := range ml.Slice() {
		a.push(parent.Move(m), m, h)
	}

	// 'node' may point into the old backing array of the first chunk
	node = a.At(h)
	node.first = first
	node.count = uint8(ml.Size())
	return ml.Size()
}

// Finds the child of 'h' reached by 'm', Nil if there is none
func (a *Arena[S]) ChildByMove(h Handle, m board.Move) Handle {
	node := a.At(h)
	for i := range node.NumChildren() {
		if c := node.Child(i); a.At(c).Move == m {
			return c
		}
	}
	return Nil
}

// Finds the child of 'h' holding board 'b', Nil if there is none
func (a *Arena[S]) ChildByBoard(h Handle, b board.Board) Handle {
	node := a.At(h)
	for i := range node.NumChildren() {
		if c := node.Child(i); a.At(c).Board == b {
			return c
		}
	}
	return Nil
}

// Follows the agent's move 'm' from 'h', then the opponent's reply leading to 'b'.
// Returns Nil if either step is missing from the tree.
func (a *Arena[S]) Follow(h Handle, m board.Move, b board.Board) Handle {
	child := a.ChildByMove(h, m)
	if child == Nil {
		return Nil
	}
	return a.ChildByBoard(child, b)
}

// Copies the subtree rooted at 'h' into a fresh arena, where it becomes the root
// with no parent. Child blocks keep their order, so per-node child offsets stay valid.
func (a *Arena[S]) Extract(h Handle) *Arena[S] {
	out := &Arena[S]{init: a.init}

	root := *a.At(h)
	root.Parent = Nil
	root.first = Nil
	out.root = out.add(root)

	// Breadth-first copy: 'queue' holds pairs of (old handle, new handle)
	queue := [][2]Handle{{h, out.root}}
	for len(queue) > 0 {
		oldH, newH := queue[0][0], queue[0][1]
		queue = queue[1:]

		old := a.At(oldH)
		if !old.Expanded() {
			continue
		}

		first := Handle(out.size)
		for i := range old.NumChildren() {
			child := *a.At(old.Child(i))
			child.Parent = newH
			child.first = Nil
			out.add(child)
			queue = append(queue, [2]Handle{old.Child(i), first + Handle(i)})
		}
		copied := out.At(newH)
		copied.first = first
		copied.count = old.count
	}
	return out
}

// Number of edges between 'h' and the root
func (a *Arena[S]) Depth(h Handle) int {
	depth := 0
	for h != a.root && a.At(h).Parent != Nil {
		h = a.At(h).Parent
		depth++
	}
	return depth
}
