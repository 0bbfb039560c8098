package mcts

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/tree"
	"github.com/samber/lo"
)

// Follows the most visited children from 'h' while they have been visited
func PrincipalVariation[S any, PS StatsPtr[S]](t *tree.Arena[S], h tree.Handle) []board.Move {
	pv := make([]board.Move, 0, 16)
	for {
		h = MostVisited[S, PS](t, h)
		if h == tree.Nil || mctsStats[S, PS](t, h).N == 0 {
			return pv
		}
		pv = append(pv, t.At(h).Move)
	}
}

// One line of a trace: a candidate move with its statistics
type ChildLine struct {
	Move    board.Move
	Visits  int32
	Utility float64
}

func (l ChildLine) String() string {
	return fmt.Sprintf("%v n=%d u=%+.3f", l.Move, l.Visits, l.Utility)
}

// Children of 'h', most visited first
func childLines[S any, PS StatsPtr[S]](t *tree.Arena[S], h tree.Handle) []ChildLine {
	node := t.At(h)
	lines := lo.Times(node.NumChildren(), func(i int) ChildLine {
		child := t.At(node.Child(i))
		stats := PS(&child.Stats).MCTS()
		return ChildLine{Move: child.Move, Visits: stats.N, Utility: stats.Utility()}
	})
	sortLines(lines)
	return lines
}

func sortLines(lines []ChildLine) {
	slices.SortStableFunc(lines, func(a, b ChildLine) int {
		return cmp.Compare(b.Visits, a.Visits)
	})
}

func formatTrace(name string, b board.Board, best board.Move, lines []ChildLine, pv []board.Move) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", name, b.Compact())
	fmt.Fprintf(&sb, "best %v\n", best)
	for _, line := range lines {
		sb.WriteString("  " + line.String() + "\n")
	}
	sb.WriteString("pv " + strings.Join(lo.Map(pv, func(m board.Move, _ int) string { return m.String() }), " "))
	return sb.String()
}
