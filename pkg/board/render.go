package board

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// ANSI palette indexes used by Render
const (
	colorX        = "9"
	colorO        = "12"
	colorPlayable = "10"
)

// Renders the grid with colours for the given terminal profile: X and O pieces
// are coloured, finished sub-boards are faint and empty cells the mover may
// play on are highlighted. termenv.Ascii yields the plain grid of Board.String
// (without the info line).
func Render(b Board, p termenv.Profile) string {
	builder := strings.Builder{}
	playable := b.playableMask()

	for group := range 3 {
		for r := range 3 {
			for c := range 3 {
				sub := 3*group + c
				if c > 0 {
					builder.WriteString("  ")
				}
				for k := range 3 {
					if k > 0 {
						builder.WriteByte(' ')
					}
					cell := 3*r + k
					builder.WriteString(renderCell(b, sub, cell, playable, p))
				}
			}
			builder.WriteByte('\n')
		}
		if group != 2 {
			builder.WriteByte('\n')
		}
	}

	to := "any board"
	if b.index != AnyBoard {
		to = fmt.Sprintf("board %d", b.index)
	}
	switch b.winner {
	case Undetermined:
		fmt.Fprintf(&builder, "%s to move on %s\n", b.turn, to)
	case Draw:
		builder.WriteString("game drawn\n")
	default:
		fmt.Fprintf(&builder, "%s won\n", b.winner)
	}
	return builder.String()
}

// Sub-boards the side to move may play on
func (b Board) playableMask() uint16 {
	if b.winner != Undetermined {
		return 0
	}
	if b.index != AnyBoard {
		return 1 << b.index
	}
	return filled ^ b.decided()
}

func renderCell(b Board, sub, cell int, playable uint16, p termenv.Profile) string {
	s := b.subs[sub]
	style := p.String(string(s.cellChar(cell)))

	switch s.At(cell) {
	case X:
		style = style.Foreground(p.Color(colorX)).Bold()
	case O:
		style = style.Foreground(p.Color(colorO)).Bold()
	default:
		if playable&(1<<sub) != 0 {
			style = style.Foreground(p.Color(colorPlayable))
		}
	}

	if b.decided()&(1<<sub) != 0 {
		style = style.Faint()
	}
	return style.String()
}
