package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Two board text forms are supported.
//
// Compact, a single line, each sub-board as decimal 'Xbits,Obits', followed by
// the forced sub-board index (9 means any) and the turn (0 for X, 1 for O):
//
//	4,0 0,0 0,128 0,0 16,1 0,0 0,0 0,0 0,0 7,0
//
// Grid, three groups of three rows separated by blank lines, sub-boards in a row
// separated by two spaces, then the same 'index,turn' line:
//
//	- - X  - - -  - - -
//	- - -  - - -  - - -
//	- - -  - - -  - O -
//
//	- - -  O - -  - - -
//	- - -  - X -  - - -
//	- - -  - - -  - - -
//
//	- - -  - - -  - - -
//	- - -  - - -  - - -
//	- - -  - - -  - - -
//
//	7,0

// Compact single-line form of the board
func (b Board) Compact() string {
	builder := strings.Builder{}
	for _, sub := range b.subs {
		fmt.Fprintf(&builder, "%d,%d ", sub.X(), sub.O())
	}
	builder.WriteString(b.infoString())
	return builder.String()
}

// Multi-line grid form of the board, parsed back by ParseGrid
func (b Board) String() string {
	builder := strings.Builder{}
	for group := range 3 {
		for r := range 3 {
			builder.WriteString(b.subs[3*group].row(r))
			builder.WriteString("  ")
			builder.WriteString(b.subs[3*group+1].row(r))
			builder.WriteString("  ")
			builder.WriteString(b.subs[3*group+2].row(r))
			builder.WriteByte('\n')
		}
		builder.WriteByte('\n')
	}
	builder.WriteString(b.infoString())
	return builder.String()
}

func (b Board) infoString() string {
	turn := 0
	if b.turn == O {
		turn = 1
	}
	return fmt.Sprintf("%d,%d", b.index, turn)
}

// Parse the compact form, see Board.Compact
func ParseCompact(s string) (Board, error) {
	fields := strings.Fields(s)
	if len(fields) != 10 {
		return Board{}, formatErrorf(s, "expected 10 fields, got %d", len(fields))
	}

	var subs [9]SubBoard
	for i := range 9 {
		sub, err := parseCompactSub(fields[i])
		if err != nil {
			return Board{}, errors.Wrapf(err, "sub-board %d", i)
		}
		subs[i] = sub
	}

	index, turn, err := parseInfo(fields[9])
	if err != nil {
		return Board{}, err
	}
	return FromSubBoards(subs, index, turn), nil
}

func parseCompactSub(field string) (SubBoard, error) {
	parts := strings.Split(field, ",")
	if len(parts) != 2 {
		return 0, formatErrorf(field, "expected 'Xbits,Obits'")
	}

	var masks [2]uint16
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return 0, formatErrorf(field, "%q is not a valid number", part)
		}
		if v > uint64(filled) {
			return 0, formatErrorf(field, "bitmask %d out of range 0-%d", v, filled)
		}
		masks[i] = uint16(v)
	}

	if masks[0]&masks[1] != 0 {
		return 0, formatErrorf(field, "X and O share cells %09b", masks[0]&masks[1])
	}
	return NewSubBoard(masks[0], masks[1]), nil
}

func parseInfo(field string) (int, Side, error) {
	field = strings.TrimSpace(field)
	parts := strings.Split(field, ",")
	if len(parts) != 2 {
		return 0, X, formatErrorf(field, "expected 'boardIndex,turn'")
	}

	index, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, X, formatErrorf(field, "board index %q is not a number", parts[0])
	}
	turn, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, X, formatErrorf(field, "turn %q is not a number", parts[1])
	}

	if index < 0 || index > AnyBoard {
		return 0, X, formatErrorf(field, "board index %d outside 0-%d", index, AnyBoard)
	}
	switch turn {
	case 0:
		return index, X, nil
	case 1:
		return index, O, nil
	}
	return 0, X, formatErrorf(field, "turn %d is neither 0 nor 1", turn)
}

// Parse the grid form, see Board.String
func ParseGrid(s string) (Board, error) {
	text := strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	groups := strings.Split(text, "\n\n")
	if len(groups) != 4 {
		return Board{}, formatErrorf(s, "expected 4 blank-line separated blocks, got %d", len(groups))
	}

	var x, o [9]uint16
	for group := range 3 {
		lines := strings.Split(groups[group], "\n")
		if len(lines) != 3 {
			return Board{}, errors.Wrapf(
				formatErrorf(groups[group], "expected 3 lines, got %d", len(lines)),
				"group %d", group)
		}

		for r, line := range lines {
			cols := strings.Split(strings.TrimRight(line, " \t"), "  ")
			if len(cols) != 3 {
				return Board{}, errors.Wrapf(
					formatErrorf(line, "expected 3 sub-boards separated by two spaces, got %d", len(cols)),
					"group %d", group)
			}

			for c, col := range cols {
				sub := 3*group + c
				xRow, oRow, err := parseGridRow(col)
				if err != nil {
					return Board{}, errors.Wrapf(err, "sub-board %d", sub)
				}
				x[sub] |= xRow << (3 * r)
				o[sub] |= oRow << (3 * r)
			}
		}
	}

	index, turn, err := parseInfo(groups[3])
	if err != nil {
		return Board{}, err
	}

	var subs [9]SubBoard
	for i := range subs {
		subs[i] = NewSubBoard(x[i], o[i])
	}
	return FromSubBoards(subs, index, turn), nil
}

// Parses "X - O" into the row bits of each side
func parseGridRow(row string) (x, o uint16, err error) {
	cells := strings.Split(row, " ")
	if len(cells) != 3 {
		return 0, 0, formatErrorf(row, "expected 3 cells, got %d", len(cells))
	}

	for i, cell := range cells {
		switch cell {
		case "X":
			x |= 1 << i
		case "O":
			o |= 1 << i
		case "-":
		default:
			return 0, 0, formatErrorf(row, "invalid cell %q", cell)
		}
	}
	return x, o, nil
}

// Parses either the compact or the grid form, depending on the number of lines
func Parse(s string) (Board, error) {
	if strings.Contains(strings.TrimSpace(s), "\n") {
		return ParseGrid(s)
	}
	return ParseCompact(s)
}
