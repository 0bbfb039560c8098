package board

import (
	"fmt"
	"strconv"
	"strings"
)

// A move is sub-board index * 9 + cell index, in range 0-80
type Move uint8

const (
	NumMoves      = 81
	NoMove   Move = 255
)

// Create a move, based on the sub-board and cell indexes
func MoveAt(sub, cell int) Move {
	return Move(sub*9 + cell)
}

// Index of the sub-board
func (m Move) Sub() int {
	return int(m) / 9
}

// Index of the cell inside the sub-board
func (m Move) Cell() int {
	return int(m) % 9
}

// Row on the 9x9 grid, 0-based
func (m Move) Row() int {
	return m.Sub()/3*3 + m.Cell()/3
}

// Column on the 9x9 grid, 0-based
func (m Move) Col() int {
	return m.Sub()%3*3 + m.Cell()%3
}

// Create a move from 0-based row and column on the 9x9 grid
func MoveFromRowCol(row, col int) Move {
	return MoveAt(row/3*3+col/3, row%3*3+col%3)
}

// Move notation "(R, C)", with 1-based global row and column
func (m Move) String() string {
	if m == NoMove {
		return "(none)"
	}
	return fmt.Sprintf("(%d, %d)", m.Row()+1, m.Col()+1)
}

// Parses "R, C" (parentheses optional) with 1-based row and column
func ParseMove(s string) (Move, error) {
	str := strings.TrimSpace(s)
	str = strings.TrimSuffix(strings.TrimPrefix(str, "("), ")")
	parts := strings.Split(str, ",")
	if len(parts) != 2 {
		return NoMove, formatErrorf(s, "expected move in the format R, C")
	}

	var coords [2]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return NoMove, formatErrorf(s, "%q is not a number", part)
		}
		if v < 1 || v > 9 {
			return NoMove, formatErrorf(s, "coordinate %d outside 1-9", v)
		}
		coords[i] = v - 1
	}
	return MoveFromRowCol(coords[0], coords[1]), nil
}

type MoveList struct {
	moves [NumMoves]Move
	size  uint8
}

// Reset the movelist, simply sets the size to 0
func (ml *MoveList) Clear() {
	ml.size = 0
}

// Get the actual slice of valid moves
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.size]
}

func (ml *MoveList) Size() int {
	return int(ml.size)
}

func (ml *MoveList) Append(m Move) {
	ml.moves[ml.size] = m
	ml.size++
}

func (ml *MoveList) At(i int) Move {
	return ml.moves[i]
}

// Convert movelist into a string, uses move notation with space seperation
func (ml *MoveList) String() string {
	if ml.size == 0 {
		return "empty"
	}

	strMoves := make([]string, ml.size)
	for i, m := range ml.Slice() {
		strMoves[i] = m.String()
	}
	return strings.Join(strMoves, " ")
}
