package board

import "math/bits"

// Offset of the O cells in a sub-board
const oShift = 9

// One 3x3 grid, X cells in bits 0-8 and O cells in bits 9-17
type SubBoard uint32

func NewSubBoard(x, o uint16) SubBoard {
	return SubBoard(x&filled) | SubBoard(o&filled)<<oShift
}

// Cells occupied by X
func (s SubBoard) X() uint16 {
	return uint16(s) & filled
}

// Cells occupied by O
func (s SubBoard) O() uint16 {
	return uint16(s>>oShift) & filled
}

// Occupied cells of either side
func (s SubBoard) Occupied() uint16 {
	return s.X() | s.O()
}

// Mask of the empty cells
func (s SubBoard) Free() uint16 {
	return filled ^ s.Occupied()
}

// Number of occupied cells
func (s SubBoard) Count() int {
	return bits.OnesCount16(s.Occupied())
}

// Returns the owner of the cell, or Undetermined if the cell is empty
func (s SubBoard) At(cell int) Side {
	bit := uint16(1) << cell
	switch {
	case s.X()&bit != 0:
		return X
	case s.O()&bit != 0:
		return O
	}
	return Undetermined
}

// Returns a copy of this sub-board with 'side' placed on 'cell'
func (s SubBoard) With(cell int, side Side) SubBoard {
	if side == X {
		return s | SubBoard(1)<<cell
	}
	return s | SubBoard(1)<<(cell+oShift)
}

func (s SubBoard) Winner() Side {
	switch {
	case wins[s.X()]:
		return X
	case wins[s.O()]:
		return O
	case s.Occupied() == filled:
		return Draw
	}
	return Undetermined
}

// Heuristic value of an undecided sub-board, from X's perspective.
// An uncontested two-in-a-row is worth 0.1, otherwise the number of lines
// still open to each side decides a small tie-breaking score.
func (s SubBoard) evaluate() float64 {
	xs, os := s.X(), s.O()
	xNear := nearWin(xs, os)
	oNear := nearWin(os, xs)

	switch {
	case xNear && oNear:
		return 0
	case xNear:
		return 0.1
	case oNear:
		return -0.1
	}

	xOpen, oOpen := 0, 0
	for _, line := range winningLines {
		if line&xs == 0 {
			oOpen++
		}
		if line&os == 0 {
			xOpen++
		}
	}
	return float64(xOpen-oOpen) / 8 * 0.01
}

func nearWin(ours, theirs uint16) bool {
	for i, line := range nearLines {
		if ours&line == line && theirs&blockers[i] == 0 {
			return true
		}
	}
	return false
}

func (s SubBoard) cellChar(cell int) byte {
	switch s.At(cell) {
	case X:
		return 'X'
	case O:
		return 'O'
	}
	return '-'
}

// Text of a single row, like "X - O"
func (s SubBoard) row(r int) string {
	return string([]byte{
		s.cellChar(3 * r), ' ',
		s.cellChar(3*r + 1), ' ',
		s.cellChar(3*r + 2),
	})
}
