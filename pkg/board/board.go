package board

import (
	"fmt"
	"math/bits"
)

// Forced sub-board index meaning the mover may play on any unfinished sub-board
const AnyBoard = 9

// Immutable Ultimate Tic-Tac-Toe position. Boards are plain values,
// two boards with the same content compare equal and can be used as map keys.
type Board struct {
	subs   [9]SubBoard
	index  uint8 // forced sub-board or AnyBoard
	turn   Side
	xMeta  uint16 // sub-boards won by X
	oMeta  uint16 // sub-boards won by O
	dMeta  uint16 // drawn sub-boards
	winner Side
}

// Empty board, X to move anywhere
func New() Board {
	return Board{index: AnyBoard, turn: X}
}

// Builds a board from raw sub-boards, recomputing the meta masks and the winner.
// A forced index pointing at a decided sub-board is relaxed to AnyBoard.
func FromSubBoards(subs [9]SubBoard, index int, turn Side) Board {
	b := Board{subs: subs, index: uint8(index), turn: turn}
	for i, sub := range subs {
		b.setMeta(i, sub.Winner())
	}
	if b.index != AnyBoard && b.decided()&(1<<b.index) != 0 {
		b.index = AnyBoard
	}
	b.winner = b.metaWinner()
	return b
}

func (b *Board) setMeta(i int, side Side) {
	switch side {
	case X:
		b.xMeta |= 1 << i
	case O:
		b.oMeta |= 1 << i
	case Draw:
		b.dMeta |= 1 << i
	}
}

func (b *Board) decided() uint16 {
	return b.xMeta | b.oMeta | b.dMeta
}

func (b *Board) metaWinner() Side {
	switch {
	case wins[b.xMeta]:
		return X
	case wins[b.oMeta]:
		return O
	case b.decided() == filled:
		return Draw
	}
	return Undetermined
}

// Getters

func (b Board) Winner() Side {
	return b.winner
}

func (b Board) IsTerminal() bool {
	return b.winner != Undetermined
}

// Side to move, either X or O
func (b Board) Turn() Side {
	return b.turn
}

// Sub-board the mover is forced to play in, or AnyBoard
func (b Board) BoardIndex() int {
	return int(b.index)
}

func (b Board) SubBoard(i int) SubBoard {
	return b.subs[i]
}

// Returns the meta masks: sub-boards won by X, by O and drawn
func (b Board) Meta() (x, o, d uint16) {
	return b.xMeta, b.oMeta, b.dMeta
}

// Number of occupied cells on the whole board
func (b Board) Ply() int {
	n := 0
	for _, sub := range b.subs {
		n += sub.Count()
	}
	return n
}

// Whether 'm' can be played on this board
func (b Board) IsLegal(m Move) bool {
	if m >= NumMoves || b.winner != Undetermined {
		return false
	}
	sub, cell := m.Sub(), m.Cell()
	if b.index != AnyBoard && int(b.index) != sub {
		return false
	}
	if b.decided()&(1<<sub) != 0 {
		return false
	}
	return b.subs[sub].Free()&(1<<cell) != 0
}

// Returns the board after 'm' is played. The receiver is never modified.
// Playing an illegal move is a programming error and panics.
func (b Board) Move(m Move) Board {
	if !b.IsLegal(m) {
		panic(fmt.Sprintf("board: illegal move %d on %s", m, b.Compact()))
	}

	sub, cell := m.Sub(), m.Cell()
	b.subs[sub] = b.subs[sub].With(cell, b.turn)
	b.setMeta(sub, b.subs[sub].Winner())

	b.index = uint8(cell)
	if b.decided()&(1<<cell) != 0 {
		b.index = AnyBoard
	}
	b.turn = b.turn.Other()
	b.winner = b.metaWinner()
	return b
}

// Fills 'ml' with the legal moves, empty if the game is over
func (b Board) GenerateMoves(ml *MoveList) {
	ml.Clear()
	if b.winner != Undetermined {
		return
	}

	if b.index != AnyBoard {
		appendFree(ml, int(b.index), b.subs[b.index].Free())
		return
	}

	open := filled ^ b.decided()
	for open != 0 {
		sub := bits.TrailingZeros16(open)
		open &= open - 1
		appendFree(ml, sub, b.subs[sub].Free())
	}
}

func appendFree(ml *MoveList, sub int, free uint16) {
	for free != 0 {
		cell := bits.TrailingZeros16(free)
		free &= free - 1
		ml.Append(MoveAt(sub, cell))
	}
}

// Legal moves of this board in ascending order
func (b Board) Actions() []Move {
	var ml MoveList
	b.GenerateMoves(&ml)
	actions := make([]Move, ml.Size())
	copy(actions, ml.Slice())
	return actions
}
