package search

import (
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/board"
)

// Common move-selection contract of every search strategy.
// Engines are not safe for concurrent use, apart from their own background
// pondering, which every other method stops first.
type Engine interface {
	// Search with the engine's fixed budget, the board must not be terminal
	NextMove(b board.Board) board.Move
	// Search until the deadline passes, always returns a legal move
	NextMoveWithTime(b board.Board, d time.Duration) board.Move
	// Human-readable dump of the last search
	Trace() string
	// Predicted continuation from the last search, starting with the chosen move
	MovePredictions() []board.Move
	// Continue searching in the background from the position after the engine's last move
	Ponder()
	// Stop pondering, returns once the background workers have exited
	StopPondering()
}

// Panics if the board has no legal moves, used by engines on entry
func MustHaveMoves(engine string, b board.Board) {
	if b.IsTerminal() {
		panic(engine + ": search requested on a finished game " + b.Compact())
	}
}
