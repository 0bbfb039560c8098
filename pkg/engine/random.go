package engine

import (
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"golang.org/x/exp/rand"
)

// Plays a uniformly random legal move, a baseline for the other engines
type Random struct {
	rand *rand.Rand
}

var _ search.Engine = (*Random)(nil)

func NewRandom(seed int64) *Random {
	return &Random{rand: search.NewRand(seed)}
}

func (r *Random) NextMove(b board.Board) board.Move {
	search.MustHaveMoves("random", b)
	var ml board.MoveList
	b.GenerateMoves(&ml)
	return ml.At(r.rand.Intn(ml.Size()))
}

func (r *Random) NextMoveWithTime(b board.Board, _ time.Duration) board.Move {
	return r.NextMove(b)
}

func (r *Random) Trace() string {
	return "no trace"
}

func (r *Random) MovePredictions() []board.Move {
	return nil
}

func (r *Random) Ponder()        {}
func (r *Random) StopPondering() {}
