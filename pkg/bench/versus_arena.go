package bench

import (
	"context"
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"golang.org/x/sync/errgroup"
)

/*
Arena benchmark subpackage, plays a series of games between two engine
configurations and counts the results.
*/

// One side of the arena. Every game gets fresh engines from 'New'.
type Player struct {
	Name string
	New  func() search.Engine
	// Thinking time per move, 0 uses the engine's fixed budget
	MoveTime time.Duration
	// Ponder while the opponent thinks
	Ponder bool
}

func (p *Player) move(e search.Engine, b board.Board) board.Move {
	if p.MoveTime > 0 {
		return e.NextMoveWithTime(b, p.MoveTime)
	}
	return e.NextMove(b)
}

type VersusArena struct {
	VersusArenaStats
	Player1  Player
	Player2  Player
	NGames   int
	NThreads int
	Position board.Board
	ctx      context.Context
}

func NewVersusArena(p1, p2 Player) *VersusArena {
	return &VersusArena{
		Player1:  p1,
		Player2:  p2,
		NGames:   100,
		NThreads: 2,
		Position: board.New(),
		ctx:      context.Background(),
	}
}

func (va *VersusArena) WithContext(ctx context.Context) *VersusArena {
	va.ctx = ctx
	return va
}

func (va *VersusArena) Setup(nGames, nThreads int) *VersusArena {
	va.NGames = max(nGames, 0)
	va.NThreads = max(nThreads, 1)
	return va
}

// Plays all games, split evenly between the workers, and blocks until they
// finish or the context is cancelled. Game 'i' is started by player 1 when
// 'i' is even, so both players get the first move equally often.
func (va *VersusArena) Run(listener ListenerLike) (VersusSummaryInfo, error) {
	if listener == nil {
		listener = DefaultListener{}
	}

	g, ctx := errgroup.WithContext(va.ctx)
	workers := max(min(va.NThreads, va.NGames), 1)
	for id := range workers {
		g.Go(func() error {
			return va.worker(ctx, id, workers, listener)
		})
	}
	err := g.Wait()

	summary := VersusSummaryInfo{
		TotalGames:       va.Total(),
		P1Wins:           va.P1Wins(),
		P2Wins:           va.P2Wins(),
		FirstToMoveWins:  va.FirstToMoveWins(),
		SecondToMoveWins: va.SecondToMoveWins(),
		Draws:            va.Draws(),
		Workers:          workers,
		P1Name:           va.Player1.Name,
		P2Name:           va.Player2.Name,
	}
	listener.Summary(summary)
	return summary, err
}

// Worker 'id' plays games id, id+workers, ...
func (va *VersusArena) worker(ctx context.Context, id, workers int, listener ListenerLike) error {
	nGames := (va.NGames - id + workers - 1) / workers
	finished := 0

	for game := id; game < va.NGames; game += workers {
		p1First := game%2 == 0
		if _, err := va.playGame(ctx, id, nGames, finished, p1First, listener); err != nil {
			return err
		}
		finished++
	}

	listener.OnFinishedWork(VersusWorkerInfo{
		WorkerID:      id,
		NGames:        nGames,
		FinishedGames: finished,
		P1Name:        va.Player1.Name,
		P2Name:        va.Player2.Name,
	})
	return nil
}

func (va *VersusArena) playGame(ctx context.Context, workerID, nGames, finished int, p1First bool, listener ListenerLike) (VersusMatchResult, error) {
	players := [2]*Player{&va.Player1, &va.Player2}
	if !p1First {
		players[0], players[1] = players[1], players[0]
	}
	engines := [2]search.Engine{players[0].New(), players[1].New()}
	defer engines[0].StopPondering()
	defer engines[1].StopPondering()

	pos := va.Position
	moves := make([]board.Move, 0, board.NumMoves)
	info := VersusWorkerInfo{
		WorkerID:      workerID,
		NGames:        nGames,
		FinishedGames: finished,
		P1Name:        va.Player1.Name,
		P2Name:        va.Player2.Name,
	}

	for turn := 0; !pos.IsTerminal(); turn ^= 1 {
		if err := ctx.Err(); err != nil {
			return VersusDraw, err
		}

		m := players[turn].move(engines[turn], pos)
		pos = pos.Move(m)
		moves = append(moves, m)
		if players[turn].Ponder && !pos.IsTerminal() {
			engines[turn].Ponder()
		}

		info.Moves, info.GameMoveNum, info.Board = moves, len(moves), pos
		listener.OnMoveMade(info)
	}

	outcome := computeOutcome(pos, va.Position.Turn())
	result := toAgentResult(outcome, p1First)
	va.record(result, outcome)

	info.Result = result
	info.FinishedGames = finished + 1
	listener.OnFinishedGame(info)
	return result, nil
}
