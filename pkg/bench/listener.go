package bench

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Receives arena progress. Methods are called concurrently by the workers.
type ListenerLike interface {
	OnMoveMade(info VersusWorkerInfo)
	OnFinishedGame(info VersusWorkerInfo)
	OnFinishedWork(info VersusWorkerInfo)
	Summary(info VersusSummaryInfo)
}

type DefaultListener struct{}

func (DefaultListener) OnMoveMade(VersusWorkerInfo)     {}
func (DefaultListener) OnFinishedGame(VersusWorkerInfo) {}
func (DefaultListener) OnFinishedWork(VersusWorkerInfo) {}
func (DefaultListener) Summary(VersusSummaryInfo)       {}

// Logs finished games and the summary, moves at trace level
type LogListener struct {
	Logger zerolog.Logger
}

func NewLogListener() *LogListener {
	return &LogListener{Logger: log.With().Str("component", "arena").Logger()}
}

func (l *LogListener) OnMoveMade(info VersusWorkerInfo) {
	l.Logger.Trace().
		Int("worker", info.WorkerID).
		Int("ply", info.GameMoveNum).
		Stringer("move", info.Moves[len(info.Moves)-1]).
		Msg("move")
}

func (l *LogListener) OnFinishedGame(info VersusWorkerInfo) {
	l.Logger.Info().
		Int("worker", info.WorkerID).
		Int("game", info.FinishedGames).
		Int("of", info.NGames).
		Int("moves", info.GameMoveNum).
		Stringer("winner", info.Result).
		Str("board", info.Board.Compact()).
		Msg("game finished")
}

func (l *LogListener) OnFinishedWork(info VersusWorkerInfo) {
	l.Logger.Debug().Int("worker", info.WorkerID).Int("games", info.FinishedGames).Msg("worker done")
}

func (l *LogListener) Summary(info VersusSummaryInfo) {
	l.Logger.Info().
		Str("player1", info.P1Name).
		Str("player2", info.P2Name).
		Int("games", info.TotalGames).
		Int("player1_wins", info.P1Wins).
		Int("player2_wins", info.P2Wins).
		Int("draws", info.Draws).
		Int("first_to_move_wins", info.FirstToMoveWins).
		Msg("arena summary")
}
