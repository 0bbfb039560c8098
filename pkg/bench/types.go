package bench

import (
	"sync/atomic"

	"github.com/IlikeChooros/go-uttt/pkg/board"
)

type VersusMatchResult int

const (
	VersusPl1Win VersusMatchResult = 1
	VersusPl2Win VersusMatchResult = -1
	VersusDraw   VersusMatchResult = 0
)

func (r VersusMatchResult) String() string {
	switch r {
	case VersusPl1Win:
		return "player1"
	case VersusPl2Win:
		return "player2"
	}
	return "draw"
}

// Counters shared by the arena workers
type VersusArenaStats struct {
	p1Wins           atomic.Uint32
	p2Wins           atomic.Uint32
	draws            atomic.Uint32
	firstToMoveWins  atomic.Uint32
	secondToMoveWins atomic.Uint32
}

func (vas *VersusArenaStats) Total() int {
	return vas.P1Wins() + vas.P2Wins() + vas.Draws()
}

func (vas *VersusArenaStats) P1Wins() int {
	return int(vas.p1Wins.Load())
}

func (vas *VersusArenaStats) P2Wins() int {
	return int(vas.p2Wins.Load())
}

func (vas *VersusArenaStats) Draws() int {
	return int(vas.draws.Load())
}

func (vas *VersusArenaStats) FirstToMoveWins() int {
	return int(vas.firstToMoveWins.Load())
}

func (vas *VersusArenaStats) SecondToMoveWins() int {
	return int(vas.secondToMoveWins.Load())
}

func (vas *VersusArenaStats) record(result VersusMatchResult, outcome GameOutcome) {
	switch result {
	case VersusDraw:
		vas.draws.Add(1)
		return
	case VersusPl1Win:
		vas.p1Wins.Add(1)
	case VersusPl2Win:
		vas.p2Wins.Add(1)
	}

	if outcome.FirstPlayerWon {
		vas.firstToMoveWins.Add(1)
	} else {
		vas.secondToMoveWins.Add(1)
	}
}

type VersusWorkerInfo struct {
	WorkerID      int
	NGames        int
	FinishedGames int
	GameMoveNum   int
	Moves         []board.Move
	Board         board.Board
	Result        VersusMatchResult
	P1Name        string
	P2Name        string
}

type VersusSummaryInfo struct {
	TotalGames       int    `json:"total_games"`
	P1Wins           int    `json:"player1_wins"`
	P2Wins           int    `json:"player2_wins"`
	FirstToMoveWins  int    `json:"first_to_move_wins"`
	SecondToMoveWins int    `json:"second_to_move_wins"`
	Draws            int    `json:"draws"`
	Workers          int    `json:"workers"`
	P1Name           string `json:"player1_name"`
	P2Name           string `json:"player2_name"`
}

// represents result from the first-player's perspective in a single game
type GameOutcome struct {
	FirstPlayerWon bool
	IsDraw         bool
}

// maps a game outcome to which agent won, given player assignments
func toAgentResult(outcome GameOutcome, p1WentFirst bool) VersusMatchResult {
	if outcome.IsDraw {
		return VersusDraw
	}

	if p1WentFirst == outcome.FirstPlayerWon {
		return VersusPl1Win
	}
	return VersusPl2Win
}

// determines the winner of a finished game started by 'firstMover'
func computeOutcome(final board.Board, firstMover board.Side) GameOutcome {
	if !final.IsTerminal() {
		panic("computeOutcome: position not terminated")
	}

	if final.Winner() == board.Draw {
		return GameOutcome{IsDraw: true}
	}
	return GameOutcome{FirstPlayerWon: final.Winner() == firstMover}
}
