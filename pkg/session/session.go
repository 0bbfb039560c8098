package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/IlikeChooros/go-uttt/pkg/board"
	"github.com/IlikeChooros/go-uttt/pkg/engine"
	"github.com/IlikeChooros/go-uttt/pkg/search"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type State int

const (
	StateStart State = iota
	StateChooseAlgo
	StateChooseTime
	StateChooseSide
	StateHumanTurn
	StateAlgoTurn
	StateGameFinished
)

func (s State) String() string {
	return [...]string{"START", "CHOOSE_ALGO", "CHOOSE_TIME", "CHOOSE_SIDE", "HUMAN_TURN", "ALGO_TURN", "GAME_FINISHED"}[s]
}

const (
	MinThinkSeconds = 1
	MaxThinkSeconds = 5
)

type choice struct {
	engine string
	label  string
}

// Menu order of the engines, weakest first
var choices = []choice{
	{"sarsa", "Sarsa (easy)"},
	{"qlearning", "Q-learning (medium)"},
	{"mcts", "Monte-Carlo Tree Search (hard)"},
	{"parallel-mcts", "Parallel Monte-Carlo Tree Search (hard)"},
	{"pvs", "Principal variation search (extreme)"},
	{"random", "Random mover (trivial)"},
}

var (
	welcomeMessage = "Welcome! Play a game of ultimate tic-tac-toe against one of the engines.\n" +
		"Choose your opponent:\n" +
		strings.Join(lo.Map(choices, func(c choice, i int) string {
			return fmt.Sprintf("  %d. %s", i+1, c.label)
		}), "\n") +
		fmt.Sprintf("\nYour choice (1-%d):", len(choices))
	invalidAlgoMessage = fmt.Sprintf("Invalid choice, please indicate again (1-%d):", len(choices))
	chooseTimeMessage  = fmt.Sprintf("How many seconds may the engine think per move? (%d-%d):", MinThinkSeconds, MaxThinkSeconds)
	invalidTimeMessage = fmt.Sprintf("Invalid time, please indicate again (%d-%d):", MinThinkSeconds, MaxThinkSeconds)
)

const (
	chooseSideMessage  = "Which side do you play? X moves first (X/O):"
	invalidSideMessage = "Invalid side, please indicate again (X/O):"
	turnPrompt         = "\nYour move, as R, C:"
	finishedMessage    = "\nSend 'new' to play again."
)

// One human-versus-engine game driven by text input. Not safe for
// concurrent use, the Store serializes access.
type Session struct {
	state  State
	config engine.Config
	engine search.Engine
	think  time.Duration
	human  board.Side
	board  board.Board
}

// 'config' is the base engine configuration, the menu picks the engine name
func New(config engine.Config) *Session {
	return &Session{config: config, board: board.New()}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Board() board.Board {
	return s.board
}

// Advances the state machine by one input and returns the text to show
func (s *Session) Respond(input string) string {
	input = strings.TrimSpace(input)
	switch s.state {
	case StateStart:
		return s.start()
	case StateChooseAlgo:
		return s.chooseAlgo(input)
	case StateChooseTime:
		return s.chooseTime(input)
	case StateChooseSide:
		return s.chooseSide(input)
	case StateHumanTurn:
		return s.humanTurn(input)
	case StateAlgoTurn:
		return s.algoTurn()
	case StateGameFinished:
		if strings.EqualFold(input, "new") {
			return s.start()
		}
		return s.judge()
	}
	panic(fmt.Sprintf("session: invalid state %d", s.state))
}

func (s *Session) start() string {
	s.Close()
	s.engine = nil
	s.board = board.New()
	s.state = StateChooseAlgo
	return welcomeMessage
}

func (s *Session) chooseAlgo(input string) string {
	i, err := strconv.Atoi(input)
	if err != nil || i < 1 || i > len(choices) {
		return invalidAlgoMessage
	}

	cfg := s.config
	cfg.Engine = choices[i-1].engine
	e, err := engine.New(cfg)
	if err != nil {
		log.Error().Err(err).Str("engine", cfg.Engine).Msg("session: cannot create engine")
		return invalidAlgoMessage
	}

	s.engine = e
	s.state = StateChooseTime
	return chooseTimeMessage
}

func (s *Session) chooseTime(input string) string {
	seconds, err := strconv.Atoi(input)
	if err != nil || seconds < MinThinkSeconds || seconds > MaxThinkSeconds {
		return invalidTimeMessage
	}

	s.think = time.Duration(seconds) * time.Second
	s.state = StateChooseSide
	return chooseSideMessage
}

func (s *Session) chooseSide(input string) string {
	switch strings.ToUpper(input) {
	case "X":
		s.human = board.X
		s.state = StateHumanTurn
		return s.boardInfo() + turnPrompt
	case "O":
		s.human = board.O
		s.state = StateAlgoTurn
		return s.boardInfo()
	}
	return invalidSideMessage
}

func (s *Session) humanTurn(input string) string {
	m, err := board.ParseMove(input)
	if err != nil {
		return err.Error() + turnPrompt
	}
	if !s.board.IsLegal(m) {
		return fmt.Sprintf("Move %v is not legal here.", m) + turnPrompt
	}

	s.board = s.board.Move(m)
	if s.board.IsTerminal() {
		return s.judge()
	}
	s.state = StateAlgoTurn
	return s.boardInfo()
}

func (s *Session) algoTurn() string {
	m := s.engine.NextMoveWithTime(s.board, s.think)
	s.board = s.board.Move(m)
	log.Debug().Stringer("move", m).Str("board", s.board.Compact()).Msg("session: engine moved")

	if s.board.IsTerminal() {
		return s.judge()
	}

	s.engine.Ponder()
	s.state = StateHumanTurn
	return fmt.Sprintf("Engine played %v\n", m) + s.boardInfo() + turnPrompt
}

func (s *Session) judge() string {
	s.Close()
	s.state = StateGameFinished

	var result string
	switch s.board.Winner() {
	case board.Draw:
		result = "The game is drawn."
	case s.human:
		result = "You won!"
	default:
		result = "The engine won."
	}
	return s.boardInfo() + "\n" + result + finishedMessage
}

func (s *Session) boardInfo() string {
	return board.Render(s.board, termenv.Ascii)
}

// Stops the engine's background work
func (s *Session) Close() {
	if s.engine != nil {
		s.engine.StopPondering()
	}
}
