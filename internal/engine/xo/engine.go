package xo

import (
	"errors"
	"fmt"

	"github.com/DoyleJ11/moodplay-backend/internal/engine/dice"
)

var ErrOutOfBounds = errors.New("square out of bounds")
var ErrOccupied = errors.New("square occupied")
var ErrWrongTurn = errors.New("invalid turn")
var ErrGameAlreadyCompleted = errors.New("game already completed")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Mark string

const (
	Empty Mark = ""
	X     Mark = "X"
	O     Mark = "O"
)

const (
	UserMark     = X
	ComputerMark = O
)

func (m Mark) Other() Mark {
	if m == X {
		return O
	}
	return X
}

// Board is row-major, index 0 top-left.
type Board [9]Mark

var lines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// columns
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diagonals
	{0, 4, 8}, {2, 4, 6},
}

// Winner returns the mark of the first completed line, or Empty.
func Winner(b Board) Mark {
	for _, ln := range lines {
		a := b[ln[0]]
		if a != Empty && a == b[ln[1]] && a == b[ln[2]] {
			return a
		}
	}
	return Empty
}

func Full(b Board) bool {
	for _, m := range b {
		if m == Empty {
			return false
		}
	}
	return true
}

func EmptySquares(b Board) []int {
	var out []int
	for i, m := range b {
		if m == Empty {
			out = append(out, i)
		}
	}
	return out
}

// RandomMove picks a uniformly random empty square. ok is false on a full board.
func RandomMove(b Board, src dice.Source) (int, bool) {
	free := EmptySquares(b)
	if len(free) == 0 {
		return 0, false
	}
	if src == nil {
		src = dice.Default
	}
	return free[src.Intn(len(free))], true
}

type State struct {
	Board  Board `json:"board"`
	Turn   Mark  `json:"turn"`
	Winner Mark  `json:"winner"`
	Draw   bool  `json:"draw"`
}

func NewState() State {
	return State{Turn: UserMark}
}

func (s State) Over() bool { return s.Winner != Empty || s.Draw }

type CommandType string

const (
	CmdPlace CommandType = "Place"
	CmdReset CommandType = "Reset"
)

type Command struct {
	Type  CommandType
	Mark  Mark
	Index int
}

type EventType string

const (
	EvtMarkPlaced EventType = "MarkPlaced"
	EvtTurnPassed EventType = "TurnPassed"
	EvtGameWon    EventType = "GameWon"
	EvtGameDrawn  EventType = "GameDrawn"
	EvtGameReset  EventType = "GameReset"
)

type Event struct {
	Type  EventType
	Mark  Mark
	Index int
}

func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdReset:
		return []Event{{Type: EvtGameReset}}, NewState(), nil

	case CmdPlace:
		if s.Over() {
			return nil, s, ErrGameAlreadyCompleted
		}
		if cmd.Mark != s.Turn {
			return nil, s, ErrWrongTurn
		}
		if cmd.Index < 0 || cmd.Index >= len(s.Board) {
			return nil, s, ErrOutOfBounds
		}
		if s.Board[cmd.Index] != Empty {
			return nil, s, ErrOccupied
		}

		newState := s
		newState.Board[cmd.Index] = cmd.Mark
		events := []Event{{Type: EvtMarkPlaced, Mark: cmd.Mark, Index: cmd.Index}}

		if w := Winner(newState.Board); w != Empty {
			newState.Winner = w
			return append(events, Event{Type: EvtGameWon, Mark: w}), newState, nil
		}
		if Full(newState.Board) {
			newState.Draw = true
			return append(events, Event{Type: EvtGameDrawn}), newState, nil
		}

		newState.Turn = cmd.Mark.Other()
		return append(events, Event{Type: EvtTurnPassed, Mark: newState.Turn}), newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// MarshalJSON renders an empty square as null.
func (m Mark) MarshalJSON() ([]byte, error) {
	if m == Empty {
		return []byte("null"), nil
	}
	return []byte(`"` + string(m) + `"`), nil
}

func (m *Mark) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null", `""`:
		*m = Empty
	case `"X"`:
		*m = X
	case `"O"`:
		*m = O
	default:
		return fmt.Errorf("invalid mark %s", data)
	}
	return nil
}
