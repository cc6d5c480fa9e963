package snakes

import (
	"errors"
	"fmt"
)

var ErrInvalidPosition = errors.New("position out of range")
var ErrInvalidRoll = errors.New("roll out of range")
var ErrWrongTurn = errors.New("invalid turn")
var ErrRollInProgress = errors.New("roll already in progress")
var ErrNoRollInProgress = errors.New("no roll in progress")
var ErrGameAlreadyCompleted = errors.New("game already completed")
var ErrUnsupportedCommand = errors.New("unsupported command")

const logSize = 10

type Player string

const (
	PlayerNone     Player = ""
	PlayerUser     Player = "user"
	PlayerComputer Player = "computer"
)

func (p Player) Other() Player {
	if p == PlayerUser {
		return PlayerComputer
	}
	return PlayerUser
}

func (p Player) label() string {
	if p == PlayerUser {
		return "You"
	}
	return "Computer"
}

// object is the player as the object of a sentence.
func (p Player) object() string {
	if p == PlayerUser {
		return "you"
	}
	return "the computer"
}

// Move is the outcome of a single roll.
type Move struct {
	From      int
	Roll      int
	Landed    int // square reached before any shortcut
	To        int
	Shortcut  ShortcutKind
	Overshoot bool
}

// Advance resolves one roll from position. An overshoot past BoardSize leaves
// the piece where it is.
func Advance(position, roll int) (Move, error) {
	if position < StartSquare || position > BoardSize {
		return Move{}, fmt.Errorf("%w: %d", ErrInvalidPosition, position)
	}
	if roll < 1 || roll > 6 {
		return Move{}, fmt.Errorf("%w: %d", ErrInvalidRoll, roll)
	}

	m := Move{From: position, Roll: roll}
	if position+roll > BoardSize {
		m.Landed = position
		m.To = position
		m.Overshoot = true
		return m, nil
	}

	m.Landed = position + roll
	m.To, m.Shortcut = ShortcutAt(m.Landed)
	return m, nil
}

type State struct {
	User      int      `json:"user_position"`
	Computer  int      `json:"computer_position"`
	Active    Player   `json:"active_player"`
	Rolling   bool     `json:"roll_in_progress"`
	Winner    Player   `json:"winner"`
	DiceValue int      `json:"dice_value"`
	Log       []string `json:"log"` // newest first
}

func (s State) Position(p Player) int {
	if p == PlayerComputer {
		return s.Computer
	}
	return s.User
}

func (s State) Over() bool { return s.Winner != PlayerNone }

type CommandType string

const (
	CmdStartRoll   CommandType = "StartRoll"
	CmdDiceTick    CommandType = "DiceTick"
	CmdResolveRoll CommandType = "ResolveRoll"
	CmdReset       CommandType = "Reset"
)

/*
	CmdStartRoll   -> EvtRollStarted
	CmdDiceTick    -> EvtDiceTicked
	CmdResolveRoll -> EvtPieceMoved [-> EvtShortcutTaken] -> EvtTurnPassed | EvtGameWon
	               -> EvtOvershoot -> EvtTurnPassed
	CmdReset       -> EvtGameReset
*/

type Command struct {
	Type   CommandType
	Player Player
	Roll   int
}

type EventType string

const (
	EvtRollStarted   EventType = "RollStarted"
	EvtDiceTicked    EventType = "DiceTicked"
	EvtPieceMoved    EventType = "PieceMoved"
	EvtShortcutTaken EventType = "ShortcutTaken"
	EvtOvershoot     EventType = "Overshoot"
	EvtTurnPassed    EventType = "TurnPassed"
	EvtGameWon       EventType = "GameWon"
	EvtGameReset     EventType = "GameReset"
)

type Event struct {
	Type   EventType
	Player Player
	Move   Move
}

func Apply(s State, cmd Command) ([]Event, State, error) {
	if cmd.Type == CmdReset {
		return []Event{{Type: EvtGameReset}}, NewState("Game reset! Your turn."), nil
	}

	if s.Over() {
		return nil, s, ErrGameAlreadyCompleted
	}

	newState := s
	newState.Log = append([]string(nil), s.Log...)

	switch cmd.Type {
	case CmdStartRoll:
		if cmd.Player != s.Active {
			return nil, s, ErrWrongTurn
		}
		if s.Rolling {
			return nil, s, ErrRollInProgress
		}
		newState.Rolling = true
		return []Event{{Type: EvtRollStarted, Player: cmd.Player}}, newState, nil

	case CmdDiceTick:
		if !s.Rolling {
			return nil, s, ErrNoRollInProgress
		}
		if cmd.Roll < 1 || cmd.Roll > 6 {
			return nil, s, fmt.Errorf("%w: %d", ErrInvalidRoll, cmd.Roll)
		}
		newState.DiceValue = cmd.Roll
		return []Event{{Type: EvtDiceTicked, Player: s.Active}}, newState, nil

	case CmdResolveRoll:
		if cmd.Player != s.Active {
			return nil, s, ErrWrongTurn
		}
		if !s.Rolling {
			return nil, s, ErrNoRollInProgress
		}

		move, err := Advance(s.Position(cmd.Player), cmd.Roll)
		if err != nil {
			return nil, s, err
		}

		newState.Rolling = false
		newState.DiceValue = cmd.Roll
		newState.setPosition(cmd.Player, move.To)

		var events []Event
		if move.Overshoot {
			newState.log(fmt.Sprintf("%s rolled a %d but need to land exactly on %d to win.", cmd.Player.label(), cmd.Roll, BoardSize))
			events = append(events, Event{Type: EvtOvershoot, Player: cmd.Player, Move: move})
		} else {
			newState.log(fmt.Sprintf("%s rolled a %d and moved from %d to %d.", cmd.Player.label(), cmd.Roll, move.From, move.Landed))
			events = append(events, Event{Type: EvtPieceMoved, Player: cmd.Player, Move: move})
			if move.Shortcut != ShortcutNone {
				newState.log(fmt.Sprintf("Woah! A %s took %s from %d to %d.", move.Shortcut, cmd.Player.object(), move.Landed, move.To))
				events = append(events, Event{Type: EvtShortcutTaken, Player: cmd.Player, Move: move})
			}
		}

		if move.To == BoardSize {
			newState.Winner = cmd.Player
			newState.log(fmt.Sprintf("%s reached %d!", cmd.Player.label(), BoardSize))
			events = append(events, Event{Type: EvtGameWon, Player: cmd.Player, Move: move})
			return events, newState, nil
		}

		newState.Active = cmd.Player.Other()
		events = append(events, Event{Type: EvtTurnPassed, Player: newState.Active})
		return events, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func (s *State) setPosition(p Player, pos int) {
	if p == PlayerComputer {
		s.Computer = pos
		return
	}
	s.User = pos
}

func (s *State) log(line string) {
	s.Log = append([]string{line}, s.Log...)
	if len(s.Log) > logSize {
		s.Log = s.Log[:logSize]
	}
}
