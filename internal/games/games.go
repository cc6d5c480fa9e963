// Package games adapts the pure turn engines to the session driver: it turns
// client actions into engine commands and asks for the deferred actions
// (dice animation, computer turns, card hiding) each move needs.
package games

import (
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/moodplay-backend/internal/engine/dice"
	"github.com/DoyleJ11/moodplay-backend/internal/session"
)

var ErrUnknownKind = errors.New("unknown game kind")
var ErrUnsupportedAction = errors.New("unsupported action")

const (
	KindSnakes session.Kind = "snakes"
	KindXO     session.Kind = "xo"
	KindMemory session.Kind = "memory"
)

// Kinds lists every playable game.
var Kinds = []session.Kind{KindXO, KindSnakes, KindMemory}

// Timer-only actions.
const (
	actionDiceTick      session.ActionType = "dice_tick"
	actionComputerRoll  session.ActionType = "computer_roll"
	actionComputerPlace session.ActionType = "computer_place"
	actionHideMismatch  session.ActionType = "hide_mismatch"
)

const (
	WinnerUser     = "user"
	WinnerComputer = "computer"
	WinnerDraw     = "draw"
)

type Timings struct {
	RollTick         time.Duration `env:"ROLL_TICK" envDefault:"50ms"`
	RollTicks        int           `env:"ROLL_TICKS" envDefault:"11"`
	ComputerRollWait time.Duration `env:"COMPUTER_ROLL_WAIT" envDefault:"1s"`
	ComputerMarkWait time.Duration `env:"COMPUTER_MARK_WAIT" envDefault:"500ms"`
	MismatchHide     time.Duration `env:"MISMATCH_HIDE" envDefault:"1s"`
}

func DefaultTimings() Timings {
	return Timings{
		RollTick:         50 * time.Millisecond,
		RollTicks:        11,
		ComputerRollWait: time.Second,
		ComputerMarkWait: 500 * time.Millisecond,
		MismatchHide:     time.Second,
	}
}

func ParseKind(s string) (session.Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// New builds a fresh game of the given kind. A nil src uses dice.Default.
func New(kind session.Kind, t Timings, src dice.Source) (session.Game, error) {
	if src == nil {
		src = dice.Default
	}
	switch kind {
	case KindSnakes:
		return NewSnakes(t, src), nil
	case KindXO:
		return NewXO(t, src), nil
	case KindMemory:
		return NewMemory(t, src), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
