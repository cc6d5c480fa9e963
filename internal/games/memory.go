package games

import (
	"fmt"

	"github.com/DoyleJ11/moodplay-backend/internal/engine/dice"
	"github.com/DoyleJ11/moodplay-backend/internal/engine/memory"
	"github.com/DoyleJ11/moodplay-backend/internal/session"
)

type Memory struct {
	state   memory.State
	timings Timings
	src     dice.Source
}

func NewMemory(t Timings, src dice.Source) *Memory {
	return &Memory{state: memory.NewState(memory.NewBoard(memory.Symbols, src)), timings: t, src: src}
}

func (g *Memory) Kind() session.Kind { return KindMemory }

func (g *Memory) View() any { return g.state }

func (g *Memory) Outcome() session.Outcome {
	if !g.state.Over {
		return session.Outcome{}
	}
	return session.Outcome{Finished: true, Winner: WinnerUser}
}

func (g *Memory) Handle(a session.Action) (*session.Timer, error) {
	switch a.Type {
	case session.ActionFlip:
		if err := g.apply(memory.Command{Type: memory.CmdFlip, CardID: a.CardID}); err != nil {
			return nil, err
		}
		if g.state.Checking {
			return &session.Timer{After: g.timings.MismatchHide, Action: session.Action{Type: actionHideMismatch}}, nil
		}
		return nil, nil

	case actionHideMismatch:
		return nil, g.apply(memory.Command{Type: memory.CmdHideMismatch})

	case session.ActionReset:
		return nil, g.apply(memory.Command{Type: memory.CmdReset, Deck: memory.NewBoard(memory.Symbols, g.src)})

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, a.Type)
	}
}

func (g *Memory) apply(cmd memory.Command) error {
	_, next, err := memory.Apply(g.state, cmd)
	if err != nil {
		return err
	}
	g.state = next
	return nil
}
