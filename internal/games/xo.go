package games

import (
	"fmt"

	"github.com/DoyleJ11/moodplay-backend/internal/engine/dice"
	"github.com/DoyleJ11/moodplay-backend/internal/engine/xo"
	"github.com/DoyleJ11/moodplay-backend/internal/session"
)

// XO is tic-tac-toe: the user plays X, the computer answers with O on a random
// empty square.
type XO struct {
	state   xo.State
	timings Timings
	src     dice.Source
}

func NewXO(t Timings, src dice.Source) *XO {
	return &XO{state: xo.NewState(), timings: t, src: src}
}

func (g *XO) Kind() session.Kind { return KindXO }

func (g *XO) View() any { return g.state }

func (g *XO) Outcome() session.Outcome {
	switch {
	case g.state.Winner == xo.UserMark:
		return session.Outcome{Finished: true, Winner: WinnerUser}
	case g.state.Winner == xo.ComputerMark:
		return session.Outcome{Finished: true, Winner: WinnerComputer}
	case g.state.Draw:
		return session.Outcome{Finished: true, Winner: WinnerDraw}
	}
	return session.Outcome{}
}

func (g *XO) Handle(a session.Action) (*session.Timer, error) {
	switch a.Type {
	case session.ActionPlace:
		if err := g.apply(xo.Command{Type: xo.CmdPlace, Mark: xo.UserMark, Index: a.Index}); err != nil {
			return nil, err
		}
		if !g.state.Over() && g.state.Turn == xo.ComputerMark {
			return &session.Timer{After: g.timings.ComputerMarkWait, Action: session.Action{Type: actionComputerPlace}}, nil
		}
		return nil, nil

	case actionComputerPlace:
		idx, ok := xo.RandomMove(g.state.Board, g.src)
		if !ok {
			return nil, xo.ErrGameAlreadyCompleted
		}
		return nil, g.apply(xo.Command{Type: xo.CmdPlace, Mark: xo.ComputerMark, Index: idx})

	case session.ActionReset:
		return nil, g.apply(xo.Command{Type: xo.CmdReset})

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, a.Type)
	}
}

func (g *XO) apply(cmd xo.Command) error {
	_, next, err := xo.Apply(g.state, cmd)
	if err != nil {
		return err
	}
	g.state = next
	return nil
}
