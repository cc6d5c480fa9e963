package games

import (
	"fmt"

	"github.com/DoyleJ11/moodplay-backend/internal/engine/dice"
	"github.com/DoyleJ11/moodplay-backend/internal/engine/snakes"
	"github.com/DoyleJ11/moodplay-backend/internal/session"
)

// Snakes plays the user against the computer. A roll animates RollTicks dice
// faces before a fresh final roll decides the move.
type Snakes struct {
	state     snakes.State
	timings   Timings
	src       dice.Source
	ticksLeft int
}

func NewSnakes(t Timings, src dice.Source) *Snakes {
	return &Snakes{state: snakes.NewState("Game started! Your turn."), timings: t, src: src}
}

func (g *Snakes) Kind() session.Kind { return KindSnakes }

func (g *Snakes) View() any { return g.state }

func (g *Snakes) Outcome() session.Outcome {
	if !g.state.Over() {
		return session.Outcome{}
	}
	return session.Outcome{Finished: true, Winner: string(g.state.Winner)}
}

func (g *Snakes) Handle(a session.Action) (*session.Timer, error) {
	switch a.Type {
	case session.ActionRoll:
		return g.startRoll(snakes.PlayerUser)

	case actionComputerRoll:
		return g.startRoll(snakes.PlayerComputer)

	case actionDiceTick:
		if g.ticksLeft > 0 {
			if err := g.apply(snakes.Command{Type: snakes.CmdDiceTick, Roll: dice.Roll(g.src)}); err != nil {
				return nil, err
			}
			g.ticksLeft--
			return g.tick(), nil
		}
		if err := g.apply(snakes.Command{Type: snakes.CmdResolveRoll, Player: g.state.Active, Roll: dice.Roll(g.src)}); err != nil {
			return nil, err
		}
		if !g.state.Over() && g.state.Active == snakes.PlayerComputer {
			return &session.Timer{After: g.timings.ComputerRollWait, Action: session.Action{Type: actionComputerRoll}}, nil
		}
		return nil, nil

	case session.ActionReset:
		g.ticksLeft = 0
		return nil, g.apply(snakes.Command{Type: snakes.CmdReset})

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, a.Type)
	}
}

func (g *Snakes) startRoll(p snakes.Player) (*session.Timer, error) {
	if err := g.apply(snakes.Command{Type: snakes.CmdStartRoll, Player: p}); err != nil {
		return nil, err
	}
	g.ticksLeft = g.timings.RollTicks
	return g.tick(), nil
}

func (g *Snakes) tick() *session.Timer {
	return &session.Timer{After: g.timings.RollTick, Action: session.Action{Type: actionDiceTick}}
}

func (g *Snakes) apply(cmd snakes.Command) error {
	_, next, err := snakes.Apply(g.state, cmd)
	if err != nil {
		return err
	}
	g.state = next
	return nil
}
