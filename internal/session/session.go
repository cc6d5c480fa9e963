package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Kind string

type ActionType string

// Client-facing actions. Games define their own internal action types for
// timer fires; those never arrive from a socket.
const (
	ActionRoll  ActionType = "roll"
	ActionPlace ActionType = "place"
	ActionFlip  ActionType = "flip"
	ActionReset ActionType = "reset"
)

type Action struct {
	Type   ActionType
	Index  int
	CardID int
}

// Timer asks the session to feed Action back into the game after a delay.
type Timer struct {
	After  time.Duration
	Action Action
}

type Outcome struct {
	Finished bool   `json:"finished"`
	Winner   string `json:"winner,omitempty"`
}

// Game is a turn engine driven by a Session. Handle is only ever called from
// the session goroutine, so implementations need no locking.
type Game interface {
	Kind() Kind
	Handle(a Action) (*Timer, error)
	View() any
	Outcome() Outcome
}

type Msg interface{ isSessionMsg() }

type FromClient struct {
	ClientID string
	Action   Action
}

func (FromClient) isSessionMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // buffered; where this client wants to receive snapshots
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

type TimerFired struct {
	Gen    int
	Action Action
}

func (TimerFired) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Snapshot struct {
	Version int
	Kind    Kind
	State   any
	Outcome Outcome
	Error   string // set only on the copy sent to a client whose action failed
}

type View struct {
	Version    int
	NumClients int
	Kind       Kind
	State      any
	Outcome    Outcome
	TimerArmed bool
}

type FinishFunc func(code string, kind Kind, outcome Outcome)

type Options struct {
	Code     string
	Logger   *zap.Logger
	OnFinish FinishFunc
}

type Session struct {
	code     string
	inbox    chan Msg
	game     Game
	version  int
	clients  map[string]chan Snapshot
	timer    *time.Timer
	timerGen int
	finished bool
	onFinish FinishFunc
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewSession(parent context.Context, game Game, opts Options) *Session {
	ctx, cancel := context.WithCancel(parent)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		code:     opts.Code,
		inbox:    make(chan Msg, 64), // Small buffer
		game:     game,
		clients:  make(map[string]chan Snapshot),
		onFinish: opts.OnFinish,
		logger:   logger.With(zap.String("code", opts.Code), zap.String("kind", string(game.Kind()))),
		ctx:      ctx,
		cancel:   cancel,
	}

	go s.loop()
	return s
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately.
				// An outbox that cannot take it is dropped like a slow client.
				select {
				case msg.Outbox <- s.snapshot():
					s.clients[msg.ClientID] = msg.Outbox
				default:
					close(msg.Outbox)
				}

			case Leave:
				delete(s.clients, msg.ClientID)

			case FromClient:
				if msg.Action.Type == ActionReset {
					s.stopTimer()
				}
				s.apply(msg.ClientID, msg.Action)

			case TimerFired:
				if msg.Gen != s.timerGen {
					// Armed before a reset or a newer timer; drop it.
					break
				}
				s.timer = nil
				s.apply("", msg.Action)

			case GetState:
				msg.Reply <- View{
					Version:    s.version,
					NumClients: len(s.clients),
					Kind:       s.game.Kind(),
					State:      s.game.View(),
					Outcome:    s.game.Outcome(),
					TimerArmed: s.timer != nil,
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) apply(clientID string, a Action) {
	next, err := s.game.Handle(a)
	if err != nil {
		s.logger.Debug("action rejected", zap.String("action", string(a.Type)), zap.String("client", clientID), zap.Error(err))
		s.sendError(clientID, err)
		return
	}

	if next != nil {
		s.arm(*next)
	}

	s.version++
	s.broadcast(s.snapshot())
	s.checkFinished()
}

func (s *Session) checkFinished() {
	out := s.game.Outcome()
	if !out.Finished {
		s.finished = false
		return
	}
	if s.finished {
		return
	}
	s.finished = true
	s.logger.Info("game finished", zap.String("winner", out.Winner), zap.Int("version", s.version))
	if s.onFinish != nil {
		s.onFinish(s.code, s.game.Kind(), out)
	}
}

// arm replaces any pending timer. Only one deferred action is ever pending.
func (s *Session) arm(t Timer) {
	s.stopTimer()
	gen := s.timerGen
	s.timer = time.AfterFunc(t.After, func() {
		select {
		case s.inbox <- TimerFired{Gen: gen, Action: t.Action}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) stopTimer() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Version: s.version,
		Kind:    s.game.Kind(),
		State:   s.game.View(),
		Outcome: s.game.Outcome(),
	}
}

func (s *Session) sendError(clientID string, err error) {
	ch, ok := s.clients[clientID]
	if !ok {
		return
	}
	snap := s.snapshot()
	snap.Error = err.Error()
	select {
	case ch <- snap:
	default:
	}
}

func (s *Session) shutdown() {
	s.stopTimer()
	for id, ch := range s.clients {
		close(ch) // Tell client no more snapshots
		delete(s.clients, id)
	}
	s.cancel()
}

func (s *Session) broadcast(snap Snapshot) {
	for id, ch := range s.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(s.clients, id)
		}
	}
}

func (s *Session) Code() string { return s.code }

// Expose the inbox so tests or WS layer can send messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Send delivers m unless the session has already shut down.
func (s *Session) Send(m Msg) bool {
	select {
	case s.inbox <- m:
		return true
	case <-s.ctx.Done():
		return false
	}
}
