package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/moodplay-backend/internal/hub"
	"github.com/DoyleJ11/moodplay-backend/internal/session"
	"github.com/DoyleJ11/moodplay-backend/internal/types"
	wire "github.com/DoyleJ11/moodplay-backend/pkg/types"
)

var ErrUnknownMessage = errors.New("unknown message type")
var ErrMissingField = errors.New("missing field")

type Options struct {
	Logger *zap.Logger
	// OriginPatterns are host patterns allowed to open a socket from a browser.
	OriginPatterns []string
	// ReadTimeout closes a socket that sends nothing for this long.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// OnConnect is told +1 when a socket joins and -1 when it leaves.
	OnConnect func(delta int)
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 5 * time.Minute
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Second
	}
	onConnect := opts.OnConnect
	if onConnect == nil {
		onConnect = func(int) {}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		s := h.Get(code)
		if s == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			logger.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan session.Snapshot, 8)
		clientID := uuid.NewString()
		log := logger.With(zap.String("code", code), zap.String("client", clientID))

		if !s.Send(session.Join{ClientID: clientID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "game closed")
			return
		}
		onConnect(1)
		defer onConnect(-1)
		defer s.Send(session.Leave{ClientID: clientID})
		log.Debug("client joined")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				var snap session.Snapshot
				var ok bool
				select {
				case <-writeCtx.Done():
					return
				case snap, ok = <-out:
				}
				if !ok {
					// The session dropped us or shut down.
					conn.Close(websocket.StatusGoingAway, "game closed")
					return
				}
				payload, err := json.Marshal(FromSnapshot(snap))
				if err != nil {
					log.Error("encode snapshot", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, opts.WriteTimeout)
				err = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), opts.ReadTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			action, err := ToAction(cm)
			if err != nil {
				writeError(r.Context(), conn, err.Error())
				continue
			}

			if !s.Send(session.FromClient{ClientID: clientID, Action: action}) {
				return
			}
		}
	}
}

// ToAction maps a client message onto a session action.
func ToAction(m types.ClientMessage) (session.Action, error) {
	switch m.Type {
	case wire.ClientRoll:
		return session.Action{Type: session.ActionRoll}, nil
	case wire.ClientReset:
		return session.Action{Type: session.ActionReset}, nil
	case wire.ClientPlace:
		if m.Index == nil {
			return session.Action{}, fmt.Errorf("%w: index", ErrMissingField)
		}
		return session.Action{Type: session.ActionPlace, Index: *m.Index}, nil
	case wire.ClientFlip:
		if m.CardID == nil {
			return session.Action{}, fmt.Errorf("%w: card_id", ErrMissingField)
		}
		return session.Action{Type: session.ActionFlip, CardID: *m.CardID}, nil
	default:
		return session.Action{}, fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
}

func FromSnapshot(snap session.Snapshot) types.ServerMessage {
	msg := types.ServerMessage{
		Type:    wire.ServerStateSnapshot,
		Version: snap.Version,
		Kind:    snap.Kind,
		State:   snap.State,
		Outcome: &snap.Outcome,
	}
	if snap.Error != "" {
		msg.Type = wire.ServerError
		msg.Error = snap.Error
	}
	return msg
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: wire.ServerError, Error: msg})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
