package ws

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/moodplay-backend/internal/games"
	"github.com/DoyleJ11/moodplay-backend/internal/hub"
	"github.com/DoyleJ11/moodplay-backend/internal/session"
	"github.com/DoyleJ11/moodplay-backend/internal/types"
)

func intPtr(i int) *int { return &i }

func TestToAction(t *testing.T) {
	a, err := ToAction(types.ClientMessage{Type: "place", Index: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, session.Action{Type: session.ActionPlace, Index: 4}, a)

	a, err = ToAction(types.ClientMessage{Type: "flip", CardID: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, session.Action{Type: session.ActionFlip, CardID: 0}, a)

	a, err = ToAction(types.ClientMessage{Type: "roll"})
	require.NoError(t, err)
	assert.Equal(t, session.ActionRoll, a.Type)

	_, err = ToAction(types.ClientMessage{Type: "place"})
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = ToAction(types.ClientMessage{Type: "flip"})
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = ToAction(types.ClientMessage{Type: "LockPick"})
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestFromSnapshot_ErrorCopy(t *testing.T) {
	msg := FromSnapshot(session.Snapshot{Version: 3, Kind: games.KindXO, Error: "square occupied"})
	assert.Equal(t, "Error", msg.Type)
	assert.Equal(t, 3, msg.Version)
	assert.Equal(t, "square occupied", msg.Error)

	msg = FromSnapshot(session.Snapshot{Version: 1, Kind: games.KindXO})
	assert.Equal(t, "StateSnapshot", msg.Type)
	assert.Empty(t, msg.Error)
}

func readMsg(t *testing.T, ctx context.Context, c *websocket.Conn) types.ServerMessage {
	t.Helper()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandler_PlaysXO(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := hub.NewHub(ctx, hub.Options{})
	tm := games.DefaultTimings()
	tm.ComputerMarkWait = time.Hour // keep the computer from answering
	g, err := games.New(games.KindXO, tm, nil)
	require.NoError(t, err)
	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.CreateSession{Code: "ABC123", Game: g, Reply: reply}
	require.NotNil(t, <-reply)

	srv := httptest.NewServer(Handler(h, Options{}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?code=ABC123"

	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	first := readMsg(t, ctx, c)
	assert.Equal(t, "StateSnapshot", first.Type)
	assert.Equal(t, 0, first.Version)
	assert.Equal(t, games.KindXO, first.Kind)

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`{"type":"place","index":4}`)))
	placed := readMsg(t, ctx, c)
	assert.Equal(t, "StateSnapshot", placed.Type)
	assert.Equal(t, 1, placed.Version)

	// same square again goes back to this client only, as an error
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`{"type":"place","index":4}`)))
	rejected := readMsg(t, ctx, c)
	assert.Equal(t, "Error", rejected.Type)
	assert.NotEmpty(t, rejected.Error)

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`{"type":"dance"}`)))
	bad := readMsg(t, ctx, c)
	assert.Equal(t, "Error", bad.Type)

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`not json`)))
	bad = readMsg(t, ctx, c)
	assert.Equal(t, "bad json", bad.Error)
}

func TestHandler_UnknownCode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx, hub.Options{})

	srv := httptest.NewServer(Handler(h, Options{}))
	defer srv.Close()

	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?code=NOPE", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)

	_, resp, err = websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandler_ClosesWhenSessionRemoved(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := hub.NewHub(ctx, hub.Options{})
	g, err := games.New(games.KindMemory, games.DefaultTimings(), nil)
	require.NoError(t, err)
	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.CreateSession{Code: "GONE01", Game: g, Reply: reply}
	<-reply

	connected := make(chan int, 4)
	srv := httptest.NewServer(Handler(h, Options{OnConnect: func(d int) { connected <- d }}))
	defer srv.Close()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?code=GONE01", nil)
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")
	readMsg(t, ctx, c)
	assert.Equal(t, 1, <-connected)

	h.Inbox() <- hub.RemoveSession{Code: "GONE01"}

	_, _, err = c.Read(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, -1, <-connected)
}
