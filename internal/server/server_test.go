package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/c32poker/pineapple/internal/auth"
	"github.com/c32poker/pineapple/internal/room"
	"github.com/c32poker/pineapple/internal/store"
)

// testServer bundles the wired components behind an httptest server.
type testServer struct {
	srv      *Server
	hub      *Hub
	registry *room.Registry
	caster   *Broadcaster
	store    *store.MemoryStore
	http     *httptest.Server
	clock    *quartz.Mock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := log.New(testWriter{t})
	mock := quartz.NewMock(t)
	st := store.NewMemoryStore(1000_00)

	hub := NewHub(logger, nil)
	caster := NewBroadcaster(logger, mock, hub, nil)
	reg := room.NewRegistry(logger, mock, st, caster, room.Defaults{
		MaxPlayers:   8,
		SmallBlind:   50,
		BigBlind:     100,
		BuyInMin:     20_00,
		BuyInMax:     500_00,
		TurnTime:     30 * time.Second,
		GameDuration: 2 * time.Hour,
		IdleLimit:    30 * time.Minute,
	}, "")
	caster.SetRegistry(reg)

	cfg := DefaultConfig()
	srv := New(logger, cfg, hub, reg, auth.NewNoopVerifier(), st, nil)

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)

	return &testServer{
		srv:      srv,
		hub:      hub,
		registry: reg,
		caster:   caster,
		store:    st,
		http:     ts,
		clock:    mock,
	}
}

// testWriter routes server logs through the test log.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// wsClient is a collected client socket: messages arrive on msgs, the
// close code (or -1) on closed.
type wsClient struct {
	conn   *websocket.Conn
	msgs   chan *Message
	closed chan int
}

func dialGame(t *testing.T, ts *testServer, roomID, token string) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/game/" + roomID + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &wsClient{
		conn:   conn,
		msgs:   make(chan *Message, 64),
		closed: make(chan int, 1),
	}
	go func() {
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				code := -1
				var closeErr *websocket.CloseError
				if ce, ok := err.(*websocket.CloseError); ok {
					closeErr = ce
				}
				if closeErr != nil {
					code = closeErr.Code
				}
				c.closed <- code
				return
			}
			c.msgs <- &msg
		}
	}()
	return c
}

// expectMessage waits for the next message of the given type, skipping
// others.
func (c *wsClient) expectMessage(t *testing.T, messageType MessageType) *Message {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg := <-c.msgs:
			if msg.Type == messageType {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", messageType)
			return nil
		}
	}
}

// expectClose waits for the reader to observe a close and returns its
// code.
func (c *wsClient) expectClose(t *testing.T) int {
	t.Helper()
	select {
	case code := <-c.closed:
		return code
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for close")
		return 0
	}
}

func (c *wsClient) send(t *testing.T, messageType MessageType, data interface{}) {
	t.Helper()
	msg, err := NewMessage(messageType, data)
	require.NoError(t, err)
	require.NoError(t, c.conn.WriteJSON(msg))
}

func makeRoomWithMembers(t *testing.T, ts *testServer, members ...string) *room.Room {
	t.Helper()
	rm, err := ts.registry.Create(room.CreateParams{Name: "Test Table", Owner: members[0]})
	require.NoError(t, err)
	for _, name := range members[1:] {
		require.NoError(t, rm.AddPlayer(name))
	}
	return rm
}

func decodeData[T any](t *testing.T, msg *Message) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(msg.Data, &out))
	return out
}
