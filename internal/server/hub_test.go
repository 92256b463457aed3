package server

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c32poker/pineapple/internal/game"
)

func TestSocketRequiresValidToken(t *testing.T) {
	ts := newTestServer(t)
	rm := makeRoomWithMembers(t, ts, "alice")

	url := "ws" + ts.http.URL[4:] + "/game/" + rm.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

func TestSocketRequiresMembership(t *testing.T) {
	ts := newTestServer(t)
	rm := makeRoomWithMembers(t, ts, "alice")

	url := "ws" + ts.http.URL[4:] + "/game/" + rm.ID + "?token=mallory"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

func TestSocketUnknownRoomRejected(t *testing.T) {
	ts := newTestServer(t)

	url := "ws" + ts.http.URL[4:] + "/game/no-such-room?token=alice"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

func TestConnectDeliversInitialState(t *testing.T) {
	ts := newTestServer(t)
	rm := makeRoomWithMembers(t, ts, "alice")

	c := dialGame(t, ts, rm.ID, "alice")
	msg := c.expectMessage(t, MessageTypeGameUpdate)
	data := decodeData[GameUpdateData](t, msg)
	assert.Equal(t, "initial_state", data.UpdateReason)
	assert.True(t, data.IsKeyUpdate)
}

func TestNewConnectionEvictsPrior(t *testing.T) {
	ts := newTestServer(t)
	rm := makeRoomWithMembers(t, ts, "alice", "bob")

	first := dialGame(t, ts, rm.ID, "alice")
	first.expectMessage(t, MessageTypeGameUpdate)

	second := dialGame(t, ts, rm.ID, "alice")
	second.expectMessage(t, MessageTypeGameUpdate)

	// The prior socket is closed by the server with a normal close.
	code := first.expectClose(t)
	assert.Equal(t, websocket.CloseNormalClosure, code)

	// Membership is unchanged and the replacement receives broadcasts.
	assert.Len(t, ts.hub.RoomMembers(rm.ID), 1)
	ts.hub.BroadcastToRoom(rm.ID, mustMessage(MessageTypeChat, ChatBroadcastData{
		Player:  "bob",
		Message: "hello",
	}))
	second.expectMessage(t, MessageTypeChat)
}

func TestEvictionKeepsReplacementOnline(t *testing.T) {
	ts := newTestServer(t)
	rm := makeRoomWithMembers(t, ts, "alice", "bob")
	require.NoError(t, rm.BuyIn("alice", game.ChipsFromFloat(100), 0))

	first := dialGame(t, ts, rm.ID, "alice")
	first.expectMessage(t, MessageTypeGameUpdate)

	b := dialGame(t, ts, rm.ID, "bob")
	b.expectMessage(t, MessageTypeGameUpdate)

	second := dialGame(t, ts, rm.ID, "alice")
	second.expectMessage(t, MessageTypeGameUpdate)

	code := first.expectClose(t)
	assert.Equal(t, websocket.CloseNormalClosure, code)

	// The evicted socket's teardown must not flip alice offline; her
	// presence now belongs to the replacement socket.
	aliceOnline := func() bool {
		for _, seat := range rm.Info().Seated {
			if seat.Username == "alice" {
				return seat.Online
			}
		}
		return false
	}
	assert.Never(t, func() bool { return !aliceOnline() },
		500*time.Millisecond, 25*time.Millisecond)

	// No disconnect is announced to the rest of the room either.
	for {
		select {
		case msg := <-b.msgs:
			require.NotEqual(t, MessageTypePlayerDisconnected, msg.Type)
		default:
			return
		}
	}
}

func TestBroadcastReachesAllConnectedMembers(t *testing.T) {
	ts := newTestServer(t)
	rm := makeRoomWithMembers(t, ts, "alice", "bob")

	a := dialGame(t, ts, rm.ID, "alice")
	b := dialGame(t, ts, rm.ID, "bob")
	a.expectMessage(t, MessageTypeGameUpdate)
	b.expectMessage(t, MessageTypeGameUpdate)

	a.send(t, MessageTypeChat, ChatData{Message: "hi all"})

	for _, c := range []*wsClient{a, b} {
		msg := c.expectMessage(t, MessageTypeChat)
		data := decodeData[ChatBroadcastData](t, msg)
		assert.Equal(t, "alice", data.Player)
		assert.Equal(t, "hi all", data.Message)
	}
}

func TestPingPong(t *testing.T) {
	ts := newTestServer(t)
	rm := makeRoomWithMembers(t, ts, "alice")

	c := dialGame(t, ts, rm.ID, "alice")
	c.send(t, MessageTypePing, nil)
	c.expectMessage(t, MessageTypePong)
}

func TestDisconnectNotifiesRoom(t *testing.T) {
	ts := newTestServer(t)
	rm := makeRoomWithMembers(t, ts, "alice", "bob")

	a := dialGame(t, ts, rm.ID, "alice")
	b := dialGame(t, ts, rm.ID, "bob")
	a.expectMessage(t, MessageTypeGameUpdate)
	b.expectMessage(t, MessageTypePlayerConnected)

	require.NoError(t, a.conn.Close())

	msg := b.expectMessage(t, MessageTypePlayerDisconnected)
	data := decodeData[PlayerPresenceData](t, msg)
	assert.Equal(t, "alice", data.Player)
}

func TestGameActionOverSocket(t *testing.T) {
	ts := newTestServer(t)
	rm := makeRoomWithMembers(t, ts, "alice", "bob")

	require.NoError(t, rm.BuyIn("alice", game.ChipsFromFloat(100), 0))
	require.NoError(t, rm.BuyIn("bob", game.ChipsFromFloat(100), 1))

	a := dialGame(t, ts, rm.ID, "alice")
	b := dialGame(t, ts, rm.ID, "bob")
	a.expectMessage(t, MessageTypeGameUpdate)
	b.expectMessage(t, MessageTypeGameUpdate)

	require.NoError(t, rm.StartGame("alice"))

	// Both players get the deal and their private hands.
	a.expectMessage(t, MessageTypePlayerHand)
	b.expectMessage(t, MessageTypePlayerHand)

	// Acting out of discard order produces an error reply, not a close.
	st := rm.GameState()
	actor, waiter := a, b
	if st.CurrentPlayer == "bob" {
		actor, waiter = b, a
	}
	_ = waiter

	actor.send(t, MessageTypeGameAction, GameActionData{Action: "call"})
	msg := actor.expectMessage(t, MessageTypeError)
	data := decodeData[ErrorData](t, msg)
	assert.Equal(t, "must_discard", data.Code)

	idx := 0
	actor.send(t, MessageTypeGameAction, GameActionData{Action: "discard", CardIndex: &idx})
	update := actor.expectMessage(t, MessageTypeGameUpdate)
	upd := decodeData[GameUpdateData](t, update)
	assert.Equal(t, "player_discarded", upd.UpdateReason)
}

func TestRoomActionHistory(t *testing.T) {
	ts := newTestServer(t)
	rm := makeRoomWithMembers(t, ts, "alice", "bob")

	require.NoError(t, rm.BuyIn("alice", game.ChipsFromFloat(100), 0))
	require.NoError(t, rm.BuyIn("bob", game.ChipsFromFloat(100), 1))
	require.NoError(t, rm.StartGame("alice"))

	a := dialGame(t, ts, rm.ID, "alice")
	a.send(t, MessageTypeRoomAction, RoomActionData{Action: RoomActionHistory})

	msg := a.expectMessage(t, MessageTypeGameHistory)
	data := decodeData[GameHistoryData](t, msg)
	// Blinds are already on the record.
	assert.NotEmpty(t, data.Events)
}
