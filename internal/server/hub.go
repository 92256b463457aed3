package server

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/c32poker/pineapple/internal/deck"
	"github.com/c32poker/pineapple/internal/game"
	"github.com/c32poker/pineapple/internal/room"
)

// Hub tracks live sockets and room membership. For any username at most
// one socket is active: a new connection evicts the prior one. The hub
// lock is leaf-level, so rooms may call the hub while holding their own
// lock; all sends are buffered channel pushes and never block.
type Hub struct {
	logger  *log.Logger
	metrics *Metrics

	mu      sync.Mutex
	byUser  map[string]*Connection
	byRoom  map[string]map[string]*Connection // roomID -> username -> conn
}

// NewHub creates an empty hub. metrics may be nil.
func NewHub(logger *log.Logger, metrics *Metrics) *Hub {
	return &Hub{
		logger:  logger.WithPrefix("hub"),
		metrics: metrics,
		byUser:  make(map[string]*Connection),
		byRoom:  make(map[string]map[string]*Connection),
	}
}

// Register adds a connection, evicting any prior socket for the same
// username with a normal close.
func (h *Hub) Register(c *Connection) {
	h.mu.Lock()
	prior := h.byUser[c.username]
	h.byUser[c.username] = c
	members, ok := h.byRoom[c.roomID]
	if !ok {
		members = make(map[string]*Connection)
		h.byRoom[c.roomID] = members
	}
	members[c.username] = c
	if prior != nil && prior.roomID != c.roomID {
		if old, ok := h.byRoom[prior.roomID]; ok && old[c.username] == prior {
			delete(old, c.username)
		}
	}
	connected := len(h.byUser)
	h.mu.Unlock()

	if prior != nil {
		h.logger.Info("evicting prior connection", "player", c.username)
		prior.CloseWithCode(websocket.CloseNormalClosure, "replaced by new connection")
	}
	if h.metrics != nil {
		h.metrics.SetConnections(connected)
	}
}

// Unregister removes a connection and reports whether it was still the
// active socket for its username. An evicted socket's teardown must not
// touch presence state that now belongs to its replacement.
func (h *Hub) Unregister(c *Connection) bool {
	h.mu.Lock()
	active := h.byUser[c.username] == c
	if active {
		delete(h.byUser, c.username)
	}
	if members, ok := h.byRoom[c.roomID]; ok && members[c.username] == c {
		delete(members, c.username)
		if len(members) == 0 {
			delete(h.byRoom, c.roomID)
		}
	}
	connected := len(h.byUser)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.SetConnections(connected)
	}
	return active
}

// SendToUser delivers one message best-effort; dropped when the user has
// no live socket.
func (h *Hub) SendToUser(username string, msg *Message) {
	h.mu.Lock()
	c := h.byUser[username]
	h.mu.Unlock()
	if c == nil {
		return
	}
	if err := c.SendMessage(msg); err != nil {
		h.Unregister(c)
	}
}

// BroadcastToRoom fans a message out to every connected member. The
// recipient list is snapshotted under the lock; sends happen outside it.
// A failed send downgrades that member to disconnected.
func (h *Hub) BroadcastToRoom(roomID string, msg *Message) {
	h.mu.Lock()
	members := make([]*Connection, 0, len(h.byRoom[roomID]))
	for _, c := range h.byRoom[roomID] {
		members = append(members, c)
	}
	h.mu.Unlock()

	for _, c := range members {
		if err := c.SendMessage(msg); err != nil {
			h.Unregister(c)
		}
	}
	if h.metrics != nil {
		h.metrics.CountBroadcast(msg.Type.String())
	}
}

// RoomMembers lists usernames with a live socket in the room.
func (h *Hub) RoomMembers(roomID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.byRoom[roomID]))
	for name := range h.byRoom[roomID] {
		out = append(out, name)
	}
	return out
}

// IsConnected reports whether username has a live socket.
func (h *Hub) IsConnected(username string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.byUser[username]
	return ok
}

// room.Notifier implementation. Rooms call these with their lock held;
// everything below is non-blocking.

func (h *Hub) GameUpdate(roomID string, st *game.State, reason string, isKey bool) {
	msg, err := NewMessage(MessageTypeGameUpdate, GameUpdateData{
		GameState:    st,
		UpdateReason: reason,
		IsKeyUpdate:  isKey,
	})
	if err != nil {
		h.logger.Error("failed to build game update", "error", err)
		return
	}
	h.BroadcastToRoom(roomID, msg)
}

func (h *Hub) PlayerHand(roomID, username string, hand []deck.Card, discarded *deck.Card) {
	msg, err := NewMessage(MessageTypePlayerHand, PlayerHandData{
		MyHand:        hand,
		DiscardedCard: discarded,
	})
	if err != nil {
		h.logger.Error("failed to build player hand", "error", err)
		return
	}
	h.SendToUser(username, msg)
}

func (h *Hub) RoomUpdate(roomID string, info *room.Info) {
	msg, err := NewMessage(MessageTypeRoomUpdate, RoomUpdateData{Room: info})
	if err != nil {
		h.logger.Error("failed to build room update", "error", err)
		return
	}
	h.BroadcastToRoom(roomID, msg)
}

func (h *Hub) RoomExpiring(roomID string, minutesLeft int) {
	h.BroadcastToRoom(roomID, mustMessage(MessageTypeRoomExpiring, RoomExpiringData{
		RoomID:      roomID,
		MinutesLeft: minutesLeft,
	}))
}

func (h *Hub) RoomExpired(roomID string) {
	h.BroadcastToRoom(roomID, mustMessage(MessageTypeRoomExpired, RoomExpiredData{RoomID: roomID}))
}

func (h *Hub) GameEnd(roomID, reason string) {
	h.BroadcastToRoom(roomID, mustMessage(MessageTypeGameEnd, GameEndData{
		RoomID: roomID,
		Reason: reason,
	}))
}
