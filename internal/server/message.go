package server

import (
	"encoding/json"
	"time"

	"github.com/c32poker/pineapple/internal/deck"
	"github.com/c32poker/pineapple/internal/game"
	"github.com/c32poker/pineapple/internal/room"
)

// Message is the WebSocket envelope in both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage wraps a payload with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Message{
		Type:      messageType,
		Data:      raw,
		Timestamp: time.Now(),
	}, nil
}

// mustMessage is for payloads that cannot fail to marshal.
func mustMessage(messageType MessageType, data interface{}) *Message {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		panic(err)
	}
	return msg
}

// Client → server payloads

type ChatData struct {
	Message string `json:"message"`
}

type GameActionData struct {
	Action    string  `json:"action"`
	Amount    float64 `json:"amount,omitempty"`
	CardIndex *int    `json:"card_index,omitempty"`
}

type RoomActionData struct {
	Action       string  `json:"action"`
	SeatIndex    *int    `json:"seat_index,omitempty"`
	Amount       float64 `json:"amount,omitempty"`
	NewSeatIndex *int    `json:"new_seat_index,omitempty"`
}

// Server → client payloads

type PongData struct {
	Timestamp time.Time `json:"timestamp"`
}

type ChatBroadcastData struct {
	Player    string    `json:"player"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type GameUpdateData struct {
	GameState    *game.State `json:"game_state"`
	UpdateReason string      `json:"update_reason,omitempty"`
	IsKeyUpdate  bool        `json:"is_key_update"`
}

type PlayerHandData struct {
	MyHand        []deck.Card `json:"my_hand"`
	DiscardedCard *deck.Card  `json:"discarded_card,omitempty"`
}

type RoomUpdateData struct {
	Room *room.Info `json:"room"`
}

type PlayerPresenceData struct {
	Player string `json:"player"`
}

type RoomExpiringData struct {
	RoomID      string `json:"room_id"`
	MinutesLeft int    `json:"minutes_left"`
}

type RoomExpiredData struct {
	RoomID string `json:"room_id"`
}

type GameEndData struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

type GameHistoryData struct {
	Events []game.HandEvent `json:"events"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
