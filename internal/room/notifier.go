package room

import (
	"github.com/c32poker/pineapple/internal/deck"
	"github.com/c32poker/pineapple/internal/game"
)

// Notifier is the fan-out boundary between rooms and connected sockets.
// Rooms call it with their own lock held, so implementations must not
// block and must not call back into the room.
type Notifier interface {
	// GameUpdate pushes a full game snapshot to every member of a room.
	GameUpdate(roomID string, st *game.State, reason string, isKey bool)

	// PlayerHand privately delivers a player's hole cards.
	PlayerHand(roomID, username string, hand []deck.Card, discarded *deck.Card)

	// RoomUpdate pushes room metadata after a seating or lifecycle change.
	RoomUpdate(roomID string, info *Info)

	// RoomExpiring warns members the room is close to idle expiry.
	RoomExpiring(roomID string, minutesLeft int)

	// RoomExpired tells members the room was reaped.
	RoomExpired(roomID string)

	// GameEnd announces the end of a table session.
	GameEnd(roomID string, reason string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) GameUpdate(string, *game.State, string, bool)       {}
func (NopNotifier) PlayerHand(string, string, []deck.Card, *deck.Card) {}
func (NopNotifier) RoomUpdate(string, *Info)                           {}
func (NopNotifier) RoomExpiring(string, int)                           {}
func (NopNotifier) RoomExpired(string)                                 {}
func (NopNotifier) GameEnd(string, string)                             {}
