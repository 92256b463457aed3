package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c32poker/pineapple/internal/game"
	"github.com/c32poker/pineapple/internal/room"
)

// dispatch routes one inbound message. Validation and state errors go
// back to the originating socket only; the session stays up.
func (s *Server) dispatch(c *Connection, msg *Message) {
	c.logger.Debug("received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypePing:
		_ = c.SendMessage(mustMessage(MessageTypePong, PongData{Timestamp: time.Now()}))

	case MessageTypeChat:
		var data ChatData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse chat data")
			return
		}
		s.hub.BroadcastToRoom(c.roomID, mustMessage(MessageTypeChat, ChatBroadcastData{
			Player:    c.username,
			Message:   data.Message,
			Timestamp: time.Now(),
		}))

	case MessageTypeGameAction:
		var data GameActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse game action")
			return
		}
		s.handleGameAction(c, data)

	case MessageTypeRoomAction:
		var data RoomActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse room action")
			return
		}
		s.handleRoomAction(c, data)

	default:
		c.sendError("unknown_message_type", "unknown message type: "+msg.Type.String())
	}
}

func (s *Server) handleGameAction(c *Connection, data GameActionData) {
	rm, ok := s.registry.Get(c.roomID)
	if !ok {
		c.sendError("room_not_found", "room no longer exists")
		return
	}

	var err error
	switch data.Action {
	case "discard":
		if data.CardIndex == nil {
			c.sendError("invalid_action", "discard requires card_index")
			return
		}
		err = rm.HandleDiscard(c.username, *data.CardIndex)

	case "show_card":
		if data.CardIndex == nil {
			c.sendError("invalid_action", "show_card requires card_index")
			return
		}
		err = rm.ShowCard(c.username, *data.CardIndex)

	default:
		action, ok := game.ParseAction(data.Action)
		if !ok {
			c.sendError("invalid_action", "unknown action: "+data.Action)
			return
		}
		err = rm.HandleGameAction(c.username, action, game.ChipsFromFloat(data.Amount))
	}

	if err != nil {
		c.sendError(gameErrorCode(err), err.Error())
	}
}

func (s *Server) handleRoomAction(c *Connection, data RoomActionData) {
	rm, ok := s.registry.Get(c.roomID)
	if !ok {
		c.sendError("room_not_found", "room no longer exists")
		return
	}

	var err error
	switch data.Action {
	case RoomActionSitDown:
		if data.SeatIndex == nil {
			c.sendError("invalid_action", "sit_down requires seat_index")
			return
		}
		err = rm.SitDown(c.username, *data.SeatIndex)

	case RoomActionBuyIn:
		seat := game.NoSeat
		if data.SeatIndex != nil {
			seat = *data.SeatIndex
		}
		err = rm.BuyIn(c.username, game.ChipsFromFloat(data.Amount), seat)

	case RoomActionStandUp:
		err = rm.StandUp(c.username)

	case RoomActionStartGame:
		err = rm.StartGame(c.username)

	case RoomActionExitGame:
		err = s.registry.RemovePlayer(rm.ID, c.username)
		if err == nil {
			c.CloseWithCode(websocket.CloseNormalClosure, "left the room")
			return
		}

	case RoomActionChangeSeat:
		if data.NewSeatIndex == nil {
			c.sendError("invalid_action", "change_seat requires new_seat_index")
			return
		}
		err = rm.ChangeSeat(c.username, *data.NewSeatIndex)

	case RoomActionHistory:
		_ = c.SendMessage(mustMessage(MessageTypeGameHistory, GameHistoryData{
			Events: rm.History(),
		}))
		return

	default:
		c.sendError("invalid_action", "unknown room action: "+data.Action)
		return
	}

	if err != nil {
		c.sendError(roomErrorCode(err), err.Error())
	}
}

// gameErrorCode maps engine errors to wire codes.
func gameErrorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrMustDiscard):
		return "must_discard"
	case errors.Is(err, game.ErrAlreadyDiscarded):
		return "already_discarded"
	case errors.Is(err, game.ErrCannotCheck),
		errors.Is(err, game.ErrRaiseTooSmall),
		errors.Is(err, game.ErrInsufficientChip),
		errors.Is(err, game.ErrInvalidCardIndex):
		return "invalid_action"
	case errors.Is(err, game.ErrNoHand), errors.Is(err, game.ErrNotShowdown):
		return "no_hand"
	case errors.Is(err, room.ErrNotMember):
		return "not_member"
	default:
		return "action_failed"
	}
}

// roomErrorCode maps room errors to wire codes.
func roomErrorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomFull), errors.Is(err, game.ErrSeatTaken):
		return "capacity"
	case errors.Is(err, room.ErrBuyInRange):
		return "buy_in_out_of_range"
	case errors.Is(err, room.ErrNotOwner):
		return "not_owner"
	case errors.Is(err, room.ErrInActiveHand), errors.Is(err, game.ErrHandInProgress):
		return "hand_in_progress"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, room.ErrNotMember):
		return "not_member"
	default:
		return "action_failed"
	}
}
