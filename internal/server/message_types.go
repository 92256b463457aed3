package server

// MessageType identifies a WebSocket message. The set is closed: unknown
// types from clients get an error reply, never ad-hoc handling.
type MessageType string

const (
	// Client → server
	MessageTypePing       MessageType = "ping"
	MessageTypeChat       MessageType = "chat"
	MessageTypeGameAction MessageType = "game_action"
	MessageTypeRoomAction MessageType = "room_action"

	// Server → client
	MessageTypePong               MessageType = "pong"
	MessageTypeGameUpdate         MessageType = "game_update"
	MessageTypePlayerHand         MessageType = "player_hand"
	MessageTypeRoomUpdate         MessageType = "room_update"
	MessageTypePlayerConnected    MessageType = "player_connected"
	MessageTypePlayerDisconnected MessageType = "player_disconnected"
	MessageTypeRoomExpiring       MessageType = "room_expiring"
	MessageTypeRoomExpired        MessageType = "room_expired"
	MessageTypeGameEnd            MessageType = "game_end"
	MessageTypeGameHistory        MessageType = "game_history"
	MessageTypeError              MessageType = "error"
)

func (t MessageType) String() string {
	return string(t)
}

// Room actions carried inside room_action messages.
const (
	RoomActionSitDown    = "sit_down"
	RoomActionBuyIn      = "buy_in"
	RoomActionStandUp    = "stand_up"
	RoomActionStartGame  = "start_game"
	RoomActionExitGame   = "exit_game"
	RoomActionChangeSeat = "change_seat"
	RoomActionHistory    = "get_game_history"
)
