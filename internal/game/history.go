package game

import "time"

// historyLimit caps retained events; old hands fall off the front.
const historyLimit = 500

// HandEvent is one entry in the table's action history.
type HandEvent struct {
	HandID string    `json:"hand_id"`
	Round  int       `json:"betting_round"`
	Seat   int       `json:"seat"`
	Player string    `json:"player"`
	Action string    `json:"action"`
	Amount Chips     `json:"amount,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

func (g *Game) record(seat int, action string, amount Chips, detail string) {
	name := ""
	if p, ok := g.seats[seat]; ok {
		name = p.Name
	}
	g.history = append(g.history, HandEvent{
		HandID: g.handID,
		Round:  g.round,
		Seat:   seat,
		Player: name,
		Action: action,
		Amount: amount,
		Detail: detail,
		At:     g.clock.Now(),
	})
	if len(g.history) > historyLimit {
		g.history = g.history[len(g.history)-historyLimit:]
	}
}

// History returns a copy of the retained action history.
func (g *Game) History() []HandEvent {
	out := make([]HandEvent, len(g.history))
	copy(out, g.history)
	return out
}
