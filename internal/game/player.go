package game

import "github.com/c32poker/pineapple/internal/deck"

// Player is the single per-seat record shared by the room layer and the
// game engine. The room mutates membership fields (seat, buy-ins, online);
// the engine mutates per-hand fields. Both happen under the table lock.
type Player struct {
	Name         string
	Seat         int // -1 when unseated
	Chips        Chips
	TotalBuyIn   Chips
	PendingBuyIn Chips
	Online       bool
	Leaving      bool // stood up or left mid-hand; unseated at the next boundary

	// Per-hand state, reset at each deal.
	InHand        bool
	HoleCards     []deck.Card
	DiscardedCard *deck.Card
	HasDiscarded  bool
	ShownCards    []deck.Card
	Bet           Chips
	Folded        bool
	AllIn         bool
	Acted         bool
	LastAction    string
	Winner        bool
}

// NewPlayer creates an unseated, online player.
func NewPlayer(name string) *Player {
	return &Player{Name: name, Seat: -1, Online: true}
}

func (p *Player) resetForHand() {
	p.InHand = false
	p.HoleCards = nil
	p.DiscardedCard = nil
	p.HasDiscarded = false
	p.ShownCards = nil
	p.Bet = 0
	p.Folded = false
	p.AllIn = false
	p.Acted = false
	p.LastAction = ""
	p.Winner = false
}

// active reports whether the player is still contesting the current hand.
func (p *Player) active() bool {
	return p.InHand && !p.Folded
}

// canAct reports whether the player can still take a wagering action.
func (p *Player) canAct() bool {
	return p.active() && !p.AllIn
}
