package game

import (
	"github.com/c32poker/pineapple/internal/deck"
)

// State is the full game snapshot pushed to clients. Hole cards never
// appear here except for cards revealed at showdown; private hands travel
// in player_hand messages.
type State struct {
	HandID         string      `json:"hand_id"`
	Phase          string      `json:"game_phase"`
	BettingRound   int         `json:"betting_round"`
	RoundName      string      `json:"betting_round_name"`
	CommunityCards []deck.Card `json:"community_cards"`
	Pot            Chips       `json:"pot"`
	TotalPot       Chips       `json:"total_pot"`
	CurrentBet     Chips       `json:"current_bet"`
	SmallBlind     Chips       `json:"small_blind"`
	BigBlind       Chips       `json:"big_blind"`
	DealerSeat     int         `json:"dealer_seat"`
	CurrentSeat    int         `json:"current_player"`
	CurrentPlayer  string      `json:"current_player_name,omitempty"`
	Players        []SeatState `json:"players"`
	TurnTimeLimit  float64     `json:"turn_time_limit"`
	TurnRemaining  float64     `json:"turn_remaining_time"`
	HandsPlayed    int         `json:"hands_played"`
	HandWinners    []Winner    `json:"hand_winners,omitempty"`
}

// SeatState is one seat's public view.
type SeatState struct {
	Seat         int         `json:"seat"`
	Name         string      `json:"name"`
	Chips        Chips       `json:"chips"`
	Bet          Chips       `json:"bet_amount"`
	Folded       bool        `json:"folded"`
	AllIn        bool        `json:"all_in"`
	HasDiscarded bool        `json:"has_discarded"`
	TotalBuyIn   Chips       `json:"total_buy_in"`
	PendingBuyIn Chips       `json:"pending_buy_in"`
	Online       bool        `json:"online"`
	InHand       bool        `json:"in_hand"`
	IsCurrent    bool        `json:"is_current"`
	IsWinner     bool        `json:"is_winner"`
	LastAction   string      `json:"last_action,omitempty"`
	ShownCards   []deck.Card `json:"shown_cards,omitempty"`
	HoleCards    []deck.Card `json:"hole_cards,omitempty"`
}

// Winner records one seat's share of a settled pot.
type Winner struct {
	Seat   int    `json:"seat"`
	Name   string `json:"name"`
	Amount Chips  `json:"amount"`
	Hand   string `json:"hand,omitempty"`
}

// HandResult summarizes a settled hand for persistence and notifications.
type HandResult struct {
	HandID  string   `json:"hand_id"`
	Pot     Chips    `json:"pot"`
	Winners []Winner `json:"winners"`
}

// Fingerprint captures the semantic state fields the broadcast sampler
// compares. Time remaining is deliberately excluded: pure time advance
// never triggers a broadcast.
type Fingerprint struct {
	Phase       string
	CurrentSeat int
	Pot         Chips
	Community   int
	Round       int
}

// Fingerprint derives the sampler fingerprint from a snapshot.
func (s *State) Fingerprint() Fingerprint {
	return Fingerprint{
		Phase:       s.Phase,
		CurrentSeat: s.CurrentSeat,
		Pot:         s.Pot,
		Community:   len(s.CommunityCards),
		Round:       s.BettingRound,
	}
}
