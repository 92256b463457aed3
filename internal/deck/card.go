package deck

import (
	"encoding/json"
	"fmt"
)

// Suit represents a card suit. Order is the display tie-break order
// (spades highest); it has no effect on hand evaluation.
type Suit int

const (
	Spades Suit = iota
	Hearts
	Clubs
	Diamonds
)

// String returns the single-letter wire representation of a suit.
func (s Suit) String() string {
	switch s {
	case Spades:
		return "S"
	case Hearts:
		return "H"
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	default:
		return "?"
	}
}

// Symbol returns the unicode symbol for a suit, for logs and descriptions.
func (s Suit) Symbol() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	default:
		return "?"
	}
}

// Rank represents a card rank. Aces are high (14); the evaluator treats
// them as low only inside a wheel straight.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank.
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Nine:
		return fmt.Sprintf("%d", int(r))
	case r == Ten:
		return "10"
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// Card represents a playing card.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the display form of a card (e.g. "A♠").
func (c Card) String() string {
	return c.Rank.String() + c.Suit.Symbol()
}

// Display returns the compact wire form of a card (e.g. "AS", "10H").
func (c Card) Display() string {
	return c.Rank.String() + c.Suit.String()
}

// Value returns the numeric rank value for comparison.
func (c Card) Value() int {
	return int(c.Rank)
}

// Less orders cards for display: by rank descending, then suit
// (spades > hearts > clubs > diamonds). Evaluation never uses this.
func (c Card) Less(other Card) bool {
	if c.Rank != other.Rank {
		return c.Rank > other.Rank
	}
	return c.Suit < other.Suit
}

type cardJSON struct {
	Rank    string `json:"rank"`
	Suit    string `json:"suit"`
	Display string `json:"display"`
}

// MarshalJSON renders the card in its wire form.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{
		Rank:    c.Rank.String(),
		Suit:    c.Suit.String(),
		Display: c.Display(),
	})
}

// UnmarshalJSON parses the wire form back into a card.
func (c *Card) UnmarshalJSON(data []byte) error {
	var cj cardJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	rank, ok := parseRank(cj.Rank)
	if !ok {
		return fmt.Errorf("deck: invalid rank %q", cj.Rank)
	}
	suit, ok := parseSuit(cj.Suit)
	if !ok {
		return fmt.Errorf("deck: invalid suit %q", cj.Suit)
	}
	c.Rank = rank
	c.Suit = suit
	return nil
}

func parseRank(s string) (Rank, bool) {
	for r := Two; r <= Ace; r++ {
		if r.String() == s {
			return r, true
		}
	}
	return 0, false
}

func parseSuit(s string) (Suit, bool) {
	for su := Spades; su <= Diamonds; su++ {
		if su.String() == s {
			return su, true
		}
	}
	return 0, false
}
