package deck

import (
	rand "math/rand/v2"
	"time"

	"github.com/c32poker/pineapple/internal/randutil"
)

// Deck represents a deck of playing cards.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a full 52-card deck with a time-seeded rng.
func New() *Deck {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded creates a full 52-card deck with a deterministic rng,
// for reproducible shuffles in tests.
func NewSeeded(seed int64) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   randutil.New(seed),
	}
	d.fill()
	return d
}

func (d *Deck) fill() {
	d.cards = d.cards[:0]
	for suit := Spades; suit <= Diamonds; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
}

// Shuffle randomizes the order of the remaining cards.
func (d *Deck) Shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns the top card.
func (d *Deck) Deal() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DealN deals up to n cards from the top.
func (d *Deck) DealN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		card, ok := d.Deal()
		if !ok {
			break
		}
		cards = append(cards, card)
	}
	return cards
}

// Burn discards the top card.
func (d *Deck) Burn() {
	if len(d.cards) > 0 {
		d.cards = d.cards[1:]
	}
}

// Remaining returns the number of cards left.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Reset restores the deck to a full 52 cards and shuffles.
func (d *Deck) Reset() {
	d.fill()
	d.Shuffle()
}
