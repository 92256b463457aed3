package poker

import (
	rand "math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c32poker/pineapple/internal/deck"
)

func card(rank deck.Rank, suit deck.Suit) deck.Card {
	return deck.NewCard(rank, suit)
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name     string
		cards    []deck.Card
		category Category
		values   []int
	}{
		{
			name: "high card",
			cards: []deck.Card{
				card(deck.Ace, deck.Spades), card(deck.Nine, deck.Hearts),
				card(deck.Seven, deck.Clubs), card(deck.Five, deck.Diamonds),
				card(deck.Two, deck.Spades), card(deck.Jack, deck.Hearts),
				card(deck.Three, deck.Clubs),
			},
			category: HighCard,
			values:   []int{14},
		},
		{
			name: "one pair",
			cards: []deck.Card{
				card(deck.King, deck.Spades), card(deck.King, deck.Hearts),
				card(deck.Nine, deck.Clubs), card(deck.Five, deck.Diamonds),
				card(deck.Two, deck.Spades),
			},
			category: OnePair,
			values:   []int{13},
		},
		{
			name: "two pair",
			cards: []deck.Card{
				card(deck.King, deck.Spades), card(deck.King, deck.Hearts),
				card(deck.Nine, deck.Clubs), card(deck.Nine, deck.Diamonds),
				card(deck.Two, deck.Spades),
			},
			category: TwoPair,
			values:   []int{13, 9},
		},
		{
			name: "trips",
			cards: []deck.Card{
				card(deck.Queen, deck.Spades), card(deck.Queen, deck.Hearts),
				card(deck.Queen, deck.Clubs), card(deck.Nine, deck.Diamonds),
				card(deck.Two, deck.Spades),
			},
			category: Trips,
			values:   []int{12},
		},
		{
			name: "straight",
			cards: []deck.Card{
				card(deck.Nine, deck.Spades), card(deck.Eight, deck.Hearts),
				card(deck.Seven, deck.Clubs), card(deck.Six, deck.Diamonds),
				card(deck.Five, deck.Spades), card(deck.King, deck.Hearts),
			},
			category: Straight,
			values:   []int{9},
		},
		{
			name: "wheel straight has high five",
			cards: []deck.Card{
				card(deck.Ace, deck.Spades), card(deck.Two, deck.Hearts),
				card(deck.Three, deck.Clubs), card(deck.Four, deck.Diamonds),
				card(deck.Five, deck.Spades), card(deck.King, deck.Hearts),
			},
			category: Straight,
			values:   []int{5},
		},
		{
			name: "flush uses top five of suit",
			cards: []deck.Card{
				card(deck.Ace, deck.Hearts), card(deck.Jack, deck.Hearts),
				card(deck.Nine, deck.Hearts), card(deck.Six, deck.Hearts),
				card(deck.Three, deck.Hearts), card(deck.Two, deck.Hearts),
				card(deck.King, deck.Spades),
			},
			category: Flush,
			values:   []int{14, 11, 9, 6, 3},
		},
		{
			name: "full house",
			cards: []deck.Card{
				card(deck.Ten, deck.Spades), card(deck.Ten, deck.Hearts),
				card(deck.Ten, deck.Clubs), card(deck.Four, deck.Diamonds),
				card(deck.Four, deck.Spades),
			},
			category: FullHouse,
			values:   []int{10, 4},
		},
		{
			name: "double trips reads as full house",
			cards: []deck.Card{
				card(deck.Ten, deck.Spades), card(deck.Ten, deck.Hearts),
				card(deck.Ten, deck.Clubs), card(deck.Four, deck.Diamonds),
				card(deck.Four, deck.Spades), card(deck.Four, deck.Hearts),
				card(deck.Ace, deck.Clubs),
			},
			category: FullHouse,
			values:   []int{10, 4},
		},
		{
			name: "quads",
			cards: []deck.Card{
				card(deck.Eight, deck.Spades), card(deck.Eight, deck.Hearts),
				card(deck.Eight, deck.Clubs), card(deck.Eight, deck.Diamonds),
				card(deck.Two, deck.Spades),
			},
			category: Quads,
			values:   []int{8},
		},
		{
			name: "straight flush",
			cards: []deck.Card{
				card(deck.Nine, deck.Clubs), card(deck.Eight, deck.Clubs),
				card(deck.Seven, deck.Clubs), card(deck.Six, deck.Clubs),
				card(deck.Five, deck.Clubs), card(deck.Ace, deck.Spades),
			},
			category: StraightFlush,
			values:   []int{9},
		},
		{
			name: "royal flush",
			cards: []deck.Card{
				card(deck.Ace, deck.Diamonds), card(deck.King, deck.Diamonds),
				card(deck.Queen, deck.Diamonds), card(deck.Jack, deck.Diamonds),
				card(deck.Ten, deck.Diamonds),
			},
			category: StraightFlush,
			values:   []int{14},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rank := Evaluate(tt.cards)
			assert.Equal(t, tt.category, rank.Category, rank.Desc)
			assert.Equal(t, tt.values, rank.Values)
		})
	}
}

// A straight plus an unrelated flush must not read as a straight flush.
func TestStraightAndFlushInDifferentSuits(t *testing.T) {
	cards := []deck.Card{
		card(deck.Nine, deck.Spades), card(deck.Eight, deck.Hearts),
		card(deck.Seven, deck.Hearts), card(deck.Six, deck.Hearts),
		card(deck.Five, deck.Hearts), card(deck.Two, deck.Hearts),
		card(deck.King, deck.Clubs),
	}
	rank := Evaluate(cards)
	assert.Equal(t, Flush, rank.Category, rank.Desc)
}

func TestEvaluateOutOfRange(t *testing.T) {
	zero := Rank{Category: HighCard, Values: []int{0}, Desc: "High Card"}

	assert.Equal(t, zero, Evaluate(nil))
	assert.Equal(t, zero, Evaluate([]deck.Card{card(deck.Ace, deck.Spades)}))

	nine := make([]deck.Card, 0, 9)
	for r := deck.Two; r <= deck.Ten; r++ {
		nine = append(nine, card(r, deck.Spades))
	}
	assert.Equal(t, zero, Evaluate(nine))
}

func TestEvaluatePermutationInvariance(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 17))
	cards := []deck.Card{
		card(deck.Ace, deck.Spades), card(deck.Ace, deck.Hearts),
		card(deck.Nine, deck.Clubs), card(deck.Nine, deck.Diamonds),
		card(deck.Five, deck.Spades), card(deck.Four, deck.Hearts),
		card(deck.Two, deck.Clubs),
	}
	want := Evaluate(cards)

	for i := 0; i < 50; i++ {
		shuffled := make([]deck.Card, len(cards))
		copy(shuffled, cards)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, Evaluate(shuffled))
	}
}

func TestCompareAntisymmetry(t *testing.T) {
	hands := [][]deck.Card{
		{card(deck.Ace, deck.Spades), card(deck.King, deck.Hearts), card(deck.Nine, deck.Clubs), card(deck.Five, deck.Diamonds), card(deck.Two, deck.Spades)},
		{card(deck.King, deck.Spades), card(deck.King, deck.Clubs), card(deck.Nine, deck.Hearts), card(deck.Five, deck.Spades), card(deck.Two, deck.Hearts)},
		{card(deck.Nine, deck.Spades), card(deck.Eight, deck.Spades), card(deck.Seven, deck.Spades), card(deck.Six, deck.Spades), card(deck.Five, deck.Spades)},
		{card(deck.Ten, deck.Spades), card(deck.Ten, deck.Hearts), card(deck.Ten, deck.Clubs), card(deck.Four, deck.Diamonds), card(deck.Four, deck.Spades)},
	}

	for i := range hands {
		for j := range hands {
			a, b := Evaluate(hands[i]), Evaluate(hands[j])
			assert.Equal(t, Compare(a, b), -Compare(b, a))
			if i == j {
				assert.Equal(t, 0, Compare(a, b))
			}
		}
	}
}

func TestCompareKickers(t *testing.T) {
	a := Evaluate([]deck.Card{
		card(deck.King, deck.Spades), card(deck.King, deck.Hearts),
		card(deck.Ace, deck.Clubs), card(deck.Five, deck.Diamonds), card(deck.Two, deck.Spades),
	})
	b := Evaluate([]deck.Card{
		card(deck.King, deck.Clubs), card(deck.King, deck.Diamonds),
		card(deck.Queen, deck.Spades), card(deck.Five, deck.Hearts), card(deck.Two, deck.Clubs),
	})
	assert.Equal(t, 1, Compare(a, b))
}
