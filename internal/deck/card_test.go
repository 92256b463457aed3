package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardString(t *testing.T) {
	assert.Equal(t, "A♠", NewCard(Ace, Spades).String())
	assert.Equal(t, "10♥", NewCard(Ten, Hearts).String())
	assert.Equal(t, "2♦", NewCard(Two, Diamonds).String())
}

func TestCardJSON(t *testing.T) {
	data, err := json.Marshal(NewCard(Ace, Spades))
	require.NoError(t, err)
	assert.JSONEq(t, `{"rank":"A","suit":"S","display":"AS"}`, string(data))

	data, err = json.Marshal(NewCard(Ten, Clubs))
	require.NoError(t, err)
	assert.JSONEq(t, `{"rank":"10","suit":"C","display":"10C"}`, string(data))

	var c Card
	require.NoError(t, json.Unmarshal([]byte(`{"rank":"K","suit":"H"}`), &c))
	assert.Equal(t, NewCard(King, Hearts), c)

	assert.Error(t, json.Unmarshal([]byte(`{"rank":"1","suit":"H"}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"rank":"K","suit":"X"}`), &c))
}

func TestCardDisplayOrder(t *testing.T) {
	// Rank descending, then spades > hearts > clubs > diamonds.
	assert.True(t, NewCard(Ace, Diamonds).Less(NewCard(King, Spades)))
	assert.True(t, NewCard(Queen, Spades).Less(NewCard(Queen, Hearts)))
	assert.True(t, NewCard(Queen, Hearts).Less(NewCard(Queen, Clubs)))
	assert.True(t, NewCard(Queen, Clubs).Less(NewCard(Queen, Diamonds)))
}

func TestDeckDealsUniqueCards(t *testing.T) {
	d := NewSeeded(1)
	d.Shuffle()

	seen := make(map[Card]bool)
	for i := 0; i < 52; i++ {
		card, ok := d.Deal()
		require.True(t, ok)
		assert.False(t, seen[card], "duplicate card %s", card)
		seen[card] = true
	}
	assert.Equal(t, 52, len(seen))

	_, ok := d.Deal()
	assert.False(t, ok)
}

func TestDeckSeededShuffleIsDeterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	a.Shuffle()
	b.Shuffle()

	for i := 0; i < 52; i++ {
		ca, _ := a.Deal()
		cb, _ := b.Deal()
		assert.Equal(t, ca, cb)
	}
}

func TestDeckBurn(t *testing.T) {
	d := NewSeeded(7)
	d.Burn()
	assert.Equal(t, 51, d.Remaining())

	cards := d.DealN(3)
	assert.Len(t, cards, 3)
	assert.Equal(t, 48, d.Remaining())

	d.Reset()
	assert.Equal(t, 52, d.Remaining())
}
