// Package poker ranks Pineapple hold'em hands. Input is the combined set
// of a seat's hole cards and the community cards, anywhere from 2 cards
// (preflop heads-up reads) to 8 (3 hole + 5 board).
package poker

import (
	"fmt"
	"sort"

	"github.com/c32poker/pineapple/internal/deck"
)

// Category is the hand category, ascending in strength.
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	Trips
	Straight
	Flush
	FullHouse
	Quads
	StraightFlush
)

// String returns the display name of a category.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case Trips:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case Quads:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Rank is the evaluated strength of a hand. Values carry the category's
// defining ranks (pair rank, straight high, flush ranks); Kickers break
// remaining ties. Both compare lexicographically.
type Rank struct {
	Category Category `json:"category"`
	Values   []int    `json:"values"`
	Kickers  []int    `json:"kickers"`
	Desc     string   `json:"description"`
}

// Evaluate ranks a combined card set of 2 to 8 cards. Out-of-range input
// yields a zero HighCard rank rather than an error; the table engine
// never needs to handle an evaluator failure.
func Evaluate(cards []deck.Card) Rank {
	if len(cards) < 2 || len(cards) > 8 {
		return Rank{Category: HighCard, Values: []int{0}, Desc: "High Card"}
	}

	rankCount := make(map[int]int)
	suitCount := make(map[deck.Suit]int)
	suitRanks := make(map[deck.Suit][]int)
	for _, c := range cards {
		v := c.Value()
		rankCount[v]++
		suitCount[c.Suit]++
		suitRanks[c.Suit] = append(suitRanks[c.Suit], v)
	}

	values := make([]int, 0, len(rankCount))
	for v := range rankCount {
		values = append(values, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))

	flushSuit, hasFlush := deck.Spades, false
	for suit, n := range suitCount {
		if n >= 5 {
			flushSuit, hasFlush = suit, true
			break
		}
	}

	straightHigh, hasStraight := findStraight(values)

	if hasFlush {
		if high, ok := findStraight(uniqueDesc(suitRanks[flushSuit])); ok {
			desc := fmt.Sprintf("Straight Flush, %s high", rankName(high))
			if high == int(deck.Ace) {
				desc = "Royal Flush"
			}
			return Rank{Category: StraightFlush, Values: []int{high}, Desc: desc}
		}
	}

	quad, trips, pairs := groupRanks(rankCount)

	switch {
	case quad != 0:
		kicker := bestExcluding(values, quad, 1)
		return Rank{
			Category: Quads,
			Values:   []int{quad},
			Kickers:  kicker,
			Desc:     fmt.Sprintf("Four of a Kind, %ss", rankName(quad)),
		}
	case len(trips) > 0 && (len(trips) > 1 || len(pairs) > 0):
		// Two sets of trips also read as a full house.
		over := trips[0]
		under := 0
		if len(trips) > 1 {
			under = trips[1]
		}
		if len(pairs) > 0 && pairs[0] > under {
			under = pairs[0]
		}
		return Rank{
			Category: FullHouse,
			Values:   []int{over, under},
			Desc:     fmt.Sprintf("Full House, %ss over %ss", rankName(over), rankName(under)),
		}
	case hasFlush:
		top := uniqueDesc(suitRanks[flushSuit])
		if len(top) > 5 {
			top = top[:5]
		}
		return Rank{
			Category: Flush,
			Values:   top,
			Desc:     fmt.Sprintf("Flush, %s high", rankName(top[0])),
		}
	case hasStraight:
		return Rank{
			Category: Straight,
			Values:   []int{straightHigh},
			Desc:     fmt.Sprintf("Straight, %s high", rankName(straightHigh)),
		}
	case len(trips) > 0:
		return Rank{
			Category: Trips,
			Values:   []int{trips[0]},
			Kickers:  bestExcluding(values, trips[0], 2),
			Desc:     fmt.Sprintf("Three of a Kind, %ss", rankName(trips[0])),
		}
	case len(pairs) >= 2:
		kickers := make([]int, 0, 1)
		for _, v := range values {
			if v != pairs[0] && v != pairs[1] {
				kickers = append(kickers, v)
				break
			}
		}
		return Rank{
			Category: TwoPair,
			Values:   []int{pairs[0], pairs[1]},
			Kickers:  kickers,
			Desc:     fmt.Sprintf("Two Pair, %ss and %ss", rankName(pairs[0]), rankName(pairs[1])),
		}
	case len(pairs) == 1:
		return Rank{
			Category: OnePair,
			Values:   []int{pairs[0]},
			Kickers:  bestExcluding(values, pairs[0], 3),
			Desc:     fmt.Sprintf("Pair of %ss", rankName(pairs[0])),
		}
	default:
		kickers := values
		if len(kickers) > 5 {
			kickers = kickers[:5]
		}
		return Rank{
			Category: HighCard,
			Values:   []int{kickers[0]},
			Kickers:  kickers[1:],
			Desc:     fmt.Sprintf("High Card %s", rankName(kickers[0])),
		}
	}
}

// Compare returns 1 if a beats b, -1 if b beats a, 0 on a tie.
func Compare(a, b Rank) int {
	if a.Category != b.Category {
		if a.Category > b.Category {
			return 1
		}
		return -1
	}
	if c := compareInts(a.Values, b.Values); c != 0 {
		return c
	}
	return compareInts(a.Kickers, b.Kickers)
}

func compareInts(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return 1
			}
			return -1
		}
	}
	if len(a) != len(b) {
		// A longer kicker vector only occurs with fewer input cards;
		// missing kickers lose to present ones.
		if len(a) > len(b) {
			return 1
		}
		return -1
	}
	return 0
}

// findStraight scans unique descending values for a run of 5.
// The wheel (A-2-3-4-5) counts with a high of 5.
func findStraight(unique []int) (int, bool) {
	if len(unique) < 5 {
		return 0, false
	}
	for i := 0; i+4 < len(unique); i++ {
		if unique[i]-unique[i+4] == 4 {
			return unique[i], true
		}
	}
	if unique[0] == int(deck.Ace) {
		wheel := []int{5, 4, 3, 2}
		have := make(map[int]bool, len(unique))
		for _, v := range unique {
			have[v] = true
		}
		for _, v := range wheel {
			if !have[v] {
				return 0, false
			}
		}
		return 5, true
	}
	return 0, false
}

func uniqueDesc(vals []int) []int {
	seen := make(map[int]bool, len(vals))
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// groupRanks splits rank counts into the best quad, trips (descending)
// and pairs (descending).
func groupRanks(rankCount map[int]int) (quad int, trips []int, pairs []int) {
	for v, n := range rankCount {
		switch {
		case n >= 4:
			if v > quad {
				quad = v
			}
		case n == 3:
			trips = append(trips, v)
		case n == 2:
			pairs = append(pairs, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(trips)))
	sort.Sort(sort.Reverse(sort.IntSlice(pairs)))
	return quad, trips, pairs
}

func bestExcluding(values []int, exclude, n int) []int {
	out := make([]int, 0, n)
	for _, v := range values {
		if v == exclude {
			continue
		}
		out = append(out, v)
		if len(out) == n {
			break
		}
	}
	return out
}

func rankName(v int) string {
	return deck.Rank(v).String()
}
