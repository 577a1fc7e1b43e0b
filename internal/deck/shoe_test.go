package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackforbots/internal/randutil"
)

func TestShoeComposition(t *testing.T) {
	for _, decks := range []int{1, 2, 6} {
		shoe := NewShoe(decks, randutil.New(42))
		require.Equal(t, decks*52, shoe.Len())
		require.Equal(t, decks, shoe.Decks())

		// Drawing everything must yield exactly decks copies of each card.
		counts := make(map[Card]int)
		for shoe.Len() > 0 {
			counts[shoe.Draw()]++
		}
		assert.Len(t, counts, 52)
		for card, n := range counts {
			assert.Equal(t, decks, n, "card %v", card)
		}
	}
}

func TestShoeShuffleDeterministic(t *testing.T) {
	a := NewShoe(6, randutil.New(7))
	b := NewShoe(6, randutil.New(7))
	for a.Len() > 0 {
		require.Equal(t, a.Draw(), b.Draw())
	}
}

func TestShoeStackDrawOrder(t *testing.T) {
	shoe := NewShoe(1, randutil.New(1))
	cards, err := ParseCards("ASTC9H7D")
	require.NoError(t, err)

	shoe.Stack(cards...)
	for _, want := range cards {
		assert.Equal(t, want, shoe.Draw())
	}
}

func TestMaybeReshuffle(t *testing.T) {
	const minDecks, minPercent = 6, 20

	t.Run("no reshuffle on full shoe", func(t *testing.T) {
		shoe := NewShoe(6, randutil.New(3))
		assert.False(t, shoe.MaybeReshuffle(4, minDecks, minPercent))
		assert.Equal(t, 6*52, shoe.Len())
	})

	t.Run("reshuffle below min percent", func(t *testing.T) {
		shoe := NewShoe(6, randutil.New(3))
		// 20% of 312 is 62; draw down to 61 cards.
		for shoe.Len() > 61 {
			shoe.Draw()
		}
		assert.True(t, shoe.MaybeReshuffle(1, minDecks, minPercent))
		assert.Equal(t, 6*52, shoe.Len())
	})

	t.Run("reshuffle when too few cards per player", func(t *testing.T) {
		shoe := NewShoe(6, randutil.New(3))
		// 100 cards is above 20% but below 11 cards for ten players.
		for shoe.Len() > 100 {
			shoe.Draw()
		}
		assert.True(t, shoe.MaybeReshuffle(10, minDecks, minPercent))
	})

	t.Run("boundary holds at exactly the threshold", func(t *testing.T) {
		shoe := NewShoe(6, randutil.New(3))
		for shoe.Len() > 66 {
			shoe.Draw()
		}
		// 66 >= 62 and 66 >= 11*6, so no reshuffle for six players.
		assert.False(t, shoe.MaybeReshuffle(6, minDecks, minPercent))
		assert.Equal(t, 66, shoe.Len())
	})

	t.Run("deck count grows with player count", func(t *testing.T) {
		shoe := NewShoe(6, randutil.New(3))
		for shoe.Len() > 10 {
			shoe.Draw()
		}
		require.True(t, shoe.MaybeReshuffle(80, minDecks, minPercent))
		assert.Equal(t, 10, shoe.Decks())
	})

	t.Run("halfway deck counts round to even", func(t *testing.T) {
		tests := []struct {
			players int
			decks   int
		}{
			{20, 2}, // 2.5 rounds down to even 2
			{12, 2}, // 1.5 rounds up to even 2
			{28, 4}, // 3.5 rounds up to even 4
			{5, 1},  // 0.625 rounds to 1
		}
		for _, tt := range tests {
			shoe := NewShoe(1, randutil.New(3))
			for shoe.Len() > 1 {
				shoe.Draw()
			}
			require.True(t, shoe.MaybeReshuffle(tt.players, 1, minPercent))
			assert.Equal(t, tt.decks, shoe.Decks(), "players %d", tt.players)
		}
	})
}
