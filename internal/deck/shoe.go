package deck

import rand "math/rand/v2"

// Shoe is a multi-deck card source. Draw pops from the back so that a rigged
// test sequence can be appended in reverse. The shoe itself is not
// goroutine-safe; during the Act phase the table serializes draws under its
// own lock.
type Shoe struct {
	cards []Card
	decks int
	rng   *rand.Rand
}

// NewShoe builds a freshly shuffled shoe holding decks copies of the 52-card
// set, permuted with rng.
func NewShoe(decks int, rng *rand.Rand) *Shoe {
	s := &Shoe{rng: rng}
	s.Reshuffle(decks)
	return s
}

// Reshuffle rebuilds the shoe with decks copies of the 52-card set, uniformly
// permuted.
func (s *Shoe) Reshuffle(decks int) {
	s.decks = decks
	s.cards = s.cards[:0]
	for d := 0; d < decks; d++ {
		for rank := Ace; rank <= King; rank++ {
			for suit := Clubs; suit <= Spades; suit++ {
				s.cards = append(s.cards, Card{Rank: rank, Suit: suit})
			}
		}
	}
	s.rng.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
}

// MaybeReshuffle applies the round-start reshuffle policy: rebuild when the
// shoe has dropped below minPercent of its full size or cannot guarantee
// eleven cards per player. The rebuilt shoe sizes itself to the table, one
// deck per eight players rounded half to even, never fewer than minDecks.
// Returns true if a reshuffle happened.
func (s *Shoe) MaybeReshuffle(players, minDecks, minPercent int) bool {
	ideal := players / 8
	if rem := players % 8; rem > 4 || (rem == 4 && ideal%2 == 1) {
		ideal++
	}
	if ideal < minDecks {
		ideal = minDecks
	}

	if len(s.cards) < s.decks*52*minPercent/100 || len(s.cards) < players*11 {
		s.Reshuffle(ideal)
		return true
	}
	return false
}

// Draw pops one card from the shoe. The reshuffle policy guarantees enough
// cards for a full round, so an empty shoe is an internal invariant violation.
func (s *Shoe) Draw() Card {
	if len(s.cards) == 0 {
		panic("deck: draw from empty shoe")
	}
	c := s.cards[len(s.cards)-1]
	s.cards = s.cards[:len(s.cards)-1]
	return c
}

// Len returns the number of cards left in the shoe
func (s *Shoe) Len() int {
	return len(s.cards)
}

// Decks returns the number of decks the shoe was last built from
func (s *Shoe) Decks() int {
	return s.decks
}

// Stack arranges the shoe so the given cards are drawn next, in order. Cards
// already in the shoe are drawn after the stacked run. Test support for
// deterministic deals.
func (s *Shoe) Stack(cards ...Card) {
	for i := len(cards) - 1; i >= 0; i-- {
		s.cards = append(s.cards, cards[i])
	}
}
