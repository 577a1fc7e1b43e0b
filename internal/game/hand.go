package game

import (
	"strings"

	"github.com/lox/blackjackforbots/internal/deck"
)

// HandStatus tracks the lifecycle of a single hand. On the wire a closed hand
// carries a trailing marker character ("." stood, "+" doubled down); an open
// hand is just its cards. The marker is appended at serialization time only.
type HandStatus int

const (
	// HandOpen means the hand still needs to be acted on.
	HandOpen HandStatus = iota
	// HandStood means the hand was completed by standing or busting.
	HandStood
	// HandDoubled means the hand was completed by a double-down.
	HandDoubled
)

// Hand is an ordered run of cards plus its status.
type Hand struct {
	Cards  []deck.Card
	Status HandStatus
}

// NewHand creates an open hand holding the given cards.
func NewHand(cards ...deck.Card) *Hand {
	return &Hand{Cards: cards}
}

// Add appends a drawn card.
func (h *Hand) Add(c deck.Card) {
	h.Cards = append(h.Cards, c)
}

// Open reports whether the hand still needs to be acted on.
func (h *Hand) Open() bool {
	return h.Status == HandOpen
}

// Value returns the blackjack value of the hand. Each Ace counts one, then is
// promoted to eleven while the total stays at or below 21.
func (h *Hand) Value() int {
	return HandValue(h.Cards)
}

// HandValue computes the blackjack value of a run of cards.
func HandValue(cards []deck.Card) int {
	total := 0
	aces := 0
	for _, c := range cards {
		if c.IsAce() {
			aces++
		}
		total += c.Value()
	}
	for i := 0; i < aces; i++ {
		if total+10 <= 21 {
			total += 10
		}
	}
	return total
}

// String returns the wire form of the hand: concatenated two-character cards
// followed by the status marker when the hand is closed.
func (h *Hand) String() string {
	var b strings.Builder
	for _, c := range h.Cards {
		b.WriteString(c.String())
	}
	switch h.Status {
	case HandStood:
		b.WriteByte('.')
	case HandDoubled:
		b.WriteByte('+')
	}
	return b.String()
}
