package deck

import "fmt"

// Suit represents a card suit. The wire protocol uses single upper-case
// letters, so String returns C/D/H/S rather than glyphs.
type Suit int

const (
	Clubs Suit = iota
	Hearts
	Diamonds
	Spades
)

// String returns the wire representation of a suit
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "C"
	case Hearts:
		return "H"
	case Diamonds:
		return "D"
	case Spades:
		return "S"
	default:
		return "?"
	}
}

// Rank represents a card rank
type Rank int

const (
	Ace Rank = iota + 1
	Two
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
)

// String returns the wire representation of a rank
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		if r >= Two && r <= Nine {
			return string(rune('0' + int(r)))
		}
		return "?"
	}
}

// Value returns the blackjack value of the rank: face cards count ten and an
// Ace counts one. Promoting Aces to eleven is a property of a whole hand, not
// of a card, and is handled by the hand valuation.
func (r Rank) Value() int {
	if r >= Ten {
		return 10
	}
	return int(r)
}

// Card represents a playing card
type Card struct {
	Rank Rank
	Suit Suit
}

// String returns the two-character wire form of a card (e.g. "AS", "TC")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Value returns the blackjack value of the card
func (c Card) Value() int {
	return c.Rank.Value()
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// ParseCard parses a two-character card like "AS" or "tc" (case-insensitive)
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("card must be two characters, got %q", s)
	}

	var rank Rank
	switch upper(s[0]) {
	case 'A':
		rank = Ace
	case '2', '3', '4', '5', '6', '7', '8', '9':
		rank = Rank(upper(s[0]) - '0')
	case 'T':
		rank = Ten
	case 'J':
		rank = Jack
	case 'Q':
		rank = Queen
	case 'K':
		rank = King
	default:
		return Card{}, fmt.Errorf("invalid rank %q in card %q", s[0], s)
	}

	var suit Suit
	switch upper(s[1]) {
	case 'C':
		suit = Clubs
	case 'H':
		suit = Hearts
	case 'D':
		suit = Diamonds
	case 'S':
		suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid suit %q in card %q", s[1], s)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// ParseCards parses a concatenated run of two-character cards, e.g. "AS5HTC"
func ParseCards(s string) ([]Card, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("card string %q has odd length", s)
	}
	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		card, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
