package deck

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// Suits lists every suit in shoe construction order
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// String returns the suit symbol
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// Name returns the lower-case suit name used in serialized state
func (s Suit) Name() string {
	switch s {
	case Hearts:
		return "hearts"
	case Diamonds:
		return "diamonds"
	case Clubs:
		return "clubs"
	case Spades:
		return "spades"
	default:
		return "unknown"
	}
}

// IsRed returns true for hearts and diamonds
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank
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

// Ranks lists every rank from Two to Ace
var Ranks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// String returns the rank label ("2".."10", "J", "Q", "K", "A")
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Ten:
		return fmt.Sprintf("%d", int(r))
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

// Points returns the blackjack value of the rank with aces counted as 1.
func (r Rank) Points() int {
	switch {
	case r == Ace:
		return 1
	case r >= Ten:
		return 10
	default:
		return int(r)
	}
}

// Card is an immutable playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// ID identifies the card within one 52-card set, e.g. "hearts-A"
func (c Card) ID() string {
	return c.Suit.Name() + "-" + c.Rank.String()
}

// String returns the display form, e.g. "A♥"
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// IsValid reports whether suit and rank are both in range
func (c Card) IsValid() bool {
	return c.Suit >= Hearts && c.Suit <= Spades && c.Rank >= Two && c.Rank <= Ace
}

type cardJSON struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// MarshalJSON encodes the card as {"suit":"hearts","rank":"A"}
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{Suit: c.Suit.Name(), Rank: c.Rank.String()})
}

// UnmarshalJSON decodes the {"suit","rank"} projection
func (c *Card) UnmarshalJSON(data []byte) error {
	var raw cardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	suit, ok := suitByName[raw.Suit]
	if !ok {
		return fmt.Errorf("invalid suit: %q", raw.Suit)
	}
	rank, ok := rankByLabel[strings.ToUpper(raw.Rank)]
	if !ok {
		return fmt.Errorf("invalid rank: %q", raw.Rank)
	}
	*c = Card{Suit: suit, Rank: rank}
	return nil
}

var suitByName = map[string]Suit{
	"hearts":   Hearts,
	"diamonds": Diamonds,
	"clubs":    Clubs,
	"spades":   Spades,
}

var rankByLabel = map[string]Rank{
	"2": Two, "3": Three, "4": Four, "5": Five, "6": Six, "7": Seven,
	"8": Eight, "9": Nine, "10": Ten, "T": Ten, "J": Jack, "Q": Queen,
	"K": King, "A": Ace,
}

// ParseCard parses a short card string like "Ah", "Td" or "10d"
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || len(s) > 3 {
		return Card{}, fmt.Errorf("invalid card string: %q", s)
	}

	rank, ok := rankByLabel[strings.ToUpper(s[:len(s)-1])]
	if !ok {
		return Card{}, fmt.Errorf("invalid rank in %q", s)
	}

	var suit Suit
	switch s[len(s)-1] {
	case 'h', 'H':
		suit = Hearts
	case 'd', 'D':
		suit = Diamonds
	case 'c', 'C':
		suit = Clubs
	case 's', 'S':
		suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid suit in %q", s)
	}

	return NewCard(suit, rank), nil
}

// ParseCards parses a whitespace separated list such as "9h 5s 6c Td"
func ParseCards(s string) ([]Card, error) {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is like ParseCards but panics on error. Intended for tests.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}
