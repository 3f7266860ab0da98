// Package deck models cards and the multi-deck shoe they are dealt from.
package deck

import (
	"fmt"

	"github.com/lox/blackjack/internal/randutil"
)

// EmptyDeckError is returned when dealing from a deck with no cards left.
type EmptyDeckError struct {
	Dealt int
}

func (e *EmptyDeckError) Error() string {
	return fmt.Sprintf("deck is empty after %d cards dealt", e.Dealt)
}

// Deck is an ordered shoe of one or more 52-card decks. Cards are dealt from
// the front of the live order; the original order is kept for Reset.
type Deck struct {
	original []Card
	cards    []Card
	rng      *randutil.Source
}

// New builds a shoe of deckCount full decks in suit/rank order. It is not
// shuffled; call Shuffle before play.
func New(deckCount int, rng *randutil.Source) *Deck {
	if deckCount < 1 {
		deckCount = 1
	}

	original := make([]Card, 0, 52*deckCount)
	for n := 0; n < deckCount; n++ {
		for _, suit := range Suits {
			for _, rank := range Ranks {
				original = append(original, NewCard(suit, rank))
			}
		}
	}

	d := &Deck{original: original, rng: rng}
	d.Reset()
	return d
}

// NewStacked builds a deck that deals cards in exactly the given order.
func NewStacked(cards ...Card) *Deck {
	d := &Deck{original: append([]Card(nil), cards...)}
	d.Reset()
	return d
}

// Shuffle permutes the live cards. The stored original order is unchanged.
func (d *Deck) Shuffle() {
	if d.rng == nil {
		return
	}
	randutil.Shuffle(d.rng, d.cards)
}

// Deal removes and returns the next card.
func (d *Deck) Deal() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, &EmptyDeckError{Dealt: len(d.original)}
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, nil
}

// Peek returns the next card without dealing it
func (d *Deck) Peek() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return d.cards[0], true
}

// Remaining returns the number of cards left to deal
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Size returns the number of cards in a full shoe
func (d *Deck) Size() int {
	return len(d.original)
}

// Reset restores the live order to the original, unshuffled order.
func (d *Deck) Reset() {
	d.cards = make([]Card, len(d.original))
	copy(d.cards, d.original)
}

// Clone returns an independent copy sharing only the random source.
func (d *Deck) Clone() *Deck {
	return &Deck{
		original: d.original,
		cards:    append([]Card(nil), d.cards...),
		rng:      d.rng,
	}
}
