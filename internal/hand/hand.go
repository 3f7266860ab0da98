// Package hand values a blackjack hand.
package hand

import (
	"strings"

	"github.com/lox/blackjack/internal/deck"
)

// Blackjack is the best possible hand value
const Blackjack = 21

// Hand is an append-only sequence of cards. Derived values are computed on
// read so they can never drift from the cards held.
type Hand struct {
	cards []deck.Card
}

// New returns a hand holding the given cards
func New(cards ...deck.Card) *Hand {
	return &Hand{cards: append([]deck.Card(nil), cards...)}
}

// AddCard appends a card to the hand
func (h *Hand) AddCard(c deck.Card) {
	h.cards = append(h.cards, c)
}

// Cards returns a copy of the cards held
func (h *Hand) Cards() []deck.Card {
	out := make([]deck.Card, len(h.cards))
	copy(out, h.cards)
	return out
}

// Len returns the number of cards held
func (h *Hand) Len() int {
	return len(h.cards)
}

// Value returns the best total. Every ace counts 1, then one ace is promoted
// to 11 if that does not push the total past 21.
func (h *Hand) Value() int {
	total, _ := h.evaluate()
	return total
}

// IsSoft reports whether the hand's only ace is counted as 11. A hand with
// several aces can never count all of them as 11, so it is reported hard.
func (h *Hand) IsSoft() bool {
	_, soft := h.evaluate()
	return soft
}

// HardValue returns the total with every ace counted as 1
func (h *Hand) HardValue() int {
	total := 0
	for _, c := range h.cards {
		total += c.Rank.Points()
	}
	return total
}

// IsBust reports whether the hand is over 21
func (h *Hand) IsBust() bool {
	return h.Value() > Blackjack
}

// IsBlackjack reports a two-card 21
func (h *Hand) IsBlackjack() bool {
	return len(h.cards) == 2 && h.Value() == Blackjack
}

// CanSplit reports a two-card hand of identical rank. A king and a jack are
// both worth 10 but are not a pair.
func (h *Hand) CanSplit() bool {
	return len(h.cards) == 2 && h.cards[0].Rank == h.cards[1].Rank
}

// Clone returns an independent copy
func (h *Hand) Clone() *Hand {
	return New(h.cards...)
}

// String formats the hand as "[A♥ K♣] 21"
func (h *Hand) String() string {
	parts := make([]string, len(h.cards))
	for i, c := range h.cards {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (h *Hand) evaluate() (int, bool) {
	total := 0
	aces := 0
	for _, c := range h.cards {
		total += c.Rank.Points()
		if c.IsAce() {
			aces++
		}
	}
	if aces > 0 && total <= 11 {
		return total + 10, aces == 1
	}
	return total, false
}
