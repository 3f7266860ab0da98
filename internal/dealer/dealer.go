// Package dealer implements the house drawing rule: hit 16 or less, stand on
// every 17 including soft 17.
package dealer

import (
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
)

// StandValue is the lowest total the dealer stands on
const StandValue = 17

// ShouldHit reports whether the dealer must draw
func ShouldHit(h *hand.Hand) bool {
	return h.Value() < StandValue
}

// PlayToCompletion draws from d into h until the dealer stands. An empty deck
// error is returned as-is; cards drawn before it stay in h.
func PlayToCompletion(h *hand.Hand, d *deck.Deck) error {
	for ShouldHit(h) {
		card, err := d.Deal()
		if err != nil {
			return err
		}
		h.AddCard(card)
	}
	return nil
}
