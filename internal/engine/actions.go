package engine

import (
	"fmt"
	"slices"

	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/phase"
)

// Player decisions return (false, nil) when the action is refused by the
// table rules for that hand (wrong hand, hand already finished, cannot
// afford), and an error only when the call itself is invalid or the shoe
// cannot supply a card.

// activeSlot returns the hand awaiting action if handIndex names it
func (e *Engine) activeSlot(handIndex int) (*slot, bool) {
	if handIndex != e.current || handIndex < 0 || handIndex >= len(e.slots) {
		return nil, false
	}
	s := e.slots[handIndex]
	if s.terminal() {
		return nil, false
	}
	return s, true
}

// Hit draws one card to the current hand. A bust ends the hand.
func (e *Engine) Hit(handIndex int) (bool, error) {
	if err := e.requireAction(phase.Hit); err != nil {
		return false, err
	}
	s, ok := e.activeSlot(handIndex)
	if !ok {
		return false, nil
	}

	card, err := e.deck.Deal()
	if err != nil {
		return false, fmt.Errorf("hit hand %d: %w", handIndex, err)
	}
	s.hand.AddCard(card)
	if s.hand.IsBust() {
		s.standing = true
		e.logger.Debug("Hand bust", "hand", handIndex, "cards", s.hand)
	}

	if err := e.advance(); err != nil {
		return false, err
	}
	e.commit(phase.Hit.String())
	return true, nil
}

// Stand ends the current hand
func (e *Engine) Stand(handIndex int) (bool, error) {
	if err := e.requireAction(phase.Stand); err != nil {
		return false, err
	}
	s, ok := e.activeSlot(handIndex)
	if !ok {
		return false, nil
	}

	s.standing = true
	if err := e.advance(); err != nil {
		return false, err
	}
	e.commit(phase.Stand.String())
	return true, nil
}

// CanDoubleDown reports whether the hand may double: its first two cards,
// not from split aces, with the balance to match the stake
func (e *Engine) CanDoubleDown(handIndex int) bool {
	if !e.machine.IsActionAllowed(phase.DoubleDown) {
		return false
	}
	s, ok := e.activeSlot(handIndex)
	if !ok {
		return false
	}
	return s.hand.Len() == 2 && !s.splitAces && e.ledger.CanAfford(s.bet)
}

// DoubleDown doubles the stake, draws exactly one card and ends the hand
func (e *Engine) DoubleDown(handIndex int) (bool, error) {
	if err := e.requireAction(phase.DoubleDown); err != nil {
		return false, err
	}
	if !e.CanDoubleDown(handIndex) {
		return false, nil
	}
	s := e.slots[handIndex]

	shoe := e.deck.Clone()
	card, err := shoe.Deal()
	if err != nil {
		return false, fmt.Errorf("double hand %d: %w", handIndex, err)
	}
	if _, err := e.ledger.PlaceBet(s.bet); err != nil {
		return false, err
	}

	e.deck = shoe
	s.bet *= 2
	s.hand.AddCard(card)
	s.doubled = true
	s.standing = true
	e.logger.Debug("Doubled down", "hand", handIndex, "bet", s.bet, "cards", s.hand)

	if err := e.advance(); err != nil {
		return false, err
	}
	e.commit(phase.DoubleDown.String())
	return true, nil
}

// CanSplit reports whether the current hand is a splittable pair the player
// can afford without passing MaxHands
func (e *Engine) CanSplit(handIndex int) bool {
	if !e.machine.IsActionAllowed(phase.Split) {
		return false
	}
	s, ok := e.activeSlot(handIndex)
	if !ok {
		return false
	}
	return s.hand.CanSplit() &&
		!s.splitAces &&
		len(e.slots) < MaxHands &&
		e.ledger.CanAfford(s.bet)
}

// Split turns a pair into two hands with equal stakes, dealing one new card
// to each. Split aces receive their one card and stand.
func (e *Engine) Split(handIndex int) (bool, error) {
	if err := e.requireAction(phase.Split); err != nil {
		return false, err
	}
	if !e.CanSplit(handIndex) {
		return false, nil
	}
	s := e.slots[handIndex]

	shoe := e.deck.Clone()
	first, err := shoe.Deal()
	if err != nil {
		return false, fmt.Errorf("split hand %d: %w", handIndex, err)
	}
	second, err := shoe.Deal()
	if err != nil {
		return false, fmt.Errorf("split hand %d: %w", handIndex, err)
	}
	if _, err := e.ledger.PlaceBet(s.bet); err != nil {
		return false, err
	}

	e.deck = shoe
	pair := s.hand.Cards()
	aces := pair[0].IsAce()
	left := &slot{hand: hand.New(pair[0], first), bet: s.bet, fromSplit: true, splitAces: aces, standing: aces}
	right := &slot{hand: hand.New(pair[1], second), bet: s.bet, fromSplit: true, splitAces: aces, standing: aces}
	e.slots[handIndex] = left
	e.slots = slices.Insert(e.slots, handIndex+1, right)
	e.logger.Debug("Split", "hand", handIndex, "left", left.hand, "right", right.hand, "aces", aces)

	if err := e.advance(); err != nil {
		return false, err
	}
	e.commit(phase.Split.String())
	return true, nil
}

// InsuranceAmount is the side bet offered against a dealer ace: half the
// first hand's stake, rounded down
func (e *Engine) InsuranceAmount() int {
	if len(e.slots) == 0 {
		return 0
	}
	return e.slots[0].bet / 2
}

// TakeInsurance stakes InsuranceAmount and continues to the player's turn
func (e *Engine) TakeInsurance() error {
	if err := e.requireAction(phase.AcceptInsurance); err != nil {
		return err
	}
	amount := e.InsuranceAmount()
	if _, err := e.ledger.PlaceBet(amount); err != nil {
		return fmt.Errorf("insurance: %w", err)
	}

	e.insuranceTaken = true
	e.insuranceBet = amount
	if err := e.beginPlayerTurn(); err != nil {
		return err
	}
	e.commit(phase.AcceptInsurance.String())
	return nil
}

// DeclineInsurance continues to the player's turn without a side bet
func (e *Engine) DeclineInsurance() error {
	if err := e.requireAction(phase.DeclineInsurance); err != nil {
		return err
	}
	if err := e.beginPlayerTurn(); err != nil {
		return err
	}
	e.commit(phase.DeclineInsurance.String())
	return nil
}
