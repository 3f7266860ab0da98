package engine

import (
	"fmt"

	"github.com/lox/blackjack/internal/dealer"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/phase"
)

// StartNewRound clears the table for handCount hands. From gameOver it moves
// to betting; in betting it refunds any stakes and starts over. Called in any
// other phase it abandons the round, refunding outstanding bets.
func (e *Engine) StartNewRound(handCount int) error {
	if err := e.validHandCount(handCount); err != nil {
		return err
	}

	switch current := e.machine.Current(); current {
	case phase.GameOver:
		if _, err := e.machine.Transition(phase.Betting); err != nil {
			return err
		}
	case phase.Betting:
		e.refundOutstanding()
	default:
		e.logger.Warn("Abandoning round in progress", "round", e.roundID, "phase", current)
		e.refundOutstanding()
		e.machine.Reset()
	}

	e.resetRound(handCount)
	e.logger.Debug("New round", "round", e.roundID, "hands", handCount)
	e.commit("startNewRound")
	return nil
}

func (e *Engine) refundOutstanding() {
	refund := e.insuranceBet
	for _, s := range e.slots {
		refund += s.bet
		s.bet = 0
	}
	e.insuranceBet = 0
	if refund > 0 {
		_ = e.ledger.CancelBet(refund)
		e.logger.Debug("Refunded stakes", "amount", refund)
	}
}

func (e *Engine) bettingSlot(handIndex int) (*slot, error) {
	if handIndex < 0 || handIndex >= len(e.slots) {
		return nil, fmt.Errorf("hand %d of %d: %w", handIndex, len(e.slots), ErrInvalidHandIndex)
	}
	return e.slots[handIndex], nil
}

// PlaceBet adds amount to the stake on a hand, deducting it from the balance
func (e *Engine) PlaceBet(handIndex, amount int) error {
	if err := e.requireAction(phase.PlaceBet); err != nil {
		return err
	}
	s, err := e.bettingSlot(handIndex)
	if err != nil {
		return err
	}

	total := s.bet + amount
	if amount > 0 && (total < e.cfg.MinBet || (e.cfg.MaxBet > 0 && total > e.cfg.MaxBet)) {
		return fmt.Errorf("hand %d stake %d outside %d-%d: %w", handIndex, total, e.cfg.MinBet, e.cfg.MaxBet, ErrBetOutOfRange)
	}
	if _, err := e.ledger.PlaceBet(amount); err != nil {
		return err
	}

	s.bet = total
	e.commit(phase.PlaceBet.String())
	return nil
}

// RemoveBet returns a hand's whole stake to the balance
func (e *Engine) RemoveBet(handIndex int) error {
	if err := e.requireAction(phase.RemoveBet); err != nil {
		return err
	}
	s, err := e.bettingSlot(handIndex)
	if err != nil {
		return err
	}
	if s.bet == 0 {
		return nil
	}

	if err := e.ledger.CancelBet(s.bet); err != nil {
		return err
	}
	s.bet = 0
	e.commit(phase.RemoveBet.String())
	return nil
}

// SelectHandCount changes how many hands are played. Stakes on dropped hands
// are refunded.
func (e *Engine) SelectHandCount(n int) error {
	if err := e.requireAction(phase.SelectHandCount); err != nil {
		return err
	}
	if err := e.validHandCount(n); err != nil {
		return err
	}

	if n < len(e.slots) {
		for _, s := range e.slots[n:] {
			if s.bet > 0 {
				_ = e.ledger.CancelBet(s.bet)
			}
		}
		e.slots = e.slots[:n]
	}
	for len(e.slots) < n {
		e.slots = append(e.slots, newSlot())
	}

	e.commit(phase.SelectHandCount.String())
	return nil
}

// Deal deals two cards to every hand and the dealer, one at a time: each
// hand then the dealer's up-card, then each hand then the hole card. If the
// shoe runs out nothing changes.
func (e *Engine) Deal() error {
	if e.machine.Current() != phase.Betting {
		return e.notAllowed("deal", "")
	}
	for i, s := range e.slots {
		if s.bet == 0 {
			return e.notAllowed("deal", fmt.Sprintf("hand %d has no bet", i))
		}
	}

	shoe := e.deck.Clone()
	reshuffled := false
	if e.cfg.ReshuffleAt > 0 && shoe.Remaining() < e.cfg.ReshuffleAt {
		shoe.Reset()
		shoe.Shuffle()
		reshuffled = true
	}

	hands := make([]*hand.Hand, len(e.slots))
	for i := range hands {
		hands[i] = hand.New()
	}
	dealerHand := hand.New()
	for pass := 0; pass < 2; pass++ {
		for i, h := range hands {
			card, err := shoe.Deal()
			if err != nil {
				return fmt.Errorf("deal hand %d: %w", i, err)
			}
			h.AddCard(card)
		}
		card, err := shoe.Deal()
		if err != nil {
			return fmt.Errorf("deal dealer: %w", err)
		}
		dealerHand.AddCard(card)
	}

	e.deck = shoe
	e.reshuffle = reshuffled
	e.dealer = dealerHand
	for i, s := range e.slots {
		s.hand = hands[i]
		if s.isNatural() {
			s.standing = true
		}
	}
	if reshuffled {
		e.logger.Info("Shoe reshuffled", "cards", e.deck.Size())
	}

	if _, err := e.machine.Transition(phase.Dealing); err != nil {
		return err
	}

	up := e.dealer.Cards()[0]
	e.logger.Debug("Dealt", "round", e.roundID, "hands", len(e.slots), "up", up)
	if amount := e.InsuranceAmount(); up.IsAce() && amount > 0 && e.ledger.CanAfford(amount) {
		e.insuranceOffer = true
		if _, err := e.machine.Transition(phase.InsuranceCheck); err != nil {
			return err
		}
	} else if err := e.beginPlayerTurn(); err != nil {
		return err
	}

	e.commit("deal")
	return nil
}

// beginPlayerTurn enters playerTurn on the first hand still needing action,
// or passes straight to the dealer when there is none
func (e *Engine) beginPlayerTurn() error {
	if _, err := e.machine.Transition(phase.PlayerTurn); err != nil {
		return err
	}
	e.current = -1
	return e.advance()
}

// advance moves to the next hand needing action. Once every hand is
// terminal the index passes the last hand and the dealer plays.
func (e *Engine) advance() error {
	i := e.current
	if i < 0 {
		i = 0
	}
	for i < len(e.slots) && e.slots[i].terminal() {
		i++
	}
	e.current = i
	if i < len(e.slots) {
		return nil
	}
	_, err := e.machine.Transition(phase.DealerTurn)
	return err
}

// PlayDealerTurn reveals the hole card and draws to 17. If the shoe runs out
// the dealer is left untouched and the error returned.
func (e *Engine) PlayDealerTurn() error {
	if e.machine.Current() != phase.DealerTurn {
		return e.notAllowed("playDealerTurn", "")
	}

	dealerHand := e.dealer.Clone()
	shoe := e.deck.Clone()
	if err := dealer.PlayToCompletion(dealerHand, shoe); err != nil {
		return fmt.Errorf("dealer draw: %w", err)
	}

	e.dealer = dealerHand
	e.deck = shoe
	e.holeRevealed = true
	e.logger.Debug("Dealer stands", "hand", e.dealer, "value", e.dealer.Value())

	if _, err := e.machine.Transition(phase.Resolution); err != nil {
		return err
	}
	e.commit("playDealerTurn")
	return nil
}

// ResolveRound settles every hand and any insurance, then moves to gameOver
func (e *Engine) ResolveRound() ([]HandResult, error) {
	if e.machine.Current() != phase.Resolution {
		return nil, e.notAllowed("resolveRound", "")
	}

	results := make([]HandResult, 0, len(e.slots))
	net := 0
	for i, s := range e.slots {
		outcome, multiplier := settle(s, e.dealer)
		credit, err := e.ledger.Payout(s.bet, multiplier)
		if err != nil {
			return nil, fmt.Errorf("settle hand %d: %w", i, err)
		}
		r := HandResult{HandIndex: i, Outcome: outcome, Bet: s.bet, Payout: credit}
		net += r.Net()
		results = append(results, r)
	}

	if e.insuranceTaken {
		if e.dealer.IsBlackjack() {
			credit, err := e.ledger.Payout(e.insuranceBet, ledger.MultiplierInsurance)
			if err != nil {
				return nil, fmt.Errorf("settle insurance: %w", err)
			}
			e.insurancePayout = credit
		}
		net += e.insurancePayout - e.insuranceBet
	}

	e.results = results
	if _, err := e.machine.Transition(phase.GameOver); err != nil {
		return nil, err
	}

	e.logger.Info("Round resolved", "round", e.roundID, "net", net, "balance", e.ledger.Balance())
	state := e.commit("resolveRound")
	e.bus.publish(RoundResolvedEvent{
		RoundID:   e.roundID,
		Results:   append([]HandResult(nil), results...),
		Net:       net,
		State:     state,
		timestamp: e.clock.Now(),
	})
	return append([]HandResult(nil), results...), nil
}

// settle compares one hand with the dealer and returns the outcome and the
// multiplier credited against its stake
func settle(s *slot, dealerHand *hand.Hand) (Outcome, float64) {
	playerNatural := s.isNatural()
	dealerNatural := dealerHand.IsBlackjack()

	switch {
	case s.hand.IsBust():
		return OutcomeLose, ledger.MultiplierLoss
	case playerNatural && dealerNatural:
		return OutcomePush, ledger.MultiplierPush
	case playerNatural:
		return OutcomeBlackjack, ledger.MultiplierBlackjack
	case dealerNatural:
		return OutcomeLose, ledger.MultiplierLoss
	case dealerHand.IsBust():
		return OutcomeWin, ledger.MultiplierWin
	}

	player, house := s.hand.Value(), dealerHand.Value()
	switch {
	case player > house:
		return OutcomeWin, ledger.MultiplierWin
	case player < house:
		return OutcomeLose, ledger.MultiplierLoss
	default:
		return OutcomePush, ledger.MultiplierPush
	}
}
