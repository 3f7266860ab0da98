// Package ledger tracks the player's chip balance across rounds.
package ledger

import (
	"errors"
	"fmt"
	"math"
)

// Payout multipliers credited against the original stake. The stake is
// deducted when the bet is placed, so a win credits the stake plus winnings.
const (
	MultiplierLoss      = 0.0
	MultiplierPush      = 1.0
	MultiplierWin       = 2.0
	MultiplierBlackjack = 2.5 // stake back plus 3:2
	MultiplierInsurance = 2.0
)

// ErrInvalidAmount is returned for non-positive bets or negative payouts
var ErrInvalidAmount = errors.New("invalid amount")

// InsufficientFundsError is returned when a bet exceeds the balance
type InsufficientFundsError struct {
	Requested int
	Balance   int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: bet %d exceeds balance %d", e.Requested, e.Balance)
}

// Ledger holds the chip balance. Bets are deducted up front and payouts
// credit the balance; nothing is ever double-counted.
type Ledger struct {
	initial int
	balance int
}

// New creates a ledger with the given starting balance
func New(initial int) *Ledger {
	if initial < 0 {
		initial = 0
	}
	return &Ledger{initial: initial, balance: initial}
}

// Balance returns the current chip count
func (l *Ledger) Balance() int {
	return l.balance
}

// Initial returns the starting balance Reset restores
func (l *Ledger) Initial() int {
	return l.initial
}

// CanAfford reports whether amount can be staked
func (l *Ledger) CanAfford(amount int) bool {
	return amount <= l.balance
}

// PlaceBet deducts amount from the balance and returns it as the receipt
func (l *Ledger) PlaceBet(amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("bet %d: %w", amount, ErrInvalidAmount)
	}
	if !l.CanAfford(amount) {
		return 0, &InsufficientFundsError{Requested: amount, Balance: l.balance}
	}
	l.balance -= amount
	return amount, nil
}

// CancelBet credits a previously placed bet back to the balance
func (l *Ledger) CancelBet(amount int) error {
	if amount < 0 {
		return fmt.Errorf("cancel %d: %w", amount, ErrInvalidAmount)
	}
	l.balance += amount
	return nil
}

// Payout credits floor(amount*multiplier) and returns the credited chips
func (l *Ledger) Payout(amount int, multiplier float64) (int, error) {
	if amount < 0 || multiplier < 0 {
		return 0, fmt.Errorf("payout %d x %.2f: %w", amount, multiplier, ErrInvalidAmount)
	}
	credit := int(math.Floor(float64(amount) * multiplier))
	l.balance += credit
	return credit, nil
}

// Reset restores the starting balance
func (l *Ledger) Reset() {
	l.balance = l.initial
}

// Restore sets the balance to a previously saved value. The starting
// balance used by Reset is unchanged.
func (l *Ledger) Restore(balance int) error {
	if balance < 0 {
		return fmt.Errorf("restore %d: %w", balance, ErrInvalidAmount)
	}
	l.balance = balance
	return nil
}
