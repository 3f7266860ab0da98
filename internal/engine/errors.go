package engine

import (
	"errors"
	"fmt"

	"github.com/lox/blackjack/internal/phase"
)

var (
	// ErrInvalidHandIndex is returned when a betting action names a hand
	// that does not exist this round
	ErrInvalidHandIndex = errors.New("invalid hand index")
	// ErrInvalidHandCount is returned for hand counts outside 1..MaxHands
	ErrInvalidHandCount = errors.New("invalid hand count")
	// ErrBetOutOfRange is returned when a bet breaks the table limits
	ErrBetOutOfRange = errors.New("bet outside table limits")
)

// ActionNotAllowedError is returned when an action is invoked in a phase
// that does not permit it
type ActionNotAllowedError struct {
	Action string
	Phase  phase.Phase
	Reason string
}

func (e *ActionNotAllowedError) Error() string {
	msg := fmt.Sprintf("action %s not allowed in phase %s", e.Action, e.Phase)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
