// Package strategy recommends plays using multi-deck basic strategy for a
// dealer who stands on soft 17, with doubling after splits allowed.
package strategy

import (
	"fmt"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/engine"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/phase"
)

// Decision is a recommended play with a short explanation
type Decision struct {
	Action    phase.Action
	Reasoning string
}

// Situation is the hand awaiting action and what the table allows for it
type Situation struct {
	Cards     []deck.Card
	Up        deck.Card
	CanDouble bool
	CanSplit  bool
}

// ShouldInsure reports whether to take insurance. Without a card count it
// is never worth it.
func ShouldInsure() bool {
	return false
}

// Advise returns the basic-strategy play for s
func Advise(s Situation) Decision {
	up := upValue(s.Up)
	h := hand.New(s.Cards...)

	if s.CanSplit && len(s.Cards) == 2 && s.Cards[0].Rank == s.Cards[1].Rank {
		if splitPair(s.Cards[0].Rank, up) {
			return Decision{Action: phase.Split, Reasoning: fmt.Sprintf("split %ss against %s", s.Cards[0].Rank, s.Up.Rank)}
		}
	}

	hard := h.HardValue()
	if hasAce(s.Cards) && hard+10 <= hand.Blackjack {
		return soft(hard+10, up, s)
	}
	return hardTotal(hard, up, s)
}

// ForState advises on the current hand of an engine snapshot. The second
// result is false when no hand is awaiting action.
func ForState(state engine.RoundState, canDouble, canSplit bool) (Decision, bool) {
	current, ok := state.CurrentHand()
	if !ok {
		return Decision{}, false
	}
	up, ok := state.Dealer.UpCard()
	if !ok {
		return Decision{}, false
	}
	return Advise(Situation{
		Cards:     current.Cards,
		Up:        up,
		CanDouble: canDouble,
		CanSplit:  canSplit,
	}), true
}

func upValue(c deck.Card) int {
	if c.IsAce() {
		return 11
	}
	return c.Rank.Points()
}

func hasAce(cards []deck.Card) bool {
	for _, c := range cards {
		if c.IsAce() {
			return true
		}
	}
	return false
}

func between(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

func splitPair(r deck.Rank, up int) bool {
	switch {
	case r == deck.Ace, r == deck.Eight:
		return true
	case r.Points() == 10, r == deck.Five:
		return false
	case r == deck.Nine:
		return between(up, 2, 6) || between(up, 8, 9)
	case r == deck.Seven, r == deck.Two, r == deck.Three:
		return between(up, 2, 7)
	case r == deck.Six:
		return between(up, 2, 6)
	case r == deck.Four:
		return between(up, 5, 6)
	}
	return false
}

func soft(total, up int, s Situation) Decision {
	switch {
	case total >= 20:
		return stand("soft %d", total)
	case total == 19:
		if up == 6 {
			return double(s, true, "soft 19 against 6")
		}
		return stand("soft 19")
	case total == 18:
		switch {
		case between(up, 2, 6):
			return double(s, true, "soft 18 against a weak card")
		case between(up, 7, 8):
			return stand("soft 18 against %d", up)
		}
		return hit("soft 18 against %d", up)
	case total == 17:
		if between(up, 3, 6) {
			return double(s, false, "soft 17 against a weak card")
		}
	case total >= 15:
		if between(up, 4, 6) {
			return double(s, false, "soft %d against a weak card", total)
		}
	case total >= 13:
		if between(up, 5, 6) {
			return double(s, false, "soft %d against a weak card", total)
		}
	}
	return hit("soft %d", total)
}

func hardTotal(total, up int, s Situation) Decision {
	switch {
	case total >= 17:
		return stand("hard %d", total)
	case total >= 13:
		if between(up, 2, 6) {
			return stand("%d against a bust card", total)
		}
		return hit("%d against %d", total, up)
	case total == 12:
		if between(up, 4, 6) {
			return stand("12 against a bust card")
		}
		return hit("12 against %d", up)
	case total == 11:
		if up != 11 {
			return double(s, false, "11 against %d", up)
		}
	case total == 10:
		if between(up, 2, 9) {
			return double(s, false, "10 against %d", up)
		}
	case total == 9:
		if between(up, 3, 6) {
			return double(s, false, "9 against a weak card")
		}
	}
	return hit("hard %d", total)
}

// double recommends doubling, falling back to standing or hitting when the
// table does not allow it
func double(s Situation, standOtherwise bool, format string, args ...any) Decision {
	reason := fmt.Sprintf(format, args...)
	if s.CanDouble {
		return Decision{Action: phase.DoubleDown, Reasoning: "double " + reason}
	}
	if standOtherwise {
		return Decision{Action: phase.Stand, Reasoning: "stand " + reason}
	}
	return Decision{Action: phase.Hit, Reasoning: "hit " + reason}
}

func stand(format string, args ...any) Decision {
	return Decision{Action: phase.Stand, Reasoning: "stand " + fmt.Sprintf(format, args...)}
}

func hit(format string, args ...any) Decision {
	return Decision{Action: phase.Hit, Reasoning: "hit " + fmt.Sprintf(format, args...)}
}
