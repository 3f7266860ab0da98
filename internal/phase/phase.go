// Package phase implements the round state machine:
//
//	betting → dealing → [insuranceCheck] → playerTurn → dealerTurn →
//	resolution → gameOver → betting
//
// insuranceCheck is only entered when the dealer's up-card is an ace.
package phase

import (
	"fmt"
	"strings"
)

// Phase is a step in the round lifecycle
type Phase int

const (
	Betting Phase = iota
	Dealing
	InsuranceCheck
	PlayerTurn
	DealerTurn
	Resolution
	GameOver
)

var phaseNames = [...]string{
	Betting:        "betting",
	Dealing:        "dealing",
	InsuranceCheck: "insuranceCheck",
	PlayerTurn:     "playerTurn",
	DealerTurn:     "dealerTurn",
	Resolution:     "resolution",
	GameOver:       "gameOver",
}

// String returns the wire name of the phase
func (p Phase) String() string {
	if !p.IsValid() {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// IsValid reports whether p is a known phase
func (p Phase) IsValid() bool {
	return p >= Betting && p <= GameOver
}

// MarshalText encodes the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, ok := Parse(string(text))
	if !ok {
		return fmt.Errorf("unknown phase %q", string(text))
	}
	*p = parsed
	return nil
}

// Parse converts a phase name, case-insensitively
func Parse(name string) (Phase, bool) {
	for i, n := range phaseNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Phase(i), true
		}
	}
	return 0, false
}

// transitions is the adjacency list of legal moves
var transitions = map[Phase][]Phase{
	Betting:        {Dealing},
	Dealing:        {InsuranceCheck, PlayerTurn},
	InsuranceCheck: {PlayerTurn},
	PlayerTurn:     {DealerTurn},
	DealerTurn:     {Resolution},
	Resolution:     {GameOver},
	GameOver:       {Betting},
}

// InvalidTransitionError names both ends of a rejected move
type InvalidTransitionError struct {
	From Phase
	To   Phase
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid phase transition from %s to %s", e.From, e.To)
}
