package phase

import "strings"

// Action is a player-initiated request. The set is closed; string names only
// exist at the UI boundary.
type Action int

const (
	ActionUnknown Action = iota
	PlaceBet
	RemoveBet
	SelectHandCount
	Hit
	Stand
	DoubleDown
	Split
	AcceptInsurance
	DeclineInsurance
)

var actionNames = map[Action]string{
	PlaceBet:         "placeBet",
	RemoveBet:        "removeBet",
	SelectHandCount:  "selectHandCount",
	Hit:              "hit",
	Stand:            "stand",
	DoubleDown:       "doubleDown",
	Split:            "split",
	AcceptInsurance:  "acceptInsurance",
	DeclineInsurance: "declineInsurance",
}

// String returns the boundary name of the action
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAction converts a boundary name to an Action. Matching is
// case-insensitive; unknown or empty names return ActionUnknown.
func ParseAction(name string) Action {
	name = strings.TrimSpace(name)
	if name == "" {
		return ActionUnknown
	}
	for a, n := range actionNames {
		if strings.EqualFold(n, name) {
			return a
		}
	}
	return ActionUnknown
}

var allowedActions = map[Phase]map[Action]bool{
	Betting: {
		PlaceBet:        true,
		RemoveBet:       true,
		SelectHandCount: true,
	},
	InsuranceCheck: {
		AcceptInsurance:  true,
		DeclineInsurance: true,
	},
	PlayerTurn: {
		Hit:        true,
		Stand:      true,
		DoubleDown: true,
		Split:      true,
	},
}

// AllowedActions returns the actions permitted in p, in declaration order
func AllowedActions(p Phase) []Action {
	var out []Action
	for a := PlaceBet; a <= DeclineInsurance; a++ {
		if allowedActions[p][a] {
			out = append(out, a)
		}
	}
	return out
}
