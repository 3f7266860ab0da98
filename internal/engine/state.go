package engine

import (
	"slices"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/phase"
)

// Outcome is the settled result of one player hand
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLose      Outcome = "lose"
	OutcomePush      Outcome = "push"
	OutcomeBlackjack Outcome = "blackjack"
)

// HandResult is the settlement of one player hand. Payout is the number of
// chips credited back, stake included.
type HandResult struct {
	HandIndex int     `json:"handIndex"`
	Outcome   Outcome `json:"outcome"`
	Bet       int     `json:"bet"`
	Payout    int     `json:"payout"`
}

// Net returns the chips won or lost on the hand
func (r HandResult) Net() int {
	return r.Payout - r.Bet
}

// HandState is a read-only view of one player hand
type HandState struct {
	Cards       []deck.Card `json:"cards"`
	Value       int         `json:"value"`
	IsSoft      bool        `json:"isSoft"`
	IsBust      bool        `json:"isBust"`
	IsBlackjack bool        `json:"isBlackjack"`
	Bet         int         `json:"bet"`
	IsStanding  bool        `json:"isStanding"`
	IsDoubled   bool        `json:"isDoubled"`
	IsSplitAces bool        `json:"isSplitAces"`
	FromSplit   bool        `json:"fromSplit"`
}

// DealerState is a read-only view of the dealer. Until the hole card is
// revealed only the up-card is reported and Value covers visible cards only.
type DealerState struct {
	Cards        []deck.Card `json:"cards"`
	HiddenCards  int         `json:"hiddenCards"`
	HoleRevealed bool        `json:"holeRevealed"`
	Value        int         `json:"value"`
	IsSoft       bool        `json:"isSoft"`
	IsBust       bool        `json:"isBust"`
	IsBlackjack  bool        `json:"isBlackjack"`
}

// UpCard returns the dealer's first card, if dealt
func (d DealerState) UpCard() (deck.Card, bool) {
	if len(d.Cards) == 0 {
		return deck.Card{}, false
	}
	return d.Cards[0], true
}

// RoundState is an immutable snapshot of the engine. Every slice is copied,
// so mutating the engine later never changes a delivered snapshot.
type RoundState struct {
	RoundID          string       `json:"roundId"`
	Phase            phase.Phase  `json:"phase"`
	Hands            []HandState  `json:"hands"`
	Dealer           DealerState  `json:"dealer"`
	Balance          int          `json:"balance"`
	InsuranceOffered bool         `json:"insuranceOffered"`
	InsuranceTaken   bool         `json:"insuranceTaken"`
	InsuranceBet     int          `json:"insuranceBet"`
	InsurancePayout  int          `json:"insurancePayout"`
	CurrentHandIndex int          `json:"currentHandIndex"`
	HandCount        int          `json:"handCount"`
	ShoeRemaining    int          `json:"shoeRemaining"`
	Results          []HandResult `json:"results,omitempty"`
}

// CurrentHand returns the hand awaiting action, if any
func (s RoundState) CurrentHand() (HandState, bool) {
	if s.Phase != phase.PlayerTurn || s.CurrentHandIndex < 0 || s.CurrentHandIndex >= len(s.Hands) {
		return HandState{}, false
	}
	return s.Hands[s.CurrentHandIndex], true
}

// TotalBet sums the stakes on every hand
func (s RoundState) TotalBet() int {
	total := 0
	for _, h := range s.Hands {
		total += h.Bet
	}
	return total
}

// Clone returns a deep copy, so the result shares no slices with s
func (s RoundState) Clone() RoundState {
	c := s
	c.Dealer.Cards = slices.Clone(s.Dealer.Cards)
	c.Hands = slices.Clone(s.Hands)
	for i := range c.Hands {
		c.Hands[i].Cards = slices.Clone(c.Hands[i].Cards)
	}
	c.Results = slices.Clone(s.Results)
	return c
}

func snapshotHand(s *slot) HandState {
	return HandState{
		Cards:       s.hand.Cards(),
		Value:       s.hand.Value(),
		IsSoft:      s.hand.IsSoft(),
		IsBust:      s.hand.IsBust(),
		IsBlackjack: s.isNatural(),
		Bet:         s.bet,
		IsStanding:  s.standing,
		IsDoubled:   s.doubled,
		IsSplitAces: s.splitAces,
		FromSplit:   s.fromSplit,
	}
}

func snapshotDealer(h *hand.Hand, revealed bool) DealerState {
	if revealed || h.Len() < 2 {
		return DealerState{
			Cards:        h.Cards(),
			HoleRevealed: revealed,
			Value:        h.Value(),
			IsSoft:       h.IsSoft(),
			IsBust:       h.IsBust(),
			IsBlackjack:  h.IsBlackjack(),
		}
	}

	visible := hand.New(h.Cards()[0])
	return DealerState{
		Cards:       visible.Cards(),
		HiddenCards: h.Len() - 1,
		Value:       visible.Value(),
		IsSoft:      visible.IsSoft(),
	}
}
