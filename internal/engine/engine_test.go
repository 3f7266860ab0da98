package engine

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/phase"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// newStackedEngine builds an engine whose shoe deals cards in exactly the
// given order
func newStackedEngine(t *testing.T, cards string, mutate ...func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := New(cfg, quietLogger(),
		WithDeck(deck.NewStacked(deck.MustParseCards(cards)...)),
		WithClock(quartz.NewMock(t)),
	)
	require.NoError(t, err)
	return e
}

func handCount(n int) func(*Config) {
	return func(c *Config) { c.HandCount = n }
}

type recorder struct {
	events []Event
}

func (r *recorder) OnEvent(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) types() []EventType {
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.EventType()
	}
	return out
}

func mustStand(t *testing.T, e *Engine, i int) {
	t.Helper()
	ok, err := e.Stand(i)
	require.NoError(t, err)
	require.True(t, ok, "stand on hand %d", i)
}

func TestWinAfterDealerBusts(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "9h 5s 6c Td 3h 8c")
	require.NoError(t, e.PlaceBet(0, 100))
	assert.Equal(t, 900, e.Balance())
	require.NoError(t, e.Deal())

	s := e.State()
	assert.Equal(t, phase.PlayerTurn, s.Phase)
	assert.Equal(t, 15, s.Hands[0].Value)
	require.Len(t, s.Dealer.Cards, 1, "hole card stays hidden")
	assert.Equal(t, 1, s.Dealer.HiddenCards)
	assert.Equal(t, 5, s.Dealer.Value)
	assert.False(t, s.Dealer.HoleRevealed)

	ok, err := e.Hit(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 18, e.State().Hands[0].Value)

	mustStand(t, e, 0)
	assert.Equal(t, phase.DealerTurn, e.Phase())

	require.NoError(t, e.PlayDealerTurn())
	s = e.State()
	assert.True(t, s.Dealer.HoleRevealed)
	assert.Equal(t, 23, s.Dealer.Value)
	assert.True(t, s.Dealer.IsBust)

	results, err := e.ResolveRound()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeWin, results[0].Outcome)
	assert.Equal(t, 200, results[0].Payout)
	assert.Equal(t, 100, results[0].Net())
	assert.Equal(t, 1100, e.Balance())
	assert.Equal(t, phase.GameOver, e.Phase())
}

func TestNaturalPaysThreeToTwo(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Ah 7s Kc 9d 2c")
	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())

	s := e.State()
	assert.True(t, s.Hands[0].IsBlackjack)
	assert.True(t, s.Hands[0].IsStanding)
	assert.Equal(t, phase.DealerTurn, s.Phase, "a natural needs no player action")
	assert.Equal(t, 1, s.CurrentHandIndex)

	require.NoError(t, e.PlayDealerTurn())
	assert.Equal(t, 18, e.State().Dealer.Value)

	results, err := e.ResolveRound()
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlackjack, results[0].Outcome)
	assert.Equal(t, 250, results[0].Payout)
	assert.Equal(t, 1150, e.Balance())
}

func TestBothNaturalsPush(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Ah Kd Kc As")
	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())
	require.Equal(t, phase.DealerTurn, e.Phase())

	require.NoError(t, e.PlayDealerTurn())
	results, err := e.ResolveRound()
	require.NoError(t, err)
	assert.Equal(t, OutcomePush, results[0].Outcome)
	assert.Equal(t, 1000, e.Balance())
}

func TestSplitPairPushAndLose(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "7h Ts 7d 8c Jh Kd Ah")
	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())

	assert.True(t, e.CanSplit(0))
	ok, err := e.Split(0)
	require.NoError(t, err)
	require.True(t, ok)

	s := e.State()
	require.Len(t, s.Hands, 2)
	assert.Equal(t, 17, s.Hands[0].Value)
	assert.Equal(t, 17, s.Hands[1].Value)
	assert.Equal(t, 100, s.Hands[1].Bet)
	assert.True(t, s.Hands[1].FromSplit)
	assert.Equal(t, 800, s.Balance)
	assert.Equal(t, 0, s.CurrentHandIndex)

	ok, err = e.Hit(0)
	require.NoError(t, err)
	require.True(t, ok)
	mustStand(t, e, 0)
	assert.Equal(t, 1, e.State().CurrentHandIndex)
	mustStand(t, e, 1)

	require.NoError(t, e.PlayDealerTurn())
	results, err := e.ResolveRound()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, OutcomePush, results[0].Outcome)
	assert.Equal(t, OutcomeLose, results[1].Outcome)
	assert.Equal(t, 900, e.Balance())
}

func TestInsurancePaysOnDealerBlackjack(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Th As 9c Kd")
	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())

	s := e.State()
	assert.Equal(t, phase.InsuranceCheck, s.Phase)
	assert.True(t, s.InsuranceOffered)
	assert.Equal(t, 50, e.InsuranceAmount())
	assert.True(t, e.IsActionAllowed("acceptInsurance"))
	assert.False(t, e.IsActionAllowed("hit"))

	require.NoError(t, e.TakeInsurance())
	s = e.State()
	assert.Equal(t, phase.PlayerTurn, s.Phase)
	assert.True(t, s.InsuranceTaken)
	assert.Equal(t, 850, s.Balance)

	mustStand(t, e, 0)
	require.NoError(t, e.PlayDealerTurn())
	assert.True(t, e.State().Dealer.IsBlackjack)

	results, err := e.ResolveRound()
	require.NoError(t, err)
	assert.Equal(t, OutcomeLose, results[0].Outcome)
	assert.Equal(t, 100, e.State().InsurancePayout)
	assert.Equal(t, 950, e.Balance())
}

func TestInsuranceLostWithoutDealerBlackjack(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Th As 9c 5d 4h")
	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())
	require.NoError(t, e.TakeInsurance())
	mustStand(t, e, 0)
	require.NoError(t, e.PlayDealerTurn())

	results, err := e.ResolveRound()
	require.NoError(t, err)
	assert.Equal(t, OutcomeLose, results[0].Outcome, "dealer 20 beats 19")
	assert.Equal(t, 0, e.State().InsurancePayout)
	assert.Equal(t, 850, e.Balance())
}

func TestDeclineInsurance(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Th As 9c 6d 2h")
	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())

	require.NoError(t, e.DeclineInsurance())
	s := e.State()
	assert.False(t, s.InsuranceTaken)
	assert.Equal(t, 900, s.Balance)
	assert.Equal(t, phase.PlayerTurn, s.Phase)

	var notAllowed *ActionNotAllowedError
	assert.ErrorAs(t, e.TakeInsurance(), &notAllowed)
}

func TestInsuranceNotOffered(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		balance int
		bet     int
	}{
		{"unaffordable", 100, 100},
		{"rounds to zero", 1000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newStackedEngine(t, "Th As 9c 6d", func(c *Config) { c.StartingBalance = tt.balance })
			require.NoError(t, e.PlaceBet(0, tt.bet))
			require.NoError(t, e.Deal())

			s := e.State()
			assert.Equal(t, phase.PlayerTurn, s.Phase)
			assert.False(t, s.InsuranceOffered)
			assert.False(t, e.IsActionAllowed("acceptInsurance"))

			var notAllowed *ActionNotAllowedError
			assert.ErrorAs(t, e.TakeInsurance(), &notAllowed)
			assert.Equal(t, tt.balance-tt.bet, e.Balance())
		})
	}
}

func TestDoubleDown(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "5h 9s 6d 7c Tc 2d")
	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())

	require.True(t, e.CanDoubleDown(0))
	ok, err := e.DoubleDown(0)
	require.NoError(t, err)
	require.True(t, ok)

	s := e.State()
	assert.Equal(t, 200, s.Hands[0].Bet)
	assert.Equal(t, 21, s.Hands[0].Value)
	assert.True(t, s.Hands[0].IsDoubled)
	assert.Len(t, s.Hands[0].Cards, 3)
	assert.Equal(t, phase.DealerTurn, s.Phase)
	assert.Equal(t, 800, s.Balance)

	require.NoError(t, e.PlayDealerTurn())
	results, err := e.ResolveRound()
	require.NoError(t, err)
	assert.Equal(t, OutcomeWin, results[0].Outcome)
	assert.Equal(t, 1200, e.Balance())
}

func TestDoubleDownRefused(t *testing.T) {
	t.Parallel()

	t.Run("after hitting", func(t *testing.T) {
		e := newStackedEngine(t, "2h 9s 3d 7c 2c 4d")
		require.NoError(t, e.PlaceBet(0, 100))
		require.NoError(t, e.Deal())
		_, err := e.Hit(0)
		require.NoError(t, err)

		assert.False(t, e.CanDoubleDown(0))
		ok, err := e.DoubleDown(0)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cannot afford", func(t *testing.T) {
		e := newStackedEngine(t, "5h 9s 6d 7c", func(c *Config) { c.StartingBalance = 150 })
		require.NoError(t, e.PlaceBet(0, 100))
		require.NoError(t, e.Deal())
		assert.False(t, e.CanDoubleDown(0))
		ok, err := e.DoubleDown(0)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 50, e.Balance())
	})

	t.Run("outside player turn", func(t *testing.T) {
		e := newStackedEngine(t, "5h 9s 6d 7c")
		assert.False(t, e.CanDoubleDown(0))
		_, err := e.DoubleDown(0)
		var notAllowed *ActionNotAllowedError
		assert.ErrorAs(t, err, &notAllowed)
	})
}

func TestSplitAcesTakeOneCardEach(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Ah 9s Ad 7c Kh 5d 2c")
	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())

	ok, err := e.Split(0)
	require.NoError(t, err)
	require.True(t, ok)

	s := e.State()
	assert.Equal(t, phase.DealerTurn, s.Phase)
	for _, h := range s.Hands {
		assert.True(t, h.IsSplitAces)
		assert.True(t, h.IsStanding)
		assert.Len(t, h.Cards, 2)
	}
	assert.False(t, s.Hands[0].IsBlackjack, "21 after a split is not a natural")

	require.NoError(t, e.PlayDealerTurn())
	results, err := e.ResolveRound()
	require.NoError(t, err)
	assert.Equal(t, OutcomeWin, results[0].Outcome)
	assert.Equal(t, 200, results[0].Payout)
	assert.Equal(t, OutcomeLose, results[1].Outcome)
}

func TestSplitCappedAtMaxHands(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "8h 5c 9s 8d 6c Td 8s 3d", handCount(2))
	require.NoError(t, e.PlaceBet(0, 10))
	require.NoError(t, e.PlaceBet(1, 10))
	require.NoError(t, e.Deal())

	ok, err := e.Split(0)
	require.NoError(t, err)
	require.True(t, ok)

	s := e.State()
	require.Len(t, s.Hands, MaxHands)
	assert.Equal(t, "8♥ 8♠", s.Hands[0].Cards[0].String()+" "+s.Hands[0].Cards[1].String())
	assert.False(t, e.CanSplit(0), "already at three hands")

	ok, err = e.Split(0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBustAdvancesToNextHand(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Th 9c 7s 6h 5d Jd Kc 2h", handCount(2))
	require.NoError(t, e.PlaceBet(0, 10))
	require.NoError(t, e.PlaceBet(1, 10))
	require.NoError(t, e.Deal())
	require.Equal(t, 0, e.State().CurrentHandIndex)

	ok, err := e.Hit(0)
	require.NoError(t, err)
	require.True(t, ok)

	s := e.State()
	assert.True(t, s.Hands[0].IsBust)
	assert.True(t, s.Hands[0].IsStanding, "a bust hand is marked standing")
	assert.Equal(t, 1, s.CurrentHandIndex)
	assert.Equal(t, phase.PlayerTurn, s.Phase)

	ok, err = e.Hit(0)
	require.NoError(t, err)
	assert.False(t, ok, "a finished hand takes no more cards")

	mustStand(t, e, 1)
	assert.Equal(t, phase.DealerTurn, e.Phase())
	assert.Equal(t, 2, e.State().CurrentHandIndex)
}

func TestActionsOnWrongHandRefused(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Th 9c 7s 6h 5d Jd", handCount(2))
	require.NoError(t, e.PlaceBet(0, 10))
	require.NoError(t, e.PlaceBet(1, 10))
	require.NoError(t, e.Deal())

	for _, idx := range []int{1, 5, -1} {
		ok, err := e.Hit(idx)
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = e.Stand(idx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, e.CanSplit(idx))
		assert.False(t, e.CanDoubleDown(idx))
	}
	assert.Equal(t, 0, e.State().CurrentHandIndex)
}

func TestDealerFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Th 5s 8c Td")
	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())
	mustStand(t, e, 0)

	before := e.State()
	err := e.PlayDealerTurn()
	var empty *deck.EmptyDeckError
	require.ErrorAs(t, err, &empty)

	assert.Equal(t, before, e.State())
	assert.Equal(t, phase.DealerTurn, e.Phase())
	assert.False(t, e.State().Dealer.HoleRevealed)
}

func TestDealFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Th 5s 8c")
	require.NoError(t, e.PlaceBet(0, 100))

	before := e.State()
	var empty *deck.EmptyDeckError
	require.ErrorAs(t, e.Deal(), &empty)
	assert.Equal(t, before, e.State())
	assert.Equal(t, 3, e.State().ShoeRemaining)
}

func TestHitOnEmptyShoe(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Th 5s 2c Td")
	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())

	before := e.State()
	ok, err := e.Hit(0)
	assert.False(t, ok)
	var empty *deck.EmptyDeckError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, before, e.State())
}

func TestSnapshotsAreIndependent(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "9h 5s 6c Td 3h 8c")
	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())

	snap := e.State()
	snap.Hands[0].Cards[0] = deck.NewCard(deck.Spades, deck.Ace)
	snap.Hands[0].Bet = 1

	fresh := e.State()
	assert.Equal(t, "9♥", fresh.Hands[0].Cards[0].String())
	assert.Equal(t, 100, fresh.Hands[0].Bet)

	_, err := e.Hit(0)
	require.NoError(t, err)
	assert.Len(t, fresh.Hands[0].Cards, 2, "old snapshot unaffected by later actions")
}

func TestBettingErrors(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "9h 5s 6c Td", func(c *Config) {
		c.StartingBalance = 500
		c.MinBet = 10
		c.MaxBet = 200
	})

	assert.ErrorIs(t, e.PlaceBet(1, 10), ErrInvalidHandIndex)
	assert.ErrorIs(t, e.PlaceBet(-1, 10), ErrInvalidHandIndex)
	assert.ErrorIs(t, e.PlaceBet(0, 5), ErrBetOutOfRange)
	assert.ErrorIs(t, e.PlaceBet(0, 300), ErrBetOutOfRange)
	assert.ErrorIs(t, e.PlaceBet(0, 0), ledger.ErrInvalidAmount)

	require.NoError(t, e.PlaceBet(0, 150))
	assert.ErrorIs(t, e.PlaceBet(0, 100), ErrBetOutOfRange, "limits apply to the whole stake")
	require.NoError(t, e.PlaceBet(0, 50))
	assert.Equal(t, 200, e.State().Hands[0].Bet)
	assert.Equal(t, 300, e.Balance())

	require.NoError(t, e.RemoveBet(0))
	assert.Equal(t, 500, e.Balance())
	require.NoError(t, e.RemoveBet(0), "removing an empty stake is a no-op")

	var notAllowed *ActionNotAllowedError
	require.ErrorAs(t, e.Deal(), &notAllowed)
	assert.Contains(t, notAllowed.Reason, "no bet")
	assert.Equal(t, phase.Betting, e.Phase())
}

func TestInsufficientFunds(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "9h 5s 6c Td")
	var insufficient *ledger.InsufficientFundsError
	require.ErrorAs(t, e.PlaceBet(0, 1001), &insufficient)
	assert.Equal(t, 1001, insufficient.Requested)
	assert.Equal(t, 1000, e.Balance())
}

func TestActionsRejectedInWrongPhase(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "9h 5s 6c Td 3h 8c")

	var notAllowed *ActionNotAllowedError
	_, err := e.Hit(0)
	require.ErrorAs(t, err, &notAllowed)
	assert.Equal(t, "hit", notAllowed.Action)
	assert.Equal(t, phase.Betting, notAllowed.Phase)

	require.ErrorAs(t, e.PlayDealerTurn(), &notAllowed)
	_, err = e.ResolveRound()
	require.ErrorAs(t, err, &notAllowed)
	require.ErrorAs(t, e.DeclineInsurance(), &notAllowed)

	require.NoError(t, e.PlaceBet(0, 10))
	require.NoError(t, e.Deal())
	require.ErrorAs(t, e.PlaceBet(0, 10), &notAllowed)
	require.ErrorAs(t, e.RemoveBet(0), &notAllowed)
	require.ErrorAs(t, e.SelectHandCount(2), &notAllowed)
	require.ErrorAs(t, e.Deal(), &notAllowed)
	assert.Equal(t, 990, e.Balance())
}

func TestSelectHandCount(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "9h 5s 6c Td")
	require.NoError(t, e.SelectHandCount(3))
	require.NoError(t, e.PlaceBet(2, 30))
	require.NoError(t, e.PlaceBet(1, 20))
	assert.Equal(t, 950, e.Balance())

	require.NoError(t, e.SelectHandCount(1))
	assert.Equal(t, 1000, e.Balance(), "dropped hands are refunded")
	assert.Len(t, e.State().Hands, 1)

	assert.ErrorIs(t, e.SelectHandCount(0), ErrInvalidHandCount)
	assert.ErrorIs(t, e.SelectHandCount(MaxHands+1), ErrInvalidHandCount)
}

func TestStartNewRound(t *testing.T) {
	t.Parallel()

	t.Run("from game over", func(t *testing.T) {
		e := newStackedEngine(t, "9h 5s 6c Td 3h 8c 2c 2d 2h 2s")
		require.NoError(t, e.PlaceBet(0, 100))
		require.NoError(t, e.Deal())
		mustStand(t, e, 0)
		require.NoError(t, e.PlayDealerTurn())
		_, err := e.ResolveRound()
		require.NoError(t, err)
		first := e.State().RoundID

		require.NoError(t, e.StartNewRound(2))
		s := e.State()
		assert.Equal(t, phase.Betting, s.Phase)
		assert.Len(t, s.Hands, 2)
		assert.Empty(t, s.Results)
		assert.Empty(t, s.Dealer.Cards)
		assert.NotEqual(t, first, s.RoundID)
		assert.Equal(t, e.Balance(), s.Balance)
	})

	t.Run("abandons a round in progress", func(t *testing.T) {
		e := newStackedEngine(t, "Th As 9c 6d")
		require.NoError(t, e.PlaceBet(0, 100))
		require.NoError(t, e.Deal())
		require.NoError(t, e.TakeInsurance())
		assert.Equal(t, 850, e.Balance())

		require.NoError(t, e.StartNewRound(1))
		assert.Equal(t, 1000, e.Balance())
		assert.Equal(t, phase.Betting, e.Phase())
	})

	t.Run("refunds stakes while betting", func(t *testing.T) {
		e := newStackedEngine(t, "Th As 9c 6d")
		require.NoError(t, e.PlaceBet(0, 100))
		require.NoError(t, e.StartNewRound(1))
		assert.Equal(t, 1000, e.Balance())
		assert.Equal(t, 0, e.State().Hands[0].Bet)
	})

	t.Run("rejects bad hand counts", func(t *testing.T) {
		e := newStackedEngine(t, "Th As 9c 6d")
		assert.ErrorIs(t, e.StartNewRound(4), ErrInvalidHandCount)
	})
}

func TestEventsFollowCommittedState(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Ah 7s Kc 9d 2c")
	rec := &recorder{}
	e.Subscribe(rec)

	require.NoError(t, e.PlaceBet(0, 100))
	require.NoError(t, e.Deal())

	assert.Equal(t, []EventType{
		EventTypeStateChange,
		EventTypePhaseChange,
		EventTypePhaseChange,
		EventTypePhaseChange,
		EventTypeStateChange,
	}, rec.types())

	var phases []phase.Phase
	for _, ev := range rec.events[1:4] {
		pc := ev.(PhaseChangeEvent)
		phases = append(phases, pc.Current)
		assert.Equal(t, phase.DealerTurn, pc.State.Phase, "snapshot is taken after the action commits")
	}
	assert.Equal(t, []phase.Phase{phase.Dealing, phase.PlayerTurn, phase.DealerTurn}, phases)

	rec.events = nil
	require.NoError(t, e.PlayDealerTurn())
	_, err := e.ResolveRound()
	require.NoError(t, err)

	last := rec.events[len(rec.events)-1]
	resolved, ok := last.(RoundResolvedEvent)
	require.True(t, ok)
	assert.Equal(t, 150, resolved.Net)
	assert.Equal(t, phase.GameOver, resolved.State.Phase)
}

func TestEventTimestampsUseClock(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	e, err := New(DefaultConfig(), quietLogger(),
		WithDeck(deck.NewStacked(deck.MustParseCards("9h 5s 6c Td")...)),
		WithClock(clock))
	require.NoError(t, err)

	rec := &recorder{}
	e.Subscribe(rec)
	require.NoError(t, e.PlaceBet(0, 10))

	require.Len(t, rec.events, 1)
	assert.Equal(t, clock.Now(), rec.events[0].Timestamp())
}

func TestSubscribersReceiveSeparateSnapshots(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "9h 5s 6c Td")
	e.Subscribe(SubscriberFunc(func(ev Event) {
		for _, h := range ev.Snapshot().Hands {
			for i := range h.Cards {
				h.Cards[i] = deck.MustParseCards("2c")[0]
			}
		}
	}))
	rec := &recorder{}
	e.Subscribe(rec)

	require.NoError(t, e.PlaceBet(0, 10))
	require.NoError(t, e.Deal())

	require.NotEmpty(t, rec.events)
	for _, ev := range rec.events {
		if ev.Snapshot().Phase != phase.PlayerTurn {
			continue
		}
		assert.Equal(t, deck.MustParseCards("9h 6c"), ev.Snapshot().Hands[0].Cards)
	}
	assert.Equal(t, deck.MustParseCards("9h 6c"), e.State().Hands[0].Cards)
}

func TestPanickingSubscriberIsIsolated(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "9h 5s 6c Td")
	e.Subscribe(SubscriberFunc(func(Event) { panic("boom") }))
	rec := &recorder{}
	unsubscribe := e.Subscribe(rec)

	require.NoError(t, e.PlaceBet(0, 10))
	assert.Len(t, rec.events, 1)
	assert.Equal(t, 990, e.Balance())

	unsubscribe()
	require.NoError(t, e.PlaceBet(0, 10))
	assert.Len(t, rec.events, 1)
}

func TestReshuffleBeforeDeal(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "9h 5s 6c Td 3h 8c", func(c *Config) { c.ReshuffleAt = 5 })
	require.NoError(t, e.PlaceBet(0, 10))
	require.NoError(t, e.Deal())
	mustStand(t, e, 0)
	require.NoError(t, e.PlayDealerTurn())
	_, err := e.ResolveRound()
	require.NoError(t, err)
	assert.Equal(t, 1, e.State().ShoeRemaining)

	require.NoError(t, e.StartNewRound(1))
	require.NoError(t, e.PlaceBet(0, 10))

	rec := &recorder{}
	e.Subscribe(rec)
	require.NoError(t, e.Deal())

	assert.Contains(t, rec.types(), EventTypeShoeShuffled)
	assert.Equal(t, 2, e.State().ShoeRemaining)
}

func TestBankruptcyRebuy(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Th 9s 6c Td", func(c *Config) { c.StartingBalance = 100 })
	var notAllowed *ActionNotAllowedError
	require.ErrorAs(t, e.Rebuy(), &notAllowed)

	require.NoError(t, e.PlaceBet(0, 100))
	assert.False(t, e.IsBankrupt(), "a staked player is not bankrupt")
	require.NoError(t, e.Deal())
	mustStand(t, e, 0)
	require.NoError(t, e.PlayDealerTurn())
	results, err := e.ResolveRound()
	require.NoError(t, err)
	require.Equal(t, OutcomeLose, results[0].Outcome)

	assert.True(t, e.IsBankrupt())
	require.NoError(t, e.Rebuy())
	assert.Equal(t, 100, e.Balance())
	assert.False(t, e.IsBankrupt())
}

func TestRestoredBalance(t *testing.T) {
	t.Parallel()

	e, err := New(DefaultConfig(), quietLogger(), WithBalance(42), WithClock(quartz.NewMock(t)))
	require.NoError(t, err)
	assert.Equal(t, 42, e.Balance())
	assert.Equal(t, DefaultDeckCount*52, e.State().ShoeRemaining)

	_, err = New(DefaultConfig(), quietLogger(), WithBalance(-1))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultConfig().Validate())

	bad := Config{StartingBalance: -1, DeckCount: 0, MinBet: 0, MaxBet: -5, ReshuffleAt: -1, HandCount: 4}
	err := bad.Validate()
	require.Error(t, err)
	for _, want := range []string{"starting balance", "deck count", "min bet", "reshuffle", "hand count"} {
		assert.Contains(t, err.Error(), want)
	}

	_, err = New(bad, quietLogger())
	assert.Error(t, err)
}

func TestDealerPlaysEvenWhenAllHandsBust(t *testing.T) {
	t.Parallel()

	e := newStackedEngine(t, "Th 5s 6c Td Kd 2c 3c")
	require.NoError(t, e.PlaceBet(0, 10))
	require.NoError(t, e.Deal())
	_, err := e.Hit(0)
	require.NoError(t, err)
	require.Equal(t, phase.DealerTurn, e.Phase())

	require.NoError(t, e.PlayDealerTurn())
	assert.Equal(t, 17, e.State().Dealer.Value)
	assert.True(t, e.State().Dealer.HoleRevealed)

	results, err := e.ResolveRound()
	require.NoError(t, err)
	assert.Equal(t, OutcomeLose, results[0].Outcome)
}
