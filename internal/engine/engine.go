// Package engine runs a single-player blackjack table: betting, the deal,
// player decisions, the dealer's draw and settlement. It is the single source
// of truth for a round; callers read it only through State snapshots and
// events.
package engine

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/phase"
	"github.com/lox/blackjack/internal/randutil"
)

const (
	DefaultStartingBalance = 1000
	DefaultDeckCount       = 6
	DefaultMinBet          = 1
	// MaxHands caps concurrent hands, splits included
	MaxHands = 3
)

// Config holds the table rules
type Config struct {
	StartingBalance int
	DeckCount       int
	MinBet          int
	MaxBet          int // 0 means no limit
	ReshuffleAt     int // reshuffle before a deal below this many cards; 0 disables
	HandCount       int
}

// DefaultConfig returns the standard table
func DefaultConfig() Config {
	return Config{
		StartingBalance: DefaultStartingBalance,
		DeckCount:       DefaultDeckCount,
		MinBet:          DefaultMinBet,
		HandCount:       1,
	}
}

// Validate checks the table rules are internally consistent
func (c Config) Validate() error {
	var errs []error
	if c.StartingBalance < 0 {
		errs = append(errs, fmt.Errorf("starting balance must not be negative, got %d", c.StartingBalance))
	}
	if c.DeckCount < 1 {
		errs = append(errs, fmt.Errorf("deck count must be at least 1, got %d", c.DeckCount))
	}
	if c.MinBet < 1 {
		errs = append(errs, fmt.Errorf("min bet must be at least 1, got %d", c.MinBet))
	}
	if c.MaxBet != 0 && c.MaxBet < c.MinBet {
		errs = append(errs, fmt.Errorf("max bet %d is below min bet %d", c.MaxBet, c.MinBet))
	}
	if c.ReshuffleAt < 0 {
		errs = append(errs, fmt.Errorf("reshuffle threshold must not be negative, got %d", c.ReshuffleAt))
	}
	if c.HandCount < 1 || c.HandCount > MaxHands {
		errs = append(errs, fmt.Errorf("hand count must be between 1 and %d, got %d", MaxHands, c.HandCount))
	}
	return errors.Join(errs...)
}

// Option customises an Engine
type Option func(*Engine)

// WithDeck uses d as the shoe instead of a freshly shuffled one
func WithDeck(d *deck.Deck) Option {
	return func(e *Engine) { e.deck = d }
}

// WithClock sets the clock used for event timestamps
func WithClock(clock quartz.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithRandom sets the random source used to shuffle the shoe
func WithRandom(rng *randutil.Source) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithBalance starts the player at a previously saved balance
func WithBalance(balance int) Option {
	return func(e *Engine) { e.restored = &balance }
}

type slot struct {
	hand      *hand.Hand
	bet       int
	standing  bool
	doubled   bool
	splitAces bool
	fromSplit bool
}

func newSlot() *slot {
	return &slot{hand: hand.New()}
}

// terminal hands take no further player action
func (s *slot) terminal() bool {
	return s.standing || s.hand.IsBust()
}

// isNatural reports a two-card 21 from the deal; split hands never qualify
func (s *slot) isNatural() bool {
	return !s.fromSplit && s.hand.IsBlackjack()
}

// Engine is a blackjack table for one player. It is not safe for concurrent
// use; drive it from a single goroutine.
type Engine struct {
	cfg      Config
	logger   *log.Logger
	clock    quartz.Clock
	rng      *randutil.Source
	machine  *phase.Machine
	deck     *deck.Deck
	ledger   *ledger.Ledger
	bus      *eventBus
	restored *int

	roundID         string
	slots           []*slot
	dealer          *hand.Hand
	holeRevealed    bool
	current         int
	insuranceOffer  bool
	insuranceTaken  bool
	insuranceBet    int
	insurancePayout int
	results         []HandResult

	pending   []PhaseChangeEvent
	reshuffle bool
}

// New creates an engine in the betting phase with cfg.HandCount empty hands
func New(cfg Config, logger *log.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table config: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	e := &Engine{
		cfg:    cfg,
		logger: logger.WithPrefix("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.clock == nil {
		e.clock = quartz.NewReal()
	}
	if e.deck == nil {
		if e.rng == nil {
			e.rng = randutil.New(logger)
		}
		e.deck = deck.New(cfg.DeckCount, e.rng)
		e.deck.Shuffle()
	}

	e.ledger = ledger.New(cfg.StartingBalance)
	if e.restored != nil {
		if err := e.ledger.Restore(*e.restored); err != nil {
			return nil, fmt.Errorf("restore balance: %w", err)
		}
	}

	e.bus = &eventBus{logger: e.logger}
	e.machine = phase.NewMachine(logger)
	e.machine.Subscribe(e.onPhaseChange)

	e.resetRound(cfg.HandCount)
	e.logger.Debug("Engine ready",
		"balance", e.ledger.Balance(),
		"decks", cfg.DeckCount,
		"shoe", e.deck.Remaining())
	return e, nil
}

// Config returns the table rules the engine was built with
func (e *Engine) Config() Config {
	return e.cfg
}

// Phase returns the current phase
func (e *Engine) Phase() phase.Phase {
	return e.machine.Current()
}

// Balance returns the player's chip count
func (e *Engine) Balance() int {
	return e.ledger.Balance()
}

// IsActionAllowed reports whether the named player action is valid now
func (e *Engine) IsActionAllowed(name string) bool {
	return e.machine.IsActionAllowedName(name)
}

// Subscribe registers sub for events and returns a function that removes it.
// Events are delivered synchronously after each action commits, phase
// changes first.
func (e *Engine) Subscribe(sub Subscriber) func() {
	return e.bus.subscribe(sub)
}

// State returns a deep-copied snapshot of the table
func (e *Engine) State() RoundState {
	s := RoundState{
		RoundID:          e.roundID,
		Phase:            e.machine.Current(),
		Hands:            make([]HandState, len(e.slots)),
		Dealer:           snapshotDealer(e.dealer, e.holeRevealed),
		Balance:          e.ledger.Balance(),
		InsuranceOffered: e.insuranceOffer,
		InsuranceTaken:   e.insuranceTaken,
		InsuranceBet:     e.insuranceBet,
		InsurancePayout:  e.insurancePayout,
		CurrentHandIndex: e.current,
		HandCount:        len(e.slots),
		ShoeRemaining:    e.deck.Remaining(),
	}
	for i, sl := range e.slots {
		s.Hands[i] = snapshotHand(sl)
	}
	if e.results != nil {
		s.Results = append([]HandResult(nil), e.results...)
	}
	return s
}

// IsBankrupt reports whether the player cannot cover the minimum bet and has
// nothing staked
func (e *Engine) IsBankrupt() bool {
	p := e.machine.Current()
	if p != phase.Betting && p != phase.GameOver {
		return false
	}
	if p == phase.Betting && e.totalStaked() > 0 {
		return false
	}
	return e.ledger.Balance() < e.cfg.MinBet
}

// Rebuy restores the starting balance once the player is bankrupt
func (e *Engine) Rebuy() error {
	if !e.IsBankrupt() {
		return e.notAllowed("rebuy", "player is not bankrupt")
	}
	e.ledger.Reset()
	e.logger.Info("Balance reset", "balance", e.ledger.Balance())
	e.commit("rebuy")
	return nil
}

func (e *Engine) resetRound(handCount int) {
	e.roundID = uuid.Must(uuid.NewV7()).String()
	e.slots = make([]*slot, handCount)
	for i := range e.slots {
		e.slots[i] = newSlot()
	}
	e.dealer = hand.New()
	e.holeRevealed = false
	e.current = 0
	e.insuranceOffer = false
	e.insuranceTaken = false
	e.insuranceBet = 0
	e.insurancePayout = 0
	e.results = nil
}

func (e *Engine) totalStaked() int {
	total := 0
	for _, s := range e.slots {
		total += s.bet
	}
	return total
}

func (e *Engine) notAllowed(action, reason string) error {
	return &ActionNotAllowedError{Action: action, Phase: e.machine.Current(), Reason: reason}
}

func (e *Engine) requireAction(a phase.Action) error {
	if !e.machine.IsActionAllowed(a) {
		return e.notAllowed(a.String(), "")
	}
	return nil
}

func (e *Engine) validHandCount(n int) error {
	if n < 1 || n > MaxHands {
		return fmt.Errorf("%d hands (max %d): %w", n, MaxHands, ErrInvalidHandCount)
	}
	return nil
}

func (e *Engine) onPhaseChange(current, previous phase.Phase) {
	e.pending = append(e.pending, PhaseChangeEvent{Current: current, Previous: previous})
}

// commit publishes the queued phase changes and a state change, all carrying
// the same post-action snapshot
func (e *Engine) commit(action string) RoundState {
	state := e.State()
	now := e.clock.Now()

	pending := e.pending
	e.pending = nil
	for _, ev := range pending {
		ev.State = state
		ev.timestamp = now
		e.bus.publish(ev)
	}

	if e.reshuffle {
		e.reshuffle = false
		e.bus.publish(ShoeShuffledEvent{Remaining: state.ShoeRemaining, State: state, timestamp: now})
	}

	e.bus.publish(StateChangeEvent{Action: action, State: state, timestamp: now})
	return state
}
