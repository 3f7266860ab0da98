// Package simulate plays many rounds with basic strategy to measure the
// game's return. Each worker owns a seeded engine, so a seed and worker
// count always replay the same shoes.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjack/internal/engine"
	"github.com/lox/blackjack/internal/phase"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/strategy"
)

// DefaultReshuffleAt is used when the table config never reshuffles; a
// simulation would otherwise run the shoe dry.
const DefaultReshuffleAt = 52

// Config holds configuration for running simulations
type Config struct {
	Rounds  int
	Workers int
	Seed    int64
	Bet     int
	Table   engine.Config
	Logger  *log.Logger

	// Progress, when set, is called after every completed round with the
	// running total. It may be called from several goroutines.
	Progress func(done int)
}

// Validate checks the simulation parameters and the table
func (c Config) Validate() error {
	var errs []error
	if c.Rounds <= 0 {
		errs = append(errs, fmt.Errorf("rounds must be positive, got %d", c.Rounds))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Bet < c.Table.MinBet || (c.Table.MaxBet > 0 && c.Bet > c.Table.MaxBet) {
		errs = append(errs, fmt.Errorf("bet %d outside table limits", c.Bet))
	}
	if err := c.Table.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Run plays cfg.Rounds rounds split across cfg.Workers workers. Cancelling
// ctx stops every worker after its current round.
func Run(ctx context.Context, cfg Config) (*Statistics, error) {
	if cfg.Table.ReshuffleAt == 0 {
		cfg.Table.ReshuffleAt = DefaultReshuffleAt
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	logger := cfg.Logger.WithPrefix("simulate")

	workers := min(cfg.Workers, cfg.Rounds)
	perWorker := cfg.Rounds / workers
	remainder := cfg.Rounds % workers

	g, ctx := errgroup.WithContext(ctx)
	results := make([]*Statistics, workers)
	var done atomic.Int64

	for w := range workers {
		rounds := perWorker
		if w < remainder {
			rounds++
		}
		seed := cfg.Seed + int64(w)

		g.Go(func() error {
			wk, err := newWorker(cfg, seed, logger.With("worker", w))
			if err != nil {
				return err
			}
			for range rounds {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := wk.playRound()
				if err != nil {
					return fmt.Errorf("worker %d (seed %d): %w", w, seed, err)
				}
				wk.stats.Add(r)
				if cfg.Progress != nil {
					cfg.Progress(int(done.Add(1)))
				}
			}
			results[w] = wk.stats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := &Statistics{}
	for _, s := range results {
		total.Merge(s)
	}
	if err := total.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	logger.Debug("Simulation complete", "rounds", total.Rounds, "net", total.Net, "return", total.Return())
	return total, nil
}

type worker struct {
	cfg      Config
	seed     int64
	engine   *engine.Engine
	stats    *Statistics
	shuffled bool
}

func newWorker(cfg Config, seed int64, logger *log.Logger) (*worker, error) {
	e, err := engine.New(cfg.Table, logger, engine.WithRandom(randutil.NewSeeded(seed)))
	if err != nil {
		return nil, err
	}
	w := &worker{cfg: cfg, seed: seed, engine: e, stats: &Statistics{}}
	e.Subscribe(engine.SubscriberFunc(func(ev engine.Event) {
		if _, ok := ev.(engine.ShoeShuffledEvent); ok {
			w.shuffled = true
		}
	}))
	return w, nil
}

// stake picks how many hands to play and the bet per hand so the balance
// always covers the round's opening stakes
func (w *worker) stake() (hands, bet int) {
	balance := w.engine.Balance()
	minBet := w.cfg.Table.MinBet
	hands = w.cfg.Table.HandCount
	for hands > 1 && balance/hands < minBet {
		hands--
	}
	return hands, min(w.cfg.Bet, balance/hands)
}

func (w *worker) playRound() (RoundResult, error) {
	e := w.engine
	w.shuffled = false

	if e.Phase() != phase.Betting {
		if err := e.StartNewRound(w.cfg.Table.HandCount); err != nil {
			return RoundResult{}, err
		}
	}
	if e.IsBankrupt() {
		if err := e.Rebuy(); err != nil {
			return RoundResult{}, err
		}
		w.stats.Rebuys++
	}

	hands, bet := w.stake()
	if hands != len(e.State().Hands) {
		if err := e.SelectHandCount(hands); err != nil {
			return RoundResult{}, err
		}
	}

	before := e.Balance()
	for i := range hands {
		if err := e.PlaceBet(i, bet); err != nil {
			return RoundResult{}, err
		}
	}
	if err := e.Deal(); err != nil {
		return RoundResult{}, err
	}

	if e.Phase() == phase.InsuranceCheck {
		if err := w.insurance(); err != nil {
			return RoundResult{}, err
		}
	}

	for e.Phase() == phase.PlayerTurn {
		if err := w.playHand(); err != nil {
			return RoundResult{}, err
		}
	}

	if e.Phase() == phase.DealerTurn {
		if err := e.PlayDealerTurn(); err != nil {
			return RoundResult{}, err
		}
	}

	results, err := e.ResolveRound()
	if err != nil {
		return RoundResult{}, err
	}

	state := e.State()
	r := RoundResult{
		Net:       e.Balance() - before,
		Seed:      w.seed,
		Hands:     results,
		Insured:   state.InsuranceTaken,
		Splits:    len(state.Hands) - hands,
		Reshuffle: w.shuffled,
	}
	for _, res := range results {
		r.Wagered += res.Bet
	}
	r.Wagered += state.InsuranceBet
	for _, h := range state.Hands {
		if h.IsDoubled {
			r.Doubled++
		}
	}
	return r, nil
}

func (w *worker) insurance() error {
	if strategy.ShouldInsure() {
		if err := w.engine.TakeInsurance(); err == nil {
			return nil
		}
	}
	return w.engine.DeclineInsurance()
}

func (w *worker) playHand() error {
	e := w.engine
	state := e.State()
	i := state.CurrentHandIndex

	d, ok := strategy.ForState(state, e.CanDoubleDown(i), e.CanSplit(i))
	if !ok {
		return fmt.Errorf("no decision for hand %d in %s", i, state.Phase)
	}

	var (
		applied bool
		err     error
	)
	switch d.Action {
	case phase.Hit:
		applied, err = e.Hit(i)
	case phase.DoubleDown:
		applied, err = e.DoubleDown(i)
	case phase.Split:
		applied, err = e.Split(i)
	default:
		applied, err = e.Stand(i)
	}
	if err != nil {
		return fmt.Errorf("%s hand %d: %w", d.Action, i, err)
	}
	if !applied {
		if _, err := e.Stand(i); err != nil {
			return err
		}
	}
	return nil
}
