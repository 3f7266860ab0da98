package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/lox/blackjack/cmd/blackjack/shared"
	"github.com/lox/blackjack/internal/simulate"
)

// SimulateCmd autoplays rounds with basic strategy and reports the return
type SimulateCmd struct {
	Rounds  int   `kong:"default='100000',help='Number of rounds to play'"`
	Workers int   `kong:"default='0',help='Parallel workers (0 for one per CPU)'"`
	Bet     int   `kong:"default='10',help='Bet per hand'"`
	Hands   int   `kong:"help='Hands per round (1-3); defaults to the config file'"`
	Seed    int64 `kong:"default='0',help='RNG seed (0 for time-based)'"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	level, err := shared.ParseLevel(cfg.UI.LogLevel, g.Debug)
	if err != nil {
		return err
	}
	logger := shared.SetupLogger(level)

	rules := cfg.EngineConfig()
	if c.Hands > 0 {
		rules.HandCount = c.Hands
	}
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	progress := newProgress(c.Rounds)
	logger.Info("Starting simulation", "rounds", c.Rounds, "workers", workers, "seed", seed)

	start := time.Now()
	stats, err := simulate.Run(ctx, simulate.Config{
		Rounds:   c.Rounds,
		Workers:  workers,
		Seed:     seed,
		Bet:      c.Bet,
		Table:    rules,
		Logger:   logger,
		Progress: progress.update,
	})
	progress.finish()
	if err != nil {
		return err
	}

	printSummary(stats, seed, time.Since(start))
	return nil
}

func printSummary(stats *simulate.Statistics, seed int64, elapsed time.Duration) {
	low, high := stats.ConfidenceInterval95()
	pct := func(n int) float64 {
		if stats.Hands == 0 {
			return 0
		}
		return float64(n) / float64(stats.Hands) * 100
	}

	fmt.Printf("\n=== RESULTS (seed %d) ===\n", seed)
	fmt.Printf("Rounds played: %d in %s\n", stats.Rounds, elapsed.Round(time.Millisecond))
	fmt.Printf("Hands played: %d\n", stats.Hands)
	fmt.Printf("Wins: %d (%.1f%%), blackjacks %d\n", stats.Wins, pct(stats.Wins), stats.Blackjacks)
	fmt.Printf("Losses: %d (%.1f%%)\n", stats.Losses, pct(stats.Losses))
	fmt.Printf("Pushes: %d (%.1f%%)\n", stats.Pushes, pct(stats.Pushes))
	fmt.Printf("Doubles: %d, splits: %d, insured: %d\n", stats.Doubles, stats.Splits, stats.Insured)
	fmt.Printf("Shoes shuffled: %d, rebuys: %d\n", stats.Shuffles, stats.Rebuys)

	fmt.Printf("\n=== STATISTICAL RESULTS ===\n")
	fmt.Printf("Wagered: %d, net: %+d\n", stats.Wagered, stats.Net)
	fmt.Printf("Return: %+.3f%% of wagers\n", stats.Return()*100)
	fmt.Printf("Mean: %.4f chips/round\n", stats.Mean())
	fmt.Printf("Median: %.4f chips/round\n", stats.Median())
	fmt.Printf("Std Dev: %.4f chips\n", stats.StdDev())
	fmt.Printf("95%% CI: [%.4f, %.4f] chips/round\n", low, high)
	fmt.Printf("Percentiles: P5=%.1f, P25=%.1f, P75=%.1f, P95=%.1f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))
}
