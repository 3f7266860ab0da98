package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/quartz"

	"github.com/lox/blackjack/cmd/blackjack/shared"
	"github.com/lox/blackjack/internal/engine"
	"github.com/lox/blackjack/internal/feed"
	"github.com/lox/blackjack/internal/store"
	"github.com/lox/blackjack/internal/tui"
)

// PlayCmd runs the interactive table
type PlayCmd struct {
	Hands int    `kong:"help='Hands per round (1-3); defaults to the config file'"`
	Fresh bool   `kong:"help='Ignore the saved balance and start over'"`
	Feed  string `kong:"help='Serve the spectator feed on this address'"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	level, err := shared.ParseLevel(cfg.UI.LogLevel, g.Debug)
	if err != nil {
		return err
	}
	logFile, err := shared.OpenLogFile(cfg.UI.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()
	logger := shared.NewLogger(logFile, level)

	tui.ApplyTheme(cfg.UI.Theme)

	rules := cfg.EngineConfig()
	if c.Hands > 0 {
		rules.HandCount = c.Hands
	}

	clock := quartz.NewReal()
	saves := store.New(cfg.Store.Path, clock, logger)
	opts := []engine.Option{engine.WithClock(clock)}

	saved, ok := saves.Load()
	if ok && !c.Fresh {
		logger.Info("Restoring balance", "balance", saved.Balance, "rounds", saved.RoundsPlayed)
		opts = append(opts, engine.WithBalance(saved.Balance))
	}

	e, err := engine.New(rules, logger, opts...)
	if err != nil {
		return err
	}

	var autosaver *store.Autosaver
	if cfg.AutosaveEnabled() {
		autosaver = store.NewAutosaver(saves, saved)
		e.Subscribe(autosaver)
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	addr := c.Feed
	if addr == "" && cfg.Feed.Enabled {
		addr = cfg.Feed.Address
	}
	if addr != "" {
		hub := feed.NewHub(addr, clock, logger)
		e.Subscribe(hub)
		go func() {
			if err := hub.Start(ctx); err != nil {
				logger.Error("Spectator feed stopped", "error", err)
			}
		}()
	}

	model := tui.NewTUIModel(e, logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if autosaver != nil {
		if err := autosaver.Err(); err != nil {
			return fmt.Errorf("balance not saved: %w", err)
		}
	}
	fmt.Printf("Leaving the table with $%d.\n", e.Balance())
	return nil
}
