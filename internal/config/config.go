// Package config loads the blackjack HCL configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/blackjack/internal/engine"
)

// DefaultPath is where the CLI looks for a config file
const DefaultPath = "blackjack.hcl"

// Config represents the complete configuration
type Config struct {
	Table *TableSettings `hcl:"table,block"`
	Store *StoreSettings `hcl:"store,block"`
	UI    *UISettings    `hcl:"ui,block"`
	Feed  *FeedSettings  `hcl:"feed,block"`
}

// TableSettings contains the house rules
type TableSettings struct {
	StartingBalance int  `hcl:"starting_balance,optional"`
	DeckCount       int  `hcl:"deck_count,optional"`
	MinBet          int  `hcl:"min_bet,optional"`
	MaxBet          int  `hcl:"max_bet,optional"`
	ReshuffleAt     *int `hcl:"reshuffle_at,optional"`
	HandCount       int  `hcl:"hand_count,optional"`
}

// StoreSettings controls where the balance is saved between sessions
type StoreSettings struct {
	Path     string `hcl:"path,optional"`
	Autosave *bool  `hcl:"autosave,optional"`
}

// UISettings contains terminal interface settings
type UISettings struct {
	Theme    string `hcl:"theme,optional"`
	LogFile  string `hcl:"log_file,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// FeedSettings controls the spectator websocket feed
type FeedSettings struct {
	Address string `hcl:"address,optional"`
	Enabled bool   `hcl:"enabled,optional"`
}

// Default returns the default configuration
func Default() *Config {
	autosave := true
	reshuffleAt := 52
	return &Config{
		Table: &TableSettings{
			StartingBalance: engine.DefaultStartingBalance,
			DeckCount:       engine.DefaultDeckCount,
			MinBet:          engine.DefaultMinBet,
			MaxBet:          0,
			ReshuffleAt:     &reshuffleAt,
			HandCount:       1,
		},
		Store: &StoreSettings{
			Path:     "blackjack-save.json",
			Autosave: &autosave,
		},
		UI: &UISettings{
			Theme:    "default",
			LogFile:  "blackjack.log",
			LogLevel: "warn",
		},
		Feed: &FeedSettings{
			Address: "localhost:8080",
			Enabled: false,
		},
	}
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults; blocks and settings left out of the file keep their default
// values. A reshuffle_at of 0 disables reshuffling.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults(Default())
	return &cfg, nil
}

func (c *Config) applyDefaults(defaults *Config) {
	if c.Table == nil {
		c.Table = defaults.Table
	}
	if c.Store == nil {
		c.Store = defaults.Store
	}
	if c.UI == nil {
		c.UI = defaults.UI
	}
	if c.Feed == nil {
		c.Feed = defaults.Feed
	}

	if c.Table.StartingBalance == 0 {
		c.Table.StartingBalance = defaults.Table.StartingBalance
	}
	if c.Table.DeckCount == 0 {
		c.Table.DeckCount = defaults.Table.DeckCount
	}
	if c.Table.MinBet == 0 {
		c.Table.MinBet = defaults.Table.MinBet
	}
	if c.Table.HandCount == 0 {
		c.Table.HandCount = defaults.Table.HandCount
	}
	if c.Table.ReshuffleAt == nil {
		c.Table.ReshuffleAt = defaults.Table.ReshuffleAt
	}

	if c.Store.Path == "" {
		c.Store.Path = defaults.Store.Path
	}
	if c.Store.Autosave == nil {
		c.Store.Autosave = defaults.Store.Autosave
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.LogFile == "" {
		c.UI.LogFile = defaults.UI.LogFile
	}
	if c.UI.LogLevel == "" {
		c.UI.LogLevel = defaults.UI.LogLevel
	}

	if c.Feed.Address == "" {
		c.Feed.Address = defaults.Feed.Address
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.UI.LogLevel)] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	validThemes := map[string]bool{
		"default": true,
		"dark":    true,
		"light":   true,
	}
	if !validThemes[c.UI.Theme] {
		return fmt.Errorf("invalid theme: %s", c.UI.Theme)
	}

	if c.Feed.Enabled && c.Feed.Address == "" {
		return errors.New("feed address is required when the feed is enabled")
	}

	return nil
}

// EngineConfig converts the table block into engine rules
func (c *Config) EngineConfig() engine.Config {
	ec := engine.Config{
		StartingBalance: c.Table.StartingBalance,
		DeckCount:       c.Table.DeckCount,
		MinBet:          c.Table.MinBet,
		MaxBet:          c.Table.MaxBet,
		HandCount:       c.Table.HandCount,
	}
	if c.Table.ReshuffleAt != nil {
		ec.ReshuffleAt = *c.Table.ReshuffleAt
	}
	return ec
}

// AutosaveEnabled reports whether the balance is saved after every round
func (c *Config) AutosaveEnabled() bool {
	return c.Store.Autosave == nil || *c.Store.Autosave
}
