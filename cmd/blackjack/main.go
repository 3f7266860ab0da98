package main

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/blackjack/internal/config"
)

// version is set by ldflags during build
var version = "dev"

// Globals are the flags shared by every command
type Globals struct {
	ConfigFile string `kong:"name='config',short='c',default='${config_path}',type='path',help='HCL config file'"`
	Debug      bool   `kong:"help='Enable debug logging'"`
	NoColor    bool   `kong:"name='no-color',help='Disable colour output'"`
}

// load reads and validates the config file named by --config
func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", g.ConfigFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", g.ConfigFile, err)
	}
	return cfg, nil
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"1" help:"Play at the table (default)"`
	Simulate SimulateCmd      `cmd:"" help:"Measure the game's return with basic strategy"`
	Config   ConfigCmd        `cmd:"" help:"Print the resolved configuration"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Single-player blackjack for the terminal"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":     version,
			"config_path": config.DefaultPath,
		},
	)

	if cli.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
