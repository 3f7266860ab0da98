// Package store saves the player's bankroll between sessions. Only the
// balance and running totals persist; a restored game always starts in the
// betting phase.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjack/internal/engine"
)

const formatVersion = 1

// Save is the persisted session record
type Save struct {
	Version      int       `json:"version"`
	Balance      int       `json:"balance"`
	RoundsPlayed int       `json:"roundsPlayed"`
	Net          int       `json:"net"`
	LastRoundID  string    `json:"lastRoundId,omitempty"`
	SavedAt      time.Time `json:"savedAt"`
}

// Store reads and writes a single save file
type Store struct {
	path   string
	clock  quartz.Clock
	logger *log.Logger
}

// New returns a store for the file at path
func New(path string, clock quartz.Clock, logger *log.Logger) *Store {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{path: path, clock: clock, logger: logger.WithPrefix("store")}
}

// Path returns the save file location
func (s *Store) Path() string {
	return s.path
}

// Save writes the record atomically, stamping version and time
func (s *Store) Save(save Save) error {
	save.Version = formatVersion
	save.SavedAt = s.clock.Now().UTC()

	data, err := json.MarshalIndent(save, "", "  ")
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write save %s: %w", s.path, err)
	}
	s.logger.Debug("Saved", "path", s.path, "balance", save.Balance, "rounds", save.RoundsPlayed)
	return nil
}

// Load reads the save file. A missing, unreadable or corrupt file is not an
// error: it is logged and reported as no save (ok == false) so the game can
// start fresh.
func (s *Store) Load() (save Save, ok bool) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Save{}, false
	}
	if err != nil {
		s.logger.Warn("Ignoring unreadable save", "path", s.path, "error", err)
		return Save{}, false
	}

	if err := json.Unmarshal(data, &save); err != nil {
		s.logger.Warn("Ignoring corrupt save", "path", s.path, "error", err)
		return Save{}, false
	}
	if save.Version != formatVersion || save.Balance < 0 || save.RoundsPlayed < 0 {
		s.logger.Warn("Ignoring invalid save", "path", s.path, "version", save.Version, "balance", save.Balance)
		return Save{}, false
	}
	return save, true
}

// Autosaver keeps a running Save up to date from engine events and writes
// it after every settled round and rebuy
type Autosaver struct {
	store   *Store
	current Save
	err     error
}

// NewAutosaver starts tracking from a previously loaded record
func NewAutosaver(store *Store, from Save) *Autosaver {
	return &Autosaver{store: store, current: from}
}

// OnEvent implements engine.Subscriber
func (a *Autosaver) OnEvent(event engine.Event) {
	switch ev := event.(type) {
	case engine.RoundResolvedEvent:
		a.current.RoundsPlayed++
		a.current.Net += ev.Net
		a.current.LastRoundID = ev.RoundID
		a.current.Balance = ev.State.Balance
	case engine.StateChangeEvent:
		if ev.Action != "rebuy" {
			return
		}
		a.current.Balance = ev.State.Balance
	default:
		return
	}

	if err := a.store.Save(a.current); err != nil {
		a.err = err
		a.store.logger.Error("Autosave failed", "error", err)
	}
}

// Current returns the latest tracked record
func (a *Autosaver) Current() Save {
	return a.current
}

// Err returns the most recent save failure, if any
func (a *Autosaver) Err() error {
	return a.err
}
