// SPDX-License-Identifier: Apache-2.0
package prefs

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

const (
	// DefaultDebounce is the quiet period before a change is persisted
	DefaultDebounce = 500 * time.Millisecond

	// SaveFailedWarning is shown when persisting preferences fails
	SaveFailedWarning = "Failed to save your preferences"

	// LoadFailedWarning is shown when stored preferences cannot be read
	LoadFailedWarning = "Could not load your saved preferences, using defaults"

	saveTimeout = 10 * time.Second
)

// Backend reads and writes stored preferences
type Backend interface {
	Preferences(ctx context.Context) (*Preferences, error)
	SavePreferences(ctx context.Context, p Preferences) error
}

// LoadedMsg reports the result of the initial load
type LoadedMsg struct {
	Preferences Preferences
	Err         error
}

// SavedMsg reports the result of a persist
type SavedMsg struct {
	Preferences Preferences
	Err         error
}

// persistMsg fires when a debounce window closes
type persistMsg struct {
	seq uint64
}

// Store owns the in-memory preferences and their persistence.
//
// Changes made through Set are persisted after a quiet period. Every Set
// restarts the window, so a burst of changes results in one save of the
// final value. The initial load never triggers a save.
type Store struct {
	backend  Backend
	debounce time.Duration

	mu      sync.RWMutex
	current Preferences
	loaded  bool
	dirty   bool
	seq     uint64
	warning string
}

// NewStore creates a store holding the default preferences
func NewStore(backend Backend, debounce time.Duration) *Store {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Store{
		backend:  backend,
		debounce: debounce,
		current:  Default(),
	}
}

// Current returns a copy of the in-memory preferences
func (s *Store) Current() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// TelemetryEnabled reports the current telemetry preference
func (s *Store) TelemetryEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Telemetry
}

// Loaded reports whether the initial load has completed
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Warning returns the pending user-visible warning, if any
func (s *Store) Warning() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.warning
}

// DismissWarning clears the pending warning
func (s *Store) DismissWarning() {
	s.mu.Lock()
	s.warning = ""
	s.mu.Unlock()
}

// Load fetches stored preferences synchronously. It always leaves the
// store holding valid preferences; a non-nil error is a warning only.
func (s *Store) Load(ctx context.Context) (Preferences, error) {
	p, err := fetch(ctx, s.backend)
	s.applyLoaded(p, err)
	return p, err
}

// LoadCmd fetches stored preferences from a command goroutine
func (s *Store) LoadCmd() tea.Cmd {
	backend := s.backend
	return func() tea.Msg {
		p, err := fetch(context.Background(), backend)
		return LoadedMsg{Preferences: p, Err: err}
	}
}

func fetch(ctx context.Context, backend Backend) (Preferences, error) {
	if backend == nil {
		return Default(), nil
	}
	stored, err := backend.Preferences(ctx)
	if err != nil {
		return Default(), fmt.Errorf("failed to load preferences: %w", err)
	}
	if stored == nil {
		return Default(), nil
	}
	return stored.Normalize(), nil
}

func (s *Store) applyLoaded(p Preferences, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	if err != nil {
		log.Warn("preferences load failed, using defaults", "err", err)
		s.warning = LoadFailedWarning
	}
	// Edits made before the load landed win over the stored values
	if s.dirty {
		log.Debug("preferences loaded after local edits, keeping edits")
		return
	}
	s.current = p
}

// Set merges a partial update and schedules a debounced persist
func (s *Store) Set(patch Patch) tea.Cmd {
	s.mu.Lock()
	s.current = s.current.Merge(patch)
	s.dirty = true
	s.seq++
	seq := s.seq
	debounce := s.debounce
	s.mu.Unlock()

	return tea.Tick(debounce, func(time.Time) tea.Msg {
		return persistMsg{seq: seq}
	})
}

// Update handles the store's own messages. Other messages are ignored.
func (s *Store) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case LoadedMsg:
		s.applyLoaded(msg.Preferences, msg.Err)
		return nil

	case persistMsg:
		s.mu.RLock()
		latest := msg.seq == s.seq
		p := s.current
		s.mu.RUnlock()
		if !latest {
			// Superseded by a later change or cancelled
			return nil
		}
		return s.persistCmd(p)

	case SavedMsg:
		s.applySaved(msg.Err)
		return nil
	}
	return nil
}

// Flush persists the current preferences now, replacing any pending save
func (s *Store) Flush() tea.Cmd {
	s.mu.Lock()
	s.seq++
	p := s.current
	s.mu.Unlock()
	return s.persistCmd(p)
}

// Persist saves the current preferences synchronously, replacing any
// pending save
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	p := s.current
	s.mu.Unlock()

	err := s.save(ctx, p)
	s.applySaved(err)
	return err
}

// Cancel drops any pending debounced save
func (s *Store) Cancel() {
	s.mu.Lock()
	s.seq++
	s.mu.Unlock()
}

func (s *Store) persistCmd(p Preferences) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		return SavedMsg{Preferences: p, Err: s.save(ctx, p)}
	}
}

func (s *Store) save(ctx context.Context, p Preferences) error {
	if s.backend == nil {
		return nil
	}
	log.Debug("persisting preferences", "telemetry", p.Telemetry, "theme", p.Theme)
	if err := s.backend.SavePreferences(ctx, p); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

func (s *Store) applySaved(err error) {
	if err == nil {
		return
	}
	log.Warn("preferences save failed", "err", err)
	s.mu.Lock()
	s.warning = SaveFailedWarning
	s.mu.Unlock()
}
