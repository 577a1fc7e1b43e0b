package game

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Settings holds the process-wide tunables. The admin SET verb mutates them
// at runtime from a handshake goroutine while rounds read them, so every
// access goes through the lock.
type Settings struct {
	mu             sync.RWMutex
	commandTimeout time.Duration
	shoeMinPercent int
	gameWait       time.Duration
	startCurrency  int
	minimumDecks   int
	showComms      bool
}

// NewSettings returns settings with the stock defaults.
func NewSettings() *Settings {
	return &Settings{
		commandTimeout: time.Second,
		shoeMinPercent: 20,
		gameWait:       10 * time.Millisecond,
		startCurrency:  10000,
		minimumDecks:   6,
	}
}

// CommandTimeout is how long a client gets to answer a prompt.
func (s *Settings) CommandTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commandTimeout
}

// SetCommandTimeout overrides the per-prompt deadline.
func (s *Settings) SetCommandTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commandTimeout = d
}

// ShoeMinPercent is the reshuffle threshold as a percentage of a full shoe.
func (s *Settings) ShoeMinPercent() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shoeMinPercent
}

// SetShoeMinPercent overrides the reshuffle threshold.
func (s *Settings) SetShoeMinPercent(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shoeMinPercent = n
}

// GameWait is the pause between rounds.
func (s *Settings) GameWait() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gameWait
}

// SetGameWait overrides the pause between rounds.
func (s *Settings) SetGameWait(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameWait = d
}

// StartCurrency is the bankroll granted to newly registered players.
func (s *Settings) StartCurrency() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startCurrency
}

// SetStartCurrency overrides the starting bankroll.
func (s *Settings) SetStartCurrency(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startCurrency = n
}

// MinimumDecks is the fewest decks a reshuffled shoe may hold.
func (s *Settings) MinimumDecks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minimumDecks
}

// SetMinimumDecks overrides the minimum deck count.
func (s *Settings) SetMinimumDecks(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minimumDecks = n
}

// ShowComms reports whether per-line transport logging is wanted.
func (s *Settings) ShowComms() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showComms
}

// SetShowComms toggles per-line transport logging.
func (s *Settings) SetShowComms(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showComms = v
}

// Set applies an authenticated admin override. param is one of TIMEOUT, SHOE,
// WAIT, START, DECKS, COMMS; TIMEOUT and WAIT take float seconds, the rest
// integers.
func (s *Settings) Set(param, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch strings.ToUpper(param) {
	case "TIMEOUT":
		secs, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("bad TIMEOUT value %q: %w", value, err)
		}
		s.commandTimeout = time.Duration(secs * float64(time.Second))
	case "SHOE":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad SHOE value %q: %w", value, err)
		}
		s.shoeMinPercent = n
	case "WAIT":
		secs, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("bad WAIT value %q: %w", value, err)
		}
		s.gameWait = time.Duration(secs * float64(time.Second))
	case "START":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad START value %q: %w", value, err)
		}
		s.startCurrency = n
	case "DECKS":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad DECKS value %q: %w", value, err)
		}
		s.minimumDecks = n
	case "COMMS":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad COMMS value %q: %w", value, err)
		}
		s.showComms = n != 0
	default:
		return fmt.Errorf("unknown parameter %q", param)
	}
	return nil
}
