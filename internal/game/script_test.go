package game

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjackforbots/internal/deck"
	"github.com/lox/blackjackforbots/internal/protocol"
	"github.com/lox/blackjackforbots/internal/randutil"
)

// scriptIO is a LineIO whose replies are scripted up front. An exhausted
// script times every further read out, which is how a test expresses "the
// client goes quiet".
type scriptIO struct {
	mu      sync.Mutex
	replies []string
	sent    []string
	closed  bool
}

func newScriptIO(replies ...string) *scriptIO {
	return &scriptIO{replies: replies}
}

func (s *scriptIO) SendLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return protocol.ErrClosed
	}
	s.sent = append(s.sent, line)
	return nil
}

func (s *scriptIO) ReadLine(timeout time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", protocol.ErrClosed
	}
	if len(s.replies) == 0 {
		return "", protocol.ErrTimeout
	}
	line := s.replies[0]
	s.replies = s.replies[1:]
	return line, nil
}

func (s *scriptIO) RemoteAddr() string { return "script" }

func (s *scriptIO) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *scriptIO) sentLines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func (s *scriptIO) lastSent(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sent) - 1; i >= 0; i-- {
		if strings.HasPrefix(s.sent[i], prefix) {
			return s.sent[i]
		}
	}
	return ""
}

// parseCards reads a rigged deal, spaces allowed for readability.
func parseCards(s string) ([]deck.Card, error) {
	return deck.ParseCards(strings.ReplaceAll(s, " ", ""))
}

func newTestTable() *Table {
	settings := NewSettings()
	settings.SetCommandTimeout(50 * time.Millisecond)
	shoe := deck.NewShoe(1, randutil.New(1))
	return NewTable(log.New(io.Discard), quartz.NewReal(), settings, nil, shoe)
}

// seatScripted registers a scripted player with a starting bankroll.
func seatScripted(t *Table, name string, currency int, replies ...string) (*Player, *scriptIO) {
	io := newScriptIO(replies...)
	p := NewPlayer(io, "script")
	p.Name = name
	p.Token = "token-" + name
	p.SetCurrency(currency)
	t.AddPlayer(p)
	return p, io
}
