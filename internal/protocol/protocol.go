// Package protocol defines the line-oriented wire protocol spoken between the
// blackjack server and its clients, and the transport contract the game layer
// drives it through.
//
// Every message is a single newline-terminated line of the form
// `VERB [NOUN...]`. Verbs are case-insensitive on reception and upper-cased on
// emission; the noun is everything after the first separating space, preserved
// as-is.
package protocol

import (
	"errors"
	"strings"
	"time"
)

// ServerGreeting is the first line sent on every new connection.
const ServerGreeting = "HELLO BlackjackServer v1.00"

// Server -> client verbs.
const (
	VerbHello     = "HELLO"
	VerbToken     = "TOKEN"
	VerbOK        = "OK"
	VerbReady     = "READY"
	VerbInsurance = "INSURANCE"
	VerbAct       = "ACT"
	VerbTimeout   = "TIMEOUT"
	VerbDone      = "DONE"
	VerbInvalid   = "INVALID"
	VerbBye       = "BYE"
)

// Client -> server verbs.
const (
	VerbRegister = "REGISTER"
	VerbLogin    = "LOGIN"
	VerbMonitor  = "MONITOR"
	VerbSet      = "SET"
	VerbBet      = "BET"
	VerbYes      = "YES"
	VerbNo       = "NO"
	VerbHit      = "HIT"
	VerbStand    = "STAND"
	VerbDouble   = "DOUBLE"
	VerbSplit    = "SPLIT"
)

// Transport errors surfaced by LineIO implementations.
var (
	// ErrTimeout means no full line arrived before the deadline.
	ErrTimeout = errors.New("read timed out")
	// ErrClosed means the peer closed the connection or a write failed.
	ErrClosed = errors.New("connection closed")
)

// LineIO is the framed text transport a session is driven through. SendLine
// appends the newline; ReadLine strips it. Both report ErrClosed once the
// underlying connection has failed, after which no further I/O is attempted.
type LineIO interface {
	SendLine(s string) error
	ReadLine(timeout time.Duration) (string, error)
	RemoteAddr() string
	Close() error
}

// ParseCommand splits a received line into an upper-cased verb and its noun.
// The noun keeps its original case. ok is false when the line holds no verb at
// all (empty or leading whitespace), which callers treat as a malformed
// command.
func ParseCommand(line string) (verb, noun string, ok bool) {
	if line == "" {
		return "", "", false
	}
	i := strings.IndexByte(line, ' ')
	if i < 0 {
		verb = line
	} else {
		verb = line[:i]
		noun = line[i+1:]
	}
	if verb == "" || strings.IndexFunc(verb, func(r rune) bool {
		return !isWordRune(r)
	}) >= 0 {
		return "", "", false
	}
	return strings.ToUpper(verb), noun, true
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}
