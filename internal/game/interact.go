package game

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/lox/blackjackforbots/internal/protocol"
)

// Ask drives a single prompt/response exchange against the given allowed-verb
// set. The acceptor uses it for the HELLO handshake; the phases use the
// unexported form with their richer prompt configuration. An empty verb with a
// nil error means the client timed out.
func (p *Player) Ask(t *Table, deadline time.Time, text string, valid []string) (verb, noun string, err error) {
	return p.ask(t, deadline, prompt{text: text, valid: valid})
}

// prompt describes one request/response exchange with a client: the line to
// send, the verbs accepted in reply, the verb substituted on timeout, and
// per-verb explanations for replies that are recognized but currently
// illegal.
type prompt struct {
	text        string
	valid       []string
	timeoutVerb string
	invalid     map[string]string
}

// ask is the interaction primitive every phase is built on. It sends the
// prompt and reads replies until one carries an allowed verb or the deadline
// passes. Disallowed or malformed replies get an INVALID and another read
// against the same deadline. On timeout the client is told TIMEOUT and the
// prompt's timeout verb is returned with an empty noun. A transport failure
// marks the session disconnected and is the only way ask returns an error.
func (p *Player) ask(t *Table, deadline time.Time, pr prompt) (string, string, error) {
	p.mu.Lock()
	p.timedout = false
	p.active = true
	p.interactions++
	p.mu.Unlock()
	t.updateMonitors()

	if err := p.Send(pr.text); err != nil {
		return "", "", err
	}

	start := t.clock.Now()
	for {
		line, err := p.io.ReadLine(deadline.Sub(t.clock.Now()))
		if errors.Is(err, protocol.ErrTimeout) {
			_ = p.Send(protocol.VerbTimeout)
			p.mu.Lock()
			p.active = false
			p.timedout = true
			p.waitTime += t.clock.Since(start)
			p.mu.Unlock()
			return pr.timeoutVerb, "", nil
		}
		if err != nil {
			p.mu.Lock()
			p.active = false
			p.waitTime += t.clock.Since(start)
			p.mu.Unlock()
			p.disconnect()
			return "", "", err
		}

		verb, noun, ok := protocol.ParseCommand(line)
		if !ok {
			if err := p.Send(protocol.VerbInvalid + " Bad command format"); err != nil {
				return "", "", err
			}
			continue
		}

		if slices.Contains(pr.valid, verb) {
			p.mu.Lock()
			p.active = false
			p.waitTime += t.clock.Since(start)
			p.mu.Unlock()
			return verb, noun, nil
		}

		var reply string
		if msg, found := pr.invalid[verb]; found {
			reply = protocol.VerbInvalid + " " + msg
		} else {
			reply = protocol.VerbInvalid + " Bad command '" + verb + "' - valid commands: " + strings.Join(pr.valid, " ")
		}
		if err := p.Send(reply); err != nil {
			return "", "", err
		}
	}
}
