package server

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/protocol"
)

const tokenSalt = "SaltServer"

// registration is the outcome of a successful handshake, handed to the run
// loop for seating between rounds.
type registration struct {
	player  *game.Player
	monitor bool
}

// handshake greets a fresh connection and resolves it into a registration, or
// nil when the session ends at the door (SET, timeout, bad token, bad
// password). The connection is closed on every nil return.
func (s *Server) handshake(io protocol.LineIO) *registration {
	p := game.NewPlayer(io, io.RemoteAddr())

	deadline := s.clock.Now().Add(s.settings.CommandTimeout())
	verb, noun, err := p.Ask(s.table, deadline, protocol.ServerGreeting, []string{
		protocol.VerbRegister,
		protocol.VerbLogin,
		protocol.VerbMonitor,
		protocol.VerbSet,
	})
	if err != nil {
		return nil
	}
	if verb == "" {
		// Timed out before introducing itself.
		_ = io.Close()
		return nil
	}

	switch verb {
	case protocol.VerbRegister:
		return s.registerPlayer(p, noun)
	case protocol.VerbLogin:
		return s.login(p, noun)
	case protocol.VerbMonitor:
		return s.monitor(p, noun)
	case protocol.VerbSet:
		s.adminSet(p, noun)
		return nil
	}
	return nil
}

// register creates a new player identity with a fresh bankroll and token.
func (s *Server) registerPlayer(p *game.Player, noun string) *registration {
	name := strings.TrimSpace(noun)
	if name == "" {
		_ = p.Send(protocol.VerbInvalid + " Please supply a name.")
		_ = p.Close()
		return nil
	}
	if name == "Playername" {
		_ = p.Send(protocol.VerbInvalid + " Please use a real name, not the example name.")
		_ = p.Close()
		return nil
	}

	p.Name = strings.ReplaceAll(name, " ", "_")
	p.Token = s.newToken(p.Name)
	p.SetCurrency(s.settings.StartCurrency())

	if err := p.Send(protocol.VerbToken + " " + p.Token); err != nil {
		return nil
	}
	s.log.Info("player registered", "name", p.Name, "addr", p.Addr)
	return &registration{player: p}
}

// login restores a previously saved player from its token.
func (s *Server) login(p *game.Player, noun string) *registration {
	token := strings.TrimSpace(noun)

	var rec game.PlayerRecord
	if err := s.store.LoadState("Player", token, &rec); err != nil {
		s.log.Warn("login with unknown token", "addr", p.Addr, "error", err)
		_ = p.Send(protocol.VerbBye + " Invalid client.")
		_ = p.Close()
		return nil
	}

	p.Name = rec.Name
	p.Token = token
	p.SetCurrency(rec.Currency)

	if err := p.Send(protocol.VerbOK); err != nil {
		return nil
	}
	s.log.Info("player logged in", "name", p.Name, "addr", p.Addr)
	return &registration{player: p}
}

// monitor attaches an observer session. The label is cosmetic; an anonymous
// monitor gets a timestamped one.
func (s *Server) monitor(p *game.Player, noun string) *registration {
	label := strings.TrimSpace(noun)
	if label == "" {
		label = "Generic " + s.clock.Now().Format("15:04:05")
	}

	p.Name = "Monitor " + label
	p.Token = s.newToken(p.Name)
	p.IsMonitor = true

	if err := p.Send(protocol.VerbOK); err != nil {
		return nil
	}
	return &registration{player: p, monitor: true}
}

// adminSet applies an authenticated runtime override. The connection is
// one-shot: reply and close.
func (s *Server) adminSet(p *game.Player, noun string) {
	defer p.Close()

	fields := strings.Fields(noun)
	if len(fields) != 3 || fields[0] != s.cfg.Server.AdminPassword {
		s.log.Warn("rejected admin command", "addr", p.Addr)
		_ = p.Send(protocol.VerbBye + " Invalid client.")
		return
	}

	if err := s.table.Settings().Set(fields[1], fields[2]); err != nil {
		_ = p.Send(protocol.VerbInvalid + " " + err.Error())
		return
	}
	s.log.Info("setting changed", "param", strings.ToUpper(fields[1]), "value", fields[2])
	_ = p.Send(protocol.VerbOK)
}

// newToken derives an opaque session token. The name and clock salt the hash;
// the random bytes make collisions between same-named registrations a
// non-issue.
func (s *Server) newToken(name string) string {
	var nonce [16]byte
	_, _ = rand.Read(nonce[:])

	h := md5.New()
	h.Write([]byte(tokenSalt))
	h.Write([]byte(name))
	h.Write([]byte(s.clock.Now().String()))
	h.Write(nonce[:])
	return hex.EncodeToString(h.Sum(nil))
}
