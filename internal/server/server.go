package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjackforbots/internal/deck"
	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/randutil"
)

// Server owns the listeners, the handshake, and the run loop that drives the
// single table round after round. Sessions join through the register channel
// and are seated between rounds.
type Server struct {
	cfg      *Config
	log      *log.Logger
	clock    quartz.Clock
	settings *game.Settings
	store    Store
	table    *game.Table

	ln       net.Listener
	httpSrv  *http.Server
	register chan registration

	done      chan struct{}
	closeOnce sync.Once
}

// New assembles a server from configuration. The clock is injectable so tests
// can drive deadlines and the between-round wait without real time passing.
func New(cfg *Config, logger *log.Logger, clock quartz.Clock, store Store) *Server {
	if store == nil {
		store = NoopStore{}
	}
	settings := cfg.gameSettings()
	shoe := deck.NewShoe(settings.MinimumDecks(), randutil.New(cfg.Server.Seed))

	return &Server{
		cfg:      cfg,
		log:      logger,
		clock:    clock,
		settings: settings,
		store:    store,
		table:    game.NewTable(logger, clock, settings, store, shoe),
		register: make(chan registration, 64),
		done:     make(chan struct{}),
	}
}

// Table exposes the game table, mainly for tests and the monitor feed.
func (s *Server) Table() *game.Table {
	return s.table
}

// Addr returns the bound listener address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// ListenAndServe binds the TCP listener (and the optional HTTP listener for
// the WebSocket monitor feed), then blocks running rounds until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Server.Addr, err)
	}
	s.ln = ln
	s.log.Info("listening", "addr", ln.Addr().String())

	if s.cfg.Server.HTTPAddr != "" {
		s.httpSrv = &http.Server{Addr: s.cfg.Server.HTTPAddr, Handler: s.httpHandler()}
		go func() {
			s.log.Info("http listening", "addr", s.cfg.Server.HTTPAddr)
			if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("http listener failed", "error", err)
			}
		}()
	}

	go s.acceptLoop()
	s.runLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}
		go s.handleConn(conn)
	}
}

// handleConn runs the handshake off the coordinator so a slow client cannot
// stall a round, then queues the session for seating.
func (s *Server) handleConn(conn net.Conn) {
	io := newLineConn(conn, s.clock, s.log, s.settings)
	reg := s.handshake(io)
	if reg == nil {
		return
	}
	select {
	case s.register <- *reg:
	case <-s.done:
		_ = reg.player.Close()
	}
}

// runLoop is the round coordinator: seat pending sessions, play a round, wait
// the configured pause, repeat. With nobody seated it blocks on the register
// channel instead of spinning.
func (s *Server) runLoop() {
	for {
		s.drainRegistrations()

		if s.table.PlayerCount() == 0 {
			select {
			case reg := <-s.register:
				s.seat(reg)
				continue
			case <-s.done:
				return
			}
		}

		s.table.PlayRound()

		select {
		case <-s.done:
			return
		default:
		}
		s.sleep(s.settings.GameWait())
	}
}

func (s *Server) drainRegistrations() {
	for {
		select {
		case reg := <-s.register:
			s.seat(reg)
		default:
			return
		}
	}
}

func (s *Server) seat(reg registration) {
	if reg.monitor {
		s.table.AddMonitor(reg.player)
		return
	}
	s.table.AddPlayer(reg.player)
}

// sleep blocks for d on the injected clock, returning early on shutdown.
func (s *Server) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	waited := make(chan struct{})
	timer := s.clock.AfterFunc(d, func() {
		close(waited)
	})
	defer timer.Stop()
	select {
	case <-waited:
	case <-s.done:
	}
}

// Shutdown tells every connected session goodbye and tears the listeners
// down. Safe to call more than once.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.table.Broadcast("BYE Server is shutting down.")
		if s.ln != nil {
			_ = s.ln.Close()
		}
		if s.httpSrv != nil {
			_ = s.httpSrv.Close()
		}
		s.log.Info("server stopped")
	})
}
