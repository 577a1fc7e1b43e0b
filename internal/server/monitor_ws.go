package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Monitors are read-only observers; any origin may watch.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn adapts a WebSocket to the protocol.LineIO contract so an attached
// browser monitor is just another monitor session: each snapshot line becomes
// one text message. Inbound messages are drained and discarded; the feed is
// one-way.
type wsConn struct {
	ws    *websocket.Conn
	clock quartz.Clock

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(ws *websocket.Conn, clock quartz.Clock) *wsConn {
	c := &wsConn{ws: ws, clock: clock, done: make(chan struct{})}
	go c.readLoop()
	return c
}

func (c *wsConn) readLoop() {
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			_ = c.Close()
			return
		}
	}
}

// SendLine implements protocol.LineIO.
func (c *wsConn) SendLine(s string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return protocol.ErrClosed
	default:
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(s)); err != nil {
		_ = c.Close()
		return protocol.ErrClosed
	}
	return nil
}

// ReadLine implements protocol.LineIO. Monitors never speak, so every read
// just waits out the timeout.
func (c *wsConn) ReadLine(timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return "", protocol.ErrTimeout
	}
	expired := make(chan struct{})
	timer := c.clock.AfterFunc(timeout, func() {
		close(expired)
	})
	defer timer.Stop()

	select {
	case <-expired:
		return "", protocol.ErrTimeout
	case <-c.done:
		return "", protocol.ErrClosed
	}
}

// RemoteAddr implements protocol.LineIO.
func (c *wsConn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// Close implements protocol.LineIO.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
	return nil
}

// httpHandler serves the WebSocket monitor feed and a health probe.
func (s *Server) httpHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/monitor", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
			return
		}

		label := r.URL.Query().Get("label")
		if label == "" {
			label = "Web " + s.clock.Now().Format("15:04:05")
		}

		p := game.NewPlayer(newWSConn(ws, s.clock), r.RemoteAddr)
		p.Name = "Monitor " + label
		p.Token = s.newToken(p.Name)
		p.IsMonitor = true

		select {
		case s.register <- registration{player: p, monitor: true}:
		case <-s.done:
			_ = p.Close()
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}
