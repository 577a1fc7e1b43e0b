package server

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/protocol"
)

// maxLineLen bounds a single protocol line. Commands fit in a few dozen
// bytes; 64 KiB gives misbehaving clients room without unbounded buffering.
const maxLineLen = 64 * 1024

// lineConn adapts a TCP connection to the protocol.LineIO contract. A
// dedicated reader goroutine scans newline-delimited frames into a channel so
// ReadLine can race a received line against a clock deadline without touching
// socket deadlines directly.
type lineConn struct {
	conn     net.Conn
	clock    quartz.Clock
	log      *log.Logger
	settings *game.Settings

	lines chan string
	done  chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newLineConn(conn net.Conn, clock quartz.Clock, logger *log.Logger, settings *game.Settings) *lineConn {
	c := &lineConn{
		conn:     conn,
		clock:    clock,
		log:      logger.WithPrefix("conn").With("addr", conn.RemoteAddr().String()),
		settings: settings,
		lines:    make(chan string, 32),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *lineConn) readLoop() {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLen)
	for scanner.Scan() {
		line := scanner.Text()
		c.logComms("recv", line)
		select {
		case c.lines <- line:
		case <-c.done:
			return
		}
	}
	// EOF, peer reset, or an over-long line: either way the session is over.
	_ = c.Close()
}

// SendLine writes one newline-terminated line.
func (c *lineConn) SendLine(s string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return protocol.ErrClosed
	default:
	}

	c.logComms("send", s)
	if _, err := c.conn.Write([]byte(s + "\n")); err != nil {
		_ = c.Close()
		return fmt.Errorf("%w: %v", protocol.ErrClosed, err)
	}
	return nil
}

// ReadLine returns the next full line, waiting at most timeout. A non-positive
// timeout only drains an already-buffered line.
func (c *lineConn) ReadLine(timeout time.Duration) (string, error) {
	// Buffered input wins over a concurrent close or an expired deadline.
	select {
	case line := <-c.lines:
		return line, nil
	default:
	}

	if timeout <= 0 {
		select {
		case line := <-c.lines:
			return line, nil
		case <-c.done:
			return "", protocol.ErrClosed
		default:
			return "", protocol.ErrTimeout
		}
	}

	expired := make(chan struct{})
	timer := c.clock.AfterFunc(timeout, func() {
		close(expired)
	})
	defer timer.Stop()

	select {
	case line := <-c.lines:
		return line, nil
	case <-expired:
		return "", protocol.ErrTimeout
	case <-c.done:
		return "", protocol.ErrClosed
	}
}

// RemoteAddr returns the peer address.
func (c *lineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close shuts the connection down; subsequent sends and reads fail with
// ErrClosed. Safe to call more than once.
func (c *lineConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
	return nil
}

func (c *lineConn) logComms(dir, line string) {
	if c.settings != nil && c.settings.ShowComms() {
		c.log.Info(dir, "line", line)
	} else {
		c.log.Debug(dir, "line", line)
	}
}
