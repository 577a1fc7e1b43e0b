package server

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/protocol"
)

func newTestConn(t *testing.T) (*lineConn, net.Conn) {
	t.Helper()
	client, srv := net.Pipe()
	c := newLineConn(srv, quartz.NewReal(), log.New(io.Discard), game.NewSettings())
	t.Cleanup(func() {
		_ = c.Close()
		_ = client.Close()
	})
	return c, client
}

func TestLineConnSendLine(t *testing.T) {
	c, client := newTestConn(t)

	done := make(chan string, 1)
	go func() {
		r := bufio.NewReader(client)
		line, _ := r.ReadString('\n')
		done <- line
	}()

	require.NoError(t, c.SendLine("HELLO BlackjackServer v1.00"))
	require.Equal(t, "HELLO BlackjackServer v1.00\n", <-done)
}

func TestLineConnReadLine(t *testing.T) {
	c, client := newTestConn(t)

	go func() {
		_, _ = client.Write([]byte("BET 100\n"))
	}()

	line, err := c.ReadLine(time.Second)
	require.NoError(t, err)
	require.Equal(t, "BET 100", line)
}

func TestLineConnReadLineTimeout(t *testing.T) {
	c, _ := newTestConn(t)

	_, err := c.ReadLine(10 * time.Millisecond)
	require.ErrorIs(t, err, protocol.ErrTimeout)
}

func TestLineConnReadLineZeroTimeoutDrainsBuffered(t *testing.T) {
	c, client := newTestConn(t)

	go func() {
		_, _ = client.Write([]byte("HIT\n"))
	}()

	// Wait for the reader goroutine to buffer the line.
	line, err := c.ReadLine(time.Second)
	require.NoError(t, err)
	require.Equal(t, "HIT", line)

	_, err = c.ReadLine(0)
	require.ErrorIs(t, err, protocol.ErrTimeout)
}

func TestLineConnClosedByPeer(t *testing.T) {
	c, client := newTestConn(t)
	require.NoError(t, client.Close())

	_, err := c.ReadLine(time.Second)
	require.ErrorIs(t, err, protocol.ErrClosed)

	require.ErrorIs(t, c.SendLine("READY"), protocol.ErrClosed)
}

func TestLineConnCloseIdempotent(t *testing.T) {
	c, _ := newTestConn(t)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.ErrorIs(t, c.SendLine("BYE"), protocol.ErrClosed)
}
