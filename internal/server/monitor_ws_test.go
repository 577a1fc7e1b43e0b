package server

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackforbots/internal/protocol"
)

func TestWSConnReadLineUsesInjectedClock(t *testing.T) {
	mock := quartz.NewMock(t)
	c := &wsConn{clock: mock, done: make(chan struct{})}

	trap := mock.Trap().AfterFunc()
	defer trap.Close()

	errc := make(chan error, 1)
	go func() {
		_, err := c.ReadLine(time.Minute)
		errc <- err
	}()

	call := trap.MustWait(context.Background())
	call.MustRelease(context.Background())

	// No real time passes; only advancing the mock expires the read.
	mock.Advance(time.Minute).MustWait(context.Background())
	require.ErrorIs(t, <-errc, protocol.ErrTimeout)
}

func TestWSConnReadLineZeroTimeout(t *testing.T) {
	c := &wsConn{clock: quartz.NewMock(t), done: make(chan struct{})}
	_, err := c.ReadLine(0)
	require.ErrorIs(t, err, protocol.ErrTimeout)
}

func TestWSConnReadLineClosed(t *testing.T) {
	c := &wsConn{clock: quartz.NewMock(t), done: make(chan struct{})}
	close(c.done)
	_, err := c.ReadLine(time.Minute)
	require.ErrorIs(t, err, protocol.ErrClosed)
}
