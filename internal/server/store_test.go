package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackforbots/internal/game"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	rec := game.PlayerRecord{Name: "alice", Token: "abc123", Currency: 4200}
	require.NoError(t, store.SaveState("Player", rec.Token, rec))

	var loaded game.PlayerRecord
	require.NoError(t, store.LoadState("Player", rec.Token, &loaded))
	require.Equal(t, rec, loaded)
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.SaveState("Player", "tok", game.PlayerRecord{Name: "bob", Token: "tok", Currency: 100}))
	require.NoError(t, store.SaveState("Player", "tok", game.PlayerRecord{Name: "bob", Token: "tok", Currency: 250}))

	var loaded game.PlayerRecord
	require.NoError(t, store.LoadState("Player", "tok", &loaded))
	require.Equal(t, 250, loaded.Currency)
}

func TestFileStoreNotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var loaded game.PlayerRecord
	require.ErrorIs(t, store.LoadState("Player", "missing", &loaded), ErrNotFound)
}

func TestNoopStoreNeverFinds(t *testing.T) {
	var store Store = NoopStore{}
	require.NoError(t, store.SaveState("Player", "tok", game.PlayerRecord{}))

	var loaded game.PlayerRecord
	require.ErrorIs(t, store.LoadState("Player", "tok", &loaded), ErrNotFound)
}
