package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func stack(t *testing.T, table *Table, cards string) {
	t.Helper()
	cs, err := parseCards(cards)
	require.NoError(t, err)
	table.shoe.Stack(cs...)
}

func TestPlayRoundNaturalPaysThreeToTwo(t *testing.T) {
	table := newTestTable()
	p, io := seatScripted(table, "alice", 1000, "BET 100")
	stack(t, table, "ASKH TC9H")

	table.PlayRound()

	require.Equal(t, 1150, p.Currency())
	wins, losses, pushes, _ := statsOf(p)
	require.Equal(t, []int{1, 0, 0}, []int{wins, losses, pushes})
	require.True(t, strings.HasSuffix(io.lastSent("DONE"), ":150"))
	require.Equal(t, int64(-150), table.HouseNet())
	require.Equal(t, int64(100), table.HouseTurnover())
}

func TestPlayRoundDoubleDownWin(t *testing.T) {
	table := newTestTable()
	p, io := seatScripted(table, "bob", 1000, "BET 20", "DOUBLE")
	stack(t, table, "6S5H 7CTD TS")

	table.PlayRound()

	require.Equal(t, 1040, p.Currency())
	require.True(t, strings.HasSuffix(io.lastSent("DONE"), ":40"))
	require.Equal(t, int64(-40), table.HouseNet())
	require.Equal(t, int64(40), table.HouseTurnover())
}

func TestPlayRoundInsurancePaysOnDealerNatural(t *testing.T) {
	table := newTestTable()
	p, io := seatScripted(table, "carol", 1000, "BET 40", "YES")
	stack(t, table, "TS9S ACKD")

	table.PlayRound()

	// The side bet's 2:1 payout exactly covers the lost main bet.
	require.Equal(t, 1000, p.Currency())
	_, losses, _, _ := statsOf(p)
	require.Equal(t, 1, losses)
	require.True(t, strings.HasSuffix(io.lastSent("DONE"), ":0"))
	require.Equal(t, int64(0), table.HouseNet())
	require.Equal(t, int64(60), table.HouseTurnover())
}

func TestPlayRoundDeclinedInsuranceLosesToNatural(t *testing.T) {
	table := newTestTable()
	p, io := seatScripted(table, "carol", 1000, "BET 40", "NO")
	stack(t, table, "TS9S ACKD")

	table.PlayRound()

	require.Equal(t, 960, p.Currency())
	require.True(t, strings.HasSuffix(io.lastSent("DONE"), ":-40"))
}

func TestPlayRoundSitOut(t *testing.T) {
	table := newTestTable()
	p, io := seatScripted(table, "dave", 1000, "BET 0")

	table.PlayRound()

	require.Equal(t, 1000, p.Currency())
	_, _, _, sitouts := statsOf(p)
	require.Equal(t, 1, sitouts)
	done := io.lastSent("DONE")
	require.True(t, strings.HasPrefix(done, "DONE ----"))
	require.True(t, strings.HasSuffix(done, ":0"))
}

func TestPlayRoundTimeoutStandsHand(t *testing.T) {
	table := newTestTable()
	p, io := seatScripted(table, "erin", 1000, "BET 20")
	stack(t, table, "TC6H TD8C")

	table.PlayRound()

	require.Equal(t, 980, p.Currency())
	require.NotEmpty(t, io.lastSent("TIMEOUT"))
	require.True(t, strings.HasSuffix(io.lastSent("DONE"), ":-20"))
}

func TestPlayRoundDealerDrawsToSeventeen(t *testing.T) {
	table := newTestTable()
	p, io := seatScripted(table, "frank", 1000, "BET 20", "STAND")
	stack(t, table, "TCTD 2C3D TS4C")

	table.PlayRound()

	// Dealer 2C3D draws TS then 4C and stands on nineteen; twenty wins.
	require.Equal(t, 1020, p.Currency())
	require.True(t, strings.HasSuffix(io.lastSent("DONE"), ":20"))
}

func TestPlayRoundSplitToTableLimit(t *testing.T) {
	table := newTestTable()
	p, io := seatScripted(table, "gina", 1000,
		"BET 20", "SPLIT", "SPLIT", "SPLIT", "SPLIT",
		"STAND", "STAND", "STAND", "STAND")
	stack(t, table, "TSTH 9C8D TCTD JSJH QSQH")

	table.PlayRound()

	// Four twenties against a dealer seventeen; the fifth split is refused.
	require.Equal(t, 1080, p.Currency())
	wins, _, _, _ := statsOf(p)
	require.Equal(t, 4, wins)
	require.Contains(t, io.lastSent("INVALID"), "four hands")
	require.Equal(t, int64(80), table.HouseTurnover())
	require.Equal(t, int64(-80), table.HouseNet())
}

func TestPlayRoundPushRefundsBet(t *testing.T) {
	table := newTestTable()
	p, io := seatScripted(table, "hank", 1000, "BET 50", "STAND")
	stack(t, table, "TC8H TD8C")

	table.PlayRound()

	require.Equal(t, 1000, p.Currency())
	_, _, pushes, _ := statsOf(p)
	require.Equal(t, 1, pushes)
	require.True(t, strings.HasSuffix(io.lastSent("DONE"), ":0"))
}

func TestReadyRejectsBadBets(t *testing.T) {
	table := newTestTable()
	p, io := seatScripted(table, "iris", 1000,
		"BET abc", "BET 15", "BET 2000", "BET 20")

	p.Ready(table)

	require.True(t, p.Playing())
	require.Equal(t, 980, p.Currency())
	sent := strings.Join(io.sentLines(), "\n")
	require.Contains(t, sent, "INVALID BET must be a positive integer.")
	require.Contains(t, sent, "INVALID BET must be a positive even integer")
	require.Contains(t, sent, "INVALID You do not have that much currency.")
}

func TestReadyBareBetSitsOut(t *testing.T) {
	table := newTestTable()
	p, _ := seatScripted(table, "jack", 1000, "BET")

	p.Ready(table)

	require.False(t, p.Playing())
	_, _, _, sitouts := statsOf(p)
	require.Equal(t, 1, sitouts)
}

func TestMonitorReceivesSnapshots(t *testing.T) {
	table := newTestTable()
	seatScripted(table, "alice", 1000, "BET 100")

	mio := newScriptIO()
	m := NewPlayer(mio, "script")
	m.Name = "Monitor test"
	m.Token = "monitor-token"
	m.IsMonitor = true
	table.AddMonitor(m)

	stack(t, table, "ASKH TC9H")
	table.PlayRound()

	lines := mio.sentLines()
	require.NotEmpty(t, lines)

	last := lines[len(lines)-1]
	fields := strings.Fields(last)
	require.Len(t, fields, 3)
	require.Len(t, strings.Split(fields[0], ","), 5)
	require.Equal(t, "TC9H.", fields[1])
	require.True(t, strings.HasPrefix(fields[2], "alice:1150:1,0,0,0,100,"))
}

// A client in the HELLO handshake drives Ask from its own goroutine while the
// coordinator plays a round; with a monitor attached both ends render table
// views, so this exercises the dealer-state locking under the race detector.
func TestHandshakePromptDuringRound(t *testing.T) {
	table := newTestTable()
	seatScripted(table, "alice", 1000, "BET 20", "HIT", "STAND")

	mio := newScriptIO()
	m := NewPlayer(mio, "script")
	m.Name = "Monitor race"
	m.Token = "monitor-token"
	m.IsMonitor = true
	table.AddMonitor(m)

	stack(t, table, "TC5H 9C8D 4S")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			io := newScriptIO("REGISTER joiner")
			p := NewPlayer(io, "script")
			_, _, _ = p.Ask(table, askDeadline(table), "HELLO BlackjackServer v1.00", []string{"REGISTER"})
		}
	}()

	table.PlayRound()
	<-done

	require.Equal(t, 1, table.HandsDealt())
	require.NotEmpty(t, mio.sentLines())
}

func TestReapRemovesDisconnectedAndSavesState(t *testing.T) {
	table := newTestTable()
	store := &recordingStore{}
	table.store = store

	p, io := seatScripted(table, "alice", 1000)
	require.Equal(t, 1, table.PlayerCount())

	require.NoError(t, io.Close())
	_, _, err := p.Ask(table, askDeadline(table), "READY", nil)
	require.Error(t, err)

	table.Reap()
	require.Equal(t, 0, table.PlayerCount())
	require.Len(t, store.saved, 1)
	require.Equal(t, "alice", store.saved[0].Name)
	require.Equal(t, 1000, store.saved[0].Currency)
}

type recordingStore struct {
	saved []PlayerRecord
}

func (s *recordingStore) SaveState(table, key string, obj any) error {
	if rec, ok := obj.(PlayerRecord); ok {
		s.saved = append(s.saved, rec)
	}
	return nil
}

func statsOf(p *Player) (wins, losses, pushes, sitouts int) {
	return p.Stats()
}
