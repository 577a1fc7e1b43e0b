package game

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjackforbots/internal/deck"
)

// workerPoolSize bounds how many per-player tasks run concurrently within a
// phase. Sessions beyond the pool size queue.
const workerPoolSize = 8

// Table is the single global blackjack table: the shoe, the seated players,
// the attached monitors, and the round coordinator that drives them through
// the Ready, Insurance, Act, and Settle phases.
//
// Concurrency contract: the maps, the dealer hand, and the round counter are
// written only on the coordinator, under mu so handshake goroutines can render
// monitor views mid-round; per-player tasks own their player exclusively for
// the duration of a phase; shoe draws during Act are serialized under shoeMu;
// house counters are atomic.
type Table struct {
	log      *log.Logger
	clock    quartz.Clock
	settings *Settings
	store    Store

	shoeMu sync.Mutex
	shoe   *deck.Shoe

	mu       sync.Mutex
	players  map[string]*Player
	order    []string
	monitors map[string]*Player

	dealer        *Hand
	dealerFlipped bool
	handsDealt    int

	houseNet      atomic.Int64
	houseTurnover atomic.Int64
}

// NewTable creates a table around an already-built shoe.
func NewTable(logger *log.Logger, clock quartz.Clock, settings *Settings, store Store, shoe *deck.Shoe) *Table {
	if store == nil {
		store = NoopStore{}
	}
	return &Table{
		log:      logger.WithPrefix("table"),
		clock:    clock,
		settings: settings,
		store:    store,
		shoe:     shoe,
		players:  make(map[string]*Player),
		monitors: make(map[string]*Player),
	}
}

// Settings returns the table's tunables.
func (t *Table) Settings() *Settings {
	return t.settings
}

// AddPlayer seats a registered session. Call only between rounds.
func (t *Table) AddPlayer(p *Player) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.players[p.Token] = p
	t.order = append(t.order, p.Token)
	t.log.Info("player seated", "name", p.Name, "addr", p.Addr, "players", len(t.players))
}

// AddMonitor attaches an observer session. Call only between rounds.
func (t *Table) AddMonitor(p *Player) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.monitors[p.Token] = p
	t.log.Info("monitor attached", "name", p.Name, "addr", p.Addr, "monitors", len(t.monitors))
}

// PlayerCount returns the number of seated players.
func (t *Table) PlayerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.players)
}

// HouseNet returns the house's net winnings since boot.
func (t *Table) HouseNet() int64 {
	return t.houseNet.Load()
}

// HouseTurnover returns the total amount wagered since boot.
func (t *Table) HouseTurnover() int64 {
	return t.houseTurnover.Load()
}

// HandsDealt returns the number of rounds dealt since boot.
func (t *Table) HandsDealt() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handsDealt
}

// seated returns the players in stable seating order.
func (t *Table) seated() []*Player {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Player, 0, len(t.players))
	for _, token := range t.order {
		out = append(out, t.players[token])
	}
	return out
}

// shoeStats returns the active deck count and cards left.
func (t *Table) shoeStats() (decks, cardsLeft int) {
	t.shoeMu.Lock()
	defer t.shoeMu.Unlock()
	return t.shoe.Decks(), t.shoe.Len()
}

// draw pops one card from the shoe. Safe to call from concurrent Act tasks.
func (t *Table) draw() deck.Card {
	t.shoeMu.Lock()
	defer t.shoeMu.Unlock()
	return t.shoe.Draw()
}

// PlayRound runs one complete round across all seated players: collect bets,
// reshuffle if the shoe demands it, deal, offer insurance on a dealer Ace,
// run the Act phase, play the dealer, settle, broadcast, and reap.
func (t *Table) PlayRound() {
	players := t.seated()
	if len(players) == 0 {
		return
	}

	t.mu.Lock()
	t.dealer = nil
	t.dealerFlipped = false
	t.mu.Unlock()

	t.fanOut(players, func(p *Player) { p.Ready(t) })

	t.shoeMu.Lock()
	reshuffled := t.shoe.MaybeReshuffle(len(players), t.settings.MinimumDecks(), t.settings.ShoeMinPercent())
	decks, cardsLeft := t.shoe.Decks(), t.shoe.Len()
	t.shoeMu.Unlock()
	if reshuffled {
		t.log.Info("shoe reshuffled", "decks", decks, "cards", cardsLeft)
		t.updateMonitors()
	}

	playing := make([]*Player, 0, len(players))
	for _, p := range players {
		if p.Playing() {
			p.mu.Lock()
			p.hands = []*Hand{NewHand(t.draw(), t.draw())}
			p.mu.Unlock()
			playing = append(playing, p)
		}
	}
	dealer := NewHand(t.draw(), t.draw())
	t.mu.Lock()
	t.dealer = dealer
	t.handsDealt++
	t.mu.Unlock()
	t.updateMonitors()

	if dealer.Cards[0].IsAce() {
		t.fanOut(playing, func(p *Player) {
			if p.Playing() {
				p.Insurance(t)
			}
		})

		// Peek at the hole card; a dealer natural ends the round at once.
		if dealer.Value() == 21 {
			t.mu.Lock()
			t.dealerFlipped = true
			t.mu.Unlock()
			for _, p := range playing {
				p.mu.Lock()
				for _, h := range p.hands {
					h.Status = HandStood
				}
				p.mu.Unlock()
			}
			t.finishRound(players)
			return
		}
	}

	t.fanOut(playing, func(p *Player) {
		if p.Playing() {
			p.PlayHands(t)
		}
	})

	t.playDealer()
	t.finishRound(players)
}

// finishRound settles every seated session (sit-outs included, so their view
// updates), broadcasts the final snapshot, and reaps dead sessions.
func (t *Table) finishRound(players []*Player) {
	for _, p := range players {
		p.Done(t)
	}
	t.updateMonitors()
	t.Reap()
}

// playDealer reveals the hole card and draws to seventeen. Draws are mutations
// a concurrent monitor render must not observe mid-append, so each happens
// under the table lock.
func (t *Table) playDealer() {
	t.mu.Lock()
	t.dealerFlipped = true
	t.mu.Unlock()

	for t.dealer.Value() < 17 {
		c := t.draw()
		t.mu.Lock()
		t.dealer.Add(c)
		t.mu.Unlock()
	}

	t.mu.Lock()
	t.dealer.Status = HandStood
	t.mu.Unlock()
}

// dealerResult returns the dealer's value and whether it is a natural
// (two-card 21).
func (t *Table) dealerResult() (value int, natural bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	value = t.dealer.Value()
	return value, value == 21 && len(t.dealer.Cards) == 2
}

// fanOut dispatches fn per player through the bounded worker pool and blocks
// until every task has finished.
func (t *Table) fanOut(players []*Player, fn func(*Player)) {
	var g errgroup.Group
	g.SetLimit(workerPoolSize)
	for _, p := range players {
		g.Go(func() error {
			fn(p)
			return nil
		})
	}
	_ = g.Wait()
}

// dealerView renders the dealer's hand. Before the deal it is "????"; before
// the reveal only the upcards show, padded with "--" for players and "??" for
// monitors; after the reveal the full hand with its status marker.
func (t *Table) dealerView(monitor bool) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dealer == nil {
		return "????"
	}
	if !t.dealerFlipped {
		pad := "--"
		if monitor {
			pad = "??"
		}
		return t.dealer.Cards[0].String() + t.dealer.Cards[1].String() + pad
	}
	return t.dealer.String()
}

// tableView renders the table from one player's viewpoint: own hands first,
// then the dealer, then every other player in seating order.
func (t *Table) tableView(viewer *Player) string {
	var b strings.Builder
	b.WriteString(viewer.holdingState(false))
	b.WriteByte(' ')
	b.WriteString(t.dealerView(false))
	for _, p := range t.seated() {
		if p != viewer {
			b.WriteByte(' ')
			b.WriteString(p.holdingState(false))
		}
	}
	return b.String()
}

// monitorView renders the observer snapshot line.
func (t *Table) monitorView() string {
	decks, cardsLeft := t.shoeStats()

	var b strings.Builder
	b.WriteString(strconv.Itoa(t.HandsDealt()))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(decks))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(cardsLeft))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(t.houseNet.Load(), 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(t.houseTurnover.Load(), 10))
	b.WriteByte(' ')
	b.WriteString(t.dealerView(true))
	for _, p := range t.seated() {
		b.WriteByte(' ')
		b.WriteString(p.holdingState(true))
	}
	return b.String()
}

// updateMonitors sends the current snapshot to every attached monitor. A
// failed write marks the monitor disconnected; it is reaped with the players
// at round end.
func (t *Table) updateMonitors() {
	t.mu.Lock()
	monitors := make([]*Player, 0, len(t.monitors))
	for _, m := range t.monitors {
		monitors = append(monitors, m)
	}
	t.mu.Unlock()
	if len(monitors) == 0 {
		return
	}

	line := t.monitorView()
	for _, m := range monitors {
		if !m.Disconnected() {
			_ = m.Send(line)
		}
	}
}

// Reap drops disconnected sessions, persisting player state on the way out.
func (t *Table) Reap() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for token, p := range t.players {
		if p.Disconnected() {
			if err := t.store.SaveState("Player", token, p.Record()); err != nil {
				t.log.Warn("failed to save player state", "name", p.Name, "error", err)
			}
			delete(t.players, token)
			t.log.Info("player reaped", "name", p.Name, "players", len(t.players))
		}
	}
	kept := t.order[:0]
	for _, token := range t.order {
		if _, ok := t.players[token]; ok {
			kept = append(kept, token)
		}
	}
	t.order = kept

	for token, m := range t.monitors {
		if m.Disconnected() {
			delete(t.monitors, token)
			t.log.Info("monitor reaped", "name", m.Name, "monitors", len(t.monitors))
		}
	}
}

// Broadcast sends a line to every player and monitor, ignoring failures. Used
// for the shutdown notice.
func (t *Table) Broadcast(line string) {
	t.mu.Lock()
	sessions := make([]*Player, 0, len(t.players)+len(t.monitors))
	for _, p := range t.players {
		sessions = append(sessions, p)
	}
	for _, m := range t.monitors {
		sessions = append(sessions, m)
	}
	t.mu.Unlock()

	for _, s := range sessions {
		_ = s.Send(line)
	}
}
