package game

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lox/blackjackforbots/internal/protocol"
)

// Player is one connected session: identity, bankroll, the hands it holds in
// the current round, and lifetime statistics. During a phase exactly one
// worker task owns the player; the mutex exists so monitor snapshots can read
// a consistent view while that task mutates it.
type Player struct {
	mu sync.Mutex
	io protocol.LineIO

	Name      string
	Token     string
	Addr      string
	IsMonitor bool

	currency      int
	curBet        int
	hands         []*Hand
	startCurrency int
	totalBets     int

	wins    int
	losses  int
	pushes  int
	sitouts int

	insured      bool
	disconnected bool
	timedout     bool
	playing      bool
	active       bool

	interactions int
	waitTime     time.Duration
}

// NewPlayer wraps a connected transport in a session. Identity and bankroll
// are filled in by the handshake.
func NewPlayer(io protocol.LineIO, addr string) *Player {
	return &Player{io: io, Addr: addr}
}

// Currency returns the player's bankroll.
func (p *Player) Currency() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currency
}

// SetCurrency sets the bankroll; used by registration and LOGIN restore.
func (p *Player) SetCurrency(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currency = n
}

// Playing reports whether the player has a live bet this round.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Disconnected reports whether the session's transport has failed.
func (p *Player) Disconnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnected
}

// Record returns the state persisted for this player at reap time.
func (p *Player) Record() PlayerRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlayerRecord{Name: p.Name, Token: p.Token, Currency: p.currency}
}

// Stats returns the lifetime counters (wins, losses, pushes, sitouts).
func (p *Player) Stats() (wins, losses, pushes, sitouts int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wins, p.losses, p.pushes, p.sitouts
}

// Hands returns the wire form of each hand currently held.
func (p *Player) Hands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.hands))
	for i, h := range p.hands {
		out[i] = h.String()
	}
	return out
}

// Send writes one line to the session, marking it disconnected on failure.
func (p *Player) Send(line string) error {
	if err := p.io.SendLine(line); err != nil {
		p.disconnect()
		return err
	}
	return nil
}

// disconnect marks the session dead after a transport failure. The socket is
// closed here; reap later drops the session from the table.
func (p *Player) disconnect() {
	p.mu.Lock()
	p.playing = false
	p.disconnected = true
	p.mu.Unlock()
	_ = p.io.Close()
}

// Close tears down the session transport.
func (p *Player) Close() error {
	return p.io.Close()
}

// holdingState renders the player's hand list for a table view, or the full
// name:bankroll:stats:phase:hands form for the monitor view. A player without
// a live bet shows "----".
func (p *Player) holdingState(monitor bool) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	if monitor {
		b.WriteString(p.Name)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(p.currency))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(p.wins))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p.losses))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p.pushes))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p.sitouts))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p.totalBets))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p.interactions))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.waitTime.Seconds(), 'f', -1, 64))
		b.WriteByte(':')
		switch {
		case p.timedout:
			b.WriteString("t:")
		case p.active:
			b.WriteString("a:")
		default:
			b.WriteString("p:")
		}
	}

	if !p.playing {
		b.WriteString("----")
		return b.String()
	}
	for i, h := range p.hands {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(h.String())
	}
	return b.String()
}

// Ready runs the betting phase for this player: reset round state, prompt
// READY, and collect a bet. An empty or zero bet sits the round out. All
// re-prompts share one deadline.
func (p *Player) Ready(t *Table) {
	p.mu.Lock()
	p.insured = false
	p.curBet = 0
	p.playing = false
	p.hands = nil
	p.mu.Unlock()

	decks, cardsLeft := t.shoeStats()
	deadline := t.clock.Now().Add(t.settings.CommandTimeout())

	for {
		_, noun, err := p.ask(t, deadline, prompt{
			text:        protocol.VerbReady + " " + strconv.Itoa(p.Currency()) + " " + strconv.Itoa(decks) + " " + strconv.Itoa(cardsLeft),
			valid:       []string{protocol.VerbBet},
			timeoutVerb: protocol.VerbBet,
		})
		if err != nil {
			return
		}

		if noun == "" {
			p.sitOut()
			return
		}

		amt, err := strconv.Atoi(strings.TrimSpace(noun))
		if err != nil {
			if p.Send(protocol.VerbInvalid+" BET must be a positive integer.") != nil {
				return
			}
			continue
		}
		switch {
		case amt < 0 || amt%2 != 0:
			if p.Send(protocol.VerbInvalid+" BET must be a positive even integer") != nil {
				return
			}
		case amt > p.Currency():
			if p.Send(protocol.VerbInvalid+" You do not have that much currency.") != nil {
				return
			}
		case amt == 0:
			p.sitOut()
			return
		default:
			p.mu.Lock()
			p.startCurrency = p.currency
			p.curBet = amt
			p.currency -= amt
			p.totalBets += amt
			p.playing = true
			p.mu.Unlock()
			t.houseNet.Add(int64(amt))
			t.houseTurnover.Add(int64(amt))
			return
		}
	}
}

func (p *Player) sitOut() {
	p.mu.Lock()
	p.startCurrency = p.currency
	p.playing = false
	p.sitouts++
	p.mu.Unlock()
}

// Insurance offers the side bet when the dealer shows an Ace. The offer is
// only made when the player can cover half the bet; YES debits it.
func (p *Player) Insurance(t *Table) {
	p.mu.Lock()
	ins := p.curBet / 2
	affordable := p.currency >= ins && ins > 0
	p.mu.Unlock()

	if affordable {
		deadline := t.clock.Now().Add(t.settings.CommandTimeout())
		verb, _, err := p.ask(t, deadline, prompt{
			text:        protocol.VerbInsurance + " " + t.tableView(p),
			valid:       []string{protocol.VerbYes, protocol.VerbNo},
			timeoutVerb: protocol.VerbNo,
		})
		if err != nil {
			return
		}
		if verb == protocol.VerbYes {
			p.mu.Lock()
			p.insured = true
			p.currency -= ins
			p.mu.Unlock()
			t.houseNet.Add(int64(ins))
			t.houseTurnover.Add(int64(ins))
		}
	}
	t.updateMonitors()
}

// PlayHands drives every open hand through the Act phase. SPLIT may grow the
// hand list mid-loop, and a disconnect mid-hand stops play immediately.
func (p *Player) PlayHands(t *Table) {
	for p.Playing() {
		idx := p.handLeftToPlay()
		if idx < 0 {
			return
		}
		p.makeActiveHand(idx)
		p.act(t)
	}
}

// handLeftToPlay returns the index of a hand still needing action, or -1.
func (p *Player) handLeftToPlay() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, h := range p.hands {
		if h.Open() {
			return i
		}
	}
	return -1
}

// makeActiveHand moves the hand at idx to the front of the list. The front
// hand is always the one being acted on.
func (p *Player) makeActiveHand(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.hands[idx]
	p.hands = append(p.hands[:idx], p.hands[idx+1:]...)
	p.hands = append([]*Hand{h}, p.hands...)
}

// act plays the front hand to completion. All prompts for the hand share one
// deadline; a timeout stands the hand.
func (p *Player) act(t *Table) {
	deadline := t.clock.Now().Add(t.settings.CommandTimeout())

	for {
		p.mu.Lock()
		hand := p.hands[0]
		value := hand.Value()
		twoCards := len(hand.Cards) == 2
		bet := p.curBet
		currency := p.currency
		handCount := len(p.hands)
		p.mu.Unlock()

		if value >= 21 {
			p.mu.Lock()
			hand.Status = HandStood
			p.mu.Unlock()
			return
		}

		valid := []string{protocol.VerbHit, protocol.VerbStand}
		invalid := map[string]string{}

		switch {
		case !twoCards:
			invalid[protocol.VerbDouble] = "Double down only permitted on the first two cards dealt."
		case value < 9 || value > 11:
			invalid[protocol.VerbDouble] = "Double down only permitted on card values between 9 and 11 - you are holding " + strconv.Itoa(value) + "."
		case currency < bet:
			invalid[protocol.VerbDouble] = "You do not have sufficient currency to double down - " + strconv.Itoa(bet) + " needed, you hold " + strconv.Itoa(currency) + "."
		default:
			valid = append(valid, protocol.VerbDouble)
		}

		switch {
		case !twoCards:
			invalid[protocol.VerbSplit] = "You can only split on the first two cards dealt."
		case hand.Cards[0].Value() != hand.Cards[1].Value():
			invalid[protocol.VerbSplit] = "You can only split hands whose two cards are the same value."
		case currency < bet:
			invalid[protocol.VerbSplit] = "You do not have sufficient currency to split - " + strconv.Itoa(bet) + " needed, you hold " + strconv.Itoa(currency) + "."
		case handCount >= 4:
			invalid[protocol.VerbSplit] = "You are already holding four hands at once, the table limit."
		default:
			valid = append(valid, protocol.VerbSplit)
		}

		verb, _, err := p.ask(t, deadline, prompt{
			text:        protocol.VerbAct + " " + t.tableView(p),
			valid:       valid,
			timeoutVerb: protocol.VerbStand,
			invalid:     invalid,
		})
		if err != nil {
			return
		}

		switch verb {
		case protocol.VerbHit:
			c := t.draw()
			p.mu.Lock()
			hand.Add(c)
			p.mu.Unlock()

		case protocol.VerbStand:
			p.mu.Lock()
			hand.Status = HandStood
			p.mu.Unlock()
			return

		case protocol.VerbDouble:
			c := t.draw()
			p.mu.Lock()
			hand.Add(c)
			hand.Status = HandDoubled
			p.currency -= bet
			p.mu.Unlock()
			t.houseNet.Add(int64(bet))
			t.houseTurnover.Add(int64(bet))
			return

		case protocol.VerbSplit:
			c3, c4 := t.draw(), t.draw()
			p.mu.Lock()
			cur := p.hands[0]
			first := NewHand(cur.Cards[0], c3)
			second := NewHand(cur.Cards[1], c4)
			p.hands = append([]*Hand{first, second}, p.hands[1:]...)
			p.currency -= bet
			p.totalBets += bet
			p.mu.Unlock()
			t.houseNet.Add(int64(bet))
			t.houseTurnover.Add(int64(bet))
		}

		t.updateMonitors()
	}
}

// Done settles the round for this player and reports the outcome. Insurance
// is a separate side wager resolved before the main-hand comparison: a dealer
// natural pays the half-bet stake back at 2:1. Settlement runs on the
// coordinator, one player at a time.
func (p *Player) Done(t *Table) {
	dealerValue, dealerNatural := t.dealerResult()

	p.mu.Lock()
	if p.playing {
		if dealerNatural && p.insured {
			ins := p.curBet / 2
			p.currency += 3 * ins
			t.houseNet.Add(int64(-3 * ins))
		}

		for _, h := range p.hands {
			won, push := false, false
			hv := h.Value()

			if hv <= 21 {
				switch {
				case hv == dealerValue:
					p.currency += p.curBet
					t.houseNet.Add(int64(-p.curBet))
					push = true
				case dealerValue > 21 || hv > dealerValue:
					// Stake back, plus winnings per hand type.
					payout := p.curBet
					switch {
					case h.Status == HandDoubled:
						payout += 3 * p.curBet
					case hv == 21 && len(h.Cards) == 2 && len(p.hands) == 1:
						payout += p.curBet * 3 / 2
					default:
						payout += p.curBet
					}
					p.currency += payout
					t.houseNet.Add(int64(-payout))
					won = true
				}
			}

			switch {
			case won:
				p.wins++
			case push:
				p.pushes++
			default:
				p.losses++
			}
		}
	}
	delta := p.currency - p.startCurrency
	p.mu.Unlock()

	_ = p.Send(protocol.VerbDone + " " + t.tableView(p) + ":" + strconv.Itoa(delta))
}
