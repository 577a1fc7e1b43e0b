package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjackforbots/internal/deck"
	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/protocol"
)

var CLI struct {
	Server   string `short:"s" long:"server" default:"localhost:9876" help:"Server address to connect to"`
	Name     string `short:"n" long:"name" default:"BasicBot" help:"Player name to register with"`
	Token    string `short:"t" long:"token" help:"Session token for LOGIN instead of registering"`
	Bet      int    `short:"b" long:"bet" default:"20" help:"Stake per round (must be even)"`
	HitBelow int    `long:"hit-below" default:"14" help:"Hit any hand valued below this"`
	LogLevel string `short:"l" long:"log-level" default:"info" help:"Log level"`
}

// bot is a line-at-a-time basic strategy player: flat bets, no insurance,
// hit to a fixed threshold, double on ten and eleven.
type bot struct {
	conn net.Conn
	in   *bufio.Scanner
	log  *log.Logger

	currency int
}

func main() {
	ctx := kong.Parse(&CLI)

	logger := log.New(os.Stderr)
	switch CLI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	if CLI.Bet <= 0 || CLI.Bet%2 != 0 {
		fmt.Println("Bet must be a positive even integer")
		ctx.Exit(1)
	}

	conn, err := net.Dial("tcp", CLI.Server)
	if err != nil {
		fmt.Printf("Failed to connect to server: %v\n", err)
		ctx.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	b := &bot{conn: conn, in: bufio.NewScanner(conn), log: logger}
	if err := b.run(); err != nil {
		logger.Error("Session ended", "error", err)
		ctx.Exit(1)
	}
}

func (b *bot) run() error {
	for b.in.Scan() {
		line := b.in.Text()
		verb, noun, ok := protocol.ParseCommand(line)
		if !ok {
			b.log.Warn("Unparseable line from server", "line", line)
			continue
		}

		switch verb {
		case protocol.VerbHello:
			if CLI.Token != "" {
				b.send(protocol.VerbLogin + " " + CLI.Token)
			} else {
				b.send(protocol.VerbRegister + " " + CLI.Name)
			}

		case protocol.VerbToken:
			b.log.Info("Registered", "token", noun)

		case protocol.VerbOK:
			b.log.Info("Logged in")

		case protocol.VerbReady:
			b.ready(noun)

		case protocol.VerbInsurance:
			b.send(protocol.VerbNo)

		case protocol.VerbAct:
			b.act(noun)

		case protocol.VerbDone:
			b.done(noun)

		case protocol.VerbTimeout, protocol.VerbInvalid:
			b.log.Warn("Server rejection", "verb", verb, "detail", noun)

		case protocol.VerbBye:
			b.log.Info("Server said goodbye", "reason", noun)
			return nil
		}
	}
	return b.in.Err()
}

// ready answers the betting prompt. Broke below the flat stake, the bot sits
// out; completely broke, it leaves.
func (b *bot) ready(noun string) {
	fields := strings.Fields(noun)
	if len(fields) > 0 {
		b.currency, _ = strconv.Atoi(fields[0])
	}

	if b.currency <= 0 {
		b.log.Info("Out of currency, leaving the table")
		_ = b.conn.Close()
		return
	}

	bet := CLI.Bet
	if bet > b.currency {
		// All-in, rounded down to the even stake the table demands.
		bet = b.currency - b.currency%2
	}
	b.send(protocol.VerbBet + " " + strconv.Itoa(bet))
}

// act decides the front hand. The first field of the view is our own holding;
// the front hand is the one being acted on.
func (b *bot) act(noun string) {
	hand, twoCards := parseFrontHand(noun)
	value := game.HandValue(hand)

	switch {
	case twoCards && (value == 10 || value == 11):
		b.send(protocol.VerbDouble)
	case value < CLI.HitBelow:
		b.send(protocol.VerbHit)
	default:
		b.send(protocol.VerbStand)
	}
}

func (b *bot) done(noun string) {
	// The settlement line ends with ":<delta>".
	delta := noun
	if i := strings.LastIndexByte(noun, ':'); i >= 0 {
		delta = noun[i+1:]
	}
	b.log.Info("Round settled", "delta", delta)
}

func (b *bot) send(line string) {
	if _, err := fmt.Fprintf(b.conn, "%s\n", line); err != nil {
		b.log.Error("Write failed", "error", err)
	}
}

// parseFrontHand extracts the cards of the hand currently being acted on from
// a table view: first space-separated field, first slash-separated hand, any
// status marker stripped.
func parseFrontHand(view string) (cards []deck.Card, twoCards bool) {
	own := view
	if i := strings.IndexByte(own, ' '); i >= 0 {
		own = own[:i]
	}
	if i := strings.IndexByte(own, '/'); i >= 0 {
		own = own[:i]
	}
	own = strings.TrimRight(own, ".+")

	cards, err := deck.ParseCards(own)
	if err != nil {
		return nil, false
	}
	return cards, len(cards) == 2
}
