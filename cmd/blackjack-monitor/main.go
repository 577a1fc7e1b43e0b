package main

import (
	"bufio"
	"fmt"
	"net"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/blackjackforbots/internal/protocol"
)

var CLI struct {
	Server string `short:"s" long:"server" default:"localhost:9876" help:"Server address to connect to"`
	Label  string `long:"label" default:"TUI" help:"Monitor label shown to the server"`
}

func main() {
	ctx := kong.Parse(&CLI)

	conn, err := net.Dial("tcp", CLI.Server)
	if err != nil {
		fmt.Printf("Failed to connect to server: %v\n", err)
		ctx.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		in := bufio.NewScanner(conn)
		for in.Scan() {
			line := in.Text()
			verb, _, ok := protocol.ParseCommand(line)
			if ok && verb == protocol.VerbHello {
				fmt.Fprintf(conn, "%s %s\n", protocol.VerbMonitor, CLI.Label)
				continue
			}
			if ok && (verb == protocol.VerbOK || verb == protocol.VerbBye) {
				continue
			}
			lines <- line
		}
	}()

	p := tea.NewProgram(newModel(CLI.Server, lines), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Monitor failed: %v\n", err)
		ctx.Exit(1)
	}
}

func waitForSnapshot(lines <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-lines
		if !ok {
			return disconnectedMsg{}
		}
		return snapshotMsg(line)
	}
}

type snapshotMsg string

type disconnectedMsg struct{}

type model struct {
	server string
	lines  <-chan string

	snapshot     tableSnapshot
	snapshots    int
	disconnected bool
}

func newModel(server string, lines <-chan string) model {
	return model{server: server, lines: lines}
}

func (m model) Init() tea.Cmd {
	return waitForSnapshot(m.lines)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case snapshotMsg:
		if snap, ok := parseSnapshot(string(msg)); ok {
			m.snapshot = snap
			m.snapshots++
		}
		return m, waitForSnapshot(m.lines)

	case disconnectedMsg:
		m.disconnected = true
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Blackjack Monitor"))
	b.WriteString("  ")
	if m.disconnected {
		b.WriteString(errorStyle.Render("disconnected from " + m.server))
	} else {
		b.WriteString(faintStyle.Render(m.server))
	}
	b.WriteString("\n\n")

	if m.snapshots == 0 {
		b.WriteString(faintStyle.Render("waiting for the first snapshot..."))
		b.WriteString("\n")
		return b.String()
	}

	s := m.snapshot
	b.WriteString(headerStyle.Render(fmt.Sprintf(
		"round %d   shoe %dd/%dc   house net %d   turnover %d",
		s.HandsDealt, s.Decks, s.CardsLeft, s.HouseNet, s.HouseTurnover)))
	b.WriteString("\n\n")

	b.WriteString(renderDealer(s.Dealer))
	b.WriteString("\n\n")
	b.WriteString(renderPlayers(s.Players))
	b.WriteString("\n")
	b.WriteString(faintStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

func renderDealer(hand string) string {
	return handLabelStyle.Render("dealer ") + handStyle.Render(prettyHand(hand))
}

func renderPlayers(players []playerSnapshot) string {
	if len(players) == 0 {
		return faintStyle.Render("no players seated")
	}

	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render(fmt.Sprintf(
		"%-16s %8s %6s %6s %6s %6s  %-5s %s",
		"player", "bank", "won", "lost", "push", "sat", "state", "hands")))
	b.WriteByte('\n')

	for _, p := range players {
		row := fmt.Sprintf("%-16s %8d %6d %6d %6d %6d  %-5s %s",
			p.Name, p.Currency, p.Wins, p.Losses, p.Pushes, p.Sitouts,
			phaseLabel(p.Phase), prettyHand(p.Hands))
		switch p.Phase {
		case "a":
			b.WriteString(activeRowStyle.Render(row))
		case "t":
			b.WriteString(timeoutRowStyle.Render(row))
		default:
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func phaseLabel(phase string) string {
	switch phase {
	case "a":
		return "act"
	case "t":
		return "slow"
	default:
		return "idle"
	}
}

// prettyHand spaces out the packed card run so TC4H. reads as TC 4H.
func prettyHand(hand string) string {
	if hand == "" || hand == "----" || hand == "????" {
		return hand
	}
	var b strings.Builder
	for _, part := range strings.Split(hand, "/") {
		if b.Len() > 0 {
			b.WriteString(" / ")
		}
		marker := ""
		if n := len(part); n > 0 && (part[n-1] == '.' || part[n-1] == '+') {
			marker = string(part[n-1])
			part = part[:n-1]
		}
		for i := 0; i+2 <= len(part); i += 2 {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(part[i : i+2])
		}
		b.WriteString(marker)
	}
	return b.String()
}
