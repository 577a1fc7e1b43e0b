package main

import (
	"strconv"
	"strings"
)

// tableSnapshot is one decoded monitor broadcast: comma-separated table
// statistics, the dealer's hand, then one field per seated player.
type tableSnapshot struct {
	HandsDealt    int
	Decks         int
	CardsLeft     int
	HouseNet      int64
	HouseTurnover int64

	Dealer  string
	Players []playerSnapshot
}

type playerSnapshot struct {
	Name     string
	Currency int

	Wins    int
	Losses  int
	Pushes  int
	Sitouts int

	TotalBets    int
	Interactions int
	WaitSecs     float64

	Phase string
	Hands string
}

// parseSnapshot decodes a monitor line. Lines that do not look like a
// snapshot (admin replies, noise) are rejected rather than rendered.
func parseSnapshot(line string) (tableSnapshot, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return tableSnapshot{}, false
	}

	stats := strings.Split(fields[0], ",")
	if len(stats) != 5 {
		return tableSnapshot{}, false
	}

	var snap tableSnapshot
	var err error
	if snap.HandsDealt, err = strconv.Atoi(stats[0]); err != nil {
		return tableSnapshot{}, false
	}
	if snap.Decks, err = strconv.Atoi(stats[1]); err != nil {
		return tableSnapshot{}, false
	}
	if snap.CardsLeft, err = strconv.Atoi(stats[2]); err != nil {
		return tableSnapshot{}, false
	}
	if snap.HouseNet, err = strconv.ParseInt(stats[3], 10, 64); err != nil {
		return tableSnapshot{}, false
	}
	if snap.HouseTurnover, err = strconv.ParseInt(stats[4], 10, 64); err != nil {
		return tableSnapshot{}, false
	}

	snap.Dealer = fields[1]
	for _, f := range fields[2:] {
		p, ok := parsePlayer(f)
		if !ok {
			return tableSnapshot{}, false
		}
		snap.Players = append(snap.Players, p)
	}
	return snap, true
}

// parsePlayer decodes one name:bankroll:stats:phase:hands field.
func parsePlayer(field string) (playerSnapshot, bool) {
	parts := strings.Split(field, ":")
	if len(parts) != 5 {
		return playerSnapshot{}, false
	}

	var p playerSnapshot
	p.Name = parts[0]
	p.Phase = parts[3]
	p.Hands = parts[4]

	var err error
	if p.Currency, err = strconv.Atoi(parts[1]); err != nil {
		return playerSnapshot{}, false
	}

	stats := strings.Split(parts[2], ",")
	if len(stats) != 7 {
		return playerSnapshot{}, false
	}
	nums := make([]int, 6)
	for i := 0; i < 6; i++ {
		if nums[i], err = strconv.Atoi(stats[i]); err != nil {
			return playerSnapshot{}, false
		}
	}
	p.Wins, p.Losses, p.Pushes, p.Sitouts = nums[0], nums[1], nums[2], nums[3]
	p.TotalBets, p.Interactions = nums[4], nums[5]
	if p.WaitSecs, err = strconv.ParseFloat(stats[6], 64); err != nil {
		return playerSnapshot{}, false
	}
	return p, true
}
