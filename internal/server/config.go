package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/blackjackforbots/internal/game"
)

// Config is the complete server configuration, loaded from an HCL file with
// optional server and game blocks.
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
}

// ServerSettings contains listener-level configuration.
type ServerSettings struct {
	Addr          string `hcl:"addr,optional"`
	HTTPAddr      string `hcl:"http_addr,optional"`
	LogLevel      string `hcl:"log_level,optional"`
	AdminPassword string `hcl:"admin_password,optional"`
	StateDir      string `hcl:"state_dir,optional"`
	Seed          int64  `hcl:"seed,optional"`
}

// GameSettings contains the initial values of the runtime tunables. The admin
// SET verb can change them while the server runs.
type GameSettings struct {
	CommandTimeoutMS int  `hcl:"command_timeout_ms,optional"`
	ShoeMinPercent   int  `hcl:"shoe_min_percent,optional"`
	GameWaitMS       int  `hcl:"game_wait_ms,optional"`
	StartCurrency    int  `hcl:"start_currency,optional"`
	MinimumDecks     int  `hcl:"minimum_decks,optional"`
	ShowComms        bool `hcl:"show_comms,optional"`
}

// DefaultConfig returns the stock configuration: TCP on 9876, no HTTP
// listener, no persistence.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerSettings{
			Addr:          ":9876",
			LogLevel:      "info",
			AdminPassword: "spork",
		},
		Game: &GameSettings{},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if config.Server == nil {
		config.Server = &ServerSettings{}
	}
	if config.Game == nil {
		config.Game = &GameSettings{}
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":9876"
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.AdminPassword == "" {
		config.Server.AdminPassword = "spork"
	}

	return &config, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server == nil || c.Server.Addr == "" {
		return fmt.Errorf("server addr must be set")
	}
	if c.Game != nil {
		if c.Game.CommandTimeoutMS < 0 {
			return fmt.Errorf("command_timeout_ms must not be negative")
		}
		if c.Game.ShoeMinPercent < 0 || c.Game.ShoeMinPercent > 100 {
			return fmt.Errorf("shoe_min_percent must be between 0 and 100")
		}
		if c.Game.StartCurrency < 0 {
			return fmt.Errorf("start_currency must not be negative")
		}
		if c.Game.MinimumDecks < 0 {
			return fmt.Errorf("minimum_decks must not be negative")
		}
	}
	return nil
}

// gameSettings builds the runtime tunables record, applying any configured
// overrides on top of the defaults.
func (c *Config) gameSettings() *game.Settings {
	s := game.NewSettings()
	if c.Game == nil {
		return s
	}
	if c.Game.CommandTimeoutMS > 0 {
		s.SetCommandTimeout(time.Duration(c.Game.CommandTimeoutMS) * time.Millisecond)
	}
	if c.Game.ShoeMinPercent > 0 {
		s.SetShoeMinPercent(c.Game.ShoeMinPercent)
	}
	if c.Game.GameWaitMS > 0 {
		s.SetGameWait(time.Duration(c.Game.GameWaitMS) * time.Millisecond)
	}
	if c.Game.StartCurrency > 0 {
		s.SetStartCurrency(c.Game.StartCurrency)
	}
	if c.Game.MinimumDecks > 0 {
		s.SetMinimumDecks(c.Game.MinimumDecks)
	}
	if c.Game.ShowComms {
		s.SetShowComms(true)
	}
	return s
}
