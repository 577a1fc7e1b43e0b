package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjackforbots/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"blackjack-server.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"TCP address to bind to (overrides config)"`
	HTTPAddr string `long:"http-addr" help:"HTTP address for the WebSocket monitor feed (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	StateDir string `long:"state-dir" help:"Directory for persisted player state (overrides config)"`
	Seed     int64  `long:"seed" help:"Shoe shuffle seed, 0 for time-based (overrides config)"`
	Comms    bool   `long:"comms" help:"Log every protocol line sent and received"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	if CLI.Addr != "" {
		cfg.Server.Addr = CLI.Addr
	}
	if CLI.HTTPAddr != "" {
		cfg.Server.HTTPAddr = CLI.HTTPAddr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.StateDir != "" {
		cfg.Server.StateDir = CLI.StateDir
	}
	if CLI.Seed != 0 {
		cfg.Server.Seed = CLI.Seed
	}
	if CLI.Comms {
		cfg.Game.ShowComms = true
	}
	if cfg.Server.Seed == 0 {
		cfg.Server.Seed = time.Now().UnixNano()
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	var store server.Store = server.NoopStore{}
	if cfg.Server.StateDir != "" {
		fs, err := server.NewFileStore(cfg.Server.StateDir)
		if err != nil {
			logger.Error("Failed to open state dir", "error", err)
			ctx.Exit(1)
		}
		store = fs
	}

	logger.Info("Starting Blackjack Server",
		"addr", cfg.Server.Addr,
		"httpAddr", cfg.Server.HTTPAddr,
		"stateDir", cfg.Server.StateDir)

	srv := server.New(cfg, logger, quartz.NewReal(), store)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("Shutting down server...")
		srv.Shutdown()
	}()

	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
}
