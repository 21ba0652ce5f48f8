// Cloud Inventory TUI - a terminal chat client for the log inventory assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/cloudinv-tui/internal/api"
	"github.com/jeranaias/cloudinv-tui/internal/app"
	"github.com/jeranaias/cloudinv-tui/internal/config"
	"github.com/jeranaias/cloudinv-tui/internal/logging"
	"github.com/jeranaias/cloudinv-tui/internal/region"
	"github.com/jeranaias/cloudinv-tui/internal/session"
	"github.com/jeranaias/cloudinv-tui/internal/storage"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		serverFlag  = flag.String("server", "", "backend base URL (overrides config)")
		configFlag  = flag.String("config", "", "path to config file")
		debugFlag   = flag.Bool("debug", false, "enable debug logging")
		versionFlag = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("cloudinv-tui %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: cloudinv-tui requires an interactive terminal")
		os.Exit(1)
	}

	if err := run(*serverFlag, *configFlag, *debugFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(serverOverride, configPath string, debug bool) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	// Load config, with CLI flags taking precedence over file and env.
	if configPath == "" {
		configPath, err = config.ConfigPath()
		if err != nil {
			return err
		}
	}
	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		return err
	}
	if serverOverride != "" {
		cfg.Server.BaseURL = serverOverride
	}
	if debug {
		cfg.Logging.Debug = true
	}
	config.SetGlobal(cfg)

	// The TUI owns the terminal, so logs go to a file.
	logPath := cfg.Logging.File
	if logPath == "" {
		logPath = filepath.Join(dir, "debug.log")
	}
	if err := logging.Setup(logPath, cfg.Logging.Debug); err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logging.Close()
	logging.Infof("cloudinv-tui %s starting", Version)

	// Session store with optional token-at-rest encryption.
	store, err := session.NewStore(dir, cfg.Auth.EncryptSession)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	if err := store.Hydrate(); err != nil {
		logging.Warnf("session hydrate: %v", err)
	}

	client := api.NewClient(cfg.Server.BaseURL, store).
		WithTimeout(time.Duration(cfg.Server.TimeoutSeconds) * time.Second).
		WithRefreshBuffer(time.Duration(cfg.Auth.RefreshBufferMinutes) * time.Minute).
		WithSendRate(cfg.Chat.SendsPerMinute)

	regions := region.NewManager(client, dir)

	var history *storage.HistoryStore
	if cfg.History.Enabled {
		history, err = storage.Open(filepath.Join(dir, "history.db"), cfg.History.MaxConversations)
		if err != nil {
			logging.Warnf("history disabled: %v", err)
			history = nil
		} else {
			defer history.Close()
		}
	}

	theme := styles.New(themeOverride(cfg.UI.Theme))

	// Hot-reload config edits; the global snapshot updates live, views pick
	// new values up on their next construction.
	if watcher, err := config.NewWatcher(configPath, func(c *config.Config) {
		logging.Infof("config reloaded from %s", configPath)
	}); err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		}
	} else {
		logging.Warnf("config watcher unavailable: %v", err)
	}

	p := tea.NewProgram(
		app.New(client, regions, history, theme, cfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run cloudinv-tui: %w", err)
	}
	return nil
}

// themeOverride maps the configured theme to the dark-background override
// ("auto" lets the terminal decide).
func themeOverride(theme string) *bool {
	switch theme {
	case "dark":
		v := true
		return &v
	case "light":
		v := false
		return &v
	default:
		return nil
	}
}
