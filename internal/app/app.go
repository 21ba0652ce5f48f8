// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the top-level Bubble Tea model: it gates the conversation
// view behind authentication and owns the header and status bar chrome.
package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cloudinv-tui/internal/api"
	"github.com/jeranaias/cloudinv-tui/internal/config"
	"github.com/jeranaias/cloudinv-tui/internal/logging"
	"github.com/jeranaias/cloudinv-tui/internal/region"
	"github.com/jeranaias/cloudinv-tui/internal/session"
	"github.com/jeranaias/cloudinv-tui/internal/storage"
	"github.com/jeranaias/cloudinv-tui/internal/ui/chat"
	"github.com/jeranaias/cloudinv-tui/internal/ui/components"
	"github.com/jeranaias/cloudinv-tui/internal/ui/login"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

// =============================================================================
// SHELL STATE
// =============================================================================

type view int

const (
	viewValidating view = iota // Stored session being checked
	viewLogin                  // Credential form
	viewChat                   // Conversation
)

// sessionCheckMsg reports whether a stored session is still usable.
type sessionCheckMsg struct {
	ok   bool
	user session.User
}

// =============================================================================
// SHELL MODEL
// =============================================================================

// Model composes the login form and conversation view behind an auth gate.
type Model struct {
	theme   *styles.Theme
	cfg     *config.Config
	client  *api.Client
	regions *region.Manager
	history *storage.HistoryStore

	active view
	login  login.Model
	chat   chat.Model
	user   session.User

	width  int
	height int
}

// New builds the shell. The session store must already be hydrated.
func New(client *api.Client, regions *region.Manager, history *storage.HistoryStore, theme *styles.Theme, cfg *config.Config) Model {
	m := Model{
		theme:   theme,
		cfg:     cfg,
		client:  client,
		regions: regions,
		history: history,
		login:   login.New(client, theme),
	}
	if client.Store().HasStoredAuth() {
		m.active = viewValidating
	} else {
		m.active = viewLogin
	}
	return m
}

// Init validates any stored session before showing a view.
func (m Model) Init() tea.Cmd {
	if m.active == viewValidating {
		return m.validateSessionCmd()
	}
	return m.login.Init()
}

// validateSessionCmd checks the stored token, refreshing it when it is near
// expiry. Any failure clears the session and routes to the login form.
func (m Model) validateSessionCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if !client.ValidateSession(ctx) {
			return sessionCheckMsg{ok: false}
		}
		user := client.Store().User()
		if user == nil {
			return sessionCheckMsg{ok: false}
		}
		return sessionCheckMsg{ok: true, user: *user}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update routes messages to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		cmds = append(cmds, cmd)
		if m.active == viewChat {
			m.chat, cmd = m.chat.Update(m.chatSize())
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case sessionCheckMsg:
		if !msg.ok {
			m.active = viewLogin
			return m, m.login.Init()
		}
		return m.enterChat(msg.user)

	case login.SuccessMsg:
		logging.Infof("authenticated as %s", msg.User.Username)
		return m.enterChat(msg.User)

	case chat.LogoutRequestMsg:
		return m.logout()
	}

	switch m.active {
	case viewLogin:
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		return m, cmd
	case viewChat:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}
	return m, nil
}

// enterChat swaps in a fresh conversation view for the signed-in user.
func (m Model) enterChat(user session.User) (tea.Model, tea.Cmd) {
	m.user = user
	m.chat = chat.New(m.client, m.regions, m.history, user, m.theme, m.cfg)
	m.active = viewChat

	cmds := []tea.Cmd{m.chat.Init()}
	if m.width > 0 {
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(m.chatSize())
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// logout clears the session and the persisted region selection, then shows
// the login form again.
func (m Model) logout() (tea.Model, tea.Cmd) {
	logging.Infof("logging out %s", m.user.Username)
	m.client.Logout()
	m.regions.ClearSelection()

	m.user = session.User{}
	m.login = login.New(m.client, m.theme)
	m.active = viewLogin

	var cmd tea.Cmd
	if m.width > 0 {
		m.login, cmd = m.login.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	}
	return m, tea.Batch(m.login.Init(), cmd)
}

// chatSize is the conversation area after the header and status bar rows.
func (m Model) chatSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: m.width, Height: max(m.height-2, 5)}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the active screen.
func (m Model) View() string {
	switch m.active {
	case viewValidating:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.theme.RegionDim.Render("checking session…"))

	case viewLogin:
		return m.login.View()

	default:
		header := components.Header(m.theme, m.width, m.user.Username, m.user.Role)
		status := m.chat.StatusBarView(m.width)
		return lipgloss.JoinVertical(lipgloss.Left, header, m.chat.View(), status)
	}
}
