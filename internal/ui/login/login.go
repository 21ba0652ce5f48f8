// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the credential form shown before a session exists.
package login

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cloudinv-tui/internal/api"
	"github.com/jeranaias/cloudinv-tui/internal/logging"
	"github.com/jeranaias/cloudinv-tui/internal/session"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// SuccessMsg tells the shell a session was established.
type SuccessMsg struct {
	User session.User
}

type resultMsg struct {
	user *session.User
	err  error
}

// =============================================================================
// MODEL
// =============================================================================

const (
	fieldUsername = iota
	fieldPassword
)

// Model is the Bubble Tea model for the login form.
type Model struct {
	theme  *styles.Theme
	client *api.Client

	username textinput.Model
	password textinput.Model
	focused  int

	submitting bool
	errText    string

	width  int
	height int

	spinner spinner.Model
}

// New builds the login form.
func New(client *api.Client, theme *styles.Theme) Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.Prompt = ""
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = ""
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		theme:    theme,
		client:   client,
		username: username,
		password: password,
		spinner:  sp,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update advances the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.toggleFocus()
			return m, nil
		case "enter":
			if m.focused == fieldUsername {
				m.toggleFocus()
				return m, nil
			}
			return m.submit()
		}

	case resultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errText = loginErrorText(msg.err)
			m.password.Reset()
			return m, nil
		}
		return m, func() tea.Msg { return SuccessMsg{User: *msg.user} }

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.username, cmd = m.username.Update(msg)
	cmds = append(cmds, cmd)
	m.password, cmd = m.password.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) toggleFocus() {
	if m.focused == fieldUsername {
		m.focused = fieldPassword
		m.username.Blur()
		m.password.Focus()
	} else {
		m.focused = fieldUsername
		m.password.Blur()
		m.username.Focus()
	}
}

func (m Model) submit() (Model, tea.Cmd) {
	username := strings.TrimSpace(m.username.Value())
	password := m.password.Value()
	if username == "" || password == "" {
		m.errText = "username and password are required"
		return m, nil
	}

	m.submitting = true
	m.errText = ""
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		user, err := client.Login(ctx, username, password)
		if err != nil {
			return resultMsg{err: err}
		}
		// Refresh identity from /auth/me so role and permissions are current.
		// The login response already carries a usable user, so a failure here
		// is logged and tolerated.
		if me, err := client.GetCurrentUser(ctx); err == nil {
			user = me
		} else {
			logging.Warnf("post-login profile fetch failed: %v", err)
		}
		return resultMsg{user: user}
	}
}

// loginErrorText maps client errors to a line the form can show.
func loginErrorText(err error) string {
	switch {
	case errors.Is(err, api.ErrAuthFailed):
		return "invalid username or password"
	case errors.Is(err, api.ErrUnableToConnect):
		return "unable to connect to server"
	default:
		return err.Error()
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the centered login box.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.LoginTitle.Render("Cloud Inventory") + "\n\n")

	b.WriteString(m.theme.LoginLabel.Render("Username") + "\n")
	b.WriteString(m.username.View() + "\n\n")
	b.WriteString(m.theme.LoginLabel.Render("Password") + "\n")
	b.WriteString(m.password.View() + "\n\n")

	switch {
	case m.submitting:
		b.WriteString(m.spinner.View() + " signing in…")
	case m.errText != "":
		b.WriteString(m.theme.ErrorText.Render(m.errText))
	default:
		b.WriteString(m.theme.RegionDim.Render("enter to sign in"))
	}

	box := m.theme.LoginBox.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
