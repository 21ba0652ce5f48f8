// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cloudinv-tui/internal/logging"
	"github.com/jeranaias/cloudinv-tui/internal/region"
	"github.com/jeranaias/cloudinv-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update advances the conversation view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ChatResponseMsg:
		m.sending = false
		if msg.Err != nil {
			cmd := m.handleChatError(msg.Err)
			return m, cmd
		}
		cmd := m.applyResponse(msg.Response)
		return m, cmd

	case ConfirmResponseMsg:
		m.sending = false
		if msg.Err != nil {
			cmd := m.handleChatError(msg.Err)
			return m, cmd
		}
		cmd := m.applyResponse(msg.Response)
		return m, cmd

	case InitResponseMsg:
		cmd := m.finishInit(msg)
		return m, cmd

	case HistoryAppendedMsg:
		if msg.Err != nil {
			logging.Warnf("history append failed: %v", msg.Err)
		}
		return m, nil

	case HistoryListMsg:
		return m.handleHistoryList(msg)

	case HistoryTranscriptMsg:
		return m.handleHistoryTranscript(msg)

	case HistoryDeletedMsg:
		return m.handleHistoryDeleted(msg)

	case RegionStatusMsg:
		if msg.Err != nil {
			logging.Warnf("region status load failed: %v", msg.Err)
			m.notice = "region status unavailable"
		}
		m.syncPanel()
		cmd := m.ensureInitialized()
		return m, cmd

	case RegionActionMsg:
		m.panel.SetBusy("")
		if msg.Err != nil {
			logging.Warnf("region action failed for %s: %v", msg.Target, msg.Err)
			m.notice = msg.Err.Error()
			m.syncPanel()
			return m, nil
		}
		m.notice = ""
		m.syncPanel()
		// Connection identity changed; reopen the conversation for it.
		cmd := m.ensureInitialized()
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateComponents(msg)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// The confirmation prompt captures y/n regardless of focus.
	if m.pending != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			cmd := m.confirmPending()
			return m, cmd
		case "n", "N", "esc":
			cmd := m.cancelPending()
			return m, cmd
		}
		return m, nil
	}

	if m.historyOpen {
		return m.handleHistoryKey(msg)
	}

	switch msg.String() {
	case "ctrl+r":
		cmd := m.Restart()
		return m, cmd

	case "ctrl+h":
		cmd := m.openHistory()
		return m, cmd

	case "ctrl+l":
		return m, func() tea.Msg { return LogoutRequestMsg{} }

	case "tab":
		if m.panel.Focused() {
			m.panel.Blur()
			m.input.Focus()
		} else {
			m.input.Blur()
			m.panel.Focus()
		}
		return m, nil
	}

	if m.panel.Focused() {
		return m.handlePanelKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handlePanelKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.panel.CursorUp()

	case "down", "j":
		m.panel.CursorDown()

	case "enter":
		target := string(m.panel.Current())
		if target == "" || m.panel.Busy() != "" {
			return m, nil
		}
		if m.regions.IsConnected(target) {
			return m, nil
		}
		m.panel.SetBusy(region.Region(target))
		return m, ConnectRegionCmd(m.regions, target)

	case "d":
		target := string(m.panel.Current())
		if target == "" || m.panel.Busy() != "" || !m.regions.IsConnected(target) {
			return m, nil
		}
		m.panel.SetBusy(region.Region(target))
		return m, DisconnectRegionCmd(m.regions, target)

	case "r":
		return m, LoadRegionStatusCmd(m.regions)
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cmd := m.submit()
		return m, cmd

	case "alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9":
		// Pick a suggestion into the input without sending it.
		n, _ := strconv.Atoi(msg.String()[4:])
		if s, ok := m.suggestionAt(n - 1); ok {
			m.input.SetValue(s)
			m.input.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// suggestionAt returns the i-th suggestion of the newest assistant message.
func (m Model) suggestionAt(i int) (string, bool) {
	for j := len(m.messages) - 1; j >= 0; j-- {
		if s := m.messages[j].Suggestions; len(s) > 0 {
			if i >= 0 && i < len(s) {
				return s[i], true
			}
			return "", false
		}
	}
	return "", false
}

// =============================================================================
// COMPONENT PLUMBING
// =============================================================================

func (m Model) updateComponents(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.panel.Focused() {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// syncPanel pushes manager truth into the sidebar.
func (m *Model) syncPanel() {
	available := m.regions.Available()
	if len(available) > 0 {
		regions := make([]region.Region, len(available))
		for i, a := range available {
			regions[i] = region.Region(a)
		}
		m.panel.SetRegions(regions)
	}

	status := make(map[region.Region]bool)
	for code, connected := range m.regions.Status() {
		status[region.Region(code)] = connected
	}
	m.panel.SetStatus(status, region.Region(m.regions.Selected()))
}

// resize lays the view out for a new terminal size. The shell reserves the
// header and status bar rows before forwarding the size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	logWidth := width - components.PanelWidth - 2
	if logWidth < 20 {
		logWidth = 20
	}

	m.viewport.Width = logWidth
	m.viewport.Height = max(height-3, 5)
	m.input.Width = logWidth - 4
	m.renderer.SetWidth(logWidth)
	if m.historyOpen {
		m.renderHistory()
		return
	}
	m.refreshViewport()
	m.viewport.GotoBottom()
}
