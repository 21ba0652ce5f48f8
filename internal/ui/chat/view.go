// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cloudinv-tui/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the log, input line, and region sidebar side by side.
func (m Model) View() string {
	logWidth := m.viewport.Width

	var column strings.Builder
	column.WriteString(m.viewport.View())
	column.WriteString("\n")
	column.WriteString(m.inputLine(logWidth))

	left := lipgloss.NewStyle().Width(logWidth).Render(column.String())
	right := m.panel.View(m.theme, m.height)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

// inputLine renders the prompt row, replaced by the confirmation bar while
// an operation awaits a decision and by the spinner while a request runs.
func (m Model) inputLine(width int) string {
	switch {
	case m.historyOpen:
		return m.theme.InputBox.Width(width - 2).Render(
			m.theme.RegionDim.Render("browsing history · esc to return"))

	case m.pending != nil:
		return m.confirmBar(width)

	case m.sending || m.initState == InitInFlight:
		return m.theme.InputBox.Width(width - 2).Render(
			m.spinner.View() + " " + m.theme.RegionDim.Render("waiting for assistant…"))

	default:
		return m.theme.InputBox.Width(width - 2).Render(m.input.View())
	}
}

func (m Model) confirmBar(width int) string {
	label := "Confirm " + m.pending.Operation + "?"
	if m.pending.Details != "" {
		label += " " + m.pending.Details
	}
	bar := label + "  " +
		m.theme.ConfirmKey.Render("y") + " confirm  " +
		m.theme.ConfirmKey.Render("n") + " cancel"
	return m.theme.ConfirmBar.Width(width - 2).Render(bar)
}

// StatusBarView renders the shell status bar for this view's state.
func (m Model) StatusBarView(width int) string {
	return components.StatusBar(m.theme, width, m.Status())
}
