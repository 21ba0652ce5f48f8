// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cloudinv-tui/internal/model"
	"github.com/jeranaias/cloudinv-tui/internal/storage"
)

const storeTimeout = 5 * time.Second

// =============================================================================
// HISTORY MESSAGES
// =============================================================================

// HistoryAppendedMsg reports the outcome of persisting one log entry.
type HistoryAppendedMsg struct {
	Err error
}

// HistoryListMsg carries the stored conversation summaries, already filtered
// by the active query.
type HistoryListMsg struct {
	Items []storage.ConversationMeta
	Err   error
}

// HistoryTranscriptMsg carries the full transcript of one stored
// conversation.
type HistoryTranscriptMsg struct {
	ID       string
	Messages []model.Message
	Err      error
}

// HistoryDeletedMsg reports the outcome of deleting a stored conversation.
type HistoryDeletedMsg struct {
	ID  string
	Err error
}

// =============================================================================
// HISTORY COMMANDS
// =============================================================================

// LoadHistoryCmd lists stored conversations, newest first. A non-empty query
// narrows the list to transcripts containing it.
func LoadHistoryCmd(store *storage.HistoryStore, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		items, err := store.Search(ctx, query)
		return HistoryListMsg{Items: items, Err: err}
	}
}

// LoadTranscriptCmd fetches the messages of one stored conversation.
func LoadTranscriptCmd(store *storage.HistoryStore, conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		msgs, err := store.Messages(ctx, conversationID)
		return HistoryTranscriptMsg{ID: conversationID, Messages: msgs, Err: err}
	}
}

// DeleteConversationCmd removes one stored conversation and its messages.
func DeleteConversationCmd(store *storage.HistoryStore, conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		return HistoryDeletedMsg{ID: conversationID, Err: store.Delete(ctx, conversationID)}
	}
}

// =============================================================================
// HISTORY OVERLAY
// =============================================================================

// openHistory replaces the log with the stored conversation browser.
func (m *Model) openHistory() tea.Cmd {
	if m.history == nil {
		m.notice = "history is disabled"
		return nil
	}
	m.historyOpen = true
	m.historyCursor = 0
	m.historyItems = nil
	m.transcript = nil
	m.transcriptID = ""
	m.historyQuery.Reset()
	m.historyQuery.Blur()
	m.input.Blur()
	m.panel.Blur()
	return LoadHistoryCmd(m.history, "")
}

// closeHistory returns the viewport to the live conversation.
func (m *Model) closeHistory() {
	m.historyOpen = false
	m.transcript = nil
	m.transcriptID = ""
	m.historyQuery.Blur()
	m.input.Focus()
	m.refreshViewport()
	m.viewport.GotoBottom()
}

func (m Model) handleHistoryList(msg HistoryListMsg) (Model, tea.Cmd) {
	if !m.historyOpen {
		return m, nil
	}
	if msg.Err != nil {
		m.notice = "could not load history"
		m.closeHistory()
		return m, nil
	}
	m.historyItems = msg.Items
	if m.historyCursor >= len(m.historyItems) {
		m.historyCursor = max(len(m.historyItems)-1, 0)
	}
	m.renderHistory()
	return m, nil
}

func (m Model) handleHistoryTranscript(msg HistoryTranscriptMsg) (Model, tea.Cmd) {
	if !m.historyOpen {
		return m, nil
	}
	if msg.Err != nil {
		m.notice = "could not open conversation"
		m.renderHistory()
		return m, nil
	}
	m.transcript = msg.Messages
	m.transcriptID = msg.ID
	m.renderHistory()
	return m, nil
}

func (m Model) handleHistoryDeleted(msg HistoryDeletedMsg) (Model, tea.Cmd) {
	if !m.historyOpen {
		return m, nil
	}
	if msg.Err != nil {
		m.notice = "could not delete conversation"
		return m, nil
	}
	// Re-list under the active filter so cursor and counts stay honest.
	return m, LoadHistoryCmd(m.history, strings.TrimSpace(m.historyQuery.Value()))
}

// handleHistoryKey drives the overlay: a transcript if one is open, the
// filter input while it has focus, otherwise the conversation list.
func (m Model) handleHistoryKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.transcriptID != "" {
		switch msg.String() {
		case "esc", "backspace", "q":
			m.transcript = nil
			m.transcriptID = ""
			m.renderHistory()
			return m, nil
		case "ctrl+h":
			m.closeHistory()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.historyQuery.Focused() {
		switch msg.String() {
		case "enter":
			m.historyQuery.Blur()
			m.historyCursor = 0
			return m, LoadHistoryCmd(m.history, strings.TrimSpace(m.historyQuery.Value()))
		case "esc":
			m.historyQuery.Reset()
			m.historyQuery.Blur()
			m.historyCursor = 0
			return m, LoadHistoryCmd(m.history, "")
		}
		var cmd tea.Cmd
		m.historyQuery, cmd = m.historyQuery.Update(msg)
		m.renderHistory()
		return m, cmd
	}

	switch msg.String() {
	case "esc", "ctrl+h", "q":
		m.closeHistory()
		return m, nil

	case "up", "k":
		if m.historyCursor > 0 {
			m.historyCursor--
			m.renderHistory()
		}
		return m, nil

	case "down", "j":
		if m.historyCursor < len(m.historyItems)-1 {
			m.historyCursor++
			m.renderHistory()
		}
		return m, nil

	case "enter":
		if item, ok := m.historyItemAt(m.historyCursor); ok {
			return m, LoadTranscriptCmd(m.history, item.ID)
		}
		return m, nil

	case "d":
		if item, ok := m.historyItemAt(m.historyCursor); ok {
			return m, DeleteConversationCmd(m.history, item.ID)
		}
		return m, nil

	case "/":
		m.historyQuery.Focus()
		m.renderHistory()
		return m, nil
	}
	return m, nil
}

func (m Model) historyItemAt(i int) (storage.ConversationMeta, bool) {
	if i < 0 || i >= len(m.historyItems) {
		return storage.ConversationMeta{}, false
	}
	return m.historyItems[i], true
}

// =============================================================================
// HISTORY RENDERING
// =============================================================================

// renderHistory paints the overlay into the shared viewport.
func (m *Model) renderHistory() {
	var b strings.Builder
	if m.transcriptID != "" {
		m.renderTranscript(&b)
	} else {
		m.renderConversationList(&b)
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoTop()
}

func (m *Model) renderConversationList(b *strings.Builder) {
	b.WriteString(m.theme.PanelTitle.Render("Past conversations"))
	b.WriteString("\n")
	b.WriteString(m.historyQuery.View())
	b.WriteString("\n\n")

	if len(m.historyItems) == 0 {
		b.WriteString(m.theme.RegionDim.Render("No stored conversations."))
		b.WriteString("\n")
	}
	for i, item := range m.historyItems {
		row := fmt.Sprintf("%s  %-12s %3d msgs  %s",
			item.UpdatedAt.Format("2006-01-02 15:04"),
			regionLabel(item.Region),
			item.MessageCount,
			item.Preview)
		if i == m.historyCursor && !m.historyQuery.Focused() {
			b.WriteString(m.theme.RegionRowFocus.Render("▸ " + row))
		} else {
			b.WriteString(m.theme.RegionRow.Render("  " + row))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.RegionDim.Render("enter open · d delete · / filter · esc close"))
}

func (m *Model) renderTranscript(b *strings.Builder) {
	b.WriteString(m.theme.PanelTitle.Render("Conversation transcript"))
	b.WriteString("\n\n")
	for i, msg := range m.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderer.Render(msg))
	}
	b.WriteString("\n")
	b.WriteString(m.theme.RegionDim.Render("esc back · ctrl+h close"))
}

func regionLabel(code string) string {
	if code == "" {
		return "(no region)"
	}
	return code
}
