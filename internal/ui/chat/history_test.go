// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cloudinv-tui/internal/api"
	"github.com/jeranaias/cloudinv-tui/internal/config"
	"github.com/jeranaias/cloudinv-tui/internal/model"
	"github.com/jeranaias/cloudinv-tui/internal/region"
	"github.com/jeranaias/cloudinv-tui/internal/session"
	"github.com/jeranaias/cloudinv-tui/internal/storage"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

// =============================================================================
// FIXTURE
// =============================================================================

func newTestModelWithHistory(t *testing.T, backend *chatBackend) (Model, *storage.HistoryStore) {
	t.Helper()

	store, err := session.NewStore(t.TempDir(), false)
	require.NoError(t, err)
	require.NoError(t, store.SetAuth("T1", &session.User{Username: "alice", Role: "admin"}))

	client := api.NewClient(backend.srv.URL, store)
	mgr := region.NewManager(client, t.TempDir())

	history, err := storage.Open(filepath.Join(t.TempDir(), "history.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	cfg := config.Default()
	cfg.UI.RenderMarkdown = false

	m := New(client, mgr, history, session.User{Username: "alice", Role: "admin"}, styles.New(boolPtr(true)), cfg)
	return m, history
}

func seedConversation(t *testing.T, history *storage.HistoryStore, id, regionCode string, texts ...string) {
	t.Helper()
	for _, text := range texts {
		require.NoError(t, history.Append(context.Background(), id, regionCode, model.NewUserMessage(text)))
	}
}

// runMsg executes cmd and feeds its message back into the model.
func runMsg(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m, next := m.Update(cmd())
	return m, next
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestAppendMessage_PersistsViaCommand(t *testing.T) {
	backend := newChatBackend(t)
	m, history := newTestModelWithHistory(t, backend)

	cmd := (&m).appendMessage(model.NewUserMessage("show statistics"))
	require.NotNil(t, cmd)

	// The write happens when the command runs, not inside the update.
	items, err := history.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, items)

	res, ok := cmd().(HistoryAppendedMsg)
	require.True(t, ok)
	require.NoError(t, res.Err)

	items, err = history.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, items[0].MessageCount)
	require.Equal(t, "show statistics", items[0].Preview)
}

func TestAppendMessage_NoHistoryReturnsNil(t *testing.T) {
	backend := newChatBackend(t)
	m, _ := newTestModel(t, backend)

	require.Nil(t, (&m).appendMessage(model.NewUserMessage("hello")))
}

// =============================================================================
// BROWSER OVERLAY
// =============================================================================

func TestHistoryOverlay_ListsStoredConversations(t *testing.T) {
	backend := newChatBackend(t)
	m, history := newTestModelWithHistory(t, backend)
	seedConversation(t, history, "c-older", "US", "count errors in app logs")
	seedConversation(t, history, "c-newer", "", "hello there")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	require.True(t, m.historyOpen)

	m, _ = runMsg(t, m, cmd)
	require.Len(t, m.historyItems, 2)

	view := m.View()
	require.Contains(t, view, "Past conversations")
	require.Contains(t, view, "hello there")
	require.Contains(t, view, "(no region)")
}

func TestHistoryOverlay_OpensTranscriptAndReturns(t *testing.T) {
	backend := newChatBackend(t)
	m, history := newTestModelWithHistory(t, backend)
	seedConversation(t, history, "c1", "US", "show archived logs", "count errors")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	m, _ = runMsg(t, m, cmd)
	require.Len(t, m.historyItems, 1)

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = runMsg(t, m, cmd)
	require.Equal(t, "c1", m.transcriptID)
	require.Len(t, m.transcript, 2)
	require.Contains(t, m.View(), "show archived logs")

	// Back to the list, then close the overlay entirely.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Empty(t, m.transcriptID)
	require.True(t, m.historyOpen)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.historyOpen)
}

func TestHistoryOverlay_DeleteRemovesConversation(t *testing.T) {
	backend := newChatBackend(t)
	m, history := newTestModelWithHistory(t, backend)
	seedConversation(t, history, "c1", "US", "show statistics")
	seedConversation(t, history, "c2", "EU", "delete old archives")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	m, _ = runMsg(t, m, cmd)
	require.Len(t, m.historyItems, 2)

	victim := m.historyItems[0].ID
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m, cmd = runMsg(t, m, cmd) // HistoryDeletedMsg triggers a re-list
	m, _ = runMsg(t, m, cmd)

	require.Len(t, m.historyItems, 1)
	require.NotEqual(t, victim, m.historyItems[0].ID)

	items, err := history.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestHistoryOverlay_FilterNarrowsList(t *testing.T) {
	backend := newChatBackend(t)
	m, history := newTestModelWithHistory(t, backend)
	seedConversation(t, history, "c1", "US", "show archive summary")
	seedConversation(t, history, "c2", "EU", "count warnings")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	m, _ = runMsg(t, m, cmd)
	require.Len(t, m.historyItems, 2)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	require.True(t, m.historyQuery.Focused())
	for _, r := range "archive" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = runMsg(t, m, cmd)

	require.Len(t, m.historyItems, 1)
	require.Equal(t, "c1", m.historyItems[0].ID)
}

func TestHistoryDisabled_ShowsNotice(t *testing.T) {
	backend := newChatBackend(t)
	m, _ := newTestModel(t, backend)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	require.Nil(t, cmd)
	require.False(t, m.historyOpen)
	require.Equal(t, "history is disabled", m.notice)
}

func TestHistoryClosed_RestoresLiveLog(t *testing.T) {
	backend := newChatBackend(t)
	m, history := newTestModelWithHistory(t, backend)
	seedConversation(t, history, "c1", "US", "old conversation")

	_ = (&m).appendMessage(model.NewBotMessage("live message"))

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	m, _ = runMsg(t, m, cmd)
	require.NotContains(t, strings.TrimSpace(m.View()), "live message")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Contains(t, m.View(), "live message")
}
