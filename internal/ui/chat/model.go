// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view: the message log, the input
// line, the region sidebar, and the confirmation flow for destructive
// inventory operations.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/cloudinv-tui/internal/api"
	"github.com/jeranaias/cloudinv-tui/internal/config"
	"github.com/jeranaias/cloudinv-tui/internal/content"
	"github.com/jeranaias/cloudinv-tui/internal/logging"
	"github.com/jeranaias/cloudinv-tui/internal/model"
	"github.com/jeranaias/cloudinv-tui/internal/region"
	"github.com/jeranaias/cloudinv-tui/internal/session"
	"github.com/jeranaias/cloudinv-tui/internal/storage"
	"github.com/jeranaias/cloudinv-tui/internal/ui/components"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

// =============================================================================
// CONVERSATION STATE
// =============================================================================

// InitState tracks the automatic greeting that opens every conversation.
type InitState int

const (
	InitIdle     InitState = iota // No greeting requested yet
	InitInFlight                  // Greeting request outstanding
	InitReady                     // Greeting shown, conversation open
)

const cancelledText = "Operation cancelled. No changes have been made."

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the conversation view.
type Model struct {
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Backend
	client  *api.Client
	regions *region.Manager
	history *storage.HistoryStore // nil when history is disabled

	// Identity
	username string
	role     string

	// Conversation log. Append-only between restarts; a restart or region
	// switch replaces it wholesale.
	messages       []model.Message
	pending        *model.PendingConfirmation
	sessionID      string
	conversationID string

	// Greeting state machine, keyed by the region identity the log was
	// opened under.
	initState  InitState
	initRegion string

	sending bool
	notice  string

	// History overlay. While open it owns the viewport; the live log is
	// re-rendered on close.
	historyOpen   bool
	historyItems  []storage.ConversationMeta
	historyCursor int
	historyQuery  textinput.Model
	transcript    []model.Message
	transcriptID  string

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *components.MessageRenderer
	panel    *components.RegionPanel
}

// New builds the conversation view for an authenticated user.
func New(client *api.Client, regions *region.Manager, history *storage.HistoryStore, user session.User, theme *styles.Theme, cfg *config.Config) Model {
	input := textinput.New()
	input.Placeholder = "Ask about your log inventory…"
	input.Prompt = "> "
	input.CharLimit = cfg.Chat.MaxInputChars
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	query := textinput.New()
	query.Placeholder = "filter conversations…"
	query.Prompt = "/ "
	query.CharLimit = 80

	return Model{
		theme:          theme,
		client:         client,
		regions:        regions,
		history:        history,
		username:       user.Username,
		role:           user.Role,
		sessionID:      model.NewChatSessionID(),
		conversationID: model.NewChatSessionID(),
		viewport:       viewport.New(80, 20),
		historyQuery:   query,
		input:          input,
		spinner:        sp,
		renderer:       components.NewMessageRenderer(theme, cfg.UI.ShowTimestamps, cfg.UI.RenderMarkdown),
		panel:          components.NewRegionPanel(),
	}
}

// Init loads region state; the greeting fires once status is known.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		LoadRegionStatusCmd(m.regions),
	)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Messages returns the conversation log.
func (m Model) Messages() []model.Message { return m.messages }

// Pending returns the outstanding confirmation, or nil.
func (m Model) Pending() *model.PendingConfirmation { return m.pending }

// SessionID returns the backend conversation correlation id.
func (m Model) SessionID() string { return m.sessionID }

// Status summarizes live state for the shell's status bar.
func (m Model) Status() components.StatusInfo {
	connected, _ := m.regions.Connected()
	return components.StatusInfo{
		Connected: region.Region(connected),
		Selected:  region.Region(m.regions.Selected()),
		Busy:      m.sending || m.initState == InitInFlight || m.panel.Busy() != "",
		Notice:    m.notice,
	}
}

// regionIdentity is the init-state key: the connected region, or "" when
// none is connected. A change of identity restarts the conversation.
func (m Model) regionIdentity() string {
	connected, ok := m.regions.Connected()
	if !ok {
		return ""
	}
	return connected
}

// =============================================================================
// GREETING STATE MACHINE
// =============================================================================

// ensureInitialized opens (or reopens) the conversation when the greeting
// has not run yet or the region identity changed. The log is cleared exactly
// once per identity change and exactly one greeting is produced for it.
func (m *Model) ensureInitialized() tea.Cmd {
	identity := m.regionIdentity()
	if m.initState != InitIdle && m.initRegion == identity {
		return nil
	}

	m.messages = nil
	m.pending = nil
	m.sending = false
	m.initRegion = identity
	m.conversationID = model.NewChatSessionID()

	if identity == "" {
		// Nothing to ask the backend without a connection; greet locally.
		m.initState = InitReady
		return m.appendMessage(model.NewBotMessage(m.localWelcome()))
	}

	m.initState = InitInFlight
	return SendInitCmd(m.client, "Hello", m.username, m.sessionID, identity)
}

// finishInit applies the greeting reply. Replies tagged with a different
// region identity are stale and dropped.
func (m *Model) finishInit(msg InitResponseMsg) tea.Cmd {
	if m.initState != InitInFlight || msg.Region != m.initRegion {
		return nil
	}
	m.initState = InitReady

	if msg.Err != nil {
		logging.Warnf("greeting request failed: %v", msg.Err)
		return m.appendMessage(model.NewBotMessage(m.localWelcome()))
	}
	return m.applyResponse(msg.Response)
}

// localWelcome composes the greeting shown when the backend cannot provide
// one: no connection, or the greeting request failed.
func (m Model) localWelcome() string {
	role := cases.Title(language.English).String(m.role)
	if role != "" {
		role = " " + role
	}

	if connected, ok := m.regions.Connected(); ok {
		return fmt.Sprintf("Welcome back,%s. You're connected to **%s**. Ask about your log inventory — try \"show statistics\".", role, connected)
	}
	if selected := m.regions.Selected(); selected != "" {
		return fmt.Sprintf("Welcome back,%s. Your saved region **%s** isn't connected. Reconnect from the region panel to run inventory queries.", role, selected)
	}
	return fmt.Sprintf("Welcome,%s. Connect to a region from the panel to start exploring your log inventory.", role)
}

// Restart discards the conversation and opens a fresh one against the same
// region.
func (m *Model) Restart() tea.Cmd {
	m.sessionID = model.NewChatSessionID()
	m.initState = InitIdle
	m.initRegion = ""
	m.notice = ""
	return m.ensureInitialized()
}

// =============================================================================
// SENDING
// =============================================================================

// submit validates and dispatches the input line. Inventory prompts without
// a connected region are answered locally and never reach the backend.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.sending || m.pending != nil || m.initState == InitInFlight {
		return nil
	}
	m.input.Reset()
	m.notice = ""

	userCmd := m.appendMessage(model.NewUserMessage(text))

	identity := m.regionIdentity()
	if identity == "" && NeedsRegion(text) {
		warnCmd := m.appendMessage(model.NewWarningMessage(
			"No region connected. Inventory commands need an active region connection.",
			[]string{"Press tab to open the region panel", "Connect to a region, then retry"},
		))
		return tea.Batch(userCmd, warnCmd)
	}

	m.sending = true
	return tea.Batch(userCmd, SendChatCmd(m.client, text, m.username, m.sessionID, identity))
}

// applyResponse appends the assistant reply, decoding any structured card
// and capturing a confirmation request.
func (m *Model) applyResponse(resp *api.ChatResponse) tea.Cmd {
	if resp == nil {
		return nil
	}

	msg := model.NewBotMessage(resp.Response)
	msg.Suggestions = resp.Suggestions
	msg.Card = content.Decode(resp.StructuredContent)

	if resp.RequiresConfirmation && resp.OperationData != nil {
		msg.RequiresConfirmation = true
		m.pending = &model.PendingConfirmation{
			ConfirmationID:  resp.OperationData.ConfirmationID,
			Operation:       resp.OperationData.Operation,
			Details:         resp.OperationData.Details,
			OriginalMessage: resp.Response,
		}
	}

	return m.appendMessage(msg)
}

// handleChatError surfaces a failed send in the log and the status bar.
func (m *Model) handleChatError(err error) tea.Cmd {
	logging.Errorf("chat request failed: %v", err)
	m.notice = err.Error()
	return m.appendMessage(model.NewWarningMessage(err.Error(), nil))
}

// =============================================================================
// CONFIRMATION FLOW
// =============================================================================

// confirmPending approves the outstanding operation.
func (m *Model) confirmPending() tea.Cmd {
	if m.pending == nil {
		return nil
	}
	id := m.pending.ConfirmationID
	m.pending = nil
	m.sending = true
	return ConfirmCmd(m.client, id)
}

// cancelPending declines the outstanding operation locally. The backend is
// never told; an unconfirmed operation simply expires there.
func (m *Model) cancelPending() tea.Cmd {
	if m.pending == nil {
		return nil
	}
	m.pending = nil
	return m.appendMessage(model.NewBotMessage(cancelledText))
}

// =============================================================================
// LOG MANAGEMENT
// =============================================================================

// appendMessage adds to the log and scrolls the viewport to the newest
// entry. The returned command persists the message to history off the
// update path; nil when history is disabled.
func (m *Model) appendMessage(msg model.Message) tea.Cmd {
	m.messages = append(m.messages, msg)
	m.refreshViewport()
	m.viewport.GotoBottom()

	if m.history == nil {
		return nil
	}
	store, conversationID, regionCode := m.history, m.conversationID, m.initRegion
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return HistoryAppendedMsg{Err: store.Append(ctx, conversationID, regionCode, msg)}
	}
}

// refreshViewport re-renders the log into the viewport. Suppressed while the
// history overlay owns the viewport; closing it re-renders.
func (m *Model) refreshViewport() {
	if m.historyOpen {
		return
	}
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderer.Render(msg))
	}
	m.viewport.SetContent(b.String())
}
