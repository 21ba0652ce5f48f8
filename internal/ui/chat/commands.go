// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cloudinv-tui/internal/api"
	"github.com/jeranaias/cloudinv-tui/internal/region"
)

const requestTimeout = 60 * time.Second

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// SendChatCmd posts a user prompt to the assistant.
func SendChatCmd(client *api.Client, message, userID, sessionID, regionCode string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := client.Chat(ctx, message, userID, sessionID, regionCode)
		return ChatResponseMsg{Response: resp, Err: err}
	}
}

// SendInitCmd posts the automatic greeting that opens a conversation. The
// result is tagged with the region identity it was issued under.
func SendInitCmd(client *api.Client, message, userID, sessionID, regionCode string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := client.Chat(ctx, message, userID, sessionID, regionCode)
		return InitResponseMsg{Region: regionCode, Response: resp, Err: err}
	}
}

// ConfirmCmd approves a pending destructive operation.
func ConfirmCmd(client *api.Client, confirmationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := client.ConfirmOperation(ctx, confirmationID)
		return ConfirmResponseMsg{Response: resp, Err: err}
	}
}

// LoadRegionStatusCmd refreshes the region manager from the backend.
func LoadRegionStatusCmd(mgr *region.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return RegionStatusMsg{Err: mgr.LoadStatus(ctx)}
	}
}

// ConnectRegionCmd switches the exclusive connection to target.
func ConnectRegionCmd(mgr *region.Manager, target string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return RegionActionMsg{Target: target, Err: mgr.Connect(ctx, target)}
	}
}

// DisconnectRegionCmd drops the connection to target.
func DisconnectRegionCmd(mgr *region.Manager, target string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return RegionActionMsg{Target: target, Disconnect: true, Err: mgr.Disconnect(ctx, target)}
	}
}
