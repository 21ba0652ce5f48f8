// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/cloudinv-tui/internal/api"
)

// =============================================================================
// CHAT MESSAGES
// =============================================================================

// ChatResponseMsg carries the backend reply to a user prompt.
type ChatResponseMsg struct {
	Response *api.ChatResponse
	Err      error
}

// InitResponseMsg carries the backend reply to the automatic greeting sent
// when a conversation (re)starts. Region records which region identity the
// greeting was issued under, so a stale reply after a region switch can be
// discarded.
type InitResponseMsg struct {
	Region   string
	Response *api.ChatResponse
	Err      error
}

// ConfirmResponseMsg carries the backend reply to a confirmed operation.
type ConfirmResponseMsg struct {
	Response *api.ChatResponse
	Err      error
}

// =============================================================================
// REGION MESSAGES
// =============================================================================

// RegionStatusMsg signals that the region manager refreshed its view of the
// backend connection map.
type RegionStatusMsg struct {
	Err error
}

// RegionActionMsg reports the outcome of a connect or disconnect request.
type RegionActionMsg struct {
	Target     string
	Disconnect bool
	Err        error
}

// =============================================================================
// SHELL MESSAGES
// =============================================================================

// LogoutRequestMsg asks the app shell to tear down the session and return to
// the login screen.
type LogoutRequestMsg struct{}
