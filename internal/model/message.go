// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the chat data types shared across the UI.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/cloudinv-tui/internal/content"
)

// =============================================================================
// AUTHOR
// =============================================================================

// Author identifies who produced a message.
type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

// DisplayName returns a human-readable author label.
func (a Author) DisplayName() string {
	switch a {
	case AuthorUser:
		return "You"
	case AuthorBot:
		return "Assistant"
	default:
		return string(a)
	}
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is one entry in the append-only chat log.
type Message struct {
	ID        string
	Author    Author
	Text      string
	Timestamp time.Time

	// Suggestions are follow-up chips offered under a bot message.
	Suggestions []string

	// Card is optional structured content attached by the backend.
	Card content.Card

	// RequiresConfirmation marks the message that raised a pending
	// confirmation. Display only; the confirmation itself lives on the
	// chat view.
	RequiresConfirmation bool

	// Warning marks locally generated guard messages, e.g. the
	// needs-a-connected-region short circuit.
	Warning bool
}

// NewWarningMessage creates a locally generated warning shown in the log
// without any backend round trip.
func NewWarningMessage(text string, suggestions []string) Message {
	msg := NewBotMessage(text)
	msg.Warning = true
	msg.Suggestions = suggestions
	return msg
}

// NewUserMessage creates a message authored by the user.
func NewUserMessage(text string) Message {
	return Message{
		ID:        generateMessageID(),
		Author:    AuthorUser,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewBotMessage creates a message authored by the assistant.
func NewBotMessage(text string) Message {
	return Message{
		ID:        generateMessageID(),
		Author:    AuthorBot,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}

// =============================================================================
// PENDING CONFIRMATION
// =============================================================================

// PendingConfirmation holds the single outstanding two-step operation.
// Created when a chat response signals requires_confirmation; destroyed on
// confirm or cancel.
type PendingConfirmation struct {
	ConfirmationID  string
	Operation       string
	Details         string
	OriginalMessage string
}

// =============================================================================
// CHAT SESSION ID
// =============================================================================

// NewChatSessionID creates the session identifier attached to every /chat
// request for backend-side conversation grouping.
func NewChatSessionID() string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
