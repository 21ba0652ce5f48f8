// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/cloudinv-tui/internal/model"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// MessageRenderer turns chat log entries into styled terminal blocks. It
// caches the glamour renderer, which is expensive to construct, and rebuilds
// it only when the wrap width changes.
type MessageRenderer struct {
	theme          *styles.Theme
	width          int
	showTimestamps bool
	renderMarkdown bool

	markdown *glamour.TermRenderer
}

// NewMessageRenderer builds a renderer for the given theme and options.
func NewMessageRenderer(theme *styles.Theme, showTimestamps, renderMarkdown bool) *MessageRenderer {
	return &MessageRenderer{
		theme:          theme,
		width:          80,
		showTimestamps: showTimestamps,
		renderMarkdown: renderMarkdown,
	}
}

// SetWidth updates the wrap width. Invalidates the cached markdown renderer.
func (r *MessageRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == r.width {
		return
	}
	r.width = width
	r.markdown = nil
}

// Render produces the full block for one message: author line, body, any
// structured card, and suggestion chips.
func (r *MessageRenderer) Render(msg model.Message) string {
	var b strings.Builder

	b.WriteString(r.authorLine(msg))
	b.WriteString("\n")
	b.WriteString(r.body(msg))

	if msg.Card != nil {
		b.WriteString("\n")
		b.WriteString(RenderCard(msg.Card, r.theme, r.width))
	}

	if len(msg.Suggestions) > 0 {
		b.WriteString("\n")
		b.WriteString(r.suggestions(msg.Suggestions))
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func (r *MessageRenderer) authorLine(msg model.Message) string {
	label := r.theme.AuthorLabel.Render(msg.Author.DisplayName())
	if !r.showTimestamps {
		return label
	}
	return label + " " + r.theme.Timestamp.Render(msg.Timestamp.Format(time.Kitchen))
}

func (r *MessageRenderer) body(msg model.Message) string {
	if msg.Text == "" {
		return ""
	}

	switch {
	case msg.Warning:
		return r.theme.WarningBubble.Width(r.width - 2).Render(msg.Text)
	case msg.Author == model.AuthorUser:
		return r.theme.UserBubble.Render(wordwrap.String(msg.Text, r.width-2))
	default:
		return r.theme.BotBubble.Render(r.botText(msg.Text))
	}
}

// botText renders assistant prose, through glamour when markdown rendering
// is on. Falls back to plain wrapping if glamour fails on the input.
func (r *MessageRenderer) botText(text string) string {
	if !r.renderMarkdown {
		return wordwrap.String(text, r.width-2)
	}
	if r.markdown == nil {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(r.width-2),
		)
		if err != nil {
			return wordwrap.String(text, r.width-2)
		}
		r.markdown = renderer
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		return wordwrap.String(text, r.width-2)
	}
	return strings.TrimRight(strings.TrimLeft(out, "\n"), "\n")
}

// suggestions renders follow-up chips; index selected with selectedIndex -1
// meaning none (plain Render path shows them all unselected).
func (r *MessageRenderer) suggestions(items []string) string {
	return RenderSuggestions(items, -1, r.theme, r.width)
}

// RenderSuggestions renders suggestion chips with an optional highlighted
// selection. The chat view calls this directly when the chips are focused.
func RenderSuggestions(items []string, selected int, theme *styles.Theme, width int) string {
	var b strings.Builder
	lineWidth := 0
	for i, item := range items {
		chip := theme.Suggestion.Render(item)
		if i == selected {
			chip = theme.SuggestionSel.Render(item)
		}
		w := len(item) + 4
		if lineWidth > 0 && lineWidth+w > width {
			b.WriteString("\n")
			lineWidth = 0
		}
		b.WriteString(chip + " ")
		lineWidth += w
	}
	return strings.TrimRight(b.String(), " ")
}
