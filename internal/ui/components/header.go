// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

// Header renders the top bar: product title on the left, signed-in identity
// on the right.
func Header(theme *styles.Theme, width int, username, role string) string {
	title := theme.HeaderTitle.Render("Cloud Inventory")

	meta := ""
	if username != "" {
		meta = username
		if role != "" {
			meta += " (" + role + ")"
		}
		meta = theme.HeaderMeta.Render(meta)
	}

	gap := width - lipgloss.Width(title) - lipgloss.Width(meta) - 2
	if gap < 1 {
		gap = 1
	}
	line := title + lipgloss.NewStyle().Width(gap).Render("") + meta

	return theme.Header.Width(width).Render(line)
}
