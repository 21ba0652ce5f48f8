// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/cloudinv-tui/internal/region"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

// StatusInfo is the live state surfaced in the bottom bar.
type StatusInfo struct {
	Connected region.Region // "" when no region is connected
	Selected  region.Region // persisted preference, may differ from Connected
	Busy      bool          // a request is in flight
	Notice    string        // transient message, usually an error
}

// StatusBar renders the bottom bar: connection state, activity, and the
// standing key hints.
func StatusBar(theme *styles.Theme, width int, info StatusInfo) string {
	var parts []string

	switch {
	case info.Connected != "":
		parts = append(parts, theme.StatusGood.Render("● "+string(info.Connected)))
	case info.Selected != "":
		parts = append(parts, theme.StatusWarn.Render("◌ "+string(info.Selected)+" (not connected)"))
	default:
		parts = append(parts, theme.StatusWarn.Render("○ no region"))
	}

	if info.Busy {
		parts = append(parts, theme.StatusValue.Render("working…"))
	}
	if info.Notice != "" {
		parts = append(parts, theme.StatusWarn.Render(info.Notice))
	}

	parts = append(parts,
		theme.StatusKey.Render("tab")+theme.StatusValue.Render(" regions"),
		theme.StatusKey.Render("ctrl+r")+theme.StatusValue.Render(" restart"),
		theme.StatusKey.Render("ctrl+h")+theme.StatusValue.Render(" history"),
		theme.StatusKey.Render("ctrl+l")+theme.StatusValue.Render(" logout"),
		theme.StatusKey.Render("ctrl+c")+theme.StatusValue.Render(" quit"),
	)

	return theme.StatusBar.Width(width).Render(strings.Join(parts, "  "))
}
