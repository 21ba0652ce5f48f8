// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/cloudinv-tui/internal/region"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

// =============================================================================
// REGION PANEL
// =============================================================================

// PanelWidth is the fixed column width of the region sidebar.
const PanelWidth = 24

// RegionPanel is the sidebar listing available regions with their connection
// state. Navigation state lives here; connect/disconnect actions are driven
// by the owning view.
type RegionPanel struct {
	regions []region.Region
	cursor  int
	focused bool

	connected map[region.Region]bool
	selected  region.Region
	busy      region.Region // region with an in-flight connect/disconnect
}

// NewRegionPanel builds a panel over the known region set. The list is
// replaced once live availability loads.
func NewRegionPanel() *RegionPanel {
	return &RegionPanel{
		regions:   append([]region.Region(nil), region.KnownRegions...),
		connected: make(map[region.Region]bool),
	}
}

// SetRegions replaces the listed regions, clamping the cursor.
func (p *RegionPanel) SetRegions(regions []region.Region) {
	p.regions = append([]region.Region(nil), regions...)
	if p.cursor >= len(p.regions) {
		p.cursor = max(len(p.regions)-1, 0)
	}
}

// SetStatus updates connection truth and the persisted selection marker.
func (p *RegionPanel) SetStatus(connected map[region.Region]bool, selected region.Region) {
	p.connected = make(map[region.Region]bool, len(connected))
	for r, ok := range connected {
		p.connected[r] = ok
	}
	p.selected = selected
}

// SetBusy marks a region as having an in-flight operation ("" clears it).
func (p *RegionPanel) SetBusy(r region.Region) { p.busy = r }

// Busy reports the region with an in-flight operation, if any.
func (p *RegionPanel) Busy() region.Region { return p.busy }

// Focus and Blur toggle keyboard focus; the focused panel highlights its
// cursor row.
func (p *RegionPanel) Focus()        { p.focused = true }
func (p *RegionPanel) Blur()         { p.focused = false }
func (p *RegionPanel) Focused() bool { return p.focused }

// CursorUp and CursorDown move the selection cursor with clamping.
func (p *RegionPanel) CursorUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

func (p *RegionPanel) CursorDown() {
	if p.cursor < len(p.regions)-1 {
		p.cursor++
	}
}

// Current returns the region under the cursor, or "" when the list is empty.
func (p *RegionPanel) Current() region.Region {
	if len(p.regions) == 0 {
		return ""
	}
	return p.regions[p.cursor]
}

// View renders the panel at the given height.
func (p *RegionPanel) View(theme *styles.Theme, height int) string {
	var b strings.Builder
	b.WriteString(theme.PanelTitle.Render("Regions") + "\n\n")

	for i, r := range p.regions {
		b.WriteString(p.row(theme, i, r) + "\n")
	}

	b.WriteString("\n")
	if p.focused {
		b.WriteString(theme.RegionDim.Render("↑/↓ move · enter connect\nd disconnect · tab chat"))
	} else {
		b.WriteString(theme.RegionDim.Render("tab to focus"))
	}

	return theme.Panel.Width(PanelWidth - 2).Height(max(height-2, 0)).Render(b.String())
}

func (p *RegionPanel) row(theme *styles.Theme, i int, r region.Region) string {
	marker := "○"
	style := theme.RegionRow
	switch {
	case r == p.busy:
		marker = "…"
	case p.connected[r]:
		marker = "●"
		style = theme.RegionConnected
	case r == p.selected:
		// Persisted preference without a live connection.
		marker = "◌"
		style = theme.RegionSelected
	default:
		style = theme.RegionDim
	}

	line := marker + " " + string(r)
	if p.focused && i == p.cursor {
		return theme.RegionRowFocus.Render(line)
	}
	return style.Render(line)
}
