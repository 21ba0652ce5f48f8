// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/cloudinv-tui/internal/content"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
	"github.com/jeranaias/cloudinv-tui/internal/util"
)

// =============================================================================
// STRUCTURED CONTENT CARDS
// =============================================================================

// RenderCard maps a structured content variant to its visual card. Pure
// dispatch: exhaustive over the known variants with RawCard as the safety
// net, so an unexpected backend payload can never break the view.
func RenderCard(card content.Card, theme *styles.Theme, width int) string {
	if card == nil {
		return ""
	}
	if width < 30 {
		width = 30
	}
	inner := width - 4 // border + padding

	switch c := card.(type) {
	case content.StatsCard:
		return renderStatsCard(c, theme, inner)
	case content.ConfirmationCard:
		return renderConfirmationCard(c, theme, inner)
	case content.SuccessCard:
		return renderSuccessCard(c, theme, inner)
	case content.ErrorCard:
		return renderErrorCard(c, theme, inner)
	case content.CancelledCard:
		return renderCancelledCard(c, theme, inner)
	case content.ConversationalCard:
		return renderConversationalCard(c, theme, inner)
	case content.WelcomeCard:
		return renderWelcomeCard(c, theme, inner)
	case content.ClarificationCard:
		return renderClarificationCard(c, theme, inner)
	case content.DatabaseOverview:
		return renderDatabaseOverview(c, theme, inner)
	case content.RegionStatusCard:
		return renderRegionStatusCard(c, theme, inner)
	case content.DataTable:
		return renderDataTable(c, theme, inner)
	case content.CapabilitiesCard:
		return renderCapabilitiesCard(c, theme, inner)
	case content.RawCard:
		return renderRawCard(c, theme, inner)
	default:
		// A variant added to the content package but not here.
		return renderRawCard(content.RawCard{Type: card.CardType()}, theme, inner)
	}
}

// =============================================================================
// VARIANT RENDERERS
// =============================================================================

func renderStatsCard(c content.StatsCard, theme *styles.Theme, width int) string {
	var b strings.Builder
	writeTitle(&b, theme, c.Title)
	writeMeta(&b, theme, c.Region, c.TableName)

	labelWidth := 0
	for _, s := range c.Stats {
		if w := util.StringWidth(s.Label); w > labelWidth {
			labelWidth = w
		}
	}

	for _, s := range c.Stats {
		value := theme.CardValue.Render(s.Value)
		if s.Highlight {
			value = theme.CardHighVal.Render(s.Value)
		}
		b.WriteString(theme.CardLabel.Render(util.PadRight(s.Label, labelWidth)) + "  " + value + "\n")
	}

	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func renderConfirmationCard(c content.ConfirmationCard, theme *styles.Theme, width int) string {
	style := theme.CardWarn
	action := "confirm archive"
	if c.IsDelete() {
		style = theme.CardDanger
		action = "confirm delete"
	}

	var b strings.Builder
	writeTitle(&b, theme, c.Title)
	writeMeta(&b, theme, c.Region, "")
	if c.Count > 0 {
		b.WriteString(theme.CardLabel.Render("Affected records: ") + theme.CardHighVal.Render(util.IntToString(c.Count)) + "\n")
	}
	if c.Instructions != "" {
		b.WriteString(wordwrap.String(c.Instructions, width) + "\n")
	}
	b.WriteString(theme.CardMuted.Render(fmt.Sprintf("y %s · n cancel", action)))

	return style.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func renderSuccessCard(c content.SuccessCard, theme *styles.Theme, width int) string {
	var b strings.Builder
	writeTitle(&b, theme, "✓ "+c.Title)
	writeMeta(&b, theme, c.Region, "")
	for _, d := range c.Details {
		b.WriteString("• " + wordwrap.String(d, width-2) + "\n")
	}
	return theme.CardSuccess.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func renderErrorCard(c content.ErrorCard, theme *styles.Theme, width int) string {
	var b strings.Builder
	writeTitle(&b, theme, "✗ "+c.Title)
	writeMeta(&b, theme, c.Region, "")
	b.WriteString(theme.ErrorText.Render(wordwrap.String(c.ErrorMessage, width)) + "\n")
	if len(c.Suggestions) > 0 {
		b.WriteString(theme.CardLabel.Render("Try:") + "\n")
		for _, s := range c.Suggestions {
			b.WriteString("• " + wordwrap.String(s, width-2) + "\n")
		}
	}
	return theme.CardDanger.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func renderCancelledCard(c content.CancelledCard, theme *styles.Theme, width int) string {
	var b strings.Builder
	writeTitle(&b, theme, c.Title)
	writeMeta(&b, theme, c.Region, "")
	if c.Message != "" {
		b.WriteString(wordwrap.String(c.Message, width) + "\n")
	}
	for _, d := range c.Details {
		b.WriteString(theme.CardMuted.Render("• "+d) + "\n")
	}
	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func renderConversationalCard(c content.ConversationalCard, theme *styles.Theme, width int) string {
	var b strings.Builder
	if c.Title != "" {
		writeTitle(&b, theme, c.Title)
	}
	writeMeta(&b, theme, c.Region, roleMeta(c.UserRole))
	b.WriteString(wordwrap.String(c.Content, width))
	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func renderWelcomeCard(c content.WelcomeCard, theme *styles.Theme, width int) string {
	title := c.Title
	if c.Icon != "" {
		title = c.Icon + " " + title
	}

	var b strings.Builder
	writeTitle(&b, theme, title)
	writeMeta(&b, theme, c.Region, roleMeta(c.UserRole))
	if c.Content != "" {
		b.WriteString(wordwrap.String(c.Content, width))
	}
	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func renderClarificationCard(c content.ClarificationCard, theme *styles.Theme, width int) string {
	var b strings.Builder
	if c.Title != "" {
		writeTitle(&b, theme, c.Title)
	}
	writeMeta(&b, theme, c.Region, "")
	b.WriteString(wordwrap.String(c.Message, width) + "\n")
	for i, opt := range c.Options {
		b.WriteString(theme.CardValue.Render(fmt.Sprintf("%d. %s", i+1, opt)) + "\n")
	}
	return theme.CardWarn.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func renderDatabaseOverview(c content.DatabaseOverview, theme *styles.Theme, width int) string {
	var b strings.Builder
	writeTitle(&b, theme, "Database Overview")
	writeMeta(&b, theme, c.Region, "")

	b.WriteString(theme.CardLabel.Render("Main tables: ") +
		theme.CardHighVal.Render(util.IntToString(c.Summary.MainTablesCount)) +
		theme.CardLabel.Render("   Archive tables: ") +
		theme.CardHighVal.Render(util.IntToString(c.Summary.ArchiveTablesCount)) + "\n")

	writeTableGroup(&b, theme, "Main", c.MainTables, width)
	writeTableGroup(&b, theme, "Archive", c.ArchiveTables, width)

	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func writeTableGroup(b *strings.Builder, theme *styles.Theme, label string, tables []content.TableInfo, width int) {
	if len(tables) == 0 {
		return
	}
	b.WriteString(theme.CardLabel.Render(label+":") + "\n")
	for _, tbl := range tables {
		if tbl.Error != "" {
			b.WriteString("  " + theme.CardValue.Render(tbl.Name) + " " + theme.ErrorText.Render("("+tbl.Error+")") + "\n")
			continue
		}
		line := fmt.Sprintf("  %s — %d records", tbl.Name, tbl.TotalRecords)
		if tbl.AgeDays > 0 {
			line += fmt.Sprintf(", %d older than %dd", tbl.AgeBasedCount, tbl.AgeDays)
		}
		b.WriteString(theme.CardValue.Render(util.TruncateWidth(line, width)) + "\n")
	}
}

func renderRegionStatusCard(c content.RegionStatusCard, theme *styles.Theme, width int) string {
	title := c.Title
	if title == "" {
		title = "Region Status"
	}

	var b strings.Builder
	writeTitle(&b, theme, title)
	for _, region := range sortedKeys(c.Regions) {
		if c.Regions[region] {
			b.WriteString(theme.RegionConnected.Render("● "+region) + theme.CardMuted.Render("  connected") + "\n")
		} else {
			b.WriteString(theme.RegionDim.Render("○ "+region+"  disconnected") + "\n")
		}
	}
	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func renderDataTable(c content.DataTable, theme *styles.Theme, width int) string {
	var b strings.Builder
	if c.Title != "" {
		writeTitle(&b, theme, c.Title)
	}
	writeMeta(&b, theme, c.Region, "")

	// Column widths sized to content, capped so the table fits.
	colCap := width / max(len(c.Columns), 1)
	if colCap < 6 {
		colCap = 6
	}
	widths := make([]int, len(c.Columns))
	for i, col := range c.Columns {
		widths[i] = min(util.StringWidth(col), colCap)
	}
	cells := make([][]string, len(c.Rows))
	for r, row := range c.Rows {
		cells[r] = make([]string, len(c.Columns))
		for i := range c.Columns {
			s := ""
			if i < len(row) {
				s = formatCell(row[i])
			}
			cells[r][i] = s
			if w := util.StringWidth(s); w > widths[i] {
				widths[i] = min(w, colCap)
			}
		}
	}

	var header strings.Builder
	for i, col := range c.Columns {
		header.WriteString(util.PadRight(util.TruncateWidth(col, widths[i]), widths[i]) + "  ")
	}
	b.WriteString(theme.TableHeader.Render(strings.TrimRight(header.String(), " ")) + "\n")

	for _, row := range cells {
		var line strings.Builder
		for i, cell := range row {
			line.WriteString(util.PadRight(util.TruncateWidth(cell, widths[i]), widths[i]) + "  ")
		}
		b.WriteString(theme.TableCell.Render(strings.TrimRight(line.String(), " ")) + "\n")
	}

	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

// formatCell renders a JSON-decoded table value. Numbers arrive as float64;
// keep integers free of a trailing ".0".
func formatCell(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	case bool:
		if n {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", n)
	}
}

func renderCapabilitiesCard(c content.CapabilitiesCard, theme *styles.Theme, width int) string {
	title := c.Title
	if title == "" {
		title = "Capabilities"
	}

	var b strings.Builder
	writeTitle(&b, theme, title)
	writeMeta(&b, theme, "", roleMeta(c.UserRole))
	for _, line := range c.Capabilities {
		b.WriteString("• " + wordwrap.String(line, width-2) + "\n")
	}
	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func renderRawCard(c content.RawCard, theme *styles.Theme, width int) string {
	label := "Unrecognized content"
	if c.Type != "" {
		label += " (" + c.Type + ")"
	}

	var b strings.Builder
	b.WriteString(theme.CardMuted.Render(label) + "\n")
	if c.JSON != "" {
		b.WriteString(HighlightJSON(c.JSON))
	}
	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func writeTitle(b *strings.Builder, theme *styles.Theme, title string) {
	if title == "" {
		return
	}
	b.WriteString(theme.CardTitle.Render(title) + "\n")
}

// writeMeta renders the dim "region · extra" line under a title.
func writeMeta(b *strings.Builder, theme *styles.Theme, region, extra string) {
	var parts []string
	if region != "" {
		parts = append(parts, "region "+region)
	}
	if extra != "" {
		parts = append(parts, extra)
	}
	if len(parts) == 0 {
		return
	}
	b.WriteString(theme.CardMuted.Render(strings.Join(parts, " · ")) + "\n")
}

func roleMeta(role string) string {
	if role == "" {
		return ""
	}
	return "role " + role
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
