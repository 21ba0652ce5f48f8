// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cloudinv-tui/internal/content"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	dark := true
	return styles.New(&dark)
}

func TestRenderCard_NilIsEmpty(t *testing.T) {
	require.Empty(t, RenderCard(nil, testTheme(), 80))
}

func TestRenderCard_AllVariantsProduceOutput(t *testing.T) {
	theme := testTheme()
	cards := []content.Card{
		content.StatsCard{Title: "Stats", Stats: []content.StatRow{{Label: "Total", Value: "12"}}},
		content.ConfirmationCard{Title: "Archive records", Count: 10},
		content.SuccessCard{Title: "Done", Details: []string{"archived 10"}},
		content.ErrorCard{Title: "Failed", ErrorMessage: "boom"},
		content.CancelledCard{Title: "Cancelled"},
		content.ConversationalCard{Content: "hello"},
		content.WelcomeCard{Title: "Welcome"},
		content.ClarificationCard{Message: "which table?", Options: []string{"audit", "events"}},
		content.DatabaseOverview{},
		content.RegionStatusCard{Regions: map[string]bool{"EU": true}},
		content.DataTable{Columns: []string{"id"}, Rows: [][]any{{float64(1)}}},
		content.CapabilitiesCard{Capabilities: []string{"search logs"}},
		content.RawCard{Type: "mystery", JSON: `{"a": 1}`},
	}
	for _, c := range cards {
		require.NotEmpty(t, RenderCard(c, theme, 80), "card type %s", c.CardType())
	}
}

func TestRenderCard_StatsContent(t *testing.T) {
	out := RenderCard(content.StatsCard{
		Title:     "Table statistics",
		Region:    "EU",
		TableName: "audit_log",
		Stats: []content.StatRow{
			{Label: "Total records", Value: "48210", Highlight: true},
			{Label: "Oldest", Value: "2023-01-04"},
		},
	}, testTheme(), 80)

	require.Contains(t, out, "Table statistics")
	require.Contains(t, out, "48210")
	require.Contains(t, out, "region EU")
}

func TestRenderCard_RawFallbackShowsType(t *testing.T) {
	out := RenderCard(content.RawCard{Type: "future_card", JSON: `{"answer": 42}`}, testTheme(), 80)
	require.Contains(t, out, "Unrecognized content")
	require.Contains(t, out, "future_card")
	require.Contains(t, out, "42")
}

func TestRenderCard_ConfirmationDeleteVsArchive(t *testing.T) {
	theme := testTheme()
	del := RenderCard(content.ConfirmationCard{Title: "Delete old records"}, theme, 80)
	arch := RenderCard(content.ConfirmationCard{Title: "Archive old records"}, theme, 80)

	require.Contains(t, del, "confirm delete")
	require.Contains(t, arch, "confirm archive")
}

func TestRenderCard_DataTableCells(t *testing.T) {
	out := RenderCard(content.DataTable{
		Columns: []string{"table", "count"},
		Rows: [][]any{
			{"audit_log", float64(100)},
			{"events", float64(2.5)},
		},
	}, testTheme(), 80)

	require.Contains(t, out, "table")
	require.Contains(t, out, "audit_log")
	require.Contains(t, out, "100")
	require.Contains(t, out, "2.5")
}

func TestFormatCell(t *testing.T) {
	require.Equal(t, "", formatCell(nil))
	require.Equal(t, "x", formatCell("x"))
	require.Equal(t, "7", formatCell(float64(7)))
	require.Equal(t, "7.5", formatCell(7.5))
	require.Equal(t, "true", formatCell(true))
}
