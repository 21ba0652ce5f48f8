// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It detects the
// terminal's color capability and adjusts accordingly.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// SHELL
	// ==========================================================================

	App         lipgloss.Style
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
	StatusGood  lipgloss.Style
	StatusWarn  lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserBubble    lipgloss.Style
	BotBubble     lipgloss.Style
	WarningBubble lipgloss.Style
	AuthorLabel   lipgloss.Style
	Timestamp     lipgloss.Style
	Suggestion    lipgloss.Style
	SuggestionSel lipgloss.Style

	// ==========================================================================
	// CARDS
	// ==========================================================================

	Card        lipgloss.Style
	CardDanger  lipgloss.Style
	CardSuccess lipgloss.Style
	CardWarn    lipgloss.Style
	CardTitle   lipgloss.Style
	CardLabel   lipgloss.Style
	CardValue   lipgloss.Style
	CardHighVal lipgloss.Style
	CardMuted   lipgloss.Style
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style

	// ==========================================================================
	// REGION PANEL
	// ==========================================================================

	Panel            lipgloss.Style
	PanelTitle       lipgloss.Style
	RegionRow        lipgloss.Style
	RegionRowFocus   lipgloss.Style
	RegionConnected  lipgloss.Style
	RegionSelected   lipgloss.Style
	RegionDim        lipgloss.Style

	// ==========================================================================
	// INPUT / FORMS
	// ==========================================================================

	InputBox    lipgloss.Style
	InputPrompt lipgloss.Style
	LoginBox    lipgloss.Style
	LoginTitle  lipgloss.Style
	LoginLabel  lipgloss.Style
	ErrorText   lipgloss.Style
	Spinner     lipgloss.Style
	ConfirmBar  lipgloss.Style
	ConfirmKey  lipgloss.Style
}

// New creates a theme for the detected terminal. forceDark overrides
// background detection when the config pins a theme.
func New(forceDark *bool) *Theme {
	output := termenv.DefaultOutput()

	isDark := output.HasDarkBackground()
	if forceDark != nil {
		isDark = *forceDark
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: output.Profile,
	}

	t.App = lipgloss.NewStyle().Foreground(TextPrimary)

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.HeaderMeta = lipgloss.NewStyle().Foreground(TextSecondary)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().Foreground(TextMuted)
	t.StatusValue = lipgloss.NewStyle().Foreground(TextPrimary)
	t.StatusGood = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.StatusWarn = lipgloss.NewStyle().Foreground(Amber)

	t.UserBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 1)
	t.BotBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.WarningBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Amber).
		Foreground(Amber).
		Padding(0, 1)
	t.AuthorLabel = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.Suggestion = lipgloss.NewStyle().
		Foreground(Cyan).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SuggestionSel = t.Suggestion.
		BorderForeground(Cyan).
		Bold(true)

	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.CardDanger = t.Card.BorderForeground(Rose)
	t.CardSuccess = t.Card.BorderForeground(Emerald)
	t.CardWarn = t.Card.BorderForeground(Amber)
	t.CardTitle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	t.CardLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.CardValue = lipgloss.NewStyle().Foreground(TextPrimary)
	t.CardHighVal = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.CardMuted = lipgloss.NewStyle().Foreground(TextMuted)
	t.TableHeader = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary)
	t.TableCell = lipgloss.NewStyle().Foreground(TextPrimary)

	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.PanelTitle = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.RegionRow = lipgloss.NewStyle().Foreground(TextPrimary)
	t.RegionRowFocus = lipgloss.NewStyle().Foreground(TextInverse).Background(Cyan)
	t.RegionConnected = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.RegionSelected = lipgloss.NewStyle().Foreground(Amber)
	t.RegionDim = lipgloss.NewStyle().Foreground(TextMuted)

	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.LoginBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 3)
	t.LoginTitle = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.LoginLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.ErrorText = lipgloss.NewStyle().Foreground(Rose)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)
	t.ConfirmBar = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(Amber).
		Padding(0, 1)
	t.ConfirmKey = lipgloss.NewStyle().Foreground(Amber).Bold(true)

	return t
}
