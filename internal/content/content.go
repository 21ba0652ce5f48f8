// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package content models the structured content cards the backend attaches to
// chat responses. Cards form a closed sum keyed by a "type" discriminator;
// anything the client does not recognize decodes to RawCard so the UI can
// always render something.
package content

import (
	"bytes"
	"encoding/json"
	"strings"
)

// =============================================================================
// CARD INTERFACE
// =============================================================================

// Card is one variant of the structured content union.
type Card interface {
	// CardType returns the wire discriminator for this variant.
	CardType() string
}

// Known discriminator values.
const (
	TypeStatsCard        = "stats_card"
	TypeConfirmationCard = "confirmation_card"
	TypeSuccessCard      = "success_card"
	TypeErrorCard        = "error_card"
	TypeCancelledCard    = "cancelled_card"
	TypeConversational   = "conversational_card"
	TypeWelcomeCard      = "welcome_card"
	TypeClarification    = "clarification_card"
	TypeDatabaseOverview = "database_overview"
	TypeRegionStatusCard = "region_status_card"
	TypeDataTable        = "data_table"
	TypeCapabilitiesCard = "capabilities_card"
)

// =============================================================================
// VARIANTS
// =============================================================================

// StatRow is a single labeled statistic.
type StatRow struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	Type      string `json:"type,omitempty"` // "number" or "text"
	Highlight bool   `json:"highlight,omitempty"`
}

// StatsCard shows table statistics for a region.
type StatsCard struct {
	Title     string    `json:"title"`
	Region    string    `json:"region,omitempty"`
	TableName string    `json:"table_name,omitempty"`
	Stats     []StatRow `json:"stats"`
}

func (StatsCard) CardType() string { return TypeStatsCard }

// ConfirmationCard proposes a mutating operation awaiting user approval.
type ConfirmationCard struct {
	Title        string `json:"title"`
	Region       string `json:"region,omitempty"`
	Count        int    `json:"count,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

func (ConfirmationCard) CardType() string { return TypeConfirmationCard }

// IsDelete reports whether the proposed operation is a delete (vs archive).
// The backend signals this only through the title text.
func (c ConfirmationCard) IsDelete() bool {
	return strings.Contains(strings.ToLower(c.Title), "delete")
}

// SuccessCard reports a completed operation.
type SuccessCard struct {
	Title   string   `json:"title"`
	Region  string   `json:"region,omitempty"`
	Details []string `json:"details,omitempty"`
}

func (SuccessCard) CardType() string { return TypeSuccessCard }

// ErrorCard reports a failed operation with recovery suggestions.
type ErrorCard struct {
	Title        string   `json:"title"`
	Region       string   `json:"region,omitempty"`
	ErrorMessage string   `json:"error_message"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

func (ErrorCard) CardType() string { return TypeErrorCard }

// CancelledCard reports an operation the user backed out of.
type CancelledCard struct {
	Title   string   `json:"title"`
	Region  string   `json:"region,omitempty"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

func (CancelledCard) CardType() string { return TypeCancelledCard }

// ConversationalCard carries free-form assistant prose with context.
type ConversationalCard struct {
	Title    string `json:"title,omitempty"`
	Region   string `json:"region,omitempty"`
	UserRole string `json:"user_role,omitempty"`
	Content  string `json:"content"`
}

func (ConversationalCard) CardType() string { return TypeConversational }

// WelcomeCard greets the user at session start.
type WelcomeCard struct {
	Icon     string `json:"icon,omitempty"`
	Title    string `json:"title"`
	Region   string `json:"region,omitempty"`
	UserRole string `json:"user_role,omitempty"`
	Content  string `json:"content,omitempty"`
}

func (WelcomeCard) CardType() string { return TypeWelcomeCard }

// ClarificationCard asks the user to disambiguate a request.
type ClarificationCard struct {
	Title   string   `json:"title,omitempty"`
	Region  string   `json:"region,omitempty"`
	Message string   `json:"message"`
	Options []string `json:"options,omitempty"`
}

func (ClarificationCard) CardType() string { return TypeClarification }

// TableInfo describes one database table in an overview.
type TableInfo struct {
	Name          string `json:"name"`
	Error         string `json:"error,omitempty"`
	AgeDays       int    `json:"age_days,omitempty"`
	AgeBasedCount int    `json:"age_based_count,omitempty"`
	TotalRecords  int    `json:"total_records,omitempty"`
}

// OverviewSummary aggregates table counts for a database overview.
type OverviewSummary struct {
	MainTablesCount    int `json:"main_tables_count"`
	ArchiveTablesCount int `json:"archive_tables_count"`
}

// DatabaseOverview summarizes main and archive tables for a region.
type DatabaseOverview struct {
	Region        string          `json:"region,omitempty"`
	Summary       OverviewSummary `json:"summary"`
	MainTables    []TableInfo     `json:"main_tables,omitempty"`
	ArchiveTables []TableInfo     `json:"archive_tables,omitempty"`
}

func (DatabaseOverview) CardType() string { return TypeDatabaseOverview }

// RegionStatusCard mirrors the backend's region connection map.
type RegionStatusCard struct {
	Title   string          `json:"title,omitempty"`
	Regions map[string]bool `json:"regions"`
}

func (RegionStatusCard) CardType() string { return TypeRegionStatusCard }

// DataTable is a generic tabular result.
type DataTable struct {
	Title   string   `json:"title,omitempty"`
	Region  string   `json:"region,omitempty"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func (DataTable) CardType() string { return TypeDataTable }

// CapabilitiesCard lists what the current role may do.
type CapabilitiesCard struct {
	Title        string   `json:"title,omitempty"`
	UserRole     string   `json:"user_role,omitempty"`
	Capabilities []string `json:"capabilities"`
}

func (CapabilitiesCard) CardType() string { return TypeCapabilitiesCard }

// RawCard is the fallback for unrecognized or undecodable payloads. It keeps
// the pretty-printed JSON so the user still sees what the backend sent.
type RawCard struct {
	Type string
	JSON string
}

func (c RawCard) CardType() string { return c.Type }

// =============================================================================
// DECODING
// =============================================================================

// typeProbe extracts only the discriminator.
type typeProbe struct {
	Type string `json:"type"`
}

// Decode maps a raw structured_content payload to its Card variant. It never
// returns an error: unknown tags and malformed known-tag payloads both
// degrade to RawCard. A nil or empty payload returns nil.
func Decode(raw json.RawMessage) Card {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var probe typeProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return rawFallback("", raw)
	}

	var (
		card Card
		err  error
	)

	switch probe.Type {
	case TypeStatsCard:
		card, err = decodeAs[StatsCard](raw)
	case TypeConfirmationCard:
		card, err = decodeAs[ConfirmationCard](raw)
	case TypeSuccessCard:
		card, err = decodeAs[SuccessCard](raw)
	case TypeErrorCard:
		card, err = decodeAs[ErrorCard](raw)
	case TypeCancelledCard:
		card, err = decodeAs[CancelledCard](raw)
	case TypeConversational:
		card, err = decodeAs[ConversationalCard](raw)
	case TypeWelcomeCard:
		card, err = decodeAs[WelcomeCard](raw)
	case TypeClarification:
		card, err = decodeAs[ClarificationCard](raw)
	case TypeDatabaseOverview:
		card, err = decodeAs[DatabaseOverview](raw)
	case TypeRegionStatusCard:
		card, err = decodeAs[RegionStatusCard](raw)
	case TypeDataTable:
		card, err = decodeAs[DataTable](raw)
	case TypeCapabilitiesCard:
		card, err = decodeAs[CapabilitiesCard](raw)
	default:
		return rawFallback(probe.Type, raw)
	}

	if err != nil {
		return rawFallback(probe.Type, raw)
	}
	return card
}

func decodeAs[T Card](raw json.RawMessage) (Card, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// rawFallback builds a RawCard with indented JSON for diagnostic display.
func rawFallback(typ string, raw json.RawMessage) RawCard {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return RawCard{Type: typ, JSON: string(raw)}
	}
	return RawCard{Type: typ, JSON: buf.String()}
}
