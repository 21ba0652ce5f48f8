// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "strings"

// inventoryKeywords are the verbs that only make sense against a connected
// region's database. Matching is a case-insensitive substring check, same as
// the backend's own routing heuristic.
var inventoryKeywords = []string{
	"show",
	"count",
	"archive",
	"delete",
	"statistics",
}

// NeedsRegion reports whether a prompt looks like an inventory operation,
// which requires a connected region before it can be answered.
func NeedsRegion(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range inventoryKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
