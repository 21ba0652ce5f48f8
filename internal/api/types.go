// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "encoding/json"

// =============================================================================
// AUTH
// =============================================================================

// LoginRequest carries credentials to POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginUserInfo is the minimal profile embedded in a login or refresh
// response. Permissions are absent here; GET /auth/me supplies them.
type LoginUserInfo struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse is returned by POST /auth/login and POST /auth/refresh.
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	UserInfo    LoginUserInfo `json:"user_info"`
}

// MeResponse is returned by GET /auth/me.
type MeResponse struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// =============================================================================
// CHAT
// =============================================================================

// ChatRequest carries one user message to POST /chat.
type ChatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Region    string `json:"region,omitempty"`
}

// OperationData describes the mutating operation a response wants confirmed.
type OperationData struct {
	ConfirmationID string `json:"confirmation_id"`
	Operation      string `json:"operation"`
	Details        string `json:"details"`
}

// ChatResponse is returned by POST /chat and POST /chat/confirm.
type ChatResponse struct {
	Response             string          `json:"response"`
	ResponseType         string          `json:"response_type,omitempty"`
	Suggestions          []string        `json:"suggestions,omitempty"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
	OperationData        *OperationData  `json:"operation_data,omitempty"`
	Context              map[string]any  `json:"context,omitempty"`
	StructuredContent    json.RawMessage `json:"structured_content,omitempty"`
}

// ConfirmRequest carries the confirmation id to POST /chat/confirm.
type ConfirmRequest struct {
	ConfirmationID string `json:"confirmation_id"`
}

// =============================================================================
// REGIONS
// =============================================================================

// RegionsResponse is returned by GET /regions/.
type RegionsResponse struct {
	Regions          []string        `json:"regions"`
	ConnectionStatus map[string]bool `json:"connection_status"`
}

// RegionRequest names a region for connect/disconnect.
type RegionRequest struct {
	Region string `json:"region"`
}

// RegionActionResponse is returned by POST /regions/connect and /disconnect.
type RegionActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RegionStatusResponse is returned by GET /regions/status.
type RegionStatusResponse struct {
	Regions          map[string]bool `json:"regions"`
	AvailableRegions []string        `json:"available_regions"`
}

// errorBody is the backend's error envelope; detail is optional and an
// unparsable body is tolerated.
type errorBody struct {
	Detail string `json:"detail"`
}
