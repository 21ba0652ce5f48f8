// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cloudinv-tui/internal/api"
	"github.com/jeranaias/cloudinv-tui/internal/config"
	"github.com/jeranaias/cloudinv-tui/internal/region"
	"github.com/jeranaias/cloudinv-tui/internal/session"
	"github.com/jeranaias/cloudinv-tui/internal/ui/login"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

func mintToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(ttl).Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newShell(t *testing.T, url string, store *session.Store) Model {
	t.Helper()
	client := api.NewClient(url, store)
	mgr := region.NewManager(client, t.TempDir())
	dark := true
	return New(client, mgr, nil, styles.New(&dark), config.Default())
}

func TestAuthGate_NoStoredSessionShowsLogin(t *testing.T) {
	store, err := session.NewStore(t.TempDir(), false)
	require.NoError(t, err)

	m := newShell(t, "http://127.0.0.1:1", store)
	require.Equal(t, viewLogin, m.active)
}

func TestAuthGate_ValidStoredSessionEntersChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/me" {
			json.NewEncoder(w).Encode(map[string]any{"username": "alice", "role": "admin"})
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	store, err := session.NewStore(t.TempDir(), false)
	require.NoError(t, err)
	require.NoError(t, store.SetAuth(mintToken(t, time.Hour), &session.User{Username: "alice", Role: "admin"}))

	m := newShell(t, srv.URL, store)
	require.Equal(t, viewValidating, m.active)

	cmd := m.Init()
	require.NotNil(t, cmd)
	check, ok := cmd().(sessionCheckMsg)
	require.True(t, ok)
	require.True(t, check.ok)
	require.Equal(t, "alice", check.user.Username)

	next, _ := m.Update(check)
	require.Equal(t, viewChat, next.(Model).active)
}

func TestAuthGate_DeadSessionFallsBackToLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"detail": "expired"})
	}))
	defer srv.Close()

	store, err := session.NewStore(t.TempDir(), false)
	require.NoError(t, err)
	require.NoError(t, store.SetAuth(mintToken(t, time.Hour), &session.User{Username: "alice"}))

	m := newShell(t, srv.URL, store)
	cmd := m.Init()
	check, ok := cmd().(sessionCheckMsg)
	require.True(t, ok)
	require.False(t, check.ok)

	next, _ := m.Update(check)
	require.Equal(t, viewLogin, next.(Model).active)
	require.False(t, store.HasStoredAuth(), "failed validation clears the session")
}

func TestLoginSuccessEntersChatAndLogoutReturns(t *testing.T) {
	store, err := session.NewStore(t.TempDir(), false)
	require.NoError(t, err)

	m := newShell(t, "http://127.0.0.1:1", store)

	next, _ := m.Update(login.SuccessMsg{User: session.User{Username: "alice", Role: "admin"}})
	shell := next.(Model)
	require.Equal(t, viewChat, shell.active)
	require.Equal(t, "alice", shell.user.Username)

	next, _ = shell.logout()
	shell = next.(Model)
	require.Equal(t, viewLogin, shell.active)
	require.Empty(t, shell.user.Username)
}
