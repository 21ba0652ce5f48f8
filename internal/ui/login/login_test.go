// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cloudinv-tui/internal/api"
	"github.com/jeranaias/cloudinv-tui/internal/logging"
	"github.com/jeranaias/cloudinv-tui/internal/session"
	"github.com/jeranaias/cloudinv-tui/internal/ui/styles"
)

func newTestForm(t *testing.T, url string) Model {
	t.Helper()
	store, err := session.NewStore(t.TempDir(), false)
	require.NoError(t, err)
	dark := true
	return New(api.NewClient(url, store), styles.New(&dark))
}

func TestSubmit_RequiresBothFields(t *testing.T) {
	m := newTestForm(t, "http://127.0.0.1:1")

	m.username.SetValue("alice")
	m, cmd := m.submit()
	require.Nil(t, cmd)
	require.Equal(t, "username and password are required", m.errText)
}

func TestSubmit_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "T1",
				"user_info":    map[string]any{"username": "alice", "role": "admin"},
			})
		case "/auth/me":
			json.NewEncoder(w).Encode(map[string]any{"username": "alice", "role": "admin"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	m := newTestForm(t, srv.URL)
	m.username.SetValue("alice")
	m.password.SetValue("secret")

	m, cmd := m.submit()
	require.NotNil(t, cmd)
	require.True(t, m.submitting)

	res, ok := cmd().(resultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	require.Equal(t, "alice", res.user.Username)

	m, cmd = m.Update(res)
	require.NotNil(t, cmd)
	success, ok := cmd().(SuccessMsg)
	require.True(t, ok)
	require.Equal(t, "admin", success.User.Role)
}

func TestSubmit_ProfileFetchFailureLogsAndKeepsLoginUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "T1",
				"user_info":    map[string]any{"username": "alice", "role": "admin"},
			})
		case "/auth/me":
			http.Error(w, "backend hiccup", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var logs bytes.Buffer
	logging.SetOutput(&logs)
	defer logging.SetOutput(io.Discard)

	m := newTestForm(t, srv.URL)
	m.username.SetValue("alice")
	m.password.SetValue("secret")

	m, cmd := m.submit()
	require.NotNil(t, cmd)

	// Login succeeds on the login-response identity; the failed profile
	// refresh leaves a trace in the log instead of vanishing.
	res, ok := cmd().(resultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	require.Equal(t, "alice", res.user.Username)
	require.Equal(t, "admin", res.user.Role)
	require.Contains(t, logs.String(), "post-login profile fetch failed")
}

func TestSubmit_BadCredentialsShowsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"detail": "Invalid credentials"})
	}))
	defer srv.Close()

	m := newTestForm(t, srv.URL)
	m.username.SetValue("alice")
	m.password.SetValue("wrong")

	m, cmd := m.submit()
	require.NotNil(t, cmd)

	m, _ = m.Update(cmd())
	require.False(t, m.submitting)
	require.Equal(t, "invalid username or password", m.errText)
	require.Empty(t, m.password.Value(), "password field resets on failure")
}

func TestLoginErrorText(t *testing.T) {
	require.Equal(t, "invalid username or password", loginErrorText(api.ErrAuthFailed))
	require.Equal(t, "unable to connect to server", loginErrorText(api.ErrUnableToConnect))
	require.Equal(t, "boom", loginErrorText(errors.New("boom")))
}
