// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package region

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cloudinv-tui/internal/api"
	"github.com/jeranaias/cloudinv-tui/internal/session"
)

// regionServer is a fake backend tracking per-region connection booleans and
// recording the order of connect/disconnect calls.
type regionServer struct {
	mu       sync.Mutex
	status   map[string]bool
	calls    []string // e.g. "disconnect:US", "connect:EU"
	failConn map[string]bool
	failDisc map[string]bool
}

func newRegionServer() *regionServer {
	return &regionServer{
		status:   map[string]bool{"APAC": false, "US": false, "EU": false, "MEA": false},
		failConn: map[string]bool{},
		failDisc: map[string]bool{},
	}
}

func (s *regionServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		writeJSON := func(v any) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(v)
		}

		switch r.URL.Path {
		case "/regions/status":
			writeJSON(api.RegionStatusResponse{
				Regions:          s.status,
				AvailableRegions: []string{"APAC", "US", "EU", "MEA"},
			})
		case "/regions/connect":
			var req api.RegionRequest
			json.NewDecoder(r.Body).Decode(&req)
			s.calls = append(s.calls, "connect:"+req.Region)
			if s.failConn[req.Region] {
				writeJSON(api.RegionActionResponse{Success: false, Message: "connection refused"})
				return
			}
			s.status[req.Region] = true
			writeJSON(api.RegionActionResponse{Success: true, Message: "connected"})
		case "/regions/disconnect":
			var req api.RegionRequest
			json.NewDecoder(r.Body).Decode(&req)
			s.calls = append(s.calls, "disconnect:"+req.Region)
			if s.failDisc[req.Region] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			s.status[req.Region] = false
			writeJSON(api.RegionActionResponse{Success: true, Message: "disconnected"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestManager(t *testing.T, srv *regionServer) (*Manager, string) {
	t.Helper()
	server := httptest.NewServer(srv.handler())
	t.Cleanup(server.Close)

	store, err := session.NewStore(t.TempDir(), false)
	require.NoError(t, err)
	require.NoError(t, store.SetAuth("T1", nil))

	dir := t.TempDir()
	return NewManager(api.NewClient(server.URL, store), dir), dir
}

func TestIsValid(t *testing.T) {
	require.True(t, IsValid("APAC"))
	require.True(t, IsValid("MEA"))
	require.False(t, IsValid("apac"))
	require.False(t, IsValid("ATLANTIS"))
	require.False(t, IsValid(""))
}

func TestLoadStatus(t *testing.T) {
	srv := newRegionServer()
	srv.status["EU"] = true
	m, _ := newTestManager(t, srv)

	require.NoError(t, m.LoadStatus(context.Background()))

	require.Equal(t, []string{"APAC", "EU", "MEA", "US"}, m.Available())
	require.True(t, m.IsConnected("EU"))
	connected, ok := m.Connected()
	require.True(t, ok)
	require.Equal(t, "EU", connected)
}

// TestConnect_DisconnectsOthersFirst checks the exclusive-connection switch:
// with US connected, connecting EU must disconnect US before connecting EU,
// and the resulting map has exactly EU true.
func TestConnect_DisconnectsOthersFirst(t *testing.T) {
	srv := newRegionServer()
	srv.status["US"] = true
	m, _ := newTestManager(t, srv)
	ctx := context.Background()

	require.NoError(t, m.LoadStatus(ctx))
	require.NoError(t, m.Connect(ctx, "EU"))

	require.Equal(t, []string{"disconnect:US", "connect:EU"}, srv.calls)
	require.True(t, m.IsConnected("EU"))
	require.False(t, m.IsConnected("US"))
	require.Equal(t, "EU", m.Selected())
}

func TestConnect_StuckRegionDoesNotBlockSwitch(t *testing.T) {
	srv := newRegionServer()
	srv.status["US"] = true
	srv.failDisc["US"] = true
	m, _ := newTestManager(t, srv)
	ctx := context.Background()

	require.NoError(t, m.LoadStatus(ctx))
	require.NoError(t, m.Connect(ctx, "EU"), "disconnect failure must not abort the switch")

	require.Equal(t, []string{"disconnect:US", "connect:EU"}, srv.calls)
	require.True(t, m.IsConnected("EU"))
	// Client-side the map still shows only the target connected.
	require.False(t, m.IsConnected("US"))
}

func TestConnect_FailureLeavesState(t *testing.T) {
	srv := newRegionServer()
	srv.status["APAC"] = true
	srv.failConn["EU"] = true
	m, _ := newTestManager(t, srv)
	ctx := context.Background()

	require.NoError(t, m.LoadStatus(ctx))
	err := m.Connect(ctx, "EU")
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")

	require.True(t, m.IsConnected("APAC"), "failed connect must leave prior state")
	require.False(t, m.IsConnected("EU"))
	require.Empty(t, m.Selected())
}

func TestConnect_UnknownRegion(t *testing.T) {
	srv := newRegionServer()
	m, _ := newTestManager(t, srv)

	err := m.Connect(context.Background(), "ATLANTIS")
	require.Error(t, err)
	require.Empty(t, srv.calls, "invalid region must not reach the backend")
}

func TestDisconnect_ClearsSelection(t *testing.T) {
	srv := newRegionServer()
	m, _ := newTestManager(t, srv)
	ctx := context.Background()

	require.NoError(t, m.LoadStatus(ctx))
	require.NoError(t, m.Connect(ctx, "APAC"))
	require.Equal(t, "APAC", m.Selected())

	require.NoError(t, m.Disconnect(ctx, "APAC"))
	require.False(t, m.IsConnected("APAC"))
	require.Empty(t, m.Selected())
}

func TestSelectionPersistence(t *testing.T) {
	srv := newRegionServer()
	m, dir := newTestManager(t, srv)
	ctx := context.Background()

	require.NoError(t, m.LoadStatus(ctx))
	require.NoError(t, m.Connect(ctx, "MEA"))

	// A second manager over the same directory restores the selection even
	// though it has not loaded connection status yet.
	store, err := session.NewStore(t.TempDir(), false)
	require.NoError(t, err)
	m2 := NewManager(api.NewClient("http://127.0.0.1:1", store), dir)

	require.Equal(t, "MEA", m2.Selected())
	_, connected := m2.Connected()
	require.False(t, connected, "restored selection does not imply connection")
}

func TestClearSelection(t *testing.T) {
	srv := newRegionServer()
	m, dir := newTestManager(t, srv)
	ctx := context.Background()

	require.NoError(t, m.LoadStatus(ctx))
	require.NoError(t, m.Connect(ctx, "US"))

	m.ClearSelection()
	require.Empty(t, m.Selected())

	store, err := session.NewStore(t.TempDir(), false)
	require.NoError(t, err)
	m2 := NewManager(api.NewClient("http://127.0.0.1:1", store), dir)
	require.Empty(t, m2.Selected())
}
