// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package region tracks which data region the client is connected to and
// enforces the single-connection convention: at most one region is connected
// at a time, achieved by disconnecting all others before connecting.
package region

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/cloudinv-tui/internal/api"
	"github.com/jeranaias/cloudinv-tui/internal/logging"
	"github.com/jeranaias/cloudinv-tui/internal/util"
)

// =============================================================================
// REGION CODES
// =============================================================================

// Region is a backend data partition identifier.
type Region string

const (
	APAC Region = "APAC"
	US   Region = "US"
	EU   Region = "EU"
	MEA  Region = "MEA"
)

// KnownRegions is the closed set of region codes. Display lists still come
// from the backend at runtime; this set only backs validation.
var KnownRegions = []Region{APAC, US, EU, MEA}

// IsValid reports whether code names a known region.
func IsValid(code string) bool {
	for _, r := range KnownRegions {
		if string(r) == code {
			return true
		}
	}
	return false
}

// =============================================================================
// PERSISTED STATE
// =============================================================================

// persistedState is the on-disk shape of state.toml. Only the selection is
// saved; connection truth always comes from the backend.
type persistedState struct {
	SelectedRegion string `toml:"selected_region"`
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager mirrors the backend's connection map and owns the client-side
// selection.
type Manager struct {
	client *api.Client

	mu        sync.RWMutex
	available []string
	status    map[string]bool
	selected  string

	statePath string
}

// NewManager creates a manager persisting its selection under dir.
func NewManager(client *api.Client, dir string) *Manager {
	m := &Manager{
		client:    client,
		status:    make(map[string]bool),
		statePath: filepath.Join(dir, "state.toml"),
	}
	m.restoreSelection()
	return m
}

// restoreSelection loads the last-selected region. The restored selection may
// show as selected-but-disconnected until LoadStatus runs; that mismatch is
// intentional.
func (m *Manager) restoreSelection() {
	var ps persistedState
	if _, err := toml.DecodeFile(m.statePath, &ps); err != nil {
		return
	}
	if IsValid(ps.SelectedRegion) {
		m.selected = ps.SelectedRegion
	}
}

func (m *Manager) persistSelection() {
	m.mu.RLock()
	ps := persistedState{SelectedRegion: m.selected}
	m.mu.RUnlock()

	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(ps); err != nil {
		logging.Errorf("failed to encode region state: %v", err)
		return
	}
	if err := util.AtomicWriteFile(m.statePath, []byte(sb.String()), 0600); err != nil {
		logging.Errorf("failed to persist region selection: %v", err)
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Available returns the region list as reported by the backend, sorted.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.available))
	copy(out, m.available)
	return out
}

// Status returns a copy of the connection map.
func (m *Manager) Status() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(m.status))
	for k, v := range m.status {
		out[k] = v
	}
	return out
}

// Selected returns the persisted selection, which may differ from the
// connected region.
func (m *Manager) Selected() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// Connected returns the single connected region, if any.
func (m *Manager) Connected() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for region, up := range m.status {
		if up {
			return region, true
		}
	}
	return "", false
}

// IsConnected reports whether the named region is connected.
func (m *Manager) IsConnected(region string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status[region]
}

// =============================================================================
// OPERATIONS
// =============================================================================

// LoadStatus refreshes the connection map and available list from the
// backend. Called at startup and on manual refresh.
func (m *Manager) LoadStatus(ctx context.Context) error {
	status, err := m.client.RegionStatus(ctx)
	if err != nil {
		return err
	}

	available := append([]string(nil), status.AvailableRegions...)
	sort.Strings(available)

	m.mu.Lock()
	m.available = available
	m.status = make(map[string]bool, len(status.Regions))
	for k, v := range status.Regions {
		m.status[k] = v
	}
	m.mu.Unlock()
	return nil
}

// Connect connects to target after disconnecting every other connected
// region. Individual disconnect failures are logged and skipped so one stuck
// region cannot block the switch; a connect failure leaves prior state
// untouched.
func (m *Manager) Connect(ctx context.Context, target string) error {
	if !IsValid(target) {
		return fmt.Errorf("unknown region %q", target)
	}

	m.mu.RLock()
	var others []string
	for region, up := range m.status {
		if up && region != target {
			others = append(others, region)
		}
	}
	m.mu.RUnlock()
	sort.Strings(others)

	for _, region := range others {
		if _, err := m.client.DisconnectRegion(ctx, region); err != nil {
			logging.Warnf("failed to disconnect %s before switching to %s: %v", region, target, err)
		}
	}

	resp, err := m.client.ConnectRegion(ctx, target)
	if err != nil {
		return err
	}
	if !resp.Success {
		if resp.Message != "" {
			return fmt.Errorf("failed to connect to %s: %s", target, resp.Message)
		}
		return fmt.Errorf("failed to connect to %s", target)
	}

	m.mu.Lock()
	for region := range m.status {
		m.status[region] = false
	}
	m.status[target] = true
	m.selected = target
	m.mu.Unlock()

	m.persistSelection()
	return nil
}

// Disconnect disconnects the named region, clearing the selection when it was
// the selected one.
func (m *Manager) Disconnect(ctx context.Context, target string) error {
	resp, err := m.client.DisconnectRegion(ctx, target)
	if err != nil {
		return err
	}
	if !resp.Success {
		if resp.Message != "" {
			return fmt.Errorf("failed to disconnect from %s: %s", target, resp.Message)
		}
		return fmt.Errorf("failed to disconnect from %s", target)
	}

	m.mu.Lock()
	m.status[target] = false
	if m.selected == target {
		m.selected = ""
	}
	m.mu.Unlock()

	m.persistSelection()
	return nil
}

// ClearSelection drops the persisted selection, used on logout.
func (m *Manager) ClearSelection() {
	m.mu.Lock()
	m.selected = ""
	m.status = make(map[string]bool)
	m.mu.Unlock()
	os.Remove(m.statePath)
}
