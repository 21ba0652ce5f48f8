// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// mintToken creates a signed JWT expiring at the given time. The store never
// verifies signatures, so any signing key works.
func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "Admin",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func newTestStore(t *testing.T, encrypt bool) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), encrypt)
	require.NoError(t, err)
	return s
}

func TestStore_SetAuthAndClear(t *testing.T) {
	s := newTestStore(t, false)

	require.False(t, s.HasStoredAuth())
	require.Equal(t, PhaseUnauthenticated, s.Phase())

	user := &User{Username: "Admin", Role: "admin"}
	require.NoError(t, s.SetAuth("tok-1", user))

	require.True(t, s.HasStoredAuth())
	require.Equal(t, "tok-1", s.Token())
	require.Equal(t, PhaseAuthenticated, s.Phase())
	require.Equal(t, "Admin", s.User().Username)

	s.Clear()

	require.False(t, s.HasStoredAuth())
	require.Nil(t, s.User())
	require.Empty(t, s.Token())
	require.Equal(t, PhaseUnauthenticated, s.Phase())
	_, err := os.Stat(filepath.Join(firstDir(t, s), "session.json"))
	require.True(t, os.IsNotExist(err))
}

func firstDir(t *testing.T, s *Store) string {
	t.Helper()
	return filepath.Dir(s.path)
}

func TestStore_HydrateRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewStore(dir, false)
	require.NoError(t, err)
	require.NoError(t, s1.SetAuth("tok-xyz", &User{Username: "Viewer", Role: "viewer", Permissions: []string{"read"}}))

	s2, err := NewStore(dir, false)
	require.NoError(t, err)
	require.NoError(t, s2.Hydrate())

	require.Equal(t, "tok-xyz", s2.Token())
	require.Equal(t, "Viewer", s2.User().Username)
	require.Equal(t, []string{"read"}, s2.User().Permissions)
	require.Equal(t, PhaseAuthenticated, s2.Phase())
}

func TestStore_HydrateMissingFile(t *testing.T) {
	s := newTestStore(t, false)
	require.NoError(t, s.Hydrate())
	require.False(t, s.HasStoredAuth())
}

func TestStore_HydrateDiscardsUserWithoutToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user_info":{"username":"ghost","role":"admin"}}`), 0600))

	s, err := NewStore(dir, false)
	require.NoError(t, err)
	require.NoError(t, s.Hydrate())

	require.False(t, s.HasStoredAuth())
	require.Nil(t, s.User())
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "stale session file should be removed")
}

func TestStore_HydrateCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte("{{{"), 0600))

	s, err := NewStore(dir, false)
	require.NoError(t, err)
	require.NoError(t, s.Hydrate())
	require.False(t, s.HasStoredAuth())
}

func TestStore_EncryptedAtRest(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewStore(dir, true)
	require.NoError(t, err)
	require.NoError(t, s1.SetAuth("secret-token", &User{Username: "Admin", Role: "admin"}))

	// The raw file must not contain the plaintext token.
	data, err := os.ReadFile(filepath.Join(dir, "session.json"))
	require.NoError(t, err)
	require.NotContains(t, string(data), "secret-token")
	require.Contains(t, string(data), `"access_token": "ENC:`)

	// A fresh store with the same key file recovers the token.
	s2, err := NewStore(dir, true)
	require.NoError(t, err)
	require.NoError(t, s2.Hydrate())
	require.Equal(t, "secret-token", s2.Token())
}

func TestStore_EncryptedWrongKeyForcesRelogin(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewStore(dir, true)
	require.NoError(t, err)
	require.NoError(t, s1.SetAuth("secret-token", nil))

	// Rotate the key file out from under the stored session.
	require.NoError(t, os.Remove(filepath.Join(dir, "session.key")))

	s2, err := NewStore(dir, true)
	require.NoError(t, err)
	require.NoError(t, s2.Hydrate())
	require.False(t, s2.HasStoredAuth(), "undecryptable session must be discarded")
}

func TestKeystore_EncryptDecrypt(t *testing.T) {
	ks, err := openKeystore(filepath.Join(t.TempDir(), "session.key"))
	require.NoError(t, err)

	enc, err := ks.encrypt("hello")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(enc, "ENC:"))

	dec, err := ks.decrypt(enc)
	require.NoError(t, err)
	require.Equal(t, "hello", dec)

	// Legacy plaintext values pass through.
	dec, err = ks.decrypt("plain-token")
	require.NoError(t, err)
	require.Equal(t, "plain-token", dec)

	// Garbage after the prefix fails cleanly.
	_, err = ks.decrypt("ENC:!!!")
	require.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestTokenExpiringSoon(t *testing.T) {
	s := newTestStore(t, false)

	tests := []struct {
		name     string
		token    string
		expiring bool
	}{
		{"no token", "", true},
		{"malformed token", "not.a.jwt", true},
		{"expires in 2 minutes", mintToken(t, time.Now().Add(2*time.Minute)), true},
		{"expires in 4m59s", mintToken(t, time.Now().Add(4*time.Minute+59*time.Second)), true},
		{"already expired", mintToken(t, time.Now().Add(-time.Hour)), true},
		{"expires in an hour", mintToken(t, time.Now().Add(time.Hour)), false},
		{"expires in 6 minutes", mintToken(t, time.Now().Add(6*time.Minute)), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.token == "" {
				s.Clear()
			} else {
				require.NoError(t, s.SetToken(tc.token))
			}
			require.Equal(t, tc.expiring, s.TokenExpiringSoon(5*time.Minute))
		})
	}
}

func TestTokenExpiringSoon_NoExpClaim(t *testing.T) {
	s := newTestStore(t, false)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"})
	signed, err := token.SignedString([]byte("k"))
	require.NoError(t, err)

	require.NoError(t, s.SetToken(signed))
	require.True(t, s.TokenExpiringSoon(5*time.Minute))
}
