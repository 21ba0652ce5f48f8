// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/cloudinv-tui/internal/util"
)

// =============================================================================
// AT-REST TOKEN ENCRYPTION
// =============================================================================

// The bearer token is the only secret this client holds, so session.json
// gets AES-256-GCM on the token field. Key material lives in a separate
// 0600 key file; losing it just forces a re-login.

const (
	encryptedPrefix = "ENC:"
	nonceSize       = 12
	keySize         = 32
	saltSize        = 32
	secretSize      = 32
	pbkdf2Iters     = 600000
)

var (
	// ErrInvalidCiphertext indicates the stored token is not in the
	// expected ENC:base64(nonce|ciphertext) format.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")

	// ErrDecryptionFailed indicates the key does not match or the data
	// was tampered with.
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")
)

// keystore derives an AES-256 key from a random secret in a key file.
type keystore struct {
	aead cipher.AEAD
}

// openKeystore loads the key file, creating it on first use.
// File format: base64(salt | secret).
func openKeystore(path string) (*keystore, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		raw, err = createKeyFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}

	material, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil || len(material) != saltSize+secretSize {
		return nil, fmt.Errorf("corrupt key file %s", path)
	}

	salt, secret := material[:saltSize], material[saltSize:]
	key := pbkdf2.Key(secret, salt, pbkdf2Iters, keySize, sha256.New)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &keystore{aead: aead}, nil
}

func createKeyFile(path string) ([]byte, error) {
	material := make([]byte, saltSize+secretSize)
	if _, err := io.ReadFull(rand.Reader, material); err != nil {
		return nil, err
	}
	encoded := []byte(base64.StdEncoding.EncodeToString(material))
	if err := util.AtomicWriteFile(path, encoded, 0600); err != nil {
		return nil, err
	}
	return encoded, nil
}

// encrypt seals plaintext as ENC:base64(nonce|ciphertext).
func (k *keystore) encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := k.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// decrypt opens a value produced by encrypt. A value without the ENC: prefix
// is returned as-is so sessions written before encryption was enabled still
// load.
func (k *keystore) decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, encryptedPrefix) {
		return value, nil
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, encryptedPrefix))
	if err != nil || len(sealed) < nonceSize {
		return "", ErrInvalidCiphertext
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := k.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// zeroBytes wipes key material so it does not linger in memory.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
