// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat transcripts locally so a restarted client
// can review past sessions. Backed by SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/cloudinv-tui/internal/model"
	"github.com/jeranaias/cloudinv-tui/internal/util"
)

// ErrConversationNotFound is returned when a conversation id is unknown.
var ErrConversationNotFound = errors.New("conversation not found")

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	region     TEXT NOT NULL DEFAULT '',
	started_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	author          TEXT NOT NULL,
	body            TEXT NOT NULL,
	created_at      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages(conversation_id, seq);
`

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore records conversations in a local SQLite database.
type HistoryStore struct {
	db *sql.DB

	// maxConversations caps stored transcripts (0 = unlimited); oldest
	// are pruned first.
	maxConversations int
}

// ConversationMeta is a transcript summary for listing.
type ConversationMeta struct {
	ID           string
	Region       string
	StartedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
	Preview      string
}

// Open opens (creating if needed) the history database at path.
func Open(path string, maxConversations int) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &HistoryStore{db: db, maxConversations: maxConversations}, nil
}

// Close releases the database handle.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// WRITES
// =============================================================================

// Append records one message under the given conversation, creating the
// conversation row on first use.
func (s *HistoryStore) Append(ctx context.Context, conversationID, region string, msg model.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := msg.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, region, started_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at, region = excluded.region`,
		conversationID, region, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return err
	}

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`,
		conversationID).Scan(&seq); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, seq, author, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, conversationID, seq, string(msg.Author), msg.Text, now.UnixMilli())
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if s.maxConversations > 0 {
		s.enforceLimit(ctx)
	}
	return nil
}

// enforceLimit prunes the oldest conversations past the cap. Best effort.
func (s *HistoryStore) enforceLimit(ctx context.Context) {
	s.db.ExecContext(ctx, `
		DELETE FROM conversations WHERE id IN (
			SELECT id FROM conversations
			ORDER BY updated_at DESC
			LIMIT -1 OFFSET ?
		)`, s.maxConversations)
}

// Delete removes one conversation and its messages.
func (s *HistoryStore) Delete(ctx context.Context, conversationID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, conversationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// Clear removes all stored history.
func (s *HistoryStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversations`)
	return err
}

// =============================================================================
// READS
// =============================================================================

// List returns conversation summaries, most recently updated first. The
// preview is the first user message, truncated.
func (s *HistoryStore) List(ctx context.Context) ([]ConversationMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.region, c.started_at, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
			COALESCE((SELECT m.body FROM messages m
				WHERE m.conversation_id = c.id AND m.author = 'user'
				ORDER BY m.seq LIMIT 1), '')
		FROM conversations c
		ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []ConversationMeta
	for rows.Next() {
		var (
			meta                 ConversationMeta
			startedMs, updatedMs int64
			preview              string
		)
		if err := rows.Scan(&meta.ID, &meta.Region, &startedMs, &updatedMs, &meta.MessageCount, &preview); err != nil {
			return nil, err
		}
		meta.StartedAt = time.UnixMilli(startedMs)
		meta.UpdatedAt = time.UnixMilli(updatedMs)
		meta.Preview = util.TruncateRunes(strings.ReplaceAll(preview, "\n", " "), 80)
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Messages returns the ordered transcript of one conversation.
func (s *HistoryStore) Messages(ctx context.Context, conversationID string) ([]model.Message, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE id = ?`, conversationID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrConversationNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author, body, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY seq`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var (
			msg       model.Message
			author    string
			createdMs int64
		)
		if err := rows.Scan(&msg.ID, &author, &msg.Text, &createdMs); err != nil {
			return nil, err
		}
		msg.Author = model.Author(author)
		msg.Timestamp = time.UnixMilli(createdMs)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// Search returns conversations whose messages contain the query,
// case-insensitive, most recent first.
func (s *HistoryStore) Search(ctx context.Context, query string) ([]ConversationMeta, error) {
	if query == "" {
		return s.List(ctx)
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var results []ConversationMeta
	for _, meta := range all {
		var n int
		err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM messages
			WHERE conversation_id = ? AND body LIKE '%' || ? || '%' COLLATE NOCASE`,
			meta.ID, query).Scan(&n)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			results = append(results, meta)
		}
	}
	return results, nil
}
