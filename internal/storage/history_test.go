// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cloudinv-tui/internal/model"
)

// messageAt stamps a message with an explicit time so ordering assertions
// never depend on sub-millisecond timing.
func messageAt(msg model.Message, offset time.Duration) model.Message {
	msg.Timestamp = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(offset)
	return msg
}

func newTestStore(t *testing.T, maxConversations int) *HistoryStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), maxConversations)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndMessages(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "sess-1", "APAC", model.NewUserMessage("show stats")))
	require.NoError(t, s.Append(ctx, "sess-1", "APAC", model.NewBotMessage("Here are the stats.")))

	msgs, err := s.Messages(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, model.AuthorUser, msgs[0].Author)
	require.Equal(t, "show stats", msgs[0].Text)
	require.Equal(t, model.AuthorBot, msgs[1].Author)
}

func TestMessages_Unknown(t *testing.T) {
	s := newTestStore(t, 0)
	_, err := s.Messages(context.Background(), "nope")
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestList(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "sess-1", "US", messageAt(model.NewUserMessage("count error logs"), 0)))
	require.NoError(t, s.Append(ctx, "sess-2", "EU", messageAt(model.NewUserMessage("archive old entries"), time.Second)))
	require.NoError(t, s.Append(ctx, "sess-2", "EU", messageAt(model.NewBotMessage("42 entries pending."), 2*time.Second)))

	metas, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 2)

	// Most recently updated first.
	require.Equal(t, "sess-2", metas[0].ID)
	require.Equal(t, "EU", metas[0].Region)
	require.Equal(t, 2, metas[0].MessageCount)
	require.Equal(t, "archive old entries", metas[0].Preview)
}

func TestEnforceLimit(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("sess-%d", i)
		msg := messageAt(model.NewUserMessage("hello"), time.Duration(i)*time.Second)
		require.NoError(t, s.Append(ctx, id, "APAC", msg))
	}

	metas, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 3, "oldest conversations pruned past the cap")
	require.Equal(t, "sess-4", metas[0].ID)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "sess-1", "", model.NewUserMessage("hi")))
	require.NoError(t, s.Delete(ctx, "sess-1"))
	require.ErrorIs(t, s.Delete(ctx, "sess-1"), ErrConversationNotFound)

	_, err := s.Messages(ctx, "sess-1")
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestClear(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "sess-1", "", model.NewUserMessage("a")))
	require.NoError(t, s.Append(ctx, "sess-2", "", model.NewUserMessage("b")))
	require.NoError(t, s.Clear(ctx))

	metas, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, metas)
}

func TestSearch(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "sess-1", "US", model.NewUserMessage("archive the billing logs")))
	require.NoError(t, s.Append(ctx, "sess-2", "EU", model.NewUserMessage("weather please")))

	results, err := s.Search(ctx, "BILLING")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "sess-1", results[0].ID)

	all, err := s.Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}
