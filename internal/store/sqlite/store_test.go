package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wavechat/internal/domain"
	"wavechat/internal/store/sqlite"
)

// testDB opens a fresh in-memory database. Capped to a single connection so
// every statement sees the same memory store.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, sqlite.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

// seedConversation creates four accounts and a group conversation where
// accounts 1-3 are active participants and account 4 has left.
func seedConversation(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO accounts (id, username, status) VALUES
			(1, 'alice', 'active'), (2, 'bob', 'active'),
			(3, 'carol', 'active'), (4, 'dave', 'active')`,
		`INSERT INTO conversations (id, kind, name, creator_id) VALUES (10, 'group', 'team', 1)`,
		`INSERT INTO conversation_participants (conversation_id, account_id, role) VALUES
			(10, 1, 'admin'), (10, 2, 'member'), (10, 3, 'member')`,
		`INSERT INTO conversation_participants (conversation_id, account_id, role, left_at)
			VALUES (10, 4, 'member', CURRENT_TIMESTAMP)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func TestParticipantRepo(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedConversation(t, db)
	repo := sqlite.NewParticipantRepo(db)

	t.Run("ActiveMember", func(t *testing.T) {
		ok, err := repo.IsActiveParticipant(ctx, 10, 2)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("LeftMemberIsInactive", func(t *testing.T) {
		ok, err := repo.IsActiveParticipant(ctx, 10, 4)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("NonMember", func(t *testing.T) {
		ok, err := repo.IsActiveParticipant(ctx, 10, 999)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ListExcludesSenderAndLeft", func(t *testing.T) {
		ids, err := repo.ListActiveIDs(ctx, 10, 1)
		assert.NoError(t, err)
		assert.Equal(t, []int64{2, 3}, ids)
	})
}

func TestMessageCreateFanOut(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedConversation(t, db)

	msgs := sqlite.NewMessageRepo(db)
	statuses := sqlite.NewStatusRepo(db)

	msg := &domain.Message{
		ConversationID: 10,
		SenderID:       1,
		ContentType:    domain.ContentText,
		Content:        "ciphertext",
		Metadata:       map[string]any{"client": "ios"},
	}
	require.NoError(t, msgs.Create(ctx, msg, []int64{2, 3}))
	assert.NotZero(t, msg.ID)

	// One `sent` fact per recipient, none for the sender or the left member.
	rows, err := statuses.ListForMessage(ctx, msg.ID)
	assert.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].AccountID)
	assert.Equal(t, int64(3), rows[1].AccountID)
	for _, row := range rows {
		assert.Equal(t, domain.StatusSent, row.Status)
	}

	// last_message_at is bumped in the same transaction.
	var lastMessageAt string
	require.NoError(t, db.QueryRow(`SELECT last_message_at FROM conversations WHERE id = 10`).Scan(&lastMessageAt))
	var createdAt string
	require.NoError(t, db.QueryRow(`SELECT created_at FROM messages WHERE id = ?`, msg.ID).Scan(&createdAt))
	assert.Equal(t, createdAt, lastMessageAt)

	// Metadata round-trips through the JSON column.
	got, err := msgs.GetByID(ctx, msg.ID)
	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ios", got.Metadata["client"])
}

func TestMessageCreateIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedConversation(t, db)
	msgs := sqlite.NewMessageRepo(db)

	// Recipient 999 violates the account foreign key, so the whole create
	// rolls back: no message row, no status rows.
	msg := &domain.Message{ConversationID: 10, SenderID: 1, ContentType: domain.ContentText, Content: "x"}
	err := msgs.Create(ctx, msg, []int64{2, 999})
	assert.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM message_statuses`).Scan(&count))
	assert.Zero(t, count)
}

func TestMessageGetByIDMissing(t *testing.T) {
	db := testDB(t)
	msgs := sqlite.NewMessageRepo(db)
	got, err := msgs.GetByID(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMessageSoftDeleteAndHide(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedConversation(t, db)
	msgs := sqlite.NewMessageRepo(db)

	msg := &domain.Message{ConversationID: 10, SenderID: 1, ContentType: domain.ContentText, Content: "x"}
	require.NoError(t, msgs.Create(ctx, msg, []int64{2, 3}))

	t.Run("SoftDeleteForEveryone", func(t *testing.T) {
		require.NoError(t, msgs.SoftDeleteForEveryone(ctx, msg.ID))
		got, err := msgs.GetByID(ctx, msg.ID)
		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Deleted())
		assert.Equal(t, domain.DeleteForEveryone, *got.DeletionType)
	})

	t.Run("HideForAccountIsIdempotent", func(t *testing.T) {
		require.NoError(t, msgs.HideForAccount(ctx, msg.ID, 2))
		require.NoError(t, msgs.HideForAccount(ctx, msg.ID, 2))
		var count int
		require.NoError(t, db.QueryRow(
			`SELECT COUNT(*) FROM message_visibility WHERE message_id = ? AND account_id = 2`,
			msg.ID).Scan(&count))
		assert.Equal(t, 1, count)
	})
}

func TestStatusEscalate(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedConversation(t, db)
	msgs := sqlite.NewMessageRepo(db)
	statuses := sqlite.NewStatusRepo(db)

	msg := &domain.Message{ConversationID: 10, SenderID: 1, ContentType: domain.ContentText, Content: "x"}
	require.NoError(t, msgs.Create(ctx, msg, []int64{2, 3}))

	t.Run("FirstInsertReportsNew", func(t *testing.T) {
		inserted, err := statuses.Escalate(ctx, msg.ID, 2, domain.StatusDelivered)
		assert.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("DuplicateIsIdempotent", func(t *testing.T) {
		inserted, err := statuses.Escalate(ctx, msg.ID, 2, domain.StatusDelivered)
		assert.NoError(t, err)
		assert.False(t, inserted)
	})

	t.Run("ReadWithoutDelivered", func(t *testing.T) {
		// Facts are independent rows, not a validated ladder.
		inserted, err := statuses.Escalate(ctx, msg.ID, 3, domain.StatusRead)
		assert.NoError(t, err)
		assert.True(t, inserted)
	})
}

func TestReactionRepo(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedConversation(t, db)
	msgs := sqlite.NewMessageRepo(db)
	reactions := sqlite.NewReactionRepo(db)

	msg := &domain.Message{ConversationID: 10, SenderID: 1, ContentType: domain.ContentText, Content: "x"}
	require.NoError(t, msgs.Create(ctx, msg, []int64{2, 3}))

	countFor := func(accountID int64) int {
		var n int
		require.NoError(t, db.QueryRow(
			`SELECT COUNT(*) FROM message_reactions WHERE message_id = ? AND account_id = ?`,
			msg.ID, accountID).Scan(&n))
		return n
	}

	t.Run("DuplicateTripleConflicts", func(t *testing.T) {
		require.NoError(t, reactions.Create(ctx, &domain.MessageReaction{MessageID: msg.ID, AccountID: 2, Emoji: "👍"}))
		err := reactions.Create(ctx, &domain.MessageReaction{MessageID: msg.ID, AccountID: 2, Emoji: "👍"})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("DistinctEmojiAllowed", func(t *testing.T) {
		assert.NoError(t, reactions.Create(ctx, &domain.MessageReaction{MessageID: msg.ID, AccountID: 2, Emoji: "🔥"}))
		assert.Equal(t, 2, countFor(2))
	})

	t.Run("DeleteOneEmoji", func(t *testing.T) {
		require.NoError(t, reactions.Delete(ctx, msg.ID, 2, "👍"))
		assert.Equal(t, 1, countFor(2))
	})

	t.Run("DeleteAllForAccount", func(t *testing.T) {
		require.NoError(t, reactions.Create(ctx, &domain.MessageReaction{MessageID: msg.ID, AccountID: 3, Emoji: "👍"}))
		require.NoError(t, reactions.Delete(ctx, msg.ID, 2, ""))
		assert.Zero(t, countFor(2))
		// Other accounts' reactions are untouched.
		assert.Equal(t, 1, countFor(3))
	})
}

func TestRefreshTokenFindActive(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedConversation(t, db)
	repo := sqlite.NewRefreshTokenRepo(db)

	exec := func(stmt string, args ...any) {
		_, err := db.Exec(stmt, args...)
		require.NoError(t, err)
	}
	exec(`INSERT INTO refresh_tokens (account_id, session_id, token_digest, expires_at)
		VALUES (1, 'sess-live', 'digest-a', datetime('now', '+1 day'))`)
	exec(`INSERT INTO refresh_tokens (account_id, session_id, token_digest, revoked_at, expires_at)
		VALUES (1, 'sess-revoked', 'digest-b', CURRENT_TIMESTAMP, datetime('now', '+1 day'))`)
	exec(`INSERT INTO refresh_tokens (account_id, session_id, token_digest, expires_at)
		VALUES (1, 'sess-expired', 'digest-c', datetime('now', '-1 day'))`)

	t.Run("Live", func(t *testing.T) {
		got, err := repo.FindActive(ctx, "sess-live", 1)
		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "digest-a", got.TokenDigest)
	})

	t.Run("Revoked", func(t *testing.T) {
		got, err := repo.FindActive(ctx, "sess-revoked", 1)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Expired", func(t *testing.T) {
		got, err := repo.FindActive(ctx, "sess-expired", 1)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("WrongAccount", func(t *testing.T) {
		got, err := repo.FindActive(ctx, "sess-live", 2)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}
