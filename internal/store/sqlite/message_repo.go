package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"wavechat/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

// Create inserts the message row, one `sent` status row per recipient, and
// bumps the conversation's last_message_at. All three succeed or none do.
func (r *MessageRepo) Create(ctx context.Context, m *domain.Message, recipientIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var metadata *string
	if len(m.Metadata) > 0 {
		raw, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		s := string(raw)
		metadata = &s
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages
			(conversation_id, sender_id, content_type, content, metadata, reply_to_message_id, created_at, is_forwarded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ConversationID,
		m.SenderID,
		m.ContentType,
		m.Content,
		metadata,
		m.ReplyToMessageID,
		now,
		m.IsForwarded,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	m.CreatedAt = now

	for _, rid := range recipientIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO message_statuses (message_id, account_id, status, created_at)
			VALUES (?, ?, ?, ?)
		`, id, rid, domain.StatusSent, now); err != nil {
			return fmt.Errorf("insert sent status: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations SET last_message_at = ? WHERE id = ?
	`, now, m.ConversationID); err != nil {
		return fmt.Errorf("bump last_message_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content_type, content, metadata,
		       reply_to_message_id, created_at, edited_at, deleted_at, deletion_type, is_forwarded
		FROM messages
		WHERE id = ?
	`
	m := &domain.Message{}
	var metadata sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.ConversationID,
		&m.SenderID,
		&m.ContentType,
		&m.Content,
		&metadata,
		&m.ReplyToMessageID,
		&m.CreatedAt,
		&m.EditedAt,
		&m.DeletedAt,
		&m.DeletionType,
		&m.IsForwarded,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &m.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return m, nil
}

func (r *MessageRepo) UpdateContent(ctx context.Context, id int64, content string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET content = ?, edited_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, content, id)
	if err != nil {
		return fmt.Errorf("update message content: %w", err)
	}
	return nil
}

func (r *MessageRepo) SoftDeleteForEveryone(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET deleted_at = CURRENT_TIMESTAMP, deletion_type = ?
		WHERE id = ?
	`, domain.DeleteForEveryone, id)
	if err != nil {
		return fmt.Errorf("soft delete message: %w", err)
	}
	return nil
}

func (r *MessageRepo) HideForAccount(ctx context.Context, messageID, accountID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO message_visibility (message_id, account_id)
		VALUES (?, ?)
	`, messageID, accountID)
	if err != nil {
		return fmt.Errorf("hide message: %w", err)
	}
	return nil
}
