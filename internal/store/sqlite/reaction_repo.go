package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"wavechat/internal/domain"
)

type ReactionRepo struct {
	db *sql.DB
}

func NewReactionRepo(db *sql.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

var _ domain.ReactionRepository = (*ReactionRepo)(nil)

// Create inserts the reaction row. A duplicate (message, account, emoji)
// triple is a conflict, not a silent overwrite.
func (r *ReactionRepo) Create(ctx context.Context, reaction *domain.MessageReaction) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO message_reactions (message_id, account_id, emoji)
		VALUES (?, ?, ?)
	`, reaction.MessageID, reaction.AccountID, reaction.Emoji)
	if err != nil {
		return fmt.Errorf("insert reaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *ReactionRepo) Delete(ctx context.Context, messageID, accountID int64, emoji string) error {
	query := `DELETE FROM message_reactions WHERE message_id = ? AND account_id = ?`
	args := []any{messageID, accountID}
	if emoji != "" {
		query += ` AND emoji = ?`
		args = append(args, emoji)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	return nil
}
