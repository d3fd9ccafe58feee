package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"wavechat/internal/domain"
)

type ParticipantRepo struct {
	db *sql.DB
}

func NewParticipantRepo(db *sql.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

var _ domain.ParticipantRepository = (*ParticipantRepo)(nil)

func (r *ParticipantRepo) IsActiveParticipant(ctx context.Context, conversationID, accountID int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1
		FROM conversation_participants
		WHERE conversation_id = ? AND account_id = ? AND left_at IS NULL
	`, conversationID, accountID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is active participant: %w", err)
	}
	return true, nil
}

func (r *ParticipantRepo) ListActiveIDs(ctx context.Context, conversationID, exclude int64) ([]int64, error) {
	query := `
		SELECT account_id
		FROM conversation_participants
		WHERE conversation_id = ? AND left_at IS NULL
	`
	args := []any{conversationID}
	if exclude != 0 {
		query += ` AND account_id <> ?`
		args = append(args, exclude)
	}
	query += ` ORDER BY account_id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active participants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
