package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"wavechat/internal/domain"
)

type StatusRepo struct {
	db *sql.DB
}

func NewStatusRepo(db *sql.DB) *StatusRepo {
	return &StatusRepo{db: db}
}

var _ domain.StatusRepository = (*StatusRepo)(nil)

// Escalate records a delivery-state fact. Rows are independent upserts, not a
// validated ladder; a duplicate is an idempotent no-op.
func (r *StatusRepo) Escalate(ctx context.Context, messageID, accountID int64, status domain.DeliveryStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO message_statuses (message_id, account_id, status)
		VALUES (?, ?, ?)
	`, messageID, accountID, status)
	if err != nil {
		return false, fmt.Errorf("escalate status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *StatusRepo) ListForMessage(ctx context.Context, messageID int64) ([]*domain.MessageStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT message_id, account_id, status, created_at
		FROM message_statuses
		WHERE message_id = ?
		ORDER BY account_id ASC, created_at ASC
	`, messageID)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var res []*domain.MessageStatus
	for rows.Next() {
		s := &domain.MessageStatus{}
		if err := rows.Scan(&s.MessageID, &s.AccountID, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
