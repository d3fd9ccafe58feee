package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"wavechat/internal/domain"
)

type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

var _ domain.AccountRepository = (*AccountRepo)(nil)

func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `
		SELECT id, username, email, status, created_at, last_seen
		FROM accounts
		WHERE id = ?
	`
	a := &domain.Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.Status,
		&a.CreatedAt,
		&a.LastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}
