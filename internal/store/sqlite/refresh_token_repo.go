package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"wavechat/internal/domain"
)

type RefreshTokenRepo struct {
	db *sql.DB
}

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

var _ domain.RefreshTokenRepository = (*RefreshTokenRepo)(nil)

// FindActive returns the newest non-revoked, unexpired record for the
// session/account pair. Revoked or rotated sessions yield no row, which is
// what binds an access token to a still-valid session.
func (r *RefreshTokenRepo) FindActive(ctx context.Context, sessionID string, accountID int64) (*domain.RefreshToken, error) {
	query := `
		SELECT id, account_id, session_id, token_digest, revoked_at, expires_at, created_at
		FROM refresh_tokens
		WHERE session_id = ? AND account_id = ?
		  AND revoked_at IS NULL
		  AND expires_at > CURRENT_TIMESTAMP
		ORDER BY created_at DESC
		LIMIT 1
	`
	t := &domain.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, sessionID, accountID).Scan(
		&t.ID,
		&t.AccountID,
		&t.SessionID,
		&t.TokenDigest,
		&t.RevokedAt,
		&t.ExpiresAt,
		&t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return t, nil
}
