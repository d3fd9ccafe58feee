package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wavechat/internal/domain"
	"wavechat/internal/security"
)

// Handshake failure reasons, surfaced verbatim to the connecting client.
var (
	ErrMissingAccessToken  = errors.New("missing access token")
	ErrAccessTokenInvalid  = errors.New("access token invalid or expired")
	ErrUnknownAccount      = errors.New("invalid access token")
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrRefreshTokenInvalid = errors.New("refresh token invalid or expired")
	ErrAccountSuspended    = errors.New("account is suspended")
	ErrAccountDeactivated  = errors.New("account is deactivated")
	ErrAccountPending      = errors.New("account is pending activation")
)

// HandshakeInput carries the two tokens read once at connect time.
type HandshakeInput struct {
	AccessToken  string
	RefreshToken string
}

// Authenticator validates the dual-token handshake and resolves the account
// identity. It runs once per connection; identity is fixed for the
// connection's lifetime and never re-verified per event.
type Authenticator struct {
	tokens   *security.TokenService
	accounts domain.AccountRepository
	sessions domain.RefreshTokenRepository
	log      *zap.Logger
}

func NewAuthenticator(
	tokens *security.TokenService,
	accounts domain.AccountRepository,
	sessions domain.RefreshTokenRepository,
	log *zap.Logger,
) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		accounts: accounts,
		sessions: sessions,
		log:      log,
	}
}

// Authenticate verifies the access token, resolves the account, then binds
// the access token to a still-valid session by requiring a stored,
// non-revoked refresh-token record with a matching digest. A revoked or
// rotated session cannot authenticate even with an unexpired access token.
func (a *Authenticator) Authenticate(ctx context.Context, in HandshakeInput) (*domain.Account, error) {
	if in.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}
	claims, err := a.tokens.ParseAccessToken(in.AccessToken)
	if err != nil {
		return nil, ErrAccessTokenInvalid
	}

	account, err := a.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, ErrUnknownAccount
	}

	if in.RefreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	refreshClaims, err := a.tokens.ParseRefreshToken(in.RefreshToken)
	if err != nil {
		return nil, ErrRefreshTokenInvalid
	}
	session, err := a.sessions.FindActive(ctx, refreshClaims.SessionID, account.ID)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil, ErrRefreshTokenInvalid
	}
	if err := security.VerifyTokenDigest(in.RefreshToken, session.TokenDigest); err != nil {
		return nil, ErrRefreshTokenInvalid
	}

	switch account.Status {
	case domain.AccountActive:
	case domain.AccountSuspended:
		return nil, ErrAccountSuspended
	case domain.AccountDeactivated:
		return nil, ErrAccountDeactivated
	case domain.AccountPending:
		return nil, ErrAccountPending
	default:
		a.log.Warn("unexpected_account_status",
			zap.Int64("account_id", account.ID),
			zap.String("status", string(account.Status)))
		return nil, ErrUnknownAccount
	}

	return account, nil
}
