package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"wavechat/internal/domain"
	"wavechat/internal/security"
	"wavechat/internal/service"
)

func newTokenService() *security.TokenService {
	return security.NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

// issueSession creates a valid token pair plus the stored session record the
// refresh token should match.
func issueSession(t *testing.T, tokens *security.TokenService, accountID int64, sessionID string) (string, string, *domain.RefreshToken) {
	t.Helper()
	access, err := tokens.CreateAccessToken(accountID, sessionID)
	assert.NoError(t, err)
	refresh, err := tokens.CreateRefreshToken(accountID, sessionID)
	assert.NoError(t, err)
	digest, err := security.DigestToken(refresh)
	assert.NoError(t, err)
	return access, refresh, &domain.RefreshToken{
		ID:          1,
		AccountID:   accountID,
		SessionID:   sessionID,
		TokenDigest: digest,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}
}

func TestAuthenticate(t *testing.T) {
	tokens := newTokenService()
	account := &domain.Account{ID: 7, Username: "ada", Status: domain.AccountActive}

	t.Run("Success", func(t *testing.T) {
		accounts := new(MockAccountRepo)
		sessions := new(MockRefreshTokenRepo)
		access, refresh, record := issueSession(t, tokens, 7, "sess-1")

		accounts.On("GetByID", mock.Anything, int64(7)).Return(account, nil)
		sessions.On("FindActive", mock.Anything, "sess-1", int64(7)).Return(record, nil)

		auth := service.NewAuthenticator(tokens, accounts, sessions, zap.NewNop())
		got, err := auth.Authenticate(context.Background(), service.HandshakeInput{
			AccessToken:  access,
			RefreshToken: refresh,
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(7), got.ID)
	})

	t.Run("MissingAccessToken", func(t *testing.T) {
		auth := service.NewAuthenticator(tokens, new(MockAccountRepo), new(MockRefreshTokenRepo), zap.NewNop())
		_, err := auth.Authenticate(context.Background(), service.HandshakeInput{RefreshToken: "x"})
		assert.ErrorIs(t, err, service.ErrMissingAccessToken)
	})

	t.Run("GarbageAccessToken", func(t *testing.T) {
		auth := service.NewAuthenticator(tokens, new(MockAccountRepo), new(MockRefreshTokenRepo), zap.NewNop())
		_, err := auth.Authenticate(context.Background(), service.HandshakeInput{
			AccessToken:  "not-a-jwt",
			RefreshToken: "x",
		})
		assert.ErrorIs(t, err, service.ErrAccessTokenInvalid)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		accounts := new(MockAccountRepo)
		access, refresh, _ := issueSession(t, tokens, 99, "sess-x")
		accounts.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

		auth := service.NewAuthenticator(tokens, accounts, new(MockRefreshTokenRepo), zap.NewNop())
		_, err := auth.Authenticate(context.Background(), service.HandshakeInput{
			AccessToken:  access,
			RefreshToken: refresh,
		})
		assert.ErrorIs(t, err, service.ErrUnknownAccount)
	})

	t.Run("MissingRefreshToken", func(t *testing.T) {
		accounts := new(MockAccountRepo)
		access, _, _ := issueSession(t, tokens, 7, "sess-1")
		accounts.On("GetByID", mock.Anything, int64(7)).Return(account, nil)

		auth := service.NewAuthenticator(tokens, accounts, new(MockRefreshTokenRepo), zap.NewNop())
		_, err := auth.Authenticate(context.Background(), service.HandshakeInput{AccessToken: access})
		assert.ErrorIs(t, err, service.ErrMissingRefreshToken)
	})

	t.Run("RevokedSession", func(t *testing.T) {
		// FindActive filters out revoked/rotated sessions, so the lookup
		// comes back empty even though the tokens themselves verify.
		accounts := new(MockAccountRepo)
		sessions := new(MockRefreshTokenRepo)
		access, refresh, _ := issueSession(t, tokens, 7, "sess-1")
		accounts.On("GetByID", mock.Anything, int64(7)).Return(account, nil)
		sessions.On("FindActive", mock.Anything, "sess-1", int64(7)).Return(nil, nil)

		auth := service.NewAuthenticator(tokens, accounts, sessions, zap.NewNop())
		_, err := auth.Authenticate(context.Background(), service.HandshakeInput{
			AccessToken:  access,
			RefreshToken: refresh,
		})
		assert.ErrorIs(t, err, service.ErrRefreshTokenInvalid)
	})

	t.Run("DigestMismatch", func(t *testing.T) {
		// Stored record belongs to a different raw token.
		accounts := new(MockAccountRepo)
		sessions := new(MockRefreshTokenRepo)
		access, refresh, _ := issueSession(t, tokens, 7, "sess-1")
		otherDigest, err := security.DigestToken("some-other-token")
		assert.NoError(t, err)
		accounts.On("GetByID", mock.Anything, int64(7)).Return(account, nil)
		sessions.On("FindActive", mock.Anything, "sess-1", int64(7)).Return(&domain.RefreshToken{
			AccountID:   7,
			SessionID:   "sess-1",
			TokenDigest: otherDigest,
		}, nil)

		auth := service.NewAuthenticator(tokens, accounts, sessions, zap.NewNop())
		_, err = auth.Authenticate(context.Background(), service.HandshakeInput{
			AccessToken:  access,
			RefreshToken: refresh,
		})
		assert.ErrorIs(t, err, service.ErrRefreshTokenInvalid)
	})

	t.Run("AccountStatuses", func(t *testing.T) {
		cases := []struct {
			status domain.AccountStatus
			want   error
		}{
			{domain.AccountSuspended, service.ErrAccountSuspended},
			{domain.AccountDeactivated, service.ErrAccountDeactivated},
			{domain.AccountPending, service.ErrAccountPending},
		}
		for _, tc := range cases {
			accounts := new(MockAccountRepo)
			sessions := new(MockRefreshTokenRepo)
			access, refresh, record := issueSession(t, tokens, 7, "sess-1")
			accounts.On("GetByID", mock.Anything, int64(7)).Return(&domain.Account{
				ID:     7,
				Status: tc.status,
			}, nil)
			sessions.On("FindActive", mock.Anything, "sess-1", int64(7)).Return(record, nil)

			auth := service.NewAuthenticator(tokens, accounts, sessions, zap.NewNop())
			_, err := auth.Authenticate(context.Background(), service.HandshakeInput{
				AccessToken:  access,
				RefreshToken: refresh,
			})
			assert.ErrorIs(t, err, tc.want)
		}
	})
}
