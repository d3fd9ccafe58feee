package security

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity carried by both token kinds.
type Claims struct {
	AccountID int64
	SessionID string
}

// TokenService wraps JWT creation and validation for the access/refresh token
// pair. Each kind is signed with its own secret so one cannot stand in for
// the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// CreateAccessToken creates a short-lived access token.
func (t *TokenService) CreateAccessToken(accountID int64, sessionID string) (string, error) {
	return create(t.accessSecret, accountID, sessionID, t.accessTTL)
}

// CreateRefreshToken creates a long-lived refresh token for the same session.
func (t *TokenService) CreateRefreshToken(accountID int64, sessionID string) (string, error) {
	return create(t.refreshSecret, accountID, sessionID, t.refreshTTL)
}

// ParseAccessToken validates an access token and returns its claims.
func (t *TokenService) ParseAccessToken(tokenStr string) (*Claims, error) {
	return parse(t.accessSecret, tokenStr)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func (t *TokenService) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return parse(t.refreshSecret, tokenStr)
}

func create(secret []byte, accountID int64, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(accountID, 10),
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parse(secret []byte, tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenMalformed
	}

	sub, _ := mapClaims["sub"].(string)
	accountID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || accountID == 0 {
		return nil, fmt.Errorf("%w: bad subject", jwt.ErrTokenInvalidClaims)
	}
	sid, _ := mapClaims["sid"].(string)
	if sid == "" {
		return nil, fmt.Errorf("%w: missing session id", jwt.ErrTokenInvalidClaims)
	}
	return &Claims{AccountID: accountID, SessionID: sid}, nil
}
