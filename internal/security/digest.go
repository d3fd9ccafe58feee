package security

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// Refresh tokens are stored only as digests. The token is pre-hashed with
// SHA-256 so arbitrary-length JWTs fit under bcrypt's 72-byte input limit.

// DigestToken returns the digest to persist for a raw refresh token.
func DigestToken(token string) (string, error) {
	sum := sha256.Sum256([]byte(token))
	b, err := bcrypt.GenerateFromPassword(sum[:], bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyTokenDigest compares a raw refresh token against a stored digest.
func VerifyTokenDigest(token, digest string) error {
	sum := sha256.Sum256([]byte(token))
	return bcrypt.CompareHashAndPassword([]byte(digest), sum[:])
}
