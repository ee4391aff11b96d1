package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded, UNVERIFIED payload of a JWT. It is a display and
// scheduling hint only: the signature is never checked here, so nothing in
// Claims may gate an authorization decision. The backend stays the source of
// truth for every protected operation.
type Claims struct {
	Valid     bool
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Inspect decodes the payload segment of a three-part JWT without verifying
// the signature. A malformed token yields Valid=false, never an error.
func Inspect(tokenString string) Claims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return Claims{}
	}

	out := Claims{Valid: true}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	// The backend issues the user id under "user_id".
	if id, ok := claims["user_id"].(float64); ok {
		out.UserID = int64(id)
	}
	return out
}

// Remaining returns the token lifetime left at now. Negative when already
// expired, zero when the token carries no expiry claim.
func (c Claims) Remaining(now time.Time) time.Duration {
	if !c.Valid || c.ExpiresAt.IsZero() {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// Expired reports whether the token is unusable at now. Invalid tokens and
// tokens without an expiry claim count as expired.
func (c Claims) Expired(now time.Time) bool {
	if !c.Valid || c.ExpiresAt.IsZero() {
		return true
	}
	return c.Remaining(now) <= 0
}

// ExpiringWithin reports whether the token expires within d of now.
func (c Claims) ExpiringWithin(now time.Time, d time.Duration) bool {
	if c.Expired(now) {
		return true
	}
	return c.Remaining(now) <= d
}
