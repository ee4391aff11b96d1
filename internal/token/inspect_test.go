package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mintToken signs a token the way the backend does. The signing key is
// irrelevant here: Inspect never verifies signatures.
func mintToken(t *testing.T, userID int64, issuedAt, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     issuedAt.Unix(),
		"exp":     expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestInspect(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tokenString := mintToken(t, 42, now.Add(-time.Minute), now.Add(15*time.Minute))

	claims := Inspect(tokenString)

	assert.True(t, claims.Valid)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, now.Add(-time.Minute).Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestInspectMalformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"two segments", "abc.def"},
		{"four segments", "a.b.c.d"},
		{"payload not base64", "header.!!!.sig"},
		{"payload not json", "eyJhbGciOiJIUzI1NiJ9.bm90LWpzb24.sig"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := Inspect(tt.token)
			assert.False(t, claims.Valid)
			assert.True(t, claims.Expired(time.Now()), "invalid token must read as expired")
		})
	}
}

func TestRemaining(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	live := Inspect(mintToken(t, 1, now, now.Add(10*time.Minute)))
	assert.InDelta(t, (10 * time.Minute).Seconds(), live.Remaining(now).Seconds(), 1)
	assert.False(t, live.Expired(now))

	expired := Inspect(mintToken(t, 1, now.Add(-2*time.Hour), now.Add(-100*time.Second)))
	assert.Less(t, expired.Remaining(now), time.Duration(0), "remaining may be negative")
	assert.True(t, expired.Expired(now))
}

func TestExpiringWithin(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	soon := Inspect(mintToken(t, 1, now, now.Add(30*time.Second)))
	assert.True(t, soon.ExpiringWithin(now, time.Minute))

	later := Inspect(mintToken(t, 1, now, now.Add(10*time.Minute)))
	assert.False(t, later.ExpiringWithin(now, time.Minute))
	assert.True(t, later.ExpiringWithin(now, 15*time.Minute))
}

func TestInspectNoExpiryClaim(t *testing.T) {
	claims := jwt.MapClaims{"user_id": float64(7)}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	got := Inspect(signed)
	assert.True(t, got.Valid)
	assert.True(t, got.Expired(time.Now()), "token without exp must count as expired")
	assert.Equal(t, time.Duration(0), got.Remaining(time.Now()))
}
