package utils

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "s3cret!"))
	assert.False(t, CheckPassword(hash, ""))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = HashPassword(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestTokenRoundTrip(t *testing.T) {
	id := uuid.New()
	token, err := GenerateToken("key", id, time.Hour)
	require.NoError(t, err)

	got, err := ParseToken("key", token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseToken("other-key", token)
	assert.Error(t, err)

	expired, err := GenerateToken("key", id, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("key", expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseTokenChecksIssuerAndAudience(t *testing.T) {
	id := uuid.New()
	sign := func(claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("key"))
		require.NoError(t, err)
		return s
	}
	base := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
	}

	got, err := ParseToken("key", sign(base()))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	foreignIssuer := base()
	foreignIssuer.Issuer = "someone-else"
	_, err = ParseToken("key", sign(foreignIssuer))
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	foreignAudience := base()
	foreignAudience.Audience = jwt.ClaimStrings{"admin-panel"}
	_, err = ParseToken("key", sign(foreignAudience))
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)

	noExpiry := base()
	noExpiry.ExpiresAt = nil
	_, err = ParseToken("key", sign(noExpiry))
	assert.Error(t, err)

	badSubject := base()
	badSubject.Subject = "not-a-uuid"
	_, err = ParseToken("key", sign(badSubject))
	assert.ErrorIs(t, err, ErrTokenSubject)
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParsePagination(c)
		return nil
	})

	cases := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"?page=3&limit=10", Pagination{Page: 3, Limit: 10, Offset: 20}},
		{"?page=-1&limit=abc", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"?limit=1000", Pagination{Page: 1, Limit: 100, Offset: 0}},
	}
	for _, tc := range cases {
		_, err := app.Test(httptest.NewRequest("GET", "/"+tc.query, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.query)
	}
}
