package testinfra

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/imadgeboyega/campusmatch/internal/common/utils"
)

// TokenOptions tunes a signed test token. Zero values give a one hour user access token.
type TokenOptions struct {
	TTL  time.Duration
	Type string
	Role string
}

// SignToken signs an HS256 token for userID the way the auth service issues them
func SignToken(t testing.TB, userID int64, secret string, opts TokenOptions) string {
	t.Helper()

	if opts.TTL == 0 {
		opts.TTL = time.Hour
	}
	if opts.Type == "" {
		opts.Type = utils.AccessTokenType
	}

	now := time.Now()
	claims := &utils.JWTClaims{
		Type: opts.Type,
		Role: opts.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(opts.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// AccessToken is a one hour user access token
func AccessToken(t testing.TB, userID int64, secret string) string {
	t.Helper()
	return SignToken(t, userID, secret, TokenOptions{})
}

// AdminToken is a one hour access token carrying the admin role
func AdminToken(t testing.TB, userID int64, secret string) string {
	t.Helper()
	return SignToken(t, userID, secret, TokenOptions{Role: utils.AdminRole})
}
