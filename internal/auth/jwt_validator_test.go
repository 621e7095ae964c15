package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func buildToken(t *testing.T, issuer string, iat, nbf, exp time.Time) jwt.Token {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Audience([]string{"boka-admin"}).
		Subject("admin-1").
		IssuedAt(iat).
		NotBefore(nbf).
		Expiration(exp).
		Build()
	require.NoError(t, err)
	return tok
}

func newValidator() TokenValidator {
	return TokenValidator{Issuer: "boka", Audience: "boka-admin", ClockSkew: time.Second, Algorithm: jwa.HS256}
}

func TestValidateAcceptsWellFormedToken(t *testing.T) {
	now := time.Now()
	tok := buildToken(t, "boka", now, now, now.Add(time.Minute))
	require.NoError(t, newValidator().Validate(tok, jwa.HS256, now))
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	now := time.Now()
	tok := buildToken(t, "somebody-else", now, now, now.Add(time.Minute))
	require.Error(t, newValidator().Validate(tok, jwa.HS256, now))
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	now := time.Now()
	tok := buildToken(t, "boka", now.Add(-2*time.Hour), now.Add(-2*time.Hour), now.Add(-time.Minute))
	require.Error(t, newValidator().Validate(tok, jwa.HS256, now))
}

func TestValidateRejectsTokenUsedBeforeNotBefore(t *testing.T) {
	now := time.Now()
	tok := buildToken(t, "boka", now, now.Add(5*time.Minute), now.Add(10*time.Minute))
	require.Error(t, newValidator().Validate(tok, jwa.HS256, now))
}

func TestValidateRejectsWrongAlgorithm(t *testing.T) {
	now := time.Now()
	tok := buildToken(t, "boka", now, now, now.Add(time.Minute))
	require.Error(t, newValidator().Validate(tok, jwa.RS256, now))
}

func TestValidateRejectsNilToken(t *testing.T) {
	require.Error(t, newValidator().Validate(nil, jwa.HS256, time.Now()))
}
