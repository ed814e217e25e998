package svcauth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/core/pkg/transport/svcauth"
)

func newTestService(t *testing.T) *svcauth.Service {
	t.Helper()
	s, err := svcauth.New(svcauth.Config{Secret: "0123456789abcdef0123456789abcdef", TokenTTL: time.Minute})
	require.NoError(t, err)
	return s
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	s := newTestService(t)
	token, err := s.IssueToken("index-1", "index")
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, svcauth.Principal("index-1"), claims.Principal)
	assert.Equal(t, "index", claims.Kind)
}

func TestRequirePrincipalRejectsWrongCaller(t *testing.T) {
	s := newTestService(t)
	token, err := s.IssueToken("bucket-7", "bucket")
	require.NoError(t, err)

	_, err = s.RequirePrincipal(token, "index-1")
	assert.ErrorIs(t, err, svcauth.ErrPrincipalNotAllowed)

	_, err = s.RequirePrincipal(token, "bucket-7")
	assert.NoError(t, err)
}

func TestRequireKindRejectsWrongKind(t *testing.T) {
	s := newTestService(t)
	token, err := s.IssueToken("bucket-7", "bucket")
	require.NoError(t, err)

	_, err = s.RequireKind(token, "operator")
	assert.ErrorIs(t, err, svcauth.ErrPrincipalNotAllowed)
}

func TestNewRejectsShortSecret(t *testing.T) {
	_, err := svcauth.New(svcauth.Config{Secret: "too-short"})
	assert.ErrorIs(t, err, svcauth.ErrInvalidSecretLength)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	s := newTestService(t)
	_, err := s.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, svcauth.ErrInvalidToken)
}
