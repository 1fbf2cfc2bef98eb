package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitas-brc20/dicer/service"
)

func TestTokenAuthorizer_AuthorizeAccount(t *testing.T) {
	authorizer := NewTokenAuthorizer("admin-secret", "jwt-secret")
	ctx := context.Background()

	token, err := authorizer.IssueAccountToken("alice", time.Hour)
	require.NoError(t, err)

	t.Run("own account", func(t *testing.T) {
		assert.NoError(t, authorizer.AuthorizeAccount(ctx, token, "alice"))
	})

	t.Run("other account", func(t *testing.T) {
		assert.ErrorIs(t, authorizer.AuthorizeAccount(ctx, token, "bob"), service.ErrUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := authorizer.IssueAccountToken("alice", -time.Minute)
		require.NoError(t, err)
		assert.ErrorIs(t, authorizer.AuthorizeAccount(ctx, expired, "alice"), service.ErrUnauthorized)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := NewTokenAuthorizer("admin-secret", "other-secret")
		forged, err := other.IssueAccountToken("alice", time.Hour)
		require.NoError(t, err)
		assert.ErrorIs(t, authorizer.AuthorizeAccount(ctx, forged, "alice"), service.ErrUnauthorized)
	})

	t.Run("unsigned token", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		assert.ErrorIs(t, authorizer.AuthorizeAccount(ctx, unsigned, "alice"), service.ErrUnauthorized)
	})

	t.Run("admin secret is not an account token", func(t *testing.T) {
		assert.ErrorIs(t, authorizer.AuthorizeAccount(ctx, "admin-secret", "alice"), service.ErrUnauthorized)
	})

	t.Run("empty caller", func(t *testing.T) {
		assert.ErrorIs(t, authorizer.AuthorizeAccount(ctx, "", "alice"), service.ErrUnauthorized)
	})
}

func TestTokenAuthorizer_AuthorizePrivileged(t *testing.T) {
	ctx := context.Background()

	authorizer := NewTokenAuthorizer("admin-secret", "jwt-secret")
	assert.NoError(t, authorizer.AuthorizePrivileged(ctx, "admin-secret"))
	assert.ErrorIs(t, authorizer.AuthorizePrivileged(ctx, "admin-secre"), service.ErrUnauthorized)
	assert.ErrorIs(t, authorizer.AuthorizePrivileged(ctx, ""), service.ErrUnauthorized)

	token, err := authorizer.IssueAccountToken("admin", time.Hour)
	require.NoError(t, err)
	assert.ErrorIs(t, authorizer.AuthorizePrivileged(ctx, token), service.ErrUnauthorized)

	// No configured secret means nobody is privileged
	open := NewTokenAuthorizer("", "jwt-secret")
	assert.ErrorIs(t, open.AuthorizePrivileged(ctx, ""), service.ErrUnauthorized)
}
