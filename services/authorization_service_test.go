package services

import (
	"context"
	"testing"
	"time"

	"ecom-admin/auth"
	"ecom-admin/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newAuthorizationService(t *testing.T, f *resolverFixture) (*AuthorizationService, *auth.TokenService, *metrics.Metrics, *observer.ObservedLogs) {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	m := metrics.New()
	dir := newDirectory(f.db)
	svc := NewAuthorizationService(tokens, NewPermissionResolver(dir), dir, m, zap.New(core))
	return svc, tokens, m, logs
}

func TestCheckAccess(t *testing.T) {
	f := setupResolver(t)
	svc, tokens, m, logs := newAuthorizationService(t, f)
	ctx := context.Background()

	t.Run("granted", func(t *testing.T) {
		token, err := tokens.Issue(f.u1.ID)
		require.NoError(t, err)

		user, err := svc.CheckAccess(ctx, token, "can_read", "/admin/dashboard")
		require.NoError(t, err)
		assert.Equal(t, f.u1.ID, user.ID)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.AuthorizationDecisions.WithLabelValues("OK", "none", "role")))
	})

	t.Run("denied", func(t *testing.T) {
		token, err := tokens.Issue(f.u2.ID)
		require.NoError(t, err)

		_, err = svc.CheckAccess(ctx, token, "can_read", "Ressource::Invoice")
		assert.Equal(t, auth.CodeForbidden, auth.CodeOf(err))
		assert.Equal(t, "Access denied", auth.PublicMessage(err))
		assert.Equal(t, 1, logs.FilterMessage("Authorization check denied").Len())
	})

	t.Run("unknown action", func(t *testing.T) {
		token, err := tokens.Issue(f.u3.ID)
		require.NoError(t, err)

		_, err = svc.CheckAccess(ctx, token, "can_teleport", "/admin/dashboard")
		assert.Equal(t, auth.CodeNotFound, auth.CodeOf(err))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.CheckAccess(ctx, "not-a-token", "can_read", "/admin/dashboard")
		assert.Equal(t, auth.KindTokenMalformed, auth.KindOf(err))
		assert.Equal(t, auth.CodeUnauthenticated, auth.CodeOf(err))
	})

	t.Run("token for a user without grants", func(t *testing.T) {
		token, err := tokens.Issue(uuid.New())
		require.NoError(t, err)

		_, err = svc.CheckAccess(ctx, token, "can_read", "/admin/dashboard")
		assert.Equal(t, auth.CodeForbidden, auth.CodeOf(err))
	})

	t.Run("internal failure is logged at error level", func(t *testing.T) {
		f := setupResolver(t)
		svc, tokens, _, logs := newAuthorizationService(t, f)
		token, err := tokens.Issue(f.u1.ID)
		require.NoError(t, err)

		sqlDB, err := f.db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		_, err = svc.CheckAccess(ctx, token, "can_read", "/admin/dashboard")
		assert.Equal(t, auth.CodeInternal, auth.CodeOf(err))
		assert.Equal(t, "Internal server error", auth.PublicMessage(err))

		entries := logs.FilterMessage("Authorization check failed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	})
}

func TestCheckAccessExpiredToken(t *testing.T) {
	f := setupResolver(t)
	tokens, err := auth.NewTokenService([]byte("test-secret"), time.Nanosecond)
	require.NoError(t, err)
	dir := newDirectory(f.db)
	svc := NewAuthorizationService(tokens, NewPermissionResolver(dir), dir, nil, zap.NewNop())

	token, err := tokens.Issue(f.u1.ID)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	_, err = svc.CheckAccess(context.Background(), token, "can_read", "/admin/dashboard")
	assert.Equal(t, auth.KindTokenExpired, auth.KindOf(err))
	assert.Equal(t, "Session expired, please log in again", auth.PublicMessage(err))
}

func TestGenerateToken(t *testing.T) {
	f := setupResolver(t)
	svc, tokens, _, _ := newAuthorizationService(t, f)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		token, err := svc.GenerateToken(ctx, "u1@example.com", "password123")
		require.NoError(t, err)

		claims, err := svc.VerifyToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, f.u1.ID, claims.Subject)
		assert.WithinDuration(t, time.Now().Add(tokens.TTL()), claims.ExpiresAt, 5*time.Second)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.GenerateToken(ctx, "u1@example.com", "wrong-password")
		assert.Equal(t, auth.KindInvalidCredentials, auth.KindOf(err))
		assert.Equal(t, auth.CodeUnauthenticated, auth.CodeOf(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.GenerateToken(ctx, "nobody@example.com", "password123")
		assert.Equal(t, auth.KindInvalidCredentials, auth.KindOf(err))
	})

	t.Run("email is matched case-insensitively", func(t *testing.T) {
		token, err := svc.GenerateToken(ctx, "  U1@Example.com ", "password123")
		require.NoError(t, err)
		claims, err := svc.VerifyToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, f.u1.ID, claims.Subject)
	})
}

func TestCheckAccessCanceled(t *testing.T) {
	f := setupResolver(t)
	svc, tokens, m, logs := newAuthorizationService(t, f)

	token, err := tokens.Issue(f.u1.ID)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.CheckAccess(ctx, token, "can_read", "/admin/dashboard")
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthorizationDecisions.WithLabelValues("INTERNAL_ERROR", "canceled", "none")))
	assert.Zero(t, testutil.ToFloat64(m.AuthorizationDecisions.WithLabelValues("INTERNAL_ERROR", "data_access", "none")))
	assert.Zero(t, logs.FilterLevelExact(zap.ErrorLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("Authorization check canceled").Len())

	_, err = svc.GenerateToken(ctx, "u1@example.com", "password123")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, logs.FilterLevelExact(zap.ErrorLevel).Len())
}
