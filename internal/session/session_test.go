package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/filekeeper/internal/cache"
	"github.com/PaulBabatuyi/filekeeper/internal/errs"
	"github.com/PaulBabatuyi/filekeeper/internal/session"
)

func TestCreateThenResolve(t *testing.T) {
	mgr := session.NewManager(cache.NewMemory(), zap.NewNop())
	ctx := context.Background()

	token, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := mgr.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestResolveUnknownToken(t *testing.T) {
	mgr := session.NewManager(cache.NewMemory(), zap.NewNop())
	ctx := context.Background()

	_, err := mgr.Resolve(ctx, "no-such-token")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = mgr.Resolve(ctx, "")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestRevoke(t *testing.T) {
	mgr := session.NewManager(cache.NewMemory(), zap.NewNop())
	ctx := context.Background()

	token, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, mgr.Revoke(ctx, token))
	_, err = mgr.Resolve(ctx, token)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	// Revoking an absent token is not an error.
	assert.NoError(t, mgr.Revoke(ctx, token))
}

func TestTokensAreUnique(t *testing.T) {
	mgr := session.NewManager(cache.NewMemory(), zap.NewNop())
	ctx := context.Background()

	a, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)
	b, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	// Both stay resolvable; a second login does not revoke the first.
	userID, err := mgr.Resolve(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}
