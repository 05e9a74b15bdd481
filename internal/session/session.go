// Package session issues, resolves, and revokes opaque session tokens backed
// by the key-value cache.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/filekeeper/internal/cache"
	"github.com/PaulBabatuyi/filekeeper/internal/errs"
)

// TTL is the fixed session lifetime; expiry is enforced by the cache itself.
const TTL = 24 * time.Hour

const keyPrefix = "auth_"

// Manager maps opaque tokens to user ids. A user may hold any number of
// concurrent sessions.
type Manager struct {
	cache  cache.Cache
	logger *zap.Logger
}

func NewManager(c cache.Cache, logger *zap.Logger) *Manager {
	return &Manager{cache: c, logger: logger}
}

// Create issues a new token for userID. Token collisions are not handled;
// the uuid space makes them negligible.
func (m *Manager) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.New().String()
	if err := m.cache.Set(ctx, keyPrefix+token, userID, TTL); err != nil {
		m.logger.Error("session cache write failed", zap.Error(err))
		return "", errs.ErrStoreUnavailable
	}
	return token, nil
}

// Resolve returns the user id for token. Never-issued, revoked, and expired
// tokens are indistinguishable and all yield Unauthorized. The result is the
// sole source of the acting identity for callers.
func (m *Manager) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errs.ErrUnauthorized
	}
	userID, ok, err := m.cache.Get(ctx, keyPrefix+token)
	if err != nil {
		m.logger.Error("session cache read failed", zap.Error(err))
		return "", errs.ErrStoreUnavailable
	}
	if !ok {
		return "", errs.ErrUnauthorized
	}
	return userID, nil
}

// Revoke deletes the token mapping. Revoking an absent token is a no-op.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.cache.Delete(ctx, keyPrefix+token); err != nil {
		m.logger.Error("session cache delete failed", zap.Error(err))
		return errs.ErrStoreUnavailable
	}
	return nil
}
