// Package service implements the file storage and access control engine:
// account registration, the upload pipeline, metadata operations, and the
// content retrieval gate. Transport concerns live in internal/server.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/PaulBabatuyi/filekeeper/internal/cache"
	"github.com/PaulBabatuyi/filekeeper/internal/errs"
	"github.com/PaulBabatuyi/filekeeper/internal/models"
	"github.com/PaulBabatuyi/filekeeper/internal/queue"
	"github.com/PaulBabatuyi/filekeeper/internal/session"
	"github.com/PaulBabatuyi/filekeeper/internal/storage"
)

// PageSize is the fixed page size for listings.
const PageSize = 20

// UserStore is the document-store surface for user records.
type UserStore interface {
	InsertUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// FileStore is the document-store surface for file records. Owner scoping is
// part of the query, never a post-hoc comparison.
type FileStore interface {
	InsertFile(ctx context.Context, f *models.FileRecord) error
	FindFileByID(ctx context.Context, id string) (*models.FileRecord, error)
	FindOwnedFile(ctx context.Context, id, ownerID string) (*models.FileRecord, error)
	ListChildren(ctx context.Context, ownerID string, parent models.ParentID, limit, offset int) ([]*models.FileRecord, error)
	SetVisibility(ctx context.Context, id, ownerID string, isPublic bool) (*models.FileRecord, error)
	CountFiles(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// Service wires the engine's collaborators. All stores are injected so tests
// can substitute in-memory fakes.
type Service struct {
	users    UserStore
	files    FileStore
	sessions *session.Manager
	content  storage.ContentStore
	queue    queue.Queue
	cache    cache.Cache
	logger   *zap.Logger
}

func New(users UserStore, files FileStore, sessions *session.Manager, content storage.ContentStore, q queue.Queue, c cache.Cache, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		files:    files,
		sessions: sessions,
		content:  content,
		queue:    q,
		cache:    c,
		logger:   logger,
	}
}

// Sessions exposes the session manager for transport middleware.
func (s *Service) Sessions() *session.Manager { return s.sessions }

// storeErr passes through taxonomy errors and collapses anything else to
// StoreUnavailable, logging the cause server-side.
func (s *Service) storeErr(op string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	s.logger.Error("store operation failed", zap.String("op", op), zap.Error(err))
	return errs.ErrStoreUnavailable
}
