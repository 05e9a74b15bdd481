package database

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/PaulBabatuyi/filekeeper/internal/errs"
	"github.com/PaulBabatuyi/filekeeper/internal/models"
)

// Memory is an in-process document store. Records are kept in insertion
// order, matching the weak listing guarantee of the Postgres store.
type Memory struct {
	mu    sync.RWMutex
	users []*models.User
	files []*models.FileRecord
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) InsertUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return errs.Conflict("Already exist")
		}
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	clone := *u
	m.users = append(m.users, &clone)
	return nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *Memory) FindUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *Memory) CountUsers(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

func (m *Memory) InsertFile(_ context.Context, f *models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	clone := *f
	m.files = append(m.files, &clone)
	return nil
}

func (m *Memory) FindFileByID(_ context.Context, id string) (*models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.files {
		if f.ID == id {
			clone := *f
			return &clone, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *Memory) FindOwnedFile(_ context.Context, id, ownerID string) (*models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.files {
		if f.ID == id && f.OwnerID == ownerID {
			clone := *f
			return &clone, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *Memory) ListChildren(_ context.Context, ownerID string, parent models.ParentID, limit, offset int) ([]*models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*models.FileRecord
	for _, f := range m.files {
		if f.OwnerID == ownerID && f.ParentID == parent {
			clone := *f
			matched = append(matched, &clone)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *Memory) SetVisibility(_ context.Context, id, ownerID string, isPublic bool) (*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.files {
		if f.ID == id && f.OwnerID == ownerID {
			f.IsPublic = isPublic
			clone := *f
			return &clone, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *Memory) CountFiles(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.files)), nil
}
