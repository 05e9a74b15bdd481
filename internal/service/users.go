package service

import (
	"context"
	"errors"

	"github.com/PaulBabatuyi/filekeeper/internal/crypto"
	"github.com/PaulBabatuyi/filekeeper/internal/errs"
	"github.com/PaulBabatuyi/filekeeper/internal/models"
)

// UserView is the client-facing shape of a user.
type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CreateUser registers a new account. The password is stored only as a
// salted one-way digest.
func (s *Service) CreateUser(ctx context.Context, email, password string) (UserView, error) {
	if email == "" {
		return UserView{}, errs.BadRequest("Missing email")
	}
	if password == "" {
		return UserView{}, errs.BadRequest("Missing password")
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return UserView{}, s.storeErr("create user", err)
	}
	u := &models.User{
		Email:  email,
		Digest: crypto.HashPassword(password, salt),
		Salt:   salt,
	}
	if err := s.users.InsertUser(ctx, u); err != nil {
		return UserView{}, s.storeErr("create user", err)
	}
	return UserView{ID: u.ID, Email: u.Email}, nil
}

// Login verifies credentials and issues a session token. A wrong email and a
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errs.ErrUnauthorized
	}
	u, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return "", errs.ErrUnauthorized
	}
	if err != nil {
		return "", s.storeErr("login", err)
	}
	if !crypto.VerifyPassword(password, u.Salt, u.Digest) {
		return "", errs.ErrUnauthorized
	}
	return s.sessions.Create(ctx, u.ID)
}

// Logout revokes the session behind token. An unresolvable token is
// Unauthorized, matching every other session-gated operation.
func (s *Service) Logout(ctx context.Context, token string) error {
	if _, err := s.sessions.Resolve(ctx, token); err != nil {
		return err
	}
	return s.sessions.Revoke(ctx, token)
}

// WhoAmI resolves token to the acting user.
func (s *Service) WhoAmI(ctx context.Context, token string) (UserView, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return UserView{}, err
	}
	u, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		// Session outlived the account; treat like any invalid token.
		return UserView{}, errs.ErrUnauthorized
	}
	if err != nil {
		return UserView{}, s.storeErr("who am i", err)
	}
	return UserView{ID: u.ID, Email: u.Email}, nil
}

// Status reports liveness of the cache and the document store.
func (s *Service) Status(ctx context.Context) (cacheAlive, dbAlive bool) {
	return s.cache.Ping(ctx) == nil, s.users.Ping(ctx) == nil
}

// Stats returns the user and file counts.
func (s *Service) Stats(ctx context.Context) (users, files int64, err error) {
	if users, err = s.users.CountUsers(ctx); err != nil {
		return 0, 0, s.storeErr("stats", err)
	}
	if files, err = s.files.CountFiles(ctx); err != nil {
		return 0, 0, s.storeErr("stats", err)
	}
	return users, files, nil
}
