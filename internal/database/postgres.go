// Package database provides the document-store implementations behind the
// user and file repositories.
package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/PaulBabatuyi/filekeeper/internal/errs"
	"github.com/PaulBabatuyi/filekeeper/internal/models"
)

const uniqueViolation = "23505"

// Postgres implements the user and file stores over PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// InsertUser persists a new user, assigning its id. A duplicate email maps
// to Conflict.
func (p *Postgres) InsertUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	const q = `
        INSERT INTO users (id, email, digest, salt)
        VALUES ($1, $2, $3, $4)
    `
	_, err := p.db.ExecContext(ctx, q, u.ID, u.Email, u.Digest, u.Salt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errs.Conflict("Already exist")
	}
	return err
}

func (p *Postgres) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
        SELECT id, email, digest, salt, created_at
        FROM users
        WHERE email = $1
    `
	return p.scanUser(p.db.QueryRowContext(ctx, q, email))
}

func (p *Postgres) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	const q = `
        SELECT id, email, digest, salt, created_at
        FROM users
        WHERE id = $1
    `
	return p.scanUser(p.db.QueryRowContext(ctx, q, id))
}

func (p *Postgres) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Digest, &u.Salt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

// InsertFile persists a new record, assigning its id. Name uniqueness is not
// enforced; concurrent uploads with the same name both succeed.
func (p *Postgres) InsertFile(ctx context.Context, f *models.FileRecord) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	const q = `
        INSERT INTO files (id, owner_id, name, kind, parent_id, is_public, storage_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := p.db.ExecContext(ctx, q,
		f.ID,
		f.OwnerID,
		f.Name,
		string(f.Kind),
		f.ParentID.String(),
		f.IsPublic,
		f.StorageKey,
	)
	return err
}

func (p *Postgres) FindFileByID(ctx context.Context, id string) (*models.FileRecord, error) {
	const q = `
        SELECT id, owner_id, name, kind, parent_id, is_public, storage_key, created_at
        FROM files
        WHERE id = $1
    `
	return p.scanFile(p.db.QueryRowContext(ctx, q, id))
}

// FindOwnedFile scopes the lookup by owner in the query itself so a miss and
// another user's file are indistinguishable.
func (p *Postgres) FindOwnedFile(ctx context.Context, id, ownerID string) (*models.FileRecord, error) {
	const q = `
        SELECT id, owner_id, name, kind, parent_id, is_public, storage_key, created_at
        FROM files
        WHERE id = $1 AND owner_id = $2
    `
	return p.scanFile(p.db.QueryRowContext(ctx, q, id, ownerID))
}

// ListChildren returns one page of an owner's records under parent, in
// insertion order.
func (p *Postgres) ListChildren(ctx context.Context, ownerID string, parent models.ParentID, limit, offset int) ([]*models.FileRecord, error) {
	const q = `
        SELECT id, owner_id, name, kind, parent_id, is_public, storage_key, created_at
        FROM files
        WHERE owner_id = $1 AND parent_id = $2
        ORDER BY seq
        LIMIT $3 OFFSET $4
    `
	rows, err := p.db.QueryContext(ctx, q, ownerID, parent.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.FileRecord
	for rows.Next() {
		f, err := scanFileRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, f)
	}
	return records, rows.Err()
}

// SetVisibility atomically updates isPublic on the record matching both id
// and owner, returning the post-update record.
func (p *Postgres) SetVisibility(ctx context.Context, id, ownerID string, isPublic bool) (*models.FileRecord, error) {
	const q = `
        UPDATE files
        SET is_public = $3
        WHERE id = $1 AND owner_id = $2
        RETURNING id, owner_id, name, kind, parent_id, is_public, storage_key, created_at
    `
	return p.scanFile(p.db.QueryRowContext(ctx, q, id, ownerID, isPublic))
}

func (p *Postgres) CountFiles(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM files`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (p *Postgres) scanFile(row *sql.Row) (*models.FileRecord, error) {
	f, err := scanFileRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func scanFileRow(row rowScanner) (*models.FileRecord, error) {
	var (
		f      models.FileRecord
		kind   string
		parent string
	)
	err := row.Scan(&f.ID, &f.OwnerID, &f.Name, &kind, &parent, &f.IsPublic, &f.StorageKey, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.Kind = models.FileKind(kind)
	f.ParentID = models.ParentRef(parent)
	return &f, nil
}
