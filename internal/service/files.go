package service

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/filekeeper/internal/errs"
	"github.com/PaulBabatuyi/filekeeper/internal/models"
)

// UploadInput is a single upload request. Data carries the whole body,
// base64-encoded; it is ignored for folders.
type UploadInput struct {
	Name     string
	Type     string
	ParentID string
	IsPublic bool
	Data     string
}

// ValidateParent checks that parent is the root or an existing folder.
func (s *Service) ValidateParent(ctx context.Context, parent models.ParentID) error {
	if parent.IsRoot() {
		return nil
	}
	p, err := s.files.FindFileByID(ctx, parent.Ref())
	if errors.Is(err, errs.ErrNotFound) {
		return errs.BadRequest("Parent not found")
	}
	if err != nil {
		return s.storeErr("validate parent", err)
	}
	if p.Kind != models.KindFolder {
		return errs.BadRequest("Parent is not a folder")
	}
	return nil
}

// Upload runs the write pipeline: field validation, parent validation,
// content persistence (skipped for folders), metadata persistence, and
// best-effort thumbnail enqueue for images. Metadata is written only after
// content is durable, so no record ever exists without backing bytes.
func (s *Service) Upload(ctx context.Context, ownerID string, in UploadInput) (models.FileView, error) {
	if in.Name == "" {
		return models.FileView{}, errs.BadRequest("Missing name")
	}
	if !models.ValidKind(in.Type) {
		return models.FileView{}, errs.BadRequest("Missing type")
	}
	kind := models.FileKind(in.Type)
	if in.Data == "" && kind != models.KindFolder {
		return models.FileView{}, errs.BadRequest("Missing data")
	}

	parent := models.ParentRef(in.ParentID)
	if err := s.ValidateParent(ctx, parent); err != nil {
		return models.FileView{}, err
	}

	record := &models.FileRecord{
		OwnerID:  ownerID,
		Name:     in.Name,
		Kind:     kind,
		ParentID: parent,
		IsPublic: in.IsPublic,
	}

	if kind != models.KindFolder {
		content, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			return models.FileView{}, errs.BadRequest("Invalid data")
		}
		key := uuid.New().String()
		if err := s.content.Write(key, content); err != nil {
			return models.FileView{}, s.storeErr("write content", err)
		}
		record.StorageKey = key
	}

	if err := s.files.InsertFile(ctx, record); err != nil {
		return models.FileView{}, s.storeErr("insert file", err)
	}

	if kind == models.KindImage {
		job := models.ThumbnailJob{FileID: record.ID, OwnerID: ownerID}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			// Best effort: the upload already succeeded.
			s.logger.Warn("thumbnail enqueue failed",
				zap.String("file_id", record.ID), zap.Error(err))
		}
	}

	return record.View(), nil
}

// GetFileMetadata returns the caller's record by id.
func (s *Service) GetFileMetadata(ctx context.Context, ownerID, id string) (models.FileView, error) {
	f, err := s.files.FindOwnedFile(ctx, id, ownerID)
	if errors.Is(err, errs.ErrNotFound) {
		return models.FileView{}, errs.ErrNotFound
	}
	if err != nil {
		return models.FileView{}, s.storeErr("get metadata", err)
	}
	return f.View(), nil
}

// ListFiles returns one page of the caller's records under parent.
// Ordering is insertion order as provided by the store.
func (s *Service) ListFiles(ctx context.Context, ownerID string, parent models.ParentID, page int) ([]models.FileView, error) {
	if page < 0 {
		page = 0
	}
	records, err := s.files.ListChildren(ctx, ownerID, parent, PageSize, page*PageSize)
	if err != nil {
		return nil, s.storeErr("list files", err)
	}
	views := make([]models.FileView, 0, len(records))
	for _, f := range records {
		views = append(views, f.View())
	}
	return views, nil
}

// SetVisibility flips isPublic on the caller's record.
func (s *Service) SetVisibility(ctx context.Context, ownerID, id string, isPublic bool) (models.FileView, error) {
	f, err := s.files.SetVisibility(ctx, id, ownerID, isPublic)
	if errors.Is(err, errs.ErrNotFound) {
		return models.FileView{}, errs.ErrNotFound
	}
	if err != nil {
		return models.FileView{}, s.storeErr("set visibility", err)
	}
	return f.View(), nil
}

// GetContent decides whether the caller may read a file's content (or a
// derived size) and returns the byte stream plus a MIME type inferred from
// the record's name. For private files every authorization failure collapses
// to NotFound so non-owners cannot probe for existence.
func (s *Service) GetContent(ctx context.Context, id, size, token string) (io.ReadCloser, string, error) {
	f, err := s.files.FindFileByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, "", errs.ErrNotFound
	}
	if err != nil {
		return nil, "", s.storeErr("get content", err)
	}
	if f.Kind == models.KindFolder {
		return nil, "", errs.BadRequest("A folder doesn't have content")
	}

	if !f.IsPublic {
		userID, err := s.sessions.Resolve(ctx, token)
		if err != nil || userID != f.OwnerID {
			return nil, "", errs.ErrNotFound
		}
	}

	key := f.StorageKey
	if size != "" {
		if !models.SupportedWidth(size) {
			return nil, "", errs.BadRequest("Invalid size")
		}
		key = f.StorageKey + "_" + size
	}

	exists, err := s.content.Exists(key)
	if err != nil {
		return nil, "", s.storeErr("get content", err)
	}
	if !exists {
		return nil, "", errs.ErrNotFound
	}
	rc, err := s.content.Read(key)
	if err != nil {
		return nil, "", s.storeErr("get content", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(f.Name))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return rc, mimeType, nil
}
